package plan

// CollapseContiguousDims folds higher dimensions of row-kernel leaves into
// the batch count.  A dimension can be treated as batch only when the batch
// distance tiles exactly after it on both the input and the output side;
// a dimension collapsible on one side only is left alone, since the kernel
// addresses both sides with the same loop structure.
func CollapseContiguousDims(root *Node) {
	for _, leaf := range root.Leaves() {
		if leaf.Scheme != SchemeKernelStockham {
			continue
		}
		collapseNode(leaf)
	}
}

func collapseNode(n *Node) {
	for len(n.Length) > n.Dimension {
		d := len(n.Length) - 1
		if n.InStride[d]*n.Length[d] != n.IDist ||
			n.OutStride[d]*n.Length[d] != n.ODist {
			return
		}
		n.Batch *= n.Length[d]
		n.IDist = n.InStride[d]
		n.ODist = n.OutStride[d]
		n.Length = n.Length[:d]
		n.InStride = n.InStride[:d]
		n.OutStride = n.OutStride[:d]
	}
}
