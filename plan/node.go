package plan

import (
	"fmt"
	"strings"

	"github.com/EMinsight/rocFFT/pool"
	"github.com/EMinsight/rocFFT/repo"
)

// Node is one vertex of the plan tree.  Internal nodes carry a decomposition
// scheme and own their children exclusively; leaf nodes map to a single
// kernel launch.  Lengths and strides are expressed fastest dimension first,
// in elements of the node's own array types.
type Node struct {
	Scheme Scheme

	// Dimension is the kernel dimension; Length entries past it are
	// higher "batch-like" dimensions handled by the launch grid.
	Dimension int
	Length    []int

	// OutputLength is set when the node writes a different shape than it
	// reads (transposes, real/complex boundaries).  Empty means same as
	// Length.
	OutputLength []int

	Batch     int
	Direction int
	Precision Precision
	Placement Placement

	InArrayType  ArrayType
	OutArrayType ArrayType

	InStride  []int
	OutStride []int
	IDist     int
	ODist     int

	Parent   *Node
	Children []*Node

	// Embedded marks real/complex pre/post processing folded into this
	// FFT kernel.
	Embedded pool.EmbeddedType

	// Bluestein bookkeeping: LengthBlue is the padded convolution length
	// M, LengthBlueN the original transform length N.
	LengthBlue  int
	LengthBlueN int

	// Large1D is the full problem length on the column kernel of an
	// L1D_CC decomposition; LargeTwdBase its digit-table base.
	Large1D      int
	LargeTwdBase int

	// Kernel parameters resolved from the catalog.
	KernelFactors   []int
	DirectToFromReg bool

	// SpecifiedKey pins a leaf to an explicit catalog entry instead of
	// the default (length, precision, scheme) lookup.
	SpecifiedKey *pool.Key

	// Callback payload for apply-callback leaves.
	Callback *Callback

	Twiddles      *repo.Handle
	TwiddlesLarge *repo.Handle
	ChirpTable    *repo.Handle

	// tryFusePrePost requests the fused r2c-post/c2r-pre kernel variant
	// during an even-length real decomposition.
	tryFusePrePost bool

	fuseShims []*FuseShim
}

// newChild allocates a node inheriting the batch, direction, precision and
// array types of its parent.  The caller adjusts whatever differs.
func newChild(parent *Node, scheme Scheme) *Node {
	n := &Node{
		Scheme:    scheme,
		Dimension: 1,
		Parent:    parent,
	}
	if parent != nil {
		n.Batch = parent.Batch
		n.Direction = parent.Direction
		n.Precision = parent.Precision
		n.Placement = parent.Placement
		n.InArrayType = parent.InArrayType
		n.OutArrayType = parent.OutArrayType
		n.Length = append([]int(nil), parent.Length...)
	}
	return n
}

// AddChild appends c to the node's children, taking ownership.
func (n *Node) AddChild(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

// IsLeaf reports whether the node maps to a single kernel launch.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Root walks parent links to the tree root.
func (n *Node) Root() *Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// FirstLeaf returns the leftmost leaf under n.
func (n *Node) FirstLeaf() *Node {
	for !n.IsLeaf() {
		n = n.Children[0]
	}
	return n
}

// LastLeaf returns the rightmost leaf under n.
func (n *Node) LastLeaf() *Node {
	for !n.IsLeaf() {
		n = n.Children[len(n.Children)-1]
	}
	return n
}

// Leaves appends all leaves under n in execution order.
func (n *Node) Leaves() []*Node {
	var out []*Node
	n.walk(func(m *Node) {
		if m.IsLeaf() {
			out = append(out, m)
		}
	})
	return out
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}

// GetOutputLength returns the shape the node writes.
func (n *Node) GetOutputLength() []int {
	if len(n.OutputLength) > 0 {
		return n.OutputLength
	}
	return n.Length
}

// SetTransposeOutputLength derives OutputLength from Length for transpose
// leaves.  Calling it on any other scheme is a decomposition bug.
func (n *Node) SetTransposeOutputLength() error {
	switch n.Scheme {
	case SchemeKernelTranspose:
		n.OutputLength = append([]int(nil), n.Length...)
		n.OutputLength[0], n.OutputLength[1] = n.OutputLength[1], n.OutputLength[0]
	case SchemeKernelTransposeXYZ:
		// (x,y,z) -> (z,x,y)
		n.OutputLength = append([]int{n.Length[2], n.Length[0], n.Length[1]}, n.Length[3:]...)
	case SchemeKernelTransposeZXY:
		// (x,y,z) -> (y,z,x)
		n.OutputLength = append([]int{n.Length[1], n.Length[2], n.Length[0]}, n.Length[3:]...)
	default:
		return internalf("transpose output length on %s node", n.Scheme)
	}
	return nil
}

// Destroy releases the device tables held by the subtree.  Safe to call on
// partially built trees.
func (n *Node) Destroy(r *repo.Repo) {
	for _, c := range n.Children {
		c.Destroy(r)
	}
	if n.Twiddles != nil {
		r.ReleaseTwiddles1D(n.Twiddles)
		n.Twiddles = nil
	}
	if n.TwiddlesLarge != nil {
		r.ReleaseTwiddles1D(n.TwiddlesLarge)
		n.TwiddlesLarge = nil
	}
	if n.ChirpTable != nil {
		r.ReleaseChirp(n.ChirpTable)
		n.ChirpTable = nil
	}
}

// String renders the subtree for debugging, one node per line.
func (n *Node) String() string {
	var b strings.Builder
	n.print(&b, 0)
	return b.String()
}

func (n *Node) print(b *strings.Builder, depth int) {
	fmt.Fprintf(b, "%s%s len=%v", strings.Repeat("  ", depth), n.Scheme, n.Length)
	if len(n.OutputLength) > 0 {
		fmt.Fprintf(b, " out=%v", n.OutputLength)
	}
	fmt.Fprintf(b, " istride=%v idist=%d ostride=%v odist=%d %s %s->%s\n",
		n.InStride, n.IDist, n.OutStride, n.ODist,
		n.Placement, n.InArrayType, n.OutArrayType)
	for _, c := range n.Children {
		c.print(b, depth+1)
	}
}
