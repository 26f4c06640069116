package plan

// FuseType names a pair (or triple) of adjacent kernels that a single fused
// kernel could replace.
type FuseType int

const (
	FuseStockhamWithTrans FuseType = iota
	FuseStockhamWithTransXYZ
	FuseStockhamWithTransZXY
	FuseTransWithStockham
	FuseR2CTranspose
	FuseStockhamR2CTranspose
	FuseTransposeC2R
)

func (t FuseType) String() string {
	switch t {
	case FuseStockhamWithTrans:
		return "STOCKHAM_WITH_TRANS"
	case FuseStockhamWithTransXYZ:
		return "STOCKHAM_WITH_TRANS_XY_Z"
	case FuseStockhamWithTransZXY:
		return "STOCKHAM_WITH_TRANS_Z_XY"
	case FuseTransWithStockham:
		return "TRANS_WITH_STOCKHAM"
	case FuseR2CTranspose:
		return "R2C_TRANSPOSE"
	case FuseStockhamR2CTranspose:
		return "STOCKHAM_R2C_TRANSPOSE"
	case FuseTransposeC2R:
		return "TRANSPOSE_C2R"
	}
	return "UNKNOWN"
}

// FuseShim records a fusion candidate over consecutive leaves.  Shims are
// advisory: the executor may launch the fused kernel when one exists, or
// fall back to the individual kernels.
type FuseShim struct {
	Type   FuseType
	Leaves []*Node // in execution order
}

// First returns the first leaf covered by the shim.
func (f *FuseShim) First() *Node { return f.Leaves[0] }

// Last returns the last leaf covered by the shim.
func (f *FuseShim) Last() *Node { return f.Leaves[len(f.Leaves)-1] }

// CollectFuseShims scans the leaf sequence for fusion candidates.  A leaf
// joins at most one shim.  Leaves that must observe or produce user-visible
// data for a callback stay unfused, so the callback sees the buffer a lone
// kernel would have produced.
func (tb *TreeBuilder) CollectFuseShims(root *Node, p *Problem) []*FuseShim {
	leaves := root.Leaves()
	var shims []*FuseShim
	used := make(map[*Node]bool)

	pinned := func(n *Node) bool {
		if p.LoadCallback != nil && n == leaves[0] {
			return true
		}
		if p.StoreCallback != nil && n == leaves[len(leaves)-1] {
			return true
		}
		return false
	}

	add := func(t FuseType, ns ...*Node) {
		for _, n := range ns {
			if used[n] || pinned(n) {
				return
			}
		}
		for _, n := range ns {
			used[n] = true
		}
		shims = append(shims, &FuseShim{Type: t, Leaves: ns})
	}

	for i := 0; i < len(leaves); i++ {
		a := leaves[i]
		if used[a] {
			continue
		}

		if i+2 < len(leaves) &&
			a.Scheme == SchemeKernelStockham &&
			leaves[i+1].Scheme == SchemeKernelR2CPost &&
			leaves[i+2].Scheme == SchemeKernelTranspose &&
			tb.fusableLength(a) {
			add(FuseStockhamR2CTranspose, a, leaves[i+1], leaves[i+2])
			continue
		}
		if i+1 >= len(leaves) {
			break
		}
		b := leaves[i+1]
		switch {
		case a.Scheme == SchemeKernelStockham && b.Scheme == SchemeKernelTranspose && tb.fusableLength(a):
			add(FuseStockhamWithTrans, a, b)
		case a.Scheme == SchemeKernelStockham && b.Scheme == SchemeKernelTransposeXYZ && tb.fusableLength(a):
			add(FuseStockhamWithTransXYZ, a, b)
		case a.Scheme == SchemeKernelStockham && b.Scheme == SchemeKernelTransposeZXY && tb.fusableLength(a):
			add(FuseStockhamWithTransZXY, a, b)
		case a.Scheme.IsTranspose() && b.Scheme == SchemeKernelStockham && tb.fusableLength(b):
			add(FuseTransWithStockham, a, b)
		case a.Scheme == SchemeKernelR2CPost && b.Scheme == SchemeKernelTranspose:
			add(FuseR2CTranspose, a, b)
		case a.Scheme.IsTranspose() && b.Scheme == SchemeKernelC2RPre:
			add(FuseTransposeC2R, a, b)
		}
	}
	return shims
}

// fusableLength limits fused FFT kernels to lengths whose working set fits
// the fused kernel templates.
func (tb *TreeBuilder) fusableLength(n *Node) bool {
	return n.Length[0] <= tb.Tuning.MaxFusePrePostLength
}
