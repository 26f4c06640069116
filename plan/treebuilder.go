package plan

import (
	"fmt"

	"github.com/EMinsight/rocFFT/pool"
)

// Tuning holds the decomposition thresholds.  The defaults mirror the
// shipped kernel set; a tuned build may override them.
type Tuning struct {
	// MaxFusePrePostLength caps the transform length for which the
	// real/complex pre/post butterfly is folded into the FFT kernel.
	MaxFusePrePostLength int

	// Minimum row counts below which a block-column kernel is not worth
	// launching, per precision.
	MinSBCCRowsSingle int
	MinSBCCRowsDouble int
}

// DefaultTuning returns the thresholds used by the built-in kernels.
func DefaultTuning() Tuning {
	return Tuning{
		MaxFusePrePostLength: 2048,
		MinSBCCRowsSingle:    8,
		MinSBCCRowsDouble:    4,
	}
}

// sbcrEligibleArchs lists the architectures whose block-column-row kernels
// are enabled for the 3D real inverse fast path.
var sbcrEligibleArchs = map[string]bool{
	"gfx908": true,
	"gfx90a": true,
}

// sbcc192Overrides lists, per architecture, the (length1, length2) shapes
// for which a length-192 block-column kernel is profitable in single
// precision beyond the generic 192x192 case.
var sbcc192Overrides = map[string][][2]int{
	"gfx908": {{200, 192}, {192, 168}},
}

// TreeBuilder decomposes a transform problem into a plan tree.  It is
// stateless apart from its configuration and safe for concurrent use; all
// per-plan state lives in the tree being built.
type TreeBuilder struct {
	Catalog *pool.Catalog
	Props   pool.DeviceProps
	Tuning  Tuning
}

// NewTreeBuilder returns a builder over the given kernel catalog and device.
func NewTreeBuilder(catalog *pool.Catalog, props pool.DeviceProps) *TreeBuilder {
	return &TreeBuilder{Catalog: catalog, Props: props, Tuning: DefaultTuning()}
}

// Build decides the root scheme and recursively populates the tree.  The
// root node carries the problem's lengths, strides and array types already.
func (tb *TreeBuilder) Build(p *Problem, root *Node) error {
	b := &treeBuild{TreeBuilder: tb, problem: p}
	if p.Transform.IsReal() {
		return b.buildReal(root)
	}
	return b.buildComplexDim(root)
}

// treeBuild is one Build invocation; it carries the problem so nested real
// nodes can attach the user callbacks.
type treeBuild struct {
	*TreeBuilder
	problem *Problem
}

func (b *treeBuild) hasStockham(length int, prec Precision) bool {
	return b.Catalog.Has(pool.Key1D(length, prec, SchemeKernelStockham))
}

// ---------------------------------------------------------------------------
// Complex decompositions

func (b *treeBuild) buildComplexDim(n *Node) error {
	switch n.Dimension {
	case 1:
		return b.buildComplex1D(n)
	case 2:
		return b.buildComplex2D(n)
	case 3:
		return b.buildComplex3D(n)
	}
	return internalf("complex build of dimension %d", n.Dimension)
}

func (b *treeBuild) buildComplex1D(n *Node) error {
	length := n.Length[0]
	if b.hasStockham(length, n.Precision) {
		n.Scheme = SchemeKernelStockham
		return nil
	}
	if l0, l1, ok := b.split1D(length, n.Precision); ok {
		return b.build1DCC(n, l0, l1)
	}
	return b.buildBluestein(n)
}

// split1D looks for N = l0*l1 with a block-column kernel for l1 and a row
// kernel for l0.  Among candidates the pair closest to a square split wins;
// block kernels degrade when one factor dwarfs the other.
func (b *treeBuild) split1D(length int, prec Precision) (l0, l1 int, ok bool) {
	best := 0
	for d := 2; d <= length/2; d++ {
		if length%d != 0 {
			continue
		}
		if !b.Catalog.HasSBCC(d, prec) || !b.hasStockham(length/d, prec) {
			continue
		}
		if best == 0 || closerToSquare(length, d, best) {
			best = d
		}
	}
	if best == 0 {
		return 0, 0, false
	}
	return length / best, best, true
}

func closerToSquare(n, a, b int) bool {
	// compare |a - n/a| against |b - n/b| without going through floats
	da := a*a - n
	if da < 0 {
		da = -da
	}
	db := b*b - n
	if db < 0 {
		db = -db
	}
	return da < db
}

// build1DCC splits a 1D transform of length l0*l1 into a block-column pass
// of length l1 over l0 columns, then a row pass of length l0 over l1 rows.
// The column kernel applies the length-N twiddles between passes, read from
// a digit-decomposed large twiddle table.
func (b *treeBuild) build1DCC(n *Node, l0, l1 int) error {
	n.Scheme = Scheme1DCC

	cc := newChild(n, SchemeKernelStockhamBlockCC)
	cc.Length = append([]int{l1, l0}, n.Length[1:]...)
	cc.Large1D = l0 * l1
	cc.LargeTwdBase = 8
	cc.Placement = NotInPlace
	cc.InArrayType = ArrayTypeComplexInterleaved
	cc.OutArrayType = ArrayTypeComplexInterleaved

	row := newChild(n, SchemeKernelStockham)
	row.Length = append([]int{l0, l1}, n.Length[1:]...)
	row.Placement = NotInPlace
	row.InArrayType = ArrayTypeComplexInterleaved
	row.OutArrayType = ArrayTypeComplexInterleaved

	n.AddChild(cc)
	n.AddChild(row)
	return nil
}

// buildBluestein plans an arbitrary-length transform as a cyclic convolution
// of the next power-of-two length M >= 2N-1, which always factors natively.
func (b *treeBuild) buildBluestein(n *Node) error {
	length := n.Length[0]
	padded := 1
	for padded < 2*length-1 {
		padded *= 2
	}

	// The padded transform must plan without another convolution, or the
	// recursion would never terminate.
	if !b.hasStockham(padded, n.Precision) {
		if _, _, ok := b.split1D(padded, n.Precision); !ok {
			return fmt.Errorf("%w: length %d needs a %d-point convolution beyond the kernel set",
				ErrInvalidLength, length, padded)
		}
	}

	n.Scheme = SchemeBluestein
	n.LengthBlue = padded
	n.LengthBlueN = length

	chirp := newChild(n, SchemeKernelChirp)
	chirp.Length = []int{padded}
	chirp.LengthBlue = padded
	chirp.LengthBlueN = length

	padMul := newChild(n, SchemeKernelPadMul)
	padMul.LengthBlue = padded

	fftFwd := newChild(n, SchemeNone)
	fftFwd.Length = append([]int{padded}, n.Length[1:]...)
	fftFwd.Direction = -1
	fftFwd.Placement = InPlace
	fftFwd.InArrayType = ArrayTypeComplexInterleaved
	fftFwd.OutArrayType = ArrayTypeComplexInterleaved
	if err := b.buildComplex1D(fftFwd); err != nil {
		return err
	}

	fftMul := newChild(n, SchemeKernelFFTMul)
	fftMul.Length = append([]int{padded}, n.Length[1:]...)
	fftMul.LengthBlue = padded

	fftInv := newChild(n, SchemeNone)
	fftInv.Length = append([]int{padded}, n.Length[1:]...)
	fftInv.Direction = 1
	fftInv.Placement = InPlace
	fftInv.InArrayType = ArrayTypeComplexInterleaved
	fftInv.OutArrayType = ArrayTypeComplexInterleaved
	if err := b.buildComplex1D(fftInv); err != nil {
		return err
	}

	resMul := newChild(n, SchemeKernelResMul)
	resMul.LengthBlue = padded

	n.AddChild(chirp)
	n.AddChild(padMul)
	n.AddChild(fftFwd)
	n.AddChild(fftMul)
	n.AddChild(fftInv)
	n.AddChild(resMul)
	return nil
}

func (b *treeBuild) buildComplex2D(n *Node) error {
	l0, l1 := n.Length[0], n.Length[1]
	if b.Catalog.Has(pool.Key2D(l0, l1, n.Precision)) {
		n.Scheme = SchemeKernel2DSingle
		n.Dimension = 2
		return nil
	}

	n.Scheme = Scheme2DRTRT

	row0 := b.rowFFTChild(n, append([]int{l0, l1}, n.Length[2:]...))
	t1 := b.transposeChild(n, SchemeKernelTranspose, append([]int{l0, l1}, n.Length[2:]...))
	row1 := b.rowFFTChild(n, append([]int{l1, l0}, n.Length[2:]...))
	t2 := b.transposeChild(n, SchemeKernelTranspose, append([]int{l1, l0}, n.Length[2:]...))

	n.AddChild(row0)
	n.AddChild(t1)
	n.AddChild(row1)
	n.AddChild(t2)

	for _, c := range []*Node{row0, row1} {
		if err := b.buildComplex1D(c); err != nil {
			return err
		}
	}
	return nil
}

// buildComplex3D chains three row passes with XY_Z transposes; after three
// rotations the data is back in its original orientation.
func (b *treeBuild) buildComplex3D(n *Node) error {
	n.Scheme = Scheme3DTRTRT
	l0, l1, l2 := n.Length[0], n.Length[1], n.Length[2]

	row0 := b.rowFFTChild(n, []int{l0, l1, l2})
	t1 := b.transposeChild(n, SchemeKernelTransposeXYZ, []int{l0, l1, l2})
	row1 := b.rowFFTChild(n, []int{l2, l0, l1})
	t2 := b.transposeChild(n, SchemeKernelTransposeXYZ, []int{l2, l0, l1})
	row2 := b.rowFFTChild(n, []int{l1, l2, l0})
	t3 := b.transposeChild(n, SchemeKernelTransposeXYZ, []int{l1, l2, l0})

	for _, c := range []*Node{row0, t1, row1, t2, row2, t3} {
		n.AddChild(c)
	}
	for _, c := range []*Node{row0, row1, row2} {
		if err := b.buildComplex1D(c); err != nil {
			return err
		}
	}
	return nil
}

func (b *treeBuild) rowFFTChild(parent *Node, lengths []int) *Node {
	c := newChild(parent, SchemeNone)
	c.Length = lengths
	c.Dimension = 1
	c.InArrayType = ArrayTypeComplexInterleaved
	c.OutArrayType = ArrayTypeComplexInterleaved
	return c
}

func (b *treeBuild) transposeChild(parent *Node, scheme Scheme, lengths []int) *Node {
	c := newChild(parent, scheme)
	c.Length = lengths
	c.Dimension = len(lengths)
	c.Placement = NotInPlace
	c.InArrayType = ArrayTypeComplexInterleaved
	c.OutArrayType = ArrayTypeComplexInterleaved
	_ = c.SetTransposeOutputLength()
	return c
}

// ---------------------------------------------------------------------------
// Real decompositions

func (b *treeBuild) buildReal(n *Node) error {
	even := n.Length[0]%2 == 0
	switch {
	case n.Dimension == 1 && even:
		return b.buildRealEven(n)
	case n.Dimension == 2 && even:
		return b.buildReal2DEven(n)
	case n.Dimension == 3 && even:
		return b.buildReal3DEven(n)
	default:
		return b.buildRealCmplx(n)
	}
}

// buildRealCmplx wraps a full-length complex transform between copy kernels.
// It works for any length and rank but moves twice the data of the
// even-length specializations.
func (b *treeBuild) buildRealCmplx(n *Node) error {
	n.Scheme = SchemeRealTransformUsingComplex
	forward := n.Direction == -1

	copyIn := newChild(n, SchemeKernelCopyHerm2C)
	if forward {
		copyIn.Scheme = SchemeKernelCopyR2C
	}
	copyIn.Dimension = n.Dimension
	copyIn.Placement = NotInPlace
	copyIn.InArrayType = n.InArrayType
	copyIn.OutArrayType = ArrayTypeComplexInterleaved

	cfft := newChild(n, SchemeNone)
	cfft.Dimension = n.Dimension
	cfft.Placement = InPlace
	cfft.InArrayType = ArrayTypeComplexInterleaved
	cfft.OutArrayType = ArrayTypeComplexInterleaved
	if err := b.buildComplexDim(cfft); err != nil {
		return err
	}

	copyOut := newChild(n, SchemeKernelCopyC2R)
	if forward {
		copyOut.Scheme = SchemeKernelCopyC2Herm
	}
	copyOut.Dimension = n.Dimension
	copyOut.Placement = NotInPlace
	copyOut.InArrayType = ArrayTypeComplexInterleaved
	copyOut.OutArrayType = n.OutArrayType

	n.AddChild(copyIn)
	n.AddChild(cfft)
	n.AddChild(copyOut)
	return nil
}

// buildRealEven plans an even-length real transform as a half-length
// complex FFT over the same buffer plus a butterfly that untangles (forward)
// or re-tangles (inverse) the Hermitian result.  Short transforms fold the
// butterfly into the FFT kernel when it resolves to a single kernel.
func (b *treeBuild) buildRealEven(n *Node) error {
	n.Scheme = SchemeRealTransformEven
	n.tryFusePrePost = n.Length[0] <= b.Tuning.MaxFusePrePostLength
	half := n.Length[0] / 2
	forward := n.Direction == -1

	cfft := newChild(n, SchemeNone)
	cfft.Length = append([]int{half}, n.Length[1:]...)
	cfft.Dimension = 1
	cfft.Placement = InPlace
	cfft.InArrayType = ArrayTypeComplexInterleaved
	cfft.OutArrayType = ArrayTypeComplexInterleaved
	if err := b.buildComplex1D(cfft); err != nil {
		return err
	}
	fuse := n.tryFusePrePost && cfft.IsLeaf()

	cb := newChild(n, SchemeKernelApplyCallback)
	cb.Dimension = n.Dimension
	cb.Placement = InPlace
	cb.InArrayType = ArrayTypeReal
	cb.OutArrayType = ArrayTypeReal
	if forward {
		cb.Callback = b.problem.LoadCallback
	} else {
		cb.Callback = b.problem.StoreCallback
	}

	if forward {
		n.AddChild(cb)
		if fuse {
			cfft.Embedded = pool.EmbeddedR2CPost
			cfft.OutputLength = append([]int{half + 1}, n.Length[1:]...)
			n.AddChild(cfft)
		} else {
			post := newChild(n, SchemeKernelR2CPost)
			post.Length = append([]int{half}, n.Length[1:]...)
			post.OutputLength = append([]int{half + 1}, n.Length[1:]...)
			post.Placement = NotInPlace
			post.InArrayType = ArrayTypeComplexInterleaved
			post.OutArrayType = n.OutArrayType
			n.AddChild(cfft)
			n.AddChild(post)
		}
	} else {
		if fuse {
			cfft.Embedded = pool.EmbeddedC2RPre
			n.AddChild(cfft)
		} else {
			pre := newChild(n, SchemeKernelC2RPre)
			pre.Length = append([]int{half}, n.Length[1:]...)
			pre.Placement = NotInPlace
			pre.InArrayType = n.InArrayType
			pre.OutArrayType = ArrayTypeComplexInterleaved
			n.AddChild(pre)
			n.AddChild(cfft)
		}
		n.AddChild(cb)
	}
	return nil
}

// sbccDimAvailable reports whether a block-column kernel can carry dimension
// dim of the given complex shape: the kernel must exist and there must be
// enough rows to fill its blocks.  Length-192 kernels underperform on most
// shapes in single precision, so they are limited to known-good ones.
func (b *treeBuild) sbccDimAvailable(lengths []int, dim int, prec Precision) bool {
	length := lengths[dim]
	if !b.Catalog.HasSBCC(length, prec) {
		return false
	}
	rows := 1
	for i, l := range lengths {
		if i != dim {
			rows *= l
		}
	}
	minRows := b.Tuning.MinSBCCRowsSingle
	if prec == Double {
		minRows = b.Tuning.MinSBCCRowsDouble
	}
	if rows < minRows {
		return false
	}
	if length == 192 && prec == Single && len(lengths) >= 3 {
		if lengths[1] == 192 && lengths[2] == 192 {
			return true
		}
		for _, shape := range sbcc192Overrides[b.Props.Name] {
			if lengths[1] == shape[0] && lengths[2] == shape[1] {
				return true
			}
		}
		return false
	}
	return true
}

// realEvenChild plans the fastest-dimension stage of a multi-dimensional
// real-even transform.
func (b *treeBuild) realEvenChild(n *Node) (*Node, error) {
	rc := newChild(n, SchemeNone)
	rc.Dimension = 1
	err := b.buildRealEven(rc)
	return rc, err
}

func (b *treeBuild) buildReal2DEven(n *Node) error {
	n.Scheme = SchemeReal2DEven
	l0, l1 := n.Length[0], n.Length[1]
	l0c := l0/2 + 1
	forward := n.Direction == -1

	hermShape := []int{l0c, l1}
	useSBCC := b.sbccDimAvailable(hermShape, 1, n.Precision)

	if forward {
		rc, err := b.realEvenChild(n)
		if err != nil {
			return err
		}
		n.AddChild(rc)

		if useSBCC {
			n.AddChild(b.sbccChild(n, []int{l1, l0c}))
			return nil
		}
		t1 := b.transposeChild(n, SchemeKernelTranspose, []int{l0c, l1})
		row := b.rowFFTChild(n, []int{l1, l0c})
		t2 := b.transposeChild(n, SchemeKernelTranspose, []int{l1, l0c})
		n.AddChild(t1)
		n.AddChild(row)
		n.AddChild(t2)
		return b.buildComplex1D(row)
	}

	if useSBCC {
		n.AddChild(b.sbccChild(n, []int{l1, l0c}))
	} else {
		t1 := b.transposeChild(n, SchemeKernelTranspose, []int{l0c, l1})
		row := b.rowFFTChild(n, []int{l1, l0c})
		t2 := b.transposeChild(n, SchemeKernelTranspose, []int{l1, l0c})
		n.AddChild(t1)
		n.AddChild(row)
		n.AddChild(t2)
		if err := b.buildComplex1D(row); err != nil {
			return err
		}
	}
	rc, err := b.realEvenChild(n)
	if err != nil {
		return err
	}
	n.AddChild(rc)
	return nil
}

func (b *treeBuild) sbccChild(parent *Node, lengths []int) *Node {
	c := newChild(parent, SchemeKernelStockhamBlockCC)
	c.Length = lengths
	c.Dimension = 1
	c.Placement = InPlace
	c.InArrayType = ArrayTypeComplexInterleaved
	c.OutArrayType = ArrayTypeComplexInterleaved
	return c
}

// sbcrEligible gates the 3D real inverse fast path: three block-column-row
// passes, the last with the complex-to-real butterfly folded in.  The
// kernels assume unit strides and distinct buffers and exist only on the
// listed architectures.
func (b *treeBuild) sbcrEligible(n *Node) bool {
	if !sbcrEligibleArchs[b.Props.Name] {
		return false
	}
	if n.Placement != NotInPlace {
		return false
	}
	if len(n.InStride) == 0 || n.InStride[0] != 1 || n.OutStride[0] != 1 {
		return false
	}
	l0, l1, l2 := n.Length[0], n.Length[1], n.Length[2]
	return b.Catalog.HasSBCR(l2, n.Precision) &&
		b.Catalog.HasSBCR(l1, n.Precision) &&
		b.Catalog.HasSBCR(l0/2, n.Precision)
}

func (b *treeBuild) buildReal3DEven(n *Node) error {
	n.Scheme = SchemeReal3DEven
	l0, l1, l2 := n.Length[0], n.Length[1], n.Length[2]
	l0c := l0/2 + 1
	forward := n.Direction == -1

	hermShape := []int{l0c, l1, l2}

	if forward {
		rc, err := b.realEvenChild(n)
		if err != nil {
			return err
		}
		n.AddChild(rc)

		if b.sbccDimAvailable(hermShape, 1, n.Precision) &&
			b.sbccDimAvailable(hermShape, 2, n.Precision) {
			n.AddChild(b.sbccChild(n, []int{l1, l0c, l2}))
			n.AddChild(b.sbccChild(n, []int{l2, l0c, l1}))
			return nil
		}

		// Three XY_Z rotations return the data to its original
		// orientation, with a row pass after each of the first two.
		t1 := b.transposeChild(n, SchemeKernelTransposeXYZ, []int{l0c, l1, l2})
		c1 := b.rowFFTChild(n, []int{l2, l0c, l1})
		t2 := b.transposeChild(n, SchemeKernelTransposeXYZ, []int{l2, l0c, l1})
		c2 := b.rowFFTChild(n, []int{l1, l2, l0c})
		t3 := b.transposeChild(n, SchemeKernelTransposeXYZ, []int{l1, l2, l0c})
		for _, c := range []*Node{t1, c1, t2, c2, t3} {
			n.AddChild(c)
		}
		for _, c := range []*Node{c1, c2} {
			if err := b.buildComplex1D(c); err != nil {
				return err
			}
		}
		return nil
	}

	if b.sbcrEligible(n) {
		sbcrZ := b.sbcrChild(n, []int{l2, l0c, l1})
		sbcrY := b.sbcrChild(n, []int{l1, l0c, l2})
		sbcrX := b.sbcrChild(n, []int{l0 / 2, l1, l2})
		sbcrX.Embedded = pool.EmbeddedC2RPre
		sbcrX.OutputLength = []int{l0, l1, l2}
		sbcrX.OutArrayType = ArrayTypeReal
		n.AddChild(sbcrZ)
		n.AddChild(sbcrY)
		n.AddChild(sbcrX)
		return nil
	}

	t1 := b.transposeChild(n, SchemeKernelTransposeZXY, []int{l0c, l1, l2})
	c1 := b.rowFFTChild(n, []int{l1, l2, l0c})
	t2 := b.transposeChild(n, SchemeKernelTransposeZXY, []int{l1, l2, l0c})
	c2 := b.rowFFTChild(n, []int{l2, l0c, l1})
	t3 := b.transposeChild(n, SchemeKernelTransposeZXY, []int{l2, l0c, l1})
	for _, c := range []*Node{t1, c1, t2, c2, t3} {
		n.AddChild(c)
	}
	for _, c := range []*Node{c1, c2} {
		if err := b.buildComplex1D(c); err != nil {
			return err
		}
	}
	rc, err := b.realEvenChild(n)
	if err != nil {
		return err
	}
	n.AddChild(rc)
	return nil
}

func (b *treeBuild) sbcrChild(parent *Node, lengths []int) *Node {
	c := newChild(parent, SchemeKernelStockhamBlockCR)
	c.Length = lengths
	c.Dimension = 1
	c.Placement = NotInPlace
	c.InArrayType = ArrayTypeComplexInterleaved
	c.OutArrayType = ArrayTypeComplexInterleaved
	return c
}

// ---------------------------------------------------------------------------
// Kernel check

// KernelCheck verifies that every FFT leaf has a catalog entry and copies
// the kernel parameters onto the node.  Transpose, copy and Bluestein
// auxiliary kernels are generated generically and need no catalog entry.
// A missing kernel here is a decomposition bug, not a user error.
func (tb *TreeBuilder) KernelCheck(root *Node) error {
	for _, leaf := range root.Leaves() {
		var key pool.Key
		switch leaf.Scheme {
		case SchemeKernelStockham, SchemeKernelStockhamBlockCC, SchemeKernelStockhamBlockCR:
			key = pool.Key1D(leaf.Length[0], leaf.Precision, leaf.Scheme)
		case SchemeKernel2DSingle:
			key = pool.Key2D(leaf.Length[0], leaf.Length[1], leaf.Precision)
		default:
			continue
		}
		if leaf.SpecifiedKey != nil {
			key = *leaf.SpecifiedKey
		}
		// Embedded pre/post processing reuses the plain kernel entry.
		key.Embedded = pool.EmbeddedNone
		k, ok := tb.Catalog.Get(key)
		if !ok {
			return internalf("no kernel for %s", key)
		}
		leaf.KernelFactors = append([]int(nil), k.Factors...)
		leaf.DirectToFromReg = k.DirectToFromReg
	}
	return nil
}
