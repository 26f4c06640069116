package plan

// Parameter assignment walks the tree top-down, deriving every child's
// strides and distances from its parent's.  The root's strides come from
// the user problem; internal buffers are laid out contiguously.  All
// strides are in elements of the buffer's own array type, so the
// real/complex reinterpretation of a buffer halves the higher-dimension
// strides and the batch distance while the fastest-dimension stride is
// kept.

// AssignParams derives strides for the whole subtree under n.  The node's
// own strides must be set before the call.
func AssignParams(n *Node) error {
	switch n.Scheme {
	case SchemeRealTransformUsingComplex:
		return assignRealCmplx(n)
	case SchemeRealTransformEven:
		return assignRealEven(n)
	case SchemeReal2DEven:
		return assignReal2DEven(n)
	case SchemeReal3DEven:
		return assignReal3DEven(n)
	case Scheme1DCC:
		return assign1DCC(n)
	case Scheme2DRTRT:
		return assign2DRTRT(n)
	case Scheme3DTRTRT:
		return assign3DTRTRT(n)
	case SchemeBluestein:
		return assignBluestein(n)
	}
	if n.IsLeaf() {
		return nil
	}
	return internalf("no parameter assignment for %s", n.Scheme)
}

// assignChildren recurses into the internal children of n after their own
// strides have been set.
func assignChildren(n *Node) error {
	for _, c := range n.Children {
		if c.IsLeaf() {
			continue
		}
		if err := AssignParams(c); err != nil {
			return err
		}
	}
	return nil
}

// contigStrides lays out a shape contiguously, fastest dimension first,
// returning strides and the total element count.
func contigStrides(shape []int) ([]int, int) {
	strides := make([]int, len(shape))
	span := 1
	for i, l := range shape {
		strides[i] = span
		span *= l
	}
	return strides, span
}

// halveHigher reinterprets real-side strides as complex-side ones: the
// fastest dimension keeps its stride, higher dimensions and the batch
// distance are halved.
func halveHigher(strides []int, dist int) ([]int, int) {
	out := append([]int(nil), strides...)
	for i := 1; i < len(out); i++ {
		out[i] /= 2
	}
	return out, dist / 2
}

func copyStrides(s []int) []int { return append([]int(nil), s...) }

// ---------------------------------------------------------------------------
// Real wrappers

func assignRealCmplx(n *Node) error {
	copyIn, cfft, copyOut := n.Children[0], n.Children[1], n.Children[2]

	tmpStride, tmpLen := contigStrides(n.Length)

	copyIn.InStride = copyStrides(n.InStride)
	copyIn.IDist = n.IDist
	copyIn.OutStride = tmpStride
	copyIn.ODist = tmpLen

	cfft.InStride = copyStrides(tmpStride)
	cfft.IDist = tmpLen
	cfft.OutStride = copyStrides(tmpStride)
	cfft.ODist = tmpLen

	copyOut.InStride = copyStrides(tmpStride)
	copyOut.IDist = tmpLen
	copyOut.OutStride = copyStrides(n.OutStride)
	copyOut.ODist = n.ODist

	return assignChildren(n)
}

func assignRealEven(n *Node) error {
	if n.Direction == -1 {
		return assignRealEvenForward(n)
	}
	return assignRealEvenInverse(n)
}

func assignRealEvenForward(n *Node) error {
	cb := n.Children[0]
	cfft := n.Children[1]

	// callback pass touches the real input in place
	cb.InStride = copyStrides(n.InStride)
	cb.IDist = n.IDist
	cb.OutStride = copyStrides(n.InStride)
	cb.ODist = n.IDist

	// the real input viewed as half-length complex
	cfft.InStride, cfft.IDist = halveHigher(n.InStride, n.IDist)

	if len(n.Children) == 2 {
		// post-processing is folded into the FFT kernel, which writes
		// the Hermitian result directly
		cfft.OutStride = copyStrides(n.OutStride)
		cfft.ODist = n.ODist
		return assignChildren(n)
	}

	// separate post kernel: FFT in place over the input view, butterfly
	// into the output
	cfft.OutStride = copyStrides(cfft.InStride)
	cfft.ODist = cfft.IDist

	post := n.Children[2]
	post.InStride = copyStrides(cfft.OutStride)
	post.IDist = cfft.ODist
	post.OutStride = copyStrides(n.OutStride)
	post.ODist = n.ODist

	return assignChildren(n)
}

func assignRealEvenInverse(n *Node) error {
	// the real output viewed as half-length complex
	outHalf, outHalfDist := halveHigher(n.OutStride, n.ODist)

	var cfft *Node
	if len(n.Children) == 2 {
		// pre-processing folded into the FFT kernel: read Hermitian
		// input, write the complex view of the output
		cfft = n.Children[0]
		cfft.InStride = copyStrides(n.InStride)
		cfft.IDist = n.IDist
	} else {
		pre := n.Children[0]
		pre.InStride = copyStrides(n.InStride)
		pre.IDist = n.IDist
		pre.OutStride = copyStrides(outHalf)
		pre.ODist = outHalfDist

		cfft = n.Children[1]
		cfft.InStride = copyStrides(outHalf)
		cfft.IDist = outHalfDist
	}
	cfft.OutStride = copyStrides(outHalf)
	cfft.ODist = outHalfDist

	cb := n.Children[len(n.Children)-1]
	cb.InStride = copyStrides(n.OutStride)
	cb.IDist = n.ODist
	cb.OutStride = copyStrides(n.OutStride)
	cb.ODist = n.ODist

	return assignChildren(n)
}

func assignReal2DEven(n *Node) error {
	if n.Direction == -1 {
		return assignReal2DEvenForward(n)
	}
	return assignReal2DEvenInverse(n)
}

func assignReal2DEvenForward(n *Node) error {
	l0c := n.Length[0]/2 + 1
	l1 := n.Length[1]

	rc := n.Children[0]
	rc.InStride = copyStrides(n.InStride)
	rc.IDist = n.IDist
	rc.OutStride = copyStrides(n.OutStride)
	rc.ODist = n.ODist

	if len(n.Children) == 2 {
		// block-column kernel runs along dimension 1 in place over the
		// Hermitian result
		sbcc := n.Children[1]
		sbcc.InStride = []int{n.OutStride[1], n.OutStride[0]}
		sbcc.IDist = n.ODist
		sbcc.OutStride = copyStrides(sbcc.InStride)
		sbcc.ODist = n.ODist
		return assignChildren(n)
	}

	t1, row, t2 := n.Children[1], n.Children[2], n.Children[3]
	tmpStride, tmpLen := contigStrides([]int{l1, l0c})

	t1.InStride = []int{n.OutStride[0], n.OutStride[1]}
	t1.IDist = n.ODist
	t1.OutStride = []int{l1, 1}
	t1.ODist = tmpLen

	row.InStride = copyStrides(tmpStride)
	row.IDist = tmpLen
	row.OutStride = copyStrides(tmpStride)
	row.ODist = tmpLen

	t2.InStride = copyStrides(tmpStride)
	t2.IDist = tmpLen
	t2.OutStride = []int{n.OutStride[1], n.OutStride[0]}
	t2.ODist = n.ODist

	return assignChildren(n)
}

func assignReal2DEvenInverse(n *Node) error {
	l0c := n.Length[0]/2 + 1
	l1 := n.Length[1]

	if len(n.Children) == 2 {
		// column FFT in place over the Hermitian input, then the
		// half-length inverse into the real output
		sbcc, rc := n.Children[0], n.Children[1]
		sbcc.InStride = []int{n.InStride[1], n.InStride[0]}
		sbcc.IDist = n.IDist
		sbcc.OutStride = copyStrides(sbcc.InStride)
		sbcc.ODist = n.IDist

		rc.InStride = copyStrides(n.InStride)
		rc.IDist = n.IDist
		rc.OutStride = copyStrides(n.OutStride)
		rc.ODist = n.ODist
		return assignChildren(n)
	}

	t1, row, t2, rc := n.Children[0], n.Children[1], n.Children[2], n.Children[3]
	tmpStride, tmpLen := contigStrides([]int{l1, l0c})
	tmp2Stride, _ := contigStrides([]int{l0c, l1})

	t1.InStride = copyStrides(n.InStride)
	t1.IDist = n.IDist
	t1.OutStride = []int{l1, 1}
	t1.ODist = tmpLen

	row.InStride = copyStrides(tmpStride)
	row.IDist = tmpLen
	row.OutStride = copyStrides(tmpStride)
	row.ODist = tmpLen

	t2.InStride = copyStrides(tmpStride)
	t2.IDist = tmpLen
	t2.OutStride = []int{l0c, 1}
	t2.ODist = tmpLen

	rc.InStride = copyStrides(tmp2Stride)
	rc.IDist = tmpLen
	rc.OutStride = copyStrides(n.OutStride)
	rc.ODist = n.ODist

	return assignChildren(n)
}

func assignReal3DEven(n *Node) error {
	if n.Direction == -1 {
		return assignReal3DEvenForward(n)
	}
	return assignReal3DEvenInverse(n)
}

func assignReal3DEvenForward(n *Node) error {
	l0c := n.Length[0]/2 + 1
	l1, l2 := n.Length[1], n.Length[2]
	os := n.OutStride

	rc := n.Children[0]
	rc.InStride = copyStrides(n.InStride)
	rc.IDist = n.IDist
	rc.OutStride = copyStrides(os)
	rc.ODist = n.ODist

	if len(n.Children) == 3 {
		sbccY, sbccZ := n.Children[1], n.Children[2]
		sbccY.InStride = []int{os[1], os[0], os[2]}
		sbccY.IDist = n.ODist
		sbccY.OutStride = copyStrides(sbccY.InStride)
		sbccY.ODist = n.ODist

		sbccZ.InStride = []int{os[2], os[0], os[1]}
		sbccZ.IDist = n.ODist
		sbccZ.OutStride = copyStrides(sbccZ.InStride)
		sbccZ.ODist = n.ODist
		return assignChildren(n)
	}

	// rc writes to out, then three XY_Z rotations through two temps land
	// the data back in out
	t1, c1, t2, c2, t3 := n.Children[1], n.Children[2], n.Children[3], n.Children[4], n.Children[5]
	total := l0c * l1 * l2

	// out {l0c,l1,l2} -> tmp {l2,l0c,l1}
	t1.InStride = copyStrides(os)
	t1.IDist = n.ODist
	t1.OutStride = []int{l2, l2 * l0c, 1}
	t1.ODist = total

	c1.InStride = []int{1, l2, l2 * l0c}
	c1.IDist = total
	c1.OutStride = copyStrides(c1.InStride)
	c1.ODist = total

	// tmp {l2,l0c,l1} -> tmp2 {l1,l2,l0c}
	t2.InStride = []int{1, l2, l2 * l0c}
	t2.IDist = total
	t2.OutStride = []int{l1, l1 * l2, 1}
	t2.ODist = total

	c2.InStride = []int{1, l1, l1 * l2}
	c2.IDist = total
	c2.OutStride = copyStrides(c2.InStride)
	c2.ODist = total

	// tmp2 {l1,l2,l0c} -> out {l0c,l1,l2}
	t3.InStride = []int{1, l1, l1 * l2}
	t3.IDist = total
	t3.OutStride = []int{os[1], os[2], os[0]}
	t3.ODist = n.ODist

	return assignChildren(n)
}

func assignReal3DEvenInverse(n *Node) error {
	l0c := n.Length[0]/2 + 1
	l1, l2 := n.Length[1], n.Length[2]
	is := n.InStride
	total := l0c * l1 * l2

	if len(n.Children) == 3 && n.Children[0].Scheme == SchemeKernelStockhamBlockCR {
		return assignReal3DEvenSBCR(n)
	}

	t1, c1, t2, c2, t3, rc := n.Children[0], n.Children[1], n.Children[2], n.Children[3], n.Children[4], n.Children[5]

	// in {l0c,l1,l2} -> tmp {l1,l2,l0c} via Z_XY
	t1.InStride = copyStrides(is)
	t1.IDist = n.IDist
	t1.OutStride = []int{l1 * l2, 1, l1}
	t1.ODist = total

	c1.InStride = []int{1, l1, l1 * l2}
	c1.IDist = total
	c1.OutStride = copyStrides(c1.InStride)
	c1.ODist = total

	// tmp {l1,l2,l0c} -> tmp2 {l2,l0c,l1} via Z_XY
	t2.InStride = []int{1, l1, l1 * l2}
	t2.IDist = total
	t2.OutStride = []int{l2 * l0c, 1, l2}
	t2.ODist = total

	c2.InStride = []int{1, l2, l2 * l0c}
	c2.IDist = total
	c2.OutStride = copyStrides(c2.InStride)
	c2.ODist = total

	// tmp2 {l2,l0c,l1} -> tmp3 {l0c,l1,l2} via Z_XY
	t3.InStride = []int{1, l2, l2 * l0c}
	t3.IDist = total
	t3.OutStride = []int{l0c * l1, 1, l0c}
	t3.ODist = total

	rc.InStride = []int{1, l0c, l0c * l1}
	rc.IDist = total
	rc.OutStride = copyStrides(n.OutStride)
	rc.ODist = n.ODist

	return assignChildren(n)
}

// assignReal3DEvenSBCR wires the three block-column-row passes of the 3D
// inverse fast path: each pass reads strided columns and writes contiguous
// rows, the last one emitting real data through its folded butterfly.
func assignReal3DEvenSBCR(n *Node) error {
	l0c := n.Length[0]/2 + 1
	l1, l2 := n.Length[1], n.Length[2]
	is := n.InStride
	total := l0c * l1 * l2

	sbcrZ, sbcrY, sbcrX := n.Children[0], n.Children[1], n.Children[2]

	// in (x,y,z) -> tmp laid out (z,x,y)
	sbcrZ.InStride = []int{is[2], is[0], is[1]}
	sbcrZ.IDist = n.IDist
	sbcrZ.OutStride = []int{1, l2, l2 * l0c}
	sbcrZ.ODist = total

	// tmp (z,x,y) -> tmp2 laid out (y,x,z)
	sbcrY.InStride = []int{l2 * l0c, l2, 1}
	sbcrY.IDist = total
	sbcrY.OutStride = []int{1, l1, l1 * l0c}
	sbcrY.ODist = total

	// tmp2 (y,x,z) -> real out (x,y,z)
	sbcrX.InStride = []int{l1, 1, l1 * l0c}
	sbcrX.IDist = total
	sbcrX.OutStride = copyStrides(n.OutStride)
	sbcrX.ODist = n.ODist

	return nil
}

// ---------------------------------------------------------------------------
// Complex decompositions

func assign1DCC(n *Node) error {
	cc, row := n.Children[0], n.Children[1]
	l1, l0 := cc.Length[0], cc.Length[1]
	is0, os0 := n.InStride[0], n.OutStride[0]

	// column pass reads every l0-th element and writes the transposed
	// result contiguously
	cc.InStride = append([]int{is0 * l0, is0}, n.InStride[1:]...)
	cc.IDist = n.IDist
	cc.OutStride = []int{l0, 1}
	cc.ODist = l0 * l1

	// row pass reads the temp rows and scatters into the output in
	// digit-reversed order
	row.InStride = []int{1, l0}
	row.IDist = l0 * l1
	row.OutStride = append([]int{os0 * l1, os0}, n.OutStride[1:]...)
	row.ODist = n.ODist

	return assignChildren(n)
}

func assign2DRTRT(n *Node) error {
	l0, l1 := n.Length[0], n.Length[1]
	row0, t1, row1, t2 := n.Children[0], n.Children[1], n.Children[2], n.Children[3]
	tmpStride, tmpLen := contigStrides([]int{l1, l0})

	row0.InStride = copyStrides(n.InStride)
	row0.IDist = n.IDist
	row0.OutStride = copyStrides(n.OutStride)
	row0.ODist = n.ODist

	t1.InStride = copyStrides(n.OutStride)
	t1.IDist = n.ODist
	t1.OutStride = []int{l1, 1}
	t1.ODist = tmpLen

	row1.InStride = copyStrides(tmpStride)
	row1.IDist = tmpLen
	row1.OutStride = copyStrides(tmpStride)
	row1.ODist = tmpLen

	t2.InStride = copyStrides(tmpStride)
	t2.IDist = tmpLen
	t2.OutStride = []int{n.OutStride[1], n.OutStride[0]}
	t2.ODist = n.ODist

	return assignChildren(n)
}

func assign3DTRTRT(n *Node) error {
	l0, l1, l2 := n.Length[0], n.Length[1], n.Length[2]
	total := l0 * l1 * l2
	os := n.OutStride

	row0, t1, row1, t2, row2, t3 :=
		n.Children[0], n.Children[1], n.Children[2], n.Children[3], n.Children[4], n.Children[5]

	row0.InStride = copyStrides(n.InStride)
	row0.IDist = n.IDist
	row0.OutStride = copyStrides(os)
	row0.ODist = n.ODist

	// out {l0,l1,l2} -> tmp {l2,l0,l1}
	t1.InStride = copyStrides(os)
	t1.IDist = n.ODist
	t1.OutStride = []int{l2, l2 * l0, 1}
	t1.ODist = total

	row1.InStride = []int{1, l2, l2 * l0}
	row1.IDist = total
	row1.OutStride = copyStrides(row1.InStride)
	row1.ODist = total

	// tmp {l2,l0,l1} -> tmp2 {l1,l2,l0}
	t2.InStride = []int{1, l2, l2 * l0}
	t2.IDist = total
	t2.OutStride = []int{l1, l1 * l2, 1}
	t2.ODist = total

	row2.InStride = []int{1, l1, l1 * l2}
	row2.IDist = total
	row2.OutStride = copyStrides(row2.InStride)
	row2.ODist = total

	// tmp2 {l1,l2,l0} -> out {l0,l1,l2}
	t3.InStride = []int{1, l1, l1 * l2}
	t3.IDist = total
	t3.OutStride = []int{os[1], os[2], os[0]}
	t3.ODist = n.ODist

	return assignChildren(n)
}

func assignBluestein(n *Node) error {
	padded := n.LengthBlue
	chirp, padMul, fftFwd, fftMul, fftInv, resMul :=
		n.Children[0], n.Children[1], n.Children[2], n.Children[3], n.Children[4], n.Children[5]

	chirp.InStride = []int{1}
	chirp.IDist = padded
	chirp.OutStride = []int{1}
	chirp.ODist = padded

	padMul.InStride = copyStrides(n.InStride)
	padMul.IDist = n.IDist
	padMul.OutStride = []int{1}
	padMul.ODist = padded

	for _, c := range []*Node{fftFwd, fftMul, fftInv} {
		c.InStride = []int{1}
		c.IDist = padded
		c.OutStride = []int{1}
		c.ODist = padded
	}

	resMul.InStride = []int{1}
	resMul.IDist = padded
	resMul.OutStride = copyStrides(n.OutStride)
	resMul.ODist = n.ODist

	return assignChildren(n)
}
