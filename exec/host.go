package exec

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/EMinsight/rocFFT/plan"
	"github.com/EMinsight/rocFFT/pool"
	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrUnsupportedLayout is returned by host execution for planar buffers;
// the interpreter only understands interleaved data.
var ErrUnsupportedLayout = errors.New("exec: planar layouts are not supported by host execution")

// Execute runs a compiled plan on host buffers.  Buffers are flat float64
// slices: a real element is one float, a complex element two.  For in-place
// plans pass the same slice twice.  Transforms are unnormalized in both
// directions, so a forward/inverse round trip scales by the transform
// length.
//
// Execution interprets the same node strides and distances a device launch
// would consume, so it doubles as a reference for the parameter assignment.
func Execute(pl *plan.Plan, in, out []float64) error {
	if pl.Problem.InArrayType.IsPlanar() || pl.Problem.OutArrayType.IsPlanar() {
		return ErrUnsupportedLayout
	}
	h := &host{ffts: make(map[int]*fourier.CmplxFFT)}
	return h.execNode(pl.Root, in, out)
}

type host struct {
	ffts map[int]*fourier.CmplxFFT
}

func (h *host) fft(n int) *fourier.CmplxFFT {
	f, ok := h.ffts[n]
	if !ok {
		f = fourier.NewCmplxFFT(n)
		h.ffts[n] = f
	}
	return f
}

func (h *host) forward(buf []complex128) {
	h.fft(len(buf)).Coefficients(buf, buf)
}

func (h *host) inverse(buf []complex128) {
	h.fft(len(buf)).Sequence(buf, buf)
}

func (h *host) transform(buf []complex128, direction int) {
	if direction == -1 {
		h.forward(buf)
	} else {
		h.inverse(buf)
	}
}

// view adapts a float buffer to element accesses in the units of an array
// type: complex types read and write float pairs.
type view struct {
	buf  []float64
	cplx bool
}

func viewOf(buf []float64, at plan.ArrayType) view {
	return view{buf: buf, cplx: at != plan.ArrayTypeReal}
}

func (v view) get(i int) complex128 {
	if v.cplx {
		return complex(v.buf[2*i], v.buf[2*i+1])
	}
	return complex(v.buf[i], 0)
}

func (v view) set(i int, c complex128) {
	if v.cplx {
		v.buf[2*i] = real(c)
		v.buf[2*i+1] = imag(c)
		return
	}
	v.buf[i] = real(c)
}

func tempBuf(complexElems int) []float64 {
	return make([]float64, 2*complexElems)
}

// forEachTransform iterates the batch and the length dimensions beyond
// dims, yielding base offsets into the input and output buffers.
func forEachTransform(n *plan.Node, dims int, fn func(inOff, outOff int) error) error {
	higher := n.Length[dims:]
	idx := make([]int, len(higher))
	for b := 0; b < n.Batch; b++ {
		for {
			inOff := b * n.IDist
			outOff := b * n.ODist
			for d, i := range idx {
				inOff += i * n.InStride[dims+d]
				outOff += i * n.OutStride[dims+d]
			}
			if err := fn(inOff, outOff); err != nil {
				return err
			}
			d := 0
			for ; d < len(idx); d++ {
				idx[d]++
				if idx[d] < higher[d] {
					break
				}
				idx[d] = 0
			}
			if d == len(idx) {
				break
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Internal schemes

func (h *host) execNode(n *plan.Node, src, dst []float64) error {
	switch n.Scheme {
	case plan.SchemeRealTransformUsingComplex:
		return h.execRealCmplx(n, src, dst)
	case plan.SchemeRealTransformEven:
		return h.execRealEven(n, src, dst)
	case plan.SchemeReal2DEven:
		return h.execReal2DEven(n, src, dst)
	case plan.SchemeReal3DEven:
		return h.execReal3DEven(n, src, dst)
	case plan.Scheme1DCC:
		return h.exec1DCC(n, src, dst)
	case plan.Scheme2DRTRT:
		return h.exec2DRTRT(n, src, dst)
	case plan.Scheme3DTRTRT:
		return h.exec3DTRTRT(n, src, dst)
	case plan.SchemeBluestein:
		return h.execBluestein(n, src, dst)
	}
	return h.execLeaf(n, src, dst)
}

func (h *host) execRealCmplx(n *plan.Node, src, dst []float64) error {
	copyIn, cfft, copyOut := n.Children[0], n.Children[1], n.Children[2]
	tmp := tempBuf(cfft.IDist * n.Batch)
	if err := h.execNode(copyIn, src, tmp); err != nil {
		return err
	}
	if err := h.execNode(cfft, tmp, tmp); err != nil {
		return err
	}
	return h.execNode(copyOut, tmp, dst)
}

func (h *host) execRealEven(n *plan.Node, src, dst []float64) error {
	if n.Direction == -1 {
		cb, cfft := n.Children[0], n.Children[1]
		if err := h.execNode(cb, src, src); err != nil {
			return err
		}
		if len(n.Children) == 2 {
			return h.execNode(cfft, src, dst)
		}
		// FFT in place over the complex view of the real input, then
		// butterfly into the output
		if err := h.execNode(cfft, src, src); err != nil {
			return err
		}
		return h.execNode(n.Children[2], src, dst)
	}

	if len(n.Children) == 2 {
		cfft, cb := n.Children[0], n.Children[1]
		if err := h.execNode(cfft, src, dst); err != nil {
			return err
		}
		return h.execNode(cb, dst, dst)
	}
	pre, cfft, cb := n.Children[0], n.Children[1], n.Children[2]
	if err := h.execNode(pre, src, dst); err != nil {
		return err
	}
	if err := h.execNode(cfft, dst, dst); err != nil {
		return err
	}
	return h.execNode(cb, dst, dst)
}

func (h *host) execReal2DEven(n *plan.Node, src, dst []float64) error {
	if n.Direction == -1 {
		rc := n.Children[0]
		if err := h.execNode(rc, src, dst); err != nil {
			return err
		}
		if len(n.Children) == 2 {
			return h.execNode(n.Children[1], dst, dst)
		}
		t1, row, t2 := n.Children[1], n.Children[2], n.Children[3]
		tmp := tempBuf(t1.ODist * n.Batch)
		if err := h.execNode(t1, dst, tmp); err != nil {
			return err
		}
		if err := h.execNode(row, tmp, tmp); err != nil {
			return err
		}
		return h.execNode(t2, tmp, dst)
	}

	if len(n.Children) == 2 {
		sbcc, rc := n.Children[0], n.Children[1]
		if err := h.execNode(sbcc, src, src); err != nil {
			return err
		}
		return h.execNode(rc, src, dst)
	}
	t1, row, t2, rc := n.Children[0], n.Children[1], n.Children[2], n.Children[3]
	tmp := tempBuf(t1.ODist * n.Batch)
	tmp2 := tempBuf(t2.ODist * n.Batch)
	if err := h.execNode(t1, src, tmp); err != nil {
		return err
	}
	if err := h.execNode(row, tmp, tmp); err != nil {
		return err
	}
	if err := h.execNode(t2, tmp, tmp2); err != nil {
		return err
	}
	return h.execNode(rc, tmp2, dst)
}

func (h *host) execReal3DEven(n *plan.Node, src, dst []float64) error {
	if n.Direction == -1 {
		rc := n.Children[0]
		if err := h.execNode(rc, src, dst); err != nil {
			return err
		}
		if len(n.Children) == 3 {
			for _, sbcc := range n.Children[1:] {
				if err := h.execNode(sbcc, dst, dst); err != nil {
					return err
				}
			}
			return nil
		}
		t1, c1, t2, c2, t3 := n.Children[1], n.Children[2], n.Children[3], n.Children[4], n.Children[5]
		tmp := tempBuf(t1.ODist * n.Batch)
		tmp2 := tempBuf(t2.ODist * n.Batch)
		steps := []struct {
			node     *plan.Node
			src, dst []float64
		}{
			{t1, dst, tmp}, {c1, tmp, tmp}, {t2, tmp, tmp2}, {c2, tmp2, tmp2}, {t3, tmp2, dst},
		}
		for _, s := range steps {
			if err := h.execNode(s.node, s.src, s.dst); err != nil {
				return err
			}
		}
		return nil
	}

	if len(n.Children) == 3 && n.Children[0].Scheme == plan.SchemeKernelStockhamBlockCR {
		sbcrZ, sbcrY, sbcrX := n.Children[0], n.Children[1], n.Children[2]
		tmp := tempBuf(sbcrZ.ODist * n.Batch)
		tmp2 := tempBuf(sbcrY.ODist * n.Batch)
		if err := h.execNode(sbcrZ, src, tmp); err != nil {
			return err
		}
		if err := h.execNode(sbcrY, tmp, tmp2); err != nil {
			return err
		}
		return h.execNode(sbcrX, tmp2, dst)
	}

	t1, c1, t2, c2, t3, rc := n.Children[0], n.Children[1], n.Children[2], n.Children[3], n.Children[4], n.Children[5]
	tmp := tempBuf(t1.ODist * n.Batch)
	tmp2 := tempBuf(t2.ODist * n.Batch)
	tmp3 := tempBuf(t3.ODist * n.Batch)
	steps := []struct {
		node     *plan.Node
		src, dst []float64
	}{
		{t1, src, tmp}, {c1, tmp, tmp}, {t2, tmp, tmp2}, {c2, tmp2, tmp2}, {t3, tmp2, tmp3}, {rc, tmp3, dst},
	}
	for _, s := range steps {
		if err := h.execNode(s.node, s.src, s.dst); err != nil {
			return err
		}
	}
	return nil
}

func (h *host) exec1DCC(n *plan.Node, src, dst []float64) error {
	cc, row := n.Children[0], n.Children[1]
	tmp := tempBuf(cc.ODist * n.Batch)
	if err := h.execNode(cc, src, tmp); err != nil {
		return err
	}
	return h.execNode(row, tmp, dst)
}

func (h *host) exec2DRTRT(n *plan.Node, src, dst []float64) error {
	row0, t1, row1, t2 := n.Children[0], n.Children[1], n.Children[2], n.Children[3]
	tmp := tempBuf(t1.ODist * n.Batch)
	if err := h.execNode(row0, src, dst); err != nil {
		return err
	}
	if err := h.execNode(t1, dst, tmp); err != nil {
		return err
	}
	if err := h.execNode(row1, tmp, tmp); err != nil {
		return err
	}
	return h.execNode(t2, tmp, dst)
}

func (h *host) exec3DTRTRT(n *plan.Node, src, dst []float64) error {
	row0, t1, row1, t2, row2, t3 :=
		n.Children[0], n.Children[1], n.Children[2], n.Children[3], n.Children[4], n.Children[5]
	tmp := tempBuf(t1.ODist * n.Batch)
	tmp2 := tempBuf(t2.ODist * n.Batch)
	steps := []struct {
		node     *plan.Node
		src, dst []float64
	}{
		{row0, src, dst}, {t1, dst, tmp}, {row1, tmp, tmp}, {t2, tmp, tmp2}, {row2, tmp2, tmp2}, {t3, tmp2, dst},
	}
	for _, s := range steps {
		if err := h.execNode(s.node, s.src, s.dst); err != nil {
			return err
		}
	}
	return nil
}

// execBluestein evaluates the chirp convolution directly: the child FFT
// subtrees describe the device dataflow over the padded buffer, which on
// the host collapses to three padded transforms per batch member.
func (h *host) execBluestein(n *plan.Node, src, dst []float64) error {
	m := n.LengthBlue
	length := n.LengthBlueN
	chirpTable := n.Children[0].ChirpTable.Data
	forward := n.Direction == -1

	chirpAt := func(k int) complex128 {
		c := chirpTable[k]
		if !forward {
			c = cmplx.Conj(c)
		}
		return c
	}

	// kernel of the convolution: the chirp, wrapped cyclically
	b := make([]complex128, m)
	for k := 0; k < length; k++ {
		c := chirpAt(k)
		b[k] = c
		if k > 0 {
			b[m-k] = c
		}
	}
	h.forward(b)

	inV := viewOf(src, n.InArrayType)
	outV := viewOf(dst, n.OutArrayType)
	is0, os0 := n.InStride[0], n.OutStride[0]

	return forEachTransform(n, 1, func(inOff, outOff int) error {
		a := make([]complex128, m)
		for j := 0; j < length; j++ {
			a[j] = inV.get(inOff+j*is0) * cmplx.Conj(chirpAt(j))
		}
		h.forward(a)
		for k := range a {
			a[k] *= b[k]
		}
		h.inverse(a)
		scale := complex(float64(m), 0)
		for k := 0; k < length; k++ {
			outV.set(outOff+k*os0, cmplx.Conj(chirpAt(k))*a[k]/scale)
		}
		return nil
	})
}

// ---------------------------------------------------------------------------
// Leaf kernels

func (h *host) execLeaf(n *plan.Node, src, dst []float64) error {
	inV := viewOf(src, n.InArrayType)
	outV := viewOf(dst, n.OutArrayType)

	switch n.Scheme {
	case plan.SchemeKernelStockham:
		return h.stockham(n, inV, outV)
	case plan.SchemeKernelStockhamBlockCC:
		return h.blockColumn(n, inV, outV)
	case plan.SchemeKernelStockhamBlockCR:
		return h.blockColumnRow(n, inV, outV)
	case plan.SchemeKernel2DSingle:
		return h.fft2DSingle(n, inV, outV)
	case plan.SchemeKernelTranspose, plan.SchemeKernelTransposeXYZ, plan.SchemeKernelTransposeZXY:
		return copyElems(n, inV, outV, n.Length, nil)
	case plan.SchemeKernelCopyR2C:
		return copyElems(n, inV, outV, n.Length, nil)
	case plan.SchemeKernelCopyC2R:
		return copyElems(n, inV, outV, n.Length, nil)
	case plan.SchemeKernelCopyC2Herm:
		shape := append([]int{n.Length[0]/2 + 1}, n.Length[1:]...)
		return copyElems(n, inV, outV, shape, nil)
	case plan.SchemeKernelCopyHerm2C:
		return hermToFull(n, inV, outV)
	case plan.SchemeKernelR2CPost:
		return h.r2cPost(n, inV, outV)
	case plan.SchemeKernelC2RPre:
		return h.c2rPre(n, inV, outV)
	case plan.SchemeKernelApplyCallback:
		if n.Callback != nil && n.Callback.Fn != nil {
			n.Callback.Fn(src)
		}
		return nil
	case plan.SchemeKernelChirp:
		// table comes from the resource cache
		return nil
	}
	return internalf("host execution of %s", n.Scheme)
}

// copyElems copies shape elements through the node's strides, optionally
// transforming each element.
func copyElems(n *plan.Node, inV, outV view, shape []int, f func(complex128) complex128) error {
	idx := make([]int, len(shape))
	for b := 0; b < n.Batch; b++ {
		for {
			inOff := b * n.IDist
			outOff := b * n.ODist
			for d, i := range idx {
				inOff += i * n.InStride[d]
				outOff += i * n.OutStride[d]
			}
			v := inV.get(inOff)
			if f != nil {
				v = f(v)
			}
			outV.set(outOff, v)

			d := 0
			for ; d < len(idx); d++ {
				idx[d]++
				if idx[d] < shape[d] {
					break
				}
				idx[d] = 0
			}
			if d == len(idx) {
				break
			}
		}
	}
	return nil
}

// hermToFull expands Hermitian data to the full complex grid using the
// symmetry X[k] = conj(X[N-k mod N]).
func hermToFull(n *plan.Node, inV, outV view) error {
	shape := n.Length
	half := shape[0]/2 + 1
	idx := make([]int, len(shape))
	for b := 0; b < n.Batch; b++ {
		for {
			outOff := b * n.ODist
			inOff := b * n.IDist
			if idx[0] < half {
				for d, i := range idx {
					inOff += i * n.InStride[d]
					outOff += i * n.OutStride[d]
				}
				outV.set(outOff, inV.get(inOff))
			} else {
				// mirror every dimension
				inOff += (shape[0] - idx[0]) * n.InStride[0]
				outOff += idx[0] * n.OutStride[0]
				for d := 1; d < len(shape); d++ {
					if idx[d] > 0 {
						inOff += (shape[d] - idx[d]) * n.InStride[d]
					}
					outOff += idx[d] * n.OutStride[d]
				}
				outV.set(outOff, cmplx.Conj(inV.get(inOff)))
			}

			d := 0
			for ; d < len(idx); d++ {
				idx[d]++
				if idx[d] < shape[d] {
					break
				}
				idx[d] = 0
			}
			if d == len(idx) {
				break
			}
		}
	}
	return nil
}

func (h *host) stockham(n *plan.Node, inV, outV view) error {
	length := n.Length[0]
	is0, os0 := n.InStride[0], n.OutStride[0]

	switch n.Embedded {
	case pool.EmbeddedNone:
		return forEachTransform(n, 1, func(inOff, outOff int) error {
			buf := make([]complex128, length)
			for j := range buf {
				buf[j] = inV.get(inOff + j*is0)
			}
			h.transform(buf, n.Direction)
			for j, v := range buf {
				outV.set(outOff+j*os0, v)
			}
			return nil
		})
	case pool.EmbeddedR2CPost:
		return forEachTransform(n, 1, func(inOff, outOff int) error {
			buf := make([]complex128, length)
			for j := range buf {
				buf[j] = inV.get(inOff + j*is0)
			}
			h.forward(buf)
			for k, v := range r2cButterfly(buf) {
				outV.set(outOff+k*os0, v)
			}
			return nil
		})
	case pool.EmbeddedC2RPre:
		return forEachTransform(n, 1, func(inOff, outOff int) error {
			herm := make([]complex128, length+1)
			for k := range herm {
				herm[k] = inV.get(inOff + k*is0)
			}
			buf := c2rButterfly(herm)
			h.inverse(buf)
			for j, v := range buf {
				outV.set(outOff+j*os0, v)
			}
			return nil
		})
	}
	return internalf("embedded type %d on %s", n.Embedded, n.Scheme)
}

// blockColumn runs the column FFT of a block kernel and, for a large-1D
// split, applies the inter-pass twiddles of the full length.
func (h *host) blockColumn(n *plan.Node, inV, outV view) error {
	length := n.Length[0]
	cols := n.Length[1]
	is0, is1 := n.InStride[0], n.InStride[1]
	os0, os1 := n.OutStride[0], n.OutStride[1]

	return forEachTransform(n, 2, func(inOff, outOff int) error {
		for c := 0; c < cols; c++ {
			buf := make([]complex128, length)
			for j := range buf {
				buf[j] = inV.get(inOff + c*is1 + j*is0)
			}
			h.transform(buf, n.Direction)
			if n.Large1D > 0 {
				for k := range buf {
					phase := 2 * math.Pi * float64(k) * float64(c) / float64(n.Large1D)
					buf[k] *= cmplx.Exp(complex(0, float64(n.Direction)*phase))
				}
			}
			for k, v := range buf {
				outV.set(outOff+c*os1+k*os0, v)
			}
		}
		return nil
	})
}

func (h *host) blockColumnRow(n *plan.Node, inV, outV view) error {
	length := n.Length[0]
	cols := n.Length[1]
	is0, is1 := n.InStride[0], n.InStride[1]
	os0, os1 := n.OutStride[0], n.OutStride[1]

	return forEachTransform(n, 2, func(inOff, outOff int) error {
		for c := 0; c < cols; c++ {
			if n.Embedded == pool.EmbeddedC2RPre {
				herm := make([]complex128, length+1)
				for k := range herm {
					herm[k] = inV.get(inOff + c*is1 + k*is0)
				}
				buf := c2rButterfly(herm)
				h.inverse(buf)
				// complex result is the real output in pairs
				for j, v := range buf {
					outV.set(outOff+c*os1+(2*j)*os0, complex(real(v), 0))
					outV.set(outOff+c*os1+(2*j+1)*os0, complex(imag(v), 0))
				}
				continue
			}
			buf := make([]complex128, length)
			for j := range buf {
				buf[j] = inV.get(inOff + c*is1 + j*is0)
			}
			h.transform(buf, n.Direction)
			for k, v := range buf {
				outV.set(outOff+c*os1+k*os0, v)
			}
		}
		return nil
	})
}

func (h *host) fft2DSingle(n *plan.Node, inV, outV view) error {
	l0, l1 := n.Length[0], n.Length[1]
	is0, is1 := n.InStride[0], n.InStride[1]
	os0, os1 := n.OutStride[0], n.OutStride[1]

	return forEachTransform(n, 2, func(inOff, outOff int) error {
		grid := make([]complex128, l0*l1)
		for j := 0; j < l1; j++ {
			for i := 0; i < l0; i++ {
				grid[j*l0+i] = inV.get(inOff + i*is0 + j*is1)
			}
		}
		for j := 0; j < l1; j++ {
			h.transform(grid[j*l0:(j+1)*l0], n.Direction)
		}
		col := make([]complex128, l1)
		for i := 0; i < l0; i++ {
			for j := 0; j < l1; j++ {
				col[j] = grid[j*l0+i]
			}
			h.transform(col, n.Direction)
			for j := 0; j < l1; j++ {
				grid[j*l0+i] = col[j]
			}
		}
		for j := 0; j < l1; j++ {
			for i := 0; i < l0; i++ {
				outV.set(outOff+i*os0+j*os1, grid[j*l0+i])
			}
		}
		return nil
	})
}

func (h *host) r2cPost(n *plan.Node, inV, outV view) error {
	length := n.Length[0]
	is0, os0 := n.InStride[0], n.OutStride[0]
	return forEachTransform(n, 1, func(inOff, outOff int) error {
		z := make([]complex128, length)
		for j := range z {
			z[j] = inV.get(inOff + j*is0)
		}
		for k, v := range r2cButterfly(z) {
			outV.set(outOff+k*os0, v)
		}
		return nil
	})
}

func (h *host) c2rPre(n *plan.Node, inV, outV view) error {
	length := n.Length[0]
	is0, os0 := n.InStride[0], n.OutStride[0]
	return forEachTransform(n, 1, func(inOff, outOff int) error {
		herm := make([]complex128, length+1)
		for k := range herm {
			herm[k] = inV.get(inOff + k*is0)
		}
		for j, v := range c2rButterfly(herm) {
			outV.set(outOff+j*os0, v)
		}
		return nil
	})
}

// r2cButterfly untangles the half-length FFT of packed real data into the
// Hermitian half-spectrum of the full length.
func r2cButterfly(z []complex128) []complex128 {
	half := len(z)
	full := 2 * half
	x := make([]complex128, half+1)
	for k := 0; k <= half; k++ {
		zk := z[k%half]
		zc := cmplx.Conj(z[(half-k)%half])
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(full)))
		x[k] = 0.5*(zk+zc) - 0.5i*w*(zk-zc)
	}
	return x
}

// c2rButterfly is the inverse tangle: it maps the Hermitian half-spectrum
// onto the half-length complex sequence whose inverse FFT packs the real
// result.  The output carries a factor of two so a forward/inverse round
// trip scales by the full length, matching the complex transforms.
func c2rButterfly(x []complex128) []complex128 {
	half := len(x) - 1
	full := 2 * half
	z := make([]complex128, half)
	for k := 0; k < half; k++ {
		xk := x[k]
		xc := cmplx.Conj(x[half-k])
		w := cmplx.Exp(complex(0, 2*math.Pi*float64(k)/float64(full)))
		z[k] = (xk + xc) + 1i*w*(xk-xc)
	}
	return z
}
