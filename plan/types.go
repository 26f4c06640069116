// Package plan is the transform-plan compiler: it turns a user's transform
// problem (lengths, strides, batch, precision, placement, array types) into
// an executable tree of kernel invocations.  Tree construction, parameter
// assignment and fusion candidacy evaluation all live here; kernel lookup
// is delegated to package pool and twiddle/chirp table management to
// package repo.
package plan

import "github.com/EMinsight/rocFFT/pool"

// Scheme and Precision are defined in package pool so the kernel catalog
// can key on them without importing the tree machinery.
type (
	Scheme    = pool.Scheme
	Precision = pool.Precision
)

const (
	Single = pool.Single
	Double = pool.Double
)

// Re-exported scheme tags; see pool for the full set.
const (
	SchemeNone                      = pool.SchemeNone
	Scheme1DCC                      = pool.Scheme1DCC
	Scheme2DRTRT                    = pool.Scheme2DRTRT
	Scheme3DTRTRT                   = pool.Scheme3DTRTRT
	SchemeRealTransformUsingComplex = pool.SchemeRealTransformUsingComplex
	SchemeRealTransformEven         = pool.SchemeRealTransformEven
	SchemeReal2DEven                = pool.SchemeReal2DEven
	SchemeReal3DEven                = pool.SchemeReal3DEven
	SchemeBluestein                 = pool.SchemeBluestein
	SchemeKernelStockham            = pool.SchemeKernelStockham
	SchemeKernelStockhamBlockCC     = pool.SchemeKernelStockhamBlockCC
	SchemeKernelStockhamBlockCR     = pool.SchemeKernelStockhamBlockCR
	SchemeKernel2DSingle            = pool.SchemeKernel2DSingle
	SchemeKernelTranspose           = pool.SchemeKernelTranspose
	SchemeKernelTransposeXYZ        = pool.SchemeKernelTransposeXYZ
	SchemeKernelTransposeZXY        = pool.SchemeKernelTransposeZXY
	SchemeKernelCopyR2C             = pool.SchemeKernelCopyR2C
	SchemeKernelCopyHerm2C          = pool.SchemeKernelCopyHerm2C
	SchemeKernelCopyC2Herm          = pool.SchemeKernelCopyC2Herm
	SchemeKernelCopyC2R             = pool.SchemeKernelCopyC2R
	SchemeKernelR2CPost             = pool.SchemeKernelR2CPost
	SchemeKernelC2RPre              = pool.SchemeKernelC2RPre
	SchemeKernelApplyCallback       = pool.SchemeKernelApplyCallback
	SchemeKernelChirp               = pool.SchemeKernelChirp
	SchemeKernelPadMul              = pool.SchemeKernelPadMul
	SchemeKernelFFTMul              = pool.SchemeKernelFFTMul
	SchemeKernelResMul              = pool.SchemeKernelResMul
)

// ArrayType describes the memory layout of an input or output buffer.
type ArrayType int

const (
	ArrayTypeUnset ArrayType = iota
	ArrayTypeComplexInterleaved
	ArrayTypeComplexPlanar
	ArrayTypeReal
	ArrayTypeHermitianInterleaved
	ArrayTypeHermitianPlanar
)

func (a ArrayType) String() string {
	switch a {
	case ArrayTypeComplexInterleaved:
		return "complex-interleaved"
	case ArrayTypeComplexPlanar:
		return "complex-planar"
	case ArrayTypeReal:
		return "real"
	case ArrayTypeHermitianInterleaved:
		return "hermitian-interleaved"
	case ArrayTypeHermitianPlanar:
		return "hermitian-planar"
	}
	return "unset"
}

// IsPlanar reports whether real and imaginary parts live in separate buffers.
func (a ArrayType) IsPlanar() bool {
	return a == ArrayTypeComplexPlanar || a == ArrayTypeHermitianPlanar
}

// TransformType selects the transform kind and direction.
type TransformType int

const (
	TransformComplexForward TransformType = iota
	TransformComplexInverse
	TransformRealForward
	TransformRealInverse
)

func (t TransformType) String() string {
	switch t {
	case TransformComplexForward:
		return "complex-forward"
	case TransformComplexInverse:
		return "complex-inverse"
	case TransformRealForward:
		return "real-forward"
	case TransformRealInverse:
		return "real-inverse"
	}
	return "unknown"
}

// Direction returns -1 for forward transforms and +1 for inverse.
func (t TransformType) Direction() int {
	if t == TransformComplexInverse || t == TransformRealInverse {
		return 1
	}
	return -1
}

// IsReal reports whether one side of the transform is real-valued.
func (t TransformType) IsReal() bool {
	return t == TransformRealForward || t == TransformRealInverse
}

// Placement selects in-place or out-of-place execution.
type Placement int

const (
	InPlace Placement = iota
	NotInPlace
)

func (p Placement) String() string {
	if p == InPlace {
		return "in-place"
	}
	return "not-in-place"
}

// Callback describes a user load or store callback.  Fn receives the
// real-valued view of the buffer it is attached to; the plan guarantees the
// callback observes real data even when the transform internally
// reinterprets the buffer as complex.
type Callback struct {
	Name string
	Fn   func(buf []float64)
}
