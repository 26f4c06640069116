package plan

import (
	"fmt"
)

// Problem is the root description of a transform: what the user asked for,
// before any decomposition.  Zero-valued strides, distances and array types
// are filled in with layout defaults by setDefaults.
type Problem struct {
	Lengths []int // fastest-varying dimension first
	Batch   int

	Placement Placement
	Transform TransformType
	Precision Precision

	InArrayType  ArrayType
	OutArrayType ArrayType

	InStrides  []int // one per dimension, in elements of the input array type
	OutStrides []int
	InDist     int // stride between batch members
	OutDist    int

	InOffset  [2]int // byte offsets (second entry used by planar layouts)
	OutOffset [2]int

	LoadCallback  *Callback
	StoreCallback *Callback
}

// Rank returns the transform dimensionality.
func (p *Problem) Rank() int { return len(p.Lengths) }

// clone returns a copy with its own slices, so a plan does not alias the
// caller's problem description.
func (p *Problem) clone() *Problem {
	q := *p
	q.Lengths = append([]int(nil), p.Lengths...)
	q.InStrides = append([]int(nil), p.InStrides...)
	q.OutStrides = append([]int(nil), p.OutStrides...)
	return &q
}

// complexLengths returns the Hermitian-side lengths of a real transform.
func (p *Problem) complexLengths() []int {
	c := append([]int(nil), p.Lengths...)
	c[0] = c[0]/2 + 1
	return c
}

// setDefaults fills unset array types, strides and distances the same way
// the user-facing plan-description layer would: contiguous row-major
// layouts, with the real side of an in-place real transform padded so the
// Hermitian result fits over it.
func (p *Problem) setDefaults() {
	if p.Batch == 0 {
		p.Batch = 1
	}

	if p.InArrayType == ArrayTypeUnset {
		switch p.Transform {
		case TransformRealForward:
			p.InArrayType = ArrayTypeReal
		case TransformRealInverse:
			p.InArrayType = ArrayTypeHermitianInterleaved
		default:
			p.InArrayType = ArrayTypeComplexInterleaved
		}
	}
	if p.OutArrayType == ArrayTypeUnset {
		switch p.Transform {
		case TransformRealForward:
			p.OutArrayType = ArrayTypeHermitianInterleaved
		case TransformRealInverse:
			p.OutArrayType = ArrayTypeReal
		default:
			p.OutArrayType = ArrayTypeComplexInterleaved
		}
	}

	inLengths, outLengths := p.sideLengths()

	// An in-place real buffer is padded to hold the Hermitian result.
	padReal := p.Transform.IsReal() && p.Placement == InPlace

	if len(p.InStrides) == 0 {
		strides, span := contiguousLayout(inLengths, padReal && p.InArrayType == ArrayTypeReal)
		p.InStrides = strides
		if p.InDist == 0 {
			p.InDist = span
		}
	}
	if len(p.OutStrides) == 0 {
		strides, span := contiguousLayout(outLengths, padReal && p.OutArrayType == ArrayTypeReal)
		p.OutStrides = strides
		if p.OutDist == 0 {
			p.OutDist = span
		}
	}
	if p.InDist == 0 {
		p.InDist = p.InStrides[len(p.InStrides)-1] * inLengths[len(inLengths)-1]
	}
	if p.OutDist == 0 {
		p.OutDist = p.OutStrides[len(p.OutStrides)-1] * outLengths[len(outLengths)-1]
	}
}

// sideLengths returns the per-side shapes, accounting for the Hermitian
// halving of real transforms.
func (p *Problem) sideLengths() (in, out []int) {
	switch p.Transform {
	case TransformRealForward:
		return p.Lengths, p.complexLengths()
	case TransformRealInverse:
		return p.complexLengths(), p.Lengths
	default:
		return p.Lengths, p.Lengths
	}
}

// contiguousLayout builds row-major strides for the given shape and returns
// them with the total span, which becomes the default batch distance.  When
// padFastest is set, the fastest dimension is padded to 2*(N/2+1) real
// elements so a Hermitian overwrite fits.
func contiguousLayout(lengths []int, padFastest bool) ([]int, int) {
	strides := make([]int, len(lengths))
	strides[0] = 1
	span := lengths[0]
	if padFastest {
		span = 2 * (lengths[0]/2 + 1)
	}
	for i := 1; i < len(lengths); i++ {
		strides[i] = span
		span *= lengths[i]
	}
	return strides, span
}

// validate rejects malformed problems before any node is built.  All
// failures wrap user-input sentinel errors.
func (p *Problem) validate() error {
	if len(p.Lengths) < 1 || len(p.Lengths) > 3 {
		return fmt.Errorf("%w: rank %d not in 1..3", ErrInvalidLength, len(p.Lengths))
	}
	for _, l := range p.Lengths {
		if l < 1 {
			return fmt.Errorf("%w: length %d", ErrInvalidLength, l)
		}
	}
	if p.Batch < 1 {
		return fmt.Errorf("%w: batch %d", ErrInvalidLength, p.Batch)
	}
	if len(p.InStrides) != len(p.Lengths) || len(p.OutStrides) != len(p.Lengths) {
		return fmt.Errorf("%w: stride count does not match rank %d", ErrInvalidStride, len(p.Lengths))
	}
	for _, s := range append(append([]int(nil), p.InStrides...), p.OutStrides...) {
		if s < 1 {
			return fmt.Errorf("%w: stride %d", ErrInvalidStride, s)
		}
	}
	if p.InDist < 1 || p.OutDist < 1 {
		return fmt.Errorf("%w: distance %d/%d", ErrInvalidStride, p.InDist, p.OutDist)
	}
	// Even-length real transforms reinterpret the real buffer as
	// half-length complex, so the real side's higher-dimension strides
	// and batch distance must be expressible in complex elements.
	if p.Transform.IsReal() && p.Lengths[0]%2 == 0 {
		strides, dist := p.InStrides, p.InDist
		if p.Transform == TransformRealInverse {
			strides, dist = p.OutStrides, p.OutDist
		}
		for _, s := range strides[1:] {
			if s%2 != 0 {
				return fmt.Errorf("%w: real-side stride %d must be even for even lengths", ErrInvalidStride, s)
			}
		}
		if dist%2 != 0 {
			return fmt.Errorf("%w: real-side distance %d must be even for even lengths", ErrInvalidStride, dist)
		}
	}
	return p.validateArrayTypes()
}

// validateArrayTypes enforces the legal array-type combinations per
// transform kind.  In-place transforms must preserve element layout, so
// interleaved and planar layouts never mix in place.
func (p *Problem) validateArrayTypes() error {
	in, out := p.InArrayType, p.OutArrayType
	fail := func() error {
		return fmt.Errorf("%w: %s: %s -> %s (%s)", ErrInvalidArrayType, p.Transform, in, out, p.Placement)
	}

	switch p.Transform {
	case TransformComplexForward, TransformComplexInverse:
		if !isComplexType(in) || !isComplexType(out) {
			return fail()
		}
		if p.Placement == InPlace && in != out {
			return fail()
		}
	case TransformRealForward:
		if in != ArrayTypeReal || !isHermitianType(out) {
			return fail()
		}
		if p.Placement == InPlace && out != ArrayTypeHermitianInterleaved {
			return fail()
		}
	case TransformRealInverse:
		if !isHermitianType(in) || out != ArrayTypeReal {
			return fail()
		}
		if p.Placement == InPlace && in != ArrayTypeHermitianInterleaved {
			return fail()
		}
	default:
		return fail()
	}
	return nil
}

func isComplexType(a ArrayType) bool {
	return a == ArrayTypeComplexInterleaved || a == ArrayTypeComplexPlanar
}

func isHermitianType(a ArrayType) bool {
	return a == ArrayTypeHermitianInterleaved || a == ArrayTypeHermitianPlanar
}

// elemBytes returns the element size of an array type at the problem's
// precision.
func (p *Problem) elemBytes(a ArrayType) int {
	if a == ArrayTypeReal {
		return p.Precision.RealBytes()
	}
	if a.IsPlanar() {
		return p.Precision.RealBytes()
	}
	return p.Precision.ComplexBytes()
}
