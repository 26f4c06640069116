package plan

import (
	"errors"
	"fmt"
)

// User-input errors, detected before or during tree construction.  These
// report a bad problem description and are recoverable by the caller.
var (
	// ErrInvalidLength is returned for non-positive lengths or a rank
	// outside 1..3.
	ErrInvalidLength = errors.New("rocfft: invalid transform length")

	// ErrInvalidStride is returned when strides or distances are
	// inconsistent with the problem rank.
	ErrInvalidStride = errors.New("rocfft: invalid stride")

	// ErrInvalidArrayType is returned for array-type combinations that are
	// not valid for the requested transform, including in-place
	// combinations that would change element size.
	ErrInvalidArrayType = errors.New("rocfft: invalid array type combination")
)

// ErrInternal marks consistency failures inside the plan compiler: a kernel
// missing for a chosen scheme, a transpose output length requested on a
// non-transpose node, an LDS request beyond the device limit.  These
// indicate a decomposition bug or a bad kernel catalog, not a bad user
// request; tests distinguish the two classes with errors.Is.
var ErrInternal = errors.New("rocfft: internal plan error")

func internalf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}
