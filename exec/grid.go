// Package exec turns a compiled plan into kernel launches.  It computes
// per-leaf launch geometry, owns the kernel-launcher abstraction over a
// gocca device, and provides a host reference interpreter that executes a
// plan on CPU buffers for verification.
package exec

import (
	"fmt"

	"github.com/EMinsight/rocFFT/plan"
	"github.com/EMinsight/rocFFT/pool"
)

// copyKernelBounds is the thread count of the generated copy, butterfly and
// callback kernels.
const copyKernelBounds = 64

// transposeTile is the square tile edge of the transpose kernels.
const transposeTile = 32

// doubleHalfLDSLengths lists, per architecture, double-precision lengths
// whose kernels were generated without the half-LDS layout and need the
// full allocation.
var doubleHalfLDSLengths = map[string][]int{
	"gfx90a": {49, 343},
}

// GridParam is the launch geometry of one kernel invocation.
type GridParam struct {
	BlocksX, BlocksY, BlocksZ    int
	ThreadsX, ThreadsY, ThreadsZ int
	LDSBytes                     int
}

func internalf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", plan.ErrInternal, fmt.Sprintf(format, args...))
}

// SetupGridParam computes the launch geometry for a leaf.  FFT leaves need
// their catalog entry for workgroup sizing; the generated auxiliary kernels
// use fixed bounds.
func SetupGridParam(n *plan.Node, catalog *pool.Catalog, props pool.DeviceProps) (GridParam, error) {
	switch n.Scheme {
	case plan.SchemeKernelStockham,
		plan.SchemeKernelStockhamBlockCC,
		plan.SchemeKernelStockhamBlockCR,
		plan.SchemeKernel2DSingle:
		return fftGridParam(n, catalog, props)
	case plan.SchemeKernelTranspose,
		plan.SchemeKernelTransposeXYZ,
		plan.SchemeKernelTransposeZXY:
		return transposeGridParam(n), nil
	default:
		return auxGridParam(n), nil
	}
}

func fftGridParam(n *plan.Node, catalog *pool.Catalog, props pool.DeviceProps) (GridParam, error) {
	key := pool.Key1D(n.Length[0], n.Precision, n.Scheme)
	if n.Scheme == plan.SchemeKernel2DSingle {
		key = pool.Key2D(n.Length[0], n.Length[1], n.Precision)
	}
	if n.SpecifiedKey != nil {
		key = *n.SpecifiedKey
	}
	key.Embedded = pool.EmbeddedNone
	k, ok := catalog.Get(key)
	if !ok {
		return GridParam{}, internalf("no kernel for %s", key)
	}

	transforms := n.Batch
	for _, l := range n.Length[n.Dimension:] {
		transforms *= l
	}

	gp := GridParam{
		BlocksX:  (transforms-1)/k.TransformsPerBlock + 1,
		BlocksY:  1,
		BlocksZ:  1,
		ThreadsX: k.WorkGroupSize,
		ThreadsY: 1,
		ThreadsZ: 1,
		LDSBytes: k.LDSElems * n.Precision.ComplexBytes(),
	}

	if halfLDSApplies(n, k, props) {
		gp.LDSBytes /= 2
	}
	if gp.LDSBytes > props.SharedMemPerBlock {
		return GridParam{}, internalf("kernel %s wants %d bytes of shared memory, device limit %d",
			key, gp.LDSBytes, props.SharedMemPerBlock)
	}
	return gp, nil
}

// halfLDSApplies reports whether the kernel runs with the half-size LDS
// layout: plain row kernels without folded pre/post processing, and block
// kernels with the direct-to-register path.  A few double-precision lengths
// predate the layout on gfx90a and keep the full allocation.
func halfLDSApplies(n *plan.Node, k pool.Kernel, props pool.DeviceProps) bool {
	if !k.HalfLDS {
		return false
	}
	if n.Precision == plan.Double {
		for _, l := range doubleHalfLDSLengths[props.Name] {
			if n.Length[0] == l {
				return false
			}
		}
	}
	switch n.Scheme {
	case plan.SchemeKernelStockham:
		return n.Embedded == pool.EmbeddedNone
	case plan.SchemeKernelStockhamBlockCC:
		return n.DirectToFromReg
	}
	return false
}

func transposeGridParam(n *plan.Node) GridParam {
	higher := n.Batch
	for _, l := range n.Length[2:] {
		higher *= l
	}
	return GridParam{
		BlocksX:  (n.Length[0]-1)/transposeTile + 1,
		BlocksY:  (n.Length[1]-1)/transposeTile + 1,
		BlocksZ:  higher,
		ThreadsX: transposeTile,
		ThreadsY: copyKernelBounds / transposeTile * 4,
		ThreadsZ: 1,
	}
}

func auxGridParam(n *plan.Node) GridParam {
	length := n.Length[0]
	if n.LengthBlue > 0 {
		length = n.LengthBlue
	}
	higher := n.Batch
	for _, l := range n.Length[1:] {
		higher *= l
	}
	return GridParam{
		BlocksX:  (length-1)/copyKernelBounds + 1,
		BlocksY:  higher,
		BlocksZ:  1,
		ThreadsX: copyKernelBounds,
		ThreadsY: 1,
		ThreadsZ: 1,
	}
}
