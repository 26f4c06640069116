// Package pool is the kernel catalog ("function pool") for the FFT plan
// compiler.  It answers two questions for the tree builder: does a device
// kernel exist for a given (length, precision, scheme) signature, and what
// are its execution parameters (radix factors, workgroup size, transforms
// per block, LDS usage).
//
// The catalog is read-mostly: it is populated once at startup from the
// built-in kernel tables, and may later receive individual kernels from an
// external solution map via Add.
package pool

import (
	"fmt"
	"sync"
)

// Precision selects the floating-point width of a transform.
type Precision int

const (
	Single Precision = iota
	Double
)

func (p Precision) String() string {
	if p == Double {
		return "double"
	}
	return "single"
}

// RealBytes returns the size of one real element.
func (p Precision) RealBytes() int {
	if p == Double {
		return 8
	}
	return 4
}

// ComplexBytes returns the size of one complex element.
func (p Precision) ComplexBytes() int { return 2 * p.RealBytes() }

// Scheme tags a plan-tree node with its decomposition or kernel variant.
// The set is closed: internal decomposition schemes come first, leaf kernel
// schemes after SchemeKernelStockham.
type Scheme int

const (
	SchemeNone Scheme = iota

	// Internal decomposition schemes.
	Scheme1DCC                      // N = L1*L0, SBCC column kernel + row kernel
	Scheme2DRTRT                    // row FFT, transpose, row FFT, transpose
	Scheme3DTRTRT                   // row FFT + three Z_XY transpose/row pairs
	SchemeRealTransformUsingComplex // copy into complex, transform, copy out
	SchemeRealTransformEven         // half-length complex FFT over the real buffer
	SchemeReal2DEven
	SchemeReal3DEven
	SchemeBluestein

	// Leaf kernel schemes.
	SchemeKernelStockham
	SchemeKernelStockhamBlockCC
	SchemeKernelStockhamBlockCR
	SchemeKernel2DSingle
	SchemeKernelTranspose
	SchemeKernelTransposeXYZ
	SchemeKernelTransposeZXY
	SchemeKernelCopyR2C
	SchemeKernelCopyHerm2C
	SchemeKernelCopyC2Herm
	SchemeKernelCopyC2R
	SchemeKernelR2CPost
	SchemeKernelC2RPre
	SchemeKernelApplyCallback
	SchemeKernelChirp
	SchemeKernelPadMul
	SchemeKernelFFTMul
	SchemeKernelResMul
)

var schemeNames = map[Scheme]string{
	SchemeNone:                      "NONE",
	Scheme1DCC:                      "L1D_CC",
	Scheme2DRTRT:                    "2D_RTRT",
	Scheme3DTRTRT:                   "3D_TRTRT",
	SchemeRealTransformUsingComplex: "REAL_TRANSFORM_USING_CMPLX",
	SchemeRealTransformEven:         "REAL_TRANSFORM_EVEN",
	SchemeReal2DEven:                "REAL_2D_EVEN",
	SchemeReal3DEven:                "REAL_3D_EVEN",
	SchemeBluestein:                 "BLUESTEIN",
	SchemeKernelStockham:            "KERNEL_STOCKHAM",
	SchemeKernelStockhamBlockCC:     "KERNEL_STOCKHAM_BLOCK_CC",
	SchemeKernelStockhamBlockCR:     "KERNEL_STOCKHAM_BLOCK_CR",
	SchemeKernel2DSingle:            "KERNEL_2D_SINGLE",
	SchemeKernelTranspose:           "KERNEL_TRANSPOSE",
	SchemeKernelTransposeXYZ:        "KERNEL_TRANSPOSE_XY_Z",
	SchemeKernelTransposeZXY:        "KERNEL_TRANSPOSE_Z_XY",
	SchemeKernelCopyR2C:             "KERNEL_COPY_R_TO_CMPLX",
	SchemeKernelCopyHerm2C:          "KERNEL_COPY_HERM_TO_CMPLX",
	SchemeKernelCopyC2Herm:          "KERNEL_COPY_CMPLX_TO_HERM",
	SchemeKernelCopyC2R:             "KERNEL_COPY_CMPLX_TO_R",
	SchemeKernelR2CPost:             "KERNEL_R_TO_CMPLX",
	SchemeKernelC2RPre:              "KERNEL_CMPLX_TO_R",
	SchemeKernelApplyCallback:       "KERNEL_APPLY_CALLBACK",
	SchemeKernelChirp:               "KERNEL_CHIRP",
	SchemeKernelPadMul:              "KERNEL_PAD_MUL",
	SchemeKernelFFTMul:              "KERNEL_FFT_MUL",
	SchemeKernelResMul:              "KERNEL_RES_MUL",
}

func (s Scheme) String() string {
	if name, ok := schemeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Scheme(%d)", int(s))
}

// IsLeaf reports whether the scheme maps to a single device kernel launch.
func (s Scheme) IsLeaf() bool { return s >= SchemeKernelStockham }

// IsTranspose reports whether the scheme is one of the transpose kernels.
func (s Scheme) IsTranspose() bool {
	switch s {
	case SchemeKernelTranspose, SchemeKernelTransposeXYZ, SchemeKernelTransposeZXY:
		return true
	}
	return false
}

// EmbeddedType marks real/complex pre- or post-processing folded into an FFT
// kernel instead of launched separately.
type EmbeddedType int

const (
	EmbeddedNone EmbeddedType = iota
	EmbeddedR2CPost
	EmbeddedC2RPre
)

// Key identifies a kernel in the catalog.  Length2 is zero except for 2D
// single kernels.
type Key struct {
	Length    int
	Length2   int
	Precision Precision
	Scheme    Scheme
	Embedded  EmbeddedType
}

// Key1D builds a catalog key for a 1D kernel.
func Key1D(length int, prec Precision, scheme Scheme) Key {
	return Key{Length: length, Precision: prec, Scheme: scheme}
}

// Key2D builds a catalog key for a 2D single kernel.
func Key2D(l0, l1 int, prec Precision) Key {
	return Key{Length: l0, Length2: l1, Precision: prec, Scheme: SchemeKernel2DSingle}
}

func (k Key) String() string {
	if k.Length2 != 0 {
		return fmt.Sprintf("%s %dx%d %s", k.Scheme, k.Length, k.Length2, k.Precision)
	}
	return fmt.Sprintf("%s %d %s", k.Scheme, k.Length, k.Precision)
}

// Kernel holds the execution parameters of one catalog entry.
type Kernel struct {
	Factors            []int // radix decomposition in execution order
	WorkGroupSize      int
	TransformsPerBlock int
	LDSElems           int  // shared-memory footprint in complex elements
	HalfLDS            bool // kernel can run with a half-size LDS allocation
	DirectToFromReg    bool // supports the direct-to-register optimization
}

// Catalog is a concurrency-safe kernel lookup table.
type Catalog struct {
	mu      sync.RWMutex
	kernels map[Key]Kernel
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{kernels: make(map[Key]Kernel)}
}

// Has reports whether a kernel with the given signature exists.
func (c *Catalog) Has(key Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.kernels[key]
	return ok
}

// Get returns the kernel metadata for key.
func (c *Catalog) Get(key Key) (Kernel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	k, ok := c.kernels[key]
	return k, ok
}

// Add registers a kernel, replacing any existing entry with the same key.
// Used when an external solution map supplies a tuned kernel.
func (c *Catalog) Add(key Key, kernel Kernel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kernels[key] = kernel
}

// HasSBCC reports whether a block-column-column kernel exists for length.
func (c *Catalog) HasSBCC(length int, prec Precision) bool {
	return c.Has(Key1D(length, prec, SchemeKernelStockhamBlockCC))
}

// HasSBCR reports whether a block-column-row kernel exists for length.
func (c *Catalog) HasSBCR(length int, prec Precision) bool {
	return c.Has(Key1D(length, prec, SchemeKernelStockhamBlockCR))
}

// DeviceProps describes the device attributes the plan compiler consults:
// the architecture name drives the named-architecture override tables, and
// the shared-memory limit bounds kernel LDS requests.
type DeviceProps struct {
	Name               string
	SharedMemPerBlock  int
	MaxThreadsPerBlock int
}

// DefaultDeviceProps returns properties of a generic device with a 64 KiB
// LDS, suitable when no real device has been queried.
func DefaultDeviceProps() DeviceProps {
	return DeviceProps{
		Name:               "generic",
		SharedMemPerBlock:  64 * 1024,
		MaxThreadsPerBlock: 1024,
	}
}
