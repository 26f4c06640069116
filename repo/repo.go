// Package repo caches the device resources shared between FFT plans:
// twiddle-factor tables and Bluestein chirp sequences.  Tables are
// reference-counted and keyed by their generation parameters, so concurrent
// plans transforming the same lengths share one table.  This is the only
// cross-plan mutable state in the library and the only lock taken during
// plan construction or destruction.
package repo

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/EMinsight/rocFFT/pool"
	"github.com/notargets/gocca"
)

type tableKind int

const (
	kindTwiddle1D tableKind = iota
	kindTwiddle2D
	kindChirp
)

// tableKey identifies a cached table.  Factors participate via a digest so
// two nodes requesting the same length with different radix decompositions
// get distinct tables.
type tableKey struct {
	kind       tableKind
	length     int
	length2    int
	limit      int
	base       int
	attachHalf bool
	precision  pool.Precision
	factors    string
}

// Handle is a reference-counted view of a cached table.  Data is the
// host-side table; Mem is the device copy when the repo owns a device.
type Handle struct {
	Data []complex128
	Mem  *gocca.OCCAMemory

	key tableKey
}

// Len returns the number of table entries.
func (h *Handle) Len() int { return len(h.Data) }

type entry struct {
	handle *Handle
	count  int
}

// Repo is a table cache.  The zero value is not usable; use New.
type Repo struct {
	mu      sync.Mutex
	entries map[tableKey]*entry
	device  *gocca.OCCADevice
}

// New creates a table cache.  device may be nil, in which case tables exist
// on the host only (useful for plan construction without a GPU).
func New(device *gocca.OCCADevice) *Repo {
	return &Repo{entries: make(map[tableKey]*entry), device: device}
}

var defaultRepo = New(nil)

// DefaultRepo returns the process-wide cache used when a plan is built
// without an explicit repo.
func DefaultRepo() *Repo { return defaultRepo }

// AcquireTwiddles1D returns the twiddle table for a 1D kernel of the given
// length, generating it on first use.  limit caps the table length when
// non-zero.  base selects large-twiddle digit decomposition (0 for none),
// attachHalf appends the half-length real/complex conversion tail, and
// factors is the kernel's radix decomposition (empty for a plain root-of-
// unity table).  The returned size is the table length in elements.
func (r *Repo) AcquireTwiddles1D(length, limit int, prec pool.Precision,
	props pool.DeviceProps, base int, attachHalf bool, factors []int) (*Handle, int) {
	key := tableKey{
		kind:       kindTwiddle1D,
		length:     length,
		limit:      limit,
		base:       base,
		attachHalf: attachHalf,
		precision:  prec,
		factors:    factorDigest(factors),
	}
	return r.acquire(key, func() []complex128 {
		return twiddles1D(length, limit, base, attachHalf, factors)
	})
}

// AcquireTwiddles2D returns the twiddle table for a fused 2D kernel.
func (r *Repo) AcquireTwiddles2D(l0, l1 int, prec pool.Precision,
	props pool.DeviceProps) (*Handle, int) {
	key := tableKey{kind: kindTwiddle2D, length: l0, length2: l1, precision: prec}
	return r.acquire(key, func() []complex128 {
		t := twiddles1D(l0, 0, 0, false, nil)
		return append(t, twiddles1D(l1, 0, 0, false, nil)...)
	})
}

// AcquireChirp returns the Bluestein chirp sequence for the given length.
func (r *Repo) AcquireChirp(length int, prec pool.Precision,
	props pool.DeviceProps) (*Handle, int) {
	key := tableKey{kind: kindChirp, length: length, precision: prec}
	return r.acquire(key, func() []complex128 {
		return chirp(length)
	})
}

func (r *Repo) acquire(key tableKey, gen func() []complex128) (*Handle, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[key]; ok {
		e.count++
		return e.handle, len(e.handle.Data)
	}

	h := &Handle{Data: gen(), key: key}
	if r.device != nil && len(h.Data) > 0 {
		h.Mem = r.upload(h.Data, key.precision)
	}
	r.entries[key] = &entry{handle: h, count: 1}
	return h, len(h.Data)
}

// ReleaseTwiddles1D decrements the reference count of a 1D twiddle handle.
func (r *Repo) ReleaseTwiddles1D(h *Handle) { r.release(h) }

// ReleaseTwiddles2D decrements the reference count of a 2D twiddle handle.
func (r *Repo) ReleaseTwiddles2D(h *Handle) { r.release(h) }

// ReleaseChirp decrements the reference count of a chirp handle.
func (r *Repo) ReleaseChirp(h *Handle) { r.release(h) }

func (r *Repo) release(h *Handle) {
	if h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[h.key]
	if !ok {
		panic(fmt.Sprintf("repo: release of unknown table %+v", h.key))
	}
	e.count--
	if e.count > 0 {
		return
	}
	if e.handle.Mem != nil {
		e.handle.Mem.Free()
		e.handle.Mem = nil
	}
	delete(r.entries, h.key)
}

// RefCount reports the current reference count of a handle; zero when the
// handle is no longer cached.
func (r *Repo) RefCount(h *Handle) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[h.key]; ok {
		return e.count
	}
	return 0
}

// upload copies a table to the device in the requested precision.
func (r *Repo) upload(data []complex128, prec pool.Precision) *gocca.OCCAMemory {
	if prec == pool.Double {
		flat := make([]float64, 2*len(data))
		for i, v := range data {
			flat[2*i] = real(v)
			flat[2*i+1] = imag(v)
		}
		return r.device.Malloc(int64(len(flat)*8), unsafe.Pointer(&flat[0]), nil)
	}
	flat := make([]float32, 2*len(data))
	for i, v := range data {
		flat[2*i] = float32(real(v))
		flat[2*i+1] = float32(imag(v))
	}
	return r.device.Malloc(int64(len(flat)*4), unsafe.Pointer(&flat[0]), nil)
}

func factorDigest(factors []int) string {
	if len(factors) == 0 {
		return ""
	}
	s := ""
	for _, f := range factors {
		s += fmt.Sprintf("%d.", f)
	}
	return s
}
