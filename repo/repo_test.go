package repo

import (
	"math"
	"math/cmplx"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EMinsight/rocFFT/pool"
)

func TestTwiddleSharing(t *testing.T) {
	r := New(nil)
	props := pool.DefaultDeviceProps()

	h1, n1 := r.AcquireTwiddles1D(64, 0, pool.Single, props, 0, false, nil)
	h2, n2 := r.AcquireTwiddles1D(64, 0, pool.Single, props, 0, false, nil)
	require.Same(t, h1, h2)
	assert.Equal(t, n1, n2)
	assert.Equal(t, 2, r.RefCount(h1))

	// different generation parameters get a distinct table
	h3, _ := r.AcquireTwiddles1D(64, 0, pool.Single, props, 0, true, nil)
	assert.NotSame(t, h1, h3)

	r.ReleaseTwiddles1D(h2)
	assert.Equal(t, 1, r.RefCount(h1))
	r.ReleaseTwiddles1D(h1)
	assert.Equal(t, 0, r.RefCount(h1))

	// a fresh acquire regenerates
	h4, _ := r.AcquireTwiddles1D(64, 0, pool.Single, props, 0, false, nil)
	assert.Equal(t, 1, r.RefCount(h4))
}

func TestFactorDigestDistinguishesDecompositions(t *testing.T) {
	r := New(nil)
	props := pool.DefaultDeviceProps()

	h1, _ := r.AcquireTwiddles1D(16, 0, pool.Single, props, 0, false, []int{4, 4})
	h2, _ := r.AcquireTwiddles1D(16, 0, pool.Single, props, 0, false, []int{2, 8})
	assert.NotSame(t, h1, h2)
}

func TestPlainTwiddleValues(t *testing.T) {
	table := twiddles1D(4, 0, 0, false, nil)
	require.Len(t, table, 4)
	want := []complex128{1, complex(0, -1), -1, complex(0, 1)}
	for k := range want {
		assert.InDelta(t, real(want[k]), real(table[k]), 1e-12, "entry %d", k)
		assert.InDelta(t, imag(want[k]), imag(table[k]), 1e-12, "entry %d", k)
	}
}

func TestFactoredTwiddleLayout(t *testing.T) {
	// radix passes of a length-8 kernel factored 2*4: (2-1)*1 + (4-1)*2
	table := twiddles1D(8, 0, 0, false, []int{2, 4})
	assert.Len(t, table, 7)

	// per-pass entries are exp(-2*pi*i*j*k/(L*R))
	got := table[1] // second pass, j=0, k=1 over L*R=8
	want := cmplx.Exp(complex(0, -2*math.Pi*0*1/8))
	assert.InDelta(t, real(want), real(got), 1e-12)
}

func TestLargeTwiddleDigits(t *testing.T) {
	// 8192 = 2^13 with base-8 digits: two tables of 256 entries
	table := twiddles1D(8192, 0, 8, false, nil)
	require.Len(t, table, 512)

	// second digit table advances by 2^8 per step
	want := cmplx.Exp(complex(0, -2*math.Pi*256/8192))
	assert.InDelta(t, real(want), real(table[257]), 1e-12)
	assert.InDelta(t, imag(want), imag(table[257]), 1e-12)
}

func TestHalfTableAttached(t *testing.T) {
	table := twiddles1D(8, 0, 0, false, nil)
	withHalf := twiddles1D(8, 0, 0, true, nil)
	require.Len(t, withHalf, len(table)+8)

	// tail entries are exp(-pi*i*k/N)
	want := cmplx.Exp(complex(0, -math.Pi*3/8))
	got := withHalf[len(table)+3]
	assert.InDelta(t, real(want), real(got), 1e-12)
	assert.InDelta(t, imag(want), imag(got), 1e-12)
}

func TestChirpValues(t *testing.T) {
	r := New(nil)
	props := pool.DefaultDeviceProps()
	h, n := r.AcquireChirp(17, pool.Single, props)
	require.Equal(t, 17, n)

	for _, k := range []int{0, 1, 5, 16} {
		want := cmplx.Exp(complex(0, math.Pi*float64(k)*float64(k)/17))
		assert.InDelta(t, real(want), real(h.Data[k]), 1e-12, "k=%d", k)
		assert.InDelta(t, imag(want), imag(h.Data[k]), 1e-12, "k=%d", k)
	}
	r.ReleaseChirp(h)
}

func TestConcurrentAcquireRelease(t *testing.T) {
	r := New(nil)
	props := pool.DefaultDeviceProps()

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h, _ := r.AcquireTwiddles1D(128, 0, pool.Double, props, 0, false, nil)
				r.ReleaseTwiddles1D(h)
			}
		}()
	}
	wg.Wait()

	h, _ := r.AcquireTwiddles1D(128, 0, pool.Double, props, 0, false, nil)
	assert.Equal(t, 1, r.RefCount(h))
	r.ReleaseTwiddles1D(h)
}

func TestReleaseAfterDropPanics(t *testing.T) {
	r := New(nil)
	props := pool.DefaultDeviceProps()
	h, _ := r.AcquireChirp(23, pool.Single, props)
	r.ReleaseChirp(h)

	defer func() {
		require.NotNil(t, recover())
	}()
	r.ReleaseChirp(h)
}
