package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemeClassification(t *testing.T) {
	assert.True(t, SchemeKernelStockham.IsLeaf())
	assert.True(t, SchemeKernelResMul.IsLeaf())
	assert.False(t, Scheme2DRTRT.IsLeaf())
	assert.False(t, SchemeBluestein.IsLeaf())

	assert.True(t, SchemeKernelTransposeZXY.IsTranspose())
	assert.False(t, SchemeKernelStockham.IsTranspose())

	assert.Equal(t, "KERNEL_STOCKHAM_BLOCK_CC", SchemeKernelStockhamBlockCC.String())
}

func TestCatalogLookups(t *testing.T) {
	c := NewCatalog()
	key := Key1D(64, Single, SchemeKernelStockham)

	assert.False(t, c.Has(key))
	c.Add(key, Kernel{Factors: []int{8, 8}, WorkGroupSize: 128})
	require.True(t, c.Has(key))

	k, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []int{8, 8}, k.Factors)

	// same length, different scheme
	assert.False(t, c.Has(Key1D(64, Single, SchemeKernel2DSingle)))
	// same signature, different precision
	assert.False(t, c.Has(Key1D(64, Double, SchemeKernelStockham)))
}

func TestDefaultCatalogContents(t *testing.T) {
	c := Default()

	t.Run("stockham lengths", func(t *testing.T) {
		for _, n := range []int{2, 15, 100, 343, 1024, 4096} {
			assert.True(t, c.Has(Key1D(n, Single, SchemeKernelStockham)), "length %d", n)
			assert.True(t, c.Has(Key1D(n, Double, SchemeKernelStockham)), "length %d double", n)
		}
		// primes beyond the radix set have no kernel
		for _, n := range []int{17, 23, 509} {
			assert.False(t, c.Has(Key1D(n, Single, SchemeKernelStockham)), "length %d", n)
		}
		// beyond the single-kernel bound
		assert.False(t, c.Has(Key1D(8192, Single, SchemeKernelStockham)))
	})

	t.Run("block kernels", func(t *testing.T) {
		assert.True(t, c.HasSBCC(64, Single))
		assert.True(t, c.HasSBCC(343, Double))
		assert.False(t, c.HasSBCC(54, Single))
		assert.True(t, c.HasSBCR(100, Single))
		assert.False(t, c.HasSBCR(49, Single))
	})

	t.Run("2d single kernels", func(t *testing.T) {
		assert.True(t, c.Has(Key2D(16, 16, Single)))
		assert.True(t, c.Has(Key2D(64, 64, Double)))
		// sides above the tile bound
		assert.False(t, c.Has(Key2D(128, 4, Single)))
	})
}

func TestStockhamKernelParams(t *testing.T) {
	for _, n := range []int{4, 64, 343, 4096} {
		k := stockhamKernel(n)
		assert.GreaterOrEqual(t, k.WorkGroupSize, 64, "length %d", n)
		assert.LessOrEqual(t, k.WorkGroupSize, 256, "length %d", n)
		assert.Equal(t, n*k.TransformsPerBlock, k.LDSElems, "length %d", n)

		product := 1
		for _, f := range k.Factors {
			product *= f
		}
		assert.Equal(t, n, product, "length %d factors", n)
	}
}

func TestFactorize(t *testing.T) {
	assert.Nil(t, factorize(17))
	assert.Nil(t, factorize(2 * 17))
	assert.Equal(t, []int{16, 16, 16}, factorize(4096))

	product := 1
	for _, f := range factorize(15) {
		product *= f
	}
	assert.Equal(t, 15, product)
}

func TestPrecisionSizes(t *testing.T) {
	assert.Equal(t, 4, Single.RealBytes())
	assert.Equal(t, 8, Single.ComplexBytes())
	assert.Equal(t, 8, Double.RealBytes())
	assert.Equal(t, 16, Double.ComplexBytes())
}
