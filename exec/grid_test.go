package exec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EMinsight/rocFFT/plan"
	"github.com/EMinsight/rocFFT/pool"
)

func TestStockhamGrid(t *testing.T) {
	n := &plan.Node{
		Scheme:    plan.SchemeKernelStockham,
		Dimension: 1,
		Length:    []int{64},
		Batch:     81,
		Precision: plan.Single,
	}
	gp, err := SetupGridParam(n, plan.DefaultCatalog(), pool.DefaultDeviceProps())
	require.NoError(t, err)

	// 64 transforms per block over 81 transforms
	assert.Equal(t, 2, gp.BlocksX)
	assert.Equal(t, 256, gp.ThreadsX)
	// 4096 complex floats, halved by the half-LDS layout
	assert.Equal(t, 16384, gp.LDSBytes)
}

func TestEmbeddedButterflyKeepsFullLDS(t *testing.T) {
	n := &plan.Node{
		Scheme:    plan.SchemeKernelStockham,
		Dimension: 1,
		Length:    []int{64},
		Batch:     1,
		Precision: plan.Single,
		Embedded:  pool.EmbeddedR2CPost,
	}
	gp, err := SetupGridParam(n, plan.DefaultCatalog(), pool.DefaultDeviceProps())
	require.NoError(t, err)
	assert.Equal(t, 32768, gp.LDSBytes)
}

func TestLDSOverLimitIsInternal(t *testing.T) {
	n := &plan.Node{
		Scheme:    plan.SchemeKernelStockham,
		Dimension: 1,
		Length:    []int{64},
		Batch:     1,
		Precision: plan.Single,
	}
	props := pool.DeviceProps{Name: "tiny", SharedMemPerBlock: 1024, MaxThreadsPerBlock: 1024}
	_, err := SetupGridParam(n, plan.DefaultCatalog(), props)
	require.Error(t, err)
	assert.True(t, errors.Is(err, plan.ErrInternal))
}

func TestBlockColumnLDSException(t *testing.T) {
	n := &plan.Node{
		Scheme:          plan.SchemeKernelStockhamBlockCC,
		Dimension:       1,
		Length:          []int{343, 5},
		Batch:           2,
		Precision:       plan.Double,
		DirectToFromReg: true,
	}

	// 3773 complex doubles of LDS
	const full = 3773 * 16

	gp, err := SetupGridParam(n, plan.DefaultCatalog(), pool.DefaultDeviceProps())
	require.NoError(t, err)
	assert.Equal(t, 2, gp.BlocksX) // 10 transforms, 8 per block
	assert.Equal(t, full/2, gp.LDSBytes)

	// length 343 in double predates the half-LDS layout on gfx90a
	props := pool.DeviceProps{Name: "gfx90a", SharedMemPerBlock: 64 * 1024, MaxThreadsPerBlock: 1024}
	gp, err = SetupGridParam(n, plan.DefaultCatalog(), props)
	require.NoError(t, err)
	assert.Equal(t, full, gp.LDSBytes)
}

func TestTransposeGrid(t *testing.T) {
	n := &plan.Node{
		Scheme:    plan.SchemeKernelTranspose,
		Dimension: 2,
		Length:    []int{65, 54},
		Batch:     3,
		Precision: plan.Single,
	}
	gp, err := SetupGridParam(n, plan.DefaultCatalog(), pool.DefaultDeviceProps())
	require.NoError(t, err)

	assert.Equal(t, 3, gp.BlocksX)
	assert.Equal(t, 2, gp.BlocksY)
	assert.Equal(t, 3, gp.BlocksZ)
	assert.Equal(t, 32, gp.ThreadsX)
	assert.Equal(t, 8, gp.ThreadsY)
	assert.Equal(t, 0, gp.LDSBytes)
}

func TestAuxGridUsesPaddedLength(t *testing.T) {
	n := &plan.Node{
		Scheme:     plan.SchemeKernelPadMul,
		Dimension:  1,
		Length:     []int{17},
		Batch:      5,
		Precision:  plan.Single,
		LengthBlue: 64,
	}
	gp, err := SetupGridParam(n, plan.DefaultCatalog(), pool.DefaultDeviceProps())
	require.NoError(t, err)

	assert.Equal(t, 1, gp.BlocksX)
	assert.Equal(t, 5, gp.BlocksY)
	assert.Equal(t, 64, gp.ThreadsX)
}
