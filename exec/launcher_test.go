package exec

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EMinsight/rocFFT/plan"
	"github.com/EMinsight/rocFFT/utils"
)

func TestLaunchUnregisteredKernel(t *testing.T) {
	l := NewOCCALauncher(nil)
	err := l.Launch("missing", GridParam{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, plan.ErrInternal))
}

const scaleKernelSource = `
@kernel void scaleByTwo(const int n, double *x) {
  for (int i = 0; i < n; ++i; @outer) {
    for (int t = 0; t < 1; ++t; @inner) {
      x[i] *= 2.0;
    }
  }
}
`

func TestOCCALauncherRoundTrip(t *testing.T) {
	device, err := utils.CreateDevice()
	if err != nil {
		t.Skipf("no OCCA device available: %v", err)
	}
	defer device.Free()

	l := NewOCCALauncher(device)
	defer l.Free()
	require.NoError(t, l.RegisterKernel("scaleByTwo", scaleKernelSource))

	data := []float64{1, 2, 3, 4}
	mem := device.Malloc(int64(len(data)*8), unsafe.Pointer(&data[0]), nil)
	defer mem.Free()

	require.NoError(t, l.Launch("scaleByTwo", GridParam{BlocksX: 4, ThreadsX: 1}, len(data), mem))

	out := make([]float64, len(data))
	mem.CopyTo(unsafe.Pointer(&out[0]), int64(len(out)*8))
	assert.Equal(t, []float64{2, 4, 6, 8}, out)
}
