package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EMinsight/rocFFT/pool"
)

func TestAssignRealEvenForward(t *testing.T) {
	pl := mustPlan(t, Problem{
		Lengths:   []int{1024},
		Transform: TransformRealForward,
		Precision: Single,
		Placement: NotInPlace,
	}, nil)

	cfft := pl.Root.Children[1]
	// the real input viewed as 512 complex elements
	assert.Equal(t, []int{1}, cfft.InStride)
	assert.Equal(t, 512, cfft.IDist)
	// the folded butterfly writes the Hermitian output directly
	assert.Equal(t, []int{1}, cfft.OutStride)
	assert.Equal(t, 513, cfft.ODist)
}

func TestAssignRealEvenForwardInPlace(t *testing.T) {
	pl := mustPlan(t, Problem{
		Lengths:   []int{1024},
		Batch:     4,
		Transform: TransformRealForward,
		Precision: Single,
		Placement: InPlace,
	}, nil)

	// the padded real batch distance halves to the Hermitian one
	cfft := pl.Root.Children[1]
	assert.Equal(t, 513, cfft.IDist)
	assert.Equal(t, 513, cfft.ODist)
}

func TestAssignRealEvenInverseSeparate(t *testing.T) {
	tuning := DefaultTuning()
	tuning.MaxFusePrePostLength = 1

	pl := mustPlan(t, Problem{
		Lengths:   []int{1024},
		Transform: TransformRealInverse,
		Precision: Single,
		Placement: NotInPlace,
	}, &Config{Tuning: &tuning})

	root := pl.Root
	require.Len(t, root.Children, 3)
	pre, cfft, cb := root.Children[0], root.Children[1], root.Children[2]

	assert.Equal(t, SchemeKernelC2RPre, pre.Scheme)
	assert.Equal(t, 513, pre.IDist)
	// the butterfly writes the complex view of the real output
	assert.Equal(t, 512, pre.ODist)

	assert.Equal(t, 512, cfft.IDist)
	assert.Equal(t, 512, cfft.ODist)

	assert.Equal(t, SchemeKernelApplyCallback, cb.Scheme)
	assert.Equal(t, 1024, cb.IDist)
}

func TestAssign1DCC(t *testing.T) {
	pl := mustPlan(t, Problem{
		Lengths:   []int{8192},
		Batch:     2,
		Transform: TransformComplexForward,
		Precision: Single,
		Placement: NotInPlace,
	}, nil)

	cc, row := pl.Root.Children[0], pl.Root.Children[1]

	// column pass: stride-128 reads, contiguous transposed writes
	assert.Equal(t, []int{128, 1}, cc.InStride)
	assert.Equal(t, 8192, cc.IDist)
	assert.Equal(t, []int{128, 1}, cc.OutStride)
	assert.Equal(t, 8192, cc.ODist)

	// row pass scatters in digit-reversed order
	assert.Equal(t, []int{1, 128}, row.InStride)
	assert.Equal(t, []int{64, 1}, row.OutStride)
	assert.Equal(t, 8192, row.ODist)
}

func TestAssign2DRTRT(t *testing.T) {
	pl := mustPlan(t, Problem{
		Lengths:   []int{32, 81},
		Transform: TransformComplexForward,
		Precision: Single,
		Placement: NotInPlace,
	}, nil)

	row0, t1, row1, t2 := pl.Root.Children[0], pl.Root.Children[1],
		pl.Root.Children[2], pl.Root.Children[3]

	// the contiguous higher dimension of each row pass collapses into
	// its batch count
	assert.Equal(t, []int{32}, row0.Length)
	assert.Equal(t, 81, row0.Batch)
	assert.Equal(t, 32, row0.IDist)

	assert.Equal(t, []int{81, 1}, t1.OutStride)
	assert.Equal(t, 32*81, t1.ODist)

	assert.Equal(t, []int{81}, row1.Length)
	assert.Equal(t, 32, row1.Batch)
	assert.Equal(t, 81, row1.IDist)

	assert.Equal(t, []int{32, 1}, t2.OutStride)
}

func TestAssignBluestein(t *testing.T) {
	pl := mustPlan(t, Problem{
		Lengths:   []int{17},
		Transform: TransformComplexForward,
		Precision: Single,
		Placement: NotInPlace,
	}, nil)

	padMul := pl.Root.Children[1]
	assert.Equal(t, 17, padMul.IDist)
	assert.Equal(t, 64, padMul.ODist)

	for _, c := range pl.Root.Children[2:5] {
		assert.Equal(t, 64, c.IDist)
		assert.Equal(t, 64, c.ODist)
	}

	resMul := pl.Root.Children[5]
	assert.Equal(t, 64, resMul.IDist)
	assert.Equal(t, 17, resMul.ODist)
}

func TestAssignReal2DEvenSBCCInverse(t *testing.T) {
	pl := mustPlan(t, Problem{
		Lengths:   []int{128, 64},
		Transform: TransformRealInverse,
		Precision: Single,
		Placement: NotInPlace,
	}, nil)

	root := pl.Root
	require.Len(t, root.Children, 2)
	sbcc, rc := root.Children[0], root.Children[1]

	// block-column pass runs along dimension 1 in place over the
	// Hermitian input, so its strides are the input's swapped
	assert.Equal(t, []int{65, 1}, sbcc.InStride)
	assert.Equal(t, 65*64, sbcc.IDist)
	assert.Equal(t, sbcc.InStride, sbcc.OutStride)

	// the half-length inverse reads the Hermitian layout and writes the
	// complex view of the real output
	cfft := rc.Children[0]
	assert.Equal(t, []int{1, 65}, cfft.InStride)
	assert.Equal(t, 65*64, cfft.IDist)
	assert.Equal(t, []int{1, 64}, cfft.OutStride)
	assert.Equal(t, 64*64, cfft.ODist)
}

func TestAssignReal3DEvenSBCR(t *testing.T) {
	props := pool.DeviceProps{Name: "gfx90a", SharedMemPerBlock: 64 * 1024, MaxThreadsPerBlock: 1024}
	pl := mustPlan(t, Problem{
		Lengths:   []int{128, 81, 64},
		Transform: TransformRealInverse,
		Precision: Single,
		Placement: NotInPlace,
	}, &Config{Props: props})

	root := pl.Root
	require.Len(t, root.Children, 3)
	sbcrZ, sbcrY, sbcrX := root.Children[0], root.Children[1], root.Children[2]

	const total = 65 * 81 * 64

	assert.Equal(t, []int{65 * 81, 1, 65}, sbcrZ.InStride)
	assert.Equal(t, total, sbcrZ.IDist)
	assert.Equal(t, []int{1, 64, 64 * 65}, sbcrZ.OutStride)
	assert.Equal(t, total, sbcrZ.ODist)

	assert.Equal(t, []int{64 * 65, 64, 1}, sbcrY.InStride)
	assert.Equal(t, []int{1, 81, 81 * 65}, sbcrY.OutStride)

	assert.Equal(t, []int{81, 1, 81 * 65}, sbcrX.InStride)
	assert.Equal(t, total, sbcrX.IDist)
	// last pass writes the real output through its folded butterfly
	assert.Equal(t, []int{1, 128, 128 * 81}, sbcrX.OutStride)
	assert.Equal(t, 128*81*64, sbcrX.ODist)
}
