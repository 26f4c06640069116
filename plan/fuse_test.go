package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EMinsight/rocFFT/pool"
)

func TestFuseShimsOnRowTransposePlan(t *testing.T) {
	pl := mustPlan(t, Problem{
		Lengths:   []int{32, 81},
		Transform: TransformComplexForward,
		Precision: Single,
		Placement: NotInPlace,
	}, nil)

	require.Len(t, pl.Shims, 2)
	for _, s := range pl.Shims {
		assert.Equal(t, FuseStockhamWithTrans, s.Type)
		assert.Equal(t, SchemeKernelStockham, s.First().Scheme)
		assert.Equal(t, SchemeKernelTranspose, s.Last().Scheme)
	}
}

func TestStoreCallbackPinsLastLeaf(t *testing.T) {
	cb := &Callback{}
	pl := mustPlan(t, Problem{
		Lengths:       []int{32, 81},
		Transform:     TransformComplexForward,
		Precision:     Single,
		Placement:     NotInPlace,
		StoreCallback: cb,
	}, nil)

	// the trailing transpose must stay a lone kernel so the callback
	// observes its output
	require.Len(t, pl.Shims, 1)
	leaves := pl.Root.Leaves()
	last := leaves[len(leaves)-1]
	for _, s := range pl.Shims {
		for _, l := range s.Leaves {
			assert.NotSame(t, last, l)
		}
	}
}

func TestFuseTransposeC2R(t *testing.T) {
	tuning := DefaultTuning()
	tuning.MaxFusePrePostLength = 1

	pl := mustPlan(t, Problem{
		Lengths:   []int{128, 54},
		Transform: TransformRealInverse,
		Precision: Single,
		Placement: NotInPlace,
	}, &Config{Tuning: &tuning})

	require.Len(t, pl.Shims, 1)
	assert.Equal(t, FuseTransposeC2R, pl.Shims[0].Type)
	assert.Equal(t, SchemeKernelC2RPre, pl.Shims[0].Last().Scheme)
}

func TestFuseTripleOverButterfly(t *testing.T) {
	tb := NewTreeBuilder(DefaultCatalog(), pool.DefaultDeviceProps())

	root := &Node{Scheme: SchemeRealTransformEven}
	fft := &Node{Scheme: SchemeKernelStockham, Length: []int{64}}
	post := &Node{Scheme: SchemeKernelR2CPost, Length: []int{64}}
	tr := &Node{Scheme: SchemeKernelTranspose, Length: []int{65, 54}}
	root.AddChild(fft)
	root.AddChild(post)
	root.AddChild(tr)

	shims := tb.CollectFuseShims(root, &Problem{})
	require.Len(t, shims, 1)
	assert.Equal(t, FuseStockhamR2CTranspose, shims[0].Type)
	require.Len(t, shims[0].Leaves, 3)
	assert.Same(t, fft, shims[0].First())
	assert.Same(t, tr, shims[0].Last())
}

func TestFuseR2CTransposePair(t *testing.T) {
	// a long transform keeps the butterfly out of the FFT kernel and out
	// of the triple, leaving the pair behind it
	tb := NewTreeBuilder(DefaultCatalog(), pool.DefaultDeviceProps())

	root := &Node{Scheme: SchemeRealTransformEven}
	fft := &Node{Scheme: SchemeKernelStockham, Length: []int{4096}}
	post := &Node{Scheme: SchemeKernelR2CPost, Length: []int{4096}}
	tr := &Node{Scheme: SchemeKernelTranspose, Length: []int{4097, 8}}
	root.AddChild(fft)
	root.AddChild(post)
	root.AddChild(tr)

	shims := tb.CollectFuseShims(root, &Problem{})
	require.Len(t, shims, 1)
	assert.Equal(t, FuseR2CTranspose, shims[0].Type)
	assert.Same(t, post, shims[0].First())
}
