package plan

import (
	"sync"

	"github.com/EMinsight/rocFFT/pool"
	"github.com/EMinsight/rocFFT/repo"
)

// Config selects the collaborators a plan is compiled against.  Every field
// is optional; zero values select the built-in kernel catalog, a generic
// device, the process-wide table cache and the default tuning.
type Config struct {
	Catalog *pool.Catalog
	Props   pool.DeviceProps
	Repo    *repo.Repo
	Tuning  *Tuning
}

var (
	defaultCatalogOnce sync.Once
	defaultCatalog     *pool.Catalog
)

// DefaultCatalog returns the shared catalog of built-in kernels.
func DefaultCatalog() *pool.Catalog {
	defaultCatalogOnce.Do(func() {
		defaultCatalog = pool.Default()
	})
	return defaultCatalog
}

// Plan is a compiled transform: the validated problem, the kernel tree with
// every stride and table resolved, and the fusion candidates found on it.
type Plan struct {
	Problem *Problem
	Root    *Node
	Shims   []*FuseShim

	builder *TreeBuilder
	repo    *repo.Repo
}

// New compiles a problem into an executable plan.  The returned plan holds
// references on shared twiddle and chirp tables; Destroy releases them.
func New(p Problem, cfg *Config) (*Plan, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	props := cfg.Props
	if props.Name == "" {
		props = pool.DefaultDeviceProps()
	}
	r := cfg.Repo
	if r == nil {
		r = repo.DefaultRepo()
	}

	prob := p.clone()
	prob.setDefaults()
	if err := prob.validate(); err != nil {
		return nil, err
	}

	builder := NewTreeBuilder(catalog, props)
	if cfg.Tuning != nil {
		builder.Tuning = *cfg.Tuning
	}

	root := rootNode(prob)
	pl := &Plan{Problem: prob, Root: root, builder: builder, repo: r}

	if err := pl.compile(); err != nil {
		root.Destroy(r)
		return nil, err
	}
	return pl, nil
}

// rootNode seeds the tree root from the validated problem.
func rootNode(p *Problem) *Node {
	return &Node{
		Dimension:    p.Rank(),
		Length:       append([]int(nil), p.Lengths...),
		Batch:        p.Batch,
		Direction:    p.Transform.Direction(),
		Precision:    p.Precision,
		Placement:    p.Placement,
		InArrayType:  p.InArrayType,
		OutArrayType: p.OutArrayType,
		InStride:     append([]int(nil), p.InStrides...),
		OutStride:    append([]int(nil), p.OutStrides...),
		IDist:        p.InDist,
		ODist:        p.OutDist,
	}
}

func (pl *Plan) compile() error {
	if err := pl.builder.Build(pl.Problem, pl.Root); err != nil {
		return err
	}
	if err := AssignParams(pl.Root); err != nil {
		return err
	}
	CollapseContiguousDims(pl.Root)
	if err := pl.builder.KernelCheck(pl.Root); err != nil {
		return err
	}
	if err := pl.acquireResources(); err != nil {
		return err
	}
	pl.Shims = pl.builder.CollectFuseShims(pl.Root, pl.Problem)
	pl.Root.fuseShims = pl.Shims
	return nil
}

// acquireResources takes references on the twiddle and chirp tables each
// leaf reads.  Handles land on the nodes; Destroy drops them.
func (pl *Plan) acquireResources() error {
	props := pl.builder.Props
	r := pl.repo

	for _, leaf := range pl.Root.Leaves() {
		prec := leaf.Precision
		switch leaf.Scheme {
		case SchemeKernelStockham:
			leaf.Twiddles, _ = r.AcquireTwiddles1D(leaf.Length[0], 0, prec, props,
				0, leaf.Embedded != pool.EmbeddedNone, leaf.KernelFactors)
		case SchemeKernelStockhamBlockCC:
			leaf.Twiddles, _ = r.AcquireTwiddles1D(leaf.Length[0], 0, prec, props,
				0, false, leaf.KernelFactors)
			if leaf.Large1D > 0 {
				leaf.TwiddlesLarge, _ = r.AcquireTwiddles1D(leaf.Large1D, 0, prec, props,
					leaf.LargeTwdBase, false, nil)
			}
		case SchemeKernelStockhamBlockCR:
			leaf.Twiddles, _ = r.AcquireTwiddles1D(leaf.Length[0], 0, prec, props,
				0, leaf.Embedded != pool.EmbeddedNone, leaf.KernelFactors)
		case SchemeKernel2DSingle:
			leaf.Twiddles, _ = r.AcquireTwiddles2D(leaf.Length[0], leaf.Length[1], prec, props)
		case SchemeKernelR2CPost, SchemeKernelC2RPre:
			leaf.Twiddles, _ = r.AcquireTwiddles1D(leaf.Length[0], 0, prec, props,
				0, true, nil)
		case SchemeKernelChirp:
			// the chirp phase runs over the original length N, not the
			// padded convolution length
			leaf.ChirpTable, _ = r.AcquireChirp(leaf.LengthBlueN, prec, props)
		}
	}
	return nil
}

// Destroy releases the plan's table references.  The plan must not be
// executed afterwards.  Destroying a plan never affects other plans sharing
// the same tables.
func (pl *Plan) Destroy() {
	if pl.Root != nil {
		pl.Root.Destroy(pl.repo)
	}
}

// String renders the compiled tree.
func (pl *Plan) String() string { return pl.Root.String() }
