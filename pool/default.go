package pool

import "sort"

// supportedRadices are the butterfly radices the built-in Stockham kernels
// are generated from, largest first so factorization prefers wide butterflies.
var supportedRadices = []int{16, 13, 11, 8, 7, 5, 4, 3, 2}

// maxKernelLength bounds single-kernel transforms; longer lengths must be
// decomposed by the tree builder.
const maxKernelLength = 4096

// sbccLengths are the lengths with purpose-built block-column-column kernels.
var sbccLengths = []int{
	49, 50, 52, 60, 64, 72, 80, 81, 84, 96, 100, 104, 108, 112, 128,
	160, 168, 192, 200, 208, 216, 224, 240, 256, 336, 343, 512,
}

// sbcrLengths are the lengths with purpose-built block-column-row kernels.
var sbcrLengths = []int{
	64, 81, 100, 128, 192, 200, 256, 336, 343, 512,
}

// max2DSingleLength bounds each side of a fused 2D kernel; the pair is
// admitted when the LDS tile (l0*l1 complex elements) stays reasonable.
const (
	max2DSingleLength = 64
	max2DSingleElems  = 4096
)

// Default builds the catalog of built-in kernels: Stockham kernels for every
// factorable length up to maxKernelLength, the SBCC/SBCR special sets, and
// fused 2D kernels for small length pairs.
func Default() *Catalog {
	c := NewCatalog()

	lengths := factorableLengths(maxKernelLength)
	for _, prec := range []Precision{Single, Double} {
		for _, n := range lengths {
			c.Add(Key1D(n, prec, SchemeKernelStockham), stockhamKernel(n))
		}
		for _, n := range sbccLengths {
			k := stockhamKernel(n)
			k.TransformsPerBlock = 8
			k.HalfLDS = true
			k.DirectToFromReg = true
			c.Add(Key1D(n, prec, SchemeKernelStockhamBlockCC), k)
		}
		for _, n := range sbcrLengths {
			k := stockhamKernel(n)
			k.TransformsPerBlock = 8
			c.Add(Key1D(n, prec, SchemeKernelStockhamBlockCR), k)
		}
		for _, l0 := range lengths {
			if l0 > max2DSingleLength {
				break
			}
			for _, l1 := range lengths {
				if l1 > max2DSingleLength {
					break
				}
				if l0*l1 > max2DSingleElems {
					continue
				}
				c.Add(Key2D(l0, l1, prec), Kernel{
					Factors:            append(factorize(l0), factorize(l1)...),
					WorkGroupSize:      256,
					TransformsPerBlock: 1,
					LDSElems:           l0 * l1,
				})
			}
		}
	}
	return c
}

// stockhamKernel derives default execution parameters for a plain Stockham
// kernel of the given length.
func stockhamKernel(n int) Kernel {
	tpb := 4096 / n
	if tpb < 1 {
		tpb = 1
	}
	if tpb > 64 {
		tpb = 64
	}
	wgs := n * tpb / 4
	if wgs < 64 {
		wgs = 64
	}
	if wgs > 256 {
		wgs = 256
	}
	return Kernel{
		Factors:            factorize(n),
		WorkGroupSize:      wgs,
		TransformsPerBlock: tpb,
		LDSElems:           n * tpb,
		HalfLDS:            isPow2(n) && n <= 512,
		DirectToFromReg:    isPow2(n) && n <= 256,
	}
}

// factorize greedily decomposes n into supported radices.  Returns nil when
// n has a prime factor outside the radix set.
func factorize(n int) []int {
	var factors []int
	for n > 1 {
		matched := false
		for _, r := range supportedRadices {
			if n%r == 0 {
				factors = append(factors, r)
				n /= r
				matched = true
				break
			}
		}
		if !matched {
			return nil
		}
	}
	return factors
}

// factorableLengths enumerates, in ascending order, every length up to max
// that decomposes fully into supported radices.
func factorableLengths(max int) []int {
	var out []int
	for n := 2; n <= max; n++ {
		if factorize(n) != nil {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

func isPow2(n int) bool { return n > 0 && n&(n-1) == 0 }
