package repo

import (
	"math"
	"math/cmplx"
)

// twiddles1D generates the twiddle table for a length-N kernel.
//
// With a radix decomposition, entries follow the Stockham pass layout: for
// each pass of radix R over a sub-length L, the (R-1)*L roots
// exp(-2πi·j·k/(L·R)).  Without factors, the table is the plain roots of
// unity of length N.
//
// base > 0 selects the large-twiddle layout used by SBCC kernels in L1D_CC
// decompositions: ceil(log2(N)/base) digit tables of 2^base entries each,
// where digit table d holds exp(-2πi·k·2^(base·d)/N).
//
// attachHalf appends the N half-length conversion factors
// exp(-πi·k/N) used by the real/complex pre/post kernels.
//
// limit, when non-zero, caps the table at limit entries (pre/post kernels
// read only a prefix of the full table).
func twiddles1D(length, limit, base int, attachHalf bool, factors []int) []complex128 {
	var table []complex128

	switch {
	case base > 0:
		digits := (log2ceil(length) + base - 1) / base
		for d := 0; d < digits; d++ {
			stride := math.Pow(2, float64(base*d))
			for k := 0; k < 1<<base; k++ {
				phase := -2 * math.Pi * float64(k) * stride / float64(length)
				table = append(table, cmplx.Exp(complex(0, phase)))
			}
		}
	case len(factors) > 0:
		l := 1
		for _, radix := range factors {
			for j := 0; j < l; j++ {
				for k := 1; k < radix; k++ {
					phase := -2 * math.Pi * float64(j*k) / float64(l*radix)
					table = append(table, cmplx.Exp(complex(0, phase)))
				}
			}
			l *= radix
		}
	default:
		for k := 0; k < length; k++ {
			phase := -2 * math.Pi * float64(k) / float64(length)
			table = append(table, cmplx.Exp(complex(0, phase)))
		}
	}

	if attachHalf {
		for k := 0; k < length; k++ {
			phase := -math.Pi * float64(k) / float64(length)
			table = append(table, cmplx.Exp(complex(0, phase)))
		}
	}

	if limit > 0 && limit < len(table) {
		table = table[:limit]
	}
	return table
}

// chirp generates the quadratic-phase sequence a_k = exp(πi·k²/N) used by
// Bluestein's algorithm.
func chirp(length int) []complex128 {
	table := make([]complex128, length)
	for k := 0; k < length; k++ {
		phase := math.Pi * float64(k) * float64(k) / float64(length)
		table[k] = cmplx.Exp(complex(0, phase))
	}
	return table
}

func log2ceil(n int) int {
	b := 0
	for (1 << b) < n {
		b++
	}
	return b
}
