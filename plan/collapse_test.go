package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapseContiguousDims(t *testing.T) {
	n := &Node{
		Scheme:    SchemeKernelStockham,
		Dimension: 1,
		Length:    []int{16, 8, 4},
		Batch:     3,
		InStride:  []int{1, 16, 128},
		IDist:     512,
		OutStride: []int{1, 16, 128},
		ODist:     512,
	}
	collapseNode(n)

	assert.Equal(t, []int{16}, n.Length)
	assert.Equal(t, 3*8*4, n.Batch)
	assert.Equal(t, 16, n.IDist)
	assert.Equal(t, 16, n.ODist)
	assert.Equal(t, []int{1}, n.InStride)
}

func TestCollapseStopsAtGap(t *testing.T) {
	// output tiles exactly but input is padded, so nothing collapses
	n := &Node{
		Scheme:    SchemeKernelStockham,
		Dimension: 1,
		Length:    []int{16, 8},
		Batch:     1,
		InStride:  []int{1, 20},
		IDist:     160,
		OutStride: []int{1, 16},
		ODist:     128,
	}
	collapseNode(n)

	assert.Equal(t, []int{16, 8}, n.Length)
	assert.Equal(t, 1, n.Batch)
}

func TestCollapseOneSidedGapKeepsDim(t *testing.T) {
	// collapsible on the input side only; the rule is symmetric
	n := &Node{
		Scheme:    SchemeKernelStockham,
		Dimension: 1,
		Length:    []int{16, 8},
		Batch:     1,
		InStride:  []int{1, 16},
		IDist:     128,
		OutStride: []int{1, 20},
		ODist:     160,
	}
	collapseNode(n)

	assert.Equal(t, []int{16, 8}, n.Length)
	assert.Equal(t, 1, n.Batch)
	assert.Equal(t, 128, n.IDist)
}
