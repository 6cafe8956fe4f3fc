package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRFM(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, ComputeRFM(nil))
	})

	t.Run("recency frequency monetary per customer", func(t *testing.T) {
		sales := []SaleRow{
			{CustomerID: "C1", Date: day(2026, 8, 1), Amount: 100},
			{CustomerID: "C1", Date: day(2026, 8, 20), Amount: 150},
			{CustomerID: "C2", Date: day(2026, 8, 10), Amount: 40},
		}
		scores := ComputeRFM(sales)
		require.Len(t, scores, 2)

		// Sorted by customer ID.
		assert.Equal(t, "C1", scores[0].CustomerID)
		assert.Equal(t, "C2", scores[1].CustomerID)

		// Snapshot is the day after the latest sale (Aug 21).
		assert.Equal(t, 1, scores[0].Recency)
		assert.Equal(t, 2, scores[0].Frequency)
		assert.InDelta(t, 250, scores[0].Monetary, 1e-9)

		assert.Equal(t, 11, scores[1].Recency)
		assert.Equal(t, 1, scores[1].Frequency)
	})

	t.Run("quartile ranks span 1 to 4", func(t *testing.T) {
		// Eight customers with strictly increasing everything: two land
		// in each quartile.
		var sales []SaleRow
		for i := 0; i < 8; i++ {
			id := fmt.Sprintf("C%d", i)
			for j := 0; j <= i; j++ {
				sales = append(sales, SaleRow{
					CustomerID: id,
					Date:       day(2026, 8, 1+i),
					Amount:     float64(10 * (i + 1)),
				})
			}
		}
		scores := ComputeRFM(sales)
		require.Len(t, scores, 8)

		counts := map[int]int{}
		for _, s := range scores {
			counts[s.FScore]++
			assert.GreaterOrEqual(t, s.FScore, 1)
			assert.LessOrEqual(t, s.FScore, 4)
		}
		for q := 1; q <= 4; q++ {
			assert.Equal(t, 2, counts[q], "quartile %d", q)
		}
	})

	t.Run("named segments", func(t *testing.T) {
		// C-best buys often, recently, and big; C-gone bought once, long
		// ago, and small.
		var sales []SaleRow
		for i := 0; i < 6; i++ {
			sales = append(sales, SaleRow{CustomerID: "C-best", Date: day(2026, 8, 10+i), Amount: 500})
		}
		sales = append(sales,
			SaleRow{CustomerID: "C-gone", Date: day(2026, 1, 5), Amount: 10},
			SaleRow{CustomerID: "C-mid1", Date: day(2026, 6, 1), Amount: 80},
			SaleRow{CustomerID: "C-mid1", Date: day(2026, 7, 1), Amount: 80},
			SaleRow{CustomerID: "C-mid2", Date: day(2026, 5, 1), Amount: 60},
			SaleRow{CustomerID: "C-new", Date: day(2026, 8, 14), Amount: 30},
		)

		scores := ComputeRFM(sales)
		bySegment := map[string]string{}
		for _, s := range scores {
			bySegment[s.CustomerID] = s.Segment
		}

		assert.Equal(t, SegmentChampions, bySegment["C-best"])
		assert.Equal(t, SegmentHibernating, bySegment["C-gone"])
		assert.Equal(t, SegmentNewCustomers, bySegment["C-new"])
	})
}
