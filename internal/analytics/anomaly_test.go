package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCPASpikes(t *testing.T) {
	today := day(2026, 8, 30)

	t.Run("spike over double the trailing average", func(t *testing.T) {
		rows := []SpendRow{
			{Date: day(2026, 8, 27), AdID: "A", Spend: 40, Conversions: 4}, // CPA 10
			{Date: day(2026, 8, 28), AdID: "A", Spend: 40, Conversions: 4},
			{Date: day(2026, 8, 29), AdID: "A", Spend: 40, Conversions: 4},
			{Date: day(2026, 8, 30), AdID: "A", Spend: 100, Conversions: 4}, // CPA 25
		}
		anomalies := DetectCPASpikes(rows, today)

		require.Len(t, anomalies, 1)
		a := anomalies[0]
		assert.Equal(t, "A", a.AdID)
		assert.Equal(t, "High CPA", a.Metric)
		assert.Equal(t, today, a.Date)
		assert.InDelta(t, 25, a.CPA, 1e-9)
		assert.InDelta(t, 10, a.BaselineCPA, 1e-9)
		assert.Equal(t, "CPA ($25.00) is >200% of trailing average ($10.00).", a.Justification)
	})

	t.Run("exactly double is not a spike", func(t *testing.T) {
		rows := []SpendRow{
			{Date: day(2026, 8, 29), AdID: "A", Spend: 10, Conversions: 1},
			{Date: day(2026, 8, 30), AdID: "A", Spend: 20, Conversions: 1},
		}
		assert.Empty(t, DetectCPASpikes(rows, today))
	})

	t.Run("cheap spikes stay below the floor", func(t *testing.T) {
		// CPA jumps 1 -> 4, but $4 is not worth an alert.
		rows := []SpendRow{
			{Date: day(2026, 8, 29), AdID: "A", Spend: 1, Conversions: 1},
			{Date: day(2026, 8, 30), AdID: "A", Spend: 4, Conversions: 1},
		}
		assert.Empty(t, DetectCPASpikes(rows, today))
	})

	t.Run("no baseline means no verdict", func(t *testing.T) {
		rows := []SpendRow{
			{Date: day(2026, 8, 30), AdID: "new-ad", Spend: 500, Conversions: 1},
		}
		assert.Empty(t, DetectCPASpikes(rows, today))
	})

	t.Run("zero conversions count at full spend", func(t *testing.T) {
		rows := []SpendRow{
			{Date: day(2026, 8, 29), AdID: "A", Spend: 8, Conversions: 1},
			{Date: day(2026, 8, 30), AdID: "A", Spend: 30, Conversions: 0}, // CPA treated as 30
		}
		anomalies := DetectCPASpikes(rows, today)
		require.Len(t, anomalies, 1)
		assert.InDelta(t, 30, anomalies[0].CPA, 1e-9)
	})

	t.Run("ads are judged independently", func(t *testing.T) {
		rows := []SpendRow{
			{Date: day(2026, 8, 29), AdID: "quiet", Spend: 20, Conversions: 2},
			{Date: day(2026, 8, 30), AdID: "quiet", Spend: 22, Conversions: 2},
			{Date: day(2026, 8, 29), AdID: "loud", Spend: 20, Conversions: 2},
			{Date: day(2026, 8, 30), AdID: "loud", Spend: 90, Conversions: 2},
		}
		anomalies := DetectCPASpikes(rows, today)
		require.Len(t, anomalies, 1)
		assert.Equal(t, "loud", anomalies[0].AdID)
	})

	t.Run("results come back ordered by ad id", func(t *testing.T) {
		spiking := func(adID string) []SpendRow {
			return []SpendRow{
				{Date: day(2026, 8, 29), AdID: adID, Spend: 20, Conversions: 2},
				{Date: day(2026, 8, 30), AdID: adID, Spend: 90, Conversions: 2},
			}
		}
		var rows []SpendRow
		for _, id := range []string{"C", "A", "D", "B"} {
			rows = append(rows, spiking(id)...)
		}

		anomalies := DetectCPASpikes(rows, today)
		require.Len(t, anomalies, 4)
		got := make([]string, len(anomalies))
		for i, a := range anomalies {
			got[i] = a.AdID
		}
		assert.Equal(t, []string{"A", "B", "C", "D"}, got)
	})
}
