package analytics

import (
	"fmt"
	"sort"
	"time"
)

// SpendRow is the slim fact projection the anomaly rules run over.
type SpendRow struct {
	Date        time.Time
	AdID        string
	Spend       float64
	Conversions int64
}

// Anomaly is one detected CPA spike.
type Anomaly struct {
	Date          time.Time
	AdID          string
	Metric        string
	Justification string
	CPA           float64
	BaselineCPA   float64
}

// cpaFloor keeps noise-level CPAs from alerting; a spike below this
// absolute value is not worth a row.
const cpaFloor = 5.0

// DetectCPASpikes compares each ad's CPA on the given day against its
// average over the preceding rows. A day at more than double the
// trailing average (and above the absolute floor) is an anomaly. Rows
// with zero conversions count at their full spend, mirroring a CPA
// with a denominator clamped to one. Results are ordered by ad ID.
func DetectCPASpikes(rows []SpendRow, day time.Time) []Anomaly {
	day = dayOf(day)

	type history struct {
		current  *float64
		sum      float64
		baseline int
	}
	byAd := make(map[string]*history)
	for _, r := range rows {
		h, ok := byAd[r.AdID]
		if !ok {
			h = &history{}
			byAd[r.AdID] = h
		}
		cpa := r.Spend
		if r.Conversions > 0 {
			cpa = r.Spend / float64(r.Conversions)
		}
		switch {
		case dayOf(r.Date).Equal(day):
			h.current = ptr(cpa)
		case dayOf(r.Date).Before(day):
			h.sum += cpa
			h.baseline++
		}
	}

	var out []Anomaly
	for adID, h := range byAd {
		if h.current == nil || h.baseline == 0 {
			continue
		}
		avg := h.sum / float64(h.baseline)
		if *h.current > avg*2 && *h.current > cpaFloor {
			out = append(out, Anomaly{
				Date:   day,
				AdID:   adID,
				Metric: "High CPA",
				Justification: fmt.Sprintf("CPA ($%.2f) is >200%% of trailing average ($%.2f).",
					*h.current, avg),
				CPA:         *h.current,
				BaselineCPA: avg,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AdID < out[j].AdID })
	return out
}
