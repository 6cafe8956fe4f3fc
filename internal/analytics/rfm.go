package analytics

import (
	"sort"
	"time"
)

// SaleRow is one sale as loaded from the sales table.
type SaleRow struct {
	CustomerID string
	Date       time.Time
	Amount     float64
}

// RFMScore is the recency/frequency/monetary profile of one customer.
// Scores are quartiles 1-4, with 4 best (most recent, most frequent,
// highest spend).
type RFMScore struct {
	CustomerID string  `json:"customer_id"`
	Recency    int     `json:"recency_days"`
	Frequency  int     `json:"frequency"`
	Monetary   float64 `json:"monetary"`

	RScore  int    `json:"r_score"`
	FScore  int    `json:"f_score"`
	MScore  int    `json:"m_score"`
	Segment string `json:"segment"`
}

// RFM named segments.
const (
	SegmentChampions         = "Champions"
	SegmentPotentialLoyalist = "Potential Loyalists"
	SegmentNewCustomers      = "New Customers"
	SegmentAtRisk            = "At Risk"
	SegmentHibernating       = "Hibernating"
	SegmentOther             = "Others"
)

// ComputeRFM scores customers by recency, frequency and monetary value
// over the given sales. Recency is measured against the day after the
// latest sale in the data set. Returns scores sorted by customer ID for
// deterministic output.
func ComputeRFM(sales []SaleRow) []RFMScore {
	if len(sales) == 0 {
		return nil
	}

	snapshot := sales[0].Date
	for _, s := range sales {
		if s.Date.After(snapshot) {
			snapshot = s.Date
		}
	}
	snapshot = snapshot.AddDate(0, 0, 1)

	byCustomer := make(map[string]*RFMScore)
	for _, s := range sales {
		c, ok := byCustomer[s.CustomerID]
		if !ok {
			c = &RFMScore{CustomerID: s.CustomerID, Recency: int(snapshot.Sub(dayOf(s.Date)).Hours() / 24)}
			byCustomer[s.CustomerID] = c
		}
		rec := int(snapshot.Sub(dayOf(s.Date)).Hours() / 24)
		if rec < c.Recency {
			c.Recency = rec
		}
		c.Frequency++
		c.Monetary += s.Amount
	}

	scores := make([]RFMScore, 0, len(byCustomer))
	for _, c := range byCustomer {
		scores = append(scores, *c)
	}

	// Quartile by rank. Recency is inverted: fewer days means a higher
	// score.
	assignQuartiles(scores, func(s RFMScore) float64 { return -float64(s.Recency) }, func(s *RFMScore, q int) { s.RScore = q })
	assignQuartiles(scores, func(s RFMScore) float64 { return float64(s.Frequency) }, func(s *RFMScore, q int) { s.FScore = q })
	assignQuartiles(scores, func(s RFMScore) float64 { return s.Monetary }, func(s *RFMScore, q int) { s.MScore = q })

	for i := range scores {
		scores[i].Segment = segmentFor(scores[i])
	}

	sort.Slice(scores, func(i, j int) bool { return scores[i].CustomerID < scores[j].CustomerID })
	return scores
}

func assignQuartiles(scores []RFMScore, key func(RFMScore) float64, set func(*RFMScore, int)) {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return key(scores[idx[a]]) < key(scores[idx[b]]) })
	n := len(idx)
	for rank, i := range idx {
		q := rank*4/n + 1
		if q > 4 {
			q = 4
		}
		set(&scores[i], q)
	}
}

func segmentFor(s RFMScore) string {
	r, f, m := s.RScore, s.FScore, s.MScore
	switch {
	case r >= 3 && f >= 3 && m >= 3:
		return SegmentChampions
	case r >= 2 && f <= 2 && m >= 3:
		return SegmentPotentialLoyalist
	case r >= 3 && f <= 2 && m <= 2:
		return SegmentNewCustomers
	case r <= 2 && f >= 3 && m >= 3:
		return SegmentAtRisk
	case r == 1 && f <= 2 && m <= 2:
		return SegmentHibernating
	default:
		return SegmentOther
	}
}
