// Package analytics is the computation core of the dashboard: metric
// derivation, A/B significance testing, budget pacing, customer
// segmentation and anomaly rules. Everything here is a pure function
// over rows the caller has already loaded — no database access, no
// side effects, so recomputing over the same rows always yields the
// same output.
package analytics

// Fact is one performance fact row (or a pre-grouped aggregate of
// several) as loaded from daily_performance and its dimension tables.
type Fact struct {
	Impressions int64
	Reach       int64
	Clicks      int64
	VideoViews  int64
	AddToCarts  int64
	Conversions int64
	Spend       float64
	Revenue     float64
}

// Metrics holds totals plus derived metrics. Derived values are
// pointers: nil means the denominator was zero and the metric is
// undefined — reported as null downstream, never as 0 or +Inf.
type Metrics struct {
	Impressions int64   `json:"impressions"`
	Reach       int64   `json:"reach"`
	Clicks      int64   `json:"clicks"`
	VideoViews  int64   `json:"video_views"`
	AddToCarts  int64   `json:"add_to_carts"`
	Conversions int64   `json:"conversions"`
	Spend       float64 `json:"spend"`
	Revenue     float64 `json:"revenue"`

	// ROAS is revenue / spend.
	ROAS *float64 `json:"roas"`
	// CPA is spend / conversions.
	CPA *float64 `json:"cpa"`
	// CTR is clicks / impressions, in percent.
	CTR *float64 `json:"ctr"`
	// CPM is spend per thousand impressions.
	CPM *float64 `json:"cpm"`
}

// Compute sums the given fact rows and derives ROAS, CPA, CTR and CPM
// with zero-denominator guards.
func Compute(rows []Fact) Metrics {
	var m Metrics
	for _, r := range rows {
		m.Impressions += r.Impressions
		m.Reach += r.Reach
		m.Clicks += r.Clicks
		m.VideoViews += r.VideoViews
		m.AddToCarts += r.AddToCarts
		m.Conversions += r.Conversions
		m.Spend += r.Spend
		m.Revenue += r.Revenue
	}

	if m.Spend > 0 {
		m.ROAS = ptr(m.Revenue / m.Spend)
	}
	if m.Conversions > 0 {
		m.CPA = ptr(m.Spend / float64(m.Conversions))
	}
	if m.Impressions > 0 {
		m.CTR = ptr(float64(m.Clicks) / float64(m.Impressions) * 100)
		m.CPM = ptr(m.Spend / float64(m.Impressions) * 1000)
	}
	return m
}

// Standing of a metric against its configured target.
type Standing string

const (
	AboveTarget Standing = "above"
	AtTarget    Standing = "at"
	BelowTarget Standing = "below"
	NoData      Standing = "no_data"
)

// Targets are the configured comparison thresholds. CTR is in percent
// to match Metrics.CTR.
type Targets struct {
	ROAS float64
	CPA  float64
	CTR  float64
}

// TargetReport carries the standing of each derived metric. Standings
// are plain value-vs-target comparisons with no hysteresis; whether
// "above" is good depends on the metric (it is for ROAS and CTR, it is
// not for CPA) and is the presentation layer's concern.
type TargetReport struct {
	ROAS Standing `json:"roas"`
	CPA  Standing `json:"cpa"`
	CTR  Standing `json:"ctr"`
}

// Classify compares the computed metrics against targets. Undefined
// metrics classify as NoData.
func Classify(m Metrics, t Targets) TargetReport {
	return TargetReport{
		ROAS: standing(m.ROAS, t.ROAS),
		CPA:  standing(m.CPA, t.CPA),
		CTR:  standing(m.CTR, t.CTR),
	}
}

func standing(v *float64, target float64) Standing {
	switch {
	case v == nil:
		return NoData
	case *v > target:
		return AboveTarget
	case *v < target:
		return BelowTarget
	default:
		return AtTarget
	}
}

func ptr(f float64) *float64 { return &f }
