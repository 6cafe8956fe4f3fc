package analytics

import (
	"fmt"
	"sort"
	"time"
)

// CreativeStats is the per-ad aggregate used for creative analysis.
type CreativeStats struct {
	AdID         string `json:"ad_id"`
	AdName       string `json:"ad_name"`
	Platform     string `json:"platform"`
	CreativeType string `json:"creative_type"`
	Headline     string `json:"headline"`

	Metrics      Metrics `json:"metrics"`
	AvgFrequency float64 `json:"avg_frequency"`

	// FatigueWarning marks ads shown too often for too little
	// engagement: average frequency above 3 combined with a CTR in the
	// bottom 40% of the compared set.
	FatigueWarning bool `json:"fatigue_warning"`
}

// FlagFatigue sets FatigueWarning across the set. Ads with no CTR
// (zero impressions) are never flagged.
func FlagFatigue(ads []CreativeStats) {
	ctrs := make([]float64, 0, len(ads))
	for _, a := range ads {
		if a.Metrics.CTR != nil {
			ctrs = append(ctrs, *a.Metrics.CTR)
		}
	}
	if len(ctrs) == 0 {
		return
	}
	sort.Float64s(ctrs)
	cutoff := ctrs[len(ctrs)*40/100]

	for i := range ads {
		a := &ads[i]
		a.FatigueWarning = a.AvgFrequency > 3 && a.Metrics.CTR != nil && *a.Metrics.CTR < cutoff
	}
}

// Recommendation types.
const (
	RecPauseAd         = "Pause Ad"
	RecCreativeFatigue = "Creative Fatigue"
)

// Advice is an actionable recommendation derived from creative stats.
type Advice struct {
	AdID          string    `json:"ad_id"`
	RecType       string    `json:"rec_type"`
	Justification string    `json:"justification"`
	Date          time.Time `json:"date"`
}

// Recommend derives pause and fatigue advice from ad stats. An ad whose
// CPA runs more than 50% over target should be paused; fatigued ads
// need fresh creative. Callers persist the result as recommendation
// rows.
func Recommend(ads []CreativeStats, cpaTarget float64, today time.Time) []Advice {
	var out []Advice
	for _, a := range ads {
		if a.Metrics.CPA != nil && *a.Metrics.CPA > cpaTarget*1.5 {
			out = append(out, Advice{
				AdID:    a.AdID,
				RecType: RecPauseAd,
				Justification: fmt.Sprintf("High CPA: $%.2f is >150%% of $%.2f target.",
					*a.Metrics.CPA, cpaTarget),
				Date: today,
			})
		}
		if a.FatigueWarning {
			ctr := 0.0
			if a.Metrics.CTR != nil {
				ctr = *a.Metrics.CTR
			}
			out = append(out, Advice{
				AdID:    a.AdID,
				RecType: RecCreativeFatigue,
				Justification: fmt.Sprintf("High frequency (%.1f) and low CTR (%.2f%%).",
					a.AvgFrequency, ctr),
				Date: today,
			})
		}
	}
	return out
}
