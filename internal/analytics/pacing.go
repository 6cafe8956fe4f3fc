package analytics

import "time"

// Budget pacing statuses.
const (
	PaceOver       = "over-pacing"
	PaceUnder      = "under-pacing"
	PaceOnTrack    = "on-pace"
	PaceNotStarted = "not-started"
)

// Flight is a campaign budget window. Dates are day-granular and the
// flight is inclusive of both endpoints.
type Flight struct {
	Start       time.Time
	End         time.Time
	TotalBudget float64
}

// PacingResult compares cumulative spend against the time-prorated
// budget curve.
type PacingResult struct {
	CampaignID    string  `json:"campaign_id"`
	TotalBudget   float64 `json:"total_budget"`
	ExpectedSpend float64 `json:"expected_spend"`
	ActualSpend   float64 `json:"actual_spend"`

	// PacingRatio is actual / expected; nil while the flight has not
	// started (expected spend is zero, the ratio is undefined).
	PacingRatio *float64 `json:"pacing_ratio"`
	Status      string   `json:"status"`

	ElapsedDays int `json:"elapsed_days"`
	TotalDays   int `json:"total_days"`

	// ForecastSpend projects end-of-flight spend from the current run
	// rate; nil while the flight has not started.
	ForecastSpend      *float64 `json:"forecast_spend"`
	ForecastOverBudget bool     `json:"forecast_over_budget"`
}

// Pace evaluates spend against the prorated budget at the given day.
// Day counts are inclusive of the start date and clamped to
// [0, totalDays], so on day one of a 10-day flight 10% of the budget
// is expected. tolerance is the on-pace band around a ratio of 1.0.
func Pace(f Flight, actualSpend float64, today time.Time, tolerance float64) PacingResult {
	start := dayOf(f.Start)
	end := dayOf(f.End)
	now := dayOf(today)

	totalDays := int(end.Sub(start).Hours()/24) + 1
	if totalDays < 1 {
		totalDays = 1
	}
	elapsed := int(now.Sub(start).Hours()/24) + 1
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > totalDays {
		elapsed = totalDays
	}

	r := PacingResult{
		TotalBudget: f.TotalBudget,
		ActualSpend: actualSpend,
		ElapsedDays: elapsed,
		TotalDays:   totalDays,
	}

	frac := float64(elapsed) / float64(totalDays)
	r.ExpectedSpend = f.TotalBudget * frac

	if elapsed == 0 || r.ExpectedSpend <= 0 {
		r.Status = PaceNotStarted
		return r
	}

	ratio := actualSpend / r.ExpectedSpend
	r.PacingRatio = ptr(ratio)

	forecast := actualSpend / frac
	r.ForecastSpend = ptr(forecast)
	r.ForecastOverBudget = forecast > f.TotalBudget

	switch {
	case ratio > 1+tolerance:
		r.Status = PaceOver
	case ratio < 1-tolerance:
		r.Status = PaceUnder
	default:
		r.Status = PaceOnTrack
	}
	return r
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
