package analytics

import (
	"math"
)

// Variant is the aggregated counting data of one ad in an A/B test.
type Variant struct {
	AdID        string `json:"ad_id"`
	AdName      string `json:"ad_name"`
	Impressions int64  `json:"impressions"`
	Clicks      int64  `json:"clicks"`
	Conversions int64  `json:"conversions"`
}

// Winner labels for a proportion test.
const (
	WinnerA            = "A"
	WinnerB            = "B"
	WinnerInconclusive = "inconclusive"
)

// ProportionTest is the outcome of a two-proportion pooled z-test.
// When either sample size is zero the test carries no z or p and
// Insufficient is set.
type ProportionTest struct {
	RateA        *float64 `json:"variant_a_rate"`
	RateB        *float64 `json:"variant_b_rate"`
	ZScore       float64  `json:"z_score"`
	PValue       float64  `json:"p_value"`
	LiftPct      *float64 `json:"lift_pct"`
	Winner       string   `json:"winner"`
	Insufficient bool     `json:"insufficient_data"`
}

// ABResult compares two variants on CTR (clicks over impressions) and
// conversion rate (conversions over clicks) independently.
type ABResult struct {
	VariantA   Variant        `json:"variant_a"`
	VariantB   Variant        `json:"variant_b"`
	CTR        ProportionTest `json:"ctr"`
	Conversion ProportionTest `json:"conversion"`
	Confidence float64        `json:"confidence_level"`
}

// CompareProportions runs a two-proportion z-test of x1/n1 against
// x2/n2 at the given two-sided confidence level:
//
//	z = (p1 - p2) / sqrt(p_pool (1 - p_pool) (1/n1 + 1/n2))
//
// with p_pool = (x1 + x2) / (n1 + n2). A winner is declared when |z|
// exceeds the critical value for the confidence level.
func CompareProportions(x1, n1, x2, n2 int64, confidence float64) ProportionTest {
	if n1 <= 0 || n2 <= 0 {
		return ProportionTest{Winner: WinnerInconclusive, Insufficient: true}
	}

	p1 := float64(x1) / float64(n1)
	p2 := float64(x2) / float64(n2)
	t := ProportionTest{RateA: ptr(p1), RateB: ptr(p2), Winner: WinnerInconclusive}
	if p1 > 0 {
		t.LiftPct = ptr((p2 - p1) / p1 * 100)
	}

	pool := float64(x1+x2) / float64(n1+n2)
	se := math.Sqrt(pool * (1 - pool) * (1/float64(n1) + 1/float64(n2)))
	if se == 0 {
		// All successes or all failures on both sides; nothing to test.
		t.PValue = 1
		return t
	}

	t.ZScore = (p1 - p2) / se
	t.PValue = 2 * (1 - stdNormalCDF(math.Abs(t.ZScore)))

	if math.Abs(t.ZScore) > CriticalZ(confidence) {
		if p1 > p2 {
			t.Winner = WinnerA
		} else {
			t.Winner = WinnerB
		}
	}
	return t
}

// CompareVariants runs the CTR and conversion-rate tests for two ads
// sharing a test ID.
func CompareVariants(a, b Variant, confidence float64) ABResult {
	return ABResult{
		VariantA:   a,
		VariantB:   b,
		CTR:        CompareProportions(a.Clicks, a.Impressions, b.Clicks, b.Impressions, confidence),
		Conversion: CompareProportions(a.Conversions, a.Clicks, b.Conversions, b.Clicks, confidence),
		Confidence: confidence,
	}
}

// SampleSize returns the per-variant sample size needed to detect a
// relative lift of mde over baseline at significance alpha with the
// given power. Returns 0 when the inputs make the test meaningless.
func SampleSize(baseline, mde, alpha, power float64) int64 {
	if baseline <= 0 || baseline >= 1 || mde <= 0 || alpha <= 0 || alpha >= 1 || power <= 0 || power >= 1 {
		return 0
	}
	p1 := baseline
	p2 := baseline * (1 + mde)
	if p2 >= 1 {
		return 0
	}
	zAlpha := stdNormalQuantile(1 - alpha/2)
	zBeta := stdNormalQuantile(power)
	num := zAlpha*math.Sqrt(2*p1*(1-p1)) + zBeta*math.Sqrt(p1*(1-p1)+p2*(1-p2))
	n := math.Pow(num/(p2-p1), 2)
	return int64(math.Ceil(n))
}

// CriticalZ is the two-sided critical value for a confidence level,
// e.g. 0.95 -> 1.96.
func CriticalZ(confidence float64) float64 {
	return stdNormalQuantile(1 - (1-confidence)/2)
}

// stdNormalCDF is Phi(x) for the standard normal distribution.
func stdNormalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// stdNormalQuantile inverts stdNormalCDF by bisection. The CDF is
// strictly increasing, so 200 halvings of [-40, 40] give far more
// precision than the test decisions need.
func stdNormalQuantile(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	if p >= 1 {
		return math.Inf(1)
	}
	lo, hi := -40.0, 40.0
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		if stdNormalCDF(mid) < p {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}
