package db

import (
	"time"

	"gorm.io/gorm"

	"adpulse/internal/analytics"
)

// Filter narrows which fact rows a query covers. Zero times mean an
// open-ended range; empty slices mean no filtering on that dimension.
type Filter struct {
	From        time.Time
	To          time.Time
	Platforms   []string
	CampaignIDs []string
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if !f.From.IsZero() {
		q = q.Where("daily_performances.report_date >= ?", Day(f.From))
	}
	if !f.To.IsZero() {
		q = q.Where("daily_performances.report_date <= ?", Day(f.To))
	}
	if len(f.Platforms) > 0 {
		q = q.Where("campaigns.platform IN ?", f.Platforms)
	}
	if len(f.CampaignIDs) > 0 {
		q = q.Where("daily_performances.campaign_id IN ?", f.CampaignIDs)
	}
	return q
}

// CampaignFacts is the grouped aggregate for one campaign over the
// filtered range, ready for the metrics engine.
type CampaignFacts struct {
	CampaignID   string
	CampaignName string
	Platform     string
	FunnelStage  string
	Fact         analytics.Fact
}

// CampaignSummary loads per-campaign fact aggregates. The heavy lifting
// stays in SQL; metric derivation happens in the analytics package.
func CampaignSummary(gdb *gorm.DB, f Filter) ([]CampaignFacts, error) {
	type row struct {
		CampaignID   string
		CampaignName string
		Platform     string
		FunnelStage  string
		Impressions  int64
		Reach        int64
		Clicks       int64
		VideoViews   int64
		AddToCarts   int64
		Conversions  int64
		Spend        float64
		Revenue      float64
	}

	q := gdb.Model(&DailyPerformance{}).
		Joins("JOIN campaigns ON campaigns.campaign_id = daily_performances.campaign_id")
	q = f.apply(q)

	var rows []row
	if err := q.Select(`daily_performances.campaign_id,
			campaigns.campaign_name, campaigns.platform, campaigns.funnel_stage,
			SUM(impressions) AS impressions, SUM(reach) AS reach,
			SUM(clicks) AS clicks, SUM(video_views) AS video_views,
			SUM(add_to_carts) AS add_to_carts, SUM(conversions) AS conversions,
			SUM(spend) AS spend, SUM(revenue) AS revenue`).
		Group("daily_performances.campaign_id, campaigns.campaign_name, campaigns.platform, campaigns.funnel_stage").
		Order("campaigns.campaign_name").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]CampaignFacts, 0, len(rows))
	for _, r := range rows {
		out = append(out, CampaignFacts{
			CampaignID:   r.CampaignID,
			CampaignName: r.CampaignName,
			Platform:     r.Platform,
			FunnelStage:  r.FunnelStage,
			Fact: analytics.Fact{
				Impressions: r.Impressions,
				Reach:       r.Reach,
				Clicks:      r.Clicks,
				VideoViews:  r.VideoViews,
				AddToCarts:  r.AddToCarts,
				Conversions: r.Conversions,
				Spend:       r.Spend,
				Revenue:     r.Revenue,
			},
		})
	}
	return out, nil
}

// CreativeSummary loads per-ad aggregates for creative analysis.
func CreativeSummary(gdb *gorm.DB, f Filter) ([]analytics.CreativeStats, error) {
	type row struct {
		AdID         string
		AdName       string
		Platform     string
		CreativeType string
		HeadlineText string
		Impressions  int64
		Clicks       int64
		Conversions  int64
		Spend        float64
		Revenue      float64
		AvgFrequency float64
	}

	q := gdb.Model(&DailyPerformance{}).
		Joins("JOIN ads ON ads.ad_id = daily_performances.ad_id").
		Joins("JOIN campaigns ON campaigns.campaign_id = daily_performances.campaign_id")
	q = f.apply(q)

	var rows []row
	if err := q.Select(`daily_performances.ad_id, ads.ad_name, campaigns.platform,
			ads.creative_type, ads.headline_text,
			SUM(impressions) AS impressions, SUM(clicks) AS clicks,
			SUM(conversions) AS conversions, SUM(spend) AS spend,
			SUM(revenue) AS revenue, AVG(frequency) AS avg_frequency`).
		Group("daily_performances.ad_id, ads.ad_name, campaigns.platform, ads.creative_type, ads.headline_text").
		Having("SUM(impressions) > 0").
		Order("ads.ad_name").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]analytics.CreativeStats, 0, len(rows))
	for _, r := range rows {
		out = append(out, analytics.CreativeStats{
			AdID:         r.AdID,
			AdName:       r.AdName,
			Platform:     r.Platform,
			CreativeType: r.CreativeType,
			Headline:     r.HeadlineText,
			AvgFrequency: r.AvgFrequency,
			Metrics: analytics.Compute([]analytics.Fact{{
				Impressions: r.Impressions,
				Clicks:      r.Clicks,
				Conversions: r.Conversions,
				Spend:       r.Spend,
				Revenue:     r.Revenue,
			}}),
		})
	}
	analytics.FlagFatigue(out)
	return out, nil
}

// SegmentFacts is a grouped aggregate per segment value.
type SegmentFacts struct {
	SegmentValue string
	Fact         analytics.Fact
}

// SegmentBreakdown aggregates performance_by_segment rows for one
// platform and segment type (e.g. age, gender) over a date range.
func SegmentBreakdown(gdb *gorm.DB, from, to time.Time, platform, segmentType string) ([]SegmentFacts, error) {
	type row struct {
		SegmentValue string
		Impressions  int64
		Clicks       int64
		Conversions  int64
		Spend        float64
		Revenue      float64
	}

	var rows []row
	if err := gdb.Model(&SegmentPerformance{}).
		Joins("JOIN campaigns ON campaigns.campaign_id = segment_performances.campaign_id").
		Where("segment_performances.report_date BETWEEN ? AND ?", Day(from), Day(to)).
		Where("campaigns.platform = ?", platform).
		Where("segment_performances.segment_type = ?", segmentType).
		Select(`segment_value, SUM(impressions) AS impressions, SUM(clicks) AS clicks,
			SUM(conversions) AS conversions, SUM(spend) AS spend, SUM(revenue) AS revenue`).
		Group("segment_value").
		Order("SUM(spend) DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]SegmentFacts, 0, len(rows))
	for _, r := range rows {
		out = append(out, SegmentFacts{
			SegmentValue: r.SegmentValue,
			Fact: analytics.Fact{
				Impressions: r.Impressions,
				Clicks:      r.Clicks,
				Conversions: r.Conversions,
				Spend:       r.Spend,
				Revenue:     r.Revenue,
			},
		})
	}
	return out, nil
}

// CountryFacts is a grouped aggregate per country.
type CountryFacts struct {
	Country string
	Fact    analytics.Fact
}

// CountryBenchmark aggregates performance_by_country rows, optionally
// narrowed to specific countries and platforms.
func CountryBenchmark(gdb *gorm.DB, from, to time.Time, countries, platforms []string) ([]CountryFacts, error) {
	type row struct {
		Country     string
		Impressions int64
		Clicks      int64
		Conversions int64
		Spend       float64
		Revenue     float64
	}

	q := gdb.Model(&CountryPerformance{}).
		Where("report_date BETWEEN ? AND ?", Day(from), Day(to))
	if len(countries) > 0 {
		q = q.Where("country IN ?", countries)
	}
	if len(platforms) > 0 {
		q = q.Where("platform IN ?", platforms)
	}

	var rows []row
	if err := q.Select(`country, SUM(impressions) AS impressions, SUM(clicks) AS clicks,
			SUM(conversions) AS conversions, SUM(spend) AS spend, SUM(revenue) AS revenue`).
		Group("country").
		Order("country").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]CountryFacts, 0, len(rows))
	for _, r := range rows {
		out = append(out, CountryFacts{
			Country: r.Country,
			Fact: analytics.Fact{
				Impressions: r.Impressions,
				Clicks:      r.Clicks,
				Conversions: r.Conversions,
				Spend:       r.Spend,
				Revenue:     r.Revenue,
			},
		})
	}
	return out, nil
}

// TestVariants loads the aggregated counts of all ads sharing a test
// ID, in ad ID order so variant A is stable across calls.
func TestVariants(gdb *gorm.DB, testID string) ([]analytics.Variant, error) {
	var rows []analytics.Variant
	if err := gdb.Model(&DailyPerformance{}).
		Joins("JOIN ads ON ads.ad_id = daily_performances.ad_id").
		Where("ads.test_id = ?", testID).
		Select(`daily_performances.ad_id, ads.ad_name,
			SUM(impressions) AS impressions, SUM(clicks) AS clicks,
			SUM(conversions) AS conversions`).
		Group("daily_performances.ad_id, ads.ad_name").
		Order("daily_performances.ad_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CampaignSpend returns cumulative spend for one campaign.
func CampaignSpend(gdb *gorm.DB, campaignID string) (float64, error) {
	var total float64
	err := gdb.Model(&DailyPerformance{}).
		Where("campaign_id = ?", campaignID).
		Select("COALESCE(SUM(spend), 0)").
		Scan(&total).Error
	return total, err
}

// SalesRows loads every sale for RFM scoring.
func SalesRows(gdb *gorm.DB) ([]analytics.SaleRow, error) {
	var sales []Sale
	if err := gdb.Order("sale_date").Find(&sales).Error; err != nil {
		return nil, err
	}
	out := make([]analytics.SaleRow, 0, len(sales))
	for _, s := range sales {
		out = append(out, analytics.SaleRow{CustomerID: s.CustomerID, Date: s.SaleDate, Amount: s.SaleAmount})
	}
	return out, nil
}

// CampaignNames returns the campaign list for filter dropdowns.
func CampaignNames(gdb *gorm.DB) ([]Campaign, error) {
	var campaigns []Campaign
	err := gdb.Order("campaign_name").Find(&campaigns).Error
	return campaigns, err
}
