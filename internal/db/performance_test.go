package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"adpulse/internal/analytics"
)

func addFact(t *testing.T, gdb *gorm.DB, date time.Time, adID, campaignID string, impressions, clicks, conversions int64, spend, revenue float64) {
	t.Helper()
	require.NoError(t, gdb.Create(&DailyPerformance{
		ReportDate:  Day(date),
		AdID:        adID,
		CampaignID:  campaignID,
		Impressions: impressions,
		Clicks:      clicks,
		Conversions: conversions,
		Spend:       spend,
		Revenue:     revenue,
	}).Error)
}

func TestCampaignSummary(t *testing.T) {
	gdb := testDB(t)
	seedCampaign(t, gdb, "META_C01", "Meta")
	seedCampaign(t, gdb, "GOOG_C02", "Google")

	today := Day(time.Now().UTC())
	addFact(t, gdb, today.AddDate(0, 0, -2), "META_C01_AD", "META_C01", 1000, 20, 2, 50, 200)
	addFact(t, gdb, today.AddDate(0, 0, -1), "META_C01_AD", "META_C01", 1000, 30, 3, 50, 100)
	addFact(t, gdb, today.AddDate(0, 0, -1), "GOOG_C02_AD", "GOOG_C02", 500, 25, 1, 40, 60)

	t.Run("aggregates per campaign", func(t *testing.T) {
		rows, err := CampaignSummary(gdb, Filter{})
		require.NoError(t, err)
		require.Len(t, rows, 2)

		byID := map[string]CampaignFacts{}
		for _, r := range rows {
			byID[r.CampaignID] = r
		}
		meta := byID["META_C01"]
		assert.Equal(t, int64(2000), meta.Fact.Impressions)
		assert.Equal(t, int64(50), meta.Fact.Clicks)
		assert.InDelta(t, 100, meta.Fact.Spend, 1e-9)
		assert.InDelta(t, 300, meta.Fact.Revenue, 1e-9)
	})

	t.Run("platform filter", func(t *testing.T) {
		rows, err := CampaignSummary(gdb, Filter{Platforms: []string{"Google"}})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "GOOG_C02", rows[0].CampaignID)
	})

	t.Run("date filter excludes older rows", func(t *testing.T) {
		rows, err := CampaignSummary(gdb, Filter{From: today.AddDate(0, 0, -1)})
		require.NoError(t, err)

		byID := map[string]CampaignFacts{}
		for _, r := range rows {
			byID[r.CampaignID] = r
		}
		assert.Equal(t, int64(1000), byID["META_C01"].Fact.Impressions)
	})

	t.Run("campaign filter", func(t *testing.T) {
		rows, err := CampaignSummary(gdb, Filter{CampaignIDs: []string{"META_C01"}})
		require.NoError(t, err)
		require.Len(t, rows, 1)
	})
}

func TestTestVariants(t *testing.T) {
	gdb := testDB(t)
	seedCampaign(t, gdb, "META_C01", "Meta")

	testID := "TEST01"
	for _, suffix := range []string{"A", "B"} {
		require.NoError(t, gdb.Create(&Ad{
			AdID:    "META_AD05_" + suffix,
			AdName:  "variant " + suffix,
			AdSetID: "META_C01_AS",
			TestID:  &testID,
		}).Error)
	}

	today := Day(time.Now().UTC())
	addFact(t, gdb, today.AddDate(0, 0, -1), "META_AD05_B", "META_C01", 1000, 30, 3, 20, 50)
	addFact(t, gdb, today.AddDate(0, 0, -1), "META_AD05_A", "META_C01", 1000, 20, 2, 20, 40)
	addFact(t, gdb, today, "META_AD05_A", "META_C01", 500, 10, 1, 10, 20)

	variants, err := TestVariants(gdb, testID)
	require.NoError(t, err)
	require.Len(t, variants, 2)

	// Ordered by ad ID so variant A is stable.
	assert.Equal(t, "META_AD05_A", variants[0].AdID)
	assert.Equal(t, int64(1500), variants[0].Impressions)
	assert.Equal(t, int64(30), variants[0].Clicks)
	assert.Equal(t, "META_AD05_B", variants[1].AdID)
}

func TestCampaignSpend(t *testing.T) {
	gdb := testDB(t)
	seedCampaign(t, gdb, "META_C01", "Meta")

	total, err := CampaignSpend(gdb, "META_C01")
	require.NoError(t, err)
	assert.Equal(t, 0.0, total, "no rows means zero spend, not an error")

	today := Day(time.Now().UTC())
	addFact(t, gdb, today.AddDate(0, 0, -1), "META_C01_AD", "META_C01", 100, 5, 1, 12.5, 30)
	addFact(t, gdb, today, "META_C01_AD", "META_C01", 100, 5, 1, 7.5, 30)

	total, err = CampaignSpend(gdb, "META_C01")
	require.NoError(t, err)
	assert.InDelta(t, 20, total, 1e-9)
}

func TestCreativeSummaryFlagsFatigue(t *testing.T) {
	gdb := testDB(t)
	seedCampaign(t, gdb, "META_C01", "Meta")

	ads := []Ad{
		{AdID: "tired", AdName: "tired ad", AdSetID: "META_C01_AS", CreativeType: "Image"},
		{AdID: "fresh", AdName: "fresh ad", AdSetID: "META_C01_AS", CreativeType: "Video"},
		{AdID: "strong", AdName: "strong ad", AdSetID: "META_C01_AS", CreativeType: "Video"},
	}
	require.NoError(t, gdb.Create(&ads).Error)

	today := Day(time.Now().UTC())
	// High frequency and the worst CTR of the set.
	require.NoError(t, gdb.Create(&DailyPerformance{
		ReportDate: today, AdID: "tired", CampaignID: "META_C01",
		Impressions: 10000, Clicks: 30, Frequency: 5.0, Spend: 100,
	}).Error)
	require.NoError(t, gdb.Create(&DailyPerformance{
		ReportDate: today, AdID: "fresh", CampaignID: "META_C01",
		Impressions: 10000, Clicks: 250, Frequency: 1.2, Spend: 100,
	}).Error)
	require.NoError(t, gdb.Create(&DailyPerformance{
		ReportDate: today, AdID: "strong", CampaignID: "META_C01",
		Impressions: 10000, Clicks: 400, Frequency: 1.0, Spend: 100,
	}).Error)

	rows, err := CreativeSummary(gdb, Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byID := map[string]analytics.CreativeStats{}
	for _, r := range rows {
		byID[r.AdID] = r
	}
	assert.True(t, byID["tired"].FatigueWarning)
	assert.False(t, byID["fresh"].FatigueWarning)
	assert.False(t, byID["strong"].FatigueWarning)
}

func TestAnomalyDetectionWritesAlerts(t *testing.T) {
	gdb := testDB(t)
	seedCampaign(t, gdb, "META_C01", "Meta")

	today := Day(time.Now().UTC())
	for i := 1; i <= 3; i++ {
		addFact(t, gdb, today.AddDate(0, 0, -i), "META_C01_AD", "META_C01", 100, 5, 2, 20, 50)
	}
	// CPA jumps from 10 to 50.
	addFact(t, gdb, today, "META_C01_AD", "META_C01", 100, 5, 2, 100, 50)

	created, err := runAnomalyDetectionOnce(gdb, today)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	var alert Alert
	require.NoError(t, gdb.First(&alert).Error)
	assert.Equal(t, "META_C01_AD", alert.AdID)
	assert.Equal(t, AlertActive, alert.Status)
	assert.Equal(t, "High CPA", alert.Metric)

	t.Run("rerun is idempotent", func(t *testing.T) {
		created, err := runAnomalyDetectionOnce(gdb, today)
		require.NoError(t, err)
		assert.Equal(t, 0, created)

		var count int64
		require.NoError(t, gdb.Model(&Alert{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}
