package db

import (
	"log"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"adpulse/internal/analytics"
)

// runAnomalyDetectionOnce scans the trailing eight days of facts and
// writes an Active alert for every CPA spike found for the given day.
// A spike already alerted on is skipped so reruns are idempotent. It
// returns the number of alerts actually created.
func runAnomalyDetectionOnce(gdb *gorm.DB, day time.Time) (int, error) {
	day = Day(day)
	from := day.AddDate(0, 0, -7)

	var facts []DailyPerformance
	if err := gdb.Where("report_date >= ? AND report_date <= ?", from, day).
		Select("report_date", "ad_id", "spend", "conversions").
		Find(&facts).Error; err != nil {
		return 0, err
	}

	rows := make([]analytics.SpendRow, 0, len(facts))
	for _, f := range facts {
		rows = append(rows, analytics.SpendRow{
			Date:        f.ReportDate,
			AdID:        f.AdID,
			Spend:       f.Spend,
			Conversions: f.Conversions,
		})
	}

	anomalies := analytics.DetectCPASpikes(rows, day)
	created := 0
	for _, a := range anomalies {
		var count int64
		if err := gdb.Model(&Alert{}).
			Where("alert_date = ? AND ad_id = ? AND metric = ?", a.Date, a.AdID, a.Metric).
			Count(&count).Error; err != nil {
			return created, err
		}
		if count > 0 {
			continue
		}
		alert := Alert{
			AlertDate:     a.Date,
			Metric:        a.Metric,
			AdID:          a.AdID,
			Justification: a.Justification,
			Status:        AlertActive,
			Details: datatypes.JSONMap{
				"cpa":          a.CPA,
				"baseline_cpa": a.BaselineCPA,
			},
		}
		if err := gdb.Create(&alert).Error; err != nil {
			return created, err
		}
		created++
	}
	if created > 0 {
		log.Printf("anomaly detection: %d CPA spike(s) for %s", created, day.Format("2006-01-02"))
	}
	return created, nil
}

// StartAnomalyWorker checks yesterday's facts once at startup and then
// daily. The worker is the only writer of alert rows; onAlerts (if
// non-nil) is called with the number of alerts created per run.
func StartAnomalyWorker(gdb *gorm.DB, onAlerts func(n int)) {
	run := func(day time.Time) {
		created, err := runAnomalyDetectionOnce(gdb, day)
		if err != nil {
			log.Printf("anomaly detection error: %v", err)
			return
		}
		if onAlerts != nil {
			onAlerts(created)
		}
	}

	go func() {
		run(time.Now().UTC().AddDate(0, 0, -1))

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for t := range ticker.C {
			run(t.UTC().AddDate(0, 0, -1))
		}
	}()
}
