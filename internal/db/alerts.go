package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// SetAlertStatus transitions an alert out of Active. Only
// Active -> Dismissed and Active -> Resolved are legal; generated rows
// never return to Active.
func SetAlertStatus(gdb *gorm.DB, id uint, status string) error {
	if status != AlertDismissed && status != AlertResolved {
		return fmt.Errorf("invalid alert status %q", status)
	}
	var alert Alert
	if err := gdb.First(&alert, id).Error; err != nil {
		return err
	}
	if alert.Status != AlertActive {
		return fmt.Errorf("alert %d is %s, only Active alerts can transition", id, alert.Status)
	}
	return gdb.Model(&alert).Update("status", status).Error
}

// SetRecommendationStatus mirrors SetAlertStatus for recommendations.
func SetRecommendationStatus(gdb *gorm.DB, id uint, status string) error {
	if status != AlertDismissed && status != AlertResolved {
		return fmt.Errorf("invalid recommendation status %q", status)
	}
	var rec Recommendation
	if err := gdb.First(&rec, id).Error; err != nil {
		return err
	}
	if rec.Status != AlertActive {
		return fmt.Errorf("recommendation %d is %s, only Active rows can transition", id, rec.Status)
	}
	return gdb.Model(&rec).Update("status", status).Error
}

// runAlertCleanupOnce auto-resolves Active alerts and recommendations
// older than the retention window; nobody is going to act on a
// month-old spike.
func runAlertCleanupOnce(gdb *gorm.DB, retentionDays int) error {
	cutoff := Day(time.Now().UTC()).AddDate(0, 0, -retentionDays)
	if err := gdb.Model(&Alert{}).
		Where("status = ? AND alert_date < ?", AlertActive, cutoff).
		Update("status", AlertResolved).Error; err != nil {
		return err
	}
	return gdb.Model(&Recommendation{}).
		Where("status = ? AND generation_date < ?", AlertActive, cutoff).
		Update("status", AlertResolved).Error
}

// StartAlertCleanupWorker launches a background goroutine that runs the
// cleanup once at startup and then once per day.
func StartAlertCleanupWorker(gdb *gorm.DB, retentionDays int) {
	go func() {
		if err := runAlertCleanupOnce(gdb, retentionDays); err != nil {
			log.Printf("alert cleanup error (startup): %v", err)
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := runAlertCleanupOnce(gdb, retentionDays); err != nil {
				log.Printf("alert cleanup error: %v", err)
			}
		}
	}()
}
