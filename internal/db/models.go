package db

import (
	"time"

	"gorm.io/datatypes"
)

// Campaign is the top-level grouping for ad spend. Campaign IDs are
// platform-prefixed strings (e.g. "META_C01") assigned by whoever
// creates the campaign, so the primary key is text rather than an
// autoincrement.
type Campaign struct {
	CampaignID   string `gorm:"primaryKey;size:64"`
	CampaignName string `gorm:"size:255;not null"`
	Platform     string `gorm:"size:32;index;not null"`
	Objective    string `gorm:"size:64"`

	// FunnelStage is TOF/MOF/BOF (top/middle/bottom of funnel).
	FunnelStage string `gorm:"size:8"`
}

// AdSet groups ads under a campaign with shared targeting.
type AdSet struct {
	AdSetID    string `gorm:"primaryKey;size:64"`
	AdSetName  string `gorm:"size:255;not null"`
	CampaignID string `gorm:"size:64;index;not null"`

	// Targeting holds platform-specific targeting criteria as free-form
	// key/value pairs, since each ad platform shapes these differently.
	Targeting datatypes.JSONMap `gorm:"type:json"`
}

// Ad is a single creative. Ads taking part in an A/B test share a
// TestID; a nil TestID means the ad is not under test.
type Ad struct {
	AdID         string `gorm:"primaryKey;size:64"`
	AdName       string `gorm:"size:255;not null"`
	AdSetID      string `gorm:"size:64;index;not null"`
	CreativeType string `gorm:"size:32"`
	CreativeURL  string `gorm:"size:512"`
	HeadlineText string `gorm:"size:255"`
	BodyText     string `gorm:"size:1024"`
	TestID       *string `gorm:"size:64;index"`
}

// DailyPerformance is the append-only fact table: one row per ad per
// day. The (report_date, ad_id) unique index is what prevents double
// counting — duplicate ingests must be rejected, never summed.
type DailyPerformance struct {
	ID uint `gorm:"primaryKey"`

	ReportDate time.Time `gorm:"uniqueIndex:idx_daily_perf_unique,priority:1;not null"`
	AdID       string    `gorm:"uniqueIndex:idx_daily_perf_unique,priority:2;size:64;not null"`
	CampaignID string    `gorm:"size:64;index;not null"`

	Impressions int64   `gorm:"not null"`
	Reach       int64   `gorm:"not null"`
	Frequency   float64 `gorm:"not null"`
	Clicks      int64   `gorm:"not null"`
	Spend       float64 `gorm:"not null"`
	VideoViews  int64   `gorm:"not null"`
	AddToCarts  int64   `gorm:"not null"`
	Conversions int64   `gorm:"not null"`
	Revenue     float64 `gorm:"not null"`
}

// SegmentPerformance carries the same fact shape as DailyPerformance
// with an extra (segment_type, segment_value) dimension, e.g.
// ("age", "25-34") or ("gender", "female").
type SegmentPerformance struct {
	ID uint `gorm:"primaryKey"`

	ReportDate   time.Time `gorm:"uniqueIndex:idx_segment_perf_unique,priority:1;not null"`
	AdID         string    `gorm:"uniqueIndex:idx_segment_perf_unique,priority:2;size:64;not null"`
	SegmentType  string    `gorm:"uniqueIndex:idx_segment_perf_unique,priority:3;size:32;not null"`
	SegmentValue string    `gorm:"uniqueIndex:idx_segment_perf_unique,priority:4;size:64;not null"`
	CampaignID   string    `gorm:"size:64;index;not null"`

	Impressions int64
	Clicks      int64
	Spend       float64
	Conversions int64
	Revenue     float64
}

// CountryPerformance aggregates facts per (day, platform, country).
type CountryPerformance struct {
	ID uint `gorm:"primaryKey"`

	ReportDate time.Time `gorm:"uniqueIndex:idx_country_perf_unique,priority:1;not null"`
	Platform   string    `gorm:"uniqueIndex:idx_country_perf_unique,priority:2;size:32;not null"`
	Country    string    `gorm:"uniqueIndex:idx_country_perf_unique,priority:3;size:2;not null"`

	Impressions int64
	Clicks      int64
	Spend       float64
	Conversions int64
	Revenue     float64
}

// CampaignBudget is the flight budget for one campaign. A campaign has
// at most one budget row; pacing is computed against it.
type CampaignBudget struct {
	ID uint `gorm:"primaryKey"`

	CampaignID  string    `gorm:"uniqueIndex;size:64;not null"`
	StartDate   time.Time `gorm:"not null"`
	EndDate     time.Time `gorm:"not null"`
	TotalBudget float64   `gorm:"not null"`
}

// ABTest names a test and its hypothesis; the ads under test reference
// it via Ad.TestID.
type ABTest struct {
	TestID     string    `gorm:"primaryKey;size:64"`
	TestName   string    `gorm:"size:255;not null"`
	Hypothesis string    `gorm:"size:1024"`
	StartDate  time.Time `gorm:"not null"`
	EndDate    time.Time `gorm:"not null"`
}

// Customer and Sale back the RFM segmentation and LTV views.
type Customer struct {
	CustomerID string `gorm:"primaryKey;size:64"`

	CreatedAt time.Time
}

type Sale struct {
	SaleID uint `gorm:"primaryKey"`

	CustomerID string    `gorm:"size:64;index;not null"`
	SaleDate   time.Time `gorm:"index;not null"`
	SaleAmount float64   `gorm:"not null"`
}

// Alert statuses. Rows are produced by the anomaly worker and move
// Active -> Dismissed | Resolved through the admin endpoints (or the
// cleanup worker for stale rows).
const (
	AlertActive    = "Active"
	AlertDismissed = "Dismissed"
	AlertResolved  = "Resolved"
)

type Alert struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time

	AlertDate     time.Time `gorm:"index;not null"`
	Metric        string    `gorm:"size:64;not null"`
	AdID          string    `gorm:"size:64;index;not null"`
	Justification string    `gorm:"size:1024"`
	Status        string    `gorm:"size:16;index;not null;default:Active"`

	// Details holds the raw numbers behind the justification so the UI
	// can chart them without re-querying.
	Details datatypes.JSONMap `gorm:"type:json"`
}

// Recommendation rows are generated from creative analysis (pause ad,
// creative fatigue) and share the alert lifecycle.
type Recommendation struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time

	GenerationDate time.Time `gorm:"index;not null"`
	AdID           string    `gorm:"size:64;index;not null"`
	RecType        string    `gorm:"size:64;not null"`
	Justification  string    `gorm:"size:1024"`
	Status         string    `gorm:"size:16;index;not null;default:Active"`

	Details datatypes.JSONMap `gorm:"type:json"`
}
