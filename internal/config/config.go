package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	AdminUser     string
	AdminPassword string

	// DatabasePath is the path to the SQLite database file.
	DatabasePath string

	ListenAddr string

	// Performance targets campaigns and ads are classified against.
	// ROASTarget and CTRTarget are "higher is better"; CPATarget is
	// "lower is better". CTRTarget is expressed in percent.
	ROASTarget float64
	CPATarget  float64
	CTRTarget  float64

	// BudgetTolerance is the fraction around a pacing ratio of 1.0
	// still considered on-pace (e.g. 0.1 means over-pacing above 1.1).
	BudgetTolerance float64

	// ABConfidence is the two-sided confidence level for A/B winner
	// declaration, as a fraction (0.95 = 95%).
	ABConfidence float64

	// AlertRetentionDays controls how long Active alerts are kept
	// before the cleanup worker auto-resolves them.
	AlertRetentionDays int

	// SeedSampleData loads demo campaigns, ads and budgets on startup
	// when the campaigns table is empty.
	SeedSampleData bool
}

// Load reads configuration from environment variables, applies defaults
// and validates threshold values. Invalid thresholds are a startup
// error, not something to discover mid-computation.
func Load() (*Config, error) {
	cfg := &Config{
		AdminUser:          getenv("APP_ADMIN_USER", "admin"),
		AdminPassword:      getenv("APP_ADMIN_PASSWORD", "changeme"),
		DatabasePath:       getenv("APP_DATABASE_PATH", "adpulse.db"),
		ListenAddr:         getenv("APP_LISTEN_ADDR", ":8080"),
		ROASTarget:         2.5,
		CPATarget:          35.0,
		CTRTarget:          1.8,
		BudgetTolerance:    0.1,
		ABConfidence:       0.95,
		AlertRetentionDays: 30,
		SeedSampleData:     os.Getenv("APP_SEED_SAMPLE_DATA") == "true",
	}

	var err error
	if cfg.ROASTarget, err = getfloat("APP_ROAS_TARGET", cfg.ROASTarget); err != nil {
		return nil, err
	}
	if cfg.CPATarget, err = getfloat("APP_CPA_TARGET", cfg.CPATarget); err != nil {
		return nil, err
	}
	if cfg.CTRTarget, err = getfloat("APP_CTR_TARGET", cfg.CTRTarget); err != nil {
		return nil, err
	}
	if cfg.BudgetTolerance, err = getfloat("APP_BUDGET_TOLERANCE", cfg.BudgetTolerance); err != nil {
		return nil, err
	}
	if cfg.ABConfidence, err = getfloat("APP_AB_CONFIDENCE", cfg.ABConfidence); err != nil {
		return nil, err
	}

	if v := os.Getenv("APP_ALERT_RETENTION_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("APP_ALERT_RETENTION_DAYS must be a positive integer, got %q", v)
		}
		cfg.AlertRetentionDays = days
	}

	if cfg.ROASTarget <= 0 || cfg.CPATarget <= 0 || cfg.CTRTarget <= 0 {
		return nil, fmt.Errorf("performance targets must be positive (roas=%v cpa=%v ctr=%v)",
			cfg.ROASTarget, cfg.CPATarget, cfg.CTRTarget)
	}
	if cfg.BudgetTolerance < 0 || cfg.BudgetTolerance >= 1 {
		return nil, fmt.Errorf("APP_BUDGET_TOLERANCE must be in [0, 1), got %v", cfg.BudgetTolerance)
	}
	if cfg.ABConfidence <= 0.5 || cfg.ABConfidence >= 1 {
		return nil, fmt.Errorf("APP_AB_CONFIDENCE must be in (0.5, 1), got %v", cfg.ABConfidence)
	}
	if cfg.AdminUser == "" || cfg.AdminPassword == "" {
		return nil, fmt.Errorf("APP_ADMIN_USER and APP_ADMIN_PASSWORD must not be empty")
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getfloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, v)
	}
	return f, nil
}
