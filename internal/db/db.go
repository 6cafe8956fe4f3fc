package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"adpulse/internal/auth"
	"adpulse/internal/config"
)

// Connect opens the SQLite database at cfg.DatabasePath and migrates
// the schema. Foreign keys are enforced so fact rows can never
// reference a missing ad or campaign.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	path := strings.TrimSpace(cfg.DatabasePath)
	if path == "" {
		return nil, errors.New("APP_DATABASE_PATH is required")
	}

	gdb, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}

	return gdb, nil
}

// Migrate creates or updates all tables. Split out of Connect so tests
// can run it against an in-memory database.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&Campaign{}, &AdSet{}, &Ad{},
		&DailyPerformance{}, &SegmentPerformance{}, &CountryPerformance{},
		&CampaignBudget{}, &ABTest{},
		&User{}, &Role{}, &RolePermission{},
		&Customer{}, &Sale{},
		&Alert{}, &Recommendation{},
	)
}

// EnsureBootstrapAdmin makes sure the Admin role and at least one admin
// user corresponding to the bootstrap credentials exist. An existing
// user with that username is left as-is.
func EnsureBootstrapAdmin(gdb *gorm.DB, cfg *config.Config, verifier auth.CredentialVerifier) error {
	adminRole, err := ensureRole(gdb, auth.SuperAdminRole, auth.AllPages())
	if err != nil {
		return err
	}
	if _, err := ensureRole(gdb, "Viewer", []string{auth.PageDashboard, auth.PageBenchmarking, auth.PageCreative}); err != nil {
		return err
	}

	var count int64
	if err := gdb.Model(&User{}).Where("username = ?", cfg.AdminUser).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := verifier.Hash(cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := &User{
		Username:     cfg.AdminUser,
		FullName:     "Admin User",
		PasswordHash: hash,
		RoleID:       &adminRole.ID,
	}

	return gdb.Create(admin).Error
}

func ensureRole(gdb *gorm.DB, name string, pages []string) (*Role, error) {
	var role Role
	err := gdb.Where("role_name = ?", name).First(&role).Error
	if err == gorm.ErrRecordNotFound {
		role = Role{RoleName: name}
		if err := gdb.Create(&role).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	for _, page := range pages {
		perm := RolePermission{RoleID: role.ID, PageName: page}
		// The unique (role_id, page_name) index makes re-grants no-ops.
		if err := gdb.Where("role_id = ? AND page_name = ?", role.ID, page).
			FirstOrCreate(&perm).Error; err != nil {
			return nil, err
		}
	}
	return &role, nil
}

// UserGrants resolves a user's capability set. A nil result (with nil
// error) means deny everywhere: either the user has no role assigned,
// or the role row was deleted after assignment.
func UserGrants(gdb *gorm.DB, user *User) (*auth.Grants, error) {
	if user == nil || user.RoleID == nil {
		return nil, nil
	}
	name, err := RoleName(gdb, *user.RoleID)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}
	pages, err := RolePages(gdb, *user.RoleID)
	if err != nil {
		return nil, err
	}
	return &auth.Grants{RoleName: name, Pages: pages}, nil
}

// CreateBudget validates the flight window before inserting.
func CreateBudget(gdb *gorm.DB, b *CampaignBudget) error {
	if b.EndDate.Before(b.StartDate) {
		return fmt.Errorf("budget end date %s is before start date %s",
			b.EndDate.Format("2006-01-02"), b.StartDate.Format("2006-01-02"))
	}
	if b.TotalBudget <= 0 {
		return errors.New("total budget must be positive")
	}
	return gdb.Create(b).Error
}

// Day truncates t to midnight UTC. Report dates are stored day-granular.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
