package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"adpulse/internal/auth"
	"adpulse/internal/config"
)

// testDB opens a throwaway database under t.TempDir. A file (rather
// than :memory:) keeps every pooled connection on the same database.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	gdb, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	return gdb
}

func seedCampaign(t *testing.T, gdb *gorm.DB, id, platform string) {
	t.Helper()
	require.NoError(t, gdb.Create(&Campaign{
		CampaignID:   id,
		CampaignName: id + " name",
		Platform:     platform,
	}).Error)
	require.NoError(t, gdb.Create(&AdSet{
		AdSetID:    id + "_AS",
		AdSetName:  "set",
		CampaignID: id,
	}).Error)
	require.NoError(t, gdb.Create(&Ad{
		AdID:    id + "_AD",
		AdName:  "ad",
		AdSetID: id + "_AS",
	}).Error)
}

func TestMigratedSchemaAcceptsEntities(t *testing.T) {
	gdb := testDB(t)

	// The entity tables must come out of AutoMigrate insertable as-is;
	// a mis-declared primary key or a constraint pointing at a child
	// table shows up here as a datatype mismatch on the first Create.
	seedCampaign(t, gdb, "META_C01", "Meta")

	var c Campaign
	require.NoError(t, gdb.First(&c, "campaign_id = ?", "META_C01").Error)
	assert.Equal(t, "Meta", c.Platform)

	var a Ad
	require.NoError(t, gdb.First(&a, "ad_id = ?", "META_C01_AD").Error)
	assert.Equal(t, "META_C01_AS", a.AdSetID)

	require.NoError(t, gdb.Create(&Customer{CustomerID: "CUST01"}).Error)
	require.NoError(t, gdb.Create(&Sale{
		CustomerID: "CUST01",
		SaleDate:   Day(time.Now().UTC()),
		SaleAmount: 49.99,
	}).Error)

	var cust Customer
	require.NoError(t, gdb.First(&cust, "customer_id = ?", "CUST01").Error)

	t.Run("entity tables carry no foreign keys", func(t *testing.T) {
		for _, table := range []string{"campaigns", "ads", "customers"} {
			var ddl string
			require.NoError(t, gdb.Raw(
				"SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", table,
			).Scan(&ddl).Error)
			assert.NotContains(t, ddl, "FOREIGN KEY", table)
		}
	})
}

func TestDuplicateFactRowRejected(t *testing.T) {
	gdb := testDB(t)
	seedCampaign(t, gdb, "META_C01", "Meta")

	row := DailyPerformance{
		ReportDate:  Day(time.Now().UTC()),
		AdID:        "META_C01_AD",
		CampaignID:  "META_C01",
		Impressions: 100,
		Spend:       10,
	}
	require.NoError(t, gdb.Create(&row).Error)

	dup := row
	dup.ID = 0
	dup.Spend = 99
	err := gdb.Create(&dup).Error
	require.Error(t, err, "second row for the same (report_date, ad_id) must be rejected")

	var count int64
	require.NoError(t, gdb.Model(&DailyPerformance{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var stored DailyPerformance
	require.NoError(t, gdb.First(&stored).Error)
	assert.Equal(t, 10.0, stored.Spend, "original row must be untouched, never summed")
}

func TestCreateBudgetValidation(t *testing.T) {
	gdb := testDB(t)
	seedCampaign(t, gdb, "META_C01", "Meta")

	start := Day(time.Now().UTC())

	t.Run("end before start", func(t *testing.T) {
		err := CreateBudget(gdb, &CampaignBudget{
			CampaignID:  "META_C01",
			StartDate:   start,
			EndDate:     start.AddDate(0, 0, -1),
			TotalBudget: 100,
		})
		require.Error(t, err)
	})

	t.Run("non-positive budget", func(t *testing.T) {
		err := CreateBudget(gdb, &CampaignBudget{
			CampaignID:  "META_C01",
			StartDate:   start,
			EndDate:     start.AddDate(0, 0, 10),
			TotalBudget: 0,
		})
		require.Error(t, err)
	})

	t.Run("valid budget, one per campaign", func(t *testing.T) {
		b := &CampaignBudget{
			CampaignID:  "META_C01",
			StartDate:   start,
			EndDate:     start.AddDate(0, 0, 10),
			TotalBudget: 1000,
		}
		require.NoError(t, CreateBudget(gdb, b))

		second := &CampaignBudget{
			CampaignID:  "META_C01",
			StartDate:   start,
			EndDate:     start.AddDate(0, 0, 20),
			TotalBudget: 2000,
		}
		require.Error(t, CreateBudget(gdb, second))
	})
}

func TestEnsureBootstrapAdmin(t *testing.T) {
	gdb := testDB(t)
	cfg := &config.Config{AdminUser: "admin", AdminPassword: "secret"}
	verifier := auth.BcryptVerifier{Cost: 4}

	require.NoError(t, EnsureBootstrapAdmin(gdb, cfg, verifier))

	var admin User
	require.NoError(t, gdb.Where("username = ?", "admin").First(&admin).Error)
	require.NotNil(t, admin.RoleID)
	assert.True(t, verifier.Verify(admin.PasswordHash, "secret"))

	grants, err := UserGrants(gdb, &admin)
	require.NoError(t, err)
	require.NotNil(t, grants)
	assert.Equal(t, auth.SuperAdminRole, grants.RoleName)
	for _, p := range auth.AllPages() {
		assert.True(t, grants.Allows(p), p)
	}

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, EnsureBootstrapAdmin(gdb, cfg, verifier))
		var users int64
		require.NoError(t, gdb.Model(&User{}).Where("username = ?", "admin").Count(&users).Error)
		assert.Equal(t, int64(1), users)
	})

	t.Run("viewer role carries a limited page set", func(t *testing.T) {
		var viewer Role
		require.NoError(t, gdb.Where("role_name = ?", "Viewer").First(&viewer).Error)
		pages, err := RolePages(gdb, viewer.ID)
		require.NoError(t, err)
		assert.True(t, pages[auth.PageDashboard])
		assert.False(t, pages[auth.PageAdmin])
	})
}

func TestUserGrants(t *testing.T) {
	gdb := testDB(t)

	t.Run("no role means deny everywhere", func(t *testing.T) {
		u := &User{Username: "norole", PasswordHash: "x"}
		require.NoError(t, gdb.Create(u).Error)

		grants, err := UserGrants(gdb, u)
		require.NoError(t, err)
		assert.Nil(t, grants)
		assert.False(t, grants.Allows(auth.PageDashboard))
	})

	t.Run("deleted role means deny everywhere", func(t *testing.T) {
		role := Role{RoleName: "Ephemeral"}
		require.NoError(t, gdb.Create(&role).Error)
		u := &User{Username: "orphan", PasswordHash: "x", RoleID: &role.ID}
		require.NoError(t, gdb.Create(u).Error)
		require.NoError(t, gdb.Delete(&role).Error)

		grants, err := UserGrants(gdb, u)
		require.NoError(t, err)
		assert.Nil(t, grants)
	})

	t.Run("role grants resolve to its pages", func(t *testing.T) {
		role := Role{RoleName: "Reporter"}
		require.NoError(t, gdb.Create(&role).Error)
		require.NoError(t, gdb.Create(&RolePermission{RoleID: role.ID, PageName: auth.PageExport}).Error)
		u := &User{Username: "reporter", PasswordHash: "x", RoleID: &role.ID}
		require.NoError(t, gdb.Create(u).Error)

		grants, err := UserGrants(gdb, u)
		require.NoError(t, err)
		require.NotNil(t, grants)
		assert.True(t, grants.Allows(auth.PageExport))
		assert.False(t, grants.Allows(auth.PageAdmin))
	})
}

func TestAlertStatusTransitions(t *testing.T) {
	gdb := testDB(t)

	newAlert := func(status string) Alert {
		a := Alert{
			AlertDate: Day(time.Now().UTC()),
			Metric:    "High CPA",
			AdID:      "AD1",
			Status:    status,
		}
		require.NoError(t, gdb.Create(&a).Error)
		return a
	}

	t.Run("active to dismissed", func(t *testing.T) {
		a := newAlert(AlertActive)
		require.NoError(t, SetAlertStatus(gdb, a.ID, AlertDismissed))

		var got Alert
		require.NoError(t, gdb.First(&got, a.ID).Error)
		assert.Equal(t, AlertDismissed, got.Status)
	})

	t.Run("active to resolved", func(t *testing.T) {
		a := newAlert(AlertActive)
		require.NoError(t, SetAlertStatus(gdb, a.ID, AlertResolved))
	})

	t.Run("dismissed rows are final", func(t *testing.T) {
		a := newAlert(AlertDismissed)
		require.Error(t, SetAlertStatus(gdb, a.ID, AlertResolved))
	})

	t.Run("no transition back to active", func(t *testing.T) {
		a := newAlert(AlertActive)
		require.Error(t, SetAlertStatus(gdb, a.ID, AlertActive))
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		a := newAlert(AlertActive)
		require.Error(t, SetAlertStatus(gdb, a.ID, "Snoozed"))
	})
}

func TestAlertCleanup(t *testing.T) {
	gdb := testDB(t)

	stale := Alert{
		AlertDate: Day(time.Now().UTC()).AddDate(0, 0, -45),
		Metric:    "High CPA",
		AdID:      "old",
		Status:    AlertActive,
	}
	fresh := Alert{
		AlertDate: Day(time.Now().UTC()).AddDate(0, 0, -2),
		Metric:    "High CPA",
		AdID:      "new",
		Status:    AlertActive,
	}
	require.NoError(t, gdb.Create(&stale).Error)
	require.NoError(t, gdb.Create(&fresh).Error)

	require.NoError(t, runAlertCleanupOnce(gdb, 30))

	var got Alert
	require.NoError(t, gdb.First(&got, stale.ID).Error)
	assert.Equal(t, AlertResolved, got.Status)

	got = Alert{}
	require.NoError(t, gdb.First(&got, fresh.ID).Error)
	assert.Equal(t, AlertActive, got.Status)
}

func TestSeedSampleData(t *testing.T) {
	gdb := testDB(t)

	require.NoError(t, SeedSampleData(gdb))

	var campaigns, ads int64
	require.NoError(t, gdb.Model(&Campaign{}).Count(&campaigns).Error)
	require.NoError(t, gdb.Model(&Ad{}).Count(&ads).Error)
	assert.Equal(t, int64(4), campaigns)
	assert.Equal(t, int64(6), ads)

	var test ABTest
	require.NoError(t, gdb.First(&test, "test_id = ?", "TEST01").Error)

	var variants int64
	require.NoError(t, gdb.Model(&Ad{}).Where("test_id = ?", "TEST01").Count(&variants).Error)
	assert.Equal(t, int64(2), variants)

	t.Run("no-op when campaigns exist", func(t *testing.T) {
		require.NoError(t, SeedSampleData(gdb))
		var after int64
		require.NoError(t, gdb.Model(&Campaign{}).Count(&after).Error)
		assert.Equal(t, campaigns, after)
	})
}
