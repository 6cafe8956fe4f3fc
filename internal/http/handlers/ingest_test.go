package handlers

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	dbpkg "adpulse/internal/db"
	httpctx "adpulse/internal/http/ctx"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	gdb, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, dbpkg.Migrate(gdb))
	return gdb
}

func seedCampaignWithAd(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	require.NoError(t, gdb.Create(&dbpkg.Campaign{
		CampaignID: "META_C01", CampaignName: "Fall", Platform: "Meta",
	}).Error)
	require.NoError(t, gdb.Create(&dbpkg.AdSet{
		AdSetID: "META_AS01", AdSetName: "set", CampaignID: "META_C01",
	}).Error)
	require.NoError(t, gdb.Create(&dbpkg.Ad{
		AdID: "META_AD01", AdName: "ad", AdSetID: "META_AS01",
	}).Error)
}

func postJSON(t *testing.T, handler fasthttp.RequestHandler, body any) *fasthttp.RequestCtx {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(fasthttp.MethodPost)
	ctx.Request.SetBody(raw)
	httpctx.SetUser(ctx, &dbpkg.User{ID: 1, Username: "tester"})

	handler(ctx)
	return ctx
}

func ingestRow(date string) IngestRow {
	return IngestRow{
		ReportDate:  date,
		AdID:        "META_AD01",
		CampaignID:  "META_C01",
		Impressions: 1000,
		Reach:       800,
		Frequency:   1.25,
		Clicks:      25,
		Spend:       40,
		Conversions: 2,
		Revenue:     150,
	}
}

func TestIngestPerformance(t *testing.T) {
	t.Run("accepts a valid batch", func(t *testing.T) {
		gdb := testDB(t)
		seedCampaignWithAd(t, gdb)
		handler := IngestPerformance(gdb)

		ctx := postJSON(t, handler, map[string]any{
			"rows": []IngestRow{ingestRow("2026-08-29"), ingestRow("2026-08-30")},
		})
		assert.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())

		var count int64
		require.NoError(t, gdb.Model(&dbpkg.DailyPerformance{}).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})

	t.Run("duplicate day is a conflict and nothing is written", func(t *testing.T) {
		gdb := testDB(t)
		seedCampaignWithAd(t, gdb)
		handler := IngestPerformance(gdb)

		ctx := postJSON(t, handler, map[string]any{"rows": []IngestRow{ingestRow("2026-08-29")}})
		require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())

		// Re-sending the same file plus a new day must reject the whole
		// batch: duplicates are never summed.
		ctx = postJSON(t, handler, map[string]any{
			"rows": []IngestRow{ingestRow("2026-08-29"), ingestRow("2026-08-30")},
		})
		assert.Equal(t, fasthttp.StatusConflict, ctx.Response.StatusCode())

		var count int64
		require.NoError(t, gdb.Model(&dbpkg.DailyPerformance{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("rejects malformed rows", func(t *testing.T) {
		gdb := testDB(t)
		seedCampaignWithAd(t, gdb)
		handler := IngestPerformance(gdb)

		bad := ingestRow("30-08-2026") // wrong date layout
		ctx := postJSON(t, handler, map[string]any{"rows": []IngestRow{bad}})
		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

		negative := ingestRow("2026-08-30")
		negative.Spend = -5
		ctx = postJSON(t, handler, map[string]any{"rows": []IngestRow{negative}})
		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

		inverted := ingestRow("2026-08-30")
		inverted.Clicks = 500
		inverted.Impressions = 100
		ctx = postJSON(t, handler, map[string]any{"rows": []IngestRow{inverted}})
		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	})

	t.Run("rejects unknown campaign", func(t *testing.T) {
		gdb := testDB(t)
		seedCampaignWithAd(t, gdb)
		handler := IngestPerformance(gdb)

		row := ingestRow("2026-08-30")
		row.CampaignID = "NOPE_C99"
		ctx := postJSON(t, handler, map[string]any{"rows": []IngestRow{row}})
		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	})

	t.Run("rejects unknown ad", func(t *testing.T) {
		gdb := testDB(t)
		seedCampaignWithAd(t, gdb)
		handler := IngestPerformance(gdb)

		row := ingestRow("2026-08-30")
		row.AdID = "META_AD99"
		ctx := postJSON(t, handler, map[string]any{"rows": []IngestRow{row}})
		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())

		var count int64
		require.NoError(t, gdb.Model(&dbpkg.DailyPerformance{}).Count(&count).Error)
		assert.Equal(t, int64(0), count, "a typo'd ad must not create an orphan fact row")
	})

	t.Run("rejects an empty batch", func(t *testing.T) {
		gdb := testDB(t)
		handler := IngestPerformance(gdb)
		ctx := postJSON(t, handler, map[string]any{"rows": []IngestRow{}})
		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		gdb := testDB(t)
		handler := IngestPerformance(gdb)

		ctx := &fasthttp.RequestCtx{}
		ctx.Request.Header.SetMethod(fasthttp.MethodPost)
		ctx.Request.SetBody([]byte("{not json"))
		httpctx.SetUser(ctx, &dbpkg.User{ID: 1, Username: "tester"})
		handler(ctx)
		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	})
}

func TestIngestResponseBody(t *testing.T) {
	gdb := testDB(t)
	seedCampaignWithAd(t, gdb)
	handler := IngestPerformance(gdb)

	ctx := postJSON(t, handler, map[string]any{"rows": []IngestRow{ingestRow("2026-08-28")}})
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, float64(1), resp["inserted"])
}

func TestValidationMessage(t *testing.T) {
	bad := ingestRow("2026-08-30")
	bad.Revenue = -1
	err := validate.Struct(&ingestRequest{Rows: []IngestRow{bad}})
	require.Error(t, err)
	msg := validationMessage(err)
	assert.Contains(t, msg, "Revenue")
	assert.Contains(t, msg, "gte")
}
