package handlers

import (
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"adpulse/internal/analytics"
	"adpulse/internal/config"
	dbpkg "adpulse/internal/db"
)

// CreativeMetrics returns per-ad performance with fatigue flags.
func CreativeMetrics(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		ads, err := dbpkg.CreativeSummary(gdb, filterFrom(ctx))
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query creative performance")
			return
		}
		jsonResponse(ctx, map[string]any{"ads": ads})
	}
}

// GenerateRecommendations runs the creative advice rules over the
// filtered range and persists the results as Active recommendation
// rows.
func GenerateRecommendations(gdb *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		ads, err := dbpkg.CreativeSummary(gdb, filterFrom(ctx))
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query creative performance")
			return
		}

		today := dbpkg.Day(time.Now().UTC())
		advice := analytics.Recommend(ads, cfg.CPATarget, today)

		created := 0
		for _, a := range advice {
			var count int64
			if err := gdb.Model(&dbpkg.Recommendation{}).
				Where("generation_date = ? AND ad_id = ? AND rec_type = ?", a.Date, a.AdID, a.RecType).
				Count(&count).Error; err != nil {
				errResponse(ctx, fasthttp.StatusInternalServerError, "database error")
				return
			}
			if count > 0 {
				continue
			}
			rec := dbpkg.Recommendation{
				GenerationDate: a.Date,
				AdID:           a.AdID,
				RecType:        a.RecType,
				Justification:  a.Justification,
				Status:         dbpkg.AlertActive,
				Details:        datatypes.JSONMap{},
			}
			if err := gdb.Create(&rec).Error; err != nil {
				errResponse(ctx, fasthttp.StatusInternalServerError, "failed to persist recommendations")
				return
			}
			created++
		}

		jsonResponse(ctx, map[string]any{"generated": len(advice), "created": created})
	}
}
