package handlers

import (
	"strconv"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"adpulse/internal/analytics"
	"adpulse/internal/config"
	dbpkg "adpulse/internal/db"
)

// ABTestList returns all configured tests.
func ABTestList(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		var tests []dbpkg.ABTest
		if err := gdb.Order("start_date DESC").Find(&tests).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query tests")
			return
		}
		jsonResponse(ctx, map[string]any{"tests": tests})
	}
}

// ABTestResult runs the significance tests for the two variants of one
// test ID. Tests with fewer or more than two variants report as
// insufficient data rather than guessing a pairing.
func ABTestResult(gdb *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		testID, _ := ctx.UserValue("id").(string)
		if testID == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "missing test id")
			return
		}

		var test dbpkg.ABTest
		if err := gdb.First(&test, "test_id = ?", testID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				errResponse(ctx, fasthttp.StatusNotFound, "unknown test id")
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "database error")
			return
		}

		variants, err := dbpkg.TestVariants(gdb, testID)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query variants")
			return
		}
		if len(variants) != 2 {
			jsonResponse(ctx, map[string]any{
				"test":              test,
				"insufficient_data": true,
				"variant_count":     len(variants),
			})
			return
		}

		result := analytics.CompareVariants(variants[0], variants[1], cfg.ABConfidence)
		jsonResponse(ctx, map[string]any{"test": test, "result": result})
	}
}

// ABSampleSize is the test planner: given a baseline rate and minimum
// detectable effect it returns the per-variant sample size needed.
func ABSampleSize(cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		baseline, err1 := strconv.ParseFloat(string(ctx.QueryArgs().Peek("baseline")), 64)
		mde, err2 := strconv.ParseFloat(string(ctx.QueryArgs().Peek("mde")), 64)
		if err1 != nil || err2 != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "baseline and mde are required numbers")
			return
		}
		power := 0.8
		if s := string(ctx.QueryArgs().Peek("power")); s != "" {
			if p, err := strconv.ParseFloat(s, 64); err == nil {
				power = p
			}
		}

		alpha := 1 - cfg.ABConfidence
		n := analytics.SampleSize(baseline, mde, alpha, power)
		if n == 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "parameters out of range")
			return
		}
		jsonResponse(ctx, map[string]any{
			"sample_size_per_variant": n,
			"alpha":                   alpha,
			"power":                   power,
		})
	}
}
