package handlers

import (
	"strconv"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "adpulse/internal/db"
)

// AlertList returns alerts, optionally filtered by ?status=.
func AlertList(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		q := gdb.Order("alert_date DESC, id DESC")
		if status := string(ctx.QueryArgs().Peek("status")); status != "" {
			q = q.Where("status = ?", status)
		}
		var alerts []dbpkg.Alert
		if err := q.Find(&alerts).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query alerts")
			return
		}
		jsonResponse(ctx, map[string]any{"alerts": alerts})
	}
}

// RecommendationList returns recommendations, optionally filtered by ?status=.
func RecommendationList(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		q := gdb.Order("generation_date DESC, id DESC")
		if status := string(ctx.QueryArgs().Peek("status")); status != "" {
			q = q.Where("status = ?", status)
		}
		var recs []dbpkg.Recommendation
		if err := q.Find(&recs).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query recommendations")
			return
		}
		jsonResponse(ctx, map[string]any{"recommendations": recs})
	}
}

func idParam(ctx *fasthttp.RequestCtx) (uint, bool) {
	raw, _ := ctx.UserValue("id").(string)
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		errResponse(ctx, fasthttp.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(n), true
}

// UpdateAlertStatus moves an Active alert to Dismissed or Resolved.
func UpdateAlertStatus(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		id, ok := idParam(ctx)
		if !ok {
			return
		}
		status := string(ctx.PostArgs().Peek("status"))
		if err := dbpkg.SetAlertStatus(gdb, id, status); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}
		jsonResponse(ctx, map[string]any{"id": id, "status": status})
	}
}

// UpdateRecommendationStatus moves an Active recommendation to
// Dismissed or Resolved.
func UpdateRecommendationStatus(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		id, ok := idParam(ctx)
		if !ok {
			return
		}
		status := string(ctx.PostArgs().Peek("status"))
		if err := dbpkg.SetRecommendationStatus(gdb, id, status); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}
		jsonResponse(ctx, map[string]any{"id": id, "status": status})
	}
}
