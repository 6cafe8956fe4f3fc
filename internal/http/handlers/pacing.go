package handlers

import (
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"adpulse/internal/analytics"
	"adpulse/internal/config"
	dbpkg "adpulse/internal/db"
)

// BudgetPacing evaluates cumulative spend against the prorated budget
// for one campaign.
func BudgetPacing(gdb *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		campaignID, _ := ctx.UserValue("id").(string)
		if campaignID == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "missing campaign id")
			return
		}

		var budget dbpkg.CampaignBudget
		if err := gdb.First(&budget, "campaign_id = ?", campaignID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				errResponse(ctx, fasthttp.StatusNotFound, "no budget configured for campaign")
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "database error")
			return
		}

		spend, err := dbpkg.CampaignSpend(gdb, campaignID)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query spend")
			return
		}

		result := analytics.Pace(analytics.Flight{
			Start:       budget.StartDate,
			End:         budget.EndDate,
			TotalBudget: budget.TotalBudget,
		}, spend, time.Now().UTC(), cfg.BudgetTolerance)
		result.CampaignID = campaignID

		jsonResponse(ctx, result)
	}
}

// CreateBudget sets the flight budget for a campaign (admin only via
// routing). Rejects inverted date windows.
func CreateBudget(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		campaignID := string(ctx.PostArgs().Peek("campaign_id"))
		startStr := string(ctx.PostArgs().Peek("start_date"))
		endStr := string(ctx.PostArgs().Peek("end_date"))
		totalStr := string(ctx.PostArgs().Peek("total_budget"))

		start, err1 := time.Parse("2006-01-02", startStr)
		end, err2 := time.Parse("2006-01-02", endStr)
		if campaignID == "" || err1 != nil || err2 != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "campaign_id, start_date and end_date (YYYY-MM-DD) are required")
			return
		}
		total, err := strconv.ParseFloat(totalStr, 64)
		if err != nil || total <= 0 {
			errResponse(ctx, fasthttp.StatusBadRequest, "total_budget must be a positive number")
			return
		}

		var campaign dbpkg.Campaign
		if err := gdb.First(&campaign, "campaign_id = ?", campaignID).Error; err != nil {
			errResponse(ctx, fasthttp.StatusNotFound, "unknown campaign")
			return
		}

		if err := dbpkg.CreateBudget(gdb, &dbpkg.CampaignBudget{
			CampaignID:  campaignID,
			StartDate:   dbpkg.Day(start),
			EndDate:     dbpkg.Day(end),
			TotalBudget: total,
		}); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}

		ctx.SetStatusCode(fasthttp.StatusCreated)
		jsonResponse(ctx, map[string]any{"status": "created"})
	}
}
