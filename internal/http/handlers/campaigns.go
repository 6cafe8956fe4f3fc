package handlers

import (
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"adpulse/internal/analytics"
	"adpulse/internal/config"
	dbpkg "adpulse/internal/db"
)

// CampaignMetric is one campaign's derived metrics plus its standing
// against the configured targets, ready for charting.
type CampaignMetric struct {
	CampaignID   string                 `json:"campaign_id"`
	CampaignName string                 `json:"campaign_name"`
	Platform     string                 `json:"platform"`
	FunnelStage  string                 `json:"funnel_stage"`
	Metrics      analytics.Metrics      `json:"metrics"`
	Targets      analytics.TargetReport `json:"targets"`
}

func targetsFrom(cfg *config.Config) analytics.Targets {
	return analytics.Targets{ROAS: cfg.ROASTarget, CPA: cfg.CPATarget, CTR: cfg.CTRTarget}
}

func filterFrom(ctx *fasthttp.RequestCtx) dbpkg.Filter {
	from, to := parseDateRange(ctx)
	return dbpkg.Filter{
		From:        from,
		To:          to,
		Platforms:   csvParam(ctx, "platform"),
		CampaignIDs: csvParam(ctx, "campaign"),
	}
}

// CampaignMetrics returns per-campaign metrics for the filtered range.
func CampaignMetrics(gdb *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}

		summary, err := dbpkg.CampaignSummary(gdb, filterFrom(ctx))
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query campaign performance")
			return
		}

		targets := targetsFrom(cfg)
		rows := make([]CampaignMetric, 0, len(summary))
		for _, c := range summary {
			m := analytics.Compute([]analytics.Fact{c.Fact})
			rows = append(rows, CampaignMetric{
				CampaignID:   c.CampaignID,
				CampaignName: c.CampaignName,
				Platform:     c.Platform,
				FunnelStage:  c.FunnelStage,
				Metrics:      m,
				Targets:      analytics.Classify(m, targets),
			})
		}
		jsonResponse(ctx, map[string]any{"campaigns": rows})
	}
}

// CampaignList returns campaign names and IDs for filter dropdowns.
func CampaignList(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		campaigns, err := dbpkg.CampaignNames(gdb)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query campaigns")
			return
		}
		type item struct {
			CampaignID   string `json:"campaign_id"`
			CampaignName string `json:"campaign_name"`
			Platform     string `json:"platform"`
		}
		rows := make([]item, 0, len(campaigns))
		for _, c := range campaigns {
			rows = append(rows, item{CampaignID: c.CampaignID, CampaignName: c.CampaignName, Platform: c.Platform})
		}
		jsonResponse(ctx, map[string]any{"campaigns": rows})
	}
}
