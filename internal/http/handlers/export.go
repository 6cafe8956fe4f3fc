package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"adpulse/internal/analytics"
	dbpkg "adpulse/internal/db"
)

func writeCSV(ctx *fasthttp.RequestCtx, filename string, records [][]string) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		errResponse(ctx, fasthttp.StatusInternalServerError, "failed to encode CSV")
		return
	}
	ctx.SetContentType("text/csv; charset=utf-8")
	ctx.Response.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	ctx.SetBody(buf.Bytes())
}

func fmtPtr(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', 4, 64)
}

// ExportCampaignMetrics downloads the per-campaign summary, derived
// metrics included, as a CSV file. Undefined metrics export as empty
// cells rather than zeros.
func ExportCampaignMetrics(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		campaigns, err := dbpkg.CampaignSummary(gdb, filterFrom(ctx))
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query campaign metrics")
			return
		}

		records := [][]string{{
			"campaign_id", "campaign_name", "platform", "funnel_stage",
			"impressions", "clicks", "conversions", "spend", "revenue",
			"roas", "cpa", "ctr", "cpm",
		}}
		for _, c := range campaigns {
			m := analytics.Compute([]analytics.Fact{c.Fact})
			records = append(records, []string{
				c.CampaignID, c.CampaignName, c.Platform, c.FunnelStage,
				strconv.FormatInt(c.Fact.Impressions, 10),
				strconv.FormatInt(c.Fact.Clicks, 10),
				strconv.FormatInt(c.Fact.Conversions, 10),
				strconv.FormatFloat(c.Fact.Spend, 'f', 2, 64),
				strconv.FormatFloat(c.Fact.Revenue, 'f', 2, 64),
				fmtPtr(m.ROAS), fmtPtr(m.CPA), fmtPtr(m.CTR), fmtPtr(m.CPM),
			})
		}
		writeCSV(ctx, "campaign_metrics.csv", records)
	}
}

// ExportDailyPerformance downloads the raw fact rows in the filtered
// range as a CSV file.
func ExportDailyPerformance(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		f := filterFrom(ctx)

		q := gdb.Model(&dbpkg.DailyPerformance{}).
			Joins("JOIN campaigns ON campaigns.campaign_id = daily_performances.campaign_id").
			Order("daily_performances.report_date, daily_performances.ad_id")
		if !f.From.IsZero() {
			q = q.Where("daily_performances.report_date >= ?", dbpkg.Day(f.From))
		}
		if !f.To.IsZero() {
			q = q.Where("daily_performances.report_date <= ?", dbpkg.Day(f.To))
		}
		if len(f.Platforms) > 0 {
			q = q.Where("campaigns.platform IN ?", f.Platforms)
		}
		if len(f.CampaignIDs) > 0 {
			q = q.Where("daily_performances.campaign_id IN ?", f.CampaignIDs)
		}

		var rows []dbpkg.DailyPerformance
		if err := q.Find(&rows).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query performance rows")
			return
		}

		records := [][]string{{
			"report_date", "ad_id", "campaign_id",
			"impressions", "reach", "frequency", "clicks",
			"spend", "video_views", "add_to_carts", "conversions", "revenue",
		}}
		for _, r := range rows {
			records = append(records, []string{
				r.ReportDate.Format("2006-01-02"), r.AdID, r.CampaignID,
				strconv.FormatInt(r.Impressions, 10),
				strconv.FormatInt(r.Reach, 10),
				strconv.FormatFloat(r.Frequency, 'f', 2, 64),
				strconv.FormatInt(r.Clicks, 10),
				strconv.FormatFloat(r.Spend, 'f', 2, 64),
				strconv.FormatInt(r.VideoViews, 10),
				strconv.FormatInt(r.AddToCarts, 10),
				strconv.FormatInt(r.Conversions, 10),
				strconv.FormatFloat(r.Revenue, 'f', 2, 64),
			})
		}
		name := fmt.Sprintf("daily_performance_%s.csv", time.Now().UTC().Format("20060102"))
		writeCSV(ctx, name, records)
	}
}
