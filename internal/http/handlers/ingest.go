package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "adpulse/internal/db"
)

var validate = validator.New()

// IngestRow is one daily performance fact submitted by a client. Dates
// arrive as YYYY-MM-DD strings and are normalized to UTC midnight
// before storage.
type IngestRow struct {
	ReportDate string `json:"report_date" validate:"required,datetime=2006-01-02"`
	AdID       string `json:"ad_id" validate:"required,max=64"`
	CampaignID string `json:"campaign_id" validate:"required,max=64"`

	Impressions int64   `json:"impressions" validate:"gte=0"`
	Reach       int64   `json:"reach" validate:"gte=0"`
	Frequency   float64 `json:"frequency" validate:"gte=0"`
	Clicks      int64   `json:"clicks" validate:"gte=0,ltefield=Impressions"`
	Spend       float64 `json:"spend" validate:"gte=0"`
	VideoViews  int64   `json:"video_views" validate:"gte=0"`
	AddToCarts  int64   `json:"add_to_carts" validate:"gte=0"`
	Conversions int64   `json:"conversions" validate:"gte=0,ltefield=Clicks"`
	Revenue     float64 `json:"revenue" validate:"gte=0"`
}

type ingestRequest struct {
	Rows []IngestRow `json:"rows" validate:"required,min=1,max=5000,dive"`
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IngestPerformance accepts a batch of daily performance rows. The
// batch is all-or-nothing: any row that duplicates an existing
// (report_date, ad_id) pair fails the whole request with 409, since
// summing a re-sent file would double spend figures.
func IngestPerformance(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}

		var req ingestRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := validate.Struct(&req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, validationMessage(err))
			return
		}

		records := make([]dbpkg.DailyPerformance, 0, len(req.Rows))
		byPlatform := make(map[string]int)
		for i, row := range req.Rows {
			day, err := time.ParseInLocation("2006-01-02", row.ReportDate, time.UTC)
			if err != nil {
				errResponse(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("row %d: invalid report_date", i))
				return
			}

			var campaign dbpkg.Campaign
			if err := gdb.First(&campaign, "campaign_id = ?", row.CampaignID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					errResponse(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("row %d: unknown campaign %s", i, row.CampaignID))
					return
				}
				errResponse(ctx, fasthttp.StatusInternalServerError, "database error")
				return
			}

			var ad dbpkg.Ad
			if err := gdb.First(&ad, "ad_id = ?", row.AdID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					errResponse(ctx, fasthttp.StatusBadRequest, fmt.Sprintf("row %d: unknown ad %s", i, row.AdID))
					return
				}
				errResponse(ctx, fasthttp.StatusInternalServerError, "database error")
				return
			}

			records = append(records, dbpkg.DailyPerformance{
				ReportDate:  day,
				AdID:        row.AdID,
				CampaignID:  row.CampaignID,
				Impressions: row.Impressions,
				Reach:       row.Reach,
				Frequency:   row.Frequency,
				Clicks:      row.Clicks,
				Spend:       row.Spend,
				VideoViews:  row.VideoViews,
				AddToCarts:  row.AddToCarts,
				Conversions: row.Conversions,
				Revenue:     row.Revenue,
			})
			byPlatform[campaign.Platform]++
		}

		err := gdb.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&records).Error
		})
		if err != nil {
			if isUniqueViolation(err) {
				errResponse(ctx, fasthttp.StatusConflict, "duplicate (report_date, ad_id) row in batch; re-sent files are rejected, not summed")
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to insert rows")
			return
		}

		for platform, n := range byPlatform {
			RecordIngestedRows(platform, n)
		}

		ctx.SetStatusCode(fasthttp.StatusCreated)
		jsonResponse(ctx, map[string]any{"inserted": len(records)})
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return fmt.Sprintf("validation failed on %s (%s)", first.Namespace(), first.Tag())
	}
	return "validation failed"
}
