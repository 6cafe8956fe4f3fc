package handlers

import (
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"adpulse/internal/analytics"
	"adpulse/internal/config"
	dbpkg "adpulse/internal/db"
)

type segmentMetric struct {
	SegmentValue string            `json:"segment_value"`
	Metrics      analytics.Metrics `json:"metrics"`
}

// SegmentMetrics breaks performance down by one segment dimension
// (age, gender, placement, ...) for a platform.
func SegmentMetrics(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		platform := string(ctx.QueryArgs().Peek("platform"))
		segmentType := string(ctx.QueryArgs().Peek("segment_type"))
		if platform == "" || segmentType == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "platform and segment_type are required")
			return
		}
		from, to := parseDateRange(ctx)

		breakdown, err := dbpkg.SegmentBreakdown(gdb, from, to, platform, segmentType)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query segments")
			return
		}

		rows := make([]segmentMetric, 0, len(breakdown))
		for _, s := range breakdown {
			rows = append(rows, segmentMetric{
				SegmentValue: s.SegmentValue,
				Metrics:      analytics.Compute([]analytics.Fact{s.Fact}),
			})
		}
		jsonResponse(ctx, map[string]any{"segments": rows})
	}
}

type countryMetric struct {
	Country string                 `json:"country"`
	Metrics analytics.Metrics      `json:"metrics"`
	Targets analytics.TargetReport `json:"targets"`
}

// CountryMetrics benchmarks performance per country against the
// configured targets.
func CountryMetrics(gdb *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		from, to := parseDateRange(ctx)
		countries := csvParam(ctx, "country")
		platforms := csvParam(ctx, "platform")

		benchmark, err := dbpkg.CountryBenchmark(gdb, from, to, countries, platforms)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query country benchmark")
			return
		}

		targets := targetsFrom(cfg)
		rows := make([]countryMetric, 0, len(benchmark))
		for _, c := range benchmark {
			m := analytics.Compute([]analytics.Fact{c.Fact})
			rows = append(rows, countryMetric{
				Country: c.Country,
				Metrics: m,
				Targets: analytics.Classify(m, targets),
			})
		}
		jsonResponse(ctx, map[string]any{"countries": rows})
	}
}

// CustomerSegments serves the RFM scoring over all sales.
func CustomerSegments(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		sales, err := dbpkg.SalesRows(gdb)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query sales")
			return
		}
		scores := analytics.ComputeRFM(sales)
		if scores == nil {
			scores = []analytics.RFMScore{}
		}
		jsonResponse(ctx, map[string]any{"customers": scores})
	}
}
