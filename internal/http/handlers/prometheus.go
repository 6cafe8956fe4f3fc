package handlers

import (
	"bytes"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/valyala/fasthttp"
)

var (
	pageViews    *prometheus.CounterVec
	ingestedRows *prometheus.CounterVec
	alertsRaised prometheus.Counter
)

func InitPrometheusMetrics() {
	pageViews = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "adpulse",
			Name:      "page_views_total",
			Help:      "Total dashboard page views.",
		},
		[]string{"page"},
	)
	ingestedRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "adpulse",
			Name:      "ingested_rows_total",
			Help:      "Total ingested daily performance rows.",
		},
		[]string{"platform"},
	)
	alertsRaised = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "adpulse",
			Name:      "alerts_raised_total",
			Help:      "Total anomaly alerts raised.",
		},
	)
	prometheus.MustRegister(pageViews, ingestedRows, alertsRaised)
}

// RecordPageView counts one view of a dashboard page.
func RecordPageView(page string) {
	if pageViews != nil {
		pageViews.WithLabelValues(page).Inc()
	}
}

// RecordIngestedRows counts accepted performance rows per platform.
func RecordIngestedRows(platform string, n int) {
	if ingestedRows != nil && n > 0 {
		ingestedRows.WithLabelValues(platform).Add(float64(n))
	}
}

// RecordAlertsRaised counts anomaly alerts created by the detector.
func RecordAlertsRaised(n int) {
	if alertsRaised != nil && n > 0 {
		alertsRaised.Add(float64(n))
	}
}

// PrometheusExposition serves the process metrics in text exposition
// format. An optional ?platform= filter narrows series carrying a
// platform label to that platform.
func PrometheusExposition() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		platform := string(ctx.QueryArgs().Peek("platform"))

		metricFamilies, err := prometheus.DefaultGatherer.Gather()
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to gather metrics")
			return
		}

		filtered := make([]*dto.MetricFamily, 0, len(metricFamilies))
		for _, mf := range metricFamilies {
			if platform == "" {
				filtered = append(filtered, mf)
				continue
			}

			hasPlatformLabel := false
			for _, m := range mf.GetMetric() {
				for _, l := range m.GetLabel() {
					if l.GetName() == "platform" {
						hasPlatformLabel = true
						break
					}
				}
				if hasPlatformLabel {
					break
				}
			}
			if !hasPlatformLabel {
				filtered = append(filtered, mf)
				continue
			}

			var kept []*dto.Metric
			for _, m := range mf.GetMetric() {
				for _, l := range m.GetLabel() {
					if l.GetName() == "platform" && l.GetValue() == platform {
						kept = append(kept, m)
						break
					}
				}
			}
			if len(kept) == 0 {
				continue
			}
			filtered = append(filtered, &dto.MetricFamily{
				Name:   mf.Name,
				Help:   mf.Help,
				Type:   mf.Type,
				Metric: kept,
			})
		}

		var buf bytes.Buffer
		encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
		for _, mf := range filtered {
			if err := encoder.Encode(mf); err != nil {
				errResponse(ctx, fasthttp.StatusInternalServerError, "failed to encode metrics")
				return
			}
		}

		ctx.SetContentType(string(expfmt.FmtText))
		ctx.Response.Header.Set("Cache-Control", "no-store")
		ctx.SetBody(buf.Bytes())
	}
}
