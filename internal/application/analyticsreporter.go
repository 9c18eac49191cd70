package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
	"github.com/ericfisherdev/wppanel/internal/metrics"
)

// RunnerFactory creates a report runner authenticated with the service
// account file at credentialsPath.
type RunnerFactory func(ctx context.Context, credentialsPath string) (driven.ReportRunner, error)

// maxTrafficSources caps the traffic sources report.
const maxTrafficSources = 10

var (
	// errMalformedRow marks a report row that cannot be parsed.
	errMalformedRow = errors.New("malformed report row")
	// errEmptyReport marks a report that returned no rows.
	errEmptyReport = errors.New("empty report")
)

// AnalyticsReporter answers dashboard reports from GA4. A reporter whose
// runner could not be created stays in demo mode for its lifetime; otherwise
// each failed report falls back to demo data for that call only.
type AnalyticsReporter struct {
	propertyID string
	runner     driven.ReportRunner
	breaker    *gobreaker.CircuitBreaker[[]driven.ReportRow]
	logger     *slog.Logger
	now        func() time.Time
}

// NewAnalyticsReporter creates a reporter for propertyID. When factory fails
// the reporter enters permanent demo mode.
func NewAnalyticsReporter(ctx context.Context, propertyID, credentialsPath string, factory RunnerFactory, logger *slog.Logger) *AnalyticsReporter {
	r := &AnalyticsReporter{
		propertyID: propertyID,
		logger:     logger,
		now:        time.Now,
	}

	runner, err := factory(ctx, credentialsPath)
	if err != nil {
		logger.Warn("analytics reporting unavailable, using demo data", "property_id", propertyID, "error", err)
		return r
	}

	r.runner = runner
	r.breaker = newReportBreaker(logger)
	return r
}

// NewDemoReporter creates a reporter that only serves demo data.
func NewDemoReporter(logger *slog.Logger) *AnalyticsReporter {
	return &AnalyticsReporter{logger: logger, now: time.Now}
}

func newReportBreaker(logger *slog.Logger) *gobreaker.CircuitBreaker[[]driven.ReportRow] {
	const name = "ga4"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[[]driven.ReportRow](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("analytics circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

// Demo reports whether the reporter is in permanent demo mode.
func (r *AnalyticsReporter) Demo() bool {
	return r.runner == nil
}

// PropertyID returns the GA4 property the reporter queries.
func (r *AnalyticsReporter) PropertyID() string {
	return r.propertyID
}

// run executes req through the circuit breaker. An empty result is an error
// for the caller but not a breaker failure.
func (r *AnalyticsReporter) run(ctx context.Context, req driven.ReportRequest) ([]driven.ReportRow, error) {
	req.PropertyID = r.propertyID
	rows, err := r.breaker.Execute(func() ([]driven.ReportRow, error) {
		return r.runner.RunReport(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errEmptyReport
	}
	return rows, nil
}

func (r *AnalyticsReporter) fallback(report string, err error) {
	reason := "upstream_error"
	switch {
	case errors.Is(err, errEmptyReport):
		reason = "empty_report"
	case errors.Is(err, errMalformedRow):
		reason = "malformed_report"
	}
	metrics.AnalyticsFallbacks.WithLabelValues(report, reason).Inc()
	r.logger.Warn("analytics report failed, using demo data", "report", report, "property_id", r.propertyID, "error", err)
}

// Overview returns site totals for dr.
func (r *AnalyticsReporter) Overview(ctx context.Context, dr model.DateRange) model.OverviewMetrics {
	if r.Demo() {
		metrics.AnalyticsFallbacks.WithLabelValues("overview", "demo_mode").Inc()
		return demoOverview()
	}

	rows, err := r.run(ctx, driven.ReportRequest{
		StartDate: dr.StartDate,
		EndDate:   dr.EndDate,
		Metrics:   []string{"sessions", "totalUsers", "screenPageViews", "bounceRate", "averageSessionDuration"},
	})
	if err != nil {
		r.fallback("overview", err)
		return demoOverview()
	}

	out, err := parseOverview(rows[0])
	if err != nil {
		r.fallback("overview", err)
		return demoOverview()
	}
	return out
}

func parseOverview(row driven.ReportRow) (model.OverviewMetrics, error) {
	m := row.MetricValues
	if len(m) < 5 {
		return model.OverviewMetrics{}, fmt.Errorf("%w: want 5 metrics, got %d", errMalformedRow, len(m))
	}

	var out model.OverviewMetrics
	var err error
	if out.Sessions, err = parseCount(m[0]); err != nil {
		return out, err
	}
	if out.TotalUsers, err = parseCount(m[1]); err != nil {
		return out, err
	}
	if out.PageViews, err = parseCount(m[2]); err != nil {
		return out, err
	}
	bounce, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return out, fmt.Errorf("%w: bounce rate %q", errMalformedRow, m[3])
	}
	duration, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return out, fmt.Errorf("%w: session duration %q", errMalformedRow, m[4])
	}

	out.BounceRate = fmt.Sprintf("%.1f%%", bounce*100)
	out.AvgSessionDuration = FormatDuration(duration)
	out.Source = model.DataSourceGA4
	return out, nil
}

// TopPages returns up to limit pages ordered by page views.
func (r *AnalyticsReporter) TopPages(ctx context.Context, dr model.DateRange, limit int) ([]model.TopPage, model.DataSource) {
	if r.Demo() {
		metrics.AnalyticsFallbacks.WithLabelValues("top_pages", "demo_mode").Inc()
		return demoTopPages(), model.DataSourceDemo
	}

	rows, err := r.run(ctx, driven.ReportRequest{
		StartDate:  dr.StartDate,
		EndDate:    dr.EndDate,
		Dimensions: []string{"pagePath", "pageTitle"},
		Metrics:    []string{"screenPageViews", "sessions"},
		OrderBys:   []driven.ReportOrder{{Metric: "screenPageViews", Desc: true}},
		Limit:      int64(limit),
	})
	if err == nil {
		var pages []model.TopPage
		if pages, err = parseTopPages(rows); err == nil {
			return pages, model.DataSourceGA4
		}
	}
	r.fallback("top_pages", err)
	return demoTopPages(), model.DataSourceDemo
}

func parseTopPages(rows []driven.ReportRow) ([]model.TopPage, error) {
	pages := make([]model.TopPage, 0, len(rows))
	for _, row := range rows {
		if len(row.DimensionValues) < 2 || len(row.MetricValues) < 2 {
			return nil, fmt.Errorf("%w: top pages", errMalformedRow)
		}
		views, err := parseCount(row.MetricValues[0])
		if err != nil {
			return nil, err
		}
		sessions, err := parseCount(row.MetricValues[1])
		if err != nil {
			return nil, err
		}
		title := row.DimensionValues[1]
		if title == "" {
			title = "Untitled"
		}
		pages = append(pages, model.TopPage{
			Path:      row.DimensionValues[0],
			Title:     title,
			PageViews: views,
			Sessions:  sessions,
		})
	}
	return pages, nil
}

// TrafficSources returns the top session sources with their share of all
// sessions in the range.
func (r *AnalyticsReporter) TrafficSources(ctx context.Context, dr model.DateRange) ([]model.TrafficSource, model.DataSource) {
	if r.Demo() {
		metrics.AnalyticsFallbacks.WithLabelValues("traffic_sources", "demo_mode").Inc()
		return demoTrafficSources(), model.DataSourceDemo
	}

	rows, err := r.run(ctx, driven.ReportRequest{
		StartDate:  dr.StartDate,
		EndDate:    dr.EndDate,
		Dimensions: []string{"sessionSourceMedium"},
		Metrics:    []string{"sessions", "totalUsers"},
		OrderBys:   []driven.ReportOrder{{Metric: "sessions", Desc: true}},
	})
	if err == nil {
		var sources []model.TrafficSource
		if sources, err = parseTrafficSources(rows); err == nil {
			return sources, model.DataSourceGA4
		}
	}
	r.fallback("traffic_sources", err)
	return demoTrafficSources(), model.DataSourceDemo
}

func parseTrafficSources(rows []driven.ReportRow) ([]model.TrafficSource, error) {
	sources := make([]model.TrafficSource, 0, len(rows))
	sessions := make([]int64, 0, len(rows))
	for _, row := range rows {
		if len(row.DimensionValues) < 1 || len(row.MetricValues) < 2 {
			return nil, fmt.Errorf("%w: traffic sources", errMalformedRow)
		}
		s, err := parseCount(row.MetricValues[0])
		if err != nil {
			return nil, err
		}
		users, err := parseCount(row.MetricValues[1])
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
		sources = append(sources, model.TrafficSource{
			SourceMedium: row.DimensionValues[0],
			Sessions:     s,
			Users:        users,
		})
	}

	// Shares are computed over every row before truncating.
	for i, pct := range SessionPercentages(sessions) {
		sources[i].Percentage = pct
	}
	if len(sources) > maxTrafficSources {
		sources = sources[:maxTrafficSources]
	}
	return sources, nil
}

// DailyVisitors returns one entry per day in the range, oldest first.
func (r *AnalyticsReporter) DailyVisitors(ctx context.Context, dr model.DateRange) ([]model.DailyVisitors, model.DataSource) {
	if r.Demo() {
		metrics.AnalyticsFallbacks.WithLabelValues("daily_visitors", "demo_mode").Inc()
		return demoDailyVisitors(r.now()), model.DataSourceDemo
	}

	rows, err := r.run(ctx, driven.ReportRequest{
		StartDate:  dr.StartDate,
		EndDate:    dr.EndDate,
		Dimensions: []string{"date"},
		Metrics:    []string{"totalUsers", "sessions", "screenPageViews"},
		OrderBys:   []driven.ReportOrder{{Dimension: "date"}},
	})
	if err == nil {
		var days []model.DailyVisitors
		if days, err = parseDailyVisitors(rows); err == nil {
			return days, model.DataSourceGA4
		}
	}
	r.fallback("daily_visitors", err)
	return demoDailyVisitors(r.now()), model.DataSourceDemo
}

func parseDailyVisitors(rows []driven.ReportRow) ([]model.DailyVisitors, error) {
	days := make([]model.DailyVisitors, 0, len(rows))
	for _, row := range rows {
		if len(row.DimensionValues) < 1 || len(row.MetricValues) < 3 {
			return nil, fmt.Errorf("%w: daily visitors", errMalformedRow)
		}
		date, err := formatReportDate(row.DimensionValues[0])
		if err != nil {
			return nil, err
		}
		var counts [3]int64
		for i := range counts {
			if counts[i], err = parseCount(row.MetricValues[i]); err != nil {
				return nil, err
			}
		}
		days = append(days, model.DailyVisitors{
			Date:      date,
			Users:     counts[0],
			Sessions:  counts[1],
			PageViews: counts[2],
		})
	}
	return days, nil
}

// formatReportDate converts GA4's YYYYMMDD to YYYY-MM-DD.
func formatReportDate(s string) (string, error) {
	d, err := time.Parse("20060102", s)
	if err != nil {
		return "", fmt.Errorf("%w: date %q", errMalformedRow, s)
	}
	return d.Format(time.DateOnly), nil
}

func parseCount(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: count %q", errMalformedRow, s)
	}
	return n, nil
}

// FormatDuration renders seconds as "{s}s" under a minute, "{m}m {s}s"
// under an hour, and "{h}h {m}m" otherwise. Fractions are truncated.
func FormatDuration(seconds float64) string {
	total := int64(seconds)
	if total < 0 {
		total = 0
	}
	switch {
	case total < 60:
		return fmt.Sprintf("%ds", total)
	case total < 3600:
		return fmt.Sprintf("%dm %ds", total/60, total%60)
	default:
		return fmt.Sprintf("%dh %dm", total/3600, (total%3600)/60)
	}
}

// SessionPercentages returns each count's share of the total, in percent,
// rounded to one decimal. A zero total yields zero for every entry.
func SessionPercentages(sessions []int64) []float64 {
	var total int64
	for _, s := range sessions {
		total += s
	}

	out := make([]float64, len(sessions))
	if total <= 0 {
		return out
	}
	for i, s := range sessions {
		out[i] = math.Round(float64(s)/float64(total)*1000) / 10
	}
	return out
}
