// Package analytics implements the ReportRunner port using the Google
// Analytics Data API (GA4).
package analytics

import (
	"context"
	"fmt"

	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"

	"github.com/ericfisherdev/wppanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReportRunner = (*Runner)(nil)

// Runner runs GA4 reports through analyticsdata.Service.
type Runner struct {
	svc *analyticsdata.Service
}

// NewRunner creates a Runner authenticated with the service account JSON at
// credentialsPath. An empty path falls back to Application Default
// Credentials.
func NewRunner(ctx context.Context, credentialsPath string) (*Runner, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	return NewRunnerWithOptions(ctx, opts...)
}

// NewRunnerWithOptions creates a Runner with explicit client options. Tests
// use it to point the service at an httptest server.
func NewRunnerWithOptions(ctx context.Context, opts ...option.ClientOption) (*Runner, error) {
	svc, err := analyticsdata.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating analytics data service: %w", err)
	}
	return &Runner{svc: svc}, nil
}

// RunReport executes one runReport query and flattens the returned rows.
func (r *Runner) RunReport(ctx context.Context, req driven.ReportRequest) ([]driven.ReportRow, error) {
	resp, err := r.svc.Properties.RunReport("properties/"+req.PropertyID, buildRequest(req)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("running report for property %s: %w", req.PropertyID, err)
	}

	rows := make([]driven.ReportRow, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		rows = append(rows, mapRow(row))
	}
	return rows, nil
}

func buildRequest(req driven.ReportRequest) *analyticsdata.RunReportRequest {
	out := &analyticsdata.RunReportRequest{
		DateRanges: []*analyticsdata.DateRange{{StartDate: req.StartDate, EndDate: req.EndDate}},
		Limit:      req.Limit,
	}

	for _, name := range req.Dimensions {
		out.Dimensions = append(out.Dimensions, &analyticsdata.Dimension{Name: name})
	}
	for _, name := range req.Metrics {
		out.Metrics = append(out.Metrics, &analyticsdata.Metric{Name: name})
	}
	for _, o := range req.OrderBys {
		ob := &analyticsdata.OrderBy{Desc: o.Desc}
		switch {
		case o.Metric != "":
			ob.Metric = &analyticsdata.MetricOrderBy{MetricName: o.Metric}
		case o.Dimension != "":
			ob.Dimension = &analyticsdata.DimensionOrderBy{DimensionName: o.Dimension}
		default:
			continue
		}
		out.OrderBys = append(out.OrderBys, ob)
	}

	return out
}

func mapRow(row *analyticsdata.Row) driven.ReportRow {
	out := driven.ReportRow{
		DimensionValues: make([]string, 0, len(row.DimensionValues)),
		MetricValues:    make([]string, 0, len(row.MetricValues)),
	}
	for _, v := range row.DimensionValues {
		if v == nil {
			out.DimensionValues = append(out.DimensionValues, "")
			continue
		}
		out.DimensionValues = append(out.DimensionValues, v.Value)
	}
	for _, v := range row.MetricValues {
		if v == nil {
			out.MetricValues = append(out.MetricValues, "")
			continue
		}
		out.MetricValues = append(out.MetricValues, v.Value)
	}
	return out
}
