package driven

import "context"

// ReportOrder orders report rows by a metric or a dimension.
type ReportOrder struct {
	Metric    string
	Dimension string
	Desc      bool
}

// ReportRequest is a GA4 runReport query for one property.
type ReportRequest struct {
	PropertyID string
	StartDate  string
	EndDate    string
	Dimensions []string
	Metrics    []string
	OrderBys   []ReportOrder
	Limit      int64
}

// ReportRow holds dimension and metric values in request order.
type ReportRow struct {
	DimensionValues []string
	MetricValues    []string
}

// ReportRunner defines the driven port for the analytics reporting API.
type ReportRunner interface {
	RunReport(ctx context.Context, req ReportRequest) ([]ReportRow, error)
}
