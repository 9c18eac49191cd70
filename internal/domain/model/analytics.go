package model

// DateRange is a GA4 date range. Values accept GA4 relative dates such as
// "30daysAgo" and "today" as well as YYYY-MM-DD.
type DateRange struct {
	StartDate string
	EndDate   string
}

// DefaultDateRange covers the last 30 days.
var DefaultDateRange = DateRange{StartDate: "30daysAgo", EndDate: "today"}

// OverviewMetrics summarizes site traffic for a date range.
type OverviewMetrics struct {
	Sessions           int64
	TotalUsers         int64
	PageViews          int64
	BounceRate         string // e.g. "24.5%".
	AvgSessionDuration string // e.g. "3m 24s".
	Source             DataSource
}

// TopPage is one row of the top pages report.
type TopPage struct {
	Path      string
	Title     string
	PageViews int64
	Sessions  int64
}

// TrafficSource is one row of the traffic sources report.
type TrafficSource struct {
	SourceMedium string
	Sessions     int64
	Users        int64
	Percentage   float64 // Share of total sessions, rounded to one decimal.
}

// DailyVisitors is one day of the daily visitors report.
type DailyVisitors struct {
	Date      string // YYYY-MM-DD.
	Users     int64
	Sessions  int64
	PageViews int64
}
