package application

import (
	"time"

	"github.com/ericfisherdev/wppanel/internal/domain/model"
)

// Static data served while GA4 is not connected.

func demoOverview() model.OverviewMetrics {
	return model.OverviewMetrics{
		Sessions:           12420,
		TotalUsers:         8234,
		PageViews:          45231,
		BounceRate:         "24.5%",
		AvgSessionDuration: "3m 24s",
		Source:             model.DataSourceDemo,
	}
}

func demoTopPages() []model.TopPage {
	return []model.TopPage{
		{Path: "/", Title: "Home - CVLTURE", PageViews: 8234, Sessions: 5432},
		{Path: "/negozio", Title: "Shop - CVLTURE", PageViews: 5432, Sessions: 3845},
		{Path: "/events", Title: "Events - CVLTURE", PageViews: 3845, Sessions: 2567},
		{Path: "/about", Title: "About - CVLTURE", PageViews: 2156, Sessions: 1432},
	}
}

func demoTrafficSources() []model.TrafficSource {
	return []model.TrafficSource{
		{SourceMedium: "direct / (none)", Sessions: 5620, Users: 4120, Percentage: 45.2},
		{SourceMedium: "instagram.com / social", Sessions: 3567, Users: 2834, Percentage: 28.7},
		{SourceMedium: "google / organic", Sessions: 2345, Users: 1876, Percentage: 18.9},
		{SourceMedium: "facebook.com / social", Sessions: 892, Users: 678, Percentage: 7.2},
	}
}

// demoDailyVisitors returns the 30 days before now with a fixed weekly
// pattern so repeated calls on the same day agree.
func demoDailyVisitors(now time.Time) []model.DailyVisitors {
	pattern := [7]int64{0, 35, 60, 20, -15, 90, 45}
	start := now.AddDate(0, 0, -30)

	days := make([]model.DailyVisitors, 0, 30)
	for i := range 30 {
		day := start.AddDate(0, 0, i)
		users := 200 + pattern[int(day.Weekday())]
		days = append(days, model.DailyVisitors{
			Date:      day.Format(time.DateOnly),
			Users:     users,
			Sessions:  users * 13 / 10,
			PageViews: users * 21 / 10,
		})
	}
	return days
}
