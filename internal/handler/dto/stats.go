package dto

import (
	"time"

	"github.com/carenote/carenote/internal/service"
)

// DailyStatResponse is one day of completion counts.
type DailyStatResponse struct {
	Day         string `json:"day"`
	Completions int64  `json:"completions"`
	Late        int64  `json:"late"`
	OnTime      int64  `json:"onTime"`
}

// StatsTotals sums the window.
type StatsTotals struct {
	Completions int64 `json:"completions"`
	Late        int64 `json:"late"`
	OnTime      int64 `json:"onTime"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Days   []DailyStatResponse `json:"days"`
	Totals StatsTotals         `json:"totals"`
}

// ToStatsResponse converts a service report.
func ToStatsResponse(report *service.StatsReport) StatsResponse {
	days := make([]DailyStatResponse, 0, len(report.Days))
	for _, d := range report.Days {
		days = append(days, DailyStatResponse{
			Day:         d.Day.Format(time.DateOnly),
			Completions: d.Completions,
			Late:        d.Late,
			OnTime:      d.OnTime(),
		})
	}
	return StatsResponse{
		Days: days,
		Totals: StatsTotals{
			Completions: report.Completions,
			Late:        report.Late,
			OnTime:      report.OnTime(),
		},
	}
}
