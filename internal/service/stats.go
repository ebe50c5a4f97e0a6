package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/carenote/carenote/internal/clock"
	"github.com/carenote/carenote/internal/model"
)

// MaxStatsDays bounds the window of a stats request.
const MaxStatsDays = 90

// StatsReader reads the daily completion projection.
type StatsReader interface {
	ListDailyCompletionStats(ctx context.Context, ownerID string, from, to time.Time) ([]model.DailyCompletionStat, error)
}

// StatsReport is a dense daily series ending today (UTC).
type StatsReport struct {
	Days        []model.DailyCompletionStat
	Completions int64
	Late        int64
}

// OnTime is the number of completions in the window that were not late.
func (r *StatsReport) OnTime() int64 {
	return r.Completions - r.Late
}

// StatsService answers adherence questions from completion events.
type StatsService struct {
	store StatsReader
	clock clock.Clock
}

// NewStatsService creates a new StatsService.
func NewStatsService(store StatsReader, clk clock.Clock) *StatsService {
	if clk == nil {
		clk = clock.System()
	}
	return &StatsService{store: store, clock: clk}
}

// Daily returns the owner's last days of completions, one entry per day
// including days without any.
func (s *StatsService) Daily(ctx context.Context, ownerID string, days int) (*StatsReport, error) {
	if days < 1 || days > MaxStatsDays {
		verr := &model.ValidationError{}
		verr.Add("days", "must be between 1 and "+strconv.Itoa(MaxStatsDays))
		return nil, verr
	}

	today := s.clock.Now().UTC().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -(days - 1))
	to := today.AddDate(0, 0, 1)

	stats, err := s.store.ListDailyCompletionStats(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily stats: %w", err)
	}

	byDay := make(map[string]model.DailyCompletionStat, len(stats))
	for _, stat := range stats {
		byDay[stat.Day.Format(time.DateOnly)] = stat
	}

	report := &StatsReport{Days: make([]model.DailyCompletionStat, 0, days)}
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		stat, ok := byDay[day.Format(time.DateOnly)]
		if !ok {
			stat = model.DailyCompletionStat{OwnerID: ownerID, Day: day}
		}
		report.Days = append(report.Days, stat)
		report.Completions += stat.Completions
		report.Late += stat.Late
	}
	return report, nil
}
