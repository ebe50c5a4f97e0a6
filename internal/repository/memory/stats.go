package memory

import (
	"context"
	"time"

	"github.com/carenote/carenote/internal/model"
)

// ApplyCompletionEvents records events by EventID; repeats are ignored.
func (s *Store) ApplyCompletionEvents(_ context.Context, events []*model.CompletionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		if _, seen := s.events[e.EventID]; seen {
			continue
		}
		cp := *e
		s.events[e.EventID] = &cp
	}
	return nil
}

// ListDailyCompletionStats aggregates the owner's events for days in
// [from, to), oldest first.
func (s *Store) ListDailyCompletionStats(_ context.Context, ownerID string, from, to time.Time) ([]model.DailyCompletionStat, error) {
	s.mu.RLock()
	owned := make([]*model.CompletionEvent, 0)
	for _, e := range s.events {
		if e.OwnerID == ownerID {
			owned = append(owned, e)
		}
	}
	s.mu.RUnlock()

	start := from.UTC().Truncate(24 * time.Hour)
	out := make([]model.DailyCompletionStat, 0)
	for _, stat := range model.AggregateDaily(owned) {
		if !stat.Day.Before(start) && stat.Day.Before(to) {
			out = append(out, stat)
		}
	}
	return out, nil
}
