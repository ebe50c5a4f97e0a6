package model

import (
	"sort"
	"time"
)

// LateAfter is how long after its scheduled instant an occurrence may be
// acknowledged and still count as on time.
const LateAfter = time.Hour

// CompletionEvent is a completion as delivered on the event stream.
type CompletionEvent struct {
	EventID      string // stream entry ID, unique per delivery
	ReminderID   string
	OwnerID      string
	Repeat       Repeat
	Outcome      CompletionOutcome
	ScheduledFor time.Time
	CompletedAt  time.Time
}

// NewCompletionEvent describes c for the event stream.
func NewCompletionEvent(c *Completion, repeat Repeat, outcome CompletionOutcome) *CompletionEvent {
	return &CompletionEvent{
		ReminderID:   c.ReminderID,
		OwnerID:      c.OwnerID,
		Repeat:       repeat,
		Outcome:      outcome,
		ScheduledFor: c.ScheduledFor.UTC(),
		CompletedAt:  c.CompletedAt.UTC(),
	}
}

// Late reports whether the occurrence was acknowledged after LateAfter.
func (e *CompletionEvent) Late() bool {
	return e.CompletedAt.Sub(e.ScheduledFor) > LateAfter
}

// Day is the UTC calendar day the event counts towards.
func (e *CompletionEvent) Day() time.Time {
	return e.CompletedAt.UTC().Truncate(24 * time.Hour)
}

// DailyCompletionStat counts one owner's completions on one UTC day.
type DailyCompletionStat struct {
	OwnerID     string    `json:"-"`
	Day         time.Time `json:"day"`
	Completions int64     `json:"completions"`
	Late        int64     `json:"late"`
}

// OnTime is the number of completions that were not late.
func (s DailyCompletionStat) OnTime() int64 {
	return s.Completions - s.Late
}

// AggregateDaily folds events into per-owner, per-day counters ordered by
// owner and then day.
func AggregateDaily(events []*CompletionEvent) []DailyCompletionStat {
	type key struct {
		owner string
		day   time.Time
	}
	acc := make(map[key]*DailyCompletionStat)
	for _, e := range events {
		k := key{owner: e.OwnerID, day: e.Day()}
		stat, ok := acc[k]
		if !ok {
			stat = &DailyCompletionStat{OwnerID: e.OwnerID, Day: k.day}
			acc[k] = stat
		}
		stat.Completions++
		if e.Late() {
			stat.Late++
		}
	}

	out := make([]DailyCompletionStat, 0, len(acc))
	for _, stat := range acc {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OwnerID != out[j].OwnerID {
			return out[i].OwnerID < out[j].OwnerID
		}
		return out[i].Day.Before(out[j].Day)
	})
	return out
}
