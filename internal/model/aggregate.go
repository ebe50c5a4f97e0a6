package model

import "time"

// Summary holds the dashboard counters for a reminder collection.
type Summary struct {
	Active    int `json:"active"`
	Overdue   int `json:"overdue"`
	Completed int `json:"completed"`
}

// Active returns the reminders that are not done, in input order.
func Active(reminders []*Reminder) []*Reminder {
	out := make([]*Reminder, 0, len(reminders))
	for _, r := range reminders {
		if !r.Done {
			out = append(out, r)
		}
	}
	return out
}

// Completed returns the reminders that are done, in input order.
func Completed(reminders []*Reminder) []*Reminder {
	out := make([]*Reminder, 0, len(reminders))
	for _, r := range reminders {
		if r.Done {
			out = append(out, r)
		}
	}
	return out
}

// OverdueCount counts the active reminders that are overdue at now.
func OverdueCount(reminders []*Reminder, now time.Time) int {
	n := 0
	for _, r := range Active(reminders) {
		if Classify(r, now) == StatusOverdue {
			n++
		}
	}
	return n
}

// Summarize computes all three counters in one pass.
func Summarize(reminders []*Reminder, now time.Time) Summary {
	var s Summary
	for _, r := range reminders {
		switch Classify(r, now) {
		case StatusDone:
			s.Completed++
		case StatusOverdue:
			s.Active++
			s.Overdue++
		default:
			s.Active++
		}
	}
	return s
}
