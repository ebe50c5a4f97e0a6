package model

import "time"

// ReminderStatus is the derived due-state of a reminder.
type ReminderStatus string

const (
	StatusPending ReminderStatus = "pending"
	StatusOverdue ReminderStatus = "overdue"
	StatusDone    ReminderStatus = "done"
)

// Classify derives the status of r relative to now.
func Classify(r *Reminder, now time.Time) ReminderStatus {
	if r.Done {
		return StatusDone
	}
	if r.RemindAt.Before(now) {
		return StatusOverdue
	}
	return StatusPending
}

// Status computes the current status of the reminder.
func (r *Reminder) Status(now time.Time) ReminderStatus {
	return Classify(r, now)
}

// IsOverdue returns true if the reminder is still open and its due instant has passed.
func (r *Reminder) IsOverdue(now time.Time) bool {
	return Classify(r, now) == StatusOverdue
}
