package model

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// CompletionOutcome describes what a mark-done did to a reminder.
type CompletionOutcome string

const (
	// OutcomeFinalized means a one-off reminder became done.
	OutcomeFinalized CompletionOutcome = "finalized"
	// OutcomeAdvanced means a repeating reminder moved to its next occurrence.
	OutcomeAdvanced CompletionOutcome = "advanced"
	// OutcomeNoop means the reminder was already done; nothing changed.
	OutcomeNoop CompletionOutcome = "noop"
)

// Completion is one acknowledged occurrence in a reminder's history.
type Completion struct {
	ID           string     `json:"id"`
	ReminderID   string     `json:"reminderId"`
	OwnerID      string     `json:"ownerId"`
	ScheduledFor time.Time  `json:"scheduledFor"`
	CompletedAt  time.Time  `json:"completedAt"`
	NextRemindAt *time.Time `json:"nextRemindAt,omitempty"`
}

// CompletionResult is the outcome of Complete.
type CompletionResult struct {
	Reminder *Reminder
	Outcome  CompletionOutcome
	// Patch turns the input reminder into Reminder. It is the zero value
	// when Outcome is OutcomeNoop.
	Patch ReminderPatch
}

// Complete applies a mark-done at now to a copy of r; r itself is not modified.
//
// A one-off reminder becomes done and keeps its remindAt. A repeating
// reminder stays open and moves to the occurrence after its previous
// remindAt, not after now, so a late acknowledgement never shifts the
// schedule. Every occurrence is placed at the reminder's Anchor time of day.
// Completing a one-off reminder that is already done is a no-op.
func Complete(r *Reminder, now time.Time) (*CompletionResult, error) {
	if !r.Repeat.IsValid() {
		return nil, fmt.Errorf("%w: reminder %s has unknown cadence %q", ErrInvariantViolation, r.ID, r.Repeat)
	}

	if r.Repeat == RepeatNone && r.Done {
		return &CompletionResult{Reminder: r.Clone(), Outcome: OutcomeNoop}, nil
	}

	completedAt := now.UTC()
	completion := &Completion{
		ID:           ulid.Make().String(),
		ReminderID:   r.ID,
		OwnerID:      r.OwnerID,
		ScheduledFor: r.RemindAt.UTC(),
		CompletedAt:  completedAt,
	}

	patch := ReminderPatch{
		LastCompletedAt: &completedAt,
		UpdatedAt:       completedAt,
		Completion:      completion,
	}

	outcome := OutcomeFinalized
	if r.Repeat == RepeatNone {
		done := true
		patch.Done = &done
	} else {
		next, err := NextOccurrenceAt(r.RemindAt.In(r.Location()), r.Repeat, r.Anchor())
		if err != nil {
			return nil, err
		}
		next = next.UTC()
		open := false
		patch.Done = &open
		patch.RemindAt = &next
		completion.NextRemindAt = &next
		outcome = OutcomeAdvanced
	}

	updated := r.Clone()
	patch.Apply(updated)

	return &CompletionResult{Reminder: updated, Outcome: outcome, Patch: patch}, nil
}
