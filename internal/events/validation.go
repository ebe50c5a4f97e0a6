package events

import (
	"errors"
	"fmt"

	"github.com/carenote/carenote/internal/model"
)

const maxIDLength = 64

// ValidatePayload checks a decoded payload before it reaches the stats store.
func ValidatePayload(p CompletionPayload) error {
	if p.ReminderID == "" {
		return errors.New("reminder id is required")
	}
	if p.OwnerID == "" {
		return errors.New("owner id is required")
	}
	if len(p.ReminderID) > maxIDLength || len(p.OwnerID) > maxIDLength {
		return errors.New("id too long")
	}
	if !model.Repeat(p.Repeat).IsValid() {
		return fmt.Errorf("unknown repeat %q", p.Repeat)
	}
	switch model.CompletionOutcome(p.Outcome) {
	case model.OutcomeFinalized, model.OutcomeAdvanced:
	default:
		return fmt.Errorf("unexpected outcome %q", p.Outcome)
	}
	if p.ScheduledFor <= 0 || p.CompletedAt <= 0 {
		return errors.New("timestamps must be set")
	}
	return nil
}
