package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/carenote/carenote/internal/model"
)

func validPayload() CompletionPayload {
	return CompletionPayload{
		ReminderID:   "01HRM0000000000000000000",
		OwnerID:      "usr_1",
		Repeat:       "weekly",
		Outcome:      "advanced",
		ScheduledFor: time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC).UnixMilli(),
		CompletedAt:  time.Date(2024, time.March, 4, 8, 3, 0, 0, time.UTC).UnixMilli(),
	}
}

func TestValidatePayload(t *testing.T) {
	t.Parallel()

	if err := ValidatePayload(validPayload()); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(p *CompletionPayload)
	}{
		{"missing_reminder_id", func(p *CompletionPayload) { p.ReminderID = "" }},
		{"missing_owner_id", func(p *CompletionPayload) { p.OwnerID = "" }},
		{"long_owner_id", func(p *CompletionPayload) { p.OwnerID = string(make([]byte, 65)) }},
		{"unknown_repeat", func(p *CompletionPayload) { p.Repeat = "hourly" }},
		{"noop_outcome", func(p *CompletionPayload) { p.Outcome = "noop" }},
		{"missing_completed_at", func(p *CompletionPayload) { p.CompletedAt = 0 }},
	}

	for _, tc := range cases {
		p := validPayload()
		tc.mutate(&p)
		if err := ValidatePayload(p); err == nil {
			t.Errorf("expected error for %s", tc.name)
		}
	}
}

func TestPayload_EventRoundTrip(t *testing.T) {
	t.Parallel()

	event := &model.CompletionEvent{
		ReminderID:   "rem_1",
		OwnerID:      "usr_1",
		Repeat:       model.RepeatMonthly,
		Outcome:      model.OutcomeAdvanced,
		ScheduledFor: time.Date(2024, time.January, 31, 9, 0, 0, 0, time.UTC),
		CompletedAt:  time.Date(2024, time.January, 31, 9, 0, 1, 500_000_000, time.UTC),
	}

	got := PayloadFromEvent(event).Event("1700000000000-0")
	want := *event
	want.EventID = "1700000000000-0"
	if diff := cmp.Diff(&want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeMessage(t *testing.T) {
	t.Parallel()

	encoded, err := json.Marshal(validPayload())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	invalid, err := json.Marshal(CompletionPayload{ReminderID: "rem_1"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	tests := []struct {
		name       string
		values     map[string]interface{}
		wantReason string
	}{
		{name: "valid", values: map[string]interface{}{"payload": string(encoded)}},
		{name: "missing payload", values: map[string]interface{}{"other": "x"}, wantReason: "invalid_format"},
		{name: "not json", values: map[string]interface{}{"payload": "{"}, wantReason: "unmarshal_error"},
		{name: "invalid fields", values: map[string]interface{}{"payload": string(invalid)}, wantReason: "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, reason, err := decodeMessage(redis.XMessage{ID: "1-0", Values: tt.values})
			if reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", reason, tt.wantReason)
			}
			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if event.EventID != "1-0" || event.OwnerID != "usr_1" {
					t.Errorf("event = %+v", event)
				}
				return
			}
			if err == nil || event != nil {
				t.Errorf("expected failure, got event=%v err=%v", event, err)
			}
		})
	}
}

func TestIsConsumerGroupExistsError(t *testing.T) {
	t.Parallel()

	if !isConsumerGroupExistsError(errors.New("BUSYGROUP Consumer Group name already exists")) {
		t.Error("BUSYGROUP error not recognised")
	}
	if isConsumerGroupExistsError(errors.New("ERR no such key")) || isConsumerGroupExistsError(nil) {
		t.Error("unrelated error treated as BUSYGROUP")
	}
}
