// Package model defines domain entities for the application.
package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

// Repeat is the cadence that governs recurrence after completion.
type Repeat string

const (
	RepeatNone    Repeat = "none"
	RepeatDaily   Repeat = "daily"
	RepeatWeekly  Repeat = "weekly"
	RepeatMonthly Repeat = "monthly"
)

// ValidRepeats contains every recognized cadence.
var ValidRepeats = []Repeat{RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly}

// IsValid checks if the cadence is one of the recognized values.
func (r Repeat) IsValid() bool {
	switch r {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly:
		return true
	}
	return false
}

// IsRecurring returns true for every valid cadence other than none.
func (r Repeat) IsRecurring() bool {
	return r.IsValid() && r != RepeatNone
}

// Reminder limits.
const (
	MaxTitleLength   = 200
	MaxMessageLength = 2000
)

// Accepted layouts for remindAt. RFC 3339 carries its own offset; the
// zone-less layouts are what an HTML datetime-local input posts and are
// read in the reminder's timezone.
var localLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// Reminder is one scheduled, possibly repeating, health reminder.
type Reminder struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"ownerId"`
	Title           string     `json:"title"`
	Message         string     `json:"message,omitempty"`
	RemindAt        time.Time  `json:"remindAt"`
	Timezone        string     `json:"timezone"`
	LocalTime       string     `json:"localTime,omitempty"`
	Repeat          Repeat     `json:"repeat"`
	Done            bool       `json:"done"`
	Version         int64      `json:"version"`
	LastCompletedAt *time.Time `json:"lastCompletedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// CreateReminderInput is the raw create-reminder payload.
type CreateReminderInput struct {
	Title    string
	Message  string
	RemindAt string
	Repeat   string
	Timezone string
}

// NewReminder validates input and builds a fresh reminder owned by ownerID.
// now is the creation instant; remindAt may not precede the minute it falls in.
// defaultLoc is used when the input names no timezone.
func NewReminder(input CreateReminderInput, ownerID string, now time.Time, defaultLoc *time.Location) (*Reminder, error) {
	verr := &ValidationError{}

	if ownerID == "" {
		verr.Add("owner", "is required")
	}

	title := strings.TrimSpace(input.Title)
	switch {
	case title == "":
		verr.Add("title", "is required")
	case utf8.RuneCountInString(title) > MaxTitleLength:
		verr.Add("title", "is too long")
	}

	message := strings.TrimSpace(input.Message)
	if utf8.RuneCountInString(message) > MaxMessageLength {
		verr.Add("message", "is too long")
	}

	repeat := Repeat(strings.ToLower(strings.TrimSpace(input.Repeat)))
	if repeat == "" {
		repeat = RepeatNone
	}
	if !repeat.IsValid() {
		verr.Add("repeat", "must be one of none, daily, weekly, monthly")
	}

	loc := defaultLoc
	if loc == nil {
		loc = time.UTC
	}
	if tz := strings.TrimSpace(input.Timezone); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			verr.Add("timezone", "is not a known IANA time zone")
		} else {
			loc = parsed
		}
	}

	remindAt, wall, ok := parseRemindAt(input.RemindAt, loc)
	switch {
	case strings.TrimSpace(input.RemindAt) == "":
		verr.Add("remindAt", "is required")
	case !ok:
		verr.Add("remindAt", "must be an ISO-8601 date-time")
	case remindAt.Before(now.Truncate(time.Minute)):
		verr.Add("remindAt", "must not be in the past")
	}

	if err := verr.ErrorOrNil(); err != nil {
		return nil, err
	}

	created := now.UTC()
	return &Reminder{
		ID:        ulid.Make().String(),
		OwnerID:   ownerID,
		Title:     title,
		Message:   message,
		RemindAt:  remindAt.UTC(),
		Timezone:  loc.String(),
		LocalTime: wall.String(),
		Repeat:    repeat,
		Done:      false,
		Version:   1,
		CreatedAt: created,
		UpdatedAt: created,
	}, nil
}

// ParseRemindAt parses an RFC 3339 instant, or a zone-less local
// date-time read in loc.
func ParseRemindAt(raw string, loc *time.Location) (time.Time, bool) {
	t, _, ok := parseRemindAt(raw, loc)
	return t, ok
}

// parseRemindAt also returns the wall-clock time the user asked for. For a
// zone-less value that falls in a daylight-saving gap this is the written
// time, not the one time.Date moved it to.
func parseRemindAt(raw string, loc *time.Location) (time.Time, LocalTime, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, LocalTime{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, LocalTimeOf(t.In(loc)), true
	}
	for _, layout := range localLayouts {
		written, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		y, m, d := written.Date()
		h, mi, sec := written.Clock()
		return time.Date(y, m, d, h, mi, sec, 0, loc), LocalTimeOf(written), true
	}
	return time.Time{}, LocalTime{}, false
}

// Anchor returns the time of day occurrences are pinned to, stored in
// LocalTime. Reminders stored without one fall back to the wall clock of
// RemindAt.
func (r *Reminder) Anchor() LocalTime {
	if r.LocalTime != "" {
		if at, err := ParseLocalTime(r.LocalTime); err == nil {
			return at
		}
	}
	return LocalTimeOf(r.RemindAt.In(r.Location()))
}

// Location returns the reminder's timezone, falling back to UTC when the
// stored name cannot be loaded.
func (r *Reminder) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Clone returns a deep copy of the reminder.
func (r *Reminder) Clone() *Reminder {
	c := *r
	if r.LastCompletedAt != nil {
		t := *r.LastCompletedAt
		c.LastCompletedAt = &t
	}
	return &c
}

// ReminderPatch lists the fields a store update may change.
// Nil fields are left untouched.
type ReminderPatch struct {
	RemindAt        *time.Time
	Done            *bool
	LastCompletedAt *time.Time
	UpdatedAt       time.Time

	// Completion, when set, is appended to the reminder's history in the
	// same atomic step as the update.
	Completion *Completion
}

// Validate rejects a patch that stores would have to timestamp themselves.
func (p ReminderPatch) Validate() error {
	if p.UpdatedAt.IsZero() {
		return fmt.Errorf("%w: reminder patch has no UpdatedAt", ErrInvariantViolation)
	}
	return nil
}

// Apply writes the patch onto r and bumps its version.
func (p ReminderPatch) Apply(r *Reminder) {
	if p.RemindAt != nil {
		r.RemindAt = p.RemindAt.UTC()
	}
	if p.Done != nil {
		r.Done = *p.Done
	}
	if p.LastCompletedAt != nil {
		t := p.LastCompletedAt.UTC()
		r.LastCompletedAt = &t
	}
	if !p.UpdatedAt.IsZero() {
		r.UpdatedAt = p.UpdatedAt.UTC()
	}
	r.Version++
}
