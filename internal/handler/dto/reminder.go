// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/carenote/carenote/internal/model"
	"github.com/carenote/carenote/internal/service"
)

// CreateReminderRequest represents the request body for creating a reminder.
type CreateReminderRequest struct {
	Title    string `json:"title"`
	Message  string `json:"message,omitempty"`
	RemindAt string `json:"remindAt"`
	Repeat   string `json:"repeat,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// ToInput converts the request into service input.
func (r CreateReminderRequest) ToInput() model.CreateReminderInput {
	return model.CreateReminderInput{
		Title:    r.Title,
		Message:  r.Message,
		RemindAt: r.RemindAt,
		Repeat:   r.Repeat,
		Timezone: r.Timezone,
	}
}

// ReminderResponse represents a reminder in API responses.
type ReminderResponse struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Message         string     `json:"message,omitempty"`
	RemindAt        time.Time  `json:"remindAt"`
	Timezone        string     `json:"timezone"`
	LocalTime       string     `json:"localTime,omitempty"`
	Repeat          string     `json:"repeat"`
	Done            bool       `json:"done"`
	Status          string     `json:"status"`
	Version         int64      `json:"version"`
	LastCompletedAt *time.Time `json:"lastCompletedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ReminderEnvelope wraps a single reminder.
type ReminderEnvelope struct {
	Reminder *ReminderResponse `json:"reminder"`
}

// ReminderListResponse is the dashboard view of an owner's reminders.
type ReminderListResponse struct {
	Reminders []ReminderResponse `json:"reminders"`
	Active    []ReminderResponse `json:"active"`
	Completed []ReminderResponse `json:"completed"`
	Summary   model.Summary      `json:"summary"`
	Now       time.Time          `json:"now"`
}

// MarkDoneResponse is returned by the mark-done endpoint.
type MarkDoneResponse struct {
	Reminder *ReminderResponse `json:"reminder"`
	Outcome  string            `json:"outcome"`
}

// CompletionListResponse lists a reminder's completion history.
type CompletionListResponse struct {
	Completions []*model.Completion `json:"completions"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ToReminderResponse converts a Reminder model to ReminderResponse DTO.
func ToReminderResponse(r *model.Reminder, status model.ReminderStatus) *ReminderResponse {
	return &ReminderResponse{
		ID:              r.ID,
		Title:           r.Title,
		Message:         r.Message,
		RemindAt:        r.RemindAt,
		Timezone:        r.Timezone,
		LocalTime:       r.LocalTime,
		Repeat:          string(r.Repeat),
		Done:            r.Done,
		Status:          string(status),
		Version:         r.Version,
		LastCompletedAt: r.LastCompletedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func toReminderResponses(views []service.ReminderView) []ReminderResponse {
	out := make([]ReminderResponse, 0, len(views))
	for _, v := range views {
		out = append(out, *ToReminderResponse(v.Reminder, v.Status))
	}
	return out
}

// ToReminderListResponse converts a listing. A completedLimit above zero
// keeps only the first completedLimit completed reminders.
func ToReminderListResponse(listing *service.ReminderListing, completedLimit int) *ReminderListResponse {
	completed := toReminderResponses(listing.Completed)
	if completedLimit > 0 && len(completed) > completedLimit {
		completed = completed[:completedLimit]
	}

	return &ReminderListResponse{
		Reminders: toReminderResponses(listing.Reminders),
		Active:    toReminderResponses(listing.Active),
		Completed: completed,
		Summary:   listing.Summary,
		Now:       listing.Now,
	}
}

// ToMarkDoneResponse converts a mark-done result.
func ToMarkDoneResponse(result *service.MarkDoneResult) *MarkDoneResponse {
	return &MarkDoneResponse{
		Reminder: ToReminderResponse(result.Reminder, result.Status),
		Outcome:  string(result.Outcome),
	}
}
