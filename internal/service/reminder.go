// Package service provides business logic for the application.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carenote/carenote/internal/clock"
	"github.com/carenote/carenote/internal/metrics"
	"github.com/carenote/carenote/internal/model"
	"github.com/carenote/carenote/internal/repository"
)

// Service errors.
var (
	ErrReminderNotFound     = errors.New("reminder not found")
	ErrConcurrencyConflict  = errors.New("reminder was modified concurrently")
	ErrCompletionInProgress = errors.New("completion with this idempotency key is in progress")
)

// ReminderStore persists reminders and their completion history.
type ReminderStore interface {
	CreateReminder(ctx context.Context, reminder *model.Reminder) error
	ListRemindersByOwner(ctx context.Context, ownerID string) ([]*model.Reminder, error)
	GetReminderByID(ctx context.Context, id string) (*model.Reminder, error)
	UpdateReminder(ctx context.Context, id string, expectedVersion int64, patch model.ReminderPatch) (*model.Reminder, error)
	ListCompletions(ctx context.Context, reminderID string) ([]*model.Completion, error)
}

// IdempotencyStore remembers the outcome of keyed requests.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string) (claimed bool, result string, err error)
	Complete(ctx context.Context, key, result string) error
	Release(ctx context.Context, key string) error
}

// CompletionPublisher is told about every completion that changed a
// reminder. It must not block.
type CompletionPublisher interface {
	PublishCompletion(event *model.CompletionEvent)
}

// ReminderView is a reminder with its status at the time it was read.
type ReminderView struct {
	Reminder *model.Reminder
	Status   model.ReminderStatus
}

// ReminderListing is the dashboard projection of an owner's reminders.
// Every status in it was computed against Now.
type ReminderListing struct {
	Reminders []ReminderView
	Active    []ReminderView
	Completed []ReminderView
	Summary   model.Summary
	Now       time.Time
}

// MarkDoneResult is the outcome of a mark-done request.
type MarkDoneResult struct {
	Reminder *model.Reminder         `json:"reminder"`
	Outcome  model.CompletionOutcome `json:"outcome"`
	Status   model.ReminderStatus    `json:"status"`
	// Replayed is set when the result was served from an idempotency key.
	Replayed bool `json:"-"`
}

// ReminderServiceConfig holds the collaborators of a ReminderService.
type ReminderServiceConfig struct {
	Store ReminderStore
	// Idempotency is optional; without it Idempotency-Key headers are ignored.
	Idempotency IdempotencyStore
	// Events is optional.
	Events          CompletionPublisher
	Clock           clock.Clock
	DefaultLocation *time.Location
	Metrics         metrics.Recorder
	Logger          *slog.Logger
}

// ReminderService handles reminder business logic.
type ReminderService struct {
	store      ReminderStore
	idem       IdempotencyStore
	events     CompletionPublisher
	clock      clock.Clock
	defaultLoc *time.Location
	metrics    metrics.Recorder
	logger     *slog.Logger
}

// NewReminderService creates a new ReminderService.
func NewReminderService(cfg ReminderServiceConfig) *ReminderService {
	s := &ReminderService{
		store:      cfg.Store,
		idem:       cfg.Idempotency,
		events:     cfg.Events,
		clock:      cfg.Clock,
		defaultLoc: cfg.DefaultLocation,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
	if s.clock == nil {
		s.clock = clock.System()
	}
	if s.defaultLoc == nil {
		s.defaultLoc = time.UTC
	}
	if s.metrics == nil {
		s.metrics = metrics.NewNoop()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Create validates input and stores a new reminder for ownerID.
func (s *ReminderService) Create(ctx context.Context, ownerID string, input model.CreateReminderInput) (*ReminderView, error) {
	now := s.clock.Now()
	reminder, err := model.NewReminder(input, ownerID, now, s.defaultLoc)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateReminder(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	s.metrics.IncReminderCreated(string(reminder.Repeat))
	s.logger.Info("reminder_created",
		slog.String("reminder_id", reminder.ID),
		slog.String("owner_id", ownerID),
		slog.String("repeat", string(reminder.Repeat)),
		slog.Time("remind_at", reminder.RemindAt),
	)

	return &ReminderView{Reminder: reminder, Status: model.Classify(reminder, now)}, nil
}

// List loads the owner's reminders and classifies them against one instant.
func (s *ReminderService) List(ctx context.Context, ownerID string) (*ReminderListing, error) {
	reminders, err := s.store.ListRemindersByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}

	now := s.clock.Now()
	return &ReminderListing{
		Reminders: annotate(reminders, now),
		Active:    annotate(model.Active(reminders), now),
		Completed: annotate(model.Completed(reminders), now),
		Summary:   model.Summarize(reminders, now),
		Now:       now,
	}, nil
}

func annotate(reminders []*model.Reminder, now time.Time) []ReminderView {
	views := make([]ReminderView, 0, len(reminders))
	for _, r := range reminders {
		views = append(views, ReminderView{Reminder: r, Status: model.Classify(r, now)})
	}
	return views
}

// Get returns one of the owner's reminders with its current status.
func (s *ReminderService) Get(ctx context.Context, ownerID, id string) (*ReminderView, error) {
	reminder, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return &ReminderView{Reminder: reminder, Status: model.Classify(reminder, s.clock.Now())}, nil
}

// Completions returns the completion history of one of the owner's reminders.
func (s *ReminderService) Completions(ctx context.Context, ownerID, id string) ([]*model.Completion, error) {
	if _, err := s.load(ctx, ownerID, id); err != nil {
		return nil, err
	}

	completions, err := s.store.ListCompletions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}
	return completions, nil
}

// MarkDone acknowledges the current occurrence of a reminder.
//
// The store update is a compare-and-swap on the version that was read, so
// of two concurrent calls only one advances the reminder and the other gets
// ErrConcurrencyConflict. When idempotencyKey is non-empty and an
// IdempotencyStore is configured, a repeated key replays the first outcome.
func (s *ReminderService) MarkDone(ctx context.Context, ownerID, id, idempotencyKey string) (*MarkDoneResult, error) {
	if idempotencyKey == "" || s.idem == nil {
		return s.markDone(ctx, ownerID, id)
	}

	key := ownerID + ":" + id + ":" + idempotencyKey
	claimed, stored, err := s.idem.Claim(ctx, key)
	if err != nil {
		s.logger.Warn("idempotency store unavailable",
			slog.String("reminder_id", id),
			slog.String("error", err.Error()),
		)
		return s.markDone(ctx, ownerID, id)
	}

	if !claimed {
		if stored == "" {
			return nil, ErrCompletionInProgress
		}
		var replay MarkDoneResult
		if err := json.Unmarshal([]byte(stored), &replay); err != nil {
			return nil, fmt.Errorf("decode stored completion: %w", err)
		}
		replay.Replayed = true
		s.metrics.IncIdempotentReplay()
		return &replay, nil
	}

	result, err := s.markDone(ctx, ownerID, id)
	if err != nil {
		if relErr := s.idem.Release(ctx, key); relErr != nil {
			s.logger.Warn("failed to release idempotency key",
				slog.String("reminder_id", id),
				slog.String("error", relErr.Error()),
			)
		}
		return nil, err
	}

	if encoded, err := json.Marshal(result); err == nil {
		if err := s.idem.Complete(ctx, key, string(encoded)); err != nil {
			s.logger.Warn("failed to store idempotency result",
				slog.String("reminder_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	return result, nil
}

func (s *ReminderService) markDone(ctx context.Context, ownerID, id string) (*MarkDoneResult, error) {
	current, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	completion, err := model.Complete(current, now)
	if err != nil {
		s.logger.Error("reminder completion rejected",
			slog.String("reminder_id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to complete reminder %s: %w", id, err)
	}

	if completion.Outcome == model.OutcomeNoop {
		return &MarkDoneResult{
			Reminder: completion.Reminder,
			Outcome:  completion.Outcome,
			Status:   model.Classify(completion.Reminder, now),
		}, nil
	}

	updated, err := s.store.UpdateReminder(ctx, current.ID, current.Version, completion.Patch)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			s.metrics.IncCompletionConflict()
			s.logger.Info("reminder_completion_conflict",
				slog.String("reminder_id", id),
				slog.Int64("version", current.Version),
			)
			return nil, ErrConcurrencyConflict
		case errors.Is(err, repository.ErrReminderNotFound):
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("failed to update reminder: %w", err)
	}

	s.metrics.IncReminderCompleted(string(updated.Repeat), string(completion.Outcome))
	if s.events != nil && completion.Patch.Completion != nil {
		s.events.PublishCompletion(model.NewCompletionEvent(completion.Patch.Completion, updated.Repeat, completion.Outcome))
	}
	s.logger.Info("reminder_completed",
		slog.String("reminder_id", id),
		slog.String("owner_id", ownerID),
		slog.String("outcome", string(completion.Outcome)),
		slog.Time("remind_at", updated.RemindAt),
		slog.Int64("version", updated.Version),
	)

	return &MarkDoneResult{
		Reminder: updated,
		Outcome:  completion.Outcome,
		Status:   model.Classify(updated, now),
	}, nil
}

// load fetches a reminder and hides other owners' reminders as not found.
func (s *ReminderService) load(ctx context.Context, ownerID, id string) (*model.Reminder, error) {
	reminder, err := s.store.GetReminderByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReminderNotFound) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	if reminder.OwnerID != ownerID {
		return nil, ErrReminderNotFound
	}
	return reminder, nil
}
