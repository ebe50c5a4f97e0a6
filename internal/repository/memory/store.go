// Package memory provides in-process implementations of the store contracts,
// used for the memory backend and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/carenote/carenote/internal/model"
	"github.com/carenote/carenote/internal/repository"
)

// Store keeps every entity in maps guarded by a single RWMutex. Returned
// entities are copies.
type Store struct {
	mu          sync.RWMutex
	reminders   map[string]*model.Reminder
	completions map[string][]*model.Completion
	records     map[string]*model.HealthRecord
	users       map[string]*model.User
	tokens      map[string]*model.AccessToken
	events      map[string]*model.CompletionEvent
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		reminders:   make(map[string]*model.Reminder),
		completions: make(map[string][]*model.Completion),
		records:     make(map[string]*model.HealthRecord),
		users:       make(map[string]*model.User),
		tokens:      make(map[string]*model.AccessToken),
		events:      make(map[string]*model.CompletionEvent),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// CreateReminder stores a copy of reminder.
func (s *Store) CreateReminder(_ context.Context, reminder *model.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reminders[reminder.ID]; ok {
		return repository.ErrReminderExists
	}
	s.reminders[reminder.ID] = reminder.Clone()
	return nil
}

// GetReminderByID returns a copy of the stored reminder.
func (s *Store) GetReminderByID(_ context.Context, id string) (*model.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reminders[id]
	if !ok {
		return nil, repository.ErrReminderNotFound
	}
	return r.Clone(), nil
}

// ListRemindersByOwner returns an owner's reminders ordered by remindAt, then id.
func (s *Store) ListRemindersByOwner(_ context.Context, ownerID string) ([]*model.Reminder, error) {
	s.mu.RLock()
	out := make([]*model.Reminder, 0)
	for _, r := range s.reminders {
		if r.OwnerID == ownerID {
			out = append(out, r.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].RemindAt.Equal(out[j].RemindAt) {
			return out[i].RemindAt.Before(out[j].RemindAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdateReminder applies patch when the stored version equals expectedVersion.
func (s *Store) UpdateReminder(_ context.Context, id string, expectedVersion int64, patch model.ReminderPatch) (*model.Reminder, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.reminders[id]
	if !ok {
		return nil, repository.ErrReminderNotFound
	}
	if current.Version != expectedVersion {
		return nil, repository.ErrVersionConflict
	}

	updated := current.Clone()
	patch.Apply(updated)
	s.reminders[id] = updated

	if c := patch.Completion; c != nil {
		cp := *c
		s.completions[id] = append(s.completions[id], &cp)
	}

	return updated.Clone(), nil
}

// ListCompletions returns a reminder's completion history, newest first.
func (s *Store) ListCompletions(_ context.Context, reminderID string) ([]*model.Completion, error) {
	s.mu.RLock()
	history := s.completions[reminderID]
	out := make([]*model.Completion, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		cp := *history[i]
		out = append(out, &cp)
	}
	s.mu.RUnlock()
	return out, nil
}
