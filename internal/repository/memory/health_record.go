package memory

import (
	"context"
	"sort"

	"github.com/carenote/carenote/internal/model"
	"github.com/carenote/carenote/internal/repository"
)

func cloneRecord(rec *model.HealthRecord) *model.HealthRecord {
	c := *rec
	c.Notes = make(map[string]string, len(rec.Notes))
	for k, v := range rec.Notes {
		c.Notes[k] = v
	}
	c.Meta = make(map[string]any, len(rec.Meta))
	for k, v := range rec.Meta {
		c.Meta[k] = v
	}
	return &c
}

// CreateHealthRecord stores a copy of rec.
func (s *Store) CreateHealthRecord(_ context.Context, rec *model.HealthRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

// GetHealthRecordByID returns a copy of the stored record.
func (s *Store) GetHealthRecordByID(_ context.Context, id string) (*model.HealthRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, repository.ErrHealthRecordNotFound
	}
	return cloneRecord(rec), nil
}

// ListHealthRecordsByOwner returns an owner's records, newest first.
func (s *Store) ListHealthRecordsByOwner(_ context.Context, ownerID string) ([]*model.HealthRecord, error) {
	s.mu.RLock()
	out := make([]*model.HealthRecord, 0)
	for _, rec := range s.records {
		if rec.OwnerID == ownerID {
			out = append(out, cloneRecord(rec))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// UpdateHealthRecord replaces a stored record.
func (s *Store) UpdateHealthRecord(_ context.Context, rec *model.HealthRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; !ok {
		return repository.ErrHealthRecordNotFound
	}
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

// DeleteHealthRecord removes a record.
func (s *Store) DeleteHealthRecord(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return repository.ErrHealthRecordNotFound
	}
	delete(s.records, id)
	return nil
}
