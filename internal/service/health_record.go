package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carenote/carenote/internal/clock"
	"github.com/carenote/carenote/internal/metrics"
	"github.com/carenote/carenote/internal/model"
	"github.com/carenote/carenote/internal/repository"
)

// ErrHealthRecordNotFound is returned for missing or foreign records.
var ErrHealthRecordNotFound = errors.New("health record not found")

// HealthRecordStore persists health records.
type HealthRecordStore interface {
	CreateHealthRecord(ctx context.Context, rec *model.HealthRecord) error
	GetHealthRecordByID(ctx context.Context, id string) (*model.HealthRecord, error)
	ListHealthRecordsByOwner(ctx context.Context, ownerID string) ([]*model.HealthRecord, error)
	UpdateHealthRecord(ctx context.Context, rec *model.HealthRecord) error
	DeleteHealthRecord(ctx context.Context, id string) error
}

// HealthRecordService handles health record business logic.
type HealthRecordService struct {
	store   HealthRecordStore
	clock   clock.Clock
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewHealthRecordService creates a new HealthRecordService.
func NewHealthRecordService(store HealthRecordStore, clk clock.Clock, recorder metrics.Recorder, logger *slog.Logger) *HealthRecordService {
	if clk == nil {
		clk = clock.System()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthRecordService{store: store, clock: clk, metrics: recorder, logger: logger}
}

// Create validates input and stores a new record.
func (s *HealthRecordService) Create(ctx context.Context, ownerID string, input model.HealthRecordInput) (*model.HealthRecord, error) {
	rec, err := model.NewHealthRecord(input, ownerID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateHealthRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create health record: %w", err)
	}

	s.metrics.IncHealthRecordChanged("created")
	s.logger.Info("health_record_created",
		slog.String("record_id", rec.ID),
		slog.String("owner_id", ownerID),
		slog.String("type", string(rec.Type)),
	)
	return rec, nil
}

// List returns the owner's records matching recordType and query.
// An empty or "all" recordType matches every type.
func (s *HealthRecordService) List(ctx context.Context, ownerID, recordType, query string) ([]*model.HealthRecord, error) {
	records, err := s.store.ListHealthRecordsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list health records: %w", err)
	}

	out := make([]*model.HealthRecord, 0, len(records))
	for _, rec := range records {
		if rec.Matches(recordType, query) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Get returns one of the owner's records.
func (s *HealthRecordService) Get(ctx context.Context, ownerID, id string) (*model.HealthRecord, error) {
	rec, err := s.store.GetHealthRecordByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrHealthRecordNotFound) {
			return nil, ErrHealthRecordNotFound
		}
		return nil, fmt.Errorf("failed to get health record: %w", err)
	}
	if rec.OwnerID != ownerID {
		return nil, ErrHealthRecordNotFound
	}
	return rec, nil
}

// Update applies a partial update to one of the owner's records.
func (s *HealthRecordService) Update(ctx context.Context, ownerID, id string, input model.HealthRecordInput) (*model.HealthRecord, error) {
	rec, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if err := rec.Apply(input, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.store.UpdateHealthRecord(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrHealthRecordNotFound) {
			return nil, ErrHealthRecordNotFound
		}
		return nil, fmt.Errorf("failed to update health record: %w", err)
	}

	s.metrics.IncHealthRecordChanged("updated")
	return rec, nil
}

// Delete removes one of the owner's records.
func (s *HealthRecordService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.store.DeleteHealthRecord(ctx, id); err != nil {
		if errors.Is(err, repository.ErrHealthRecordNotFound) {
			return ErrHealthRecordNotFound
		}
		return fmt.Errorf("failed to delete health record: %w", err)
	}

	s.metrics.IncHealthRecordChanged("deleted")
	s.logger.Info("health_record_deleted",
		slog.String("record_id", id),
		slog.String("owner_id", ownerID),
	)
	return nil
}
