package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/carenote/carenote/internal/model"
	"github.com/jackc/pgx/v5"
)

// Common errors for health record repository operations.
var (
	ErrHealthRecordNotFound = errors.New("health record not found")
)

const healthRecordColumns = `id, owner_id, record_type, title, notes, meta, created_at, updated_at`

// CreateHealthRecord inserts a new health record.
func (r *Repository) CreateHealthRecord(ctx context.Context, rec *model.HealthRecord) error {
	notes, meta, err := marshalRecordDocs(rec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO health_records (` + healthRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.pool.Exec(ctx, query,
		rec.ID,
		rec.OwnerID,
		rec.Type,
		rec.Title,
		notes,
		meta,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create health record: %w", err)
	}

	return nil
}

// GetHealthRecordByID retrieves a health record by its ID.
func (r *Repository) GetHealthRecordByID(ctx context.Context, id string) (*model.HealthRecord, error) {
	query := `
		SELECT ` + healthRecordColumns + `
		FROM health_records
		WHERE id = $1
	`

	rec, err := scanHealthRecord(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHealthRecordNotFound
		}
		return nil, fmt.Errorf("failed to get health record: %w", err)
	}

	return rec, nil
}

// ListHealthRecordsByOwner returns an owner's records, newest first.
func (r *Repository) ListHealthRecordsByOwner(ctx context.Context, ownerID string) ([]*model.HealthRecord, error) {
	query := `
		SELECT ` + healthRecordColumns + `
		FROM health_records
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list health records: %w", err)
	}
	defer rows.Close()

	records := make([]*model.HealthRecord, 0)
	for rows.Next() {
		rec, err := scanHealthRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan health record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating health records: %w", err)
	}

	return records, nil
}

// UpdateHealthRecord overwrites the mutable fields of a record.
func (r *Repository) UpdateHealthRecord(ctx context.Context, rec *model.HealthRecord) error {
	notes, meta, err := marshalRecordDocs(rec)
	if err != nil {
		return err
	}

	query := `
		UPDATE health_records
		SET record_type = $2, title = $3, notes = $4, meta = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.Type,
		rec.Title,
		notes,
		meta,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update health record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrHealthRecordNotFound
	}

	return nil
}

// DeleteHealthRecord removes a record.
func (r *Repository) DeleteHealthRecord(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM health_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete health record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrHealthRecordNotFound
	}

	return nil
}

func marshalRecordDocs(rec *model.HealthRecord) ([]byte, []byte, error) {
	notes, err := json.Marshal(orEmpty(rec.Notes))
	if err != nil {
		return nil, nil, fmt.Errorf("marshal notes: %w", err)
	}
	var meta []byte
	if rec.Meta == nil {
		meta = []byte("{}")
	} else if meta, err = json.Marshal(rec.Meta); err != nil {
		return nil, nil, fmt.Errorf("marshal meta: %w", err)
	}
	return notes, meta, nil
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func scanHealthRecord(row pgx.Row) (*model.HealthRecord, error) {
	var rec model.HealthRecord
	var notes, meta []byte

	err := row.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.Type,
		&rec.Title,
		&notes,
		&meta,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Notes = map[string]string{}
	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &rec.Notes); err != nil {
			return nil, fmt.Errorf("decode notes: %w", err)
		}
	}
	rec.Meta = map[string]any{}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &rec.Meta); err != nil {
			return nil, fmt.Errorf("decode meta: %w", err)
		}
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()

	return &rec, nil
}
