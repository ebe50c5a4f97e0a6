package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/carenote/carenote/internal/model"
	"github.com/jackc/pgx/v5"
)

// Common errors for reminder repository operations.
var (
	ErrReminderNotFound = errors.New("reminder not found")
	ErrReminderExists   = errors.New("reminder already exists")
	ErrVersionConflict  = errors.New("reminder version conflict")
)

const reminderColumns = `id, owner_id, title, message, remind_at, timezone, local_time, repeat_interval, done, version, last_completed_at, created_at, updated_at`

// CreateReminder inserts a new reminder into the database.
func (r *Repository) CreateReminder(ctx context.Context, reminder *model.Reminder) error {
	query := `
		INSERT INTO reminders (` + reminderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		reminder.ID,
		reminder.OwnerID,
		reminder.Title,
		reminder.Message,
		reminder.RemindAt,
		reminder.Timezone,
		reminder.LocalTime,
		reminder.Repeat,
		reminder.Done,
		reminder.Version,
		reminder.LastCompletedAt,
		reminder.CreatedAt,
		reminder.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrReminderExists
		}
		return fmt.Errorf("failed to create reminder: %w", err)
	}

	return nil
}

// GetReminderByID retrieves a reminder by its ID.
func (r *Repository) GetReminderByID(ctx context.Context, id string) (*model.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE id = $1
	`

	reminder, err := scanReminder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}

	return reminder, nil
}

// ListRemindersByOwner returns every reminder of an owner, soonest first.
func (r *Repository) ListRemindersByOwner(ctx context.Context, ownerID string) ([]*model.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE owner_id = $1
		ORDER BY remind_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	reminders := make([]*model.Reminder, 0)
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, reminder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}

	return reminders, nil
}

// UpdateReminder applies patch to the reminder if its stored version still
// equals expectedVersion. The completion carried by the patch, if any, is
// inserted in the same transaction.
func (r *Repository) UpdateReminder(ctx context.Context, id string, expectedVersion int64, patch model.ReminderPatch) (*model.Reminder, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		UPDATE reminders
		SET remind_at = COALESCE($3, remind_at),
			done = COALESCE($4, done),
			last_completed_at = COALESCE($5, last_completed_at),
			updated_at = $6,
			version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING ` + reminderColumns

	reminder, err := scanReminder(tx.QueryRow(ctx, query,
		id,
		expectedVersion,
		patch.RemindAt,
		patch.Done,
		patch.LastCompletedAt,
		patch.UpdatedAt,
	))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to update reminder: %w", err)
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reminders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check reminder: %w", err)
		}
		if !exists {
			return nil, ErrReminderNotFound
		}
		return nil, ErrVersionConflict
	}

	if c := patch.Completion; c != nil {
		insert := `
			INSERT INTO reminder_completions (id, reminder_id, owner_id, scheduled_for, completed_at, next_remind_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := tx.Exec(ctx, insert,
			c.ID,
			c.ReminderID,
			c.OwnerID,
			c.ScheduledFor,
			c.CompletedAt,
			c.NextRemindAt,
		); err != nil {
			return nil, fmt.Errorf("failed to record completion: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reminder update: %w", err)
	}

	return reminder, nil
}

// ListCompletions returns a reminder's completion history, newest first.
func (r *Repository) ListCompletions(ctx context.Context, reminderID string) ([]*model.Completion, error) {
	query := `
		SELECT id, reminder_id, owner_id, scheduled_for, completed_at, next_remind_at
		FROM reminder_completions
		WHERE reminder_id = $1
		ORDER BY completed_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, reminderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}
	defer rows.Close()

	completions := make([]*model.Completion, 0)
	for rows.Next() {
		var c model.Completion
		if err := rows.Scan(
			&c.ID,
			&c.ReminderID,
			&c.OwnerID,
			&c.ScheduledFor,
			&c.CompletedAt,
			&c.NextRemindAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		c.ScheduledFor = c.ScheduledFor.UTC()
		c.CompletedAt = c.CompletedAt.UTC()
		completions = append(completions, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completions: %w", err)
	}

	return completions, nil
}

// scanReminder scans a single row into a Reminder model.
func scanReminder(row pgx.Row) (*model.Reminder, error) {
	var reminder model.Reminder

	err := row.Scan(
		&reminder.ID,
		&reminder.OwnerID,
		&reminder.Title,
		&reminder.Message,
		&reminder.RemindAt,
		&reminder.Timezone,
		&reminder.LocalTime,
		&reminder.Repeat,
		&reminder.Done,
		&reminder.Version,
		&reminder.LastCompletedAt,
		&reminder.CreatedAt,
		&reminder.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	reminder.RemindAt = reminder.RemindAt.UTC()
	reminder.CreatedAt = reminder.CreatedAt.UTC()
	reminder.UpdatedAt = reminder.UpdatedAt.UTC()
	if reminder.LastCompletedAt != nil {
		t := reminder.LastCompletedAt.UTC()
		reminder.LastCompletedAt = &t
	}

	return &reminder, nil
}
