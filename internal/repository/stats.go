package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/carenote/carenote/internal/model"
)

// ApplyCompletionEvents stores events, ignoring event IDs already seen, and
// recalculates the daily stats of every owner/day they touch.
func (r *Repository) ApplyCompletionEvents(ctx context.Context, events []*model.CompletionEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insert := `
		INSERT INTO completion_events (
			event_id, reminder_id, owner_id, repeat_interval, outcome,
			scheduled_for, completed_at, late
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(insert,
			e.EventID,
			e.ReminderID,
			e.OwnerID,
			e.Repeat,
			e.Outcome,
			e.ScheduledFor,
			e.CompletedAt,
			e.Late(),
		)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range events {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("batch insert event %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	recalc := `
		INSERT INTO daily_completion_stats (owner_id, day, completions, late, updated_at)
		SELECT $1, $2::date, COUNT(*), COUNT(*) FILTER (WHERE late), NOW()
		FROM completion_events
		WHERE owner_id = $1 AND completed_at >= $3 AND completed_at < $4
		ON CONFLICT (owner_id, day) DO UPDATE
		SET completions = EXCLUDED.completions,
			late = EXCLUDED.late,
			updated_at = EXCLUDED.updated_at
	`
	for _, key := range model.AggregateDaily(events) {
		start := key.Day
		end := start.Add(24 * time.Hour)
		if _, err := tx.Exec(ctx, recalc, key.OwnerID, start, start, end); err != nil {
			return fmt.Errorf("recalculate daily stat %s:%s: %w", key.OwnerID, start.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit completion events: %w", err)
	}
	return nil
}

// ListDailyCompletionStats returns the owner's stats for days in [from, to),
// oldest first. Days without completions are omitted.
func (r *Repository) ListDailyCompletionStats(ctx context.Context, ownerID string, from, to time.Time) ([]model.DailyCompletionStat, error) {
	query := `
		SELECT owner_id, day, completions, late
		FROM daily_completion_stats
		WHERE owner_id = $1 AND day >= $2::date AND day < $3::date
		ORDER BY day ASC
	`

	rows, err := r.pool.Query(ctx, query, ownerID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list daily stats: %w", err)
	}
	defer rows.Close()

	stats := make([]model.DailyCompletionStat, 0)
	for rows.Next() {
		var s model.DailyCompletionStat
		if err := rows.Scan(&s.OwnerID, &s.Day, &s.Completions, &s.Late); err != nil {
			return nil, fmt.Errorf("failed to scan daily stat: %w", err)
		}
		s.Day = time.Date(s.Day.Year(), s.Day.Month(), s.Day.Day(), 0, 0, 0, 0, time.UTC)
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily stats: %w", err)
	}
	return stats, nil
}
