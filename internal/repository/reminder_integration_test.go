//go:build integration

package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/carenote/carenote/internal/model"
	"github.com/carenote/carenote/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ============================================================================
// Reminder Repository Integration Tests
// ============================================================================

func TestIntegrationReminderRepository_CreateAndGet(t *testing.T) {
	ctx, repo := newReminderTestEnv(t)

	remindAt := time.Date(2030, time.March, 4, 8, 0, 0, 0, time.UTC)
	reminder := testutil.NewTestReminder(t, "owner-1", model.RepeatWeekly, remindAt)
	reminder.Timezone = "Europe/Berlin"

	if err := repo.CreateReminder(ctx, reminder); err != nil {
		t.Fatalf("CreateReminder failed: %v", err)
	}

	got, err := repo.GetReminderByID(ctx, reminder.ID)
	if err != nil {
		t.Fatalf("GetReminderByID failed: %v", err)
	}
	if !got.RemindAt.Equal(remindAt) {
		t.Errorf("RemindAt = %s, want %s", got.RemindAt, remindAt)
	}
	if got.LocalTime != "08:00:00" {
		t.Errorf("LocalTime = %q, want 08:00:00", got.LocalTime)
	}
	if got.Repeat != model.RepeatWeekly || got.Timezone != "Europe/Berlin" || got.Version != 1 {
		t.Errorf("unexpected reminder: %+v", got)
	}

	if err := repo.CreateReminder(ctx, reminder); !errors.Is(err, ErrReminderExists) {
		t.Errorf("duplicate insert error = %v, want ErrReminderExists", err)
	}
}

func TestIntegrationReminderRepository_GetMissing(t *testing.T) {
	ctx, repo := newReminderTestEnv(t)

	_, err := repo.GetReminderByID(ctx, "does-not-exist")
	if !errors.Is(err, ErrReminderNotFound) {
		t.Errorf("error = %v, want ErrReminderNotFound", err)
	}
}

func TestIntegrationReminderRepository_ListOrdered(t *testing.T) {
	ctx, repo := newReminderTestEnv(t)

	base := time.Date(2030, time.January, 1, 9, 0, 0, 0, time.UTC)
	later := testutil.NewTestReminder(t, "owner-1", model.RepeatNone, base.Add(2*time.Hour))
	sooner := testutil.NewTestReminder(t, "owner-1", model.RepeatNone, base)
	other := testutil.NewTestReminder(t, "owner-2", model.RepeatNone, base)

	for _, r := range []*model.Reminder{later, sooner, other} {
		if err := repo.CreateReminder(ctx, r); err != nil {
			t.Fatalf("CreateReminder failed: %v", err)
		}
	}

	list, err := repo.ListRemindersByOwner(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ListRemindersByOwner failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].ID != sooner.ID || list[1].ID != later.ID {
		t.Errorf("order = [%s %s], want [%s %s]", list[0].ID, list[1].ID, sooner.ID, later.ID)
	}
}

func TestIntegrationReminderRepository_UpdateWithCompletion(t *testing.T) {
	ctx, repo := newReminderTestEnv(t)

	remindAt := time.Date(2030, time.March, 4, 8, 0, 0, 0, time.UTC)
	reminder := testutil.NewTestReminder(t, "owner-1", model.RepeatWeekly, remindAt)
	if err := repo.CreateReminder(ctx, reminder); err != nil {
		t.Fatalf("CreateReminder failed: %v", err)
	}

	result, err := model.Complete(reminder, remindAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	updated, err := repo.UpdateReminder(ctx, reminder.ID, reminder.Version, result.Patch)
	if err != nil {
		t.Fatalf("UpdateReminder failed: %v", err)
	}
	if updated.Version != 2 {
		t.Errorf("Version = %d, want 2", updated.Version)
	}
	if want := remindAt.AddDate(0, 0, 7); !updated.RemindAt.Equal(want) {
		t.Errorf("RemindAt = %s, want %s", updated.RemindAt, want)
	}
	if updated.Done {
		t.Error("weekly reminder should stay open")
	}

	completions, err := repo.ListCompletions(ctx, reminder.ID)
	if err != nil {
		t.Fatalf("ListCompletions failed: %v", err)
	}
	if len(completions) != 1 || !completions[0].ScheduledFor.Equal(remindAt) {
		t.Errorf("completions = %+v", completions)
	}
}

func TestIntegrationReminderRepository_UpdateConflictAndMissing(t *testing.T) {
	ctx, repo := newReminderTestEnv(t)

	reminder := testutil.NewTestReminder(t, "owner-1", model.RepeatNone, time.Now().Add(time.Hour))
	if err := repo.CreateReminder(ctx, reminder); err != nil {
		t.Fatalf("CreateReminder failed: %v", err)
	}

	done := true
	patch := model.ReminderPatch{Done: &done, UpdatedAt: time.Now().UTC()}
	_, err := repo.UpdateReminder(ctx, reminder.ID, reminder.Version+5, patch)
	if !errors.Is(err, ErrVersionConflict) {
		t.Errorf("stale version error = %v, want ErrVersionConflict", err)
	}

	_, err = repo.UpdateReminder(ctx, "missing", 1, patch)
	if !errors.Is(err, ErrReminderNotFound) {
		t.Errorf("missing reminder error = %v, want ErrReminderNotFound", err)
	}

	_, err = repo.UpdateReminder(ctx, reminder.ID, reminder.Version, model.ReminderPatch{Done: &done})
	if !errors.Is(err, model.ErrInvariantViolation) {
		t.Errorf("untimestamped patch error = %v, want ErrInvariantViolation", err)
	}
}

func TestIntegrationReminderRepository_ConcurrentCAS(t *testing.T) {
	ctx, repo := newReminderTestEnv(t)

	reminder := testutil.NewTestReminder(t, "owner-1", model.RepeatDaily, time.Now().Add(time.Hour))
	if err := repo.CreateReminder(ctx, reminder); err != nil {
		t.Fatalf("CreateReminder failed: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := model.Complete(reminder, time.Now())
			if err != nil {
				errs <- err
				return
			}
			_, err = repo.UpdateReminder(ctx, reminder.ID, reminder.Version, result.Patch)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrVersionConflict):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("successful updates = %d, want 1", wins)
	}

	completions, err := repo.ListCompletions(ctx, reminder.ID)
	if err != nil {
		t.Fatalf("ListCompletions failed: %v", err)
	}
	if len(completions) != 1 {
		t.Errorf("completions = %d, want 1", len(completions))
	}
}

func TestIntegrationMigrate_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	dbURL := testutil.RequireEnv(t, "TEST_DATABASE_URL")
	dir, err := testutil.MigrationsDir()
	if err != nil {
		t.Fatalf("MigrationsDir failed: %v", err)
	}

	first, err := Migrate(dbURL, dir)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	second, err := Migrate(dbURL, dir)
	if err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
	if first != second || first == 0 {
		t.Errorf("versions = %d then %d", first, second)
	}
}

// ============================================================================
// Test Helpers
// ============================================================================

func newReminderTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "TEST_DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetSchema(ctx, pool); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, NewWithPool(pool)
}
