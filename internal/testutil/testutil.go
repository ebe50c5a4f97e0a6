// Package testutil holds helpers shared by unit and integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/carenote/carenote/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 731905

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema runs every down migration in reverse order, then every up
// migration in order, leaving an empty schema at the latest version.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	dir, err := MigrationsDir()
	if err != nil {
		return err
	}

	ups, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("list up migrations: %w", err)
	}
	downs, err := filepath.Glob(filepath.Join(dir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("list down migrations: %w", err)
	}
	sort.Strings(ups)
	sort.Sort(sort.Reverse(sort.StringSlice(downs)))

	for _, path := range append(downs, ups...) {
		sql, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", filepath.Base(path), err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", filepath.Base(path), err)
		}
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// MigrationsDir returns the absolute path of the SQL migrations.
func MigrationsDir() (string, error) {
	root, err := ProjectRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "migrations"), nil
}

// NewTestReminder creates an open reminder due at remindAt.
func NewTestReminder(t testing.TB, ownerID string, repeat model.Repeat, remindAt time.Time) *model.Reminder {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Reminder{
		ID:        UniqueID("rem"),
		OwnerID:   ownerID,
		Title:     "Take " + strings.ToLower(string(repeat)) + " medication",
		RemindAt:  remindAt.UTC().Truncate(time.Microsecond),
		Timezone:  "UTC",
		LocalTime: model.LocalTimeOf(remindAt.UTC()).String(),
		Repeat:    repeat,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestHealthRecord creates a record with sensible defaults.
func NewTestHealthRecord(t testing.TB, ownerID string, recordType model.RecordType, title string) *model.HealthRecord {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.HealthRecord{
		ID:        UniqueID("rec"),
		OwnerID:   ownerID,
		Type:      recordType,
		Title:     title,
		Notes:     map[string]string{},
		Meta:      map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

var idSeq atomic.Uint64

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), idSeq.Add(1))
}
