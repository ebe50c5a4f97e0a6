package memory

import (
	"context"
	"sync"
	"time"
)

type idemEntry struct {
	result    string
	done      bool
	expiresAt time.Time
}

// Idempotency is an in-process idempotency key registry.
type Idempotency struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]idemEntry
}

// NewIdempotency creates a registry whose keys expire after ttl.
func NewIdempotency(ttl time.Duration) *Idempotency {
	return &Idempotency{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]idemEntry),
	}
}

// Claim reserves key. It returns claimed=false with the stored result when
// the key was already completed, and claimed=false with an empty result while
// the first holder is still in flight.
func (i *Idempotency) Claim(_ context.Context, key string) (bool, string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if e, ok := i.entries[key]; ok && now.Before(e.expiresAt) {
		if e.done {
			return false, e.result, nil
		}
		return false, "", nil
	}

	i.entries[key] = idemEntry{expiresAt: now.Add(i.ttl)}
	return true, "", nil
}

// Complete stores the result for a claimed key.
func (i *Idempotency) Complete(_ context.Context, key, result string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.entries[key] = idemEntry{result: result, done: true, expiresAt: i.now().Add(i.ttl)}
	return nil
}

// Release forgets a claim so the key can be retried.
func (i *Idempotency) Release(_ context.Context, key string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	delete(i.entries, key)
	return nil
}
