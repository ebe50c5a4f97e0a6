package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters. Map counters are keyed by
// cadence, outcome and operation respectively.
type Snapshot struct {
	RemindersCreated    map[string]uint64
	RemindersCompleted  map[string]uint64
	CompletionConflicts uint64
	IdempotentReplays   uint64
	HealthRecordChanges map[string]uint64
	EventsPublished     map[string]uint64
	EventsProcessed     map[string]uint64
	EventBatches        uint64
	EventQueueDepth     int64
	HTTPRequests        uint64
	HTTPDurationTotalNs int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu                  sync.Mutex
	remindersCreated    map[string]uint64
	remindersCompleted  map[string]uint64
	healthRecordChanges map[string]uint64
	eventsPublished     map[string]uint64
	eventsProcessed     map[string]uint64

	completionConflicts uint64
	eventBatches        uint64
	eventQueueDepth     int64
	idempotentReplays   uint64
	httpRequests        uint64
	httpDurationTotalNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		remindersCreated:    make(map[string]uint64),
		remindersCompleted:  make(map[string]uint64),
		healthRecordChanges: make(map[string]uint64),
		eventsPublished:     make(map[string]uint64),
		eventsProcessed:     make(map[string]uint64),
	}
}

func copyCounts(m map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		RemindersCreated:    copyCounts(m.remindersCreated),
		RemindersCompleted:  copyCounts(m.remindersCompleted),
		CompletionConflicts: atomic.LoadUint64(&m.completionConflicts),
		IdempotentReplays:   atomic.LoadUint64(&m.idempotentReplays),
		HealthRecordChanges: copyCounts(m.healthRecordChanges),
		EventsPublished:     copyCounts(m.eventsPublished),
		EventsProcessed:     copyCounts(m.eventsProcessed),
		EventBatches:        atomic.LoadUint64(&m.eventBatches),
		EventQueueDepth:     atomic.LoadInt64(&m.eventQueueDepth),
		HTTPRequests:        atomic.LoadUint64(&m.httpRequests),
		HTTPDurationTotalNs: atomic.LoadInt64(&m.httpDurationTotalNs),
	}
}

// IncReminderCreated increments the created counter for a cadence.
func (m *InMemoryRecorder) IncReminderCreated(repeat string) {
	m.mu.Lock()
	m.remindersCreated[repeat]++
	m.mu.Unlock()
}

// IncReminderCompleted increments the completed counter for an outcome.
func (m *InMemoryRecorder) IncReminderCompleted(_, outcome string) {
	m.mu.Lock()
	m.remindersCompleted[outcome]++
	m.mu.Unlock()
}

// IncCompletionConflict increments the lost compare-and-swap counter.
func (m *InMemoryRecorder) IncCompletionConflict() {
	atomic.AddUint64(&m.completionConflicts, 1)
}

// IncIdempotentReplay increments the idempotent replay counter.
func (m *InMemoryRecorder) IncIdempotentReplay() {
	atomic.AddUint64(&m.idempotentReplays, 1)
}

// IncHealthRecordChanged increments the health record counter for op.
func (m *InMemoryRecorder) IncHealthRecordChanged(op string) {
	m.mu.Lock()
	m.healthRecordChanges[op]++
	m.mu.Unlock()
}

// IncCompletionEventPublished counts a publish attempt by status.
func (m *InMemoryRecorder) IncCompletionEventPublished(status string) {
	m.mu.Lock()
	m.eventsPublished[status]++
	m.mu.Unlock()
}

// IncCompletionEventProcessed counts a consumed event by status.
func (m *InMemoryRecorder) IncCompletionEventProcessed(status string) {
	m.mu.Lock()
	m.eventsProcessed[status]++
	m.mu.Unlock()
}

// ObserveCompletionEventBatch counts an applied batch.
func (m *InMemoryRecorder) ObserveCompletionEventBatch(_ int, _ time.Duration) {
	atomic.AddUint64(&m.eventBatches, 1)
}

// SetCompletionEventQueueDepth stores the last observed backlog.
func (m *InMemoryRecorder) SetCompletionEventQueueDepth(depth int64) {
	atomic.StoreInt64(&m.eventQueueDepth, depth)
}

// ObserveHTTPRequest records a served request.
func (m *InMemoryRecorder) ObserveHTTPRequest(_, _ string, _ int, duration time.Duration) {
	atomic.AddUint64(&m.httpRequests, 1)
	atomic.AddInt64(&m.httpDurationTotalNs, duration.Nanoseconds())
}
