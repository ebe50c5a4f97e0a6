package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncReminderCreated is a no-op.
func (n *NoopRecorder) IncReminderCreated(repeat string) {}

// IncReminderCompleted is a no-op.
func (n *NoopRecorder) IncReminderCompleted(repeat, outcome string) {}

// IncCompletionConflict is a no-op.
func (n *NoopRecorder) IncCompletionConflict() {}

// IncIdempotentReplay is a no-op.
func (n *NoopRecorder) IncIdempotentReplay() {}

// IncHealthRecordChanged is a no-op.
func (n *NoopRecorder) IncHealthRecordChanged(op string) {}

// IncCompletionEventPublished is a no-op.
func (n *NoopRecorder) IncCompletionEventPublished(status string) {}

// IncCompletionEventProcessed is a no-op.
func (n *NoopRecorder) IncCompletionEventProcessed(status string) {}

// ObserveCompletionEventBatch is a no-op.
func (n *NoopRecorder) ObserveCompletionEventBatch(size int, duration time.Duration) {}

// SetCompletionEventQueueDepth is a no-op.
func (n *NoopRecorder) SetCompletionEventQueueDepth(depth int64) {}

// ObserveHTTPRequest is a no-op.
func (n *NoopRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {}
