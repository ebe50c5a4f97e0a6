// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
type Recorder interface {
	// Reminder metrics
	IncReminderCreated(repeat string)
	IncReminderCompleted(repeat, outcome string)
	IncCompletionConflict()
	IncIdempotentReplay()

	// Health record metrics; op is "created", "updated" or "deleted".
	IncHealthRecordChanged(op string)

	// Completion event pipeline
	IncCompletionEventPublished(status string) // status: "success" or "dropped"
	IncCompletionEventProcessed(status string) // status: "success", "failed" or "dead_lettered"
	ObserveCompletionEventBatch(size int, duration time.Duration)
	SetCompletionEventQueueDepth(depth int64)

	// HTTP metrics
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
