package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInMemoryRecorder(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncReminderCreated("daily")
	m.IncReminderCreated("daily")
	m.IncReminderCreated("none")
	m.IncReminderCompleted("daily", "advanced")
	m.IncCompletionConflict()
	m.IncIdempotentReplay()
	m.IncHealthRecordChanged("created")
	m.IncCompletionEventPublished("success")
	m.IncCompletionEventProcessed("dead_lettered")
	m.ObserveCompletionEventBatch(3, time.Millisecond)
	m.SetCompletionEventQueueDepth(7)
	m.ObserveHTTPRequest("GET", "/api/reminders", 200, 5*time.Millisecond)

	snap := m.Snapshot()
	if snap.RemindersCreated["daily"] != 2 || snap.RemindersCreated["none"] != 1 {
		t.Errorf("RemindersCreated = %v", snap.RemindersCreated)
	}
	if snap.RemindersCompleted["advanced"] != 1 {
		t.Errorf("RemindersCompleted = %v", snap.RemindersCompleted)
	}
	if snap.CompletionConflicts != 1 || snap.IdempotentReplays != 1 {
		t.Errorf("conflicts/replays = %d/%d", snap.CompletionConflicts, snap.IdempotentReplays)
	}
	if snap.HealthRecordChanges["created"] != 1 {
		t.Errorf("HealthRecordChanges = %v", snap.HealthRecordChanges)
	}
	if snap.EventsPublished["success"] != 1 || snap.EventsProcessed["dead_lettered"] != 1 {
		t.Errorf("events = %v / %v", snap.EventsPublished, snap.EventsProcessed)
	}
	if snap.EventBatches != 1 || snap.EventQueueDepth != 7 {
		t.Errorf("batches/depth = %d/%d", snap.EventBatches, snap.EventQueueDepth)
	}
	if snap.HTTPRequests != 1 || snap.HTTPDurationTotalNs != int64(5*time.Millisecond) {
		t.Errorf("http = %d / %d", snap.HTTPRequests, snap.HTTPDurationTotalNs)
	}

	// Snapshot maps are copies.
	snap.RemindersCreated["daily"] = 99
	if m.Snapshot().RemindersCreated["daily"] != 2 {
		t.Error("snapshot aliases recorder state")
	}
}

func TestPrometheusRecorder_Exposition(t *testing.T) {
	t.Parallel()

	p := NewPrometheus()
	p.IncReminderCreated("weekly")
	p.IncReminderCompleted("weekly", "advanced")
	p.IncCompletionConflict()
	p.IncCompletionEventPublished("dropped")
	p.SetCompletionEventQueueDepth(4)
	p.ObserveHTTPRequest("POST", "/api/reminders/{id}/done", 409, 2*time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	text := string(body)
	for _, want := range []string{
		`carenote_reminders_created_total{repeat="weekly"} 1`,
		`carenote_reminders_completed_total{outcome="advanced",repeat="weekly"} 1`,
		`carenote_reminder_completion_conflicts_total 1`,
		`carenote_completion_events_published_total{status="dropped"} 1`,
		`carenote_completion_event_queue_depth 4`,
		`carenote_http_request_duration_seconds_count{method="POST",route="/api/reminders/{id}/done",status="409"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNoopRecorder(t *testing.T) {
	t.Parallel()

	r := NewNoop()
	r.IncReminderCreated("none")
	r.IncReminderCompleted("none", "finalized")
	r.IncCompletionConflict()
	r.IncIdempotentReplay()
	r.IncHealthRecordChanged("deleted")
	r.IncCompletionEventPublished("success")
	r.IncCompletionEventProcessed("failed")
	r.ObserveCompletionEventBatch(1, time.Millisecond)
	r.SetCompletionEventQueueDepth(0)
	r.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
}
