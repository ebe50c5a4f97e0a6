package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "carenote"

// PrometheusRecorder implements Recorder on a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	remindersCreated    *prometheus.CounterVec
	remindersCompleted  *prometheus.CounterVec
	completionConflicts prometheus.Counter
	idempotentReplays   prometheus.Counter
	healthRecordChanges *prometheus.CounterVec
	eventsPublished     *prometheus.CounterVec
	eventsProcessed     *prometheus.CounterVec
	eventBatchSize      prometheus.Histogram
	eventBatchDuration  prometheus.Histogram
	eventQueueDepth     prometheus.Gauge
	httpDuration        *prometheus.HistogramVec
}

// NewPrometheus creates a recorder and registers its collectors, plus the
// Go runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()

	p := &PrometheusRecorder{
		registry: reg,
		remindersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_created_total",
			Help:      "Reminders created, by repeat cadence.",
		}, []string{"repeat"}),
		remindersCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_completed_total",
			Help:      "Mark-done requests applied, by repeat cadence and outcome.",
		}, []string{"repeat", "outcome"}),
		completionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_completion_conflicts_total",
			Help:      "Mark-done requests rejected by a concurrent update.",
		}),
		idempotentReplays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_completion_replays_total",
			Help:      "Mark-done requests answered from a stored idempotency key.",
		}),
		healthRecordChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "health_records_changed_total",
			Help:      "Health record writes, by operation.",
		}, []string{"op"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_events_published_total",
			Help:      "Completion events offered to the stream, by status.",
		}, []string{"status"}),
		eventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_events_processed_total",
			Help:      "Completion events consumed from the stream, by status.",
		}, []string{"status"}),
		eventBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_event_batch_size",
			Help:      "Events per applied batch.",
			Buckets:   []float64{1, 5, 10, 50, 100, 250, 500},
		}),
		eventBatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_event_batch_duration_seconds",
			Help:      "Time spent applying a batch to the stats store.",
			Buckets:   prometheus.DefBuckets,
		}),
		eventQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "completion_event_queue_depth",
			Help:      "Pending plus unread entries for the stats consumer group.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method, route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		p.remindersCreated,
		p.remindersCompleted,
		p.completionConflicts,
		p.idempotentReplays,
		p.healthRecordChanges,
		p.eventsPublished,
		p.eventsProcessed,
		p.eventBatchSize,
		p.eventBatchDuration,
		p.eventQueueDepth,
		p.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return p
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) IncReminderCreated(repeat string) {
	p.remindersCreated.WithLabelValues(repeat).Inc()
}

func (p *PrometheusRecorder) IncReminderCompleted(repeat, outcome string) {
	p.remindersCompleted.WithLabelValues(repeat, outcome).Inc()
}

func (p *PrometheusRecorder) IncCompletionConflict() {
	p.completionConflicts.Inc()
}

func (p *PrometheusRecorder) IncIdempotentReplay() {
	p.idempotentReplays.Inc()
}

func (p *PrometheusRecorder) IncHealthRecordChanged(op string) {
	p.healthRecordChanges.WithLabelValues(op).Inc()
}

func (p *PrometheusRecorder) IncCompletionEventPublished(status string) {
	p.eventsPublished.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) IncCompletionEventProcessed(status string) {
	p.eventsProcessed.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) ObserveCompletionEventBatch(size int, duration time.Duration) {
	p.eventBatchSize.Observe(float64(size))
	p.eventBatchDuration.Observe(duration.Seconds())
}

func (p *PrometheusRecorder) SetCompletionEventQueueDepth(depth int64) {
	p.eventQueueDepth.Set(float64(depth))
}

func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
