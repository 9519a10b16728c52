package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	TriggerSignal = "signal"
	TriggerPoll   = "poll"
)

// PollMetrics records change-detection refreshes.
type PollMetrics struct {
	refreshes *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewPollMetrics registers the poll metrics on the provided registerer.
func NewPollMetrics(reg prometheus.Registerer) *PollMetrics {
	if reg == nil {
		return &PollMetrics{}
	}
	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "watch_refresh_total",
		Help: "Refreshes run by change watchers, by trigger.",
	}, []string{"watcher", "trigger"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "watch_refresh_duration_seconds",
		Help:    "Duration of watcher refreshes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"watcher"})
	reg.MustRegister(refreshes, duration)
	return &PollMetrics{refreshes: refreshes, duration: duration}
}

// IncRefresh counts one refresh for the named watcher.
func (p *PollMetrics) IncRefresh(watcher, trigger string) {
	if p == nil || p.refreshes == nil {
		return
	}
	p.refreshes.WithLabelValues(normalizeLabel(watcher), normalizeLabel(trigger)).Inc()
}

// ObserveDuration records how long a refresh took.
func (p *PollMetrics) ObserveDuration(watcher string, d time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(watcher)).Observe(d.Seconds())
}
