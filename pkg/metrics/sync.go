package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records how the dual-backend store is behaving.
type SyncMetrics struct {
	fallback      *prometheus.CounterVec
	localWrites   *prometheus.CounterVec
	remoteFailure *prometheus.CounterVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	fallback := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docstore_remote_fallback_total",
		Help: "Reads served from the local cache after a remote failure.",
	}, []string{"op", "collection"})
	localWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docstore_local_writes_total",
		Help: "Writes applied to the local cache.",
	}, []string{"op", "collection"})
	remoteFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docstore_remote_write_failures_total",
		Help: "Remote writes that failed and were swallowed.",
	}, []string{"op", "collection"})
	reg.MustRegister(fallback, localWrites, remoteFailure)
	return &SyncMetrics{
		fallback:      fallback,
		localWrites:   localWrites,
		remoteFailure: remoteFailure,
	}
}

// IncFallback counts a read that fell back to the local cache.
func (m *SyncMetrics) IncFallback(op, collection string) {
	if m == nil || m.fallback == nil {
		return
	}
	m.fallback.WithLabelValues(normalizeLabel(op), normalizeLabel(collection)).Inc()
}

// IncLocalWrite counts a successful local write.
func (m *SyncMetrics) IncLocalWrite(op, collection string) {
	if m == nil || m.localWrites == nil {
		return
	}
	m.localWrites.WithLabelValues(normalizeLabel(op), normalizeLabel(collection)).Inc()
}

// IncRemoteFailure counts a remote write that failed.
func (m *SyncMetrics) IncRemoteFailure(op, collection string) {
	if m == nil || m.remoteFailure == nil {
		return
	}
	m.remoteFailure.WithLabelValues(normalizeLabel(op), normalizeLabel(collection)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
