package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestSyncMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)
	m.IncFallback("all", "orders")
	m.IncFallback("all", "orders")
	m.IncLocalWrite("create", "orders")
	m.IncRemoteFailure("create", "")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "docstore_remote_fallback_total", "collection", "orders"); err != nil {
		t.Fatalf("fetch fallback: %v", err)
	} else if got != 2 {
		t.Fatalf("expected fallback=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "docstore_local_writes_total", "op", "create"); err != nil {
		t.Fatalf("fetch local writes: %v", err)
	} else if got != 1 {
		t.Fatalf("expected local writes=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "docstore_remote_write_failures_total", "collection", "unknown"); err != nil {
		t.Fatalf("fetch remote failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected remote failures=1, got %f", got)
	}
}

func TestPollMetricsExportsCounterAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPollMetrics(reg)
	m.IncRefresh("store-dashboard", TriggerPoll)
	m.IncRefresh("store-dashboard", TriggerSignal)
	m.ObserveDuration("store-dashboard", 10*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "watch_refresh_total", "trigger", TriggerPoll); err != nil {
		t.Fatalf("fetch refresh: %v", err)
	} else if got != 1 {
		t.Fatalf("expected poll refresh=1, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "watch_refresh_duration_seconds", "watcher", "store-dashboard"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewSyncMetrics(nil).IncFallback("all", "stores")
	NewPollMetrics(nil).IncRefresh("w", TriggerPoll)
	var m *SyncMetrics
	m.IncLocalWrite("set", "stores")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
