package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestCartMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCartMetrics(reg)
	metrics.ObservePersist("local", 20*time.Millisecond)
	metrics.IncPersistFailure("remote", "add")
	metrics.IncPersistFailure("remote", "add")
	metrics.IncLoad("remote")
	metrics.IncCheckout("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "cart_persist_failures_total", "mirror", "remote"); err != nil {
		t.Fatalf("fetch failures: %v", err)
	} else if got != 2 {
		t.Fatalf("expected failures=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "cart_checkouts_total", "result", "unknown"); err != nil {
		t.Fatalf("fetch checkouts: %v", err)
	} else if got != 1 {
		t.Fatalf("expected checkouts=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "cart_persist_duration_seconds", "mirror", "local"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if got := testutil.ToFloat64(metrics.loads.WithLabelValues("remote")); got != 1 {
		t.Fatalf("expected loads=1, got %f", got)
	}
}

func TestNilCartMetricsAreNoops(t *testing.T) {
	var metrics *CartMetrics
	metrics.ObservePersist("local", time.Second)
	metrics.IncPersistFailure("local", "clear")
	metrics.IncLoad("empty")
	metrics.IncCheckout("ok")

	unregistered := NewCartMetrics(nil)
	unregistered.IncCheckout("ok")
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
