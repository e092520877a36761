package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestOrderMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetrics(reg)
	m.ObserveGroup("cart", 250*time.Millisecond, nil)
	m.ObserveGroup("cart", 10*time.Millisecond, errors.New("boom"))
	m.IncStatusChange("shipped")
	m.IncNotificationFailure("status_change")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	expectCounter(t, mfs, "orders_created_total", "path", "cart", 1)
	expectCounter(t, mfs, "order_group_failures_total", "path", "cart", 1)
	expectCounter(t, mfs, "order_status_changes_total", "status", "shipped", 1)
	expectCounter(t, mfs, "order_notifications_failed_total", "kind", "status_change", 1)

	if got, err := fetchHistogramCount(mfs, "order_group_duration_seconds", "path", "cart"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got != 2 {
		t.Fatalf("expected 2 duration samples, got %d", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	m := NewOrderMetrics(nil)
	m.ObserveGroup("cart", time.Second, nil)
	m.IncStatusChange("")
	m.IncNotificationFailure("")

	var nilMetrics *OrderMetrics
	nilMetrics.IncStatusChange("pending")

	h := NewHTTPMetrics(nil)
	h.Observe(http.MethodGet, "/orders/{order_id}", http.StatusOK, time.Millisecond)
}

func TestHTTPMetricsLabelsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHTTPMetrics(reg)
	h.Observe(http.MethodGet, "/orders/{order_id}", http.StatusNotFound, 5*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	expectCounter(t, mfs, "http_requests_total", "route", "/orders/{order_id}", 1)
	expectCounter(t, mfs, "http_requests_total", "status", "404", 1)
}

func expectCounter(t *testing.T, mfs []*dto.MetricFamily, name, label, value string, want float64) {
	t.Helper()
	got, err := fetchCounterValue(mfs, name, label, value)
	if err != nil {
		t.Fatalf("fetch %s: %v", name, err)
	}
	if got != want {
		t.Fatalf("expected %s=%v, got %v", name, want, got)
	}
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

func fetchHistogramCount(mfs []*dto.MetricFamily, name, label, value string) (uint64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleCount(), nil
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

func TestJobMetricsSplitsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)
	m.ObserveRun("order-expiry", time.Second, nil)
	m.ObserveRun("order-expiry", time.Second, errors.New("db down"))
	m.AddAffected("order-expiry", 3)
	m.AddAffected("order-expiry", 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	expectCounter(t, mfs, "sweeper_job_runs_total", "result", "ok", 1)
	expectCounter(t, mfs, "sweeper_job_runs_total", "result", "failed", 1)
	expectCounter(t, mfs, "sweeper_job_affected_total", "job", "order-expiry", 3)
	if got, err := fetchHistogramCount(mfs, "sweeper_job_duration_seconds", "job", "order-expiry"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got != 2 {
		t.Fatalf("expected 2 duration samples, got %d", got)
	}

	var nilMetrics *JobMetrics
	nilMetrics.ObserveRun("x", time.Second, nil)
	NewJobMetrics(nil).AddAffected("x", 1)
}
