package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/fx"
)

func TestMetricsExportCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveWrite("assign_driver", 120*time.Millisecond, nil)
	m.ObserveWrite("assign_driver", 80*time.Millisecond, errors.New("boom"))
	m.IncSkipped("assign_driver")
	m.IncRevert("move_to_column")
	m.IncDirty("complete")
	m.ObserveReconcile(nil)
	m.SetCachedOrders(12)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	checks := []struct {
		name, label, value string
		want               float64
	}{
		{"dispatchboard_remote_writes_total", "outcome", OutcomeSuccess, 1},
		{"dispatchboard_remote_writes_total", "outcome", OutcomeFailure, 1},
		{"dispatchboard_remote_writes_total", "outcome", OutcomeSkipped, 1},
		{"dispatchboard_cache_reverts_total", "action", "move_to_column", 1},
		{"dispatchboard_cache_dirty_total", "action", "complete", 1},
		{"dispatchboard_reconciliations_total", "outcome", OutcomeSuccess, 1},
	}
	for _, c := range checks {
		got, err := fetchCounterValue(mfs, c.name, c.label, c.value)
		if err != nil {
			t.Fatalf("fetch %s: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s{%s=%s}: expected %f, got %f", c.name, c.label, c.value, c.want, got)
		}
	}

	if sum, err := fetchHistogramSum(mfs, "dispatchboard_remote_write_duration_seconds", "action", "assign_driver"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if sum <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", sum)
	}

	gauge := findMetricFamily(mfs, "dispatchboard_cached_orders")
	if gauge == nil || gauge.GetMetric()[0].GetGauge().GetValue() != 12 {
		t.Fatalf("unexpected cached orders gauge: %v", gauge)
	}
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	m.ObserveWrite("x", time.Second, nil)
	m.IncSkipped("x")
	m.IncRevert("x")
	m.IncDirty("x")
	m.ObserveReconcile(nil)
	m.SetCachedOrders(1)

	empty := New(nil)
	empty.ObserveWrite("", time.Second, errors.New("x"))
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg).ObserveWrite("", time.Millisecond, nil)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if rec.Code != 200 || !strings.Contains(string(body), `dispatchboard_remote_writes_total{action="unknown",outcome="success"} 1`) {
		t.Fatalf("unexpected exposition (%d): %s", rec.Code, body)
	}
}

func TestModuleProvidesMetrics(t *testing.T) {
	var (
		m *Metrics
		g prometheus.Gatherer
	)
	app := fx.New(Module, fx.Populate(&m, &g))
	t.Cleanup(func() { _ = app.Stop(context.Background()) })
	if err := app.Err(); err != nil {
		t.Fatalf("fx app failed: %v", err)
	}
	if m == nil || g == nil {
		t.Fatal("expected metrics and gatherer")
	}
	mfs, err := g.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if findMetricFamily(mfs, "go_goroutines") == nil {
		t.Fatal("expected runtime collector to be registered")
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
