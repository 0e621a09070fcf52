package perf

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	jobmetrics "github.com/hospitalia/hospitalia/internal/jobs"
	_ "github.com/hospitalia/hospitalia/testing"
)

func TestBackgroundJobThroughputAndReliability(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)

	// Hourly low-stock scans are cheap and mostly successful.
	for i := 0; i < 60; i++ {
		tracker := metrics.Track("inventory.low_stock")
		time.Sleep(2 * time.Millisecond)
		if err := tracker.End(nil); err != nil {
			t.Fatalf("unexpected error ending low-stock tracker: %v", err)
		}
	}

	// The nightly ledger check walks every item, so it is slower.
	for i := 0; i < 5; i++ {
		tracker := metrics.Track("ledger.check")
		time.Sleep(20 * time.Millisecond)
		if err := tracker.End(nil); err != nil {
			t.Fatalf("unexpected error ending ledger tracker: %v", err)
		}
	}

	// Inject failures to confirm the failure counter moves.
	for i := 0; i < 3; i++ {
		tracker := metrics.Track("inventory.low_stock")
		if err := tracker.End(errors.New("timeout")); err == nil {
			t.Fatal("expected error to propagate")
		}
	}

	metrics.AddViolations("negative_stock", 2)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	success := metricValue(t, families, "hospitalia_jobs_total", map[string]string{"job": "inventory.low_stock", "status": "success"})
	failure := metricValue(t, families, "hospitalia_jobs_total", map[string]string{"job": "inventory.low_stock", "status": "failure"})
	if success+failure == 0 {
		t.Fatal("no low-stock scan executions recorded")
	}
	ratio := success / (success + failure)
	if ratio < 0.9 {
		t.Fatalf("low-stock scan success ratio too low: %f", ratio)
	}

	ledgerDuration := histogramMean(t, families, "hospitalia_job_duration_seconds", map[string]string{"job": "ledger.check"})
	if ledgerDuration > 2.0 {
		t.Fatalf("ledger check duration above budget: %f", ledgerDuration)
	}

	violations := metricValue(t, families, "hospitalia_ledger_violations_total", map[string]string{"check": "negative_stock"})
	if violations != 2 {
		t.Fatalf("expected 2 recorded violations, got %f", violations)
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	for _, lp := range metric.GetLabel() {
		if val, ok := labels[lp.GetName()]; ok {
			if lp.GetValue() != val {
				return false
			}
		}
	}
	for key := range labels {
		found := false
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == key {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
