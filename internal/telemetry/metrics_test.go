package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewPedanticRegistry()
	m := NewMetrics(reg)

	if m.RequestsTotal == nil {
		t.Error("RequestsTotal is nil")
	}
	if m.RequestDuration == nil {
		t.Error("RequestDuration is nil")
	}
	if m.ActiveRequests == nil {
		t.Error("ActiveRequests is nil")
	}
	if m.RetriesTotal == nil {
		t.Error("RetriesTotal is nil")
	}
	if m.CapacityWaits == nil {
		t.Error("CapacityWaits is nil")
	}
	if m.SubBatchesTotal == nil {
		t.Error("SubBatchesTotal is nil")
	}
	if m.StreamEventsTotal == nil {
		t.Error("StreamEventsTotal is nil")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Error("expected at least one metric family")
	}
}

func TestNewMetricsIncrement(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewPedanticRegistry()
	m := NewMetrics(reg)

	m.RequestsTotal.WithLabelValues("/generate", "200").Inc()
	m.RetriesTotal.WithLabelValues("/generate").Inc()
	m.CapacityWaits.Inc()
	m.SubBatchesTotal.WithLabelValues("generate").Inc()
	m.ActiveRequests.Set(3)
	m.RequestDuration.WithLabelValues("/generate").Observe(0.123)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather after increment: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	want := []string{
		"genai_requests_total",
		"genai_retries_total",
		"genai_capacity_waits_total",
		"genai_sub_batches_total",
		"genai_active_requests",
		"genai_request_duration_seconds",
	}
	for _, name := range want {
		if !names[name] {
			t.Errorf("missing metric %q in gathered families", name)
		}
	}
}

// SetupTracing is not unit-tested because it requires a gRPC connection
// to an OTLP collector, which is integration-test territory.
