package sensor

import (
	"testing"
	"time"
)

func TestSnapshot_RecordAndLatest(t *testing.T) {
	t.Parallel()

	s := NewSnapshot()
	s.Record(Reading{Metric: "temperature", Value: 24.5, Unit: "C"})
	s.Record(Reading{Metric: "smoke", Value: 120, Unit: "ppm"})
	s.Record(Reading{Metric: "temperature", Value: 61.5, Unit: "C"})

	got := s.Latest()
	if len(got) != 2 {
		t.Fatalf("len(Latest) = %d, want 2", len(got))
	}
	// sorted by metric: smoke, temperature
	if got[0].Metric != "smoke" || got[1].Metric != "temperature" {
		t.Fatalf("order = %s, %s; want smoke, temperature", got[0].Metric, got[1].Metric)
	}
	if got[1].Value != 61.5 {
		t.Errorf("temperature = %v, want latest value 61.5", got[1].Value)
	}
	if got[0].At.IsZero() {
		t.Error("expected zero At to be stamped")
	}
}

func TestSnapshot_IgnoresEmptyMetric(t *testing.T) {
	t.Parallel()

	s := NewSnapshot()
	s.Record(Reading{Value: 1})
	if len(s.Latest()) != 0 {
		t.Error("reading without a metric name should be dropped")
	}
}

func TestSnapshot_Summary(t *testing.T) {
	t.Parallel()

	s := NewSnapshot()
	if got := s.Summary(); got != "no sensor readings available" {
		t.Errorf("empty summary = %q", got)
	}

	at := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	s.Record(Reading{Metric: "temperature", Value: 61.5, Unit: "C", At: at})
	s.Record(Reading{Metric: "smoke", Value: 412, Unit: "ppm", At: at})

	want := "smoke: 412 ppm, temperature: 61.5 C"
	if got := s.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}
