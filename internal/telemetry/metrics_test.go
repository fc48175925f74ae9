package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersRegistered(t *testing.T) {
	before := testutil.ToFloat64(Loads.WithLabelValues("cache"))
	Loads.WithLabelValues("cache").Inc()
	if got := testutil.ToFloat64(Loads.WithLabelValues("cache")); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}

	Records.WithLabelValues("all").Set(12)
	if got := testutil.ToFloat64(Records.WithLabelValues("all")); got != 12 {
		t.Fatalf("expected 12, got %v", got)
	}
}
