package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(sales.WithLabelValues("denied"))
	Sale("denied")
	if got := testutil.ToFloat64(sales.WithLabelValues("denied")); got != before+1 {
		t.Fatalf("sale counter = %v, want %v", got, before+1)
	}

	EffectFailed("notify_owner")
	if got := testutil.ToFloat64(effectFailures.WithLabelValues("notify_owner")); got < 1 {
		t.Fatalf("effect counter = %v", got)
	}
	if n := len(Collectors()); n != 6 {
		t.Fatalf("collectors = %d", n)
	}
}
