package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveOperation(t *testing.T) {
	m := New()

	m.ObserveOperation("wg0", "sync", time.Now(), nil)
	m.ObserveOperation("wg0", "sync", time.Now(), nil)
	m.ObserveOperation("wg0", "sync", time.Now(), errors.New("boom"))

	if got := testutil.ToFloat64(m.Operations.WithLabelValues("wg0", "sync", "ok")); got != 2 {
		t.Errorf("ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Operations.WithLabelValues("wg0", "sync", "error")); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
}

func TestObserveCommandAndPeers(t *testing.T) {
	m := New()

	m.ObserveCommand("wg", time.Now(), nil)
	m.SetPeers("wg0", 3)

	if got := testutil.ToFloat64(m.Commands.WithLabelValues("wg", "ok")); got != 1 {
		t.Errorf("command count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Peers.WithLabelValues("wg0")); got != 3 {
		t.Errorf("peers = %v, want 3", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOperation("wg0", "sync", time.Now(), nil)
	m.ObserveCommand("wg", time.Now(), nil)
	m.ObserveHTTP("GET", "/health", "200", time.Millisecond)
	m.SetPeers("wg0", 1)
}
