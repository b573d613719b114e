package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coreconfig "github.com/m3rciful/avtobot/core/config"
)

func TestListenDisabled(t *testing.T) {
	srv, err := Listen(coreconfig.MetricsConfig{}, prometheus.NewRegistry())
	if err != nil || srv != nil {
		t.Fatalf("expected disabled listener, got %v %v", srv, err)
	}
}

func TestServeExposesCollectors(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "avtobot_test_total", Help: "test"})
	counter.Inc()
	reg, err := NewRegistry(counter)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	srv, err := Listen(coreconfig.MetricsConfig{Listen: "127.0.0.1:0", Path: "/m"}, reg)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/m")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if !strings.Contains(string(body), "avtobot_test_total 1") {
		t.Fatalf("counter missing from scrape:\n%s", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "dup_total", Help: "d"})
	if _, err := NewRegistry(c, c); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}
