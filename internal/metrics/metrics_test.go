package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveFile(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveFile(StatusOK, 120, 3, 10*time.Millisecond)
	m.ObserveFile(StatusOK, 80, 0, 5*time.Millisecond)
	m.ObserveFile(StatusSkipped, 0, 0, 0)

	if got := testutil.ToFloat64(m.TicksTotal); got != 200 {
		t.Errorf("ticks = %v, want 200", got)
	}
	if got := testutil.ToFloat64(m.InvalidLinesTotal); got != 3 {
		t.Errorf("invalid lines = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.FilesTotal.WithLabelValues(StatusOK)); got != 2 {
		t.Errorf("ok files = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.FilesTotal.WithLabelValues(StatusSkipped)); got != 1 {
		t.Errorf("skipped files = %v, want 1", got)
	}
}

func TestObserveOutcomes(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveOutcomes("crossover_target", "failure", 4)
	m.ObserveOutcomes("crossover_target", "success", 0)

	if got := testutil.ToFloat64(m.ScoreOutcomes.WithLabelValues("crossover_target", "failure")); got != 4 {
		t.Errorf("failures = %v, want 4", got)
	}
	if n := testutil.CollectAndCount(m.ScoreOutcomes); n != 1 {
		t.Errorf("outcome series = %d, zero counts should not create a series", n)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveFile(StatusOK, 1, 1, time.Second)
	m.ObserveOutcomes("x", "success", 1)
	m.ObserveDownload(2)
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	NewMetrics(reg)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestServer_Endpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ObserveDownload(2)
	health := NewHealthStatus("run-1")
	srv := NewServer(":0", reg, health)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "backtest_downloaded_series_total 2") {
		t.Errorf("metrics output missing counter:\n%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"run_id":"run-1"`) {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body.String())
	}

	if err := health.CheckStore(context.Background(), "redis", stubPinger{err: errors.New("down")}); err == nil {
		t.Fatal("expected ping error")
	}
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("healthz with store down = %d, want 503", rec.Code)
	}
}
