// Package metrics exposes Prometheus counters for backtest runs and a small
// HTTP server serving /metrics and /healthz.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// File status label values.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Metrics holds all Prometheus metrics for the backtester.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	TicksTotal        prometheus.Counter
	InvalidLinesTotal prometheus.Counter
	FilesTotal        *prometheus.CounterVec // labels: status
	ScoreOutcomes     *prometheus.CounterVec // labels: strategy, outcome
	FileDuration      prometheus.Histogram

	// Remote ingestion
	DownloadedSeries prometheus.Counter
}

// NewMetrics creates the metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_ticks_total",
			Help: "Total ticks scored",
		}),
		InvalidLinesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_invalid_lines_total",
			Help: "Input lines skipped because they held no valid price",
		}),
		FilesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_files_total",
			Help: "Input files by result (ok, failed, skipped)",
		}, []string{"status"}),
		ScoreOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_score_outcomes_total",
			Help: "Scored trade outcomes by strategy",
		}, []string{"strategy", "outcome"}),
		FileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backtest_file_duration_seconds",
			Help:    "Wall time to replay one input file",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms .. ~4min
		}),
		DownloadedSeries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_downloaded_series_total",
			Help: "Price series written to input files by the remote download",
		}),
	}

	reg.MustRegister(
		m.TicksTotal,
		m.InvalidLinesTotal,
		m.FilesTotal,
		m.ScoreOutcomes,
		m.FileDuration,
		m.DownloadedSeries,
	)

	return m
}

// ObserveFile records the result of one replayed file.
func (m *Metrics) ObserveFile(status string, ticks, invalid int, d time.Duration) {
	if m == nil {
		return
	}
	m.FilesTotal.WithLabelValues(status).Inc()
	if status == StatusSkipped {
		return
	}
	m.TicksTotal.Add(float64(ticks))
	m.InvalidLinesTotal.Add(float64(invalid))
	m.FileDuration.Observe(d.Seconds())
}

// ObserveOutcomes adds n outcomes of one kind for a strategy.
func (m *Metrics) ObserveOutcomes(strategy, outcome string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ScoreOutcomes.WithLabelValues(strategy, outcome).Add(float64(n))
}

// ObserveDownload adds n downloaded series.
func (m *Metrics) ObserveDownload(n int) {
	if m == nil {
		return
	}
	m.DownloadedSeries.Add(float64(n))
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus represents the state of the running process.
type HealthStatus struct {
	mu sync.RWMutex

	RunID          string    `json:"run_id"`
	StoreKind      string    `json:"store_kind"`
	StoreOK        bool      `json:"store_ok"`
	StoreLatencyMs float64   `json:"store_latency_ms"`
	FilesDone      int       `json:"files_done"`
	LastCheckAt    time.Time `json:"last_check_at"`
	StartedAt      time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus(runID string) *HealthStatus {
	return &HealthStatus{
		RunID:     runID,
		StartedAt: time.Now(),
	}
}

// FileDone increments the processed-file count.
func (h *HealthStatus) FileDone() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.FilesDone++
	h.mu.Unlock()
}

// CheckStore pings the store and records latency + connectivity.
func (h *HealthStatus) CheckStore(ctx context.Context, kind string, p Pinger) error {
	start := time.Now()
	err := p.Ping(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.StoreKind = kind
	h.StoreOK = err == nil
	h.StoreLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
	return err
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if h.StoreKind != "" && !h.StoreOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	status := struct {
		Status         string  `json:"status"`
		Uptime         string  `json:"uptime"`
		RunID          string  `json:"run_id"`
		StoreKind      string  `json:"store_kind,omitempty"`
		StoreOK        bool    `json:"store_ok"`
		StoreLatencyMs float64 `json:"store_latency_ms"`
		FilesDone      int     `json:"files_done"`
	}{
		Status:         overallStatus,
		Uptime:         time.Since(h.StartedAt).Round(time.Second).String(),
		RunID:          h.RunID,
		StoreKind:      h.StoreKind,
		StoreOK:        h.StoreOK,
		StoreLatencyMs: h.StoreLatencyMs,
		FilesDone:      h.FilesDone,
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics and health server over gatherer.
func NewServer(addr string, gatherer prometheus.Gatherer, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", health)

	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("metrics server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "error", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
