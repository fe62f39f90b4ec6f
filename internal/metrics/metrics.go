package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the intraday scanner.
type Metrics struct {
	APIRequests *prometheus.CounterVec // labels: route
	APIErrors   *prometheus.CounterVec // labels: route
	APIDuration prometheus.Histogram

	WatchlistSize  prometheus.Gauge
	SymbolsSeeded  prometheus.Counter
	SeedSkips      *prometheus.CounterVec // labels: reason
	StrongAdded    prometheus.Counter
	ScanCycles     prometheus.Counter
	ScanDuration   prometheus.Histogram
	SymbolsScanned prometheus.Counter

	SignalsFired        prometheus.Counter
	CeilingSuppressions prometheus.Counter
	InsufficientSeries  prometheus.Counter
	AlertSendErrors     *prometheus.CounterVec // labels: channel

	WSReconnects prometheus.Counter
	SessionState prometheus.Gauge // 0=closed, 1=seeding, 2=monitoring
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "daytrade_api_requests_total",
			Help: "Market data API requests by route",
		}, []string{"route"}),
		APIErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "daytrade_api_errors_total",
			Help: "Market data API failures by route",
		}, []string{"route"}),
		APIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "daytrade_api_request_duration_seconds",
			Help:    "Market data API request latency",
			Buckets: prometheus.DefBuckets,
		}),

		WatchlistSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "daytrade_watchlist_size",
			Help: "Current number of monitored symbols",
		}),
		SymbolsSeeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "daytrade_symbols_seeded_total",
			Help: "Symbols whose previous-day tail was seeded",
		}),
		SeedSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "daytrade_seed_skips_total",
			Help: "Symbols skipped during tail seeding by reason",
		}, []string{"reason"}),
		StrongAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "daytrade_strong_symbols_added_total",
			Help: "Symbols added to the watchlist by the strong-stock scan",
		}),
		ScanCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "daytrade_scan_cycles_total",
			Help: "Completed five-minute evaluation cycles",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "daytrade_scan_cycle_duration_seconds",
			Help:    "Wall time of a full evaluation cycle",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		SymbolsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "daytrade_symbols_scanned_total",
			Help: "Per-symbol evaluations performed across all cycles",
		}),

		SignalsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "daytrade_signals_fired_total",
			Help: "Entry signals emitted",
		}),
		CeilingSuppressions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "daytrade_ceiling_suppressions_total",
			Help: "Evaluations rejected for trading above the ceiling",
		}),
		InsufficientSeries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "daytrade_insufficient_series_total",
			Help: "Evaluations skipped because the stitched series was too short",
		}),
		AlertSendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "daytrade_alert_send_errors_total",
			Help: "Notification delivery failures by channel",
		}, []string{"channel"}),

		WSReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "daytrade_ws_reconnects_total",
			Help: "Realtime WebSocket reconnection attempts",
		}),
		SessionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "daytrade_session_state",
			Help: "Session state (0=closed, 1=seeding, 2=monitoring)",
		}),
	}

	prometheus.MustRegister(
		m.APIRequests,
		m.APIErrors,
		m.APIDuration,
		m.WatchlistSize,
		m.SymbolsSeeded,
		m.SeedSkips,
		m.StrongAdded,
		m.ScanCycles,
		m.ScanDuration,
		m.SymbolsScanned,
		m.SignalsFired,
		m.CeilingSuppressions,
		m.InsufficientSeries,
		m.AlertSendErrors,
		m.WSReconnects,
		m.SessionState,
	)

	return m
}

// HealthStatus represents the scanner's health.
type HealthStatus struct {
	mu sync.RWMutex

	WSConnected    bool      `json:"ws_connected"`
	LastScanTime   time.Time `json:"last_scan_time"`
	RedisConnected bool      `json:"redis_connected"`
	SQLiteOK       bool      `json:"sqlite_ok"`
	WatchlistSize  int       `json:"watchlist_size"`

	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
		// Optional dependencies report healthy until wired.
		RedisConnected: true,
		SQLiteOK:       true,
	}
}

func (h *HealthStatus) SetWSConnected(v bool) {
	h.mu.Lock()
	h.WSConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastScanTime(t time.Time) {
	h.mu.Lock()
	h.LastScanTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetWatchlistSize(n int) {
	h.mu.Lock()
	h.WatchlistSize = n
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite runs a trivial query and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.RedisConnected || !h.SQLiteOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	scanAge := ""
	if !h.LastScanTime.IsZero() {
		scanAge = time.Since(h.LastScanTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		WSConnected     bool    `json:"ws_connected"`
		LastScanTime    string  `json:"last_scan_time"`
		ScanAge         string  `json:"scan_age"`
		WatchlistSize   int     `json:"watchlist_size"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		WSConnected:     h.WSConnected,
		LastScanTime:    h.LastScanTime.Format(time.RFC3339),
		ScanAge:         scanAge,
		WatchlistSize:   h.WatchlistSize,
		RedisConnected:  h.RedisConnected,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		RedisLatencyMs:  h.RedisLatencyMs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
