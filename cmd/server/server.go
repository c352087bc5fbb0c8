package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"travel-data-pipeline/internal/cycle"
	"travel-data-pipeline/internal/observability"
	"travel-data-pipeline/internal/reporting"
	"travel-data-pipeline/internal/storage"
)

// pastDueTolerance is how late a scheduled cycle may start before it is
// logged as past due.
const pastDueTolerance = time.Minute

// statusRunLimit bounds the cycle history returned by /status.
const statusRunLimit = 20

// rateRunner and trendRunner are the cycle runners the schedulers drive.
type rateRunner interface {
	Run(ctx context.Context) (*cycle.RateResult, error)
}

type trendRunner interface {
	Run(ctx context.Context) (*cycle.TrendResult, error)
}

// Server schedules both cycle kinds and serves health and status.
type Server struct {
	rates         rateRunner
	trends        trendRunner
	runs          storage.CycleRunStore
	reports       *reporting.Generator
	reportDir     string
	rateInterval  time.Duration
	trendInterval time.Duration
	metrics       *observability.Metrics
	logger        zerolog.Logger
	now           func() time.Time

	// State
	mu           sync.Mutex
	started      time.Time
	lastRateRun  time.Time
	lastTrendRun time.Time
	rateRunning  bool
	trendRunning bool

	// Stats
	rateRuns  int
	trendRuns int
}

// ServerOptions contains configuration for creating a Server.
type ServerOptions struct {
	Rates         rateRunner
	Trends        trendRunner
	Runs          storage.CycleRunStore
	Reports       *reporting.Generator // nil disables reports and /history
	ReportDir     string
	RateInterval  time.Duration
	TrendInterval time.Duration
	Metrics       *observability.Metrics
	Logger        zerolog.Logger
}

// NewServer creates a new server.
func NewServer(opts ServerOptions) *Server {
	return &Server{
		rates:         opts.Rates,
		trends:        opts.Trends,
		runs:          opts.Runs,
		reports:       opts.Reports,
		reportDir:     opts.ReportDir,
		rateInterval:  opts.RateInterval,
		trendInterval: opts.TrendInterval,
		metrics:       opts.Metrics,
		logger:        opts.Logger,
		now:           time.Now,
		started:       time.Now(),
	}
}

// Run starts both schedulers and blocks until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info().
		Dur("rate_interval", s.rateInterval).
		Dur("trend_interval", s.trendInterval).
		Msg("starting schedulers")

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.schedule(ctx, "rates", s.rateInterval, s.runRates)
	}()
	go func() {
		defer wg.Done()
		s.schedule(ctx, "trends", s.trendInterval, s.runTrends)
	}()
	go func() {
		defer wg.Done()
		s.countUptime(ctx)
	}()

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// schedule runs fn immediately, then on every tick. A tick that fires
// while fn is still running is skipped by fn's own guard.
func (s *Server) schedule(ctx context.Context, kind string, interval time.Duration, fn func(context.Context)) {
	if interval <= 0 {
		s.logger.Warn().Str("kind", kind).Msg("no interval, scheduler disabled")
		return
	}

	next := s.now()
	s.start(ctx, kind, next, fn)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		next = next.Add(interval)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.start(ctx, kind, next, fn)
		}
	}
}

func (s *Server) start(ctx context.Context, kind string, scheduled time.Time, fn func(context.Context)) {
	if late := s.now().Sub(scheduled); late > pastDueTolerance {
		s.logger.Warn().Str("kind", kind).Dur("late", late).Msg("cycle start is past due")
	}
	fn(ctx)
}

func (s *Server) countUptime(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.metrics.UptimeSeconds.Inc()
		}
	}
}

// runRates executes one rate cycle unless one is already running.
func (s *Server) runRates(ctx context.Context) {
	s.mu.Lock()
	if s.rateRunning {
		s.mu.Unlock()
		s.logger.Info().Msg("rate cycle already running, skipping")
		return
	}
	s.rateRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.rateRunning = false
		s.lastRateRun = s.now()
		s.rateRuns++
		s.mu.Unlock()
	}()

	res, err := s.rates.Run(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("rate cycle interrupted")
	}
	if res == nil {
		return
	}
	s.logger.Info().
		Str("cycle_id", res.CycleID).
		Int("records", len(res.Records)).
		Int("errors", len(res.Errors)).
		Dur("duration", res.FinishedAt.Sub(res.StartedAt)).
		Msg("rate cycle finished")

	if s.reports != nil && s.reportDir != "" {
		if _, err := s.reports.WriteRateReport(s.reportDir, res); err != nil {
			s.logger.Error().Err(err).Msg("write rate report")
		}
	}
}

// runTrends executes one trend cycle unless one is already running.
func (s *Server) runTrends(ctx context.Context) {
	s.mu.Lock()
	if s.trendRunning {
		s.mu.Unlock()
		s.logger.Info().Msg("trend cycle already running, skipping")
		return
	}
	s.trendRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.trendRunning = false
		s.lastTrendRun = s.now()
		s.trendRuns++
		s.mu.Unlock()
	}()

	res, err := s.trends.Run(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("trend cycle interrupted")
	}
	if res == nil {
		return
	}
	s.logger.Info().
		Str("cycle_id", res.CycleID).
		Str("mode", string(res.Mode)).
		Int("records", len(res.Records)).
		Int("errors", len(res.Errors)).
		Dur("duration", res.FinishedAt.Sub(res.StartedAt)).
		Msg("trend cycle finished")

	if s.reports != nil && s.reportDir != "" {
		if _, err := s.reports.WriteTrendReport(s.reportDir, res); err != nil {
			s.logger.Error().Err(err).Msg("write trend report")
		}
	}
}

// Handler returns the HTTP routes for health, metrics, status and history.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/history", s.handleHistory)
	return mux
}

// ServeHTTP listens on addr until ctx ends, then shuts down gracefully.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return <-errCh
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status       string      `json:"status"`
	Uptime       string      `json:"uptime"`
	Started      time.Time   `json:"started"`
	LastRateRun  *time.Time  `json:"last_rate_run,omitempty"`
	LastTrendRun *time.Time  `json:"last_trend_run,omitempty"`
	RateRuns     int         `json:"rate_runs"`
	TrendRuns    int         `json:"trend_runs"`
	RateRunning  bool        `json:"rate_running"`
	TrendRunning bool        `json:"trend_running"`
	Recent       []RunStatus `json:"recent_cycles"`
}

// RunStatus is one stored cycle run in /status.
type RunStatus struct {
	CycleID    string    `json:"cycle_id"`
	Kind       string    `json:"kind"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Records    int       `json:"records"`
	Unknown    int       `json:"unknown"`
	Errors     []string  `json:"errors,omitempty"`
	Succeeded  bool      `json:"succeeded"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:       "running",
		Uptime:       s.now().Sub(s.started).Round(time.Second).String(),
		Started:      s.started,
		LastRateRun:  timePtr(s.lastRateRun),
		LastTrendRun: timePtr(s.lastTrendRun),
		RateRuns:     s.rateRuns,
		TrendRuns:    s.trendRuns,
		RateRunning:  s.rateRunning,
		TrendRunning: s.trendRunning,
		Recent:       []RunStatus{},
	}
	s.mu.Unlock()

	if s.runs != nil {
		runs, err := s.runs.List(r.Context(), statusRunLimit)
		if err != nil {
			s.logger.Error().Err(err).Msg("list cycle runs")
			http.Error(w, "list cycle runs failed", http.StatusInternalServerError)
			return
		}
		for _, run := range runs {
			resp.Recent = append(resp.Recent, RunStatus{
				CycleID:    run.CycleID,
				Kind:       run.Kind,
				StartedAt:  run.StartedAt,
				FinishedAt: run.FinishedAt,
				Records:    run.Records,
				Unknown:    run.Unknown,
				Errors:     run.Errors,
				Succeeded:  run.Succeeded(),
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleHistory returns the stored records of ?country=<ISO3>.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	country := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("country")))
	if len(country) != 3 {
		http.Error(w, "country must be an ISO 3166-1 alpha-3 code", http.StatusBadRequest)
		return
	}
	if s.reports == nil {
		http.Error(w, "history not available", http.StatusNotFound)
		return
	}

	rows, err := s.reports.CountryHistory(r.Context(), country)
	if err != nil {
		if errors.Is(err, reporting.ErrNoHistoryStore) {
			http.Error(w, "history not available", http.StatusNotFound)
			return
		}
		s.logger.Error().Err(err).Str("country", country).Msg("country history")
		http.Error(w, "history lookup failed", http.StatusInternalServerError)
		return
	}

	type entry struct {
		DataType string    `json:"dataType"`
		CycleID  string    `json:"cycle_id"`
		At       time.Time `json:"at"`
		Score    float64   `json:"score"`
	}
	out := make([]entry, len(rows))
	for i, row := range rows {
		out[i] = entry{DataType: row.DataType, CycleID: row.CycleID, At: row.At, Score: row.Score}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
