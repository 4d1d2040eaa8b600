// Package main provides the unified long-running service.
// Runs ingestion, scheduled featurization, reporting and the HTTP API in one process.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"tick-feature-lab/internal/api"
	"tick-feature-lab/internal/config"
	"tick-feature-lab/internal/ingestion"
	"tick-feature-lab/internal/observability"
	"tick-feature-lab/internal/orchestrator"
	"tick-feature-lab/internal/plugin"
	"tick-feature-lab/internal/reporting"
	"tick-feature-lab/internal/sink"
	"tick-feature-lab/internal/storage/backend"
)

// Server holds all components of the unified service.
type Server struct {
	cfg    *config.Config
	stores *backend.Stores
	sink   sink.Sink
	logger *log.Logger

	ingestionRunner *ingestion.Runner

	// State
	mu              sync.Mutex
	started         time.Time
	lastRun         *orchestrator.RunResult
	lastPipelineRun time.Time
	pipelineRunning bool
	pipelineRuns    int
	reportRuns      int
}

func main() {
	config.LoadEnvFile(".env")

	configPath := flag.String("config", "", "Path to YAML config")
	addr := flag.String("addr", "", "HTTP listen address (default from config)")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	ctx, cancel := context.WithCancel(context.Background())

	stores, cleanup, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	out, err := sink.FromConfig(cfg.Kafka)
	if err != nil {
		logger.Fatalf("Failed to create sink: %v", err)
	}
	defer out.Close()

	server := &Server{
		cfg:     cfg,
		stores:  stores,
		sink:    out,
		logger:  logger,
		started: time.Now(),
	}

	done := make(chan error, 1)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	httpServer := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: api.NewRouter(api.Options{
			Registry:     plugin.NewDefaultRegistry(),
			BarStore:     stores.Bars,
			SummaryStore: stores.Summaries,
			Status:       func() any { return server.status() },
			Logger:       log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lshortfile),
		}),
	}
	go func() {
		logger.Printf("Starting HTTP server on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("HTTP server error: %v", err)
			cancel()
		}
	}()

	err = server.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
		logger.Printf("HTTP shutdown error: %v", serr)
	}
	shutdownCancel()

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// Run starts ingestion and the pipeline scheduler and blocks until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting unified server...")

	errCh := make(chan error, 2)

	if s.cfg.Feed.Endpoint != "" {
		go func() {
			if err := s.runIngestion(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("ingestion: %w", err)
			}
		}()
	} else {
		s.logger.Println("No feed endpoint configured, ingestion disabled")
	}

	if s.cfg.Server.ScheduleInterval > 0 {
		go func() {
			if err := s.runPipelineScheduler(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("pipeline scheduler: %w", err)
			}
		}()
	} else {
		s.logger.Println("Schedule interval is 0, scheduled runs disabled")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// runIngestion streams trades from the feed into the trade store.
func (s *Server) runIngestion(ctx context.Context) error {
	s.logger.Printf("Starting ingestion from %s...", s.cfg.Feed.Endpoint)

	feed, err := ingestion.NewTradeFeed(ctx, s.cfg.Feed.Endpoint, s.cfg.Feed.Symbols, nil,
		log.New(os.Stdout, "[feed] ", log.LstdFlags|log.Lshortfile))
	if err != nil {
		return fmt.Errorf("connect feed: %w", err)
	}
	defer feed.Close()

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Source:        feed,
		TradeStore:    s.stores.Trades,
		ProgressStore: s.stores.Progress,
		FlushSize:     s.cfg.Feed.FlushSize,
		FlushInterval: s.cfg.Feed.FlushInterval,
		Logger:        log.New(os.Stdout, "[ingestion] ", log.LstdFlags|log.Lshortfile),
	})

	s.mu.Lock()
	s.ingestionRunner = runner
	s.mu.Unlock()

	return runner.Run(ctx)
}

// runPipelineScheduler runs the pipeline on schedule.
func (s *Server) runPipelineScheduler(ctx context.Context) error {
	s.logger.Printf("Starting pipeline scheduler (interval: %v)...", s.cfg.Server.ScheduleInterval)

	ticker := time.NewTicker(s.cfg.Server.ScheduleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runPipeline(ctx)
		}
	}
}

// runPipeline featurizes every stored symbol and writes the run report.
func (s *Server) runPipeline(ctx context.Context) {
	s.mu.Lock()
	if s.pipelineRunning {
		s.mu.Unlock()
		s.logger.Println("Pipeline already running, skipping...")
		return
	}
	s.pipelineRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.pipelineRunning = false
		s.lastPipelineRun = time.Now()
		s.pipelineRuns++
		s.mu.Unlock()
	}()

	s.logger.Println("Running pipeline...")
	start := time.Now()

	orch := orchestrator.New(orchestrator.Options{
		TradeStore:   s.stores.Trades,
		BarStore:     s.stores.Bars,
		LabelStore:   s.stores.Labels,
		SummaryStore: s.stores.Summaries,
		Sink:         s.sink,
		Config:       s.cfg,
		Verbose:      true,
	})

	result, err := orch.Run(ctx, nil)
	if err != nil {
		s.logger.Printf("Pipeline error: %v", err)
		return
	}

	s.logger.Printf("Pipeline %s completed in %v: %d symbols, %d bars, %d labels, %d errors",
		result.RunID, time.Since(start), result.Symbols, result.Bars, result.Labels, len(result.Errors))

	s.mu.Lock()
	s.lastRun = result
	s.mu.Unlock()

	s.runReport(ctx, result)
}

// runReport writes the report of a completed run.
func (s *Server) runReport(ctx context.Context, result *orchestrator.RunResult) {
	report, err := reporting.NewGenerator(s.stores.Summaries).Generate(ctx, result)
	if err != nil {
		s.logger.Printf("Report generation error: %v", err)
		return
	}
	if _, err := reporting.WriteFiles(s.cfg.Output.Dir, report); err != nil {
		s.logger.Printf("Report write error: %v", err)
		return
	}
	observability.DefaultMetrics.ReportsGenerated.Inc()

	s.mu.Lock()
	s.reportRuns++
	s.mu.Unlock()

	s.logger.Printf("Report for run %s written to %s/", result.RunID, s.cfg.Output.Dir)
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status          string                 `json:"status"`
	Uptime          string                 `json:"uptime"`
	LastPipelineRun time.Time              `json:"last_pipeline_run,omitempty"`
	LastRunID       string                 `json:"last_run_id,omitempty"`
	PipelineRuns    int                    `json:"pipeline_runs"`
	ReportRuns      int                    `json:"report_runs"`
	PipelineRunning bool                   `json:"pipeline_running"`
	Ingestion       *ingestion.RunnerStats `json:"ingestion,omitempty"`
}

func (s *Server) status() StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.started).String(),
		LastPipelineRun: s.lastPipelineRun,
		PipelineRuns:    s.pipelineRuns,
		ReportRuns:      s.reportRuns,
		PipelineRunning: s.pipelineRunning,
	}
	if s.lastRun != nil {
		resp.LastRunID = s.lastRun.RunID
	}
	if s.ingestionRunner != nil {
		stats := s.ingestionRunner.Stats()
		resp.Ingestion = &stats
	}
	return resp
}
