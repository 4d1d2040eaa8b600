// Package main provides the trade ingestion entry point.
// Streams trades from a websocket feed, or imports a trade file, into the trade store.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tick-feature-lab/internal/config"
	"tick-feature-lab/internal/dataset"
	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/ingestion"
	"tick-feature-lab/internal/observability"
	"tick-feature-lab/internal/storage/backend"
)

func main() {
	config.LoadEnvFile(".env")

	mode := flag.String("mode", "live", "Ingestion mode: live or import")
	configPath := flag.String("config", "", "Path to YAML config")
	endpoint := flag.String("endpoint", "", "Trade feed websocket endpoint (default from config)")
	symbols := flag.String("symbols", "", "Comma-separated symbols to subscribe (default from config)")
	input := flag.String("input", "", "Trade file for import mode")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}
	if *endpoint != "" {
		cfg.Feed.Endpoint = *endpoint
	}
	if *symbols != "" {
		cfg.Feed.Symbols = splitList(*symbols)
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

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

	stores, closeStores, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		logger.Fatalf("Open stores: %v", err)
	}
	defer closeStores()

	var source ingestion.TradeSource
	switch *mode {
	case "live":
		if cfg.Feed.Endpoint == "" {
			logger.Fatal("--endpoint is required in live mode")
		}
		feed, err := ingestion.NewTradeFeed(ctx, cfg.Feed.Endpoint, cfg.Feed.Symbols, nil,
			log.New(os.Stdout, "[feed] ", log.LstdFlags|log.Lshortfile))
		if err != nil {
			logger.Fatalf("Connect feed: %v", err)
		}
		defer feed.Close()
		source = feed
		logger.Printf("Streaming %v from %s", cfg.Feed.Symbols, cfg.Feed.Endpoint)
	case "import":
		if *input == "" {
			logger.Fatal("--input is required in import mode")
		}
		txs, err := dataset.ReadTrades(*input, cfg.Columns)
		if err != nil {
			logger.Fatalf("Read trades: %v", err)
		}
		source = newSliceSource(txs)
		logger.Printf("Importing %d trades from %s", len(txs), *input)
	default:
		logger.Fatalf("Unknown mode: %s", *mode)
	}

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Source:        source,
		TradeStore:    stores.Trades,
		ProgressStore: stores.Progress,
		FlushSize:     cfg.Feed.FlushSize,
		FlushInterval: cfg.Feed.FlushInterval,
		Logger:        logger,
	})

	err = runner.Run(ctx)

	done <- err
	cancel()

	stats := runner.Stats()
	logger.Printf("Received %d, stored %d, skipped %d trades in %d flushes",
		stats.Received, stats.Stored, stats.Skipped, stats.Flushes)

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ingestion.ErrSourceClosed) {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// sliceSource replays a fixed set of trades and then closes.
type sliceSource struct {
	ch chan domain.Transaction
}

func newSliceSource(txs []domain.Transaction) *sliceSource {
	ch := make(chan domain.Transaction, len(txs))
	for _, tx := range txs {
		ch <- tx
	}
	close(ch)
	return &sliceSource{ch: ch}
}

func (s *sliceSource) Trades() <-chan domain.Transaction { return s.ch }

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
