// Package main builds bars and triple-barrier labels from a trade file.
// Reads parquet, csv or json trades and writes bars, labels and a label report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"tick-feature-lab/internal/config"
	"tick-feature-lab/internal/dataset"
	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/orchestrator"
	"tick-feature-lab/internal/reporting"
	"tick-feature-lab/internal/storage/backend"
)

func main() {
	input := flag.String("input", "", "Trade file (.parquet, .csv or .json)")
	outputDir := flag.String("output-dir", "", "Output directory (default from config)")
	format := flag.String("format", "", "Output format: parquet, csv, json (default from config)")
	configPath := flag.String("config", "", "Path to YAML config")
	barKind := flag.String("bar-kind", "", "Bar kind override: tick, time, volume, dollar")
	threshold := flag.Float64("threshold", 0, "Bar threshold override")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New(os.Stdout, "[featurize] ", log.LstdFlags|log.Lshortfile)

	if *input == "" {
		logger.Fatal("--input is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}
	if *barKind != "" {
		cfg.Bars.Kind = *barKind
	}
	if *threshold > 0 {
		cfg.Bars.Threshold = *threshold
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	saver := dataset.NewSaver(cfg.Output.Format, cfg.Columns)
	if saver == nil {
		logger.Fatalf("Unsupported output format %q", cfg.Output.Format)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling...", sig)
		cancel()
	}()

	txs, err := dataset.ReadTrades(*input, cfg.Columns)
	if err != nil {
		logger.Fatalf("Read trades: %v", err)
	}
	logger.Printf("Loaded %d trades from %s", len(txs), *input)

	stores := backend.NewMemory()
	if err := stores.Trades.InsertBulk(ctx, txs); err != nil {
		logger.Fatalf("Load trades: %v", err)
	}

	orch := orchestrator.New(orchestrator.Options{
		TradeStore:   stores.Trades,
		BarStore:     stores.Bars,
		LabelStore:   stores.Labels,
		SummaryStore: stores.Summaries,
		Config:       cfg,
		Verbose:      *verbose,
	})

	result, err := orch.Run(ctx, nil)
	if err != nil {
		logger.Fatalf("Featurize: %v", err)
	}
	for _, e := range result.Errors {
		logger.Printf("  - %s", e)
	}

	kind := domain.BarKind(cfg.Bars.Kind)
	paths, err := export(ctx, stores, kind, saver, cfg.Output.Dir)
	if err != nil {
		logger.Fatalf("Export: %v", err)
	}

	report, err := reporting.NewGenerator(stores.Summaries).Generate(ctx, result)
	if err != nil {
		logger.Fatalf("Generate report: %v", err)
	}
	reportPaths, err := reporting.WriteFiles(cfg.Output.Dir, report)
	if err != nil {
		logger.Fatalf("Write report: %v", err)
	}
	paths = append(paths, reportPaths...)

	fmt.Printf("Featurized %d symbols: %d bars, %d labels\n", result.Symbols, result.Bars, result.Labels)
	for _, p := range paths {
		fmt.Printf("  - %s\n", p)
	}
	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}

// export writes every symbol's bars and labels into one file per table.
func export(ctx context.Context, stores *backend.Stores, kind domain.BarKind, saver dataset.Saver, dir string) ([]string, error) {
	symbols, err := stores.Trades.ListSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	sort.Strings(symbols)

	var allBars []domain.Bar
	var allLabels []domain.LabelPoint
	for _, symbol := range symbols {
		bars, err := stores.Bars.GetBySymbol(ctx, symbol, kind)
		if err != nil {
			return nil, fmt.Errorf("load bars for %s: %w", symbol, err)
		}
		labels, err := stores.Labels.GetBySymbol(ctx, symbol, kind)
		if err != nil {
			return nil, fmt.Errorf("load labels for %s: %w", symbol, err)
		}
		allBars = append(allBars, bars...)
		allLabels = append(allLabels, labels...)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	barsPath := filepath.Join(dir, "bars."+saver.Extension())
	if err := saver.SaveBars(barsPath, allBars); err != nil {
		return nil, fmt.Errorf("save bars: %w", err)
	}
	labelsPath := filepath.Join(dir, "labels."+saver.Extension())
	if err := saver.SaveLabels(labelsPath, allLabels); err != nil {
		return nil, fmt.Errorf("save labels: %w", err)
	}
	return []string{barsPath, labelsPath}, nil
}
