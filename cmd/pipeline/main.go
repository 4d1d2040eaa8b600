// Package main runs one featurization pass over the configured stores.
// Executes: bars → labels → summaries → reporting
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tick-feature-lab/internal/config"
	"tick-feature-lab/internal/observability"
	"tick-feature-lab/internal/orchestrator"
	"tick-feature-lab/internal/pipeline"
	"tick-feature-lab/internal/reporting"
	"tick-feature-lab/internal/sink"
	"tick-feature-lab/internal/storage/backend"
	"tick-feature-lab/internal/verification"
)

func main() {
	config.LoadEnvFile(".env")

	configPath := flag.String("config", "", "Path to YAML config")
	outputDir := flag.String("output-dir", "", "Output directory for reports (default from config)")
	symbols := flag.String("symbols", "", "Comma-separated symbols (default: every stored symbol)")
	fixtures := flag.Int("fixtures", 0, "Load this many synthetic trades per symbol before running")
	concurrency := flag.Int("concurrency", 4, "Symbols featurized in parallel")
	verify := flag.Bool("verify", false, "Replay stored series from trades after the run and report divergences")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling pipeline...\n", sig)
		cancel()
	}()

	stores, closeStores, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening stores: %v\n", err)
		os.Exit(1)
	}
	defer closeStores()

	symbolList := splitList(*symbols)
	if *fixtures > 0 {
		if len(symbolList) == 0 {
			symbolList = []string{"ES", "NQ", "CL"}
		}
		if err := pipeline.LoadFixtures(ctx, stores.Trades, symbolList, *fixtures); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading fixtures: %v\n", err)
			os.Exit(1)
		}
	}

	out, err := sink.FromConfig(cfg.Kafka)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating sink: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	fmt.Println("=== Featurization Pipeline ===")
	orch := orchestrator.New(orchestrator.Options{
		TradeStore:   stores.Trades,
		BarStore:     stores.Bars,
		LabelStore:   stores.Labels,
		SummaryStore: stores.Summaries,
		Sink:         out,
		Config:       cfg,
		Concurrency:  *concurrency,
		Verbose:      *verbose,
	})

	result, err := orch.Run(ctx, symbolList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Orchestrator error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Run %s completed:\n", result.RunID)
	fmt.Printf("  Symbols: %d\n", result.Symbols)
	fmt.Printf("  Trades: %d\n", result.Trades)
	fmt.Printf("  Bars: %d\n", result.Bars)
	fmt.Printf("  Labels: %d\n", result.Labels)
	if len(result.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}

	fmt.Println("\n=== Reporting ===")
	report, err := reporting.NewGenerator(stores.Summaries).Generate(ctx, result)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Report error: %v\n", err)
		os.Exit(1)
	}
	paths, err := reporting.WriteFiles(cfg.Output.Dir, report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Report error: %v\n", err)
		os.Exit(1)
	}
	observability.DefaultMetrics.ReportsGenerated.Inc()

	divergent := false
	if *verify {
		fmt.Println("\n=== Verification ===")
		verifier := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
			TradeStore: stores.Trades,
			BarStore:   stores.Bars,
			LabelStore: stores.Labels,
			Config:     cfg,
		})
		vr, err := verifier.VerifyAll(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Verification error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  Series: %d, matched: %d, divergent: %d\n", vr.TotalSeries, vr.MatchedSeries, vr.DivergentSeries)
		for _, r := range vr.Results {
			for _, d := range r.Divergences {
				fmt.Printf("    - %s/%s %s: stored %v, replayed %v\n", r.Symbol, r.Kind, d.Field, d.Expected, d.Actual)
			}
		}
		divergent = vr.DivergentSeries > 0
	}

	fmt.Println("\nPipeline completed:")
	for _, p := range paths {
		fmt.Printf("  - %s\n", p)
	}
	if divergent {
		os.Exit(1)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
