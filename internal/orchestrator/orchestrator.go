// Package orchestrator provides the batch featurization run.
// It coordinates: load trades → bars → labels → summaries → sink
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tick-feature-lab/internal/config"
	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/idhash"
	"tick-feature-lab/internal/metrics"
	"tick-feature-lab/internal/observability"
	"tick-feature-lab/internal/pipeline"
	"tick-feature-lab/internal/sink"
	"tick-feature-lab/internal/storage"
)

// defaultConcurrency bounds how many symbols are processed at once.
const defaultConcurrency = 4

// Orchestrator coordinates a featurization run over stored trades.
type Orchestrator struct {
	// Stores
	tradeStore   storage.TradeStore
	barStore     storage.BarStore
	labelStore   storage.LabelStore
	summaryStore storage.SummaryStore

	sink        sink.Sink
	cfg         *config.Config
	logger      *log.Logger
	clock       func() time.Time
	concurrency int
	verbose     bool
}

// Options for creating Orchestrator.
type Options struct {
	// Required stores
	TradeStore   storage.TradeStore
	BarStore     storage.BarStore
	LabelStore   storage.LabelStore
	SummaryStore storage.SummaryStore

	Sink   sink.Sink      // nil discards output
	Config *config.Config // nil uses config.Default()
	Logger *log.Logger    // nil logs to stdout

	Clock       func() time.Time // nil uses time.Now
	Concurrency int              // symbols in flight, 0 uses a default
	Verbose     bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		tradeStore:   opts.TradeStore,
		barStore:     opts.BarStore,
		labelStore:   opts.LabelStore,
		summaryStore: opts.SummaryStore,
		sink:         opts.Sink,
		cfg:          opts.Config,
		logger:       opts.Logger,
		clock:        opts.Clock,
		concurrency:  opts.Concurrency,
		verbose:      opts.Verbose,
	}
	if o.sink == nil {
		o.sink = sink.NopSink{}
	}
	if o.cfg == nil {
		o.cfg = config.Default()
	}
	if o.logger == nil {
		o.logger = log.New(os.Stdout, "[orchestrator] ", log.LstdFlags)
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	if o.concurrency <= 0 {
		o.concurrency = defaultConcurrency
	}
	return o
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	RunID     string
	StartedAt int64 // Unix milliseconds
	Symbols   int
	Trades    int
	Bars      int
	Labels    int
	Summaries []*domain.LabelSummary // ordered by symbol
	Errors    []string               // per-symbol failures, sorted
}

// symbolResult is what one symbol contributes to a run.
type symbolResult struct {
	trades  int
	bars    int
	labels  int
	summary *domain.LabelSummary
}

// Run featurizes every symbol and persists the results.
// An empty symbols list processes every symbol in the trade store.
// A failing symbol is recorded in RunResult.Errors and does not stop the others.
func (o *Orchestrator) Run(ctx context.Context, symbols []string) (*RunResult, error) {
	started := o.clock()
	result := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: started.UnixMilli(),
	}

	if len(symbols) == 0 {
		listed, err := o.tradeStore.ListSymbols(ctx)
		if err != nil {
			return nil, fmt.Errorf("list symbols: %w", err)
		}
		symbols = listed
	}
	result.Symbols = len(symbols)
	o.log("Run %s: %d symbols", result.RunID, len(symbols))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for _, symbol := range symbols {
		g.Go(func() error {
			sr, err := o.runSymbol(gctx, result.RunID, result.StartedAt, symbol)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				observability.DefaultMetrics.SymbolsProcessed.WithLabelValues("error").Inc()
				result.Errors = append(result.Errors, fmt.Sprintf("featurize %s: %v", symbol, err))
				return nil
			}
			observability.DefaultMetrics.SymbolsProcessed.WithLabelValues("ok").Inc()
			result.Trades += sr.trades
			result.Bars += sr.bars
			result.Labels += sr.labels
			if sr.summary != nil {
				result.Summaries = append(result.Summaries, sr.summary)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Strings(result.Errors)
	sort.Slice(result.Summaries, func(i, j int) bool {
		return result.Summaries[i].Symbol < result.Summaries[j].Symbol
	})

	status := "success"
	if len(result.Errors) > 0 {
		status = "partial"
	} else {
		observability.DefaultMetrics.LastSuccessfulPipeline.Set(float64(o.clock().Unix()))
	}
	observability.RecordPipelineRun(status, o.clock().Sub(started).Seconds())

	o.log("Run %s completed: %d trades, %d bars, %d labels (%d errors)",
		result.RunID, result.Trades, result.Bars, result.Labels, len(result.Errors))
	return result, nil
}

// runSymbol rebuilds one symbol's bars and labels.
func (o *Orchestrator) runSymbol(ctx context.Context, runID string, createdAt int64, symbol string) (*symbolResult, error) {
	trades, err := o.tradeStore.GetBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	sr := &symbolResult{trades: len(trades)}
	if len(trades) == 0 {
		o.log("  %s: no trades, skipping", symbol)
		return sr, nil
	}

	out, err := pipeline.Featurize(ctx, symbol, trades, o.cfg)
	if err != nil {
		return nil, err
	}
	sr.bars = len(out.Bars)
	sr.labels = len(out.Labels)
	if len(out.Bars) == 0 {
		return sr, nil
	}
	kind := out.Bars[0].Kind

	if err := o.replace(ctx, symbol, kind, out); err != nil {
		return nil, err
	}

	observability.RecordBarsBuilt(string(kind), len(out.Bars))
	for _, l := range out.Labels {
		observability.RecordLabel(l.Event)
	}

	aggregator := metrics.NewAggregator(o.labelStore, o.summaryStore)
	summary, err := aggregator.ComputeAndStore(ctx, runID, createdAt, symbol, kind)
	if err != nil && !errors.Is(err, metrics.ErrNoLabels) {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	sr.summary = summary

	if err := o.publish(ctx, runID, out, summary); err != nil {
		return nil, err
	}

	o.log("  %s: %d trades → %d %s bars", symbol, len(trades), len(out.Bars), kind)
	return sr, nil
}

// replace swaps the stored series for freshly built bars and labels.
func (o *Orchestrator) replace(ctx context.Context, symbol string, kind domain.BarKind, out *pipeline.Output) error {
	if err := o.labelStore.DeleteBySymbol(ctx, symbol, kind); err != nil {
		return fmt.Errorf("delete labels: %w", err)
	}
	if err := o.barStore.DeleteBySymbol(ctx, symbol, kind); err != nil {
		return fmt.Errorf("delete bars: %w", err)
	}
	if err := o.barStore.InsertBulk(ctx, out.Bars); err != nil {
		return fmt.Errorf("store bars: %w", err)
	}
	if err := o.labelStore.InsertBulk(ctx, out.Labels); err != nil {
		return fmt.Errorf("store labels: %w", err)
	}
	return nil
}

func (o *Orchestrator) publish(ctx context.Context, runID string, out *pipeline.Output, summary *domain.LabelSummary) error {
	msgs := make([]sink.Message, 0, len(out.Bars)+len(out.Labels)+1)
	for _, b := range out.Bars {
		msgs = append(msgs, sink.Message{Type: sink.TypeBar, Key: b.BarID, Data: b})
	}
	for _, l := range out.Labels {
		msgs = append(msgs, sink.Message{
			Type: sink.TypeLabel,
			Key:  idhash.ComputeLabelID(l.Symbol, l.Kind, l.Seq, runID),
			Data: l,
		})
	}
	if summary != nil {
		msgs = append(msgs, sink.Message{Type: sink.TypeSummary, Key: summary.Symbol, Data: summary})
	}

	if err := o.sink.Emit(ctx, msgs...); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (o *Orchestrator) log(format string, args ...any) {
	if o.verbose {
		o.logger.Printf(format, args...)
	}
}
