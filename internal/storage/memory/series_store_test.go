package memory

import (
	"context"
	"errors"
	"testing"

	"tick-feature-lab/internal/domain"
	"tick-feature-lab/internal/storage"
)

func TestBarStore_InsertGetDelete(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	bars := []domain.Bar{
		{Symbol: "ES", Kind: domain.BarKindDollar, Seq: 1, Close: 101},
		{Symbol: "ES", Kind: domain.BarKindDollar, Seq: 0, Close: 100},
		{Symbol: "ES", Kind: domain.BarKindTick, Seq: 0, Close: 99},
	}
	if err := store.InsertBulk(ctx, bars); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetBySymbol(ctx, "ES", domain.BarKindDollar)
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(result) != 2 || result[0].Seq != 0 || result[1].Seq != 1 {
		t.Fatalf("Expected dollar bars in seq order, got %+v", result)
	}

	if err := store.DeleteBySymbol(ctx, "ES", domain.BarKindDollar); err != nil {
		t.Fatalf("DeleteBySymbol failed: %v", err)
	}
	result, _ = store.GetBySymbol(ctx, "ES", domain.BarKindDollar)
	if len(result) != 0 {
		t.Errorf("Expected dollar series deleted, got %d bars", len(result))
	}
	result, _ = store.GetBySymbol(ctx, "ES", domain.BarKindTick)
	if len(result) != 1 {
		t.Errorf("Expected tick series untouched, got %d bars", len(result))
	}

	// Deleted keys can be reused for a rebuild
	if err := store.InsertBulk(ctx, bars[:2]); err != nil {
		t.Errorf("Rebuild insert failed: %v", err)
	}
}

func TestBarStore_DuplicateKey(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	bars := []domain.Bar{{Symbol: "ES", Kind: domain.BarKindVolume, Seq: 0}}
	if err := store.InsertBulk(ctx, bars); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.InsertBulk(ctx, bars); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestLabelStore_SharedEndTimeDistinctSeq(t *testing.T) {
	store := NewLabelStore()
	ctx := context.Background()

	pt := domain.EventProfitTake
	labels := []domain.LabelPoint{
		{Symbol: "ES", Kind: domain.BarKindVolume, Seq: 0, Timestamp: 1000, Event: &pt},
		{Symbol: "ES", Kind: domain.BarKindVolume, Seq: 1, Timestamp: 1000},
	}
	if err := store.InsertBulk(ctx, labels); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// Mutating the caller's value must not leak into the store
	pt = domain.EventStopLoss

	result, err := store.GetBySymbol(ctx, "ES", domain.BarKindVolume)
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 labels, got %d", len(result))
	}
	if result[0].Event == nil || *result[0].Event != domain.EventProfitTake {
		t.Errorf("Expected stored event 1, got %v", result[0].Event)
	}
	if result[1].Event != nil {
		t.Errorf("Expected nil event for non-seed, got %d", *result[1].Event)
	}
}

func TestLabelStore_DuplicateAndDelete(t *testing.T) {
	store := NewLabelStore()
	ctx := context.Background()

	labels := []domain.LabelPoint{{Symbol: "ES", Kind: domain.BarKindTick, Seq: 3}}
	if err := store.InsertBulk(ctx, labels); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.InsertBulk(ctx, labels); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if err := store.DeleteBySymbol(ctx, "ES", domain.BarKindTick); err != nil {
		t.Fatalf("DeleteBySymbol failed: %v", err)
	}
	if err := store.InsertBulk(ctx, labels); err != nil {
		t.Errorf("Insert after delete failed: %v", err)
	}
}

func TestSummaryStore_InsertAndQuery(t *testing.T) {
	store := NewSummaryStore()
	ctx := context.Background()

	summaries := []*domain.LabelSummary{
		{RunID: "run-1", Symbol: "NQ", Kind: domain.BarKindDollar, CreatedAt: 1000},
		{RunID: "run-1", Symbol: "ES", Kind: domain.BarKindDollar, CreatedAt: 1000},
		{RunID: "run-2", Symbol: "ES", Kind: domain.BarKindDollar, CreatedAt: 2000, ProfitTakes: 7},
	}
	for _, s := range summaries {
		if err := store.Insert(ctx, s); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	run, err := store.GetByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	if len(run) != 2 || run[0].Symbol != "ES" || run[1].Symbol != "NQ" {
		t.Errorf("Expected run-1 summaries ordered by symbol, got %+v", run)
	}

	latest, err := store.GetLatest(ctx, "ES", domain.BarKindDollar)
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if latest.RunID != "run-2" || latest.ProfitTakes != 7 {
		t.Errorf("Expected run-2 as latest, got %+v", latest)
	}

	if err := store.Insert(ctx, summaries[0]); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetLatest(ctx, "CL", domain.BarKindDollar); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := store.Insert(ctx, &domain.LabelSummary{Symbol: "ES"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestProgressStore(t *testing.T) {
	store := NewProgressStore()
	ctx := context.Background()

	if _, err := store.GetLastIngested(ctx, "ES"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	if err := store.SetLastIngested(ctx, &storage.IngestProgress{Symbol: "ES", Timestamp: 1000, Seq: 2}); err != nil {
		t.Fatalf("SetLastIngested failed: %v", err)
	}
	if err := store.SetLastIngested(ctx, &storage.IngestProgress{Symbol: "ES", Timestamp: 2000, Seq: 0}); err != nil {
		t.Fatalf("SetLastIngested failed: %v", err)
	}

	p, err := store.GetLastIngested(ctx, "ES")
	if err != nil {
		t.Fatalf("GetLastIngested failed: %v", err)
	}
	if p.Timestamp != 2000 || p.Seq != 0 {
		t.Errorf("Expected latest progress (2000, 0), got (%d, %d)", p.Timestamp, p.Seq)
	}
	if !p.After(2000, 1) || p.After(2000, 0) || p.After(1999, 9) {
		t.Error("After() does not follow (timestamp, seq) order")
	}

	if err := store.SetLastIngested(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
