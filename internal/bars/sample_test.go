package bars

import (
	"errors"
	"testing"

	"tick-feature-lab/internal/domain"
)

func TestTickBars(t *testing.T) {
	txs := []domain.Transaction{
		trade(1, 10, 1), trade(2, 12, 1), trade(3, 11, 1),
		trade(4, 9, 1), trade(5, 8, 0),
	}

	bars, err := TickBars(txs, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	if bars[0].Open != 10 || bars[0].Close != 12 || bars[0].TransactionCount != 2 {
		t.Errorf("unexpected first bar: %+v", bars[0])
	}
	if bars[2].TransactionCount != 1 || bars[2].Volume != 0 {
		t.Errorf("unexpected trailing bar: %+v", bars[2])
	}
	if bars[2].VWAP != 8 {
		t.Errorf("zero-volume bar vwap = %v, want close price 8", bars[2].VWAP)
	}
}

func TestTickBars_InvalidCount(t *testing.T) {
	if _, err := TickBars(nil, 0); !errors.Is(err, ErrInvalidThreshold) {
		t.Errorf("expected ErrInvalidThreshold, got %v", err)
	}
}

func TestTimeBars(t *testing.T) {
	txs := []domain.Transaction{
		trade(0, 1, 1), trade(59_999, 2, 1),
		trade(60_000, 3, 1),
		trade(300_000, 4, 1), trade(300_001, 5, 1),
	}

	bars, err := TimeBars(txs, 60_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars (empty minutes skipped), got %d", len(bars))
	}
	if bars[0].Volume != 2 || bars[1].Volume != 1 || bars[2].Volume != 2 {
		t.Errorf("volumes = [%d %d %d], want [2 1 2]", bars[0].Volume, bars[1].Volume, bars[2].Volume)
	}
	if bars[2].StartTime != 300_000 || bars[2].EndTime != 300_001 {
		t.Errorf("unexpected last bar span [%d, %d]", bars[2].StartTime, bars[2].EndTime)
	}
}

func TestSplitSessions(t *testing.T) {
	day := DefaultSessionMs
	txs := []domain.Transaction{
		trade(day-2, 1, 1), trade(day-1, 1, 1),
		trade(day, 1, 1),
		trade(3*day+5, 1, 1),
	}

	sessions := SplitSessions(txs, day)
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	if len(sessions[0]) != 2 || len(sessions[1]) != 1 || len(sessions[2]) != 1 {
		t.Errorf("unexpected session sizes: %d %d %d", len(sessions[0]), len(sessions[1]), len(sessions[2]))
	}

	if got := SplitSessions(txs, 0); len(got) != 1 || len(got[0]) != len(txs) {
		t.Errorf("non-positive session length should keep one session")
	}
	if got := SplitSessions(nil, day); got != nil {
		t.Errorf("expected nil for empty input")
	}
}

func TestSample_DispatchesKind(t *testing.T) {
	txs := []domain.Transaction{trade(1, 2, 5), trade(2, 2, 5)}

	tests := []struct {
		name     string
		spec     Spec
		wantBars int
	}{
		{"volume", Spec{Kind: domain.BarKindVolume, Threshold: 5}, 2},
		{"dollar", Spec{Kind: domain.BarKindDollar, Threshold: 20}, 1},
		{"tick", Spec{Kind: domain.BarKindTick, Ticks: 1}, 2},
		{"time", Spec{Kind: domain.BarKindTime, IntervalMs: 1000}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars, err := Sample(txs, tt.spec)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(bars) != tt.wantBars {
				t.Errorf("expected %d bars, got %d", tt.wantBars, len(bars))
			}
			for _, b := range bars {
				if b.Kind != tt.spec.Kind {
					t.Errorf("bar kind = %s, want %s", b.Kind, tt.spec.Kind)
				}
			}
		})
	}

	if _, err := Sample(txs, Spec{Kind: "range"}); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
	if _, err := Sample(txs, Spec{Kind: domain.BarKindVolume, Threshold: 0.5}); !errors.Is(err, ErrInvalidThreshold) {
		t.Errorf("expected ErrInvalidThreshold, got %v", err)
	}
	if _, err := Sample(txs, Spec{Kind: domain.BarKindVolume, Threshold: 2.5}); !errors.Is(err, ErrInvalidThreshold) {
		t.Errorf("expected ErrInvalidThreshold for fractional volume threshold, got %v", err)
	}
}

func TestSortTransactions(t *testing.T) {
	txs := []domain.Transaction{
		{Timestamp: 2, Seq: 0, Price: 3},
		{Timestamp: 1, Seq: 1, Price: 2},
		{Timestamp: 1, Seq: 0, Price: 1},
	}
	if IsOrdered(txs) {
		t.Fatal("expected unordered input")
	}

	SortTransactions(txs)

	for i, want := range []float64{1, 2, 3} {
		if txs[i].Price != want {
			t.Errorf("position %d: price = %v, want %v", i, txs[i].Price, want)
		}
	}
	if !IsOrdered(txs) {
		t.Error("expected ordered output")
	}
}
