package labels

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"
)

func i64(v int64) *int64 { return &v }

func TestLabeler_FixedHorizon(t *testing.T) {
	prices := []float64{100, 101, 103, 99, 98, 104}
	barriers := ScaleBarriers(ConstantWidth(len(prices), 0.02), f(1), f(1))

	l := NewLabeler(Policy{}, 2)
	got, err := l.Label(context.Background(), Input{
		Prices:   prices,
		Barriers: barriers,
		Horizon:  FixedHorizon(2),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		event *int8
		touch int64
		ret   float64
	}{
		{event(1), 2, 103.0/100 - 1},
		{event(0), 3, 99.0/101 - 1},
		{event(-1), 3, 99.0/103 - 1},
		{event(1), 5, 104.0/99 - 1},
		{event(1), 5, 104.0/98 - 1},
		{event(0), 5, 0},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d labels, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Event == nil || *got[i].Event != *w.event {
			t.Errorf("row %d: event = %v, want %d", i, got[i].Event, *w.event)
		}
		if got[i].BarsToTouch != w.touch {
			t.Errorf("row %d: bars to touch = %d, want %d", i, got[i].BarsToTouch, w.touch)
		}
		if !approxEqual(got[i].Return, w.ret) {
			t.Errorf("row %d: return = %v, want %v", i, got[i].Return, w.ret)
		}
	}
}

func TestLabeler_ValidMask(t *testing.T) {
	prices := []float64{1, 2, 3}

	l := NewLabeler(Policy{}, 1)
	got, err := l.Label(context.Background(), Input{
		Prices:  prices,
		Horizon: FixedHorizon(1),
		Valid:   []bool{true, false, true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got[1].Event != nil || got[1].Return != 0 || got[1].BarsToTouch != 0 {
		t.Errorf("invalid row should be an empty placeholder, got %+v", got[1])
	}
	if got[0].Event == nil || *got[0].Event != 0 || got[0].BarsToTouch != 1 {
		t.Errorf("row 0 should expire neutrally at row 1, got %+v", got[0])
	}
}

func TestLabeler_IndexHorizon(t *testing.T) {
	l := NewLabeler(Policy{UseVerticalBarrierSign: true}, 2)
	got, err := l.Label(context.Background(), Input{
		Prices:  []float64{1, 1.1, 0.9, 1.2},
		Index:   []int64{10, 20, 30, 40},
		Horizon: IndexHorizon([]*int64{i64(30), i64(40), nil, i64(40)}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantEvents := []*int8{event(-1), event(1), event(1), nil}
	wantTouch := []int64{2, 3, 3, 3}
	for i := range got {
		switch {
		case wantEvents[i] == nil && got[i].Event != nil:
			t.Errorf("row %d: event = %d, want nil", i, *got[i].Event)
		case wantEvents[i] != nil && (got[i].Event == nil || *got[i].Event != *wantEvents[i]):
			t.Errorf("row %d: event = %v, want %d", i, got[i].Event, *wantEvents[i])
		}
		if got[i].BarsToTouch != wantTouch[i] {
			t.Errorf("row %d: bars to touch = %d, want %d", i, got[i].BarsToTouch, wantTouch[i])
		}
	}
	if !approxEqual(got[0].Return, -0.1) {
		t.Errorf("row 0 return = %v, want -0.1", got[0].Return)
	}
}

func TestLabeler_IndexHorizonEndBeforeStart(t *testing.T) {
	l := NewLabeler(Policy{}, 1)
	got, err := l.Label(context.Background(), Input{
		Prices:  []float64{1, 2, 3},
		Index:   []int64{1, 2, 3},
		Horizon: IndexHorizon([]*int64{nil, i64(1), nil}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[1].BarsToTouch != 1 || got[1].Return != 0 {
		t.Errorf("expected a seed-only window for row 1, got %+v", got[1])
	}
}

func TestLabeler_MissingKeyFailsWholeCall(t *testing.T) {
	l := NewLabeler(Policy{}, 4)
	got, err := l.Label(context.Background(), Input{
		Prices:  []float64{1, 2, 3},
		Index:   []int64{1, 2, 3},
		Horizon: IndexHorizon([]*int64{i64(3), i64(99), nil}),
	})
	if !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "End index 99 not found in index") {
		t.Errorf("unexpected message: %v", err)
	}
	if got != nil {
		t.Errorf("expected no partial output, got %d labels", len(got))
	}
}

func TestLabeler_MissingKeyOnInvalidRowIsIgnored(t *testing.T) {
	l := NewLabeler(Policy{}, 1)
	_, err := l.Label(context.Background(), Input{
		Prices:  []float64{1, 2},
		Index:   []int64{1, 2},
		Horizon: IndexHorizon([]*int64{i64(99), nil}),
		Valid:   []bool{false, true},
	})
	if err != nil {
		t.Errorf("invalid rows should not be resolved, got %v", err)
	}
}

func TestLabeler_RejectsBadInput(t *testing.T) {
	l := NewLabeler(Policy{}, 1)
	ctx := context.Background()

	_, err := l.Label(ctx, Input{Prices: []float64{1, math.NaN()}, Horizon: FixedHorizon(1)})
	if !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("expected ErrInvalidOperation for NaN price, got %v", err)
	}

	_, err = l.Label(ctx, Input{Prices: []float64{1, 2}, Valid: []bool{true}, Horizon: FixedHorizon(1)})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch for mask, got %v", err)
	}

	_, err = l.Label(ctx, Input{Prices: []float64{1, 2}, Index: []int64{1}, Horizon: IndexHorizon([]*int64{nil, nil})})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch for index, got %v", err)
	}

	_, err = l.Label(ctx, Input{Prices: []float64{1, 2}})
	if !errors.Is(err, ErrInvalidHorizon) {
		t.Errorf("expected ErrInvalidHorizon for missing horizon, got %v", err)
	}

	_, err = l.Label(ctx, Input{Prices: []float64{1, 2}, Horizon: FixedHorizon(-1)})
	if !errors.Is(err, ErrInvalidHorizon) {
		t.Errorf("expected ErrInvalidHorizon for negative horizon, got %v", err)
	}

	_, err = NewLabeler(Policy{MinReturn: -1}, 1).Label(ctx, Input{Prices: []float64{1}, Horizon: FixedHorizon(1)})
	if !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("expected ErrInvalidPolicy, got %v", err)
	}
}

func TestLabeler_Empty(t *testing.T) {
	got, err := NewLabeler(Policy{}, 1).Label(context.Background(), Input{Horizon: FixedHorizon(3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no labels, got %d", len(got))
	}
}

func TestLabeler_ParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n := 5000
	prices := make([]float64, n)
	valid := make([]bool, n)
	price := 100.0
	for i := range prices {
		price *= 1 + (rng.Float64()-0.5)*0.02
		prices[i] = price
		valid[i] = rng.Intn(4) != 0
	}
	in := Input{
		Prices:   prices,
		Barriers: ScaleBarriers(ConstantWidth(n, 0.01), f(1.5), f(1)),
		Horizon:  FixedHorizon(50),
		Valid:    valid,
	}
	policy := Policy{MinReturn: 0.001, UseVerticalBarrierSign: true}

	sequential := NewLabeler(policy, 1)
	parallel := NewLabeler(policy, 8)
	parallel.chunkSize = 64

	want, err := sequential.Label(context.Background(), in)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	got, err := parallel.Label(context.Background(), in)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}

	for i := range want {
		if (want[i].Event == nil) != (got[i].Event == nil) ||
			(want[i].Event != nil && *want[i].Event != *got[i].Event) ||
			want[i].Return != got[i].Return ||
			want[i].BarsToTouch != got[i].BarsToTouch {
			t.Fatalf("row %d differs: sequential %+v, parallel %+v", i, want[i], got[i])
		}
	}
}

func TestLabeler_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLabeler(Policy{}, 1).Label(ctx, Input{Prices: []float64{1, 2}, Horizon: FixedHorizon(1)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
