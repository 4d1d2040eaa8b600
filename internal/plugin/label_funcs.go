package plugin

import (
	"context"
	"errors"
	"fmt"

	"tick-feature-lab/internal/labels"
)

func tripleBarrierLabelFunc(ctx context.Context, inputs []*Series, kw Kwargs) (*Series, error) {
	indexCol, priceCol := inputs[0], inputs[1]

	rawIndex, err := indexCol.timestamps()
	if err != nil {
		return nil, err
	}
	if priceCol.DType != TypeFloat64 {
		return nil, priceCol.unsupported()
	}
	index, err := required(indexCol.Name, rawIndex)
	if err != nil {
		return nil, err
	}
	prices, err := required(priceCol.Name, priceCol.Float64)
	if err != nil {
		return nil, err
	}
	n := len(prices)
	if len(index) != n {
		return nil, fmt.Errorf("index has %d rows, prices %d: %w", len(index), n, ErrInvalidOperation)
	}

	in := labels.Input{Prices: prices, Index: index}

	if kw.ProfitTake != nil || kw.StopLoss != nil {
		width := labels.ConstantWidth(n, 1)
		if col := optional(inputs, 2); col != nil {
			if width, err = col.floats(); err != nil {
				return nil, err
			}
			if len(width) != n {
				return nil, fmt.Errorf("width has %d rows, prices %d: %w", len(width), n, ErrInvalidOperation)
			}
		}
		in.Barriers = labels.ScaleBarriers(width, kw.ProfitTake, kw.StopLoss)
	}

	switch col := optional(inputs, 3); {
	case col != nil:
		ends, err := col.timestamps()
		if err != nil {
			return nil, err
		}
		in.Horizon = labels.IndexHorizon(ends)
	case kw.VerticalBarrier != nil:
		in.Horizon = labels.FixedHorizon(*kw.VerticalBarrier)
	default:
		in.Horizon = labels.IndexHorizon(make([]*int64, n))
	}

	if col := optional(inputs, 4); col != nil {
		if col.DType != TypeBool {
			return nil, col.unsupported()
		}
		in.Valid = make([]bool, len(col.Bool))
		for i, v := range col.Bool {
			in.Valid[i] = v != nil && *v
		}
	}

	tie, err := labels.ParseTieBreak(kw.TieBreak)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}
	policy := labels.Policy{
		MinReturn:              kw.MinReturn,
		UseVerticalBarrierSign: kw.UseVerticalBarrierSign,
		TieBreak:               tie,
	}

	out, err := labels.NewLabeler(policy, 0).Label(ctx, in)
	if err != nil {
		return nil, labelsError(err)
	}

	events := make([]*int8, n)
	returns := make([]float64, n)
	touches := make([]int64, n)
	for i, l := range out {
		events[i] = l.Event
		returns[i] = l.Return
		touches[i] = l.BarsToTouch
	}
	return NewStruct("triple_barrier_label",
		NewNullableInt8("event", events),
		NewFloat64("return", returns),
		NewInt64("bars_to_touch", touches),
	), nil
}

func fixedTimeReturns(inputs []*Series, kw Kwargs) ([]*float64, error) {
	col := inputs[0]
	if col.DType != TypeFloat64 {
		return nil, col.unsupported()
	}
	prices, err := required(col.Name, col.Float64)
	if err != nil {
		return nil, err
	}
	returns, err := labels.FixedTimeReturn(prices, kw.Window, kw.Offset)
	if err != nil {
		return nil, labelsError(err)
	}
	return returns, nil
}

func fixedTimeReturnFunc(_ context.Context, inputs []*Series, kw Kwargs) (*Series, error) {
	returns, err := fixedTimeReturns(inputs, kw)
	if err != nil {
		return nil, err
	}
	return NewNullableFloat64("return", returns), nil
}

func fixedTimeReturnClassificationFunc(_ context.Context, inputs []*Series, kw Kwargs) (*Series, error) {
	returns, err := fixedTimeReturns(inputs, kw)
	if err != nil {
		return nil, err
	}
	return NewNullableInt8("label", labels.ClassifyByThreshold(returns, kw.Threshold)), nil
}

// labelsError maps labeling failures onto plugin error kinds.
func labelsError(err error) error {
	switch {
	case errors.Is(err, labels.ErrKeyNotFound):
		return fmt.Errorf("%w: %w", ErrLookup, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}
}
