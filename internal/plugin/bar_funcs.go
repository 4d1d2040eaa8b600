package plugin

import (
	"context"
	"errors"
	"fmt"
	"math"

	"tick-feature-lab/internal/bars"
	"tick-feature-lab/internal/domain"
)

// transactions reads the timestamp, price and size columns.
func transactions(inputs []*Series) ([]domain.Transaction, error) {
	tsCol, priceCol, sizeCol := inputs[0], inputs[1], inputs[2]

	rawTs, err := tsCol.timestamps()
	if err != nil {
		return nil, err
	}
	if priceCol.DType != TypeFloat64 {
		return nil, priceCol.unsupported()
	}
	if sizeCol.DType != TypeUInt32 {
		return nil, sizeCol.unsupported()
	}

	ts, err := required(tsCol.Name, rawTs)
	if err != nil {
		return nil, err
	}
	prices, err := required(priceCol.Name, priceCol.Float64)
	if err != nil {
		return nil, err
	}
	sizes, err := required(sizeCol.Name, sizeCol.UInt32)
	if err != nil {
		return nil, err
	}
	if len(prices) != len(ts) || len(sizes) != len(ts) {
		return nil, fmt.Errorf("columns have %d, %d and %d rows: %w", len(ts), len(prices), len(sizes), ErrInvalidOperation)
	}

	txs := make([]domain.Transaction, len(ts))
	for i := range txs {
		if math.IsNaN(prices[i]) {
			return nil, fmt.Errorf("column %q has NaN at row %d: %w", priceCol.Name, i, ErrInvalidOperation)
		}
		txs[i] = domain.Transaction{Timestamp: ts[i], Seq: int64(i), Price: prices[i], Size: sizes[i]}
	}
	return txs, nil
}

func volumeBarsFunc(_ context.Context, inputs []*Series, kw Kwargs) (*Series, error) {
	txs, err := transactions(inputs)
	if err != nil {
		return nil, err
	}

	var th bars.Thresholds
	if col := optional(inputs, 3); col != nil {
		if col.DType != TypeUInt32 {
			return nil, col.unsupported()
		}
		values, err := required(col.Name, col.UInt32)
		if err != nil {
			return nil, err
		}
		th = bars.VolumeThresholds(values...)
	} else {
		if kw.Threshold == nil || *kw.Threshold < 1 || *kw.Threshold > math.MaxUint32 || *kw.Threshold != math.Trunc(*kw.Threshold) {
			return nil, fmt.Errorf("volume threshold must be a positive integer: %w", ErrInvalidOperation)
		}
		th = bars.VolumeThresholds(uint32(*kw.Threshold))
	}

	out, err := bars.Aggregate(txs, th)
	if err != nil {
		return nil, barsError(err)
	}
	return barStruct(out), nil
}

func dollarBarsFunc(_ context.Context, inputs []*Series, kw Kwargs) (*Series, error) {
	txs, err := transactions(inputs)
	if err != nil {
		return nil, err
	}

	var th bars.Thresholds
	if col := optional(inputs, 3); col != nil {
		if col.DType != TypeFloat64 {
			return nil, col.unsupported()
		}
		values, err := required(col.Name, col.Float64)
		if err != nil {
			return nil, err
		}
		th = bars.DollarThresholds(values...)
	} else {
		if kw.Threshold == nil {
			return nil, fmt.Errorf("dollar threshold is required: %w", ErrInvalidOperation)
		}
		th = bars.DollarThresholds(*kw.Threshold)
	}

	out, err := bars.Aggregate(txs, th)
	if err != nil {
		return nil, barsError(err)
	}
	return barStruct(out), nil
}

func tickBarsFunc(_ context.Context, inputs []*Series, kw Kwargs) (*Series, error) {
	txs, err := transactions(inputs)
	if err != nil {
		return nil, err
	}
	n := int(kw.BarSize)
	if float64(n) != kw.BarSize {
		return nil, fmt.Errorf("tick bar size %v is not an integer: %w", kw.BarSize, ErrInvalidOperation)
	}

	out, err := bars.TickBars(txs, n)
	if err != nil {
		return nil, barsError(err)
	}
	return barStruct(out), nil
}

func timeBarsFunc(_ context.Context, inputs []*Series, kw Kwargs) (*Series, error) {
	txs, err := transactions(inputs)
	if err != nil {
		return nil, err
	}
	interval := int64(kw.BarSize)
	if float64(interval) != kw.BarSize {
		return nil, fmt.Errorf("time bar size %v is not whole milliseconds: %w", kw.BarSize, ErrInvalidOperation)
	}

	out, err := bars.TimeBars(txs, interval)
	if err != nil {
		return nil, barsError(err)
	}
	return barStruct(out), nil
}

func barGroupsFunc(_ context.Context, inputs []*Series, kw Kwargs) (*Series, error) {
	col := inputs[0]
	raw, err := col.floats()
	if err != nil {
		return nil, err
	}
	values, err := required(col.Name, raw)
	if err != nil {
		return nil, err
	}

	groups, err := bars.Groups(values, kw.BarSize, kw.AllowSplits)
	if err != nil {
		return nil, barsError(err)
	}

	rows := make([]int64, len(groups))
	ids := make([]uint32, len(groups))
	amounts := make([]float64, len(groups))
	for i, g := range groups {
		rows[i] = int64(g.Row)
		ids[i] = g.ID
		amounts[i] = g.Amount
	}
	return NewStruct("bar_groups",
		NewInt64("row", rows),
		NewUInt32("id", ids),
		NewFloat64("amount", amounts),
	), nil
}

func dynamicTickBarGroupsFunc(_ context.Context, inputs []*Series, _ Kwargs) (*Series, error) {
	col := inputs[0]
	if col.DType != TypeUInt32 {
		return nil, col.unsupported()
	}
	return NewNullableUInt32("group_id", bars.DynamicTickGroups(col.UInt32)), nil
}

func barStruct(out []domain.Bar) *Series {
	n := len(out)
	start := make([]int64, n)
	end := make([]int64, n)
	opens := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	vwaps := make([]float64, n)
	volumes := make([]uint32, n)
	counts := make([]uint32, n)
	for i, b := range out {
		start[i], end[i] = b.StartTime, b.EndTime
		opens[i], highs[i], lows[i], closes[i] = b.Open, b.High, b.Low, b.Close
		vwaps[i] = b.VWAP
		volumes[i], counts[i] = b.Volume, b.TransactionCount
	}
	return NewStruct("bars",
		NewDatetime("start_time", start),
		NewDatetime("end_time", end),
		NewFloat64("open", opens),
		NewFloat64("high", highs),
		NewFloat64("low", lows),
		NewFloat64("close", closes),
		NewFloat64("vwap", vwaps),
		NewUInt32("volume", volumes),
		NewUInt32("transaction_count", counts),
	)
}

// barsError maps aggregation failures onto plugin error kinds.
func barsError(err error) error {
	if errors.Is(err, bars.ErrUnsupportedType) {
		return fmt.Errorf("%w: %w", ErrUnsupportedType, err)
	}
	return fmt.Errorf("%w: %w", ErrInvalidOperation, err)
}
