package plugin

import (
	"context"
	"errors"
	"fmt"

	"tick-feature-lab/internal/features"
	"tick-feature-lab/internal/options"
)

func weightsFFDFunc(_ context.Context, _ []*Series, kw Kwargs) (*Series, error) {
	if kw.Threshold == nil {
		return nil, fmt.Errorf("threshold is required: %w", ErrInvalidOperation)
	}
	w, err := features.FFDWeights(kw.D, *kw.Threshold)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}
	return NewFloat64("weights", w), nil
}

func fracDiffFunc(_ context.Context, inputs []*Series, kw Kwargs) (*Series, error) {
	if kw.Threshold == nil {
		return nil, fmt.Errorf("threshold is required: %w", ErrInvalidOperation)
	}
	values, err := inputs[0].floats()
	if err != nil {
		return nil, err
	}
	out, err := features.FracDiff(values, kw.D, *kw.Threshold)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}
	return NewNullableFloat64("frac_diff", out), nil
}

func symmetricCUSUMFunc(_ context.Context, inputs []*Series, kw Kwargs) (*Series, error) {
	h := kw.CUSUMThreshold
	if h == 0 && kw.Threshold != nil {
		h = *kw.Threshold
	}
	values, err := inputs[0].floats()
	if err != nil {
		return nil, err
	}

	flags := features.SymmetricCUSUM(values, h)
	return &Series{Name: "cusum_filter", DType: TypeInt8, Int8: ptrs(flags)}, nil
}

func blackScholesFunc(_ context.Context, inputs []*Series, kw Kwargs) (*Series, error) {
	cols := make([][]*float64, 5)
	for i := range cols {
		values, err := inputs[i].floats()
		if err != nil {
			return nil, err
		}
		cols[i] = values
	}
	n := len(cols[0])
	for i, c := range cols {
		if len(c) != n {
			return nil, fmt.Errorf("input %d has %d rows, want %d: %w", i, len(c), n, ErrInvalidOperation)
		}
	}

	var types []*string
	if col := optional(inputs, 5); col != nil {
		if col.DType != TypeUtf8 {
			return nil, col.unsupported()
		}
		if len(col.Utf8) != n {
			return nil, fmt.Errorf("type has %d rows, want %d: %w", len(col.Utf8), n, ErrInvalidOperation)
		}
		types = col.Utf8
	}

	s, k, t, sigma, r := cols[0], cols[1], cols[2], cols[3], cols[4]
	out := make([]*float64, n)
	for i := 0; i < n; i++ {
		typ := kw.OptionType
		if types != nil {
			if types[i] == nil {
				continue
			}
			typ = *types[i]
		}
		if s[i] == nil || k[i] == nil || t[i] == nil || sigma[i] == nil || r[i] == nil {
			continue
		}

		price, err := options.BlackScholes(*s[i], *k[i], *r[i], *sigma[i], *t[i], options.Type(typ))
		if errors.Is(err, options.ErrUnknownOptionType) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidOperation, err)
		}
		out[i] = &price
	}
	return NewNullableFloat64("price", out), nil
}
