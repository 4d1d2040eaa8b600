package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tick-feature-lab/internal/labels"
)

func ptr[T any](v T) *T { return &v }

func tradeInputs(ts []int64, prices []float64, sizes []uint32) []*Series {
	return []*Series{
		NewDatetime("timestamp", ts),
		NewFloat64("price", prices),
		NewUInt32("size", sizes),
	}
}

func floatsOf(t *testing.T, s *Series) []float64 {
	t.Helper()
	require.Equal(t, TypeFloat64, s.DType)
	out := make([]float64, len(s.Float64))
	for i, v := range s.Float64 {
		require.NotNil(t, v, "row %d of %s is null", i, s.Name)
		out[i] = *v
	}
	return out
}

func TestDefaultRegistry_ListsBuiltins(t *testing.T) {
	r := NewDefaultRegistry()

	names := make([]string, 0)
	for _, fn := range r.List() {
		names = append(names, fn.Name)
	}
	assert.Contains(t, names, "volume_bars")
	assert.Contains(t, names, "triple_barrier_label")
	assert.Contains(t, names, "black_scholes")
	assert.Equal(t, "volume_bars", names[0], "registration order is kept")
}

func TestRegistry_Errors(t *testing.T) {
	r := NewDefaultRegistry()
	ctx := context.Background()

	_, err := r.Call(ctx, "renko_bars", nil, Kwargs{})
	assert.ErrorIs(t, err, ErrUnknownFunction)

	_, err = r.Call(ctx, "volume_bars", []*Series{NewFloat64("price", []float64{1})}, Kwargs{})
	assert.ErrorIs(t, err, ErrInvalidOperation)

	err = r.Register(Function{Name: "volume_bars", Fn: volumeBarsFunc})
	assert.Error(t, err)

	err = r.Register(Function{Name: "noop"})
	assert.Error(t, err)
}

func TestVolumeBars(t *testing.T) {
	r := NewDefaultRegistry()
	inputs := tradeInputs([]int64{1, 2, 3}, []float64{10, 11, 12}, []uint32{2, 2, 2})

	out, err := r.Call(context.Background(), "volume_bars", inputs, Kwargs{Threshold: ptr(3.0)})
	require.NoError(t, err)
	require.Equal(t, TypeStruct, out.DType)
	require.Equal(t, 2, out.Len())

	assert.Equal(t, []float64{10, 11}, floatsOf(t, out.Field("open")))
	assert.Equal(t, []float64{11, 12}, floatsOf(t, out.Field("close")))

	volume := out.Field("volume")
	require.NotNil(t, volume)
	assert.Equal(t, uint32(3), *volume.UInt32[0])
	assert.Equal(t, uint32(3), *volume.UInt32[1])

	start := out.Field("start_time")
	require.NotNil(t, start)
	assert.Equal(t, TypeDatetime, start.DType)
	assert.Equal(t, int64(2), *start.Int64[1], "second bar starts with the split remainder")
}

func TestVolumeBars_ThresholdColumn(t *testing.T) {
	r := NewDefaultRegistry()
	inputs := append(
		tradeInputs([]int64{1, 2, 3}, []float64{10, 11, 12}, []uint32{2, 2, 2}),
		NewUInt32("threshold", []uint32{6}),
	)

	out, err := r.Call(context.Background(), "volume_bars", inputs, Kwargs{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Len())
}

func TestDollarBars(t *testing.T) {
	r := NewDefaultRegistry()
	inputs := tradeInputs([]int64{1, 2}, []float64{10, 10}, []uint32{5, 5})

	out, err := r.Call(context.Background(), "dollar_bars", inputs, Kwargs{Threshold: ptr(50.0)})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
}

func TestBars_TypeAndNullErrors(t *testing.T) {
	r := NewDefaultRegistry()
	ctx := context.Background()

	badSize := []*Series{
		NewDatetime("timestamp", []int64{1}),
		NewFloat64("price", []float64{1}),
		NewFloat64("size", []float64{1}),
	}
	_, err := r.Call(ctx, "volume_bars", badSize, Kwargs{Threshold: ptr(1.0)})
	assert.ErrorIs(t, err, ErrUnsupportedType)

	nullPrice := tradeInputs([]int64{1, 2}, []float64{1, 2}, []uint32{1, 1})
	nullPrice[1].Float64[1] = nil
	_, err = r.Call(ctx, "volume_bars", nullPrice, Kwargs{Threshold: ptr(1.0)})
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = r.Call(ctx, "volume_bars", tradeInputs([]int64{1}, []float64{1}, []uint32{1}), Kwargs{})
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = r.Call(ctx, "volume_bars", tradeInputs([]int64{1}, []float64{1}, []uint32{1}), Kwargs{Threshold: ptr(2.5)})
	assert.ErrorIs(t, err, ErrInvalidOperation, "fractional volume threshold")
}

func TestTickAndTimeBars(t *testing.T) {
	r := NewDefaultRegistry()
	ctx := context.Background()
	inputs := tradeInputs([]int64{0, 500, 1000, 1500, 2500}, []float64{1, 2, 3, 4, 5}, []uint32{1, 1, 1, 1, 1})

	ticks, err := r.Call(ctx, "tick_bars", inputs, Kwargs{BarSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, ticks.Len())

	timed, err := r.Call(ctx, "time_bars", inputs, Kwargs{BarSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, 3, timed.Len())

	_, err = r.Call(ctx, "tick_bars", inputs, Kwargs{BarSize: 1.5})
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestBarGroups(t *testing.T) {
	r := NewDefaultRegistry()
	inputs := []*Series{NewFloat64("volume", []float64{1, 2, 3, 4, 5})}

	out, err := r.Call(context.Background(), "bar_groups", inputs, Kwargs{BarSize: 4, AllowSplits: true})
	require.NoError(t, err)
	require.Equal(t, 8, out.Len())

	rows := make([]int64, 0)
	for _, v := range out.Field("row").Int64 {
		rows = append(rows, *v)
	}
	ids := make([]uint32, 0)
	for _, v := range out.Field("id").UInt32 {
		ids = append(ids, *v)
	}
	assert.Equal(t, []int64{0, 1, 2, 2, 3, 3, 4, 4}, rows)
	assert.Equal(t, []uint32{0, 0, 0, 1, 1, 2, 2, 3}, ids)
	assert.Equal(t, []float64{1, 2, 1, 2, 2, 2, 2, 3}, floatsOf(t, out.Field("amount")))

	overflow, err := r.Call(context.Background(), "bar_groups", inputs, Kwargs{BarSize: 4})
	require.NoError(t, err)
	assert.Equal(t, 5, overflow.Len())
}

func TestBarGroups_UnsupportedType(t *testing.T) {
	r := NewDefaultRegistry()
	_, err := r.Call(context.Background(), "bar_groups", []*Series{NewUtf8("volume", []string{"1"})}, Kwargs{BarSize: 4})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestDynamicTickBarGroups(t *testing.T) {
	r := NewDefaultRegistry()
	thresholds := NewNullableUInt32("threshold", []*uint32{ptr(uint32(2)), ptr(uint32(2)), nil, ptr(uint32(2))})

	out, err := r.Call(context.Background(), "dynamic_tick_bar_groups", []*Series{thresholds}, Kwargs{})
	require.NoError(t, err)
	require.Equal(t, 4, out.Len())
	assert.Equal(t, uint32(0), *out.UInt32[0])
	assert.Equal(t, uint32(0), *out.UInt32[1])
	assert.Nil(t, out.UInt32[2])
	assert.Equal(t, uint32(1), *out.UInt32[3])
}

func TestTripleBarrierLabel(t *testing.T) {
	r := NewDefaultRegistry()
	inputs := []*Series{
		NewInt64("index", []int64{0, 1, 2, 3}),
		NewFloat64("price", []float64{1.0, 1.1, 1.2, 1.3}),
	}
	kw := Kwargs{ProfitTake: ptr(0.25), StopLoss: ptr(0.1), VerticalBarrier: ptr(3)}

	out, err := r.Call(context.Background(), "triple_barrier_label", inputs, kw)
	require.NoError(t, err)
	require.Equal(t, 4, out.Len())

	event := out.Field("event")
	require.NotNil(t, event.Int8[0])
	assert.Equal(t, int8(1), *event.Int8[0])
	assert.Equal(t, int64(3), *out.Field("bars_to_touch").Int64[0])
	assert.InDelta(t, 0.3, *out.Field("return").Float64[0], 1e-9)
}

func TestTripleBarrierLabel_ValidAndVertical(t *testing.T) {
	r := NewDefaultRegistry()
	inputs := []*Series{
		NewDatetime("index", []int64{10, 20, 30}),
		NewFloat64("price", []float64{1, 2, 3}),
		nil,
		NewNullableInt64("vertical_barrier", []*int64{ptr(int64(20)), nil, nil}),
		NewBool("valid", []bool{true, false, true}),
	}

	out, err := r.Call(context.Background(), "triple_barrier_label", inputs, Kwargs{UseVerticalBarrierSign: true})
	require.NoError(t, err)

	event := out.Field("event")
	assert.Equal(t, int8(1), *event.Int8[0])
	assert.Equal(t, int64(1), *out.Field("bars_to_touch").Int64[0])
	assert.Nil(t, event.Int8[1], "invalid row is a placeholder")
	assert.Nil(t, event.Int8[2], "seed-only path has no direction")
}

func TestTripleBarrierLabel_Errors(t *testing.T) {
	r := NewDefaultRegistry()
	ctx := context.Background()

	missing := []*Series{
		NewInt64("index", []int64{1, 2}),
		NewFloat64("price", []float64{1, 2}),
		nil,
		NewNullableInt64("vertical_barrier", []*int64{ptr(int64(7)), nil}),
	}
	_, err := r.Call(ctx, "triple_barrier_label", missing, Kwargs{})
	assert.ErrorIs(t, err, ErrLookup)
	assert.ErrorIs(t, err, labels.ErrKeyNotFound)
	assert.Contains(t, err.Error(), "End index 7 not found in index")

	nullIndex := []*Series{
		NewNullableInt64("index", []*int64{ptr(int64(1)), nil}),
		NewFloat64("price", []float64{1, 2}),
	}
	_, err = r.Call(ctx, "triple_barrier_label", nullIndex, Kwargs{})
	assert.ErrorIs(t, err, ErrInvalidOperation)

	floatIndex := []*Series{
		NewFloat64("index", []float64{1, 2}),
		NewFloat64("price", []float64{1, 2}),
	}
	_, err = r.Call(ctx, "triple_barrier_label", floatIndex, Kwargs{})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestFixedTimeReturn(t *testing.T) {
	r := NewDefaultRegistry()
	inputs := []*Series{NewFloat64("price", []float64{1, 2, 4, 8})}

	out, err := r.Call(context.Background(), "fixed_time_return", inputs, Kwargs{Window: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, *out.Float64[0])
	assert.Nil(t, out.Float64[3])

	classes, err := r.Call(context.Background(), "fixed_time_return_classification", inputs, Kwargs{Window: 1})
	require.NoError(t, err)
	assert.Equal(t, int8(1), *classes.Int8[0])
	assert.Nil(t, classes.Int8[3])
}

func TestFeatureFuncs(t *testing.T) {
	r := NewDefaultRegistry()
	ctx := context.Background()

	weights, err := r.Call(ctx, "get_weights_ffd", nil, Kwargs{D: 1, Threshold: ptr(1e-5)})
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 1}, floatsOf(t, weights))

	diffs := NewFloat64("diff", []float64{1, 2, -3, -4, 5})
	flags, err := r.Call(ctx, "symmetric_cusum_filter", []*Series{diffs}, Kwargs{CUSUMThreshold: 2})
	require.NoError(t, err)
	got := make([]int8, 0)
	for _, v := range flags.Int8 {
		got = append(got, *v)
	}
	assert.Equal(t, []int8{0, 1, -1, -1, 1}, got)

	fd, err := r.Call(ctx, "frac_diff", []*Series{NewFloat64("close", []float64{1, 3, 6})}, Kwargs{D: 1, Threshold: ptr(1e-5)})
	require.NoError(t, err)
	assert.Nil(t, fd.Float64[0])
	assert.Equal(t, 3.0, *fd.Float64[2])
}

func TestBlackScholes(t *testing.T) {
	r := NewDefaultRegistry()
	inputs := []*Series{
		NewFloat64("s", []float64{101, 101, 101}),
		NewFloat64("k", []float64{100, 105, 100}),
		NewFloat64("t", []float64{0.25, 0.75, 1}),
		NewFloat64("sigma", []float64{0.25, 0.22, 0.2}),
		NewFloat64("r", []float64{0.03, 0.03, 0.03}),
		NewUtf8("type", []string{"put", "call", "straddle"}),
	}

	out, err := r.Call(context.Background(), "black_scholes", inputs, Kwargs{})
	require.NoError(t, err)
	assert.InDelta(t, 4.164716, *out.Float64[0], 1e-4)
	assert.InDelta(t, 6.924801, *out.Float64[1], 1e-4)
	assert.Nil(t, out.Float64[2], "unknown option type yields a null row")
}

func TestParseKwargs(t *testing.T) {
	kw, err := ParseKwargs([]byte(`{"threshold": 100, "allow_splits": true, "tie_break": "profit_take"}`))
	require.NoError(t, err)
	require.NotNil(t, kw.Threshold)
	assert.Equal(t, 100.0, *kw.Threshold)
	assert.True(t, kw.AllowSplits)

	_, err = ParseKwargs([]byte(`{"thresold": 100}`))
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = ParseKwargs([]byte(`{"tie_break": "coin_flip"}`))
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = ParseKwargs([]byte(`{"min_return": -0.1}`))
	assert.ErrorIs(t, err, ErrInvalidOperation)

	kw, err = ParseKwargs(nil)
	require.NoError(t, err)
	assert.Nil(t, kw.Threshold)
}
