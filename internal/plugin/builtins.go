package plugin

// NewDefaultRegistry returns a registry holding every built-in function.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, fn := range builtins() {
		if err := r.Register(fn); err != nil {
			panic(err)
		}
	}
	return r
}

func builtins() []Function {
	trades := []string{"timestamp", "price", "size"}
	return []Function{
		{
			Name:        "volume_bars",
			Description: "OHLCV bars closing at a cumulative traded size; trades are split across bars",
			Inputs:      append(trades, "threshold"),
			MinInputs:   3,
			Fn:          volumeBarsFunc,
		},
		{
			Name:        "dollar_bars",
			Description: "OHLCV bars closing at a cumulative traded notional; trades are split across bars",
			Inputs:      append(trades, "threshold"),
			MinInputs:   3,
			Fn:          dollarBarsFunc,
		},
		{
			Name:        "bar_groups",
			Description: "group ids and contributed amounts for a value column and fixed bar size",
			Inputs:      []string{"values"},
			MinInputs:   1,
			Fn:          barGroupsFunc,
		},
		{
			Name:        "dynamic_tick_bar_groups",
			Description: "group ids from per-row tick counts",
			Inputs:      []string{"thresholds"},
			MinInputs:   1,
			Fn:          dynamicTickBarGroupsFunc,
		},
		{
			Name:        "tick_bars",
			Description: "OHLCV bars of bar_size trades each",
			Inputs:      trades,
			MinInputs:   3,
			Fn:          tickBarsFunc,
		},
		{
			Name:        "time_bars",
			Description: "OHLCV bars bucketed by bar_size milliseconds",
			Inputs:      trades,
			MinInputs:   3,
			Fn:          timeBarsFunc,
		},
		{
			Name:        "triple_barrier_label",
			Description: "first barrier touched by each seed row's forward price path",
			Inputs:      []string{"index", "price", "width", "vertical_barrier", "valid"},
			MinInputs:   2,
			Fn:          tripleBarrierLabelFunc,
		},
		{
			Name:        "fixed_time_return",
			Description: "forward return over window rows starting offset rows ahead",
			Inputs:      []string{"price"},
			MinInputs:   1,
			Fn:          fixedTimeReturnFunc,
		},
		{
			Name:        "fixed_time_return_classification",
			Description: "forward return classified as -1/0/1 by sign or threshold",
			Inputs:      []string{"price"},
			MinInputs:   1,
			Fn:          fixedTimeReturnClassificationFunc,
		},
		{
			Name:        "get_weights_ffd",
			Description: "fixed-width fractional differencing weights for order d",
			MinInputs:   0,
			Fn:          weightsFFDFunc,
		},
		{
			Name:        "frac_diff",
			Description: "fixed-width fractionally differenced series",
			Inputs:      []string{"values"},
			MinInputs:   1,
			Fn:          fracDiffFunc,
		},
		{
			Name:        "symmetric_cusum_filter",
			Description: "CUSUM events on a diff series: -1 downside, 1 upside, 0 none",
			Inputs:      []string{"diff"},
			MinInputs:   1,
			Fn:          symmetricCUSUMFunc,
		},
		{
			Name:        "black_scholes",
			Description: "European option price",
			Inputs:      []string{"s", "k", "t", "sigma", "r", "type"},
			MinInputs:   5,
			Fn:          blackScholesFunc,
		},
	}
}
