package labels

// PricePath holds returns relative to the price at Start.
// Returns[j] = price[Start+j] / price[Start] - 1.
type PricePath struct {
	Start   int
	Returns []float64
}

// NewPricePath builds the path over prices[start:end]. Requires start < end.
func NewPricePath(prices []float64, start, end int) PricePath {
	base := prices[start]
	returns := make([]float64, end-start)
	for j := range returns {
		returns[j] = prices[start+j]/base - 1
	}
	return PricePath{Start: start, Returns: returns}
}

// Final returns the last return of the path.
func (p PricePath) Final() float64 {
	return p.Returns[len(p.Returns)-1]
}
