package plugin

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Kwargs is the static configuration passed alongside input columns.
// Each function reads only the fields it needs.
type Kwargs struct {
	// Bars
	Threshold     *float64 `json:"threshold,omitempty" validate:"omitempty,gt=0"`
	ThresholdKind string   `json:"threshold_kind,omitempty" validate:"omitempty,oneof=volume dollar"`
	BarSize       float64  `json:"bar_size,omitempty" validate:"gte=0"`
	AllowSplits   bool     `json:"allow_splits,omitempty"`

	// Labels
	ProfitTake             *float64 `json:"profit_take,omitempty" validate:"omitempty,gte=0"`
	StopLoss               *float64 `json:"stop_loss,omitempty" validate:"omitempty,gte=0"`
	MinReturn              float64  `json:"min_return,omitempty" validate:"gte=0"`
	UseVerticalBarrierSign bool     `json:"use_vertical_barrier_sign,omitempty"`
	TieBreak               string   `json:"tie_break,omitempty" validate:"omitempty,oneof=stop_loss profit_take"`
	VerticalBarrier        *int     `json:"vertical_barrier,omitempty" validate:"omitempty,gte=0"`
	Window                 int      `json:"window,omitempty" validate:"gte=0"`
	Offset                 int      `json:"offset,omitempty"`

	// Features and options
	D              float64 `json:"d,omitempty" validate:"gte=0"`
	CUSUMThreshold float64 `json:"cusum_threshold,omitempty" validate:"gte=0"`
	OptionType     string  `json:"option_type,omitempty" validate:"omitempty,oneof=call put"`
}

// ParseKwargs decodes and validates a JSON kwargs object. Unknown keys are
// rejected. Empty input yields zero Kwargs.
func ParseKwargs(raw []byte) (Kwargs, error) {
	var kw Kwargs
	if len(bytes.TrimSpace(raw)) == 0 {
		return kw, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&kw); err != nil {
		return Kwargs{}, fmt.Errorf("decode kwargs: %v: %w", err, ErrInvalidOperation)
	}
	if err := kw.Validate(); err != nil {
		return Kwargs{}, err
	}
	return kw, nil
}

// Validate checks field constraints.
func (k Kwargs) Validate() error {
	if err := validate.Struct(k); err != nil {
		return fmt.Errorf("kwargs: %v: %w", err, ErrInvalidOperation)
	}
	return nil
}
