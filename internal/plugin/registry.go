package plugin

import (
	"context"
	"fmt"
	"sync"
)

// Func is a columnar transformation: input columns plus static kwargs in, one
// aligned output column out.
type Func func(ctx context.Context, inputs []*Series, kw Kwargs) (*Series, error)

// Function describes a registered Func.
type Function struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Inputs      []string `json:"inputs"`     // input column names in call order
	MinInputs   int      `json:"min_inputs"` // trailing inputs past MinInputs are optional
	Fn          Func     `json:"-"`
}

// Registry maps function names to implementations.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Function
	order []string // registration order
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]Function),
	}
}

// Register adds a function. Names must be unique.
func (r *Registry) Register(fn Function) error {
	if fn.Name == "" {
		return fmt.Errorf("function name cannot be empty")
	}
	if fn.Fn == nil {
		return fmt.Errorf("function %s has no implementation", fn.Name)
	}
	if fn.MinInputs > len(fn.Inputs) {
		return fmt.Errorf("function %s requires %d inputs but names %d", fn.Name, fn.MinInputs, len(fn.Inputs))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.funcs[fn.Name]; exists {
		return fmt.Errorf("function %s already registered", fn.Name)
	}
	r.funcs[fn.Name] = fn
	r.order = append(r.order, fn.Name)
	return nil
}

// Get retrieves a function by name.
func (r *Registry) Get(name string) (Function, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, exists := r.funcs[name]
	if !exists {
		return Function{}, fmt.Errorf("function %s: %w", name, ErrUnknownFunction)
	}
	return fn, nil
}

// List returns all functions in registration order.
func (r *Registry) List() []Function {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Function, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.funcs[name])
	}
	return out
}

// Call checks arity and kwargs, then invokes the named function.
func (r *Registry) Call(ctx context.Context, name string, inputs []*Series, kw Kwargs) (*Series, error) {
	fn, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if len(inputs) < fn.MinInputs || len(inputs) > len(fn.Inputs) {
		return nil, fmt.Errorf("%s takes %d to %d inputs, got %d: %w",
			name, fn.MinInputs, len(fn.Inputs), len(inputs), ErrInvalidOperation)
	}
	for i := 0; i < fn.MinInputs; i++ {
		if inputs[i] == nil {
			return nil, fmt.Errorf("%s: input %q is required: %w", name, fn.Inputs[i], ErrInvalidOperation)
		}
	}
	if err := kw.Validate(); err != nil {
		return nil, err
	}

	out, err := fn.Fn(ctx, inputs, kw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// optional returns inputs[i] when present.
func optional(inputs []*Series, i int) *Series {
	if i < len(inputs) {
		return inputs[i]
	}
	return nil
}
