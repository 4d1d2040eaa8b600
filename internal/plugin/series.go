package plugin

import (
	"fmt"
)

// DType is the element type of a Series.
type DType string

// Column types
const (
	TypeFloat64  DType = "float64"
	TypeInt64    DType = "int64"
	TypeInt8     DType = "int8"
	TypeUInt32   DType = "uint32"
	TypeDatetime DType = "datetime" // ms since epoch, stored in Int64
	TypeBool     DType = "bool"
	TypeUtf8     DType = "utf8"
	TypeStruct   DType = "struct"
)

// Series is a named, typed, nullable column. Only the slice matching DType is
// populated; a nil element is a null.
type Series struct {
	Name    string     `json:"name"`
	DType   DType      `json:"dtype"`
	Float64 []*float64 `json:"float64,omitempty"`
	Int64   []*int64   `json:"int64,omitempty"`
	Int8    []*int8    `json:"int8,omitempty"`
	UInt32  []*uint32  `json:"uint32,omitempty"`
	Bool    []*bool    `json:"bool,omitempty"`
	Utf8    []*string  `json:"utf8,omitempty"`
	Fields  []*Series  `json:"fields,omitempty"`
}

// Len returns the number of rows.
func (s *Series) Len() int {
	switch s.DType {
	case TypeFloat64:
		return len(s.Float64)
	case TypeInt64, TypeDatetime:
		return len(s.Int64)
	case TypeInt8:
		return len(s.Int8)
	case TypeUInt32:
		return len(s.UInt32)
	case TypeBool:
		return len(s.Bool)
	case TypeUtf8:
		return len(s.Utf8)
	case TypeStruct:
		if len(s.Fields) == 0 {
			return 0
		}
		return s.Fields[0].Len()
	}
	return 0
}

// Field returns the struct field with the given name, or nil.
func (s *Series) Field(name string) *Series {
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// NullCount returns the number of null rows.
func (s *Series) NullCount() int {
	count := 0
	for i := 0; i < s.Len(); i++ {
		if s.isNull(i) {
			count++
		}
	}
	return count
}

func (s *Series) isNull(i int) bool {
	switch s.DType {
	case TypeFloat64:
		return s.Float64[i] == nil
	case TypeInt64, TypeDatetime:
		return s.Int64[i] == nil
	case TypeInt8:
		return s.Int8[i] == nil
	case TypeUInt32:
		return s.UInt32[i] == nil
	case TypeBool:
		return s.Bool[i] == nil
	case TypeUtf8:
		return s.Utf8[i] == nil
	}
	return false
}

// NewFloat64 builds a fully populated Float64 column.
func NewFloat64(name string, values []float64) *Series {
	out := make([]*float64, len(values))
	for i := range values {
		out[i] = &values[i]
	}
	return &Series{Name: name, DType: TypeFloat64, Float64: out}
}

// NewNullableFloat64 wraps a nullable Float64 column.
func NewNullableFloat64(name string, values []*float64) *Series {
	return &Series{Name: name, DType: TypeFloat64, Float64: values}
}

// NewInt64 builds a fully populated Int64 column.
func NewInt64(name string, values []int64) *Series {
	return &Series{Name: name, DType: TypeInt64, Int64: ptrs(values)}
}

// NewDatetime builds a fully populated Datetime column of ms timestamps.
func NewDatetime(name string, values []int64) *Series {
	return &Series{Name: name, DType: TypeDatetime, Int64: ptrs(values)}
}

// NewNullableInt64 wraps a nullable Int64 column.
func NewNullableInt64(name string, values []*int64) *Series {
	return &Series{Name: name, DType: TypeInt64, Int64: values}
}

// NewUInt32 builds a fully populated UInt32 column.
func NewUInt32(name string, values []uint32) *Series {
	return &Series{Name: name, DType: TypeUInt32, UInt32: ptrs(values)}
}

// NewNullableUInt32 wraps a nullable UInt32 column.
func NewNullableUInt32(name string, values []*uint32) *Series {
	return &Series{Name: name, DType: TypeUInt32, UInt32: values}
}

// NewNullableInt8 wraps a nullable Int8 column.
func NewNullableInt8(name string, values []*int8) *Series {
	return &Series{Name: name, DType: TypeInt8, Int8: values}
}

// NewBool builds a fully populated Bool column.
func NewBool(name string, values []bool) *Series {
	return &Series{Name: name, DType: TypeBool, Bool: ptrs(values)}
}

// NewUtf8 builds a fully populated Utf8 column.
func NewUtf8(name string, values []string) *Series {
	return &Series{Name: name, DType: TypeUtf8, Utf8: ptrs(values)}
}

// NewStruct builds a struct column from equal-length fields.
func NewStruct(name string, fields ...*Series) *Series {
	return &Series{Name: name, DType: TypeStruct, Fields: fields}
}

func ptrs[T any](values []T) []*T {
	out := make([]*T, len(values))
	for i := range values {
		out[i] = &values[i]
	}
	return out
}

// floats returns the column as nullable float64.
// UInt32 and Int64 columns are widened.
func (s *Series) floats() ([]*float64, error) {
	switch s.DType {
	case TypeFloat64:
		return s.Float64, nil
	case TypeUInt32:
		return widen(s.UInt32), nil
	case TypeInt64:
		return widen(s.Int64), nil
	}
	return nil, s.unsupported()
}

func widen[T uint32 | int64](values []*T) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if v != nil {
			f := float64(*v)
			out[i] = &f
		}
	}
	return out
}

// timestamps returns a Datetime or Int64 column.
func (s *Series) timestamps() ([]*int64, error) {
	if s.DType != TypeDatetime && s.DType != TypeInt64 {
		return nil, s.unsupported()
	}
	return s.Int64, nil
}

func (s *Series) unsupported() error {
	return fmt.Errorf("column %q of type %s: %w", s.Name, s.DType, ErrUnsupportedType)
}

// required strips nulls from a column that must be fully populated.
func required[T any](name string, values []*T) ([]T, error) {
	out := make([]T, len(values))
	for i, v := range values {
		if v == nil {
			return nil, fmt.Errorf("column %q has a null at row %d: %w", name, i, ErrInvalidOperation)
		}
		out[i] = *v
	}
	return out, nil
}
