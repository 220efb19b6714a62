package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cast"
)

// HydrationError reports a column that could not be mapped onto an entity.
type HydrationError struct {
	Entity string
	Column string
	Type   FieldType
	Cause  error
}

// Error implements the error interface.
func (e *HydrationError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("hydrate %s: undeclared column %s", e.Entity, e.Column)
	}
	return fmt.Sprintf("hydrate %s.%s as %s: %v", e.Entity, e.Column, e.Type, e.Cause)
}

// Unwrap returns the conversion error.
func (e *HydrationError) Unwrap() error {
	return e.Cause
}

// Hydrate maps a result row onto a new instance of e. columns fixes the
// hydration order; when nil the row keys are used in sorted order.
func Hydrate(e *Entity, columns []string, row map[string]any) (*Instance, error) {
	if columns == nil {
		columns = make([]string, 0, len(row))
		for c := range row {
			columns = append(columns, c)
		}
		sort.Strings(columns)
	}

	m := NewInstance(e)
	for _, col := range columns {
		raw, ok := row[col]
		if !ok {
			continue
		}

		f, declared := e.Field(col)
		if !declared {
			if !e.Dynamic() {
				return nil, &HydrationError{Entity: e.name, Column: col}
			}
			f = Field{Name: col, Type: Any}
		}

		v, err := Convert(f.Type, raw)
		if err != nil {
			return nil, &HydrationError{Entity: e.name, Column: col, Type: f.Type, Cause: err}
		}
		m.Set(col, v)
	}
	return m, nil
}

// Convert turns a driver value into the Go type of t. NULL stays nil.
func Convert(t FieldType, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if b, ok := raw.([]byte); ok && t != Bytes {
		raw = string(b)
	}

	switch t {
	case Int:
		return cast.ToInt64E(raw)
	case Float:
		return cast.ToFloat64E(raw)
	case String:
		if tm, ok := raw.(time.Time); ok {
			return tm.Format(time.RFC3339Nano), nil
		}
		return cast.ToStringE(raw)
	case Bool:
		return cast.ToBoolE(raw)
	case Time:
		return cast.ToTimeE(raw)
	case Bytes:
		switch v := raw.(type) {
		case []byte:
			out := make([]byte, len(v))
			copy(out, v)
			return out, nil
		case string:
			return []byte(v), nil
		}
		return nil, fmt.Errorf("unable to cast %#v of type %T to []byte", raw, raw)
	default:
		return raw, nil
	}
}
