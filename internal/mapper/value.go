package mapper

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Value is a raw domain value of exactly one kind
type Value struct {
	kind     Kind
	number   float64
	category string
	flag     bool
}

// Number wraps a numeric value
func Number(v float64) Value { return Value{kind: KindNumerical, number: v} }

// Category wraps a category key
func Category(key string) Value { return Value{kind: KindCategorical, category: key} }

// Bool wraps a boolean value
func Bool(v bool) Value { return Value{kind: KindBoolean, flag: v} }

// Kind returns the kind of value held
func (v Value) Kind() Kind { return v.kind }

func (v Value) String() string {
	switch v.kind {
	case KindNumerical:
		return fmt.Sprintf("%v", v.number)
	case KindCategorical:
		return v.category
	case KindBoolean:
		return fmt.Sprintf("%t", v.flag)
	default:
		return "<empty>"
	}
}

// ValueFor converts a loosely typed value (as decoded from YAML, JSON or TOML)
// into the Value expected by a mapper of the given kind
func ValueFor(kind Kind, raw interface{}) (Value, error) {
	switch kind {
	case KindNumerical:
		f, err := toFloat(raw)
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case KindCategorical:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("%w: categorical mapper expects a string, got %T", ErrValueType, raw)
		}
		return Category(s), nil
	case KindBoolean:
		b, err := NormalizeBool(raw)
		if err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	default:
		return Value{}, fmt.Errorf("%w: unknown mapper type %q", ErrValueType, kind)
	}
}

// NormalizeBool accepts bools, the integers 0 and 1, and the strings
// true/yes/1/on/enabled and false/no/0/off/disabled (case-insensitive)
func NormalizeBool(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case int, int64, float64, json.Number:
		f, err := toFloat(v)
		if err != nil {
			return false, err
		}
		switch f {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
		return false, fmt.Errorf("%w: integer input for boolean mapper must be 0 or 1, got %v", ErrValueType, v)
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1", "on", "enabled":
			return true, nil
		case "false", "no", "0", "off", "disabled":
			return false, nil
		}
		return false, fmt.Errorf("%w: %q is not a boolean", ErrValueType, v)
	default:
		return false, fmt.Errorf("%w: boolean mapper expects bool, 0/1 or string, got %T", ErrValueType, raw)
	}
}

func toFloat(raw interface{}) (float64, error) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrValueType, err)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: numerical mapper expects a number, got %T", ErrValueType, raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: numerical input must be finite", ErrValueType)
	}
	return f, nil
}
