package ai

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"strconv"
)

// Options is the open bag of provider passthrough parameters (temperature,
// max_tokens, top_p, ...). Option names and value shapes are the provider's
// contract: adapters inspect only the few keys they need and forward the rest
// verbatim into the request body.
type Options map[string]any

// Clone returns a shallow copy so adapters can pop keys without mutating the
// caller's map. A nil receiver yields an empty, non-nil map.
func (o Options) Clone() Options {
	cloned := make(Options, len(o))
	maps.Copy(cloned, o)
	return cloned
}

// Pop removes key and returns its value.
func (o Options) Pop(key string) (any, bool) {
	value, ok := o[key]
	if ok {
		delete(o, key)
	}
	return value, ok
}

// PopInt removes key and returns it as an int, or fallback when the key is
// absent. Values that are not integral numbers are rejected with ErrInvalidArgument.
func (o Options) PopInt(key string, fallback int) (int, error) {
	value, ok := o.Pop(key)
	if !ok || value == nil {
		return fallback, nil
	}

	number, err := toInt(value)
	if err != nil {
		return 0, fmt.Errorf("%w: option %q: %v", ErrInvalidArgument, key, err)
	}
	return number, nil
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("expected an integer, got %v", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, err
		}
		return int(n), nil
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("expected an integer, got %T", value)
	}
}
