package core

import (
	"errors"
	"fmt"
	"math"
)

const maxRangeItems = 10000

// fnRange mirrors range(start, end[, step]) and includes end.
func fnRange(args ...any) (any, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, fmt.Errorf("core: range expects 2 or 3 arguments, got %d", len(args))
	}
	start, err := toInt(args[0])
	if err != nil {
		return nil, fmt.Errorf("core: range start: %w", err)
	}
	end, err := toInt(args[1])
	if err != nil {
		return nil, fmt.Errorf("core: range end: %w", err)
	}
	step := int64(1)
	if len(args) == 3 {
		if step, err = toInt(args[2]); err != nil {
			return nil, fmt.Errorf("core: range step: %w", err)
		}
	}
	if step == 0 {
		return nil, errors.New("core: range step must not be zero")
	}
	if step < 0 {
		step = -step
	}

	var out []any
	if start <= end {
		for i := start; i <= end; i += step {
			out = append(out, i)
			if len(out) > maxRangeItems {
				return nil, fmt.Errorf("core: range exceeds %d items", maxRangeItems)
			}
		}
		return out, nil
	}
	for i := start; i >= end; i -= step {
		out = append(out, i)
		if len(out) > maxRangeItems {
			return nil, fmt.Errorf("core: range exceeds %d items", maxRangeItems)
		}
	}
	return out, nil
}

func fnMax(args ...any) (any, error) {
	return extremum("max", args, func(a, b float64) bool { return a > b })
}

func fnMin(args ...any) (any, error) {
	return extremum("min", args, func(a, b float64) bool { return a < b })
}

// extremum accepts either variadic numbers or a single list.
func extremum(name string, args []any, better func(a, b float64) bool) (any, error) {
	if len(args) == 1 {
		if items, ok := toSlice(args[0]); ok {
			args = items
		}
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("core: %s expects at least one value", name)
	}
	var (
		best      any
		bestValue = math.NaN()
	)
	for _, arg := range args {
		value, err := toFloat(arg)
		if err != nil {
			return nil, fmt.Errorf("core: %s: %w", name, err)
		}
		if best == nil || better(value, bestValue) {
			best, bestValue = arg, value
		}
	}
	return best, nil
}

func toInt(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", value)
	}
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		i, err := toInt(value)
		if err != nil {
			return 0, err
		}
		return float64(i), nil
	}
}
