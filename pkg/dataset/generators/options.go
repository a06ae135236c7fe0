// Package generators holds shared plumbing for the dataset generators.
// Concrete generators live in subpackages and register themselves with the
// registry from init().
package generators

import (
	"fmt"
	"time"

	"github.com/ajitpratap0/lakegen/pkg/errors"
)

// DateLayout is the wire format for date-valued options.
const DateLayout = "2006-01-02"

// Options is the free-form option map handed to generator factories by the
// registry. Accessors coerce the loosely typed values that YAML and CLI
// flag parsing produce and fail with a config error on a type mismatch.
type Options map[string]interface{}

// String returns the string option under key, or def when absent.
func (o Options) String(key, def string) (string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", typeError(key, "string", v)
	}
	return s, nil
}

// Int returns the integer option under key, or def when absent. Float
// values with no fractional part are accepted since JSON decoding yields
// float64 for all numbers.
func (o Options) Int(key string, def int) (int, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, typeError(key, "integer", v)
		}
		return int(n), nil
	default:
		return 0, typeError(key, "integer", v)
	}
}

// Float returns the float option under key, or def when absent.
func (o Options) Float(key string, def float64) (float64, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, typeError(key, "number", v)
	}
}

// Bool returns the boolean option under key, or def when absent.
func (o Options) Bool(key string, def bool) (bool, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, typeError(key, "boolean", v)
	}
	return b, nil
}

// Date returns the date option under key parsed from YYYY-MM-DD, or def
// when absent. time.Time values pass through truncated to UTC midnight.
func (o Options) Date(key string, def time.Time) (time.Time, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch d := v.(type) {
	case time.Time:
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
	case string:
		t, err := time.Parse(DateLayout, d)
		if err != nil {
			return time.Time{}, errors.New(errors.ErrorTypeConfig,
				fmt.Sprintf("option %q: invalid date %q, want YYYY-MM-DD", key, d))
		}
		return t, nil
	default:
		return time.Time{}, typeError(key, "date", v)
	}
}

// Strings returns the string-list option under key, or def when absent.
func (o Options) Strings(key string, def []string) ([]string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, typeError(key, "string list", v)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, typeError(key, "string list", v)
	}
}

// FloatMap returns the string-to-float map option under key, or nil when
// absent.
func (o Options) FloatMap(key string) (map[string]float64, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch m := v.(type) {
	case map[string]float64:
		return m, nil
	case map[string]interface{}:
		out := make(map[string]float64, len(m))
		for k, item := range m {
			switch n := item.(type) {
			case float64:
				out[k] = n
			case int:
				out[k] = float64(n)
			default:
				return nil, typeError(key, "map of numbers", v)
			}
		}
		return out, nil
	default:
		return nil, typeError(key, "map of numbers", v)
	}
}

func typeError(key, want string, got interface{}) error {
	return errors.New(errors.ErrorTypeConfig,
		fmt.Sprintf("option %q: expected %s, got %T", key, want, got))
}
