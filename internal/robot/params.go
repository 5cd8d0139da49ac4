package robot

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Params carries named command arguments. Values may be Go numbers, bools and strings,
// or their textual form as typed on the command line.
type Params map[string]any

var (
	errNotInteger = errors.New("not an integer")
	errNotNumber  = errors.New("not a number")
	errNotBool    = errors.New("not a boolean")
)

// ParseParams parses "key=value" arguments. Values stay strings and are converted on read.
func ParseParams(args []string) (Params, error) {
	p := Params{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &ParamError{Param: arg, Value: arg, Err: errors.New("expected key=value")}
		}
		p[key] = strings.TrimSpace(value)
	}
	return p, nil
}

// Has reports whether name was given.
func (p Params) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// Reader returns a ParamReader that attributes conversion errors to cmd.
func (p Params) Reader(cmd Command) *ParamReader {
	return &ParamReader{params: p, cmd: cmd}
}

// ParamReader reads typed values and keeps the first conversion error, so a command
// builder can read all its arguments and check Err once.
type ParamReader struct {
	params Params
	cmd    Command
	err    error
}

// Err returns the first conversion error.
func (r *ParamReader) Err() error {
	return r.err
}

// Has reports whether name was given.
func (r *ParamReader) Has(name string) bool {
	return r.params.Has(name)
}

// Value returns the raw value of name, or nil.
func (r *ParamReader) Value(name string) any {
	return r.params[name]
}

func (r *ParamReader) fail(name string, v any, err error) {
	if r.err == nil {
		r.err = &ParamError{Command: r.cmd, Param: name, Value: v, Err: err}
	}
}

// Int returns name as an int, or def when absent.
func (r *ParamReader) Int(name string, def int) int {
	v, ok := r.params[name]
	if !ok || v == nil {
		return def
	}
	n, err := toInt(v)
	if err != nil {
		r.fail(name, v, err)
		return def
	}
	return n
}

// Float returns name as a float64, or def when absent.
func (r *ParamReader) Float(name string, def float64) float64 {
	v, ok := r.params[name]
	if !ok || v == nil {
		return def
	}
	f, err := toFloat(v)
	if err != nil {
		r.fail(name, v, err)
		return def
	}
	return f
}

// Bool returns name as a bool, or def when absent. Numbers are true when non-zero.
func (r *ParamReader) Bool(name string, def bool) bool {
	v, ok := r.params[name]
	if !ok || v == nil {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			r.fail(name, v, errNotBool)
			return def
		}
		return parsed
	}
	if n, err := toFloat(v); err == nil {
		return n != 0
	}
	r.fail(name, v, errNotBool)
	return def
}

// String returns name as a string, or def when absent.
func (r *ParamReader) String(name, def string) string {
	v, ok := r.params[name]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Ints returns name as a list of ints, or def when absent. Strings are split on commas.
func (r *ParamReader) Ints(name string, def []int) []int {
	v, ok := r.params[name]
	if !ok || v == nil {
		return def
	}
	var items []any
	switch l := v.(type) {
	case []int:
		return l
	case []any:
		items = l
	case string:
		for _, s := range strings.Split(l, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
	default:
		items = []any{v}
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := toInt(item)
		if err != nil {
			r.fail(name, v, err)
			return def
		}
		out = append(out, n)
	}
	return out
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 0, 64); err == nil {
			return int(i), nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
	}
	return 0, errNotInteger
}

func floatToInt(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errNotInteger
	}
	return int(f), nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			if i, ierr := strconv.ParseInt(strings.TrimSpace(n), 0, 64); ierr == nil {
				return float64(i), nil
			}
			return 0, errNotNumber
		}
		return f, nil
	}
	i, err := toInt(v)
	if err != nil {
		return 0, errNotNumber
	}
	return float64(i), nil
}
