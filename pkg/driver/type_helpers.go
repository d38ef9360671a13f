package driver

import (
	"fmt"
	"regexp"
)

// TypeConversionError represents an error during type conversion from database types.
type TypeConversionError struct {
	Expected string
	Actual   string
	Field    string
}

func (e *TypeConversionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("type conversion error for field %q: expected %s, got %s", e.Field, e.Expected, e.Actual)
	}
	return fmt.Sprintf("type conversion error: expected %s, got %s", e.Expected, e.Actual)
}

// NewTypeConversionError creates a new TypeConversionError.
func NewTypeConversionError(expected, actual, field string) *TypeConversionError {
	return &TypeConversionError{
		Expected: expected,
		Actual:   actual,
		Field:    field,
	}
}

// AsString safely converts an interface{} to string.
// Returns the string and true if successful, empty string and false otherwise.
func AsString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// AsInt64 safely converts an interface{} to int64.
// Returns the int64 and true if successful, 0 and false otherwise.
func AsInt64(v any) (int64, bool) {
	if v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

// AsFloat64 safely converts an interface{} to float64.
// Returns the float64 and true if successful, 0 and false otherwise.
func AsFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// AsMap safely converts an interface{} to map[string]any.
// Returns the map and true if successful, nil and false otherwise.
func AsMap(v any) (map[string]any, bool) {
	if v == nil {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// MustInt64 converts an interface{} to int64 or returns an error.
func MustInt64(v any, field string) (int64, error) {
	i, ok := AsInt64(v)
	if !ok {
		return 0, NewTypeConversionError("int64", fmt.Sprintf("%T", v), field)
	}
	return i, nil
}

// MustMap converts an interface{} to map[string]any or returns an error.
func MustMap(v any, field string) (map[string]any, error) {
	m, ok := AsMap(v)
	if !ok {
		return nil, NewTypeConversionError("map[string]any", fmt.Sprintf("%T", v), field)
	}
	return m, nil
}

// Float64Vector converts an embedding to the []float64 form the driver
// sends as a LIST<FLOAT> parameter.
func Float64Vector(vector []float32) []float64 {
	out := make([]float64, len(vector))
	for i, f := range vector {
		out[i] = float64(f)
	}
	return out
}

// IndexDimensions extracts vector.dimensions from the options map reported by
// SHOW VECTOR INDEXES.
func IndexDimensions(options any) (int, error) {
	opts, err := MustMap(options, "options")
	if err != nil {
		return 0, err
	}
	indexConfig, err := MustMap(opts["indexConfig"], "indexConfig")
	if err != nil {
		return 0, err
	}
	dims, err := MustInt64(indexConfig["vector.dimensions"], "vector.dimensions")
	if err != nil {
		return 0, err
	}
	return int(dims), nil
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s can be spliced into Cypher as a bare
// index name, label or property key.
func ValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}
