package schema

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

const msgRequired = "Field is required"

// ValidationError carries one human readable message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validator checks and coerces payloads against shapes. It is safe for
// concurrent use and meant to be built once at startup.
type Validator struct {
	rules *validator.Validate
}

// NewValidator creates a Validator backed by go-playground/validator for
// format rules.
func NewValidator() *Validator {
	return &Validator{rules: validator.New()}
}

// Validate coerces raw into the declared types, trims string values unless
// the field is Verbatim, drops undeclared keys and reports every violation
// at once. On success the returned map contains only declared fields.
func (v *Validator) Validate(shape Shape, raw map[string]any) (map[string]any, error) {
	errs := make(map[string]string)
	data := v.object(shape, raw, "", errs)
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	return data, nil
}

func (v *Validator) object(shape Shape, raw map[string]any, prefix string, errs map[string]string) map[string]any {
	out := make(map[string]any, len(shape))
	for _, name := range shape.Keys() {
		f := shape[name]
		path := joinPath(prefix, name)

		value, present := raw[name]
		if present && value == nil && f.Nullable {
			out[name] = nil
			continue
		}
		if present && isBlank(f, value) {
			present = false
		}
		if !present {
			if f.Required {
				errs[path] = cmp.Or(f.Missing, msgRequired)
			}
			continue
		}

		coerced, msg := v.field(f, value, path, errs)
		if msg != "" {
			errs[path] = msg
			continue
		}
		out[name] = coerced
	}
	return out
}

// isBlank reports whether value counts as not supplied. Null never counts
// as a value, and an empty string only counts for free-form strings: form
// submissions send "" for untouched selects, checkboxes and numbers.
func isBlank(f Field, value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	if !ok || strings.TrimSpace(s) != "" {
		return false
	}
	if f.Required {
		return true
	}
	return f.Kind != String || f.Format != "" || len(f.Enum) > 0
}

func (v *Validator) field(f Field, value any, path string, errs map[string]string) (any, string) {
	switch f.Kind {
	case String:
		s, ok := toString(value)
		if !ok {
			return nil, "Must be a string"
		}
		if !f.KeepSpace {
			s = strings.TrimSpace(s)
		}
		if len(f.Enum) > 0 && !slices.Contains(f.Enum, s) {
			return nil, f.message("Must be one of: " + strings.Join(f.Enum, ", "))
		}
		if f.Format != "" && s != "" {
			if err := v.rules.Var(s, f.Format); err != nil {
				return nil, f.message("Must be a valid " + f.Format)
			}
		}
		return s, ""

	case Number:
		n, ok := toFloat(value)
		if !ok {
			return nil, "Must be a number"
		}
		return n, ""

	case Integer:
		n, ok := toFloat(value)
		if !ok || n != float64(int64(n)) {
			return nil, "Must be an integer"
		}
		return int64(n), ""

	case Boolean:
		b, ok := toBool(value)
		if !ok {
			return nil, "Must be a boolean"
		}
		return b, ""

	case Array:
		items, ok := toSlice(f, value)
		if !ok {
			return nil, "Must be an array"
		}
		out := make([]any, 0, len(items))
		failed := false
		for i, item := range items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			switch {
			case f.Items != nil:
				c, msg := v.field(*f.Items, item, itemPath, errs)
				if msg != "" {
					errs[itemPath] = msg
					failed = true
					continue
				}
				out = append(out, c)
			case f.Shape != nil:
				m, ok := item.(map[string]any)
				if !ok {
					errs[itemPath] = "Must be an object"
					failed = true
					continue
				}
				out = append(out, v.object(f.Shape, m, itemPath, errs))
			default:
				out = append(out, item)
			}
		}
		if failed {
			return nil, "Contains invalid items"
		}
		return out, ""

	case Object:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, "Must be an object"
		}
		if f.Shape == nil {
			return m, ""
		}
		return v.object(f.Shape, m, path, errs), ""
	}

	return nil, "Unsupported field type"
}

func (f Field) message(fallback string) string {
	if f.Message != "" {
		return f.Message
	}
	return fallback
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

