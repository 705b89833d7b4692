// Package schema validates inbound payloads and projects outbound entities
// against declarative shapes.
package schema

import (
	"sort"
	"strings"
)

// Kind is the declared type of a field.
type Kind int

const (
	String Kind = iota + 1
	Number
	Integer
	Boolean
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Integer:
		return "integer"
	case Boolean:
		return "boolean"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Field describes a single declared field.
type Field struct {
	Kind     Kind
	Required bool
	Nullable bool

	// Format is a go-playground/validator tag applied to string values,
	// e.g. "email" or "uuid".
	Format string
	// Message overrides the generated message for format and enum failures.
	Message string
	// Missing overrides the message for an absent required field.
	Missing string
	Enum    []string
	// KeepSpace disables trimming of surrounding whitespace, e.g. for
	// passwords.
	KeepSpace bool

	// Items describes array elements. Scalar string input for an array
	// field is split on commas when Items is a scalar kind.
	Items *Field
	// Shape describes nested object fields, or the elements of an array of
	// objects when Items is nil.
	Shape Shape
}

// Shape maps field names to their descriptors. The same shape type is used
// for validating input and for filtering output.
type Shape map[string]Field

// Keys returns the declared field names in sorted order.
func (s Shape) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Str, Bool, Int, Num, List and Obj are shorthands used when declaring shapes.
func Str() Field  { return Field{Kind: String} }
func Bool() Field { return Field{Kind: Boolean} }
func Int() Field  { return Field{Kind: Integer} }
func Num() Field  { return Field{Kind: Number} }

func List(items Field) Field { return Field{Kind: Array, Items: &items} }

func ListOf(shape Shape) Field { return Field{Kind: Array, Shape: shape} }

func Obj(shape Shape) Field { return Field{Kind: Object, Shape: shape} }

func OneOf(values ...string) Field { return Field{Kind: String, Enum: values} }

// Req marks a field as required.
func (f Field) Req() Field {
	f.Required = true
	return f
}

// ReqMsg marks a field as required and sets the message used when it is
// missing.
func (f Field) ReqMsg(message string) Field {
	f.Required = true
	f.Missing = message
	return f
}

// Verbatim keeps surrounding whitespace in string values.
func (f Field) Verbatim() Field {
	f.KeepSpace = true
	return f
}

// Null allows an explicit null value.
func (f Field) Null() Field {
	f.Nullable = true
	return f
}

// WithFormat attaches a validator format tag and its failure message.
func (f Field) WithFormat(tag, message string) Field {
	f.Format = tag
	f.Message = message
	return f
}

// SplitList splits a comma separated string into trimmed, non-empty,
// de-duplicated values, keeping their first-seen order.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
