package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// ErrMissingEntity is returned when asked to filter nothing. It indicates a
// programming fault, not bad user input.
var ErrMissingEntity = errors.New("schema: cannot filter a missing entity")

// Filter projects entity onto shape. Only declared keys are emitted; keys
// the entity lacks are omitted rather than defaulted. The entity is read
// through its JSON form and never modified.
func Filter(shape Shape, entity any) (map[string]any, error) {
	if isNil(entity) {
		return nil, ErrMissingEntity
	}

	view, err := jsonView(entity)
	if err != nil {
		return nil, err
	}
	m, ok := view.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema: filter expects an object, got %T", entity)
	}
	return project(shape, m), nil
}

// FilterEach filters every element of items.
func FilterEach[T any](shape Shape, items []T) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(items))
	for i := range items {
		m, err := Filter(shape, items[i])
		if err != nil {
			return nil, fmt.Errorf("filter item %d: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func project(shape Shape, src map[string]any) map[string]any {
	out := make(map[string]any, len(shape))
	for name, f := range shape {
		v, ok := src[name]
		if !ok {
			continue
		}
		out[name] = projectValue(f, v)
	}
	return out
}

func projectValue(f Field, v any) any {
	switch f.Kind {
	case Object:
		if m, ok := v.(map[string]any); ok && f.Shape != nil {
			return project(f.Shape, m)
		}
	case Array:
		items, ok := v.([]any)
		if !ok {
			return v
		}
		out := make([]any, len(items))
		for i, item := range items {
			switch {
			case f.Shape != nil:
				if m, ok := item.(map[string]any); ok {
					out[i] = project(f.Shape, m)
					continue
				}
				out[i] = item
			case f.Items != nil:
				out[i] = projectValue(*f.Items, item)
			default:
				out[i] = item
			}
		}
		return out
	}
	return v
}

func jsonView(entity any) (any, error) {
	b, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("schema: encode entity: %w", err)
	}
	var view any
	if err := json.Unmarshal(b, &view); err != nil {
		return nil, fmt.Errorf("schema: decode entity: %w", err)
	}
	return view, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
