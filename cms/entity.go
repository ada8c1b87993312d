// Package cms defines the content management facade the step groups talk
// to: entity storage and queries, field shorthand expansion, creation
// shortcuts, modules, files, search indexing and entity queues.
package cms

import (
	"fmt"
	"sort"
)

// Entity is a persisted content record identified by type and id. Base
// properties (title, name, type, ...) and configurable fields alike live in
// Fields; the entity type's keys say which field holds the bundle and label.
type Entity struct {
	Type   string
	ID     string
	UUID   string
	Fields map[string]any
}

// NewEntity creates an unsaved entity of the given type.
func NewEntity(entityType string, fields map[string]any) *Entity {
	if fields == nil {
		fields = make(map[string]any)
	}
	return &Entity{Type: entityType, Fields: fields}
}

// Get returns the raw value of field.
func (e *Entity) Get(field string) (any, bool) {
	v, ok := e.Fields[field]
	return v, ok
}

// Set replaces the value of field. A nil value empties the field.
func (e *Entity) Set(field string, value any) {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	if value == nil {
		delete(e.Fields, field)
		return
	}
	e.Fields[field] = value
}

// String returns the main value of field as text: the first item of a
// multi-value field and the target id or value of a compound item.
func (e *Entity) String(field string) string {
	v, ok := e.Fields[field]
	if !ok {
		return ""
	}
	values := Values(v)
	if len(values) == 0 {
		return ""
	}
	return fmt.Sprint(values[0])
}

// FieldNames returns the populated field names in sorted order.
func (e *Entity) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy.
func (e *Entity) Clone() *Entity {
	fields := make(map[string]any, len(e.Fields))
	for k, v := range e.Fields {
		fields[k] = cloneValue(v)
	}
	return &Entity{Type: e.Type, ID: e.ID, UUID: e.UUID, Fields: fields}
}

// Values flattens a field value to the main value of each item. Compound
// items contribute their "target_id", "value" or first column.
func Values(v any) []any {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]any, 0, len(x))
		for _, item := range x {
			out = append(out, mainValue(item))
		}
		return out
	case []string:
		out := make([]any, 0, len(x))
		for _, item := range x {
			out = append(out, item)
		}
		return out
	default:
		return []any{mainValue(v)}
	}
}

func mainValue(item any) any {
	switch x := item.(type) {
	case map[string]any:
		for _, key := range []string{"target_id", "value", "uri"} {
			if v, ok := x[key]; ok {
				return v
			}
		}
		return x
	case []any:
		if len(x) > 0 {
			return x[0]
		}
		return nil
	default:
		return item
	}
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), x...)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
