package cms

import "strings"

// Field kinds understood by field expansion.
const (
	FieldString    = "string"
	FieldText      = "text"
	FieldDatetime  = "datetime"
	FieldReference = "entity_reference"
	FieldFile      = "file"
	FieldLink      = "link"
)

// EntityKeys name the fields holding an entity type's identifiers.
type EntityKeys struct {
	ID     string
	UUID   string
	Bundle string
	Label  string
}

// FieldDefinition describes a configurable field of an entity type.
type FieldDefinition struct {
	Kind string
	// Target is the referenced entity type of reference fields.
	Target string
}

// EntityType is the definition of an entity type.
type EntityType struct {
	ID   string
	Keys EntityKeys
	// Fieldable types accept configurable fields and field mutation by uuid.
	Fieldable bool
	Fields    map[string]FieldDefinition
}

// IsField reports whether name is a configurable field of the type. Names
// starting with "field_" always are.
func (t EntityType) IsField(name string) bool {
	if !t.Fieldable {
		return false
	}
	if _, ok := t.Fields[name]; ok {
		return true
	}
	return strings.HasPrefix(name, "field_") && len(name) > len("field_")
}

// Field returns the definition of name, defaulting to a string field.
func (t EntityType) Field(name string) FieldDefinition {
	if def, ok := t.Fields[name]; ok {
		return def
	}
	return FieldDefinition{Kind: FieldString}
}

// Condition is an equality condition of an entity query. Multi-value
// fields match when any item matches.
type Condition struct {
	Field string
	Value any
}

// Eq builds an equality condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Value: value}
}
