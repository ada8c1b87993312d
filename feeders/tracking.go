package feeders

import (
	"reflect"
	"strings"
)

// trackDecodedFields records one FieldPopulation per tagged field of t,
// marking the ones present in the decoded document m.
func trackDecodedFields(tracker FieldTracker, feederType, sourceType, tagName, path, keyPath string, t reflect.Type, m map[string]any) {
	if tracker == nil {
		return
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := tagKey(field, tagName)
		if name == "-" {
			continue
		}
		fieldPath := joinPath(path, field.Name)
		sourceKey := joinPath(keyPath, name)
		value, found := m[name]

		if isNestedStruct(field.Type) {
			sub, _ := value.(map[string]any)
			trackDecodedFields(tracker, feederType, sourceType, tagName, fieldPath, sourceKey, field.Type, sub)
			continue
		}

		pop := FieldPopulation{
			FieldPath:  fieldPath,
			FieldType:  field.Type.String(),
			FeederType: feederType,
			SourceType: sourceType,
			SourceKey:  sourceKey,
		}
		if found {
			pop.FoundKey = sourceKey
			pop.Value = value
		}
		tracker.RecordFieldPopulation(pop)
	}
}

func tagKey(field reflect.StructField, tagName string) string {
	tag := field.Tag.Get(tagName)
	if tag == "" {
		return strings.ToLower(field.Name)
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return strings.ToLower(field.Name)
	}
	return name
}
