package feeders

import (
	"fmt"
	"os"
	"reflect"
)

// AffixedEnvFeeder populates struct fields tagged `env` from environment
// variables named Prefix + tag + Suffix. Nested structs are walked.
type AffixedEnvFeeder struct {
	Prefix       string
	Suffix       string
	priority     int
	verboseDebug bool
	logger       interface{ Debug(msg string, args ...any) }
	fieldTracker FieldTracker
}

// NewEnvFeeder creates a feeder reading the `env` tag names as-is.
func NewEnvFeeder() *AffixedEnvFeeder {
	return NewAffixedEnvFeeder("", "")
}

// NewAffixedEnvFeeder creates a feeder that wraps every `env` tag name with
// prefix and suffix, e.g. prefix "STEPKIT_" turns BASE_URL into STEPKIT_BASE_URL.
func NewAffixedEnvFeeder(prefix, suffix string) *AffixedEnvFeeder {
	return &AffixedEnvFeeder{Prefix: prefix, Suffix: suffix}
}

// WithPriority sets the feeder priority; higher priorities are applied later.
func (f *AffixedEnvFeeder) WithPriority(priority int) *AffixedEnvFeeder {
	f.priority = priority
	return f
}

// Priority implements PrioritizedFeeder.
func (f *AffixedEnvFeeder) Priority() int {
	return f.priority
}

// SetVerboseDebug enables or disables verbose debug logging
func (f *AffixedEnvFeeder) SetVerboseDebug(enabled bool, logger interface{ Debug(msg string, args ...any) }) {
	f.verboseDebug = enabled
	f.logger = logger
	if enabled && logger != nil {
		logger.Debug("Verbose environment feeder debugging enabled", "prefix", f.Prefix, "suffix", f.Suffix)
	}
}

// SetFieldTracker sets the field tracker for recording field populations
func (f *AffixedEnvFeeder) SetFieldTracker(tracker FieldTracker) {
	f.fieldTracker = tracker
}

// Feed populates structure, which must be a pointer to a struct.
func (f *AffixedEnvFeeder) Feed(structure interface{}) error {
	rv := reflect.ValueOf(structure)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrNotStructPointer
	}
	return f.feedStruct(rv.Elem(), "")
}

func (f *AffixedEnvFeeder) feedStruct(v reflect.Value, path string) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		fieldPath := joinPath(path, field.Name)
		fv := v.Field(i)

		if isNestedStruct(field.Type) {
			if err := f.feedStruct(fv, fieldPath); err != nil {
				return err
			}
			continue
		}

		tag, ok := field.Tag.Lookup("env")
		if !ok || tag == "" || tag == "-" {
			continue
		}

		key := f.Prefix + tag + f.Suffix
		raw, found := os.LookupEnv(key)
		if f.verboseDebug && f.logger != nil {
			f.logger.Debug("Looking up environment variable", "field", fieldPath, "key", key, "found", found)
		}

		pop := FieldPopulation{
			FieldPath:  fieldPath,
			FieldType:  field.Type.String(),
			FeederType: fmt.Sprintf("%T", f),
			SourceType: "env",
			SourceKey:  key,
		}
		if !found {
			f.record(pop)
			continue
		}

		if err := SetFromString(fv, raw); err != nil {
			return fmt.Errorf("%w %s for field %s: %w", ErrEnvConversion, key, fieldPath, err)
		}
		pop.FoundKey = key
		pop.Value = fv.Interface()
		f.record(pop)
	}
	return nil
}

func (f *AffixedEnvFeeder) record(pop FieldPopulation) {
	if f.fieldTracker != nil {
		f.fieldTracker.RecordFieldPopulation(pop)
	}
}
