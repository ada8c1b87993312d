package feeders

import (
	"fmt"
	"reflect"

	"github.com/BurntSushi/toml"
)

// TomlFeeder populates structs from a TOML file.
type TomlFeeder struct {
	Path         string
	priority     int
	verboseDebug bool
	logger       interface{ Debug(msg string, args ...any) }
	fieldTracker FieldTracker
}

// NewTomlFeeder creates a feeder reading filePath.
func NewTomlFeeder(filePath string) *TomlFeeder {
	return &TomlFeeder{Path: filePath}
}

// WithPriority sets the feeder priority; higher priorities are applied later.
func (t *TomlFeeder) WithPriority(priority int) *TomlFeeder {
	t.priority = priority
	return t
}

// Priority implements PrioritizedFeeder.
func (t *TomlFeeder) Priority() int {
	return t.priority
}

// SetVerboseDebug enables or disables verbose debug logging
func (t *TomlFeeder) SetVerboseDebug(enabled bool, logger interface{ Debug(msg string, args ...any) }) {
	t.verboseDebug = enabled
	t.logger = logger
}

// SetFieldTracker sets the field tracker for recording field populations
func (t *TomlFeeder) SetFieldTracker(tracker FieldTracker) {
	t.fieldTracker = tracker
}

// Feed decodes the file into structure.
func (t *TomlFeeder) Feed(structure interface{}) error {
	md, err := toml.DecodeFile(t.Path, structure)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrTomlDecode, t.Path, err)
	}
	if t.verboseDebug && t.logger != nil {
		t.logger.Debug("TOML document decoded", "path", t.Path, "keys", len(md.Keys()), "undecoded", len(md.Undecoded()))
	}
	if t.fieldTracker != nil {
		var raw map[string]any
		if _, err := toml.DecodeFile(t.Path, &raw); err == nil {
			trackDecodedFields(t.fieldTracker, fmt.Sprintf("%T", t), "toml", "toml", "", "", reflect.TypeOf(structure), raw)
		}
	}
	return nil
}

// FeedKey decodes only the table named key.
func (t *TomlFeeder) FeedKey(key string, structure interface{}) error {
	var raw map[string]toml.Primitive
	md, err := toml.DecodeFile(t.Path, &raw)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrTomlDecode, t.Path, err)
	}
	section, ok := raw[key]
	if !ok {
		return fmt.Errorf("%w: %s in %s", ErrSectionNotFound, key, t.Path)
	}
	if err := md.PrimitiveDecode(section, structure); err != nil {
		return fmt.Errorf("%w %s: %w", ErrTomlDecode, t.Path, err)
	}
	return nil
}
