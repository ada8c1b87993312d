package feeders

import "sync"

// FieldPopulation records a single configuration field set by a feeder.
type FieldPopulation struct {
	// FieldPath is the dotted Go path of the field, e.g. "Browser.Driver".
	FieldPath  string
	FieldType  string
	FeederType string
	// SourceType is "env", "yaml" or "toml".
	SourceType string
	// SourceKey is the environment variable or file key that was looked up.
	SourceKey string
	// FoundKey is empty when the lookup found nothing.
	FoundKey string
	Value    any
}

// FieldTracker receives field population records from feeders.
type FieldTracker interface {
	RecordFieldPopulation(fp FieldPopulation)
}

// DefaultFieldTracker keeps every record in memory.
type DefaultFieldTracker struct {
	mu          sync.Mutex
	populations []FieldPopulation
	logger      interface{ Debug(msg string, args ...any) }
}

// NewDefaultFieldTracker creates an empty tracker.
func NewDefaultFieldTracker() *DefaultFieldTracker {
	return &DefaultFieldTracker{populations: make([]FieldPopulation, 0)}
}

// SetLogger sets the logger used to trace each record.
func (t *DefaultFieldTracker) SetLogger(logger interface{ Debug(msg string, args ...any) }) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logger = logger
}

// RecordFieldPopulation implements FieldTracker.
func (t *DefaultFieldTracker) RecordFieldPopulation(fp FieldPopulation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.populations = append(t.populations, fp)
	if t.logger != nil {
		t.logger.Debug("Field populated", "field", fp.FieldPath, "source", fp.SourceType, "key", fp.SourceKey, "found", fp.FoundKey != "")
	}
}

// GetFieldPopulations returns a copy of all records.
func (t *DefaultFieldTracker) GetFieldPopulations() []FieldPopulation {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]FieldPopulation, len(t.populations))
	copy(out, t.populations)
	return out
}

// SourceFor returns the source type that last populated fieldPath.
func (t *DefaultFieldTracker) SourceFor(fieldPath string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.populations) - 1; i >= 0; i-- {
		p := t.populations[i]
		if p.FieldPath == fieldPath && p.FoundKey != "" {
			return p.SourceType, true
		}
	}
	return "", false
}
