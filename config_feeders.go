package stepkit

import (
	"github.com/CrisisTextLine/stepkit/feeders"
)

// Feeder defines the interface for configuration feeders that provide configuration data.
type Feeder interface {
	// Feed gets a struct and feeds it using configuration data.
	Feed(structure interface{}) error
}

// ComplexFeeder extends Feeder with keyed feeding of a single section.
type ComplexFeeder interface {
	Feeder
	FeedKey(string, interface{}) error
}

// VerboseAwareFeeder provides functionality for verbose debug logging during configuration feeding
type VerboseAwareFeeder interface {
	// SetVerboseDebug enables or disables verbose debug logging
	SetVerboseDebug(enabled bool, logger interface{ Debug(msg string, args ...any) })
}

// PrioritizedFeeder extends the Feeder interface with priority control.
// Feeders with higher priority values are applied later and override values
// set by lower priority feeders. Equal priorities keep insertion order.
//
//	feeders.NewYamlFeeder("stepkit.yaml")                    // priority 0
//	feeders.NewAffixedEnvFeeder("STEPKIT_", "").WithPriority(100)
type PrioritizedFeeder interface {
	Feeder
	// Priority returns the priority value for this feeder.
	Priority() int
}

// FieldTracker records which feeder populated which field.
type FieldTracker = feeders.FieldTracker

// FieldPopulation is a single field population record.
type FieldPopulation = feeders.FieldPopulation

// FieldTrackingFeeder is implemented by feeders that report field populations.
type FieldTrackingFeeder interface {
	SetFieldTracker(tracker FieldTracker)
}

// NewDefaultFieldTracker creates an in-memory field tracker.
func NewDefaultFieldTracker() *feeders.DefaultFieldTracker {
	return feeders.NewDefaultFieldTracker()
}

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "STEPKIT_"
