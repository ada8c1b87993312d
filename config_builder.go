package stepkit

import (
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/CrisisTextLine/stepkit/feeders"
)

// ConfigSetup is an interface that configs can implement
// to perform additional setup after being populated by feeders
type ConfigSetup interface {
	Setup() error
}

// ConfigBuilder combines feeders and target structs. Feed applies `default`
// tags, then every feeder in priority order, then `validate` tags, then
// ConfigSetup.
type ConfigBuilder struct {
	// Feeders contains all the registered configuration feeders
	Feeders []Feeder
	// StructKeys maps section keys to their target structs.
	StructKeys map[string]interface{}
	// VerboseDebug enables detailed logging during configuration processing
	VerboseDebug bool
	// Logger is used for verbose debug logging
	Logger Logger
	// FieldTracker tracks which fields are populated by which feeders
	FieldTracker FieldTracker

	validate *validator.Validate
}

// NewConfigBuilder creates an empty configuration builder.
//
//	cfg := &stepkit.Config{}
//	err := stepkit.NewConfigBuilder().
//		AddFeeder(feeders.NewYamlFeeder("stepkit.yaml")).
//		AddStructKey("main", cfg).
//		Feed()
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		Feeders:      make([]Feeder, 0),
		StructKeys:   make(map[string]interface{}),
		FieldTracker: feeders.NewDefaultFieldTracker(),
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

// SetVerboseDebug enables or disables verbose debug logging
func (c *ConfigBuilder) SetVerboseDebug(enabled bool, logger Logger) *ConfigBuilder {
	c.VerboseDebug = enabled
	c.Logger = logger

	if tracker, ok := c.FieldTracker.(*feeders.DefaultFieldTracker); ok && enabled {
		tracker.SetLogger(logger)
	}

	for _, feeder := range c.Feeders {
		if verboseFeeder, ok := feeder.(VerboseAwareFeeder); ok {
			verboseFeeder.SetVerboseDebug(enabled, logger)
		}
	}
	return c
}

// AddFeeder adds a configuration feeder, propagating verbose logging and field tracking to it.
func (c *ConfigBuilder) AddFeeder(feeder Feeder) *ConfigBuilder {
	c.Feeders = append(c.Feeders, feeder)

	if c.VerboseDebug && c.Logger != nil {
		if verboseFeeder, ok := feeder.(VerboseAwareFeeder); ok {
			verboseFeeder.SetVerboseDebug(true, c.Logger)
		}
	}
	if c.FieldTracker != nil {
		if trackingFeeder, ok := feeder.(FieldTrackingFeeder); ok {
			trackingFeeder.SetFieldTracker(c.FieldTracker)
		}
	}
	return c
}

// AddStructKey adds a structure with a key to the configuration
func (c *ConfigBuilder) AddStructKey(key string, target interface{}) *ConfigBuilder {
	c.StructKeys[key] = target
	return c
}

// SetFieldTracker sets the field tracker for capturing field population details
func (c *ConfigBuilder) SetFieldTracker(tracker FieldTracker) *ConfigBuilder {
	c.FieldTracker = tracker
	for _, feeder := range c.Feeders {
		if trackingFeeder, ok := feeder.(FieldTrackingFeeder); ok {
			trackingFeeder.SetFieldTracker(tracker)
		}
	}
	return c
}

// Feed populates every registered struct.
func (c *ConfigBuilder) Feed() error {
	c.debug("Starting config feed process", "structKeysCount", len(c.StructKeys), "feedersCount", len(c.Feeders))

	keys := make([]string, 0, len(c.StructKeys))
	for key := range c.StructKeys {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	ordered := c.orderedFeeders()
	for _, key := range keys {
		target := c.StructKeys[key]
		if err := ApplyDefaults(target); err != nil {
			return fmt.Errorf("%w for %s: %w", ErrConfigTargetInvalid, key, err)
		}

		for i, f := range ordered {
			c.debug("Applying feeder to struct", "key", key, "feederIndex", i, "feederType", fmt.Sprintf("%T", f))
			if err := f.Feed(target); err != nil {
				c.debug("Feeder failed", "key", key, "feederType", fmt.Sprintf("%T", f), "error", err)
				return fmt.Errorf("%w: %w", ErrConfigFeederError, err)
			}
		}

		if err := c.validate.Struct(target); err != nil {
			c.debug("Config validation failed", "key", key, "error", err)
			return fmt.Errorf("%w for %s: %w", ErrConfigValidation, key, err)
		}

		if setupable, ok := target.(ConfigSetup); ok {
			if err := setupable.Setup(); err != nil {
				return fmt.Errorf("%w for %s: %w", ErrConfigSetupError, key, err)
			}
		}
		c.debug("Config section fed", "key", key)
	}

	c.debug("Config feed process completed successfully")
	return nil
}

// orderedFeeders sorts feeders by ascending priority, keeping insertion order for ties.
func (c *ConfigBuilder) orderedFeeders() []Feeder {
	ordered := make([]Feeder, len(c.Feeders))
	copy(ordered, c.Feeders)
	sort.SliceStable(ordered, func(i, j int) bool {
		return feederPriority(ordered[i]) < feederPriority(ordered[j])
	})
	return ordered
}

func feederPriority(f Feeder) int {
	if pf, ok := f.(PrioritizedFeeder); ok {
		return pf.Priority()
	}
	return 0
}

func (c *ConfigBuilder) debug(msg string, args ...any) {
	if c.VerboseDebug && c.Logger != nil {
		c.Logger.Debug(msg, args...)
	}
}

// ApplyDefaults sets every zero-valued field carrying a `default` tag.
func ApplyDefaults(target interface{}) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrConfigTargetInvalid
	}
	return applyDefaults(rv.Elem(), "")
}

func applyDefaults(v reflect.Value, path string) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		fv := v.Field(i)
		fieldPath := field.Name
		if path != "" {
			fieldPath = path + "." + field.Name
		}

		if field.Type.Kind() == reflect.Struct {
			if err := applyDefaults(fv, fieldPath); err != nil {
				return err
			}
			continue
		}

		def, ok := field.Tag.Lookup("default")
		if !ok || !fv.IsZero() {
			continue
		}
		if err := feeders.SetFromString(fv, def); err != nil {
			return fmt.Errorf("default for %s: %w", fieldPath, err)
		}
	}
	return nil
}

// LoadConfig reads path (YAML or TOML, optional), then STEPKIT_ environment
// variables, then STEPKIT_<PROFILE>_ variables when profile is set. A non-nil
// logger receives verbose feeding traces. Extra feeders are added last and
// keep their own priority.
func LoadConfig(path, profile string, logger Logger, extra ...Feeder) (*Config, error) {
	cfg := &Config{}
	builder := NewConfigBuilder()
	if logger != nil {
		builder.SetVerboseDebug(true, logger)
	}

	if path != "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			builder.AddFeeder(feeders.NewYamlFeeder(path))
		case ".toml":
			builder.AddFeeder(feeders.NewTomlFeeder(path))
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedConfigFormat, path)
		}
	}

	builder.AddFeeder(feeders.NewAffixedEnvFeeder(EnvPrefix, "").WithPriority(100))

	if profile != "" {
		profileFeeder := feeders.NewProfileEnvFeeder(func(p string) string {
			return EnvPrefix + strings.ToUpper(p) + "_"
		}, nil).WithPriority(200)
		profileFeeder.SetPrefixFunc(profile)
		builder.AddFeeder(profileFeeder)
	}
	for _, feeder := range extra {
		builder.AddFeeder(feeder)
	}

	builder.AddStructKey("main", cfg)
	if err := builder.Feed(); err != nil {
		return nil, err
	}
	return cfg, nil
}
