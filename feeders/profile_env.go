package feeders

import "reflect"

// ProfileEnvFeeder reads environment variables scoped to a named run profile,
// for example STEPKIT_CI_BASE_URL for the "ci" profile. The prefix and suffix
// are derived from the profile name by the supplied functions.
type ProfileEnvFeeder struct {
	*AffixedEnvFeeder
	SetPrefixFunc func(string)
	SetSuffixFunc func(string)
	verboseDebug  bool
	logger        interface {
		Debug(msg string, args ...any)
	}
}

// NewProfileEnvFeeder creates a feeder whose affixes are computed from the
// profile name passed to SetPrefixFunc/SetSuffixFunc or FeedKey.
func NewProfileEnvFeeder(prefix, suffix func(string) string) *ProfileEnvFeeder {
	result := &ProfileEnvFeeder{AffixedEnvFeeder: NewAffixedEnvFeeder("", "")}

	if prefix != nil {
		result.SetPrefixFunc = func(p string) {
			result.Prefix = prefix(p)
		}
	}
	if suffix != nil {
		result.SetSuffixFunc = func(s string) {
			result.Suffix = suffix(s)
		}
	}

	return result
}

// WithPriority sets the feeder priority; higher priorities are applied later.
func (f *ProfileEnvFeeder) WithPriority(priority int) *ProfileEnvFeeder {
	f.AffixedEnvFeeder.WithPriority(priority)
	return f
}

// Feed applies the profile variables when a profile has been selected and
// does nothing otherwise.
func (f *ProfileEnvFeeder) Feed(structure interface{}) error {
	if f.Prefix == "" && f.Suffix == "" {
		if f.verboseDebug && f.logger != nil {
			f.logger.Debug("ProfileEnvFeeder: no profile selected, skipping Feed")
		}
		return nil
	}

	if f.verboseDebug && f.logger != nil {
		f.logger.Debug("ProfileEnvFeeder: feeding with profile affixes", "prefix", f.Prefix, "suffix", f.Suffix)
	}
	return f.AffixedEnvFeeder.Feed(structure)
}

// SetVerboseDebug enables or disables verbose debug logging
func (f *ProfileEnvFeeder) SetVerboseDebug(enabled bool, logger interface{ Debug(msg string, args ...any) }) {
	f.verboseDebug = enabled
	f.logger = logger
	f.AffixedEnvFeeder.SetVerboseDebug(enabled, logger)
}

// FeedKey selects profile as the active profile when none is set yet and
// feeds structure with it.
func (f *ProfileEnvFeeder) FeedKey(profile string, structure interface{}) error {
	if f.SetPrefixFunc == nil && f.SetSuffixFunc == nil {
		return ErrProfileNotDefined
	}

	if f.verboseDebug && f.logger != nil {
		f.logger.Debug("ProfileEnvFeeder: FeedKey called", "profile", profile, "structureType", reflect.TypeOf(structure), "currentPrefix", f.Prefix, "currentSuffix", f.Suffix)
	}

	if f.Prefix == "" && f.Suffix == "" {
		if f.SetPrefixFunc != nil {
			f.SetPrefixFunc(profile)
		}
		if f.SetSuffixFunc != nil {
			f.SetSuffixFunc(profile)
		}
	}

	return f.AffixedEnvFeeder.Feed(structure)
}
