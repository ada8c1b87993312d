package stepkit

import (
	"errors"
	"fmt"
)

// Failure kinds. Every step failure matches exactly one of these with errors.Is.
var (
	// ErrPrecondition means a required capability or module is absent.
	ErrPrecondition = errors.New("precondition not met")
	// ErrNotFound means zero matches where one was required.
	ErrNotFound = errors.New("not found")
	// ErrAmbiguous means several matches where exactly one was required.
	ErrAmbiguous = errors.New("ambiguous match")
	// ErrAssertion means an observed value differs from the expected one.
	ErrAssertion = errors.New("assertion failed")
	// ErrUnsupported means the current driver cannot perform the operation.
	ErrUnsupported = errors.New("not supported by the current driver")
)

// Environment errors
var (
	ErrContextNotRegistered     = errors.New("context not registered")
	ErrContextAlreadyRegistered = errors.New("context already registered")
	ErrContextTypeMismatch      = errors.New("context type mismatch")
	ErrInvalidResolveTarget     = errors.New("resolve target must be a non-nil pointer")
)

// Configuration errors
var (
	ErrConfigFeederError       = errors.New("config feeder error")
	ErrConfigValidation        = errors.New("config validation error")
	ErrConfigSetupError        = errors.New("config setup error")
	ErrConfigTargetInvalid     = errors.New("config target must be a non-nil pointer to a struct")
	ErrUnsupportedConfigFormat = errors.New("unsupported config file format")
)

// Event errors
var (
	ErrObserverNil = errors.New("observer cannot be nil")
)

// StepError is a failure whose text is exactly the human readable message
// while still matching its kind (and any wrapped cause) with errors.Is.
type StepError struct {
	Kind  error
	cause error
}

// Errorf creates a StepError of the given kind. The format supports %w.
func Errorf(kind error, format string, args ...any) error {
	return &StepError{Kind: kind, cause: fmt.Errorf(format, args...)}
}

func (e *StepError) Error() string {
	return e.cause.Error()
}

func (e *StepError) Unwrap() []error {
	return []error{e.Kind, e.cause}
}
