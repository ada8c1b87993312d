// Package steps holds the step groups ("contexts") of a suite. Each group is
// a struct built once per scenario with direct references to the
// collaborators it needs and registers its sentences on the scenario.
package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/CrisisTextLine/stepkit"
)

// Names of the shared collaborators the suite registers in every scenario
// environment before any group is built.
const (
	ServiceSession = "session"
	ServiceCMS     = "cms"
	ServiceConfig  = "config"
	ServiceLogger  = "logger"
	ServiceEvents  = "events"
)

// StepRegistrar is the part of godog.ScenarioContext groups register on.
type StepRegistrar interface {
	Step(expr, stepFunc interface{})
}

// Group is a wired step group.
type Group interface {
	RegisterSteps(sc StepRegistrar)
}

// Definition describes a step group: the environment entries it depends on
// and how to build it from them.
type Definition struct {
	Name     string
	Requires []string
	New      func(env *stepkit.Environment) (Group, error)
}

// ScenarioStarter is implemented by groups with work to do before each scenario.
type ScenarioStarter interface {
	BeforeScenario(ctx context.Context, sc *godog.Scenario) error
}

// ScenarioFinisher is implemented by groups with work to do after each
// scenario. It runs for failed scenarios too.
type ScenarioFinisher interface {
	AfterScenario(ctx context.Context, sc *godog.Scenario, err error) error
}

// StepFailure describes a failed step.
type StepFailure struct {
	// Feature is the path of the feature file.
	Feature string
	// Line is the step's line in the feature file, 0 when unknown.
	Line int64
	Step *godog.Step
	Err  error
}

// FailureHandler is implemented by groups reacting to failed steps. Errors it
// returns are reported together with the failure.
type FailureHandler interface {
	AfterStep(ctx context.Context, failure StepFailure) error
}

// FeatureChecker is implemented by groups with feature-wide preconditions.
// A failed check fails every scenario of the feature.
type FeatureChecker interface {
	BeforeFeature(ctx context.Context, feature string) error
}

// ErrMissingDependency is returned when a group is built before a
// collaborator it requires.
var ErrMissingDependency = errors.New("missing step group dependency")

// resolver resolves several entries, keeping the first error.
type resolver struct {
	env *stepkit.Environment
	err error
}

func resolve[T any](r *resolver, name string) T {
	var out T
	if r.err != nil {
		return out
	}
	out, err := stepkit.ResolveAs[T](r.env, name)
	if err != nil {
		r.err = fmt.Errorf("%w: %w", ErrMissingDependency, err)
	}
	return out
}

// logger returns the registered logger, or a discard logger.
func logger(env *stepkit.Environment) stepkit.Logger {
	l, err := stepkit.ResolveAs[stepkit.Logger](env, ServiceLogger)
	if err != nil {
		return stepkit.NopLogger()
	}
	return l
}

// emitter returns the registered event emitter, or one dropping events.
func emitter(env *stepkit.Environment) stepkit.Emitter {
	e, err := stepkit.ResolveAs[stepkit.Emitter](env, ServiceEvents)
	if err != nil {
		return stepkit.NopEmitter{}
	}
	return e
}
