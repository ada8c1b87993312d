package suite

import (
	"context"
	"errors"

	"github.com/cucumber/godog"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/steps"
)

// scenarioRun holds the groups wired for a single scenario.
type scenarioRun struct {
	suite   *Suite
	env     *stepkit.Environment
	names   []string
	groups  []steps.Group
	wireErr error
	current *godog.Scenario
}

// wire builds a fresh environment with the shared collaborators and every
// enabled group. A wiring error is kept for the scenario's Before hook.
func (s *Suite) wire() *scenarioRun {
	ctx := context.Background()
	run := &scenarioRun{suite: s, env: stepkit.NewEnvironment(s.logger)}

	services := []struct {
		name  string
		value any
	}{
		{steps.ServiceSession, s.session},
		{steps.ServiceCMS, s.cms},
		{steps.ServiceConfig, s.cfg},
		{steps.ServiceLogger, s.logger},
		{steps.ServiceEvents, s.subject},
	}
	for _, service := range services {
		if err := run.env.Register(service.name, service.value); err != nil {
			run.wireErr = err
			return run
		}
	}

	groups, err := steps.Wire(run.env, s.definitions)
	run.groups = groups
	for _, def := range s.definitions[:len(groups)] {
		run.names = append(run.names, def.Name)
		s.subject.Emit(ctx, stepkit.EventTypeContextWired, eventSource, map[string]interface{}{
			"context": def.Name,
		})
	}
	if err != nil {
		run.wireErr = err
		s.subject.Emit(ctx, stepkit.EventTypeWiringFailed, eventSource, map[string]interface{}{
			"error": err.Error(),
		})
	}
	return run
}

func (r *scenarioRun) before(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	if r.wireErr != nil {
		return ctx, r.wireErr
	}
	r.current = sc
	r.suite.subject.Emit(ctx, stepkit.EventTypeScenarioStarted, eventSource, map[string]interface{}{
		"scenario": sc.Name,
		"feature":  sc.Uri,
	})

	for i, group := range r.groups {
		if checker, ok := group.(steps.FeatureChecker); ok {
			if err := r.suite.checkFeature(ctx, sc.Uri, r.names[i], checker); err != nil {
				return ctx, err
			}
		}
	}
	for _, group := range r.groups {
		if starter, ok := group.(steps.ScenarioStarter); ok {
			if err := starter.BeforeScenario(ctx, sc); err != nil {
				return ctx, err
			}
		}
	}
	return ctx, nil
}

// after runs every finisher, failed scenarios included, and reports all
// of their errors.
func (r *scenarioRun) after(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
	var errs []error
	for _, group := range r.groups {
		if finisher, ok := group.(steps.ScenarioFinisher); ok {
			if ferr := finisher.AfterScenario(ctx, sc, err); ferr != nil {
				errs = append(errs, ferr)
			}
		}
	}

	status := "passed"
	if err != nil {
		status = "failed"
	}
	r.suite.subject.Emit(ctx, stepkit.EventTypeScenarioFinished, eventSource, map[string]interface{}{
		"scenario": sc.Name,
		"feature":  sc.Uri,
		"status":   status,
	})
	return ctx, errors.Join(errs...)
}

// afterStep collects the diagnostics of a failed step. godog adds them to
// the step's own error.
func (r *scenarioRun) afterStep(ctx context.Context, st *godog.Step, status godog.StepResultStatus, err error) (context.Context, error) {
	if status != godog.StepFailed {
		return ctx, nil
	}
	failure := steps.StepFailure{Step: st, Err: err}
	if r.current != nil {
		failure.Feature = r.current.Uri
		failure.Line = r.suite.lines.Line(r.current, st)
	}

	var diagnostics []error
	for _, group := range r.groups {
		if handler, ok := group.(steps.FailureHandler); ok {
			if herr := handler.AfterStep(ctx, failure); herr != nil {
				diagnostics = append(diagnostics, herr)
			}
		}
	}
	return ctx, errors.Join(diagnostics...)
}
