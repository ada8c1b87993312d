package suite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/steps"
)

// probeGroup records every hook it receives.
type probeGroup struct {
	name       string
	calls      *[]string
	featureErr error
}

func (p *probeGroup) RegisterSteps(sc steps.StepRegistrar) {
	sc.Step(`^probe `+p.name+`$`, func() error { return nil })
}

func (p *probeGroup) BeforeFeature(_ context.Context, feature string) error {
	*p.calls = append(*p.calls, "feature:"+p.name+":"+feature)
	return p.featureErr
}

func (p *probeGroup) BeforeScenario(_ context.Context, sc *godog.Scenario) error {
	*p.calls = append(*p.calls, "before:"+p.name)
	return nil
}

func (p *probeGroup) AfterScenario(_ context.Context, _ *godog.Scenario, err error) error {
	*p.calls = append(*p.calls, fmt.Sprintf("after:%s:%v", p.name, err != nil))
	return nil
}

func (p *probeGroup) AfterStep(_ context.Context, failure steps.StepFailure) error {
	*p.calls = append(*p.calls, "step:"+p.name)
	return fmt.Errorf("%s saw %s", p.name, failure.Err)
}

func probeDefinition(name string, calls *[]string, requires ...string) steps.Definition {
	return steps.Definition{
		Name:     name,
		Requires: requires,
		New: func(*stepkit.Environment) (steps.Group, error) {
			return &probeGroup{name: name, calls: calls}, nil
		},
	}
}

func newProbeSuite(t *testing.T, defs ...steps.Definition) *Suite {
	t.Helper()
	cfg := newTestConfig(t, "http://site.test")
	s, err := New(cfg, nil, WithDefinitions(defs...))
	require.NoError(t, err)
	return s
}

func TestScenarioRun_HookOrder(t *testing.T) {
	var calls []string
	s := newProbeSuite(t, probeDefinition("a", &calls), probeDefinition("b", &calls, "a"))
	run := s.wire()
	require.NoError(t, run.wireErr)
	assert.Equal(t, []string{"a", "b"}, run.names)

	ctx := context.Background()
	sc := &godog.Scenario{Uri: "one.feature", Name: "first"}
	_, err := run.before(ctx, sc)
	require.NoError(t, err)

	_, err = run.afterStep(ctx, &godog.Step{Text: "probe a"}, godog.StepPassed, nil)
	require.NoError(t, err)

	_, err = run.afterStep(ctx, &godog.Step{Text: "probe a"}, godog.StepFailed, errors.New("boom"))
	assert.EqualError(t, err, "a saw boom\nb saw boom")

	_, err = run.after(ctx, sc, errors.New("boom"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"feature:a:one.feature",
		"feature:b:one.feature",
		"before:a",
		"before:b",
		"step:a",
		"step:b",
		"after:a:true",
		"after:b:true",
	}, calls)
}

func TestScenarioRun_FeatureCheckRunsOncePerFeature(t *testing.T) {
	var calls []string
	failing := steps.Definition{
		Name: "gate",
		New: func(*stepkit.Environment) (steps.Group, error) {
			return &probeGroup{name: "gate", calls: &calls, featureErr: errors.New("module missing")}, nil
		},
	}
	s := newProbeSuite(t, failing)
	ctx := context.Background()

	for _, name := range []string{"first", "second"} {
		_, err := s.wire().before(ctx, &godog.Scenario{Uri: "gated.feature", Name: name})
		assert.EqualError(t, err, "module missing")
	}
	_, err := s.wire().before(ctx, &godog.Scenario{Uri: "other.feature", Name: "third"})
	assert.EqualError(t, err, "module missing")

	assert.Equal(t, []string{"feature:gate:gated.feature", "feature:gate:other.feature"}, calls)
}

func TestScenarioRun_WiringFailureAbortsScenario(t *testing.T) {
	var calls []string
	s := newProbeSuite(t, probeDefinition("a", &calls), probeDefinition("b", &calls, "missing"))
	observer := &recordingObserver{}
	require.NoError(t, s.Subject().RegisterObserver(observer))

	run := s.wire()
	assert.ErrorIs(t, run.wireErr, steps.ErrMissingDependency)
	assert.Len(t, run.groups, 1)

	_, err := run.before(context.Background(), &godog.Scenario{Uri: "x.feature"})
	assert.ErrorIs(t, err, steps.ErrMissingDependency)
	assert.Empty(t, calls)

	assert.Equal(t, []string{stepkit.EventTypeContextWired, stepkit.EventTypeWiringFailed}, observer.types())
}

func TestScenarioRun_FreshGroupsPerScenario(t *testing.T) {
	s := newProbeSuite(t, steps.Definitions()...)
	first := s.wire()
	second := s.wire()
	require.NoError(t, first.wireErr)
	require.NoError(t, second.wireErr)

	a, err := stepkit.ResolveAs[*steps.EntityContext](first.env, "entity")
	require.NoError(t, err)
	b, err := stepkit.ResolveAs[*steps.EntityContext](second.env, "entity")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Same(t, a.CMS(), b.CMS())
}
