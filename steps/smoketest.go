package steps

import (
	"context"

	"github.com/CrisisTextLine/stepkit"
)

// SmokeTestContext checks the browser setup itself.
type SmokeTestContext struct {
	mink *MinkContext
}

// NewSmokeTestContext creates the context.
func NewSmokeTestContext(mink *MinkContext) *SmokeTestContext {
	return &SmokeTestContext{mink: mink}
}

// SmokeTestDefinition builds the SmokeTestContext.
var SmokeTestDefinition = Definition{
	Name:     "smoketest",
	Requires: []string{"mink"},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		mink := resolve[*MinkContext](r, "mink")
		if r.err != nil {
			return nil, r.err
		}
		return NewSmokeTestContext(mink), nil
	},
}

// RegisterSteps implements Group.
func (c *SmokeTestContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^I can execute javascript$`, c.ICanExecuteJavascript)
}

// ICanExecuteJavascript evaluates a constant expression in the browser.
func (c *SmokeTestContext) ICanExecuteJavascript(ctx context.Context) error {
	var value string
	if err := c.mink.Session().Evaluate(ctx, "return 'test'", &value); err != nil || value != "test" {
		return stepkit.Errorf(stepkit.ErrUnsupported, "Could not evaluate javascript")
	}
	return nil
}
