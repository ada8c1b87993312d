package steps

import (
	"context"

	"github.com/cucumber/godog"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/cms"
)

// ModuleContext asserts which modules are installed.
type ModuleContext struct {
	modules cms.ModuleHandler
}

// NewModuleContext creates the context.
func NewModuleContext(modules cms.ModuleHandler) *ModuleContext {
	return &ModuleContext{modules: modules}
}

// ModuleDefinition builds the ModuleContext.
var ModuleDefinition = Definition{
	Name:     "module",
	Requires: []string{ServiceCMS},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		facade := resolve[cms.Facade](r, ServiceCMS)
		if r.err != nil {
			return nil, r.err
		}
		return NewModuleContext(facade), nil
	},
}

// RegisterSteps implements Group.
func (c *ModuleContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^the following modules are disabled:$`, c.TheFollowingModulesAreDisabled)
}

// TheFollowingModulesAreDisabled fails for the first module of the table's
// "module" column that is installed.
func (c *ModuleContext) TheFollowingModulesAreDisabled(_ context.Context, table *godog.Table) error {
	rows, err := tableHash(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		name, ok := row["module"]
		if !ok {
			return stepkit.Errorf(stepkit.ErrPrecondition, "Module names must be listed in a column called `module`")
		}
		if c.modules.ModuleExists(name) {
			return stepkit.Errorf(stepkit.ErrAssertion, "Module %s is enabled while it should not be", name)
		}
	}
	return nil
}
