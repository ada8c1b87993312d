package steps

import (
	"context"
	"strings"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/browser"
)

// FormContext performs actions and assertions on form controls.
type FormContext struct {
	mink *MinkContext
}

// NewFormContext creates the context.
func NewFormContext(mink *MinkContext) *FormContext {
	return &FormContext{mink: mink}
}

// FormDefinition builds the FormContext.
var FormDefinition = Definition{
	Name:     "form",
	Requires: []string{"mink"},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		mink := resolve[*MinkContext](r, "mink")
		if r.err != nil {
			return nil, r.err
		}
		return NewFormContext(mink), nil
	},
}

// RegisterSteps implements Group.
func (c *FormContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^I empty the "([^"]*)" field$`, c.iEmptyTheField)
	sc.Step(`^the "([^"]*)" checkbox should be disabled$`, c.AssertCheckboxDisabled)
	sc.Step(`^the "([^"]*)" checkbox should be enabled$`, c.AssertCheckboxEnabled)
}

func (c *FormContext) iEmptyTheField(ctx context.Context, locator string) error {
	return c.mink.FillField(ctx, locator, "")
}

// AssertCheckboxDisabled fails unless the checkbox labelled label carries
// the disabled attribute.
func (c *FormContext) AssertCheckboxDisabled(ctx context.Context, label string) error {
	checkbox, err := c.findCheckbox(ctx, label)
	if err != nil {
		return err
	}
	if !checkbox.HasAttr("disabled") {
		return stepkit.Errorf(stepkit.ErrAssertion, "The %s checkbox is not disabled", label)
	}
	return nil
}

// AssertCheckboxEnabled fails when the checkbox labelled label is disabled.
func (c *FormContext) AssertCheckboxEnabled(ctx context.Context, label string) error {
	checkbox, err := c.findCheckbox(ctx, label)
	if err != nil {
		return err
	}
	if checkbox.HasAttr("disabled") {
		return stepkit.Errorf(stepkit.ErrAssertion, "The %s checkbox is not enabled", label)
	}
	return nil
}

func (c *FormContext) findCheckbox(ctx context.Context, label string) (*browser.Element, error) {
	page, err := c.mink.Page(ctx)
	if err != nil {
		return nil, err
	}
	for _, field := range page.FindFields(label) {
		if typ, ok := field.Attr("type"); ok && strings.EqualFold(typ, "checkbox") {
			return field, nil
		}
	}
	return nil, stepkit.Errorf(stepkit.ErrNotFound, "No %s checkbox could be found", label)
}
