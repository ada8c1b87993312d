package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/browser"
)

// MetaTagContext asserts on the meta tags of the current page.
type MetaTagContext struct {
	mink *MinkContext
}

// NewMetaTagContext creates the context.
func NewMetaTagContext(mink *MinkContext) *MetaTagContext {
	return &MetaTagContext{mink: mink}
}

// MetaTagDefinition builds the MetaTagContext.
var MetaTagDefinition = Definition{
	Name:     "metatag",
	Requires: []string{"mink"},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		mink := resolve[*MinkContext](r, "mink")
		if r.err != nil {
			return nil, r.err
		}
		return NewMetaTagContext(mink), nil
	},
}

// RegisterSteps implements Group.
func (c *MetaTagContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^there should be a meta-tag with a "([^"]*)" attribute containing "([^"]*)"$`, c.AssertMetaTag)
	sc.Step(`^there should not be a meta-tag with a "([^"]*)" attribute containing "([^"]*)"$`, c.AssertNoMetaTag)
	sc.Step(`^there should be a meta-tag with the following attributes:$`, c.assertMetaTagAttributes)
	sc.Step(`^there should not be a meta-tag with the following attributes:$`, c.assertNoMetaTagAttributes)
}

// AssertMetaTag fails unless a meta tag has attribute set to value.
func (c *MetaTagContext) AssertMetaTag(ctx context.Context, attribute, value string) error {
	tags, err := c.matching(ctx, [][2]string{{attribute, value}})
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		return stepkit.Errorf(stepkit.ErrNotFound, "No meta-tag with attribute '%s' containing %s has been found", attribute, value)
	}
	return nil
}

// AssertNoMetaTag fails when a meta tag has attribute set to value.
func (c *MetaTagContext) AssertNoMetaTag(ctx context.Context, attribute, value string) error {
	tags, err := c.matching(ctx, [][2]string{{attribute, value}})
	if err != nil {
		return err
	}
	if len(tags) > 0 {
		return stepkit.Errorf(stepkit.ErrAssertion, "A meta tag with attribute %s containing '%s' has been found", attribute, value)
	}
	return nil
}

func (c *MetaTagContext) assertMetaTagAttributes(ctx context.Context, table *godog.Table) error {
	attributes, err := rowsHash(table)
	if err != nil {
		return err
	}
	tags, err := c.matching(ctx, attributes)
	if err != nil {
		return err
	}
	switch {
	case len(tags) == 0:
		return stepkit.Errorf(stepkit.ErrNotFound, "No metatag were found with the following attributes: \n%s", formatAttributes(attributes))
	case len(tags) > 1:
		return stepkit.Errorf(stepkit.ErrAmbiguous, "Multiple metatags were found with the following attributes: \n%s", formatAttributes(attributes))
	}
	return nil
}

func (c *MetaTagContext) assertNoMetaTagAttributes(ctx context.Context, table *godog.Table) error {
	attributes, err := rowsHash(table)
	if err != nil {
		return err
	}
	tags, err := c.matching(ctx, attributes)
	if err != nil {
		return err
	}
	if len(tags) > 0 {
		return stepkit.Errorf(stepkit.ErrAssertion, "A metatag was found with the following attributes: \n%s", formatAttributes(attributes))
	}
	return nil
}

// matching returns the meta tags carrying every attribute with exactly the
// given value.
func (c *MetaTagContext) matching(ctx context.Context, attributes [][2]string) ([]*browser.Element, error) {
	page, err := c.mink.Page(ctx)
	if err != nil {
		return nil, err
	}
	var tags []*browser.Element
next:
	for _, tag := range page.Find("meta") {
		for _, attr := range attributes {
			if v, ok := tag.Attr(attr[0]); !ok || v != attr[1] {
				continue next
			}
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func formatAttributes(attributes [][2]string) string {
	var b strings.Builder
	for _, attr := range attributes {
		fmt.Fprintf(&b, "%s: %s\n", attr[0], attr[1])
	}
	return b.String()
}
