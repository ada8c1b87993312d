package steps

import (
	"context"
	"errors"

	"github.com/CrisisTextLine/stepkit"
)

// LinkContext asserts on links by label and exact href.
type LinkContext struct {
	mink *MinkContext
}

// NewLinkContext creates the context.
func NewLinkContext(mink *MinkContext) *LinkContext {
	return &LinkContext{mink: mink}
}

// LinkDefinition builds the LinkContext.
var LinkDefinition = Definition{
	Name:     "link",
	Requires: []string{"mink"},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		mink := resolve[*MinkContext](r, "mink")
		if r.err != nil {
			return nil, r.err
		}
		return NewLinkContext(mink), nil
	},
}

// RegisterSteps implements Group.
func (c *LinkContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^I should see a link "([^"]*)" with url "([^"]*)"$`, c.AssertLinkWithURL)
	sc.Step(`^I should not see the link "([^"]*)" with url "([^"]*)"$`, c.AssertNoLinkWithURL)
	sc.Step(`^I click "([^"]*)" in the "([^"]*)" element$`, c.iClickInTheElement)
}

// AssertLinkWithURL passes when a visible link labelled label points to
// url. Links whose visibility the driver cannot report count as visible.
func (c *LinkContext) AssertLinkWithURL(ctx context.Context, label, url string) error {
	page, err := c.mink.Page(ctx)
	if err != nil {
		return err
	}
	links := page.FindLinks(label)
	if len(links) == 0 {
		return stepkit.Errorf(stepkit.ErrNotFound, "No link '%s' found on %s", label, c.mink.CurrentURL(ctx))
	}

	invisible := false
	for _, link := range links {
		if href, _ := link.Attr("href"); href != url {
			continue
		}
		visible, err := c.mink.Session().IsVisible(ctx, link)
		if isUnsupported(err) {
			return nil
		}
		if err != nil {
			return unexpected("check visibility", err)
		}
		if !visible {
			invisible = true
			continue
		}
		return nil
	}

	if invisible {
		return stepkit.Errorf(stepkit.ErrAssertion, "Found a '%s' link with url %s, but it was invisible.", label, url)
	}
	return stepkit.Errorf(stepkit.ErrNotFound, "Found multiple '%s' links, but none with the url %s", label, url)
}

// AssertNoLinkWithURL is the negation of AssertLinkWithURL.
func (c *LinkContext) AssertNoLinkWithURL(ctx context.Context, label, url string) error {
	err := c.AssertLinkWithURL(ctx, label, url)
	switch {
	case err == nil:
		return stepkit.Errorf(stepkit.ErrAssertion, "At least one '%s' link with url '%s' was found", label, url)
	case errors.Is(err, stepkit.ErrNotFound), errors.Is(err, stepkit.ErrAssertion):
		return nil
	default:
		return err
	}
}

func (c *LinkContext) iClickInTheElement(ctx context.Context, label, locator string) error {
	page, err := c.mink.Page(ctx)
	if err != nil {
		return err
	}
	elements := page.Find(locator)
	if len(elements) == 0 {
		return stepkit.Errorf(stepkit.ErrNotFound, "Element matching css \"%s\" not found.", locator)
	}
	for _, el := range elements {
		if links := el.FindLinks(label); len(links) > 0 {
			return c.mink.Session().Click(ctx, links[0])
		}
	}
	return stepkit.Errorf(stepkit.ErrNotFound, "No link %s could be found", label)
}
