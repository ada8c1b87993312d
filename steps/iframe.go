package steps

import (
	"context"
	"errors"

	"github.com/cucumber/godog"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/browser"
)

// iframeMarker is the name given to the frame being switched to, so frames
// without a name or id can be targeted by any CSS selector.
const iframeMarker = "stepkit-iframe"

// IframeContext switches the session between the main document and iframes.
type IframeContext struct {
	mink *MinkContext
}

// NewIframeContext creates the context.
func NewIframeContext(mink *MinkContext) *IframeContext {
	return &IframeContext{mink: mink}
}

// IframeDefinition builds the IframeContext.
var IframeDefinition = Definition{
	Name:     "iframe",
	Requires: []string{"mink"},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		mink := resolve[*MinkContext](r, "mink")
		if r.err != nil {
			return nil, r.err
		}
		return NewIframeContext(mink), nil
	},
}

// RegisterSteps implements Group.
func (c *IframeContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^I switch to the "([^"]*)" iframe$`, c.SwitchToIframe)
	sc.Step(`^I switch back to the main frame$`, c.SwitchToMainFrame)
}

// BeforeScenario makes every scenario start in the main document.
func (c *IframeContext) BeforeScenario(ctx context.Context, _ *godog.Scenario) error {
	return c.SwitchToMainFrame(ctx)
}

// SwitchToIframe focuses the iframe matching the CSS locator.
func (c *IframeContext) SwitchToIframe(ctx context.Context, locator string) error {
	session := c.mink.Session()
	page, err := c.mink.Page(ctx)
	if err != nil {
		return err
	}
	frame, ok := page.First(locator)
	if !ok {
		return stepkit.Errorf(stepkit.ErrNotFound, "No iframe matching '%s' could be found on the page %s", locator, c.mink.CurrentURL(ctx))
	}

	for _, tagged := range page.Find(`[name="` + iframeMarker + `"]`) {
		if err := session.SetAttribute(ctx, tagged, "name", ""); err != nil {
			return err
		}
	}
	if err := session.SetAttribute(ctx, frame, "name", iframeMarker); err != nil {
		return err
	}
	if err := session.SwitchToFrame(ctx, iframeMarker); err != nil {
		kind := stepkit.ErrUnsupported
		if errors.Is(err, browser.ErrFrameNotFound) {
			kind = stepkit.ErrNotFound
		}
		return stepkit.Errorf(kind, "Could not switch to the '%s' iframe: %w", locator, err)
	}
	return nil
}

// SwitchToMainFrame returns focus to the top document.
func (c *IframeContext) SwitchToMainFrame(ctx context.Context) error {
	if !c.mink.Session().IsStarted() {
		return nil
	}
	return c.mink.Session().SwitchToDefault(ctx)
}
