package steps

import (
	"context"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/CrisisTextLine/stepkit"
)

// BrowserContext controls the browser window and checks the current location.
type BrowserContext struct {
	mink          *MinkContext
	width, height int
	resizeOnStart bool
	sleep         func(time.Duration)
}

// NewBrowserContext creates the context. A zero width or height falls back
// to 1024x768.
func NewBrowserContext(mink *MinkContext, cfg stepkit.BrowserConfig) *BrowserContext {
	b := &BrowserContext{
		mink:          mink,
		width:         cfg.WindowWidth,
		height:        cfg.WindowHeight,
		resizeOnStart: cfg.ResizeOnScenarioStart,
		sleep:         time.Sleep,
	}
	if b.width <= 0 {
		b.width = 1024
	}
	if b.height <= 0 {
		b.height = 768
	}
	return b
}

// BrowserDefinition builds the BrowserContext.
var BrowserDefinition = Definition{
	Name:     "browser",
	Requires: []string{"mink", ServiceConfig},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		mink := resolve[*MinkContext](r, "mink")
		cfg := resolve[*stepkit.Config](r, ServiceConfig)
		if r.err != nil {
			return nil, r.err
		}
		return NewBrowserContext(mink, cfg.Browser), nil
	},
}

// RegisterSteps implements Group.
func (b *BrowserContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^I resize the window to (\d+) pixels wide and (\d+) pixels high$`, b.ResizeWindow)
	sc.Step(`^I wait (\d+) seconds?$`, b.iWaitSeconds)
	sc.Step(`^I wait (\d+) milliseconds?$`, b.iWaitMilliseconds)
	sc.Step(`^I should be at "([^"]*)"$`, b.iShouldBeAt)
	sc.Step(`^I should be on the "([^"]*)" path$`, b.iShouldBeAt)
}

// BeforeScenario resets the window to its default size on drivers with a
// real window.
func (b *BrowserContext) BeforeScenario(ctx context.Context, _ *godog.Scenario) error {
	if !b.resizeOnStart || !b.mink.Session().SupportsJavascript() {
		return nil
	}
	return b.ResizeWindow(ctx, b.width, b.height)
}

// ResizeWindow resizes the browser window. It does nothing before the
// session is started.
func (b *BrowserContext) ResizeWindow(ctx context.Context, width, height int) error {
	session := b.mink.Session()
	if !session.IsStarted() {
		return nil
	}
	return session.Resize(ctx, width, height)
}

func (b *BrowserContext) iWaitSeconds(seconds int) {
	b.sleep(time.Duration(seconds) * time.Second)
}

func (b *BrowserContext) iWaitMilliseconds(ms int) {
	b.sleep(time.Duration(ms) * time.Millisecond)
}

func (b *BrowserContext) iShouldBeAt(ctx context.Context, path string) error {
	expected := strings.Trim(b.mink.BaseURL(), "/") + "/" + strings.Trim(path, "/")
	current := b.mink.CurrentURL(ctx)
	if expected != current {
		return stepkit.Errorf(stepkit.ErrAssertion, "You're not at %s, but at %s", expected, current)
	}
	return nil
}
