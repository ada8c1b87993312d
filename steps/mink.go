package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/browser"
)

// MinkContext owns the browser session of a scenario. Every group that talks
// to the browser goes through it, so they all share one session handle.
type MinkContext struct {
	session   browser.Session
	baseURL   string
	filesPath string
	logger    stepkit.Logger
}

// NewMinkContext creates the context around session.
func NewMinkContext(session browser.Session, cfg *stepkit.Config, logger stepkit.Logger) *MinkContext {
	return &MinkContext{
		session:   session,
		baseURL:   cfg.BaseURL,
		filesPath: cfg.FilesPath,
		logger:    stepkit.OrNop(logger),
	}
}

// MinkDefinition builds the MinkContext.
var MinkDefinition = Definition{
	Name:     "mink",
	Requires: []string{ServiceSession, ServiceConfig},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		session := resolve[browser.Session](r, ServiceSession)
		cfg := resolve[*stepkit.Config](r, ServiceConfig)
		if r.err != nil {
			return nil, r.err
		}
		return NewMinkContext(session, cfg, logger(env)), nil
	},
}

// AfterScenario resets the session so the next scenario starts without
// cookies or a current page.
func (m *MinkContext) AfterScenario(ctx context.Context, _ *godog.Scenario, _ error) error {
	return m.session.Reset(ctx)
}

// Session returns the shared browser session.
func (m *MinkContext) Session() browser.Session {
	return m.session
}

// BaseURL returns the configured base URL.
func (m *MinkContext) BaseURL() string {
	return m.baseURL
}

// FilesPath returns the directory fixture files are read from.
func (m *MinkContext) FilesPath() string {
	return m.filesPath
}

// LocatePath resolves a site path against the base URL. Absolute URLs are
// returned unchanged.
func (m *MinkContext) LocatePath(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(m.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Visit opens path in the session.
func (m *MinkContext) Visit(ctx context.Context, path string) error {
	target := m.LocatePath(path)
	m.logger.Debug("Visiting page", "url", target)
	return m.session.Visit(ctx, target)
}

// Page returns a snapshot of the focused document.
func (m *MinkContext) Page(ctx context.Context) (*browser.Page, error) {
	return m.session.Page(ctx)
}

// CurrentURL returns the current URL, or an empty string when the session
// has no page.
func (m *MinkContext) CurrentURL(ctx context.Context) string {
	current, err := m.session.CurrentURL(ctx)
	if err != nil {
		return ""
	}
	return current
}

// FindLink returns the best link matching locator.
func (m *MinkContext) FindLink(ctx context.Context, locator string) (*browser.Element, error) {
	page, err := m.Page(ctx)
	if err != nil {
		return nil, err
	}
	links := page.FindLinks(locator)
	if len(links) == 0 {
		return nil, stepkit.Errorf(stepkit.ErrNotFound, "Link with id|title|alt|text \"%s\" not found.", locator)
	}
	return links[0], nil
}

// FindButton returns the best button matching locator.
func (m *MinkContext) FindButton(ctx context.Context, locator string) (*browser.Element, error) {
	page, err := m.Page(ctx)
	if err != nil {
		return nil, err
	}
	buttons := page.FindButtons(locator)
	if len(buttons) == 0 {
		return nil, stepkit.Errorf(stepkit.ErrNotFound, "Button with id|name|label|value \"%s\" not found.", locator)
	}
	return buttons[0], nil
}

// FindField returns the best form field matching locator.
func (m *MinkContext) FindField(ctx context.Context, locator string) (*browser.Element, error) {
	page, err := m.Page(ctx)
	if err != nil {
		return nil, err
	}
	field, ok := page.FindField(locator)
	if !ok {
		return nil, stepkit.Errorf(stepkit.ErrNotFound, "Form field with id|name|label|value|placeholder \"%s\" not found.", locator)
	}
	return field, nil
}

// FillField sets the value of the field matching locator.
func (m *MinkContext) FillField(ctx context.Context, locator, value string) error {
	field, err := m.FindField(ctx, locator)
	if err != nil {
		return err
	}
	return m.session.SetValue(ctx, field, value)
}

// AssertPageContainsText fails unless the page text contains text.
func (m *MinkContext) AssertPageContainsText(ctx context.Context, text string) error {
	page, err := m.Page(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(page.Root().Text(), text) {
		return stepkit.Errorf(stepkit.ErrAssertion, "The text \"%s\" was not found anywhere in the text of the current page.", text)
	}
	return nil
}

// AssertPageNotContainsText fails when the page text contains text.
func (m *MinkContext) AssertPageNotContainsText(ctx context.Context, text string) error {
	page, err := m.Page(ctx)
	if err != nil {
		return err
	}
	if strings.Contains(page.Root().Text(), text) {
		return stepkit.Errorf(stepkit.ErrAssertion, "The text \"%s\" appears in the text of this page, but it should not.", text)
	}
	return nil
}

// AssertElementContainsText fails unless the first element matching the CSS
// locator contains text.
func (m *MinkContext) AssertElementContainsText(ctx context.Context, locator, text string) error {
	page, err := m.Page(ctx)
	if err != nil {
		return err
	}
	el, ok := page.First(locator)
	if !ok {
		return stepkit.Errorf(stepkit.ErrNotFound, "Element matching css \"%s\" not found.", locator)
	}
	if !strings.Contains(el.Text(), text) {
		return stepkit.Errorf(stepkit.ErrAssertion, "The text \"%s\" was not found in the text of the element matching css \"%s\".", text, locator)
	}
	return nil
}

// RegisterSteps implements Group.
func (m *MinkContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^(?:|I )am on "([^"]*)"$`, m.Visit)
	sc.Step(`^(?:|I )visit "([^"]*)"$`, m.Visit)
	sc.Step(`^(?:|I )am on (?:the )?homepage$`, m.iAmOnHomepage)
	sc.Step(`^(?:|I )follow "([^"]*)"$`, m.iFollow)
	sc.Step(`^(?:|I )press "([^"]*)"$`, m.iPress)
	sc.Step(`^(?:|I )fill in "([^"]*)" with "([^"]*)"$`, m.FillField)
	sc.Step(`^(?:|I )select "([^"]*)" from "([^"]*)"$`, m.iSelectFrom)
	sc.Step(`^(?:|I )check "([^"]*)"$`, m.iCheck)
	sc.Step(`^(?:|I )uncheck "([^"]*)"$`, m.iUncheck)
	sc.Step(`^(?:|I )should see "([^"]*)"$`, m.AssertPageContainsText)
	sc.Step(`^(?:|I )should not see "([^"]*)"$`, m.AssertPageNotContainsText)
	sc.Step(`^(?:|I )should see "([^"]*)" in the "([^"]*)" element$`, m.iShouldSeeInTheElement)
	sc.Step(`^the "([^"]*)" field should contain "([^"]*)"$`, m.theFieldShouldContain)
}

func (m *MinkContext) iAmOnHomepage(ctx context.Context) error {
	return m.Visit(ctx, "/")
}

func (m *MinkContext) iFollow(ctx context.Context, locator string) error {
	link, err := m.FindLink(ctx, locator)
	if err != nil {
		return err
	}
	return m.session.Click(ctx, link)
}

func (m *MinkContext) iPress(ctx context.Context, locator string) error {
	button, err := m.FindButton(ctx, locator)
	if err != nil {
		return err
	}
	return m.session.Click(ctx, button)
}

func (m *MinkContext) iSelectFrom(ctx context.Context, option, locator string) error {
	return m.FillField(ctx, locator, option)
}

func (m *MinkContext) iCheck(ctx context.Context, locator string) error {
	return m.FillField(ctx, locator, "1")
}

func (m *MinkContext) iUncheck(ctx context.Context, locator string) error {
	return m.FillField(ctx, locator, "")
}

func (m *MinkContext) iShouldSeeInTheElement(ctx context.Context, text, locator string) error {
	return m.AssertElementContainsText(ctx, locator, text)
}

func (m *MinkContext) theFieldShouldContain(ctx context.Context, locator, value string) error {
	field, err := m.FindField(ctx, locator)
	if err != nil {
		return err
	}
	if actual := field.Value(); actual != value {
		return stepkit.Errorf(stepkit.ErrAssertion, "The field \"%s\" value is \"%s\", but \"%s\" expected.", locator, actual, value)
	}
	return nil
}

// isUnsupported reports whether err means the driver cannot perform the
// requested operation.
func isUnsupported(err error) bool {
	return errors.Is(err, stepkit.ErrUnsupported)
}

// unexpected wraps driver errors that are not step failures themselves.
func unexpected(action string, err error) error {
	return fmt.Errorf("%s: %w", action, err)
}
