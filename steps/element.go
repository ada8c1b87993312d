package steps

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/browser"
)

// ElementContext asserts on elements located by CSS selectors.
type ElementContext struct {
	mink *MinkContext
}

// NewElementContext creates the context.
func NewElementContext(mink *MinkContext) *ElementContext {
	return &ElementContext{mink: mink}
}

// ElementDefinition builds the ElementContext.
var ElementDefinition = Definition{
	Name:     "element",
	Requires: []string{"mink"},
	New: func(env *stepkit.Environment) (Group, error) {
		mink, err := stepkit.ResolveAs[*MinkContext](env, "mink")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMissingDependency, err)
		}
		return NewElementContext(mink), nil
	},
}

// RegisterSteps implements Group. Count steps accept the locator with or
// without quotes.
func (c *ElementContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^I should see the "([^"]*)" element (\d+) times?$`, c.iShouldSeeTheElementTimes)
	sc.Step(`^I should see regex "([^"]*)" in the "([^"]*)" element (\d+) times?$`, c.iShouldSeeRegexInTheElementTimes)
	sc.Step(`^I should not see "([^"]*)" outside of the "([^"]*)" element$`, c.iShouldNotSeeOutsideOfTheElement)
	sc.Step(`^the "([^"]*)" element should have a "([^"]*)" attribute containing "([^"]*)"$`, c.elementShouldHaveAttributeContaining)
	sc.Step(`^I press button "([^"]*)" in the "([^"]*)" element$`, c.iPressButtonInTheElement)
	sc.Step(`^I should see the "([^"]*)" element$`, c.iShouldSeeTheElement)
	sc.Step(`^I should not see the "([^"]*)" element$`, c.iShouldNotSeeTheElement)
	sc.Step(`^I should see a maximum of (\d+) "?([^"]*?)"? elements? containing "([^"]*)"$`, c.iShouldSeeMaximumOfElementsContaining)
	sc.Step(`^I should see a minimum of (\d+) "?([^"]*?)"? elements? containing "([^"]*)"$`, c.iShouldSeeMinimumOfElementsContaining)
	sc.Step(`^I should see exactly (\d+) "?([^"]*?)"? elements? containing "([^"]*)"$`, c.iShouldSeeExactlyElementsContaining)
	sc.Step(`^I should see a maximum of (\d+) "?([^"]*?)"? elements?$`, c.iShouldSeeMaximumOfElements)
	sc.Step(`^I should see a minimum of (\d+) "?([^"]*?)"? elements?$`, c.iShouldSeeMinimumOfElements)
	sc.Step(`^I should see exactly (\d+) "?([^"]*?)"? elements?$`, c.iShouldSeeExactlyElements)
	sc.Step(`^I click the "([^"]*)" element$`, c.iClickTheElement)
}

// FindElement returns the first element matching the CSS locator.
func (c *ElementContext) FindElement(ctx context.Context, locator string) (*browser.Element, error) {
	page, err := c.mink.Page(ctx)
	if err != nil {
		return nil, err
	}
	el, ok := page.First(locator)
	if !ok {
		return nil, stepkit.Errorf(stepkit.ErrNotFound, "No element with '%s' could be found on the page %s", locator, c.mink.CurrentURL(ctx))
	}
	return el, nil
}

func (c *ElementContext) findAll(ctx context.Context, locator string) ([]*browser.Element, error) {
	page, err := c.mink.Page(ctx)
	if err != nil {
		return nil, err
	}
	return page.Find(locator), nil
}

func (c *ElementContext) iShouldSeeTheElementTimes(ctx context.Context, locator string, expected int) error {
	elements, err := c.findAll(ctx, locator)
	if err != nil {
		return err
	}
	if actual := len(elements); actual != expected {
		return stepkit.Errorf(stepkit.ErrAssertion, "found %s %d times instead of the expected %d times", locator, actual, expected)
	}
	return nil
}

func (c *ElementContext) iShouldSeeRegexInTheElementTimes(ctx context.Context, pattern, locator string, expected int) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return stepkit.Errorf(stepkit.ErrPrecondition, "Invalid regex %s: %w", pattern, err)
	}
	elements, err := c.findAll(ctx, locator)
	if err != nil {
		return err
	}
	total := 0
	for _, el := range elements {
		total += len(re.FindAllStringIndex(el.HTML(), -1))
	}
	if total != expected {
		return stepkit.Errorf(stepkit.ErrAssertion, "Expected to find %d matches for %s, but found %d", expected, locator, total)
	}
	return nil
}

func (c *ElementContext) iShouldNotSeeOutsideOfTheElement(ctx context.Context, text, locator string) error {
	if err := c.mink.AssertElementContainsText(ctx, locator, text); err != nil {
		return err
	}

	page, err := c.mink.Page(ctx)
	if err != nil {
		return err
	}
	markup := page.HTML()
	for _, el := range page.Find(locator) {
		markup = strings.ReplaceAll(markup, el.OuterHTML(), "")
	}

	pos := strings.Index(markup, text)
	if pos < 0 {
		return nil
	}
	return stepkit.Errorf(stepkit.ErrAssertion, "Found %s outside of a %s element. Context: \n%s", text, locator, excerpt(markup, pos, len(text)))
}

// excerpt returns the text around a match: 50 bytes before it and
// len+100 bytes in total.
func excerpt(s string, pos, length int) string {
	start := max(pos-50, 0)
	end := min(start+length+100, len(s))
	return s[start:end]
}

func (c *ElementContext) elementShouldHaveAttributeContaining(ctx context.Context, locator, attribute, value string) error {
	page, err := c.mink.Page(ctx)
	if err != nil {
		return err
	}
	el, ok := page.First(locator)
	if !ok {
		return stepkit.Errorf(stepkit.ErrNotFound, "Could not find element using the selector '%s'", locator)
	}
	actual, ok := el.Attr(attribute)
	if !ok || !strings.Contains(actual, value) {
		return stepkit.Errorf(stepkit.ErrAssertion, "The value for the selector '%s', attribute '%s' does not contain '%s'", locator, attribute, value)
	}
	return nil
}

func (c *ElementContext) iPressButtonInTheElement(ctx context.Context, label, locator string) error {
	container, err := c.FindElement(ctx, locator)
	if err != nil {
		return err
	}
	buttons := container.FindButtons(label)
	if len(buttons) == 0 {
		return stepkit.Errorf(stepkit.ErrNotFound, "The button '%s' was not found in the '%s' element on the page %s", label, locator, c.mink.CurrentURL(ctx))
	}
	return c.mink.Session().Click(ctx, buttons[0])
}

func (c *ElementContext) iShouldSeeTheElement(ctx context.Context, locator string) error {
	_, err := c.FindElement(ctx, locator)
	return err
}

// iShouldNotSeeTheElement passes when no matching element is visible.
// Elements whose visibility the driver cannot report are skipped.
func (c *ElementContext) iShouldNotSeeTheElement(ctx context.Context, locator string) error {
	elements, err := c.findAll(ctx, locator)
	if err != nil {
		return err
	}
	for _, el := range elements {
		visible, err := c.mink.Session().IsVisible(ctx, el)
		if isUnsupported(err) {
			continue
		}
		if err != nil {
			return unexpected("check visibility", err)
		}
		if visible {
			return stepkit.Errorf(stepkit.ErrAssertion, "Found a %s element where it was not supposed to be found", locator)
		}
	}
	return nil
}

func (c *ElementContext) countElements(ctx context.Context, locator, text string) (int, error) {
	elements, err := c.findAll(ctx, locator)
	if err != nil {
		return 0, err
	}
	if text == "" {
		return len(elements), nil
	}
	found := 0
	for _, el := range elements {
		if strings.Contains(el.Text(), text) {
			found++
		}
	}
	return found, nil
}

// assertCount compares the number of matching elements with expected using
// the named comparison: "a maximum of", "a minimum of" or "exactly".
func (c *ElementContext) assertCount(ctx context.Context, comparison string, expected int, locator, text string) error {
	found, err := c.countElements(ctx, locator, text)
	if err != nil {
		return err
	}
	var ok bool
	switch comparison {
	case "a maximum of":
		ok = found <= expected
	case "a minimum of":
		ok = found >= expected
	default:
		ok = found == expected
	}
	if ok {
		return nil
	}
	containing := ""
	if text != "" {
		containing = fmt.Sprintf(" containing '%s'", text)
	}
	return stepkit.Errorf(stepkit.ErrAssertion, "Expected to find %s %d %s elements%s but found %d", comparison, expected, locator, containing, found)
}

func (c *ElementContext) iShouldSeeMaximumOfElementsContaining(ctx context.Context, count int, locator, text string) error {
	return c.assertCount(ctx, "a maximum of", count, locator, text)
}

func (c *ElementContext) iShouldSeeMinimumOfElementsContaining(ctx context.Context, count int, locator, text string) error {
	return c.assertCount(ctx, "a minimum of", count, locator, text)
}

func (c *ElementContext) iShouldSeeExactlyElementsContaining(ctx context.Context, count int, locator, text string) error {
	return c.assertCount(ctx, "exactly", count, locator, text)
}

func (c *ElementContext) iShouldSeeMaximumOfElements(ctx context.Context, count int, locator string) error {
	return c.assertCount(ctx, "a maximum of", count, locator, "")
}

func (c *ElementContext) iShouldSeeMinimumOfElements(ctx context.Context, count int, locator string) error {
	return c.assertCount(ctx, "a minimum of", count, locator, "")
}

func (c *ElementContext) iShouldSeeExactlyElements(ctx context.Context, count int, locator string) error {
	return c.assertCount(ctx, "exactly", count, locator, "")
}

func (c *ElementContext) iClickTheElement(ctx context.Context, locator string) error {
	el, err := c.FindElement(ctx, locator)
	if err != nil {
		return err
	}
	return c.mink.Session().Click(ctx, el)
}
