package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/browser"
	"github.com/CrisisTextLine/stepkit/cms"
)

const disableValidationScript = `var forms = document.querySelectorAll('form');

for (var i = 0; i < forms.length; ++i) {
  forms[i].setAttribute('novalidate', '');
}`

// JavascriptContext holds the steps that need a browser running JavaScript.
type JavascriptContext struct {
	mink    *MinkContext
	modules cms.ModuleHandler
	sleep   func(time.Duration)
}

// NewJavascriptContext creates the context.
func NewJavascriptContext(mink *MinkContext, modules cms.ModuleHandler) *JavascriptContext {
	return &JavascriptContext{mink: mink, modules: modules, sleep: time.Sleep}
}

// JavascriptDefinition builds the JavascriptContext.
var JavascriptDefinition = Definition{
	Name:     "javascript",
	Requires: []string{"mink", ServiceCMS},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		mink := resolve[*MinkContext](r, "mink")
		modules := resolve[cms.Facade](r, ServiceCMS)
		if r.err != nil {
			return nil, r.err
		}
		return NewJavascriptContext(mink, modules), nil
	},
}

// RegisterSteps implements Group.
func (c *JavascriptContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^for WYSIWYG field "([^"]*)" I enter "([^"]*)"$`, c.forWysiwygFieldIEnter)
	sc.Step(`^I move the mouse to indicate that I am human$`, c.iMoveTheMouse)
	sc.Step(`^I expand the dropbutton in the "([^"]*)" row$`, c.iExpandTheDropbuttonInTheRow)
	sc.Step(`^browser form validation is disabled$`, c.browserFormValidationIsDisabled)
	sc.Step(`^the "([^"]*)" element should have focus$`, c.elementShouldHaveFocus)
	sc.Step(`^I scroll "([^"]*)" into view$`, c.iScrollIntoView)
}

func (c *JavascriptContext) execute(ctx context.Context, script string) error {
	return c.mink.Session().Execute(ctx, script)
}

func (c *JavascriptContext) forWysiwygFieldIEnter(ctx context.Context, name, value string) error {
	page, err := c.mink.Page(ctx)
	if err != nil {
		return err
	}
	field, ok := page.FindField(name)
	if !ok {
		return stepkit.Errorf(stepkit.ErrNotFound, "Could not find CKEditor with locator: %s", name)
	}
	id, ok := field.Attr("id")
	if !ok || id == "" {
		return stepkit.Errorf(stepkit.ErrNotFound, "Could not find an id for field with locator: %s", name)
	}

	instance := "CKEDITOR.instances[" + jsString(id) + "]"
	if err := c.execute(ctx, instance+".setData("+jsString(value)+");"); err != nil {
		return err
	}
	if c.modules.ModuleExists("maxlength") {
		// maxlength recounts on elementsPathUpdate after a 100ms delay.
		if err := c.execute(ctx, instance+`.fire("elementsPathUpdate");`); err != nil {
			return err
		}
		c.sleep(100 * time.Millisecond)
	}
	return nil
}

func (c *JavascriptContext) iMoveTheMouse(ctx context.Context) error {
	return c.execute(ctx, "jQuery('body').trigger('mousemove')")
}

func (c *JavascriptContext) iExpandTheDropbuttonInTheRow(ctx context.Context, label string) error {
	page, err := c.mink.Page(ctx)
	if err != nil {
		return err
	}
	row, err := c.FindTableRow(ctx, page.Root(), label)
	if err != nil {
		return err
	}
	button, ok := row.First(".dropbutton-toggle button")
	if !ok {
		return stepkit.Errorf(stepkit.ErrNotFound, "Found a row containing '%s', but no dropbutton on page %s", label, c.mink.CurrentURL(ctx))
	}
	return c.mink.Session().Click(ctx, button)
}

// FindTableRow returns the only row of el whose text contains search.
func (c *JavascriptContext) FindTableRow(ctx context.Context, el *browser.Element, search string) (*browser.Element, error) {
	rows := el.Find("tr")
	if len(rows) == 0 {
		return nil, stepkit.Errorf(stepkit.ErrNotFound, "No rows found on page %s", c.mink.CurrentURL(ctx))
	}

	var found []*browser.Element
	for _, row := range rows {
		if strings.Contains(row.Text(), search) {
			found = append(found, row)
		}
	}
	switch len(found) {
	case 0:
		return nil, stepkit.Errorf(stepkit.ErrNotFound, "Failed to find a row containing '%s' on page %s", search, c.mink.CurrentURL(ctx))
	case 1:
		return found[0], nil
	default:
		return nil, stepkit.Errorf(stepkit.ErrAmbiguous, "Found multiple rows containing '%s' on page %s", search, c.mink.CurrentURL(ctx))
	}
}

func (c *JavascriptContext) browserFormValidationIsDisabled(ctx context.Context) error {
	return c.execute(ctx, disableValidationScript)
}

func (c *JavascriptContext) elementShouldHaveFocus(ctx context.Context, locator string) error {
	page, err := c.mink.Page(ctx)
	if err != nil {
		return err
	}
	elements := page.Find(locator)
	if len(elements) == 0 {
		return stepkit.Errorf(stepkit.ErrNotFound, "No element with css locator '%s' could be found", locator)
	}

	for _, el := range elements {
		script := fmt.Sprintf("return document.activeElement === document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;", jsString(el.XPath()))
		var focused bool
		if err := c.mink.Session().Evaluate(ctx, script, &focused); err != nil {
			return err
		}
		if focused {
			return nil
		}
	}
	return stepkit.Errorf(stepkit.ErrAssertion, "Could not find any css element '%s' with focus", locator)
}

func (c *JavascriptContext) iScrollIntoView(ctx context.Context, locator string) error {
	return c.execute(ctx, "document.querySelector("+jsString(locator)+").scrollIntoView()")
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	quoted, _ := json.Marshal(s)
	return string(quoted)
}
