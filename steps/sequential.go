package steps

import (
	"context"
	"slices"
	"strings"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/browser"
)

var headingTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

// SequentialContext asserts the order of headings and text on a page.
type SequentialContext struct {
	mink *MinkContext
}

// NewSequentialContext creates the context.
func NewSequentialContext(mink *MinkContext) *SequentialContext {
	return &SequentialContext{mink: mink}
}

// SequentialDefinition builds the SequentialContext.
var SequentialDefinition = Definition{
	Name:     "sequential",
	Requires: []string{"mink"},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		mink := resolve[*MinkContext](r, "mink")
		if r.err != nil {
			return nil, r.err
		}
		return NewSequentialContext(mink), nil
	},
}

// RegisterSteps implements Group.
func (c *SequentialContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^heading "([^"]*)" should directly precede "([^"]*)" heading "([^"]*)"$`, c.HeadingShouldDirectlyPrecede)
	sc.Step(`^heading "([^"]*)" should precede heading "([^"]*)"$`, c.HeadingShouldPrecede)
	sc.Step(`^I should see "([^"]*)" precede "([^"]*)"$`, c.TextShouldPrecede)
}

func (c *SequentialContext) headings(ctx context.Context) ([]*browser.Element, error) {
	page, err := c.mink.Page(ctx)
	if err != nil {
		return nil, err
	}
	return page.Find(strings.Join(headingTags, ", ")), nil
}

// HeadingShouldDirectlyPrecede passes when a heading with text before is
// immediately followed by a tag heading with text after.
func (c *SequentialContext) HeadingShouldDirectlyPrecede(ctx context.Context, before, tag, after string) error {
	if !slices.Contains(headingTags, tag) {
		return stepkit.Errorf(stepkit.ErrPrecondition, "%s tag is not a valid heading", tag)
	}
	headings, err := c.headings(ctx)
	if err != nil {
		return err
	}
	for i, heading := range headings {
		if heading.Text() != before {
			continue
		}
		if i+1 >= len(headings) {
			break
		}
		next := headings[i+1]
		if next.Text() == after && next.TagName() == tag {
			return nil
		}
	}
	return stepkit.Errorf(stepkit.ErrAssertion, "Heading %s does not precede %s heading %s", before, tag, after)
}

// HeadingShouldPrecede passes when the unique heading before appears ahead
// of the unique heading after.
func (c *SequentialContext) HeadingShouldPrecede(ctx context.Context, before, after string) error {
	headings, err := c.headings(ctx)
	if err != nil {
		return err
	}

	first, second := -1, -1
	for i, heading := range headings {
		text := heading.Text()
		if text == before {
			if first >= 0 {
				return stepkit.Errorf(stepkit.ErrAmbiguous, "Found multiple instances of the header %s", before)
			}
			first = i
		}
		if text == after {
			if second >= 0 {
				return stepkit.Errorf(stepkit.ErrAmbiguous, "Found multiple instances of the header %s", after)
			}
			second = i
		}
	}

	if first < 0 {
		return stepkit.Errorf(stepkit.ErrNotFound, "Could not find the heading %s", before)
	}
	if second < 0 {
		return stepkit.Errorf(stepkit.ErrNotFound, "Could not find the heading %s", after)
	}
	if first < second {
		return nil
	}
	return stepkit.Errorf(stepkit.ErrAssertion, "Heading %s does not precede heading %s", before, after)
}

// TextShouldPrecede compares the first occurrences of both fragments in the
// page markup.
func (c *SequentialContext) TextShouldPrecede(ctx context.Context, before, after string) error {
	page, err := c.mink.Page(ctx)
	if err != nil {
		return err
	}
	markup := page.HTML()

	first := strings.Index(markup, before)
	if first < 0 {
		return stepkit.Errorf(stepkit.ErrNotFound, "Could not find %s", before)
	}
	second := strings.Index(markup, after)
	if second < 0 {
		return stepkit.Errorf(stepkit.ErrNotFound, "Could not find %s", after)
	}
	if first < second {
		return nil
	}
	return stepkit.Errorf(stepkit.ErrAssertion, "%s comes before %s", after, before)
}
