package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CrisisTextLine/stepkit"
)

const headingPage = `<html><body>
<h1>A</h1>
<p>first paragraph</p>
<h2>B</h2>
<h3>C</h3>
<h2>D</h2>
<h2>D</h2>
<p>second paragraph</p>
</body></html>`

func TestSequentialContext_Headings(t *testing.T) {
	mink, _ := newTestMink(t, "/", headingPage)
	c := NewSequentialContext(mink)
	ctx := t.Context()

	assert.NoError(t, c.HeadingShouldPrecede(ctx, "A", "C"))
	assert.EqualError(t, c.HeadingShouldPrecede(ctx, "C", "A"), "Heading C does not precede heading A")
	assert.ErrorIs(t, c.HeadingShouldPrecede(ctx, "A", "D"), stepkit.ErrAmbiguous)
	assert.EqualError(t, c.HeadingShouldPrecede(ctx, "A", "D"), "Found multiple instances of the header D")
	assert.EqualError(t, c.HeadingShouldPrecede(ctx, "X", "A"), "Could not find the heading X")
	assert.EqualError(t, c.HeadingShouldPrecede(ctx, "A", "X"), "Could not find the heading X")

	assert.NoError(t, c.HeadingShouldDirectlyPrecede(ctx, "A", "h2", "B"))
	assert.NoError(t, c.HeadingShouldDirectlyPrecede(ctx, "B", "h3", "C"))
	assert.EqualError(t, c.HeadingShouldDirectlyPrecede(ctx, "A", "h3", "C"), "Heading A does not precede h3 heading C")
	assert.EqualError(t, c.HeadingShouldDirectlyPrecede(ctx, "A", "h3", "B"), "Heading A does not precede h3 heading B")

	err := c.HeadingShouldDirectlyPrecede(ctx, "A", "p", "B")
	assert.ErrorIs(t, err, stepkit.ErrPrecondition)
	assert.EqualError(t, err, "p tag is not a valid heading")
}

func TestSequentialContext_Text(t *testing.T) {
	mink, _ := newTestMink(t, "/", headingPage)
	c := NewSequentialContext(mink)
	ctx := t.Context()

	assert.NoError(t, c.TextShouldPrecede(ctx, "first paragraph", "second paragraph"))
	assert.EqualError(t, c.TextShouldPrecede(ctx, "second paragraph", "first paragraph"),
		"first paragraph comes before second paragraph")
	assert.EqualError(t, c.TextShouldPrecede(ctx, "third", "first paragraph"), "Could not find third")
	assert.EqualError(t, c.TextShouldPrecede(ctx, "first paragraph", "third"), "Could not find third")
}
