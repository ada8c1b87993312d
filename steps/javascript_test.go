package steps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/cms/memcms"
)

const scriptPage = `<html><body>
<form>
<textarea id="edit-body" name="body"></textarea>
<textarea name="summary"></textarea>
<input class="field" name="a"><input class="field" name="b">
</form>
<table>
<tr><td>Article one</td><td><div class="dropbutton-toggle"><button type="button">Open</button></div></td></tr>
<tr><td>Article two</td></tr>
</table>
</body></html>`

func newTestJavascript(t *testing.T, markup string, modules ...string) (*JavascriptContext, *scriptSession) {
	t.Helper()
	session := newScriptSession(t)
	mink := NewMinkContext(session, newTestConfig(t), nil)
	if markup != "" {
		require.NoError(t, session.LoadHTML(t.Context(), mink.LocatePath("/"), markup))
	}
	c := NewJavascriptContext(mink, newTestStore(t, memcms.WithModules(modules...)))
	return c, session
}

func TestJavascriptContext_Wysiwyg(t *testing.T) {
	c, session := newTestJavascript(t, scriptPage)
	ctx := t.Context()

	require.NoError(t, c.forWysiwygFieldIEnter(ctx, "body", `Hello "world"`))
	assert.Equal(t, []string{`CKEDITOR.instances["edit-body"].setData("Hello \"world\"");`}, session.scripts)

	err := c.forWysiwygFieldIEnter(ctx, "summary", "x")
	assert.ErrorIs(t, err, stepkit.ErrNotFound)
	assert.EqualError(t, err, "Could not find an id for field with locator: summary")
	assert.EqualError(t, c.forWysiwygFieldIEnter(ctx, "nope", "x"), "Could not find CKEditor with locator: nope")
}

func TestJavascriptContext_WysiwygWithMaxlength(t *testing.T) {
	c, session := newTestJavascript(t, scriptPage, "maxlength")
	var slept time.Duration
	c.sleep = func(d time.Duration) { slept += d }

	require.NoError(t, c.forWysiwygFieldIEnter(t.Context(), "edit-body", "Hi"))
	require.Len(t, session.scripts, 2)
	assert.Equal(t, `CKEDITOR.instances["edit-body"].fire("elementsPathUpdate");`, session.scripts[1])
	assert.Equal(t, 100*time.Millisecond, slept)
}

func TestJavascriptContext_Scripts(t *testing.T) {
	c, session := newTestJavascript(t, scriptPage)
	ctx := t.Context()

	require.NoError(t, c.iMoveTheMouse(ctx))
	require.NoError(t, c.browserFormValidationIsDisabled(ctx))
	require.NoError(t, c.iScrollIntoView(ctx, "#main .teaser"))

	assert.Equal(t, []string{
		"jQuery('body').trigger('mousemove')",
		disableValidationScript,
		`document.querySelector("#main .teaser").scrollIntoView()`,
	}, session.scripts)
}

func TestJavascriptContext_FindTableRow(t *testing.T) {
	c, _ := newTestJavascript(t, scriptPage)
	ctx := t.Context()
	page, err := c.mink.Page(ctx)
	require.NoError(t, err)

	row, err := c.FindTableRow(ctx, page.Root(), "Article one")
	require.NoError(t, err)
	assert.Contains(t, row.Text(), "Open")

	_, err = c.FindTableRow(ctx, page.Root(), "Article")
	assert.ErrorIs(t, err, stepkit.ErrAmbiguous)
	assert.EqualError(t, err, "Found multiple rows containing 'Article' on page http://site.test/")

	_, err = c.FindTableRow(ctx, page.Root(), "Page")
	assert.ErrorIs(t, err, stepkit.ErrNotFound)
	assert.EqualError(t, err, "Failed to find a row containing 'Page' on page http://site.test/")

	assert.EqualError(t, c.iExpandTheDropbuttonInTheRow(ctx, "Article two"),
		"Found a row containing 'Article two', but no dropbutton on page http://site.test/")

	empty, _ := newTestJavascript(t, `<html><body><p>No table</p></body></html>`)
	emptyPage, err := empty.mink.Page(ctx)
	require.NoError(t, err)
	_, err = empty.FindTableRow(ctx, emptyPage.Root(), "x")
	assert.EqualError(t, err, "No rows found on page http://site.test/")
}

func TestJavascriptContext_Focus(t *testing.T) {
	c, session := newTestJavascript(t, scriptPage)
	ctx := t.Context()

	calls := 0
	session.evaluate = func(script string, out any) error {
		calls++
		*out.(*bool) = calls == 2
		return nil
	}
	require.NoError(t, c.elementShouldHaveFocus(ctx, ".field"))
	assert.Equal(t, 2, calls)
	assert.Contains(t, session.scripts[0], "return document.activeElement === document.evaluate(")

	session.evaluate = func(string, any) error { return nil }
	assert.EqualError(t, c.elementShouldHaveFocus(ctx, ".field"), "Could not find any css element '.field' with focus")
	assert.EqualError(t, c.elementShouldHaveFocus(ctx, ".nope"), "No element with css locator '.nope' could be found")
}
