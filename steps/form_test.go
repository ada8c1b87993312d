package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkboxPage = `<html><body><form>
<label><input type="checkbox" name="locked" disabled> Locked</label>
<label><input type="checkbox" name="open"> Open</label>
<label for="edit-title">Title</label><input id="edit-title" name="title" value="Draft">
</form></body></html>`

func TestFormContext_Checkboxes(t *testing.T) {
	mink, _ := newTestMink(t, "/", checkboxPage)
	c := NewFormContext(mink)
	ctx := t.Context()

	assert.NoError(t, c.AssertCheckboxDisabled(ctx, "Locked"))
	assert.EqualError(t, c.AssertCheckboxEnabled(ctx, "Locked"), "The Locked checkbox is not enabled")

	assert.NoError(t, c.AssertCheckboxEnabled(ctx, "Open"))
	assert.EqualError(t, c.AssertCheckboxDisabled(ctx, "Open"), "The Open checkbox is not disabled")

	assert.EqualError(t, c.AssertCheckboxDisabled(ctx, "Title"), "No Title checkbox could be found")
}

func TestFormContext_EmptyField(t *testing.T) {
	mink, _ := newTestMink(t, "/", checkboxPage)
	c := NewFormContext(mink)
	ctx := t.Context()

	require.NoError(t, c.iEmptyTheField(ctx, "Title"))
	assert.NoError(t, mink.theFieldShouldContain(ctx, "Title", ""))
}
