package steps

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/cms"
	"github.com/CrisisTextLine/stepkit/cms/memcms"
)

func newTestNode(t *testing.T) (*NodeContext, *MinkContext, *memcms.Store) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><p id="path">%s</p></body></html>`, html.EscapeString(r.URL.Path))
	}))
	t.Cleanup(srv.Close)

	cfg := newTestConfig(t)
	cfg.BaseURL = srv.URL
	mink := NewMinkContext(newTestSession(t), cfg, nil)
	entity, store := newTestEntity(t)
	c := NewNodeContext(mink, entity)
	c.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }
	return c, mink, store
}

func TestNodeContext_CreateAndNavigate(t *testing.T) {
	c, mink, store := newTestNode(t)
	ctx := t.Context()

	require.NoError(t, c.content(ctx, "page", table([]string{"title", "body"}, []string{"About", "Who we are"})))
	node, err := c.LoadNodeByTitle(ctx, "About")
	require.NoError(t, err)
	assert.Equal(t, "page", node.String("type"))

	require.NoError(t, c.iAmViewing(ctx, "About"))
	assert.NoError(t, mink.AssertElementContainsText(ctx, "#path", "/node/"+node.ID))

	require.NoError(t, c.iEditContent(ctx, "About"))
	assert.NoError(t, mink.AssertElementContainsText(ctx, "#path", "/node/"+node.ID+"/edit"))

	require.NoError(t, c.theTitleOfNodeHasBeenChangedTo(ctx, "About", "About us"))
	renamed, err := store.Load(ctx, "node", node.ID)
	require.NoError(t, err)
	assert.Equal(t, "About us", renamed.String("title"))

	err = c.iAmViewing(ctx, "About")
	assert.ErrorIs(t, err, stepkit.ErrNotFound)
}

func TestNodeContext_RequiresTitle(t *testing.T) {
	c, _, _ := newTestNode(t)
	_, err := c.CreateNode(t.Context(), map[string]any{"type": "page"})
	assert.ErrorIs(t, err, stepkit.ErrPrecondition)
	assert.EqualError(t, err, "Nodes require a title")
}

func TestNodeContext_RelativeDates(t *testing.T) {
	c, _, store := newTestNode(t)
	ctx := t.Context()

	require.NoError(t, c.contentWithRelativeDate(ctx, "article", table(
		[]string{"title", "field_date", "published"},
		[]string{"Launch", "+1 day", "2024-01-01 00:00:00"},
	)))
	launch, err := c.LoadNodeByTitle(ctx, "Launch")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11 12:00:00", launch.String("field_date"))
	assert.Equal(t, "1704067200", launch.String("published"))

	require.NoError(t, c.multipleContentWithRelativeDate(ctx, 2, "article", table(
		[]string{"title", "field_date"},
		[]string{"Item %n", "-1 day"},
	)))
	for _, title := range []string{"Item 1", "Item 2"} {
		found, err := store.LoadByProperties(ctx, "node", cms.Eq("title", title), cms.Eq("type", "article"))
		require.NoError(t, err)
		require.Len(t, found, 1, title)
		assert.Equal(t, "2024-03-09 12:00:00", found[0].String("field_date"))
	}
}
