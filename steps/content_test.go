package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/cms"
	"github.com/CrisisTextLine/stepkit/cms/memcms"
)

func TestMediaContext_Media(t *testing.T) {
	entity, store := newTestEntity(t)
	c := NewMediaContext(entity)
	ctx := t.Context()

	require.NoError(t, c.media(ctx, "image", table([]string{"name"}, []string{"Logo"})))
	found, err := store.LoadByProperties(ctx, "media", cms.Eq("name", "Logo"))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "image", found[0].String("bundle"))
	assert.Equal(t, 1, entity.Ledger().Len())
}

func TestMenuContext_MenuItems(t *testing.T) {
	entity, store := newTestEntity(t)
	c := NewMenuContext(entity)
	ctx := t.Context()

	require.NoError(t, c.MenuItems(ctx, "main", table(
		[]string{"title", "uri"},
		[]string{"Home", "internal:/"},
	)))
	require.NoError(t, c.MenuItems(ctx, "main", table(
		[]string{"title", "uri", "parent"},
		[]string{"News", "internal:/news", "Home"},
		[]string{"Orphan", "internal:/orphan", "Missing"},
	)))

	home, err := store.LoadByProperties(ctx, menuLinkType, cms.Eq("title", "Home"))
	require.NoError(t, err)
	require.Len(t, home, 1)
	assert.Equal(t, "internal:/", home[0].String("link"))
	assert.Equal(t, true, home[0].Fields["expanded"])
	assert.Equal(t, "main", home[0].String("menu_name"))

	news, err := store.LoadByProperties(ctx, menuLinkType, cms.Eq("title", "News"))
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, menuLinkType+":"+home[0].UUID, news[0].String("parent"))

	orphan, err := store.LoadByProperties(ctx, menuLinkType, cms.Eq("title", "Orphan"))
	require.NoError(t, err)
	require.Len(t, orphan, 1)
	_, ok := orphan[0].Get("parent")
	assert.False(t, ok)
}

func TestParagraphsContext_HasParagraphs(t *testing.T) {
	entity, store := newTestEntity(t)
	c := NewParagraphsContext(entity)
	ctx := t.Context()

	host, err := store.CreateNode(ctx, map[string]any{"type": "page", "title": "Host"})
	require.NoError(t, err)

	require.NoError(t, c.HasParagraphs(ctx, "node", "title", "Host", "field_paragraphs", table(
		[]string{"type", "field_text"},
		[]string{"text", "First"},
		[]string{"text", "Second"},
	)))
	require.NoError(t, c.HasParagraphs(ctx, "node", "title", "Host", "field_paragraphs", table(
		[]string{"type", "field_text"},
		[]string{"text", "Third"},
	)))

	host, err = store.Load(ctx, "node", host.ID)
	require.NoError(t, err)
	ids := cms.Values(host.Fields["field_paragraphs"])
	require.Len(t, ids, 3)
	third, err := store.Load(ctx, "paragraph", ids[2].(string))
	require.NoError(t, err)
	assert.Equal(t, "Third", third.String("field_text"))
	assert.Equal(t, 3, entity.Ledger().Len())

	err = c.HasParagraphs(ctx, "node", "title", "Nobody", "field_paragraphs", table([]string{"type"}, []string{"text"}))
	assert.ErrorIs(t, err, stepkit.ErrNotFound)
}

func TestProfileContext_CreateProfiles(t *testing.T) {
	entity, store := newTestEntity(t)
	c := NewProfileContext(entity)
	ctx := t.Context()

	jane, err := store.CreateUser(ctx, map[string]any{"name": "jane"})
	require.NoError(t, err)

	require.NoError(t, c.CreateProfiles(ctx, "main", table([]string{"user", "field_bio"}, []string{"jane", "Hi"})))
	profiles, err := store.LoadByProperties(ctx, "profile", cms.Eq("uid", jane.ID))
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "main", profiles[0].String("type"))
	assert.Equal(t, "Hi", profiles[0].String("field_bio"))
	_, hasUser := profiles[0].Get("user")
	assert.False(t, hasUser)

	err = c.CreateProfiles(ctx, "main", table([]string{"field_bio"}, []string{"Hi"}))
	assert.ErrorIs(t, err, stepkit.ErrPrecondition)
	assert.EqualError(t, err, "No user provided")

	err = c.CreateProfiles(ctx, "main", table([]string{"user"}, []string{"ghost"}))
	assert.ErrorIs(t, err, stepkit.ErrNotFound)
}

func TestEntityQueueContext(t *testing.T) {
	entity, store := newTestEntity(t, memcms.WithQueues("featured"))
	c := NewEntityQueueContext(entity, store)
	ctx := t.Context()

	require.NoError(t, c.BeforeFeature(ctx, "queue.feature"))

	first, err := store.CreateNode(ctx, map[string]any{"type": "article", "title": "First"})
	require.NoError(t, err)
	second, err := store.CreateNode(ctx, map[string]any{"type": "article", "title": "Second"})
	require.NoError(t, err)

	require.NoError(t, c.IsAddedToTheQueue(ctx, "First", "featured"))
	require.NoError(t, c.IsAddedToTheQueue(ctx, "Second", "featured"))
	items, err := store.QueueItems(ctx, "featured")
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID}, items)

	require.NoError(t, c.TheQueueIsEmpty(ctx, "featured"))
	items, err = store.QueueItems(ctx, "featured")
	require.NoError(t, err)
	assert.Empty(t, items)

	err = c.TheQueueIsEmpty(ctx, "sidebar")
	assert.ErrorIs(t, err, stepkit.ErrNotFound)
	assert.EqualError(t, err, "Unknown queue: sidebar")
	assert.EqualError(t, c.IsAddedToTheQueue(ctx, "First", "sidebar"), "Unknown queue: sidebar")

	withoutModule := NewEntityQueueContext(entity, newTestStore(t, memcms.WithModules("node")))
	err = withoutModule.BeforeFeature(ctx, "queue.feature")
	assert.ErrorIs(t, err, stepkit.ErrPrecondition)
	assert.EqualError(t, err, "EntityQueueContext does not work without the entity queue module")
}

func TestSearchContext(t *testing.T) {
	store := newTestStore(t)
	c := NewSearchContext(store, nil)
	ctx := t.Context()

	_, err := store.CreateNode(ctx, map[string]any{"type": "page", "title": "Hello search"})
	require.NoError(t, err)

	require.NoError(t, c.BeforeFeature(ctx, "search.feature"))
	require.NoError(t, c.AllContentIsIndexed(ctx))
	hits, err := store.Search(ctx, "hello")
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	disabled := NewSearchContext(newTestStore(t, memcms.WithModules("node")), nil)
	assert.EqualError(t, disabled.BeforeFeature(ctx, "search.feature"), "Search api must be enabled to be able to index items")
	assert.ErrorIs(t, disabled.AllContentIsIndexed(ctx), stepkit.ErrPrecondition)
}

func TestModuleContext(t *testing.T) {
	c := NewModuleContext(newTestStore(t, memcms.WithModules("node", "media")))
	ctx := t.Context()

	assert.NoError(t, c.TheFollowingModulesAreDisabled(ctx, table([]string{"module"}, []string{"views"}, []string{"search_api"})))
	assert.EqualError(t, c.TheFollowingModulesAreDisabled(ctx, table([]string{"module"}, []string{"views"}, []string{"media"})),
		"Module media is enabled while it should not be")
	assert.EqualError(t, c.TheFollowingModulesAreDisabled(ctx, table([]string{"name"}, []string{"views"})),
		"Module names must be listed in a column called `module`")
}
