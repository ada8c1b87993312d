package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/cms"
	"github.com/CrisisTextLine/stepkit/cms/memcms"
)

// failingStore refuses to delete entities of one type.
type failingStore struct {
	*memcms.Store
	failType string
}

func (f *failingStore) Delete(ctx context.Context, entityType, id string) error {
	if entityType == f.failType {
		return errors.New("storage offline")
	}
	return f.Store.Delete(ctx, entityType, id)
}

func TestEntityContext_GenericCreateIsCleanedUp(t *testing.T) {
	store := newTestStore(t)
	events := &recordingEmitter{}
	c := NewEntityContext(store, false, nil, events)
	ctx := t.Context()

	id, err := c.CreateEntity(ctx, "media", map[string]any{"bundle": "image", "name": "Logo"})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Ledger().Len())

	media, err := c.EntityLoad(ctx, "media", id)
	require.NoError(t, err)
	assert.Equal(t, "Logo", media.String("name"))

	require.NoError(t, c.AfterScenario(ctx, nil, nil))
	assert.Zero(t, c.Ledger().Len())
	_, err = store.Load(ctx, "media", id)
	assert.ErrorIs(t, err, cms.ErrEntityNotFound)

	assert.Equal(t, []string{
		stepkit.EventTypeEntityCreated,
		stepkit.EventTypeEntityDeleted,
		stepkit.EventTypeLedgerCleaned,
	}, events.types())
}

func TestEntityContext_ShortcutTracking(t *testing.T) {
	ctx := t.Context()

	c, store := newTestEntity(t)
	nid, err := c.CreateEntity(ctx, "node", map[string]any{"type": "page", "title": "Kept"})
	require.NoError(t, err)
	_, err = c.CreateEntity(ctx, "comment", map[string]any{"subject": "Hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Ledger().Len())
	assert.Len(t, c.Ledger().Entities("comment"), 1)

	require.NoError(t, c.Cleanup(ctx))
	_, err = store.Load(ctx, "node", nid)
	assert.NoError(t, err, "untracked shortcut entities survive cleanup")

	tracking := NewEntityContext(store, true, nil, nil)
	nid, err = tracking.CreateEntity(ctx, "node", map[string]any{"type": "page", "title": "Tracked"})
	require.NoError(t, err)
	_, err = tracking.CreateEntity(ctx, "user", map[string]any{"name": "jane"})
	require.NoError(t, err)
	_, err = tracking.CreateEntity(ctx, "taxonomy_term", map[string]any{"vid": "tags", "name": "Go"})
	require.NoError(t, err)
	assert.Equal(t, 3, tracking.Ledger().Len())

	require.NoError(t, tracking.Cleanup(ctx))
	_, err = store.Load(ctx, "node", nid)
	assert.ErrorIs(t, err, cms.ErrEntityNotFound)
}

func TestEntityContext_CleanupErrors(t *testing.T) {
	store := &failingStore{Store: newTestStore(t), failType: "paragraph"}
	c := NewEntityContext(store, false, nil, nil)
	ctx := t.Context()

	pid, err := c.CreateEntity(ctx, "paragraph", map[string]any{"type": "text"})
	require.NoError(t, err)
	mid, err := c.CreateEntity(ctx, "media", map[string]any{"bundle": "image", "name": "Gone"})
	require.NoError(t, err)
	gid, err := c.CreateEntity(ctx, "media", map[string]any{"bundle": "image", "name": "Deleted by step"})
	require.NoError(t, err)
	require.NoError(t, store.Store.Delete(ctx, "media", gid))

	err = c.Cleanup(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete paragraph "+pid+": storage offline")
	assert.Zero(t, c.Ledger().Len())

	_, err = store.Load(ctx, "media", mid)
	assert.ErrorIs(t, err, cms.ErrEntityNotFound)
	assert.NoError(t, c.Cleanup(ctx))
}

func TestEntityContext_CreateInvalidType(t *testing.T) {
	c, _ := newTestEntity(t)
	_, err := c.CreateEntity(t.Context(), "widget", map[string]any{})
	assert.ErrorIs(t, err, stepkit.ErrPrecondition)
	assert.EqualError(t, err, "widget is not a valid Entity type.")
	assert.Zero(t, c.Ledger().Len())
}

func TestEntityContext_Find(t *testing.T) {
	c, _ := newTestEntity(t)
	ctx := t.Context()
	for _, title := range []string{"Unique", "Dup", "Dup"} {
		_, err := c.CreateEntity(ctx, "node", map[string]any{"type": "page", "title": title})
		require.NoError(t, err)
	}

	id, err := c.FindEntityWithFieldValue(ctx, "node", "title", "Unique")
	require.NoError(t, err)
	assert.Equal(t, "1", id)

	_, err = c.FindEntityWithFieldValue(ctx, "node", "title", "Missing")
	assert.ErrorIs(t, err, stepkit.ErrNotFound)
	assert.EqualError(t, err, "No node with field 'title' containing 'Missing' could be found")

	_, err = c.FindEntityWithFieldValue(ctx, "node", "title", "Dup")
	assert.ErrorIs(t, err, stepkit.ErrAmbiguous)
	assert.EqualError(t, err, "Found multiple nodes with field 'title' containing 'Dup'")

	id, err = c.FindEntityWithFieldValues(ctx, "node", map[string]any{"title": "Dup", "nid": "3"})
	require.NoError(t, err)
	assert.Equal(t, "3", id)

	_, err = c.FindEntityWithFieldValues(ctx, "node", map[string]any{"type": "page", "title": "Dup"})
	assert.EqualError(t, err, "Multiple nodes exist with the following combination of field values: \ntitle: Dup \ntype: page \n")

	_, err = c.FindEntityWithFieldValues(ctx, "node", map[string]any{"type": "article", "title": "Dup"})
	assert.ErrorIs(t, err, stepkit.ErrNotFound)
	assert.EqualError(t, err, "No node exists with the following combination of field values: \ntitle: Dup \ntype: article \n")

	_, err = c.EntityLoad(ctx, "node", "99")
	assert.ErrorIs(t, err, stepkit.ErrNotFound)
	assert.ErrorIs(t, err, cms.ErrEntityNotFound)
}

func TestEntityContext_SetFieldAndLabelByUUID(t *testing.T) {
	c, store := newTestEntity(t)
	ctx := t.Context()

	tid, err := c.CreateEntity(ctx, "taxonomy_term", map[string]any{"vid": "tags", "name": "Go"})
	require.NoError(t, err)
	nid, err := c.CreateEntity(ctx, "node", map[string]any{"type": "article", "title": "Post", "body": "Text"})
	require.NoError(t, err)
	node, err := store.Load(ctx, "node", nid)
	require.NoError(t, err)

	require.NoError(t, c.entityHasFieldWithValue(ctx, "node", node.UUID, "field_tags", "Go"))
	node, err = store.Load(ctx, "node", nid)
	require.NoError(t, err)
	assert.Equal(t, tid, node.String("field_tags"))

	require.NoError(t, c.entityHasEmptyField(ctx, "node", node.UUID, "body"))
	node, err = store.Load(ctx, "node", nid)
	require.NoError(t, err)
	_, ok := node.Get("body")
	assert.False(t, ok)

	require.NoError(t, c.SetLabelByUUID(ctx, "node", node.UUID, "Renamed"))
	node, err = store.Load(ctx, "node", nid)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", node.String("title"))

	err = c.entityHasFieldWithValue(ctx, "node", "no-such-uuid", "body", "x")
	assert.ErrorIs(t, err, stepkit.ErrNotFound)
	assert.EqualError(t, err, "No node with uuid no-such-uuid could be found")

	file, err := store.SaveFile(ctx, []byte("x"), "public://a.txt")
	require.NoError(t, err)
	assert.EqualError(t, c.entityHasEmptyField(ctx, "file", file.UUID, "filename"),
		"file with uuid "+file.UUID+" can not have fields")
	assert.EqualError(t, c.SetLabelByUUID(ctx, "file", file.UUID, "b.txt"),
		"file with uuid "+file.UUID+" can not have a label")
}

func TestEntityContext_TableSteps(t *testing.T) {
	c, store := newTestEntity(t)
	ctx := t.Context()

	require.NoError(t, c.entities(ctx, "image", "media", table(
		[]string{"name"},
		[]string{"Logo"},
		[]string{"Banner"},
	)))
	found, err := store.LoadByProperties(ctx, "media", cms.Eq("bundle", "image"))
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, 2, c.Ledger().Len())

	require.NoError(t, c.users(ctx, table([]string{"name", "mail"}, []string{"jane", "jane@site.test"})))
	users, err := store.LoadByProperties(ctx, "user", cms.Eq("name", "jane"))
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "jane@site.test", users[0].String("mail"))

	assert.ErrorIs(t, c.entities(ctx, "x", "widget", table([]string{"name"}, []string{"a"})), stepkit.ErrPrecondition)
	assert.Error(t, c.users(ctx, table([]string{"name", "mail"}, []string{"only one cell"})))
}
