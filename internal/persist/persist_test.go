package persist

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/deckflow/internal/deck"
)

func testRecord(cursor int, ids ...string) *Record {
	items := make([]deck.Card, len(ids))
	for i, id := range ids {
		items[i] = deck.Card{
			ID:         id,
			OwnerID:    "owner-" + id,
			Category:   "bikes",
			TargetType: "listing",
			MediaURLs:  []string{"https://img.example.com/" + id + ".jpg"},
		}
	}
	state := deck.State{
		Items:      items,
		Cursor:     cursor,
		DecidedIDs: map[string]struct{}{"done-1": {}},
		Ready:      true,
	}
	return FromState(state)
}

func openTestDurable(t *testing.T) *DurableStore {
	t.Helper()
	store, err := OpenDurable(DefaultDurableConfig(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordRoundTrip(t *testing.T) {
	record := testRecord(2, "a", "b", "c")

	data, err := Marshal(record)
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)

	state := decoded.State()
	assert.Len(t, state.Items, 3)
	assert.Equal(t, 2, state.Cursor)
	assert.Contains(t, state.DecidedIDs, "done-1")
	assert.True(t, state.Ready)
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store := NewSessionStore()
	key := deck.Key{Role: "buyer", Category: "bikes"}.String()

	_, found, err := store.Load(key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save(key, testRecord(1, "a", "b")))

	record, found, err := store.Load(key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, record.Cursor)

	require.NoError(t, store.Delete(key))
	_, found, err = store.Load(key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDurableStoreRoundTrip(t *testing.T) {
	store := openTestDurable(t)
	key := "deck:buyer:bikes"

	require.NoError(t, store.Save(key, testRecord(0, "a")))

	// Overwrite on the same key.
	require.NoError(t, store.Save(key, testRecord(1, "a", "b")))

	record, found, err := store.Load(key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, record.Cursor)
	assert.Len(t, record.Items, 2)

	all, err := store.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, store.Delete(key))
	_, found, err = store.Load(key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFacadePrecedence(t *testing.T) {
	session := NewSessionStore()
	durable := openTestDurable(t)
	facade := NewFacade(session, durable)
	key := "deck:buyer:bikes"

	// Nothing anywhere.
	record, source, err := facade.Rehydrate(key)
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.Equal(t, SourceNone, source)

	// Durable only: a cross-session return.
	require.NoError(t, durable.Save(key, testRecord(2, "a", "b", "c")))
	record, source, err = facade.Rehydrate(key)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, SourceDurable, source)

	// A save goes to both tiers; session wins afterwards.
	require.NoError(t, facade.Save(key, testRecord(3, "a", "b", "c", "d")))
	record, source, err = facade.Rehydrate(key)
	require.NoError(t, err)
	assert.Equal(t, SourceSession, source)
	assert.Equal(t, 3, record.Cursor)

	fromDurable, found, err := durable.Load(key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 3, fromDurable.Cursor)
}

func TestFacadeSessionOnly(t *testing.T) {
	facade := NewFacade(NewSessionStore(), nil)
	key := "deck:buyer:bikes"

	require.NoError(t, facade.Save(key, testRecord(0, "a")))
	record, source, err := facade.Rehydrate(key)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, SourceSession, source)
}

func TestSnapshotExportImport(t *testing.T) {
	src := NewSessionStore()
	require.NoError(t, src.Save("deck:buyer:bikes", testRecord(1, "a", "b")))
	require.NoError(t, src.Save("deck:seller:books", testRecord(0, "c")))

	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, ExportSnapshot(src, path, ""))

	dst := NewSessionStore()
	n, err := ImportSnapshot(dst, path, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	record, found, err := dst.Load("deck:buyer:bikes")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, record.Cursor)
}

func TestSnapshotEncrypted(t *testing.T) {
	src := NewSessionStore()
	require.NoError(t, src.Save("deck:buyer:bikes", testRecord(1, "a")))

	path := filepath.Join(t.TempDir(), "snapshot.enc")
	require.NoError(t, ExportSnapshot(src, path, "hunter2"))

	dst := NewSessionStore()

	// Wrong password must fail without importing anything.
	_, err := ImportSnapshot(dst, path, "wrong")
	require.Error(t, err)

	// Missing password must be rejected up front.
	_, err = ImportSnapshot(dst, path, "")
	require.Error(t, err)

	n, err := ImportSnapshot(dst, path, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
