package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/sdoc/client"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "nested", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testTime(minute int) client.Time {
	return client.NewTime(time.Date(2024, 5, 1, 10, minute, 0, 0, time.UTC))
}

func TestDocuments(t *testing.T) {
	store := newTestStore(t)
	documents := []client.Document{
		{ID: 2, Title: "defi.md", Content: "Expected value of liquidity pools", IsProcessed: true, CreatedAt: testTime(1), UpdatedAt: testTime(2)},
		{ID: 1, Title: "notes.txt", Content: "Grocery list", CreatedAt: testTime(0), UpdatedAt: testTime(0)},
	}
	require.NoError(t, store.ReplaceDocuments(documents))

	cached, err := store.ListDocuments()
	require.NoError(t, err)
	require.Len(t, cached, 2)
	assert.Equal(t, documents[1], cached[0])
	assert.Equal(t, documents[0], cached[1])

	require.NoError(t, store.DeleteDocument(2))
	require.NoError(t, store.DeleteDocument(99))
	cached, err = store.ListDocuments()
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, int64(1), cached[0].ID)

	// Replacing with an empty list clears the cache.
	require.NoError(t, store.ReplaceDocuments(nil))
	cached, err = store.ListDocuments()
	require.NoError(t, err)
	assert.Empty(t, cached)
}

func TestSearchDocuments(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.ReplaceDocuments([]client.Document{
		{ID: 1, Title: "defi.md", Content: "Expected value of liquidity pools"},
		{ID: 2, Title: "ev.md", Content: "Expected value, again"},
		{ID: 3, Title: "notes.txt", Content: "Grocery list"},
	}))

	response, err := store.SearchDocuments(SearchDocumentsRequest{Query: "expected value", PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, response.TotalCount)
	assert.Equal(t, 2, response.PageCount)
	assert.Len(t, response.Documents, 1)

	response, err = store.SearchDocuments(SearchDocumentsRequest{Query: "grocery"})
	require.NoError(t, err)
	require.Len(t, response.Documents, 1)
	assert.Equal(t, "notes.txt", response.Documents[0].Title)

	response, err = store.SearchDocuments(SearchDocumentsRequest{Query: `value" OR`})
	require.NoError(t, err, "punctuation is quoted away")
	assert.Zero(t, response.TotalCount)

	response, err = store.SearchDocuments(SearchDocumentsRequest{Query: "  "})
	require.NoError(t, err)
	assert.Empty(t, response.Documents)

	require.NoError(t, store.DeleteDocument(3))
	response, err = store.SearchDocuments(SearchDocumentsRequest{Query: "grocery"})
	require.NoError(t, err)
	assert.Zero(t, response.TotalCount)
}

func TestConversations(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.ReplaceConversations([]client.Conversation{
		{ID: 5, Title: "latest", CreatedAt: testTime(5), UpdatedAt: testTime(5)},
		{ID: 3, CreatedAt: testTime(3), UpdatedAt: testTime(3)},
	}))
	require.NoError(t, store.PrependConversation(&client.Conversation{ID: 9, Title: "new", CreatedAt: testTime(9), UpdatedAt: testTime(9)}))

	conversations, err := store.ListConversations()
	require.NoError(t, err)
	require.Len(t, conversations, 3)
	assert.Equal(t, []int64{9, 5, 3}, []int64{conversations[0].ID, conversations[1].ID, conversations[2].ID})
	assert.Equal(t, "Untitled", conversations[2].DisplayTitle())
}

func TestMessages(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.ReplaceConversations([]client.Conversation{{ID: 3}}))
	messages := []client.Message{
		{ID: 10, ConversationID: 3, Role: client.RoleUser, Content: "q", CreatedAt: testTime(0)},
		{ID: 11, ConversationID: 3, Role: client.RoleAssistant, Content: "a", CreatedAt: testTime(1),
			Sources: client.Sources{{Content: "excerpt", Metadata: map[string]any{"doc_id": float64(1)}}}},
	}
	require.NoError(t, store.ReplaceMessages(3, messages))

	cached, err := store.GetMessages(3)
	require.NoError(t, err)
	assert.Equal(t, messages, cached)

	// Dropping the conversation from the list drops its messages.
	require.NoError(t, store.ReplaceConversations([]client.Conversation{{ID: 4}}))
	cached, err = store.GetMessages(3)
	require.NoError(t, err)
	assert.Empty(t, cached)
}
