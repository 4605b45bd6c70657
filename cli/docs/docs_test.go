package docs

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/sdoc/app"
	"github.com/malonaz/sdoc/client/clienttest"
	"github.com/malonaz/sdoc/internal/configuration"
	"github.com/malonaz/sdoc/internal/debug"
	"github.com/malonaz/sdoc/store"
)

func newTestApp(t *testing.T, cache bool) (*app.App, *clienttest.Server) {
	t.Helper()
	debug.SetOutput(io.Discard)

	server := clienttest.NewServer()
	t.Cleanup(server.Close)

	config, err := configuration.Default()
	require.NoError(t, err)
	dir := t.TempDir()
	config.APIHost = server.URL
	config.Cache.Enabled = cache
	config.Cache.Path = filepath.Join(dir, "cache.db")
	config.Chat.HistoryPath = filepath.Join(dir, "history")

	a := &app.App{}
	require.NoError(t, a.Wire(config))
	t.Cleanup(func() { a.Close() })
	return a, server
}

func execute(a *app.App, stdin io.Reader, args ...string) error {
	cmd := NewCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	return cmd.ExecuteContext(context.Background())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestUpload(t *testing.T) {
	a, server := newTestApp(t, false)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
	writeFile(t, filepath.Join(dir, "b.md"), "# beta")
	writeFile(t, filepath.Join(dir, "c.pdf"), "%PDF")
	writeFile(t, filepath.Join(dir, "nested", "d.json"), `{"delta": true}`)

	t.Run("directory uploads its allowed files", func(t *testing.T) {
		require.NoError(t, execute(a, nil, "upload", dir))
		assert.Len(t, server.Documents(), 2)
	})

	t.Run("recursive", func(t *testing.T) {
		require.NoError(t, execute(a, nil, "upload", filepath.Join(dir, "nested")+"/..."))
		assert.Len(t, server.Documents(), 3)
	})

	t.Run("extensions outside the configured ones are rejected", func(t *testing.T) {
		err := execute(a, nil, "upload", "--ext", ".pdf", filepath.Join(dir, "c.pdf"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 1 uploads failed")
		assert.Len(t, server.Documents(), 3)
	})

	t.Run("no matching files", func(t *testing.T) {
		require.Error(t, execute(a, nil, "upload", filepath.Join(dir, "c.pdf")))
	})
}

func TestCreate(t *testing.T) {
	a, server := newTestApp(t, false)

	require.NoError(t, execute(a, nil, "create", "--title", "Notes", "--content", "Some text"))
	require.NoError(t, execute(a, strings.NewReader("From stdin"), "create", "-t", "Piped", "-f", "-"))
	require.Error(t, execute(a, nil, "create", "--title", "Blank", "--content", "   "))

	documents := server.Documents()
	require.Len(t, documents, 2)
	assert.Equal(t, "Notes", documents[0].Title)
	assert.Equal(t, "From stdin", documents[1].Content)

	require.NoError(t, execute(a, nil, "list"))
	assert.Len(t, a.State.Snapshot().Documents, 2)
}

func TestDeleteAndProcess(t *testing.T) {
	a, server := newTestApp(t, false)
	first := server.AddDocument("first", "one", false)
	second := server.AddDocument("second", "two", false)

	require.NoError(t, execute(a, nil, "process", strconv.FormatInt(first.ID, 10)))
	assert.True(t, server.Documents()[0].IsProcessed)

	require.NoError(t, execute(a, nil, "delete", "--yes", strconv.FormatInt(second.ID, 10)))
	require.Len(t, server.Documents(), 1)
	assert.Equal(t, first.ID, server.Documents()[0].ID)

	require.Error(t, execute(a, nil, "delete", "--yes", "abc"))
	require.Error(t, execute(a, nil, "process", "999"))
}

func TestShow(t *testing.T) {
	a, server := newTestApp(t, false)
	document := server.AddDocument("doc", "first paragraph\n\nsecond paragraph", true)

	require.NoError(t, execute(a, nil, "show", "--chunks", strconv.FormatInt(document.ID, 10)))
	require.Error(t, execute(a, nil, "show", "0"))
	require.Error(t, execute(a, nil, "show", "42"))
}

func TestSearch(t *testing.T) {
	t.Run("local search refreshes the cache first", func(t *testing.T) {
		a, server := newTestApp(t, true)
		server.AddDocument("Gardening", "tomatoes need sun", true)
		server.AddDocument("Cooking", "pasta and tomatoes", true)
		server.AddDocument("Sailing", "wind and waves", true)

		require.NoError(t, execute(a, nil, "search", "tomatoes"))
		response, err := a.Cache.SearchDocuments(store.SearchDocumentsRequest{Query: "tomatoes"})
		require.NoError(t, err)
		assert.Equal(t, 2, response.TotalCount)
	})

	t.Run("local search falls back to the cache", func(t *testing.T) {
		a, server := newTestApp(t, true)
		server.AddDocument("Gardening", "tomatoes need sun", true)
		require.NoError(t, execute(a, nil, "list"))

		server.Fail("GET /documents", http.StatusServiceUnavailable)
		require.NoError(t, execute(a, nil, "search", "tomatoes"))
	})

	t.Run("local search needs the cache", func(t *testing.T) {
		a, _ := newTestApp(t, false)
		require.Error(t, execute(a, nil, "search", "tomatoes"))
	})

	t.Run("remote", func(t *testing.T) {
		a, server := newTestApp(t, false)
		server.AddDocument("Gardening", "tomatoes need sun", true)
		require.NoError(t, execute(a, nil, "search", "--remote", "tomatoes"))
		assert.Equal(t, 1, server.Requests("GET /search"))
	})
}
