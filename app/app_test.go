package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/sdoc/client/clienttest"
	"github.com/malonaz/sdoc/internal/configuration"
	"github.com/malonaz/sdoc/internal/debug"
)

func testConfig(t *testing.T, server *clienttest.Server, dir string) *configuration.Config {
	t.Helper()
	config, err := configuration.Default()
	require.NoError(t, err)
	config.APIHost = server.URL
	config.Cache.Path = filepath.Join(dir, "cache.db")
	config.Chat.HistoryPath = filepath.Join(dir, "history")
	return config
}

func TestWire_WithoutCache(t *testing.T) {
	debug.SetOutput(io.Discard)
	server := clienttest.NewServer()
	defer server.Close()
	server.AddDocument("doc", "content", true)

	config := testConfig(t, server, t.TempDir())
	config.Cache.Enabled = false
	a := &App{}
	require.NoError(t, a.Wire(config))
	defer a.Close()

	assert.Nil(t, a.Cache)
	require.NoError(t, a.State.Refresh(context.Background()))
	assert.Len(t, a.State.Snapshot().Documents, 1)

	status, err := a.Client.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy())
}

func TestWire_HydratesFromCache(t *testing.T) {
	debug.SetOutput(io.Discard)
	server := clienttest.NewServer()
	defer server.Close()
	server.AddDocument("doc", "content", true)
	server.AddConversation("chat", "q", "a")
	dir := t.TempDir()

	first := &App{}
	require.NoError(t, first.Wire(testConfig(t, server, dir)))
	require.NotNil(t, first.Cache)
	require.NoError(t, first.State.Refresh(context.Background()))
	require.NoError(t, first.Close())

	// A second process sees the last snapshot before reaching the network.
	second := &App{}
	require.NoError(t, second.Wire(testConfig(t, server, dir)))
	defer second.Close()
	snapshot := second.State.Snapshot()
	require.Len(t, snapshot.Documents, 1)
	assert.Equal(t, "doc", snapshot.Documents[0].Title)
	require.Len(t, snapshot.Conversations, 1)
	assert.Equal(t, "chat", snapshot.Conversations[0].DisplayTitle())
}
