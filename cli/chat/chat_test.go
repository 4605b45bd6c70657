package chat

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/sdoc/app"
	"github.com/malonaz/sdoc/client/clienttest"
	"github.com/malonaz/sdoc/internal/configuration"
	"github.com/malonaz/sdoc/internal/debug"
)

func newTestApp(t *testing.T) (*app.App, *clienttest.Server) {
	t.Helper()
	debug.SetOutput(io.Discard)

	server := clienttest.NewServer()
	t.Cleanup(server.Close)

	config, err := configuration.Default()
	require.NoError(t, err)
	config.APIHost = server.URL
	config.Cache.Enabled = false
	config.Chat.HistoryPath = filepath.Join(t.TempDir(), "history")

	a := &app.App{}
	require.NoError(t, a.Wire(config))
	return a, server
}

func execute(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

func TestAsk(t *testing.T) {
	t.Run("creates a conversation titled with the question", func(t *testing.T) {
		a, server := newTestApp(t)
		require.NoError(t, execute(NewAskCmd(a), "--raw", "what", "is", "sdoc?"))

		conversations := server.Conversations()
		require.Len(t, conversations, 1)
		assert.Equal(t, "what is sdoc?", conversations[0].Title)
		assert.Len(t, a.State.Snapshot().Messages, 2)
	})

	t.Run("continues the latest conversation", func(t *testing.T) {
		a, server := newTestApp(t)
		server.AddConversation("older", "q", "a")
		latest := server.AddConversation("latest", "q", "a")

		require.NoError(t, execute(NewAskCmd(a), "--continue", "follow up"))
		assert.Len(t, server.Conversations(), 2)
		snapshot := a.State.Snapshot()
		require.NotNil(t, snapshot.Current)
		assert.Equal(t, latest.ID, snapshot.Current.ID)
		assert.Len(t, snapshot.Messages, 4)
	})

	t.Run("continues a given conversation", func(t *testing.T) {
		a, server := newTestApp(t)
		older := server.AddConversation("older", "q", "a")
		server.AddConversation("latest", "q", "a")

		require.NoError(t, execute(NewAskCmd(a), "-c", strconv.FormatInt(older.ID, 10), "follow up"))
		assert.Equal(t, older.ID, a.State.Snapshot().Current.ID)
	})

	t.Run("nothing to continue", func(t *testing.T) {
		a, _ := newTestApp(t)
		require.Error(t, execute(NewAskCmd(a), "--continue", "follow up"))
	})

	t.Run("api failure", func(t *testing.T) {
		a, server := newTestApp(t)
		server.Fail("POST /qa", http.StatusInternalServerError)
		require.Error(t, execute(NewAskCmd(a), "question"))
		assert.Empty(t, a.State.Snapshot().Messages)
	})
}

func TestListAndShow(t *testing.T) {
	a, server := newTestApp(t)
	conversation := server.AddConversation("", "question", "**answer**")

	require.NoError(t, execute(NewCmd(a), "list"))
	assert.Len(t, a.State.Snapshot().Conversations, 1)

	require.NoError(t, execute(NewCmd(a), "show", strconv.FormatInt(conversation.ID, 10)))
	assert.Len(t, a.State.Snapshot().Messages, 2)

	require.Error(t, execute(NewCmd(a), "show", "x"))
	require.Error(t, execute(NewCmd(a), "show", "404"))
}
