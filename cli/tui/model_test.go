package tui

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/sdoc/cli/tui/viewer"
	"github.com/malonaz/sdoc/client/clienttest"
	"github.com/malonaz/sdoc/internal/configuration"
	"github.com/malonaz/sdoc/internal/debug"
	"github.com/malonaz/sdoc/state"
)

func newTestModel(t *testing.T) (*Model, *clienttest.Server) {
	t.Helper()
	debug.SetOutput(io.Discard)

	server := clienttest.NewServer()
	t.Cleanup(server.Close)

	config, err := configuration.Default()
	require.NoError(t, err)
	config.Chat.HistoryPath = filepath.Join(t.TempDir(), "history")

	store := state.New(server.Client())
	m, err := New(context.Background(), config, store)
	require.NoError(t, err)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, server
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	m.Update(cmd())
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestView_EmptyState(t *testing.T) {
	m, _ := newTestModel(t)
	run(t, m, m.refresh())

	view := m.View()
	assert.Contains(t, view, "Local Smart Doc")
	assert.Contains(t, view, "History")
	assert.Contains(t, view, "No conversations.")

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, state.TabDocuments, m.snapshot.Tab)
	assert.Equal(t, FocusDocuments, m.focus)
	view = m.View()
	assert.Contains(t, view, "Add Document")
	assert.Contains(t, view, "No documents yet.")
}

func TestSend_CreatesConversation(t *testing.T) {
	m, server := newTestModel(t)
	run(t, m, m.refresh())

	m.textarea.SetValue("  what is sdoc?  ")
	cmd := m.send()
	assert.Equal(t, "what is sdoc?", m.pendingQuestion)
	assert.Empty(t, m.textarea.Value())
	assert.Contains(t, m.View(), "Thinking...")

	run(t, m, cmd)
	assert.Empty(t, m.pendingQuestion)
	require.Len(t, m.snapshot.Messages, 2)
	assert.Equal(t, "what is sdoc?", m.snapshot.Messages[0].Content)
	require.NotNil(t, m.snapshot.Current)
	assert.Len(t, server.Conversations(), 1)
	assert.Equal(t, 1, m.history.Len())
	assert.Contains(t, m.View(), "what is sdoc?")

	// Blank questions are ignored.
	m.textarea.SetValue("   ")
	assert.Nil(t, m.send())
}

func TestSend_FailureRestoresQuestion(t *testing.T) {
	m, server := newTestModel(t)
	server.Fail("POST /qa", http.StatusInternalServerError)

	m.textarea.SetValue("hello")
	run(t, m, m.send())
	assert.Equal(t, "hello", m.textarea.Value())
	assert.Empty(t, m.snapshot.Messages)
	assert.False(t, m.snapshot.Loading)
}

func TestHistory_SelectConversation(t *testing.T) {
	m, server := newTestModel(t)
	server.AddConversation("first", "q1", "a1")
	second := server.AddConversation("", "q2", "a2", "q3", "a3")
	run(t, m, m.refresh())

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, FocusHistory, m.focus)
	assert.Contains(t, m.View(), "Untitled")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m.Update(m.selectConversation(second.ID)())
	require.NotNil(t, m.snapshot.Current)
	assert.Equal(t, second.ID, m.snapshot.Current.ID)
	assert.Len(t, m.snapshot.Messages, 4)

	m.Update(keyRunes("n"))
	assert.Nil(t, m.snapshot.Current)
	assert.Empty(t, m.snapshot.Messages)
	assert.Equal(t, FocusInput, m.focus)
}

func TestMessages_Navigation(t *testing.T) {
	m, server := newTestModel(t)
	conversation := server.AddConversation("c", "q1", "a1")
	run(t, m, m.selectConversation(conversation.ID))

	m.setFocus(FocusMessages)
	m.Update(keyRunes("["))
	assert.Equal(t, 1, m.selectedMessage)
	m.Update(keyRunes("["))
	assert.Equal(t, 0, m.selectedMessage)
	m.Update(keyRunes("["))
	assert.Equal(t, 0, m.selectedMessage)
	m.Update(keyRunes("]"))
	m.Update(keyRunes("]"))
	assert.Equal(t, -1, m.selectedMessage)
}

func TestDocuments_DeleteNeedsConfirmation(t *testing.T) {
	m, server := newTestModel(t)
	server.AddDocument("keep", "kept", true)
	server.AddDocument("remove", "removed", false)
	run(t, m, m.refresh())
	m.Update(tea.KeyMsg{Type: tea.KeyF2})
	require.Equal(t, FocusDocuments, m.focus)

	view := m.View()
	assert.Contains(t, view, "✓ Processed")
	assert.Contains(t, view, "⏳ Pending")

	m.Update(keyRunes("j"))
	assert.Equal(t, 1, m.documentCursor)

	// Anything but y cancels.
	m.Update(keyRunes("d"))
	require.NotNil(t, m.pendingDelete)
	assert.Contains(t, m.View(), `Delete "remove"? (y/N)`)
	_, cmd := m.Update(keyRunes("n"))
	assert.Nil(t, m.pendingDelete)
	assert.Len(t, server.Documents(), 2)

	m.Update(keyRunes("d"))
	_, cmd = m.Update(keyRunes("y"))
	require.NotNil(t, cmd)
	m.Update(m.deleteDocument(m.snapshot.Documents[1])())
	assert.False(t, m.busy)
	require.Len(t, m.snapshot.Documents, 1)
	assert.Equal(t, "keep", m.snapshot.Documents[0].Title)
	assert.Equal(t, 0, m.documentCursor)
}

func TestDocuments_Process(t *testing.T) {
	m, server := newTestModel(t)
	server.AddDocument("pending", "text", false)
	run(t, m, m.refresh())
	m.setTab(state.TabDocuments)

	m.Update(keyRunes("p"))
	assert.True(t, m.busy)
	run(t, m, m.processDocument(m.snapshot.Documents[0]))
	assert.True(t, m.snapshot.Documents[0].IsProcessed)

	run(t, m, m.loadDocument(m.snapshot.Documents[0].ID))
	require.NotNil(t, m.detail)
	assert.Contains(t, m.View(), "1 chunks")
}

func TestDocuments_CreateText(t *testing.T) {
	m, server := newTestModel(t)
	m.setTab(state.TabDocuments)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	assert.Equal(t, UploadModeText, m.uploadMode)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, FocusTitle, m.focus)

	// Blank content is rejected without calling the API.
	m.titleInput.SetValue("Notes")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.False(t, m.busy)
	assert.Equal(t, 0, server.Requests("POST /documents"))

	m.contentInput.SetValue("Some content")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.True(t, m.busy)
	run(t, m, m.createDocument("Notes", "Some content"))
	assert.Empty(t, m.titleInput.Value())
	assert.Empty(t, m.contentInput.Value())
	require.Len(t, m.snapshot.Documents, 1)
}

func TestDocuments_UploadFailureKeepsPath(t *testing.T) {
	m, _ := newTestModel(t)
	m.setTab(state.TabDocuments)
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, FocusUploadPath, m.focus)

	m.pathInput.SetValue("/does/not/exist.txt")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	run(t, m, m.uploadFile("/does/not/exist.txt"))
	assert.Equal(t, "/does/not/exist.txt", m.pathInput.Value())
	assert.Empty(t, m.snapshot.Documents)
}

func TestSetTab_KeepsState(t *testing.T) {
	m, server := newTestModel(t)
	server.AddDocument("doc", "content", true)
	run(t, m, m.refresh())
	m.textarea.SetValue("draft")

	m.Update(tea.KeyMsg{Type: tea.KeyF2})
	m.Update(tea.KeyMsg{Type: tea.KeyF1})
	assert.Equal(t, state.TabChat, m.snapshot.Tab)
	assert.Equal(t, FocusInput, m.focus)
	assert.Equal(t, "draft", m.textarea.Value())
	assert.Len(t, m.snapshot.Documents, 1)
}

func TestViewer_OpensSelectedMessage(t *testing.T) {
	m, server := newTestModel(t)
	conversation := server.AddConversation("c", "first question", "first answer", "second question", "second answer")
	run(t, m, m.selectConversation(conversation.ID))
	m.setFocus(FocusMessages)

	m.Update(keyRunes("["))
	m.Update(keyRunes("["))
	require.Equal(t, 2, m.selectedMessage)

	_, cmd := m.Update(keyRunes("v"))
	require.NotNil(t, cmd)
	require.NotNil(t, m.viewer)
	assert.Contains(t, m.View(), "3/4")

	m.Update(keyRunes("p"))
	assert.Contains(t, m.View(), "2/4")

	_, cmd = m.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	m.Update(viewer.ExitMsg{})
	assert.Nil(t, m.viewer)
	assert.Equal(t, 1, m.selectedMessage)
}
