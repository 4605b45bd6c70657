package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/malonaz/sdoc/client"
	"github.com/malonaz/sdoc/internal/file"
)

type refreshedMsg struct {
	err error
}

type askedMsg struct {
	question string
	err      error
}

type conversationSelectedMsg struct {
	err error
}

// documentsChangedMsg reports the outcome of an upload, creation, deletion or processing.
type documentsChangedMsg struct {
	notice string
	err    error
	// Which inputs to clear on success.
	clearPath bool
	clearText bool
}

type documentDetailMsg struct {
	document *client.DocumentWithChunks
	err      error
}

// DocumentsChangedMsg is sent by background uploaders, such as a folder watcher,
// after the store's documents changed.
type DocumentsChangedMsg struct {
	Path string
	Err  error
}

func (m *Model) refresh() tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		return refreshedMsg{err: store.Refresh(ctx)}
	}
}

func (m *Model) ask(question string) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		_, err := store.Ask(ctx, question)
		return askedMsg{question: question, err: err}
	}
}

func (m *Model) selectConversation(id int64) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		return conversationSelectedMsg{err: store.SelectConversation(ctx, id)}
	}
}

func (m *Model) uploadFile(path string) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		expanded, err := file.ExpandPath(path)
		if err != nil {
			return documentsChangedMsg{err: err}
		}
		document, err := store.UploadFile(ctx, expanded)
		if err != nil {
			return documentsChangedMsg{err: err}
		}
		return documentsChangedMsg{notice: fmt.Sprintf("Uploaded %s", document.Title), clearPath: true}
	}
}

func (m *Model) createDocument(title, content string) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		document, err := store.CreateDocument(ctx, title, content)
		if err != nil {
			return documentsChangedMsg{err: err}
		}
		return documentsChangedMsg{notice: fmt.Sprintf("Created %s", document.Title), clearText: true}
	}
}

func (m *Model) deleteDocument(document client.Document) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		if err := store.DeleteDocument(ctx, document.ID); err != nil {
			return documentsChangedMsg{err: err}
		}
		return documentsChangedMsg{notice: fmt.Sprintf("Deleted %s", document.Title)}
	}
}

func (m *Model) processDocument(document client.Document) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		if _, err := store.ProcessDocument(ctx, document.ID); err != nil {
			return documentsChangedMsg{err: err}
		}
		return documentsChangedMsg{notice: fmt.Sprintf("Processed %s", document.Title)}
	}
}

func (m *Model) loadDocument(id int64) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		document, err := store.GetDocument(ctx, id)
		return documentDetailMsg{document: document, err: err}
	}
}
