package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"go.dalton.dog/bubbleup"
	"golang.design/x/clipboard"

	"github.com/malonaz/sdoc/client"
	"github.com/malonaz/sdoc/cli/tui/styles"
	"github.com/malonaz/sdoc/cli/tui/viewer"
	"github.com/malonaz/sdoc/state"
)

const maxAlertLength = 120

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Always update the alert model with every message
	outAlert, alertCmd := m.alert.Update(msg)
	m.alert = outAlert.(bubbleup.AlertModel)
	if alertCmd != nil {
		cmds = append(cmds, alertCmd)
	}

	// Log for non-tick messages only
	defer func() {
		switch msg.(type) {
		case spinner.TickMsg, cursor.BlinkMsg, tea.MouseMsg:
		default:
			log.Debug("update completed", "msg_type", fmt.Sprintf("%T", msg), "focus", m.focus)
		}
	}()

	if m.viewer != nil {
		switch msg := msg.(type) {
		case viewer.ExitMsg:
			m.selectedMessage = m.viewer.Index()
			m.viewer = nil
			m.refreshMessages(false)
			m.scrollToSelectedMessage()
			cmds = append(cmds, tea.EnableMouseCellMotion)
			return m, tea.Batch(cmds...)
		case tea.KeyMsg:
			_, cmd := m.viewer.Update(msg)
			cmds = append(cmds, cmd)
			return m, tea.Batch(cmds...)
		case tea.WindowSizeMsg:
			m.viewer.Update(msg)
		}
	}

	switch msg := msg.(type) {
	case tea.FocusMsg:
		m.windowFocused = true
		cmds = append(cmds, m.setFocus(m.focus))
		return m, tea.Batch(cmds...)

	case tea.BlurMsg:
		m.windowFocused = false
		m.blurAll()
		return m, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalculateLayout()
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		// The loading flag is flipped by actions running in other goroutines.
		m.snapshot.Loading = m.store.Snapshot().Loading
		return m, tea.Batch(cmds...)

	case refreshedMsg:
		if msg.err != nil {
			cmds = append(cmds, m.alertError(msg.err))
		}
		m.sync()
		m.refreshMessages(false)
		return m, tea.Batch(cmds...)

	case askedMsg:
		m.pendingQuestion = ""
		if msg.err != nil {
			cmds = append(cmds, m.alertError(msg.err))
			// Give the question back so it can be resent.
			if strings.TrimSpace(m.textarea.Value()) == "" {
				m.textarea.SetValue(msg.question)
				m.adjustTextareaHeight()
			}
		}
		m.sync()
		m.recalculateLayout()
		m.refreshMessages(true)
		return m, tea.Batch(cmds...)

	case conversationSelectedMsg:
		if msg.err != nil {
			cmds = append(cmds, m.alertError(msg.err))
		}
		m.selectedMessage = -1
		m.sync()
		m.refreshMessages(true)
		return m, tea.Batch(cmds...)

	case documentsChangedMsg:
		m.busy = false
		if msg.err != nil {
			cmds = append(cmds, m.alertError(msg.err))
		} else {
			cmds = append(cmds, m.alert.NewAlertCmd(bubbleup.InfoKey, msg.notice))
			if msg.clearPath {
				m.pathInput.Reset()
			}
			if msg.clearText {
				m.titleInput.Reset()
				m.contentInput.Reset()
			}
			m.detail = nil
		}
		m.sync()
		return m, tea.Batch(cmds...)

	case DocumentsChangedMsg:
		if msg.Err != nil {
			cmds = append(cmds, m.alertError(msg.Err))
		} else {
			cmds = append(cmds, m.alert.NewAlertCmd(bubbleup.InfoKey, "Uploaded "+msg.Path))
		}
		m.sync()
		return m, tea.Batch(cmds...)

	case documentDetailMsg:
		if msg.err != nil {
			cmds = append(cmds, m.alertError(msg.err))
		} else {
			m.detail = msg.document
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))
		return m, tea.Batch(cmds...)
	}

	// Forward everything else (cursor blinks, mouse) to the focused component.
	cmds = append(cmds, m.updateFocused(msg))
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	// A pending confirmation swallows the next key.
	if m.pendingDelete != nil {
		document := *m.pendingDelete
		m.pendingDelete = nil
		if key.Matches(msg, keyMapDocuments.Confirm) {
			m.busy = true
			return m.deleteDocument(document)
		}
		return nil
	}

	switch {
	case key.Matches(msg, keyMapShell.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, keyMapShell.ToggleTab):
		if m.snapshot.Tab == state.TabChat {
			return m.setTab(state.TabDocuments)
		}
		return m.setTab(state.TabChat)
	case key.Matches(msg, keyMapShell.ChatTab):
		return m.setTab(state.TabChat)
	case key.Matches(msg, keyMapShell.DocumentsTab):
		return m.setTab(state.TabDocuments)
	case key.Matches(msg, keyMapShell.NextFocus):
		return m.cycleFocus(1)
	case key.Matches(msg, keyMapShell.PreviousFocus):
		return m.cycleFocus(-1)
	}

	switch m.focus {
	case FocusInput:
		return m.handleInputKey(msg)
	case FocusHistory:
		return m.handleHistoryKey(msg)
	case FocusMessages:
		return m.handleMessagesKey(msg)
	case FocusDocuments:
		return m.handleDocumentsKey(msg)
	case FocusUploadPath, FocusTitle, FocusContent:
		return m.handleFormKey(msg)
	}
	return nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keyMapChat.Send):
		return m.send()
	case key.Matches(msg, keyMapChat.NewConversation):
		return m.newConversation()
	case key.Matches(msg, keyMapChat.Copy):
		return m.copyMessage()
	case key.Matches(msg, inputKeyMap.PreviousHistoryEntry):
		if entry, ok := m.history.Previous(m.textarea.Value()); ok {
			m.textarea.SetValue(entry)
			m.historyNavigating = true
			m.adjustTextareaHeight()
		}
		return nil
	case key.Matches(msg, inputKeyMap.NextHistoryEntry):
		if entry, ok := m.history.Next(); ok {
			m.textarea.SetValue(entry)
			m.historyNavigating = true
			m.adjustTextareaHeight()
		}
		return nil
	}

	if m.historyNavigating {
		switch msg.Type {
		case tea.KeyRunes, tea.KeyBackspace, tea.KeyDelete, tea.KeyEnter:
			m.history.Reset()
			m.historyNavigating = false
		}
	}
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.adjustTextareaHeight()
	return cmd
}

func (m *Model) handleHistoryKey(msg tea.KeyMsg) tea.Cmd {
	conversations := m.snapshot.Conversations
	switch {
	case key.Matches(msg, keyMapList.Up):
		if m.historyCursor > 0 {
			m.historyCursor--
		}
	case key.Matches(msg, keyMapList.Down):
		if m.historyCursor < len(conversations)-1 {
			m.historyCursor++
		}
	case key.Matches(msg, keyMapList.Select):
		if len(conversations) > 0 {
			return m.selectConversation(conversations[m.historyCursor].ID)
		}
	case key.Matches(msg, keyMapHistory.NewConversation):
		return tea.Batch(m.newConversation(), m.setFocus(FocusInput))
	case key.Matches(msg, keyMapHistory.Refresh):
		return m.refresh()
	}
	return nil
}

func (m *Model) handleMessagesKey(msg tea.KeyMsg) tea.Cmd {
	messages := m.snapshot.Messages
	switch {
	case key.Matches(msg, keyMapChat.Copy):
		return m.copyMessage()
	case key.Matches(msg, keyMapMessages.ToPreviousMessage):
		if len(messages) == 0 {
			return nil
		}
		if m.selectedMessage == -1 {
			m.selectedMessage = len(messages) - 1
		} else if m.selectedMessage > 0 {
			m.selectedMessage--
		}
		m.refreshMessages(false)
		m.scrollToSelectedMessage()
	case key.Matches(msg, keyMapMessages.ToNextMessage):
		if m.selectedMessage == -1 {
			return nil
		}
		m.selectedMessage++
		if m.selectedMessage >= len(messages) {
			m.selectedMessage = -1
			m.refreshMessages(true)
			return nil
		}
		m.refreshMessages(false)
		m.scrollToSelectedMessage()
	case key.Matches(msg, keyMapMessages.View):
		return m.openViewer()
	case key.Matches(msg, keyMapMessages.ToTop):
		m.viewport.GotoTop()
	case key.Matches(msg, keyMapMessages.ToBottom):
		m.viewport.GotoBottom()
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) handleDocumentsKey(msg tea.KeyMsg) tea.Cmd {
	document := m.selectedDocument()
	switch {
	case key.Matches(msg, keyMapList.Up):
		if m.documentCursor > 0 {
			m.documentCursor--
		}
	case key.Matches(msg, keyMapList.Down):
		if m.documentCursor < len(m.snapshot.Documents)-1 {
			m.documentCursor++
		}
	case key.Matches(msg, keyMapList.Select):
		if document != nil {
			return m.loadDocument(document.ID)
		}
	case key.Matches(msg, keyMapDocuments.Delete):
		if document != nil && !m.busy {
			d := *document
			m.pendingDelete = &d
		}
	case key.Matches(msg, keyMapDocuments.Process):
		if document != nil && !m.busy {
			m.busy = true
			return m.processDocument(*document)
		}
	case key.Matches(msg, keyMapDocuments.Refresh):
		return m.refresh()
	case key.Matches(msg, keyMapDocuments.ToggleMode):
		return m.toggleUploadMode()
	}
	return nil
}

func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keyMapDocuments.ToggleMode):
		return m.toggleUploadMode()
	case m.focus == FocusUploadPath && msg.Type == tea.KeyEnter:
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" || m.busy {
			return nil
		}
		m.busy = true
		return m.uploadFile(path)
	case m.focus != FocusUploadPath && key.Matches(msg, keyMapDocuments.Create):
		return m.submitDocument()
	case m.focus == FocusTitle && msg.Type == tea.KeyEnter:
		return m.setFocus(FocusContent)
	}

	var cmd tea.Cmd
	switch m.focus {
	case FocusUploadPath:
		m.pathInput, cmd = m.pathInput.Update(msg)
	case FocusTitle:
		m.titleInput, cmd = m.titleInput.Update(msg)
	case FocusContent:
		m.contentInput, cmd = m.contentInput.Update(msg)
	}
	return cmd
}

// updateFocused forwards non-key messages to the focused component.
func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if _, ok := msg.(tea.MouseMsg); ok {
		if m.snapshot.Tab == state.TabChat && m.ready {
			m.viewport, cmd = m.viewport.Update(msg)
		}
		return cmd
	}
	switch m.focus {
	case FocusInput:
		m.textarea, cmd = m.textarea.Update(msg)
	case FocusUploadPath:
		m.pathInput, cmd = m.pathInput.Update(msg)
	case FocusTitle:
		m.titleInput, cmd = m.titleInput.Update(msg)
	case FocusContent:
		m.contentInput, cmd = m.contentInput.Update(msg)
	}
	return cmd
}

func (m *Model) send() tea.Cmd {
	question := strings.TrimSpace(m.textarea.Value())
	if question == "" || m.pendingQuestion != "" || m.snapshot.Loading {
		return nil
	}
	m.history.Add(question)
	m.historyNavigating = false
	m.textarea.Reset()
	m.pendingQuestion = question
	m.selectedMessage = -1
	m.recalculateLayout()
	m.refreshMessages(true)
	return m.ask(question)
}

// openViewer shows the selected message, or the last one, full screen.
func (m *Model) openViewer() tea.Cmd {
	messages := m.snapshot.Messages
	if len(messages) == 0 {
		return nil
	}
	v, err := viewer.New(messages, m.selectedMessage, m.width, m.height)
	if err != nil {
		return m.alertError(err)
	}
	m.viewer = v
	return tea.DisableMouse
}

func (m *Model) newConversation() tea.Cmd {
	m.store.NewConversation()
	m.selectedMessage = -1
	m.sync()
	m.refreshMessages(true)
	return nil
}

// copyMessage copies the selected message, or the last answer, to the clipboard.
func (m *Model) copyMessage() tea.Cmd {
	messages := m.snapshot.Messages
	index := m.selectedMessage
	if index == -1 {
		for i := len(messages) - 1; i >= 0; i-- {
			if messages[i].Role == client.RoleAssistant {
				index = i
				break
			}
		}
	}
	if index == -1 {
		return nil
	}
	if !m.clipboardEnabled {
		return m.alertError(errors.New("clipboard unavailable"))
	}
	clipboard.Write(clipboard.FmtText, []byte(messages[index].Content))
	return m.alert.NewAlertCmd(bubbleup.InfoKey, "Copied to clipboard!")
}

func (m *Model) submitDocument() tea.Cmd {
	if m.busy {
		return nil
	}
	title, content := m.titleInput.Value(), m.contentInput.Value()
	if _, _, err := state.ValidateDocument(title, content); err != nil {
		return m.alertError(err)
	}
	m.busy = true
	return m.createDocument(title, content)
}

func (m *Model) selectedDocument() *client.Document {
	if len(m.snapshot.Documents) == 0 {
		return nil
	}
	return &m.snapshot.Documents[m.documentCursor]
}

// alertError logs err and shows it as an alert.
func (m *Model) alertError(err error) tea.Cmd {
	log.Error("action failed", "error", err)
	message := err.Error()
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		message = fmt.Sprintf("%s (%d)", apiErr.Message, apiErr.StatusCode)
	}
	return m.alert.NewAlertCmd(bubbleup.ErrorKey, styles.Truncate(message, maxAlertLength))
}
