package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/malonaz/sdoc/cli/tui/styles"
	"github.com/malonaz/sdoc/client"
	"github.com/malonaz/sdoc/state"
)

const minRenderWidth = 20

// focusOrder lists the focusable components of the current tab.
func (m *Model) focusOrder() []Focus {
	if m.snapshot.Tab == state.TabChat {
		return []Focus{FocusInput, FocusHistory, FocusMessages}
	}
	if m.uploadMode == UploadModeFile {
		return []Focus{FocusDocuments, FocusUploadPath}
	}
	return []Focus{FocusDocuments, FocusTitle, FocusContent}
}

func (m *Model) cycleFocus(delta int) tea.Cmd {
	order := m.focusOrder()
	index := 0
	for i, focus := range order {
		if focus == m.focus {
			index = i
			break
		}
	}
	index = (index + delta + len(order)) % len(order)
	return m.setFocus(order[index])
}

// setFocus blurs every input and focuses the given component.
func (m *Model) setFocus(focus Focus) tea.Cmd {
	m.focus = focus
	if m.snapshot.Tab == state.TabChat {
		m.chatFocus = focus
	} else {
		m.documentsFocus = focus
	}
	m.blurAll()
	if !m.windowFocused {
		return nil
	}
	switch focus {
	case FocusInput:
		return m.textarea.Focus()
	case FocusUploadPath:
		return m.pathInput.Focus()
	case FocusTitle:
		return m.titleInput.Focus()
	case FocusContent:
		return m.contentInput.Focus()
	}
	return nil
}

func (m *Model) blurAll() {
	m.textarea.Blur()
	m.pathInput.Blur()
	m.titleInput.Blur()
	m.contentInput.Blur()
}

func (m *Model) setTab(tab state.Tab) tea.Cmd {
	if tab == m.snapshot.Tab {
		return nil
	}
	m.pendingDelete = nil
	m.store.SetTab(tab)
	m.sync()
	m.recalculateLayout()
	if tab == state.TabChat {
		return m.setFocus(m.chatFocus)
	}
	return m.setFocus(m.documentsFocus)
}

func (m *Model) toggleUploadMode() tea.Cmd {
	if m.uploadMode == UploadModeFile {
		m.uploadMode = UploadModeText
	} else {
		m.uploadMode = UploadModeFile
	}
	if m.focus == FocusDocuments {
		return nil
	}
	if m.uploadMode == UploadModeFile {
		return m.setFocus(FocusUploadPath)
	}
	return m.setFocus(FocusTitle)
}

// adjustTextareaHeight resizes the textarea based on content line count
func (m *Model) adjustTextareaHeight() {
	lineCount := strings.Count(m.textarea.Value(), "\n") + 1

	newHeight := lineCount
	if newHeight < styles.MinTextareaHeight {
		newHeight = styles.MinTextareaHeight
	}
	if newHeight > styles.MaxTextareaHeight {
		newHeight = styles.MaxTextareaHeight
	}

	oldHeight := m.textarea.Height()
	if oldHeight != newHeight {
		m.textarea.SetHeight(newHeight)
		m.recalculateLayout()
		// Positive when the textarea grew and the viewport shrank.
		if heightDiff := newHeight - oldHeight; m.ready {
			m.viewport.LineDown(heightDiff)
		}
	}
}

func (m *Model) mainWidth() int {
	width := m.width - styles.SidebarWidth
	if width < minRenderWidth {
		width = minRenderWidth
	}
	return width
}

// recalculateLayout adjusts component dimensions based on current state
func (m *Model) recalculateLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	viewportWidth := m.mainWidth()
	viewportHeight := m.height - styles.HeaderHeight - styles.FooterHeight
	viewportHeight -= m.textarea.Height() + styles.InputBorderHeight
	if m.pendingQuestion != "" {
		viewportHeight--
	}
	if viewportHeight < styles.MinViewportHeight {
		viewportHeight = styles.MinViewportHeight
	}

	renderWidth := viewportWidth - styles.MessageHorizontalFrameSize()
	if renderWidth < minRenderWidth {
		renderWidth = minRenderWidth
	}
	if err := m.renderer.SetWidth(renderWidth); err != nil {
		log.Warn("resizing renderer", "error", err)
	}

	if !m.ready {
		m.viewport = viewport.New(viewportWidth, viewportHeight)
		m.ready = true
		m.viewport.SetContent(m.renderMessages())
		m.viewport.GotoBottom()
	} else {
		m.viewport.Width = viewportWidth
		m.viewport.Height = viewportHeight
		m.viewport.SetContent(m.renderMessages())
	}

	m.textarea.SetWidth(viewportWidth - styles.TextAreaStyle.GetHorizontalFrameSize())

	formWidth := m.width/2 - styles.PanelStyle.GetHorizontalFrameSize() - 2
	if formWidth < minRenderWidth {
		formWidth = minRenderWidth
	}
	m.pathInput.Width = formWidth - 4
	m.titleInput.Width = formWidth
	m.contentInput.SetWidth(formWidth)
}

// refreshMessages re-renders the conversation, following the bottom when asked to or
// when the viewport was already there.
func (m *Model) refreshMessages(gotoBottom bool) {
	if !m.ready {
		return
	}
	wasAtBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if gotoBottom || wasAtBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) scrollToSelectedMessage() {
	if m.selectedMessage < 0 || m.selectedMessage >= len(m.messageViewportOffsets) {
		return
	}
	m.viewport.SetYOffset(m.messageViewportOffsets[m.selectedMessage])
}

func (m *Model) renderMessages() string {
	var b strings.Builder
	m.messageViewportOffsets = m.messageViewportOffsets[:0]

	messages := m.snapshot.Messages
	if len(messages) == 0 && m.pendingQuestion == "" {
		b.WriteString(styles.EmptyStyle.Render("Ask a question to start a conversation."))
		return b.String()
	}

	var conversationID int64
	if m.snapshot.Current != nil {
		conversationID = m.snapshot.Current.ID
	}
	for i, message := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		m.messageViewportOffsets = append(m.messageViewportOffsets, strings.Count(b.String(), "\n"))

		key := fmt.Sprintf("%d/%d", conversationID, i)
		rendered := m.renderer.Render(key, message.Content)
		style := styles.AIMessageStyle
		if message.Role == client.RoleUser {
			style = styles.UserMessageStyle
		}
		if i == m.selectedMessage {
			style = style.BorderForeground(styles.SelectedColor)
		}
		b.WriteString(style.Render(rendered))

		if message.Role == client.RoleAssistant && len(message.Sources) > 0 {
			b.WriteString("\n")
			b.WriteString(styles.SourceLabelStyle.Render(fmt.Sprintf("📚 Sources (%d)", len(message.Sources))))
			for _, source := range message.Sources {
				b.WriteString("\n")
				line := fmt.Sprintf("• %s: %s", source.Label(), strings.Join(strings.Fields(source.Content), " "))
				b.WriteString(styles.SourceStyle.Render(styles.Truncate(line, styles.TruncateLength)))
			}
		}
	}

	if m.pendingQuestion != "" {
		if len(messages) > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(styles.UserMessageStyle.Render(m.renderer.Render("", m.pendingQuestion)))
	}
	return b.String()
}
