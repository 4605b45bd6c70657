package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/malonaz/sdoc/cli/tui/styles"
	"github.com/malonaz/sdoc/client"
	"github.com/malonaz/sdoc/state"
)

const (
	appTitle          = "Local Smart Doc"
	detailPreviewSize = 200
)

// View renders the model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	if !m.ready {
		return "Initializing..."
	}

	if m.viewer != nil {
		return m.alert.Render(m.viewer.View())
	}

	var b strings.Builder

	b.WriteString(m.renderTitle())
	b.WriteString("\n")

	bodyHeight := m.height - styles.HeaderHeight - styles.FooterHeight
	if m.snapshot.Tab == state.TabChat {
		b.WriteString(m.renderChat(bodyHeight))
	} else {
		b.WriteString(m.renderDocuments(bodyHeight))
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return m.alert.Render(b.String())
}

func (m *Model) renderTitle() string {
	tabs := make([]string, 0, 2)
	for _, tab := range []state.Tab{state.TabChat, state.TabDocuments} {
		label := "Chat"
		if tab == state.TabDocuments {
			label = fmt.Sprintf("Documents (%d)", len(m.snapshot.Documents))
		}
		if tab == m.snapshot.Tab {
			tabs = append(tabs, styles.ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, styles.InactiveTabStyle.Render(label))
		}
	}

	status := ""
	if m.snapshot.Loading || m.busy || m.pendingQuestion != "" {
		status = " " + m.spinner.View() + " working"
	} else if m.snapshot.Current != nil {
		status = " 💬 " + styles.Truncate(m.snapshot.Current.DisplayTitle(), 40)
	}

	title := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.TitleStyle.Render(" 📚 "+appTitle+" "),
		strings.Join(tabs, ""),
		styles.TitleStyle.Render(status),
	)
	return styles.TitleStyle.Width(m.width).Render(title)
}

func (m *Model) renderChat(height int) string {
	var main strings.Builder
	main.WriteString(styles.ViewportStyle.Render(m.viewport.View()))
	main.WriteString("\n")
	if m.pendingQuestion != "" {
		main.WriteString(fmt.Sprintf("%s Thinking...\n", m.spinner.View()))
	}
	inputStyle := styles.TextAreaStyle
	if m.focus == FocusInput {
		inputStyle = styles.FocusedTextAreaStyle
	}
	main.WriteString(inputStyle.Render(m.textarea.View()))

	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(height), main.String())
}

func (m *Model) renderSidebar(height int) string {
	innerWidth := styles.SidebarWidth - styles.PanelStyle.GetHorizontalFrameSize()
	lines := []string{styles.PanelTitleStyle.Render("History")}

	conversations := m.snapshot.Conversations
	if len(conversations) == 0 {
		lines = append(lines, styles.EmptyStyle.Render("No conversations."))
	}

	// Keep the cursor visible when the list is longer than the panel.
	visible := height - styles.PanelStyle.GetVerticalFrameSize() - 1
	start := 0
	if visible > 0 && m.historyCursor >= visible {
		start = m.historyCursor - visible + 1
	}
	for i := start; i < len(conversations) && (visible <= 0 || i < start+visible); i++ {
		conversation := conversations[i]
		label := styles.Truncate(conversation.DisplayTitle(), innerWidth-2)
		style := styles.ItemStyle
		if m.snapshot.Current != nil && m.snapshot.Current.ID == conversation.ID {
			style = styles.CurrentItemStyle
		}
		prefix := "  "
		if i == m.historyCursor && m.focus == FocusHistory {
			prefix = "› "
			style = styles.SelectedItemStyle
		}
		lines = append(lines, style.Render(prefix+label))
	}

	panel := styles.PanelStyle
	if m.focus == FocusHistory {
		panel = styles.FocusedPanelStyle
	}
	return panel.
		Width(innerWidth).
		Height(max(height-styles.PanelStyle.GetVerticalFrameSize(), 1)).
		Render(strings.Join(lines, "\n"))
}

func (m *Model) renderDocuments(height int) string {
	halfWidth := m.width / 2
	innerWidth := max(halfWidth-styles.PanelStyle.GetHorizontalFrameSize(), 1)
	innerHeight := max(height-styles.PanelStyle.GetVerticalFrameSize(), 1)

	formPanel := styles.PanelStyle
	if m.focus == FocusUploadPath || m.focus == FocusTitle || m.focus == FocusContent {
		formPanel = styles.FocusedPanelStyle
	}
	listPanel := styles.PanelStyle
	if m.focus == FocusDocuments {
		listPanel = styles.FocusedPanelStyle
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		formPanel.Width(innerWidth).Height(innerHeight).Render(m.renderForm()),
		listPanel.Width(innerWidth).Height(innerHeight).Render(m.renderDocumentList(innerWidth)),
	)
}

func (m *Model) renderForm() string {
	var b strings.Builder
	b.WriteString(styles.PanelTitleStyle.Render("Add Document"))
	b.WriteString("\n")

	upload, create := styles.ModeInactiveStyle, styles.ModeInactiveStyle
	if m.uploadMode == UploadModeFile {
		upload = styles.ModeActiveStyle
	} else {
		create = styles.ModeActiveStyle
	}
	b.WriteString(upload.Render("Upload File"))
	b.WriteString(create.Render("Create Text"))
	b.WriteString("\n\n")

	if m.uploadMode == UploadModeFile {
		b.WriteString(m.pathInput.View())
		b.WriteString("\n\n")
		b.WriteString(styles.DimTextStyle.Render("Supported: " + fileTypes(m.config)))
		b.WriteString("\n")
		b.WriteString(styles.HelpStyle.Render("Enter to upload"))
	} else {
		b.WriteString(m.titleInput.View())
		b.WriteString("\n")
		b.WriteString(m.contentInput.View())
		b.WriteString("\n")
		b.WriteString(styles.HelpStyle.Render("Ctrl+S to create"))
	}

	if m.busy {
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("%s Working...", m.spinner.View()))
	}
	return b.String()
}

func (m *Model) renderDocumentList(width int) string {
	var b strings.Builder
	b.WriteString(styles.PanelTitleStyle.Render("Documents"))
	b.WriteString("\n")

	documents := m.snapshot.Documents
	if len(documents) == 0 {
		b.WriteString(styles.EmptyStyle.Render("No documents yet."))
		return b.String()
	}

	for i, document := range documents {
		prefix := "  "
		style := styles.ItemStyle
		if i == m.documentCursor && m.focus == FocusDocuments {
			prefix = "› "
			style = styles.SelectedItemStyle
		}
		b.WriteString(style.Render(prefix + styles.Truncate(document.Title, width-4)))
		b.WriteString("\n    ")
		b.WriteString(renderProcessed(document))
		b.WriteString(styles.DimTextStyle.Render(" • " + formatDate(document.CreatedAt)))
		b.WriteString("\n")
	}

	if m.pendingDelete != nil {
		b.WriteString("\n")
		b.WriteString(styles.ConfirmStyle.Render(fmt.Sprintf("Delete %q? (y/N)", m.pendingDelete.Title)))
		b.WriteString("\n")
	}

	if m.detail != nil {
		b.WriteString("\n")
		b.WriteString(styles.Divider(width))
		b.WriteString("\n")
		b.WriteString(styles.PanelTitleStyle.Render(styles.Truncate(m.detail.Title, width)))
		b.WriteString("\n")
		b.WriteString(styles.DimTextStyle.Render(fmt.Sprintf("#%d • %d chunks • %d characters",
			m.detail.ID, len(m.detail.Chunks), len([]rune(m.detail.Content)))))
		b.WriteString("\n")
		preview := strings.Join(strings.Fields(m.detail.Content), " ")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(styles.Truncate(preview, detailPreviewSize)))
	}
	return b.String()
}

func renderProcessed(document client.Document) string {
	if document.IsProcessed {
		return styles.ProcessedStyle.Render("✓ Processed")
	}
	return styles.PendingStyle.Render("⏳ Pending")
}

func formatDate(t client.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func (m *Model) renderHelp() string {
	var help string
	switch m.focus {
	case FocusInput:
		help = "ctrl+j send • alt+p/n history • ctrl+l new • alt+w copy answer"
	case FocusHistory:
		help = "↑/↓ move • enter open • n new • r refresh"
	case FocusMessages:
		help = "[/] select message • v view • g/G top/bottom • alt+w copy"
	case FocusDocuments:
		help = "↑/↓ move • enter details • p process • d delete • r refresh • ctrl+u mode"
	case FocusUploadPath:
		help = "enter upload • ctrl+u mode"
	case FocusTitle, FocusContent:
		help = "ctrl+s create • ctrl+u mode"
	}
	return styles.HelpStyle.Render(help + " • tab focus • ctrl+t switch tab • ctrl+c quit")
}
