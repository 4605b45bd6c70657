package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/malonaz/sdoc/client"
	"github.com/malonaz/sdoc/internal/markdown"
)

// Viewer-specific styles
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("221")).
			Italic(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))
)

// ExitMsg is sent when exiting the viewer.
type ExitMsg struct{}

// Model represents the full-screen message viewer.
type Model struct {
	messages     []client.Message
	currentIndex int
	viewport     viewport.Model
	renderer     *markdown.Renderer
	width        int
	height       int
}

// New creates a viewer model starting at the given message.
func New(messages []client.Message, index, width, height int) (*Model, error) {
	renderer, err := markdown.NewRenderer(max(width, 1))
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(messages) {
		index = len(messages) - 1
	}

	m := &Model{
		messages:     messages,
		currentIndex: max(index, 0),
		renderer:     renderer,
		width:        width,
		height:       height,
	}

	// Reserve 2 lines for footer
	m.viewport = viewport.New(width, max(height-2, 1))
	m.viewport.MouseWheelEnabled = false // Disable mouse for copy/paste
	m.updateContent()
	return m, nil
}

// Index returns the index of the displayed message.
func (m *Model) Index() int { return m.currentIndex }

// Init initializes the viewer model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, func() tea.Msg { return ExitMsg{} }

		case "p", "[":
			if m.currentIndex > 0 {
				m.currentIndex--
				m.updateContent()
				m.viewport.GotoTop()
			}
			return m, nil

		case "n", "]":
			if m.currentIndex < len(m.messages)-1 {
				m.currentIndex++
				m.updateContent()
				m.viewport.GotoTop()
			}
			return m, nil

		case "g":
			m.viewport.GotoTop()
			return m, nil

		case "G":
			m.viewport.GotoBottom()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-2, 1)
		if err := m.renderer.SetWidth(max(msg.Width, 1)); err == nil {
			m.updateContent()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the viewer.
func (m *Model) View() string {
	if len(m.messages) == 0 {
		return "No messages to display. Press q to exit."
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", max(m.width, 0))))
	b.WriteString("\n")
	footer := fmt.Sprintf(" %d/%d │ p/n previous/next │ ↑/↓ scroll │ q exit",
		m.currentIndex+1, len(m.messages))
	b.WriteString(footerStyle.Render(footer))
	return b.String()
}

// updateContent updates the viewport content with the current message.
func (m *Model) updateContent() {
	if len(m.messages) == 0 {
		m.viewport.SetContent("No messages")
		return
	}

	message := m.messages[m.currentIndex]
	var b strings.Builder
	switch message.Role {
	case client.RoleUser:
		b.WriteString(headerStyle.Render("👤 Question"))
	default:
		b.WriteString(headerStyle.Render("🤖 Answer"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderer.Render("", message.Content))

	if len(message.Sources) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("📚 Sources"))
		for i, source := range message.Sources {
			b.WriteString("\n\n")
			b.WriteString(sourceStyle.Render(fmt.Sprintf("[%d] %s", i+1, source.Label())))
			b.WriteString("\n")
			b.WriteString(source.Content)
		}
	}
	m.viewport.SetContent(b.String())
}
