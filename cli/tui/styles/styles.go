package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Layout constants
const (
	// Textarea
	MinTextareaHeight    = 3
	MaxTextareaHeight    = 12
	DefaultTextareaWidth = 80
	TextAreaPaddingLeft  = 1

	// Viewport
	MinViewportHeight = 1

	// Layout
	InputBorderHeight  = 2
	HeaderHeight       = 2
	FooterHeight       = 1
	MessagePaddingLeft = 2
	SidebarWidth       = 30

	// Documents tab
	ContentHeight = 6

	// Truncation
	TruncateLength       = 100
	TruncateSuffix       = "..."
	TruncateSuffixLength = 3
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7C3AED") // Purple
	SecondaryColor = lipgloss.Color("#06B6D4") // Cyan
	AccentColor    = lipgloss.Color("#F59E0B") // Amber
	SuccessColor   = lipgloss.Color("#10B981") // Green
	ErrorColor     = lipgloss.Color("#EF4444") // Red
	MutedColor     = lipgloss.Color("#6B7280") // Gray
	TextColor      = lipgloss.Color("#F9FAFB") // Light gray
	DimTextColor   = lipgloss.Color("#9CA3AF") // Dim gray
	SourceColor    = lipgloss.Color("#FCD34D")
	BorderColor    = lipgloss.Color("#4B5563")
	DividerColor   = lipgloss.Color("#374151")
	SelectedColor  = lipgloss.Color("#10B981")
)

// Title bar
var (
	TitleStyle = lipgloss.NewStyle().
			Background(PrimaryColor).
			Foreground(TextColor).
			Bold(true)

	ActiveTabStyle = lipgloss.NewStyle().
			Background(TextColor).
			Foreground(PrimaryColor).
			Bold(true).
			Padding(0, 1)

	InactiveTabStyle = lipgloss.NewStyle().
				Background(PrimaryColor).
				Foreground(DimTextColor).
				Padding(0, 1)
)

// Messages.
var (
	messageStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder())

	UserMessageStyle = lipgloss.NewStyle().
				Inherit(messageStyle).
				BorderForeground(PrimaryColor).
				MarginLeft(10)

	AIMessageStyle = lipgloss.NewStyle().
			Inherit(messageStyle).
			BorderForeground(SecondaryColor).
			MarginRight(10)

	SourceLabelStyle = lipgloss.NewStyle().
				Foreground(AccentColor).
				Italic(true)

	SourceStyle = lipgloss.NewStyle().
			Foreground(SourceColor).
			Italic(true).
			PaddingLeft(MessagePaddingLeft)

	DimTextStyle = lipgloss.NewStyle().
			Foreground(DimTextColor)
)

// Panels
var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	FocusedPanelStyle = lipgloss.NewStyle().
				Inherit(PanelStyle).
				BorderForeground(PrimaryColor)

	PanelTitleStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	ItemStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(SelectedColor).
				Bold(true)

	CurrentItemStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor)

	EmptyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	ProcessedStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	PendingStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	ModeActiveStyle = lipgloss.NewStyle().
			Background(PrimaryColor).
			Foreground(TextColor).
			Padding(0, 1)

	ModeInactiveStyle = lipgloss.NewStyle().
				Foreground(DimTextColor).
				Padding(0, 1)
)

// Error
var (
	ErrorStyle = lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true)
)

// Input area
var (
	TextAreaStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			PaddingLeft(TextAreaPaddingLeft)

	FocusedTextAreaStyle = lipgloss.NewStyle().
				Inherit(TextAreaStyle).
				BorderForeground(PrimaryColor)
)

// Spinner
var (
	SpinnerStyle = lipgloss.NewStyle().
		Foreground(SecondaryColor)
)

// Help text
var (
	HelpStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)
)

// Confirmation
var (
	ConfirmStyle = lipgloss.NewStyle().
		Foreground(AccentColor).
		Bold(true)
)

// Viewport
var (
	ViewportStyle = lipgloss.NewStyle().Margin(0).Padding(0)
)

// Divider
var (
	DividerStyle = lipgloss.NewStyle().
		Foreground(DividerColor)
)

// MessageHorizontalFrameSize returns the horizontal frame size of AI messages.
func MessageHorizontalFrameSize() int {
	return AIMessageStyle.GetHorizontalFrameSize()
}

// Divider creates a horizontal divider of the specified width.
func Divider(width int) string {
	return DividerStyle.Render(lipgloss.NewStyle().Width(width).Render("─"))
}

// Truncate truncates a string to the specified number of characters with a suffix.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= TruncateSuffixLength {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-TruncateSuffixLength]) + TruncateSuffix
}
