package tui

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.dalton.dog/bubbleup"
	"golang.design/x/clipboard"

	"github.com/malonaz/sdoc/cli/tui/styles"
	"github.com/malonaz/sdoc/cli/tui/viewer"
	"github.com/malonaz/sdoc/client"
	"github.com/malonaz/sdoc/internal/configuration"
	"github.com/malonaz/sdoc/internal/debug"
	"github.com/malonaz/sdoc/internal/history"
	"github.com/malonaz/sdoc/internal/markdown"
	"github.com/malonaz/sdoc/state"
)

var log *slog.Logger

// Focus is the component receiving key presses.
type Focus int

const (
	FocusInput Focus = iota
	FocusHistory
	FocusMessages
	FocusDocuments
	FocusUploadPath
	FocusTitle
	FocusContent
)

// UploadMode selects between uploading a file and typing a document.
type UploadMode int

const (
	UploadModeFile UploadMode = iota
	UploadModeText
)

// Model represents the Bubble Tea model for the document QA shell.
type Model struct {
	// Core dependencies
	ctx    context.Context
	config *configuration.Config
	store  *state.Store

	// Last state read from the store.
	snapshot state.Snapshot

	// UI components
	textarea     textarea.Model
	viewport     viewport.Model
	spinner      spinner.Model
	renderer     *markdown.Renderer
	pathInput    textinput.Model
	titleInput   textinput.Model
	contentInput textarea.Model

	// UI state
	width          int
	height         int
	ready          bool
	quitting       bool
	windowFocused  bool
	focus          Focus
	chatFocus      Focus
	documentsFocus Focus
	uploadMode     UploadMode
	busy           bool

	// Question in flight, shown until its answer arrives.
	pendingQuestion string

	// Selection within lists.
	historyCursor  int
	documentCursor int

	// Document awaiting delete confirmation.
	pendingDelete *client.Document
	// Document shown below the list.
	detail *client.DocumentWithChunks

	// Tracks the index of the message we're currently navigating. (-1 if none is selected).
	selectedMessage        int
	messageViewportOffsets []int
	// Full-screen view of a single message, nil when closed.
	viewer *viewer.Model

	// Alert notifications.
	alert            bubbleup.AlertModel
	clipboardEnabled bool

	// Input history
	history           *history.History
	historyNavigating bool
}

// New creates the shell model.
func New(ctx context.Context, config *configuration.Config, store *state.Store) (*Model, error) {
	log = debug.GetLogger()

	// Create textarea for input
	ta := textarea.New()
	ta.Placeholder = "Ask a question about your documents... (Ctrl+J to send, Alt+P/N for history, Tab to switch panel)"
	ta.Focus()
	ta.CharLimit = 0
	ta.SetWidth(styles.DefaultTextareaWidth)
	ta.SetHeight(styles.MinTextareaHeight)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(true)
	ta.Prompt = ""

	pathInput := textinput.New()
	pathInput.Placeholder = "Path of a file to upload (" + fileTypes(config) + ")"
	pathInput.Prompt = "📄 "

	titleInput := textinput.New()
	titleInput.Placeholder = "Title"
	titleInput.CharLimit = 500
	titleInput.Prompt = ""

	contentInput := textarea.New()
	contentInput.Placeholder = "Content"
	contentInput.CharLimit = 0
	contentInput.ShowLineNumbers = false
	contentInput.SetHeight(styles.ContentHeight)
	contentInput.Prompt = ""

	// Create spinner
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	alert := bubbleup.NewAlertModel(40, true, 2)

	renderer, err := markdown.NewRenderer(styles.DefaultTextareaWidth)
	if err != nil {
		return nil, err
	}

	clipboardEnabled := true
	if err := clipboard.Init(); err != nil {
		log.Warn("clipboard unavailable", "error", err)
		clipboardEnabled = false
	}

	historyPath := ""
	if config.Chat != nil {
		historyPath = config.Chat.HistoryPath
	}

	m := &Model{
		ctx:              ctx,
		config:           config,
		store:            store,
		textarea:         ta,
		pathInput:        pathInput,
		titleInput:       titleInput,
		contentInput:     contentInput,
		spinner:          sp,
		renderer:         renderer,
		windowFocused:    true,
		focus:            FocusInput,
		chatFocus:        FocusInput,
		documentsFocus:   FocusDocuments,
		alert:            *alert,
		clipboardEnabled: clipboardEnabled,
		history:          history.NewHistory(historyPath),
		selectedMessage:  -1,
	}
	m.sync()
	if m.snapshot.Tab == state.TabDocuments {
		m.setFocus(m.documentsFocus)
	}
	return m, nil
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.alert.Init(),
		m.refresh(),
	)
}

// sync reads the latest state from the store and clamps the cursors.
func (m *Model) sync() {
	m.snapshot = m.store.Snapshot()
	m.historyCursor = clamp(m.historyCursor, len(m.snapshot.Conversations))
	m.documentCursor = clamp(m.documentCursor, len(m.snapshot.Documents))
	if m.selectedMessage >= len(m.snapshot.Messages) {
		m.selectedMessage = -1
	}
}

func clamp(cursor, length int) int {
	if cursor >= length {
		cursor = length - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

func fileTypes(config *configuration.Config) string {
	if config.Upload == nil || len(config.Upload.AllowedExtensions) == 0 {
		return "any file"
	}
	s := ""
	for i, extension := range config.Upload.AllowedExtensions {
		if i > 0 {
			s += ", "
		}
		s += extension
	}
	return s
}
