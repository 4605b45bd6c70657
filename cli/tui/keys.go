package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMapShell struct {
	Quit          key.Binding
	ToggleTab     key.Binding
	ChatTab       key.Binding
	DocumentsTab  key.Binding
	NextFocus     key.Binding
	PreviousFocus key.Binding
}

type KeyMapChat struct {
	Send            key.Binding
	NewConversation key.Binding
	Copy            key.Binding
}

type InputKeyMap struct {
	PreviousHistoryEntry key.Binding
	NextHistoryEntry     key.Binding
}

type KeyMapList struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
}

type KeyMapHistory struct {
	NewConversation key.Binding
	Refresh         key.Binding
}

type KeyMapMessages struct {
	ToTop             key.Binding
	ToBottom          key.Binding
	ToPreviousMessage key.Binding
	ToNextMessage     key.Binding
	View              key.Binding
}

type KeyMapDocuments struct {
	Delete     key.Binding
	Process    key.Binding
	Refresh    key.Binding
	ToggleMode key.Binding
	Create     key.Binding
	Confirm    key.Binding
}

var keyMapShell = KeyMapShell{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
	ToggleTab: key.NewBinding(
		key.WithKeys("ctrl+t"),
	),
	ChatTab: key.NewBinding(
		key.WithKeys("f1"),
	),
	DocumentsTab: key.NewBinding(
		key.WithKeys("f2"),
	),
	NextFocus: key.NewBinding(
		key.WithKeys("tab"),
	),
	PreviousFocus: key.NewBinding(
		key.WithKeys("shift+tab"),
	),
}

var keyMapChat = KeyMapChat{
	Send: key.NewBinding(
		key.WithKeys("ctrl+j"),
	),
	NewConversation: key.NewBinding(
		key.WithKeys("ctrl+l"),
	),
	Copy: key.NewBinding(
		key.WithKeys("alt+w"),
	),
}

var inputKeyMap = InputKeyMap{
	PreviousHistoryEntry: key.NewBinding(
		key.WithKeys("alt+p"),
	),
	NextHistoryEntry: key.NewBinding(
		key.WithKeys("alt+n"),
	),
}

var keyMapList = KeyMapList{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
	),
}

var keyMapHistory = KeyMapHistory{
	NewConversation: key.NewBinding(
		key.WithKeys("n"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
	),
}

var keyMapMessages = KeyMapMessages{
	ToTop: key.NewBinding(
		key.WithKeys("g", "home"),
	),
	ToBottom: key.NewBinding(
		key.WithKeys("G", "end"),
	),
	ToPreviousMessage: key.NewBinding(
		key.WithKeys("["),
	),
	ToNextMessage: key.NewBinding(
		key.WithKeys("]"),
	),
	View: key.NewBinding(
		key.WithKeys("v", "enter"),
	),
}

var keyMapDocuments = KeyMapDocuments{
	Delete: key.NewBinding(
		key.WithKeys("d", "delete"),
	),
	Process: key.NewBinding(
		key.WithKeys("p"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
	),
	ToggleMode: key.NewBinding(
		key.WithKeys("ctrl+u"),
	),
	Create: key.NewBinding(
		key.WithKeys("ctrl+s"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y", "Y"),
	),
}
