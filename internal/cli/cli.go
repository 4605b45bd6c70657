package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/buger/goterm"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
)

var (
	userInputColor  = color.New(color.FgWhite)
	answerColor     = color.New(color.FgCyan)
	sourceColor     = color.New(color.FgHiYellow)
	titleColor      = color.New(color.FgMagenta, color.Bold)
	separatorColor  = color.New(color.FgHiBlack)
	fileColor       = color.New(color.FgRed)
	successColor    = color.New(color.FgGreen)
	errorColor      = color.New(color.FgRed, color.Bold)
	promptColor     = color.New(color.FgHiBlue)
	processedColor  = color.New(color.FgGreen)
	pendingColor    = color.New(color.FgYellow)
	defaultWidth    = 80
	historyFilePath = "/tmp/sdoc.history"
)

// SetHistoryFile sets where the readline prompt persists its history.
func SetHistoryFile(path string) {
	if path != "" {
		historyFilePath = path
	}
}

func width() int {
	if w := goterm.Width(); w > 0 {
		return w
	}
	return defaultWidth
}

// Separator printed to cli.
func Separator() {
	separatorColor.Println(strings.Repeat("-", width()))
}

// Title printed to cli.
func Title(text string, args ...any) {
	w := width()
	title := "      " + fmt.Sprintf(text, args...) + "      "
	leftWidth := max((w-len(title))/2, 0)
	separator1 := strings.Repeat("-", leftWidth)
	separator2 := strings.Repeat("-", max(w-len(title)-len(separator1), 0))
	titleColor.Println(separator1 + title + separator2)
}

// UserInput printed to cli.
func UserInput(text string, args ...any) {
	userInputColor.Printf(text, args...)
}

// Answer printed to cli.
func Answer(text string) {
	answerColor.Println(text)
}

// Source printed to cli.
func Source(text string, args ...any) {
	sourceColor.Printf(text, args...)
}

// FileInfo printed to cli.
func FileInfo(text string, args ...any) {
	fileColor.Printf(text, args...)
}

// Success printed to cli.
func Success(text string, args ...any) {
	successColor.Printf(text, args...)
}

// Error printed to cli.
func Error(text string, args ...any) {
	errorColor.Printf(text, args...)
}

// ProcessedStatus renders a document's processing flag.
func ProcessedStatus(processed bool) string {
	if processed {
		return processedColor.Sprint("✓ Processed")
	}
	return pendingColor.Sprint("⏳ Pending")
}

// PromptUser for input. Ctrl+J submits a multi-line entry.
func PromptUser() (string, error) {
	exit := false
	config := &readline.Config{
		Prompt:            promptColor.Sprint("> "),
		InterruptPrompt:   "^C",
		HistoryFile:       historyFilePath,
		HistorySearchFold: true,
		FuncFilterInputRune: func(r rune) (rune, bool) {
			if r == '\x0A' { // Ctrl + J
				exit = true
			}
			return r, true
		},
	}

	rl, err := readline.NewEx(config)
	if err != nil {
		return "", err
	}
	defer rl.Close()
	var lines []string
	for {
		line, err := rl.Readline()
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
		if exit {
			break
		}
		rl.SetPrompt("")
	}
	return strings.Join(lines, "\n"), nil
}

// QueryUser a yes/no question.
func QueryUser(question string) bool {
	surveyQuestion := &survey.Confirm{
		Message: question,
	}
	confirm := false
	survey.AskOne(surveyQuestion, &confirm)
	return confirm
}
