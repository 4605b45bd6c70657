package history

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/malonaz/sdoc/internal/debug"
)

const (
	historyFileName = "sdoc_questions.jsonl"
	maxHistorySize  = 1000
)

// Entry is a question asked from the chat box.
type Entry struct {
	Question string    `json:"question"`
	AskedAt  time.Time `json:"asked_at"`
}

// History is the list of previously asked questions, persisted as JSON lines.
// A cursor walks it from newest to oldest; the input being typed is kept aside while
// walking so it can be restored.
type History struct {
	mu      sync.Mutex
	path    string
	logger  *slog.Logger
	entries []Entry
	// -1 when not walking the history.
	cursor int
	draft  string
}

// NewHistory loads the history stored at path. An empty path uses the temp directory.
func NewHistory(path string) *History {
	if path == "" {
		path = filepath.Join(os.TempDir(), historyFileName)
	}
	h := &History{
		path:   path,
		logger: debug.GetLogger(),
		cursor: -1,
	}
	if err := h.load(); err != nil {
		h.logger.Warn("loading question history", "path", path, "error", err)
	}
	return h
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func (h *History) load() error {
	file, err := os.Open(h.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "opening history")
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil || entry.Question == "" {
			continue
		}
		h.entries = append(h.entries, entry)
	}
	h.entries = trim(h.entries)
	return errors.Wrap(scanner.Err(), "reading history")
}

// save rewrites the file. Callers hold the lock.
func (h *History) save() error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return errors.Wrap(err, "creating history directory")
	}
	file, err := os.Create(h.path)
	if err != nil {
		return errors.Wrap(err, "creating history")
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, entry := range h.entries {
		if err := encoder.Encode(entry); err != nil {
			return errors.Wrap(err, "encoding history entry")
		}
	}
	return errors.Wrap(writer.Flush(), "writing history")
}

// Add records a question. Blank questions and repeats of the last one are ignored.
func (h *History) Add(question string) {
	question = strings.TrimSpace(question)
	if question == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursor, h.draft = -1, ""
	if n := len(h.entries); n > 0 && h.entries[n-1].Question == question {
		return
	}
	h.entries = trim(append(h.entries, Entry{Question: question, AskedAt: time.Now().UTC()}))
	if err := h.save(); err != nil {
		h.logger.Warn("saving question history", "path", h.path, "error", err)
	}
}

// Previous steps back one question. input is the text being typed, restored by Next
// once the walk passes the newest entry. It returns false at the oldest entry.
func (h *History) Previous(input string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case len(h.entries) == 0:
		return "", false
	case h.cursor == -1:
		h.draft = input
		h.cursor = len(h.entries) - 1
	case h.cursor == 0:
		return h.entries[0].Question, false
	default:
		h.cursor--
	}
	return h.entries[h.cursor].Question, true
}

// Next steps forward one question, returning the saved input after the newest one.
func (h *History) Next() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor == -1 {
		return "", false
	}
	h.cursor++
	if h.cursor == len(h.entries) {
		h.cursor = -1
		return h.draft, true
	}
	return h.entries[h.cursor].Question, true
}

// Reset stops walking the history, typically because the input was edited.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursor, h.draft = -1, ""
}

func trim(entries []Entry) []Entry {
	if len(entries) > maxHistorySize {
		return entries[len(entries)-maxHistorySize:]
	}
	return entries
}
