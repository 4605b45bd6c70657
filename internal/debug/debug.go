package debug

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const defaultLogPath = "/tmp/sdoc-debug.log"

var (
	once   sync.Once
	mu     sync.Mutex
	path   = defaultLogPath
	level  = slog.LevelInfo
	output io.Writer
	logger *slog.Logger
)

// Configure sets where and at which level the logger writes. It only has an effect
// before the first call to GetLogger.
func Configure(logPath, logLevel string) {
	mu.Lock()
	defer mu.Unlock()
	if logPath != "" {
		path = logPath
	}
	level = ParseLevel(logLevel)
}

// SetOutput makes the logger write to w instead of a file. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// ParseLevel maps a config level name to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetLogger returns a singleton slog logger instance.
// Logs go to a file so they never corrupt the terminal UI.
func GetLogger() *slog.Logger {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		w := output
		if w == nil {
			f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
			if err != nil {
				w = io.Discard
			} else {
				w = f
			}
		}
		logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		}))
	})
	return logger
}
