// Package watch uploads files as they appear in a directory.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/malonaz/sdoc/internal/file"
)

// DefaultDebounce is how long a file must stay quiet before it is handled.
const DefaultDebounce = 500 * time.Millisecond

// HandleFunc is called once per settled file.
type HandleFunc func(ctx context.Context, path string) error

// Watcher watches a directory for new or modified files.
type Watcher struct {
	watcher    *fsnotify.Watcher
	extensions *file.ExtensionSet
	debounce   time.Duration
	logger     *slog.Logger
}

// New creates a watcher handling files with the given extensions (all if empty).
func New(extensions []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating watcher")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		watcher:    w,
		extensions: file.NewExtensionSet(extensions...),
		debounce:   debounce,
		logger:     logger,
	}, nil
}

// Run watches dir until ctx is done, calling handle for every created or
// written file once it has been quiet for the debounce period.
// Handler errors are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context, dir string, handle HandleFunc) error {
	if err := w.watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "watching %s", dir)
	}
	w.logger.Info("watching directory", "dir", dir, "extensions", w.extensions.String())

	ready := make(chan string, 100)
	debouncer := newDebouncer(ctx, w.debounce, ready)
	defer debouncer.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.isWatched(event) {
				continue
			}
			debouncer.touch(event.Name)

		case path := <-ready:
			if err := handle(ctx, path); err != nil {
				w.logger.Error("handling file", "path", path, "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) isWatched(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	return w.extensions.Allows(event.Name)
}

// debouncer emits a path on ready once it has not been touched for a while.
type debouncer struct {
	ctx      context.Context
	delay    time.Duration
	ready    chan<- string
	mu       sync.Mutex
	timers   map[string]*time.Timer
	sequence map[string]uint64
}

func newDebouncer(ctx context.Context, delay time.Duration, ready chan<- string) *debouncer {
	return &debouncer{
		ctx:      ctx,
		delay:    delay,
		ready:    ready,
		timers:   map[string]*time.Timer{},
		sequence: map[string]uint64{},
	}
}

// touch restarts the quiet period of path and returns its new sequence number.
// A timer that already fired is replaced rather than reset; its callback sees a
// newer sequence and drops the path.
func (d *debouncer) touch(path string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if timer, ok := d.timers[path]; ok {
		timer.Stop()
	}
	d.sequence[path]++
	sequence := d.sequence[path]
	d.timers[path] = time.AfterFunc(d.delay, func() { d.fire(path, sequence) })
	return sequence
}

// fire emits path unless it was touched again after sequence.
func (d *debouncer) fire(path string, sequence uint64) {
	d.mu.Lock()
	if d.sequence[path] != sequence {
		d.mu.Unlock()
		return
	}
	delete(d.timers, path)
	delete(d.sequence, path)
	d.mu.Unlock()
	select {
	case d.ready <- path:
	case <-d.ctx.Done():
	}
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, timer := range d.timers {
		timer.Stop()
	}
}
