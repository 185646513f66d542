// Package watch observes a seed drop directory and emits paths of seed
// files that are ready to enrich. Writers are expected to drop complete
// JSON files; events are debounced so partially written files settle
// before they are announced.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

const defaultSettle = 500 * time.Millisecond

// Watcher emits seed file paths as they land in a directory.
type Watcher struct {
	dir     string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	settle  time.Duration

	files chan string
	stop  chan struct{}

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher over dir, creating the directory if needed.
func New(dir string, logger *zap.Logger) (*Watcher, error) {
	if dir == "" {
		return nil, errors.New("watch directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create watch directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}

	return &Watcher{
		dir:     dir,
		watcher: fsw,
		logger:  logger,
		settle:  defaultSettle,
		files:   make(chan string, 16),
		stop:    make(chan struct{}),
		pending: make(map[string]*time.Timer),
	}, nil
}

// Start begins watching. Seed files already present are announced
// immediately so a restart picks up a backlog.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", w.dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && isSeedFile(entry.Name()) {
			w.emit(filepath.Join(w.dir, entry.Name()))
		}
	}

	go w.processEvents(ctx)
	return nil
}

// Files returns the channel of ready seed file paths.
func (w *Watcher) Files() <-chan string {
	return w.files
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
		return
	default:
		close(w.stop)
		_ = w.watcher.Close()
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isSeedFile(filepath.Base(event.Name)) {
				continue
			}
			w.schedule(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// schedule (re)arms the per-file settle timer; the file is announced
// only after writes stop for the settle window.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.emit(path)
	})
}

func (w *Watcher) emit(path string) {
	select {
	case w.files <- path:
	case <-w.stop:
	}
}

func isSeedFile(name string) bool {
	return strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".")
}
