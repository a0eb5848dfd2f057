package logtail

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	defaultDebounce   = 100 * time.Millisecond
	defaultRetries    = 5
	defaultRetryDelay = 100 * time.Millisecond
)

// ErrStopped is returned once the watcher has been stopped.
var ErrStopped = errors.New("watcher stopped")

// Watcher reports the content of one file each time it changes.
type Watcher struct {
	path       string
	debounce   time.Duration
	retries    int
	retryDelay time.Duration
	logger     *zap.Logger

	mu        sync.RWMutex
	callbacks []func(string)

	fsw      *fsnotify.Watcher
	timer    *time.Timer
	timerMu  sync.Mutex
	fireMu   sync.Mutex
	done     chan struct{}
	stopOnce sync.Once
	started  bool
	wg       sync.WaitGroup
}

// New creates a watcher for path. Nothing is watched until Start is called.
func New(path string, logger *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		path:       abs,
		debounce:   defaultDebounce,
		retries:    defaultRetries,
		retryDelay: defaultRetryDelay,
		logger:     logger,
		done:       make(chan struct{}),
	}, nil
}

// Path returns the absolute path being followed.
func (w *Watcher) Path() string {
	return w.path
}

// OnChange registers a callback invoked with the new file content.
func (w *Watcher) OnChange(cb func(content string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// ReadContent reads the whole file, retrying while it cannot be opened.
func (w *Watcher) ReadContent() (string, error) {
	var lastErr error
	for attempt := 0; attempt < w.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(w.retryDelay):
			case <-w.done:
				return "", ErrStopped
			}
		}
		data, err := os.ReadFile(w.path)
		if err == nil {
			return string(data), nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("failed to read %s after %d attempts: %w", w.path, w.retries, lastErr)
}

// Start begins watching the file's directory in the background.
func (w *Watcher) Start() error {
	select {
	case <-w.done:
		return ErrStopped
	default:
	}
	if w.started {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.fsw = fsw
	w.started = true

	w.wg.Add(1)
	go w.loop()
	w.logger.Debug("Watching file", zap.String("path", w.path))
	return nil
}

// Stop ends watching and waits for a callback that is already running.
// No callback runs after Stop returns. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.timerMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.timerMu.Unlock()
		if w.fsw != nil {
			err = w.fsw.Close()
		}
		w.wg.Wait()
		// fire checks done under fireMu, so this waits out a running callback only.
		w.fireMu.Lock()
		w.fireMu.Unlock()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", zap.String("path", w.path), zap.Error(err))
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.fireMu.Lock()
	defer w.fireMu.Unlock()
	select {
	case <-w.done:
		return
	default:
	}

	content, err := w.ReadContent()
	if err != nil {
		if !errors.Is(err, ErrStopped) {
			w.logger.Warn("Failed to read watched file", zap.String("path", w.path), zap.Error(err))
		}
		return
	}

	w.mu.RLock()
	callbacks := append(([]func(string))(nil), w.callbacks...)
	w.mu.RUnlock()
	for _, cb := range callbacks {
		cb(content)
	}
}
