package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is zero.
const DefaultDebounce = 250 * time.Millisecond

// Config selects what to watch.
type Config struct {
	// Paths are input files or directories. Every non-hidden regular file
	// inside a listed directory is an input.
	Paths []string

	// Debounce is the quiet period before a change is reported.
	Debounce time.Duration

	// Extensions limits directory inputs to these extensions. Empty means any.
	// Files listed explicitly are always watched.
	Extensions []string
}

// Watcher reports changed input files.
type Watcher struct {
	fs     *fsnotify.Watcher
	logger *slog.Logger
	cfg    Config

	files map[string]bool
	dirs  map[string]bool

	mu         sync.Mutex
	debouncers map[string]*Debouncer
	running    bool
}

// New resolves cfg.Paths and creates a watcher. Every path must exist.
func New(cfg Config, logger *slog.Logger) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, errors.New("watch: no paths given")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		logger:     logger,
		cfg:        cfg,
		files:      make(map[string]bool),
		dirs:       make(map[string]bool),
		debouncers: make(map[string]*Debouncer),
	}
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %q: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("watch: %w", err)
		}
		if info.IsDir() {
			w.dirs[abs] = true
		} else {
			w.files[abs] = true
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	w.fs = fsw
	return w, nil
}

// Watch blocks until ctx is done, calling onChange with the path of each
// input that was written or created. Callbacks for different files may run
// concurrently. A Watcher is single use: Watch closes it on return.
func (w *Watcher) Watch(ctx context.Context, onChange func(path string)) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer w.shutdown()

	for _, dir := range w.watchDirs() {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %q: %w", dir, err)
		}
	}

	w.logger.Info("watching inputs",
		"files", len(w.files),
		"dirs", len(w.dirs),
		"debounce", w.cfg.Debounce,
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("input watch stopped")
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			path := filepath.Clean(event.Name)
			w.logger.Debug("input changed", "path", path, "op", event.Op.String())
			w.debouncer(path).Trigger(func() {
				if ctx.Err() != nil {
					return
				}
				onChange(path)
			})

		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

// Inputs lists the files currently matched by the watched paths.
func (w *Watcher) Inputs() ([]string, error) {
	var out []string
	for f := range w.files {
		out = append(out, f)
	}
	for dir := range w.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", dir, err)
		}
		for _, e := range entries {
			p := filepath.Join(dir, e.Name())
			if e.Type().IsRegular() && w.dirInput(p) {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (w *Watcher) watchDirs() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(d string) {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	for d := range w.dirs {
		add(d)
	}
	for f := range w.files {
		add(filepath.Dir(f))
	}
	return out
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	path := filepath.Clean(event.Name)
	if w.files[path] {
		return true
	}
	if !w.dirs[filepath.Dir(path)] || !w.dirInput(path) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (w *Watcher) dirInput(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if len(w.cfg.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, want := range w.cfg.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

func (w *Watcher) debouncer(path string) *Debouncer {
	w.mu.Lock()
	defer w.mu.Unlock()
	d, ok := w.debouncers[path]
	if !ok {
		d = NewDebouncer(w.cfg.Debounce)
		w.debouncers[path] = d
	}
	return d
}

func (w *Watcher) shutdown() {
	w.mu.Lock()
	for _, d := range w.debouncers {
		d.Stop()
	}
	w.running = false
	w.mu.Unlock()

	if err := w.fs.Close(); err != nil {
		w.logger.Warn("failed to close file watcher", "error", err)
	}
}
