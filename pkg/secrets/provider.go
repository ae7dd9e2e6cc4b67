package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// DefaultEnvPrefix namespaces secrets read from the environment.
const DefaultEnvPrefix = "INTELLIMAP_SECRET_"

// ErrNotFound is returned by a provider that has no value for a name.
var ErrNotFound = errors.New("secret not found")

// Provider looks up secret values by name.
type Provider interface {
	GetSecret(ctx context.Context, name string) (string, error)
	Name() string
}

// EnvProvider maps "azure-key" to the variable <Prefix>AZURE_KEY.
type EnvProvider struct {
	Prefix string
}

// NewEnvProvider creates an environment provider.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{Prefix: prefix}
}

// GetSecret reads the variable for name. Empty values count as missing.
func (p *EnvProvider) GetSecret(_ context.Context, name string) (string, error) {
	v := p.Var(name)
	if val := os.Getenv(v); val != "" {
		return val, nil
	}
	return "", fmt.Errorf("%w: %s (env %s)", ErrNotFound, name, v)
}

// Var returns the environment variable that holds name.
func (p *EnvProvider) Var(name string) string {
	return p.Prefix + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name))
}

func (p *EnvProvider) Name() string { return "env" }

// FileProvider reads <Dir>/<name>. Files must be mode 0600 or 0400 and their
// contents are trimmed of surrounding whitespace.
type FileProvider struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	values  map[string]string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileProvider creates a provider over dir. With watch set, changes in
// dir clear the provider's cache so rotated secrets are read again.
func NewFileProvider(dir string, watch bool, logger *slog.Logger) (*FileProvider, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("secrets dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("secrets dir %s is not a directory", dir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("secrets dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &FileProvider{
		dir:    abs,
		logger: logger.With("component", "secrets.file"),
		values: make(map[string]string),
		done:   make(chan struct{}),
	}
	if watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("create secrets watcher: %w", err)
		}
		if err := w.Add(abs); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("watch secrets dir: %w", err)
		}
		p.watcher = w
		go p.loop()
	}
	return p, nil
}

// GetSecret returns the trimmed contents of the file called name.
func (p *FileProvider) GetSecret(_ context.Context, name string) (string, error) {
	p.mu.RLock()
	v, ok := p.values[name]
	p.mu.RUnlock()
	if ok {
		return v, nil
	}

	path := filepath.Join(p.dir, name)
	if filepath.Dir(path) != p.dir {
		return "", fmt.Errorf("invalid secret name %q", name)
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s (file)", ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("stat secret %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret %s is not a regular file", name)
	}
	if perm := info.Mode().Perm(); perm != 0o600 && perm != 0o400 {
		return "", fmt.Errorf("insecure permissions on secret %s: %o (want 0600 or 0400)", name, perm)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- confined to p.dir above
	if err != nil {
		return "", fmt.Errorf("read secret %s: %w", name, err)
	}
	v = strings.TrimSpace(string(data))

	p.mu.Lock()
	p.values[name] = v
	p.mu.Unlock()
	return v, nil
}

func (p *FileProvider) Name() string { return "file" }

// Refresh drops every cached value.
func (p *FileProvider) Refresh() {
	p.mu.Lock()
	p.values = make(map[string]string)
	p.mu.Unlock()
}

// Close stops watching.
func (p *FileProvider) Close() error {
	if p.watcher == nil {
		return nil
	}
	close(p.done)
	return p.watcher.Close()
}

func (p *FileProvider) loop() {
	for {
		select {
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) {
				p.logger.Debug("secret file changed", "file", filepath.Base(ev.Name), "op", ev.Op.String())
				p.Refresh()
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("secrets watcher error", "error", err)
		case <-p.done:
			return
		}
	}
}
