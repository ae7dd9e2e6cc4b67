package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
)

var refPattern = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// HasReference reports whether s contains a ${secret:name} reference.
func HasReference(s string) bool {
	return refPattern.MatchString(s)
}

type cached struct {
	value   string
	expires time.Time
}

// Resolver fetches secrets from its providers in order and caches values
// for a TTL. Zero TTL disables caching. It is safe for concurrent use.
type Resolver struct {
	providers []Provider
	ttl       time.Duration
	now       func() time.Time
	logger    *slog.Logger

	mu    sync.Mutex
	cache map[string]cached
}

// NewResolver creates a Resolver.
func NewResolver(providers []Provider, ttl time.Duration) *Resolver {
	return &Resolver{
		providers: providers,
		ttl:       ttl,
		now:       time.Now,
		logger:    slog.Default().With("component", "secrets"),
		cache:     make(map[string]cached),
	}
}

// WithLogger replaces the resolver's logger.
func (r *Resolver) WithLogger(logger *slog.Logger) *Resolver {
	if logger != nil {
		r.logger = logger.With("component", "secrets")
	}
	return r
}

// Get returns the value of name from the first provider that has it.
func (r *Resolver) Get(ctx context.Context, name string) (string, error) {
	if v, ok := r.lookup(name); ok {
		return v, nil
	}

	var errs []error
	for _, p := range r.providers {
		v, err := p.GetSecret(ctx, name)
		if err != nil {
			errs = append(errs, err)
			if !errors.Is(err, ErrNotFound) {
				r.logger.Warn("secret provider failed", "provider", p.Name(), "secret", redact(name), "error", err)
			}
			continue
		}
		r.store(name, v)
		r.logger.Debug("secret resolved", "provider", p.Name(), "secret", redact(name))
		return v, nil
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("%w: %s (no providers)", ErrNotFound, name)
	}
	return "", errors.Join(errs...)
}

// Resolve replaces every ${secret:name} in s. Text without references is
// returned unchanged. All failing names are reported together.
func (r *Resolver) Resolve(ctx context.Context, s string) (string, error) {
	if !HasReference(s) {
		return s, nil
	}
	var failed []string
	var errs []error
	out := refPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := strings.TrimSpace(refPattern.FindStringSubmatch(ref)[1])
		v, err := r.Get(ctx, name)
		if err != nil {
			failed = append(failed, name)
			errs = append(errs, err)
			return ref
		}
		return v
	})
	if len(errs) > 0 {
		return out, fmt.Errorf("unresolved secrets %s: %w", strings.Join(failed, ", "), errors.Join(errs...))
	}
	return out, nil
}

// ResolveAll resolves each pointed-to string in place.
func (r *Resolver) ResolveAll(ctx context.Context, fields ...*string) error {
	var errs []error
	for _, f := range fields {
		if f == nil {
			continue
		}
		v, err := r.Resolve(ctx, *f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*f = v
	}
	return errors.Join(errs...)
}

// Flush empties the cache.
func (r *Resolver) Flush() {
	r.mu.Lock()
	r.cache = make(map[string]cached)
	r.mu.Unlock()
}

func (r *Resolver) lookup(name string) (string, bool) {
	if r.ttl <= 0 {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cache[name]
	if !ok || !r.now().Before(c.expires) {
		return "", false
	}
	return c.value, true
}

func (r *Resolver) store(name, value string) {
	if r.ttl <= 0 {
		return
	}
	r.mu.Lock()
	r.cache[name] = cached{value: value, expires: r.now().Add(r.ttl)}
	r.mu.Unlock()
}

func redact(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}
