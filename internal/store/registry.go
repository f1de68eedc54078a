package store

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"storefront/internal/config"
	"storefront/internal/model"
	"storefront/internal/persist"
)

// Registry keeps one Store per session. Stores idle for longer than the TTL are
// dropped from memory; their cart content stays in the persister and is restored
// the next time the session is opened.
type Registry struct {
	cfg       *config.Storefront
	persister persist.Persister
	logger    *slog.Logger
	onOpen    []func(*Store)

	mu     sync.Mutex
	stores *cache.Cache
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithSessionLogger sets the logger handed to every store.
func WithSessionLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// OnOpen runs fn for every store the registry builds, e.g. to subscribe listeners.
func OnOpen(fn func(*Store)) RegistryOption {
	return func(r *Registry) { r.onOpen = append(r.onOpen, fn) }
}

// NewRegistry creates a registry. A nil persister keeps carts only as long as the
// store stays in memory.
func NewRegistry(cfg *config.Storefront, p persist.Persister, ttl time.Duration, opts ...RegistryOption) *Registry {
	if ttl <= 0 {
		ttl = config.DefaultSessionTTL
	}
	r := &Registry{
		cfg:       cfg,
		persister: p,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		stores:    cache.New(ttl, ttl/2),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.stores.OnEvicted(func(id string, _ interface{}) {
		r.logger.Debug("session evicted", "session", id)
	})
	return r
}

// Create opens a store under a fresh session ID.
func (r *Registry) Create(ctx context.Context) *Store {
	s, _ := r.Open(ctx, uuid.NewString(), true)
	return s
}

// Open returns the store of session id. Unknown sessions are built when create is
// set or when the persister holds a cart for them; otherwise Open returns a
// not-found error. A newly created session's empty cart is saved right away.
func (r *Registry) Open(ctx context.Context, id string, create bool) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.stores.Get(id); ok {
		s := v.(*Store)
		r.stores.Set(id, s, cache.DefaultExpiration) // refresh idle timer
		return s, nil
	}

	restored := r.persisted(ctx, id)
	if !create && !restored {
		return nil, model.NewNotFoundError("session")
	}

	opts := []Option{WithLogger(r.logger.With("session", id))}
	if r.persister != nil {
		opts = append(opts, WithPersister(r.persister))
	}
	s := New(ctx, id, r.cfg, opts...)
	if create && !restored && r.persister != nil {
		// Saved up front so an untouched session survives idle eviction.
		if err := r.persister.Save(ctx, id, s.State().Cart.Content); err != nil {
			r.logger.Warn("persisting new session failed", "session", id, "error", err)
		}
	}
	for _, fn := range r.onOpen {
		fn(s)
	}
	r.stores.Set(id, s, cache.DefaultExpiration)
	r.logger.Debug("session opened", "session", id, "created", create)
	return s, nil
}

// Len returns the number of sessions held in memory.
func (r *Registry) Len() int {
	return r.stores.ItemCount()
}

func (r *Registry) persisted(ctx context.Context, id string) bool {
	if r.persister == nil {
		return false
	}
	_, found, err := r.persister.Load(ctx, id)
	if err != nil {
		r.logger.Warn("checking persisted session failed", "session", id, "error", err)
	}
	return found
}
