// Package store holds the state tree of each storefront session.
//
// A Store is the single writer of its tree: dispatches are applied one at a time
// in arrival order, and subscribers see them in the same order. After each
// dispatch that changes the cart content, the content is saved to the persister.
// A dispatch whose cart would hold NaN or an infinity is not committed.
package store

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"sync"

	"storefront/internal/actions"
	"storefront/internal/adapter"
	"storefront/internal/config"
	"storefront/internal/model"
	"storefront/internal/persist"
	"storefront/internal/reducer"
	"storefront/internal/state"
)

// Listener is called after each dispatch with the resulting state.
// Listeners run in dispatch order and must not dispatch synchronously.
type Listener func(s state.State, a actions.Action)

// Store applies actions to one session's state tree.
type Store struct {
	id        string
	reduce    reducer.Reducer
	persister persist.Persister
	logger    *slog.Logger

	mu        sync.Mutex
	state     state.State
	listeners map[int]Listener
	nextID    int

	notifyMu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithPersister saves cart content after every change.
func WithPersister(p persist.Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New builds a store for session id starting from the configuration's initial
// state. With a persister, previously saved cart content is restored.
func New(ctx context.Context, id string, cfg *config.Storefront, opts ...Option) *Store {
	s := &Store{
		id:        id,
		reduce:    reducer.Root(cfg),
		state:     adapter.InitialState(cfg),
		listeners: make(map[int]Listener),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.persister != nil {
		cart, found, err := s.persister.Load(ctx, id)
		switch {
		case err != nil:
			s.logger.Warn("restoring cart failed, starting empty", "session", id, "error", err)
		case found:
			s.state.Cart.Content = cart
		}
	}
	return s
}

// ID returns the session ID.
func (s *Store) ID() string {
	return s.id
}

// State returns the current state tree.
func (s *Store) State() state.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a to the state tree and returns the result.
// Persistence failures are logged; they never undo or fail the dispatch.
// An action rejected by Apply leaves the state as it was.
func (s *Store) Dispatch(ctx context.Context, a actions.Action) state.State {
	next, _ := s.Apply(ctx, a)
	return next
}

// Apply is Dispatch with the commit check surfaced: when the reduced cart holds a
// quantity or price that cannot be written as JSON, the state is kept, listeners
// are not called, and a validation error is returned with the current state.
func (s *Store) Apply(ctx context.Context, a actions.Action) (state.State, error) {
	s.mu.Lock()
	prev := s.state.Cart.Content
	next := s.reduce(s.state, a)
	if !next.Cart.Content.Finite() {
		current := s.state
		s.mu.Unlock()
		s.logger.Warn("action rejected, cart would not be finite",
			"session", s.id,
			"action", a.Type(),
		)
		return current, model.NewValidationError("quantity", "cart quantities must stay finite")
	}
	s.state = next

	if s.persister != nil && !reflect.DeepEqual(prev, next.Cart.Content) {
		if err := s.persister.Save(ctx, s.id, next.Cart.Content); err != nil {
			s.logger.Warn("persisting cart failed",
				"session", s.id,
				"action", a.Type(),
				"error", err,
			)
		}
	}

	listeners := s.snapshotListeners()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	for _, l := range listeners {
		l(next, a)
	}
	return next, nil
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// snapshotListeners returns listeners in registration order. Caller holds mu.
func (s *Store) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			out = append(out, l)
		}
	}
	return out
}
