// Package persist stores the cart content of each session between requests.
// Only the cart content is persisted; everything else in the state tree is
// rebuilt from configuration.
package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/patrickmn/go-cache"

	"storefront/internal/model"
)

// KeyPrefix namespaces persisted carts.
const KeyPrefix = "storefront:cart:"

// Persister loads and saves cart content by session ID.
type Persister interface {
	// Load returns the stored cart; found is false when nothing was saved yet.
	Load(ctx context.Context, session string) (cart model.Cart, found bool, err error)
	Save(ctx context.Context, session string, cart model.Cart) error
}

// Key returns the storage key of a session's cart.
func Key(session string) string {
	return KeyPrefix + session
}

// Memory keeps carts in process memory. Entries never expire.
type Memory struct {
	c *cache.Cache
}

// NewMemory creates an empty in-memory persister.
func NewMemory() *Memory {
	return &Memory{c: cache.New(cache.NoExpiration, 0)}
}

// Load implements Persister.
func (m *Memory) Load(_ context.Context, session string) (model.Cart, bool, error) {
	v, ok := m.c.Get(Key(session))
	if !ok {
		return model.Cart{}, false, nil
	}
	return decode(v.([]byte))
}

// Save implements Persister. Carts are stored encoded so callers never share slices.
func (m *Memory) Save(_ context.Context, session string, cart model.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encoding cart: %w", err)
	}
	m.c.Set(Key(session), data, cache.DefaultExpiration)
	return nil
}

func decode(data []byte) (model.Cart, bool, error) {
	var cart model.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return model.Cart{}, false, fmt.Errorf("decoding cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []model.LineItem{}
	}
	return cart, true, nil
}

var (
	_ Persister = (*Memory)(nil)
	_ Persister = (*Redis)(nil)
)
