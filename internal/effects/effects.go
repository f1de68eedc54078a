// Package effects performs the outbound calls some actions imply and feeds the
// results back into the session store as new actions.
package effects

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"storefront/internal/actions"
	"storefront/internal/adapter"
	"storefront/internal/bridge"
	"storefront/internal/config"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/state"
)

// Effect names used in logs and metrics.
const (
	EffectCreateCart         = "create_cart"
	EffectSyncCart           = "sync_cart"
	EffectRefreshNavigations = "refresh_navigations"
)

// Dispatcher is the part of a session store the runner needs.
type Dispatcher interface {
	ID() string
	State() state.State
	Dispatch(ctx context.Context, a actions.Action) state.State
}

// Runner executes side effects against the bridge.
type Runner struct {
	cfg     *config.Storefront
	service bridge.Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a Runner. Logger and metrics may be nil.
func New(cfg *config.Storefront, service bridge.Service, logger *slog.Logger, m *metrics.Metrics) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{cfg: cfg, service: service, logger: logger, metrics: m}
}

// After runs the effect implied by a, which has already been dispatched to d.
// Actions without an effect are ignored.
func (r *Runner) After(ctx context.Context, d Dispatcher, a actions.Action) error {
	switch v := a.(type) {
	case actions.CreateCart:
		_, err := r.CreateCart(ctx, d, v)
		return err
	}
	return nil
}

// CreateCart asks the cart service for a new cart and dispatches CART_CREATED.
// Visitor and session IDs missing from a fall back to those already in the cart.
func (r *Runner) CreateCart(ctx context.Context, d Dispatcher, a actions.CreateCart) (state.State, error) {
	started := time.Now()
	cart := d.State().Cart.Content

	req := adapter.BuildCreateCartBody(r.cfg.CustomerID, r.cfg.EffectiveDomain(), model.CreateCartBody{
		LoginID:   a.LoginID,
		VisitorID: firstNonEmpty(a.VisitorID, cart.VisitorID),
		SessionID: firstNonEmpty(a.SessionID, cart.SessionID),
		CartType:  r.cfg.Cart.CartType,
	})

	conf, err := r.service.CreateCart(ctx, req)
	r.record(EffectCreateCart, d, started, err)
	if err != nil {
		return d.State(), err
	}
	return d.Dispatch(ctx, actions.CartCreated{CartID: conf.CartID}), nil
}

// SyncCart reads the server cart and dispatches CART_SERVER_UPDATED.
// A server cart whose item quantities do not coerce to finite numbers is refused
// as an upstream error and leaves the session untouched.
func (r *Runner) SyncCart(ctx context.Context, d Dispatcher) (state.State, error) {
	started := time.Now()
	cartID := d.State().Cart.Content.CartID
	if cartID == "" {
		return d.State(), model.NewValidationError("cartId", "session has no server cart yet")
	}

	req := adapter.BuildGetCartRequest(r.cfg.CustomerID, r.cfg.EffectiveDomain(), cartID)
	serverCart, err := r.service.GetCart(ctx, req)
	update := actions.CartServerUpdated{ServerCart: serverCart}
	if err == nil && actions.HasInvalidQuantity(update) {
		err = model.NewUpstreamError("cart service", fmt.Errorf("cart %s has a non-numeric item quantity", cartID))
	}
	r.record(EffectSyncCart, d, started, err)
	if err != nil {
		return d.State(), err
	}
	return d.Dispatch(ctx, update), nil
}

// RefreshNavigations fetches popular navigations and dispatches
// RECEIVE_RECOMMENDATIONS_NAVIGATIONS.
func (r *Runner) RefreshNavigations(ctx context.Context, d Dispatcher) (state.State, error) {
	started := time.Now()
	req := adapter.BuildNavigationsRequest(r.cfg.CustomerID, r.cfg.EffectiveDomain(), r.cfg.Recommendations)

	navs, err := r.service.RecommendationNavigations(ctx, req)
	r.record(EffectRefreshNavigations, d, started, err)
	if err != nil {
		return d.State(), err
	}
	return d.Dispatch(ctx, actions.ReceiveRecommendationsNavigations{Navigations: navs}), nil
}

func (r *Runner) record(effect string, d Dispatcher, started time.Time, err error) {
	r.metrics.RecordEffect(effect, started, err)
	if err != nil {
		r.logger.Warn("effect failed",
			slog.String("effect", effect),
			slog.String("session", d.ID()),
			slog.String("error", err.Error()))
		return
	}
	r.logger.Debug("effect completed",
		slog.String("effect", effect),
		slog.String("session", d.ID()),
		slog.Duration("duration", time.Since(started)))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
