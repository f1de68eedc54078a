package bridge

import (
	"context"

	"storefront/internal/model"
)

// Mock implements Service for testing.
// Each method can be configured via function fields.
type Mock struct {
	CreateCartFunc                func(ctx context.Context, req model.Request) (model.CartConfirmation, error)
	GetCartFunc                   func(ctx context.Context, req model.Request) (model.ServerCart, error)
	RecommendationNavigationsFunc func(ctx context.Context, req model.Request) ([]model.RecommendationNavigation, error)

	// Requests records every request descriptor received, in order.
	Requests []model.Request
}

// CreateCart calls the configured CreateCartFunc or returns a fixed cart ID.
func (m *Mock) CreateCart(ctx context.Context, req model.Request) (model.CartConfirmation, error) {
	m.Requests = append(m.Requests, req)
	if m.CreateCartFunc != nil {
		return m.CreateCartFunc(ctx, req)
	}
	return model.CartConfirmation{CartID: "mock-cart"}, nil
}

// GetCart calls the configured GetCartFunc or returns an error.
func (m *Mock) GetCart(ctx context.Context, req model.Request) (model.ServerCart, error) {
	m.Requests = append(m.Requests, req)
	if m.GetCartFunc != nil {
		return m.GetCartFunc(ctx, req)
	}
	return model.ServerCart{}, model.NewNotFoundError("cart")
}

// RecommendationNavigations calls the configured func or returns no navigations.
func (m *Mock) RecommendationNavigations(ctx context.Context, req model.Request) ([]model.RecommendationNavigation, error) {
	m.Requests = append(m.Requests, req)
	if m.RecommendationNavigationsFunc != nil {
		return m.RecommendationNavigationsFunc(ctx, req)
	}
	return []model.RecommendationNavigation{}, nil
}

// Verify Mock implements Service at compile time.
var _ Service = (*Mock)(nil)
