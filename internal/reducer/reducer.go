// Package reducer maps (state, action) to the next state.
// Reducers are pure: they read configuration from their arguments, never modify
// their inputs, and return the slice unchanged for actions they don't handle.
package reducer

import (
	"storefront/internal/actions"
	"storefront/internal/adapter"
	"storefront/internal/config"
	"storefront/internal/model"
	"storefront/internal/state"
)

// Reducer computes the next state tree.
type Reducer func(state.State, actions.Action) state.State

// Root combines every slice reducer. The configuration-derived Data slice is static.
func Root(cfg *config.Storefront) Reducer {
	return func(s state.State, a actions.Action) state.State {
		s.Cart = Cart(cfg, s.Cart, a)
		s.Products = Products(s.Products, a)
		s.PastPurchases = PastPurchases(cfg, s.PastPurchases, a)
		s.Navigations = Navigations(cfg, s.Navigations, a)
		return s
	}
}

// Cart handles the cart actions. After every item mutation TotalQuantity is the
// sum of item quantities.
func Cart(cfg *config.Storefront, s state.Cart, a actions.Action) state.Cart {
	c := s.Content
	key := adapter.KeyFor(cfg.Cart)

	switch act := a.(type) {
	case actions.GetTrackerInfo:
		if act.VisitorID != "" {
			c.VisitorID = act.VisitorID
		}
		if act.SessionID != "" {
			c.SessionID = act.SessionID
		}
	case actions.CreateCart:
		// The request itself is an effect; state waits for CART_CREATED.
		return s
	case actions.CartCreated:
		c.CartID = act.CartID
	case actions.AddToCart:
		item := adapter.ProductTransform(act.Product, act.Quantity, cfg)
		c.Items = adapter.CombineLikeItems(c.Items, item, key)
		c.TotalQuantity = adapter.CalculateTotalQuantity(c.Items)
	case actions.CartServerUpdated:
		if act.CartID != "" {
			c.CartID = act.CartID
		}
		c.Items = adapter.MergeServerItemsWithState(c.Items, act.Items)
		c.TotalQuantity = adapter.CalculateTotalQuantity(c.Items)
		c.GeneratedTotalPrice = act.GeneratedTotalPrice
		c.LastModified = act.LastModified
	case actions.ItemQuantityChanged:
		c.Items = adapter.ChangeItemQuantity(c.Items, key(act.Data), model.CoerceQuantity(act.Quantity), key)
		c.TotalQuantity = adapter.CalculateTotalQuantity(c.Items)
	case actions.RemoveItem:
		c.Items = adapter.RemoveItem(c.Items, key(act.Data), key)
		c.TotalQuantity = adapter.CalculateTotalQuantity(c.Items)
	default:
		return s
	}

	return state.Cart{Content: c}
}

// Products replaces the product list on RECEIVE_PRODUCTS.
func Products(s []model.Product, a actions.Action) []model.Product {
	act, ok := a.(actions.ReceiveProducts)
	if !ok {
		return s
	}
	if act.Products == nil {
		return []model.Product{}
	}
	return act.Products
}

// PastPurchases stores purchase history ordered by the configured sku field, and
// indexes past-purchase products by the configured id field.
func PastPurchases(cfg *config.Storefront, s state.PastPurchases, a actions.Action) state.PastPurchases {
	pp := cfg.Recommendations.PastPurchases

	switch act := a.(type) {
	case actions.ReceivePastPurchaseSkus:
		s.Skus = adapter.SortSkus(act.Skus, adapter.SkuFieldByName(pp.SkuSort))
	case actions.ReceivePastPurchaseProducts:
		idField := cfg.Recommendations.IDField
		if idField == "" {
			idField = adapter.DefaultIDField
		}
		s.Products = adapter.PastPurchaseProducts(act.Products, adapter.ProductField(idField))
	}
	return s
}

// Navigations orders received navigations against the stored popularity list.
// Navigations received before the list keep their order until the next
// RECEIVE_NAVIGATIONS.
func Navigations(cfg *config.Storefront, s state.Navigations, a actions.Action) state.Navigations {
	switch act := a.(type) {
	case actions.ReceiveNavigations:
		s.Items = adapter.SortAndPinNavigations(act.Navigations, s.Reference, cfg.Recommendations)
	case actions.ReceiveRecommendationsNavigations:
		s.Reference = act.Navigations
		if s.Reference == nil {
			s.Reference = []model.RecommendationNavigation{}
		}
	}
	return s
}
