// Package model defines the data structures shared by adapters, reducers and the bridge.
package model

// === Cart ===

// Cart is the persisted cart content of a storefront session.
// TotalQuantity mirrors the sum of Items[].Quantity after every item mutation.
type Cart struct {
	CartID              string     `json:"cartId"`
	Items               []LineItem `json:"items"`
	VisitorID           string     `json:"visitorId"`
	SessionID           string     `json:"sessionId"`
	TotalQuantity       float64    `json:"totalQuantity"`
	GeneratedTotalPrice float64    `json:"generatedTotalPrice"`
	LastModified        *int64     `json:"lastModified"` // epoch millis, nil until the server reports one
}

// Finite reports whether every number in the cart can be written as JSON.
func (c Cart) Finite() bool {
	if !IsFinite(c.TotalQuantity) || !IsFinite(c.GeneratedTotalPrice) {
		return false
	}
	for _, item := range c.Items {
		if !IsFinite(item.Quantity) || !IsFinite(item.Price) {
			return false
		}
	}
	return true
}

// LineItem is one cart entry. Items are matched by a key selector (usually SKU).
type LineItem struct {
	SKU        string     `json:"sku"`
	ProductID  string     `json:"productId"`
	Collection string     `json:"collection"`
	Price      float64    `json:"price"`
	Quantity   float64    `json:"quantity"`
	Title      string     `json:"title"`
	Metadata   []Metadata `json:"metadata"`
}

// Metadata is an extra key/value pair copied from product data into a line item.
type Metadata struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ServerLineItem is a line item as reported by the cart service.
// Quantity is left untyped so the merge can coerce it the same way client input is coerced.
// Zero-valued strings and a nil Price mean "not reported".
type ServerLineItem struct {
	SKU        string     `json:"sku"`
	ProductID  string     `json:"productId,omitempty"`
	Collection string     `json:"collection,omitempty"`
	Price      *float64   `json:"price,omitempty"`
	Quantity   any        `json:"quantity"`
	Title      string     `json:"title,omitempty"`
	Metadata   []Metadata `json:"metadata,omitempty"`
}

// ServerCart is the cart state returned by the cart service.
type ServerCart struct {
	CartID              string           `json:"cartId,omitempty"`
	GeneratedTotalPrice float64          `json:"generatedTotalPrice"`
	TotalQuantity       float64          `json:"totalQuantity"`
	Items               []ServerLineItem `json:"items"`
	LastModified        *int64           `json:"lastModified"`
}

// CreateCartBody is the outbound payload for cart creation.
type CreateCartBody struct {
	LoginID   string `json:"loginId,omitempty"`
	SessionID string `json:"sessionId"`
	VisitorID string `json:"visitorId"`
	CartType  string `json:"cartType"`
}

// CartConfirmation is the cart service response to a create request.
type CartConfirmation struct {
	CartID string `json:"cartId"`
}

// TrackerInfo identifies the visitor and browsing session a cart belongs to.
type TrackerInfo struct {
	VisitorID string `json:"visitorId"`
	SessionID string `json:"sessionId"`
}

// IsZero reports whether neither identifier is set.
func (t TrackerInfo) IsZero() bool {
	return t.VisitorID == "" && t.SessionID == ""
}
