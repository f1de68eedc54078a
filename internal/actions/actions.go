// Package actions defines the actions reducers respond to and their JSON envelope.
//
// On the wire an action is {"type": "ADD_TO_CART", "payload": {...}}. Decoding
// yields a typed value; types this service doesn't know decode to Unknown,
// which every reducer passes through unchanged.
package actions

import (
	"encoding/json"
	"fmt"
	"slices"

	"storefront/internal/model"
)

// Type names an action.
type Type string

const (
	TypeGetTrackerInfo                    Type = "GET_TRACKER_INFO"
	TypeCreateCart                        Type = "CREATE_CART"
	TypeCartCreated                       Type = "CART_CREATED"
	TypeAddToCart                         Type = "ADD_TO_CART"
	TypeCartServerUpdated                 Type = "CART_SERVER_UPDATED"
	TypeItemQuantityChanged               Type = "ITEM_QUANTITY_CHANGED"
	TypeRemoveItem                        Type = "REMOVE_ITEM"
	TypeReceiveProducts                   Type = "RECEIVE_PRODUCTS"
	TypeReceivePastPurchaseSkus           Type = "RECEIVE_PAST_PURCHASE_SKUS"
	TypeReceivePastPurchaseProducts       Type = "RECEIVE_PAST_PURCHASE_PRODUCTS"
	TypeReceiveNavigations                Type = "RECEIVE_NAVIGATIONS"
	TypeReceiveRecommendationsNavigations Type = "RECEIVE_RECOMMENDATIONS_NAVIGATIONS"
)

// Action is anything a store can dispatch.
type Action interface {
	Type() Type
}

// === Cart ===

// GetTrackerInfo records the visitor and session the cart belongs to.
type GetTrackerInfo struct {
	VisitorID string `json:"visitorId"`
	SessionID string `json:"sessionId"`
}

// CreateCart announces a pending cart creation; the effects runner performs it.
type CreateCart struct {
	LoginID   string `json:"loginId,omitempty"`
	VisitorID string `json:"visitorId"`
	SessionID string `json:"sessionId"`
}

// CartCreated carries the cart service's confirmation.
type CartCreated struct {
	CartID string `json:"cartId"`
}

// AddToCart adds a product. Quantity is coerced, not validated.
type AddToCart struct {
	Product  model.Product `json:"product"`
	Quantity any           `json:"quantity"`
}

// CartServerUpdated replaces cart totals and items with the server's view.
type CartServerUpdated struct {
	model.ServerCart
}

// ItemQuantityChanged sets the quantity of the line item matching Data.
type ItemQuantityChanged struct {
	Data     model.LineItem `json:"data"`
	Quantity any            `json:"quantity"`
}

// RemoveItem removes the line item matching Data.
type RemoveItem struct {
	Data model.LineItem `json:"data"`
}

// === Products, past purchases, navigations ===

// ReceiveProducts replaces the product list.
type ReceiveProducts struct {
	Products []model.Product `json:"products"`
}

// ReceivePastPurchaseSkus replaces the purchase history.
type ReceivePastPurchaseSkus struct {
	Skus []model.PastPurchaseSku `json:"skus"`
}

// ReceivePastPurchaseProducts replaces the products matching the purchase history.
type ReceivePastPurchaseProducts struct {
	Products []model.Product `json:"products"`
}

// ReceiveNavigations replaces the navigations shown to the shopper.
type ReceiveNavigations struct {
	Navigations []model.Navigation `json:"navigations"`
}

// ReceiveRecommendationsNavigations stores the popularity list navigations sort against.
type ReceiveRecommendationsNavigations struct {
	Navigations []model.RecommendationNavigation `json:"navigations"`
}

// Unknown is an action of a type this service doesn't handle. Its payload is kept verbatim.
type Unknown struct {
	Name    Type
	Payload json.RawMessage
}

func (GetTrackerInfo) Type() Type                    { return TypeGetTrackerInfo }
func (CreateCart) Type() Type                        { return TypeCreateCart }
func (CartCreated) Type() Type                       { return TypeCartCreated }
func (AddToCart) Type() Type                         { return TypeAddToCart }
func (CartServerUpdated) Type() Type                 { return TypeCartServerUpdated }
func (ItemQuantityChanged) Type() Type               { return TypeItemQuantityChanged }
func (RemoveItem) Type() Type                        { return TypeRemoveItem }
func (ReceiveProducts) Type() Type                   { return TypeReceiveProducts }
func (ReceivePastPurchaseSkus) Type() Type           { return TypeReceivePastPurchaseSkus }
func (ReceivePastPurchaseProducts) Type() Type       { return TypeReceivePastPurchaseProducts }
func (ReceiveNavigations) Type() Type                { return TypeReceiveNavigations }
func (ReceiveRecommendationsNavigations) Type() Type { return TypeReceiveRecommendationsNavigations }
func (u Unknown) Type() Type                         { return u.Name }

// envelope is the wire form of an action.
type envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var decoders = map[Type]func(json.RawMessage) (Action, error){
	TypeGetTrackerInfo:                    decodeAs[GetTrackerInfo],
	TypeCreateCart:                        decodeAs[CreateCart],
	TypeCartCreated:                       decodeAs[CartCreated],
	TypeAddToCart:                         decodeAs[AddToCart],
	TypeCartServerUpdated:                 decodeAs[CartServerUpdated],
	TypeItemQuantityChanged:               decodeAs[ItemQuantityChanged],
	TypeRemoveItem:                        decodeAs[RemoveItem],
	TypeReceiveProducts:                   decodeAs[ReceiveProducts],
	TypeReceivePastPurchaseSkus:           decodeAs[ReceivePastPurchaseSkus],
	TypeReceivePastPurchaseProducts:       decodeAs[ReceivePastPurchaseProducts],
	TypeReceiveNavigations:                decodeAs[ReceiveNavigations],
	TypeReceiveRecommendationsNavigations: decodeAs[ReceiveRecommendationsNavigations],
}

func decodeAs[T Action](raw json.RawMessage) (Action, error) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Decode parses an action envelope.
// It fails only on malformed JSON, a missing type, or a payload that doesn't
// fit its type's shape.
func Decode(data []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding action: %w", err)
	}
	return FromParts(env.Type, env.Payload)
}

// FromParts builds an action from a type name and its raw payload.
func FromParts(t Type, payload json.RawMessage) (Action, error) {
	if t == "" {
		return nil, fmt.Errorf("action type is required")
	}
	decode, ok := decoders[t]
	if !ok {
		return Unknown{Name: t, Payload: payload}, nil
	}
	a, err := decode(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", t, err)
	}
	return a, nil
}

// Encode writes an action in envelope form.
func Encode(a Action) ([]byte, error) {
	env := envelope{Type: a.Type()}
	if u, ok := a.(Unknown); ok {
		env.Payload = u.Payload
	} else {
		payload, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("encoding %s payload: %w", a.Type(), err)
		}
		env.Payload = payload
	}
	return json.Marshal(env)
}

// Known reports whether t has a typed payload.
func Known(t Type) bool {
	_, ok := decoders[t]
	return ok
}

// Types lists every known action type, sorted.
func Types() []Type {
	out := make([]Type, 0, len(decoders))
	for t := range decoders {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// HasInvalidQuantity reports whether the action carries a quantity that does not
// coerce to a finite number. Reducers accept such actions; the HTTP edge and the
// cart sync reject them because NaN and infinities cannot be written back as JSON.
func HasInvalidQuantity(a Action) bool {
	switch v := a.(type) {
	case AddToCart:
		return !model.IsFinite(model.CoerceQuantity(v.Quantity))
	case ItemQuantityChanged:
		return !model.IsFinite(model.CoerceQuantity(v.Quantity))
	case CartServerUpdated:
		for _, item := range v.Items {
			if !model.IsFinite(model.CoerceQuantity(item.Quantity)) {
				return true
			}
		}
	}
	return false
}
