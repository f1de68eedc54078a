package adapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"

	"storefront/internal/config"
	"storefront/internal/model"
)

// Product data attributes read when the cart structure leaves a field unset.
const (
	DefaultSKUField       = "sku"
	DefaultProductIDField = "id"
	DefaultTitleField     = "title"
	DefaultPriceField     = "price"
)

// DefaultCartType is sent on cart creation when none is configured.
const DefaultCartType = "web"

// KeyFunc selects the identity of a line item. Items with equal keys are the same entry.
type KeyFunc func(model.LineItem) string

// BySKU matches line items by SKU.
func BySKU(item model.LineItem) string { return item.SKU }

// ByProductID matches line items by product ID.
func ByProductID(item model.LineItem) string { return item.ProductID }

// KeyFor returns the key selector named by the cart configuration.
func KeyFor(cfg config.Cart) KeyFunc {
	if cfg.Key == "productId" {
		return ByProductID
	}
	return BySKU
}

// ProductTransform builds a line item from a product record and a requested quantity.
// The quantity is coerced without validation: anything non-numeric yields NaN.
func ProductTransform(product model.Product, quantity any, cfg *config.Storefront) model.LineItem {
	s := cfg.Cart.Structure

	item := model.LineItem{
		SKU:       model.StringValue(product.Field(withDefault(s.SKU, DefaultSKUField))),
		ProductID: model.StringValue(product.Field(withDefault(s.ProductID, DefaultProductIDField))),
		Title:     model.StringValue(product.Field(withDefault(s.Title, DefaultTitleField))),
		Price:     model.ParsePrice(product.Field(withDefault(s.Price, DefaultPriceField))),
		Quantity:  model.CoerceQuantity(quantity),
		Metadata:  []model.Metadata{},
	}
	if item.ProductID == "" {
		item.ProductID = product.ID
	}
	if def, ok := cfg.Collection.Default(); ok {
		item.Collection = def.Value
	}
	for _, key := range s.Metadata {
		if v := product.Field(key); v != nil {
			item.Metadata = append(item.Metadata, model.Metadata{Key: key, Value: model.StringValue(v)})
		}
	}
	return item
}

// CombineLikeItems adds newItem to items. When an entry with the same key exists its
// quantity grows by newItem.Quantity; otherwise newItem is appended.
// The input slice is never modified.
func CombineLikeItems(items []model.LineItem, newItem model.LineItem, key KeyFunc) []model.LineItem {
	out := slices.Clone(items)
	target := key(newItem)
	for i := range out {
		if key(out[i]) == target {
			out[i].Quantity += newItem.Quantity
			return out
		}
	}
	return append(out, newItem)
}

// CalculateTotalQuantity sums item quantities. NaN quantities propagate.
func CalculateTotalQuantity(items []model.LineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// ChangeItemQuantity sets the quantity of the item matching targetKey.
// A resulting quantity of 0 removes that item.
func ChangeItemQuantity(items []model.LineItem, targetKey string, quantity float64, key KeyFunc) []model.LineItem {
	out := make([]model.LineItem, 0, len(items))
	for _, item := range items {
		if key(item) == targetKey {
			if quantity == 0 {
				continue
			}
			item.Quantity = quantity
		}
		out = append(out, item)
	}
	return out
}

// RemoveItem returns items without the entries matching targetKey.
func RemoveItem(items []model.LineItem, targetKey string, key KeyFunc) []model.LineItem {
	out := make([]model.LineItem, 0, len(items))
	for _, item := range items {
		if key(item) != targetKey {
			out = append(out, item)
		}
	}
	return out
}

// MergeServerItemsWithState overlays the cart service's items onto local ones,
// matching by SKU. Fields the server reports win; the rest come from the local item.
// Items only the server knows are taken as reported. The server's order is kept.
func MergeServerItemsWithState(stateItems []model.LineItem, serverItems []model.ServerLineItem) []model.LineItem {
	out := make([]model.LineItem, 0, len(serverItems))
	for _, srv := range serverItems {
		var merged model.LineItem
		if i := slices.IndexFunc(stateItems, func(l model.LineItem) bool { return l.SKU == srv.SKU }); i >= 0 {
			merged = stateItems[i]
		}

		merged.SKU = srv.SKU
		if srv.ProductID != "" {
			merged.ProductID = srv.ProductID
		}
		if srv.Collection != "" {
			merged.Collection = srv.Collection
		}
		if srv.Title != "" {
			merged.Title = srv.Title
		}
		if srv.Price != nil {
			merged.Price = *srv.Price
		}
		if srv.Metadata != nil {
			merged.Metadata = srv.Metadata
		}
		if merged.Metadata == nil {
			merged.Metadata = []model.Metadata{}
		}
		merged.Quantity = model.CoerceQuantity(srv.Quantity)

		out = append(out, merged)
	}
	return out
}

// CartURL is the cart service collection endpoint for a customer.
func CartURL(customerID, domain string) string {
	return fmt.Sprintf("https://%s.%s/cart/v1/carts", customerID, withDefault(domain, config.DefaultDomain))
}

// BuildCreateCartBody describes the POST that creates a server-side cart.
// An empty cart type falls back to DefaultCartType.
func BuildCreateCartBody(customerID, domain string, body model.CreateCartBody) model.Request {
	body.CartType = withDefault(body.CartType, DefaultCartType)
	data, _ := json.Marshal(body) // plain strings, cannot fail
	return model.Request{
		Method: http.MethodPost,
		URL:    CartURL(customerID, domain),
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   data,
	}
}

// BuildGetCartRequest describes the GET that reads a server-side cart.
func BuildGetCartRequest(customerID, domain, cartID string) model.Request {
	return model.Request{
		Method: http.MethodGet,
		URL:    CartURL(customerID, domain) + "/" + url.PathEscape(cartID),
		Header: map[string]string{"Accept": "application/json"},
	}
}

func withDefault(val, def string) string {
	if val != "" {
		return val
	}
	return def
}
