package adapter

import (
	"cmp"
	"slices"

	"storefront/internal/config"
	"storefront/internal/model"
)

// Defaults applied to past-purchase biasing when unset.
const (
	DefaultIDField      = "productId"
	DefaultBiasStrength = "Medium_Increase"
)

// PastPurchaseBiasing turns the (already sorted) purchase history into a biasing
// block. BiasCount caps the number of biases: nil means no cap, a negative count
// drops that many entries from the end.
func PastPurchaseBiasing(cfg config.PastPurchases, idField string, skus []model.PastPurchaseSku) model.BiasingRequest {
	name := withDefault(idField, DefaultIDField)
	strength := withDefault(cfg.BiasStrength, DefaultBiasStrength)

	selected := skus[:biasLimit(cfg.BiasCount, len(skus))]
	biases := make([]model.Bias, 0, len(selected))
	for _, sku := range selected {
		biases = append(biases, model.Bias{Name: name, Content: sku.SKU, Strength: strength})
	}

	return model.BiasingRequest{
		BringToTop:    []string{},
		AugmentBiases: true,
		Influence:     cfg.BiasInfluence,
		Biases:        biases,
	}
}

func biasLimit(count *int, n int) int {
	if count == nil {
		return n
	}
	c := *count
	if c < 0 {
		c += n
	}
	return max(0, min(c, n))
}

// ProductKeyFunc selects the identifier products are indexed by.
type ProductKeyFunc func(model.Product) string

// ProductField keys products by a data attribute; an empty name uses Product.ID.
func ProductField(name string) ProductKeyFunc {
	if name == "" {
		return func(p model.Product) string { return p.ID }
	}
	return func(p model.Product) string { return model.StringValue(p.Field(name)) }
}

// PastPurchaseProducts indexes products by key. On duplicate keys the last product wins.
func PastPurchaseProducts(products []model.Product, key ProductKeyFunc) map[string]model.Product {
	out := make(map[string]model.Product, len(products))
	for _, p := range products {
		out[key(p)] = p
	}
	return out
}

// SkuField selects the numeric field purchase history is ordered by.
type SkuField func(model.PastPurchaseSku) float64

// SkuQuantity orders by purchased quantity.
func SkuQuantity(s model.PastPurchaseSku) float64 { return s.Quantity }

// SkuLastPurchased orders by purchase recency.
func SkuLastPurchased(s model.PastPurchaseSku) float64 { return float64(s.LastPurchased) }

// SkuFieldByName maps a configured sort name to its selector. Unknown names sort by quantity.
func SkuFieldByName(name string) SkuField {
	if name == "lastPurchased" {
		return SkuLastPurchased
	}
	return SkuQuantity
}

// SortSkus returns a copy of skus ordered by field, highest first. Ties keep their order.
func SortSkus(skus []model.PastPurchaseSku, field SkuField) []model.PastPurchaseSku {
	out := slices.Clone(skus)
	if out == nil {
		out = []model.PastPurchaseSku{}
	}
	slices.SortStableFunc(out, func(a, b model.PastPurchaseSku) int {
		return cmp.Compare(field(b), field(a))
	})
	return out
}

// PastPurchaseNavigations filters navigations against a per-field allow-list.
// Fields missing from the list are dropped. An empty entry keeps every refinement.
// Otherwise only value refinements named in the list survive, in their original
// order, labelled with the list's display text when it has one. Range refinements
// carry no value and never match.
func PastPurchaseNavigations(allow config.AllowList, navs []model.Navigation) []model.Navigation {
	out := make([]model.Navigation, 0, len(navs))
	for _, nav := range navs {
		entries, ok := allow[nav.Field]
		if !ok {
			continue
		}
		if len(entries) == 0 {
			nav.Refinements = slices.Clone(nav.Refinements)
			out = append(out, nav)
			continue
		}

		kept := make([]model.Refinement, 0, len(nav.Refinements))
		for _, ref := range nav.Refinements {
			if ref.IsRange() {
				continue
			}
			i := slices.IndexFunc(entries, func(e config.AllowEntry) bool { return e.Value == ref.Value })
			if i < 0 {
				continue
			}
			if entries[i].Display != "" {
				ref.Display = entries[i].Display
			}
			kept = append(kept, ref)
		}
		nav.Refinements = kept
		out = append(out, nav)
	}
	return out
}
