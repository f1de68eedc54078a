// Package adapter holds the pure transforms between storefront configuration,
// server payloads and the state tree. Nothing here performs I/O or returns errors:
// malformed input degrades to zero values, empty collections or NaN quantities.
package adapter

import (
	"slices"

	"storefront/internal/config"
	"storefront/internal/model"
	"storefront/internal/state"
)

// DefaultArea is used when the configuration names no area.
const DefaultArea = "Production"

// DefaultPageSize is the single page size offered when none is configured.
const DefaultPageSize = 10

// ExtractArea returns the configured search area.
func ExtractArea(cfg *config.Storefront) string {
	if cfg.Area != "" {
		return cfg.Area
	}
	return DefaultArea
}

// ExtractCollections normalises the collection setting into the collections slice.
// A {value, label} option uses its label as display name; bare names display as-is.
func ExtractCollections(cfg *config.Storefront) state.Collections {
	opts := cfg.Collection.Options()
	c := state.Collections{
		AllIDs: make([]string, 0, len(opts)),
		ByID:   make(map[string]state.Collection, len(opts)),
	}
	for _, opt := range opts {
		display := opt.Label
		if display == "" {
			display = opt.Value
		}
		if _, seen := c.ByID[opt.Value]; !seen {
			c.AllIDs = append(c.AllIDs, opt.Value)
		}
		c.ByID[opt.Value] = state.Collection{Name: opt.Value, DisplayName: display}
	}
	if def, ok := cfg.Collection.Default(); ok {
		c.Selected = def.Value
	}
	return c
}

// ExtractFields returns the configured result fields, never nil.
func ExtractFields(cfg *config.Storefront) []string {
	if cfg.Search.Fields == nil {
		return []string{}
	}
	return slices.Clone(cfg.Search.Fields)
}

// ExtractPageSizes returns the page size choices and the index of the default.
func ExtractPageSizes(cfg *config.Storefront) state.PageSizes {
	if cfg.Search.PageSize.IsZero() {
		return state.PageSizes{Items: []int{DefaultPageSize}}
	}
	return state.PageSizes{
		Items:    slices.Clone(cfg.Search.PageSize.Options()),
		Selected: cfg.Search.PageSize.SelectedIndex(),
	}
}

// ExtractSorts returns the sort choices and the index of the default.
func ExtractSorts(cfg *config.Storefront) state.Sorts {
	return state.Sorts{
		Items:    slices.Clone(cfg.Search.Sort.Options()),
		Selected: cfg.Search.Sort.SelectedIndex(),
	}
}

// ExtractAutocompleteCategory returns the category field autocomplete groups by.
// Values start empty and are filled from autocomplete responses.
func ExtractAutocompleteCategory(cfg *config.Storefront) state.AutocompleteCategory {
	field, _ := cfg.Autocomplete.Category.Default()
	return state.AutocompleteCategory{Field: field, Values: []string{}}
}

// InitialState assembles the state tree a new session starts from.
func InitialState(cfg *config.Storefront) state.State {
	return state.State{
		Data: state.Data{
			Area:        ExtractArea(cfg),
			Collections: ExtractCollections(cfg),
			Fields:      ExtractFields(cfg),
			PageSize:    ExtractPageSizes(cfg),
			Sorts:       ExtractSorts(cfg),
			Autocomplete: state.Autocomplete{
				Category: ExtractAutocompleteCategory(cfg),
			},
		},
		Cart:     state.Cart{Content: EmptyCart()},
		Products: []model.Product{},
		PastPurchases: state.PastPurchases{
			Skus:     []model.PastPurchaseSku{},
			Products: map[string]model.Product{},
		},
		Navigations: state.Navigations{
			Items:     []model.Navigation{},
			Reference: []model.RecommendationNavigation{},
		},
	}
}

// EmptyCart is the cart content of a session that has not added anything yet.
func EmptyCart() model.Cart {
	return model.Cart{Items: []model.LineItem{}}
}
