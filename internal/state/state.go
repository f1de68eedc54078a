// Package state defines the storefront state tree a session store holds.
package state

import "storefront/internal/model"

// State is the full tree. Data is derived from configuration once; the other
// slices are owned by their reducers.
type State struct {
	Data          Data            `json:"data"`
	Cart          Cart            `json:"cart"`
	Products      []model.Product `json:"products"`
	PastPurchases PastPurchases   `json:"pastPurchases"`
	Navigations   Navigations     `json:"navigations"`
}

// Cart wraps the persisted cart content. Only Content survives a restart.
type Cart struct {
	Content model.Cart `json:"content"`
}

// Data is the configuration-derived search slice.
type Data struct {
	Area         string       `json:"area"`
	Collections  Collections  `json:"collections"`
	Fields       []string     `json:"fields"`
	PageSize     PageSizes    `json:"pageSize"`
	Sorts        Sorts        `json:"sorts"`
	Autocomplete Autocomplete `json:"autocomplete"`
}

// Collections lists the searchable collections and which one is selected.
type Collections struct {
	Selected string                `json:"selected"`
	AllIDs   []string              `json:"allIds"`
	ByID     map[string]Collection `json:"byId"`
}

// Collection is one searchable collection.
type Collection struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Total       int    `json:"total"`
}

// PageSizes lists the page size choices; Selected is an index into Items.
type PageSizes struct {
	Items    []int `json:"items"`
	Selected int   `json:"selected"`
}

// Sorts lists the sort choices; Selected is an index into Items.
type Sorts struct {
	Items    []model.Sort `json:"items"`
	Selected int          `json:"selected"`
}

// Autocomplete holds the autocomplete category configuration.
type Autocomplete struct {
	Category AutocompleteCategory `json:"category"`
}

// AutocompleteCategory names the field autocomplete suggestions are grouped by.
type AutocompleteCategory struct {
	Field  string   `json:"field,omitempty"`
	Values []string `json:"values"`
}

// PastPurchases holds the shopper's purchase history and the matching products.
type PastPurchases struct {
	Skus     []model.PastPurchaseSku  `json:"skus"`
	Products map[string]model.Product `json:"products"`
}

// Navigations holds the facets shown to the shopper and the popularity list
// they are sorted against.
type Navigations struct {
	Items     []model.Navigation               `json:"items"`
	Reference []model.RecommendationNavigation `json:"reference"`
}
