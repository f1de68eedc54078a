package config

import (
	"fmt"

	"golang.org/x/mod/semver"

	"storefront/internal/model"
)

// SupportedSchemaVersion is the storefront configuration schema this service reads.
// Configurations with a different major version are rejected at load time.
const SupportedSchemaVersion = "v2.1.0"

// DefaultDomain is the search/recommendation host suffix used when none is configured.
const DefaultDomain = "groupbycloud.com"

// Storefront is the read-only widget configuration. Adapters and reducers receive it
// as an argument and never modify it.
type Storefront struct {
	SchemaVersion   string                       `json:"schemaVersion,omitempty" yaml:"schemaVersion,omitempty"`
	CustomerID      string                       `json:"customerId" yaml:"customerId"`
	Area            string                       `json:"area,omitempty" yaml:"area,omitempty"`
	Collection      Selectable[CollectionOption] `json:"collection" yaml:"collection"`
	Network         Network                      `json:"network" yaml:"network"`
	Search          Search                       `json:"search" yaml:"search"`
	Autocomplete    Autocomplete                 `json:"autocomplete" yaml:"autocomplete"`
	Cart            Cart                         `json:"cart" yaml:"cart"`
	Recommendations Recommendations              `json:"recommendations" yaml:"recommendations"`
}

// Network holds outbound addressing.
type Network struct {
	Domain string `json:"domain,omitempty" yaml:"domain,omitempty"`
}

// Search configures the search slices of the initial state.
type Search struct {
	Fields   []string               `json:"fields,omitempty" yaml:"fields,omitempty"`
	PageSize Selectable[int]        `json:"pageSize" yaml:"pageSize"`
	Sort     Selectable[model.Sort] `json:"sort" yaml:"sort"`
}

// Autocomplete configures the autocomplete category field.
type Autocomplete struct {
	Category Selectable[string] `json:"category" yaml:"category"`
}

// Cart configures line-item construction and cart creation.
type Cart struct {
	CartType  string        `json:"cartType,omitempty" yaml:"cartType,omitempty"`
	Key       string        `json:"key,omitempty" yaml:"key,omitempty"` // "sku" (default) or "productId"
	Structure CartStructure `json:"structure" yaml:"structure"`
}

// CartStructure names the product data attributes a line item is built from.
type CartStructure struct {
	SKU       string   `json:"sku,omitempty" yaml:"sku,omitempty"`
	ProductID string   `json:"productId,omitempty" yaml:"productId,omitempty"`
	Title     string   `json:"title,omitempty" yaml:"title,omitempty"`
	Price     string   `json:"price,omitempty" yaml:"price,omitempty"`
	Metadata  []string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Recommendations configures biasing, recommendation calls and facet ordering.
type Recommendations struct {
	IDField       string        `json:"idField,omitempty" yaml:"idField,omitempty"`
	Size          int           `json:"size,omitempty" yaml:"size,omitempty"`
	Window        string        `json:"window,omitempty" yaml:"window,omitempty"`
	PastPurchases PastPurchases `json:"pastPurchases" yaml:"pastPurchases"`
	Navigations   Navigations   `json:"navigations" yaml:"navigations"`
	Refinements   Refinements   `json:"refinements" yaml:"refinements"`
}

// PastPurchases configures purchase-history biasing and facet filtering.
type PastPurchases struct {
	BiasCount     *int      `json:"biasCount,omitempty" yaml:"biasCount,omitempty"` // nil = no cap
	BiasInfluence float64   `json:"biasInfluence,omitempty" yaml:"biasInfluence,omitempty"`
	BiasStrength  string    `json:"biasStrength,omitempty" yaml:"biasStrength,omitempty"`
	SkuSort       string    `json:"skuSort,omitempty" yaml:"skuSort,omitempty"` // "quantity" (default) or "lastPurchased"
	Navigations   AllowList `json:"navigations,omitempty" yaml:"navigations,omitempty"`
}

// Navigations configures navigation ordering.
type Navigations struct {
	Sort   SortSetting `json:"sort" yaml:"sort"`
	Pinned []string    `json:"pinned,omitempty" yaml:"pinned,omitempty"`
}

// Refinements configures per-navigation refinement ordering.
type Refinements struct {
	Sort   SortSetting         `json:"sort" yaml:"sort"`
	Pinned map[string][]string `json:"pinned,omitempty" yaml:"pinned,omitempty"`
}

// EffectiveDomain returns the configured domain or DefaultDomain.
func (s *Storefront) EffectiveDomain() string {
	if s.Network.Domain != "" {
		return s.Network.Domain
	}
	return DefaultDomain
}

// Validate checks the fields the service cannot run without.
func (s *Storefront) Validate() error {
	if s.CustomerID == "" {
		return fmt.Errorf("customerId is required")
	}
	return CheckSchemaVersion(s.SchemaVersion)
}

// CheckSchemaVersion accepts an empty version (current schema) or any version whose
// major component matches SupportedSchemaVersion.
func CheckSchemaVersion(version string) error {
	if version == "" {
		return nil
	}
	v := version
	if v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid schemaVersion %q", version)
	}
	if semver.Major(v) != semver.Major(SupportedSchemaVersion) {
		return fmt.Errorf("unsupported schemaVersion %s (supported: %s.x)",
			version, semver.Major(SupportedSchemaVersion))
	}
	return nil
}
