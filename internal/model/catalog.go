package model

// === Products ===

// Product is a search result record. Data holds the record's attributes as returned
// by the search service; which attribute is the identifier is configuration-driven.
type Product struct {
	ID   string         `json:"id,omitempty"`
	Data map[string]any `json:"data"`
}

// Field returns the named data attribute, or nil if absent.
func (p Product) Field(name string) any {
	if p.Data == nil {
		return nil
	}
	return p.Data[name]
}

// Sort is a search sort option.
type Sort struct {
	Field      string `json:"field" yaml:"field"`
	Descending bool   `json:"descending,omitempty" yaml:"descending,omitempty"`
}

// === Navigations ===

// Navigation is a facet exposed to the search UI.
type Navigation struct {
	Field       string       `json:"field"`
	Label       string       `json:"label,omitempty"`
	Range       bool         `json:"range,omitempty"`
	Refinements []Refinement `json:"refinements"`
}

// Refinement is either a value refinement (Value set) or a range refinement (Low/High set).
type Refinement struct {
	Value   string   `json:"value,omitempty"`
	Display string   `json:"display,omitempty"`
	Low     *float64 `json:"low,omitempty"`
	High    *float64 `json:"high,omitempty"`
	Total   int      `json:"total,omitempty"`
}

// IsRange reports whether r is a range refinement.
func (r Refinement) IsRange() bool {
	return r.Low != nil || r.High != nil
}
