package model

// === Past purchases & biasing ===

// PastPurchaseSku is one entry of a shopper's purchase history.
type PastPurchaseSku struct {
	SKU           string  `json:"sku"`
	Quantity      float64 `json:"quantity"`
	LastPurchased int64   `json:"lastPurchased"` // epoch millis
}

// Bias is a ranking signal sent with a search or recommendation call.
type Bias struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	Strength string `json:"strength"`
}

// BiasingRequest is the biasing block derived from purchase history.
type BiasingRequest struct {
	BringToTop    []string `json:"bringToTop"`
	AugmentBiases bool     `json:"augmentBiases"`
	Influence     float64  `json:"influence"`
	Biases        []Bias   `json:"biases"`
}

// === Recommendations ===

// RecommendationNavigation is a navigation ranked by the recommendations service,
// with its values in popularity order.
type RecommendationNavigation struct {
	Name   string                `json:"name"`
	Values []RecommendationValue `json:"values"`
}

// RecommendationValue is a ranked navigation value.
type RecommendationValue struct {
	Value string `json:"value"`
	Count int    `json:"count,omitempty"`
}

// RecommendationsRequest is the body of a popular-navigations call.
type RecommendationsRequest struct {
	Size   int    `json:"size"`
	Window string `json:"window"`
	Type   string `json:"type"`
}

// RecommendationsResponse wraps the ranked navigations returned by the service.
type RecommendationsResponse struct {
	Result []RecommendationNavigation `json:"result"`
}
