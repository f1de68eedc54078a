package effects

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"storefront/internal/actions"
	"storefront/internal/bridge"
	"storefront/internal/config"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/store"
)

func testConfig() *config.Storefront {
	return &config.Storefront{
		CustomerID: "acme",
		Cart:       config.Cart{CartType: "mobile"},
	}
}

func TestCreateCart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	mock := &bridge.Mock{
		CreateCartFunc: func(ctx context.Context, req model.Request) (model.CartConfirmation, error) {
			return model.CartConfirmation{CartID: "c-1"}, nil
		},
	}
	st := store.New(ctx, "s", cfg)
	st.Dispatch(ctx, actions.GetTrackerInfo{VisitorID: "v-state", SessionID: "s-state"})

	runner := New(cfg, mock, nil, nil)
	got, err := runner.CreateCart(ctx, st, actions.CreateCart{LoginID: "me@example.com", VisitorID: "v-action"})
	if err != nil {
		t.Fatalf("CreateCart() error: %v", err)
	}
	if got.Cart.Content.CartID != "c-1" {
		t.Errorf("CartID = %q, want c-1", got.Cart.Content.CartID)
	}

	if len(mock.Requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(mock.Requests))
	}
	req := mock.Requests[0]
	if req.Method != http.MethodPost || !strings.HasPrefix(req.URL, "https://acme.groupbycloud.com/") {
		t.Errorf("request = %s %s", req.Method, req.URL)
	}
	var body model.CreateCartBody
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	want := model.CreateCartBody{LoginID: "me@example.com", VisitorID: "v-action", SessionID: "s-state", CartType: "mobile"}
	if body != want {
		t.Errorf("body = %+v, want %+v", body, want)
	}
}

func TestAfter(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	mock := &bridge.Mock{}
	st := store.New(ctx, "s", cfg)
	runner := New(cfg, mock, nil, nil)

	if err := runner.After(ctx, st, actions.RemoveItem{}); err != nil {
		t.Errorf("After(REMOVE_ITEM) error: %v", err)
	}
	if len(mock.Requests) != 0 {
		t.Errorf("REMOVE_ITEM triggered %d requests", len(mock.Requests))
	}

	if err := runner.After(ctx, st, actions.CreateCart{}); err != nil {
		t.Errorf("After(CREATE_CART) error: %v", err)
	}
	if st.State().Cart.Content.CartID != "mock-cart" {
		t.Errorf("CartID = %q, want mock-cart", st.State().Cart.Content.CartID)
	}
}

func TestCreateCartFailureLeavesState(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	mock := &bridge.Mock{
		CreateCartFunc: func(ctx context.Context, req model.Request) (model.CartConfirmation, error) {
			return model.CartConfirmation{}, model.NewUpstreamError("cart", errors.New("down"))
		},
	}
	st := store.New(ctx, "s", cfg)

	got, err := New(cfg, mock, nil, m).CreateCart(ctx, st, actions.CreateCart{})
	if !errors.Is(err, model.ErrUpstreamError) {
		t.Errorf("error = %v, want upstream error", err)
	}
	if got.Cart.Content.CartID != "" {
		t.Errorf("CartID = %q, want empty", got.Cart.Content.CartID)
	}
	if n := testutil.ToFloat64(m.EffectRuns.WithLabelValues(EffectCreateCart, metrics.OutcomeError)); n != 1 {
		t.Errorf("error count = %v, want 1", n)
	}
}

func TestSyncCart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	modified := int64(1700000000000)
	mock := &bridge.Mock{
		GetCartFunc: func(ctx context.Context, req model.Request) (model.ServerCart, error) {
			return model.ServerCart{
				CartID:              "c-1",
				GeneratedTotalPrice: 20,
				Items:               []model.ServerLineItem{{SKU: "a", Quantity: "2"}},
				LastModified:        &modified,
			}, nil
		},
	}
	st := store.New(ctx, "s", cfg)
	runner := New(cfg, mock, nil, nil)

	if _, err := runner.SyncCart(ctx, st); !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("SyncCart() without cart error = %v, want invalid request", err)
	}
	if len(mock.Requests) != 0 {
		t.Errorf("requests = %d, want 0", len(mock.Requests))
	}

	st.Dispatch(ctx, actions.CartCreated{CartID: "c-1"})
	got, err := runner.SyncCart(ctx, st)
	if err != nil {
		t.Fatalf("SyncCart() error: %v", err)
	}
	content := got.Cart.Content
	if content.GeneratedTotalPrice != 20 || content.TotalQuantity != 2 || len(content.Items) != 1 {
		t.Errorf("content = %+v", content)
	}
	if content.LastModified == nil || *content.LastModified != modified {
		t.Errorf("LastModified = %v", content.LastModified)
	}
	if !strings.HasSuffix(mock.Requests[0].URL, "/c-1") {
		t.Errorf("URL = %s", mock.Requests[0].URL)
	}
}

func TestSyncCartRejectsBadServerQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity any
	}{
		{"garbage string", "abc"},
		{"infinity string", "Infinity"},
		{"object", map[string]any{"n": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig()
			mock := &bridge.Mock{
				GetCartFunc: func(ctx context.Context, req model.Request) (model.ServerCart, error) {
					return model.ServerCart{
						CartID: "c-1",
						Items:  []model.ServerLineItem{{SKU: "a", Quantity: tt.quantity}},
					}, nil
				},
			}
			st := store.New(ctx, "s", cfg)
			st.Dispatch(ctx, actions.AddToCart{Product: model.Product{Data: map[string]any{"sku": "a"}}, Quantity: 1.0})
			st.Dispatch(ctx, actions.CartCreated{CartID: "c-1"})
			before := st.State().Cart.Content

			reg := prometheus.NewRegistry()
			m := metrics.New(reg)
			got, err := New(cfg, mock, nil, m).SyncCart(ctx, st)
			if !errors.Is(err, model.ErrUpstreamError) {
				t.Fatalf("SyncCart() error = %v, want upstream error", err)
			}
			if got.Cart.Content.TotalQuantity != 1 || !st.State().Cart.Content.Finite() {
				t.Errorf("content = %+v, want untouched cart", got.Cart.Content)
			}
			if st.State().Cart.Content.TotalQuantity != before.TotalQuantity {
				t.Errorf("TotalQuantity = %v, want %v", st.State().Cart.Content.TotalQuantity, before.TotalQuantity)
			}
			if n := testutil.ToFloat64(m.EffectRuns.WithLabelValues(EffectSyncCart, metrics.OutcomeError)); n != 1 {
				t.Errorf("error count = %v, want 1", n)
			}
		})
	}
}

func TestRefreshNavigations(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	ranked := []model.RecommendationNavigation{{Name: "brand", Values: []model.RecommendationValue{{Value: "Nike"}}}}
	mock := &bridge.Mock{
		RecommendationNavigationsFunc: func(ctx context.Context, req model.Request) ([]model.RecommendationNavigation, error) {
			return ranked, nil
		},
	}
	st := store.New(ctx, "s", cfg)

	got, err := New(cfg, mock, nil, nil).RefreshNavigations(ctx, st)
	if err != nil {
		t.Fatalf("RefreshNavigations() error: %v", err)
	}
	if len(got.Navigations.Reference) != 1 || got.Navigations.Reference[0].Name != "brand" {
		t.Errorf("Reference = %+v", got.Navigations.Reference)
	}
}
