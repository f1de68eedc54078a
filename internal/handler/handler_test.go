package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"storefront/internal/actions"
	"storefront/internal/bridge"
	"storefront/internal/config"
	"storefront/internal/effects"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/persist"
	"storefront/internal/state"
	"storefront/internal/store"
)

func testStorefront() *config.Storefront {
	return &config.Storefront{CustomerID: "acme"}
}

func testHandler(mock *bridge.Mock) (*Handler, *http.ServeMux) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testStorefront()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	sessions := store.NewRegistry(cfg, persist.NewMemory(), 0,
		store.OnOpen(func(s *store.Store) {
			s.Subscribe(func(_ state.State, a actions.Action) { m.RecordAction(string(a.Type())) })
		}),
	)
	h := New(sessions, effects.New(cfg, mock, logger, m), logger, WithGatherer(reg))
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h, mux
}

// createSession opens a session over REST and returns its ID.
func createSession(t *testing.T, mux *http.ServeMux) string {
	t.Helper()
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("POST", "/sessions", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp sessionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return resp.ID
}

// dispatch posts an action envelope and returns the recorder.
func dispatch(mux *http.ServeMux, id, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/sessions/"+id+"/actions", strings.NewReader(body))
	if len(header) > 0 {
		req.Header.Set(middleware.TrackerHeader, header[0])
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func getErrorCode(body []byte) string {
	var resp errorResponse
	json.Unmarshal(body, &resp)
	return resp.Error.Code
}

func TestHandleHealth(t *testing.T) {
	_, mux := testHandler(&bridge.Mock{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp healthResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Status != "ok" {
		t.Errorf("Status = %s, want ok", resp.Status)
	}
}

func TestCreateSession(t *testing.T) {
	_, mux := testHandler(&bridge.Mock{})

	req := httptest.NewRequest("POST", "/sessions", nil)
	req.Header.Set(middleware.TrackerHeader, `visitor="v1", session="s1"`)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusCreated)
	}
	var resp sessionResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.ID == "" {
		t.Error("session ID is empty")
	}
	content := resp.State.Cart.Content
	if content.VisitorID != "v1" || content.SessionID != "s1" {
		t.Errorf("tracker = %q/%q, want v1/s1", content.VisitorID, content.SessionID)
	}
	if resp.State.Data.Area != "Production" {
		t.Errorf("Area = %q, want Production", resp.State.Data.Area)
	}
}

func TestUnknownSession(t *testing.T) {
	_, mux := testHandler(&bridge.Mock{})

	for _, path := range []string{"/sessions/missing/state", "/sessions/missing/cart"} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, w.Code)
		}
		if code := getErrorCode(w.Body.Bytes()); code != "NOT_FOUND" {
			t.Errorf("GET %s code = %q, want NOT_FOUND", path, code)
		}
	}
}

func TestDispatchAddToCart(t *testing.T) {
	_, mux := testHandler(&bridge.Mock{})
	id := createSession(t, mux)

	body := `{"type":"ADD_TO_CART","payload":{"product":{"data":{"sku":"a","title":"Shoe","price":"9.5"}},"quantity":"2"}}`
	w := dispatch(mux, id, body)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body = %s", w.Code, w.Body.String())
	}

	// Second add of the same SKU combines
	dispatch(mux, id, `{"type":"ADD_TO_CART","payload":{"product":{"data":{"sku":"a"}},"quantity":1}}`)

	cw := httptest.NewRecorder()
	mux.ServeHTTP(cw, httptest.NewRequest("GET", "/sessions/"+id+"/cart", nil))
	var cart model.Cart
	json.NewDecoder(cw.Body).Decode(&cart)
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 3 || cart.TotalQuantity != 3 {
		t.Errorf("cart = %+v", cart)
	}
	if cart.Items[0].Price != 9.5 || cart.Items[0].Title != "Shoe" {
		t.Errorf("item = %+v", cart.Items[0])
	}
}

func TestDispatchTrackerBeforeAction(t *testing.T) {
	mock := &bridge.Mock{}
	_, mux := testHandler(mock)
	id := createSession(t, mux)

	w := dispatch(mux, id, `{"type":"CREATE_CART","payload":{}}`, `visitor="v9", session="s9"`)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body = %s", w.Code, w.Body.String())
	}

	var st state.State
	json.NewDecoder(w.Body).Decode(&st)
	if st.Cart.Content.CartID != "mock-cart" {
		t.Errorf("CartID = %q, want mock-cart", st.Cart.Content.CartID)
	}

	var body model.CreateCartBody
	json.Unmarshal(mock.Requests[0].Body, &body)
	if body.VisitorID != "v9" || body.SessionID != "s9" {
		t.Errorf("create body = %+v, want tracker ids", body)
	}
}

func TestDispatchValidation(t *testing.T) {
	_, mux := testHandler(&bridge.Mock{})
	id := createSession(t, mux)

	tests := []struct {
		name   string
		id     string
		body   string
		header string
		status int
	}{
		{"invalid json", id, `{not json`, "", http.StatusBadRequest},
		{"missing type", id, `{"payload":{}}`, "", http.StatusBadRequest},
		{"nan quantity", id, `{"type":"ADD_TO_CART","payload":{"product":{"data":{"sku":"a"}},"quantity":"lots"}}`, "", http.StatusBadRequest},
		{"infinity quantity", id, `{"type":"ADD_TO_CART","payload":{"product":{"data":{"sku":"a"}},"quantity":"Infinity"}}`, "", http.StatusBadRequest},
		{"hex float quantity", id, `{"type":"ITEM_QUANTITY_CHANGED","payload":{"data":{"sku":"a"},"quantity":"0x1p3"}}`, "", http.StatusBadRequest},
		{"bad tracker", id, `{"type":"REMOVE_ITEM","payload":{}}`, `visitor=`, http.StatusBadRequest},
		{"unknown session", "nope", `{"type":"REMOVE_ITEM","payload":{}}`, "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tt.header != "" {
				w = dispatch(mux, tt.id, tt.body, tt.header)
			} else {
				w = dispatch(mux, tt.id, tt.body)
			}
			if w.Code != tt.status {
				t.Errorf("Status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestDispatchKeepsStateEncodable(t *testing.T) {
	_, mux := testHandler(&bridge.Mock{})
	id := createSession(t, mux)
	big := `{"type":"ADD_TO_CART","payload":{"product":{"data":{"sku":"a"}},"quantity":1e308}}`

	if w := dispatch(mux, id, `{"type":"ADD_TO_CART","payload":{"product":{"data":{"sku":"a"}},"quantity":"Infinity"}}`); w.Code != http.StatusBadRequest {
		t.Errorf("Infinity status = %d, want 400", w.Code)
	}
	if w := dispatch(mux, id, big); w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("first 1e308 status = %d, body len %d", w.Code, w.Body.Len())
	}
	w := dispatch(mux, id, big)
	if w.Code != http.StatusBadRequest {
		t.Errorf("overflowing add status = %d, want 400", w.Code)
	}
	if code := getErrorCode(w.Body.Bytes()); code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", code)
	}

	for _, path := range []string{"/state", "/cart"} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("GET", "/sessions/"+id+path, nil))
		if w.Code != http.StatusOK || w.Body.Len() == 0 {
			t.Errorf("GET %s status = %d, body len %d", path, w.Code, w.Body.Len())
		}
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/sessions/"+id+"/cart", nil))
	var cart model.Cart
	if err := json.NewDecoder(w.Body).Decode(&cart); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if cart.TotalQuantity != 1e308 {
		t.Errorf("TotalQuantity = %v, want 1e308", cart.TotalQuantity)
	}
}

func TestDispatchUnknownActionIsNoOp(t *testing.T) {
	_, mux := testHandler(&bridge.Mock{})
	id := createSession(t, mux)

	before := httptest.NewRecorder()
	mux.ServeHTTP(before, httptest.NewRequest("GET", "/sessions/"+id+"/state", nil))

	w := dispatch(mux, id, `{"type":"SOMETHING_ELSE","payload":{"x":1}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d", w.Code)
	}
	if !bytes.Equal(bytes.TrimSpace(before.Body.Bytes()), bytes.TrimSpace(w.Body.Bytes())) {
		t.Errorf("state changed:\nbefore %s\nafter  %s", before.Body.String(), w.Body.String())
	}
}

func TestDispatchEffectFailure(t *testing.T) {
	mock := &bridge.Mock{
		CreateCartFunc: func(ctx context.Context, req model.Request) (model.CartConfirmation, error) {
			return model.CartConfirmation{}, model.NewRateLimitError("cart")
		},
	}
	_, mux := testHandler(mock)
	id := createSession(t, mux)

	w := dispatch(mux, id, `{"type":"CREATE_CART","payload":{}}`)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want 429", w.Code)
	}
	if code := getErrorCode(w.Body.Bytes()); code != "RATE_LIMITED" {
		t.Errorf("code = %q, want RATE_LIMITED", code)
	}
}

func TestSyncCart(t *testing.T) {
	mock := &bridge.Mock{
		GetCartFunc: func(ctx context.Context, req model.Request) (model.ServerCart, error) {
			return model.ServerCart{GeneratedTotalPrice: 42, Items: []model.ServerLineItem{{SKU: "a", Quantity: 4}}}, nil
		},
	}
	_, mux := testHandler(mock)
	id := createSession(t, mux)

	// No server cart yet
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("POST", "/sessions/"+id+"/cart/sync", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("sync without cart status = %d, want 400", w.Code)
	}

	dispatch(mux, id, `{"type":"CART_CREATED","payload":{"cartId":"c-1"}}`)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("POST", "/sessions/"+id+"/cart/sync", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body = %s", w.Code, w.Body.String())
	}
	var cart model.Cart
	json.NewDecoder(w.Body).Decode(&cart)
	if cart.CartID != "c-1" || cart.GeneratedTotalPrice != 42 || cart.TotalQuantity != 4 {
		t.Errorf("cart = %+v", cart)
	}
}

func TestSyncCartBadServerQuantity(t *testing.T) {
	mock := &bridge.Mock{
		GetCartFunc: func(ctx context.Context, req model.Request) (model.ServerCart, error) {
			return model.ServerCart{Items: []model.ServerLineItem{{SKU: "a", Quantity: "abc"}}}, nil
		},
	}
	_, mux := testHandler(mock)
	id := createSession(t, mux)
	dispatch(mux, id, `{"type":"CART_CREATED","payload":{"cartId":"c-1"}}`)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("POST", "/sessions/"+id+"/cart/sync", nil))
	if w.Code != http.StatusBadGateway {
		t.Errorf("Status = %d, want 502 (body %s)", w.Code, w.Body.String())
	}
	if code := getErrorCode(w.Body.Bytes()); code != "UPSTREAM_ERROR" {
		t.Errorf("code = %q, want UPSTREAM_ERROR", code)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/sessions/"+id+"/cart", nil))
	var cart model.Cart
	if err := json.NewDecoder(w.Body).Decode(&cart); err != nil {
		t.Fatalf("decode cart after failed sync: %v", err)
	}
	if cart.CartID != "c-1" || len(cart.Items) != 0 {
		t.Errorf("cart = %+v, want untouched", cart)
	}
}

func TestRefreshNavigations(t *testing.T) {
	mock := &bridge.Mock{
		RecommendationNavigationsFunc: func(ctx context.Context, req model.Request) ([]model.RecommendationNavigation, error) {
			return []model.RecommendationNavigation{{Name: "brand"}}, nil
		},
	}
	_, mux := testHandler(mock)
	id := createSession(t, mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("POST", "/sessions/"+id+"/navigations/refresh", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body = %s", w.Code, w.Body.String())
	}
	var navs state.Navigations
	json.NewDecoder(w.Body).Decode(&navs)
	if len(navs.Reference) != 1 || navs.Reference[0].Name != "brand" {
		t.Errorf("Reference = %+v", navs.Reference)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, mux := testHandler(&bridge.Mock{})
	id := createSession(t, mux)
	dispatch(mux, id, `{"type":"REMOVE_ITEM","payload":{"data":{"sku":"a"}}}`)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `storefront_actions_dispatched_total{type="REMOVE_ITEM"} 1`) {
		t.Errorf("metrics output missing action counter:\n%s", w.Body.String())
	}
}

func TestWriteJSONUnencodable(t *testing.T) {
	h, _ := testHandler(&bridge.Mock{})

	w := httptest.NewRecorder()
	h.writeJSON(w, http.StatusOK, model.Cart{TotalQuantity: math.Inf(1)})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", w.Code)
	}
	if code := getErrorCode(w.Body.Bytes()); code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", code)
	}
}
