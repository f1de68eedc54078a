package actions

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"storefront/internal/model"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Action
	}{
		{
			name:  "tracker info",
			input: `{"type": "GET_TRACKER_INFO", "payload": {"visitorId": "v1", "sessionId": "s1"}}`,
			want:  GetTrackerInfo{VisitorID: "v1", SessionID: "s1"},
		},
		{
			name:  "cart created",
			input: `{"type": "CART_CREATED", "payload": {"cartId": "c-9"}}`,
			want:  CartCreated{CartID: "c-9"},
		},
		{
			name:  "add to cart keeps raw quantity",
			input: `{"type": "ADD_TO_CART", "payload": {"product": {"data": {"sku": "1"}}, "quantity": "2"}}`,
			want:  AddToCart{Product: model.Product{Data: map[string]any{"sku": "1"}}, Quantity: "2"},
		},
		{
			name:  "remove item",
			input: `{"type": "REMOVE_ITEM", "payload": {"data": {"sku": "456"}}}`,
			want:  RemoveItem{Data: model.LineItem{SKU: "456"}},
		},
		{
			name:  "missing payload",
			input: `{"type": "CREATE_CART"}`,
			want:  CreateCart{},
		},
		{
			name:  "unknown type",
			input: `{"type": "SOMETHING_ELSE", "payload": {"x": 1}}`,
			want:  Unknown{Name: "SOMETHING_ELSE", Payload: json.RawMessage(`{"x": 1}`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.input))
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeServerUpdate(t *testing.T) {
	input := `{"type": "CART_SERVER_UPDATED", "payload": {
		"generatedTotalPrice": 42.5, "totalQuantity": 3, "lastModified": 1700000000000,
		"items": [{"sku": "1", "quantity": "3", "price": 14.1}]
	}}`

	a, err := Decode([]byte(input))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	upd, ok := a.(CartServerUpdated)
	if !ok {
		t.Fatalf("Decode() = %T, want CartServerUpdated", a)
	}
	if upd.GeneratedTotalPrice != 42.5 || upd.LastModified == nil || *upd.LastModified != 1700000000000 {
		t.Errorf("server cart = %+v", upd.ServerCart)
	}
	if len(upd.Items) != 1 || upd.Items[0].Quantity != "3" || *upd.Items[0].Price != 14.1 {
		t.Errorf("items = %+v", upd.Items)
	}
}

func TestDecodeErrors(t *testing.T) {
	inputs := map[string]string{
		"invalid json":  `{"type":`,
		"missing type":  `{"payload": {}}`,
		"wrong payload": `{"type": "CART_CREATED", "payload": {"cartId": 7}}`,
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode([]byte(input)); err == nil {
				t.Errorf("Decode(%s) expected error", input)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, a := range []Action{
		CartCreated{CartID: "c-1"},
		ItemQuantityChanged{Data: model.LineItem{SKU: "1", Metadata: []model.Metadata{}}, Quantity: 4.0},
		Unknown{Name: "CUSTOM", Payload: json.RawMessage(`{"a":1}`)},
	} {
		data, err := Encode(a)
		if err != nil {
			t.Fatalf("Encode(%T) error: %v", a, err)
		}
		got, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode(%s) error: %v", data, err)
		}
		if diff := cmp.Diff(a, got); diff != "" {
			t.Errorf("round trip mismatch for %s (-want +got):\n%s", a.Type(), diff)
		}
	}
}

func TestHasInvalidQuantity(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   bool
	}{
		{"numeric", AddToCart{Quantity: 2.0}, false},
		{"numeric string", AddToCart{Quantity: "2"}, false},
		{"garbage", AddToCart{Quantity: "two"}, true},
		{"null quantity is zero", ItemQuantityChanged{}, false},
		{"infinity string", AddToCart{Quantity: "Infinity"}, true},
		{"inf spelling", ItemQuantityChanged{Quantity: "-inf"}, true},
		{"infinite float", AddToCart{Quantity: math.Inf(1)}, true},
		{"largest float", AddToCart{Quantity: 1e308}, false},
		{"server item infinity", CartServerUpdated{model.ServerCart{Items: []model.ServerLineItem{{Quantity: "Infinity"}}}}, true},
		{"server item", CartServerUpdated{model.ServerCart{Items: []model.ServerLineItem{{Quantity: "x"}}}}, true},
		{"no quantity", RemoveItem{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasInvalidQuantity(tt.action); got != tt.want {
				t.Errorf("HasInvalidQuantity(%+v) = %v, want %v", tt.action, got, tt.want)
			}
		})
	}
}

func TestTypes(t *testing.T) {
	types := Types()
	if len(types) != 12 {
		t.Errorf("len(Types()) = %d, want 12", len(types))
	}
	for _, typ := range types {
		if !Known(typ) {
			t.Errorf("Known(%s) = false", typ)
		}
	}
	if Known("NOPE") {
		t.Error("Known(NOPE) = true")
	}
}
