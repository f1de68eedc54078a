// MCP transport handler for the storefront service using the official MCP Go SDK.
// Exposes cart operations of a session as MCP tools.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"storefront/internal/actions"
	"storefront/internal/model"
	"storefront/internal/store"
)

// === MCP Tool Input Types ===
// Every tool addresses one session; item tools identify the line item by SKU
// or product ID, whichever the storefront keys its cart by.

// GetCartInput is the input schema for get_cart tool.
type GetCartInput struct {
	SessionID string `json:"session_id" jsonschema:"storefront session ID"`
}

// AddToCartInput is the input schema for add_to_cart tool.
type AddToCartInput struct {
	SessionID string         `json:"session_id" jsonschema:"storefront session ID"`
	ProductID string         `json:"product_id,omitempty" jsonschema:"product record ID"`
	Product   map[string]any `json:"product" jsonschema:"product data attributes (sku, title, price, ...)"`
	Quantity  float64        `json:"quantity" jsonschema:"quantity to add"`
}

// ChangeItemQuantityInput is the input schema for change_item_quantity tool.
type ChangeItemQuantityInput struct {
	SessionID string  `json:"session_id" jsonschema:"storefront session ID"`
	SKU       string  `json:"sku,omitempty" jsonschema:"line item SKU"`
	ProductID string  `json:"product_id,omitempty" jsonschema:"line item product ID"`
	Quantity  float64 `json:"quantity" jsonschema:"new quantity; 0 removes the item"`
}

// RemoveItemInput is the input schema for remove_item tool.
type RemoveItemInput struct {
	SessionID string `json:"session_id" jsonschema:"storefront session ID"`
	SKU       string `json:"sku,omitempty" jsonschema:"line item SKU"`
	ProductID string `json:"product_id,omitempty" jsonschema:"line item product ID"`
}

// NewMCPServer creates an MCP server with cart tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "storefront",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Storefront cart operations. " +
				"Create a session over REST (POST /sessions), then use these tools to read and edit its cart.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart",
		Description: "Get the cart of a storefront session.",
	}, h.mcpGetCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a product to the cart. Adding a product already in the cart increases its quantity.",
	}, h.mcpAddToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "change_item_quantity",
		Description: "Set the quantity of a cart line item. A quantity of 0 removes it.",
	}, h.mcpChangeItemQuantity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_item",
		Description: "Remove a line item from the cart.",
	}, h.mcpRemoveItem)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpGetCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetCartInput,
) (*mcp.CallToolResult, *model.Cart, error) {
	st, err := h.mcpSession(ctx, input.SessionID)
	if err != nil {
		return nil, nil, err
	}
	cart := st.State().Cart.Content
	return nil, &cart, nil
}

func (h *Handler) mcpAddToCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddToCartInput,
) (*mcp.CallToolResult, *model.Cart, error) {
	st, err := h.mcpSession(ctx, input.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if len(input.Product) == 0 {
		return nil, nil, fmt.Errorf("product is required")
	}

	next, err := st.Apply(ctx, actions.AddToCart{
		Product:  model.Product{ID: input.ProductID, Data: input.Product},
		Quantity: input.Quantity,
	})
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, &next.Cart.Content, nil
}

func (h *Handler) mcpChangeItemQuantity(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ChangeItemQuantityInput,
) (*mcp.CallToolResult, *model.Cart, error) {
	st, err := h.mcpSession(ctx, input.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if input.SKU == "" && input.ProductID == "" {
		return nil, nil, fmt.Errorf("sku or product_id is required")
	}

	next, err := st.Apply(ctx, actions.ItemQuantityChanged{
		Data:     model.LineItem{SKU: input.SKU, ProductID: input.ProductID},
		Quantity: input.Quantity,
	})
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, &next.Cart.Content, nil
}

func (h *Handler) mcpRemoveItem(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RemoveItemInput,
) (*mcp.CallToolResult, *model.Cart, error) {
	st, err := h.mcpSession(ctx, input.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if input.SKU == "" && input.ProductID == "" {
		return nil, nil, fmt.Errorf("sku or product_id is required")
	}

	next := st.Dispatch(ctx, actions.RemoveItem{
		Data: model.LineItem{SKU: input.SKU, ProductID: input.ProductID},
	})
	return nil, &next.Cart.Content, nil
}

// mcpSession opens an existing session for a tool call.
func (h *Handler) mcpSession(ctx context.Context, id string) (*store.Store, error) {
	if id == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	st, err := h.sessions.Open(ctx, id, false)
	if err != nil {
		return nil, h.mcpError(err)
	}
	return st, nil
}

// mcpError converts store and bridge errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
