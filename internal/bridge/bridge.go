// Package bridge executes the request descriptors built by adapters against the
// cart and recommendation services.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"storefront/internal/model"
	"storefront/internal/transport"
)

// Service is the outbound surface the effects runner depends on.
type Service interface {
	// CreateCart executes a cart creation request and returns the confirmation.
	CreateCart(ctx context.Context, req model.Request) (model.CartConfirmation, error)

	// GetCart executes a cart read and returns the server's view of the cart.
	GetCart(ctx context.Context, req model.Request) (model.ServerCart, error)

	// RecommendationNavigations fetches navigations ranked by popularity.
	RecommendationNavigations(ctx context.Context, req model.Request) ([]model.RecommendationNavigation, error)
}

// maxResponseSize caps upstream response bodies.
const maxResponseSize = 4 << 20

// Config configures a Client.
type Config struct {
	HTTPClient *http.Client  // optional; defaults to the Chrome-fingerprint transport
	Timeout    time.Duration // per-request timeout, default 30s
	Logger     *slog.Logger
}

// Client implements Service over HTTP.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a bridge client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Chrome TLS fingerprint avoids CDN rate limiting; see internal/transport.
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport.New(transport.Options{Timeout: cfg.Timeout}),
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{httpClient: httpClient, logger: logger}
}

// CreateCart implements Service.
func (c *Client) CreateCart(ctx context.Context, req model.Request) (model.CartConfirmation, error) {
	var conf model.CartConfirmation
	if err := c.do(ctx, "cart service", req, &conf); err != nil {
		return model.CartConfirmation{}, err
	}
	if conf.CartID == "" {
		return model.CartConfirmation{}, model.NewUpstreamError("cart service",
			fmt.Errorf("no cartId in confirmation"))
	}
	return conf, nil
}

// GetCart implements Service.
func (c *Client) GetCart(ctx context.Context, req model.Request) (model.ServerCart, error) {
	var cart model.ServerCart
	if err := c.do(ctx, "cart service", req, &cart); err != nil {
		return model.ServerCart{}, err
	}
	return cart, nil
}

// RecommendationNavigations implements Service.
func (c *Client) RecommendationNavigations(ctx context.Context, req model.Request) ([]model.RecommendationNavigation, error) {
	var resp model.RecommendationsResponse
	if err := c.do(ctx, "recommendations", req, &resp); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return []model.RecommendationNavigation{}, nil
	}
	return resp.Result, nil
}

// do sends req and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, service string, req model.Request, out any) error {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return model.NewInternalError(fmt.Errorf("building %s request: %w", service, err))
	}
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return model.NewUpstreamError(service, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("upstream call",
		"service", service,
		"method", req.Method,
		"url", req.URL,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return model.NewUpstreamError(service, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode >= 400 {
		return parseErrorResponse(service, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return model.NewUpstreamError(service, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// parseErrorResponse converts an upstream failure to an APIError.
// A 404 names the resource the service serves: "cart service" reports "cart".
func parseErrorResponse(service string, statusCode int, body []byte) error {
	var upstream struct {
		Message string `json:"message"`
	}
	json.Unmarshal(body, &upstream) // Best effort parse

	switch statusCode {
	case http.StatusNotFound:
		return model.NewNotFoundError(strings.TrimSuffix(service, " service"))
	case http.StatusTooManyRequests:
		return model.NewRateLimitError(service)
	default:
		return model.NewUpstreamError(service,
			fmt.Errorf("status %d: %s", statusCode, upstream.Message))
	}
}

// Verify Client implements Service at compile time.
var _ Service = (*Client)(nil)
