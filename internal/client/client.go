// Package client provides a REST client for the prodcat server that
// satisfies the catalog.Repository contract, so the CLI can run against a
// remote catalog the same way it runs against a local store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/minhle/prodcat/internal/catalog"
	"github.com/minhle/prodcat/internal/models"
)

// Client is a REST client for the prodcat server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ catalog.Repository = (*Client)(nil)

// New creates a new REST client.
// If baseURL is empty, uses PRODCAT_SERVER_URL env var or defaults to localhost:8000.
// Timeout can be configured via PRODCAT_CLIENT_TIMEOUT env var (default 10m for batch operations).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("PRODCAT_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	timeout := 10 * time.Minute
	if t := os.Getenv("PRODCAT_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// envelope is the server's uniform response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// do executes one request and decodes the envelope's data into result.
// Transport failures map to catalog.ErrUnavailable; 404 and 400 map to the
// repository sentinels so callers never see HTTP details.
func (c *Client) do(ctx context.Context, method, path string, payload, result any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", catalog.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("unmarshal response (%s): %w", resp.Status, err)
	}

	if !env.Success {
		msg := resp.Status
		if env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", catalog.ErrNotFound, msg)
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %s", catalog.ErrInvalidName, msg)
		case http.StatusServiceUnavailable:
			return fmt.Errorf("%w: %s", catalog.ErrUnavailable, msg)
		default:
			return fmt.Errorf("server error: %s", msg)
		}
	}

	if result != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("unmarshal data: %w", err)
		}
	}
	return nil
}

// GetAll returns every product, newest first.
func (c *Client) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// Get retrieves one product by id.
func (c *Client) Get(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	if err := c.do(ctx, http.MethodGet, "/api/products/"+id, nil, &p); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

type createRequest struct {
	Name   string `json:"name"`
	Source string `json:"source,omitempty"`
}

// Create adds one product.
func (c *Client) Create(ctx context.Context, name, source string) (models.Product, error) {
	var p models.Product
	err := c.do(ctx, http.MethodPost, "/api/products", createRequest{Name: name, Source: source}, &p)
	if err != nil {
		return models.Product{}, err
	}
	return p, nil
}

type batchCreateRequest struct {
	Products []createRequest `json:"products"`
}

// BatchCreate adds several products in one request.
func (c *Client) BatchCreate(ctx context.Context, names []string, source string) ([]models.Product, error) {
	items := make([]createRequest, len(names))
	for i, name := range names {
		items[i] = createRequest{Name: name, Source: source}
	}

	var products []models.Product
	err := c.do(ctx, http.MethodPost, "/api/products/batch", batchCreateRequest{Products: items}, &products)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// Update patches a product.
func (c *Client) Update(ctx context.Context, id string, upd models.ProductUpdate) (models.Product, error) {
	if upd.Empty() {
		return c.Get(ctx, id)
	}
	var p models.Product
	if err := c.do(ctx, http.MethodPut, "/api/products/"+id, upd, &p); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// UpdateStatus sets only the status.
func (c *Client) UpdateStatus(ctx context.Context, id string, status models.ProductStatus) (models.Product, error) {
	return c.Update(ctx, id, models.ProductUpdate{Status: &status})
}

// UpdateDescription sets the description, completing the product.
func (c *Client) UpdateDescription(ctx context.Context, id, description string) (models.Product, error) {
	return c.Update(ctx, id, models.ProductUpdate{Description: &description})
}

// Delete removes a product.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/products/"+id, nil, nil)
}

// Health reports whether the server and its database are reachable. The
// health endpoint answers with a bare body, not the API envelope.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", catalog.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var body struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: malformed health response: %v", catalog.ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return fmt.Errorf("%w: health status %q", catalog.ErrUnavailable, body.Status)
	}
	return nil
}
