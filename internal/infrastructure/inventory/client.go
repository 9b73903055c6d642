package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pos/backend/internal/domain/sales/acl"
	"github.com/pos/backend/internal/domain/shared"
)

// serviceName identifies this collaborator in RemoteError values
const serviceName = "inventory"

// maxResponseSize caps response bodies read from the inventory service (1MB)
const maxResponseSize = 1 * 1024 * 1024

// Config holds connection settings for the inventory service
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("inventory: base URL is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("inventory: invalid base URL: %w", err)
	}
	return nil
}

// stockLinePayload is the wire shape of one stock movement line
type stockLinePayload struct {
	ProductID    uuid.UUID       `json:"product_id"`
	BaseQuantity decimal.Decimal `json:"base_quantity"`
}

// movementPayload is the request body for deductions and restocks
type movementPayload struct {
	StoreID   uuid.UUID          `json:"store_id"`
	Reference string             `json:"reference"`
	Lines     []stockLinePayload `json:"lines"`
}

// errorBody is the error envelope returned by the inventory service
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client implements InventoryStockService over the inventory service's
// HTTP API
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates an inventory client with the given configuration
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// CheckAvailability reports, per line, whether current stock covers the
// requested base quantity. Read-only, so transport failures keep a known
// outcome and stay retryable.
func (c *Client) CheckAvailability(ctx context.Context, tenantID, storeID uuid.UUID, lines []acl.StockLine) ([]acl.Availability, error) {
	payload := movementPayload{StoreID: storeID, Lines: toPayloadLines(lines)}
	body, resp, err := c.doJSON(ctx, tenantID, http.MethodPost, "/api/v1/stock/check", payload)
	if err != nil {
		return nil, shared.NewRemoteFailure(serviceName, "CheckAvailability", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var result struct {
			Results []struct {
				ProductID  uuid.UUID       `json:"product_id"`
				Available  decimal.Decimal `json:"available"`
				Sufficient bool            `json:"sufficient"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, shared.NewRemoteFailure(serviceName, "CheckAvailability", fmt.Errorf("invalid response: %w", err))
		}
		availability := make([]acl.Availability, len(result.Results))
		for i, r := range result.Results {
			availability[i] = acl.Availability{
				ProductID:  r.ProductID,
				Available:  r.Available,
				Sufficient: r.Sufficient,
			}
		}
		return availability, nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, shared.NewRemoteRejection(serviceName, "CheckAvailability", decodeError(body, resp.StatusCode))

	default:
		return nil, shared.NewRemoteFailure(serviceName, "CheckAvailability", decodeError(body, resp.StatusCode))
	}
}

// Deduct atomically reduces stock for all lines, or none of them.
// A transport failure or server error is ambiguous: the deduction may have
// been applied before the response was lost.
func (c *Client) Deduct(ctx context.Context, tenantID, storeID uuid.UUID, reference string, lines []acl.StockLine) error {
	payload := movementPayload{StoreID: storeID, Reference: reference, Lines: toPayloadLines(lines)}
	body, resp, err := c.doJSON(ctx, tenantID, http.MethodPost, "/api/v1/stock/deductions", payload)
	if err != nil {
		return shared.NewAmbiguousRemoteFailure(serviceName, "Deduct", err)
	}
	return c.mapMovementResponse("Deduct", body, resp)
}

// Restock atomically returns previously deducted stock
func (c *Client) Restock(ctx context.Context, tenantID, storeID uuid.UUID, reference string, lines []acl.StockLine) error {
	payload := movementPayload{StoreID: storeID, Reference: reference, Lines: toPayloadLines(lines)}
	body, resp, err := c.doJSON(ctx, tenantID, http.MethodPost, "/api/v1/stock/restocks", payload)
	if err != nil {
		return shared.NewAmbiguousRemoteFailure(serviceName, "Restock", err)
	}
	return c.mapMovementResponse("Restock", body, resp)
}

// mapMovementResponse maps a deduction or restock response to a domain error
func (c *Client) mapMovementResponse(operation string, body []byte, resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var eb errorBody
		if err := json.Unmarshal(body, &eb); err == nil && eb.Code == "INSUFFICIENT_STOCK" {
			return acl.ErrInsufficientStock
		}
		return shared.NewRemoteRejection(serviceName, operation, decodeError(body, resp.StatusCode))

	default:
		// A 5xx may have applied the movement before failing
		return shared.NewAmbiguousRemoteFailure(serviceName, operation, decodeError(body, resp.StatusCode))
	}
}

// doJSON sends a JSON request and returns the raw response body.
// The returned error covers request construction and transport only; HTTP
// status mapping is the caller's responsibility.
func (c *Client) doJSON(ctx context.Context, tenantID uuid.UUID, method, path string, payload interface{}) ([]byte, *http.Response, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("inventory: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("inventory: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Tenant-ID", tenantID.String())
	if c.config.APIKey != "" {
		req.Header.Set("X-API-Key", c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, nil, err
	}
	return body, resp, nil
}

func toPayloadLines(lines []acl.StockLine) []stockLinePayload {
	payload := make([]stockLinePayload, len(lines))
	for i, line := range lines {
		payload[i] = stockLinePayload{ProductID: line.ProductID, BaseQuantity: line.BaseQuantity}
	}
	return payload
}

// decodeError turns an error response body into a descriptive error
func decodeError(body []byte, statusCode int) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Code != "" {
		return fmt.Errorf("HTTP %d: %s - %s", statusCode, eb.Code, eb.Message)
	}
	return fmt.Errorf("HTTP %d", statusCode)
}

// Ensure Client implements InventoryStockService
var _ acl.InventoryStockService = (*Client)(nil)
