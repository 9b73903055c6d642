package customer

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
const serviceName = "customers"

// maxResponseSize caps response bodies read from the customer service (1MB)
const maxResponseSize = 1 * 1024 * 1024

// Config holds connection settings for the customer service
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("customer: base URL is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("customer: invalid base URL: %w", err)
	}
	return nil
}

// errorBody is the error envelope returned by the customer service
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client implements CustomerCreditService over the customer service's
// HTTP API
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a customer credit client with the given configuration
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

// RegisterCredit records an amount owed by the customer for a completed
// sale. A transport failure or server error is ambiguous: the credit may
// have been registered before the response was lost.
func (c *Client) RegisterCredit(ctx context.Context, tenantID, customerID uuid.UUID, saleID uuid.UUID, saleNumber string, amount decimal.Decimal) error {
	payload := struct {
		SaleID     uuid.UUID       `json:"sale_id"`
		SaleNumber string          `json:"sale_number"`
		Amount     decimal.Decimal `json:"amount"`
	}{SaleID: saleID, SaleNumber: saleNumber, Amount: amount}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("customer: failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/customers/%s/credits", c.config.BaseURL, customerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("customer: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req, tenantID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return shared.NewAmbiguousRemoteFailure(serviceName, "RegisterCredit", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return shared.NewAmbiguousRemoteFailure(serviceName, "RegisterCredit", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var eb errorBody
		if err := json.Unmarshal(body, &eb); err == nil && eb.Code == "CREDIT_LIMIT_EXCEEDED" {
			return acl.ErrCreditLimitExceeded
		}
		return shared.NewRemoteRejection(serviceName, "RegisterCredit", decodeError(body, resp.StatusCode))

	default:
		return shared.NewAmbiguousRemoteFailure(serviceName, "RegisterCredit", decodeError(body, resp.StatusCode))
	}
}

// ReverseCredit cancels a previously registered credit. Reversal is keyed
// by sale, so a credit already reversed (or never registered) is treated as
// success; that keeps compensation retries idempotent.
func (c *Client) ReverseCredit(ctx context.Context, tenantID, customerID uuid.UUID, saleID uuid.UUID) error {
	endpoint := fmt.Sprintf("%s/api/v1/customers/%s/credits/%s", c.config.BaseURL, customerID, saleID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("customer: failed to create request: %w", err)
	}
	c.setHeaders(req, tenantID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return shared.NewAmbiguousRemoteFailure(serviceName, "ReverseCredit", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return shared.NewAmbiguousRemoteFailure(serviceName, "ReverseCredit", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil

	case resp.StatusCode == http.StatusNotFound:
		// Nothing to reverse
		return nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return shared.NewRemoteRejection(serviceName, "ReverseCredit", decodeError(body, resp.StatusCode))

	default:
		return shared.NewAmbiguousRemoteFailure(serviceName, "ReverseCredit", decodeError(body, resp.StatusCode))
	}
}

func (c *Client) setHeaders(req *http.Request, tenantID uuid.UUID) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Tenant-ID", tenantID.String())
	if c.config.APIKey != "" {
		req.Header.Set("X-API-Key", c.config.APIKey)
	}
}

// decodeError turns an error response body into a descriptive error
func decodeError(body []byte, statusCode int) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Code != "" {
		return fmt.Errorf("HTTP %d: %s - %s", statusCode, eb.Code, eb.Message)
	}
	return fmt.Errorf("HTTP %d", statusCode)
}

// Ensure Client implements CustomerCreditService
var _ acl.CustomerCreditService = (*Client)(nil)
