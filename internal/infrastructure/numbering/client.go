package numbering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/pos/backend/internal/domain/sales/acl"
	"github.com/pos/backend/internal/domain/shared"
)

// serviceName identifies this collaborator in RemoteError values
const serviceName = "numbering"

// maxResponseSize caps response bodies read from the numbering service (1MB)
const maxResponseSize = 1 * 1024 * 1024

// Config holds connection settings for the document numbering service
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("numbering: base URL is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("numbering: invalid base URL: %w", err)
	}
	return nil
}

// errorBody is the error envelope returned by the numbering service
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client implements DocumentNumberingService over the numbering service's
// HTTP API
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a numbering client with the given configuration
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

// PeekNext resolves the active series for (tenant, store, documentType) and
// previews the next number without consuming it
func (c *Client) PeekNext(ctx context.Context, tenantID, storeID uuid.UUID, documentType string) (*acl.NumberPreview, error) {
	endpoint := fmt.Sprintf("%s/api/v1/series/next?store_id=%s&document_type=%s",
		c.config.BaseURL, storeID, url.QueryEscape(documentType))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("numbering: failed to create request: %w", err)
	}
	c.setHeaders(req, tenantID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Peeking never advances the counter, so a transport failure has a
		// known outcome and stays retryable.
		return nil, shared.NewRemoteFailure(serviceName, "PeekNext", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, shared.NewRemoteFailure(serviceName, "PeekNext", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var preview struct {
			SeriesCode    string `json:"series_code"`
			PreviewNumber string `json:"preview_number"`
			FullNumber    string `json:"full_number"`
		}
		if err := json.Unmarshal(body, &preview); err != nil {
			return nil, shared.NewRemoteFailure(serviceName, "PeekNext", fmt.Errorf("invalid response: %w", err))
		}
		return &acl.NumberPreview{
			SeriesCode:    preview.SeriesCode,
			PreviewNumber: preview.PreviewNumber,
			FullNumber:    preview.FullNumber,
		}, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, acl.ErrSeriesNotConfigured

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, shared.NewRemoteRejection(serviceName, "PeekNext", decodeError(body, resp.StatusCode))

	default:
		return nil, shared.NewRemoteFailure(serviceName, "PeekNext", decodeError(body, resp.StatusCode))
	}
}

// Increment atomically advances the series counter on the numbering service
// and returns the confirmed document number. A transport failure or server
// error after the request was sent is surfaced as ambiguous: the counter may
// or may not have advanced.
func (c *Client) Increment(ctx context.Context, tenantID uuid.UUID, seriesCode string, idempotencyKey string) (*acl.IssuedNumber, error) {
	endpoint := fmt.Sprintf("%s/api/v1/series/%s/increment", c.config.BaseURL, url.PathEscape(seriesCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("numbering: failed to create request: %w", err)
	}
	c.setHeaders(req, tenantID)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, shared.NewAmbiguousRemoteFailure(serviceName, "Increment", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, shared.NewAmbiguousRemoteFailure(serviceName, "Increment", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var issued struct {
			SeriesCode     string `json:"series_code"`
			DocumentNumber string `json:"document_number"`
			FullNumber     string `json:"full_number"`
		}
		if err := json.Unmarshal(body, &issued); err != nil {
			return nil, shared.NewAmbiguousRemoteFailure(serviceName, "Increment", fmt.Errorf("invalid response: %w", err))
		}
		return &acl.IssuedNumber{
			SeriesCode:     issued.SeriesCode,
			DocumentNumber: issued.DocumentNumber,
			FullNumber:     issued.FullNumber,
		}, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, acl.ErrSeriesNotConfigured

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// The service refused before touching the counter
		return nil, shared.NewRemoteRejection(serviceName, "Increment", decodeError(body, resp.StatusCode))

	default:
		// A 5xx may have advanced the counter before failing
		return nil, shared.NewAmbiguousRemoteFailure(serviceName, "Increment", decodeError(body, resp.StatusCode))
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

// Ensure Client implements DocumentNumberingService
var _ acl.DocumentNumberingService = (*Client)(nil)
