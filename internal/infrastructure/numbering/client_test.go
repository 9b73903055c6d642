package numbering

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pos/backend/internal/domain/sales/acl"
	"github.com/pos/backend/internal/domain/shared"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := &Config{BaseURL: "http://numbering.internal:8080"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing base URL", func(t *testing.T) {
		cfg := &Config{}
		assert.Error(t, cfg.Validate())
	})
}

func TestClient_PeekNext(t *testing.T) {
	tenantID := uuid.New()
	storeID := uuid.New()

	t.Run("returns preview for active series", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/v1/series/next", r.URL.Path)
			assert.Equal(t, storeID.String(), r.URL.Query().Get("store_id"))
			assert.Equal(t, "03", r.URL.Query().Get("document_type"))
			assert.Equal(t, tenantID.String(), r.Header.Get("X-Tenant-ID"))

			json.NewEncoder(w).Encode(map[string]string{
				"series_code":    "B001",
				"preview_number": "00000042",
				"full_number":    "B001-00000042",
			})
		}))
		defer server.Close()

		client, err := NewClient(&Config{BaseURL: server.URL})
		require.NoError(t, err)

		preview, err := client.PeekNext(context.Background(), tenantID, storeID, "03")

		require.NoError(t, err)
		assert.Equal(t, "B001", preview.SeriesCode)
		assert.Equal(t, "00000042", preview.PreviewNumber)
		assert.Equal(t, "B001-00000042", preview.FullNumber)
	})

	t.Run("maps 404 to ErrSeriesNotConfigured", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"code": "SERIES_NOT_CONFIGURED"})
		}))
		defer server.Close()

		client, err := NewClient(&Config{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.PeekNext(context.Background(), tenantID, storeID, "01")

		assert.ErrorIs(t, err, acl.ErrSeriesNotConfigured)
	})

	t.Run("transport failure is retryable", func(t *testing.T) {
		client, err := NewClient(&Config{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
		require.NoError(t, err)

		_, err = client.PeekNext(context.Background(), tenantID, storeID, "03")

		var remoteErr *shared.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.False(t, remoteErr.Ambiguous)
		assert.True(t, remoteErr.Retryable())
	})
}

func TestClient_Increment(t *testing.T) {
	tenantID := uuid.New()

	t.Run("returns confirmed number and passes idempotency key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1/series/B001/increment", r.URL.Path)
			assert.Equal(t, "sale-doc:abc", r.Header.Get("Idempotency-Key"))

			json.NewEncoder(w).Encode(map[string]string{
				"series_code":     "B001",
				"document_number": "00000042",
				"full_number":     "B001-00000042",
			})
		}))
		defer server.Close()

		client, err := NewClient(&Config{BaseURL: server.URL})
		require.NoError(t, err)

		issued, err := client.Increment(context.Background(), tenantID, "B001", "sale-doc:abc")

		require.NoError(t, err)
		assert.Equal(t, "B001", issued.SeriesCode)
		assert.Equal(t, "00000042", issued.DocumentNumber)
	})

	t.Run("timeout surfaces as ambiguous", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
		}))
		defer server.Close()

		client, err := NewClient(&Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
		require.NoError(t, err)

		_, err = client.Increment(context.Background(), tenantID, "B001", "sale-doc:abc")

		var remoteErr *shared.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.True(t, remoteErr.Ambiguous)
		assert.False(t, remoteErr.Retryable())
	})

	t.Run("server error surfaces as ambiguous", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client, err := NewClient(&Config{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.Increment(context.Background(), tenantID, "B001", "")

		var remoteErr *shared.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.True(t, remoteErr.Ambiguous)
	})

	t.Run("explicit refusal is a rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"code": "SERIES_SUSPENDED", "message": "series suspended"})
		}))
		defer server.Close()

		client, err := NewClient(&Config{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.Increment(context.Background(), tenantID, "B001", "")

		var remoteErr *shared.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.True(t, remoteErr.Rejected)
		assert.False(t, remoteErr.Ambiguous)
		assert.Contains(t, err.Error(), "SERIES_SUSPENDED")
	})
}
