package inventory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pos/backend/internal/domain/sales/acl"
	"github.com/pos/backend/internal/domain/shared"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := &Config{BaseURL: "http://inventory.internal:8080"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing base URL", func(t *testing.T) {
		cfg := &Config{}
		assert.Error(t, cfg.Validate())
	})
}

func TestClient_CheckAvailability(t *testing.T) {
	tenantID := uuid.New()
	storeID := uuid.New()
	productID := uuid.New()
	lines := []acl.StockLine{{ProductID: productID, BaseQuantity: decimal.NewFromInt(6)}}

	t.Run("decodes per-line availability", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1/stock/check", r.URL.Path)
			assert.Equal(t, tenantID.String(), r.Header.Get("X-Tenant-ID"))

			var payload movementPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, storeID, payload.StoreID)
			require.Len(t, payload.Lines, 1)
			assert.True(t, payload.Lines[0].BaseQuantity.Equal(decimal.NewFromInt(6)))

			json.NewEncoder(w).Encode(map[string]interface{}{
				"results": []map[string]interface{}{
					{"product_id": productID, "available": "4", "sufficient": false},
				},
			})
		}))
		defer server.Close()

		client, err := NewClient(&Config{BaseURL: server.URL})
		require.NoError(t, err)

		availability, err := client.CheckAvailability(context.Background(), tenantID, storeID, lines)

		require.NoError(t, err)
		require.Len(t, availability, 1)
		assert.Equal(t, productID, availability[0].ProductID)
		assert.True(t, availability[0].Available.Equal(decimal.NewFromInt(4)))
		assert.False(t, availability[0].Sufficient)
	})

	t.Run("transport failure is retryable", func(t *testing.T) {
		client, err := NewClient(&Config{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
		require.NoError(t, err)

		_, err = client.CheckAvailability(context.Background(), tenantID, storeID, lines)

		var remoteErr *shared.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.False(t, remoteErr.Ambiguous)
		assert.True(t, remoteErr.Retryable())
	})
}

func TestClient_Deduct(t *testing.T) {
	tenantID := uuid.New()
	storeID := uuid.New()
	lines := []acl.StockLine{{ProductID: uuid.New(), BaseQuantity: decimal.NewFromInt(2)}}

	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/stock/deductions", r.URL.Path)

			var payload movementPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "sale:V001-00000042", payload.Reference)

			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client, err := NewClient(&Config{BaseURL: server.URL})
		require.NoError(t, err)

		err = client.Deduct(context.Background(), tenantID, storeID, "sale:V001-00000042", lines)
		assert.NoError(t, err)
	})

	t.Run("maps insufficient stock", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"code": "INSUFFICIENT_STOCK", "message": "not enough stock"})
		}))
		defer server.Close()

		client, err := NewClient(&Config{BaseURL: server.URL})
		require.NoError(t, err)

		err = client.Deduct(context.Background(), tenantID, storeID, "ref", lines)
		assert.ErrorIs(t, err, acl.ErrInsufficientStock)
	})

	t.Run("other refusal is a rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{"code": "UNKNOWN_PRODUCT", "message": "product not tracked"})
		}))
		defer server.Close()

		client, err := NewClient(&Config{BaseURL: server.URL})
		require.NoError(t, err)

		err = client.Deduct(context.Background(), tenantID, storeID, "ref", lines)

		var remoteErr *shared.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.True(t, remoteErr.Rejected)
		assert.False(t, remoteErr.Ambiguous)
	})

	t.Run("server error surfaces as ambiguous", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client, err := NewClient(&Config{BaseURL: server.URL})
		require.NoError(t, err)

		err = client.Deduct(context.Background(), tenantID, storeID, "ref", lines)

		var remoteErr *shared.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.True(t, remoteErr.Ambiguous)
		assert.False(t, remoteErr.Retryable())
	})

	t.Run("timeout surfaces as ambiguous", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
		}))
		defer server.Close()

		client, err := NewClient(&Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
		require.NoError(t, err)

		err = client.Deduct(context.Background(), tenantID, storeID, "ref", lines)

		var remoteErr *shared.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.True(t, remoteErr.Ambiguous)
	})
}

func TestClient_Restock(t *testing.T) {
	tenantID := uuid.New()
	storeID := uuid.New()
	lines := []acl.StockLine{{ProductID: uuid.New(), BaseQuantity: decimal.NewFromInt(3)}}

	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/stock/restocks", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client, err := NewClient(&Config{BaseURL: server.URL})
		require.NoError(t, err)

		err = client.Restock(context.Background(), tenantID, storeID, "refund:V001-00000042", lines)
		assert.NoError(t, err)
	})

	t.Run("server error surfaces as ambiguous", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client, err := NewClient(&Config{BaseURL: server.URL})
		require.NoError(t, err)

		err = client.Restock(context.Background(), tenantID, storeID, "ref", lines)

		var remoteErr *shared.RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.True(t, remoteErr.Ambiguous)
	})
}
