package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// FindByID finds a sale by ID for a tenant, with items and payments loaded
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)

	// FindBySaleNumber finds a sale by its internal sale number
	FindBySaleNumber(ctx context.Context, tenantID uuid.UUID, saleNumber string) (*Sale, error)

	// FindAll finds sales for a tenant, optionally narrowed to a store and
	// a date range, with filtering and pagination
	FindAll(ctx context.Context, tenantID uuid.UUID, storeID *uuid.UUID, from, to *time.Time, filter shared.Filter) ([]Sale, error)

	// Count counts sales matching the same criteria as FindAll
	Count(ctx context.Context, tenantID uuid.UUID, storeID *uuid.UUID, from, to *time.Time, filter shared.Filter) (int64, error)

	// Save creates or updates a sale together with its items and payments
	Save(ctx context.Context, sale *Sale) error

	// SaveWithLock saves with an optimistic locking version check
	SaveWithLock(ctx context.Context, sale *Sale) error

	// Delete removes a sale. Completed and refunded sales must be rejected
	// by the caller; the repository removes whatever it is handed.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// TenderTotals sums payments of Completed sales for a store inside the
	// window, grouped by tender method. Used by shift reconciliation; the
	// aggregation must execute as one consistent read.
	TenderTotals(ctx context.Context, tenantID, storeID uuid.UUID, from, to time.Time) (map[TenderMethod]decimal.Decimal, error)
}
