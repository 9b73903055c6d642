package acl

import (
	"context"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ErrInsufficientStock indicates the stock service rejected a deduction
// because available stock does not cover the requested base quantity.
var ErrInsufficientStock = shared.NewDomainError("INSUFFICIENT_STOCK",
	"Insufficient stock to complete the sale")

// StockLine is one product movement expressed in base units.
// Quantities are already converted: (sale quantity * conversion factor),
// rounded up to the next whole base unit.
type StockLine struct {
	ProductID    uuid.UUID
	BaseQuantity decimal.Decimal
}

// Availability reports current stock for a single product at a store.
type Availability struct {
	ProductID  uuid.UUID
	Available  decimal.Decimal
	Sufficient bool
}

// InventoryStockService is the sales-side view of the inventory service.
// All quantities cross this boundary in base units; unit-of-measure
// conversion happens before the call, on the sales side.
type InventoryStockService interface {
	// CheckAvailability reports, per line, whether current stock covers the
	// requested base quantity. Advisory only: stock can change between this
	// call and Deduct.
	CheckAvailability(ctx context.Context, tenantID, storeID uuid.UUID, lines []StockLine) ([]Availability, error)

	// Deduct atomically reduces stock for all lines, or none of them.
	// Returns ErrInsufficientStock when any line cannot be covered.
	Deduct(ctx context.Context, tenantID, storeID uuid.UUID, reference string, lines []StockLine) error

	// Restock atomically returns previously deducted stock, used when a
	// completed sale is refunded or a checkout is compensated.
	Restock(ctx context.Context, tenantID, storeID uuid.UUID, reference string, lines []StockLine) error
}
