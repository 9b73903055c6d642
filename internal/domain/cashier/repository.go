package cashier

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ErrShiftAlreadyOpen indicates the store already has an open shift.
// The persistence layer raises it when the open-shift unique index rejects
// a second concurrent open.
var ErrShiftAlreadyOpen = shared.NewDomainError("SHIFT_ALREADY_OPEN", "An open shift already exists for this store")

// ErrNoOpenShift indicates the store has no open shift to act on
var ErrNoOpenShift = shared.NewDomainError("NO_OPEN_SHIFT", "No open shift exists for this store")

// CashShiftRepository defines the interface for cash shift persistence
type CashShiftRepository interface {
	// FindByID finds a shift by ID for a tenant, with movements loaded
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*CashShift, error)

	// FindOpenByStore finds the single open shift for a store.
	// Returns shared.ErrNotFound when the store has no open shift.
	FindOpenByStore(ctx context.Context, tenantID, storeID uuid.UUID) (*CashShift, error)

	// FindAll finds shifts for a tenant, optionally narrowed to a store,
	// with filtering and pagination
	FindAll(ctx context.Context, tenantID uuid.UUID, storeID *uuid.UUID, filter shared.Filter) ([]CashShift, error)

	// Count counts shifts matching the same criteria as FindAll
	Count(ctx context.Context, tenantID uuid.UUID, storeID *uuid.UUID, filter shared.Filter) (int64, error)

	// Save creates or updates a shift together with its movements.
	// Returns ErrShiftAlreadyOpen when inserting a second open shift for
	// the same store.
	Save(ctx context.Context, shift *CashShift) error

	// SaveWithLock saves with an optimistic locking version check
	SaveWithLock(ctx context.Context, shift *CashShift) error
}

// ExpenseRecord is a read model over operational expenses paid during a
// shift window. Expenses are registered by the purchasing side; the shift
// only reads them to subtract cash outflows from the expected drawer.
type ExpenseRecord struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	StoreID      uuid.UUID
	Description  string
	Amount       decimal.Decimal
	TenderMethod string
	SpentAt      time.Time
}

// ExpenseQuery reads expense figures for shift reconciliation
type ExpenseQuery interface {
	// CashExpenseTotal sums cash-paid expenses for a store inside the window
	CashExpenseTotal(ctx context.Context, tenantID, storeID uuid.UUID, from, to time.Time) (decimal.Decimal, error)

	// FindByWindow lists expenses for a store inside the window
	FindByWindow(ctx context.Context, tenantID, storeID uuid.UUID, from, to time.Time) ([]ExpenseRecord, error)
}

// CreditCollectionQuery reads cash collected on outstanding credit balances
// during a shift window. Collections are registered by the receivables side.
type CreditCollectionQuery interface {
	// CashCollectionTotal sums cash credit collections for a store inside
	// the window
	CashCollectionTotal(ctx context.Context, tenantID, storeID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
}
