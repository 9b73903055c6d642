package cashier

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/sales"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ShiftStatus represents the status of a cash shift
type ShiftStatus string

const (
	ShiftStatusOpen   ShiftStatus = "OPEN"
	ShiftStatusClosed ShiftStatus = "CLOSED"
)

// IsValid checks if the status is a valid ShiftStatus
func (s ShiftStatus) IsValid() bool {
	return s == ShiftStatusOpen || s == ShiftStatusClosed
}

// String returns the string representation of ShiftStatus
func (s ShiftStatus) String() string {
	return string(s)
}

// ShiftActivity carries the sales-side figures a shift needs for
// reconciliation: completed-sale totals per tender, cash collected on
// previously extended credit, and cash expenses paid from the drawer.
// The figures are read from the sales ledger for the shift's window;
// the shift itself never owns them.
type ShiftActivity struct {
	SalesByTender     map[sales.TenderMethod]decimal.Decimal
	CreditCollections decimal.Decimal // cash collected on fiado balances
	CashExpenses      decimal.Decimal // expenses paid in cash from the drawer
}

// TenderTotal returns the sales total for one tender method
func (a ShiftActivity) TenderTotal(method sales.TenderMethod) decimal.Decimal {
	if a.SalesByTender == nil {
		return decimal.Zero
	}
	if total, ok := a.SalesByTender[method]; ok {
		return total
	}
	return decimal.Zero
}

// CashShift is the aggregate root for one cashier session at a store.
// It opens with a counted float, accumulates manual drawer movements while
// open, and closes with a counted amount that is reconciled against the
// expected drawer content. Sales are never recorded on the shift; they live
// in the sales ledger and are aggregated into the shift at close time.
//
// At most one shift per store may be Open at a time; the persistence layer
// enforces that with a partial unique index.
type CashShift struct {
	shared.TenantAggregateRoot
	StoreID     uuid.UUID
	CashierID   uuid.UUID
	CashierName string
	Status      ShiftStatus
	OpenedAt    time.Time
	ClosedAt    *time.Time
	StartAmount decimal.Decimal
	Movements   []CashMovement `gorm:"foreignKey:CashShiftID"`

	// Reconciliation snapshot, stamped at close and immutable afterwards.
	CashSales         decimal.Decimal
	CardSales         decimal.Decimal
	TransferSales     decimal.Decimal
	WalletSales       decimal.Decimal
	CreditSales       decimal.Decimal
	CreditCollections decimal.Decimal
	CashExpenses      decimal.Decimal
	ExpectedAmount    decimal.Decimal
	ActualAmount      decimal.Decimal
	Difference        decimal.Decimal
	ClosingNotes      string
}

// OpenCashShift opens a new shift with the counted opening float
func OpenCashShift(tenantID, storeID, cashierID uuid.UUID, cashierName string, startAmount decimal.Decimal) (*CashShift, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STORE", "Store ID cannot be empty")
	}
	if cashierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CASHIER", "Cashier ID cannot be empty")
	}
	if startAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Opening amount cannot be negative")
	}

	shift := &CashShift{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		StoreID:             storeID,
		CashierID:           cashierID,
		CashierName:         cashierName,
		Status:              ShiftStatusOpen,
		OpenedAt:            time.Now().UTC(),
		StartAmount:         startAmount,
		Movements:           make([]CashMovement, 0),
	}

	shift.AddDomainEvent(NewShiftOpenedEvent(shift))
	return shift, nil
}

// AddMovement records a manual drawer adjustment. Only allowed while Open.
func (s *CashShift) AddMovement(movementType MovementType, amount decimal.Decimal, description string, recordedBy uuid.UUID) (*CashMovement, error) {
	if s.Status != ShiftStatusOpen {
		return nil, shared.NewDomainError("SHIFT_NOT_OPEN", "Cannot record a movement on a closed shift")
	}

	movement, err := NewCashMovement(s.ID, movementType, amount, description, recordedBy)
	if err != nil {
		return nil, err
	}
	s.Movements = append(s.Movements, *movement)
	s.UpdatedAt = time.Now()
	s.AddDomainEvent(NewCashMovementRecordedEvent(s, movement))
	return movement, nil
}

// CashIn returns the sum of manual IN movements
func (s *CashShift) CashIn() decimal.Decimal {
	sum := decimal.Zero
	for _, m := range s.Movements {
		if m.Type == MovementIn {
			sum = sum.Add(m.Amount)
		}
	}
	return sum
}

// CashOut returns the sum of manual OUT movements
func (s *CashShift) CashOut() decimal.Decimal {
	sum := decimal.Zero
	for _, m := range s.Movements {
		if m.Type == MovementOut {
			sum = sum.Add(m.Amount)
		}
	}
	return sum
}

// ExpectedCash computes the drawer content the activity implies:
// opening float, plus cash that entered (cash sales, credit collections,
// manual IN), minus cash that left (manual OUT, cash expenses).
func (s *CashShift) ExpectedCash(activity ShiftActivity) decimal.Decimal {
	return s.StartAmount.
		Add(activity.TenderTotal(sales.TenderCash)).
		Add(activity.CreditCollections).
		Add(s.CashIn()).
		Sub(s.CashOut()).
		Sub(activity.CashExpenses)
}

// Close reconciles and closes the shift. The counted actual amount is
// compared against the expected drawer content; the signed difference
// (actual minus expected, negative means missing cash) is stamped on the
// shift together with the full activity snapshot. Closing twice fails.
func (s *CashShift) Close(actualAmount decimal.Decimal, activity ShiftActivity, notes string) error {
	if s.Status != ShiftStatusOpen {
		return shared.NewDomainError("SHIFT_NOT_OPEN", fmt.Sprintf("Cannot close shift in %s status", s.Status))
	}
	if actualAmount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Counted amount cannot be negative")
	}

	now := time.Now().UTC()
	s.Status = ShiftStatusClosed
	s.ClosedAt = &now
	s.CashSales = activity.TenderTotal(sales.TenderCash)
	s.CardSales = activity.TenderTotal(sales.TenderCard)
	s.TransferSales = activity.TenderTotal(sales.TenderTransfer)
	s.WalletSales = activity.TenderTotal(sales.TenderWallet)
	s.CreditSales = activity.TenderTotal(sales.TenderCredit)
	s.CreditCollections = activity.CreditCollections
	s.CashExpenses = activity.CashExpenses
	s.ExpectedAmount = s.ExpectedCash(activity)
	s.ActualAmount = actualAmount
	s.Difference = actualAmount.Sub(s.ExpectedAmount)
	s.ClosingNotes = notes
	s.UpdatedAt = time.Now()

	s.AddDomainEvent(NewShiftClosedEvent(s))
	return nil
}

// TotalSales returns the sum of sales across all tenders in the snapshot.
// Only meaningful on a closed shift.
func (s *CashShift) TotalSales() decimal.Decimal {
	return s.CashSales.Add(s.CardSales).Add(s.TransferSales).Add(s.WalletSales).Add(s.CreditSales)
}

// IsOpen reports whether the shift is still accepting activity
func (s *CashShift) IsOpen() bool {
	return s.Status == ShiftStatusOpen
}
