package cashier

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MovementType classifies a manual cash movement within a shift
type MovementType string

const (
	MovementIn  MovementType = "IN"  // cash added to the drawer
	MovementOut MovementType = "OUT" // cash removed from the drawer
)

// IsValid checks if the type is a valid MovementType
func (m MovementType) IsValid() bool {
	return m == MovementIn || m == MovementOut
}

// String returns the string representation of MovementType
func (m MovementType) String() string {
	return string(m)
}

// CashMovement is a manual drawer adjustment recorded against an open shift:
// change brought in, cash sent to the safe, petty cash taken out.
// Movements are append-only.
type CashMovement struct {
	ID          uuid.UUID
	CashShiftID uuid.UUID
	Type        MovementType
	Amount      decimal.Decimal
	Description string
	RecordedBy  uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewCashMovement creates a new cash movement
func NewCashMovement(shiftID uuid.UUID, movementType MovementType, amount decimal.Decimal, description string, recordedBy uuid.UUID) (*CashMovement, error) {
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Movement type must be IN or OUT")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Movement amount must be positive")
	}
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Movement description is required")
	}

	now := time.Now()
	return &CashMovement{
		ID:          uuid.New(),
		CashShiftID: shiftID,
		Type:        movementType,
		Amount:      amount,
		Description: description,
		RecordedBy:  recordedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Signed returns the amount with the movement's direction applied
func (m *CashMovement) Signed() decimal.Decimal {
	if m.Type == MovementOut {
		return m.Amount.Neg()
	}
	return m.Amount
}
