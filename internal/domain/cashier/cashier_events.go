package cashier

import (
	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeCashShift = "CashShift"

// Event type constants
const (
	EventTypeShiftOpened          = "CashShiftOpened"
	EventTypeShiftClosed          = "CashShiftClosed"
	EventTypeCashMovementRecorded = "CashMovementRecorded"
)

// ShiftOpenedEvent is raised when a cashier opens a shift
type ShiftOpenedEvent struct {
	shared.BaseDomainEvent
	ShiftID     uuid.UUID       `json:"shift_id"`
	StoreID     uuid.UUID       `json:"store_id"`
	CashierID   uuid.UUID       `json:"cashier_id"`
	StartAmount decimal.Decimal `json:"start_amount"`
}

// NewShiftOpenedEvent creates a new ShiftOpenedEvent
func NewShiftOpenedEvent(shift *CashShift) *ShiftOpenedEvent {
	return &ShiftOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShiftOpened, AggregateTypeCashShift, shift.ID, shift.TenantID),
		ShiftID:         shift.ID,
		StoreID:         shift.StoreID,
		CashierID:       shift.CashierID,
		StartAmount:     shift.StartAmount,
	}
}

// EventType returns the event type name
func (e *ShiftOpenedEvent) EventType() string {
	return EventTypeShiftOpened
}

// ShiftClosedEvent is raised when a shift is reconciled and closed
type ShiftClosedEvent struct {
	shared.BaseDomainEvent
	ShiftID        uuid.UUID       `json:"shift_id"`
	StoreID        uuid.UUID       `json:"store_id"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	ActualAmount   decimal.Decimal `json:"actual_amount"`
	Difference     decimal.Decimal `json:"difference"`
}

// NewShiftClosedEvent creates a new ShiftClosedEvent
func NewShiftClosedEvent(shift *CashShift) *ShiftClosedEvent {
	return &ShiftClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShiftClosed, AggregateTypeCashShift, shift.ID, shift.TenantID),
		ShiftID:         shift.ID,
		StoreID:         shift.StoreID,
		ExpectedAmount:  shift.ExpectedAmount,
		ActualAmount:    shift.ActualAmount,
		Difference:      shift.Difference,
	}
}

// EventType returns the event type name
func (e *ShiftClosedEvent) EventType() string {
	return EventTypeShiftClosed
}

// CashMovementRecordedEvent is raised when a manual drawer movement is added
type CashMovementRecordedEvent struct {
	shared.BaseDomainEvent
	ShiftID      uuid.UUID       `json:"shift_id"`
	MovementID   uuid.UUID       `json:"movement_id"`
	MovementType MovementType    `json:"movement_type"`
	Amount       decimal.Decimal `json:"amount"`
}

// NewCashMovementRecordedEvent creates a new CashMovementRecordedEvent
func NewCashMovementRecordedEvent(shift *CashShift, movement *CashMovement) *CashMovementRecordedEvent {
	return &CashMovementRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCashMovementRecorded, AggregateTypeCashShift, shift.ID, shift.TenantID),
		ShiftID:         shift.ID,
		MovementID:      movement.ID,
		MovementType:    movement.Type,
		Amount:          movement.Amount,
	}
}

// EventType returns the event type name
func (e *CashMovementRecordedEvent) EventType() string {
	return EventTypeCashMovementRecorded
}
