package cashier

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/cashier"
	salesdomain "github.com/pos/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// ==================== Cash Shift DTOs ====================

// OpenShiftRequest represents a request to open a cash shift
type OpenShiftRequest struct {
	StoreID     uuid.UUID       `json:"store_id" binding:"required"`
	StartAmount decimal.Decimal `json:"start_amount"`
}

// AddMovementRequest represents a request to record a manual drawer movement
type AddMovementRequest struct {
	Type        string          `json:"type" binding:"required,oneof=IN OUT"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"required,min=1,max=300"`
}

// CloseShiftRequest represents a request to close and reconcile a shift
type CloseShiftRequest struct {
	ActualAmount decimal.Decimal `json:"actual_amount" binding:"required"`
	Notes        string          `json:"notes" binding:"max=500"`
}

// ShiftListFilter represents filter options for shift history
type ShiftListFilter struct {
	StoreID  *uuid.UUID           `form:"store_id"`
	Status   *cashier.ShiftStatus `form:"status"`
	Page     int                  `form:"page" binding:"min=0"`
	PageSize int                  `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string               `form:"order_by"`
	OrderDir string               `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MovementResponse represents a cash movement in API responses
type MovementResponse struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	RecordedBy  uuid.UUID       `json:"recorded_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ShiftResponse represents a cash shift in API responses. For an open shift
// the sales, expense and expected figures are recomputed from the ledger at
// read time; for a closed shift they are the stored reconciliation snapshot.
type ShiftResponse struct {
	ID                uuid.UUID          `json:"id"`
	TenantID          uuid.UUID          `json:"tenant_id"`
	StoreID           uuid.UUID          `json:"store_id"`
	CashierID         uuid.UUID          `json:"cashier_id"`
	CashierName       string             `json:"cashier_name"`
	Status            string             `json:"status"`
	OpenedAt          time.Time          `json:"opened_at"`
	ClosedAt          *time.Time         `json:"closed_at,omitempty"`
	StartAmount       decimal.Decimal    `json:"start_amount"`
	Movements         []MovementResponse `json:"movements"`
	CashIn            decimal.Decimal    `json:"cash_in"`
	CashOut           decimal.Decimal    `json:"cash_out"`
	CashSales         decimal.Decimal    `json:"cash_sales"`
	CardSales         decimal.Decimal    `json:"card_sales"`
	TransferSales     decimal.Decimal    `json:"transfer_sales"`
	WalletSales       decimal.Decimal    `json:"wallet_sales"`
	CreditSales       decimal.Decimal    `json:"credit_sales"`
	CreditCollections decimal.Decimal    `json:"credit_collections"`
	CashExpenses      decimal.Decimal    `json:"cash_expenses"`
	TotalSales        decimal.Decimal    `json:"total_sales"`
	ExpectedAmount    decimal.Decimal    `json:"expected_amount"`
	ActualAmount      *decimal.Decimal   `json:"actual_amount,omitempty"`
	Difference        *decimal.Decimal   `json:"difference,omitempty"`
	ClosingNotes      string             `json:"closing_notes,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	Version           int                `json:"version"`
}

// ShiftListItemResponse represents a shift in list responses (less detail)
type ShiftListItemResponse struct {
	ID             uuid.UUID        `json:"id"`
	StoreID        uuid.UUID        `json:"store_id"`
	CashierName    string           `json:"cashier_name"`
	Status         string           `json:"status"`
	OpenedAt       time.Time        `json:"opened_at"`
	ClosedAt       *time.Time       `json:"closed_at,omitempty"`
	StartAmount    decimal.Decimal  `json:"start_amount"`
	ExpectedAmount decimal.Decimal  `json:"expected_amount"`
	ActualAmount   *decimal.Decimal `json:"actual_amount,omitempty"`
	Difference     *decimal.Decimal `json:"difference,omitempty"`
}

// ExpenseResponse represents an expense read from the purchasing side
type ExpenseResponse struct {
	ID           uuid.UUID       `json:"id"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	TenderMethod string          `json:"tender_method"`
	SpentAt      time.Time       `json:"spent_at"`
}

// ==================== Converters ====================

// ToMovementResponse converts a domain movement to its response form
func ToMovementResponse(m cashier.CashMovement) MovementResponse {
	return MovementResponse{
		ID:          m.ID,
		Type:        m.Type.String(),
		Amount:      m.Amount,
		Description: m.Description,
		RecordedBy:  m.RecordedBy,
		CreatedAt:   m.CreatedAt,
	}
}

// ToShiftResponse converts a domain shift to its response form. For open
// shifts the caller supplies the live activity; for closed shifts the
// stored snapshot wins and activity is ignored.
func ToShiftResponse(shift *cashier.CashShift, activity cashier.ShiftActivity) ShiftResponse {
	movements := make([]MovementResponse, len(shift.Movements))
	for i, m := range shift.Movements {
		movements[i] = ToMovementResponse(m)
	}

	resp := ShiftResponse{
		ID:          shift.ID,
		TenantID:    shift.TenantID,
		StoreID:     shift.StoreID,
		CashierID:   shift.CashierID,
		CashierName: shift.CashierName,
		Status:      shift.Status.String(),
		OpenedAt:    shift.OpenedAt,
		ClosedAt:    shift.ClosedAt,
		StartAmount: shift.StartAmount,
		Movements:   movements,
		CashIn:      shift.CashIn(),
		CashOut:     shift.CashOut(),
		CreatedAt:   shift.CreatedAt,
		UpdatedAt:   shift.UpdatedAt,
		Version:     shift.Version,
	}

	if shift.IsOpen() {
		resp.CashSales = activity.TenderTotal(salesdomain.TenderCash)
		resp.CardSales = activity.TenderTotal(salesdomain.TenderCard)
		resp.TransferSales = activity.TenderTotal(salesdomain.TenderTransfer)
		resp.WalletSales = activity.TenderTotal(salesdomain.TenderWallet)
		resp.CreditSales = activity.TenderTotal(salesdomain.TenderCredit)
		resp.CreditCollections = activity.CreditCollections
		resp.CashExpenses = activity.CashExpenses
		resp.ExpectedAmount = shift.ExpectedCash(activity)
	} else {
		resp.CashSales = shift.CashSales
		resp.CardSales = shift.CardSales
		resp.TransferSales = shift.TransferSales
		resp.WalletSales = shift.WalletSales
		resp.CreditSales = shift.CreditSales
		resp.CreditCollections = shift.CreditCollections
		resp.CashExpenses = shift.CashExpenses
		resp.ExpectedAmount = shift.ExpectedAmount
		actual := shift.ActualAmount
		difference := shift.Difference
		resp.ActualAmount = &actual
		resp.Difference = &difference
		resp.ClosingNotes = shift.ClosingNotes
	}
	resp.TotalSales = resp.CashSales.Add(resp.CardSales).Add(resp.TransferSales).Add(resp.WalletSales).Add(resp.CreditSales)

	return resp
}

// ToShiftListItemResponse converts a domain shift to its list response form
func ToShiftListItemResponse(shift *cashier.CashShift) ShiftListItemResponse {
	resp := ShiftListItemResponse{
		ID:          shift.ID,
		StoreID:     shift.StoreID,
		CashierName: shift.CashierName,
		Status:      shift.Status.String(),
		OpenedAt:    shift.OpenedAt,
		ClosedAt:    shift.ClosedAt,
		StartAmount: shift.StartAmount,
	}
	if !shift.IsOpen() {
		resp.ExpectedAmount = shift.ExpectedAmount
		actual := shift.ActualAmount
		difference := shift.Difference
		resp.ActualAmount = &actual
		resp.Difference = &difference
	}
	return resp
}

// ToShiftListItemResponses converts a slice of domain shifts
func ToShiftListItemResponses(items []cashier.CashShift) []ShiftListItemResponse {
	responses := make([]ShiftListItemResponse, len(items))
	for i := range items {
		responses[i] = ToShiftListItemResponse(&items[i])
	}
	return responses
}

// ToExpenseResponses converts expense read models
func ToExpenseResponses(items []cashier.ExpenseRecord) []ExpenseResponse {
	responses := make([]ExpenseResponse, len(items))
	for i, e := range items {
		responses[i] = ExpenseResponse{
			ID:           e.ID,
			Description:  e.Description,
			Amount:       e.Amount,
			TenderMethod: e.TenderMethod,
			SpentAt:      e.SpentAt,
		}
	}
	return responses
}
