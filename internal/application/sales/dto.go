package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// ==================== Sale DTOs ====================

// CreateSaleRequest represents a request to create a pending sale
type CreateSaleRequest struct {
	StoreID      uuid.UUID             `json:"store_id" binding:"required"`
	CustomerID   *uuid.UUID            `json:"customer_id"`
	DocumentType string                `json:"document_type" binding:"omitempty,oneof=01 03 80"`
	Notes        string                `json:"notes" binding:"max=500"`
	Items        []CreateSaleItemInput `json:"items"`
}

// CreateSaleItemInput represents a line in the create sale request
type CreateSaleItemInput struct {
	ProductID        uuid.UUID       `json:"product_id" binding:"required"`
	ProductName      string          `json:"product_name" binding:"required,min=1,max=200"`
	ProductCode      string          `json:"product_code" binding:"max=50"`
	Quantity         decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice        decimal.Decimal `json:"unit_price" binding:"required"`
	Discount         decimal.Decimal `json:"discount"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
	UOMID            *uuid.UUID      `json:"uom_id"`
	UOMCode          string          `json:"uom_code" binding:"max=20"`
}

// AddSaleItemRequest represents a request to add a line to a pending sale
type AddSaleItemRequest = CreateSaleItemInput

// UpdateSaleItemRequest represents a request to change a line quantity.
// A quantity of zero removes the line.
type UpdateSaleItemRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// ApplyDiscountRequest represents a request to set the sale-level discount
type ApplyDiscountRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// PaymentInput represents one payment to apply to a sale
type PaymentInput struct {
	Method    string          `json:"method" binding:"required,oneof=CASH CARD TRANSFER WALLET CREDIT"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference" binding:"max=100"`
}

// CheckoutRequest represents a one-shot cart checkout: sale, items and
// payments submitted together
type CheckoutRequest struct {
	StoreID        uuid.UUID             `json:"store_id" binding:"required"`
	CustomerID     *uuid.UUID            `json:"customer_id"`
	DocumentType   string                `json:"document_type" binding:"omitempty,oneof=01 03 80"`
	Notes          string                `json:"notes" binding:"max=500"`
	Items          []CreateSaleItemInput `json:"items" binding:"required,min=1"`
	Payments       []PaymentInput        `json:"payments" binding:"required,min=1"`
	IdempotencyKey string                `json:"idempotency_key" binding:"max=100"`
}

// SaleListFilter represents filter options for sale list
type SaleListFilter struct {
	Search    string            `form:"search"`
	StoreID   *uuid.UUID        `form:"store_id"`
	Status    *sales.SaleStatus `form:"status"`
	StartDate *time.Time        `form:"start_date"`
	EndDate   *time.Time        `form:"end_date"`
	Page      int               `form:"page" binding:"min=0"`
	PageSize  int               `form:"page_size" binding:"min=0,max=100"`
	OrderBy   string            `form:"order_by"`
	OrderDir  string            `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SaleItemResponse represents a sale line in API responses
type SaleItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	ProductName      string          `json:"product_name"`
	ProductCode      string          `json:"product_code"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
	UOMID            *uuid.UUID      `json:"uom_id,omitempty"`
	UOMCode          string          `json:"uom_code,omitempty"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID        uuid.UUID       `json:"id"`
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
	PaidAt    time.Time       `json:"paid_at"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID              uuid.UUID          `json:"id"`
	TenantID        uuid.UUID          `json:"tenant_id"`
	SaleNumber      string             `json:"sale_number"`
	StoreID         uuid.UUID          `json:"store_id"`
	CashierID       uuid.UUID          `json:"cashier_id"`
	CashierName     string             `json:"cashier_name"`
	CustomerID      *uuid.UUID         `json:"customer_id,omitempty"`
	SaleDate        time.Time          `json:"sale_date"`
	Items           []SaleItemResponse `json:"items"`
	Payments        []PaymentResponse  `json:"payments"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	DiscountAmount  decimal.Decimal    `json:"discount_amount"`
	TaxAmount       decimal.Decimal    `json:"tax_amount"`
	Total           decimal.Decimal    `json:"total"`
	PaidAmount      decimal.Decimal    `json:"paid_amount"`
	RemainingAmount decimal.Decimal    `json:"remaining_amount"`
	Status          string             `json:"status"`
	Notes           string             `json:"notes,omitempty"`
	DocumentType    string             `json:"document_type"`
	DocumentSeries  *string            `json:"document_series,omitempty"`
	DocumentNumber  *string            `json:"document_number,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Version         int                `json:"version"`
}

// SaleListItemResponse represents a sale in list responses (less detail)
type SaleListItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	SaleNumber     string          `json:"sale_number"`
	StoreID        uuid.UUID       `json:"store_id"`
	CashierName    string          `json:"cashier_name"`
	CustomerID     *uuid.UUID      `json:"customer_id,omitempty"`
	SaleDate       time.Time       `json:"sale_date"`
	ItemCount      int             `json:"item_count"`
	Total          decimal.Decimal `json:"total"`
	Status         string          `json:"status"`
	DocumentType   string          `json:"document_type"`
	DocumentSeries *string         `json:"document_series,omitempty"`
	DocumentNumber *string         `json:"document_number,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ==================== Converters ====================

// ToSaleItemResponse converts a domain sale item to its response form
func ToSaleItemResponse(item sales.SaleItem) SaleItemResponse {
	return SaleItemResponse{
		ID:               item.ID,
		ProductID:        item.ProductID,
		ProductName:      item.ProductName,
		ProductCode:      item.ProductCode,
		Quantity:         item.Quantity,
		UnitPrice:        item.UnitPrice,
		DiscountAmount:   item.DiscountAmount,
		Subtotal:         item.Subtotal,
		ConversionFactor: item.ConversionFactor,
		UOMID:            item.UOMID,
		UOMCode:          item.UOMCode,
	}
}

// ToPaymentResponse converts a domain payment to its response form
func ToPaymentResponse(payment sales.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        payment.ID,
		Method:    payment.Method.String(),
		Amount:    payment.Amount,
		Reference: payment.Reference,
		PaidAt:    payment.PaidAt,
	}
}

// ToSaleResponse converts a domain sale to its response form
func ToSaleResponse(sale *sales.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(sale.Items))
	for i, item := range sale.Items {
		items[i] = ToSaleItemResponse(item)
	}
	payments := make([]PaymentResponse, len(sale.Payments))
	for i, payment := range sale.Payments {
		payments[i] = ToPaymentResponse(payment)
	}
	return SaleResponse{
		ID:              sale.ID,
		TenantID:        sale.TenantID,
		SaleNumber:      sale.SaleNumber,
		StoreID:         sale.StoreID,
		CashierID:       sale.CashierID,
		CashierName:     sale.CashierName,
		CustomerID:      sale.CustomerID,
		SaleDate:        sale.SaleDate,
		Items:           items,
		Payments:        payments,
		Subtotal:        sale.Subtotal,
		DiscountAmount:  sale.DiscountAmount,
		TaxAmount:       sale.TaxAmount,
		Total:           sale.Total,
		PaidAmount:      sale.PaidAmount(),
		RemainingAmount: sale.RemainingAmount(),
		Status:          sale.Status.String(),
		Notes:           sale.Notes,
		DocumentType:    sale.DocumentType,
		DocumentSeries:  sale.DocumentSeries,
		DocumentNumber:  sale.DocumentNumber,
		CreatedAt:       sale.CreatedAt,
		UpdatedAt:       sale.UpdatedAt,
		Version:         sale.Version,
	}
}

// ToSaleListItemResponse converts a domain sale to its list response form
func ToSaleListItemResponse(sale *sales.Sale) SaleListItemResponse {
	return SaleListItemResponse{
		ID:             sale.ID,
		SaleNumber:     sale.SaleNumber,
		StoreID:        sale.StoreID,
		CashierName:    sale.CashierName,
		CustomerID:     sale.CustomerID,
		SaleDate:       sale.SaleDate,
		ItemCount:      len(sale.Items),
		Total:          sale.Total,
		Status:         sale.Status.String(),
		DocumentType:   sale.DocumentType,
		DocumentSeries: sale.DocumentSeries,
		DocumentNumber: sale.DocumentNumber,
		CreatedAt:      sale.CreatedAt,
	}
}

// ToSaleListItemResponses converts a slice of domain sales
func ToSaleListItemResponses(items []sales.Sale) []SaleListItemResponse {
	responses := make([]SaleListItemResponse, len(items))
	for i := range items {
		responses[i] = ToSaleListItemResponse(&items[i])
	}
	return responses
}
