package sales

import (
	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeSale = "Sale"

// Event type constants
const (
	EventTypeSaleCreated   = "SaleCreated"
	EventTypeSaleCompleted = "SaleCompleted"
	EventTypeSaleRefunded  = "SaleRefunded"
)

// SaleCreatedEvent is raised when a new pending sale is created
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID  `json:"sale_id"`
	SaleNumber string     `json:"sale_number"`
	StoreID    uuid.UUID  `json:"store_id"`
	CashierID  uuid.UUID  `json:"cashier_id"`
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
}

// NewSaleCreatedEvent creates a new SaleCreatedEvent
func NewSaleCreatedEvent(sale *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, sale.ID, sale.TenantID),
		SaleID:          sale.ID,
		SaleNumber:      sale.SaleNumber,
		StoreID:         sale.StoreID,
		CashierID:       sale.CashierID,
		CustomerID:      sale.CustomerID,
	}
}

// EventType returns the event type name
func (e *SaleCreatedEvent) EventType() string {
	return EventTypeSaleCreated
}

// SaleItemInfo carries line data on sale lifecycle events
type SaleItemInfo struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	BaseQuantity decimal.Decimal `json:"base_quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// SaleCompletedEvent is raised when a sale transitions to Completed
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	SaleID       uuid.UUID       `json:"sale_id"`
	SaleNumber   string          `json:"sale_number"`
	StoreID      uuid.UUID       `json:"store_id"`
	DocumentType string          `json:"document_type"`
	Total        decimal.Decimal `json:"total"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	Items        []SaleItemInfo  `json:"items"`
}

// NewSaleCompletedEvent creates a new SaleCompletedEvent
func NewSaleCompletedEvent(sale *Sale) *SaleCompletedEvent {
	items := make([]SaleItemInfo, len(sale.Items))
	for i, item := range sale.Items {
		items[i] = SaleItemInfo{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			Quantity:     item.Quantity,
			BaseQuantity: item.BaseQuantity(),
			Subtotal:     item.Subtotal,
		}
	}
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, AggregateTypeSale, sale.ID, sale.TenantID),
		SaleID:          sale.ID,
		SaleNumber:      sale.SaleNumber,
		StoreID:         sale.StoreID,
		DocumentType:    sale.DocumentType,
		Total:           sale.Total,
		TaxAmount:       sale.TaxAmount,
		Items:           items,
	}
}

// EventType returns the event type name
func (e *SaleCompletedEvent) EventType() string {
	return EventTypeSaleCompleted
}

// SaleRefundedEvent is raised when a completed sale is reversed
type SaleRefundedEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID       `json:"sale_id"`
	SaleNumber string          `json:"sale_number"`
	StoreID    uuid.UUID       `json:"store_id"`
	Total      decimal.Decimal `json:"total"`
}

// NewSaleRefundedEvent creates a new SaleRefundedEvent
func NewSaleRefundedEvent(sale *Sale) *SaleRefundedEvent {
	return &SaleRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleRefunded, AggregateTypeSale, sale.ID, sale.TenantID),
		SaleID:          sale.ID,
		SaleNumber:      sale.SaleNumber,
		StoreID:         sale.StoreID,
		Total:           sale.Total,
	}
}

// EventType returns the event type name
func (e *SaleRefundedEvent) EventType() string {
	return EventTypeSaleRefunded
}
