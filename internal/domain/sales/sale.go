package sales

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DocumentType codes follow the national electronic invoicing catalog
const (
	DocumentTypeInvoice   = "01" // factura, requires a customer with a valid tax ID
	DocumentTypeReceipt   = "03" // boleta
	DocumentTypeSalesNote = "80" // internal sales note, default
)

// DefaultTaxRate is the tax-inclusive IGV rate applied when none is configured
var DefaultTaxRate = decimal.NewFromFloat(0.18)

// DefaultPaymentTolerance absorbs rounding differences when deciding whether
// a sale is fully paid. Kept configurable; the default mirrors the historical
// policy of accepting up to 0.05 currency units of slack.
var DefaultPaymentTolerance = decimal.NewFromFloat(0.05)

// SaleStatus represents the status of a sale
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "PENDING"
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusRefunded  SaleStatus = "REFUNDED"
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusPending, SaleStatusCompleted, SaleStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s SaleStatus) CanTransitionTo(target SaleStatus) bool {
	switch s {
	case SaleStatusPending:
		return target == SaleStatusCompleted
	case SaleStatusCompleted:
		return target == SaleStatusRefunded
	case SaleStatusRefunded:
		return false // terminal
	}
	return false
}

// SaleItem represents a line item in a sale.
// Product name, code and unit data are denormalized at sale time so the
// line survives later catalog changes.
type SaleItem struct {
	ID               uuid.UUID
	SaleID           uuid.UUID
	ProductID        uuid.UUID
	ProductName      string
	ProductCode      string
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	DiscountAmount   decimal.Decimal
	Subtotal         decimal.Decimal // Quantity*UnitPrice - DiscountAmount
	ConversionFactor decimal.Decimal // sale unit -> inventory base unit
	UOMID            *uuid.UUID
	UOMCode          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewSaleItem creates a new sale line item
func NewSaleItem(saleID, productID uuid.UUID, name, code string, quantity, unitPrice, discount, conversionFactor decimal.Decimal, uomID *uuid.UUID, uomCode string) (*SaleItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	if conversionFactor.LessThanOrEqual(decimal.Zero) {
		conversionFactor = decimal.NewFromInt(1)
	}

	now := time.Now()
	item := &SaleItem{
		ID:               uuid.New(),
		SaleID:           saleID,
		ProductID:        productID,
		ProductName:      name,
		ProductCode:      code,
		Quantity:         quantity,
		UnitPrice:        unitPrice,
		DiscountAmount:   discount,
		ConversionFactor: conversionFactor,
		UOMID:            uomID,
		UOMCode:          uomCode,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	item.recalculate()
	return item, nil
}

// UpdateQuantity updates the item quantity and recalculates the subtotal
func (i *SaleItem) UpdateQuantity(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	i.Quantity = quantity
	i.recalculate()
	i.UpdatedAt = time.Now()
	return nil
}

// BaseQuantity returns the quantity expressed in inventory base units,
// rounded up so a fractional conversion never under-deducts stock.
func (i *SaleItem) BaseQuantity() decimal.Decimal {
	return i.Quantity.Mul(i.ConversionFactor).Ceil()
}

func (i *SaleItem) recalculate() {
	i.Subtotal = i.Quantity.Mul(i.UnitPrice).Sub(i.DiscountAmount)
}

// sameLine reports whether another add targets this line (same product sold
// in the same unit of measure)
func (i *SaleItem) sameLine(productID uuid.UUID, uomID *uuid.UUID) bool {
	if i.ProductID != productID {
		return false
	}
	if i.UOMID == nil || uomID == nil {
		return i.UOMID == nil && uomID == nil
	}
	return *i.UOMID == *uomID
}

// Payment represents a settlement applied to a sale.
// Payments are append-only: once recorded they are never edited or removed.
type Payment struct {
	ID        uuid.UUID
	SaleID    uuid.UUID
	Method    TenderMethod
	Amount    decimal.Decimal
	Reference string
	PaidAt    time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPayment creates a new payment record
func NewPayment(saleID uuid.UUID, method TenderMethod, amount decimal.Decimal, reference string) (*Payment, error) {
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_TENDER", fmt.Sprintf("Unknown tender method %q", method))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	now := time.Now()
	return &Payment{
		ID:        uuid.New(),
		SaleID:    saleID,
		Method:    method,
		Amount:    amount,
		Reference: reference,
		PaidAt:    now,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Sale is the aggregate root for a point-of-sale transaction.
// A sale is mutable only while Pending; Completed freezes it entirely and
// Refunded marks a completed sale as reversed. Totals use tax-inclusive
// pricing: Total already contains tax, Subtotal is back-calculated.
//
// Instances are not safe for concurrent mutation; callers must serialize
// access to a single sale.
type Sale struct {
	shared.TenantAggregateRoot
	SaleNumber       string
	StoreID          uuid.UUID
	CashierID        uuid.UUID
	CashierName      string
	CustomerID       *uuid.UUID
	SaleDate         time.Time
	Items            []SaleItem `gorm:"foreignKey:SaleID"`
	Payments         []Payment  `gorm:"foreignKey:SaleID"`
	Subtotal         decimal.Decimal
	DiscountAmount   decimal.Decimal
	TaxAmount        decimal.Decimal
	Total            decimal.Decimal
	TaxRate          decimal.Decimal
	PaymentTolerance decimal.Decimal
	Status           SaleStatus
	Notes            string
	DocumentType     string
	DocumentSeries   *string
	DocumentNumber   *string
}

// NewSale creates a new pending sale
func NewSale(tenantID, storeID, cashierID uuid.UUID, cashierName string, customerID *uuid.UUID, documentType, notes string, taxRate decimal.Decimal) (*Sale, error) {
	if storeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STORE", "Store ID cannot be empty")
	}
	if cashierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CASHIER", "Cashier ID cannot be empty")
	}
	if documentType == "" {
		documentType = DocumentTypeSalesNote
	}
	if taxRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate cannot be negative")
	}
	if taxRate.IsZero() {
		taxRate = DefaultTaxRate
	}

	sale := &Sale{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SaleNumber:          generateSaleNumber(),
		StoreID:             storeID,
		CashierID:           cashierID,
		CashierName:         cashierName,
		CustomerID:          customerID,
		SaleDate:            time.Now().UTC(),
		Items:               make([]SaleItem, 0),
		Payments:            make([]Payment, 0),
		Subtotal:            decimal.Zero,
		DiscountAmount:      decimal.Zero,
		TaxAmount:           decimal.Zero,
		Total:               decimal.Zero,
		TaxRate:             taxRate,
		PaymentTolerance:    DefaultPaymentTolerance,
		Status:              SaleStatusPending,
		Notes:               notes,
		DocumentType:        documentType,
	}

	sale.AddDomainEvent(NewSaleCreatedEvent(sale))
	return sale, nil
}

// generateSaleNumber builds the internal human-readable sale number.
// This is not the legal document number; that comes from the numbering service.
func generateSaleNumber() string {
	now := time.Now().UTC()
	return fmt.Sprintf("V%s%06d", now.Format("20060102"), now.UnixNano()%1000000)
}

// AddItem adds a line item to the sale. If a line for the same product and
// unit of measure already exists its quantity is increased instead of a
// duplicate line being appended. Only allowed while Pending.
func (s *Sale) AddItem(productID uuid.UUID, name, code string, quantity, unitPrice, discount, conversionFactor decimal.Decimal, uomID *uuid.UUID, uomCode string) error {
	if s.Status != SaleStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a completed sale")
	}

	for idx := range s.Items {
		if s.Items[idx].sameLine(productID, uomID) {
			if err := s.Items[idx].UpdateQuantity(s.Items[idx].Quantity.Add(quantity)); err != nil {
				return err
			}
			s.recalculateTotals()
			s.UpdatedAt = time.Now()
			return nil
		}
	}

	item, err := NewSaleItem(s.ID, productID, name, code, quantity, unitPrice, discount, conversionFactor, uomID, uomCode)
	if err != nil {
		return err
	}
	s.Items = append(s.Items, *item)
	s.recalculateTotals()
	s.UpdatedAt = time.Now()
	return nil
}

// RemoveItem removes the first line for the given product.
// Only allowed while Pending.
func (s *Sale) RemoveItem(productID uuid.UUID) error {
	if s.Status != SaleStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a completed sale")
	}

	for idx, item := range s.Items {
		if item.ProductID == productID {
			s.Items = append(s.Items[:idx], s.Items[idx+1:]...)
			s.recalculateTotals()
			s.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", "Sale item not found")
}

// UpdateItemQuantity sets the quantity of the line for the given product.
// A quantity of zero or less removes the line. Only allowed while Pending.
func (s *Sale) UpdateItemQuantity(productID uuid.UUID, quantity decimal.Decimal) error {
	if s.Status != SaleStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a completed sale")
	}

	if quantity.LessThanOrEqual(decimal.Zero) {
		return s.RemoveItem(productID)
	}

	for idx := range s.Items {
		if s.Items[idx].ProductID == productID {
			if err := s.Items[idx].UpdateQuantity(quantity); err != nil {
				return err
			}
			s.recalculateTotals()
			s.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", "Sale item not found")
}

// ApplyDiscount sets the sale-level discount. Only allowed while Pending.
func (s *Sale) ApplyDiscount(amount decimal.Decimal) error {
	if s.Status != SaleStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a completed sale")
	}
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	if amount.GreaterThan(s.grossTotal()) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed the item total")
	}

	s.DiscountAmount = amount
	s.recalculateTotals()
	s.UpdatedAt = time.Now()
	return nil
}

// AddPayment appends a payment to the sale. When the running payment sum
// covers the total within the configured tolerance the sale transitions to
// Completed. The returned bool reports whether that transition happened.
// Payments are append-only; only allowed while Pending.
func (s *Sale) AddPayment(method TenderMethod, amount decimal.Decimal, reference string) (bool, error) {
	if s.Status != SaleStatusPending {
		return false, shared.NewDomainError("INVALID_STATE", "Cannot add payment to a completed sale")
	}
	if method == TenderCredit && s.CustomerID == nil {
		return false, shared.NewDomainError("CUSTOMER_REQUIRED", "Credit sales require a customer")
	}

	payment, err := NewPayment(s.ID, method, amount, reference)
	if err != nil {
		return false, err
	}
	s.Payments = append(s.Payments, *payment)
	s.UpdatedAt = time.Now()

	if s.isCovered() && len(s.Items) > 0 {
		s.complete()
		return true, nil
	}
	return false, nil
}

// Complete finalizes the sale and stamps the legal document identifiers.
// Fails on an empty sale, on insufficient payment, and on a sale that is
// already Completed or Refunded; completing twice never re-executes.
func (s *Sale) Complete(documentSeries, documentNumber string) error {
	if s.Status != SaleStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete sale in %s status", s.Status))
	}
	if len(s.Items) == 0 {
		return shared.NewDomainError("EMPTY_SALE", "Cannot complete a sale without items")
	}
	if !s.isCovered() {
		return shared.NewDomainError("INSUFFICIENT_PAYMENT",
			fmt.Sprintf("Insufficient payment: paid %s of %s", s.PaidAmount().StringFixed(2), s.Total.StringFixed(2)))
	}

	s.complete()
	s.stampDocument(documentSeries, documentNumber)
	return nil
}

// AttachDocument stamps the legal document identifiers on a sale that was
// auto-completed by its covering payment. Valid exactly once, and only on a
// Completed sale that has no document yet.
func (s *Sale) AttachDocument(documentSeries, documentNumber string) error {
	if s.Status != SaleStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Can only attach a document to a completed sale")
	}
	if s.DocumentNumber != nil {
		return shared.NewDomainError("DOCUMENT_ALREADY_ASSIGNED", "Sale already carries a document number")
	}
	s.stampDocument(documentSeries, documentNumber)
	return nil
}

// Refund marks a completed sale as reversed. Stock restoration and credit
// reversal are coordinated outside the aggregate.
func (s *Sale) Refund() error {
	if s.Status != SaleStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Only completed sales can be refunded")
	}
	s.Status = SaleStatusRefunded
	s.UpdatedAt = time.Now()
	s.AddDomainEvent(NewSaleRefundedEvent(s))
	return nil
}

// PaidAmount returns the running sum of recorded payments
func (s *Sale) PaidAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range s.Payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// RemainingAmount returns the amount still owed
func (s *Sale) RemainingAmount() decimal.Decimal {
	return s.Total.Sub(s.PaidAmount())
}

// IsFullyPaid reports whether payments cover the total within tolerance
func (s *Sale) IsFullyPaid() bool {
	return s.isCovered()
}

// PaidByMethod returns the payment sum for one tender method
func (s *Sale) PaidByMethod(method TenderMethod) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range s.Payments {
		if p.Method == method {
			sum = sum.Add(p.Amount)
		}
	}
	return sum
}

// CreditPayment returns the first credit-tender payment, if any
func (s *Sale) CreditPayment() *Payment {
	for idx := range s.Payments {
		if s.Payments[idx].Method == TenderCredit {
			return &s.Payments[idx]
		}
	}
	return nil
}

func (s *Sale) isCovered() bool {
	return s.PaidAmount().GreaterThanOrEqual(s.Total.Sub(s.tolerance()))
}

func (s *Sale) tolerance() decimal.Decimal {
	if s.PaymentTolerance.IsPositive() {
		return s.PaymentTolerance
	}
	return DefaultPaymentTolerance
}

func (s *Sale) complete() {
	s.Status = SaleStatusCompleted
	s.UpdatedAt = time.Now()
	s.AddDomainEvent(NewSaleCompletedEvent(s))
}

func (s *Sale) stampDocument(series, number string) {
	if series != "" {
		s.DocumentSeries = &series
	}
	if number != "" {
		s.DocumentNumber = &number
	}
	s.UpdatedAt = time.Now()
}

func (s *Sale) grossTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range s.Items {
		sum = sum.Add(item.Subtotal)
	}
	return sum
}

// recalculateTotals recomputes Total, Subtotal and TaxAmount from the lines.
// Prices are tax-inclusive: Total = gross - discount, Subtotal = Total/(1+r),
// Tax = Total - Subtotal. Runs after every total-affecting mutation so a
// pending sale always reads consistently.
func (s *Sale) recalculateTotals() {
	s.Total = s.grossTotal().Sub(s.DiscountAmount)
	divisor := decimal.NewFromInt(1).Add(s.TaxRate)
	s.Subtotal = s.Total.DivRound(divisor, 6)
	s.TaxAmount = s.Total.Sub(s.Subtotal)
}
