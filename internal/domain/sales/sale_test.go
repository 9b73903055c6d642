package sales

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, code, derr.Code)
}

// Test helpers
func createTestSale(t *testing.T) *Sale {
	sale, err := NewSale(uuid.New(), uuid.New(), uuid.New(), "Test Cashier", nil, DocumentTypeSalesNote, "", decimal.Zero)
	require.NoError(t, err)
	return sale
}

func createTestCreditSale(t *testing.T) *Sale {
	customerID := uuid.New()
	sale, err := NewSale(uuid.New(), uuid.New(), uuid.New(), "Test Cashier", &customerID, DocumentTypeInvoice, "", decimal.Zero)
	require.NoError(t, err)
	return sale
}

func addTestItem(t *testing.T, sale *Sale, name string, quantity, price float64) {
	err := sale.AddItem(uuid.New(), name, "SKU-001",
		decimal.NewFromFloat(quantity), decimal.NewFromFloat(price),
		decimal.Zero, decimal.NewFromInt(1), nil, "UND")
	require.NoError(t, err)
}

// assertTotalsConsistent checks the tax-inclusive totals invariant:
// Total = sum(lines) - discount, Subtotal + Tax = Total.
func assertTotalsConsistent(t *testing.T, sale *Sale) {
	t.Helper()
	gross := decimal.Zero
	for _, item := range sale.Items {
		assert.True(t, item.Subtotal.Equal(item.Quantity.Mul(item.UnitPrice).Sub(item.DiscountAmount)),
			"line subtotal mismatch for %s", item.ProductName)
		gross = gross.Add(item.Subtotal)
	}
	assert.True(t, sale.Total.Equal(gross.Sub(sale.DiscountAmount)), "total = gross - discount")
	assert.True(t, sale.Subtotal.Add(sale.TaxAmount).Equal(sale.Total), "subtotal + tax = total")
}

// ============================================
// SaleStatus Tests
// ============================================

func TestSaleStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  SaleStatus
		isValid bool
	}{
		{SaleStatusPending, true},
		{SaleStatusCompleted, true},
		{SaleStatusRefunded, true},
		{SaleStatus("INVALID"), false},
		{SaleStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestSaleStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     SaleStatus
		to       SaleStatus
		canTrans bool
	}{
		{SaleStatusPending, SaleStatusCompleted, true},
		{SaleStatusPending, SaleStatusRefunded, false},
		{SaleStatusCompleted, SaleStatusRefunded, true},
		{SaleStatusCompleted, SaleStatusPending, false},
		// Refunded is terminal
		{SaleStatusRefunded, SaleStatusPending, false},
		{SaleStatusRefunded, SaleStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

// ============================================
// NewSale Tests
// ============================================

func TestNewSale_Success(t *testing.T) {
	tenantID := uuid.New()
	storeID := uuid.New()
	cashierID := uuid.New()

	sale, err := NewSale(tenantID, storeID, cashierID, "Maria", nil, DocumentTypeReceipt, "walk-in", decimal.Zero)

	require.NoError(t, err)
	assert.Equal(t, tenantID, sale.TenantID)
	assert.Equal(t, storeID, sale.StoreID)
	assert.Equal(t, cashierID, sale.CashierID)
	assert.Equal(t, SaleStatusPending, sale.Status)
	assert.Equal(t, DocumentTypeReceipt, sale.DocumentType)
	assert.True(t, sale.TaxRate.Equal(DefaultTaxRate))
	assert.True(t, sale.Total.IsZero())
	assert.NotEmpty(t, sale.SaleNumber)
	assert.Regexp(t, `^V\d{14}$`, sale.SaleNumber)
	assert.Len(t, sale.GetDomainEvents(), 1)
}

func TestNewSale_DefaultsToSalesNote(t *testing.T) {
	sale, err := NewSale(uuid.New(), uuid.New(), uuid.New(), "Maria", nil, "", "", decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, DocumentTypeSalesNote, sale.DocumentType)
}

func TestNewSale_ValidationErrors(t *testing.T) {
	_, err := NewSale(uuid.New(), uuid.Nil, uuid.New(), "Maria", nil, "", "", decimal.Zero)
	assert.Error(t, err)

	_, err = NewSale(uuid.New(), uuid.New(), uuid.Nil, "Maria", nil, "", "", decimal.Zero)
	assert.Error(t, err)

	_, err = NewSale(uuid.New(), uuid.New(), uuid.New(), "Maria", nil, "", "", decimal.NewFromFloat(-0.1))
	assert.Error(t, err)
}

// ============================================
// Item Tests
// ============================================

func TestSale_AddItem(t *testing.T) {
	sale := createTestSale(t)

	addTestItem(t, sale, "Gaseosa 500ml", 2, 3.50)

	require.Len(t, sale.Items, 1)
	assert.True(t, sale.Total.Equal(decimal.NewFromFloat(7.00)))
	assertTotalsConsistent(t, sale)
}

func TestSale_AddItem_MergesSameProductAndUnit(t *testing.T) {
	sale := createTestSale(t)
	productID := uuid.New()

	err := sale.AddItem(productID, "Arroz", "SKU-A", decimal.NewFromInt(2), decimal.NewFromFloat(4.00), decimal.Zero, decimal.NewFromInt(1), nil, "KG")
	require.NoError(t, err)
	err = sale.AddItem(productID, "Arroz", "SKU-A", decimal.NewFromInt(3), decimal.NewFromFloat(4.00), decimal.Zero, decimal.NewFromInt(1), nil, "KG")
	require.NoError(t, err)

	require.Len(t, sale.Items, 1)
	assert.True(t, sale.Items[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.True(t, sale.Total.Equal(decimal.NewFromFloat(20.00)))
	assertTotalsConsistent(t, sale)
}

func TestSale_AddItem_SameProductDifferentUnitKeepsSeparateLines(t *testing.T) {
	sale := createTestSale(t)
	productID := uuid.New()
	unitID := uuid.New()
	boxID := uuid.New()

	err := sale.AddItem(productID, "Cerveza", "SKU-B", decimal.NewFromInt(1), decimal.NewFromFloat(6.00), decimal.Zero, decimal.NewFromInt(1), &unitID, "UND")
	require.NoError(t, err)
	err = sale.AddItem(productID, "Cerveza", "SKU-B", decimal.NewFromInt(1), decimal.NewFromFloat(60.00), decimal.Zero, decimal.NewFromInt(12), &boxID, "CAJA")
	require.NoError(t, err)

	assert.Len(t, sale.Items, 2)
	assertTotalsConsistent(t, sale)
}

func TestSale_RemoveItem(t *testing.T) {
	sale := createTestSale(t)
	productID := uuid.New()
	err := sale.AddItem(productID, "Pan", "SKU-P", decimal.NewFromInt(1), decimal.NewFromFloat(1.00), decimal.Zero, decimal.NewFromInt(1), nil, "UND")
	require.NoError(t, err)

	require.NoError(t, sale.RemoveItem(productID))
	assert.Empty(t, sale.Items)
	assert.True(t, sale.Total.IsZero())
	assertTotalsConsistent(t, sale)

	err = sale.RemoveItem(productID)
	assert.Error(t, err)
}

func TestSale_UpdateItemQuantity(t *testing.T) {
	sale := createTestSale(t)
	productID := uuid.New()
	err := sale.AddItem(productID, "Leche", "SKU-L", decimal.NewFromInt(2), decimal.NewFromFloat(5.00), decimal.Zero, decimal.NewFromInt(1), nil, "UND")
	require.NoError(t, err)

	require.NoError(t, sale.UpdateItemQuantity(productID, decimal.NewFromInt(4)))
	assert.True(t, sale.Total.Equal(decimal.NewFromFloat(20.00)))
	assertTotalsConsistent(t, sale)

	// zero quantity removes the line
	require.NoError(t, sale.UpdateItemQuantity(productID, decimal.Zero))
	assert.Empty(t, sale.Items)
}

func TestSaleItem_BaseQuantity_RoundsUp(t *testing.T) {
	item, err := NewSaleItem(uuid.New(), uuid.New(), "Tela", "SKU-T",
		decimal.NewFromFloat(2.5), decimal.NewFromFloat(10.00), decimal.Zero,
		decimal.NewFromFloat(1.2), nil, "MT")
	require.NoError(t, err)

	// 2.5 * 1.2 = 3.0 exactly
	assert.True(t, item.BaseQuantity().Equal(decimal.NewFromInt(3)))

	require.NoError(t, item.UpdateQuantity(decimal.NewFromFloat(2.6)))
	// 2.6 * 1.2 = 3.12, never under-deduct
	assert.True(t, item.BaseQuantity().Equal(decimal.NewFromInt(4)))
}

// ============================================
// Discount Tests
// ============================================

func TestSale_ApplyDiscount(t *testing.T) {
	sale := createTestSale(t)
	addTestItem(t, sale, "Aceite", 1, 100.00)

	require.NoError(t, sale.ApplyDiscount(decimal.NewFromFloat(10.00)))
	assert.True(t, sale.Total.Equal(decimal.NewFromFloat(90.00)))
	assertTotalsConsistent(t, sale)
}

func TestSale_ApplyDiscount_CannotExceedItemTotal(t *testing.T) {
	sale := createTestSale(t)
	addTestItem(t, sale, "Aceite", 1, 100.00)

	err := sale.ApplyDiscount(decimal.NewFromFloat(100.01))
	assert.Error(t, err)

	err = sale.ApplyDiscount(decimal.NewFromFloat(-1))
	assert.Error(t, err)
}

// ============================================
// Tax Breakdown Tests
// ============================================

func TestSale_TaxInclusiveBreakdown(t *testing.T) {
	sale := createTestSale(t)
	addTestItem(t, sale, "Televisor", 1, 500.00)

	// Total carries the tax; subtotal is back-calculated at r=0.18
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "423.73", sale.Subtotal.StringFixed(2))
	assert.Equal(t, "76.27", sale.TaxAmount.StringFixed(2))
	assertTotalsConsistent(t, sale)
}

// ============================================
// Payment Tests
// ============================================

func TestSale_AddPayment_AutoCompletesWhenCovered(t *testing.T) {
	sale := createTestSale(t)
	addTestItem(t, sale, "Televisor", 1, 500.00)

	completed, err := sale.AddPayment(TenderCash, decimal.NewFromInt(500), "")
	require.NoError(t, err)

	assert.True(t, completed)
	assert.Equal(t, SaleStatusCompleted, sale.Status)
	assert.True(t, sale.IsFullyPaid())
	assert.Nil(t, sale.DocumentNumber)
}

func TestSale_AddPayment_PartialStaysPending(t *testing.T) {
	sale := createTestSale(t)
	addTestItem(t, sale, "Televisor", 1, 500.00)

	completed, err := sale.AddPayment(TenderCash, decimal.NewFromInt(200), "")
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Equal(t, SaleStatusPending, sale.Status)
	assert.True(t, sale.RemainingAmount().Equal(decimal.NewFromInt(300)))

	completed, err = sale.AddPayment(TenderCard, decimal.NewFromInt(300), "VISA-1234")
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, SaleStatusCompleted, sale.Status)
}

func TestSale_AddPayment_ToleranceCoversRoundingGap(t *testing.T) {
	sale := createTestSale(t)
	addTestItem(t, sale, "Menudencia", 1, 10.00)

	// 9.96 is within the 0.05 tolerance of 10.00
	completed, err := sale.AddPayment(TenderCash, decimal.NewFromFloat(9.96), "")
	require.NoError(t, err)
	assert.True(t, completed)

	sale = createTestSale(t)
	addTestItem(t, sale, "Menudencia", 1, 10.00)

	// 9.94 is not
	completed, err = sale.AddPayment(TenderCash, decimal.NewFromFloat(9.94), "")
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Equal(t, SaleStatusPending, sale.Status)
}

func TestSale_AddPayment_NoItemsNeverCompletes(t *testing.T) {
	sale := createTestSale(t)

	completed, err := sale.AddPayment(TenderCash, decimal.NewFromInt(100), "")
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Equal(t, SaleStatusPending, sale.Status)
}

func TestSale_AddPayment_ValidationErrors(t *testing.T) {
	sale := createTestSale(t)
	addTestItem(t, sale, "Pan", 1, 1.00)

	_, err := sale.AddPayment(TenderMethod("BARTER"), decimal.NewFromInt(1), "")
	assert.Error(t, err)

	_, err = sale.AddPayment(TenderCash, decimal.Zero, "")
	assert.Error(t, err)

	_, err = sale.AddPayment(TenderCash, decimal.NewFromInt(-5), "")
	assert.Error(t, err)
}

func TestSale_AddPayment_CreditRequiresCustomer(t *testing.T) {
	sale := createTestSale(t)
	addTestItem(t, sale, "Televisor", 1, 500.00)

	_, err := sale.AddPayment(TenderCredit, decimal.NewFromInt(500), "")
	require.Error(t, err)
	assertDomainCode(t, err, "CUSTOMER_REQUIRED")

	creditSale := createTestCreditSale(t)
	addTestItem(t, creditSale, "Televisor", 1, 500.00)

	completed, err := creditSale.AddPayment(TenderCredit, decimal.NewFromInt(500), "")
	require.NoError(t, err)
	assert.True(t, completed)
	require.NotNil(t, creditSale.CreditPayment())
	assert.True(t, creditSale.CreditPayment().Amount.Equal(decimal.NewFromInt(500)))
}

func TestSale_PaidByMethod(t *testing.T) {
	sale := createTestSale(t)
	addTestItem(t, sale, "Televisor", 1, 500.00)

	_, err := sale.AddPayment(TenderCash, decimal.NewFromInt(200), "")
	require.NoError(t, err)
	_, err = sale.AddPayment(TenderCard, decimal.NewFromInt(300), "VISA-1234")
	require.NoError(t, err)

	assert.True(t, sale.PaidByMethod(TenderCash).Equal(decimal.NewFromInt(200)))
	assert.True(t, sale.PaidByMethod(TenderCard).Equal(decimal.NewFromInt(300)))
	assert.True(t, sale.PaidByMethod(TenderWallet).IsZero())
}

// ============================================
// Complete / AttachDocument Tests
// ============================================

func TestSale_Complete_Success(t *testing.T) {
	sale := createTestSale(t)
	addTestItem(t, sale, "Televisor", 1, 500.00)
	sale.Payments = append(sale.Payments, Payment{ID: uuid.New(), Method: TenderCash, Amount: decimal.NewFromInt(500)})

	err := sale.Complete("B001", "00000042")

	require.NoError(t, err)
	assert.Equal(t, SaleStatusCompleted, sale.Status)
	require.NotNil(t, sale.DocumentSeries)
	require.NotNil(t, sale.DocumentNumber)
	assert.Equal(t, "B001", *sale.DocumentSeries)
	assert.Equal(t, "00000042", *sale.DocumentNumber)
}

func TestSale_Complete_EmptySale(t *testing.T) {
	sale := createTestSale(t)
	err := sale.Complete("B001", "00000001")
	require.Error(t, err)
	assertDomainCode(t, err, "EMPTY_SALE")
}

func TestSale_Complete_InsufficientPayment(t *testing.T) {
	sale := createTestSale(t)
	addTestItem(t, sale, "Televisor", 1, 500.00)

	err := sale.Complete("B001", "00000001")
	require.Error(t, err)
	assertDomainCode(t, err, "INSUFFICIENT_PAYMENT")
}

func TestSale_Complete_TwiceFails(t *testing.T) {
	sale := createTestSale(t)
	addTestItem(t, sale, "Televisor", 1, 500.00)
	_, err := sale.AddPayment(TenderCash, decimal.NewFromInt(500), "")
	require.NoError(t, err)

	err = sale.Complete("B001", "00000001")
	require.Error(t, err)
	assertDomainCode(t, err, "INVALID_STATE")
}

func TestSale_AttachDocument(t *testing.T) {
	sale := createTestSale(t)
	addTestItem(t, sale, "Televisor", 1, 500.00)
	_, err := sale.AddPayment(TenderCash, decimal.NewFromInt(500), "")
	require.NoError(t, err)

	require.NoError(t, sale.AttachDocument("NV01", "00000007"))
	assert.Equal(t, "NV01-00000007", *sale.DocumentSeries+"-"+*sale.DocumentNumber)

	// exactly once
	err = sale.AttachDocument("NV01", "00000008")
	require.Error(t, err)
	assertDomainCode(t, err, "DOCUMENT_ALREADY_ASSIGNED")
}

func TestSale_AttachDocument_PendingFails(t *testing.T) {
	sale := createTestSale(t)
	err := sale.AttachDocument("NV01", "00000007")
	require.Error(t, err)
	assertDomainCode(t, err, "INVALID_STATE")
}

// ============================================
// Completed/Refunded Freeze Tests
// ============================================

func TestSale_CompletedSaleIsFrozen(t *testing.T) {
	sale := createTestSale(t)
	productID := uuid.New()
	err := sale.AddItem(productID, "Televisor", "SKU-TV", decimal.NewFromInt(1), decimal.NewFromInt(500), decimal.Zero, decimal.NewFromInt(1), nil, "UND")
	require.NoError(t, err)
	_, err = sale.AddPayment(TenderCash, decimal.NewFromInt(500), "")
	require.NoError(t, err)
	require.Equal(t, SaleStatusCompleted, sale.Status)

	assert.Error(t, sale.AddItem(uuid.New(), "Otro", "SKU-O", decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.Zero, decimal.NewFromInt(1), nil, "UND"))
	assert.Error(t, sale.RemoveItem(productID))
	assert.Error(t, sale.UpdateItemQuantity(productID, decimal.NewFromInt(2)))
	assert.Error(t, sale.ApplyDiscount(decimal.NewFromInt(1)))
	_, err = sale.AddPayment(TenderCash, decimal.NewFromInt(1), "")
	assert.Error(t, err)
}

func TestSale_Refund(t *testing.T) {
	sale := createTestSale(t)
	addTestItem(t, sale, "Televisor", 1, 500.00)
	_, err := sale.AddPayment(TenderCash, decimal.NewFromInt(500), "")
	require.NoError(t, err)

	require.NoError(t, sale.Refund())
	assert.Equal(t, SaleStatusRefunded, sale.Status)

	// terminal
	assert.Error(t, sale.Refund())
	assert.Error(t, sale.Complete("B001", "00000001"))
}

func TestSale_Refund_PendingFails(t *testing.T) {
	sale := createTestSale(t)
	addTestItem(t, sale, "Televisor", 1, 500.00)
	assert.Error(t, sale.Refund())
}
