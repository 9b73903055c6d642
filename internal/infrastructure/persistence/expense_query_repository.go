package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pos/backend/internal/domain/cashier"
)

// expenseRecordRow is the persistence shape of the expense read model.
// Expenses are written by the purchasing side; this package only reads them
// for shift reconciliation.
type expenseRecordRow struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	StoreID      uuid.UUID
	Description  string
	Amount       decimal.Decimal
	TenderMethod string
	SpentAt      time.Time
}

func (expenseRecordRow) TableName() string { return "expense_records" }

func (r expenseRecordRow) toDomain() cashier.ExpenseRecord {
	return cashier.ExpenseRecord{
		ID:           r.ID,
		TenantID:     r.TenantID,
		StoreID:      r.StoreID,
		Description:  r.Description,
		Amount:       r.Amount,
		TenderMethod: r.TenderMethod,
		SpentAt:      r.SpentAt,
	}
}

// GormExpenseQuery implements ExpenseQuery using GORM
type GormExpenseQuery struct {
	db *gorm.DB
}

// NewGormExpenseQuery creates a new GormExpenseQuery
func NewGormExpenseQuery(db *gorm.DB) *GormExpenseQuery {
	return &GormExpenseQuery{db: db}
}

// CashExpenseTotal sums cash-paid expenses for a store inside the window
func (q *GormExpenseQuery) CashExpenseTotal(ctx context.Context, tenantID, storeID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := q.db.WithContext(ctx).Model(&expenseRecordRow{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("tenant_id = ? AND store_id = ? AND tender_method = ?", tenantID, storeID, "CASH").
		Where("spent_at >= ? AND spent_at < ?", from, to).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// FindByWindow lists expenses for a store inside the window
func (q *GormExpenseQuery) FindByWindow(ctx context.Context, tenantID, storeID uuid.UUID, from, to time.Time) ([]cashier.ExpenseRecord, error) {
	var rows []expenseRecordRow
	if err := q.db.WithContext(ctx).
		Where("tenant_id = ? AND store_id = ?", tenantID, storeID).
		Where("spent_at >= ? AND spent_at < ?", from, to).
		Order("spent_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]cashier.ExpenseRecord, len(rows))
	for i, row := range rows {
		records[i] = row.toDomain()
	}
	return records, nil
}

// creditCollectionRow is the persistence shape of a credit collection entry.
// Collections are written by the receivables side when a customer pays down
// an outstanding balance.
type creditCollectionRow struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	StoreID      uuid.UUID
	CustomerID   uuid.UUID
	Amount       decimal.Decimal
	TenderMethod string
	CollectedAt  time.Time
}

func (creditCollectionRow) TableName() string { return "credit_collections" }

// GormCreditCollectionQuery implements CreditCollectionQuery using GORM
type GormCreditCollectionQuery struct {
	db *gorm.DB
}

// NewGormCreditCollectionQuery creates a new GormCreditCollectionQuery
func NewGormCreditCollectionQuery(db *gorm.DB) *GormCreditCollectionQuery {
	return &GormCreditCollectionQuery{db: db}
}

// CashCollectionTotal sums cash credit collections for a store inside the window
func (q *GormCreditCollectionQuery) CashCollectionTotal(ctx context.Context, tenantID, storeID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := q.db.WithContext(ctx).Model(&creditCollectionRow{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("tenant_id = ? AND store_id = ? AND tender_method = ?", tenantID, storeID, "CASH").
		Where("collected_at >= ? AND collected_at < ?", from, to).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure implementations satisfy the domain interfaces
var (
	_ cashier.ExpenseQuery          = (*GormExpenseQuery)(nil)
	_ cashier.CreditCollectionQuery = (*GormCreditCollectionQuery)(nil)
)
