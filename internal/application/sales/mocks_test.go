package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/sales"
	"github.com/pos/backend/internal/domain/sales/acl"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockSaleRepository is a mock implementation of sales.SaleRepository
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*sales.Sale, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindBySaleNumber(ctx context.Context, tenantID uuid.UUID, saleNumber string) (*sales.Sale, error) {
	args := m.Called(ctx, tenantID, saleNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindAll(ctx context.Context, tenantID uuid.UUID, storeID *uuid.UUID, from, to *time.Time, filter shared.Filter) ([]sales.Sale, error) {
	args := m.Called(ctx, tenantID, storeID, from, to, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) Count(ctx context.Context, tenantID uuid.UUID, storeID *uuid.UUID, from, to *time.Time, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, storeID, from, to, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func (m *MockSaleRepository) SaveWithLock(ctx context.Context, sale *sales.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func (m *MockSaleRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockSaleRepository) TenderTotals(ctx context.Context, tenantID, storeID uuid.UUID, from, to time.Time) (map[sales.TenderMethod]decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, storeID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[sales.TenderMethod]decimal.Decimal), args.Error(1)
}

// MockNumberingService is a mock implementation of acl.DocumentNumberingService
type MockNumberingService struct {
	mock.Mock
}

func (m *MockNumberingService) PeekNext(ctx context.Context, tenantID, storeID uuid.UUID, documentType string) (*acl.NumberPreview, error) {
	args := m.Called(ctx, tenantID, storeID, documentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*acl.NumberPreview), args.Error(1)
}

func (m *MockNumberingService) Increment(ctx context.Context, tenantID uuid.UUID, seriesCode string, idempotencyKey string) (*acl.IssuedNumber, error) {
	args := m.Called(ctx, tenantID, seriesCode, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*acl.IssuedNumber), args.Error(1)
}

// MockStockService is a mock implementation of acl.InventoryStockService
type MockStockService struct {
	mock.Mock
}

func (m *MockStockService) CheckAvailability(ctx context.Context, tenantID, storeID uuid.UUID, lines []acl.StockLine) ([]acl.Availability, error) {
	args := m.Called(ctx, tenantID, storeID, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]acl.Availability), args.Error(1)
}

func (m *MockStockService) Deduct(ctx context.Context, tenantID, storeID uuid.UUID, reference string, lines []acl.StockLine) error {
	args := m.Called(ctx, tenantID, storeID, reference, lines)
	return args.Error(0)
}

func (m *MockStockService) Restock(ctx context.Context, tenantID, storeID uuid.UUID, reference string, lines []acl.StockLine) error {
	args := m.Called(ctx, tenantID, storeID, reference, lines)
	return args.Error(0)
}

// MockCreditService is a mock implementation of acl.CustomerCreditService
type MockCreditService struct {
	mock.Mock
}

func (m *MockCreditService) RegisterCredit(ctx context.Context, tenantID, customerID, saleID uuid.UUID, saleNumber string, amount decimal.Decimal) error {
	args := m.Called(ctx, tenantID, customerID, saleID, saleNumber, amount)
	return args.Error(0)
}

func (m *MockCreditService) ReverseCredit(ctx context.Context, tenantID, customerID, saleID uuid.UUID) error {
	args := m.Called(ctx, tenantID, customerID, saleID)
	return args.Error(0)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsClaimed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
