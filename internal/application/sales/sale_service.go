package sales

import (
	"context"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/sales"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SaleService handles the pending-sale (cart) lifecycle: creating a sale,
// editing its lines and discount, and querying the sales ledger. Payments
// and completion run through the CheckoutService because they involve the
// collaborating services.
type SaleService struct {
	saleRepo       sales.SaleRepository
	eventPublisher shared.EventPublisher
	taxRate        decimal.Decimal
}

// NewSaleService creates a new SaleService
func NewSaleService(saleRepo sales.SaleRepository, taxRate decimal.Decimal) *SaleService {
	return &SaleService{
		saleRepo: saleRepo,
		taxRate:  taxRate,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new pending sale, optionally with initial lines
func (s *SaleService) Create(ctx context.Context, tenantID, cashierID uuid.UUID, cashierName string, req CreateSaleRequest) (*SaleResponse, error) {
	sale, err := sales.NewSale(tenantID, req.StoreID, cashierID, cashierName, req.CustomerID, req.DocumentType, req.Notes, s.taxRate)
	if err != nil {
		return nil, err
	}

	for _, item := range req.Items {
		if err := sale.AddItem(item.ProductID, item.ProductName, item.ProductCode,
			item.Quantity, item.UnitPrice, item.Discount, item.ConversionFactor,
			item.UOMID, item.UOMCode); err != nil {
			return nil, err
		}
	}

	if err := s.saleRepo.Save(ctx, sale); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)
	response := ToSaleResponse(sale)
	return &response, nil
}

// GetByID retrieves a sale by ID
func (s *SaleService) GetByID(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// GetBySaleNumber retrieves a sale by its internal sale number
func (s *SaleService) GetBySaleNumber(ctx context.Context, tenantID uuid.UUID, saleNumber string) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindBySaleNumber(ctx, tenantID, saleNumber)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// List retrieves sales with filtering and pagination
func (s *SaleService) List(ctx context.Context, tenantID uuid.UUID, filter SaleListFilter) ([]SaleListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}

	items, err := s.saleRepo.FindAll(ctx, tenantID, filter.StoreID, filter.StartDate, filter.EndDate, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.saleRepo.Count(ctx, tenantID, filter.StoreID, filter.StartDate, filter.EndDate, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToSaleListItemResponses(items), total, nil
}

// AddItem adds a line to a pending sale
func (s *SaleService) AddItem(ctx context.Context, tenantID, saleID uuid.UUID, req AddSaleItemRequest) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	if err := sale.AddItem(req.ProductID, req.ProductName, req.ProductCode,
		req.Quantity, req.UnitPrice, req.Discount, req.ConversionFactor,
		req.UOMID, req.UOMCode); err != nil {
		return nil, err
	}

	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	response := ToSaleResponse(sale)
	return &response, nil
}

// UpdateItemQuantity changes the quantity of a line in a pending sale.
// A quantity of zero removes the line.
func (s *SaleService) UpdateItemQuantity(ctx context.Context, tenantID, saleID, productID uuid.UUID, req UpdateSaleItemRequest) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	if err := sale.UpdateItemQuantity(productID, req.Quantity); err != nil {
		return nil, err
	}

	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	response := ToSaleResponse(sale)
	return &response, nil
}

// RemoveItem removes a line from a pending sale
func (s *SaleService) RemoveItem(ctx context.Context, tenantID, saleID, productID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	if err := sale.RemoveItem(productID); err != nil {
		return nil, err
	}

	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	response := ToSaleResponse(sale)
	return &response, nil
}

// ApplyDiscount sets the sale-level discount on a pending sale
func (s *SaleService) ApplyDiscount(ctx context.Context, tenantID, saleID uuid.UUID, req ApplyDiscountRequest) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	if err := sale.ApplyDiscount(req.Amount); err != nil {
		return nil, err
	}

	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	response := ToSaleResponse(sale)
	return &response, nil
}

// Delete removes a pending sale. Completed and refunded sales are part of
// the ledger and can never be deleted.
func (s *SaleService) Delete(ctx context.Context, tenantID, saleID uuid.UUID) error {
	sale, err := s.saleRepo.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return err
	}

	if sale.Status != sales.SaleStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending sales can be deleted")
	}

	return s.saleRepo.Delete(ctx, tenantID, saleID)
}

func (s *SaleService) publishEvents(ctx context.Context, sale *sales.Sale) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range sale.GetDomainEvents() {
		// event handling is async; a failed publish must not fail the operation
		_ = s.eventPublisher.Publish(ctx, event)
	}
	sale.ClearDomainEvents()
}
