package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pos/backend/internal/domain/sales"
	"github.com/pos/backend/internal/domain/shared"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale by ID within a tenant, with items and payments loaded
func (r *GormSaleRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*sales.Sale, error) {
	var sale sales.Sale
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindBySaleNumber finds a sale by its internal sale number for a tenant
func (r *GormSaleRepository) FindBySaleNumber(ctx context.Context, tenantID uuid.UUID, saleNumber string) (*sales.Sale, error) {
	var sale sales.Sale
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Where("tenant_id = ? AND sale_number = ?", tenantID, saleNumber).
		First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindAll finds sales for a tenant with filtering and pagination
func (r *GormSaleRepository) FindAll(ctx context.Context, tenantID uuid.UUID, storeID *uuid.UUID, from, to *time.Time, filter shared.Filter) ([]sales.Sale, error) {
	var result []sales.Sale
	query := r.applyFilter(r.scopedQuery(ctx, tenantID, storeID, from, to), filter)

	if err := query.Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// Count counts sales matching the same criteria as FindAll
func (r *GormSaleRepository) Count(ctx context.Context, tenantID uuid.UUID, storeID *uuid.UUID, from, to *time.Time, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.scopedQuery(ctx, tenantID, storeID, from, to), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a sale together with its items and payments
func (r *GormSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(sale).Error; err != nil {
			return err
		}
		return r.syncChildren(tx, sale)
	})
}

// SaveWithLock saves with optimistic locking (version check).
// A sale not yet persisted is created instead; this lets callers use a
// single save path for both new and reloaded aggregates.
func (r *GormSaleRepository) SaveWithLock(ctx context.Context, sale *sales.Sale) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current sales.Sale
		err := tx.Select("version").Where("id = ?", sale.ID).First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Create(sale).Error; err != nil {
				return err
			}
			return r.syncChildren(tx, sale)
		}
		if err != nil {
			return err
		}

		if current.Version != sale.Version {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The sale has been modified by another user")
		}

		previousVersion := sale.Version
		sale.Version++
		sale.UpdatedAt = time.Now()

		result := tx.Model(&sales.Sale{}).
			Where("id = ? AND version = ?", sale.ID, previousVersion).
			Updates(map[string]interface{}{
				"sale_number":       sale.SaleNumber,
				"customer_id":       sale.CustomerID,
				"sale_date":         sale.SaleDate,
				"subtotal":          sale.Subtotal,
				"discount_amount":   sale.DiscountAmount,
				"tax_amount":        sale.TaxAmount,
				"total":             sale.Total,
				"tax_rate":          sale.TaxRate,
				"payment_tolerance": sale.PaymentTolerance,
				"status":            sale.Status,
				"notes":             sale.Notes,
				"document_type":     sale.DocumentType,
				"document_series":   sale.DocumentSeries,
				"document_number":   sale.DocumentNumber,
				"version":           sale.Version,
				"updated_at":        sale.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The sale has been modified by another user")
		}

		return r.syncChildren(tx, sale)
	})
}

// syncChildren reconciles items and appends payments inside the given
// transaction. Items removed from the aggregate are deleted; payments are
// append-only and never removed.
func (r *GormSaleRepository) syncChildren(tx *gorm.DB, sale *sales.Sale) error {
	currentItemIDs := make([]uuid.UUID, len(sale.Items))
	for i, item := range sale.Items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("sale_id = ? AND id NOT IN ?", sale.ID, currentItemIDs).
			Delete(&sales.SaleItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("sale_id = ?", sale.ID).
			Delete(&sales.SaleItem{}).Error; err != nil {
			return err
		}
	}

	for i := range sale.Items {
		sale.Items[i].SaleID = sale.ID
		if err := tx.Save(&sale.Items[i]).Error; err != nil {
			return err
		}
	}

	for i := range sale.Payments {
		sale.Payments[i].SaleID = sale.ID
		if err := tx.Save(&sale.Payments[i]).Error; err != nil {
			return err
		}
	}

	return nil
}

// Delete removes a sale with its items and payments
func (r *GormSaleRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sale sales.Sale
		if err := tx.Where("tenant_id = ? AND id = ?", tenantID, id).First(&sale).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if err := tx.Where("sale_id = ?", id).Delete(&sales.SaleItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("sale_id = ?", id).Delete(&sales.Payment{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&sales.Sale{}, "tenant_id = ? AND id = ?", tenantID, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// TenderTotals sums payments of completed sales for a store inside the
// window, grouped by tender method. The whole aggregation runs as a single
// statement so shift reconciliation reads one consistent snapshot.
func (r *GormSaleRepository) TenderTotals(ctx context.Context, tenantID, storeID uuid.UUID, from, to time.Time) (map[sales.TenderMethod]decimal.Decimal, error) {
	type row struct {
		Method string
		Total  decimal.Decimal
	}
	var rows []row

	err := r.db.WithContext(ctx).
		Table("payments").
		Select("payments.method AS method, COALESCE(SUM(payments.amount), 0) AS total").
		Joins("JOIN sales ON sales.id = payments.sale_id").
		Where("sales.tenant_id = ? AND sales.store_id = ?", tenantID, storeID).
		Where("sales.status = ?", sales.SaleStatusCompleted).
		Where("sales.sale_date >= ? AND sales.sale_date < ?", from, to).
		Group("payments.method").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[sales.TenderMethod]decimal.Decimal, len(rows))
	for _, r := range rows {
		totals[sales.TenderMethod(r.Method)] = r.Total
	}
	return totals, nil
}

// applyFilter applies filter options to the query
func (r *GormSaleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormSaleRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("sale_number ILIKE ? OR document_number ILIKE ?",
			searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "cashier_id":
			query = query.Where("cashier_id = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "statuses":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("status IN ?", statuses)
			}
		case "document_type":
			query = query.Where("document_type = ?", value)
		case "min_total":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("total >= ?", d)
			}
		case "max_total":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("total <= ?", d)
			}
		}
	}

	return query
}

// scopedQuery builds the base query narrowed to tenant, optional store and
// optional sale date window
func (r *GormSaleRepository) scopedQuery(ctx context.Context, tenantID uuid.UUID, storeID *uuid.UUID, from, to *time.Time) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&sales.Sale{}).Where("tenant_id = ?", tenantID)
	if storeID != nil {
		query = query.Where("store_id = ?", *storeID)
	}
	if from != nil {
		query = query.Where("sale_date >= ?", *from)
	}
	if to != nil {
		query = query.Where("sale_date < ?", *to)
	}
	return query
}

// Ensure GormSaleRepository implements SaleRepository
var _ sales.SaleRepository = (*GormSaleRepository)(nil)
