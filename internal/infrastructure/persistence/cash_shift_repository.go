package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pos/backend/internal/domain/cashier"
	"github.com/pos/backend/internal/domain/shared"
)

// GormCashShiftRepository implements CashShiftRepository using GORM
type GormCashShiftRepository struct {
	db *gorm.DB
}

// NewGormCashShiftRepository creates a new GormCashShiftRepository
func NewGormCashShiftRepository(db *gorm.DB) *GormCashShiftRepository {
	return &GormCashShiftRepository{db: db}
}

// FindByID finds a shift by ID within a tenant, with movements loaded
func (r *GormCashShiftRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*cashier.CashShift, error) {
	var shift cashier.CashShift
	if err := r.db.WithContext(ctx).
		Preload("Movements").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&shift).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &shift, nil
}

// FindOpenByStore finds the single open shift for a store.
// Returns shared.ErrNotFound when the store has no open shift.
func (r *GormCashShiftRepository) FindOpenByStore(ctx context.Context, tenantID, storeID uuid.UUID) (*cashier.CashShift, error) {
	var shift cashier.CashShift
	if err := r.db.WithContext(ctx).
		Preload("Movements").
		Where("tenant_id = ? AND store_id = ? AND status = ?", tenantID, storeID, cashier.ShiftStatusOpen).
		First(&shift).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &shift, nil
}

// FindAll finds shifts for a tenant with filtering and pagination
func (r *GormCashShiftRepository) FindAll(ctx context.Context, tenantID uuid.UUID, storeID *uuid.UUID, filter shared.Filter) ([]cashier.CashShift, error) {
	var shifts []cashier.CashShift
	query := r.applyFilter(r.scopedQuery(ctx, tenantID, storeID), filter)

	if err := query.Find(&shifts).Error; err != nil {
		return nil, err
	}
	return shifts, nil
}

// Count counts shifts matching the same criteria as FindAll
func (r *GormCashShiftRepository) Count(ctx context.Context, tenantID uuid.UUID, storeID *uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.scopedQuery(ctx, tenantID, storeID), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a shift together with its movements.
// The partial unique index on open shifts rejects a second concurrent open
// for the same store; that violation surfaces as ErrShiftAlreadyOpen.
func (r *GormCashShiftRepository) Save(ctx context.Context, shift *cashier.CashShift) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(shift).Error; err != nil {
			return err
		}
		return r.saveMovements(tx, shift)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return cashier.ErrShiftAlreadyOpen
	}
	return err
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormCashShiftRepository) SaveWithLock(ctx context.Context, shift *cashier.CashShift) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current cashier.CashShift
		if err := tx.Select("version").Where("id = ?", shift.ID).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if current.Version != shift.Version {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The shift has been modified by another user")
		}

		previousVersion := shift.Version
		shift.Version++
		shift.UpdatedAt = time.Now()

		result := tx.Model(&cashier.CashShift{}).
			Where("id = ? AND version = ?", shift.ID, previousVersion).
			Updates(map[string]interface{}{
				"status":             shift.Status,
				"closed_at":          shift.ClosedAt,
				"cash_sales":         shift.CashSales,
				"card_sales":         shift.CardSales,
				"transfer_sales":     shift.TransferSales,
				"wallet_sales":       shift.WalletSales,
				"credit_sales":       shift.CreditSales,
				"credit_collections": shift.CreditCollections,
				"cash_expenses":      shift.CashExpenses,
				"expected_amount":    shift.ExpectedAmount,
				"actual_amount":      shift.ActualAmount,
				"difference":         shift.Difference,
				"closing_notes":      shift.ClosingNotes,
				"version":            shift.Version,
				"updated_at":         shift.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The shift has been modified by another user")
		}

		return r.saveMovements(tx, shift)
	})
}

// saveMovements persists the movement ledger. Movements are append-only;
// existing rows are upserted by primary key, none are deleted.
func (r *GormCashShiftRepository) saveMovements(tx *gorm.DB, shift *cashier.CashShift) error {
	for i := range shift.Movements {
		shift.Movements[i].CashShiftID = shift.ID
		if err := tx.Save(&shift.Movements[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// applyFilter applies filter options to the query
func (r *GormCashShiftRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
		query = query.Order("opened_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormCashShiftRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("cashier_name ILIKE ?", searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "cashier_id":
			query = query.Where("cashier_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "opened_after":
			if t, ok := value.(time.Time); ok {
				query = query.Where("opened_at >= ?", t)
			}
		case "opened_before":
			if t, ok := value.(time.Time); ok {
				query = query.Where("opened_at < ?", t)
			}
		}
	}

	return query
}

// scopedQuery builds the base query narrowed to tenant and optional store
func (r *GormCashShiftRepository) scopedQuery(ctx context.Context, tenantID uuid.UUID, storeID *uuid.UUID) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&cashier.CashShift{}).Where("tenant_id = ?", tenantID)
	if storeID != nil {
		query = query.Where("store_id = ?", *storeID)
	}
	return query
}

// Ensure GormCashShiftRepository implements CashShiftRepository
var _ cashier.CashShiftRepository = (*GormCashShiftRepository)(nil)
