// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormShiftMetricsProvider implements ShiftMetricsProvider using GORM.
// It queries the cash_shifts table directly for aggregated metrics.
type GormShiftMetricsProvider struct {
	db *gorm.DB
}

// NewGormShiftMetricsProvider creates a new GormShiftMetricsProvider.
func NewGormShiftMetricsProvider(db *gorm.DB) *GormShiftMetricsProvider {
	return &GormShiftMetricsProvider{db: db}
}

// GetOpenShiftCountByStore returns the number of open shifts per store for a
// tenant.
func (p *GormShiftMetricsProvider) GetOpenShiftCountByStore(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]int64, error) {
	type result struct {
		StoreID uuid.UUID `gorm:"column:store_id"`
		Count   int64     `gorm:"column:count"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("cash_shifts").
		Select("store_id, COUNT(*) as count").
		Where("tenant_id = ? AND status = ?", tenantID, "OPEN").
		Group("store_id").
		Find(&results).Error

	if err != nil {
		return nil, err
	}

	m := make(map[uuid.UUID]int64, len(results))
	for _, r := range results {
		m[r.StoreID] = r.Count
	}

	return m, nil
}

// GormTenantProvider implements TenantProvider using GORM. Tenants with any
// sales activity are considered active.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider.
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns all tenant IDs with at least one sale.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("sales").
		Distinct("tenant_id").
		Find(&ids).Error

	return ids, err
}
