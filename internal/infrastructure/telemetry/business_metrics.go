// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks point-of-sale activity: completed sales, tendered
// payments, checkout latency, and open cash shifts.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	saleCompletedTotal *Counter
	saleAmountTotal    *Counter
	saleRefundedTotal  *Counter
	paymentTotal       *Counter

	// Histogram metrics
	checkoutDuration *Histogram

	// Gauge metrics (point-in-time values)
	openShiftCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	shiftProvider ShiftMetricsProvider
}

// ShiftMetricsProvider provides cash shift data for periodic metrics
// collection. The interface keeps the telemetry layer from depending on the
// cashier domain directly.
type ShiftMetricsProvider interface {
	// GetOpenShiftCountByStore returns the number of open shifts per store
	// for a tenant
	GetOpenShiftCountByStore(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	ShiftProvider   ShiftMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		shiftProvider: cfg.ShiftProvider,
	}

	var err error

	bm.saleCompletedTotal, err = NewCounter(
		cfg.Meter,
		"pos_sale_completed_total",
		"Total number of completed sales",
		"{sales}",
	)
	if err != nil {
		return nil, err
	}

	bm.saleAmountTotal, err = NewCounter(
		cfg.Meter,
		"pos_sale_amount_total",
		"Total completed sale amount in centimos",
		"{centimos}",
	)
	if err != nil {
		return nil, err
	}

	bm.saleRefundedTotal, err = NewCounter(
		cfg.Meter,
		"pos_sale_refunded_total",
		"Total number of refunded sales",
		"{sales}",
	)
	if err != nil {
		return nil, err
	}

	bm.paymentTotal, err = NewCounter(
		cfg.Meter,
		"pos_payment_total",
		"Total number of recorded payments",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	bm.checkoutDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "pos_checkout_duration_seconds",
		Description: "End-to-end checkout duration including remote calls",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	bm.openShiftCount, err = NewGauge(
		cfg.Meter,
		"pos_open_shift_count",
		"Number of currently open cash shifts",
		"{shifts}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordSaleCompleted records a completed sale with its total.
// The amount is converted to centimos (smallest currency unit).
func (bm *BusinessMetrics) RecordSaleCompleted(ctx context.Context, tenantID, storeID uuid.UUID, documentType string, total decimal.Decimal) {
	bm.saleCompletedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrStoreID.String(storeID.String()),
		AttrDocumentType.String(documentType),
	)

	centimos := total.Mul(decimal.NewFromInt(100)).IntPart()
	bm.saleAmountTotal.Add(ctx, centimos,
		AttrTenantID.String(tenantID.String()),
		AttrStoreID.String(storeID.String()),
		AttrDocumentType.String(documentType),
	)
}

// RecordSaleRefunded records a refunded sale.
func (bm *BusinessMetrics) RecordSaleRefunded(ctx context.Context, tenantID, storeID uuid.UUID) {
	bm.saleRefundedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrStoreID.String(storeID.String()),
	)
}

// RecordPayment records a tendered payment by method.
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, tenantID uuid.UUID, tenderMethod string) {
	bm.paymentTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrTenderMethod.String(tenderMethod),
	)
}

// RecordCheckoutDuration records how long a checkout took end to end.
func (bm *BusinessMetrics) RecordCheckoutDuration(ctx context.Context, tenantID uuid.UUID, d time.Duration, outcome string) {
	bm.checkoutDuration.RecordDuration(ctx, d,
		AttrTenantID.String(tenantID.String()),
		AttrSaleStatus.String(outcome),
	)
}

// RecordOpenShiftCount records the current number of open shifts for a store.
// This is a gauge metric updated by the periodic collector.
func (bm *BusinessMetrics) RecordOpenShiftCount(ctx context.Context, tenantID, storeID uuid.UUID, count int64) {
	bm.openShiftCount.Record(ctx, count,
		AttrTenantID.String(tenantID.String()),
		AttrStoreID.String(storeID.String()),
	)
}

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// Non-blocking; use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectShiftMetrics(ctx, tenantProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectShiftMetrics(ctx, tenantProvider)
		}
	}
}

func (bm *BusinessMetrics) collectShiftMetrics(ctx context.Context, tenantProvider TenantProvider) {
	if bm.shiftProvider == nil {
		bm.logger.Debug("No shift provider configured, skipping shift metrics collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		openByStore, err := bm.shiftProvider.GetOpenShiftCountByStore(ctx, tenantID)
		if err != nil {
			bm.logger.Warn("Failed to get open shift count for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		for storeID, count := range openByStore {
			bm.RecordOpenShiftCount(ctx, tenantID, storeID, count)
		}
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
