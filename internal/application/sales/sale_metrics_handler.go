package sales

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/sales"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleMetricsRecorder records sale lifecycle metrics. Implemented by
// telemetry.BusinessMetrics; the interface keeps the application layer
// from depending on the telemetry wiring.
type SaleMetricsRecorder interface {
	RecordSaleCompleted(ctx context.Context, tenantID, storeID uuid.UUID, documentType string, total decimal.Decimal)
	RecordSaleRefunded(ctx context.Context, tenantID, storeID uuid.UUID)
}

// SaleMetricsHandler subscribes to sale lifecycle events and feeds the
// business metrics instruments.
type SaleMetricsHandler struct {
	metrics SaleMetricsRecorder
	logger  *zap.Logger
}

// NewSaleMetricsHandler creates a new handler for sale lifecycle events.
func NewSaleMetricsHandler(metrics SaleMetricsRecorder, logger *zap.Logger) *SaleMetricsHandler {
	return &SaleMetricsHandler{
		metrics: metrics,
		logger:  logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *SaleMetricsHandler) EventTypes() []string {
	return []string{sales.EventTypeSaleCompleted, sales.EventTypeSaleRefunded}
}

// Handle records the completed or refunded sale. Metric recording never
// fails the publishing side.
func (h *SaleMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *sales.SaleCompletedEvent:
		h.metrics.RecordSaleCompleted(ctx, e.TenantID(), e.StoreID, e.DocumentType, e.Total)
		h.logger.Debug("recorded completed sale metric",
			zap.String("sale_id", e.SaleID.String()),
			zap.String("sale_number", e.SaleNumber),
			zap.String("total", e.Total.String()),
		)
	case *sales.SaleRefundedEvent:
		h.metrics.RecordSaleRefunded(ctx, e.TenantID(), e.StoreID)
		h.logger.Debug("recorded refunded sale metric",
			zap.String("sale_id", e.SaleID.String()),
			zap.String("sale_number", e.SaleNumber),
		)
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	return nil
}

// Ensure SaleMetricsHandler implements shared.EventHandler
var _ shared.EventHandler = (*SaleMetricsHandler)(nil)
