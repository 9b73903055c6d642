package cashier

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/cashier"
	salesdomain "github.com/pos/backend/internal/domain/sales"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ShiftService handles the cash shift lifecycle: opening, manual drawer
// movements, reconciliation on close, and shift history. The shift never
// stores sales while it is open; every read and the close itself aggregate
// the sales ledger, the expense records and the credit collections for the
// shift window.
type ShiftService struct {
	shiftRepo      cashier.CashShiftRepository
	saleRepo       salesdomain.SaleRepository
	expenses       cashier.ExpenseQuery
	collections    cashier.CreditCollectionQuery
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewShiftService creates a new ShiftService
func NewShiftService(
	shiftRepo cashier.CashShiftRepository,
	saleRepo salesdomain.SaleRepository,
	expenses cashier.ExpenseQuery,
	collections cashier.CreditCollectionQuery,
	logger *zap.Logger,
) *ShiftService {
	return &ShiftService{
		shiftRepo:   shiftRepo,
		saleRepo:    saleRepo,
		expenses:    expenses,
		collections: collections,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ShiftService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Open opens a shift for a store. The one-open-shift-per-store rule is
// enforced by the repository; a concurrent second open loses and gets
// SHIFT_ALREADY_OPEN.
func (s *ShiftService) Open(ctx context.Context, tenantID, cashierID uuid.UUID, cashierName string, req OpenShiftRequest) (*ShiftResponse, error) {
	shift, err := cashier.OpenCashShift(tenantID, req.StoreID, cashierID, cashierName, req.StartAmount)
	if err != nil {
		return nil, err
	}

	if err := s.shiftRepo.Save(ctx, shift); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, shift)
	response := ToShiftResponse(shift, cashier.ShiftActivity{})
	return &response, nil
}

// GetByID retrieves a shift. An open shift gets its figures recomputed
// from the ledger; a closed one returns its stored snapshot.
func (s *ShiftService) GetByID(ctx context.Context, tenantID, shiftID uuid.UUID) (*ShiftResponse, error) {
	shift, err := s.shiftRepo.FindByID(ctx, tenantID, shiftID)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, shift)
}

// GetCurrent retrieves the open shift for a store with live figures.
// Returns NO_OPEN_SHIFT when the store has none.
func (s *ShiftService) GetCurrent(ctx context.Context, tenantID, storeID uuid.UUID) (*ShiftResponse, error) {
	shift, err := s.shiftRepo.FindOpenByStore(ctx, tenantID, storeID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, cashier.ErrNoOpenShift
		}
		return nil, err
	}
	return s.respond(ctx, shift)
}

// AddMovement records a manual drawer movement on an open shift
func (s *ShiftService) AddMovement(ctx context.Context, tenantID, shiftID, userID uuid.UUID, req AddMovementRequest) (*ShiftResponse, error) {
	shift, err := s.shiftRepo.FindByID(ctx, tenantID, shiftID)
	if err != nil {
		return nil, err
	}

	if _, err := shift.AddMovement(cashier.MovementType(req.Type), req.Amount, req.Description, userID); err != nil {
		return nil, err
	}

	if err := s.shiftRepo.SaveWithLock(ctx, shift); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, shift)
	return s.respond(ctx, shift)
}

// Close reconciles and closes a shift. The activity window runs from the
// shift opening to the moment of closing; sales, expenses and collections
// are aggregated from their ledgers, never recomputed afterwards.
func (s *ShiftService) Close(ctx context.Context, tenantID, shiftID uuid.UUID, req CloseShiftRequest) (*ShiftResponse, error) {
	shift, err := s.shiftRepo.FindByID(ctx, tenantID, shiftID)
	if err != nil {
		return nil, err
	}
	if !shift.IsOpen() {
		return nil, shared.NewDomainError("SHIFT_NOT_OPEN", "Shift is already closed")
	}

	activity, err := s.loadActivity(ctx, shift, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := shift.Close(req.ActualAmount, activity, req.Notes); err != nil {
		return nil, err
	}

	if err := s.shiftRepo.SaveWithLock(ctx, shift); err != nil {
		return nil, err
	}

	if !shift.Difference.IsZero() {
		s.logger.Warn("shift closed with cash difference",
			zap.String("shift_id", shift.ID.String()),
			zap.String("store_id", shift.StoreID.String()),
			zap.String("difference", shift.Difference.StringFixed(2)))
	}

	s.publishEvents(ctx, shift)
	response := ToShiftResponse(shift, activity)
	return &response, nil
}

// List retrieves shift history with filtering and pagination
func (s *ShiftService) List(ctx context.Context, tenantID uuid.UUID, filter ShiftListFilter) ([]ShiftListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "opened_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}

	items, err := s.shiftRepo.FindAll(ctx, tenantID, filter.StoreID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.shiftRepo.Count(ctx, tenantID, filter.StoreID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToShiftListItemResponses(items), total, nil
}

// ListExpenses retrieves the expenses inside a shift's window
func (s *ShiftService) ListExpenses(ctx context.Context, tenantID, shiftID uuid.UUID) ([]ExpenseResponse, error) {
	shift, err := s.shiftRepo.FindByID(ctx, tenantID, shiftID)
	if err != nil {
		return nil, err
	}

	until := time.Now().UTC()
	if shift.ClosedAt != nil {
		until = *shift.ClosedAt
	}

	records, err := s.expenses.FindByWindow(ctx, tenantID, shift.StoreID, shift.OpenedAt, until)
	if err != nil {
		return nil, err
	}
	return ToExpenseResponses(records), nil
}

// respond builds the response for a shift, recomputing live figures when
// it is still open
func (s *ShiftService) respond(ctx context.Context, shift *cashier.CashShift) (*ShiftResponse, error) {
	activity := cashier.ShiftActivity{}
	if shift.IsOpen() {
		var err error
		activity, err = s.loadActivity(ctx, shift, time.Now().UTC())
		if err != nil {
			return nil, err
		}
	}
	response := ToShiftResponse(shift, activity)
	return &response, nil
}

// loadActivity aggregates the sales ledger, cash expenses and credit
// collections for the shift window [OpenedAt, until)
func (s *ShiftService) loadActivity(ctx context.Context, shift *cashier.CashShift, until time.Time) (cashier.ShiftActivity, error) {
	totals, err := s.saleRepo.TenderTotals(ctx, shift.TenantID, shift.StoreID, shift.OpenedAt, until)
	if err != nil {
		return cashier.ShiftActivity{}, err
	}

	cashExpenses := decimal.Zero
	if s.expenses != nil {
		cashExpenses, err = s.expenses.CashExpenseTotal(ctx, shift.TenantID, shift.StoreID, shift.OpenedAt, until)
		if err != nil {
			return cashier.ShiftActivity{}, err
		}
	}

	collections := decimal.Zero
	if s.collections != nil {
		collections, err = s.collections.CashCollectionTotal(ctx, shift.TenantID, shift.StoreID, shift.OpenedAt, until)
		if err != nil {
			return cashier.ShiftActivity{}, err
		}
	}

	return cashier.ShiftActivity{
		SalesByTender:     totals,
		CreditCollections: collections,
		CashExpenses:      cashExpenses,
	}, nil
}

func (s *ShiftService) publishEvents(ctx context.Context, shift *cashier.CashShift) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range shift.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	shift.ClearDomainEvents()
}
