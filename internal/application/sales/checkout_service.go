package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/sales"
	"github.com/pos/backend/internal/domain/sales/acl"
	"github.com/pos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// defaultCheckoutClaimTTL bounds how long a checkout idempotency key stays
// claimed when no explicit TTL is configured
const defaultCheckoutClaimTTL = 24 * time.Hour

// CheckoutService orchestrates the sale completion flow across the local
// ledger and the collaborating services: document numbering, inventory
// stock and customer credit. None of the remote calls share a transaction
// with the local database, so the flow is ordered so that every step before
// the final persist can be compensated, and failures are classified into
// domain rejections, retryable infrastructure failures and ambiguous
// outcomes that must not be retried blindly.
type CheckoutService struct {
	saleRepo       sales.SaleRepository
	numbering      acl.DocumentNumberingService
	stock          acl.InventoryStockService
	credit         acl.CustomerCreditService
	idempotency    shared.IdempotencyStore
	claimTTL       time.Duration
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	saleRepo sales.SaleRepository,
	numbering acl.DocumentNumberingService,
	stock acl.InventoryStockService,
	credit acl.CustomerCreditService,
	idempotency shared.IdempotencyStore,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		saleRepo:    saleRepo,
		numbering:   numbering,
		stock:       stock,
		credit:      credit,
		idempotency: idempotency,
		claimTTL:    defaultCheckoutClaimTTL,
		logger:      logger,
	}
}

// SetClaimTTL overrides how long a checkout idempotency key stays claimed.
// Non-positive values keep the default.
func (s *CheckoutService) SetClaimTTL(ttl time.Duration) {
	if ttl > 0 {
		s.claimTTL = ttl
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *CheckoutService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Checkout runs a one-shot cart checkout: it builds the sale with its lines,
// verifies stock, applies the payments and, when they cover the total,
// finalizes the sale against the collaborating services. When the payments
// do not cover the total the sale is persisted as Pending.
func (s *CheckoutService) Checkout(ctx context.Context, tenantID, cashierID uuid.UUID, cashierName string, req CheckoutRequest) (*SaleResponse, error) {
	release, err := s.claimIdempotency(ctx, tenantID, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	sale, err := s.buildSale(tenantID, cashierID, cashierName, req)
	if err != nil {
		release()
		return nil, err
	}

	// Advisory availability check before taking any payment. Stock can
	// still change before the deduct; the deduct is the authoritative call.
	if err := s.checkAvailability(ctx, sale); err != nil {
		release()
		return nil, err
	}

	completed := false
	for _, p := range req.Payments {
		done, err := sale.AddPayment(sales.TenderMethod(p.Method), p.Amount, p.Reference)
		if err != nil {
			release()
			return nil, err
		}
		completed = completed || done
	}

	if !completed {
		if err := s.saleRepo.Save(ctx, sale); err != nil {
			release()
			return nil, err
		}
		s.publishEvents(ctx, sale)
		response := ToSaleResponse(sale)
		return &response, nil
	}

	if err := s.finalize(ctx, sale); err != nil {
		// Nothing was persisted. The claim is released unless the outcome
		// of a remote call is unknown, in which case a repeat of the same
		// request must keep failing fast until an operator verifies.
		var remoteErr *shared.RemoteError
		if !errors.As(err, &remoteErr) || !remoteErr.Ambiguous {
			release()
		}
		return nil, err
	}

	s.publishEvents(ctx, sale)
	response := ToSaleResponse(sale)
	return &response, nil
}

// AddPayment applies one payment to an existing pending sale. When the
// payment covers the remaining balance the sale completes and is finalized
// against the collaborating services.
func (s *CheckoutService) AddPayment(ctx context.Context, tenantID, saleID uuid.UUID, req PaymentInput) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	completed, err := sale.AddPayment(sales.TenderMethod(req.Method), req.Amount, req.Reference)
	if err != nil {
		return nil, err
	}

	if !completed {
		if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
			return nil, err
		}
		response := ToSaleResponse(sale)
		return &response, nil
	}

	// The covering payment completed the sale; stock was not checked for
	// sales assembled incrementally, so the deduct inside finalize is the
	// only stock gate here.
	if err := s.finalize(ctx, sale); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)
	response := ToSaleResponse(sale)
	return &response, nil
}

// Complete finalizes a pending sale whose recorded payments already cover
// the total. This is the explicit counterpart to the auto-completion that a
// covering payment triggers, used when the terminal assembles the sale and
// payments separately and confirms at the end.
func (s *CheckoutService) Complete(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	if err := sale.Complete("", ""); err != nil {
		return nil, err
	}

	if err := s.finalize(ctx, sale); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)
	response := ToSaleResponse(sale)
	return &response, nil
}

// Refund reverses a completed sale: the ledger entry is marked Refunded,
// deducted stock is returned, and any credit extended for the sale is
// cancelled. The ledger write happens first; the remote reversals follow
// and are retried by the caller on failure, since a refund must never be
// silently lost once accepted.
func (s *CheckoutService) Refund(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	creditPayment := sale.CreditPayment()

	if err := sale.Refund(); err != nil {
		return nil, err
	}
	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	if err := s.stock.Restock(ctx, tenantID, sale.StoreID, sale.SaleNumber, stockLines(sale)); err != nil {
		s.logger.Error("refund restock failed, stock requires manual adjustment",
			zap.String("sale_id", sale.ID.String()),
			zap.String("sale_number", sale.SaleNumber),
			zap.Error(err))
		return nil, err
	}

	if creditPayment != nil && sale.CustomerID != nil {
		if err := s.credit.ReverseCredit(ctx, tenantID, *sale.CustomerID, sale.ID); err != nil {
			s.logger.Error("refund credit reversal failed, receivable requires manual adjustment",
				zap.String("sale_id", sale.ID.String()),
				zap.String("customer_id", sale.CustomerID.String()),
				zap.Error(err))
			return nil, err
		}
	}

	s.publishEvents(ctx, sale)
	response := ToSaleResponse(sale)
	return &response, nil
}

// IssueDocument issues the legal document for a completed sale that does
// not carry one yet. This is the recovery path after a checkout whose
// numbering call failed with an unknown outcome.
func (s *CheckoutService) IssueDocument(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	if err := s.issueNumber(ctx, sale); err != nil {
		return nil, err
	}
	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	response := ToSaleResponse(sale)
	return &response, nil
}

// buildSale assembles the in-memory sale with its lines
func (s *CheckoutService) buildSale(tenantID, cashierID uuid.UUID, cashierName string, req CheckoutRequest) (*sales.Sale, error) {
	sale, err := sales.NewSale(tenantID, req.StoreID, cashierID, cashierName, req.CustomerID, req.DocumentType, req.Notes, sales.DefaultTaxRate)
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
	return sale, nil
}

// finalize runs the completion pipeline for a sale that just transitioned
// to Completed in memory but is not yet stamped or persisted:
//
//  1. issue the legal document number (peek, then increment)
//  2. deduct stock in base units
//  3. register credit for a credit-tender payment
//  4. persist the sale
//
// Each step compensates the previous ones on failure. A document number
// consumed by a failed later step is an accepted gap in the series.
func (s *CheckoutService) finalize(ctx context.Context, sale *sales.Sale) error {
	if err := s.issueNumber(ctx, sale); err != nil {
		return err
	}

	lines := stockLines(sale)
	if err := s.stock.Deduct(ctx, sale.TenantID, sale.StoreID, sale.SaleNumber, lines); err != nil {
		return err
	}

	creditPayment := sale.CreditPayment()
	if creditPayment != nil && sale.CustomerID != nil {
		if err := s.credit.RegisterCredit(ctx, sale.TenantID, *sale.CustomerID, sale.ID, sale.SaleNumber, creditPayment.Amount); err != nil {
			s.compensateStock(ctx, sale, lines)
			return err
		}
	}

	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		s.compensateStock(ctx, sale, lines)
		if creditPayment != nil && sale.CustomerID != nil {
			if cerr := s.credit.ReverseCredit(ctx, sale.TenantID, *sale.CustomerID, sale.ID); cerr != nil {
				s.logger.Error("checkout compensation failed to reverse credit",
					zap.String("sale_id", sale.ID.String()), zap.Error(cerr))
			}
		}
		return err
	}
	return nil
}

// issueNumber resolves the active series and consumes the next number.
// Only the increment is authoritative; the peeked number may be taken by a
// concurrent sale between the two calls.
func (s *CheckoutService) issueNumber(ctx context.Context, sale *sales.Sale) error {
	preview, err := s.numbering.PeekNext(ctx, sale.TenantID, sale.StoreID, sale.DocumentType)
	if err != nil {
		return err
	}

	issued, err := s.numbering.Increment(ctx, sale.TenantID, preview.SeriesCode, documentClaimKey(sale))
	if err != nil {
		return err
	}

	return sale.AttachDocument(issued.SeriesCode, issued.DocumentNumber)
}

func (s *CheckoutService) checkAvailability(ctx context.Context, sale *sales.Sale) error {
	availability, err := s.stock.CheckAvailability(ctx, sale.TenantID, sale.StoreID, stockLines(sale))
	if err != nil {
		return err
	}
	for _, a := range availability {
		if !a.Sufficient {
			return acl.ErrInsufficientStock
		}
	}
	return nil
}

func (s *CheckoutService) compensateStock(ctx context.Context, sale *sales.Sale, lines []acl.StockLine) {
	if err := s.stock.Restock(ctx, sale.TenantID, sale.StoreID, sale.SaleNumber, lines); err != nil {
		s.logger.Error("checkout compensation failed to restock",
			zap.String("sale_id", sale.ID.String()),
			zap.String("sale_number", sale.SaleNumber),
			zap.Error(err))
	}
}

// claimIdempotency claims the request key when one was provided. The
// returned release func undoes the claim for failures where the request is
// known not to have been applied.
func (s *CheckoutService) claimIdempotency(ctx context.Context, tenantID uuid.UUID, key string) (func(), error) {
	if key == "" || s.idempotency == nil {
		return func() {}, nil
	}

	claimKey := fmt.Sprintf("checkout:%s:%s", tenantID, key)
	claimed, err := s.idempotency.Claim(ctx, claimKey, s.claimTTL)
	if err != nil {
		return nil, shared.NewRemoteFailure("idempotency", "claim", err)
	}
	if !claimed {
		return nil, shared.NewDomainError("DUPLICATE_REQUEST", "A checkout with this idempotency key was already submitted")
	}
	return func() {
		if rerr := s.idempotency.Release(ctx, claimKey); rerr != nil {
			s.logger.Warn("failed to release checkout idempotency claim",
				zap.String("key", claimKey), zap.Error(rerr))
		}
	}, nil
}

func (s *CheckoutService) publishEvents(ctx context.Context, sale *sales.Sale) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range sale.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	sale.ClearDomainEvents()
}

// stockLines converts the sale lines to base-unit stock movements
func stockLines(sale *sales.Sale) []acl.StockLine {
	lines := make([]acl.StockLine, len(sale.Items))
	for i, item := range sale.Items {
		lines[i] = acl.StockLine{
			ProductID:    item.ProductID,
			BaseQuantity: item.BaseQuantity(),
		}
	}
	return lines
}

// documentClaimKey derives the idempotency key sent with the numbering
// increment for one sale
func documentClaimKey(sale *sales.Sale) string {
	return "sale-doc:" + sale.ID.String()
}
