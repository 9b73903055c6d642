package acl

import (
	"context"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ErrCreditLimitExceeded indicates the customer service rejected a credit
// registration because the customer's outstanding balance would exceed
// their approved limit.
var ErrCreditLimitExceeded = shared.NewDomainError("CREDIT_LIMIT_EXCEEDED",
	"Customer credit limit exceeded")

// CustomerCreditService is the sales-side view of customer accounts
// receivable. Sales paid partly or fully on credit register the owed amount
// against the customer; refunds reverse it.
type CustomerCreditService interface {
	// RegisterCredit records an amount owed by the customer for a completed
	// sale. Returns ErrCreditLimitExceeded when the customer cannot take on
	// more debt.
	RegisterCredit(ctx context.Context, tenantID, customerID uuid.UUID, saleID uuid.UUID, saleNumber string, amount decimal.Decimal) error

	// ReverseCredit cancels a previously registered credit, used when a
	// credit sale is refunded or a checkout is compensated.
	ReverseCredit(ctx context.Context, tenantID, customerID uuid.UUID, saleID uuid.UUID) error
}
