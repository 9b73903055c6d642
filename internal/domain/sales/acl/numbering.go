package acl

import (
	"context"

	"github.com/google/uuid"
	"github.com/pos/backend/internal/domain/shared"
)

// ErrSeriesNotConfigured indicates no active document series exists for the
// requested store and document type. This is a configuration problem, not a
// transient failure: retrying without operator intervention cannot succeed.
var ErrSeriesNotConfigured = shared.NewDomainError("SERIES_NOT_CONFIGURED",
	"No active document series configured for this store and document type")

// NumberPreview is the advisory result of peeking at a series.
// The previewed number is for display only; concurrent sales may consume it
// before this caller does. Only Increment is authoritative.
type NumberPreview struct {
	SeriesCode    string
	PreviewNumber string
	FullNumber    string
}

// IssuedNumber is the confirmed result of incrementing a series
type IssuedNumber struct {
	SeriesCode     string
	DocumentNumber string
	FullNumber     string // "<series>-<number>", e.g. "B001-00000042"
}

// DocumentNumberingService allocates legally sequential document numbers
// from per-tenant, per-store, per-document-type series owned by the
// configuration service.
//
// The protocol is deliberately two-step and non-atomic from this side:
// PeekNext resolves the active series and previews the next number;
// Increment advances the counter server-side and returns the confirmed
// number. If Increment times out the caller cannot know whether the counter
// advanced; implementations surface that as an ambiguous shared.RemoteError
// and callers must not retry it blindly. The idempotency key lets a future
// numbering service deduplicate, but resolution is out of scope here.
type DocumentNumberingService interface {
	// PeekNext resolves the active series for (tenant, store, documentType)
	// and previews the next number without consuming it.
	// Returns ErrSeriesNotConfigured when no active series exists.
	PeekNext(ctx context.Context, tenantID, storeID uuid.UUID, documentType string) (*NumberPreview, error)

	// Increment atomically advances the series counter on the owning service
	// and returns the confirmed document number.
	Increment(ctx context.Context, tenantID uuid.UUID, seriesCode string, idempotencyKey string) (*IssuedNumber, error)
}
