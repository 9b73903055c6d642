package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
)

// RemoteError represents a failure on a call to a collaborating service.
// Rejected is true when the remote service explicitly refused the request
// (the caller may correct input and retry). Ambiguous is true when the
// outcome is unknown (timeout, connection reset mid-flight); callers must
// not blindly retry an ambiguous failure on a non-idempotent operation.
type RemoteError struct {
	Service   string
	Operation string
	Rejected  bool
	Ambiguous bool
	Err       error
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	switch {
	case e.Ambiguous:
		return fmt.Sprintf("%s: %s outcome unknown: %v", e.Service, e.Operation, e.Err)
	case e.Rejected:
		return fmt.Sprintf("%s: %s rejected: %v", e.Service, e.Operation, e.Err)
	default:
		return fmt.Sprintf("%s: %s failed: %v", e.Service, e.Operation, e.Err)
	}
}

// Unwrap returns the underlying transport or protocol error
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the call can be safely re-issued as-is.
// An ambiguous failure is never retryable because the first attempt may
// have been applied.
func (e *RemoteError) Retryable() bool {
	return !e.Ambiguous && !e.Rejected
}

// NewRemoteRejection creates a RemoteError for an explicit remote refusal
func NewRemoteRejection(service, operation string, err error) *RemoteError {
	return &RemoteError{Service: service, Operation: operation, Rejected: true, Err: err}
}

// NewRemoteFailure creates a RemoteError for a transport-level failure
// with a known outcome (the request never reached the remote side)
func NewRemoteFailure(service, operation string, err error) *RemoteError {
	return &RemoteError{Service: service, Operation: operation, Err: err}
}

// NewAmbiguousRemoteFailure creates a RemoteError for a failure whose
// outcome cannot be determined by the caller
func NewAmbiguousRemoteFailure(service, operation string, err error) *RemoteError {
	return &RemoteError{Service: service, Operation: operation, Ambiguous: true, Err: err}
}
