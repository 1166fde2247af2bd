package errors

import (
	"github.com/go-kratos/kratos/v2/errors"
)

// Common error codes
const (
	// Client errors (4xx)
	CodeBadRequest   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeConflict     = 409
	CodeClientClosed = 499

	// Server errors (5xx)
	CodeInternalServerError = 500
	CodeServiceUnavailable  = 503
	CodeGatewayTimeout      = 504
)

// Turn-level error reasons surfaced by the chat engine.
var (
	ErrValidation       = errors.BadRequest("VALIDATION_FAILED", "Validation failed")
	ErrNotFound         = errors.NotFound("NOT_FOUND", "Conversation not found")
	ErrForbidden        = errors.Forbidden("FORBIDDEN", "Conversation belongs to another user")
	ErrRetrievalFailed  = errors.ServiceUnavailable("RETRIEVAL_FAILED", "Document retrieval failed")
	ErrGenerationFailed = errors.ServiceUnavailable("GENERATION_FAILED", "Answer generation failed")
	ErrStoreFailed      = errors.InternalServer("STORE_FAILED", "Conversation store failed")
	ErrConsistency      = errors.Conflict("CONSISTENCY_VIOLATION", "Message ordering invariant violated")
	ErrClientClosed     = errors.New(CodeClientClosed, "CLIENT_CLOSED", "Request canceled by client")
	ErrTimeout          = errors.New(CodeGatewayTimeout, "TIMEOUT", "Upstream call timed out")
)

// NewBadRequest creates a new bad request error.
func NewBadRequest(reason, message string) *errors.Error {
	return errors.BadRequest(reason, message)
}

// NewNotFound creates a new not found error.
func NewNotFound(reason, message string) *errors.Error {
	return errors.NotFound(reason, message)
}

// NewForbidden creates a new forbidden error.
func NewForbidden(reason, message string) *errors.Error {
	return errors.Forbidden(reason, message)
}

// NewInternalServerError creates a new internal server error.
func NewInternalServerError(reason, message string) *errors.Error {
	return errors.InternalServer(reason, message)
}

// IsTransient reports whether the error represents a provider timeout or
// unavailability that the caller may retry once with backoff.
func IsTransient(err error) bool {
	if e := errors.FromError(err); e != nil {
		return e.Code == CodeServiceUnavailable || e.Code == CodeGatewayTimeout
	}
	return false
}
