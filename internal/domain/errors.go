package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeProviderConfig     = "PROVIDER_NOT_CONFIGURED"
	ErrCodeDimensionMismatch  = "DIMENSION_MISMATCH"
	ErrCodeBackendUnavailable = "SEARCH_BACKEND_UNAVAILABLE"
	ErrCodeGeneration         = "GENERATION_ERROR"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Pipeline errors
var (
	ErrProviderNotConfigured    = NewDomainError(ErrCodeProviderConfig, "embedding provider credentials are not configured")
	ErrDimensionMismatch        = NewDomainError(ErrCodeDimensionMismatch, "collection dimension does not match the active embedding model")
	ErrSearchBackendUnavailable = NewDomainError(ErrCodeBackendUnavailable, "vector search backend is not initialized")
	ErrGenerationFailed         = NewDomainError(ErrCodeGeneration, "language model generation failed")
	ErrGenerationRateLimited    = NewDomainError(ErrCodeRateLimited, "language model is rate limited")
)

// Validation errors
var (
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidProvider      = NewDomainError(ErrCodeValidation, "unsupported embedding provider")
	ErrUnknownModel         = NewDomainError(ErrCodeValidation, "unknown embedding model")
	ErrInvalidFragment      = NewDomainError(ErrCodeValidation, "invalid knowledge fragment")
	ErrInvalidIngestJob     = NewDomainError(ErrCodeValidation, "invalid ingest job")
)

// Not found errors
var (
	ErrFragmentNotFound   = NewDomainError(ErrCodeNotFound, "knowledge fragment not found")
	ErrCollectionNotFound = NewDomainError(ErrCodeNotFound, "collection not found")
	ErrIngestJobNotFound  = NewDomainError(ErrCodeNotFound, "ingest job not found")
)
