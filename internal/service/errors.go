package service

import "errors"

// ErrorCode classifies workflow failures so handlers can map them to HTTP
// statuses and user-facing messages uniformly.
type ErrorCode string

const (
	ErrorInvalid      ErrorCode = "invalid"      // missing/malformed required input, operation not attempted
	ErrorConflict     ErrorCode = "conflict"     // uniqueness or business-rule violation
	ErrorNotFound     ErrorCode = "not_found"    // referenced record absent, no mutation
	ErrorUpstream     ErrorCode = "upstream"     // external service/store failure
	ErrorUnauthorized ErrorCode = "unauthorized" // caller not allowed to perform the operation
)

// ServiceError carries the failure class and a user-meaningful message.
type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error  { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewConflictError(msg string) error { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewUpstreamError(msg string) error { return &ServiceError{Code: ErrorUpstream, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

// AsServiceError unwraps err into a *ServiceError if it is one.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
