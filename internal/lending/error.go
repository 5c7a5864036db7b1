package lending

import (
	"errors"
	"fmt"
	"strings"
)

// ===== Error model (same shape as catalog/patron, wider code set) =====

type Code string

const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeUnavailable       Code = "UNAVAILABLE"
	CodeInactiveUser      Code = "INACTIVE_USER"
	CodeDuplicateBorrow   Code = "DUPLICATE_BORROW"
	CodeAlreadyReturned   Code = "ALREADY_RETURNED"
	CodeInvalidState      Code = "INVALID_STATE"
	CodeRenewalLimit      Code = "RENEWAL_LIMIT_EXCEEDED"
	CodeConflictRetryable Code = "CONFLICT_RETRYABLE"
	CodeInternal          Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrNotFound(msg string) *APIError        { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrUnavailable(msg string) *APIError     { return &APIError{Code: CodeUnavailable, Message: msg} }
func ErrInactiveUser(msg string) *APIError    { return &APIError{Code: CodeInactiveUser, Message: msg} }
func ErrDuplicateBorrow(msg string) *APIError { return &APIError{Code: CodeDuplicateBorrow, Message: msg} }
func ErrAlreadyReturned(msg string) *APIError { return &APIError{Code: CodeAlreadyReturned, Message: msg} }
func ErrInvalidState(msg string) *APIError    { return &APIError{Code: CodeInvalidState, Message: msg} }
func ErrRenewalLimit(msg string) *APIError    { return &APIError{Code: CodeRenewalLimit, Message: msg} }
func ErrConflict(msg string) *APIError        { return &APIError{Code: CodeConflictRetryable, Message: msg} }
func ErrInternal(msg string) *APIError        { return &APIError{Code: CodeInternal, Message: msg} }

// ErrValidation aggregates every violated constraint into one error instead of
// failing on the first mismatch.
func ErrValidation(violations []string) *APIError {
	return &APIError{Code: CodeValidation, Message: strings.Join(violations, "; ")}
}

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeValidation:
			return 400
		case CodeInactiveUser:
			return 403
		case CodeNotFound:
			return 404
		case CodeUnavailable, CodeDuplicateBorrow, CodeAlreadyReturned,
			CodeInvalidState, CodeRenewalLimit, CodeConflictRetryable:
			return 409
		default:
			return 500
		}
	}
	return 500
}

// IsBusinessError reports whether err is a rule violation rather than an
// infrastructure failure, so callers can tell the two apart.
func IsBusinessError(err error) bool {
	var api *APIError
	return errors.As(err, &api) && api.Code != CodeInternal
}
