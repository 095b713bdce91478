package types

import "fmt"

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeAuthorization ErrorType = "authorization"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeConflict      ErrorType = "conflict"
	ErrorTypeInternal      ErrorType = "internal"
	ErrorTypeStorage       ErrorType = "storage"
	ErrorTypeLedger        ErrorType = "ledger"
	ErrorTypeCancelled     ErrorType = "cancelled"
	ErrorTypeTimeout       ErrorType = "timeout"
)

// AccessError represents a structured error in the access manager
type AccessError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *AccessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AccessError) Unwrap() error {
	return e.Cause
}

// Error codes for the authorization domain. "Not authorized" is an
// expected decision outcome, not an error, and has no code here.
const (
	ErrCodeTokenMissing       = "TOKEN_MISSING"
	ErrCodeAlreadyHasToken    = "ALREADY_HAS_TOKEN"
	ErrCodeNotTokenOwner      = "NOT_TOKEN_OWNER"
	ErrCodeAlreadyAuthorized  = "ALREADY_AUTHORIZED"
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	ErrCodeLedgerUnreachable  = "LEDGER_UNREACHABLE"
	ErrCodeUserCancelled      = "USER_CANCELLED"
	ErrCodeTimeout            = "TIMEOUT"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
)

// NewValidationError creates a new validation error
func NewValidationError(code, message string, details map[string]interface{}) *AccessError {
	return &AccessError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewAuthorizationError creates a new authorization error
func NewAuthorizationError(code, message string) *AccessError {
	return &AccessError{
		Type:    ErrorTypeAuthorization,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(code, message string) *AccessError {
	return &AccessError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(code, message string) *AccessError {
	return &AccessError{
		Type:    ErrorTypeConflict,
		Code:    code,
		Message: message,
	}
}

// NewStorageError wraps a storage engine failure. Callers must treat
// this as "authorization indeterminate", never as a denial.
func NewStorageError(message string, cause error) *AccessError {
	return &AccessError{
		Type:    ErrorTypeStorage,
		Code:    ErrCodeStorageUnavailable,
		Message: message,
		Cause:   cause,
	}
}

// NewLedgerError wraps a ledger/network failure
func NewLedgerError(message string, cause error) *AccessError {
	return &AccessError{
		Type:    ErrorTypeLedger,
		Code:    ErrCodeLedgerUnreachable,
		Message: message,
		Cause:   cause,
	}
}

// NewCancelledError reports a wallet-signing flow cancelled by the user
func NewCancelledError(message string) *AccessError {
	return &AccessError{
		Type:    ErrorTypeCancelled,
		Code:    ErrCodeUserCancelled,
		Message: message,
	}
}

// NewTimeoutError reports a confirmation window that elapsed without a
// terminal transaction state
func NewTimeoutError(message string, details map[string]interface{}) *AccessError {
	return &AccessError{
		Type:    ErrorTypeTimeout,
		Code:    ErrCodeTimeout,
		Message: message,
		Details: details,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(code, message string, cause error) *AccessError {
	return &AccessError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode extracts the domain error code from err, or
// ErrCodeInternalError when err is not an AccessError.
func ErrorCode(err error) string {
	if ae, ok := err.(*AccessError); ok {
		return ae.Code
	}
	return ErrCodeInternalError
}
