package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Idempotent Admission (IDEM) ----

func ErrMissingIdempotencyKey() *AppError {
	return New("IDEM_001", "Missing Idempotency-Key header", http.StatusBadRequest)
}

func ErrDuplicateRequest() *AppError {
	return New("IDEM_002", "Duplicated request", http.StatusConflict)
}

// ---- Withdrawal Business Logic (WDR) ----

func ErrNotFound(entity string) *AppError {
	return New("WDR_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrInvalidState(status string) *AppError {
	return New("WDR_002", fmt.Sprintf("Operation not allowed in status %q", status), http.StatusConflict)
}

func ErrInvalidAmount() *AppError {
	return New("WDR_003", "Invalid amount", http.StatusBadRequest)
}

func ErrExceedsAvailable() *AppError {
	return New("WDR_004", "Amount exceeds what remains withdrawable from the source transaction", http.StatusUnprocessableEntity)
}

func ErrInsufficientBalance() *AppError {
	return New("WDR_005", "Insufficient available balance", http.StatusPaymentRequired)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrDownstreamUnavailable wraps an event-log or ledger connectivity failure.
func ErrDownstreamUnavailable(err error) *AppError {
	return Wrap("SYS_002", "Downstream dependency unavailable", http.StatusServiceUnavailable, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
