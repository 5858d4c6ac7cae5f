package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError define la estructura estándar de errores de la API.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // Causa original, solo para logs
}

// Error implementa la interfaz error
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original
func (e *AppError) Unwrap() error {
	return e.Err
}

// New crea un nuevo AppError
func New(status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// FromError convierte cualquier error en AppError: primero AppError
// explícitos, luego errores de dominio conocidos, si no 500.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	if mapped := fromDomain(err); mapped != nil {
		return mapped
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail devuelve una COPIA con detalle (no muta las variables base).
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause devuelve una COPIA con la causa original.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// =================================================================================
// ERRORES PREDEFINIDOS
// =================================================================================

// 400 Bad Request

var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "The request is malformed or missing parameters.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "The request body is not valid JSON.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrValidation = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "One or more fields are invalid.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidPhoneNumber = &AppError{
		Code:       "INVALID_PHONE_NUMBER",
		Message:    "Phone number must be E.164: '+' followed by 10 to 15 digits.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidAmount = &AppError{
		Code:       "INVALID_AMOUNT",
		Message:    "Amount must be a positive number.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingPaymentAttempt = &AppError{
		Code:       "MISSING_PAYMENT_ID",
		Message:    "A payment attempt id is required.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrBatchTooLarge = &AppError{
		Code:       "BATCH_TOO_LARGE",
		Message:    "Too many phone numbers in one batch.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidVerificationLink = &AppError{
		Code:       "INVALID_VERIFICATION_LINK",
		Message:    "The verification link is invalid or has expired.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrBodyTooLarge = &AppError{
		Code:       "BODY_TOO_LARGE",
		Message:    "The request body exceeds the maximum size.",
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}
)

// 404 Not Found

var (
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "The requested resource was not found.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrChallengeNotFound = &AppError{
		Code:       "CHALLENGE_NOT_FOUND",
		Message:    "Verification challenge not found.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrRouteNotFound = &AppError{
		Code:       "ROUTE_NOT_FOUND",
		Message:    "The requested route does not exist.",
		HTTPStatus: http.StatusNotFound,
	}
)

// 405 Method Not Allowed

var (
	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "HTTP method not allowed for this resource.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}
)

// 409 Conflict

var (
	ErrChallengeAlreadyActive = &AppError{
		Code:       "CHALLENGE_ALREADY_ACTIVE",
		Message:    "A verification challenge is already pending for this payment.",
		HTTPStatus: http.StatusConflict,
	}

	ErrChallengeAlreadyTerminal = &AppError{
		Code:       "CHALLENGE_ALREADY_TERMINAL",
		Message:    "The verification challenge is closed; start a new payment authorization.",
		HTTPStatus: http.StatusConflict,
	}

	ErrAttemptMismatch = &AppError{
		Code:       "PAYMENT_PHONE_MISMATCH",
		Message:    "This payment is bound to a different phone number.",
		HTTPStatus: http.StatusConflict,
	}
)

// 410 Gone

var (
	ErrChallengeExpired = &AppError{
		Code:       "CHALLENGE_EXPIRED",
		Message:    "The verification challenge has expired; start a new payment authorization.",
		HTTPStatus: http.StatusGone,
	}
)

// 422 Unprocessable Entity

var (
	ErrUnsupportedMethodForTier = &AppError{
		Code:       "UNSUPPORTED_METHOD_FOR_TIER",
		Message:    "This verification method is not allowed for the risk level.",
		HTTPStatus: http.StatusUnprocessableEntity,
	}

	ErrMethodUnavailable = &AppError{
		Code:       "METHOD_UNAVAILABLE",
		Message:    "This verification method is not available for the member.",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
)

// 429 Too Many Requests

var (
	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Too many requests. Try again later.",
		HTTPStatus: http.StatusTooManyRequests,
	}
)

// 500+

var (
	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "An internal error occurred.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrOracleUnavailable = &AppError{
		Code:       "RISK_CHECK_UNAVAILABLE",
		Message:    "The SIM swap check is temporarily unavailable.",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	ErrAuditUnavailable = &AppError{
		Code:       "AUDIT_UNAVAILABLE",
		Message:    "The decision could not be recorded; no decision was issued.",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)
