package dto

import (
	"net/http"

	"github.com/anchala/pos/internal/domain/shared"
)

// Transport error codes, raised by the HTTP layer itself rather than the
// domain. Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeInternal           = "ERR_INTERNAL"
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeBadRequest         = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON        = "ERR_INVALID_JSON"
	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired       = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked       = "ERR_TOKEN_REVOKED"
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeRequestTooLarge    = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited        = "ERR_RATE_LIMITED"
	ErrCodeUnavailable        = "ERR_SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes. Domain
// validation codes (EMPTY_CART, INVALID_QUANTITY...) are not listed; their
// status comes from the error kind.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeInvalidJSON:        http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeRequestTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:        http.StatusTooManyRequests,
	ErrCodeUnavailable:        http.StatusServiceUnavailable,

	shared.CodeNotFound:     http.StatusNotFound,
	shared.CodeValidation:   http.StatusBadRequest,
	shared.CodePersistence:  http.StatusServiceUnavailable,
	shared.CodeUnauthorized: http.StatusUnauthorized,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// StatusForKind returns the HTTP status for a domain error kind
func StatusForKind(kind shared.ErrorKind) int {
	switch kind {
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindPersistence:
		return http.StatusServiceUnavailable
	case shared.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// StatusForDomainError prefers the kind; a domain error built without one
// falls back to its code.
func StatusForDomainError(err *shared.DomainError) int {
	if err.Kind != "" {
		return StatusForKind(err.Kind)
	}
	return GetHTTPStatus(err.Code)
}
