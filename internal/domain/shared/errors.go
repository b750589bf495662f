package shared

import "errors"

// ErrorKind groups domain error codes into the categories callers react to.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindValidation   ErrorKind = "VALIDATION"
	KindPersistence  ErrorKind = "PERSISTENCE"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"-"`
	Err     error     `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches domain errors by code, so errors.Is(err, ErrNotFound) holds for
// every NOT_FOUND error regardless of message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new validation-kind domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    KindValidation,
	}
}

// NewNotFoundError creates a NOT_FOUND error with a specific message
func NewNotFoundError(message string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: message, Kind: KindNotFound}
}

// NewUnauthorizedError creates an UNAUTHORIZED-kind error with a specific code
func NewUnauthorizedError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: KindUnauthorized}
}

// NewPersistenceError wraps a store failure
func NewPersistenceError(message string, cause error) *DomainError {
	return &DomainError{Code: CodePersistence, Message: message, Kind: KindPersistence, Err: cause}
}

// Error codes
const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodePersistence  = "PERSISTENCE_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
)

// Common domain errors
var (
	ErrNotFound     = &DomainError{Code: CodeNotFound, Message: "Resource not found", Kind: KindNotFound}
	ErrValidation   = &DomainError{Code: CodeValidation, Message: "Invalid input provided", Kind: KindValidation}
	ErrPersistence  = &DomainError{Code: CodePersistence, Message: "Store write failed", Kind: KindPersistence}
	ErrUnauthorized = &DomainError{Code: CodeUnauthorized, Message: "Not authorized to perform this action", Kind: KindUnauthorized}
)

// KindOf reports the kind of a domain error anywhere in err's chain.
// Errors that are not domain errors report an empty kind.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsValidation reports whether err is a validation failure
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsNotFound reports whether err is a lookup miss
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsPersistence reports whether err is a store failure
func IsPersistence(err error) bool {
	return KindOf(err) == KindPersistence
}
