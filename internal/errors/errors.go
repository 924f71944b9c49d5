package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateIdentity is returned when the email is already registered.
	ErrDuplicateIdentity = errors.New("email already in use")
	// ErrInvalidCredentials is returned for an unknown email, a wrong password
	// or an account without a credential. The cases are deliberately not distinguished.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrPartialSignup is matched by PartialSignupError.
	ErrPartialSignup = errors.New("user created without credential")
	// ErrCryptoFailure is returned when hashing or verification cannot run.
	ErrCryptoFailure = errors.New("credential hashing failed")
	// ErrSigningFailure is returned when a token cannot be signed.
	ErrSigningFailure = errors.New("token signing failed")
	// ErrNotFound is returned by stores when a record is absent.
	ErrNotFound = errors.New("record not found")
	// ErrTooManyAttempts is returned when login is throttled for an email.
	ErrTooManyAttempts = errors.New("too many failed login attempts")
	// ErrPasswordTooLong is returned when the hasher cannot accept the password length.
	ErrPasswordTooLong = errors.New("password too long")
	// ErrInvalidToken is returned by the token verification gate.
	ErrInvalidToken = errors.New("invalid token")
)

// PartialSignupError reports a user record that was written without its
// credential. The account cannot authenticate and needs reconciliation.
type PartialSignupError struct {
	UserID uuid.UUID
	Err    error
}

func (e *PartialSignupError) Error() string {
	return fmt.Sprintf("partial signup for user %s: %v", e.UserID, e.Err)
}

func (e *PartialSignupError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPartialSignup) match.
func (e *PartialSignupError) Is(target error) bool {
	return target == ErrPartialSignup
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// IsInternal reports whether err is surfaced to clients as a generic internal error.
func IsInternal(err error) bool {
	return MapErrorToHTTP(err).StatusCode == http.StatusInternalServerError
}

// MapErrorToHTTP maps domain errors to HTTP errors. Partial signups, crypto
// and signing failures collapse into the generic internal error.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrPartialSignup),
		errors.Is(err, ErrCryptoFailure),
		errors.Is(err, ErrSigningFailure):
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	case errors.Is(err, ErrDuplicateIdentity):
		return NewHTTPError(http.StatusConflict, "Email already in use", "EMAIL_IN_USE")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrTooManyAttempts):
		return NewHTTPError(http.StatusTooManyRequests, err.Error(), "TOO_MANY_ATTEMPTS")
	case errors.Is(err, ErrPasswordTooLong):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "PASSWORD_TOO_LONG")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_TOKEN")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
