package auth

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Category groups errors by how callers should react to them
type Category string

const (
	CategoryValidation      Category = "validation"
	CategoryUnauthenticated Category = "unauthenticated"
	CategorySessionInvalid  Category = "session_invalid"
	CategoryAccountDisabled Category = "account_disabled"
	CategoryForbidden       Category = "forbidden"
	CategoryNotFound        Category = "not_found"
	CategoryConflict        Category = "conflict"
	CategoryStorage         Category = "storage"
	CategoryInternal        Category = "internal"
)

// Error is the rich error carried through the service. Code is the HTTP
// status the error maps to and TextCode a stable machine readable key.
type Error struct {
	Category Category
	Code     int
	TextCode string
	Message  string
	Metadata map[string]any
	Cause    error
}

func newError(category Category, code int, textCode, message string) *Error {
	return &Error{
		Category: category,
		Code:     code,
		TextCode: textCode,
		Message:  message,
	}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on TextCode so decorated copies still match their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return t.TextCode == e.TextCode
}

func (e *Error) clone() *Error {
	out := *e
	out.Metadata = maps.Clone(e.Metadata)
	return &out
}

// WithMetadata returns a copy of the error with the given metadata merged in
func (e *Error) WithMetadata(md map[string]any) *Error {
	out := e.clone()
	if out.Metadata == nil {
		out.Metadata = make(map[string]any, len(md))
	}
	maps.Copy(out.Metadata, md)
	return out
}

// WithMessage returns a copy of the error with a new message
func (e *Error) WithMessage(format string, args ...any) *Error {
	out := e.clone()
	out.Message = fmt.Sprintf(format, args...)
	return out
}

// Wrap returns a copy of the error that records cause
func (e *Error) Wrap(cause error) *Error {
	out := e.clone()
	out.Cause = cause
	return out
}

var (
	// ErrValidation request payload failed validation
	ErrValidation = newError(CategoryValidation, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed")

	// ErrUnauthenticated no verified identity claim was presented
	ErrUnauthenticated = newError(CategoryUnauthenticated, http.StatusUnauthorized, "TOKEN_MISSING", "token missing or invalid")

	// ErrInvalidCredentials is shared by unknown usernames and wrong passwords
	ErrInvalidCredentials = newError(CategoryUnauthenticated, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password")

	// ErrUserNotFound the token refers to a user that no longer exists
	ErrUserNotFound = newError(CategoryUnauthenticated, http.StatusUnauthorized, "USER_NOT_FOUND", "user associated with token not found")

	// ErrSessionInvalid the token has no live session
	ErrSessionInvalid = newError(CategorySessionInvalid, http.StatusUnauthorized, "SESSION_INVALID", "session expired or invalid")

	// ErrAccountDisabled the account was disabled, its session is revoked
	ErrAccountDisabled = newError(CategoryAccountDisabled, http.StatusForbidden, "ACCOUNT_DISABLED", "account disabled")

	// ErrForbidden the actor does not own the resource
	ErrForbidden = newError(CategoryForbidden, http.StatusForbidden, "FORBIDDEN", "not allowed to modify this resource")

	// ErrNotFound the addressed resource does not exist
	ErrNotFound = newError(CategoryNotFound, http.StatusNotFound, "NOT_FOUND", "resource not found")

	// ErrSessionNotFound logout presented a token without a session
	ErrSessionNotFound = newError(CategoryNotFound, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")

	// ErrDuplicateRelation the reading list already holds the pair
	ErrDuplicateRelation = newError(CategoryConflict, http.StatusConflict, "DUPLICATE_RELATION", "blog already in reading list")

	// ErrUniqueConstraint a unique column such as username is taken
	ErrUniqueConstraint = newError(CategoryConflict, http.StatusConflict, "UNIQUE_CONSTRAINT", "value must be unique")

	// ErrStorage the backing store failed
	ErrStorage = newError(CategoryStorage, http.StatusInternalServerError, "STORAGE_ERROR", "storage failure")

	// ErrInternal unexpected failure
	ErrInternal = newError(CategoryInternal, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
)

// ErrNoEmptyString password inputs must not be empty
var ErrNoEmptyString = errors.New("password can not be an empty string")

// ErrMismatchedHashAndPassword is returned by ComparePasswordAndHash
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password")

// ErrTokenExpired the token expiry has passed
var ErrTokenExpired = errors.New("token is expired")

// ErrTokenMalformed the token could not be parsed or verified
var ErrTokenMalformed = errors.New("token is malformed")

// AsError unwraps err into an *Error. Unknown errors become ErrInternal
// wrapping the original cause.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var rich *Error
	if errors.As(err, &rich) {
		return rich
	}
	return ErrInternal.Wrap(err)
}

// StatusCode returns the HTTP status for err
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return AsError(err).Code
}

// StorageError wraps a store failure that is not otherwise classified
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var rich *Error
	if errors.As(err, &rich) {
		return err
	}
	return ErrStorage.Wrap(err).WithMetadata(map[string]any{"op": op})
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenExpired) || strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenMalformed) ||
		strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// ValidationError converts ozzo validation errors into ErrValidation with
// the failing fields as metadata
func ValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if errors.As(err, &fields) {
		md := make(map[string]any, len(fields))
		for field, ferr := range fields {
			if ferr != nil {
				md[field] = ferr.Error()
			}
		}
		return ErrValidation.WithMessage("%s", err.Error()).WithMetadata(md)
	}
	return ErrValidation.WithMessage("%s", err.Error())
}
