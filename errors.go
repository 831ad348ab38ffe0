package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to the package errors
const (
	TextCodeMissingFields     = "MISSING_FIELDS"
	TextCodeValidation        = "VALIDATION_FAILED"
	TextCodeInvalidBody       = "INVALID_BODY"
	TextCodeInvalidCreds      = goerrors.TextCodeInvalidCredentials
	TextCodeAccountExists     = "ACCOUNT_EXISTS"
	TextCodeAccountNotFound   = "ACCOUNT_NOT_FOUND"
	TextCodeEmptyPassword     = goerrors.TextCodeEmptyPassword
	TextCodeUnauthorized      = "UNAUTHORIZED"
	TextCodeTokenExpired      = goerrors.TextCodeTokenExpired
	TextCodeTokenMalformed    = goerrors.TextCodeTokenMalformed
	TextCodeTokenInvalid      = "TOKEN_INVALID"
	TextCodeTokenRevoked      = "TOKEN_REVOKED"
	TextCodeSessionNotFound   = goerrors.TextCodeSessionNotFound
	TextCodeInvalidConfig     = "INVALID_CONFIG"
	TextCodeInternal          = "INTERNAL_ERROR"
	TextCodeMissingSigningKey = "MISSING_SIGNING_KEY"
)

// ErrMissingFields is returned when a required request field is empty
var ErrMissingFields = goerrors.New("Missing required fields", goerrors.CategoryBadInput).
	WithTextCode(TextCodeMissingFields).
	WithCode(goerrors.CodeBadRequest)

// ErrValidation carries per-field validation failures in ValidationErrors
var ErrValidation = goerrors.New("Validation failed", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidBody is returned when a request body can not be decoded
var ErrInvalidBody = goerrors.New("Invalid request body", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidBody).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidCredentials is the single error for unknown identifiers and
// wrong passwords. Both cases must stay indistinguishable.
var ErrInvalidCredentials = goerrors.New("Invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is returned by ComparePasswordAndHash
var ErrMismatchedHashAndPassword = ErrInvalidCredentials

// ErrAccountConflict is returned when the username or email is taken
var ErrAccountConflict = goerrors.New("User with this email or username already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeAccountExists).
	WithCode(goerrors.CodeConflict)

// ErrAccountNotFound is the error we return for non found accounts
var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrUnauthorized is what protected routes answer with
var ErrUnauthorized = goerrors.New("Unauthorized", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToFindSession is the error when our request has no claims
var ErrUnableToFindSession = goerrors.New("unable to find session", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired token expiration error
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed token can not be parsed
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenInvalid signature or claims did not verify
var ErrTokenInvalid = goerrors.New("token is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenRevoked token id is on the deny-list
var ErrTokenRevoked = goerrors.New("token has been revoked", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenRevoked).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidConfig configuration failed validation
var ErrInvalidConfig = goerrors.New("invalid configuration", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidConfig).
	WithCode(goerrors.CodeBadRequest)

// ErrMissingSigningKey no signing secret was configured
var ErrMissingSigningKey = goerrors.New("signing key is required", goerrors.CategoryValidation).
	WithTextCode(TextCodeMissingSigningKey).
	WithCode(goerrors.CodeBadRequest)

// causeError keeps both the package sentinel and the underlying cause
// reachable through errors.Is and errors.As.
type causeError struct {
	sentinel *goerrors.Error
	cause    error
}

func (e *causeError) Error() string   { return e.cause.Error() }
func (e *causeError) Unwrap() []error { return []error{e.sentinel, e.cause} }

// withCause returns a copy of sentinel whose Source is cause. The copy still
// matches the sentinel under errors.Is.
func withCause(sentinel *goerrors.Error, cause error) *goerrors.Error {
	out := sentinel.Clone()
	if cause == nil {
		out.Source = sentinel
		return out
	}
	out.Source = &causeError{sentinel: sentinel, cause: cause}
	return out
}

// withValidation returns a copy of sentinel carrying one FieldError per
// entry in fields, wrapping cause.
func withValidation(sentinel *goerrors.Error, fields map[string]string, cause error) *goerrors.Error {
	out := withCause(sentinel, cause)
	out.ValidationErrors = make(goerrors.ValidationErrors, 0, len(fields))
	for field, msg := range fields {
		out.ValidationErrors = append(out.ValidationErrors, goerrors.FieldError{
			Field:   field,
			Message: msg,
		})
	}
	return out
}

// internalError wraps err as an internal failure with a status code set
func internalError(err error, message string) *goerrors.Error {
	wrapped := goerrors.Wrap(err, goerrors.CategoryInternal, message)
	if wrapped == nil {
		return goerrors.New(message, goerrors.CategoryInternal).
			WithTextCode(TextCodeInternal).
			WithCode(goerrors.CodeInternal)
	}
	if wrapped.Category == goerrors.CategoryInternal {
		if wrapped.TextCode == "" {
			wrapped.TextCode = TextCodeInternal
		}
		if wrapped.Code == 0 {
			wrapped.Code = goerrors.CodeInternal
		}
	}
	return wrapped
}

// categoryStatus maps an error category to an HTTP status code
func categoryStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return goerrors.CodeBadRequest
	case goerrors.CategoryAuth:
		return goerrors.CodeUnauthorized
	case goerrors.CategoryAuthz:
		return goerrors.CodeForbidden
	case goerrors.CategoryNotFound:
		return goerrors.CodeNotFound
	case goerrors.CategoryConflict:
		return goerrors.CodeConflict
	case goerrors.CategoryRateLimit:
		return goerrors.CodeTooManyRequests
	default:
		return goerrors.CodeInternal
	}
}

// AsError returns err as *goerrors.Error, wrapping anything unknown as
// internal. The returned error always carries an HTTP status code.
func AsError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if richErr.Code == 0 {
			richErr = richErr.Clone().WithCode(categoryStatus(richErr.Category))
		}
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "Internal server error").
		WithTextCode(TextCodeInternal).
		WithCode(goerrors.CodeInternal)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
