package auth

import (
	"context"
	"time"
)

// TokenValidator validates tokens and extracts claims without tying callers
// to a specific signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// ContextTokenValidator is implemented by validators that need to reach a
// store and so honor request cancellation.
type ContextTokenValidator interface {
	TokenValidator
	ValidateContext(ctx context.Context, tokenString string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (AuthClaims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (AuthClaims, error) {
	if f == nil {
		return nil, ErrTokenInvalid
	}
	return f(tokenString)
}

// RevocationChecker reports whether a token id is on the deny-list
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RevocationValidator rejects otherwise valid tokens whose id was revoked.
type RevocationValidator struct {
	next        TokenValidator
	revocations RevocationChecker
	timeout     time.Duration
	logger      Logger
}

var _ ContextTokenValidator = (*RevocationValidator)(nil)

// NewRevocationValidator layers a deny-list check on top of next
func NewRevocationValidator(next TokenValidator, revocations RevocationChecker, logger Logger) *RevocationValidator {
	if logger == nil {
		logger = defLogger{}
	}
	return &RevocationValidator{
		next:        next,
		revocations: revocations,
		timeout:     5 * time.Second,
		logger:      logger,
	}
}

// Validate satisfies the TokenValidator interface.
func (v *RevocationValidator) Validate(tokenString string) (AuthClaims, error) {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()
	return v.ValidateContext(ctx, tokenString)
}

// ValidateContext validates the token then consults the deny-list
func (v *RevocationValidator) ValidateContext(ctx context.Context, tokenString string) (AuthClaims, error) {
	claims, err := v.next.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	if v.revocations == nil || claims.TokenID() == "" {
		return claims, nil
	}

	revoked, err := v.revocations.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		v.logger.Error("revocation lookup failed", "error", err)
		return nil, internalError(err, "failed to check token revocation")
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// ValidateWithContext uses ValidateContext when validator supports it
func ValidateWithContext(ctx context.Context, validator TokenValidator, tokenString string) (AuthClaims, error) {
	if cv, ok := validator.(ContextTokenValidator); ok {
		return cv.ValidateContext(ctx, tokenString)
	}
	return validator.Validate(tokenString)
}
