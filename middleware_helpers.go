package auth

import (
	"context"

	"github.com/goliatone/go-charchat-auth/middleware/jwtware"
)

// ValidationListener aliases the jwtware listener so consumers can use auth helpers directly.
type ValidationListener = jwtware.ValidationListener

// ContextEnricherAdapter stores the claims in the standard context so
// handlers can use GetClaims.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}
	return WithClaimsContext(c, authClaims)
}

// RegisterValidationListeners appends listeners to a jwtware.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}

// middlewareValidator exposes an auth TokenValidator to jwtware
type middlewareValidator struct {
	validator TokenValidator
}

func (v middlewareValidator) Validate(ctx context.Context, tokenString string) (jwtware.AuthClaims, error) {
	claims, err := ValidateWithContext(ctx, v.validator, tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// JWTWareValidator adapts validator for use in jwtware.Config
func JWTWareValidator(validator TokenValidator) jwtware.TokenValidator {
	return middlewareValidator{validator: validator}
}
