package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/goliatone/go-charchat-auth/middleware/jwtware"
)

// DefaultTokenTTL is how long issued tokens stay valid
const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenService issues and validates signed session tokens
type TokenService interface {
	Generate(identity Identity) (string, error)
	Issue(identity Identity, ttl time.Duration) (string, time.Time, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

// NewTokenService creates a new TokenService instance. A zero ttl uses
// DefaultTokenTTL.
func NewTokenService(signingKey []byte, ttl time.Duration, issuer string, audience jwt.ClaimStrings, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenServiceImpl{
		signingKey: signingKey,
		ttl:        ttl,
		issuer:     issuer,
		audience:   audience,
		logger:     logger,
	}
}

// TTL returns the default token lifetime
func (ts *TokenServiceImpl) TTL() time.Duration {
	return ts.ttl
}

// Generate creates a JWT token for identity using the default TTL
func (ts *TokenServiceImpl) Generate(identity Identity) (string, error) {
	token, _, err := ts.Issue(identity, ts.ttl)
	return token, err
}

// Issue creates a JWT token expiring ttl from now. A negative ttl yields an
// already expired token.
func (ts *TokenServiceImpl) Issue(identity Identity, ttl time.Duration) (string, time.Time, error) {
	if identity == nil {
		return "", time.Time{}, internalError(nil, "identity is required")
	}

	now := time.Now()
	expiresAt := now.Add(ttl)

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UID:  identity.ID(),
		Name: identity.Username(),
		Mail: identity.Email(),
	}

	ensureTokenID(&claims.RegisteredClaims)

	token, err := ts.SignClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", internalError(nil, "claims must not be nil")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", internalError(err, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured claims
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Warn("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, withCause(ErrTokenExpired, err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, withCause(ErrTokenMalformed, err)
		default:
			return nil, withCause(ErrTokenInvalid, err)
		}
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrTokenInvalid
}

// VerifyToken returns the claims of a valid token, or false for any
// failure.
func VerifyToken(validator TokenValidator, tokenString string) (AuthClaims, bool) {
	if validator == nil {
		return nil, false
	}
	claims, err := validator.Validate(tokenString)
	if err != nil || claims == nil {
		return nil, false
	}
	return claims, true
}

// MintToken issues a token for identity with an explicit ttl
func MintToken(service TokenService, identity Identity, ttl time.Duration) (string, error) {
	if service == nil {
		return "", internalError(nil, "token service is required")
	}
	token, _, err := service.Issue(identity, ttl)
	return token, err
}

// TokenFromHeader extracts the token from an "Authorization: Bearer <token>"
// header value. The scheme is matched case-insensitively.
func TokenFromHeader(value string) (string, bool) {
	return jwtware.TokenFromAuthHeader(value, "Bearer")
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
