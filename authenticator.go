package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// LoginResult is what a successful signin produces
type LoginResult struct {
	Account   *Account
	Token     string
	ExpiresAt time.Time
}

type Auther struct {
	provider     IdentityProvider
	logger       Logger
	tokenService TokenService
	revocations  Revocations
	activitySink ActivitySink
	ttl          time.Duration
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenTTL(),
		opts.GetIssuer(),
		jwt.ClaimStrings(opts.GetAudience()),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		logger:       defLogger{},
		tokenService: tokenService,
		activitySink: noopActivitySink{},
		ttl:          tokenService.TTL(),
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger == nil {
		return s
	}
	s.logger = logger
	if ts, ok := s.tokenService.(*TokenServiceImpl); ok {
		ts.logger = logger
	}
	return s
}

// WithTokenService replaces the token service, mostly useful in tests
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// WithRevocations enables the jti deny-list for Logout and Validator
func (s *Auther) WithRevocations(r Revocations) *Auther {
	s.revocations = r
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Validator returns the validator protected routes should use. It checks
// the deny-list when revocations are configured.
func (s *Auther) Validator() TokenValidator {
	if s.revocations == nil {
		return s.tokenService
	}
	return NewRevocationValidator(s.tokenService, s.revocations, s.logger)
}

// Login verifies the credentials in payload and issues a session token.
// Unknown identifiers and wrong passwords both fail with
// ErrInvalidCredentials.
func (s *Auther) Login(ctx context.Context, payload LoginPayload) (*LoginResult, error) {
	req := SigninRequest{
		Identifier: strings.TrimSpace(payload.GetIdentifier()),
		Password:   strings.TrimSpace(payload.GetPassword()),
	}

	if req.Identifier == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	account, err := s.provider.VerifyIdentity(ctx, req.Identifier, req.Password)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": req.Identifier,
			"error":      AsError(err).TextCode,
		})
		if AsError(err).Category == goerrors.CategoryInternal {
			s.logger.Error("Login verify identity error", "error", err)
		}
		return nil, err
	}

	token, expiresAt, err := s.tokenService.Issue(account.Identity(), s.ttl)
	if err != nil {
		s.logger.Error("Login failed to issue token", "error", err)
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, ActorRef{ID: account.ID.String(), Type: "account"}, account.ID.String(), map[string]any{
		"identifier": req.Identifier,
	})

	return &LoginResult{
		Account:   account,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// SessionFromToken validates raw and returns its claims
func (s *Auther) SessionFromToken(ctx context.Context, raw string) (AuthClaims, error) {
	return ValidateWithContext(ctx, s.Validator(), raw)
}

// CurrentAccount loads the account a session belongs to
func (s *Auther) CurrentAccount(ctx context.Context, claims AuthClaims) (*Account, error) {
	if claims == nil {
		return nil, ErrUnableToFindSession
	}
	return s.provider.FindAccountByID(ctx, claims.UserID())
}

// Logout revokes the token behind claims. Without a deny-list this is a
// no-op and the token lives until it expires.
func (s *Auther) Logout(ctx context.Context, claims AuthClaims) error {
	if claims == nil {
		return ErrUnableToFindSession
	}

	if s.revocations != nil && claims.TokenID() != "" {
		if err := s.revocations.Revoke(ctx, claims.TokenID(), claims.UserID(), claims.Expires()); err != nil {
			s.logger.Error("Logout failed to revoke token", "error", err)
			return err
		}
	}

	s.emitAuthEvent(ctx, ActivityEventLogout, ActorRef{ID: claims.UserID(), Type: "account"}, claims.UserID(), map[string]any{
		"jti": claims.TokenID(),
	})
	return nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, accountID string, metadata map[string]any) {
	recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		AccountID: accountID,
		Metadata:  metadata,
	})
}
