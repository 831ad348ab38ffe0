package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// AccountFinder is a store we can use to retrieve accounts
type AccountFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByIdentifier(ctx context.Context, identifier string) (*Account, error)
}

// AccountProvider verifies credentials against the account store
type AccountProvider struct {
	store  AccountFinder
	hasher *PasswordHasher
	logger Logger
}

var _ IdentityProvider = (*AccountProvider)(nil)

// NewAccountProvider will create a new AccountProvider. A nil hasher uses
// the default cost.
func NewAccountProvider(store AccountFinder, hasher *PasswordHasher) *AccountProvider {
	if hasher == nil {
		hasher = NewPasswordHasher(0, 0)
	}
	return &AccountProvider{
		store:  store,
		hasher: hasher,
		logger: defLogger{},
	}
}

// WithLogger sets the logger
func (p *AccountProvider) WithLogger(l Logger) *AccountProvider {
	if l != nil {
		p.logger = l
	}
	return p
}

// VerifyIdentity finds the account by username or email and checks the
// password. Unknown identifiers and wrong passwords both return
// ErrInvalidCredentials after doing the same amount of hashing work.
func (p *AccountProvider) VerifyIdentity(ctx context.Context, identifier, password string) (*Account, error) {
	account, err := p.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			p.hasher.burn(ctx, password)
			return nil, ErrInvalidCredentials
		}
		return nil, internalError(err, "failed to retrieve account during verification")
	}

	if !p.hasher.Verify(ctx, password, account.PasswordHash) {
		if ctx.Err() != nil {
			return nil, internalError(ctx.Err(), "password verification cancelled")
		}
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

// FindAccountByID loads the account a session token points at
func (p *AccountProvider) FindAccountByID(ctx context.Context, id string) (*Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, withCause(ErrUnauthorized, err)
	}

	account, err := p.store.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, internalError(err, "failed to retrieve account")
	}
	return account, nil
}
