package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Accounts is the credential store
type Accounts interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByIdentifier(ctx context.Context, identifier string) (*Account, error)
	GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string) (*Account, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	ExistsByUsernameOrEmailTx(ctx context.Context, tx bun.IDB, username, email string) (bool, error)
	Create(ctx context.Context, record *Account) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var _ Accounts = (*accounts)(nil)

// NewAccountsRepository returns an Accounts store backed by db
func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(record *Account) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Account, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	record, err := a.Repository.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) || isNoRows(err) {
			return nil, ErrAccountNotFound
		}
		return nil, internalError(err, "failed to load account")
	}
	return record, nil
}

func (a *accounts) GetByIdentifier(ctx context.Context, identifier string) (*Account, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier)
}

// GetByIdentifierTx finds the account for identifier. Identifiers holding
// an "@" are matched against email, anything else against username.
func (a *accounts) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string) (*Account, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrAccountNotFound
	}

	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where(fmt.Sprintf("?TableAlias.%s = ?", identifierColumn(identifier)), identifier).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if isNoRows(err) {
			return nil, ErrAccountNotFound
		}
		return nil, internalError(err, "failed to load account")
	}

	return record, nil
}

func (a *accounts) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	return a.ExistsByUsernameOrEmailTx(ctx, a.db, username, email)
}

func (a *accounts) ExistsByUsernameOrEmailTx(ctx context.Context, tx bun.IDB, username, email string) (bool, error) {
	exists, err := tx.NewSelect().
		Model((*Account)(nil)).
		Where("?TableAlias.username = ?", username).
		WhereOr("?TableAlias.email = ?", email).
		Exists(ctx)
	if err != nil {
		return false, internalError(err, "failed to check account uniqueness")
	}
	return exists, nil
}

func (a *accounts) Create(ctx context.Context, record *Account) (*Account, error) {
	return a.CreateTx(ctx, a.db, record)
}

// CreateTx inserts record. Unique constraint violations surface as
// ErrAccountConflict regardless of any earlier existence check.
func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	prepareAccountDefaults(record)

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, withCause(ErrAccountConflict, err)
		}
		return nil, internalError(err, "failed to create account")
	}

	return created, nil
}

func identifierColumn(identifier string) string {
	if strings.Contains(identifier, "@") {
		return "email"
	}
	return "username"
}

func prepareAccountDefaults(record *Account) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := time.Now().UTC()
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	if record.UpdatedAt == nil {
		record.UpdatedAt = &now
	}
}
