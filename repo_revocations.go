package auth

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Revocations is the token deny-list
type Revocations interface {
	RevocationChecker
	Revoke(ctx context.Context, tokenID, accountID string, expiresAt time.Time) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type revocations struct {
	db *bun.DB
}

var _ Revocations = (*revocations)(nil)

// NewRevocationsRepository returns a Revocations store backed by db
func NewRevocationsRepository(db *bun.DB) Revocations {
	return &revocations{db: db}
}

// Revoke adds tokenID to the deny-list until expiresAt. Revoking the same
// token twice is not an error.
func (r *revocations) Revoke(ctx context.Context, tokenID, accountID string, expiresAt time.Time) error {
	record := &RevokedToken{
		TokenID:   tokenID,
		AccountID: accountID,
		ExpiresAt: expiresAt.UTC(),
	}

	_, err := r.db.NewInsert().
		Model(record).
		On("CONFLICT (jti) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return internalError(err, "failed to revoke token")
	}
	return nil
}

func (r *revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*RevokedToken)(nil)).
		Where("?TableAlias.jti = ?", tokenID).
		Exists(ctx)
	if err != nil {
		return false, internalError(err, "failed to query revoked tokens")
	}
	return exists, nil
}

// PurgeExpired drops entries whose token has expired on its own
func (r *revocations) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*RevokedToken)(nil)).
		Where("expires_at < ?", now.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, internalError(err, "failed to purge revoked tokens")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
