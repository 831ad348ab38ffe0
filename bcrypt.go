package auth

import (
	"context"
	"errors"
	"runtime"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// MaxPasswordLength is the longest password bcrypt will accept
const MaxPasswordLength = 72

// DefaultPasswordCost is the bcrypt work factor used when none is configured
var DefaultPasswordCost = passwordHashCost()

// PasswordHasher hashes and verifies passwords with bcrypt. At most
// concurrency hash or compare operations run at once; callers beyond
// that wait for a slot or for their context to end.
type PasswordHasher struct {
	cost  int
	sem   *semaphore.Weighted
	once  sync.Once
	dummy string
}

var _ PasswordAuthenticator = (*PasswordHasher)(nil)

// NewPasswordHasher creates a hasher. Zero values pick DefaultPasswordCost
// and runtime.NumCPU() workers.
func NewPasswordHasher(cost, concurrency int) *PasswordHasher {
	if cost == 0 {
		cost = DefaultPasswordCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &PasswordHasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(concurrency)),
	}
}

// Cost returns the bcrypt work factor
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash returns a salted digest of password
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", internalError(err, "password hashing cancelled")
	}
	defer h.sem.Release(1)

	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", internalError(err, "failed to hash password")
	}
	return string(digest), nil
}

// Verify reports whether password matches digest. Malformed digests and
// cancelled contexts report false.
func (h *PasswordHasher) Verify(ctx context.Context, password, digest string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// HashPassword will generate a password hash
func (h *PasswordHasher) HashPassword(password string) (string, error) {
	return h.Hash(context.Background(), password)
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func (h *PasswordHasher) ComparePasswordAndHash(password, hash string) error {
	if !h.Verify(context.Background(), password, hash) {
		return ErrMismatchedHashAndPassword
	}
	return nil
}

// burn runs a compare against a throwaway digest of the same cost so that
// unknown identifiers take as long to reject as wrong passwords.
func (h *PasswordHasher) burn(ctx context.Context, password string) {
	h.once.Do(func() {
		digest, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), h.cost)
		if err == nil {
			h.dummy = string(digest)
		}
	})
	if h.dummy == "" {
		return
	}
	h.Verify(ctx, password, h.dummy)
}

// HashPassword will generate a password hash using DefaultPasswordCost
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), DefaultPasswordCost)
	if err != nil {
		return "", internalError(err, "failed to hash password")
	}
	return string(h), nil
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return goerrors.Wrap(err, goerrors.CategoryAuth, "invalid password hash").
			WithTextCode(TextCodeInvalidCreds).
			WithCode(goerrors.CodeUnauthorized)
	}
	return nil
}
