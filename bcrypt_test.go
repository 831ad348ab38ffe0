package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/goliatone/go-charchat-auth"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := auth.HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, auth.ErrNoEmptyString))
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)

			err = auth.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestComparePasswordAndHash(t *testing.T) {
	password := "testPassword123!"
	hash, err := auth.HashPassword(password)
	assert.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  bool
	}{
		{
			name:     "Matching password",
			password: password,
			hash:     hash,
			wantErr:  false,
		},
		{
			name:     "Wrong password",
			password: "wrongPassword",
			hash:     hash,
			wantErr:  true,
		},
		{
			name:     "Invalid hash",
			password: password,
			hash:     "invalidhash",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ComparePasswordAndHash(tt.password, tt.hash)

			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, auth.ErrInvalidCredentials))
				if tt.hash == hash {
					assert.Equal(t, auth.ErrMismatchedHashAndPassword, err)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultPasswordCost(t *testing.T) {
	hash, err := auth.HashPassword("cost-check")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, auth.DefaultPasswordCost, cost)
}

func TestPasswordHasher_RoundTrip(t *testing.T) {
	ctx := context.Background()
	h := newTestHasher()

	for _, pw := range []string{"secret1", "p@ss w0rd", "ünïcødé-pässwörd", "x"} {
		digest, err := h.Hash(ctx, pw)
		require.NoError(t, err)
		assert.NotEqual(t, pw, digest)
		assert.True(t, h.Verify(ctx, pw, digest), "password %q should verify", pw)
	}
}

func TestPasswordHasher_DistinctSalts(t *testing.T) {
	ctx := context.Background()
	h := newTestHasher()

	d1, err := h.Hash(ctx, "secret1")
	require.NoError(t, err)
	d2, err := h.Hash(ctx, "secret1")
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
	assert.True(t, h.Verify(ctx, "secret1", d1))
	assert.True(t, h.Verify(ctx, "secret1", d2))
}

func TestPasswordHasher_Mismatch(t *testing.T) {
	ctx := context.Background()
	h := newTestHasher()

	digest, err := h.Hash(ctx, "secret1")
	require.NoError(t, err)

	for _, candidate := range []string{"secret2", "Secret1", "secret1 ", "", "secret"} {
		assert.False(t, h.Verify(ctx, candidate, digest), "candidate %q must not verify", candidate)
	}
}

func TestPasswordHasher_MalformedDigest(t *testing.T) {
	ctx := context.Background()
	h := newTestHasher()

	for _, digest := range []string{"", "invalidhash", "$2a$04$short", "$2a$99$" + string(make([]byte, 53))} {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify(ctx, "secret1", digest))
		})
	}
}

func TestPasswordHasher_EmptyPassword(t *testing.T) {
	_, err := newTestHasher().Hash(context.Background(), "")
	assert.ErrorIs(t, err, auth.ErrNoEmptyString)
}

func TestPasswordHasher_CostBounds(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{name: "zero uses default", in: 0, want: auth.DefaultPasswordCost},
		{name: "below minimum is clamped", in: 1, want: bcrypt.MinCost},
		{name: "above maximum is clamped", in: 99, want: bcrypt.MaxCost},
		{name: "explicit cost", in: 5, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.NewPasswordHasher(tt.in, 1).Cost())
		})
	}
}

func TestPasswordHasher_CancelledContext(t *testing.T) {
	h := auth.NewPasswordHasher(bcrypt.MinCost, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// the semaphore may still hand out a free slot; either outcome is fine
	// as long as a cancelled wait never blocks
	done := make(chan struct{})
	go func() {
		_, _ = h.Hash(ctx, "secret1")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("hash with cancelled context blocked")
	}
}

func TestPasswordHasher_Concurrent(t *testing.T) {
	ctx := context.Background()
	h := auth.NewPasswordHasher(bcrypt.MinCost, 2)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			digest, err := h.Hash(ctx, "secret1")
			if err != nil {
				errs <- err
				return
			}
			if !h.Verify(ctx, "secret1", digest) {
				errs <- errors.New("digest did not verify")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
