package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/goliatone/go-charchat-auth"
)

const testSigningKey = "test-signing-key-0123456789"

// MockIdentity implements auth.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Username() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Info(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Warn(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Error(msg string, args ...any) {
	m.Called(msg, args)
}

// MockRevocationChecker implements auth.RevocationChecker
type MockRevocationChecker struct {
	mock.Mock
}

func (m *MockRevocationChecker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

// MockAccountFinder implements auth.AccountFinder
type MockAccountFinder struct {
	mock.Mock
}

func (m *MockAccountFinder) GetByID(ctx context.Context, id uuid.UUID) (*auth.Account, error) {
	args := m.Called(ctx, id)
	if acc, ok := args.Get(0).(*auth.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountFinder) GetByIdentifier(ctx context.Context, identifier string) (*auth.Account, error) {
	args := m.Called(ctx, identifier)
	if acc, ok := args.Get(0).(*auth.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type capturingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt auth.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) types() []auth.ActivityEventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]auth.ActivityEventType, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.EventType)
	}
	return out
}

func newTestOptions() *auth.Options {
	return &auth.Options{
		SigningKey:  testSigningKey,
		TokenTTL:    time.Hour,
		Issuer:      "charchat-test",
		DSN:         "file::memory:",
		ContextKey:  auth.DefaultContextKey,
		TokenLookup: "header:Authorization",
		AuthScheme:  "Bearer",
	}
}

func newTestHasher() *auth.PasswordHasher {
	return auth.NewPasswordHasher(bcrypt.MinCost, 4)
}

// newTestDB opens a migrated in-memory SQLite database
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	ctx := context.Background()
	db, err := auth.OpenDatabase(ctx, newTestOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, auth.Migrate(ctx, db, nopLogger{}))
	return db
}

type testEnv struct {
	db       *bun.DB
	repo     auth.RepositoryManager
	hasher   *auth.PasswordHasher
	provider *auth.AccountProvider
	auther   *auth.Auther
	register *auth.RegisterAccountHandler
	sink     *capturingSink
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	repo := auth.NewRepositoryManager(db)
	hasher := newTestHasher()
	sink := &capturingSink{}

	provider := auth.NewAccountProvider(repo.Accounts(), hasher).WithLogger(nopLogger{})
	auther := auth.NewAuthenticator(provider, newTestOptions()).
		WithLogger(nopLogger{}).
		WithRevocations(repo.Revocations()).
		WithActivitySink(sink)

	return &testEnv{
		db:       db,
		repo:     repo,
		hasher:   hasher,
		provider: provider,
		auther:   auther,
		register: auth.NewRegisterAccountHandler(repo, hasher, nopLogger{}).WithActivitySink(sink),
		sink:     sink,
	}
}

func (e *testEnv) signup(t *testing.T, username, email, password string) *auth.Account {
	t.Helper()
	acc, err := e.register.Register(context.Background(), auth.RegisterAccountMessage{
		Username: username,
		Fullname: "Test " + username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return acc
}
