package auth_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/goliatone/go-blogauth"
	"github.com/goliatone/go-blogauth/database"
)

const testSigningKey = "test-signing-key"

// newTestDB opens a private in-memory database with the schema applied
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(context.Background(), dsn, database.WithMigrations())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// seedUser inserts a user with a cheap hash of password
func seedUser(t *testing.T, users auth.Users, username, password string) *auth.PublicUser {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user, err := users.Register(context.Background(), &auth.User{
		Name:         "Test " + username,
		Username:     username,
		PasswordHash: string(hash),
	})
	require.NoError(t, err)
	return user
}

func newTestTokenService() *auth.TokenServiceImpl {
	return auth.NewTokenService([]byte(testSigningKey), 1, "blogauth", jwt.ClaimStrings{"blogauth"}, nil)
}

type testIdentity struct {
	id, username, name string
}

func (i testIdentity) ID() string       { return i.id }
func (i testIdentity) Username() string { return i.username }
func (i testIdentity) Name() string     { return i.name }

type testConfig struct {
	lookup string
	scheme string
}

func (c testConfig) GetSigningKey() string    { return testSigningKey }
func (c testConfig) GetSigningMethod() string { return "HS256" }
func (c testConfig) GetContextKey() string    { return "user" }
func (c testConfig) GetTokenExpiration() int  { return 1 }
func (c testConfig) GetTokenLookup() string   { return c.lookup }
func (c testConfig) GetAuthScheme() string    { return c.scheme }
func (c testConfig) GetIssuer() string        { return "blogauth" }
func (c testConfig) GetAudience() []string    { return []string{"blogauth"} }

// MockSessionRegistry implements auth.SessionRegistry
type MockSessionRegistry struct {
	mock.Mock
}

func (m *MockSessionRegistry) Create(ctx context.Context, userID uuid.UUID, token string) (uuid.UUID, error) {
	args := m.Called(ctx, userID, token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockSessionRegistry) FindByToken(ctx context.Context, token string) (*auth.Session, error) {
	args := m.Called(ctx, token)
	s, _ := args.Get(0).(*auth.Session)
	return s, args.Error(1)
}

func (m *MockSessionRegistry) DeleteByToken(ctx context.Context, token string) (int64, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRegistry) DeleteByID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionRegistry) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserStates implements auth.UserStateFinder
type MockUserStates struct {
	mock.Mock
}

func (m *MockUserStates) GetState(ctx context.Context, id uuid.UUID) (*auth.UserState, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*auth.UserState)
	return s, args.Error(1)
}

// MockIdentityProvider implements auth.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, username, password string) (auth.Identity, error) {
	args := m.Called(ctx, username, password)
	id, _ := args.Get(0).(auth.Identity)
	return id, args.Error(1)
}

// recordingSink collects activity events
type recordingSink struct {
	events []auth.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) types() []auth.ActivityEventType {
	out := make([]auth.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}
