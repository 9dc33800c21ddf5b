package auth

import (
	"context"

	"github.com/google/uuid"
)

// Logger is the structured logger used across the package. Arguments
// after the message are key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity holds the attributes of an authenticated principal
type Identity interface {
	ID() string
	Username() string
	Name() string
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetTokenExpiration() int
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
}

// IdentityProvider verifies credentials against the user store
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, username, password string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// UserStateFinder loads the minimal projection the guard needs to decide
// whether an account may keep using its session.
type UserStateFinder interface {
	GetState(ctx context.Context, id uuid.UUID) (*UserState, error)
}

// SessionRegistry is the durable authority on token liveness. A token is
// only honored while a session row exists for its exact string.
type SessionRegistry interface {
	Create(ctx context.Context, userID uuid.UUID, token string) (uuid.UUID, error)
	FindByToken(ctx context.Context, token string) (*Session, error)
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// SessionCounter reports how many sessions a user holds
type SessionCounter interface {
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// TokenService issues and validates bearer tokens
type TokenService interface {
	Generate(identity Identity) (string, *JWTClaims, error)
	Validate(token string) (*JWTClaims, error)
}
