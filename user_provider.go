package auth

import (
	"context"
	"errors"
)

// SecretUserFinder is the single read path that returns password hashes
type SecretUserFinder interface {
	GetWithSecret(ctx context.Context, username string) (*User, error)
}

// UserProvider verifies credentials against the user store
type UserProvider struct {
	store     SecretUserFinder
	passwords PasswordAuthenticator
	logger    Logger
}

var _ IdentityProvider = (*UserProvider)(nil)

// NewUserProvider will create a new UserProvider
func NewUserProvider(store SecretUserFinder) *UserProvider {
	return &UserProvider{
		store:     store,
		passwords: NewPasswordAuthenticator(),
		logger:    defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	u.logger = normalizeLogger(l)
	return u
}

// WithPasswordAuthenticator swaps the hash comparison, used by tests
func (u *UserProvider) WithPasswordAuthenticator(p PasswordAuthenticator) *UserProvider {
	if p != nil {
		u.passwords = p
	}
	return u
}

// VerifyIdentity will find the user, compare to the password, and return
// identity. An unknown username and a wrong password produce the same
// error, and both pay for one bcrypt comparison.
func (u *UserProvider) VerifyIdentity(ctx context.Context, username, password string) (Identity, error) {
	user, err := u.store.GetWithSecret(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			burnPasswordCompare(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := u.passwords.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if !errors.Is(err, ErrMismatchedHashAndPassword) {
			u.logger.Warn("password comparison failed", "user_id", user.ID.String(), "error", err)
		}
		return nil, ErrInvalidCredentials
	}

	return NewIdentityFromUser(user), nil
}
