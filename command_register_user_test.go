package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/goliatone/go-blogauth"
)

type cheapPasswords struct{}

func (cheapPasswords) HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(h), err
}

func (cheapPasswords) ComparePasswordAndHash(password, hash string) error {
	return auth.ComparePasswordAndHash(password, hash)
}

func TestRegisterUserHandler(t *testing.T) {
	ctx := context.Background()
	users := auth.NewUsersRepository(newTestDB(t))
	sink := &recordingSink{}
	handler := auth.NewRegisterUserHandler(users).
		WithPasswordAuthenticator(cheapPasswords{}).
		WithActivitySink(sink).
		WithLogger(nopLogger{})

	user, err := handler.Execute(ctx, auth.RegisterUserMessage{
		Name:     " Ada Lovelace ",
		Username: "ada@example.com",
		Password: "sekret",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.Name)
	assert.Equal(t, []auth.ActivityEventType{auth.ActivityEventUserRegistered}, sink.types())

	stored, err := users.GetWithSecret(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "sekret", stored.PasswordHash)
	assert.NoError(t, auth.ComparePasswordAndHash("sekret", stored.PasswordHash))

	_, err = handler.Execute(ctx, auth.RegisterUserMessage{
		Name:     "Other",
		Username: "ada@example.com",
		Password: "sekret",
	})
	assert.ErrorIs(t, err, auth.ErrUniqueConstraint)
}

func TestRegisterUserHandler_Validation(t *testing.T) {
	handler := auth.NewRegisterUserHandler(auth.NewUsersRepository(newTestDB(t))).
		WithPasswordAuthenticator(cheapPasswords{})

	cases := map[string]auth.RegisterUserMessage{
		"missing name":       {Username: "ada@example.com", Password: "sekret"},
		"username not email": {Name: "Ada", Username: "ada", Password: "sekret"},
		"short password":     {Name: "Ada", Username: "ada@example.com", Password: "ab"},
		"missing password":   {Name: "Ada", Username: "ada@example.com"},
	}

	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := handler.Execute(context.Background(), msg)
			require.Error(t, err)
			assert.ErrorIs(t, err, auth.ErrValidation)
			assert.Equal(t, 400, auth.StatusCode(err))
		})
	}
}

func TestRegisterUserHandler_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := auth.NewRegisterUserHandler(auth.NewUsersRepository(newTestDB(t))).
		Execute(ctx, auth.RegisterUserMessage{Name: "Ada", Username: "ada@example.com", Password: "sekret"})
	assert.ErrorIs(t, err, context.Canceled)
}
