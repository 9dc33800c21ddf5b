package auth_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-blogauth"
)

func TestUsers_RegisterAndReadProjections(t *testing.T) {
	ctx := context.Background()
	users := auth.NewUsersRepository(newTestDB(t))

	created := seedUser(t, users, "ada@example.com", "sekret")
	require.NotEqual(t, uuid.Nil, created.ID)

	public, err := users.GetPublic(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", public.Username)

	raw, err := json.Marshal(public)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "disabled")

	byName, err := users.GetPublicByUsername(ctx, " ada@example.com ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	secret, err := users.GetWithSecret(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, secret.PasswordHash)
	assert.False(t, secret.Disabled)

	raw, err = json.Marshal(secret)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), secret.PasswordHash)

	state, err := users.GetState(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, state.Disabled)
}

func TestUsers_UsernameUnique(t *testing.T) {
	users := auth.NewUsersRepository(newTestDB(t))
	seedUser(t, users, "ada@example.com", "sekret")

	_, err := users.Register(context.Background(), &auth.User{
		Name:         "Other",
		Username:     "ada@example.com",
		PasswordHash: "x",
	})
	assert.ErrorIs(t, err, auth.ErrUniqueConstraint)
	assert.Equal(t, 409, auth.StatusCode(err))
}

func TestUsers_NotFound(t *testing.T) {
	ctx := context.Background()
	users := auth.NewUsersRepository(newTestDB(t))

	_, err := users.GetPublic(ctx, uuid.New())
	assert.ErrorIs(t, err, auth.ErrNotFound)

	_, err = users.GetWithSecret(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, auth.ErrNotFound)

	_, err = users.GetState(ctx, uuid.New())
	assert.ErrorIs(t, err, auth.ErrNotFound)

	_, err = users.SetDisabled(ctx, uuid.New(), true)
	assert.ErrorIs(t, err, auth.ErrNotFound)

	_, err = users.Rename(ctx, uuid.New(), "x@example.com")
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestUsers_ListAndRename(t *testing.T) {
	ctx := context.Background()
	users := auth.NewUsersRepository(newTestDB(t))
	ada := seedUser(t, users, "ada@example.com", "sekret")
	seedUser(t, users, "bob@example.com", "sekret")

	list, err := users.ListPublic(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	renamed, err := users.Rename(ctx, ada.ID, "lovelace@example.com")
	require.NoError(t, err)
	assert.Equal(t, "lovelace@example.com", renamed.Username)

	_, err = users.Rename(ctx, ada.ID, "bob@example.com")
	assert.ErrorIs(t, err, auth.ErrUniqueConstraint)
}

func TestUsers_SetDisabled(t *testing.T) {
	ctx := context.Background()
	users := auth.NewUsersRepository(newTestDB(t))
	ada := seedUser(t, users, "ada@example.com", "sekret")

	updated, err := users.SetDisabled(ctx, ada.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Disabled)
	assert.Equal(t, auth.UserStatusDisabled, updated.Status())

	state, err := users.GetState(ctx, ada.ID)
	require.NoError(t, err)
	assert.True(t, state.Disabled)

	updated, err = users.SetDisabled(ctx, ada.ID, false)
	require.NoError(t, err)
	assert.Equal(t, auth.UserStatusActive, updated.Status())
}
