package readinglist_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-blogauth"
	"github.com/goliatone/go-blogauth/blogs"
	"github.com/goliatone/go-blogauth/database"
	"github.com/goliatone/go-blogauth/readinglist"
)

type fixture struct {
	db      *bun.DB
	manager *readinglist.Manager
	sink    *recordingSink
	ada     *auth.PublicUser
	bob     *auth.PublicUser
	blog    *blogs.Blog
	other   *blogs.Blog
}

type recordingSink struct {
	events []auth.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, e auth.ActivityEvent) error {
	r.events = append(r.events, e)
	return nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(ctx, dsn, database.WithMigrations())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := auth.NewUsersRepository(db)
	register := func(username string) *auth.PublicUser {
		u, err := users.Register(ctx, &auth.User{Name: username, Username: username, PasswordHash: "x"})
		require.NoError(t, err)
		return u
	}

	f := &fixture{
		db:   db,
		sink: &recordingSink{},
		ada:  register("ada@example.com"),
		bob:  register("bob@example.com"),
	}

	repo := blogs.NewRepository(db)
	f.blog, err = repo.Create(ctx, &blogs.Blog{URL: "https://example.com/a", Title: "a", UserID: f.bob.ID})
	require.NoError(t, err)
	f.other, err = repo.Create(ctx, &blogs.Blog{URL: "https://example.com/b", Title: "b", UserID: f.bob.ID})
	require.NoError(t, err)

	f.manager = readinglist.NewManager(db, nil).WithActivitySink(f.sink)
	return f
}

func TestManager_AddStartsUnread(t *testing.T) {
	f := newFixture(t)

	entry, err := f.manager.Add(context.Background(), f.ada.ID, f.blog.ID)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, f.ada.ID, entry.UserID)
	assert.Equal(t, f.blog.ID, entry.BlogID)
	assert.False(t, entry.Read)
}

func TestManager_AddDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.manager.Add(ctx, f.ada.ID, f.blog.ID)
	require.NoError(t, err)

	_, err = f.manager.Add(ctx, f.ada.ID, f.blog.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrDuplicateRelation)
	assert.Equal(t, 409, auth.StatusCode(err))

	entries, err := f.manager.ListForUser(ctx, f.ada.ID, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the relation is stored once")

	_, err = f.manager.Add(ctx, f.bob.ID, f.blog.ID)
	assert.NoError(t, err, "another user may add the same blog")
}

func TestManager_AddUnknownReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.manager.Add(ctx, uuid.New(), f.blog.ID)
	assert.ErrorIs(t, err, auth.ErrNotFound)

	_, err = f.manager.Add(ctx, f.ada.ID, uuid.New())
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestManager_SetReadOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entry, err := f.manager.Add(ctx, f.ada.ID, f.blog.ID)
	require.NoError(t, err)

	// bob owns the blog but not the reading list entry
	_, err = f.manager.SetRead(ctx, entry.ID, f.bob.ID, true)
	assert.ErrorIs(t, err, auth.ErrForbidden)
	require.Len(t, f.sink.events, 1)
	assert.Equal(t, auth.ActivityEventOwnershipDenied, f.sink.events[0].EventType)
	assert.Equal(t, "reading_list", f.sink.events[0].Metadata["resource"])

	stored, err := f.manager.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, stored.Read)

	updated, err := f.manager.SetRead(ctx, entry.ID, f.ada.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Read)

	stored, err = f.manager.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, stored.Read)

	_, err = f.manager.SetRead(ctx, uuid.New(), f.ada.ID, true)
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

type failingSink struct{}

func (failingSink) Record(context.Context, auth.ActivityEvent) error {
	return errors.New("sink offline")
}

type warnLogger struct {
	warnings []string
}

func (w *warnLogger) Debug(string, ...any) {}
func (w *warnLogger) Info(string, ...any)  {}
func (w *warnLogger) Error(string, ...any) {}
func (w *warnLogger) Warn(msg string, _ ...any) {
	w.warnings = append(w.warnings, msg)
}

func TestManager_SetReadDeniedLogsSinkFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	logger := &warnLogger{}
	manager := readinglist.NewManager(f.db, logger).WithActivitySink(failingSink{})

	entry, err := manager.Add(ctx, f.ada.ID, f.blog.ID)
	require.NoError(t, err)

	_, err = manager.SetRead(ctx, entry.ID, f.bob.ID, true)
	assert.ErrorIs(t, err, auth.ErrForbidden)
	assert.Equal(t, []string{"activity sink failed"}, logger.warnings)
}

func TestManager_ListForUserFilter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.manager.Add(ctx, f.ada.ID, f.blog.ID)
	require.NoError(t, err)
	_, err = f.manager.Add(ctx, f.ada.ID, f.other.ID)
	require.NoError(t, err)
	_, err = f.manager.SetRead(ctx, first.ID, f.ada.ID, true)
	require.NoError(t, err)

	all, err := f.manager.ListForUser(ctx, f.ada.ID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, e := range all {
		require.NotNil(t, e.Blog)
	}

	read := true
	readOnly, err := f.manager.ListForUser(ctx, f.ada.ID, &read)
	require.NoError(t, err)
	require.Len(t, readOnly, 1)
	assert.Equal(t, f.blog.ID, readOnly[0].BlogID)
	assert.Equal(t, "a", readOnly[0].Blog.Title)

	unread := false
	unreadOnly, err := f.manager.ListForUser(ctx, f.ada.ID, &unread)
	require.NoError(t, err)
	require.Len(t, unreadOnly, 1)
	assert.Equal(t, f.other.ID, unreadOnly[0].BlogID)

	none, err := f.manager.ListForUser(ctx, f.bob.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestManager_Remove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entry, err := f.manager.Add(ctx, f.ada.ID, f.blog.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.manager.Remove(ctx, entry.ID, f.bob.ID), auth.ErrForbidden)
	require.Len(t, f.sink.events, 1)
	assert.Equal(t, entry.ID.String(), f.sink.events[0].Metadata["resource_id"])
	require.NoError(t, f.manager.Remove(ctx, entry.ID, f.ada.ID))

	_, err = f.manager.Get(ctx, entry.ID)
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestManager_BlogDeleteCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entry, err := f.manager.Add(ctx, f.ada.ID, f.blog.ID)
	require.NoError(t, err)

	require.NoError(t, blogs.NewRepository(f.db).Delete(ctx, f.blog.ID))

	_, err = f.manager.Get(ctx, entry.ID)
	assert.ErrorIs(t, err, auth.ErrNotFound)
}
