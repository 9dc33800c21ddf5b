// Package readinglist manages the many-to-many relation between users and
// the blogs they want to read.
package readinglist

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-blogauth"
	"github.com/goliatone/go-blogauth/database"
)

// Manager owns reading list writes. Every write is a single statement, the
// (user_id, blog_id) uniqueness is left to the store's constraint.
type Manager struct {
	db           bun.IDB
	logger       auth.Logger
	activitySink auth.ActivitySink
	now          func() time.Time
}

// NewManager returns a Manager over db
func NewManager(db bun.IDB, logger auth.Logger) *Manager {
	if logger == nil {
		logger = auth.NewZapLogger(nil)
	}
	return &Manager{
		db:           db,
		logger:       logger,
		activitySink: auth.ActivitySinkFunc(nil),
		now:          time.Now,
	}
}

// WithActivitySink publishes ownership denials
func (m *Manager) WithActivitySink(sink auth.ActivitySink) *Manager {
	if sink != nil {
		m.activitySink = sink
	}
	return m
}

// Add inserts the pair with read=false. A second add of the same pair
// fails with ErrDuplicateRelation, unknown users or blogs with ErrNotFound.
func (m *Manager) Add(ctx context.Context, userID, blogID uuid.UUID) (*Entry, error) {
	now := m.now().UTC()
	entry := &Entry{
		ID:        uuid.New(),
		UserID:    userID,
		BlogID:    blogID,
		Read:      false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := m.db.NewInsert().Model(entry).Exec(ctx); err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return nil, auth.ErrDuplicateRelation.WithMetadata(map[string]any{
				"user_id": userID.String(),
				"blog_id": blogID.String(),
			})
		case database.IsForeignKeyViolation(err):
			return nil, auth.ErrNotFound.
				WithMessage("user or blog not found").
				WithMetadata(map[string]any{
					"user_id": userID.String(),
					"blog_id": blogID.String(),
				})
		}
		return nil, auth.StorageError("readinglist.add", err)
	}

	m.logger.Debug("reading list entry added", "entry_id", entry.ID.String(), "user_id", userID.String())
	return entry, nil
}

// Get loads a single entry
func (m *Manager) Get(ctx context.Context, entryID uuid.UUID) (*Entry, error) {
	entry := &Entry{}
	err := m.db.NewSelect().Model(entry).Where("rl.id = ?", entryID).Scan(ctx)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, auth.ErrNotFound.
				WithMessage("reading list entry not found").
				WithMetadata(map[string]any{"id": entryID.String()})
		}
		return nil, auth.StorageError("readinglist.get", err)
	}
	return entry, nil
}

// SetRead updates the read flag. Only the user the entry belongs to may
// change it, regardless of who owns the blog.
func (m *Manager) SetRead(ctx context.Context, entryID, requestingUserID uuid.UUID, read bool) (*Entry, error) {
	entry, err := m.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if err := auth.AuthorizeResource(requestingUserID, entry); err != nil {
		auth.RecordActivity(ctx, m.activitySink, m.logger, auth.ActivityEvent{
			EventType:  auth.ActivityEventOwnershipDenied,
			Actor:      auth.ActorRef{ID: requestingUserID.String(), Type: "user"},
			UserID:     requestingUserID.String(),
			Metadata:   map[string]any{"resource": "reading_list", "resource_id": entryID.String(), "code": auth.ErrForbidden.TextCode},
			OccurredAt: m.now().UTC(),
		})
		return nil, err
	}

	entry.Read = read
	entry.UpdatedAt = m.now().UTC()
	res, err := m.db.NewUpdate().
		Model(entry).
		Column("read", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, auth.StorageError("readinglist.set_read", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, auth.ErrNotFound.
			WithMessage("reading list entry not found").
			WithMetadata(map[string]any{"id": entryID.String()})
	}

	return entry, nil
}

// ListForUser returns the user's entries with their blogs. A nil filter
// returns every entry, otherwise only entries whose read flag matches.
func (m *Manager) ListForUser(ctx context.Context, userID uuid.UUID, read *bool) ([]*Entry, error) {
	entries := make([]*Entry, 0)
	q := m.db.NewSelect().
		Model(&entries).
		Relation("Blog").
		Where("rl.user_id = ?", userID).
		OrderExpr("rl.created_at ASC")
	if read != nil {
		q = q.Where("rl.read = ?", *read)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, auth.StorageError("readinglist.list_for_user", err)
	}
	return entries, nil
}

// Remove deletes an entry owned by requestingUserID
func (m *Manager) Remove(ctx context.Context, entryID, requestingUserID uuid.UUID) error {
	entry, err := m.Get(ctx, entryID)
	if err != nil {
		return err
	}
	if err := auth.AuthorizeResource(requestingUserID, entry); err != nil {
		auth.RecordActivity(ctx, m.activitySink, m.logger, auth.ActivityEvent{
			EventType:  auth.ActivityEventOwnershipDenied,
			Actor:      auth.ActorRef{ID: requestingUserID.String(), Type: "user"},
			UserID:     requestingUserID.String(),
			Metadata:   map[string]any{"resource": "reading_list", "resource_id": entryID.String(), "code": auth.ErrForbidden.TextCode},
			OccurredAt: m.now().UTC(),
		})
		return err
	}
	m.logger.Debug("reading list entry removed", "entry_id", entryID.String(), "user_id", requestingUserID.String())
	if _, err := m.db.NewDelete().Model(entry).WherePK().Exec(ctx); err != nil {
		return auth.StorageError("readinglist.remove", err)
	}
	return nil
}
