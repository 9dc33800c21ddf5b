package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-blogauth/database"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type sessions struct {
	db  bun.IDB
	now func() time.Time
}

var _ SessionRegistry = (*sessions)(nil)

// NewSessionsRepository returns a SessionRegistry backed by the sessions table
func NewSessionsRepository(db bun.IDB) SessionRegistry {
	return &sessions{db: db, now: time.Now}
}

func (s *sessions) Create(ctx context.Context, userID uuid.UUID, token string) (uuid.UUID, error) {
	now := s.now().UTC()
	record := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     token,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return uuid.Nil, ErrUniqueConstraint.WithMessage("session token already registered")
		case database.IsForeignKeyViolation(err):
			return uuid.Nil, ErrNotFound.
				WithMessage("user not found").
				WithMetadata(map[string]any{"user_id": userID.String()})
		}
		return uuid.Nil, StorageError("sessions.create", err)
	}
	return record.ID, nil
}

func (s *sessions) FindByToken(ctx context.Context, token string) (*Session, error) {
	record := &Session{}
	err := s.db.NewSelect().Model(record).Where("ses.token = ?", token).Scan(ctx)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, StorageError("sessions.find_by_token", err)
	}
	return record, nil
}

func (s *sessions) DeleteByToken(ctx context.Context, token string) (int64, error) {
	res, err := s.db.NewDelete().Model((*Session)(nil)).Where("token = ?", token).Exec(ctx)
	if err != nil {
		return 0, StorageError("sessions.delete_by_token", err)
	}
	return rowsAffected(res, "sessions.delete_by_token")
}

func (s *sessions) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.NewDelete().Model((*Session)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return StorageError("sessions.delete_by_id", err)
	}
	return nil
}

func (s *sessions) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := s.db.NewDelete().Model((*Session)(nil)).Where("user_id = ?", userID).Exec(ctx)
	if err != nil {
		return 0, StorageError("sessions.delete_by_user", err)
	}
	return rowsAffected(res, "sessions.delete_by_user")
}

// CountByUser returns the number of live sessions for userID
func (s *sessions) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.db.NewSelect().Model((*Session)(nil)).Where("ses.user_id = ?", userID).Count(ctx)
	if err != nil {
		return 0, StorageError("sessions.count_by_user", err)
	}
	return n, nil
}
