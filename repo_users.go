package auth

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-blogauth/database"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the user store. Reads come in explicit projections: the
// public ones never select password_hash, and GetWithSecret is the only
// read that does.
type Users interface {
	Register(ctx context.Context, user *User) (*PublicUser, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*PublicUser, error)

	GetPublic(ctx context.Context, id uuid.UUID) (*PublicUser, error)
	GetPublicByUsername(ctx context.Context, username string) (*PublicUser, error)
	GetWithSecret(ctx context.Context, username string) (*User, error)
	GetState(ctx context.Context, id uuid.UUID) (*UserState, error)
	ListPublic(ctx context.Context) ([]*PublicUser, error)

	Rename(ctx context.Context, id uuid.UUID, username string) (*PublicUser, error)
	SetDisabled(ctx context.Context, id uuid.UUID, disabled bool) (*User, error)
	SetDisabledTx(ctx context.Context, tx bun.IDB, id uuid.UUID, disabled bool) (*User, error)
}

type users struct {
	db  bun.IDB
	now func() time.Time
}

var _ Users = (*users)(nil)
var _ UserStateFinder = (*users)(nil)

// NewUsersRepository returns a bun backed Users store
func NewUsersRepository(db bun.IDB) Users {
	return &users{db: db, now: time.Now}
}

func (a *users) Register(ctx context.Context, user *User) (*PublicUser, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*PublicUser, error) {
	if user == nil {
		return nil, ErrValidation.WithMessage("user is required")
	}
	a.prepareUserDefaults(user)

	if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUniqueConstraint.
				WithMessage("username must be unique").
				WithMetadata(map[string]any{"field": "username"})
		}
		return nil, StorageError("users.register", err)
	}
	return user.Public(), nil
}

func (a *users) prepareUserDefaults(user *User) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Username = strings.TrimSpace(user.Username)
	user.Name = strings.TrimSpace(user.Name)
	now := a.now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
}

func (a *users) GetPublic(ctx context.Context, id uuid.UUID) (*PublicUser, error) {
	record := &PublicUser{}
	err := a.db.NewSelect().Model(record).Where("usr.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, userReadError("users.get_public", err, "id", id.String())
	}
	return record, nil
}

func (a *users) GetPublicByUsername(ctx context.Context, username string) (*PublicUser, error) {
	record := &PublicUser{}
	err := a.db.NewSelect().Model(record).Where("usr.username = ?", strings.TrimSpace(username)).Scan(ctx)
	if err != nil {
		return nil, userReadError("users.get_public_by_username", err, "username", username)
	}
	return record, nil
}

func (a *users) GetWithSecret(ctx context.Context, username string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().Model(record).Where("usr.username = ?", strings.TrimSpace(username)).Scan(ctx)
	if err != nil {
		return nil, userReadError("users.get_with_secret", err, "username", username)
	}
	return record, nil
}

func (a *users) GetState(ctx context.Context, id uuid.UUID) (*UserState, error) {
	record := &UserState{}
	err := a.db.NewSelect().Model(record).Where("usr.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, userReadError("users.get_state", err, "id", id.String())
	}
	return record, nil
}

func (a *users) ListPublic(ctx context.Context) ([]*PublicUser, error) {
	records := make([]*PublicUser, 0)
	err := a.db.NewSelect().Model(&records).OrderExpr("usr.created_at ASC").Scan(ctx)
	if err != nil {
		return nil, StorageError("users.list_public", err)
	}
	return records, nil
}

func (a *users) Rename(ctx context.Context, id uuid.UUID, username string) (*PublicUser, error) {
	res, err := a.db.NewUpdate().
		Model((*PublicUser)(nil)).
		Set("username = ?", strings.TrimSpace(username)).
		Set("updated_at = ?", a.now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUniqueConstraint.
				WithMessage("username must be unique").
				WithMetadata(map[string]any{"field": "username"})
		}
		return nil, StorageError("users.rename", err)
	}
	if err := expectAffected(res, "users.rename", "id", id.String()); err != nil {
		return nil, err
	}
	return a.GetPublic(ctx, id)
}

func (a *users) SetDisabled(ctx context.Context, id uuid.UUID, disabled bool) (*User, error) {
	return a.SetDisabledTx(ctx, a.db, id, disabled)
}

func (a *users) SetDisabledTx(ctx context.Context, tx bun.IDB, id uuid.UUID, disabled bool) (*User, error) {
	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("disabled = ?", disabled).
		Set("updated_at = ?", a.now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, StorageError("users.set_disabled", err)
	}
	if err := expectAffected(res, "users.set_disabled", "id", id.String()); err != nil {
		return nil, err
	}

	record := &User{}
	if err := tx.NewSelect().Model(record).Where("usr.id = ?", id).Scan(ctx); err != nil {
		return nil, userReadError("users.set_disabled", err, "id", id.String())
	}
	return record, nil
}

func userReadError(op string, err error, key, value string) error {
	if database.IsNotFound(err) {
		return ErrNotFound.
			WithMessage("user not found").
			WithMetadata(map[string]any{key: value})
	}
	return StorageError(op, err)
}
