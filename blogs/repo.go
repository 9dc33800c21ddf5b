package blogs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-blogauth"
	"github.com/goliatone/go-blogauth/database"
)

// Blogs is the blog store
type Blogs interface {
	List(ctx context.Context) ([]*Blog, error)
	Get(ctx context.Context, id uuid.UUID) (*Blog, error)
	Create(ctx context.Context, blog *Blog) (*Blog, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetLikes(ctx context.Context, id uuid.UUID, likes int) (*Blog, error)
	Authors(ctx context.Context) ([]*AuthorStats, error)
}

type blogs struct {
	db  bun.IDB
	now func() time.Time
}

var _ Blogs = (*blogs)(nil)

// NewRepository returns a bun backed Blogs store
func NewRepository(db bun.IDB) Blogs {
	return &blogs{db: db, now: time.Now}
}

func (r *blogs) List(ctx context.Context) ([]*Blog, error) {
	records := make([]*Blog, 0)
	err := r.db.NewSelect().
		Model(&records).
		Relation("User").
		OrderExpr("b.likes DESC, b.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, auth.StorageError("blogs.list", err)
	}
	return records, nil
}

func (r *blogs) Get(ctx context.Context, id uuid.UUID) (*Blog, error) {
	record := &Blog{}
	err := r.db.NewSelect().Model(record).Relation("User").Where("b.id = ?", id).Scan(ctx)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, auth.ErrNotFound.
				WithMessage("blog not found").
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, auth.StorageError("blogs.get", err)
	}
	return record, nil
}

func (r *blogs) Create(ctx context.Context, blog *Blog) (*Blog, error) {
	if blog.ID == uuid.Nil {
		blog.ID = uuid.New()
	}
	now := r.now().UTC()
	blog.CreatedAt = now
	blog.UpdatedAt = now

	if _, err := r.db.NewInsert().Model(blog).Exec(ctx); err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, auth.ErrNotFound.
				WithMessage("user not found").
				WithMetadata(map[string]any{"user_id": blog.UserID.String()})
		}
		return nil, auth.StorageError("blogs.create", err)
	}
	return r.Get(ctx, blog.ID)
}

func (r *blogs) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().Model((*Blog)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return auth.StorageError("blogs.delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return auth.StorageError("blogs.delete", err)
	}
	if n == 0 {
		return auth.ErrNotFound.
			WithMessage("blog not found").
			WithMetadata(map[string]any{"id": id.String()})
	}
	return nil
}

func (r *blogs) SetLikes(ctx context.Context, id uuid.UUID, likes int) (*Blog, error) {
	res, err := r.db.NewUpdate().
		Model((*Blog)(nil)).
		Set("likes = ?", likes).
		Set("updated_at = ?", r.now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, auth.StorageError("blogs.set_likes", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, auth.StorageError("blogs.set_likes", err)
	}
	if n == 0 {
		return nil, auth.ErrNotFound.
			WithMessage("blog not found").
			WithMetadata(map[string]any{"id": id.String()})
	}
	return r.Get(ctx, id)
}

// Authors groups blogs by author with the number of articles and the sum
// of their likes, most liked first
func (r *blogs) Authors(ctx context.Context) ([]*AuthorStats, error) {
	stats := make([]*AuthorStats, 0)
	err := r.db.NewSelect().
		Model((*Blog)(nil)).
		ColumnExpr("b.author AS author").
		ColumnExpr("COUNT(b.id) AS articles").
		ColumnExpr("COALESCE(SUM(b.likes), 0) AS likes").
		GroupExpr("b.author").
		OrderExpr("likes DESC").
		Scan(ctx, &stats)
	if err != nil {
		return nil, auth.StorageError("blogs.authors", err)
	}
	return stats, nil
}
