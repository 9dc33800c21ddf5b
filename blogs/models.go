package blogs

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-blogauth"
)

// Blog is a bookmarked article owned by the user that added it
type Blog struct {
	bun.BaseModel `bun:"table:blogs,alias:b"`
	ID            uuid.UUID        `bun:"id,pk,type:uuid" json:"id"`
	Author        *string          `bun:"author" json:"author"`
	URL           string           `bun:"url,notnull" json:"url"`
	Title         string           `bun:"title,notnull" json:"title"`
	Likes         int              `bun:"likes,notnull" json:"likes"`
	Year          *int             `bun:"year" json:"year,omitempty"`
	UserID        uuid.UUID        `bun:"user_id,notnull,type:uuid" json:"user_id"`
	User          *auth.PublicUser `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	CreatedAt     time.Time        `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt     time.Time        `bun:"updated_at,notnull" json:"updated_at"`
}

// OwnerID implements auth.Owned
func (b *Blog) OwnerID() uuid.UUID {
	return b.UserID
}

// AuthorStats aggregates blogs by author
type AuthorStats struct {
	Author   *string `bun:"author" json:"author"`
	Articles int     `bun:"articles" json:"articles"`
	Likes    int     `bun:"likes" json:"likes"`
}
