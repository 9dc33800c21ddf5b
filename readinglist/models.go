package readinglist

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-blogauth/blogs"
)

// Entry links a user to a blog they want to read. It carries its own
// read flag and is owned by UserID, not by the blog's owner.
type Entry struct {
	bun.BaseModel `bun:"table:reading_lists,alias:rl"`
	ID            uuid.UUID   `bun:"id,pk,type:uuid" json:"id"`
	UserID        uuid.UUID   `bun:"user_id,notnull,type:uuid" json:"user_id"`
	BlogID        uuid.UUID   `bun:"blog_id,notnull,type:uuid" json:"blog_id"`
	Read          bool        `bun:"read,notnull" json:"read"`
	Blog          *blogs.Blog `bun:"rel:belongs-to,join:blog_id=id" json:"blog,omitempty"`
	CreatedAt     time.Time   `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt     time.Time   `bun:"updated_at,notnull" json:"updated_at"`
}

// OwnerID implements auth.Owned
func (e *Entry) OwnerID() uuid.UUID {
	return e.UserID
}
