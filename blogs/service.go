package blogs

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	auth "github.com/goliatone/go-blogauth"
)

// FirstBlogYear is the earliest accepted publication year
const FirstBlogYear = 1991

// CreateBlogMessage is the payload for adding a blog
type CreateBlogMessage struct {
	Author *string `json:"author"`
	URL    string  `json:"url"`
	Title  string  `json:"title"`
	Likes  *int    `json:"likes"`
	Year   *int    `json:"year"`
}

func (m CreateBlogMessage) Validate(now time.Time) error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.URL, validation.Required),
		validation.Field(&m.Title, validation.Required),
		validation.Field(&m.Likes, validation.Min(0)),
		validation.Field(&m.Year, validation.Min(FirstBlogYear), validation.Max(now.Year())),
	)
}

// UpdateLikesMessage is the payload for updating the like count
type UpdateLikesMessage struct {
	Likes *int `json:"likes"`
}

func (m UpdateLikesMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Likes, validation.NotNil, validation.Min(0)),
	)
}

// Service applies ownership rules on top of the Blogs store
type Service struct {
	repo         Blogs
	logger       auth.Logger
	activitySink auth.ActivitySink
	now          func() time.Time
}

// NewService returns a Service over repo
func NewService(repo Blogs, logger auth.Logger) *Service {
	if logger == nil {
		logger = auth.NewZapLogger(nil)
	}
	return &Service{
		repo:         repo,
		logger:       logger,
		activitySink: auth.ActivitySinkFunc(nil),
		now:          time.Now,
	}
}

// WithActivitySink publishes ownership denials
func (s *Service) WithActivitySink(sink auth.ActivitySink) *Service {
	if sink != nil {
		s.activitySink = sink
	}
	return s
}

func (s *Service) List(ctx context.Context) ([]*Blog, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Blog, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Authors(ctx context.Context) ([]*AuthorStats, error) {
	return s.repo.Authors(ctx)
}

// Create stores a blog owned by ownerID
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, msg CreateBlogMessage) (*Blog, error) {
	msg.URL = strings.TrimSpace(msg.URL)
	msg.Title = strings.TrimSpace(msg.Title)
	if err := msg.Validate(s.now()); err != nil {
		return nil, auth.ValidationError(err)
	}

	blog := &Blog{
		Author: msg.Author,
		URL:    msg.URL,
		Title:  msg.Title,
		Year:   msg.Year,
		UserID: ownerID,
	}
	if msg.Likes != nil {
		blog.Likes = *msg.Likes
	}

	created, err := s.repo.Create(ctx, blog)
	if err != nil {
		return nil, err
	}
	s.logger.Info("blog created", "blog_id", created.ID.String(), "user_id", ownerID.String())
	return created, nil
}

// Delete removes the blog when actorID owns it
func (s *Service) Delete(ctx context.Context, actorID, blogID uuid.UUID) error {
	blog, err := s.repo.Get(ctx, blogID)
	if err != nil {
		return err
	}

	if err := auth.AuthorizeResource(actorID, blog); err != nil {
		s.logger.Info("blog delete denied", "blog_id", blogID.String(), "actor_id", actorID.String())
		auth.RecordActivity(ctx, s.activitySink, s.logger, auth.ActivityEvent{
			EventType:  auth.ActivityEventOwnershipDenied,
			Actor:      auth.ActorRef{ID: actorID.String(), Type: "user"},
			UserID:     actorID.String(),
			Metadata:   map[string]any{"resource": "blog", "resource_id": blogID.String(), "code": auth.ErrForbidden.TextCode},
			OccurredAt: s.now().UTC(),
		})
		return err
	}

	return s.repo.Delete(ctx, blogID)
}

// UpdateLikes sets the like count. Liking is public, there is no owner
// check here.
func (s *Service) UpdateLikes(ctx context.Context, blogID uuid.UUID, msg UpdateLikesMessage) (*Blog, error) {
	if err := msg.Validate(); err != nil {
		return nil, auth.ValidationError(err)
	}
	return s.repo.SetLikes(ctx, blogID, *msg.Likes)
}
