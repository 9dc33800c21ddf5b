// Package api exposes the blog service over HTTP with fiber.
package api

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	auth "github.com/goliatone/go-blogauth"
	"github.com/goliatone/go-blogauth/blogs"
	"github.com/goliatone/go-blogauth/readinglist"
)

// Deps holds the collaborators the controllers need
type Deps struct {
	Users        auth.Users
	Registration *auth.RegisterUserHandler
	Auther       *auth.Auther
	Routes       *auth.RouteAuthenticator
	Blogs        *blogs.Service
	ReadingList  *readinglist.Manager
	Logger       auth.Logger

	// Metrics is mounted at MetricsPath when set
	Metrics     http.Handler
	MetricsPath string
}

func (d Deps) validate() {
	switch {
	case d.Users == nil:
		panic("api: missing Users store")
	case d.Registration == nil:
		panic("api: missing RegisterUserHandler")
	case d.Auther == nil:
		panic("api: missing Auther")
	case d.Routes == nil:
		panic("api: missing RouteAuthenticator")
	case d.Blogs == nil:
		panic("api: missing blogs Service")
	case d.ReadingList == nil:
		panic("api: missing reading list Manager")
	}
}

// NewApp returns a fiber app with the JSON error handler installed and
// every route registered
func NewApp(deps Deps, cfg ...fiber.Config) *fiber.App {
	conf := fiber.Config{}
	if len(cfg) > 0 {
		conf = cfg[0]
	}
	conf.ErrorHandler = ErrorHandler(deps.Logger)
	if conf.AppName == "" {
		conf.AppName = "blogauth"
	}

	app := fiber.New(conf)
	app.Use(recover.New())
	Register(app, deps)
	return app
}

// Register mounts the token extractor on every route and registers the
// API. Guarded routes add Protected, logout only needs a verified token.
func Register(app fiber.Router, deps Deps) {
	deps.validate()

	users := &UsersController{users: deps.Users, registration: deps.Registration, readings: deps.ReadingList}
	login := &LoginController{auther: deps.Auther, routes: deps.Routes}
	blogc := &BlogsController{blogs: deps.Blogs}
	readings := &ReadingListController{readings: deps.ReadingList}

	protected := deps.Routes.Protected()

	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(deps.Metrics))
	}

	r := app.Group("/api", deps.Routes.Extractor())

	r.Post("/users", users.Create)
	r.Get("/users", users.List)
	r.Get("/users/:id", users.Show)
	r.Put("/users/:username", protected, users.Rename)

	r.Post("/login", login.Login)
	r.Delete("/login/logout", deps.Routes.RequireToken(), login.Logout)

	r.Get("/blogs", blogc.List)
	r.Get("/blogs/:id", blogc.Show)
	r.Post("/blogs", protected, blogc.Create)
	r.Delete("/blogs/:id", protected, blogc.Delete)
	r.Put("/blogs/:id", blogc.UpdateLikes)

	r.Get("/authors", blogc.Authors)

	r.Post("/readinglists", readings.Create)
	r.Put("/readinglists/:id", protected, readings.SetRead)
	r.Delete("/readinglists/:id", protected, readings.Delete)
}

// resourceID parses an id path parameter. Ids that are not uuids can not
// address any row, so they are reported as not found.
func resourceID(c *fiber.Ctx, name, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, auth.ErrNotFound.
			WithMessage("%s not found", resource).
			WithMetadata(map[string]any{"id": c.Params(name)})
	}
	return id, nil
}

func currentUser(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := auth.CurrentUserID(c)
	if !ok {
		return uuid.Nil, auth.ErrUnauthenticated
	}
	return id, nil
}
