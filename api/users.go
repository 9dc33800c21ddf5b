package api

import (
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	auth "github.com/goliatone/go-blogauth"
	"github.com/goliatone/go-blogauth/readinglist"
)

type UsersController struct {
	users        auth.Users
	registration *auth.RegisterUserHandler
	readings     *readinglist.Manager
}

// UserWithReadings is a public user with their reading list
type UserWithReadings struct {
	*auth.PublicUser
	Readings []*readinglist.Entry `json:"readings"`
}

// RenameRequest payload
type RenameRequest struct {
	Username string `json:"username"`
}

func (r RenameRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, auth.EmailFormat),
	)
}

func (u *UsersController) Create(c *fiber.Ctx) error {
	payload := auth.RegisterUserMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(err)
	}

	user, err := u.registration.Execute(c.UserContext(), payload)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (u *UsersController) List(c *fiber.Ctx) error {
	records, err := u.users.ListPublic(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(records)
}

// Show returns the user and their readings. The optional read query
// parameter filters readings on their read flag.
func (u *UsersController) Show(c *fiber.Ctx) error {
	id, err := resourceID(c, "id", "user")
	if err != nil {
		return err
	}

	var filter *bool
	if raw := c.Query("read"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return auth.ErrValidation.
				WithMessage("read must be true or false").
				WithMetadata(map[string]any{"read": raw})
		}
		filter = &v
	}

	user, err := u.users.GetPublic(c.UserContext(), id)
	if err != nil {
		return err
	}

	entries, err := u.readings.ListForUser(c.UserContext(), id, filter)
	if err != nil {
		return err
	}

	return c.JSON(UserWithReadings{PublicUser: user, Readings: entries})
}

// Rename changes the username. Only the user may rename themselves.
func (u *UsersController) Rename(c *fiber.Ctx) error {
	actorID, err := currentUser(c)
	if err != nil {
		return err
	}

	user, err := u.users.GetPublicByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}

	if err := auth.AuthorizeOwner(actorID, user.ID); err != nil {
		return err
	}

	payload := RenameRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(err)
	}
	payload.Username = strings.TrimSpace(payload.Username)
	if err := payload.Validate(); err != nil {
		return auth.ValidationError(err)
	}

	renamed, err := u.users.Rename(c.UserContext(), user.ID, payload.Username)
	if err != nil {
		return err
	}
	return c.JSON(renamed)
}
