package api

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	auth "github.com/goliatone/go-blogauth"
	"github.com/goliatone/go-blogauth/readinglist"
)

type ReadingListController struct {
	readings *readinglist.Manager
}

// AddEntryRequest payload
type AddEntryRequest struct {
	UserID string `json:"userId"`
	BlogID string `json:"blogId"`
}

func (r AddEntryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, is.UUID),
		validation.Field(&r.BlogID, validation.Required, is.UUID),
	)
}

// SetReadRequest payload. Read is a pointer so a missing field can be told
// apart from false.
type SetReadRequest struct {
	Read *bool `json:"read"`
}

func (r SetReadRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Read, validation.NotNil),
	)
}

func (r *ReadingListController) Create(c *fiber.Ctx) error {
	payload := AddEntryRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(err)
	}
	if err := payload.Validate(); err != nil {
		return auth.ValidationError(err)
	}

	entry, err := r.readings.Add(
		c.UserContext(),
		uuid.MustParse(payload.UserID),
		uuid.MustParse(payload.BlogID),
	)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (r *ReadingListController) SetRead(c *fiber.Ctx) error {
	actorID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := resourceID(c, "id", "reading list entry")
	if err != nil {
		return err
	}

	payload := SetReadRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(err)
	}
	if err := payload.Validate(); err != nil {
		return auth.ValidationError(err)
	}

	entry, err := r.readings.SetRead(c.UserContext(), id, actorID, *payload.Read)
	if err != nil {
		return err
	}
	return c.JSON(entry)
}

func (r *ReadingListController) Delete(c *fiber.Ctx) error {
	actorID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := resourceID(c, "id", "reading list entry")
	if err != nil {
		return err
	}

	if err := r.readings.Remove(c.UserContext(), id, actorID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
