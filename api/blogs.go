package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-blogauth/blogs"
)

type BlogsController struct {
	blogs *blogs.Service
}

func (b *BlogsController) List(c *fiber.Ctx) error {
	records, err := b.blogs.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(records)
}

func (b *BlogsController) Show(c *fiber.Ctx) error {
	id, err := resourceID(c, "id", "blog")
	if err != nil {
		return err
	}
	record, err := b.blogs.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(record)
}

func (b *BlogsController) Create(c *fiber.Ctx) error {
	ownerID, err := currentUser(c)
	if err != nil {
		return err
	}

	payload := blogs.CreateBlogMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(err)
	}

	record, err := b.blogs.Create(c.UserContext(), ownerID, payload)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (b *BlogsController) Delete(c *fiber.Ctx) error {
	actorID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := resourceID(c, "id", "blog")
	if err != nil {
		return err
	}

	if err := b.blogs.Delete(c.UserContext(), actorID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateLikes is public, any caller may set the like count
func (b *BlogsController) UpdateLikes(c *fiber.Ctx) error {
	id, err := resourceID(c, "id", "blog")
	if err != nil {
		return err
	}

	payload := blogs.UpdateLikesMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(err)
	}

	record, err := b.blogs.UpdateLikes(c.UserContext(), id, payload)
	if err != nil {
		return err
	}
	return c.JSON(record)
}

func (b *BlogsController) Authors(c *fiber.Ctx) error {
	stats, err := b.blogs.Authors(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
