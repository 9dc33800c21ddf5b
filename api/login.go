package api

import (
	"github.com/gofiber/fiber/v2"

	auth "github.com/goliatone/go-blogauth"
)

type LoginController struct {
	auther *auth.Auther
	routes *auth.RouteAuthenticator
}

// LoginRequest payload
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (l *LoginController) Login(c *fiber.Ctx) error {
	payload := LoginRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(err)
	}

	res, err := l.auther.Login(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

// Logout deletes the session of the presented token
func (l *LoginController) Logout(c *fiber.Ctx) error {
	claims, token, ok := l.routes.Claims(c)
	if !ok {
		return auth.ErrUnauthenticated
	}

	if err := l.auther.Logout(c.UserContext(), claims, token); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
