package api

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"

	auth "github.com/goliatone/go-blogauth"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler maps errors returned by handlers and middleware onto a
// status code and an ErrorResponse. Failures that are not *auth.Error are
// answered with an opaque 500 and logged with their cause.
func ErrorHandler(logger auth.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = auth.NewZapLogger(nil)
	}

	return func(c *fiber.Ctx, err error) error {
		// *auth.Error wins over a fiber error it wraps, e.g. badRequest
		// around BodyParser's 422
		var richErr *auth.Error
		if !errors.As(err, &richErr) {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(ErrorResponse{
					Error: fe.Message,
					Code:  textCodeForStatus(fe.Code),
				})
			}
			richErr = auth.AsError(err)
		}
		if richErr.Code >= http.StatusInternalServerError {
			logger.Error(
				"request failed",
				"method", c.Method(),
				"path", c.OriginalURL(),
				"code", richErr.TextCode,
				"error", err,
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
			return c.Status(richErr.Code).JSON(ErrorResponse{
				Error: richErr.Message,
				Code:  richErr.TextCode,
			})
		}

		logger.Debug(
			"request rejected",
			"method", c.Method(),
			"path", c.OriginalURL(),
			"code", richErr.TextCode,
			"error", richErr.Message,
		)

		res := ErrorResponse{
			Error: richErr.Message,
			Code:  richErr.TextCode,
		}
		if richErr.Category == auth.CategoryValidation && len(richErr.Metadata) > 0 {
			res.Details = richErr.Metadata
		}
		return c.Status(richErr.Code).JSON(res)
	}
}

func textCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return auth.ErrValidation.TextCode
	case http.StatusUnauthorized:
		return auth.ErrUnauthenticated.TextCode
	case http.StatusForbidden:
		return auth.ErrForbidden.TextCode
	case http.StatusNotFound:
		return auth.ErrNotFound.TextCode
	case http.StatusConflict:
		return auth.ErrUniqueConstraint.TextCode
	}
	if status >= http.StatusInternalServerError {
		return auth.ErrInternal.TextCode
	}
	return http.StatusText(status)
}

// badRequest reports an undecodable body. Type mismatches such as a
// string where a boolean is expected land here.
func badRequest(err error) error {
	return auth.ErrValidation.WithMessage("malformed request body").Wrap(err)
}
