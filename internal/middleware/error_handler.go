package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/civic_be/internal/apperr"
)

// ErrorHandler renders every error returned by a handler as
// {"success": false, "code", "message", "details"?}.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	return func(c *fiber.Ctx, err error) error {
		e, status := classify(err)

		if status >= fiber.StatusInternalServerError {
			log.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"code", e.Code,
				"err", err,
			)
		}

		body := fiber.Map{
			"success": false,
			"code":    e.Code,
			"message": e.Message,
		}
		if len(e.Details) > 0 {
			body["details"] = e.Details
		}
		return c.Status(status).JSON(body)
	}
}

func classify(err error) (*apperr.Error, int) {
	var e *apperr.Error
	var fe *fiber.Error
	if errors.As(err, &fe) {
		e = fromFiber(fe)
	} else {
		e = apperr.As(err)
	}
	return e, e.Code.HTTPStatus()
}

// fromFiber maps errors raised by fiber itself (unknown route, body too large).
// The status always follows the resulting code.
func fromFiber(fe *fiber.Error) *apperr.Error {
	switch {
	case fe.Code == fiber.StatusNotFound:
		return apperr.New(apperr.CodeNotFound, "Route not found")
	case fe.Code == fiber.StatusUnauthorized:
		return apperr.New(apperr.CodeUnauthenticated, "Authentication required")
	case fe.Code == fiber.StatusForbidden:
		return apperr.New(apperr.CodeForbidden, "Forbidden")
	case fe.Code == fiber.StatusMethodNotAllowed:
		return apperr.New(apperr.CodeMethodNotAllowed, "Method not allowed")
	case fe.Code == fiber.StatusRequestEntityTooLarge:
		return apperr.New(apperr.CodePayloadTooLarge, "Request body too large")
	case fe.Code == fiber.StatusUpgradeRequired:
		return apperr.New(apperr.CodeUpgradeRequired, "WebSocket upgrade required")
	case fe.Code >= fiber.StatusInternalServerError:
		return apperr.Internal(fe)
	default:
		return apperr.New(apperr.CodeValidation, fe.Message)
	}
}
