package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/civic_be/internal/services/token"
)

const (
	LocalUserID = "userId"
	LocalEmail  = "email"
)

// AttachJWTLocals exposes the verified claims as "userId" (uuid.UUID) and "email".
func AttachJWTLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(localClaims).(token.Claims)
		if !ok {
			return errUnauthenticated
		}

		uid, err := uuid.Parse(strings.TrimSpace(claims.UserID))
		if err != nil {
			return errUnauthenticated
		}

		c.Locals(LocalUserID, uid)
		c.Locals(LocalEmail, claims.Email)

		return c.Next()
	}
}

// UserID returns the authenticated caller. It is only valid behind AttachJWTLocals.
func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	uid, ok := c.Locals(LocalUserID).(uuid.UUID)
	if !ok {
		return uuid.Nil, errUnauthenticated
	}
	return uid, nil
}
