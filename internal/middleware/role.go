package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/civic_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/civic_be/internal/models"
	"github.com/Windi-Fikriyansyah/civic_be/internal/repository"
)

type UserLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RequirePro lets only users with a pro profile through. The flag is read
// from the store, not the token, so it applies as soon as it flips.
func RequirePro(users UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := UserID(c)
		if err != nil {
			return err
		}

		u, err := users.GetUserByID(c.UserContext(), uid)
		if errors.Is(err, repository.ErrNotFound) {
			return errUnauthenticated
		}
		if err != nil {
			return apperr.Internal(err)
		}
		if !u.IsPro {
			return apperr.New(apperr.CodeForbidden, "Pro users only")
		}

		return c.Next()
	}
}
