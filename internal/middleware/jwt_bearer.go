package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/civic_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/token"
)

const localClaims = "claims"

type AccessVerifier interface {
	VerifyAccessToken(tok string) (token.Claims, error)
}

var errUnauthenticated = apperr.New(apperr.CodeUnauthenticated, "Authentication required")

// JWTFromHeader verifies the "Authorization: Bearer <token>" access token and
// stores its claims for AttachJWTLocals.
func JWTFromHeader(tokens AccessVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := bearerToken(c.Get(fiber.HeaderAuthorization))
		if tokenStr == "" {
			return errUnauthenticated
		}

		claims, err := tokens.VerifyAccessToken(tokenStr)
		if err != nil {
			return errUnauthenticated
		}

		c.Locals(localClaims, claims)
		return c.Next()
	}
}

func bearerToken(header string) string {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}
