package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Health is unauthenticated and does not touch the database.
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
