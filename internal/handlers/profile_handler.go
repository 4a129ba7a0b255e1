package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/civic_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/profile"
)

type ProfileHandler struct {
	Profiles *profile.ProfileService
}

func NewProfileHandler(svc *profile.ProfileService) *ProfileHandler {
	return &ProfileHandler{Profiles: svc}
}

func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	p, err := h.Profiles.Get(c.UserContext(), uid)
	if err != nil {
		return err
	}
	return ok(c, "", p)
}

func (h *ProfileHandler) ByUserID(c *fiber.Ctx) error {
	p, err := h.Profiles.GetByRawID(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return ok(c, "", p)
}

func (h *ProfileHandler) UpdateMe(c *fiber.Ctx) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	f, err := readForm(c)
	if err != nil {
		return err
	}

	u, err := h.Profiles.UpdateUser(c.UserContext(), uid, f.values)
	if err != nil {
		return err
	}
	return ok(c, "Profile updated", fiber.Map{"user": u})
}

func (h *ProfileHandler) UpdatePro(c *fiber.Ctx) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	f, err := readForm(c)
	if err != nil {
		return err
	}

	p, err := h.Profiles.UpdatePro(c.UserContext(), uid, f.values)
	if err != nil {
		return err
	}
	return ok(c, "Pro profile updated", fiber.Map{"proUser": p})
}
