package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/civic_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/auth"
)

type AuthHandler struct {
	Auth *auth.AuthService
}

func NewAuthHandler(svc *auth.AuthService) *AuthHandler {
	return &AuthHandler{Auth: svc}
}

// Register accepts JSON or multipart (with an optional "profilePic" file).
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	f, err := readForm(c)
	if err != nil {
		return err
	}

	sess, err := h.Auth.Register(c.UserContext(), auth.RegisterInput{
		Name:        f.String("name"),
		Email:       f.String("email"),
		Password:    f.String("password"),
		PhoneNumber: f.String("phoneNumber"),
		ProfilePic:  f.File("profilePic"),
	})
	if err != nil {
		return err
	}
	return created(c, "User registered successfully", sess)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	f, err := readForm(c)
	if err != nil {
		return err
	}

	sess, err := h.Auth.Login(c.UserContext(), f.String("email"), f.String("password"))
	if err != nil {
		return err
	}
	return ok(c, "Login successful", sess)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	f, err := readForm(c)
	if err != nil {
		return err
	}

	access, err := h.Auth.Refresh(c.UserContext(), f.String("refreshToken"))
	if err != nil {
		return err
	}
	return ok(c, "", fiber.Map{"accessToken": access})
}

// ProRegister accepts up to three "certificates" files.
func (h *AuthHandler) ProRegister(c *fiber.Ctx) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	f, err := readForm(c)
	if err != nil {
		return err
	}

	p, err := h.Auth.ProRegister(c.UserContext(), uid, auth.ProRegisterInput{
		Occupation:   f.String("occupation"),
		Skill:        f.Strings("skill"),
		Degree:       f.String("degree"),
		Description:  f.String("description"),
		Certificates: f.Files("certificates"),
	})
	if err != nil {
		return err
	}
	return created(c, "Pro user registered successfully", fiber.Map{"proUser": p})
}
