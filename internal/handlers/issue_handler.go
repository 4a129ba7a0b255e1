package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/civic_be/internal/middleware"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/issue"
)

type IssueHandler struct {
	Issues *issue.IssueService
}

func NewIssueHandler(svc *issue.IssueService) *IssueHandler {
	return &IssueHandler{Issues: svc}
}

// ListNearby handles GET /issues?latitude=&longitude=&radius= (radius in km).
func (h *IssueHandler) ListNearby(c *fiber.Ctx) error {
	q, err := issue.ParseNearbyQuery(c.Query("latitude"), c.Query("longitude"), c.Query("radius"))
	if err != nil {
		return err
	}

	list, err := h.Issues.ListNearby(c.UserContext(), q)
	if err != nil {
		return err
	}
	return ok(c, "", list)
}

// Create accepts JSON or multipart with up to five "images" files.
func (h *IssueHandler) Create(c *fiber.Ctx) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	f, err := readForm(c)
	if err != nil {
		return err
	}

	v, err := h.Issues.Create(c.UserContext(), uid, issue.CreateInput{
		Title:       f.String("title"),
		Description: f.String("description"),
		Latitude:    f.String("latitude"),
		Longitude:   f.String("longitude"),
		Category:    f.String("category"),
		Budget:      f.String("budget"),
		Images:      f.Files("images"),
	})
	if err != nil {
		return err
	}
	return created(c, "Issue reported successfully", v)
}

func (h *IssueHandler) Detail(c *fiber.Ctx) error {
	v, err := h.Issues.Detail(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, "", v)
}

func (h *IssueHandler) Request(c *fiber.Ctx) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	r, err := h.Issues.Request(c.UserContext(), uid, c.Params("id"))
	if err != nil {
		return err
	}
	return created(c, "Issue requested successfully", r)
}

func (h *IssueHandler) MyIssues(c *fiber.Ctx) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	list, err := h.Issues.MyIssues(c.UserContext(), uid)
	if err != nil {
		return err
	}
	return ok(c, "", list)
}

func (h *IssueHandler) RequestsOnMyIssues(c *fiber.Ctx) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	list, err := h.Issues.RequestsOnMyIssues(c.UserContext(), uid)
	if err != nil {
		return err
	}
	return ok(c, "", list)
}

func (h *IssueHandler) RequestsOnIssue(c *fiber.Ctx) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	list, err := h.Issues.RequestsOnIssue(c.UserContext(), uid, c.Params("issueId"))
	if err != nil {
		return err
	}
	return ok(c, "", list)
}

func (h *IssueHandler) UpdateStatus(c *fiber.Ctx) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	f, err := readForm(c)
	if err != nil {
		return err
	}

	res, err := h.Issues.UpdateStatus(c.UserContext(), uid, c.Params("id"), f.String("status"))
	if err != nil {
		return err
	}
	return ok(c, "Issue status updated", res)
}
