package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/Windi-Fikriyansyah/civic_be/internal/middleware"
)

type Deps struct {
	Auth     *AuthHandler
	Google   *GoogleOAuthHandler // nil when Google sign-in is not configured
	Issues   *IssueHandler
	Profiles *ProfileHandler
	Realtime *RealtimeHandler // nil disables /ws/issues

	Tokens middleware.AccessVerifier
	Users  middleware.UserLookup
}

// SetupRoutes mounts the API at the root and again under /api.
func SetupRoutes(app *fiber.App, d Deps) {
	mount(app, d)
	mount(app.Group("/api"), d)

	if d.Realtime != nil {
		// websocket endpoint authenticates via ?token=
		app.Get("/ws/issues", d.Realtime.Upgrade, websocket.New(d.Realtime.Stream))
	}
}

func mount(r fiber.Router, d Deps) {
	protect := func(h ...fiber.Handler) []fiber.Handler {
		return append([]fiber.Handler{
			middleware.JWTFromHeader(d.Tokens),
			middleware.AttachJWTLocals(),
		}, h...)
	}

	r.Get("/health", Health)

	// auth
	r.Post("/auth/register", d.Auth.Register)
	r.Post("/auth/login", d.Auth.Login)
	r.Post("/auth/refresh", d.Auth.Refresh)
	r.Post("/auth/pro-register", protect(d.Auth.ProRegister)...)
	if d.Google != nil {
		r.Get("/auth/google/start", d.Google.GoogleStart)
		r.Get("/auth/google/callback", d.Google.GoogleCallback)
	}

	// issues; the /my routes go first so they are never read as an :id
	r.Get("/issues", d.Issues.ListNearby)
	r.Post("/issues", protect(d.Issues.Create)...)
	r.Get("/issues/my/issues", protect(d.Issues.MyIssues)...)
	r.Get("/issues/my/requests", protect(d.Issues.RequestsOnMyIssues)...)
	r.Get("/issues/my/requests/:issueId", protect(d.Issues.RequestsOnIssue)...)
	r.Get("/issues/:id", d.Issues.Detail)
	r.Post("/issues/:id/request", protect(d.Issues.Request)...)
	r.Patch("/issues/:id/status", protect(d.Issues.UpdateStatus)...)

	// profile
	r.Get("/profile/me", protect(d.Profiles.Me)...)
	r.Put("/profile/me", protect(d.Profiles.UpdateMe)...)
	r.Put("/profile/pro", protect(middleware.RequirePro(d.Users), d.Profiles.UpdatePro)...)
	r.Get("/profile/:userId", d.Profiles.ByUserID)
}
