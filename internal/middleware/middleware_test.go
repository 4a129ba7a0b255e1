package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/civic_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/civic_be/internal/models"
	"github.com/Windi-Fikriyansyah/civic_be/internal/repository/mock"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/token"
)

type envelope struct {
	Success bool           `json:"success"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))})
}

func newTokens(t *testing.T) *token.TokenService {
	t.Helper()
	ts, err := token.NewTokenService("access-secret-0123456789", "refresh-secret-0123456789", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func do(t *testing.T, app *fiber.App, path, authz string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set(fiber.HeaderAuthorization, authz)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func TestJWTFromHeader(t *testing.T) {
	tokens := newTokens(t)
	uid := uuid.New()

	app := newApp()
	app.Get("/me", JWTFromHeader(tokens), AttachJWTLocals(), func(c *fiber.Ctx) error {
		id, err := UserID(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "message": id.String() + "|" + c.Locals(LocalEmail).(string)})
	})

	access, _ := tokens.IssueAccessToken(token.Claims{UserID: uid.String(), Email: "a@b.c"})
	refresh, _ := tokens.IssueRefreshToken(token.Claims{UserID: uid.String(), Email: "a@b.c"})

	status, env := do(t, app, "/me", "Bearer "+access)
	if status != fiber.StatusOK || env.Message != uid.String()+"|a@b.c" {
		t.Fatalf("expected 200 with locals, got %d %+v", status, env)
	}

	for name, authz := range map[string]string{
		"missing":       "",
		"wrong scheme":  "Basic " + access,
		"garbage":       "Bearer not-a-token",
		"refresh token": "Bearer " + refresh,
	} {
		status, env := do(t, app, "/me", authz)
		if status != fiber.StatusUnauthorized || env.Code != string(apperr.CodeUnauthenticated) || env.Success {
			t.Errorf("%s: expected 401 UNAUTHENTICATED, got %d %+v", name, status, env)
		}
	}
}

func TestAttachJWTLocals_RejectsNonUUIDSubject(t *testing.T) {
	tokens := newTokens(t)
	app := newApp()
	app.Get("/me", JWTFromHeader(tokens), AttachJWTLocals(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	access, _ := tokens.IssueAccessToken(token.Claims{UserID: "42", Email: "a@b.c"})
	if status, _ := do(t, app, "/me", "Bearer "+access); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}

func TestRequirePro(t *testing.T) {
	tokens := newTokens(t)
	store := mock.NewStore()
	ctx := context.Background()

	plain := &models.User{Name: "A", Email: "a@example.com", PhoneNumber: "1", Password: "x"}
	pro := &models.User{Name: "B", Email: "b@example.com", PhoneNumber: "2", Password: "x"}
	for _, u := range []*models.User{plain, pro} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}
	if err := store.CreateProProfile(ctx, &models.ProUser{UserID: pro.ID}); err != nil {
		t.Fatalf("CreateProProfile: %v", err)
	}

	app := newApp()
	app.Get("/pro", JWTFromHeader(tokens), AttachJWTLocals(), RequirePro(store), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	bearer := func(u *models.User) string {
		tok, _ := tokens.IssueAccessToken(token.Claims{UserID: u.ID.String(), Email: u.Email})
		return "Bearer " + tok
	}

	if status, env := do(t, app, "/pro", bearer(plain)); status != fiber.StatusForbidden || env.Code != string(apperr.CodeForbidden) {
		t.Fatalf("expected 403 FORBIDDEN, got %d %+v", status, env)
	}
	if status, _ := do(t, app, "/pro", bearer(pro)); status != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", status)
	}
}

func TestErrorHandler(t *testing.T) {
	app := newApp()
	app.Get("/validation", func(c *fiber.Ctx) error {
		f := apperr.FieldErrors{}
		f.Add("title", "Title is required")
		return apperr.Validation("Missing fields", f)
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("pq: connection refused")
	})

	status, env := do(t, app, "/validation", "")
	if status != fiber.StatusBadRequest || env.Code != "VALIDATION_FAILED" || env.Message != "Missing fields" {
		t.Fatalf("unexpected validation response: %d %+v", status, env)
	}
	if _, ok := env.Details["fields"]; !ok {
		t.Fatalf("expected field details, got %+v", env.Details)
	}

	status, env = do(t, app, "/boom", "")
	if status != fiber.StatusInternalServerError || env.Code != "INTERNAL" || env.Message != "Internal server error" {
		t.Fatalf("unexpected 500 response: %d %+v", status, env)
	}

	status, env = do(t, app, "/nowhere", "")
	if status != fiber.StatusNotFound || env.Code != "NOT_FOUND" {
		t.Fatalf("unexpected unknown-route response: %d %+v", status, env)
	}
}

func TestErrorHandler_FiberErrorsKeepStatusAndCode(t *testing.T) {
	app := newApp()
	tests := []struct {
		path   string
		err    error
		status int
		code   apperr.Code
	}{
		{"/method", fiber.ErrMethodNotAllowed, fiber.StatusMethodNotAllowed, apperr.CodeMethodNotAllowed},
		{"/large", fiber.ErrRequestEntityTooLarge, fiber.StatusRequestEntityTooLarge, apperr.CodePayloadTooLarge},
		{"/upgrade", fiber.ErrUpgradeRequired, fiber.StatusUpgradeRequired, apperr.CodeUpgradeRequired},
		{"/unsupported", fiber.ErrUnsupportedMediaType, fiber.StatusBadRequest, apperr.CodeValidation},
		{"/unavailable", fiber.ErrServiceUnavailable, fiber.StatusInternalServerError, apperr.CodeInternal},
	}
	for _, tt := range tests {
		err := tt.err
		app.Get(tt.path, func(c *fiber.Ctx) error { return err })
	}

	for _, tt := range tests {
		status, env := do(t, app, tt.path, "")
		if status != tt.status || env.Code != string(tt.code) {
			t.Errorf("%s: got %d %q, want %d %q", tt.path, status, env.Code, tt.status, tt.code)
		}
		if status != apperr.Code(env.Code).HTTPStatus() {
			t.Errorf("%s: status %d does not match code %s", tt.path, status, env.Code)
		}
	}
}
