package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Windi-Fikriyansyah/civic_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/auth"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleOAuthHandler struct {
	Auth            *auth.AuthService
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string

	// UserInfoURL overrides the Google userinfo endpoint in tests.
	UserInfoURL string
	// Endpoint overrides google.Endpoint in tests.
	Endpoint *oauth2.Endpoint
}

func (h *GoogleOAuthHandler) oauthCfg() *oauth2.Config {
	ep := google.Endpoint
	if h.Endpoint != nil {
		ep = *h.Endpoint
	}
	return &oauth2.Config{
		ClientID:     h.GoogleClientID,
		ClientSecret: h.GoogleSecret,
		RedirectURL:  h.GoogleRedirect,
		Endpoint:     ep,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func randomState(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func (h *GoogleOAuthHandler) GoogleStart(c *fiber.Ctx) error {
	next := c.Query("next", "/")
	st := randomState(32)

	// state and next live in short-lived cookies until the callback
	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    st,
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
		MaxAge:   10 * 60,
	})
	c.Cookie(&fiber.Cookie{
		Name:     "oauth_next",
		Value:    next,
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
		MaxAge:   10 * 60,
	})

	return c.Redirect(h.oauthCfg().AuthCodeURL(st), http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// GoogleCallback signs the user in and redirects to the frontend with the
// token pair in the URL fragment.
func (h *GoogleOAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return apperr.New(apperr.CodeValidation, "Missing code/state")
	}

	stCookie := c.Cookies("oauth_state")
	if stCookie == "" || stCookie != state {
		return apperr.New(apperr.CodeValidation, "Invalid state")
	}
	next := c.Cookies("oauth_next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/"
	}

	cfg := h.oauthCfg()
	tok, err := cfg.Exchange(c.UserContext(), code)
	if err != nil {
		return apperr.Wrap(apperr.CodeUpstream, "Failed to exchange code", err)
	}

	gu, err := h.userInfo(c, cfg, tok)
	if err != nil {
		return apperr.Wrap(apperr.CodeUpstream, "Failed to fetch userinfo", err)
	}
	if !gu.VerifiedEmail {
		return apperr.New(apperr.CodeValidation, "Google email is not verified")
	}

	sess, err := h.Auth.SignInWithGoogle(c.UserContext(), gu.Email, gu.Name)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1, HTTPOnly: true, SameSite: "Lax"})
	c.Cookie(&fiber.Cookie{Name: "oauth_next", Value: "", Path: "/", MaxAge: -1, HTTPOnly: true, SameSite: "Lax"})

	fragment := url.Values{}
	fragment.Set("accessToken", sess.Tokens.AccessToken)
	fragment.Set("refreshToken", sess.Tokens.RefreshToken)

	return c.Redirect(strings.TrimRight(h.FrontendBaseURL, "/")+next+"#"+fragment.Encode(), http.StatusTemporaryRedirect)
}

func (h *GoogleOAuthHandler) userInfo(c *fiber.Ctx, cfg *oauth2.Config, tok *oauth2.Token) (*googleUserInfo, error) {
	endpoint := h.UserInfoURL
	if endpoint == "" {
		endpoint = googleUserInfoURL
	}

	req, err := http.NewRequestWithContext(c.UserContext(), http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := cfg.Client(c.UserContext(), tok).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo: unexpected status %d", resp.StatusCode)
	}
	var gu googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return nil, err
	}
	return &gu, nil
}
