package token

import (
	"errors"
	"time"

	"github.com/Windi-Fikriyansyah/civic_be/internal/utils"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type TokenService struct {
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &TokenService{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

func (s *TokenService) IssueAccessToken(c Claims) (string, error) {
	return utils.SignJWT(s.accessSecret, c.UserID, c.Email, utils.TokenAccess, s.accessTTL)
}

func (s *TokenService) IssueRefreshToken(c Claims) (string, error) {
	return utils.SignJWT(s.refreshSecret, c.UserID, c.Email, utils.TokenRefresh, s.refreshTTL)
}

// VerifyAccessToken returns ErrInvalidToken for every failure mode.
func (s *TokenService) VerifyAccessToken(tok string) (Claims, error) {
	return verify(s.accessSecret, tok, utils.TokenAccess)
}

func (s *TokenService) VerifyRefreshToken(tok string) (Claims, error) {
	return verify(s.refreshSecret, tok, utils.TokenRefresh)
}

// Pair is an access/refresh token pair.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (s *TokenService) IssuePair(c Claims) (Pair, error) {
	access, err := s.IssueAccessToken(c)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.IssueRefreshToken(c)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func verify(secret, tok string, typ utils.TokenType) (Claims, error) {
	if tok == "" {
		return Claims{}, ErrInvalidToken
	}
	c, err := utils.ParseJWT(secret, tok, typ)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	return Claims{UserID: c.UserID, Email: c.Email}, nil
}
