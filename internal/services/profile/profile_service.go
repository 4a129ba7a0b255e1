package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/civic_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/civic_be/internal/models"
	"github.com/Windi-Fikriyansyah/civic_be/internal/repository"
)

type UserStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUserFields(ctx context.Context, id uuid.UUID, patch repository.UserPatch) (*models.User, error)
}

type ProUserStore interface {
	GetProUserByUserID(ctx context.Context, userID uuid.UUID) (*models.ProUser, error)
	UpdateProUser(ctx context.Context, userID uuid.UUID, patch repository.ProUserPatch) (*models.ProUser, error)
}

type ProfileService struct {
	users UserStore
	pros  ProUserStore
}

func NewProfileService(users UserStore, pros ProUserStore) *ProfileService {
	return &ProfileService{users: users, pros: pros}
}

// Profile is a user's public fields plus their pro profile, or null.
type Profile struct {
	User    models.PublicUser `json:"user"`
	ProUser *models.ProUser   `json:"proUser"`
}

var errUserNotFound = apperr.New(apperr.CodeNotFound, "User not found")

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	p, err := s.pros.GetProUserByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}
	return &Profile{User: u.Public(), ProUser: p}, nil
}

// GetByRawID is Get for path parameters; malformed ids are not found.
func (s *ProfileService) GetByRawID(ctx context.Context, raw string) (*Profile, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, errUserNotFound
	}
	return s.Get(ctx, id)
}

// UpdateUser applies the allow-listed user fields. Unknown keys are ignored.
func (s *ProfileService) UpdateUser(ctx context.Context, userID uuid.UUID, body map[string]any) (*models.PublicUser, error) {
	fields := apperr.FieldErrors{}
	var patch repository.UserPatch

	patch.Name = optString(fields, body, "name", true)
	patch.PhoneNumber = optString(fields, body, "phoneNumber", true)
	if len(fields) > 0 {
		return nil, apperr.Validation("Invalid profile fields", fields)
	}

	u, err := s.users.UpdateUserFields(ctx, userID, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	pub := u.Public()
	return &pub, nil
}

// UpdatePro applies the allow-listed pro profile fields. Unknown keys are ignored.
func (s *ProfileService) UpdatePro(ctx context.Context, userID uuid.UUID, body map[string]any) (*models.ProUser, error) {
	fields := apperr.FieldErrors{}
	var patch repository.ProUserPatch

	patch.Occupation = optString(fields, body, "occupation", false)
	patch.Degree = optString(fields, body, "degree", false)
	patch.Description = optString(fields, body, "description", false)
	patch.Skill = optStrings(fields, body, "skill")
	if len(fields) > 0 {
		return nil, apperr.Validation("Invalid pro profile fields", fields)
	}

	p, err := s.pros.UpdateProUser(ctx, userID, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, "Professional user not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

func optString(fields apperr.FieldErrors, body map[string]any, key string, nonEmpty bool) *string {
	raw, ok := body[key]
	if !ok {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		fields.Add(key, "Must be a string")
		return nil
	}
	s = strings.TrimSpace(s)
	if nonEmpty && s == "" {
		fields.Add(key, "Must not be empty")
		return nil
	}
	return &s
}

// optStrings accepts a string or a list of strings.
func optStrings(fields apperr.FieldErrors, body map[string]any, key string) []string {
	raw, ok := body[key]
	if !ok {
		return nil
	}
	var out []string
	switch v := raw.(type) {
	case string:
		out = []string{v}
	case []string:
		out = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				fields.Add(key, "Must be a list of strings")
				return nil
			}
			out = append(out, s)
		}
	default:
		fields.Add(key, "Must be a list of strings")
		return nil
	}

	cleaned := make([]string, 0, len(out))
	for _, s := range out {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned
}
