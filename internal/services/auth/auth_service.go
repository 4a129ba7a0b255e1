package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/civic_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/civic_be/internal/models"
	"github.com/Windi-Fikriyansyah/civic_be/internal/repository"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/storage"
	"github.com/Windi-Fikriyansyah/civic_be/internal/services/token"
	"github.com/Windi-Fikriyansyah/civic_be/internal/utils"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type ProUserStore interface {
	CreateProProfile(ctx context.Context, p *models.ProUser) error
	GetProUserByUserID(ctx context.Context, userID uuid.UUID) (*models.ProUser, error)
}

type AuthService struct {
	users    UserStore
	pros     ProUserStore
	tokens   *token.TokenService
	uploader storage.Uploader
	maxBytes int64
	log      *slog.Logger
}

func NewAuthService(users UserStore, pros ProUserStore, tokens *token.TokenService, uploader storage.Uploader, maxBytes int64, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = storage.DefaultMaxBytes
	}
	return &AuthService{
		users:    users,
		pros:     pros,
		tokens:   tokens,
		uploader: uploader,
		maxBytes: maxBytes,
		log:      log,
	}
}

// Session is what register, login and Google sign-in hand back to the client.
type Session struct {
	User   models.PublicUser `json:"user"`
	Tokens token.Pair        `json:"tokens"`
}

var errInvalidCredentials = apperr.New(apperr.CodeBadCredentials, "Invalid credentials")

type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
	ProfilePic  *storage.File
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	phone := strings.TrimSpace(in.PhoneNumber)

	fields := apperr.FieldErrors{}
	if name == "" {
		fields.Add("name", "Name is required")
	}
	if email == "" {
		fields.Add("email", "Email is required")
	} else if !strings.Contains(email, "@") {
		fields.Add("email", "Invalid email format")
	}
	if in.Password == "" {
		fields.Add("password", "Password is required")
	}
	if phone == "" {
		fields.Add("phoneNumber", "Phone number is required")
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("All fields required", fields)
	}

	if in.ProfilePic != nil {
		if err := storage.Validate(*in.ProfilePic, storage.KindImage, s.maxBytes); err != nil {
			f := apperr.FieldErrors{}
			f.Add("profilePic", err.Error())
			return nil, apperr.Validation("Invalid profile picture", f)
		}
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, apperr.New(apperr.CodeEmailTaken, "Email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	u := &models.User{
		Name:        name,
		Email:       email,
		Password:    hash,
		PhoneNumber: phone,
	}

	var stored []storage.Stored
	if in.ProfilePic != nil {
		stored, err = storage.PutAll(ctx, s.uploader, s.log, []storage.Upload{{
			File:   *in.ProfilePic,
			Bucket: storage.BucketProfilePics,
			Path:   "profile-" + uuid.NewString() + in.ProfilePic.Ext(),
		}})
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeUploadFailed, "Error uploading profile picture", err)
		}
		u.ProfilePic = &stored[0].URL
	}

	if err := s.users.CreateUser(ctx, u); err != nil {
		storage.Discard(ctx, s.uploader, s.log, stored)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.New(apperr.CodeEmailTaken, "Email already registered")
		}
		return nil, apperr.Internal(err)
	}

	return s.session(u)
}

// Login answers every failed attempt with the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errInvalidCredentials
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		// burn a bcrypt comparison so unknown emails cost the same as wrong passwords
		utils.CheckPassword(dummyHash(), password)
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !utils.CheckPassword(u.Password, password) {
		return nil, errInvalidCredentials
	}
	return s.session(u)
}

// Refresh issues a new access token. The refresh token is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		f := apperr.FieldErrors{}
		f.Add("refreshToken", "Refresh token required")
		return "", apperr.Validation("Refresh token required", f)
	}
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", apperr.New(apperr.CodeInvalidRefresh, "Invalid refresh token")
	}
	access, err := s.tokens.IssueAccessToken(claims)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return access, nil
}

type ProRegisterInput struct {
	Occupation   string
	Skill        []string
	Degree       string
	Description  string
	Certificates []storage.File
}

// ProRegister creates the caller's pro profile and flips their pro flag.
func (s *AuthService) ProRegister(ctx context.Context, userID uuid.UUID, in ProRegisterInput) (*models.ProUser, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "User not found")
		}
		return nil, apperr.Internal(err)
	}

	if _, err := s.pros.GetProUserByUserID(ctx, userID); err == nil {
		return nil, apperr.New(apperr.CodeAlreadyPro, "User already registered as pro user")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	if len(in.Certificates) > models.MaxCertifications {
		return nil, apperr.New(apperr.CodeTooManyFiles, "At most 3 certificates are allowed")
	}
	uploads := make([]storage.Upload, 0, len(in.Certificates))
	for _, f := range in.Certificates {
		if err := storage.Validate(f, storage.KindDocument, s.maxBytes); err != nil {
			fe := apperr.FieldErrors{}
			fe.Add("certificates", err.Error())
			return nil, apperr.Validation("Invalid certificate file", fe)
		}
		uploads = append(uploads, storage.Upload{
			File:   f,
			Bucket: storage.BucketCertificates,
			Path:   userID.String() + "/" + uuid.NewString() + f.Ext(),
		})
	}

	stored, err := storage.PutAll(ctx, s.uploader, s.log, uploads)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUploadFailed, "Error uploading certificates", err)
	}

	p := &models.ProUser{
		UserID:         userID,
		Occupation:     strings.TrimSpace(in.Occupation),
		Skill:          NormalizeSkills(in.Skill),
		Degree:         strings.TrimSpace(in.Degree),
		Certifications: storage.URLs(stored),
		Description:    strings.TrimSpace(in.Description),
	}
	if err := s.pros.CreateProProfile(ctx, p); err != nil {
		storage.Discard(ctx, s.uploader, s.log, stored)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.New(apperr.CodeAlreadyPro, "User already registered as pro user")
		}
		return nil, apperr.Internal(err)
	}
	return p, nil
}

// SignInWithGoogle finds or creates the user for a verified Google email.
func (s *AuthService) SignInWithGoogle(ctx context.Context, email, name string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.New(apperr.CodeValidation, "Email not found from Google")
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return s.session(u)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	// password login stays impossible until the user sets one
	hashed, err := utils.HashPassword(randomString(24))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if strings.TrimSpace(name) == "" {
		name = email[:strings.Index(email+"@", "@")]
	}
	u = &models.User{
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: hashed,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Internal(err)
		}
		// lost a race with a concurrent sign-in
		if u, err = s.users.GetUserByEmail(ctx, email); err != nil {
			return nil, apperr.Internal(err)
		}
	}
	return s.session(u)
}

func (s *AuthService) session(u *models.User) (*Session, error) {
	pair, err := s.tokens.IssuePair(token.Claims{UserID: u.ID.String(), Email: u.Email})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Session{User: u.Public(), Tokens: pair}, nil
}

// NormalizeSkills trims entries and drops empty ones.
func NormalizeSkills(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var (
	dummyOnce sync.Once
	dummy     string
)

func dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = utils.HashPassword(randomString(16))
	})
	return dummy
}

func randomString(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
