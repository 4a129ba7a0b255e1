package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const minSecretLen = 16

// placeholder secrets that ship in sample env files and must never sign tokens
var weakSecrets = map[string]bool{
	"youraccesstokensecret":  true,
	"yourrefreshtokensecret": true,
	"supersecretkey":         true,
	"secret":                 true,
	"changeme":               true,
}

type Config struct {
	AppPort     string `env:"APP_PORT" envDefault:"8080"`
	AppBaseURL  string `env:"APP_BASE_URL"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`

	DBDSN string `env:"DB_DSN,required"`

	JWTAccessSecret  string        `env:"JWT_ACCESS_SECRET,required"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET,required"`
	JWTAccessTTL     time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	JWTRefreshTTL    time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`

	// blob storage: Supabase when SupabaseURL is set, local disk otherwise
	UploadDir      string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	SupabaseURL    string `env:"SUPABASE_URL"`
	SupabaseKey    string `env:"SUPABASE_SERVICE_KEY"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`

	GeocodeBaseURL  string        `env:"GEOCODE_BASE_URL" envDefault:"https://nominatim.openstreetmap.org"`
	GeocodeTimeout  time.Duration `env:"GEOCODE_TIMEOUT" envDefault:"5s"`
	GeocodeDisabled bool          `env:"GEOCODE_DISABLED" envDefault:"false"`

	// empty RedisAddr keeps notifications in-process
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	GoogleClientID  string `env:"GOOGLE_CLIENT_ID"`
	GoogleSecret    string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirect  string `env:"GOOGLE_REDIRECT_URL"`
	FrontendBaseURL string `env:"FRONTEND_BASE_URL" envDefault:"http://localhost:3000"`
}

// Load reads the process environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that would sign tokens with missing or weak secrets.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.DBDSN) == "" {
		errs = append(errs, errors.New("DB_DSN is required"))
	}
	if err := checkSecret("JWT_ACCESS_SECRET", c.JWTAccessSecret); err != nil {
		errs = append(errs, err)
	}
	if err := checkSecret("JWT_REFRESH_SECRET", c.JWTRefreshSecret); err != nil {
		errs = append(errs, err)
	}
	if c.JWTAccessTTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TTL must be positive"))
	}
	if c.JWTRefreshTTL <= c.JWTAccessTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be longer than JWT_ACCESS_TTL"))
	}
	if c.SupabaseURL != "" && c.SupabaseKey == "" {
		errs = append(errs, errors.New("SUPABASE_SERVICE_KEY is required when SUPABASE_URL is set"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}

	return errors.Join(errs...)
}

// GoogleEnabled reports whether Google sign-in routes should be mounted.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleSecret != "" && c.GoogleRedirect != ""
}

func checkSecret(name, v string) error {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return fmt.Errorf("%s is required", name)
	case weakSecrets[strings.ToLower(v)]:
		return fmt.Errorf("%s uses a placeholder value", name)
	case len(v) < minSecretLen:
		return fmt.Errorf("%s must be at least %d bytes", name, minSecretLen)
	}
	return nil
}
