package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Page variants the portal can serve.
const (
	VariantStarter    = "starter"
	VariantTranscribe = "transcribe"
)

type Config struct {
	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10m"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	// PublicURL is the portal's own origin, used for derived defaults below.
	PublicURL   string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	PageVariant string `env:"PAGE_VARIANT" envDefault:"transcribe"`

	BackendURL     string        `env:"BACKEND_URL" envDefault:"http://localhost:8000"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"5m"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES" envDefault:"33554432"`

	// Provider settings. Login is disabled when domain or client id is empty.
	CognitoDomain   string `env:"COGNITO_DOMAIN"`
	CognitoClientID string `env:"COGNITO_CLIENT_ID"`
	RedirectURI     string `env:"COGNITO_REDIRECT_URI"`
	LogoutURI       string `env:"COGNITO_LOGOUT_URI"`
	Scope           string `env:"COGNITO_SCOPE" envDefault:"openid email profile"`
	Authority       string `env:"COGNITO_AUTHORITY"`

	SecureCookies bool   `env:"SECURE_COOKIES" envDefault:"false"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile    string
	HTTPAddr   string
	LogLevel   string
	Variant    string
	BackendURL string
}

// Load reads configuration from .env file, environment variables, and CLI
// overrides. Priority: CLI flags > environment variables > .env file >
// struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.Variant != "" {
		cfg.PageVariant = overrides.Variant
	}
	if overrides.BackendURL != "" {
		cfg.BackendURL = overrides.BackendURL
	}

	switch cfg.PageVariant {
	case VariantStarter, VariantTranscribe:
	default:
		return nil, fmt.Errorf("invalid page variant %q: must be %q or %q",
			cfg.PageVariant, VariantStarter, VariantTranscribe)
	}

	// Redirect and logout URIs default to the portal's own origin.
	origin := strings.TrimRight(cfg.PublicURL, "/")
	if cfg.RedirectURI == "" {
		cfg.RedirectURI = origin + "/auth/callback"
	}
	if cfg.LogoutURI == "" {
		cfg.LogoutURI = origin
	}

	return cfg, nil
}
