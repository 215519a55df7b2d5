package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	GinMode  string `env:"GIN_MODE" envDefault:"debug"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"mysql"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`
	DBUser     string `env:"DB_USER" envDefault:"agencyuser"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"agencypassword"`
	DBName     string `env:"DB_NAME" envDefault:"agencyos"`
	DBPath     string `env:"DB_PATH" envDefault:"agencyos.db"`

	SessionStore  string `env:"SESSION_STORE" envDefault:"redis"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	SessionSecret string `env:"SESSION_SECRET" envDefault:"default-secret-key-change-me"`

	// AppOrigin is the public origin of the web app, used to build accept links.
	AppOrigin string `env:"APP_ORIGIN" envDefault:"http://localhost:5173"`

	InviteFunctionURL    string        `env:"INVITE_FUNCTION_URL"`
	InviteFunctionSecret string        `env:"INVITE_FUNCTION_SECRET"`
	InviteFunctionTTL    time.Duration `env:"INVITE_FUNCTION_TIMEOUT" envDefault:"10s"`

	UploadDir     string `env:"UPLOAD_DIR" envDefault:"uploads"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.SessionStore = strings.ToLower(strings.TrimSpace(cfg.SessionStore))
	cfg.AppOrigin = strings.TrimRight(cfg.AppOrigin, "/")
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	return &cfg, nil
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}
