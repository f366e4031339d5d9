package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all startup configuration. It is loaded once in main and passed
// by reference into the services that need it, so tests can construct their own.
type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	MongoURI    string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDBName string `env:"MONGO_DB_NAME" envDefault:"highway"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"168h"`

	SessionKey         string `env:"SESSION_KEY" envDefault:"change_this_secret"`
	FrontendURL        string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL" envDefault:"http://localhost:8080/api/auth/google/callback"`

	SMTPHost     string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"Highway Notes <no-reply@highway.app>"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
}

// Load reads configuration from the environment. A missing JWT secret is an
// error here and fatal in main: the server must not start with unsigned sessions.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}

	return cfg, nil
}
