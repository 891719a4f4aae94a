// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Database struct {
	Host     string `validate:"required"`
	Port     string `validate:"required,numeric"`
	User     string `validate:"required"`
	Password string
	DBName   string `validate:"required"`
	SSLMode  string `validate:"oneof=disable require verify-full"`
}

type Config struct {
	Addr           string `validate:"required"`
	Database       Database
	RedisAddr      string
	SessionSecret  string        `validate:"required,min=16"`
	SessionTTL     time.Duration `validate:"gt=0"`
	SecureCookie   bool
	AllowedOrigins []string `validate:"dive,url"`
	LogLevel       string   `validate:"oneof=debug info warn error"`
}

// Load reads a .env file if one is present, then the process environment.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	found := godotenv.Load() == nil

	cfg, err := FromEnv(os.Getenv)
	return cfg, found, err
}

// FromEnv builds a Config from a lookup function so tests can avoid the real
// environment.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	ttl, err := time.ParseDuration(get("SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("config: SESSION_TTL: %w", err)
	}

	secure, err := strconv.ParseBool(get("SESSION_SECURE_COOKIE", "false"))
	if err != nil {
		return nil, fmt.Errorf("config: SESSION_SECURE_COOKIE: %w", err)
	}

	cfg := &Config{
		Addr: get("HTTP_ADDR", ":8080"),
		Database: Database{
			Host:     getenv("DB_HOST"),
			Port:     get("DB_PORT", "5432"),
			User:     getenv("DB_USER"),
			Password: getenv("DB_PASSWORD"),
			DBName:   getenv("DB_NAME"),
			SSLMode:  get("DB_SSLMODE", "disable"),
		},
		RedisAddr:      getenv("REDIS_ADDR"),
		SessionSecret:  getenv("SESSION_SECRET"),
		SessionTTL:     ttl,
		SecureCookie:   secure,
		AllowedOrigins: splitList(get("CORS_ALLOWED_ORIGINS", "http://localhost:8080")),
		LogLevel:       strings.ToLower(get("LOG_LEVEL", "info")),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("config: %s failed %s", verrs[0].Namespace(), verrs[0].Tag())
	}
	return fmt.Errorf("config: %w", err)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
