// Package config содержит логику чтения конфигурации сервиса магазина.
package config

import (
	"flag"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса магазина.
type Config struct {
	RunAddress       string `env:"RUN_ADDRESS"`
	DatabaseURI      string `env:"DATABASE_URI"`
	JWTSecret        string `env:"JWT_SECRET"`
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	Environment      string `env:"ENVIRONMENT"`
	CORSOrigins      string `env:"CORS_ORIGINS"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envJWTSecret := cfg.JWTSecret
	envBotToken := cfg.TelegramBotToken
	envEnvironment := cfg.Environment
	envCORSOrigins := cfg.CORSOrigins

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.JWTSecret, "s", "", "secret key for signing JWT tokens")
	flag.StringVar(&cfg.TelegramBotToken, "t", "", "telegram bot token for login widget verification")
	flag.StringVar(&cfg.Environment, "e", "production", "environment: development or production")
	flag.StringVar(&cfg.CORSOrigins, "c", "http://localhost:3000", "comma-separated list of allowed CORS origins")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envJWTSecret != "" {
		cfg.JWTSecret = envJWTSecret
	}
	if envBotToken != "" {
		cfg.TelegramBotToken = envBotToken
	}
	if envEnvironment != "" {
		cfg.Environment = envEnvironment
	}
	if envCORSOrigins != "" {
		cfg.CORSOrigins = envCORSOrigins
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.Environment == "" {
		cfg.Environment = "production"
	}

	return cfg, nil
}

// IsDevelopment сообщает, запущен ли сервис в режиме разработки.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// AllowedOrigins возвращает список разрешённых CORS-источников.
func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
