// Package config содержит логику чтения конфигурации сервиса заказа еды.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress   string `env:"RUN_ADDRESS"`
	DatabaseURL  string `env:"DATABASE_URL"`
	JWTSecret    string `env:"JWT_SECRET_KEY"`
	ResendAPIKey string `env:"RESEND_API_KEY"`
	MailSender   string `env:"MAIL_SENDER" envDefault:"orders@munchify.example"`

	PoolMode        string        `env:"DB_POOL_MODE" envDefault:"pooled"`
	MinConns        int32         `env:"DB_MIN_CONNS" envDefault:"5"`
	MaxConns        int32         `env:"DB_MAX_CONNS" envDefault:"15"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	AcquireTimeout  time.Duration `env:"DB_ACQUIRE_TIMEOUT" envDefault:"5s"`

	// Автосоздание схемы выключено по умолчанию: в боевом окружении
	// схемой управляет внешний процесс миграций.
	AutoMigrate bool `env:"AUTO_MIGRATE" envDefault:"false"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Значения окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	// .env нужен только для локальной разработки, его отсутствие не ошибка.
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURL := cfg.DatabaseURL

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURL, "d", "", "database URL")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURL != "" {
		cfg.DatabaseURL = envDatabaseURL
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	return cfg, nil
}
