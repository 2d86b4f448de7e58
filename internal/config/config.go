package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN          string        `mapstructure:"DB_DSN"`
	Environment    string        `mapstructure:"ENV"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"` // debug, info, warn, error
	HTTPAddr       string        `mapstructure:"HTTP_ADDR"`
	HTTPTimeout    time.Duration `mapstructure:"HTTP_TIMEOUT"`
	ReferenceTZ    string        `mapstructure:"REFERENCE_TZ"`
	MigrationsPath string        `mapstructure:"MIGRATIONS_PATH"`
	TelegramToken  string        `mapstructure:"TELEGRAM_TOKEN"` // пустой - уведомления отключены
	PriceTable     string        `mapstructure:"PRICE_TABLE"`    // пустой - тарифы по умолчанию
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"` // 0 - без ограничения
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфиг из переменных окружения, getenv подменяется в тестах
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBDSN:          getenv("DB_DSN"),
		Environment:    getenv("ENV"),
		LogLevel:       getenv("LOG_LEVEL"),
		HTTPAddr:       getenv("HTTP_ADDR"),
		ReferenceTZ:    getenv("REFERENCE_TZ"),
		MigrationsPath: getenv("MIGRATIONS_PATH"),
		TelegramToken:  getenv("TELEGRAM_TOKEN"),
		PriceTable:     getenv("PRICE_TABLE"),
		HTTPTimeout:    10 * time.Second,
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.ReferenceTZ == "" {
		cfg.ReferenceTZ = "Asia/Kolkata"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("LOG_LEVEL: unknown level %q", cfg.LogLevel)
	}

	if s := getenv("HTTP_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("HTTP_TIMEOUT: invalid duration %q", s)
		}
		cfg.HTTPTimeout = d
	}

	if s := getenv("RATE_LIMIT_RPS"); s != "" {
		rps, err := strconv.ParseFloat(s, 64)
		if err != nil || rps < 0 {
			return nil, fmt.Errorf("RATE_LIMIT_RPS: invalid value %q", s)
		}
		cfg.RateLimitRPS = rps
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}
