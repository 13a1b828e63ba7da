package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Environment string `mapstructure:"ENV"`
	DBDSN       string `mapstructure:"DB_DSN"`
	Store       string `mapstructure:"STORE"`

	// HTTP API
	HTTPAddr  string `mapstructure:"HTTP_ADDR"`
	JWTSecret string `mapstructure:"JWT_SECRET"`

	// Движок записи
	StrictTransitions bool          `mapstructure:"STRICT_TRANSITIONS"`
	SlotBatchPolicy   string        `mapstructure:"SLOT_BATCH_POLICY"`
	ReconcileInterval time.Duration `mapstructure:"RECONCILE_INTERVAL"`

	// Инфраструктура
	RedisURL             string        `mapstructure:"REDIS_URL"`
	AvailabilityCacheTTL time.Duration `mapstructure:"AVAILABILITY_CACHE_TTL"`
	AMQPURL              string        `mapstructure:"AMQP_URL"`

	// Каналы
	TelegramToken  string `mapstructure:"TELEGRAM_TOKEN"`
	ZAPIURL        string `mapstructure:"ZAPI_URL"`
	ZAPIInstanceID string `mapstructure:"ZAPI_INSTANCE_ID"`
	ZAPIToken      string `mapstructure:"ZAPI_TOKEN"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv()
}

// FromEnv читает конфигурацию из переменных окружения без .env
func FromEnv() (*Config, error) {
	cfg := &Config{
		Environment:     getEnv("ENV", "development"),
		DBDSN:           os.Getenv("DB_DSN"),
		Store:           getEnv("STORE", StorePostgres),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		SlotBatchPolicy: getEnv("SLOT_BATCH_POLICY", "best-effort"),
		RedisURL:        os.Getenv("REDIS_URL"),
		AMQPURL:         os.Getenv("AMQP_URL"),
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		ZAPIURL:         os.Getenv("ZAPI_URL"),
		ZAPIInstanceID:  os.Getenv("ZAPI_INSTANCE_ID"),
		ZAPIToken:       os.Getenv("ZAPI_TOKEN"),
	}

	var err error
	if cfg.StrictTransitions, err = getBool("STRICT_TRANSITIONS", true); err != nil {
		return nil, err
	}
	if cfg.ReconcileInterval, err = getDuration("RECONCILE_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.AvailabilityCacheTTL, err = getDuration("AVAILABILITY_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}

	// Проверяем обязательные поля
	switch cfg.Store {
	case StorePostgres:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required but not set")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, cfg.Store)
	}

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
