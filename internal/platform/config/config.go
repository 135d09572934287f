package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	StorageDriver  string
	MigrationsPath string

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	RedisURL           string
	RateLimit          string
	CORSAllowedOrigins []string

	SchedulerEnabled    bool
	SchedulerInterval   time.Duration
	SchedulerBatchSize  int
	SchedulerJobTimeout time.Duration

	SubscriptionGraceDays int
}

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// LoadConfig loads configuration from environment variables and a .env file if present.
// Environment variables win over .env values, which win over defaults.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_EXPIRY_DURATION", "24h")
	v.SetDefault("JWT_ISSUER", "workshop-backend")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("RATE_LIMIT", "20-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("SCHEDULER_ENABLED", true)
	v.SetDefault("SCHEDULER_INTERVAL", "1h")
	v.SetDefault("SCHEDULER_BATCH_SIZE", 100)
	v.SetDefault("SCHEDULER_JOB_TIMEOUT", "2m")
	v.SetDefault("SUBSCRIPTION_GRACE_DAYS", 5)
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:           v.GetString("PGSQL_URL"),
		Port:                  v.GetString("PORT"),
		IsProduction:          v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:         v.GetBool("ENABLE_DB_CHECK"),
		StorageDriver:         strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
		MigrationsPath:        v.GetString("MIGRATIONS_PATH"),
		JWTSecret:             v.GetString("JWT_SECRET"),
		JWTIssuer:             v.GetString("JWT_ISSUER"),
		RedisURL:              v.GetString("REDIS_URL"),
		RateLimit:             v.GetString("RATE_LIMIT"),
		CORSAllowedOrigins:    splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		SchedulerEnabled:      v.GetBool("SCHEDULER_ENABLED"),
		SchedulerBatchSize:    v.GetInt("SCHEDULER_BATCH_SIZE"),
		SubscriptionGraceDays: v.GetInt("SUBSCRIPTION_GRACE_DAYS"),
	}

	cfg.JWTExpiryDuration = durationOrDefault(v, "JWT_EXPIRY_DURATION", 24*time.Hour)
	cfg.SchedulerInterval = durationOrDefault(v, "SCHEDULER_INTERVAL", time.Hour)
	cfg.SchedulerJobTimeout = durationOrDefault(v, "SCHEDULER_JOB_TIMEOUT", 2*time.Minute)

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.SubscriptionGraceDays < 0 {
		slog.Warn("SUBSCRIPTION_GRACE_DAYS is negative, using 0", slog.Int("value", cfg.SubscriptionGraceDays))
		cfg.SubscriptionGraceDays = 0
	}

	switch cfg.StorageDriver {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required when STORAGE_DRIVER is %q", StoragePostgres)
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.JWTSecret == defaultJWTSecret {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		slog.Warn("JWT_SECRET not set. Using default insecure key.")
	}

	return cfg, nil
}

func durationOrDefault(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		slog.Warn("Invalid duration, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Duration("default", def))
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
