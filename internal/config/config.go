package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=plastics port=5432 sslmode=disable"

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTTTL      time.Duration
	CORSOrigins string

	// RedisAddress is optional; without it bill edit locks are local no-ops.
	RedisAddress string
	BillLockTTL  time.Duration

	LogLevel          string
	OverdueCron       string
	HeartbeatInterval time.Duration
	CompanyName       string
}

func Load() *Config {
	// .env is optional, real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logg.WithError(err).Warn(".env could not be read")
	}

	cfg := &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:       getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTIssuer:         getEnv("JWT_ISSUER", "plastics-backend"),
		JWTAudience:       getEnv("JWT_AUDIENCE", "plastics-backoffice"),
		JWTTTL:            getDuration("JWT_TTL", 24*time.Hour),
		CORSOrigins:       getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		RedisAddress:      getEnv("REDIS_ADDRESS", ""),
		BillLockTTL:       getDuration("BILL_LOCK_TTL", 30*time.Second),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		OverdueCron:       getEnv("OVERDUE_CRON", "0 1 * * *"),
		HeartbeatInterval: getDuration("HEARTBEAT_INTERVAL", 5*time.Minute),
		CompanyName:       getEnv("COMPANY_NAME", "Plastics Trading Co."),
	}

	SetLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logg.WithError(err).Fatal("invalid configuration")
	}
	if cfg.DatabaseDSN == defaultDSN {
		logg.Warn("DATABASE_DSN is using the local default, set it for production")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		logg.Warn("CORS_ALLOWED_ORIGINS is using the local default, set your own domain for production")
	}
	if cfg.RedisAddress == "" {
		logg.Warn("REDIS_ADDRESS not set, bill edit locks only rely on database row locks")
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.BillLockTTL <= 0 {
		return errors.New("BILL_LOCK_TTL must be positive")
	}
	if c.HeartbeatInterval <= 0 {
		return errors.New("HEARTBEAT_INTERVAL must be positive")
	}
	return nil
}

// CORSOriginList splits CORS_ALLOWED_ORIGINS on commas.
func (c *Config) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logg.WithField("key", key).WithError(err).Warn("invalid duration, using default")
		return def
	}
	return d
}
