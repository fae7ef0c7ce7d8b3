package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gym_sales_backend/pkg/utils"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds application runtime configuration.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	StoreDriver string
	DB          DBConfig

	JWTSecret      string
	AccessTokenTTL time.Duration

	CORSAllowedOrigins []string

	// BusinessLocation decides which calendar day a sale number belongs to.
	BusinessLocation      *time.Location
	SaleNumberMaxAttempts int
}

// DBConfig describes the Postgres connection and pool.
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	SchemaPath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	TxTimeout       time.Duration
}

// DSN renders the lib/pq key/value connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// IsProduction reports whether the service runs with production defaults.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads environment variables and .env (if present).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:         utils.Getenv("APP_ENV", "development"),
		Port:        utils.Getenv("PORT", "8080"),
		LogLevel:    utils.Getenv("LOG_LEVEL", "info"),
		StoreDriver: strings.ToLower(utils.Getenv("STORE_DRIVER", StoreDriverPostgres)),
		DB: DBConfig{
			Host:            utils.Getenv("DB_HOST", "localhost"),
			Port:            utils.Getenv("DB_PORT", "5432"),
			User:            utils.Getenv("DB_USER", "gym_user"),
			Password:        utils.Getenv("DB_PASSWORD", "gym_password"),
			Name:            utils.Getenv("DB_NAME", "gym_db"),
			SSLMode:         utils.Getenv("DB_SSLMODE", "disable"),
			SchemaPath:      utils.Getenv("DB_SCHEMA_PATH", ""),
			MaxOpenConns:    utils.GetenvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    utils.GetenvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: utils.GetenvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			TxTimeout:       utils.GetenvDuration("DB_TX_TIMEOUT", 10*time.Second),
		},
		JWTSecret:             utils.Getenv("JWT_SECRET", ""),
		AccessTokenTTL:        utils.GetenvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		SaleNumberMaxAttempts: utils.GetenvInt("SALE_NUMBER_MAX_ATTEMPTS", 3),
	}

	origins := utils.Getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8081")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	loc, err := time.LoadLocation(utils.Getenv("BUSINESS_TIMEZONE", "UTC"))
	if err != nil {
		return cfg, fmt.Errorf("invalid BUSINESS_TIMEZONE: %w", err)
	}
	cfg.BusinessLocation = loc

	if cfg.StoreDriver != StoreDriverPostgres && cfg.StoreDriver != StoreDriverMemory {
		return cfg, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.SaleNumberMaxAttempts < 1 {
		cfg.SaleNumberMaxAttempts = 1
	}
	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return cfg, errors.New("JWT_SECRET is required")
		}
		cfg.JWTSecret = "development-only-secret"
	}
	return cfg, nil
}
