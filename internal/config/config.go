// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/ekinalp/suirisk/internal/security"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// How long to wait for the database to accept connections at startup
	DBWaitAttempts int
	DBWaitInterval time.Duration

	// Surflux market data API
	SurfluxBaseURL string
	SurfluxAPIKey  string
	SurfluxTimeout time.Duration

	// Sui Risk Identity settings. The backend never signs or submits
	// transactions; these identify the Move call a wallet should execute.
	SuiRPCURL           string
	SuiRiskPackageID    string
	SuiRiskModule       string
	SuiRiskFunctionMint string

	// Observability
	OTLPEndpoint string

	// Rate limiting
	RateLimitRPM int
}

// Defaults
const (
	DefaultPort           = "8080"
	DefaultEnv            = "development"
	DefaultLogLevel       = "info"
	DefaultSurfluxBaseURL = "https://api.surflux.dev"
	DefaultSuiRPCURL      = "https://fullnode.testnet.sui.io:443"
	DefaultDBWaitAttempts = 10
	DefaultDBWaitSeconds  = 3
	DefaultRateLimit      = 60

	// Testnet deployment of the risk_identity Move package. Override
	// SUI_RISK_PACKAGE_ID in production.
	DefaultSuiRiskPackageID = "0xb41df90acf072d4c7e74f44091ebadbe63758b7b4a20ea1cfe6a7b4456fa5afb"
	DefaultSuiRiskModule    = "risk_identity"
	DefaultSuiRiskFunction  = "mint_identity"
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", DefaultPort),
		Env:                 getEnv("ENV", DefaultEnv),
		LogLevel:            getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:         os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		DBWaitAttempts:      getEnvInt("DB_WAIT_ATTEMPTS", DefaultDBWaitAttempts),
		DBWaitInterval:      time.Duration(getEnvInt("DB_WAIT_INTERVAL_SECONDS", DefaultDBWaitSeconds)) * time.Second,
		SurfluxBaseURL:      getEnv("SURFLUX_BASE_URL", DefaultSurfluxBaseURL),
		SurfluxAPIKey:       os.Getenv("SURFLUX_API_KEY"), // Required for sync endpoints, no default
		SurfluxTimeout:      time.Duration(getEnvInt("SURFLUX_TIMEOUT_SECONDS", 15)) * time.Second,
		SuiRPCURL:           getEnv("SUI_RPC_URL", DefaultSuiRPCURL),
		SuiRiskPackageID:    getEnv("SUI_RISK_PACKAGE_ID", DefaultSuiRiskPackageID),
		SuiRiskModule:       getEnv("SUI_RISK_MODULE", DefaultSuiRiskModule),
		SuiRiskFunctionMint: getEnv("SUI_RISK_FUNCTION_MINT", DefaultSuiRiskFunction),
		OTLPEndpoint:        os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RateLimitRPM:        getEnvInt("RATE_LIMIT_RPM", DefaultRateLimit),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.SurfluxBaseURL == "" {
		return fmt.Errorf("SURFLUX_BASE_URL is required")
	}
	if _, err := url.Parse(c.SurfluxBaseURL); err != nil {
		return fmt.Errorf("SURFLUX_BASE_URL is not a valid URL: %w", err)
	}
	// In production the gateway URL must not point at loopback or private
	// ranges; development keeps local mock gateways workable.
	if c.IsProduction() {
		if err := security.ValidateEndpointURL(c.SurfluxBaseURL); err != nil {
			return fmt.Errorf("SURFLUX_BASE_URL: %w", err)
		}
	}
	if c.DBWaitAttempts <= 0 {
		return fmt.Errorf("DB_WAIT_ATTEMPTS must be positive")
	}
	if c.DBWaitInterval <= 0 {
		return fmt.Errorf("DB_WAIT_INTERVAL_SECONDS must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
