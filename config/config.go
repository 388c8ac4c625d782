package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"binanceCollector/internal/adapters/logger" // Import the logger package for LogLevel
	"binanceCollector/internal/ports"
)

var validate = validator.New()

// Config holds all application configuration.
type Config struct {
	// Binance API. Credentials may also come from the command line, so they are optional here.
	APIKey    string
	SecretKey string
	IsTestnet bool
	BaseURL   string `validate:"omitempty,url"`

	// Recorded in last_checks.exchange
	ExchangeName string `default:"Binance" validate:"required"`

	// Database
	CandleDBPath string `default:"main.db" validate:"required"`
	TradeDBPath  string `default:"trade_data.db" validate:"required"`

	// Polling
	PollIntervalSeconds   int `default:"300" validate:"gt=0"`
	RequestTimeoutSeconds int `validate:"gte=0"` // 0 disables the timeout

	// Logging
	LogLevelName string `default:"INFO" validate:"oneof=DEBUG INFO WARN WARNING ERROR"`
	LogFormat    string `default:"console" validate:"oneof=console json"`
	LogLevel     logger.LogLevel // parsed from LogLevelName

	// Prometheus exposition address; empty disables it
	MetricsAddr string `validate:"omitempty,hostname_port"`
}

// PollInterval returns the pause between polling cycles.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// RequestTimeout returns the HTTP timeout; zero means none.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)
	cfg.BaseURL = getEnv("BASE_URL", "")
	cfg.ExchangeName = getEnv("EXCHANGE_NAME", "")

	// Database
	cfg.CandleDBPath = getEnv("CANDLE_DB_PATH", "")
	cfg.TradeDBPath = getEnv("TRADE_DB_PATH", "")

	// Polling
	cfg.PollIntervalSeconds, err = getEnvAsIntRequired("POLL_INTERVAL_SECONDS", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid POLL_INTERVAL_SECONDS: %v", err))
	}
	cfg.RequestTimeoutSeconds, err = getEnvAsIntRequired("REQUEST_TIMEOUT_SECONDS", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid REQUEST_TIMEOUT_SECONDS: %v", err))
	}

	// Logging
	cfg.LogLevelName = strings.ToUpper(getEnv("LOG_LEVEL", ""))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", ""))

	cfg.MetricsAddr = getEnv("METRICS_ADDR", "")

	// Unset values take their struct-tag defaults
	pollInterval := cfg.PollIntervalSeconds
	if err := defaults.Set(cfg); err != nil {
		errs = append(errs, fmt.Sprintf("failed to apply defaults: %v", err))
	}
	// defaults cannot tell an explicit 0 from unset; an explicit 0 must fail validation.
	if os.Getenv("POLL_INTERVAL_SECONDS") != "" {
		cfg.PollIntervalSeconds = pollInterval
	}
	cfg.LogLevel = logger.ParseLevel(cfg.LogLevelName)

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fieldMessage(fe))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s: %w", strings.Join(errs, "; "), ports.ErrConfigurationError)
	}

	return cfg, nil
}

var envNames = map[string]string{
	"BaseURL":               "BASE_URL",
	"ExchangeName":          "EXCHANGE_NAME",
	"CandleDBPath":          "CANDLE_DB_PATH",
	"TradeDBPath":           "TRADE_DB_PATH",
	"PollIntervalSeconds":   "POLL_INTERVAL_SECONDS",
	"RequestTimeoutSeconds": "REQUEST_TIMEOUT_SECONDS",
	"LogLevelName":          "LOG_LEVEL",
	"LogFormat":             "LOG_FORMAT",
	"MetricsAddr":           "METRICS_ADDR",
}

func fieldMessage(fe validator.FieldError) string {
	name, ok := envNames[fe.Field()]
	if !ok {
		name = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s must be set", name)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s cannot be negative", name)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", name)
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port", name)
	default:
		return fmt.Sprintf("%s failed validation: %s", name, fe.Tag())
	}
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
