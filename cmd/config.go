package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"shipping/internal/adapters/out/postgres"
	"shipping/internal/jobs"
	"shipping/internal/pkg/errs"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	SelectionHash   = "hash"
	SelectionRandom = "random"
)

type Config struct {
	HTTPPort string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	SQLitePath string

	RedisAddr string

	ReconcileSchedule string
	ProviderSelection string
	ProviderLatency   bool
	NRWFailureRate    float64
	TLSFailureRate    float64

	LogLevel slog.Level
}

// LoadConfig reads the environment. A .env file in the working directory is
// loaded first when present; variables already set in the process win.
func LoadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var errList []error

	latency, err := envBool("PROVIDER_LATENCY", true)
	errList = append(errList, err)
	nrwRate, err := envFloat("NRW_FAILURE_RATE", 0.02)
	errList = append(errList, err)
	tlsRate, err := envFloat("TLS_FAILURE_RATE", 0.015)
	errList = append(errList, err)

	var level slog.Level
	if err := level.UnmarshalText([]byte(envOr("LOG_LEVEL", "INFO"))); err != nil {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("LOG_LEVEL", err))
	}

	if err := errors.Join(errList...); err != nil {
		return Config{}, err
	}

	config := Config{
		HTTPPort:          envOr("HTTP_PORT", "8080"),
		DBDriver:          envOr("DB_DRIVER", postgres.DriverPostgres),
		DBHost:            envOr("DB_HOST", "localhost"),
		DBPort:            envOr("DB_PORT", "5432"),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBName:            os.Getenv("DB_NAME"),
		DBSslMode:         envOr("DB_SSLMODE", "disable"),
		SQLitePath:        envOr("SQLITE_PATH", "shipping.db"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		ReconcileSchedule: envOr("RECONCILE_SCHEDULE", jobs.DefaultSchedule),
		ProviderSelection: strings.ToLower(envOr("PROVIDER_SELECTION", SelectionHash)),
		ProviderLatency:   latency,
		NRWFailureRate:    nrwRate,
		TLSFailureRate:    tlsRate,
		LogLevel:          level,
	}
	return config, config.Validate()
}

func (c Config) Validate() error {
	var errList []error

	switch c.DBDriver {
	case postgres.DriverPostgres:
		if c.DBName == "" {
			errList = append(errList, errs.NewValueIsRequiredError("DB_NAME"))
		}
	case postgres.DriverSQLite:
		if c.SQLitePath == "" {
			errList = append(errList, errs.NewValueIsRequiredError("SQLITE_PATH"))
		}
	default:
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("DB_DRIVER",
			fmt.Errorf("%q is not one of %s, %s", c.DBDriver, postgres.DriverPostgres, postgres.DriverSQLite)))
	}

	if c.HTTPPort == "" {
		errList = append(errList, errs.NewValueIsRequiredError("HTTP_PORT"))
	}

	if c.ProviderSelection != SelectionHash && c.ProviderSelection != SelectionRandom {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("PROVIDER_SELECTION",
			fmt.Errorf("%q is not one of %s, %s", c.ProviderSelection, SelectionHash, SelectionRandom)))
	}

	if _, err := cron.NewParser(
		cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	).Parse(c.ReconcileSchedule); err != nil {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("RECONCILE_SCHEDULE", err))
	}

	for name, rate := range map[string]float64{
		"NRW_FAILURE_RATE": c.NRWFailureRate,
		"TLS_FAILURE_RATE": c.TLSFailureRate,
	} {
		if rate < 0 || rate > 1 {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause(name,
				fmt.Errorf("%v is outside [0, 1]", rate)))
		}
	}

	return errors.Join(errList...)
}

// DSN is the connection string for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == postgres.DriverSQLite {
		return c.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errs.NewValueIsInvalidErrorWithCause(key, err)
	}
	return b, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errs.NewValueIsInvalidErrorWithCause(key, err)
	}
	return f, nil
}
