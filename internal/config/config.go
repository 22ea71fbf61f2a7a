package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultAPIToken = "dev-token"
	defaultGRPCPort = ":8080"

	liveTable    = "transactions"
	sandboxTable = "sandbox_transactions"
)

// Config holds the runtime settings read from the environment
type Config struct {
	DBConnStr         string
	APIToken          string
	GRPCPort          string
	LogLevel          string
	DryRun            bool
	TransactionsTable string
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment take precedence over the file.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	dryRun := false
	if raw := getenv("DRY_RUN"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid DRY_RUN value %q: %w", raw, err)
		}
		dryRun = parsed
	}

	dbConnStr := getenv("DB_CONN_STR")
	if dbConnStr == "" {
		// If explicit string is missing, build it from individual vars (Docker friendly)
		dbConnStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			get("DB_HOST", "localhost"),
			get("DB_PORT", "5432"),
			get("DB_USER", "postgres"),
			get("DB_PASSWORD", "postgres"),
			get("DB_NAME", "transactions"),
		)
	}

	port := get("GRPC_PORT", defaultGRPCPort)
	if !strings.Contains(port, ":") {
		port = ":" + port
	}

	table := liveTable
	if dryRun {
		table = sandboxTable
	}

	return &Config{
		DBConnStr:         dbConnStr,
		APIToken:          get("API_TOKEN", defaultAPIToken),
		GRPCPort:          port,
		LogLevel:          get("LOG_LEVEL", "info"),
		DryRun:            dryRun,
		TransactionsTable: table,
	}, nil
}
