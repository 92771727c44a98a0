package config // package config loads application configuration from environment variables

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the core runtime configuration. Every field maps to an
// environment variable; optional collaborators (database, auth) are
// disabled when their variables are empty.
type Config struct {
	Env             string // APP_ENV: dev, test or prod
	Port            string // APP_PORT: HTTP port to listen on
	ModelPath       string // MODEL_PATH: local JSON/YAML artifact
	ModelURI        string // MODEL_URI: s3://bucket/key artifact, wins over ModelPath
	DBUser          string // DB_USER
	DBPass          string // DB_PASS (optional)
	DBHost          string // DB_HOST: audit store disabled when empty
	DBPort          string // DB_PORT
	DBName          string // DB_NAME
	JWTSecret       string // JWT_SECRET: operator endpoints disabled when empty
	AccessTTLMin    int    // ACCESS_TOKEN_TTL_MIN
	OperatorKeyHash string // OPERATOR_API_KEY_HASH: bcrypt hash of the operator API key
	BatchMaxSize    int    // BATCH_MAX_SIZE: largest accepted /predict/batch payload
}

// Load reads a .env file when one exists, then builds a Config from the
// environment. Missing required variables terminate the process.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		ModelPath:       os.Getenv("MODEL_PATH"),
		ModelURI:        os.Getenv("MODEL_URI"),
		DBHost:          os.Getenv("DB_HOST"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTTLMin:    envInt("ACCESS_TOKEN_TTL_MIN", 60),
		OperatorKeyHash: os.Getenv("OPERATOR_API_KEY_HASH"),
		BatchMaxSize:    envInt("BATCH_MAX_SIZE", 100),
	}
	if cfg.DBHost != "" {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBPort = envStr("DB_PORT", "3306")
		cfg.DBName = must("DB_NAME")
	}
	if cfg.AccessTTLMin < 1 {
		cfg.AccessTTLMin = 1
	}
	if cfg.BatchMaxSize < 1 {
		cfg.BatchMaxSize = 1
	}
	return cfg
}

// DatabaseEnabled reports whether the audit store is configured.
func (c Config) DatabaseEnabled() bool { return c.DBHost != "" }

// AuthEnabled reports whether operator endpoints can issue and verify tokens.
func (c Config) AuthEnabled() bool { return c.JWTSecret != "" && c.OperatorKeyHash != "" }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
