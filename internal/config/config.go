package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/currency"
)

type Options struct {
	runAddr        string
	logLevel       string
	dataBaseDSN    string
	migrationsPath string
	apperBaseURL   string
	apperProjectID string
	apperPublicKey string
	storeCurrency  string
	confirmDelay   time.Duration
	sessionIdle    time.Duration
}

func NewOptions() *Options {
	return new(Options)
}

// ParseFlags handles command line arguments
// and stores their values in the corresponding variables.
// Flags take precedence over the environment, which in turn may come from a .env file.
func (o *Options) ParseFlags(args []string) error {
	loadEnvFile()

	fs := flag.NewFlagSet("shopsphere", flag.ContinueOnError)

	fs.StringVar(&o.runAddr, "a", getEnvOrDefault("RUN_ADDRESS", ":8080"), "address and port to run server")
	fs.StringVar(&o.logLevel, "l", getEnvOrDefault("LOG_LEVEL", "debug"), "log level")
	fs.StringVar(&o.dataBaseDSN, "d", getEnvOrDefault("DATABASE_URI", ""), "database connection string")
	fs.StringVar(&o.migrationsPath, "m", getEnvOrDefault("MIGRATIONS_PATH", "migrations"), "directory with database migrations")
	fs.StringVar(&o.apperBaseURL, "b", getEnvOrDefault("APPER_BASE_URL", ""), "backend-as-a-service base url")
	fs.StringVar(&o.apperProjectID, "p", getEnvOrDefault("APPER_PROJECT_ID", ""), "backend project id")
	fs.StringVar(&o.apperPublicKey, "k", getEnvOrDefault("APPER_PUBLIC_KEY", ""), "backend public key")
	fs.StringVar(&o.storeCurrency, "c", getEnvOrDefault("STORE_CURRENCY", "USD"), "ISO 4217 currency of catalog prices")
	fs.DurationVar(&o.confirmDelay, "confirm-delay", getDurationOrDefault("CONFIRM_DELAY", 2*time.Second), "how long the added to cart confirmation is shown")
	fs.DurationVar(&o.sessionIdle, "session-idle", getDurationOrDefault("SESSION_IDLE", 24*time.Hour), "drop sessions not seen for this long, 0 keeps them")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := currency.ParseISO(o.storeCurrency); err != nil {
		return fmt.Errorf("currency[%s] is not valid: %w", o.storeCurrency, err)
	}

	return nil
}

func (o *Options) RunAddr() string {
	return o.runAddr
}

func (o *Options) LogLevel() string {
	return o.logLevel
}

func (o *Options) DataBaseDSN() string {
	return o.dataBaseDSN
}

func (o *Options) MigrationsPath() string {
	return o.migrationsPath
}

func (o *Options) ApperBaseURL() string {
	return o.apperBaseURL
}

func (o *Options) ApperProjectID() string {
	return o.apperProjectID
}

func (o *Options) ApperPublicKey() string {
	return o.apperPublicKey
}

// Currency is validated by ParseFlags, an unparsable value falls back to USD.
func (o *Options) Currency() currency.Unit {
	unit, err := currency.ParseISO(o.storeCurrency)
	if err != nil {
		return currency.USD
	}
	return unit
}

func (o *Options) ConfirmDelay() time.Duration {
	return o.confirmDelay
}

func (o *Options) SessionIdle() time.Duration {
	return o.sessionIdle
}

// getEnvOrDefault reads an environment variable or returns a default value if the variable is not set or is empty.
func getEnvOrDefault(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("%s=%q is not a duration, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

// loadEnvFile loads environment variables from a .env file in the working
// directory or, when started from cmd/shopsphere, from the repository root.
// Variables already present in the environment are not overridden.
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Printf("cannot determine working directory: %v", err)
		return
	}

	for _, envPath := range []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(cwd, "..", "..", ".env"),
	} {
		if err := godotenv.Load(envPath); err == nil {
			log.Printf(".env file loaded from %s", envPath)
			return
		}
	}
	log.Printf("No .env file found, proceeding without it")
}
