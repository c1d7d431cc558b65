// Package config holds client configuration loaded from the environment.
// Every value has a sensible default so the binary runs against a local
// backend with no setup.
package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

var (
	LogLevel         string
	APIBaseURL       string
	EcommerceBaseURL string
	TokenFile        string
	PollInterval     time.Duration
	RequestTimeout   time.Duration
	RequestRate      float64
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values")
	}

	LogLevel = os.Getenv("LOG_LEVEL")
	if LogLevel == "" {
		LogLevel = "info"
	}

	APIBaseURL = os.Getenv("API_BASE_URL")
	if APIBaseURL == "" {
		APIBaseURL = "http://127.0.0.1:8000/api"
	}

	EcommerceBaseURL = os.Getenv("ECOMMERCE_BASE_URL")
	if EcommerceBaseURL == "" {
		EcommerceBaseURL = "http://127.0.0.1:8000/ecommerce"
	}

	TokenFile = os.Getenv("TOKEN_FILE")
	if TokenFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		TokenFile = filepath.Join(home, ".artmarket", "session.json")
	}

	PollInterval = durationFromEnv("POLL_INTERVAL", 10*time.Second)
	RequestTimeout = durationFromEnv("REQUEST_TIMEOUT", 10*time.Second)

	// Outgoing requests per second across the whole client, poller included.
	RequestRate = 10
}

// durationFromEnv parses a duration from the named environment variable,
// falling back to the provided default when the variable is unset or invalid.
func durationFromEnv(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Invalid %s value %q, using default %s", name, raw, fallback)
		return fallback
	}
	return d
}
