// Package config loads configuration from the environment, optionally seeded
// from a dotenv file. Nothing is hardcoded; every secret is injected.
package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Load reads .env.local, then .env, then falls back to the ambient
// environment.
func Load() {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}
}

// Get returns the env var value or the given default.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustGet returns the env var value or exits.
func MustGet(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("%s is not set", key)
	}
	return v
}
