// Package config reads process configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// String returns the value of key, or def when unset or empty.
func String(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

// Int returns key parsed as an integer, or def when unset or malformed.
func Int(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// Duration returns key parsed with time.ParseDuration, or def when unset or
// malformed.
func Duration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// Bool returns true only when key is "true" or "1".
func Bool(key string) bool {
	switch os.Getenv(key) {
	case "true", "1":
		return true
	default:
		return false
	}
}
