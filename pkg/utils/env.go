package utils

import (
	"os"
	"strconv"
	"time"
)

// Getenv retrieves the value of the environment variable named by the key.
// If the variable is not present or its value is empty, Getenv returns the fallback string.
func Getenv(key, fallback string) string {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	return value
}

// GetenvInt parses an integer environment variable, returning fallback when unset or malformed.
func GetenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// GetenvDuration accepts Go duration strings ("15s", "10m") or a bare number of seconds.
func GetenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		if secs, convErr := strconv.Atoi(value); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return fallback
	}
	return d
}
