package config

import (
	"io"
	"time"
)

// Config defines the configuration lookups the application relies on.
// Implementations handle retrieval and type conversion, returning zero
// values for missing keys.
type Config interface {
	io.Closer

	// GetString retrieves the value for key as a string.
	GetString(key string) string

	// GetInt retrieves the value for key as an int.
	GetInt(key string) int

	// GetBool retrieves the value for key as a bool.
	GetBool(key string) bool

	// GetFloat64 retrieves the value for key as a float64.
	GetFloat64(key string) float64

	// GetSecond retrieves the value for key as a duration in seconds.
	GetSecond(key string) time.Duration

	// GetArray retrieves the value for key as a slice of strings.
	// Configuration value is stored with format <element1>,<element2>,...
	GetArray(key string) []string
}
