// Package config reads service settings. Keys are dotted paths into the
// YAML document, e.g. "storage.driver".
package config

import (
	"io"
	"time"
)

// Config is the read side of the settings file. Getters return the zero
// value for missing or unconvertible keys.
type Config interface {
	io.Closer

	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetInt32(key string) int32
	GetFloat64(key string) float64

	// GetSecond reads an integer count of seconds.
	GetSecond(key string) time.Duration

	// GetBinary reads a base64 string.
	GetBinary(key string) []byte

	// GetArray accepts a YAML sequence or a comma separated string.
	GetArray(key string) []string

	// Unmarshal decodes the subtree at key using mapstructure tags. It
	// returns ErrKeyNotFound when key is absent.
	Unmarshal(key string, out any) error
}
