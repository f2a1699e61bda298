package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	ErrKeyNotFound   = errors.New("config: key not found")
	ErrMissingFormat = errors.New("config: format is required")
)

// Viper implements Config on top of spf13/viper.
type Viper struct {
	v *viper.Viper
}

// NewViper reads the file at path and reloads it whenever it changes on
// disk. The format follows the file extension.
func NewViper(path string) (*Viper, error) {
	v := viper.New()
	v.SetConfigFile(filepath.Clean(path))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if err := v.ReadInConfig(); err != nil {
			slog.Error("config reload failed", "path", e.Name, "op", e.Op.String(), "error", err)
			return
		}
		slog.Info("config reloaded", "path", e.Name)
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes parses an in-memory document of the given format
// ("yaml", "json", "toml", ...). Nothing is watched.
func NewViperFromBytes(format string, data []byte) (*Viper, error) {
	if strings.TrimSpace(format) == "" {
		return nil, ErrMissingFormat
	}

	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", format, err)
	}

	return &Viper{v: v}, nil
}

func (c *Viper) GetString(key string) string   { return c.v.GetString(key) }
func (c *Viper) GetBool(key string) bool       { return c.v.GetBool(key) }
func (c *Viper) GetInt(key string) int         { return c.v.GetInt(key) }
func (c *Viper) GetInt32(key string) int32     { return c.v.GetInt32(key) }
func (c *Viper) GetFloat64(key string) float64 { return c.v.GetFloat64(key) }

func (c *Viper) GetSecond(key string) time.Duration {
	return time.Duration(c.v.GetInt64(key)) * time.Second
}

func (c *Viper) GetBinary(key string) []byte {
	raw := strings.TrimSpace(c.v.GetString(key))
	if raw == "" {
		return nil
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}

	return data
}

func (c *Viper) GetArray(key string) []string {
	var items []string
	switch c.v.Get(key).(type) {
	case []any, []string:
		items = c.v.GetStringSlice(key)
	default:
		items = strings.Split(c.v.GetString(key), ",")
	}

	out := items[:0]
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}

func (c *Viper) Unmarshal(key string, out any) error {
	if !c.v.IsSet(key) {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	return c.v.UnmarshalKey(key, out)
}

// Close is a no-op; the file watcher lives for the process.
func (c *Viper) Close() error { return nil }
