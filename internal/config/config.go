// Package config loads formkit settings from FORMKIT_* environment variables,
// an optional .env file and an optional YAML config file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "FORMKIT"

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

var (
	ErrAPIURLRequired      = errors.New("config: FORMKIT_API_URL is required")
	ErrUnknownCacheBackend = errors.New("config: unknown cache backend")
	ErrNegativeDuration    = errors.New("config: durations must not be negative")
)

type Config struct {
	APIURL       string        `mapstructure:"api_url"`
	Token        string        `mapstructure:"token"`
	Timeout      time.Duration `mapstructure:"timeout"`
	EntityID     int           `mapstructure:"entity_id"`
	Locale       string        `mapstructure:"locale"`
	Debounce     time.Duration `mapstructure:"debounce"`
	CacheBackend string        `mapstructure:"cache_backend"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	RedisAddr    string        `mapstructure:"redis_addr"`
	LogLevel     string        `mapstructure:"log_level"`
	LogFormat    string        `mapstructure:"log_format"`
	Listen       string        `mapstructure:"listen"`
}

var defaults = map[string]any{
	"api_url":       "",
	"token":         "",
	"timeout":       "10s",
	"entity_id":     0,
	"locale":        "en",
	"debounce":      "300ms",
	"cache_backend": CacheMemory,
	"cache_ttl":     "0s",
	"redis_addr":    "localhost:6379",
	"log_level":     "info",
	"log_format":    "console",
	"listen":        ":8088",
}

// Load resolves the configuration. Precedence, highest first: process
// environment, env files, the YAML file at path, defaults. When no env files
// are given ".env" is tried; missing env files are ignored.
func Load(path string, envFiles ...string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
		_ = v.BindEnv(key)
	}

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := applyEnvFiles(v, envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// applyEnvFiles sets FORMKIT_* entries from env files unless the process
// environment already defines them. The process environment is not modified.
func applyEnvFiles(v *viper.Viper, files []string) error {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		values, err := godotenv.Read(file)
		if err != nil {
			return fmt.Errorf("config: read %s: %w", file, err)
		}
		for name, value := range values {
			if !strings.HasPrefix(name, envPrefix+"_") {
				continue
			}
			if _, ok := os.LookupEnv(name); ok {
				continue
			}
			key := strings.ToLower(strings.TrimPrefix(name, envPrefix+"_"))
			v.Set(key, value)
		}
	}
	return nil
}

func (c *Config) normalize() {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	c.CacheBackend = strings.ToLower(strings.TrimSpace(c.CacheBackend))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Locale = strings.TrimSpace(c.Locale)
}

// Validate reports configuration that cannot produce a working client.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return ErrAPIURLRequired
	}
	if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: FORMKIT_API_URL %q is not an absolute URL", c.APIURL)
	}
	switch c.CacheBackend {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCacheBackend, c.CacheBackend)
	}
	if c.CacheTTL < 0 || c.Timeout < 0 || c.Debounce < 0 {
		return ErrNegativeDuration
	}
	if c.CacheBackend == CacheRedis && strings.TrimSpace(c.RedisAddr) == "" {
		return errors.New("config: FORMKIT_REDIS_ADDR is required for the redis cache")
	}
	return nil
}
