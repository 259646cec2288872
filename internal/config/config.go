// Package config loads client configuration.
//
// Priority (highest to lowest):
//  1. Environment variables with AETERNUM_ prefix (e.g. AETERNUM_API_URL)
//  2. A .env file in the working directory
//  3. config.yaml in ~/.aeternum or the working directory
//  4. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned when a loaded value fails validation.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the root client configuration.
type Config struct {
	API         APIConfig
	OpenLibrary OpenLibraryConfig
	Web         WebConfig
	Session     SessionConfig
	Log         LogConfig
}

// APIConfig points at the Aeternum backend.
type APIConfig struct {
	URL     string
	Timeout time.Duration
}

// OpenLibraryConfig points at the book-metadata provider.
type OpenLibraryConfig struct {
	URL      string
	Rate     float64 // requests per second
	CacheTTL time.Duration
}

// WebConfig points at the web frontend that hosts the legal pages and
// password reset links.
type WebConfig struct {
	URL string
}

// TermsURL is the terms of service page.
func (w WebConfig) TermsURL() string { return w.URL + "/terminos-servicio" }

// PrivacyURL is the privacy policy page.
func (w WebConfig) PrivacyURL() string { return w.URL + "/politica-privacidad" }

// SessionConfig controls token storage and the expiry check interval.
type SessionConfig struct {
	TokenFile    string
	PollInterval time.Duration
}

// LogConfig controls the log file.
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// Dir returns ~/.aeternum.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".aeternum"), nil
}

// Load reads configuration from the default locations.
func Load() (*Config, error) {
	paths := []string{"."}
	if dir, err := Dir(); err == nil {
		paths = append([]string{dir}, paths...)
	}
	return LoadFrom(paths...)
}

// LoadFrom reads configuration, looking for config.yaml in the given directories.
func LoadFrom(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: read .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config.Load: read config file: %w", err)
		}
	}

	v.SetEnvPrefix("AETERNUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		API: APIConfig{
			URL:     strings.TrimRight(v.GetString("api.url"), "/"),
			Timeout: v.GetDuration("api.timeout"),
		},
		OpenLibrary: OpenLibraryConfig{
			URL:      strings.TrimRight(v.GetString("openlibrary.url"), "/"),
			Rate:     v.GetFloat64("openlibrary.rate"),
			CacheTTL: v.GetDuration("openlibrary.cache_ttl"),
		},
		Web: WebConfig{
			URL: strings.TrimRight(v.GetString("web.url"), "/"),
		},
		Session: SessionConfig{
			TokenFile:    v.GetString("session.token_file"),
			PollInterval: v.GetDuration("session.poll_interval"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			File:   v.GetString("log.file"),
		},
	}

	if dir, err := Dir(); err == nil {
		if cfg.Session.TokenFile == "" {
			cfg.Session.TokenFile = filepath.Join(dir, "token")
		}
		if cfg.Log.File == "" {
			cfg.Log.File = filepath.Join(dir, "aeternum.log")
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", "http://127.0.0.1:8000")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("openlibrary.url", "https://openlibrary.org")
	v.SetDefault("openlibrary.rate", 2.0)
	v.SetDefault("openlibrary.cache_ttl", 5*time.Minute)
	v.SetDefault("web.url", "http://localhost:5173")
	v.SetDefault("session.token_file", "")
	v.SetDefault("session.poll_interval", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
}

func (c *Config) validate() error {
	for name, raw := range map[string]string{
		"api.url":         c.API.URL,
		"openlibrary.url": c.OpenLibrary.URL,
		"web.url":         c.Web.URL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s must be an absolute URL, got %q", ErrInvalidConfig, name, raw)
		}
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("%w: api.timeout must be positive", ErrInvalidConfig)
	}
	if c.Session.PollInterval <= 0 {
		return fmt.Errorf("%w: session.poll_interval must be positive", ErrInvalidConfig)
	}
	if c.OpenLibrary.Rate <= 0 {
		return fmt.Errorf("%w: openlibrary.rate must be positive", ErrInvalidConfig)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log.format must be json or console, got %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}
