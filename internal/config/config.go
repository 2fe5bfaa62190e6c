// Package config loads filefinder settings from defaults, a YAML file,
// FILEFINDER_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Backend modes
const (
	ModeLocal = "local" // In-process stand-in backend
	ModeHTTP  = "http"  // Native host reached over HTTP
)

// Default values
const (
	DefaultMode      = ModeLocal
	DefaultURL       = "http://127.0.0.1:7878"
	DefaultServeAddr = "127.0.0.1:7878"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Config is the typed view of the merged configuration.
type Config struct {
	Backend BackendConfig
	Log     LogConfig
	UI      UIConfig
	Serve   ServeConfig
}

// BackendConfig selects and configures the backend transport.
type BackendConfig struct {
	Mode    string
	URL     string
	Timeout time.Duration // 0 means no client-side timeout
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string
	Format string
	File   string // empty means the default cache-dir log file
}

// UIConfig configures the terminal UI.
type UIConfig struct {
	AltScreen bool
	ASCII     bool
}

// ServeConfig configures `filefinder serve`.
type ServeConfig struct {
	Addr string
}

// SetViperDefaults sets all default configuration values in Viper
func SetViperDefaults(v *viper.Viper) {
	v.SetDefault("backend.mode", DefaultMode)
	v.SetDefault("backend.url", DefaultURL)
	v.SetDefault("backend.timeout", "0s")

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("log.file", "")

	v.SetDefault("ui.alt_screen", true)
	v.SetDefault("ui.ascii", false)

	v.SetDefault("serve.addr", DefaultServeAddr)
}

// Setup prepares a viper instance: defaults, config file search paths and
// FILEFINDER_ environment overrides (FILEFINDER_BACKEND_MODE, ...).
func Setup(v *viper.Viper) {
	SetViperDefaults(v)

	v.SetConfigName("filefinder")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(filepath.Join(xdg.ConfigHome, "filefinder"))

	v.SetEnvPrefix("FILEFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// ReadFile reads the config file if one exists. A missing file is not an error.
func ReadFile(v *viper.Viper, explicitPath string) error {
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Load builds and validates a Config from v.
func Load(v *viper.Viper) (*Config, error) {
	timeout, err := time.ParseDuration(v.GetString("backend.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend.timeout: %w", err)
	}

	cfg := &Config{
		Backend: BackendConfig{
			Mode:    v.GetString("backend.mode"),
			URL:     v.GetString("backend.url"),
			Timeout: timeout,
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			File:   v.GetString("log.file"),
		},
		UI: UIConfig{
			AltScreen: v.GetBool("ui.alt_screen"),
			ASCII:     v.GetBool("ui.ascii"),
		},
		Serve: ServeConfig{
			Addr: v.GetString("serve.addr"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Backend.Mode {
	case ModeLocal:
	case ModeHTTP:
		if c.Backend.URL == "" {
			return fmt.Errorf("backend.url is required when backend.mode is %q", ModeHTTP)
		}
	default:
		return fmt.Errorf("unknown backend.mode %q (want %q or %q)", c.Backend.Mode, ModeLocal, ModeHTTP)
	}

	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend.timeout must not be negative")
	}
	return nil
}
