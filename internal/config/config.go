package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bunchhieng/sticky/internal/logger"
	"gopkg.in/yaml.v3"
)

// Config holds the settings read from config.yaml and the environment.
type Config struct {
	DBPath          string   `yaml:"db_path"`          // sqlite file, ":memory:" for a throwaway store
	LogLevel        string   `yaml:"log_level"`        // "debug" | "info" | "warn" | "error"
	PrettyLog       bool     `yaml:"pretty_log"`       // true => zap dev (color), false => zap prod (JSON)
	LogFile         string   `yaml:"log_file"`         // empty => stderr
	Schemes         []string `yaml:"schemes"`          // URL schemes the host can open
	DefaultCategory string   `yaml:"default_category"` // category selected on start
}

// DefaultSchemes are the URL schemes treated as openable when none are configured.
var DefaultSchemes = []string{"http", "https", "ftp", "mailto", "file"}

// Dir returns the platform config directory for sticky.
func Dir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "sticky"), nil
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Default returns the configuration used when no file is present.
func Default() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return &Config{
		DBPath:    filepath.Join(dir, "links.db"),
		LogLevel:  "warn",
		PrettyLog: true,
		Schemes:   append([]string(nil), DefaultSchemes...),
	}, nil
}

// Load reads path over the defaults and applies STICKY_* environment overrides.
// An empty path means <config dir>/config.yaml, which may be absent.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.DBPath = getenv("STICKY_DB_PATH", cfg.DBPath)
	cfg.LogLevel = getenv("STICKY_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getenv("STICKY_LOG_FILE", cfg.LogFile)
	cfg.DefaultCategory = getenv("STICKY_CATEGORY", cfg.DefaultCategory)
	if cfg.PrettyLog, err = getenvBool("STICKY_PRETTY_LOG", cfg.PrettyLog); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values and normalizes schemes to lower case.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if len(c.Schemes) == 0 {
		c.Schemes = append([]string(nil), DefaultSchemes...)
	}
	for i, s := range c.Schemes {
		c.Schemes[i] = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), ":"))
	}
	return nil
}

// ErrExists is returned by Init when the config file is already present.
var ErrExists = errors.New("config file already exists")

// Init writes the default configuration to path, or DefaultPath when path is empty.
// An existing file is never overwritten.
func Init(path string) (string, *Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return "", nil, err
		}
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil, fmt.Errorf("%w: %s", ErrExists, path)
	}
	cfg, err := Default()
	if err != nil {
		return path, nil, err
	}
	if err := cfg.Write(path); err != nil {
		return path, nil, err
	}
	return path, cfg, nil
}

// Write stores the configuration as YAML, creating the directory if needed.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid boolean value for %s: %s", key, v)
	}
	return b, nil
}
