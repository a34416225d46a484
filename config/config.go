package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const appName = "saneamento-dashboard"

// Config holds the settings of every command.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Boundary  BoundaryConfig  `yaml:"boundary"`
	Logging   LoggingConfig   `yaml:"logging"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// SourceConfig points at the SIDRA values endpoint.
type SourceConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"` // Go duration, e.g. "30s"
}

type BoundaryConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // dashboard log file; empty means the user cache dir
}

// DashboardConfig sets the initial selections of the interactive dashboard.
type DashboardConfig struct {
	State   string `yaml:"state"`
	Disease string `yaml:"disease"`
	Theme   string `yaml:"theme"` // light, dark
	NearMe  bool   `yaml:"near_me"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			URL:     "https://apisidra.ibge.gov.br/values/t/354/g/2/v/allxp/p/all/c12963/all?formato=json",
			Timeout: "30s",
		},
		Boundary: BoundaryConfig{
			Path: "brasil_estados.json",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Dashboard: DashboardConfig{
			State:   "Acre",
			Disease: "Cólera",
			Theme:   "light",
		},
	}
}

// DefaultPath is config.yaml under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "config.yaml"), nil
}

// Load reads path on top of the defaults. A missing file is not an error.
// Environment overrides are applied either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("SANEAMENTO_SIDRA_URL")); v != "" {
		c.Source.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("SANEAMENTO_HTTP_TIMEOUT")); v != "" {
		c.Source.Timeout = v
	}
	if v := strings.TrimSpace(os.Getenv("SANEAMENTO_BOUNDARY")); v != "" {
		c.Boundary.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("SANEAMENTO_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("SANEAMENTO_STATE")); v != "" {
		c.Dashboard.State = v
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Source.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("source.url must be an http(s) URL, got %q", c.Source.URL)
	}
	if _, err := c.HTTPTimeout(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Boundary.Path) == "" {
		return errors.New("boundary.path is required")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Dashboard.Theme {
	case "light", "dark":
	default:
		return fmt.Errorf("dashboard.theme must be light or dark, got %q", c.Dashboard.Theme)
	}
	return nil
}

// HTTPTimeout parses Source.Timeout.
func (c *Config) HTTPTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(c.Source.Timeout))
	if err != nil {
		return 0, fmt.Errorf("source.timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("source.timeout must be positive, got %s", d)
	}
	return d, nil
}
