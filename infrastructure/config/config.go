package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as "15s" or "2m" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// BackendConfig points at the billing backend.
type BackendConfig struct {
	BaseURL   string   `yaml:"base_url"`
	Timeout   Duration `yaml:"timeout"`
	JWTSecret string   `yaml:"jwt_secret"`
}

type WizardConfig struct {
	LoadTimeout Duration `yaml:"load_timeout"`
}

// Config is the console configuration.
type Config struct {
	Addr          string        `yaml:"addr"`
	SQLitePath    string        `yaml:"sqlite_path"`
	MigrationsDir string        `yaml:"migrations_dir"`
	LogLevel      string        `yaml:"log_level"`
	Backend       BackendConfig `yaml:"backend"`
	Wizard        WizardConfig  `yaml:"wizard"`
}

// Load reads environment defaults and overlays the YAML file named by
// CONDOWATER_CONFIG, when set.
func Load() (Config, error) {
	cfg := Config{
		Addr:          getenvDefault("APP_ADDR", ":8080"),
		SQLitePath:    getenvDefault("SQLITE_PATH", "condowater.db"),
		MigrationsDir: os.Getenv("MIGRATIONS_DIR"),
		LogLevel:      getenvDefault("LOG_LEVEL", "info"),
		Backend: BackendConfig{
			BaseURL:   getenvDefault("BACKEND_URL", "http://127.0.0.1:5000"),
			Timeout:   Duration(getenvDurationDefault("BACKEND_TIMEOUT", 30*time.Second)),
			JWTSecret: os.Getenv("BACKEND_JWT_SECRET"),
		},
		Wizard: WizardConfig{
			LoadTimeout: Duration(getenvDurationDefault("WIZARD_LOAD_TIMEOUT", 15*time.Second)),
		},
	}

	if path := os.Getenv("CONDOWATER_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("config: backend base_url is required")
	}
	if strings.TrimSpace(c.SQLitePath) == "" {
		return errors.New("config: sqlite_path is required")
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("config: backend timeout must be positive")
	}
	if c.Wizard.LoadTimeout <= 0 {
		return errors.New("config: wizard load_timeout must be positive")
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDurationDefault(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
