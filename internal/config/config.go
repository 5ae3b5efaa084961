package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/calendr/internal/prefs"
)

// Environment overrides, read after an optional .env file.
const (
	EnvConfigPath = "CALENDR_CONFIG"
	EnvLogLevel   = "CALENDR_LOG_LEVEL"
)

const defaultSchedule = "* * * * *"

// Config is the startup configuration. User preferences that change from
// the UI live in the prefs database instead.
type Config struct {
	// DBPath is the SQLite preferences database.
	DBPath string `yaml:"db_path"`

	// LogFile receives logs while the terminal UI owns the screen.
	LogFile string `yaml:"log_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// ReminderSchedule is the cron spec for headless reminder checks.
	ReminderSchedule string `yaml:"reminder_schedule"`

	// EventsDir resolves relative paths typed into file prompts.
	EventsDir string `yaml:"events_dir"`
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "calendr")
}

// DefaultPath returns ~/.config/calendr/config.yaml
func DefaultPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func DefaultConfig() *Config {
	dir := configDir()
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dbPath, err := prefs.DefaultDBPath()
	if err != nil {
		dbPath = filepath.Join(dir, "calendr.db")
	}
	return &Config{
		DBPath:           dbPath,
		LogFile:          filepath.Join(dir, "calendr.log"),
		LogLevel:         "info",
		ReminderSchedule: defaultSchedule,
		EventsDir:        home,
	}
}

// Normalize fills zero values with defaults and resets invalid ones.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	if c.LogFile == "" {
		c.LogFile = def.LogFile
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = def.LogLevel
	}
	if c.ReminderSchedule == "" {
		c.ReminderSchedule = def.ReminderSchedule
	}
	if _, err := cron.ParseStandard(c.ReminderSchedule); err != nil {
		c.ReminderSchedule = def.ReminderSchedule
	}
	if c.EventsDir == "" {
		c.EventsDir = def.EventsDir
	}
}

// ResolvePath makes p absolute relative to EventsDir and expands a leading ~.
func (c *Config) ResolvePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.EventsDir, p)
	}
	return filepath.Clean(p)
}

// LoadEnv reads .env from the working directory when present. A missing
// file is not an error.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// PathFromEnv returns CALENDR_CONFIG, or fallback when unset.
func PathFromEnv(fallback string) string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return fallback
}

// Load reads the YAML config at path. On first run a default config is
// written there with 0600 permissions and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.Normalize()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		c.LogLevel = lvl
		c.Normalize()
	}
}

// Save writes cfg to path atomically via a temp file and rename.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".calendr-config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
