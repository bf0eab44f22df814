// ABOUTME: Configuration management for jot with YAML config loading.
// ABOUTME: Handles backend selection, remote API settings, local paths, env overrides and ~ expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backend names accepted by the backend setting.
const (
	BackendRemote   = "remote"
	BackendSQLite   = "sqlite"
	BackendMarkdown = "markdown"
)

// DefaultServerAddr is where jot serve listens when server.addr is unset.
const DefaultServerAddr = ":8080"

// Config stores jot configuration loaded from ~/.config/jot/config.yaml.
type Config struct {
	Backend string        `yaml:"backend,omitempty" validate:"omitempty,oneof=remote sqlite markdown"`
	Remote  RemoteConfig  `yaml:"remote"`
	Local   LocalConfig   `yaml:"local"`
	Session SessionConfig `yaml:"session"`
	Journal JournalConfig `yaml:"journal"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
}

// RemoteConfig holds the remote entry API settings.
type RemoteConfig struct {
	APIURL string `yaml:"api_url,omitempty" validate:"omitempty,url"`
	APIKey string `yaml:"api_key,omitempty"`
}

// LocalConfig holds optional path overrides for the local backends.
type LocalConfig struct {
	SQLitePath   string `yaml:"sqlite_path,omitempty"`
	MarkdownPath string `yaml:"markdown_path,omitempty"`
}

// SessionConfig holds the session file location.
type SessionConfig struct {
	Path string `yaml:"path,omitempty"`
}

// JournalConfig holds entry list behavior.
type JournalConfig struct {
	InsertPolicy string `yaml:"insert_policy,omitempty" validate:"omitempty,oneof=prepend sorted"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	Format     string `yaml:"format,omitempty" validate:"omitempty,oneof=pretty json"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" validate:"min=0"`
	MaxBackups int    `yaml:"max_backups,omitempty" validate:"min=0"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty" validate:"min=0"`
}

// ServerConfig holds settings for jot serve.
type ServerConfig struct {
	Addr    string `yaml:"addr,omitempty"`
	APIKey  string `yaml:"api_key,omitempty"`
	Backend string `yaml:"backend,omitempty" validate:"omitempty,oneof=sqlite markdown"`
}

// HasRemote returns true if the remote API is configured.
func (c *Config) HasRemote() bool {
	return c.Remote.APIKey != "" && c.Remote.APIURL != ""
}

// ResolvedBackend returns the backend in effect: the configured one, else
// remote when credentials exist, else sqlite.
func (c *Config) ResolvedBackend() string {
	if c.Backend != "" {
		return c.Backend
	}
	if c.HasRemote() {
		return BackendRemote
	}
	return BackendSQLite
}

// ResolvedServerBackend returns the storage backend for jot serve, defaulting to sqlite.
func (c *Config) ResolvedServerBackend() string {
	if c.Server.Backend != "" {
		return c.Server.Backend
	}
	return BackendSQLite
}

// ServerAddr returns the listen address for jot serve.
func (c *Config) ServerAddr() string {
	if c.Server.Addr != "" {
		return c.Server.Addr
	}
	return DefaultServerAddr
}

// GetSQLitePath returns the SQLite database path, defaulting to <data>/jot.db.
func (c *Config) GetSQLitePath() (string, error) {
	return pathOr(c.Local.SQLitePath, "jot.db")
}

// GetMarkdownPath returns the markdown entry root, defaulting to <data>/entries.
func (c *Config) GetMarkdownPath() (string, error) {
	return pathOr(c.Local.MarkdownPath, "entries")
}

// GetSessionPath returns the session file path, defaulting to <data>/session.yaml.
func (c *Config) GetSessionPath() (string, error) {
	return pathOr(c.Session.Path, "session.yaml")
}

// GetLogFile returns the expanded log file path, or "" when file logging is off.
func (c *Config) GetLogFile() (string, error) {
	return ExpandPath(c.Log.File)
}

// DefaultLogFile returns <data>/jot.log, used when the UI owns the terminal.
func DefaultLogFile() (string, error) {
	return pathOr("", "jot.log")
}

func pathOr(override, name string) (string, error) {
	if override != "" {
		return ExpandPath(override)
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// DataDir returns the jot data directory.
func DataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "jot"), nil
}

// GetConfigPath returns the config file path.
func GetConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "jot", "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Environment variables that override file settings.
const (
	EnvAPIURL       = "JOT_API_URL"
	EnvAPIKey       = "JOT_API_KEY"
	EnvServerAPIKey = "JOT_SERVER_API_KEY"
	EnvBackend      = "JOT_BACKEND"
	EnvLogLevel     = "JOT_LOG_LEVEL"
)

// ApplyEnv overlays non-empty environment overrides onto c.
func (c *Config) ApplyEnv() {
	overrides := []struct {
		env    string
		target *string
	}{
		{EnvAPIURL, &c.Remote.APIURL},
		{EnvAPIKey, &c.Remote.APIKey},
		{EnvServerAPIKey, &c.Server.APIKey},
		{EnvBackend, &c.Backend},
		{EnvLogLevel, &c.Log.Level},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.target = v
		}
	}
}

// Load reads config from disk and applies environment overrides.
func Load() (*Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFile reads config from disk only. Returns default config if the file doesn't exist.
func LoadFile() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
