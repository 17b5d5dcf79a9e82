// Package config handles the configuration directory and application settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"ganttview/internal/service"
)

const (
	// AppName is the application directory name.
	AppName = "ganttview"

	// CredentialsFile is the CLI's stored Basecamp credentials filename.
	CredentialsFile = "credentials.json"

	// SettingsFile is the optional settings filename inside the config dir.
	SettingsFile = "config.yaml"

	// DefaultSessionSecret is the development session secret.
	DefaultSessionSecret = "dev-secret-change-in-production"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Settings are the merged application settings.
	Settings Settings
}

// Settings are read from defaults, then config.yaml, then .env and the
// process environment. Nested keys map to upper-case env names with
// underscores (basecamp.client_id -> BASECAMP_CLIENT_ID).
type Settings struct {
	Port          string   `mapstructure:"port"`
	Env           string   `mapstructure:"env"`
	AppURL        string   `mapstructure:"app_url"`
	SessionSecret string   `mapstructure:"session_secret"`
	Log           Log      `mapstructure:"log"`
	Google        Google   `mapstructure:"google"`
	Basecamp      Basecamp `mapstructure:"basecamp"`
}

// Log settings.
type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Google OAuth application settings.
type Google struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	CallbackURL  string `mapstructure:"callback_url"`
}

// Basecamp OAuth application and API settings.
type Basecamp struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	CallbackURL  string `mapstructure:"callback_url"`
	Product      string `mapstructure:"product"`
	UserAgent    string `mapstructure:"user_agent"`
	APIURL       string `mapstructure:"api_url"`
	LaunchpadURL string `mapstructure:"launchpad_url"`
}

var defaults = map[string]any{
	"port":                   "3000",
	"env":                    "development",
	"app_url":                "http://localhost:3000",
	"session_secret":         DefaultSessionSecret,
	"log.level":              "info",
	"log.file":               "",
	"google.client_id":       "",
	"google.client_secret":   "",
	"google.callback_url":    "http://localhost:3000/auth/google/callback",
	"basecamp.client_id":     "",
	"basecamp.client_secret": "",
	"basecamp.callback_url":  "http://localhost:3000/auth/basecamp/callback",
	"basecamp.product":       service.DefaultProduct,
	"basecamp.user_agent":    "",
	"basecamp.api_url":       "",
	"basecamp.launchpad_url": "",
}

// New creates a new Config with the default or specified config directory
// and loads settings. If configDir is empty, uses XDG_CONFIG_HOME/ganttview
// or $HOME/.config/ganttview.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	settings, err := LoadSettings(filepath.Join(dir, SettingsFile))
	if err != nil {
		return nil, err
	}
	return &Config{Dir: dir, Settings: settings}, nil
}

// LoadSettings merges defaults, the settings file (if present), .env in the
// working directory (if present) and the environment.
func LoadSettings(settingsPath string) (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("env", "APP_ENV", "NODE_ENV"); err != nil {
		return Settings{}, err
	}

	if _, err := os.Stat(settingsPath); err == nil {
		v.SetConfigFile(settingsPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("invalid %s: %w", settingsPath, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// IsProduction reports whether the app runs in production mode.
func (s Settings) IsProduction() bool {
	return s.Env == "production"
}

// UsesDefaultSecret reports whether the development session secret is in use.
func (s Settings) UsesDefaultSecret() bool {
	return s.SessionSecret == "" || s.SessionSecret == DefaultSessionSecret
}

// Addr returns the listen address for the web server.
func (s Settings) Addr() string {
	return ":" + s.Port
}

// CredentialsPath returns the path to the stored Basecamp credentials.
func (c *Config) CredentialsPath() string {
	return filepath.Join(c.Dir, CredentialsFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasCredentials checks if the credentials file exists.
func (c *Config) HasCredentials() bool {
	_, err := os.Stat(c.CredentialsPath())
	return err == nil
}

// RemoveCredentials deletes the credentials file.
func (c *Config) RemoveCredentials() error {
	return os.Remove(c.CredentialsPath())
}

// HasBasecampApp reports whether Basecamp OAuth application credentials are configured.
func (c *Config) HasBasecampApp() bool {
	return c.Settings.Basecamp.ClientID != "" && c.Settings.Basecamp.ClientSecret != ""
}
