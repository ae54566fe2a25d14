// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for pulsechat.
//
// Configuration lives in ~/.pulsechat/config.toml, with sensible defaults
// and environment variable overrides applied last.
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/pulsechat-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete pulsechat configuration.
type Config struct {
	Version string `toml:"version"`

	Server ServerConfig `toml:"server"`
	Auth   AuthConfig   `toml:"auth"`
	Cache  CacheConfig  `toml:"cache"`
	UI     UIConfig     `toml:"ui"`
}

// ServerConfig points the client at a chat backend.
type ServerConfig struct {
	// BaseURL is the REST endpoint, e.g. https://chat.example.com/api
	BaseURL string `toml:"base_url"`
	// SocketURL is the websocket endpoint. Empty = derived from BaseURL
	// (scheme swapped to ws/wss, path replaced with /ws).
	SocketURL string `toml:"socket_url"`
	// TimeoutSecs bounds individual REST requests.
	TimeoutSecs int `toml:"timeout_secs"`
}

// AuthConfig carries persisted credentials.
type AuthConfig struct {
	// Token is the bearer token from the last sign-in. Prefer the
	// PULSECHAT_TOKEN env var on shared machines.
	Token string `toml:"token"`
	// Email is pre-filled on the login screen.
	Email string `toml:"email"`
	// IdleTimeoutMins signs the user out after this much inactivity.
	// 0 disables auto-signout.
	IdleTimeoutMins int `toml:"idle_timeout_mins"`
}

// CacheConfig controls the local sqlite cache.
type CacheConfig struct {
	// Enabled controls whether chats are cached locally at all.
	Enabled bool `toml:"enabled"`
	// Path overrides the cache database location (default ~/.pulsechat/cache.db).
	Path string `toml:"path"`
	// MaxMessagesPerChat caps how much history is kept per chat.
	MaxMessagesPerChat int `toml:"max_messages_per_chat"`
}

// UIConfig contains UI preferences. These reload live when the config
// file changes; everything else requires a restart.
type UIConfig struct {
	// Theme is "dark", "light", or "auto".
	Theme string `toml:"theme"`
	// ShowTimestamps renders a timestamp next to every message.
	ShowTimestamps bool `toml:"show_timestamps"`
	// CompactMode collapses message padding.
	CompactMode bool `toml:"compact_mode"`
	// MarkdownWidth is the wrap width for rendered AI messages.
	MarkdownWidth int `toml:"markdown_width"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Server: ServerConfig{
			BaseURL:     "",
			SocketURL:   "",
			TimeoutSecs: 30,
		},
		Auth: AuthConfig{
			IdleTimeoutMins: 0,
		},
		Cache: CacheConfig{
			Enabled:            true,
			MaxMessagesPerChat: 500,
		},
		UI: UIConfig{
			Theme:          "dark",
			ShowTimestamps: true,
			CompactMode:    false,
			MarkdownWidth:  80,
		},
	}
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// Dir returns the pulsechat configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".pulsechat"), nil
}

// Path returns the path to the TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureDir ensures the config directory exists.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions fixes permissions on the config file.
// The file holds the auth token, so it must stay 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load loads configuration from ~/.pulsechat/config.toml, falling back to
// defaults when the file does not exist. Environment overrides and
// validation are applied either way.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file with validation.
func LoadFromPath(path string) (*Config, error) {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills any missing values with defaults.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = defaults.Server.TimeoutSecs
	}
	if c.Cache.MaxMessagesPerChat == 0 {
		c.Cache.MaxMessagesPerChat = defaults.Cache.MaxMessagesPerChat
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.MarkdownWidth == 0 {
		c.UI.MarkdownWidth = defaults.UI.MarkdownWidth
	}
}

// Save saves the configuration to the default TOML file with 0600
// permissions (the file holds the auth token).
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file. The write is atomic so
// a crash mid-save cannot corrupt the file, and so the config watcher sees
// one rename instead of a stream of partial writes.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# pulsechat configuration file")
	fmt.Fprintln(&buf, "# Generated by pulsechat - edit with care")
	fmt.Fprintln(&buf)

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Server.BaseURL != "" {
		if u, err := url.Parse(c.Server.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, ValidationError{
				Field:   "server.base_url",
				Message: fmt.Sprintf("must be an http(s) URL, got %q", c.Server.BaseURL),
			})
		}
	}
	if c.Server.SocketURL != "" {
		if u, err := url.Parse(c.Server.SocketURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			errs = append(errs, ValidationError{
				Field:   "server.socket_url",
				Message: fmt.Sprintf("must be a ws(s) URL, got %q", c.Server.SocketURL),
			})
		}
	}
	if c.Server.TimeoutSecs < 1 || c.Server.TimeoutSecs > 300 {
		errs = append(errs, ValidationError{
			Field:   "server.timeout_secs",
			Message: fmt.Sprintf("must be 1-300, got %d", c.Server.TimeoutSecs),
		})
	}

	if c.Auth.IdleTimeoutMins < 0 {
		errs = append(errs, ValidationError{
			Field:   "auth.idle_timeout_mins",
			Message: "must be non-negative",
		})
	}

	if c.Cache.MaxMessagesPerChat < 0 {
		errs = append(errs, ValidationError{
			Field:   "cache.max_messages_per_chat",
			Message: "must be non-negative",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}
	if c.UI.MarkdownWidth < 20 || c.UI.MarkdownWidth > 300 {
		errs = append(errs, ValidationError{
			Field:   "ui.markdown_width",
			Message: fmt.Sprintf("must be 20-300, got %d", c.UI.MarkdownWidth),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - PULSECHAT_SERVER_URL: overrides server.base_url
//   - PULSECHAT_SOCKET_URL: overrides server.socket_url
//   - PULSECHAT_TOKEN: overrides auth.token
//   - PULSECHAT_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PULSECHAT_SERVER_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("PULSECHAT_SOCKET_URL"); v != "" {
		c.Server.SocketURL = v
	}
	if v := os.Getenv("PULSECHAT_TOKEN"); v != "" {
		c.Auth.Token = v
	}
	if v := os.Getenv("PULSECHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// ResolveSocketURL returns the websocket endpoint, deriving it from the
// REST base URL when server.socket_url is not set.
func (c *Config) ResolveSocketURL() string {
	if c.Server.SocketURL != "" {
		return c.Server.SocketURL
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Host == "" {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = ""
	return u.String()
}

// CachePath returns the sqlite cache location.
func (c *Config) CachePath() (string, error) {
	if c.Cache.Path != "" {
		return c.Cache.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache.db"), nil
}
