package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Environment variables that override the file.
const (
	EnvActiveEnv     = "CADENCE_ACTIVE_ENV"
	EnvConsoleLogger = "CADENCE_CONSOLE_LOGGER"
	EnvAPIURL        = "CADENCE_API_URL"
)

// Profile names.
const (
	Staging    = "STAGING"
	Production = "PRODUCTION"
)

// Profile is the per-environment service location.
type Profile struct {
	BaseURL   string `toml:"base_url"`
	PublicURL string `toml:"public_url"`
}

// Config is the resolved runtime configuration.
type Config struct {
	ActiveEnv     string
	APIURL        string
	PublicURL     string
	ConsoleLogger bool
	LogFile       string
	LogTimezone   string
	SessionFile   string
	ListenAddr    string
}

const (
	defaultConfigPath  = "~/.config/cadence/config.toml"
	defaultLogFile     = "~/.server_logs/logger.logs"
	defaultTimezone    = "Asia/Kolkata"
	defaultSessionFile = "~/.config/cadence/session.toml"
	defaultListenAddr  = "127.0.0.1:3000"
	defaultBaseURL     = "http://127.0.0.1:8000"
)

var defaultProfiles = map[string]Profile{
	Staging:    {BaseURL: defaultBaseURL, PublicURL: "http://localhost:3000"},
	Production: {BaseURL: defaultBaseURL, PublicURL: "http://0.0.0.0:3000"},
}

type fileConfig struct {
	ActiveEnv     string             `toml:"active_env"`
	ConsoleLogger *bool              `toml:"console_logger"`
	APIURL        string             `toml:"api_url"`
	LogFile       string             `toml:"log_file"`
	LogTimezone   string             `toml:"log_timezone"`
	SessionFile   string             `toml:"session_file"`
	ListenAddr    string             `toml:"listen_addr"`
	Profiles      map[string]Profile `toml:"profiles"`
}

// Load reads the config file, falling back to defaults when it is missing,
// then applies environment overrides. Malformed environment values are
// ignored.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw fileConfig
	file, err := os.Open(resolved)
	switch {
	case err == nil:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	return resolve(raw), nil
}

func resolve(raw fileConfig) Config {
	cfg := Config{
		ActiveEnv:   normalizeEnv(raw.ActiveEnv),
		LogFile:     orDefault(raw.LogFile, defaultLogFile),
		LogTimezone: orDefault(raw.LogTimezone, defaultTimezone),
		SessionFile: orDefault(raw.SessionFile, defaultSessionFile),
		ListenAddr:  orDefault(raw.ListenAddr, defaultListenAddr),
	}
	if raw.ConsoleLogger != nil {
		cfg.ConsoleLogger = *raw.ConsoleLogger
	}

	if env, ok := os.LookupEnv(EnvActiveEnv); ok && strings.TrimSpace(env) != "" {
		cfg.ActiveEnv = normalizeEnv(env)
	}
	if v, ok := os.LookupEnv(EnvConsoleLogger); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.ConsoleLogger = parsed
		}
	}

	profile := defaultProfiles[cfg.ActiveEnv]
	if custom, ok := raw.Profiles[cfg.ActiveEnv]; ok {
		if u := strings.TrimSpace(custom.BaseURL); u != "" {
			profile.BaseURL = u
		}
		if u := strings.TrimSpace(custom.PublicURL); u != "" {
			profile.PublicURL = u
		}
	}
	cfg.PublicURL = profile.PublicURL
	cfg.APIURL = profile.BaseURL
	if u := strings.TrimSpace(raw.APIURL); u != "" {
		cfg.APIURL = u
	}
	if u := strings.TrimSpace(os.Getenv(EnvAPIURL)); u != "" {
		cfg.APIURL = u
	}

	cfg.LogFile = mustExpand(cfg.LogFile)
	cfg.SessionFile = mustExpand(cfg.SessionFile)
	return cfg
}

// Hostname identifies this process in log records: the profile's public
// URL, else the machine hostname.
func (c Config) Hostname() string {
	if c.PublicURL != "" {
		return c.PublicURL
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

// IsProduction reports whether the production profile is active.
func (c Config) IsProduction() bool { return c.ActiveEnv == Production }

func normalizeEnv(env string) string {
	switch strings.ToUpper(strings.TrimSpace(env)) {
	case Production:
		return Production
	default:
		return Staging
	}
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
