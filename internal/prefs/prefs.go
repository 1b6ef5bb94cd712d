// Package prefs persists dashboard preferences in
// ~/.config/cadence/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds what the dashboard remembers between sessions.
type Prefs struct {
	Theme          string `toml:"theme"`
	PageSize       int    `toml:"page_size"`
	RefreshSeconds int    `toml:"refresh_seconds"`
}

const (
	defaultPrefsPath      = "~/.config/cadence/prefs.toml"
	defaultTheme          = "Dracula"
	defaultPageSize       = 10
	defaultRefreshSeconds = 1
	maxPageSize           = 100
)

// Defaults returns the preferences used when nothing is stored.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme, PageSize: defaultPageSize, RefreshSeconds: defaultRefreshSeconds}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// RefreshEvery converts RefreshSeconds to a duration.
func (p Prefs) RefreshEvery() time.Duration {
	return time.Duration(p.RefreshSeconds) * time.Second
}

// Load reads preferences from path. Unreadable or malformed files yield
// defaults; preferences never stop the dashboard from starting.
func Load(path string) Prefs {
	resolved, err := resolvePath(path)
	if err != nil {
		return Defaults()
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return Defaults()
	}
	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return Defaults()
	}
	return p.normalize()
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := toml.Marshal(p.normalize())
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func (p Prefs) normalize() Prefs {
	def := Defaults()
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = def.Theme
	}
	if p.PageSize <= 0 {
		p.PageSize = def.PageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	if p.RefreshSeconds <= 0 {
		p.RefreshSeconds = def.RefreshSeconds
	}
	return p
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is empty")
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
