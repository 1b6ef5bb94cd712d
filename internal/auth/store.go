package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	// AccessTokenCookie names the short-lived bearer credential.
	AccessTokenCookie = "access_token"
	// RefreshTokenCookie names the long-lived credential.
	RefreshTokenCookie = "refresh_token"
)

// Tokens is the credential pair issued by the remote service.
type Tokens struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    time.Duration `json:"-"`
}

// TokenStore persists Tokens between calls.
type TokenStore interface {
	Save(Tokens) error
	// Load reports ok=false unless both tokens are present and unexpired.
	Load() (Tokens, bool, error)
	Clear() error
}

// storedCookie mirrors the attributes a browser keeps for each cookie.
type storedCookie struct {
	Value    string    `toml:"value"`
	Expires  time.Time `toml:"expires"`
	Path     string    `toml:"path"`
	Secure   bool      `toml:"secure"`
	SameSite string    `toml:"same_site"`
}

func (c storedCookie) live(now time.Time) bool {
	return c.Value != "" && now.Before(c.Expires)
}

type cookieJar struct {
	Cookies map[string]storedCookie `toml:"cookies"`
}

// FileStore is a two-cookie jar persisted as TOML.
type FileStore struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. A leading ~ is expanded.
func NewFileStore(path string) (*FileStore, error) {
	resolved, err := expandPath(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: resolved, now: time.Now}, nil
}

// Path returns the resolved session file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Save(tokens Tokens) error {
	now := s.now()
	expires := now.Add(tokens.ExpiresIn)
	return s.write(cookieJar{Cookies: map[string]storedCookie{
		AccessTokenCookie:  newStoredCookie(tokens.AccessToken, expires),
		RefreshTokenCookie: newStoredCookie(tokens.RefreshToken, expires),
	}})
}

func (s *FileStore) Load() (Tokens, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Tokens{}, false, nil
		}
		return Tokens{}, false, fmt.Errorf("read session: %w", err)
	}
	var jar cookieJar
	if err := toml.Unmarshal(data, &jar); err != nil {
		return Tokens{}, false, fmt.Errorf("parse session: %w", err)
	}

	now := s.now()
	access, okAccess := jar.Cookies[AccessTokenCookie]
	refresh, okRefresh := jar.Cookies[RefreshTokenCookie]
	if !okAccess || !okRefresh || !access.live(now) || !refresh.live(now) {
		return Tokens{}, false, nil
	}
	remaining := access.Expires.Sub(now)
	if r := refresh.Expires.Sub(now); r < remaining {
		remaining = r
	}
	return Tokens{
		AccessToken:  access.Value,
		RefreshToken: refresh.Value,
		ExpiresIn:    remaining.Truncate(time.Second),
	}, true, nil
}

// Clear overwrites both cookies with empty values expired at the Unix epoch.
func (s *FileStore) Clear() error {
	return s.write(cookieJar{Cookies: map[string]storedCookie{
		AccessTokenCookie:  newStoredCookie("", time.Unix(0, 0).UTC()),
		RefreshTokenCookie: newStoredCookie("", time.Unix(0, 0).UTC()),
	}})
}

func (s *FileStore) write(jar cookieJar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(jar)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

func newStoredCookie(value string, expires time.Time) storedCookie {
	return storedCookie{
		Value:    value,
		Expires:  expires.UTC().Truncate(time.Second),
		Path:     "/",
		Secure:   true,
		SameSite: "strict",
	}
}

// MemoryStore keeps tokens in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	tokens  Tokens
	expires time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Save(tokens Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
	s.expires = s.now().Add(tokens.ExpiresIn)
	return nil
}

func (s *MemoryStore) Load() (Tokens, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.tokens.AccessToken == "" || s.tokens.RefreshToken == "" || !now.Before(s.expires) {
		return Tokens{}, false, nil
	}
	out := s.tokens
	out.ExpiresIn = s.expires.Sub(now)
	return out, true, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = Tokens{}
	s.expires = time.Unix(0, 0)
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("session file path is empty")
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
