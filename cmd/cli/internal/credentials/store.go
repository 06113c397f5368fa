package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Sentinel errors
var (
	// ErrNotLoggedIn is returned when no login is saved for a server.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrNoDefaultServer is returned when no server was given and none is saved.
	ErrNoDefaultServer = errors.New("no default server set")
)

// Login is a saved login cookie together with who it belongs to.
type Login struct {
	Cookie  string    `json:"cookie"`
	Email   string    `json:"email"`
	Name    string    `json:"name,omitempty"`
	IsAdmin bool      `json:"is_admin"`
	SavedAt time.Time `json:"saved_at"`
}

// Config represents the credentials configuration file.
type Config struct {
	Version       int              `json:"version"`
	DefaultServer string           `json:"default_server,omitempty"`
	Logins        map[string]Login `json:"logins"`
}

// Store keeps login cookies on the local filesystem, one per server URL.
type Store struct {
	baseDir string
}

// NewStore creates a new credential store.
// If baseDir is empty, uses ~/.sheetclock/
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".sheetclock")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}

	store := &Store{baseDir: baseDir}

	if err := store.ensureConfig(); err != nil {
		return nil, err
	}

	log.Debug().Str("baseDir", baseDir).Msg("credential store initialized")

	return store, nil
}

// ResolveServer returns server if set, otherwise the saved default.
func (s *Store) ResolveServer(server string) (string, error) {
	if server != "" {
		return normalizeServer(server), nil
	}

	cfg, err := s.loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.DefaultServer == "" {
		return "", ErrNoDefaultServer
	}
	return cfg.DefaultServer, nil
}

// Get returns the saved login for server.
func (s *Store) Get(server string) (*Login, error) {
	cfg, err := s.loadConfig()
	if err != nil {
		return nil, err
	}

	login, ok := cfg.Logins[normalizeServer(server)]
	if !ok || login.Cookie == "" {
		return nil, ErrNotLoggedIn
	}
	return &login, nil
}

// Save stores a login for server and makes it the default.
func (s *Store) Save(server string, login Login) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}

	server = normalizeServer(server)
	if login.SavedAt.IsZero() {
		login.SavedAt = time.Now().UTC()
	}

	cfg.Logins[server] = login
	cfg.DefaultServer = server

	if err := s.saveConfig(cfg); err != nil {
		return err
	}

	log.Debug().Str("server", server).Str("email", login.Email).Msg("login saved")

	return nil
}

// Delete forgets the login for server. The default server is kept so the next
// login does not need it again.
func (s *Store) Delete(server string) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}

	server = normalizeServer(server)
	if _, ok := cfg.Logins[server]; !ok {
		return ErrNotLoggedIn
	}
	delete(cfg.Logins, server)

	if err := s.saveConfig(cfg); err != nil {
		return err
	}

	log.Debug().Str("server", server).Msg("login removed")

	return nil
}

func normalizeServer(server string) string {
	return strings.TrimRight(strings.TrimSpace(server), "/")
}

// ensureConfig creates an empty config if it doesn't exist.
func (s *Store) ensureConfig() error {
	configPath := filepath.Join(s.baseDir, "config.json")

	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	cfg := &Config{
		Version: 1,
		Logins:  make(map[string]Login),
	}

	return s.saveConfig(cfg)
}

// loadConfig reads the config file.
func (s *Store) loadConfig() (*Config, error) {
	configPath := filepath.Join(s.baseDir, "config.json")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Logins == nil {
		cfg.Logins = make(map[string]Login)
	}

	return &cfg, nil
}

// saveConfig writes the config file atomically. Cookies are bearer secrets so
// the file is only readable by the owner.
func (s *Store) saveConfig(cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(s.baseDir, "config.json")
	tempPath := configPath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}
