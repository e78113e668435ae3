package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/relawanhub/relawan/internal/achievement"
	"github.com/relawanhub/relawan/internal/domain"
	"github.com/relawanhub/relawan/internal/maplink"
)

const (
	defaultDirName  = ".relawan"
	defaultFileName = ".relawan-config.json"
	envConfigPath   = "RELAWAN_CONFIG_PATH"
)

var (
	// ErrConfigNotFound is returned when config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrInvalidConfig is returned when config payload is malformed.
	ErrInvalidConfig = errors.New("config file is invalid")
)

// Store loads and writes profile configuration as JSON.
type Store struct {
	path string
}

// NewStore creates a store using env overrides or defaults.
func NewStore() (*Store, error) {
	if cfg := os.Getenv(envConfigPath); cfg != "" {
		return &Store{path: cfg}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return &Store{path: filepath.Join(home, defaultDirName, defaultFileName)}, nil
}

// Path returns current config path.
func (s *Store) Path() string {
	return s.path
}

// Load reads and validates configuration.
func (s *Store) Load(_ context.Context) (domain.Config, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Config{}, ErrConfigNotFound
		}
		return domain.Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg domain.Config
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := validateConfig(cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Save validates cfg and replaces the config file atomically.
func (s *Store) Save(_ context.Context, cfg domain.Config) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	payload, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(append(payload, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// validateConfig rejects payloads the CLI could not act on: unnamed or
// duplicate profiles, several defaults, unknown tracks or region policies,
// invalid home coordinates and negative remembered counts.
func validateConfig(cfg domain.Config) error {
	if len(cfg.Profiles) == 0 {
		return fmt.Errorf("%w: profiles is empty", ErrInvalidConfig)
	}
	names := make(map[string]struct{}, len(cfg.Profiles))
	defaults := 0
	for i, profile := range cfg.Profiles {
		name := strings.ToLower(strings.TrimSpace(profile.Name))
		if name == "" {
			return fmt.Errorf("%w: profile %d has no name", ErrInvalidConfig, i)
		}
		if _, dup := names[name]; dup {
			return fmt.Errorf("%w: duplicate profile %q", ErrInvalidConfig, profile.Name)
		}
		names[name] = struct{}{}
		if profile.IsDefault {
			defaults++
		}
		if profile.Track != "" {
			if _, err := achievement.ParseTrack(profile.Track); err != nil {
				return fmt.Errorf("%w: profile %q: %v", ErrInvalidConfig, profile.Name, err)
			}
		}
		if profile.RegionPolicy != "" {
			if _, err := maplink.ParseRegionPolicy(profile.RegionPolicy); err != nil {
				return fmt.Errorf("%w: profile %q: %v", ErrInvalidConfig, profile.Name, err)
			}
		}
		if profile.Home != nil && !profile.Home.Valid() {
			return fmt.Errorf("%w: profile %q has an invalid home location", ErrInvalidConfig, profile.Name)
		}
		for track, count := range profile.LastCounts {
			if count < 0 {
				return fmt.Errorf("%w: profile %q has a negative %s count", ErrInvalidConfig, profile.Name, track)
			}
		}
	}
	if defaults > 1 {
		return fmt.Errorf("%w: %d profiles are marked default", ErrInvalidConfig, defaults)
	}
	return nil
}
