package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/relawanhub/relawan/internal/config"
	"github.com/relawanhub/relawan/internal/domain"
)

const defaultProfileName = "default"

var (
	// ErrDefaultProfileNotFound indicates config has no default profile.
	ErrDefaultProfileNotFound = errors.New("no default profile found")
	// ErrProfileNotFound indicates requested profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")
)

// Loader provides config payloads.
type Loader interface {
	Load(ctx context.Context) (domain.Config, error)
}

// Store loads and persists config payloads.
type Store interface {
	Loader
	Save(ctx context.Context, cfg domain.Config) error
}

// Resolver resolves profile names and remembers per-track counts.
type Resolver struct {
	loader Loader
}

// NewResolver creates a profile resolver.
func NewResolver(loader Loader) *Resolver {
	return &Resolver{loader: loader}
}

// Find resolves explicit profile names or defaults.
func (r *Resolver) Find(ctx context.Context, profileName string) (domain.Profile, error) {
	cfg, err := r.loader.Load(ctx)
	if err != nil {
		return domain.Profile{}, err
	}
	index, err := findIndex(cfg, profileName)
	if err != nil {
		return domain.Profile{}, err
	}
	return cfg.Profiles[index], nil
}

// RecordCount stores count as the last seen value for track and returns the
// value it replaced. Negative counts are stored as zero. A missing config
// file is created with a default profile; known reports whether a previous
// value existed.
func (r *Resolver) RecordCount(ctx context.Context, profileName, track string, count int) (previous int, known bool, err error) {
	store, ok := r.loader.(Store)
	if !ok {
		return 0, false, fmt.Errorf("profile store is read-only")
	}

	cfg, err := store.Load(ctx)
	if errors.Is(err, config.ErrConfigNotFound) {
		name := strings.TrimSpace(profileName)
		if name == "" {
			name = defaultProfileName
		}
		cfg = domain.Config{Profiles: []domain.Profile{{Name: name, IsDefault: true}}}
	} else if err != nil {
		return 0, false, err
	}

	index, err := findIndex(cfg, profileName)
	if err != nil {
		return 0, false, err
	}
	profile := &cfg.Profiles[index]
	if profile.LastCounts == nil {
		profile.LastCounts = map[string]int{}
	}
	previous, known = profile.LastCounts[track]
	profile.LastCounts[track] = max(count, 0)
	if err := store.Save(ctx, cfg); err != nil {
		return 0, false, err
	}
	return previous, known, nil
}

func findIndex(cfg domain.Config, profileName string) (int, error) {
	if strings.TrimSpace(profileName) == "" {
		for i, profile := range cfg.Profiles {
			if profile.IsDefault {
				return i, nil
			}
		}
		return -1, ErrDefaultProfileNotFound
	}

	want := strings.ToLower(strings.TrimSpace(profileName))
	for i, profile := range cfg.Profiles {
		if strings.ToLower(profile.Name) == want {
			return i, nil
		}
	}
	available := make([]string, 0, len(cfg.Profiles))
	for _, profile := range cfg.Profiles {
		available = append(available, profile.Name)
	}
	return -1, fmt.Errorf("%w: %s (available: %s)", ErrProfileNotFound, want, strings.Join(available, ", "))
}

// NewFileResolver constructs a resolver from local config file.
func NewFileResolver() (*Resolver, error) {
	store, err := config.NewStore()
	if err != nil {
		return nil, err
	}
	return NewResolver(store), nil
}
