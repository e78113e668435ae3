package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/relawanhub/relawan/internal/config"
	"github.com/relawanhub/relawan/internal/domain"
	"github.com/relawanhub/relawan/internal/server"
)

var unknownCommandPattern = regexp.MustCompile(`unknown command "([^"]+)"`)

// ProfileService resolves profile selections and remembers per-track counts.
type ProfileService interface {
	Find(ctx context.Context, profileName string) (domain.Profile, error)
	RecordCount(ctx context.Context, profileName, track string, count int) (previous int, known bool, err error)
}

// LocationResolver resolves addresses to coordinates.
type LocationResolver interface {
	Lookup(ctx context.Context, address string) (domain.Place, error)
}

// ConfigManager stores profile config payloads.
type ConfigManager interface {
	Path() string
	Load(ctx context.Context) (domain.Config, error)
	Save(ctx context.Context, cfg domain.Config) error
}

// Dependencies wires runtime services.
type Dependencies struct {
	Profiles ProfileService
	Location LocationResolver
	Config   ConfigManager
	// Cache is the geocoder cache, reported by the service readiness check.
	Cache server.Pinger
	// Settings falls back to config.DefaultSettings when nil.
	Settings *config.Settings
	Version  string
}

func (d Dependencies) settings() config.Settings {
	if d.Settings == nil {
		return config.DefaultSettings()
	}
	return *d.Settings
}

var errVersionShown = fmt.Errorf("version shown")

// Execute runs the CLI with injected dependencies.
func Execute(ctx context.Context, args []string, deps Dependencies, stdout io.Writer, stderr io.Writer) int {
	cmd := NewRootCommand(deps)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil || err == errVersionShown {
		return 0
	}
	var controlled *exitError
	if errors.As(err, &controlled) {
		return controlled.code
	}

	if matches := unknownCommandPattern.FindStringSubmatch(err.Error()); len(matches) > 1 {
		_, _ = fmt.Fprintf(stderr, "No such command '%s'\n", matches[1])
		return 2
	}

	if msg := err.Error(); msg != "" {
		_, _ = fmt.Fprintln(stderr, msg)
	}
	return 1
}
