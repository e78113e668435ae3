package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/relawanhub/relawan/internal/cache"
	"github.com/relawanhub/relawan/internal/cli"
	"github.com/relawanhub/relawan/internal/config"
	locationgateway "github.com/relawanhub/relawan/internal/gateway/location"
	"github.com/relawanhub/relawan/internal/logging"
	"github.com/relawanhub/relawan/internal/service/profile"
)

var version = "dev"

// settingsFileEnv points at an explicit settings file instead of the
// relawan.yaml search paths.
const settingsFileEnv = "RELAWAN_SETTINGS_FILE"

func main() {
	os.Exit(run())
}

func run() int {
	settings, err := config.LoadSettings(strings.TrimSpace(os.Getenv(settingsFileEnv)))
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		return 1
	}

	store, err := config.NewStore()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		return 1
	}

	var location cli.LocationResolver = locationgateway.NewClient(
		locationgateway.WithBaseURL(settings.Geocoder.BaseURL),
		locationgateway.WithCountryCodes(settings.Geocoder.CountryCodes),
	)

	deps := cli.Dependencies{
		Profiles: profile.NewResolver(store),
		Config:   store,
		Settings: settings,
		Version:  version,
	}

	// Geocoder cache
	if settings.Cache.Addr != "" {
		valkeyCache, err := cache.NewValkey(settings.Cache.Addr)
		if err != nil {
			logging.New(settings.Log.Level, settings.Log.Format, os.Stderr).Warn("valkey unavailable, geocoding uncached", "error", err)
		} else {
			defer valkeyCache.Close()
			location = locationgateway.NewCachedClient(
				location,
				valkeyCache,
				time.Duration(settings.Cache.TTL)*time.Second,
				settings.Geocoder.CountryCodes,
				nil,
			)
			deps.Cache = valkeyCache
		}
	}
	deps.Location = location

	return cli.Execute(context.Background(), os.Args[1:], deps, os.Stdout, os.Stderr)
}
