package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/relawanhub/relawan/internal/cli"
	"github.com/relawanhub/relawan/internal/config"
	"github.com/relawanhub/relawan/internal/domain"
	locationgateway "github.com/relawanhub/relawan/internal/gateway/location"
	"github.com/relawanhub/relawan/internal/service/output"
	"github.com/relawanhub/relawan/internal/service/profile"
)

type envelope struct {
	Success  bool                 `json:"success"`
	Meta     output.Meta          `json:"meta"`
	Data     json.RawMessage      `json:"data"`
	Warnings []string             `json:"warnings"`
	Error    *output.ErrorPayload `json:"error"`
}

// newFileDeps wires the CLI the way main does, against a config file under
// a temp dir and a fake Nominatim server.
func newFileDeps(t *testing.T) (cli.Dependencies, string) {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "relawan-config.json")
	t.Setenv("RELAWAN_CONFIG_PATH", configPath)

	geocoder := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("q") {
		case "Monas":
			_, _ = w.Write([]byte(`[{"lat":"-6.1753924","lon":"106.8271528","display_name":"Monumen Nasional, Jakarta Pusat, Indonesia"}]`))
		case "Eiffel Tower":
			_, _ = w.Write([]byte(`[{"lat":"48.8582602","lon":"2.2944991","display_name":"Tour Eiffel, Paris, France"}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	t.Cleanup(geocoder.Close)

	store, err := config.NewStore()
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	resolver, err := profile.NewFileResolver()
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	settings := config.DefaultSettings()
	deps := cli.Dependencies{
		Profiles: resolver,
		Location: locationgateway.NewClient(
			locationgateway.WithBaseURL(geocoder.URL+"/search"),
			locationgateway.WithCountryCodes(""),
		),
		Config:   store,
		Settings: &settings,
		Version:  "1.0.0",
	}
	return deps, configPath
}

func runCLIWithDeps(t *testing.T, deps cli.Dependencies, args ...string) (int, string) {
	t.Helper()
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	exitCode := cli.Execute(context.Background(), args, deps, &stdout, &stderr)
	return exitCode, stdout.String() + stderr.String()
}

func decodeEnvelope(t *testing.T, out string) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("decode envelope: %v\noutput:\n%s", err, out)
	}
	return env
}

func readConfig(t *testing.T, path string) domain.Config {
	t.Helper()
	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var cfg domain.Config
	if err := json.Unmarshal(payload, &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	return cfg
}

func TestConfigureThenParseUsesProfileDefaults(t *testing.T) {
	deps, configPath := newFileDeps(t)

	exitCode, out := runCLIWithDeps(t, deps,
		"configure",
		"--profile-name", "lapangan",
		"--track", "organizer",
		"--region-policy", "warn",
		"--locale", "en-US",
		"--home", "https://www.google.com/maps/@-6.2088,106.8456,17z",
	)
	if exitCode != 0 {
		t.Fatalf("configure: expected exit 0, got %d\noutput:\n%s", exitCode, out)
	}
	if !strings.Contains(out, "Config was created") {
		t.Fatalf("expected creation message, got:\n%s", out)
	}
	cfg := readConfig(t, configPath)
	if len(cfg.Profiles) != 1 {
		t.Fatalf("expected one saved profile, got %+v", cfg.Profiles)
	}
	saved := cfg.Profiles[0]
	if saved.Name != "lapangan" || !saved.IsDefault || saved.Track != "organizer" || saved.RegionPolicy != "warn" {
		t.Fatalf("unexpected saved profile: %+v", saved)
	}
	if saved.Home == nil || saved.Home.Lat != -6.2088 || saved.Home.Lon != 106.8456 {
		t.Fatalf("expected home parsed from map link, got %+v", saved.Home)
	}

	exitCode, out = runCLIWithDeps(t, deps, "maplink", "parse", "--format", "json", "--", "48.8584,2.2945")
	if exitCode != 0 {
		t.Fatalf("parse under warn policy: expected exit 0, got %d\noutput:\n%s", exitCode, out)
	}
	env := decodeEnvelope(t, out)
	if !env.Success || len(env.Warnings) != 1 {
		t.Fatalf("expected success with one region warning, got %+v", env)
	}
	if env.Meta.Profile != "lapangan" || env.Meta.Locale != "en-US" {
		t.Fatalf("expected profile meta from config, got %+v", env.Meta)
	}

	exitCode, out = runCLIWithDeps(t, deps, "maplink", "parse", "--format", "json", "--region-policy", "strict", "--", "48.8584,2.2945")
	if exitCode != 1 {
		t.Fatalf("parse with strict override: expected exit 1, got %d\noutput:\n%s", exitCode, out)
	}
	env = decodeEnvelope(t, out)
	if env.Success || env.Error == nil || env.Error.Code != "RELAWAN_OUT_OF_REGION" {
		t.Fatalf("expected out-of-region envelope, got %+v", env)
	}
}

func TestLevelUpRemembersCountsAcrossRuns(t *testing.T) {
	deps, configPath := newFileDeps(t)

	exitCode, out := runCLIWithDeps(t, deps, "configure", "--track", "organizer")
	if exitCode != 0 {
		t.Fatalf("configure: expected exit 0, got %d\noutput:\n%s", exitCode, out)
	}

	type levelUp struct {
		HasLeveledUp  bool `json:"has_leveled_up"`
		PreviousLevel int  `json:"previous_level"`
		NewLevel      int  `json:"new_level"`
		NewTier       *struct {
			Title string `json:"title"`
		} `json:"new_tier"`
	}
	check := func(current string) (levelUp, envelope) {
		t.Helper()
		exitCode, out := runCLIWithDeps(t, deps, "badge", "level-up", "--current", current, "--format", "json")
		if exitCode != 0 {
			t.Fatalf("level-up %s: expected exit 0, got %d\noutput:\n%s", current, exitCode, out)
		}
		env := decodeEnvelope(t, out)
		var result levelUp
		if err := json.Unmarshal(env.Data, &result); err != nil {
			t.Fatalf("decode level-up data: %v", err)
		}
		return result, env
	}

	first, env := check("2")
	if first.HasLeveledUp || len(env.Warnings) != 1 || !strings.Contains(env.Warnings[0], "baseline") {
		t.Fatalf("expected first run to save a baseline without leveling up, got %+v warnings=%v", first, env.Warnings)
	}

	second, _ := check("5")
	if !second.HasLeveledUp || second.PreviousLevel != 1 || second.NewLevel != 2 {
		t.Fatalf("expected level 1 -> 2, got %+v", second)
	}
	if second.NewTier == nil || second.NewTier.Title != "Active Organizer" {
		t.Fatalf("expected Active Organizer tier, got %+v", second.NewTier)
	}

	third, _ := check("6")
	if third.HasLeveledUp {
		t.Fatalf("expected no level change within a tier, got %+v", third)
	}

	cfg := readConfig(t, configPath)
	if got := cfg.Profiles[0].LastCounts["organizer"]; got != 6 {
		t.Fatalf("expected remembered organizer count 6, got %d", got)
	}
}

func TestLocateResolvesAndChecksRegion(t *testing.T) {
	deps, _ := newFileDeps(t)

	exitCode, out := runCLIWithDeps(t, deps, "locate", "--address", "Monas", "--format", "json")
	if exitCode != 0 {
		t.Fatalf("locate: expected exit 0, got %d\noutput:\n%s", exitCode, out)
	}
	env := decodeEnvelope(t, out)
	var result struct {
		Place   domain.Place `json:"place"`
		MapsURL string       `json:"maps_url"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode locate data: %v", err)
	}
	if result.Place.Lat != -6.1753924 || result.MapsURL != "https://www.google.com/maps?q=-6.1753924,106.8271528" {
		t.Fatalf("unexpected locate result %+v", result)
	}

	exitCode, out = runCLIWithDeps(t, deps, "locate", "--address", "Eiffel Tower", "--format", "json")
	if exitCode != 1 {
		t.Fatalf("locate outside region: expected exit 1, got %d\noutput:\n%s", exitCode, out)
	}
	if env := decodeEnvelope(t, out); env.Error == nil || env.Error.Code != "RELAWAN_OUT_OF_REGION" {
		t.Fatalf("expected out-of-region error, got %+v", env)
	}

	exitCode, out = runCLIWithDeps(t, deps, "locate", "--address", "Atlantis", "--format", "json")
	if exitCode != 1 {
		t.Fatalf("locate unknown: expected exit 1, got %d\noutput:\n%s", exitCode, out)
	}
	if env := decodeEnvelope(t, out); env.Error == nil || env.Error.Code != "RELAWAN_LOCATION_RESOLVE_ERROR" {
		t.Fatalf("expected location resolve error, got %+v", env)
	}
}

func TestMaplinkFormatRoundTripsThroughParse(t *testing.T) {
	deps, _ := newFileDeps(t)

	exitCode, out := runCLIWithDeps(t, deps, "maplink", "format", "--lat=-7.7956", "--lon=110.3695", "--format", "json")
	if exitCode != 0 {
		t.Fatalf("format: expected exit 0, got %d\noutput:\n%s", exitCode, out)
	}
	var formatted struct {
		MapsURL string `json:"maps_url"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, out).Data, &formatted); err != nil {
		t.Fatalf("decode format data: %v", err)
	}

	exitCode, out = runCLIWithDeps(t, deps, "maplink", "parse", "--format", "json", formatted.MapsURL)
	if exitCode != 0 {
		t.Fatalf("parse formatted link: expected exit 0, got %d\noutput:\n%s", exitCode, out)
	}
	var link domain.ParsedLocationLink
	if err := json.Unmarshal(decodeEnvelope(t, out).Data, &link); err != nil {
		t.Fatalf("decode parse data: %v", err)
	}
	if link.Lat != -7.7956 || link.Lon != 110.3695 {
		t.Fatalf("expected round-tripped coordinate, got %+v", link.Location)
	}
}
