package config

import (
	"fmt"
	"strings"

	"github.com/relawanhub/relawan/internal/domain"
	"github.com/relawanhub/relawan/internal/maplink"
	"github.com/spf13/viper"
)

// Settings holds runtime options shared by the CLI and the HTTP service.
type Settings struct {
	Server    ServerSettings    `mapstructure:"server"`
	Log       LogSettings       `mapstructure:"log"`
	Region    RegionSettings    `mapstructure:"region"`
	Parser    ParserSettings    `mapstructure:"parser"`
	Geocoder  GeocoderSettings  `mapstructure:"geocoder"`
	Cache     CacheSettings     `mapstructure:"cache"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
}

type ServerSettings struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	AllowOrigins string `mapstructure:"allow_origins"`
	RateLimit    int    `mapstructure:"rate_limit"`
}

type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RegionSettings struct {
	Policy string  `mapstructure:"policy"`
	MinLat float64 `mapstructure:"min_lat"`
	MinLon float64 `mapstructure:"min_lon"`
	MaxLat float64 `mapstructure:"max_lat"`
	MaxLon float64 `mapstructure:"max_lon"`
}

// Bounds returns the configured region box.
func (r RegionSettings) Bounds() domain.Bounds {
	return domain.Bounds{MinLat: r.MinLat, MinLon: r.MinLon, MaxLat: r.MaxLat, MaxLon: r.MaxLon}
}

type ParserSettings struct {
	LooseFallback bool `mapstructure:"loose_fallback"`
	PlaceLabel    bool `mapstructure:"place_label"`
}

type GeocoderSettings struct {
	BaseURL      string `mapstructure:"base_url"`
	CountryCodes string `mapstructure:"country_codes"`
}

// CacheSettings configures the Valkey geocoder cache. An empty Addr
// disables caching.
type CacheSettings struct {
	Addr string `mapstructure:"addr"`
	TTL  int    `mapstructure:"ttl"`
}

// TelemetrySettings configures OpenTelemetry tracing for the HTTP service.
type TelemetrySettings struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Exporter    string  `mapstructure:"exporter"` // stdout | otlp
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// ParserOptions translates settings into maplink parser options. policy,
// when non-empty, overrides the configured region policy.
func (s Settings) ParserOptions(policy string) ([]maplink.Option, error) {
	if policy == "" {
		policy = s.Region.Policy
	}
	regionPolicy, err := maplink.ParseRegionPolicy(policy)
	if err != nil {
		return nil, err
	}
	return []maplink.Option{
		maplink.WithRegionPolicy(regionPolicy),
		maplink.WithBounds(s.Region.Bounds()),
		maplink.WithLooseFallback(s.Parser.LooseFallback),
		maplink.WithPlaceLabel(s.Parser.PlaceLabel),
	}, nil
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Port:         8080,
			ReadTimeout:  10,
			WriteTimeout: 10,
			AllowOrigins: "http://localhost:3000, http://localhost:5173",
			RateLimit:    120,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "json",
		},
		Region: RegionSettings{
			Policy: "strict",
			MinLat: domain.IndonesiaBounds.MinLat,
			MinLon: domain.IndonesiaBounds.MinLon,
			MaxLat: domain.IndonesiaBounds.MaxLat,
			MaxLon: domain.IndonesiaBounds.MaxLon,
		},
		Parser: ParserSettings{
			PlaceLabel: true,
		},
		Geocoder: GeocoderSettings{
			BaseURL:      "https://nominatim.openstreetmap.org/search",
			CountryCodes: "id",
		},
		Cache: CacheSettings{
			TTL: 86400,
		},
		Telemetry: TelemetrySettings{
			ServiceName: "relawan",
			Exporter:    "stdout",
			Endpoint:    "localhost:4317",
			SampleRatio: 1,
		},
	}
}

// LoadSettings reads settings from an optional relawan.yaml and RELAWAN_*
// environment variables. Explicit configFile wins over the search paths.
func LoadSettings(configFile string) (*Settings, error) {
	v := viper.New()

	d := DefaultSettings()
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.allow_origins", d.Server.AllowOrigins)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("region.policy", d.Region.Policy)
	v.SetDefault("region.min_lat", d.Region.MinLat)
	v.SetDefault("region.min_lon", d.Region.MinLon)
	v.SetDefault("region.max_lat", d.Region.MaxLat)
	v.SetDefault("region.max_lon", d.Region.MaxLon)
	v.SetDefault("parser.loose_fallback", d.Parser.LooseFallback)
	v.SetDefault("parser.place_label", d.Parser.PlaceLabel)
	v.SetDefault("geocoder.base_url", d.Geocoder.BaseURL)
	v.SetDefault("geocoder.country_codes", d.Geocoder.CountryCodes)
	v.SetDefault("cache.addr", d.Cache.Addr)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
	v.SetDefault("telemetry.exporter", d.Telemetry.Exporter)
	v.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
	v.SetDefault("telemetry.sample_ratio", d.Telemetry.SampleRatio)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("relawan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		_ = v.ReadInConfig() // optional
	}

	// RELAWAN_REGION_POLICY -> region.policy
	v.SetEnvPrefix("RELAWAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Validate checks that settings are sane.
func (s *Settings) Validate() error {
	var errs []string

	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Server.Port))
	}
	if s.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if s.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if s.Server.RateLimit < 0 {
		errs = append(errs, "server.rate_limit must not be negative")
	}
	if _, err := maplink.ParseRegionPolicy(s.Region.Policy); err != nil {
		errs = append(errs, "region.policy: "+err.Error())
	}
	if s.Region.MinLat > s.Region.MaxLat || s.Region.MinLon > s.Region.MaxLon {
		errs = append(errs, "region bounds are inverted")
	}
	if !(domain.Location{Lat: s.Region.MinLat, Lon: s.Region.MinLon}).Valid() ||
		!(domain.Location{Lat: s.Region.MaxLat, Lon: s.Region.MaxLon}).Valid() {
		errs = append(errs, "region bounds must be valid coordinates")
	}
	if strings.TrimSpace(s.Geocoder.BaseURL) == "" {
		errs = append(errs, "geocoder.base_url must not be empty")
	}
	if s.Cache.Addr != "" && s.Cache.TTL <= 0 {
		errs = append(errs, "cache.ttl must be positive when cache.addr is set")
	}
	switch strings.ToLower(s.Telemetry.Exporter) {
	case "stdout", "otlp":
	default:
		errs = append(errs, fmt.Sprintf("telemetry.exporter must be stdout or otlp, got %q", s.Telemetry.Exporter))
	}
	if s.Telemetry.SampleRatio < 0 || s.Telemetry.SampleRatio > 1 {
		errs = append(errs, "telemetry.sample_ratio must be within [0, 1]")
	}
	switch strings.ToLower(s.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", s.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("settings validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
