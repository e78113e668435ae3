package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/relawanhub/relawan/internal/achievement"
	"github.com/relawanhub/relawan/internal/config"
	"github.com/relawanhub/relawan/internal/domain"
	"github.com/relawanhub/relawan/internal/maplink"
	"github.com/spf13/cobra"
)

type profileFields struct {
	Track        string
	RegionPolicy string
	Locale       string
	Home         *domain.Location
}

func newConfigureCommand(deps Dependencies) *cobra.Command {
	var profileName string
	var track string
	var regionPolicy string
	var locale string
	var home string
	var makeDefault bool
	var overwrite bool

	cmd := &cobra.Command{
		Use:     "configure",
		Short:   "Create and update local profiles (badge track, region policy, locale, home location).",
		Example: `relawan configure --profile-name yayasan --track organizer --region-policy warn
relawan configure --home "https://www.google.com/maps/@-6.2088,106.8456,15z" --default`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if deps.Config == nil {
				return fmt.Errorf("config store is not available")
			}
			name := strings.TrimSpace(profileName)
			if name == "" {
				return fmt.Errorf("--profile-name must not be empty")
			}
			fields, err := parseProfileFields(deps, track, regionPolicy, locale, home)
			if err != nil {
				return err
			}

			existingCfg, loadErr := deps.Config.Load(cmd.Context())
			if loadErr != nil && !errors.Is(loadErr, config.ErrConfigNotFound) {
				return loadErr
			}
			hasExisting := loadErr == nil
			if hasExisting && !overwrite {
				index := findProfileIndex(existingCfg, name)
				created := index < 0
				if created {
					existingCfg.Profiles = append(existingCfg.Profiles, domain.Profile{Name: name})
					index = len(existingCfg.Profiles) - 1
				}
				applyProfileFields(&existingCfg.Profiles[index], fields)
				if makeDefault || !hasDefault(existingCfg) {
					setDefault(&existingCfg, index)
				}
				if err := deps.Config.Save(cmd.Context(), existingCfg); err != nil {
					return err
				}
				if created {
					return writeTable(cmd, fmt.Sprintf("Profile %q added to %s", name, deps.Config.Path()), "")
				}
				return writeTable(cmd, fmt.Sprintf("Profile %q updated in %s", name, deps.Config.Path()), "")
			}

			profile := domain.Profile{Name: name, IsDefault: true}
			applyProfileFields(&profile, fields)
			cfg := domain.Config{Profiles: []domain.Profile{profile}}
			if err := deps.Config.Save(cmd.Context(), cfg); err != nil {
				return err
			}
			return writeTable(cmd, fmt.Sprintf("Config was created at %s", deps.Config.Path()), "")
		},
	}

	cmd.Flags().StringVar(&profileName, "profile-name", "default", "Profile name")
	cmd.Flags().StringVar(&track, "track", "", "Default badge track: organizer or volunteer.")
	cmd.Flags().StringVar(&regionPolicy, "region-policy", "", "Default region policy: strict, warn, or off.")
	cmd.Flags().StringVar(&locale, "locale", "", "Default response locale, for example id-ID.")
	cmd.Flags().StringVar(&home, "home", "", "Home location as a map link or lat,lng pair.")
	cmd.Flags().BoolVar(&makeDefault, "default", false, "Make this profile the default one.")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing config")
	return cmd
}

// parseProfileFields validates flag values before anything is written.
func parseProfileFields(deps Dependencies, track, regionPolicy, locale, home string) (profileFields, error) {
	fields := profileFields{Locale: strings.TrimSpace(locale)}
	if strings.TrimSpace(track) != "" {
		parsed, err := achievement.ParseTrack(track)
		if err != nil {
			return fields, err
		}
		fields.Track = string(parsed)
	}
	if strings.TrimSpace(regionPolicy) != "" {
		parsed, err := maplink.ParseRegionPolicy(regionPolicy)
		if err != nil {
			return fields, err
		}
		fields.RegionPolicy = string(parsed)
	}
	if strings.TrimSpace(home) != "" {
		opts, err := deps.settings().ParserOptions(fields.RegionPolicy)
		if err != nil {
			return fields, err
		}
		link, err := maplink.New(opts...).Parse(home)
		if err != nil {
			return fields, fmt.Errorf("--home: %s", maplink.Reason(err))
		}
		fields.Home = &link.Location
	}
	return fields, nil
}

func applyProfileFields(profile *domain.Profile, fields profileFields) {
	if fields.Track != "" {
		profile.Track = fields.Track
	}
	if fields.RegionPolicy != "" {
		profile.RegionPolicy = fields.RegionPolicy
	}
	if fields.Locale != "" {
		profile.Locale = fields.Locale
	}
	if fields.Home != nil {
		profile.Home = fields.Home
	}
}

func findProfileIndex(cfg domain.Config, profileName string) int {
	trimmed := strings.TrimSpace(profileName)
	for i, profile := range cfg.Profiles {
		if strings.EqualFold(strings.TrimSpace(profile.Name), trimmed) {
			return i
		}
	}
	return -1
}

func hasDefault(cfg domain.Config) bool {
	for _, profile := range cfg.Profiles {
		if profile.IsDefault {
			return true
		}
	}
	return false
}

func setDefault(cfg *domain.Config, index int) {
	for i := range cfg.Profiles {
		cfg.Profiles[i].IsDefault = i == index
	}
}
