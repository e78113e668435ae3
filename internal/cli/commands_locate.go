package cli

import (
	"strconv"
	"strings"

	"github.com/relawanhub/relawan/internal/domain"
	"github.com/relawanhub/relawan/internal/maplink"
	"github.com/relawanhub/relawan/internal/service/output"
	"github.com/spf13/cobra"
)

type locateResult struct {
	Place   domain.Place `json:"place" yaml:"place"`
	MapsURL string       `json:"maps_url" yaml:"maps_url"`
}

func newLocateCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var pflags parserFlags
	var address string

	cmd := &cobra.Command{
		Use:     "locate",
		Short:   "Geocode an address with OpenStreetMap Nominatim and apply the region policy.",
		Example: `relawan locate --address "Monumen Nasional, Jakarta"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := newInvocation(cmd, deps, flags)
			if err != nil {
				return err
			}
			parser, err := inv.parser(pflags)
			if err != nil {
				return err
			}
			if strings.TrimSpace(address) == "" {
				return inv.fail(codeInvalidArgument, "--address is required")
			}
			if deps.Location == nil {
				return inv.fail(codeLocationResolve, "Location resolver is not available.")
			}

			place, err := deps.Location.Lookup(cmd.Context(), address)
			if err != nil {
				return inv.fail(codeLocationResolve, err.Error())
			}
			warnings, err := parser.CheckRegion(place.Location)
			if err != nil {
				return inv.parseFailure(err)
			}

			result := locateResult{Place: place, MapsURL: maplink.MapsURL(place.Location)}
			table := output.RenderFields("Location", [][2]string{
				{"Address", fallbackString(place.DisplayName, address)},
				{"Latitude", strconv.FormatFloat(place.Lat, 'f', -1, 64)},
				{"Longitude", strconv.FormatFloat(place.Lon, 'f', -1, 64)},
				{"Maps URL", result.MapsURL},
			})
			return inv.emit(result, warnings, table)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Address to geocode.")
	_ = cmd.MarkFlagRequired("address")
	cmd.Flags().StringVar(&pflags.RegionPolicy, "region-policy", "", "Out-of-region handling: strict, warn, or off. Defaults to the profile, then settings.")
	addGlobalFlags(cmd, &flags)
	return cmd
}
