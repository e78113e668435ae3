package cli

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/relawanhub/relawan/internal/domain"
	"github.com/relawanhub/relawan/internal/maplink"
	"github.com/relawanhub/relawan/internal/service/output"
	"github.com/spf13/cobra"
)

func newMaplinkCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maplink",
		Short: "Read coordinates from pasted Google Maps links.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newMaplinkParseCommand(deps))
	cmd.AddCommand(newMaplinkFormatCommand(deps))
	return cmd
}

type parseResult struct {
	Input string                     `json:"input" yaml:"input"`
	Link  *domain.ParsedLocationLink `json:"link,omitempty" yaml:"link,omitempty"`
	Error *output.ErrorPayload       `json:"error,omitempty" yaml:"error,omitempty"`
}

func newMaplinkParseCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var pflags parserFlags

	cmd := &cobra.Command{
		Use:     "parse <input...>",
		Short:   "Extract latitude, longitude, zoom, and place label from links or coordinate pairs. Use - to read one input per line from stdin.",
		Example: `relawan maplink parse "https://www.google.com/maps/place/Monas/@-6.1754,106.8272,17z"
relawan maplink parse --format json -- -6.2088,106.8456
pbpaste | relawan maplink parse --loose -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := newInvocation(cmd, deps, flags)
			if err != nil {
				return err
			}
			parser, err := inv.parser(pflags)
			if err != nil {
				return err
			}
			inputs, err := collectInputs(cmd, args)
			if err != nil {
				return inv.fail(codeInvalidArgument, err.Error())
			}

			if len(inputs) == 1 {
				link, err := parser.Parse(inputs[0])
				if err != nil {
					inv.logger().Debug("map link rejected", "error", err)
					return inv.parseFailure(err)
				}
				inv.logger().Debug("map link parsed", "rule", link.Pattern)
				return inv.emit(link, link.Warnings, renderLink(link))
			}

			results := make([]parseResult, 0, len(inputs))
			warnings := make([]string, 0)
			rows := make([][]string, 0, len(inputs))
			for _, input := range inputs {
				link, err := parser.Parse(input)
				if err != nil {
					results = append(results, parseResult{
						Input: input,
						Error: &output.ErrorPayload{Code: maplink.Code(err), Message: maplink.Reason(err)},
					})
					rows = append(rows, []string{truncate(input, 48), "-", "-", "-", "-", maplink.Code(err)})
					continue
				}
				results = append(results, parseResult{Input: input, Link: &link})
				warnings = append(warnings, link.Warnings...)
				rows = append(rows, []string{
					truncate(input, 48),
					strconv.FormatFloat(link.Lat, 'f', -1, 64),
					strconv.FormatFloat(link.Lon, 'f', -1, 64),
					strconv.Itoa(link.Zoom),
					link.Pattern,
					"ok",
				})
			}
			table := output.RenderTable("Map links", []string{"Input", "Lat", "Lon", "Zoom", "Rule", "Result"}, rows)
			return inv.emit(results, warnings, table)
		},
	}
	addParserFlags(cmd, &pflags)
	addGlobalFlags(cmd, &flags)
	return cmd
}

// collectInputs expands "-" into the non-empty lines of stdin.
func collectInputs(cmd *cobra.Command, args []string) ([]string, error) {
	inputs := make([]string, 0, len(args))
	for _, arg := range args {
		if arg != "-" {
			inputs = append(inputs, arg)
			continue
		}
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				inputs = append(inputs, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no input provided")
	}
	return inputs, nil
}

func renderLink(link domain.ParsedLocationLink) string {
	return output.RenderFields("Map link", [][2]string{
		{"Latitude", strconv.FormatFloat(link.Lat, 'f', -1, 64)},
		{"Longitude", strconv.FormatFloat(link.Lon, 'f', -1, 64)},
		{"Zoom", strconv.Itoa(link.Zoom)},
		{"Place", fallbackString(link.PlaceLabel, "-")},
		{"Rule", link.Pattern},
		{"Maps URL", maplink.MapsURL(link.Location)},
	})
}

func newMaplinkFormatCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var lat float64
	var lon float64

	cmd := &cobra.Command{
		Use:     "format",
		Short:   "Render a coordinate pair as text the parser accepts and as a Google Maps link.",
		Example: "relawan maplink format --lat=-7.7956 --lon=110.3695",
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := newInvocation(cmd, deps, flags)
			if err != nil {
				return err
			}
			loc := domain.Location{Lat: lat, Lon: lon}
			if !loc.Valid() {
				return inv.fail(codeInvalidArgument, "latitude must be within [-90, 90] and longitude within [-180, 180]")
			}
			data := map[string]any{
				"lat":        loc.Lat,
				"lon":        loc.Lon,
				"coordinate": maplink.FormatCoordinate(loc),
				"maps_url":   maplink.MapsURL(loc),
			}
			table := output.RenderFields("Coordinate", [][2]string{
				{"Coordinate", maplink.FormatCoordinate(loc)},
				{"Maps URL", maplink.MapsURL(loc)},
			})
			return inv.emit(data, nil, table)
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in decimal degrees.")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in decimal degrees.")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	addGlobalFlags(cmd, &flags)
	return cmd
}

func fallbackString(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}
