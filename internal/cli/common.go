package cli

import (
	"log/slog"
	"strings"

	"github.com/relawanhub/relawan/internal/achievement"
	"github.com/relawanhub/relawan/internal/config"
	"github.com/relawanhub/relawan/internal/domain"
	"github.com/relawanhub/relawan/internal/logging"
	"github.com/relawanhub/relawan/internal/maplink"
	"github.com/relawanhub/relawan/internal/service/output"
	"github.com/spf13/cobra"
)

const (
	codeInvalidArgument = "RELAWAN_INVALID_ARGUMENT"
	codeProfileError    = "RELAWAN_PROFILE_ERROR"
	codeLocationResolve = "RELAWAN_LOCATION_RESOLVE_ERROR"
)

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return ""
}

type globalFlags struct {
	Format  string
	Profile string
	Locale  string
	Output  string
	Verbose bool
}

const sharedGlobalFlagAnnotation = "relawan_cli_shared_global"

func addGlobalFlags(cmd *cobra.Command, flags *globalFlags) {
	addSharedGlobalFlag(cmd, "format", func() {
		cmd.Flags().StringVar(&flags.Format, "format", "table", "Output format: table, json, or yaml.")
	})
	addSharedGlobalFlag(cmd, "profile", func() {
		cmd.Flags().StringVar(&flags.Profile, "profile", "", "Profile name for saved local defaults.")
	})
	addSharedGlobalFlag(cmd, "locale", func() {
		cmd.Flags().StringVar(&flags.Locale, "locale", "id-ID", "Response locale in BCP-47 format, for example id-ID.")
	})
	addSharedGlobalFlag(cmd, "output", func() {
		cmd.Flags().StringVar(&flags.Output, "output", "", "Also write the rendered output to this file.")
	})
	addSharedGlobalFlag(cmd, "verbose", func() {
		cmd.Flags().BoolVar(&flags.Verbose, "verbose", false, "Enable debug logging on stderr.")
	})
}

func addSharedGlobalFlag(cmd *cobra.Command, name string, register func()) {
	if cmd.Flags().Lookup(name) != nil {
		return
	}
	register()
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		return
	}
	if flag.Annotations == nil {
		flag.Annotations = map[string][]string{}
	}
	flag.Annotations[sharedGlobalFlagAnnotation] = []string{"true"}
}

func resolveProfileLabel(profileName string) string {
	profile := strings.TrimSpace(profileName)
	if profile == "" {
		return "anonymous"
	}
	return profile
}

func parseOutputFormat(format string) (output.Format, error) {
	return output.ParseFormat(format)
}

func writeTable(cmd *cobra.Command, text string, outputPath string) error {
	if err := output.WriteOutput(cmd.OutOrStdout(), text, outputPath); err != nil {
		return err
	}
	return nil
}

func writeMachinePayload(cmd *cobra.Command, env output.Envelope, format output.Format, outputPath string) error {
	rendered, err := output.RenderPayload(env, format)
	if err != nil {
		return err
	}
	if err := output.WriteOutput(cmd.OutOrStdout(), rendered, outputPath); err != nil {
		return err
	}
	return nil
}

func emitError(
	cmd *cobra.Command,
	format output.Format,
	profile string,
	locale string,
	outputPath string,
	code string,
	message string,
) error {
	if format == output.FormatTable {
		if err := output.WriteOutput(cmd.OutOrStdout(), message, outputPath); err != nil {
			return err
		}
		return &exitError{code: 1}
	}
	env := output.BuildEnvelope(profile, locale, nil, []string{}, &output.ErrorPayload{
		Code:    code,
		Message: message,
	})
	if err := writeMachinePayload(cmd, env, format, outputPath); err != nil {
		return err
	}
	return &exitError{code: 1}
}

// invocation carries what every command resolves before doing its work.
type invocation struct {
	cmd      *cobra.Command
	deps     Dependencies
	flags    globalFlags
	format   output.Format
	profile  domain.Profile
	label    string
	locale   string
	settings config.Settings
}

// newInvocation resolves the output format and the selected profile. A
// missing config is fine unless a profile was named explicitly.
func newInvocation(cmd *cobra.Command, deps Dependencies, flags globalFlags) (*invocation, error) {
	format, err := parseOutputFormat(flags.Format)
	if err != nil {
		return nil, err
	}
	inv := &invocation{
		cmd:      cmd,
		deps:     deps,
		flags:    flags,
		format:   format,
		label:    resolveProfileLabel(flags.Profile),
		locale:   flags.Locale,
		settings: deps.settings(),
	}

	explicit := strings.TrimSpace(flags.Profile) != ""
	if deps.Profiles != nil {
		profile, err := deps.Profiles.Find(cmd.Context(), flags.Profile)
		switch {
		case err == nil:
			inv.profile = profile
			inv.label = profile.Name
		case explicit:
			return nil, inv.fail(codeProfileError, err.Error())
		default:
			inv.logger().Debug("no default profile", "error", err)
		}
	} else if explicit {
		return nil, inv.fail(codeProfileError, "profile store is not available")
	}

	if !cmd.Flags().Changed("locale") && inv.profile.Locale != "" {
		inv.locale = inv.profile.Locale
	}
	return inv, nil
}

func (inv *invocation) logger() *slog.Logger {
	return logging.FromContext(inv.cmd.Context())
}

func (inv *invocation) fail(code string, message string) error {
	return emitError(inv.cmd, inv.format, inv.label, inv.locale, inv.flags.Output, code, message)
}

// emit writes table for table output, otherwise data inside an envelope.
func (inv *invocation) emit(data any, warnings []string, table string) error {
	if inv.format == output.FormatTable {
		for _, warning := range warnings {
			table += "\nwarning: " + warning
		}
		return writeTable(inv.cmd, table, inv.flags.Output)
	}
	env := output.BuildEnvelope(inv.label, inv.locale, data, warnings, nil)
	return writeMachinePayload(inv.cmd, env, inv.format, inv.flags.Output)
}

// parserFlags are the per-command parser overrides.
type parserFlags struct {
	RegionPolicy string
	Loose        bool
	NoLabel      bool
}

func addParserFlags(cmd *cobra.Command, flags *parserFlags) {
	cmd.Flags().StringVar(&flags.RegionPolicy, "region-policy", "", "Out-of-region handling: strict, warn, or off. Defaults to the profile, then settings.")
	cmd.Flags().BoolVar(&flags.Loose, "loose", false, "Accept any lat,lng pair embedded in free text as a last resort.")
	cmd.Flags().BoolVar(&flags.NoLabel, "no-label", false, "Do not extract a place label from the link.")
}

// parser builds a maplink parser. Precedence is flag, then profile, then
// settings.
func (inv *invocation) parser(flags parserFlags) (*maplink.Parser, error) {
	policy := strings.TrimSpace(flags.RegionPolicy)
	if policy == "" {
		policy = inv.profile.RegionPolicy
	}
	opts, err := inv.settings.ParserOptions(policy)
	if err != nil {
		return nil, inv.fail(codeInvalidArgument, err.Error())
	}
	if inv.cmd.Flags().Changed("loose") {
		opts = append(opts, maplink.WithLooseFallback(flags.Loose))
	}
	if flags.NoLabel {
		opts = append(opts, maplink.WithPlaceLabel(false))
	}
	return maplink.New(opts...), nil
}

// catalog resolves the badge track from the flag, then the profile.
func (inv *invocation) catalog(track string) (*achievement.Catalog, error) {
	if strings.TrimSpace(track) == "" {
		track = inv.profile.Track
	}
	parsed, err := achievement.ParseTrack(track)
	if err != nil {
		return nil, inv.fail(codeInvalidArgument, err.Error())
	}
	catalog, err := achievement.ForTrack(parsed)
	if err != nil {
		return nil, inv.fail(codeInvalidArgument, err.Error())
	}
	return catalog, nil
}

// parseFailure maps a maplink error to its code and user-facing reason.
func (inv *invocation) parseFailure(err error) error {
	return inv.fail(maplink.Code(err), maplink.Reason(err))
}
