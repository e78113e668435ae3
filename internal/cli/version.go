package cli

import (
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/relawanhub/relawan/internal/service/output"
	"github.com/spf13/cobra"
)

const (
	devVersion         = "dev"
	goDevelMainVersion = "(devel)"
	vcsRevisionKey     = "vcs.revision"
	vcsModifiedKey     = "vcs.modified"
)

var readBuildInfo = debug.ReadBuildInfo

// buildDetails describes the running binary.
type buildDetails struct {
	Version   string `json:"version" yaml:"version"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Revision  string `json:"revision,omitempty" yaml:"revision,omitempty"`
	Modified  bool   `json:"modified" yaml:"modified"`
}

func resolvedVersion(raw string) string {
	return resolveBuild(raw).Version
}

// resolveBuild prefers an injected version, then the module version, then
// the VCS revision.
func resolveBuild(raw string) buildDetails {
	details := buildDetails{GoVersion: runtime.Version()}
	trimmed := strings.TrimSpace(raw)

	info, ok := readBuildInfo()
	if ok && info != nil {
		details.Revision, details.Modified = buildRevision(info.Settings)
		if info.GoVersion != "" {
			details.GoVersion = info.GoVersion
		}
	}

	switch {
	case trimmed != "" && trimmed != devVersion:
		details.Version = trimmed
	case ok && info != nil && strings.TrimSpace(info.Main.Version) != "" && info.Main.Version != goDevelMainVersion:
		details.Version = strings.TrimSpace(info.Main.Version)
	case details.Revision != "" && details.Modified:
		details.Version = details.Revision + "-dirty"
	case details.Revision != "":
		details.Version = details.Revision
	case trimmed != "":
		details.Version = trimmed
	default:
		details.Version = devVersion
	}
	return details
}

func buildRevision(settings []debug.BuildSetting) (string, bool) {
	var revision string
	dirty := false
	for _, setting := range settings {
		switch setting.Key {
		case vcsRevisionKey:
			revision = strings.TrimSpace(setting.Value)
		case vcsModifiedKey:
			dirty = strings.EqualFold(strings.TrimSpace(setting.Value), "true")
		}
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	return revision, dirty
}

func newVersionCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version, Go toolchain, and VCS revision of this build.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			details := resolveBuild(deps.Version)
			if format == output.FormatTable {
				return writeTable(cmd, output.RenderFields("relawan", [][2]string{
					{"Version", details.Version},
					{"Go", details.GoVersion},
					{"Revision", fallbackString(details.Revision, "-")},
					{"Modified", yesNo(details.Modified)},
				}), flags.Output)
			}
			env := output.BuildEnvelope(resolveProfileLabel(flags.Profile), flags.Locale, details, nil, nil)
			return writeMachinePayload(cmd, env, format, flags.Output)
		},
	}
	addGlobalFlags(cmd, &flags)
	return cmd
}
