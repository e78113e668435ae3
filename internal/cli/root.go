package cli

import (
	"fmt"

	"github.com/relawanhub/relawan/internal/logging"
	"github.com/spf13/cobra"
)

const (
	groupMaps     = "maps"
	groupBadges   = "badges"
	groupProfiles = "profiles"
	groupService  = "service"
)

// NewRootCommand builds the complete command tree.
func NewRootCommand(deps Dependencies) *cobra.Command {
	version := resolvedVersion(deps.Version)

	root := &cobra.Command{
		Use:           "relawan",
		Short:         "Read coordinates from map links, classify volunteer badges, and manage local profiles.",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			attachLogger(cmd, deps)
			if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
				return errVersionShown
			}
			return nil
		},
	}
	root.Flags().BoolP("version", "v", false, "Show CLI version and exit.")
	root.SetHelpCommand(&cobra.Command{Hidden: true})
	defaultHelpFunc := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd == root {
			renderRootHelp(cmd.OutOrStdout(), root)
			return
		}
		defaultHelpFunc(cmd, args)
	})

	root.AddGroup(
		&cobra.Group{ID: groupMaps, Title: "map links and places"},
		&cobra.Group{ID: groupBadges, Title: "achievement badges"},
		&cobra.Group{ID: groupProfiles, Title: "local profiles"},
		&cobra.Group{ID: groupService, Title: "service and build"},
	)
	addGrouped(root, groupMaps, newMaplinkCommand(deps), newLocateCommand(deps))
	addGrouped(root, groupBadges, newBadgeCommand(deps))
	addGrouped(root, groupProfiles, newConfigureCommand(deps))
	addGrouped(root, groupService, newServeCommand(deps), newVersionCommand(deps))

	return root
}

func addGrouped(root *cobra.Command, groupID string, commands ...*cobra.Command) {
	for _, cmd := range commands {
		cmd.GroupID = groupID
		root.AddCommand(cmd)
	}
}

// attachLogger puts a logger on the command context. --verbose lowers the
// level to debug.
func attachLogger(cmd *cobra.Command, deps Dependencies) {
	if cmd == nil {
		return
	}
	settings := deps.settings()
	level := settings.Log.Level
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	logger := logging.New(level, settings.Log.Format, cmd.ErrOrStderr())
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
}
