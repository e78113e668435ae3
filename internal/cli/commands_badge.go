package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relawanhub/relawan/internal/achievement"
	"github.com/relawanhub/relawan/internal/domain"
	"github.com/relawanhub/relawan/internal/service/output"
	"github.com/spf13/cobra"
)

const trackFlagUsage = "Badge track: organizer or volunteer. Defaults to the profile track, then volunteer."

func newBadgeCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "badge",
		Short: "Classify event counts into achievement tiers.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newBadgeTiersCommand(deps))
	cmd.AddCommand(newBadgeClassifyCommand(deps))
	cmd.AddCommand(newBadgeProgressCommand(deps))
	cmd.AddCommand(newBadgeLevelUpCommand(deps))
	return cmd
}

func newBadgeTiersCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var track string

	cmd := &cobra.Command{
		Use:   "tiers",
		Short: "List the tiers of a badge track.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := newInvocation(cmd, deps, flags)
			if err != nil {
				return err
			}
			catalog, err := inv.catalog(track)
			if err != nil {
				return err
			}
			tiers := catalog.Tiers()
			rows := make([][]string, 0, len(tiers))
			for _, tier := range tiers {
				rows = append(rows, []string{strconv.Itoa(tier.Level), tierRange(tier), tier.Title, string(tier.Icon)})
			}
			table := output.RenderTable("Tiers ("+string(catalog.Track())+")", []string{"Level", "Events", "Title", "Icon"}, rows)
			return inv.emit(map[string]any{"track": catalog.Track(), "tiers": tiers}, nil, table)
		},
	}
	cmd.Flags().StringVar(&track, "track", "", trackFlagUsage)
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newBadgeClassifyCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var track string

	cmd := &cobra.Command{
		Use:     "classify <count>",
		Short:   "Show the tier an event count falls into.",
		Example: "relawan badge classify --track organizer 12",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := newInvocation(cmd, deps, flags)
			if err != nil {
				return err
			}
			catalog, err := inv.catalog(track)
			if err != nil {
				return err
			}
			count, err := parseCount(args[0])
			if err != nil {
				return inv.fail(codeInvalidArgument, err.Error())
			}
			tier := catalog.Classify(count)
			return inv.emit(tier, nil, renderTier("Badge", tier))
		},
	}
	cmd.Flags().StringVar(&track, "track", "", trackFlagUsage)
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newBadgeProgressCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var track string

	cmd := &cobra.Command{
		Use:   "progress <count>",
		Short: "Show how far an event count is from the next tier.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := newInvocation(cmd, deps, flags)
			if err != nil {
				return err
			}
			catalog, err := inv.catalog(track)
			if err != nil {
				return err
			}
			count, err := parseCount(args[0])
			if err != nil {
				return inv.fail(codeInvalidArgument, err.Error())
			}
			progress := catalog.Progress(count)
			next := "-"
			if progress.NextLevel != nil {
				next = strconv.Itoa(*progress.NextLevel)
			}
			table := output.RenderFields("Progress", [][2]string{
				{"Current level", strconv.Itoa(progress.CurrentLevel)},
				{"Next level", next},
				{"Events needed", strconv.Itoa(progress.EventsNeeded)},
				{"Progress", strconv.FormatFloat(progress.ProgressPercentage, 'f', 1, 64) + "%"},
				{"Max level", yesNo(progress.IsMaxLevel)},
			})
			return inv.emit(progress, nil, table)
		},
	}
	cmd.Flags().StringVar(&track, "track", "", trackFlagUsage)
	addGlobalFlags(cmd, &flags)
	return cmd
}

func newBadgeLevelUpCommand(deps Dependencies) *cobra.Command {
	var flags globalFlags
	var track string
	var current int
	var previous int

	cmd := &cobra.Command{
		Use:     "level-up",
		Short:   "Report whether a new count crossed into a higher tier. Without --previous the profile remembers the last count.",
		Example: `relawan badge level-up --track volunteer --previous 3 --current 4
relawan badge level-up --profile yayasan --current 11`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := newInvocation(cmd, deps, flags)
			if err != nil {
				return err
			}
			catalog, err := inv.catalog(track)
			if err != nil {
				return err
			}

			warnings := make([]string, 0)
			if !cmd.Flags().Changed("previous") {
				remembered, known, err := rememberCount(inv, catalog.Track(), current)
				if err != nil {
					return err
				}
				previous = remembered
				if !known {
					previous = current
					warnings = append(warnings, fmt.Sprintf("no previous %s count in profile; saved %d as the baseline", catalog.Track(), current))
				}
			}

			result := catalog.CheckLevelUp(previous, current)
			inv.logger().Debug("level-up checked", "track", catalog.Track(), "previous", previous, "current", current, "leveled_up", result.HasLeveledUp)

			var table string
			if result.HasLeveledUp {
				table = renderTier(fmt.Sprintf("Level up! %d -> %d", result.PreviousLevel, result.NewLevel), *result.NewTier)
			} else {
				table = fmt.Sprintf("No level change (level %d).", result.NewLevel)
			}
			return inv.emit(result, warnings, table)
		},
	}
	cmd.Flags().StringVar(&track, "track", "", trackFlagUsage)
	cmd.Flags().IntVar(&current, "current", 0, "Current event count.")
	cmd.Flags().IntVar(&previous, "previous", 0, "Previous event count. Omit to use and update the count remembered in the profile.")
	_ = cmd.MarkFlagRequired("current")
	addGlobalFlags(cmd, &flags)
	return cmd
}

// rememberCount swaps the profile's stored count for track with current.
func rememberCount(inv *invocation, track achievement.Track, current int) (int, bool, error) {
	if inv.deps.Profiles == nil {
		return 0, false, inv.fail(codeProfileError, "profile store is not available; pass --previous")
	}
	previous, known, err := inv.deps.Profiles.RecordCount(inv.cmd.Context(), inv.flags.Profile, string(track), current)
	if err != nil {
		return 0, false, inv.fail(codeProfileError, err.Error())
	}
	return previous, known, nil
}

func parseCount(raw string) (int, error) {
	count, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("count must be an integer, got %q", raw)
	}
	return count, nil
}

func tierRange(tier domain.AchievementTier) string {
	switch {
	case tier.Unbounded():
		return strconv.Itoa(tier.MinCount) + "+"
	case *tier.MaxCount == tier.MinCount:
		return strconv.Itoa(tier.MinCount)
	default:
		return fmt.Sprintf("%d-%d", tier.MinCount, *tier.MaxCount)
	}
}

func renderTier(title string, tier domain.AchievementTier) string {
	return output.RenderFields(title, [][2]string{
		{"Level", strconv.Itoa(tier.Level)},
		{"Title", tier.Title},
		{"Subtitle", tier.Subtitle},
		{"Description", tier.Description},
		{"Events", tierRange(tier)},
		{"Icon", string(tier.Icon)},
	})
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
