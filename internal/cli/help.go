package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var helpNotes = []string{
	"options are optional unless marked [required].",
	"put -- before inputs that start with a minus sign, for example: relawan maplink parse -- -6.2088,106.8456",
	"shortened share links (maps.app.goo.gl) carry no coordinates; paste the full link instead.",
	"badge level-up without --previous compares against the count remembered in the profile.",
	"runtime settings come from relawan.yaml, RELAWAN_SETTINGS_FILE, or RELAWAN_* variables.",
}

func renderRootHelp(out io.Writer, root *cobra.Command) {
	_, _ = fmt.Fprintf(out, "%s: %s\n\n", root.Name(), root.Short)
	_, _ = fmt.Fprintf(out, "usage: %s <command> [options]\n\n", root.Name())

	_, _ = fmt.Fprintln(out, "global options (accepted by every command that prints results):")
	for _, option := range append(localOptions(root), sharedOptions()...) {
		_, _ = fmt.Fprintf(out, "  %s%s: %s\n", option.token, optionLabels(option), option.usage)
	}

	for _, group := range root.Groups() {
		_, _ = fmt.Fprintf(out, "\n%s:\n", group.Title)
		for _, cmd := range visibleCommands(root) {
			if cmd.GroupID == group.ID {
				_, _ = fmt.Fprintf(out, "  %-10s %s\n", cmd.Name(), cmd.Short)
			}
		}
	}

	_, _ = fmt.Fprintln(out, "\nnotes:")
	for _, note := range helpNotes {
		_, _ = fmt.Fprintf(out, "  - %s\n", note)
	}

	_, _ = fmt.Fprintln(out, "\nfull reference:")
	emitReference(out, root, root.Name())
}

func visibleCommands(parent *cobra.Command) []*cobra.Command {
	commands := make([]*cobra.Command, 0, len(parent.Commands()))
	for _, cmd := range parent.Commands() {
		if !cmd.Hidden {
			commands = append(commands, cmd)
		}
	}
	return commands
}

// emitReference prints every leaf and group command with its own options
// and example, depth first.
func emitReference(out io.Writer, parent *cobra.Command, path string) {
	for _, cmd := range visibleCommands(parent) {
		_, _ = fmt.Fprintf(out, "- %s\n  %s\n", strings.TrimSpace(path+" "+cmd.Use), cmd.Short)
		if options := commandOptions(cmd); len(options) > 0 {
			_, _ = fmt.Fprintln(out, "  options:")
			for _, option := range options {
				_, _ = fmt.Fprintf(out, "    %s%s: %s\n", option.token, optionLabels(option), option.usage)
			}
		}
		if example := strings.TrimSpace(cmd.Example); example != "" {
			_, _ = fmt.Fprintln(out, "  example:")
			for _, line := range strings.Split(example, "\n") {
				_, _ = fmt.Fprintf(out, "    %s\n", strings.TrimSpace(line))
			}
		}
		_, _ = fmt.Fprintln(out)
		emitReference(out, cmd, strings.TrimSpace(path+" "+cmd.Name()))
	}
}

type optionDoc struct {
	name      string
	token     string
	usage     string
	required  bool
	inherited bool
}

func newOptionDoc(flag *pflag.Flag, inherited bool) optionDoc {
	return optionDoc{
		name:      flag.Name,
		token:     flagToken(flag),
		usage:     strings.TrimSpace(flag.Usage),
		required:  isFlagRequired(flag),
		inherited: inherited,
	}
}

// sharedOptions documents the flags addGlobalFlags registers, in
// registration order.
func sharedOptions() []optionDoc {
	probe := &cobra.Command{}
	probe.Flags().SortFlags = false
	addGlobalFlags(probe, &globalFlags{})

	options := make([]optionDoc, 0)
	probe.Flags().VisitAll(func(flag *pflag.Flag) {
		options = append(options, newOptionDoc(flag, false))
	})
	return options
}

func localOptions(cmd *cobra.Command) []optionDoc {
	options := make([]optionDoc, 0)
	cmd.LocalFlags().VisitAll(func(flag *pflag.Flag) {
		if flag.Hidden || flag.Name == "help" || isSharedGlobalFlag(flag) {
			return
		}
		options = append(options, newOptionDoc(flag, false))
	})
	return options
}

// commandOptions lists the options specific to cmd. Shared global flags
// are documented once at the top of the help instead.
func commandOptions(cmd *cobra.Command) []optionDoc {
	options := localOptions(cmd)
	cmd.InheritedFlags().VisitAll(func(flag *pflag.Flag) {
		if flag.Hidden || flag.Name == "help" || isSharedGlobalFlag(flag) {
			return
		}
		options = append(options, newOptionDoc(flag, true))
	})
	return options
}

func isSharedGlobalFlag(flag *pflag.Flag) bool {
	values := flag.Annotations[sharedGlobalFlagAnnotation]
	return len(values) > 0 && values[0] == "true"
}

func flagToken(flag *pflag.Flag) string {
	if flag.Shorthand != "" {
		return "--" + flag.Name + "/-" + flag.Shorthand
	}
	return "--" + flag.Name
}

func isFlagRequired(flag *pflag.Flag) bool {
	values := flag.Annotations[cobra.BashCompOneRequiredFlag]
	return len(values) > 0 && values[0] == "true"
}

func optionLabels(option optionDoc) string {
	labels := make([]string, 0, 2)
	if option.required {
		labels = append(labels, "required")
	}
	if option.inherited {
		labels = append(labels, "global")
	}
	if len(labels) == 0 {
		return ""
	}
	return " [" + strings.Join(labels, ", ") + "]"
}
