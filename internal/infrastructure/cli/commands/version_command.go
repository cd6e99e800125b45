package commands

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/doeshing/shellgate/internal/app"
	"github.com/doeshing/shellgate/internal/version"
)

// NewVersionCommand creates the version command. With a container it also
// reports which rule tables and tracker backend the build is running with.
func NewVersionCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show shellgate version and pipeline backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			displayVersionInformation(cmd.OutOrStdout(), container)
			return nil
		},
	}
}

func displayVersionInformation(out io.Writer, container *app.Container) {
	fmt.Fprintf(out, "shellgate version %s", version.Version)
	if version.Commit != "" {
		fmt.Fprintf(out, " (%s", version.Commit)
		if version.BuildDate != "" {
			fmt.Fprintf(out, ", %s", version.BuildDate)
		}
		fmt.Fprint(out, ")")
	}
	fmt.Fprintf(out, " %s\n", runtime.Version())

	if container == nil {
		return
	}
	if container.Rules != nil {
		fmt.Fprintf(out, "Rules:   %s (%d filter patterns)\n", container.Rules.Source(), container.Rules.PatternCount())
	}
	if container.StoreName != "" {
		fmt.Fprintf(out, "Tracker: %s\n", container.StoreName)
	}
	fmt.Fprintf(out, "Metrics: %t\n", container.Metrics != nil)
}
