package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/shellgate/internal/app"
)

// NewClassifyCommand creates the classify command
func NewClassifyCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <command...>",
		Short: "Show the type and priority assigned to a shell command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return classifyCommand(cmd.OutOrStdout(), container, strings.Join(args, " "))
		},
	}
}

func classifyCommand(out io.Writer, container *app.Container, command string) error {
	if container.Classifier == nil {
		return fmt.Errorf("classifier unavailable")
	}
	fmt.Fprintf(out, "Command:  %s\n", command)
	fmt.Fprintf(out, "Type:     %s\n", container.Classifier.Classify(command))
	fmt.Fprintf(out, "Priority: %s\n", container.Classifier.Priority(command))
	return nil
}
