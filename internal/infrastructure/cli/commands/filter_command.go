package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/doeshing/shellgate/internal/app"
	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/infrastructure/cli/helpers"
)

// NewFilterCommand creates the filter command
func NewFilterCommand(container *app.Container) *cobra.Command {
	var (
		asJSON      bool
		showMatches bool
	)

	cmd := &cobra.Command{
		Use:   "filter [file|-]",
		Short: "Strip shell commands from an assistant reply",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := StdinArgument
			if len(args) == 1 {
				source = args[0]
			}
			content, err := readInput(cmd.InOrStdin(), source)
			if err != nil {
				return err
			}
			result := container.Filter.Filter(content)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			displayFilterResult(cmd.OutOrStdout(), result, showMatches)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full filter result as JSON")
	cmd.Flags().BoolVar(&showMatches, "matches", false, "List every removed span after the filtered text")
	return cmd
}

func displayFilterResult(out io.Writer, result domain.FilterResult, showMatches bool) {
	fmt.Fprintln(out, result.FilteredContent)
	if !showMatches {
		return
	}
	fmt.Fprintln(out)
	if len(result.CommandsFiltered) == 0 {
		fmt.Fprintln(out, MsgNoCommandsFiltered)
		return
	}
	fmt.Fprintln(out, helpers.Header(fmt.Sprintf("Removed %d span(s):", len(result.CommandsFiltered))))
	for _, match := range result.CommandsFiltered {
		fmt.Fprintf(out, "  [%d:%d] %-20s %q\n", match.Start, match.End, match.CommandType, match.OriginalText)
	}
}

func readInput(stdin io.Reader, source string) (string, error) {
	if source == StdinArgument {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", source, err)
	}
	return string(data), nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
