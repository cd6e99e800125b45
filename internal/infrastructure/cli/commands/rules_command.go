package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/shellgate/internal/app"
	"github.com/doeshing/shellgate/internal/infrastructure/cli/helpers"
	"github.com/doeshing/shellgate/internal/infrastructure/rules"
)

// NewRulesCommand creates the rules command
func NewRulesCommand(container *app.Container) *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect classifier and filter rule tables",
	}

	rulesCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the loaded rule tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Rules == nil {
				return fmt.Errorf("rules not loaded")
			}
			displayRuleSet(cmd.OutOrStdout(), container.Rules)
			return nil
		},
	})

	return rulesCmd
}

func displayRuleSet(out io.Writer, rs *rules.RuleSet) {
	fmt.Fprintf(out, "Source: %s\n\n", rs.Source())

	fmt.Fprintln(out, helpers.Header("Classification (first match wins):"))
	for _, rule := range rs.Classification() {
		fmt.Fprintf(out, "  %-20s %s\n", rule.Type, joinPrefixes(rule.Prefixes))
	}

	fmt.Fprintln(out, helpers.Header("Priorities:"))
	for _, rule := range rs.Priorities() {
		fmt.Fprintf(out, "  %-20s %s\n", rule.Level, joinPrefixes(rule.Prefixes))
	}

	fmt.Fprintln(out, helpers.Header(fmt.Sprintf("Filter patterns (%d):", rs.PatternCount())))
	for _, t := range rs.FilterTypes() {
		fmt.Fprintf(out, "  %-20s %d pattern(s)  %s\n", t, len(rs.Patterns(t)), helpers.Muted(rs.Alternative(t)))
	}
}

func joinPrefixes(prefixes [][]string) string {
	parts := make([]string, 0, len(prefixes))
	for _, words := range prefixes {
		parts = append(parts, strings.Join(words, " "))
	}
	return strings.Join(parts, ", ")
}
