package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/shellgate/internal/app"
	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/infrastructure/cli/helpers"
	"github.com/doeshing/shellgate/internal/ports"
)

// NewOperationsCommand creates the operations command with all subcommands
func NewOperationsCommand(container *app.Container) *cobra.Command {
	operationsCmd := &cobra.Command{
		Use:   "operations",
		Short: "Inspect tracked conversion operations",
	}

	operationsCmd.AddCommand(
		newOperationsListCommand(container),
		newOperationsStatsCommand(container),
		newOperationsExportCommand(container),
		newOperationsPruneCommand(container),
	)

	return operationsCmd
}

// newOperationsListCommand creates the 'operations list' subcommand
func newOperationsListCommand(container *app.Container) *cobra.Command {
	var (
		sessionID string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the newest operations of a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				return fmt.Errorf(ErrSessionRequired)
			}
			return listOperations(cmd.Context(), cmd.OutOrStdout(), container, sessionID, limit)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session identifier")
	cmd.Flags().IntVar(&limit, "limit", domain.DefaultOperationsLimit, "Max operations to show")
	return cmd
}

// newOperationsStatsCommand creates the 'operations stats' subcommand
func newOperationsStatsCommand(container *app.Container) *cobra.Command {
	var (
		sessionID string
		top       int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-type counts and the most intercepted commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				return fmt.Errorf(ErrSessionRequired)
			}
			return showOperationStats(cmd.Context(), cmd.OutOrStdout(), container, sessionID, top)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session identifier")
	cmd.Flags().IntVar(&top, "top", DefaultTopCommands, "How many commands to rank")
	return cmd
}

// newOperationsExportCommand creates the 'operations export' subcommand
func newOperationsExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export every operation to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := getStore(container)
			if err != nil {
				return err
			}
			if err := store.ExportJSON(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to export operations: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Operations exported to %s\n", args[0])
			return nil
		},
	}
}

// newOperationsPruneCommand creates the 'operations prune' subcommand
func newOperationsPruneCommand(container *app.Container) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete operations older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("days") {
				days = container.Config.GetRetentionDays()
			}
			if days <= 0 {
				return fmt.Errorf(ErrInvalidRetainDays)
			}
			return pruneOperations(cmd.Context(), cmd.OutOrStdout(), container, days)
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Retention window in days (default from config)")
	return cmd
}

func listOperations(ctx context.Context, out io.Writer, container *app.Container, sessionID string, limit int) error {
	store, err := getStore(container)
	if err != nil {
		return err
	}
	ops, err := store.SessionOperations(ctx, sessionID, limit)
	if err != nil {
		return fmt.Errorf("failed to list operations: %w", err)
	}
	if len(ops) == 0 {
		fmt.Fprintln(out, MsgNoOperationsRecorded)
		return nil
	}
	for _, op := range ops {
		fmt.Fprintf(out, "%s  %-20s %-8s %s  %s\n",
			op.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			op.Type,
			op.Priority,
			helpers.StateLabel(op.Status),
			op.OriginalCommand)
	}
	return nil
}

func showOperationStats(ctx context.Context, out io.Writer, container *app.Container, sessionID string, top int) error {
	store, err := getStore(container)
	if err != nil {
		return err
	}
	ops, err := store.SessionOperations(ctx, sessionID, 0)
	if err != nil {
		return fmt.Errorf("failed to list operations: %w", err)
	}
	if len(ops) == 0 {
		fmt.Fprintln(out, MsgNoOperationsRecorded)
		return nil
	}

	stats := helpers.SummariseOperations(ops, top)
	finished := stats.ByStatus[domain.StateCompleted] + stats.ByStatus[domain.StateFailed]
	fmt.Fprintf(out, "Total operations: %d\n", stats.Total)
	fmt.Fprintf(out, "Success rate:     %s\n",
		helpers.Percent(helpers.CalculateSuccessRate(stats.ByStatus[domain.StateCompleted], finished)))

	fmt.Fprintln(out, helpers.Header("By type:"))
	for _, t := range domain.CommandTypes() {
		if n := stats.ByType[t]; n > 0 {
			fmt.Fprintf(out, "  %-20s %d\n", t, n)
		}
	}
	fmt.Fprintln(out, helpers.Header("Top commands:"))
	for _, stat := range stats.TopCommands {
		fmt.Fprintf(out, "  %3d  %s\n", stat.Count, stat.Command)
	}
	return nil
}

func pruneOperations(ctx context.Context, out io.Writer, container *app.Container, days int) error {
	store, err := getStore(container)
	if err != nil {
		return err
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	removed, err := store.Prune(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune operations: %w", err)
	}
	fmt.Fprintf(out, "Removed %d operation(s) older than %d day(s)\n", removed, days)
	return nil
}

func getStore(container *app.Container) (ports.OperationStore, error) {
	if container.Store == nil {
		return nil, fmt.Errorf(ErrStoreUnavailable)
	}
	return container.Store, nil
}
