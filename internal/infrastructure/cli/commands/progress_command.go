package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/shellgate/internal/app"
	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/infrastructure/cli/helpers"
)

// NewProgressCommand creates the progress command
func NewProgressCommand(container *app.Container) *cobra.Command {
	var (
		sessionID string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show conversion progress recorded for a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				return fmt.Errorf(ErrSessionRequired)
			}
			return showSessionProgress(cmd.Context(), cmd.OutOrStdout(), container, sessionID, asJSON)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session identifier")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print progress as JSON")
	return cmd
}

func showSessionProgress(ctx context.Context, out io.Writer, container *app.Container, sessionID string, asJSON bool) error {
	if container.Store == nil {
		return fmt.Errorf(ErrStoreUnavailable)
	}
	progress, err := container.Store.SessionProgress(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}
	if asJSON {
		return writeJSON(out, progress)
	}
	displaySessionProgress(out, progress)
	return nil
}

func displaySessionProgress(out io.Writer, progress domain.SessionProgress) {
	fmt.Fprintln(out, helpers.Header("Session "+progress.SessionID))
	fmt.Fprintf(out, "Total:      %d\n", progress.TotalOperations)
	fmt.Fprintf(out, "Converted:  %d\n", progress.ConvertedOperations)
	fmt.Fprintf(out, "Failed:     %d\n", progress.FailedOperations)
	fmt.Fprintf(out, "Pending:    %d\n", progress.PendingOperations)
	fmt.Fprintf(out, "Converted%%: %s\n", helpers.Percent(progress.ConversionPercentage))
	fmt.Fprintf(out, "Success:    %s\n", helpers.Percent(progress.SuccessRate))
}
