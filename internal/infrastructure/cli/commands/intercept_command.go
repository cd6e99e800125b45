package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/shellgate/internal/app"
	"github.com/doeshing/shellgate/internal/infrastructure/cli/helpers"
)

// NewInterceptCommand creates the intercept command
func NewInterceptCommand(container *app.Container) *cobra.Command {
	var (
		repoDir   string
		sessionID string
		userID    string
	)

	cmd := &cobra.Command{
		Use:   "intercept <command...>",
		Short: "Run a shell command through the interception gate",
		Long: "Intercept converts or blocks a command exactly as a web session would, " +
			"recording the operation when --session is set.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return interceptCommand(cmd.Context(), cmd.OutOrStdout(), container, interceptOptions{
				repoDir:   repoDir,
				sessionID: sessionID,
				userID:    userID,
				command:   strings.Join(args, " "),
			})
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", DefaultRepositoryDir, "Repository directory to convert against")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session to record the operation under")
	cmd.Flags().StringVar(&userID, "user", "", "User recorded on the operation (default from config)")
	return cmd
}

type interceptOptions struct {
	repoDir   string
	sessionID string
	userID    string
	command   string
}

func interceptCommand(ctx context.Context, out io.Writer, container *app.Container, opts interceptOptions) error {
	repo, err := loadRepository(ctx, container, opts.repoDir)
	if err != nil {
		return err
	}
	svc := container.NewSession(repo, nil, opts.sessionID)
	if opts.userID != "" {
		svc.Gate.UserID = opts.userID
	}

	code, output := svc.Gate.Intercept(ctx, opts.command)
	fmt.Fprintf(out, "%s %s\n", helpers.ExitLabel(code), opts.command)
	fmt.Fprintln(out, output)

	if opts.sessionID != "" {
		progress := svc.ConversionProgress(ctx)
		if progress.Error != "" {
			fmt.Fprintf(out, "%s\n", helpers.Muted("tracking unavailable: "+progress.Error))
		} else if progress.Session != nil {
			fmt.Fprintf(out, "%s\n", helpers.Muted(fmt.Sprintf("session %s: %d/%d converted",
				opts.sessionID, progress.Session.ConvertedOperations, progress.Session.TotalOperations)))
		}
	}
	return nil
}
