package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/shellgate/internal/app"
	"github.com/doeshing/shellgate/internal/infrastructure/repository"
)

// NewConvertCommand creates the convert command
func NewConvertCommand(container *app.Container) *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "convert <command...>",
		Short: "Print the read-only equivalent of a shell command",
		Long:  "Convert runs a shell command against a snapshot of the repository without executing anything.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return convertCommand(cmd.Context(), cmd.OutOrStdout(), container, repoDir, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", DefaultRepositoryDir, "Repository directory to convert against")
	return cmd
}

func convertCommand(ctx context.Context, out io.Writer, container *app.Container, repoDir, command string) error {
	repo, err := loadRepository(ctx, container, repoDir)
	if err != nil {
		return err
	}
	output, ok := container.Converter.Convert(ctx, command, repo)
	if !ok {
		return fmt.Errorf("no web-safe equivalent: %s", container.Converter.DeclineReason(command))
	}
	fmt.Fprintln(out, output)
	return nil
}

// loadRepository snapshots dir with the configured limits.
func loadRepository(ctx context.Context, container *app.Container, dir string) (*repository.Snapshot, error) {
	if dir == "" {
		dir = DefaultRepositoryDir
	}
	repo, err := container.LoadRepository(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load repository: %w", err)
	}
	return repo, nil
}
