package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doeshing/shellgate/internal/app"
	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/infrastructure/cli/helpers"
)

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(container *app.Container) *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration, rules and tracking",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctorDiagnostics(cmd, cmd.OutOrStdout(), container, repoDir)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", "", "Also check that this repository can be snapshotted")
	return cmd
}

// runDoctorDiagnostics runs environment diagnostics
func runDoctorDiagnostics(cmd *cobra.Command, out io.Writer, container *app.Container, repoDir string) error {
	if container.DoctorService == nil {
		return fmt.Errorf(ErrDoctorServiceUnavailable)
	}

	ctx := cmd.Context()
	if repoDir != "" {
		repo, err := loadRepository(ctx, container, repoDir)
		if err != nil {
			return err
		}
		container.DoctorService.Repository = repo
	}

	report, err := container.DoctorService.Run(ctx)

	// Display report even if there were errors
	displayDoctorReport(out, report)

	if err != nil {
		return fmt.Errorf("diagnostics completed with errors: %w", err)
	}
	if report.Failed() {
		return fmt.Errorf("one or more checks failed")
	}
	return nil
}

// displayDoctorReport displays the health check report
func displayDoctorReport(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		fmt.Fprintf(out, "%s %s - %s\n", helpers.HealthLabel(check.Status), check.Name, check.Details)
	}
}
