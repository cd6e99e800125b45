package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/doeshing/shellgate/internal/app"
	"github.com/doeshing/shellgate/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose    bool
	ConfigPath string
}

// NewRootCmd wires the cobra root command. The returned cleanup closes the
// tracker and must run after Execute.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, func() error, error) {
	container, err := app.BuildContainer(ctx, app.Options{
		Verbose:    opts.Verbose,
		ConfigPath: opts.ConfigPath,
	})
	if err != nil {
		return nil, nil, err
	}

	root := &cobra.Command{
		Use:   "shellgate",
		Short: "shellgate - shell command interception for web assistants",
		Long: "shellgate stands in for shell execution when an AI coding assistant runs behind a web UI. " +
			"Commands are converted to read-only repository operations or blocked, every interception " +
			"is tracked, and shell commands are stripped from replies.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		commands.NewClassifyCommand(container),
		commands.NewConvertCommand(container),
		commands.NewInterceptCommand(container),
		commands.NewFilterCommand(container),
		commands.NewReplayCommand(container),
		commands.NewProgressCommand(container),
		commands.NewOperationsCommand(container),
		commands.NewRulesCommand(container),
		commands.NewConfigCommand(container),
		commands.NewDoctorCommand(container),
		commands.NewVersionCommand(container),
	)
	return root, container.Close, nil
}
