package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/doeshing/shellgate/internal/app"
	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/infrastructure/cli/helpers"
	"github.com/doeshing/shellgate/internal/infrastructure/coder"
)

// NewReplayCommand creates the replay command
func NewReplayCommand(container *app.Container) *cobra.Command {
	var opts replayOptions

	cmd := &cobra.Command{
		Use:   "replay <script.yaml...>",
		Short: "Replay scripted assistant turns through the web pipeline",
		Long: "Replay runs each script as its own session: shell commands go through the " +
			"interception gate, file writes are captured, and the final reply is filtered. " +
			"Scripts run concurrently.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.parallel < 1 {
				return fmt.Errorf(ErrInvalidParallelism)
			}
			opts.scripts = args
			return replayScripts(cmd.Context(), cmd.OutOrStdout(), container, opts)
		},
	}

	cmd.Flags().StringVar(&opts.repoDir, "repo", DefaultRepositoryDir, "Repository directory the scripts work on")
	cmd.Flags().IntVar(&opts.parallel, "parallel", DefaultReplayParallelism, "Max sessions replayed at once")
	cmd.Flags().StringVar(&opts.metricsTextfile, "metrics-textfile", "", "Write pipeline metrics to this file in Prometheus text format")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print results as JSON")
	return cmd
}

type replayOptions struct {
	scripts         []string
	repoDir         string
	parallel        int
	metricsTextfile string
	asJSON          bool
}

// replayResult is one replayed script.
type replayResult struct {
	Script        string                    `json:"script"`
	SessionID     string                    `json:"session_id"`
	Response      domain.AssistantResponse  `json:"response"`
	Modifications map[string]string         `json:"modifications,omitempty"`
	Progress      domain.ConversionProgress `json:"progress"`
}

func replayScripts(ctx context.Context, out io.Writer, container *app.Container, opts replayOptions) error {
	if opts.metricsTextfile != "" && container.Metrics == nil {
		return fmt.Errorf(ErrMetricsDisabled)
	}

	scripts := make([]coder.Script, len(opts.scripts))
	for i, path := range opts.scripts {
		script, err := coder.LoadScript(path)
		if err != nil {
			return err
		}
		scripts[i] = script
	}

	repo, err := loadRepository(ctx, container, opts.repoDir)
	if err != nil {
		return err
	}

	results := make([]replayResult, len(scripts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.parallel)
	for i := range scripts {
		g.Go(func() error {
			script := scripts[i]
			sessionID := script.Session
			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			svc := container.NewSession(repo, coder.NewScripted(script), sessionID)
			resp, err := svc.ProcessMessage(gctx, script.Message)
			if err != nil {
				return fmt.Errorf("replay %s: %w", opts.scripts[i], err)
			}
			results[i] = replayResult{
				Script:        opts.scripts[i],
				SessionID:     sessionID,
				Response:      resp,
				Modifications: svc.Modifications(),
				Progress:      svc.ConversionProgress(gctx),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if opts.metricsTextfile != "" {
		if err := container.Metrics.WriteTextfile(opts.metricsTextfile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	if opts.asJSON {
		return writeJSON(out, results)
	}
	for i, result := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		displayReplayResult(out, result)
	}
	return nil
}

func displayReplayResult(out io.Writer, result replayResult) {
	resp := result.Response
	fmt.Fprintln(out, helpers.Header(fmt.Sprintf("%s (session %s)", result.Script, result.SessionID)))
	fmt.Fprintln(out, resp.Content)
	fmt.Fprintln(out)

	local := result.Progress.Local
	fmt.Fprintf(out, "Shell commands: %d intercepted, %d converted (%s)\n",
		local.TotalOperations, local.ConvertedOperations, helpers.Percent(local.ConversionPercentage))
	for _, pending := range local.PendingConversions {
		fmt.Fprintf(out, "  %s %s\n", helpers.ExitLabel(1), pending)
	}
	fmt.Fprintf(out, "Commands filtered from reply: %d\n", resp.CommandsFiltered)
	for _, warning := range resp.Captured.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", warning)
	}
	for _, note := range resp.Captured.ConversionNotes {
		fmt.Fprintf(out, "Note: %s\n", note)
	}
	if result.Progress.Error != "" {
		fmt.Fprintln(out, helpers.Muted("tracking unavailable: "+result.Progress.Error))
	}
}
