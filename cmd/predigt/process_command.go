package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"predigt/internal/config"
	"predigt/internal/notifications"
	"predigt/internal/pipeline"
	"predigt/internal/progress"
	"predigt/internal/remote"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var (
		req      pipeline.Request
		date     string
		publish  bool
		ndjson   bool
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "process <livestream-id-or-url>",
		Short: "Download, compress, tag and finalize one livestream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			defer ctx.close()

			req.SourceID = args[0]
			if strings.TrimSpace(date) != "" {
				parsed, err := pipeline.ParseDate(date)
				if err != nil {
					return err
				}
				req.Date = parsed
			}
			if detailed {
				cfg.Pipeline.Progress = config.ProgressDetailed
			}

			var store remote.Store
			if publish {
				if store, err = ctx.openStore(); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			var emitter progress.Emitter = progress.Func(func(ev progress.Event) error {
				printEvent(out, ev)
				return nil
			})
			if ndjson {
				emitter = progress.NewNDJSONEmitter(out)
			}

			logger := ctx.log()
			orchestrator := pipeline.FromConfig(cfg, store, notifications.NewService(cfg), ctx.recorder(), logger)
			outcome, err := orchestrator.Run(cmd.Context(), req, emitter, pipeline.RunOptions{Publish: publish})
			if err != nil {
				var stageErr *pipeline.StageError
				if errors.As(err, &stageErr) && !ndjson {
					return fmt.Errorf("run %s failed at %s", outcome.RunID, stageErr.Step)
				}
				return err
			}
			if !ndjson {
				fmt.Fprintf(out, "Run %s finished: %s\n", outcome.RunID, outcome.FinalPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Speaker, "speaker", "", "Preacher name (required)")
	cmd.Flags().StringVar(&req.Title, "title", "", "Sermon title")
	cmd.Flags().StringVar(&date, "date", "", "Sermon date, YYYY-MM-DD (required)")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish to the remote store after finalizing")
	cmd.Flags().BoolVar(&ndjson, "ndjson", false, "Write progress events as NDJSON")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "Forward intermediate stage progress")
	return cmd
}

func printEvent(w io.Writer, ev progress.Event) {
	line := fmt.Sprintf("%-9s %-11s %s", ev.Step, ev.Status, ev.Message)
	if ev.Percent != nil {
		line += fmt.Sprintf(" (%d%%)", *ev.Percent)
	}
	if ev.Warning != "" {
		line += " [warning: " + ev.Warning + "]"
	}
	fmt.Fprintln(w, strings.TrimRight(line, " "))
}
