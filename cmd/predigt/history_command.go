package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"predigt/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit     int
		asJSON    bool
		published string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline and publish runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer ctx.close()

			out := cmd.OutOrStdout()
			if store == nil {
				if asJSON {
					return writeJSON(cmd, map[string]any{"enabled": false, "runs": []history.Run{}})
				}
				fmt.Fprintln(out, "Run history is disabled (pipeline.history_enabled = false)")
				return nil
			}
			if name := strings.TrimSpace(published); name != "" {
				return showLastPublished(cmd, store, name, asJSON)
			}
			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(cmd, map[string]any{"enabled": true, "runs": runs})
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					string(run.Kind),
					string(run.Status),
					runSubject(run),
					run.Duration().Round(time.Second).String(),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Started", "Kind", "Status", "Subject", "Took"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&published, "published", "", "Show the last successful publish of a remote file name")
	return cmd
}

func showLastPublished(cmd *cobra.Command, store *history.Store, remoteName string, asJSON bool) error {
	run, ok, err := store.LastPublished(cmd.Context(), remoteName)
	if err != nil {
		return err
	}
	if asJSON {
		if !ok {
			return writeJSON(cmd, map[string]any{"remote_name": remoteName, "published": false})
		}
		return writeJSON(cmd, map[string]any{"remote_name": remoteName, "published": true, "run": run})
	}
	out := cmd.OutOrStdout()
	if !ok {
		fmt.Fprintf(out, "%s has not been published from this machine\n", remoteName)
		return nil
	}
	fmt.Fprintf(out, "%s published %s (run %s)\n", remoteName, run.FinishedAt.Local().Format("2006-01-02 15:04"), run.RunID)
	return nil
}

func runSubject(run history.Run) string {
	switch {
	case run.Status == history.StatusFailed && run.FailedStep != "":
		return fmt.Sprintf("%s: %s", run.FailedStep, run.ErrorMessage)
	case run.RemoteName != "":
		return run.RemoteName
	case run.FinalPath != "":
		return run.FinalPath
	default:
		return run.SourceID
	}
}
