package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"predigt/internal/notifications"
	"predigt/internal/pipeline"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "publish <final-path>",
		Short: "Upload a finalized sermon to the remote store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			defer ctx.close()

			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			coordinator := pipeline.NewCoordinator(cfg, store, notifications.NewService(cfg), ctx.recorder(), ctx.log())
			result, err := coordinator.Publish(cmd.Context(), path)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Published %s as %s\n", filepath.Base(result.Plan.LocalPath), result.Plan.RemoteName)
			if warning := result.Warning(); warning != "" {
				fmt.Fprintf(out, "Warning: %s\n", warning)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
