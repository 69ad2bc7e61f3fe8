package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"predigt/internal/youtube"
)

func newLivestreamsCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "livestreams",
		Short: "List the channel's recent livestreams",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			streams, err := youtube.NewClient(cfg.YouTube, ctx.log()).Livestreams(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if streams == nil {
					streams = []youtube.Livestream{}
				}
				return writeJSON(cmd, streams)
			}
			out := cmd.OutOrStdout()
			if len(streams) == 0 {
				fmt.Fprintln(out, "No livestreams found")
				return nil
			}
			rows := make([][]string, 0, len(streams))
			for _, stream := range streams {
				length := "-"
				if stream.LengthMs > 0 {
					length = (time.Duration(stream.LengthMs) * time.Millisecond).Round(time.Second).String()
				}
				rows = append(rows, []string{stream.ID, stream.Title, length})
			}
			fmt.Fprint(out, renderTable([]string{"ID", "Title", "Length"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of livestreams")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
