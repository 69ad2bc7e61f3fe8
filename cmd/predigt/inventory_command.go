package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"predigt/internal/inventory"
)

func newInventoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:     "inventory",
		Aliases: []string{"files"},
		Short:   "List the most recent sermons on the remote store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			entries, err := inventory.New(store, ctx.log()).List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if entries == nil {
					entries = []inventory.Entry{}
				}
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No sermons found on the remote store")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				date := "-"
				if entry.Dated {
					date = entry.Date.Format("2006-01-02")
				}
				rows = append(rows, []string{date, entry.Name})
			}
			fmt.Fprint(out, renderTable([]string{"Date", "Name"}, rows, []columnAlignment{alignLeft, alignLeft}))
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", inventory.DefaultLimit, "Maximum number of entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
