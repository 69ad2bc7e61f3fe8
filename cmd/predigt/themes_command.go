package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"predigt/internal/website"
)

func newThemesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "themes",
		Short: "Show upcoming sermon themes from the church website",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
			themes, err := website.NewClient(cfg.Publisher.WebsiteURL, timeout).Themes(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, map[string][]string{"themes": themes})
			}
			out := cmd.OutOrStdout()
			if len(themes) == 0 {
				fmt.Fprintln(out, "No upcoming themes listed")
				return nil
			}
			for _, theme := range themes {
				fmt.Fprintf(out, "- %s\n", theme)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
