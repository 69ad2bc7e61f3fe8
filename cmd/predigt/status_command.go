package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"predigt/internal/config"
	"predigt/internal/preflight"
	"predigt/internal/remote"
	"predigt/internal/staging"
)

type statusReport struct {
	ConfigPath   string              `json:"config_path"`
	Completeness config.Completeness `json:"completeness"`
	Checks       []preflight.Result  `json:"checks"`
	Ready        bool                `json:"ready"`
	Scratch      []staging.DirInfo   `json:"scratch"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check configuration, toolchain and remote reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var store remote.Store
			if cfg.Completeness().Remote {
				opened, err := remote.Open(cfg.Remote)
				if err == nil {
					store = opened
				}
			}

			results := preflight.RunAll(cmd.Context(), cfg, store)
			report := statusReport{
				ConfigPath:   ctx.configPath,
				Completeness: cfg.Completeness(),
				Checks:       results,
				Ready:        len(preflight.Failed(results)) == 0,
			}
			if dirs, err := staging.ListDirectories(cfg.Paths.StagingDir); err == nil {
				report.Scratch = dirs
			}
			if asJSON {
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string
			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			lines = append(lines, renderStatusLine("Config file", statusInfo, report.ConfigPath, colorize))
			lines = append(lines, renderStatusLine("YouTube API", configuredKind(report.Completeness.YouTubeAPI), yesNo(report.Completeness.YouTubeAPI), colorize))
			lines = append(lines, renderStatusLine("Channel", configuredKind(report.Completeness.Channel), yesNo(report.Completeness.Channel), colorize))
			lines = append(lines, renderStatusLine("Remote store", configuredKind(report.Completeness.Remote), yesNo(report.Completeness.Remote), colorize))
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				} else if strings.HasPrefix(result.Detail, "optional") {
					kind = statusWarn
				}
				lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			if len(report.Scratch) > 0 {
				lines = append(lines, "")
				lines = append(lines, renderSectionHeader("Scratch", colorize)...)
				for _, dir := range report.Scratch {
					kind, state := statusWarn, "left over"
					if dir.Active {
						kind, state = statusInfo, "running"
					}
					detail := fmt.Sprintf("%s, %s, %s", state, humanize.IBytes(uint64(dir.Size)), humanize.Time(dir.ModTime))
					lines = append(lines, renderStatusLine(dir.Name, kind, detail, colorize))
				}
			}
			fmt.Fprintln(out, strings.Join(lines, "\n"))

			if !report.Ready {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func configuredKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusWarn
}
