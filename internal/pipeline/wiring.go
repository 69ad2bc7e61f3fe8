package pipeline

import (
	"log/slog"

	"predigt/internal/compress"
	"predigt/internal/config"
	"predigt/internal/download"
	"predigt/internal/finalize"
	"predigt/internal/history"
	"predigt/internal/notifications"
	"predigt/internal/publish"
	"predigt/internal/remote"
	"predigt/internal/stageexec"
	"predigt/internal/tagging"
)

// SettingsFromConfig extracts the run snapshot from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		StagingDir: cfg.Paths.StagingDir,
		Compressor: compress.Params{
			ThresholdDB: cfg.Compressor.ThresholdDB,
			Ratio:       cfg.Compressor.Ratio,
			AttackMs:    cfg.Compressor.AttackMs,
			ReleaseMs:   cfg.Compressor.ReleaseMs,
			Bitrate:     cfg.Compressor.Bitrate,
		},
		Publisher: tagging.Publisher{
			Album:     cfg.Publisher.Album,
			Genre:     cfg.Publisher.Genre,
			Copyright: cfg.Publisher.Copyright,
		},
		Granularity: stageexec.ParseGranularity(cfg.Pipeline.Progress),
	}
}

// NewCoordinator builds the publish coordinator for cfg. store may be nil, in
// which case nil is returned.
func NewCoordinator(cfg *config.Config, store remote.Store, notifier notifications.Service, recorder history.Recorder, logger *slog.Logger) *publish.Coordinator {
	if store == nil {
		return nil
	}
	return publish.New(store, notifier, recorder, publish.Options{
		Slug:           cfg.Publisher.Slug,
		RejectExisting: cfg.Publisher.RejectExisting,
		LockDir:        cfg.LockDir(),
	}, logger)
}

// FromConfig wires the production stages for one config snapshot.
func FromConfig(cfg *config.Config, store remote.Store, notifier notifications.Service, recorder history.Recorder, logger *slog.Logger) *Orchestrator {
	deps := Dependencies{
		Downloader: download.New(download.Options{
			ToolsDir:     cfg.Paths.ToolsDir,
			YtdlpBinary:  cfg.Download.YtdlpBinary,
			Format:       cfg.Download.Format,
			AudioFormat:  cfg.Download.AudioFormat,
			AudioQuality: cfg.Download.AudioQuality,
		}, nil, logger),
		Compressor: ToolchainCompressor{ToolsDir: cfg.Paths.ToolsDir, Logger: logger},
		Tagger:     tagging.New(logger),
		Finalizer:  finalize.New(cfg.Paths.OutputDir, logger),
		Notifier:   notifier,
		Recorder:   recorder,
	}
	if coordinator := NewCoordinator(cfg, store, notifier, recorder, logger); coordinator != nil {
		deps.Publisher = coordinator
	}
	return New(SettingsFromConfig(cfg), deps, logger)
}
