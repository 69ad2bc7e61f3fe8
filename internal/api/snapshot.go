package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"predigt/internal/config"
	"predigt/internal/history"
	"predigt/internal/notifications"
	"predigt/internal/pipeline"
	"predigt/internal/progress"
	"predigt/internal/publish"
	"predigt/internal/remote"
	"predigt/internal/website"
	"predigt/internal/youtube"
)

// Snapshot is one immutable configuration generation with the collaborators
// built from it. Store is nil when no remote is configured.
type Snapshot struct {
	Config   *config.Config
	Store    remote.Store
	Notifier notifications.Service
	LoadedAt time.Time
}

// NewSnapshot opens the remote store and notifier for cfg.
func NewSnapshot(cfg *config.Config) (*Snapshot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("snapshot: nil config")
	}
	snap := &Snapshot{
		Config:   cfg,
		Notifier: notifications.NewService(cfg),
		LoadedAt: time.Now(),
	}
	if cfg.Completeness().Remote {
		store, err := remote.Open(cfg.Remote)
		if err != nil {
			return nil, fmt.Errorf("open remote store: %w", err)
		}
		snap.Store = store
	}
	return snap, nil
}

// Runner executes one pipeline request.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request, emitter progress.Emitter, opts pipeline.RunOptions) (pipeline.Outcome, error)
}

// Publisher delivers a finalized file.
type Publisher interface {
	Publish(ctx context.Context, finalPath string) (publish.Result, error)
}

// LivestreamSource lists recent livestreams.
type LivestreamSource interface {
	Livestreams(ctx context.Context, limit int) ([]youtube.Livestream, error)
}

// ThemeSource lists upcoming sermon themes.
type ThemeSource interface {
	Themes(ctx context.Context) ([]string, error)
}

// Factory builds per-request collaborators from a snapshot. Publisher may
// return nil when the snapshot has no remote store.
type Factory struct {
	Runner      func(snap *Snapshot, logger *slog.Logger) Runner
	Publisher   func(snap *Snapshot, logger *slog.Logger) Publisher
	Livestreams func(snap *Snapshot, logger *slog.Logger) LivestreamSource
	Themes      func(snap *Snapshot) ThemeSource
}

// DefaultFactory wires the production stages. hist may be nil.
func DefaultFactory(hist *history.Store) Factory {
	var recorder history.Recorder
	if hist != nil {
		recorder = hist
	}
	return Factory{
		Runner: func(snap *Snapshot, logger *slog.Logger) Runner {
			return pipeline.FromConfig(snap.Config, snap.Store, snap.Notifier, recorder, logger)
		},
		Publisher: func(snap *Snapshot, logger *slog.Logger) Publisher {
			coordinator := pipeline.NewCoordinator(snap.Config, snap.Store, snap.Notifier, recorder, logger)
			if coordinator == nil {
				return nil
			}
			return coordinator
		},
		Livestreams: func(snap *Snapshot, logger *slog.Logger) LivestreamSource {
			return youtube.NewClient(snap.Config.YouTube, logger)
		},
		Themes: func(snap *Snapshot) ThemeSource {
			timeout := time.Duration(snap.Config.Notifications.RequestTimeout) * time.Second
			return website.NewClient(snap.Config.Publisher.WebsiteURL, timeout)
		},
	}
}
