package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"predigt/internal/api"
	"predigt/internal/config"
	"predigt/internal/logging"
	"predigt/internal/staging"
)

const (
	serveLockName  = "predigt-serve.lock"
	reaperInterval = time.Hour
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx, bind)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to paths.api_bind)")
	return cmd
}

func runServe(cmdCtx context.Context, ctx *commandContext, bindOverride string) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := ctx.log()

	lockPath := filepath.Join(cfg.Paths.LogDir, serveLockName)
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another predigt server is already running")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release server lock", logging.Error(err))
		}
	}()

	hist, err := ctx.openHistory()
	if err != nil {
		return err
	}
	defer ctx.close()

	snap, err := api.NewSnapshot(cfg)
	if err != nil {
		return err
	}
	server := api.New(snap, hist, api.DefaultFactory(hist), logger)

	bind := strings.TrimSpace(bindOverride)
	if bind == "" {
		bind = cfg.Paths.APIBind
	}
	if err := server.Start(signalCtx, bind); err != nil {
		return err
	}
	defer server.Stop()

	staleAge := time.Duration(cfg.Pipeline.StaleScratchHours) * time.Hour
	go staging.Reap(signalCtx, cfg.Paths.StagingDir, staleAge, reaperInterval, logging.NewComponentLogger(logger, "staging"))

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)

	logger.Info("predigt server started",
		logging.String("config", ctx.configPath),
		logging.String("lock", lockPath),
		logging.Bool("history", hist != nil),
		logging.String(logging.FieldEventType, "server_started"),
	)

	for {
		select {
		case <-signalCtx.Done():
			logger.Info("predigt server shutting down")
			return nil
		case <-reload:
			reloadSnapshot(server, ctx.configPath, logger)
		}
	}
}

// reloadSnapshot re-reads the config file. A broken file keeps the running
// configuration. Paths, bind address and history settings need a restart.
func reloadSnapshot(server *api.Server, path string, logger *slog.Logger) {
	cfg, _, _, err := config.Load(path)
	if err == nil {
		err = cfg.EnsureDirectories()
	}
	var snap *api.Snapshot
	if err == nil {
		snap, err = api.NewSnapshot(cfg)
	}
	if err != nil {
		logging.WarnWithContext(logger, "configuration reload failed", "config_reload_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the config file and send SIGHUP again"),
			logging.String(logging.FieldImpact, "previous configuration stays active"),
		)
		return
	}
	server.Reload(snap)
}
