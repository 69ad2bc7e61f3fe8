package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"predigt/internal/fileutil"
	"predigt/internal/history"
	"predigt/internal/logging"
	"predigt/internal/notifications"
	"predigt/internal/remote"
	"predigt/internal/services"
)

// Options configures the coordinator.
type Options struct {
	Slug           string
	RejectExisting bool
	LockDir        string
}

// Result reports a completed delivery. NotificationErr is set when the
// downstream notification failed after a successful transfer.
type Result struct {
	Plan
	PublishedPath   string `json:"published_path"`
	NotificationErr error  `json:"-"`
}

// Warning returns the notification failure text, or "".
func (r Result) Warning() string {
	if r.NotificationErr == nil {
		return ""
	}
	return r.NotificationErr.Error()
}

// Coordinator delivers finalized artifacts to the remote store.
type Coordinator struct {
	store    remote.Store
	notifier notifications.Service
	recorder history.Recorder
	opts     Options
	logger   *slog.Logger
}

// New constructs a coordinator. notifier and recorder may be nil.
func New(store remote.Store, notifier notifications.Service, recorder history.Recorder, opts Options, logger *slog.Logger) *Coordinator {
	if strings.TrimSpace(opts.Slug) == "" {
		opts.Slug = "tpk"
	}
	return &Coordinator{
		store:    store,
		notifier: notifier,
		recorder: recorder,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "publish"),
	}
}

// Plan derives the canonical remote name for finalPath without side effects.
func (c *Coordinator) Plan(finalPath string) (Plan, error) {
	return MakePlan(finalPath, c.opts.Slug)
}

// Publish validates the date token, renames the local file to the remote name
// and uploads it with a single store call. Notification failures are returned
// in Result, never as an error.
func (c *Coordinator) Publish(ctx context.Context, finalPath string) (Result, error) {
	started := time.Now()
	// A chained publish logs under the pipeline's run id but keeps its own
	// ledger row.
	recordID := uuid.NewString()
	if _, ok := services.RunIDFromContext(ctx); !ok {
		ctx = services.WithRunID(ctx, recordID)
	}
	logger := logging.WithContext(services.WithStage(ctx, "publish"), c.logger)

	result, err := c.publish(ctx, logger, finalPath)
	c.record(ctx, recordID, started, result, err)
	if err != nil {
		details := services.Details(err)
		logging.WarnWithContext(logger, "publish failed", "publish_failed",
			logging.String("path", finalPath),
			logging.String("error_label", details.Label),
			logging.Error(err),
			logging.String(logging.FieldImpact, "sermon not published"),
		)
		c.notifyFailure(ctx, logger, err)
		return result, err
	}
	return result, nil
}

func (c *Coordinator) publish(ctx context.Context, logger *slog.Logger, finalPath string) (Result, error) {
	plan, err := c.Plan(finalPath)
	if err != nil {
		return Result{}, err
	}
	result := Result{Plan: plan}

	if _, err := os.Stat(finalPath); err != nil {
		return result, services.Wrap(services.ErrPublishRejected, "publish", "stat", finalPath, err)
	}

	unlock, err := c.lock(plan.RemoteName)
	if err != nil {
		return result, err
	}
	defer unlock()

	if c.opts.RejectExisting {
		exists, err := c.store.Exists(ctx, plan.RemoteName)
		if err != nil {
			return result, services.Wrap(services.ErrPublishTransferFailed, "publish", "existence check", plan.RemoteName, err)
		}
		if exists {
			return result, services.Wrap(services.ErrAlreadyPublished, "publish", "existence check", plan.RemoteName+" already on remote", nil)
		}
	}

	publishedPath := filepath.Join(filepath.Dir(finalPath), plan.RemoteName)
	if err := fileutil.MoveFile(finalPath, publishedPath); err != nil {
		return result, services.Wrap(services.ErrPublishTransferFailed, "publish", "rename local", publishedPath, err)
	}
	result.PublishedPath = publishedPath

	if err := c.transfer(ctx, publishedPath, plan.RemoteName); err != nil {
		// Restore the finalized name so the caller can retry with the same path.
		if restoreErr := fileutil.MoveFile(publishedPath, finalPath); restoreErr != nil {
			logging.WarnWithContext(logger, "finalized name not restored", "publish_restore_failed",
				logging.String("path", publishedPath),
				logging.Error(restoreErr),
				logging.String(logging.FieldErrorHint, "rename the file back to its dated name before retrying"),
			)
			return result, err
		}
		result.PublishedPath = ""
		return result, err
	}
	logger.Info("sermon published",
		logging.String("remote_name", plan.RemoteName),
		logging.String("local_path", publishedPath),
		logging.String(logging.FieldEventType, "publish_complete"),
	)

	if c.notifier != nil {
		notifyErr := c.notifier.Publish(ctx, notifications.EventPublished, notifications.Payload{
			"remoteName": plan.RemoteName,
			"title":      plan.Title,
			"date":       plan.Date.Format(DateLayout),
		})
		if notifyErr != nil {
			result.NotificationErr = services.Wrap(services.ErrNotificationFailed, "publish", "notify", "", notifyErr)
			logging.WarnWithContext(logger, "publish notification failed", "notification_failed",
				logging.Error(notifyErr),
				logging.String(logging.FieldErrorHint, "check publisher.update_url and ntfy topic"),
				logging.String(logging.FieldImpact, "sermon is published but the website may not list it yet"),
			)
		}
	}
	return result, nil
}

func (c *Coordinator) transfer(ctx context.Context, path, remoteName string) error {
	file, err := os.Open(path)
	if err != nil {
		return services.Wrap(services.ErrPublishTransferFailed, "publish", "open", path, err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return services.Wrap(services.ErrPublishTransferFailed, "publish", "stat", path, err)
	}
	if err := c.store.Store(ctx, remoteName, file, info.Size()); err != nil {
		return services.Wrap(services.ErrPublishTransferFailed, "publish", "upload", remoteName, err)
	}
	return nil
}

// lock takes the per-remote-name lock so two runs cannot deliver the same date at once.
func (c *Coordinator) lock(remoteName string) (func(), error) {
	if strings.TrimSpace(c.opts.LockDir) == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(c.opts.LockDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrPublishTransferFailed, "publish", "lock dir", c.opts.LockDir, err)
	}
	lock := flock.New(filepath.Join(c.opts.LockDir, remoteName+".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrPublishTransferFailed, "publish", "lock", remoteName, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrPublishRejected, "publish", "lock", fmt.Sprintf("%s is being published by another run", remoteName), nil)
	}
	return func() { _ = lock.Unlock() }, nil
}

func (c *Coordinator) notifyFailure(ctx context.Context, logger *slog.Logger, err error) {
	if c.notifier == nil || services.IsClientError(err) {
		return
	}
	if notifyErr := c.notifier.Publish(ctx, notifications.EventError, notifications.Payload{
		"context": "Publish",
		"error":   err,
	}); notifyErr != nil {
		logger.Debug("failure notification not delivered", logging.Error(notifyErr))
	}
}

func (c *Coordinator) record(ctx context.Context, runID string, started time.Time, result Result, err error) {
	if c.recorder == nil {
		return
	}
	run := history.Run{
		RunID:      runID,
		Kind:       history.KindPublish,
		Title:      result.Title,
		Status:     history.StatusCompleted,
		FinalPath:  result.PublishedPath,
		RemoteName: result.RemoteName,
		Warning:    result.Warning(),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if !result.Date.IsZero() {
		run.SermonDate = result.Date.Format(DateLayout)
	}
	if err != nil {
		details := services.Details(err)
		run.Status = history.StatusFailed
		run.FailedStep = "publish"
		run.ErrorLabel = details.Label
		run.ErrorMessage = details.Message
	}
	if recErr := c.recorder.Record(ctx, run); recErr != nil {
		c.logger.Debug("history record failed", logging.Error(recErr))
	}
}
