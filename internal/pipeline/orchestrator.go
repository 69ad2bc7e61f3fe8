package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"predigt/internal/compress"
	"predigt/internal/finalize"
	"predigt/internal/history"
	"predigt/internal/logging"
	"predigt/internal/media"
	"predigt/internal/notifications"
	"predigt/internal/progress"
	"predigt/internal/publish"
	"predigt/internal/services"
	"predigt/internal/stageexec"
	"predigt/internal/staging"
	"predigt/internal/tagging"
)

const (
	scratchPattern = staging.RunDirPrefix + "*"
	compressedName = "compressed.mp3"
)

// Settings is the configuration snapshot a run pins.
type Settings struct {
	StagingDir  string
	Compressor  compress.Params
	Publisher   tagging.Publisher
	Granularity stageexec.Granularity
}

// Dependencies are the stage implementations and optional collaborators.
type Dependencies struct {
	Downloader Downloader
	Compressor Compressor
	Tagger     Tagger
	Finalizer  Finalizer
	// Publisher is required only for runs with RunOptions.Publish.
	Publisher Publisher
	Notifier  notifications.Service
	Recorder  history.Recorder
}

// RunOptions selects optional behavior for one run.
type RunOptions struct {
	Publish bool
}

// Outcome summarizes a finished run.
type Outcome struct {
	RunID     string          `json:"run_id"`
	FinalPath string          `json:"final_path,omitempty"`
	Published *publish.Result `json:"published,omitempty"`
}

// Orchestrator sequences download, compress, tag and finalize for one request
// and optionally chains publishing.
type Orchestrator struct {
	settings Settings
	deps     Dependencies
	logger   *slog.Logger
}

// New constructs an orchestrator.
func New(settings Settings, deps Dependencies, logger *slog.Logger) *Orchestrator {
	if settings.Granularity == "" {
		settings.Granularity = stageexec.GranularityCoarse
	}
	return &Orchestrator{
		settings: settings,
		deps:     deps,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}
}

type stageSpec struct {
	step       progress.Step
	fn         stageexec.Func
	onComplete func(*progress.Event)
}

// run carries per-invocation state.
type run struct {
	id       string
	req      Request
	emitter  *progress.OrderedEmitter
	logger   *slog.Logger
	started  time.Time
	artifact media.Artifact
	outcome  Outcome
}

// Run executes the pipeline. The event stream written to emitter is step
// ordered and ends with exactly one terminal event. The scratch directory is
// removed on every exit path. The returned error is the stage failure, if any.
func (o *Orchestrator) Run(ctx context.Context, req Request, emitter progress.Emitter, opts RunOptions) (Outcome, error) {
	if emitter == nil {
		emitter = progress.Discard
	}
	id := uuid.NewString()
	ctx = services.WithRunID(ctx, id)
	r := &run{
		id:      id,
		req:     req,
		emitter: progress.Ordered(emitter),
		logger:  logging.WithContext(ctx, o.logger),
		started: time.Now(),
		outcome: Outcome{RunID: id},
	}
	r.logger.Info("pipeline run started",
		logging.String("source_id", req.SourceID),
		logging.String("title", req.Title),
		logging.Bool("publish", opts.Publish),
		logging.String("progress", string(o.settings.Granularity)),
	)

	err := o.execute(ctx, r, opts)
	o.record(ctx, r, err)
	if err != nil {
		return r.outcome, err
	}
	r.logger.Info("pipeline run completed",
		logging.String("final_path", r.outcome.FinalPath),
		logging.Duration("elapsed", time.Since(r.started)),
	)
	return r.outcome, nil
}

func (o *Orchestrator) execute(ctx context.Context, r *run, opts RunOptions) error {
	if err := r.req.Validate(); err != nil {
		return o.fail(ctx, r, progress.StepError, err)
	}
	if opts.Publish && o.deps.Publisher == nil {
		return o.fail(ctx, r, progress.StepError, services.Wrap(services.ErrConfiguration, "pipeline", "publish", "no remote store configured", nil))
	}
	if err := os.MkdirAll(o.settings.StagingDir, 0o755); err != nil {
		return o.fail(ctx, r, progress.StepError, services.Wrap(services.ErrConfiguration, "pipeline", "staging dir", o.settings.StagingDir, err))
	}
	scratch, err := os.MkdirTemp(o.settings.StagingDir, scratchPattern)
	if err != nil {
		return o.fail(ctx, r, progress.StepError, services.Wrap(services.ErrConfiguration, "pipeline", "scratch dir", o.settings.StagingDir, err))
	}
	release, err := staging.Claim(scratch)
	if err != nil {
		_ = os.RemoveAll(scratch)
		return o.fail(ctx, r, progress.StepError, services.Wrap(services.ErrConfiguration, "pipeline", "claim scratch dir", scratch, err))
	}
	defer o.cleanup(r, scratch, release)

	stages := []stageSpec{
		{step: progress.StepDownload, fn: func(ctx context.Context, rep stageexec.Reporter) error {
			artifact, err := o.deps.Downloader.Download(ctx, r.req.SourceID, scratch, rep.Report)
			r.artifact = artifact
			return err
		}},
		{step: progress.StepCompress, fn: func(ctx context.Context, rep stageexec.Reporter) error {
			source := r.artifact
			compressed, err := o.deps.Compressor.Compress(ctx, source, filepath.Join(scratch, compressedName), o.settings.Compressor, rep.Report)
			if err != nil {
				return err
			}
			if removeErr := os.Remove(source.Path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				r.logger.Debug("raw download not removed", logging.Error(removeErr))
			}
			r.artifact = compressed
			return nil
		}},
		{step: progress.StepTag, fn: func(ctx context.Context, _ stageexec.Reporter) error {
			tags := tagging.NewTagSet(o.settings.Publisher, r.req.Title, r.req.Speaker, r.req.Date)
			tagged, err := o.deps.Tagger.Apply(ctx, r.artifact, tags)
			if err != nil {
				return err
			}
			r.artifact = tagged
			return nil
		}},
		{step: progress.StepFinalize, fn: func(ctx context.Context, _ stageexec.Reporter) error {
			name := finalize.CanonicalName(r.req.Date, r.req.Title, r.artifact.Ext())
			final, err := o.deps.Finalizer.Finalize(ctx, r.artifact, name)
			if err != nil {
				return err
			}
			r.artifact = final
			r.outcome.FinalPath = final.Path
			return nil
		}, onComplete: func(ev *progress.Event) {
			ev.FinalPath = r.outcome.FinalPath
		}},
	}
	if opts.Publish {
		stages = append(stages, stageSpec{step: progress.StepPublish, fn: func(ctx context.Context, _ stageexec.Reporter) error {
			result, err := o.deps.Publisher.Publish(ctx, r.outcome.FinalPath)
			if err != nil {
				return err
			}
			r.outcome.Published = &result
			if result.PublishedPath != "" {
				r.outcome.FinalPath = result.PublishedPath
			}
			return nil
		}, onComplete: func(ev *progress.Event) {
			ev.FinalPath = r.outcome.FinalPath
			if r.outcome.Published != nil {
				ev.RemoteName = r.outcome.Published.RemoteName
				ev.Warning = r.outcome.Published.Warning()
			}
		}})
	}

	for _, stage := range stages {
		err := stageexec.Run(ctx, stageexec.Options{
			Logger:      o.logger,
			Emitter:     r.emitter,
			Step:        stage.step,
			RunID:       r.id,
			Granularity: o.settings.Granularity,
			Fn:          stage.fn,
			OnComplete:  stage.onComplete,
		})
		if err != nil {
			return o.fail(ctx, r, stage.step, err)
		}
	}
	return nil
}

// fail emits the single terminal Failed event and notifies about the failure.
func (o *Orchestrator) fail(ctx context.Context, r *run, step progress.Step, err error) error {
	details := services.Details(err)
	message := fmt.Sprintf("%s failed: %s", step.Label(), details.Message)
	if emitErr := r.emitter.Emit(progress.Event{
		Step:    step,
		Status:  progress.StatusFailed,
		Message: message,
		RunID:   r.id,
		Time:    time.Now().UTC(),
	}); emitErr != nil {
		logging.WarnWithContext(r.logger, "failure event not delivered", "progress_emit_failed",
			logging.Error(emitErr),
			logging.String(logging.FieldImpact, "caller sees no terminal event"),
		)
	}
	logging.ErrorWithContext(r.logger, "pipeline run failed", "pipeline_failed",
		logging.String("step", string(step)),
		logging.String("error_label", details.Label),
		logging.Error(err),
	)
	// The publish coordinator reports its own failures.
	if o.deps.Notifier != nil && step != progress.StepPublish && !services.IsClientError(err) {
		if notifyErr := o.deps.Notifier.Publish(context.WithoutCancel(ctx), notifications.EventError, notifications.Payload{
			"context": step.Label(),
			"error":   details.Message,
		}); notifyErr != nil {
			r.logger.Debug("failure notification not delivered", logging.Error(notifyErr))
		}
	}
	return &StageError{Step: step, Err: err}
}

func (o *Orchestrator) cleanup(r *run, scratch string, release func()) {
	release()
	if err := os.RemoveAll(scratch); err != nil {
		logging.WarnWithContext(r.logger, "scratch directory not removed", "scratch_cleanup_failed",
			logging.String("path", scratch),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the stale scratch reaper removes it on next start"),
			logging.String(logging.FieldImpact, "disk space held until reaped"),
		)
		return
	}
	r.logger.Debug("scratch directory removed", logging.String("path", scratch))
}

func (o *Orchestrator) record(ctx context.Context, r *run, err error) {
	if o.deps.Recorder == nil {
		return
	}
	entry := history.Run{
		RunID:      r.id,
		Kind:       history.KindPipeline,
		SourceID:   r.req.SourceID,
		Title:      r.req.Title,
		Speaker:    r.req.Speaker,
		Status:     history.StatusCompleted,
		FinalPath:  r.outcome.FinalPath,
		StartedAt:  r.started,
		FinishedAt: time.Now(),
	}
	if !r.req.Date.IsZero() {
		entry.SermonDate = r.req.Date.Format("2006-01-02")
	}
	if r.outcome.Published != nil {
		entry.RemoteName = r.outcome.Published.RemoteName
		entry.Warning = r.outcome.Published.Warning()
	}
	if err != nil {
		details := services.Details(err)
		entry.Status = history.StatusFailed
		entry.ErrorLabel = details.Label
		entry.ErrorMessage = details.Message
		var stageErr *StageError
		if errors.As(err, &stageErr) {
			entry.FailedStep = string(stageErr.Step)
		}
	}
	if recErr := o.deps.Recorder.Record(context.WithoutCancel(ctx), entry); recErr != nil {
		r.logger.Debug("history record failed", logging.Error(recErr))
	}
}

// StageError names the step a run failed in.
type StageError struct {
	Step progress.Step
	Err  error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
