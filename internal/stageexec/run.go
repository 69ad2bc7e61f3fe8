package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"predigt/internal/logging"
	"predigt/internal/progress"
	"predigt/internal/services"
)

// Granularity controls whether intermediate stage events reach the emitter.
type Granularity string

const (
	// GranularityCoarse emits only the synthetic start and completion events.
	GranularityCoarse Granularity = "coarse"
	// GranularityDetailed additionally forwards events reported by the stage.
	GranularityDetailed Granularity = "detailed"
)

// ParseGranularity maps a config value to a Granularity, defaulting to coarse.
func ParseGranularity(value string) Granularity {
	if strings.EqualFold(strings.TrimSpace(value), string(GranularityDetailed)) {
		return GranularityDetailed
	}
	return GranularityCoarse
}

// BufferSize bounds the number of intermediate events kept per stage.
const BufferSize = 64

// Reporter receives intermediate progress from inside a blocking stage.
// Implementations are safe for concurrent use since native callbacks may fire
// from helper goroutines.
type Reporter interface {
	Report(message string, percent int)
}

// Func is the blocking unit of work executed for one stage.
type Func func(ctx context.Context, reporter Reporter) error

// Options controls stage execution.
type Options struct {
	Logger       *slog.Logger
	Emitter      progress.Emitter
	Step         progress.Step
	RunID        string
	Granularity  Granularity
	StartMessage string
	DoneMessage  string
	Fn           Func
	// OnComplete may decorate the Completed event (final path, remote name).
	OnComplete func(*progress.Event)
}

// Run emits InProgress, executes the stage, then forwards buffered events
// according to the granularity and emits Completed. On failure nothing
// terminal is emitted; the caller owns the single Failed event of the run.
func Run(ctx context.Context, opts Options) error {
	if opts.Fn == nil {
		return fmt.Errorf("stage function unavailable: %s", opts.Step)
	}
	emitter := opts.Emitter
	if emitter == nil {
		emitter = progress.Discard
	}

	stageCtx := services.WithStage(ctx, string(opts.Step))
	logger := logging.WithContext(stageCtx, opts.Logger)

	start := opts.StartMessage
	if start == "" {
		start = opts.Step.Label() + " started"
	}
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	emit(logger, emitter, progress.Event{
		Step:    opts.Step,
		Status:  progress.StatusInProgress,
		Message: start,
		RunID:   opts.RunID,
	})

	buffer := newEventBuffer(opts.Step, opts.RunID, BufferSize)
	began := time.Now()
	err := opts.Fn(stageCtx, buffer)
	elapsed := time.Since(began)

	if err != nil {
		details := services.Details(err)
		logger.Error(
			"stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.String("error_kind", details.Label),
			logging.Duration("elapsed", elapsed),
			logging.Error(err),
		)
		return err
	}

	if opts.Granularity == GranularityDetailed {
		events, dropped := buffer.drain()
		if dropped > 0 {
			logger.Debug("intermediate progress events dropped", logging.Int("dropped", dropped))
		}
		for _, ev := range events {
			emit(logger, emitter, ev)
		}
	}

	done := opts.DoneMessage
	if done == "" {
		done = opts.Step.Label() + " completed"
	}
	completed := progress.Event{
		Step:    opts.Step,
		Status:  progress.StatusCompleted,
		Message: done,
		Percent: progress.Percent(100),
		RunID:   opts.RunID,
	}
	if opts.OnComplete != nil {
		opts.OnComplete(&completed)
	}
	emit(logger, emitter, completed)

	logger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", elapsed),
	)
	return nil
}

func emit(logger *slog.Logger, emitter progress.Emitter, ev progress.Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	if err := emitter.Emit(ev); err != nil {
		logging.WarnWithContext(logger, "progress event not delivered", "progress_emit_failed",
			logging.String("step", string(ev.Step)),
			logging.String("status", string(ev.Status)),
			logging.String(logging.FieldImpact, "caller misses progress updates"),
			logging.Error(err),
		)
	}
}

// eventBuffer is a bounded ring of intermediate events; the oldest entry is
// dropped when full.
type eventBuffer struct {
	mu      sync.Mutex
	step    progress.Step
	runID   string
	limit   int
	events  []progress.Event
	dropped int
}

func newEventBuffer(step progress.Step, runID string, limit int) *eventBuffer {
	return &eventBuffer{step: step, runID: runID, limit: limit}
}

func (b *eventBuffer) Report(message string, percent int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ev := progress.Event{
		Step:    b.step,
		Status:  progress.StatusInProgress,
		Message: message,
		RunID:   b.runID,
		Time:    time.Now().UTC(),
	}
	if percent >= 0 {
		ev.Percent = progress.Percent(percent)
	}
	if len(b.events) == b.limit {
		b.events = b.events[1:]
		b.dropped++
	}
	b.events = append(b.events, ev)
}

func (b *eventBuffer) drain() ([]progress.Event, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	events, dropped := b.events, b.dropped
	b.events, b.dropped = nil, 0
	return events, dropped
}
