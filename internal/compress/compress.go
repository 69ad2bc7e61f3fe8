package compress

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"predigt/internal/logging"
	"predigt/internal/media"
	"predigt/internal/media/ffprobe"
	"predigt/internal/services"
)

const stderrTailBytes = 4 << 10

// Params is the dynamic-range compression configuration.
type Params struct {
	ThresholdDB float64
	Ratio       float64
	AttackMs    float64
	ReleaseMs   float64
	Bitrate     string
}

// Validate rejects parameters ffmpeg would refuse or silently clamp.
func (p Params) Validate() error {
	switch {
	case p.Ratio < 1:
		return fmt.Errorf("ratio must be >= 1, got %v", p.Ratio)
	case p.AttackMs <= 0:
		return fmt.Errorf("attack must be > 0 ms, got %v", p.AttackMs)
	case p.ReleaseMs <= 0:
		return fmt.Errorf("release must be > 0 ms, got %v", p.ReleaseMs)
	case strings.TrimSpace(p.Bitrate) == "":
		return errors.New("bitrate is required")
	}
	return nil
}

// Filter renders the acompressor filter expression.
func (p Params) Filter() string {
	return fmt.Sprintf("acompressor=threshold=%sdB:ratio=%s:attack=%s:release=%s",
		formatFloat(p.ThresholdDB), formatFloat(p.Ratio), formatFloat(p.AttackMs), formatFloat(p.ReleaseMs))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Stage re-encodes audio through ffmpeg's acompressor.
type Stage struct {
	ffmpeg  string
	ffprobe string
	logger  *slog.Logger
}

// New constructs the stage. An empty ffprobe path disables output inspection.
func New(ffmpegPath, ffprobePath string, logger *slog.Logger) *Stage {
	return &Stage{
		ffmpeg:  strings.TrimSpace(ffmpegPath),
		ffprobe: strings.TrimSpace(ffprobePath),
		logger:  logging.NewComponentLogger(logger, "compress"),
	}
}

// Args builds the ffmpeg argument list.
func Args(input, output string, params Params) []string {
	return []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", input,
		"-vn",
		"-acodec", "libmp3lame",
		"-b:a", params.Bitrate,
		"-af", params.Filter(),
		"-progress", "pipe:1", "-nostats",
		output,
	}
}

// Compress writes the compressed rendition of in to output, overwriting any
// existing file. The input artifact is never modified. report may be nil.
func (s *Stage) Compress(ctx context.Context, in media.Artifact, output string, params Params, report func(message string, percent int)) (media.Artifact, error) {
	if err := params.Validate(); err != nil {
		return media.Artifact{}, services.Wrap(services.ErrValidation, "compress", "params", err.Error(), nil)
	}
	if s.ffmpeg == "" {
		return media.Artifact{}, services.Wrap(services.ErrToolchainMissing, "compress", "resolve ffmpeg", "no ffmpeg binary configured", nil)
	}
	if _, err := exec.LookPath(s.ffmpeg); err != nil {
		return media.Artifact{}, services.Wrap(services.ErrToolchainMissing, "compress", "resolve ffmpeg", s.ffmpeg, err)
	}
	if _, err := os.Stat(in.Path); err != nil {
		return media.Artifact{}, services.Wrap(services.ErrToolInvocationFailed, "compress", "stat input", in.Path, err)
	}
	if in.Path == output {
		return media.Artifact{}, services.Wrap(services.ErrValidation, "compress", "prepare", "output must differ from input", nil)
	}

	var total time.Duration
	if report != nil && s.ffprobe != "" {
		if probe, err := ffprobe.Inspect(ctx, s.ffprobe, in.Path); err == nil {
			total = probe.Duration()
		}
	}

	args := Args(in.Path, output, params)
	cmd := exec.CommandContext(ctx, s.ffmpeg, args...)
	stderr := &tailBuffer{limit: stderrTailBytes}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return media.Artifact{}, services.Wrap(services.ErrToolInvocationFailed, "compress", "stdout pipe", "", err)
	}

	s.logger.Info("ffmpeg compression started",
		logging.String("input", in.Path),
		logging.String("output", output),
		logging.String("filter", params.Filter()),
		logging.String("bitrate", params.Bitrate),
	)
	started := time.Now()
	if err := cmd.Start(); err != nil {
		return media.Artifact{}, services.Wrap(services.ErrToolInvocationFailed, "compress", "start ffmpeg", s.ffmpeg, err)
	}
	scanProgress(stdout, total, report)
	if err := cmd.Wait(); err != nil {
		return media.Artifact{}, services.Wrap(services.ErrToolInvocationFailed, "compress", "ffmpeg", stderr.String(), err)
	}

	info, err := os.Stat(output)
	if err != nil || info.Size() == 0 {
		detail := "ffmpeg produced no output"
		if tail := stderr.String(); tail != "" {
			detail += ": " + tail
		}
		return media.Artifact{}, services.Wrap(services.ErrToolInvocationFailed, "compress", "verify output", detail, err)
	}

	if s.ffprobe != "" {
		probe, err := ffprobe.Inspect(ctx, s.ffprobe, output)
		if err != nil {
			return media.Artifact{}, services.Wrap(services.ErrToolInvocationFailed, "compress", "inspect output", output, err)
		}
		if !probe.HasAudio() {
			return media.Artifact{}, services.Wrap(services.ErrToolInvocationFailed, "compress", "inspect output", "no audio stream in "+output, nil)
		}
	}

	s.logger.Info("ffmpeg compression finished",
		logging.String("output", output),
		logging.Int64("size_bytes", info.Size()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return media.Artifact{Path: output}, nil
}

// scanProgress reads ffmpeg's -progress key=value stream and reports the
// encoded position. Without a known total only the timestamp is reported.
func scanProgress(r io.Reader, total time.Duration, report func(string, int)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if report == nil {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok || key != "out_time_ms" {
			continue
		}
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || us < 0 {
			continue
		}
		// out_time_ms carries microseconds despite its name
		position := time.Duration(us) * time.Microsecond
		percent := -1
		if total > 0 {
			percent = int(position * 100 / total)
		}
		report("encoded "+position.Truncate(time.Second).String(), percent)
	}
	_, _ = io.Copy(io.Discard, r)
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	data  []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, p...)
	if over := len(b.data) - b.limit; over > 0 {
		b.data = append([]byte(nil), b.data[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(string(b.data))
}
