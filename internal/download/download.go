package download

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"predigt/internal/deps"
	"predigt/internal/logging"
	"predigt/internal/media"
	"predigt/internal/services"
)

// OutputBase is the file name stem the fetch writes into the scratch directory.
const OutputBase = "source"

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,64}$`)

// ResolveURL turns a source identifier into a fetchable URL. Bare YouTube
// video IDs are expanded; http(s) URLs pass through unchanged.
func ResolveURL(sourceID string) (string, error) {
	id := strings.TrimSpace(sourceID)
	if id == "" {
		return "", services.Wrap(services.ErrValidation, "download", "resolve source", "source id is empty", nil)
	}
	if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
		if _, err := url.Parse(id); err != nil {
			return "", services.Wrap(services.ErrValidation, "download", "resolve source", "invalid url", err)
		}
		return id, nil
	}
	if !videoIDPattern.MatchString(id) {
		return "", services.Wrap(services.ErrValidation, "download", "resolve source", fmt.Sprintf("%q is neither a video id nor a url", id), nil)
	}
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id), nil
}

// Options configures the fetch.
type Options struct {
	ToolsDir     string
	YtdlpBinary  string
	Format       string
	AudioFormat  string
	AudioQuality string
}

// Request is what a Fetcher needs for one download.
type Request struct {
	URL            string
	OutputTemplate string
	Ytdlp          string
	FFmpeg         string
	Format         string
	AudioFormat    string
	AudioQuality   string
}

// Fetcher retrieves audio for a URL into Request.OutputTemplate.
type Fetcher interface {
	Fetch(ctx context.Context, req Request, report func(message string, percent int)) error
}

// Stage implements the download step.
type Stage struct {
	opts    Options
	fetcher Fetcher
	logger  *slog.Logger
}

// New constructs the stage. A nil fetcher selects the yt-dlp implementation.
func New(opts Options, fetcher Fetcher, logger *slog.Logger) *Stage {
	if fetcher == nil {
		fetcher = YtdlpFetcher{}
	}
	if opts.AudioFormat == "" {
		opts.AudioFormat = "mp3"
	}
	return &Stage{opts: opts, fetcher: fetcher, logger: logging.NewComponentLogger(logger, "download")}
}

// Download fetches the best available audio for sourceID into scratchDir and
// transcodes it to the configured container. Toolchain resolution happens
// before any network activity.
func (s *Stage) Download(ctx context.Context, sourceID, scratchDir string, report func(string, int)) (media.Artifact, error) {
	target, err := ResolveURL(sourceID)
	if err != nil {
		return media.Artifact{}, err
	}

	toolchain, err := deps.ResolveToolchain(s.opts.ToolsDir, s.opts.YtdlpBinary)
	if err != nil {
		return media.Artifact{}, services.Wrap(services.ErrToolchainMissing, "download", "resolve toolchain", "", err)
	}

	if info, err := os.Stat(scratchDir); err != nil || !info.IsDir() {
		return media.Artifact{}, services.Wrap(services.ErrDownloadFailed, "download", "scratch dir", scratchDir, err)
	}

	req := Request{
		URL:            target,
		OutputTemplate: filepath.Join(scratchDir, OutputBase+".%(ext)s"),
		Ytdlp:          toolchain.Ytdlp,
		FFmpeg:         toolchain.FFmpeg,
		Format:         s.opts.Format,
		AudioFormat:    s.opts.AudioFormat,
		AudioQuality:   s.opts.AudioQuality,
	}
	s.logger.Info("fetching audio",
		logging.String("url", target),
		logging.String("format", req.Format),
		logging.String("audio_format", req.AudioFormat),
	)
	if err := s.fetcher.Fetch(ctx, req, report); err != nil {
		return media.Artifact{}, services.Wrap(services.ErrDownloadFailed, "download", "fetch", target, err)
	}

	output := filepath.Join(scratchDir, OutputBase+"."+s.opts.AudioFormat)
	info, err := os.Stat(output)
	if err != nil {
		return media.Artifact{}, services.Wrap(services.ErrDownloadFailed, "download", "verify output", "expected "+filepath.Base(output), err)
	}
	if info.Size() == 0 {
		return media.Artifact{}, services.Wrap(services.ErrDownloadFailed, "download", "verify output", filepath.Base(output)+" is empty", nil)
	}
	s.logger.Info("audio fetched", logging.String("path", output), logging.Int64("size_bytes", info.Size()))
	return media.Artifact{Path: output}, nil
}
