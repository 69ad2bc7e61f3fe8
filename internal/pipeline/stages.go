package pipeline

import (
	"context"
	"log/slog"

	"predigt/internal/compress"
	"predigt/internal/deps"
	"predigt/internal/media"
	"predigt/internal/publish"
	"predigt/internal/services"
	"predigt/internal/tagging"
)

// Downloader fetches source audio into the scratch directory.
type Downloader interface {
	Download(ctx context.Context, sourceID, scratchDir string, report func(string, int)) (media.Artifact, error)
}

// Compressor renders the compressed artifact.
type Compressor interface {
	Compress(ctx context.Context, in media.Artifact, output string, params compress.Params, report func(string, int)) (media.Artifact, error)
}

// Tagger rewrites metadata in place.
type Tagger interface {
	Apply(ctx context.Context, artifact media.Artifact, tags tagging.TagSet) (media.Artifact, error)
}

// Finalizer moves the artifact to its canonical name.
type Finalizer interface {
	Finalize(ctx context.Context, artifact media.Artifact, canonicalName string) (media.Artifact, error)
}

// Publisher delivers a finalized artifact.
type Publisher interface {
	Publish(ctx context.Context, finalPath string) (publish.Result, error)
}

// ToolchainCompressor resolves ffmpeg and ffprobe on every call, so a run
// started after installing the toolchain picks it up without a restart.
type ToolchainCompressor struct {
	ToolsDir string
	Logger   *slog.Logger
}

// Compress resolves the toolchain and delegates to compress.Stage.
func (c ToolchainCompressor) Compress(ctx context.Context, in media.Artifact, output string, params compress.Params, report func(string, int)) (media.Artifact, error) {
	ffmpeg, err := deps.ResolveTool(c.ToolsDir, "ffmpeg")
	if err != nil {
		return media.Artifact{}, services.Wrap(services.ErrToolchainMissing, "compress", "resolve ffmpeg", "", err)
	}
	ffprobe, _ := deps.ResolveTool(c.ToolsDir, "ffprobe")
	return compress.New(ffmpeg, ffprobe, c.Logger).Compress(ctx, in, output, params, report)
}
