package download

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// YtdlpFetcher drives yt-dlp through go-ytdlp's command builder.
type YtdlpFetcher struct{}

// Fetch runs yt-dlp with audio extraction. Native progress updates are passed
// to report when it is non-nil.
func (YtdlpFetcher) Fetch(ctx context.Context, req Request, report func(string, int)) error {
	cmd := ytdlp.New().
		SetExecutable(req.Ytdlp).
		NoPlaylist().
		NoCheckCertificates().
		ExtractAudio().
		Output(req.OutputTemplate).
		FFmpegLocation(req.FFmpeg)
	if req.Format != "" {
		cmd = cmd.Format(req.Format)
	}
	if req.AudioFormat != "" {
		cmd = cmd.AudioFormat(req.AudioFormat)
	}
	if req.AudioQuality != "" {
		cmd = cmd.AudioQuality(req.AudioQuality)
	}
	if report != nil {
		cmd = cmd.ProgressFunc(500*time.Millisecond, func(update ytdlp.ProgressUpdate) {
			report(describe(update), int(update.Percent()))
		})
	}

	result, err := cmd.Run(ctx, req.URL)
	if err != nil {
		if result != nil && strings.TrimSpace(result.Stderr) != "" {
			return fmt.Errorf("%w: %s", err, lastLine(result.Stderr))
		}
		return err
	}
	return nil
}

func describe(update ytdlp.ProgressUpdate) string {
	status := strings.ReplaceAll(string(update.Status), "_", " ")
	if status == "" {
		status = "downloading"
	}
	if update.TotalBytes > 0 {
		return fmt.Sprintf("%s %d/%d bytes", status, update.DownloadedBytes, update.TotalBytes)
	}
	return status
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
