package download_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"predigt/internal/download"
	"predigt/internal/logging"
	"predigt/internal/services"
	"predigt/internal/testsupport"
)

type fakeFetcher struct {
	calls   int
	req     download.Request
	content string
	err     error
}

func (f *fakeFetcher) Fetch(_ context.Context, req download.Request, report func(string, int)) error {
	f.calls++
	f.req = req
	if report != nil {
		report("downloading", 42)
	}
	if f.err != nil {
		return f.err
	}
	if f.content == "" {
		return nil
	}
	path := strings.Replace(req.OutputTemplate, "%(ext)s", req.AudioFormat, 1)
	return os.WriteFile(path, []byte(f.content), 0o644)
}

func stubToolchain(t *testing.T) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "bin")
	testsupport.InstallScript(t, bin, "ffmpeg", "exit 0")
	testsupport.InstallScript(t, bin, "yt-dlp", "exit 0")
	return bin
}

func TestResolveURL(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "dQw4w9WgXcQ", want: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{in: " https://youtu.be/abc123 ", want: "https://youtu.be/abc123"},
		{in: "", wantErr: true},
		{in: "not a video id", wantErr: true},
	}
	for _, tc := range cases {
		got, err := download.ResolveURL(tc.in)
		if tc.wantErr {
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("ResolveURL(%q) expected validation error, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ResolveURL(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestDownloadWritesSingleFileIntoScratch(t *testing.T) {
	stubToolchain(t)
	scratch := t.TempDir()
	fetcher := &fakeFetcher{content: "audio"}
	stage := download.New(download.Options{Format: "bestaudio/best", AudioFormat: "mp3", AudioQuality: "192K"}, fetcher, logging.NewNop())

	var reported []int
	artifact, err := stage.Download(context.Background(), "dQw4w9WgXcQ", scratch, func(_ string, pct int) {
		reported = append(reported, pct)
	})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if artifact.Path != filepath.Join(scratch, "source.mp3") {
		t.Fatalf("unexpected artifact path %q", artifact.Path)
	}
	if names := testsupport.ListDir(t, scratch); len(names) != 1 {
		t.Fatalf("expected exactly one file in scratch, got %v", names)
	}
	if fetcher.req.AudioQuality != "192K" || fetcher.req.Format != "bestaudio/best" {
		t.Fatalf("unexpected request %+v", fetcher.req)
	}
	if !strings.HasSuffix(fetcher.req.FFmpeg, "ffmpeg") || fetcher.req.Ytdlp == "" {
		t.Fatalf("expected resolved toolchain, got %+v", fetcher.req)
	}
	if len(reported) != 1 || reported[0] != 42 {
		t.Fatalf("expected progress to reach the reporter, got %v", reported)
	}
}

func TestDownloadFailsFastWithoutToolchain(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	fetcher := &fakeFetcher{content: "audio"}
	stage := download.New(download.Options{ToolsDir: t.TempDir()}, fetcher, nil)

	_, err := stage.Download(context.Background(), "dQw4w9WgXcQ", t.TempDir(), nil)
	if !errors.Is(err, services.ErrToolchainMissing) {
		t.Fatalf("expected ErrToolchainMissing, got %v", err)
	}
	if fetcher.calls != 0 {
		t.Fatal("fetch must not run without a toolchain")
	}
}

func TestDownloadPropagatesFetchFailure(t *testing.T) {
	stubToolchain(t)
	fetcher := &fakeFetcher{err: errors.New("HTTP Error 403: Forbidden")}
	stage := download.New(download.Options{}, fetcher, nil)

	_, err := stage.Download(context.Background(), "dQw4w9WgXcQ", t.TempDir(), nil)
	if !errors.Is(err, services.ErrDownloadFailed) {
		t.Fatalf("expected ErrDownloadFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected underlying cause in message, got %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", fetcher.calls)
	}
}

func TestDownloadRequiresOutputFile(t *testing.T) {
	stubToolchain(t)
	stage := download.New(download.Options{}, &fakeFetcher{}, nil)
	_, err := stage.Download(context.Background(), "dQw4w9WgXcQ", t.TempDir(), nil)
	if !errors.Is(err, services.ErrDownloadFailed) {
		t.Fatalf("expected ErrDownloadFailed, got %v", err)
	}
}

func TestYtdlpFetcherReportsMissingExecutable(t *testing.T) {
	err := download.YtdlpFetcher{}.Fetch(context.Background(), download.Request{
		URL:            "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		OutputTemplate: filepath.Join(t.TempDir(), "source.%(ext)s"),
		Ytdlp:          filepath.Join(t.TempDir(), "missing-yt-dlp"),
	}, nil)
	if err == nil {
		t.Fatal("expected error for missing yt-dlp executable")
	}
}
