package ffprobe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleReport = `{
  "streams": [
    {"index": 0, "codec_name": "mp3", "codec_type": "audio", "sample_rate": "44100", "channels": 2, "bit_rate": "128000"},
    {"index": 1, "codec_name": "png", "codec_type": "video"}
  ],
  "format": {"filename": "out.mp3", "format_name": "mp3", "duration": "3725.500000", "size": "59608000", "bit_rate": "128000"}
}`

func TestParseAndHelpers(t *testing.T) {
	result, err := Parse([]byte(sampleReport))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !result.HasAudio() || len(result.AudioStreams()) != 1 {
		t.Fatalf("expected one audio stream, got %+v", result.AudioStreams())
	}
	if got := result.Duration(); got != 3725*time.Second+500*time.Millisecond {
		t.Fatalf("unexpected duration %v", got)
	}
	if result.BitRate() != 128000 {
		t.Fatalf("unexpected bitrate %d", result.BitRate())
	}
}

func TestHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", BitRate: "-1"}}
	if result.Duration() != 0 {
		t.Fatalf("expected zero duration, got %v", result.Duration())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected zero bitrate, got %d", result.BitRate())
	}
	if result.HasAudio() {
		t.Fatal("expected no audio")
	}
}

func TestInspectRunsBinary(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "report.json")
	if err := os.WriteFile(report, []byte(sampleReport), 0o644); err != nil {
		t.Fatalf("write report: %v", err)
	}
	stub := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\ncat '" + report + "'\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	result, err := Inspect(context.Background(), stub, filepath.Join(dir, "out.mp3"))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if result.Format.FormatName != "mp3" {
		t.Fatalf("unexpected format %q", result.Format.FormatName)
	}
}

func TestInspectReportsFailure(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\necho 'Invalid data found' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	if _, err := Inspect(context.Background(), stub, "x.mp3"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := Inspect(context.Background(), stub, " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
