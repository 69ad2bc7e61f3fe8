package tagging_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/bogem/id3v2/v2"

	"predigt/internal/logging"
	"predigt/internal/media"
	"predigt/internal/services"
	"predigt/internal/tagging"
	"predigt/internal/testsupport"
)

var publisher = tagging.Publisher{
	Album:     "Predigten aus Treffpunkt Leben Karlsruhe",
	Genre:     "Predigt Online",
	Copyright: "Treffpunkt Leben Karlsruhe - alle Rechte vorbehalten",
}

func writeTaggedFixture(t *testing.T, path string) {
	t.Helper()
	testsupport.WriteMP3(t, path, 200)
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle("old title")
	tag.AddTextFrame("TCOM", id3v2.EncodingUTF8, "composer that must vanish")
	tag.AddCommentFrame(id3v2.CommentFrame{
		Encoding:    id3v2.EncodingUTF8,
		Language:    "deu",
		Description: "note",
		Text:        "stale comment",
	})
	tag.AddTextFrame("TLEN", id3v2.EncodingUTF8, "999999999")
	if err := tag.Save(); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	tag.Close()
}

func TestApplyOverwritesAllPriorFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compressed.mp3")
	writeTaggedFixture(t, path)

	date := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	tags := tagging.NewTagSet(publisher, " Gnade über Gnade ", "Anna Müller", date)

	stage := tagging.New(logging.NewNop())
	artifact, err := stage.Apply(context.Background(), media.Artifact{Path: path, DurationMs: 1}, tags)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	frames, err := tagging.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	ids := make([]string, 0, len(frames))
	for id := range frames {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	want := []string{"TALB", "TCON", "TCOP", "TDRC", "TIT2", "TLEN", "TPE1", "TYER"}
	if len(ids) != len(want) {
		t.Fatalf("unexpected frames %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("unexpected frames %v, want %v", ids, want)
		}
	}

	if frames[tagging.FrameTitle] != "Gnade über Gnade" {
		t.Fatalf("unexpected title %q", frames[tagging.FrameTitle])
	}
	if frames[tagging.FrameSpeaker] != "Anna Müller" {
		t.Fatalf("unexpected speaker %q", frames[tagging.FrameSpeaker])
	}
	if frames[tagging.FrameDate] != "2025-03-09" || frames[tagging.FrameYear] != "2025" {
		t.Fatalf("unexpected date frames %q %q", frames[tagging.FrameDate], frames[tagging.FrameYear])
	}
	if frames[tagging.FrameCopyright] != publisher.Copyright {
		t.Fatalf("unexpected copyright %q", frames[tagging.FrameCopyright])
	}

	length, err := strconv.ParseInt(frames[tagging.FrameLength], 10, 64)
	if err != nil {
		t.Fatalf("parse TLEN: %v", err)
	}
	wantMs := (200 * testsupport.MP3FrameDuration).Milliseconds()
	if length < wantMs-1 || length > wantMs+1 {
		t.Fatalf("expected decoded length near %d ms, got %d", wantMs, length)
	}
	if artifact.DurationMs != length {
		t.Fatalf("artifact duration %d does not match TLEN %d", artifact.DurationMs, length)
	}
}

func appendID3v1(t *testing.T, path, title string) {
	t.Helper()
	trailer := make([]byte, 128)
	copy(trailer, "TAG")
	copy(trailer[3:33], title)
	copy(trailer[33:63], "Old v1 artist")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()
	if _, err := f.Write(trailer); err != nil {
		t.Fatalf("append id3v1: %v", err)
	}
}

func TestApplyDropsID3v1Trailer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compressed.mp3")
	testsupport.WriteMP3(t, path, 50)
	appendID3v1(t, path, "Old v1 title")

	tags := tagging.NewTagSet(publisher, "Gnade", "Anna Müller", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	artifact, err := tagging.New(nil).Apply(context.Background(), media.Artifact{Path: path}, tags)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if bytes.Contains(data, []byte("Old v1 title")) || bytes.Contains(data, []byte("Old v1 artist")) {
		t.Fatal("prior ID3v1 fields survived tagging")
	}
	if !bytes.HasSuffix(data, testsupport.MP3Frames(50)) {
		t.Fatal("audio frames must be kept intact at the end of the file")
	}
	wantMs := (50 * testsupport.MP3FrameDuration).Milliseconds()
	if artifact.DurationMs < wantMs-1 || artifact.DurationMs > wantMs+1 {
		t.Fatalf("expected duration near %d ms, got %d", wantMs, artifact.DurationMs)
	}
}

func TestApplyIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compressed.mp3")
	testsupport.WriteMP3(t, path, 50)
	stage := tagging.New(nil)
	tags := tagging.NewTagSet(publisher, "Title", "Speaker", time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC))

	for i := 0; i < 2; i++ {
		if _, err := stage.Apply(context.Background(), media.Artifact{Path: path}, tags); err != nil {
			t.Fatalf("Apply #%d: %v", i+1, err)
		}
	}
	frames, err := tagging.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(frames) != 8 {
		t.Fatalf("expected 8 frames after repeated tagging, got %d", len(frames))
	}
}

func TestApplyFailsForUndecodableAudio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.mp3")
	if err := os.WriteFile(path, []byte("definitely not audio"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	stage := tagging.New(nil)
	_, err := stage.Apply(context.Background(), media.Artifact{Path: path},
		tagging.NewTagSet(publisher, "t", "s", time.Now()))
	if !errors.Is(err, services.ErrTaggingFailed) {
		t.Fatalf("expected ErrTaggingFailed, got %v", err)
	}
	data, readErr := os.ReadFile(path)
	if readErr != nil || string(data) != "definitely not audio" {
		t.Fatalf("file must stay intact on failure, got %q (%v)", data, readErr)
	}
}

func TestApplyRequiresDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.mp3")
	testsupport.WriteMP3(t, path, 5)
	_, err := tagging.New(nil).Apply(context.Background(), media.Artifact{Path: path}, tagging.TagSet{Title: "x"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
