package tagging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bogem/id3v2/v2"

	"predigt/internal/logging"
	"predigt/internal/media"
	"predigt/internal/media/audiolength"
	"predigt/internal/services"
)

// Frame identifiers written by Apply. Nothing else survives tagging.
const (
	FrameTitle     = "TIT2"
	FrameSpeaker   = "TPE1"
	FrameAlbum     = "TALB"
	FrameGenre     = "TCON"
	FrameCopyright = "TCOP"
	FrameDate      = "TDRC"
	FrameYear      = "TYER"
	FrameLength    = "TLEN"
)

// TagSet is the complete metadata written into a sermon file.
type TagSet struct {
	Title     string
	Speaker   string
	Album     string
	Genre     string
	Copyright string
	Date      time.Time
}

// Publisher holds the static values every TagSet shares.
type Publisher struct {
	Album     string
	Genre     string
	Copyright string
}

// NewTagSet combines request fields with publisher constants.
func NewTagSet(pub Publisher, title, speaker string, date time.Time) TagSet {
	return TagSet{
		Title:     strings.TrimSpace(title),
		Speaker:   strings.TrimSpace(speaker),
		Album:     pub.Album,
		Genre:     pub.Genre,
		Copyright: pub.Copyright,
		Date:      date,
	}
}

// Stage rewrites the ID3 tag of an artifact in place.
type Stage struct {
	logger *slog.Logger
}

// New constructs the tagging stage.
func New(logger *slog.Logger) *Stage {
	return &Stage{logger: logging.NewComponentLogger(logger, "tagging")}
}

// Apply clears every existing frame, drops a trailing ID3v1 block and writes
// tags plus the decoded duration. The library saves through a temporary file,
// so a failed write leaves the original audio untouched.
func (s *Stage) Apply(ctx context.Context, artifact media.Artifact, tags TagSet) (media.Artifact, error) {
	if tags.Date.IsZero() {
		return artifact, services.Wrap(services.ErrValidation, "tag", "prepare", "recording date is required", nil)
	}

	if err := stripID3v1(artifact.Path); err != nil {
		return artifact, services.Wrap(services.ErrTaggingFailed, "tag", "strip id3v1", artifact.Path, err)
	}

	duration, err := audiolength.Of(artifact.Path)
	if err != nil {
		return artifact, services.Wrap(services.ErrTaggingFailed, "tag", "measure duration", artifact.Path, err)
	}
	durationMs := duration.Milliseconds()

	tag, err := id3v2.Open(artifact.Path, id3v2.Options{Parse: true})
	if err != nil {
		return artifact, services.Wrap(services.ErrTaggingFailed, "tag", "open", artifact.Path, err)
	}
	defer tag.Close()

	tag.DeleteAllFrames()
	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	for _, frame := range []struct{ id, text string }{
		{FrameTitle, tags.Title},
		{FrameSpeaker, tags.Speaker},
		{FrameAlbum, tags.Album},
		{FrameGenre, tags.Genre},
		{FrameCopyright, tags.Copyright},
		{FrameDate, tags.Date.Format("2006-01-02")},
		{FrameYear, tags.Date.Format("2006")},
		{FrameLength, strconv.FormatInt(durationMs, 10)},
	} {
		tag.AddTextFrame(frame.id, id3v2.EncodingUTF8, frame.text)
	}

	if err := ctx.Err(); err != nil {
		return artifact, services.Wrap(services.ErrTaggingFailed, "tag", "save", "canceled", err)
	}
	if err := tag.Save(); err != nil {
		return artifact, services.Wrap(services.ErrTaggingFailed, "tag", "save", artifact.Path, err)
	}

	s.logger.Debug("tags written",
		logging.String("path", artifact.Path),
		logging.Int64("duration_ms", durationMs),
		logging.Int("frames", tag.Count()),
	)
	artifact.DurationMs = durationMs
	return artifact, nil
}

// id3v1Size is the fixed length of an ID3v1 trailer, including its "TAG" magic.
const id3v1Size = 128

// stripID3v1 truncates a trailing ID3v1 block. Only metadata is cut; the
// audio frames before it stay in place.
func stripID3v1(path string) error {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < id3v1Size {
		return nil
	}
	magic := make([]byte, 3)
	if _, err := file.ReadAt(magic, info.Size()-id3v1Size); err != nil && err != io.EOF {
		return err
	}
	if string(magic) != "TAG" {
		return nil
	}
	return file.Truncate(info.Size() - id3v1Size)
}

// Read returns the text frames of the file at path keyed by frame id.
func Read(path string) (map[string]string, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("open tag: %w", err)
	}
	defer tag.Close()

	out := make(map[string]string)
	for id, frames := range tag.AllFrames() {
		for _, framer := range frames {
			if text, ok := framer.(id3v2.TextFrame); ok {
				out[id] = text.Text
				break
			}
			if _, exists := out[id]; !exists {
				out[id] = ""
			}
		}
	}
	return out, nil
}
