package finalize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"predigt/internal/fileutil"
	"predigt/internal/logging"
	"predigt/internal/media"
	"predigt/internal/services"
)

// DateLayout is the date prefix of every finalized file name.
const DateLayout = "2006-01-02"

// Separator divides the date prefix from the title.
const Separator = " - "

// DefaultTitle replaces titles that sanitize to nothing.
const DefaultTitle = "Predigt"

const maxTitleRunes = 180

var invalidRunes = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", " -",
	"*", "",
	"?", "",
	"\"", "'",
	"<", "",
	">", "",
	"|", "-",
)

// CanonicalName renders "YYYY-MM-DD - <title>.<ext>".
func CanonicalName(date time.Time, title, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		ext = "mp3"
	}
	return date.Format(DateLayout) + Separator + SanitizeTitle(title) + "." + ext
}

// SanitizeTitle NFC-normalizes the title, replaces characters that are invalid
// on common filesystems and collapses whitespace.
func SanitizeTitle(title string) string {
	cleaned := norm.NFC.String(title)
	cleaned = invalidRunes.Replace(cleaned)
	cleaned = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, cleaned)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = strings.Trim(cleaned, ". ")
	if runes := []rune(cleaned); len(runes) > maxTitleRunes {
		cleaned = strings.TrimSpace(string(runes[:maxTitleRunes]))
	}
	if cleaned == "" {
		return DefaultTitle
	}
	return cleaned
}

// Stage moves tagged artifacts into the output directory under their canonical name.
type Stage struct {
	outputDir string
	logger    *slog.Logger
}

// New constructs the stage.
func New(outputDir string, logger *slog.Logger) *Stage {
	return &Stage{outputDir: outputDir, logger: logging.NewComponentLogger(logger, "finalize")}
}

// Finalize renames the artifact to canonicalName inside the output directory.
// An existing file at the destination is removed first, so repeated runs for
// the same request land on the same path.
func (s *Stage) Finalize(ctx context.Context, artifact media.Artifact, canonicalName string) (media.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return media.Artifact{}, services.Wrap(services.ErrFinalizeFailed, "finalize", "context", "", err)
	}
	name := strings.TrimSpace(canonicalName)
	if name == "" || name != filepath.Base(name) {
		return media.Artifact{}, services.Wrap(services.ErrFinalizeFailed, "finalize", "canonical name", fmt.Sprintf("invalid name %q", canonicalName), nil)
	}
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return media.Artifact{}, services.Wrap(services.ErrFinalizeFailed, "finalize", "create output dir", s.outputDir, err)
	}

	dest := filepath.Join(s.outputDir, name)
	if filepath.Clean(dest) == filepath.Clean(artifact.Path) {
		return artifact, nil
	}
	if err := fileutil.RemoveIfExists(dest); err != nil {
		return media.Artifact{}, services.Wrap(services.ErrFinalizeFailed, "finalize", "remove existing", dest, err)
	}
	if err := fileutil.MoveFile(artifact.Path, dest); err != nil {
		return media.Artifact{}, services.Wrap(services.ErrFinalizeFailed, "finalize", "rename", dest, err)
	}

	s.logger.Info("artifact finalized", logging.String("path", dest))
	return media.Artifact{Path: dest, DurationMs: artifact.DurationMs}, nil
}
