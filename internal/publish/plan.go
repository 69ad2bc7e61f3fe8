package publish

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"predigt/internal/services"
)

// DateLayout is the date format embedded in finalized and published names.
const DateLayout = "2006-01-02"

const dateDelimiter = " - "

// Plan describes one delivery before anything is touched.
type Plan struct {
	LocalPath  string    `json:"local_path"`
	RemoteName string    `json:"remote_name"`
	Date       time.Time `json:"date"`
	Title      string    `json:"title"`
}

// DateToken extracts and validates the date prefix of a finalized file name,
// the text before the first " - ".
func DateToken(filename string) (time.Time, error) {
	base := filepath.Base(filename)
	token, _, found := strings.Cut(base, dateDelimiter)
	if !found {
		return time.Time{}, fmt.Errorf("no date token in %q", base)
	}
	date, err := time.Parse(DateLayout, strings.TrimSpace(token))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date token %q in %q", token, base)
	}
	return date, nil
}

// RemoteName renders "predigt-<date>_<slug>.<ext>".
func RemoteName(date time.Time, slug, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "mp3"
	}
	return fmt.Sprintf("predigt-%s_%s.%s", date.Format(DateLayout), slug, ext)
}

// MakePlan derives the remote name for finalPath. A missing or invalid date
// token is PublishRejected.
func MakePlan(finalPath, slug string) (Plan, error) {
	date, err := DateToken(finalPath)
	if err != nil {
		return Plan{}, services.Wrap(services.ErrPublishRejected, "publish", "plan", "", err)
	}
	base := filepath.Base(finalPath)
	ext := filepath.Ext(base)
	_, rest, _ := strings.Cut(base, dateDelimiter)
	return Plan{
		LocalPath:  finalPath,
		RemoteName: RemoteName(date, slug, ext),
		Date:       date,
		Title:      strings.TrimSpace(strings.TrimSuffix(rest, ext)),
	}, nil
}
