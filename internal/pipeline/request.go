package pipeline

import (
	"strings"
	"time"

	"predigt/internal/services"
)

// Request is one pipeline invocation. It is not modified after Run starts.
type Request struct {
	SourceID string    `json:"source_id"`
	Speaker  string    `json:"speaker"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
}

// Validate reports the first missing field.
func (r Request) Validate() error {
	switch {
	case strings.TrimSpace(r.SourceID) == "":
		return services.Wrap(services.ErrValidation, "pipeline", "request", "source id is required", nil)
	case strings.TrimSpace(r.Speaker) == "":
		return services.Wrap(services.ErrValidation, "pipeline", "request", "speaker is required", nil)
	case r.Date.IsZero():
		return services.Wrap(services.ErrValidation, "pipeline", "request", "date is required", nil)
	}
	return nil
}

// ParseDate accepts YYYY-MM-DD.
func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, services.Wrap(services.ErrValidation, "pipeline", "request", "date must be YYYY-MM-DD", err)
	}
	return date, nil
}
