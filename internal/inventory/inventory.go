package inventory

import (
	"context"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"predigt/internal/logging"
	"predigt/internal/remote"
	"predigt/internal/services"
)

// DefaultLimit is the listing size used by the CLI and the API.
const DefaultLimit = 15

// Oldest is assigned to entries without a recognizable date so they sort last.
var Oldest = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// Tried in order; the first submatch is the date.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^predigt-(\d{4}-\d{2}-\d{2})_`),
	regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s*-`),
}

var placeholders = map[string]struct{}{
	".":      {},
	"..":     {},
	".empty": {},
}

// Entry is one remote file with its embedded date.
type Entry struct {
	Name  string    `json:"name"`
	Date  time.Time `json:"date"`
	Dated bool      `json:"dated"`
}

// ExtractDate returns the date embedded in name, or Oldest when no pattern
// matches or the matched text is not a calendar date.
func ExtractDate(name string) (time.Time, bool) {
	for _, pattern := range datePatterns {
		match := pattern.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		date, err := time.Parse("2006-01-02", match[1])
		if err != nil {
			return Oldest, false
		}
		return date, true
	}
	return Oldest, false
}

// IsPlaceholder reports directory markers and pseudo entries.
func IsPlaceholder(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || strings.HasSuffix(trimmed, "/") {
		return true
	}
	_, ok := placeholders[trimmed]
	return ok
}

// Rank filters placeholders, extracts dates and orders entries newest first.
// Entries sharing a date keep their listing order. max <= 0 returns all.
func Rank(names []string, max int) []Entry {
	kept := lo.Reject(names, func(name string, _ int) bool {
		return IsPlaceholder(name)
	})
	entries := lo.Map(kept, func(name string, _ int) Entry {
		date, ok := ExtractDate(name)
		return Entry{Name: name, Date: date, Dated: ok}
	})
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return b.Date.Compare(a.Date)
	})
	if max > 0 && len(entries) > max {
		entries = entries[:max]
	}
	return entries
}

// Inventory is a read-only view over the remote store.
type Inventory struct {
	store  remote.Store
	logger *slog.Logger
}

// New constructs an inventory over store.
func New(store remote.Store, logger *slog.Logger) *Inventory {
	return &Inventory{store: store, logger: logging.NewComponentLogger(logger, "inventory")}
}

// List returns up to max entries, most recent first. Any read failure is
// reported as ListingFailed without a partial result.
func (i *Inventory) List(ctx context.Context, max int) ([]Entry, error) {
	names, err := i.store.List(ctx)
	if err != nil {
		logging.WarnWithContext(i.logger, "remote listing failed", "remote_list_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check remote host and credentials"),
			logging.String(logging.FieldImpact, "inventory unavailable"),
		)
		return nil, services.Wrap(services.ErrListingFailed, "inventory", "list", "", err)
	}
	entries := Rank(names, max)
	i.logger.Debug("remote listing", logging.Int("total", len(names)), logging.Int("returned", len(entries)))
	return entries, nil
}
