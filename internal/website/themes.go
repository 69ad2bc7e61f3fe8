package website

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	tableSelector = "#predigt_main > table"
	themePrefix   = "Thema:"
	firstRow      = 1
	lastRow       = 6
)

// ErrNoWebsite is returned when no publisher website is configured.
var ErrNoWebsite = errors.New("publisher website not configured")

// Client reads the sermon schedule from the church website.
type Client struct {
	url  string
	http *http.Client
}

// NewClient constructs a client for url.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{url: strings.TrimSpace(url), http: &http.Client{Timeout: timeout}}
}

// Themes returns the upcoming sermon themes listed on the website.
func (c *Client) Themes(ctx context.Context) ([]string, error) {
	if c.url == "" {
		return nil, ErrNoWebsite
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build website request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch website: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("website returned %d", resp.StatusCode)
	}
	return ParseThemes(resp.Body)
}

// ParseThemes extracts the second column of rows 1 through 6 of the sermon
// table, dropping the "Thema:" label. Empty cells are skipped.
func ParseThemes(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse website: %w", err)
	}
	table := doc.Find(tableSelector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("sermon table %q not found", tableSelector)
	}
	themes := []string{}
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i < firstRow || i > lastRow {
			return
		}
		cell := row.Find("td").Eq(1)
		if cell.Length() == 0 {
			return
		}
		text := strings.TrimSpace(cell.Text())
		text = strings.TrimSpace(strings.TrimPrefix(text, themePrefix))
		text = strings.Join(strings.Fields(text), " ")
		if text != "" {
			themes = append(themes, text)
		}
	})
	return themes, nil
}
