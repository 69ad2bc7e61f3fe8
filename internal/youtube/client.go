package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"

	"predigt/internal/config"
	"predigt/internal/logging"
)

const userAgent = "predigt/1.0"

// ErrNotConfigured is returned when the API key or channel id is missing.
var ErrNotConfigured = errors.New("youtube api not configured")

// Livestream is a past or current livestream of the channel.
type Livestream struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	LengthMs     int64  `json:"length_ms"`
}

// Client queries the YouTube Data API v3.
type Client struct {
	baseURL   string
	apiKey    string
	channelID string
	http      *http.Client
	logger    *slog.Logger
}

// NewClient constructs a client from the [youtube] section.
func NewClient(cfg config.YouTube, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    strings.TrimSpace(cfg.APIKey),
		channelID: strings.TrimSpace(cfg.ChannelID),
		http:      &http.Client{Timeout: timeout},
		logger:    logging.NewComponentLogger(logger, "youtube"),
	}
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title      string `json:"title"`
			Thumbnails map[string]struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		LiveStreamingDetails *struct {
			ActualStartTime string `json:"actualStartTime"`
		} `json:"liveStreamingDetails"`
	} `json:"items"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Livestreams returns up to limit of the channel's most recent livestreams.
// Twice as many videos are searched because regular uploads are filtered out.
func (c *Client) Livestreams(ctx context.Context, limit int) ([]Livestream, error) {
	if c.apiKey == "" || c.channelID == "" {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		limit = 5
	}

	var search searchResponse
	if err := c.get(ctx, "search", url.Values{
		"part":       {"id"},
		"channelId":  {c.channelID},
		"order":      {"date"},
		"type":       {"video"},
		"maxResults": {strconv.Itoa(min(limit*2, 50))},
	}, &search); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	if len(ids) == 0 {
		return []Livestream{}, nil
	}

	var videos videosResponse
	if err := c.get(ctx, "videos", url.Values{
		"part": {"snippet,contentDetails,liveStreamingDetails"},
		"id":   {strings.Join(ids, ",")},
	}, &videos); err != nil {
		return nil, err
	}

	streams := make([]Livestream, 0, limit)
	for _, item := range videos.Items {
		if item.LiveStreamingDetails == nil {
			continue
		}
		stream := Livestream{
			ID:           item.ID,
			Title:        item.Snippet.Title,
			ThumbnailURL: thumbnail(item.Snippet.Thumbnails),
		}
		if item.ContentDetails.Duration != "" {
			if parsed, err := duration.Parse(item.ContentDetails.Duration); err == nil {
				stream.LengthMs = parsed.ToTimeDuration().Milliseconds()
			} else {
				c.logger.Debug("unparsable video duration",
					logging.String("video_id", item.ID),
					logging.String("duration", item.ContentDetails.Duration),
				)
			}
		}
		streams = append(streams, stream)
		if len(streams) == limit {
			break
		}
	}
	return streams, nil
}

func thumbnail(thumbs map[string]struct {
	URL string `json:"url"`
}) string {
	for _, key := range []string{"high", "medium", "default"} {
		if thumb, ok := thumbs[key]; ok && thumb.URL != "" {
			return thumb.URL
		}
	}
	return ""
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	params.Set("key", c.apiKey)
	target := c.baseURL + "/" + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("youtube %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("youtube %s: read body: %w", endpoint, err)
	}
	if resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("youtube %s returned %d: %s", endpoint, resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("youtube %s returned %d", endpoint, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("youtube %s: decode: %w", endpoint, err)
	}
	return nil
}
