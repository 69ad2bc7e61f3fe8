package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"predigt/internal/config"
)

const userAgent = "predigt/1.0"

// Event names a notification-worthy milestone.
type Event string

const (
	// EventPublished fires after an artifact reached the remote store.
	EventPublished Event = "published"
	// EventFinalized fires when a pipeline run produced a local artifact without publishing.
	EventFinalized Event = "finalized"
	// EventError reports a failed pipeline or publish run.
	EventError Event = "error"
	// EventTest is sent by the test-notify command.
	EventTest Event = "test"
)

// Payload carries event-specific values. Keys used: remoteName, title, date,
// context, error.
type Payload map[string]any

// Service delivers notifications for pipeline events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds the notifier chain from configuration: the website update
// hook for published sermons, then ntfy when a topic is configured. With
// neither configured a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	var chain multiService
	if hook := strings.TrimSpace(cfg.Publisher.UpdateURL); hook != "" {
		chain = append(chain, &websiteHook{url: hook, client: client})
	}
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		chain = append(chain, &ntfyService{
			endpoint:      topic,
			client:        client,
			sendPublished: cfg.Notifications.Published,
			sendErrors:    cfg.Notifications.Errors,
		})
	}
	if len(chain) == 0 {
		return noopService{}
	}
	return chain
}

type multiService []Service

// Publish delivers to every notifier and joins their failures.
func (m multiService) Publish(ctx context.Context, event Event, payload Payload) error {
	var errs []error
	for _, svc := range m {
		if err := svc.Publish(ctx, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// websiteHook asks the church website to refresh its sermon list.
type websiteHook struct {
	url    string
	client *http.Client
}

func (w *websiteHook) Publish(ctx context.Context, event Event, _ Payload) error {
	if event != EventPublished {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url, nil)
	if err != nil {
		return fmt.Errorf("build website update request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("website update: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("website update returned %d", resp.StatusCode)
	}
	return nil
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	sendPublished bool
	sendErrors    bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	var msg payload
	switch event {
	case EventPublished:
		if !n.sendPublished {
			return nil
		}
		message := fmt.Sprintf("📢 Predigt veröffentlicht: %s", text(data, "remoteName"))
		if title := text(data, "title"); title != "" {
			message = fmt.Sprintf("%s\n%s", message, title)
		}
		msg = payload{
			title:   "predigt - Published",
			message: message,
			tags:    []string{"predigt", "publish", "completed"},
		}
	case EventError:
		if !n.sendErrors {
			return nil
		}
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := text(data, "context"); label != "" {
			builder.WriteString(" during ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if cause := text(data, "error"); cause != "" {
			builder.WriteString(cause)
		} else {
			builder.WriteString("unknown")
		}
		msg = payload{
			title:    "predigt - Error",
			message:  builder.String(),
			tags:     []string{"predigt", "error", "alert"},
			priority: "high",
		}
	case EventTest:
		msg = payload{
			title:    "predigt - Test",
			message:  "🧪 Notification system test",
			tags:     []string{"predigt", "test"},
			priority: "low",
		}
	default:
		return nil
	}
	return n.send(ctx, msg)
}

func text(data Payload, key string) string {
	if data == nil {
		return ""
	}
	value, ok := data[key]
	if !ok || value == nil {
		return ""
	}
	if err, ok := value.(error); ok {
		return strings.TrimSpace(err.Error())
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
