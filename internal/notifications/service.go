package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"matchreel/internal/config"
)

const userAgent = "matchreel/0.1"

// Service defines the notification surface used by the daemon and CLI.
type Service interface {
	NotifyMatchReady(ctx context.Context, team, opponent, matchDate string) error
	NotifyOrphanedUpload(ctx context.Context, uploadID string, cause error) error
	NotifySyncFailures(ctx context.Context, failed, checked int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether svc actually delivers messages.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyMatchReady(ctx context.Context, team, opponent, matchDate string) error {
	message := fmt.Sprintf("%s vs %s is ready to watch", strings.TrimSpace(team), strings.TrimSpace(opponent))
	if matchDate = strings.TrimSpace(matchDate); matchDate != "" {
		message = fmt.Sprintf("%s (%s)", message, matchDate)
	}
	data := payload{
		title:   "matchreel - Match Ready",
		message: message,
		tags:    []string{"matchreel", "match", "ready"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyOrphanedUpload(ctx context.Context, uploadID string, cause error) error {
	var builder strings.Builder
	builder.WriteString("Upload ")
	builder.WriteString(strings.TrimSpace(uploadID))
	builder.WriteString(" reached Mux but no match was recorded")
	if cause != nil {
		builder.WriteString(": ")
		builder.WriteString(strings.TrimSpace(cause.Error()))
	}
	data := payload{
		title:    "matchreel - Orphaned Upload",
		message:  builder.String(),
		tags:     []string{"matchreel", "upload", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySyncFailures(ctx context.Context, failed, checked int) error {
	data := payload{
		title:   "matchreel - Sync Errors",
		message: fmt.Sprintf("%d of %d pending matches could not be checked", failed, checked),
		tags:    []string{"matchreel", "sync", "warning"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "matchreel - Test",
		message:  "Notification system test",
		tags:     []string{"matchreel", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

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

func (noopService) NotifyMatchReady(context.Context, string, string, string) error { return nil }
func (noopService) NotifyOrphanedUpload(context.Context, string, error) error      { return nil }
func (noopService) NotifySyncFailures(context.Context, int, int) error             { return nil }
func (noopService) TestNotification(context.Context) error                         { return nil }
