package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"simwatch/internal/config"
)

const userAgent = "Simwatch-Go/0.1.0"

// Service defines the notification surface exposed to the orchestration
// components.
type Service interface {
	NotifyActivationCompleted(ctx context.Context, batchID string, activated int) error
	NotifyDeactivationCompleted(ctx context.Context, batchID string, released int) error
	NotifyRetryQueued(ctx context.Context, oldJobID, newJobID string) error
	NotifyAnalysisStarted(ctx context.Context, batchID string, totalCalls int) error
	NotifyAnalysisCompleted(ctx context.Context, batchID string, analyzed, total int, duration time.Duration) error
	NotifyAnalysisTimedOut(ctx context.Context, batchID string, analyzed, total int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint:   topic,
		client:     client,
		activation: cfg.Notifications.Activation,
		analysis:   cfg.Notifications.Analysis,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	activation bool
	analysis   bool
	errors     bool
}

func (n *ntfyService) NotifyActivationCompleted(ctx context.Context, batchID string, activated int) error {
	if !n.activation {
		return nil
	}
	data := payload{
		title:   "Simwatch - Jobs Activated",
		message: fmt.Sprintf("📞 Activated %d jobs in batch %s", activated, strings.TrimSpace(batchID)),
		tags:    []string{"simwatch", "activation", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDeactivationCompleted(ctx context.Context, batchID string, released int) error {
	if !n.activation {
		return nil
	}
	data := payload{
		title:   "Simwatch - Jobs Deactivated",
		message: fmt.Sprintf("Released %d numbers in batch %s", released, strings.TrimSpace(batchID)),
		tags:    []string{"simwatch", "activation", "released"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRetryQueued(ctx context.Context, oldJobID, newJobID string) error {
	if !n.activation {
		return nil
	}
	data := payload{
		title:   "Simwatch - Retry Queued",
		message: fmt.Sprintf("🔁 Retry of job %s queued as %s", strings.TrimSpace(oldJobID), strings.TrimSpace(newJobID)),
		tags:    []string{"simwatch", "retry", "queued"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAnalysisStarted(ctx context.Context, batchID string, totalCalls int) error {
	if !n.analysis {
		return nil
	}
	data := payload{
		title:   "Simwatch - Analysis Started",
		message: fmt.Sprintf("Started re-analysis of %d calls in batch %s", totalCalls, strings.TrimSpace(batchID)),
		tags:    []string{"simwatch", "analysis", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAnalysisCompleted(ctx context.Context, batchID string, analyzed, total int, duration time.Duration) error {
	if !n.analysis {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}
	data := payload{
		title:    "Simwatch - Analysis Complete",
		message:  fmt.Sprintf("✅ Batch %s: %d/%d calls analyzed in %s", strings.TrimSpace(batchID), analyzed, total, durationText),
		tags:     []string{"simwatch", "analysis", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAnalysisTimedOut(ctx context.Context, batchID string, analyzed, total int) error {
	if !n.analysis {
		return nil
	}
	data := payload{
		title:    "Simwatch - Analysis Timed Out",
		message:  fmt.Sprintf("⏱️ Batch %s: only %d/%d calls analyzed before the poll ceiling", strings.TrimSpace(batchID), analyzed, total),
		tags:     []string{"simwatch", "analysis", "timeout"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Simwatch - Error",
		message:  builder.String(),
		tags:     []string{"simwatch", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Simwatch - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"simwatch", "test"},
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

func (noopService) NotifyActivationCompleted(context.Context, string, int) error   { return nil }
func (noopService) NotifyDeactivationCompleted(context.Context, string, int) error { return nil }
func (noopService) NotifyRetryQueued(context.Context, string, string) error        { return nil }
func (noopService) NotifyAnalysisStarted(context.Context, string, int) error       { return nil }
func (noopService) NotifyAnalysisCompleted(context.Context, string, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyAnalysisTimedOut(context.Context, string, int, int) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error               { return nil }
func (noopService) TestNotification(context.Context) error                         { return nil }
