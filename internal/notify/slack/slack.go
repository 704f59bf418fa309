// Package slack sends triage notifications to Slack via incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/medic/internal/triage"
)

const (
	maxSymptomsLen = 500
	httpTimeout    = 10 * time.Second
)

// Notifier sends triage assessments to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     log.Logger
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string, logger log.Logger) *Notifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Notifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout:   httpTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// Send posts an assessment to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, a *triage.Assessment) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(a, time.Now())

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	n.logger.Info(ctx, "triage notification sent", "triage_id", a.ID, "category", a.Verdict.Category)
	return nil
}

func buildMessage(a *triage.Assessment, now time.Time) map[string]any {
	return map[string]any{
		"text": fmt.Sprintf("%s %s triage: %s", a.Verdict.Emoji, a.Verdict.Category, a.Verdict.Description),
		"blocks": []map[string]any{
			headerBlock(a),
			{"type": "divider"},
			fieldsBlock(a),
			{"type": "divider"},
			symptomsBlock(a),
			{"type": "divider"},
			contextBlock(a, now),
		},
	}
}

func headerBlock(a *triage.Assessment) map[string]any {
	text := fmt.Sprintf("%s %s triage: %s", a.Verdict.Emoji, a.Verdict.Category, a.Verdict.Description)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(a *triage.Assessment) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Category:* %s", a.Verdict.Category),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Severity:* %d", a.Verdict.Severity),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Source:* %s", a.Source),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func symptomsBlock(a *triage.Assessment) map[string]any {
	text := truncate(a.Symptoms, maxSymptomsLen)
	if text == "" {
		text = "_No symptoms recorded._"
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Reported symptoms*\n\n%s", text),
		},
	}
}

func contextBlock(a *triage.Assessment, now time.Time) map[string]any {
	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("medic • triage %s • %s", a.ID, now.UTC().Format("2006-01-02 15:04 UTC")),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
