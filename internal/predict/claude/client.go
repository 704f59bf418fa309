// Package claude is a prediction backend that asks Claude to triage the
// symptom text and answer in the model service's JSON shape.
package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linnemanlabs/medic/internal/triage"
)

const (
	httpTimeout    = 30 * time.Second
	responseTokens = 256
)

// Client implements triage.Predictor using the Anthropic SDK.
type Client struct {
	sdk   anthropic.Client
	model string
}

// New creates a new Claude predictor. Extra options are appended after the
// defaults, so tests can point the client at a fake server.
func New(apiKey, model string, opts ...option.RequestOption) *Client {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// single attempt: the dispatcher falls back instead of retrying
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{
			Timeout:   httpTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
	}
	return &Client{
		sdk:   anthropic.NewClient(append(base, opts...)...),
		model: model,
	}
}

// Predict sends the symptoms to Claude and parses its JSON answer.
func (c *Client) Predict(ctx context.Context, symptoms string) (*triage.Prediction, error) {
	msg, err := c.sdk.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: responseTokens,
		System:    []anthropic.TextBlockParam{{Text: buildSystemPrompt()}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(symptoms)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude: send request: %w", err)
	}
	return fromSDKResponse(msg)
}

// fromSDKResponse extracts the prediction JSON from the first text block.
func fromSDKResponse(msg *anthropic.Message) (*triage.Prediction, error) {
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		raw := extractJSON(block.Text)
		if raw == "" {
			return nil, fmt.Errorf("%w: no JSON object in response", triage.ErrMalformedPrediction)
		}
		var out triage.Prediction
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, fmt.Errorf("%w: decode response: %w", triage.ErrMalformedPrediction, err)
		}
		return &out, nil
	}
	return nil, fmt.Errorf("%w: no text content", triage.ErrMalformedPrediction)
}

// extractJSON returns the outermost {...} span of s, tolerating prose or
// code fences around it.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

func buildSystemPrompt() string {
	var b strings.Builder
	b.WriteString(`You are a medical triage assistant. The user message is a free-text description of a patient's symptoms.
Classify it into exactly one triage category:

`)
	for _, v := range triage.Categories() {
		fmt.Fprintf(&b, "- %s (code %d): %s\n", v.Category, v.Severity, v.Description)
	}
	b.WriteString(`
Use Black only when the text does not describe recognisable symptoms.
Respond with a single JSON object and nothing else, for example:
{"triage_category": "Yellow", "triage_code": 2}`)
	return b.String()
}
