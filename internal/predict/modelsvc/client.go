// Package modelsvc is a prediction backend that calls an external triage
// model service over HTTP.
package modelsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linnemanlabs/medic/internal/triage"
)

const (
	predictPath  = "/api/predict"
	httpTimeout  = 10 * time.Second
	maxBodyBytes = 64 * 1024
)

// ErrUnavailable marks transport failures and non-2xx responses.
var ErrUnavailable = errors.New("model service unavailable")

// Client implements triage.Predictor against the model service's
// POST /api/predict endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// New creates a model service client. baseURL is the service root, e.g.
// http://localhost:8081. apiKey, when set, is sent as a bearer token.
func New(baseURL, apiKey string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid model service url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid model service url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid model service url %q: missing host", baseURL)
	}
	u = u.JoinPath(predictPath)

	return &Client{
		endpoint: u.String(),
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout:   httpTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

type predictRequest struct {
	Symptoms string `json:"symptoms"`
}

// Predict sends the symptoms to the model service and decodes its answer.
// Field presence is not checked here; a missing field decodes to its zero
// value and is rejected by the dispatcher.
func (c *Client) Predict(ctx context.Context, symptoms string) (*triage.Prediction, error) {
	body, err := json.Marshal(predictRequest{Symptoms: symptoms})
	if err != nil {
		return nil, fmt.Errorf("modelsvc: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("modelsvc: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: endpoint is from trusted config, not user input
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: returned %d: %s", ErrUnavailable, resp.StatusCode, truncate(string(respBody), 256))
	}

	var out triage.Prediction
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", triage.ErrMalformedPrediction, err)
	}

	return &out, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
