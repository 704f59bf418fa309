package modelsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/medic/internal/triage"
)

func newTestClient(t *testing.T, apiKey string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, apiKey)
	require.NoError(t, err)
	return c
}

func TestNew_InvalidURL(t *testing.T) {
	t.Parallel()

	for _, u := range []string{"", "localhost:8081", "ftp://model", "http://", "://bad"} {
		_, err := New(u, "")
		assert.Error(t, err, "New(%q)", u)
	}
}

func TestNew_JoinsPredictPath(t *testing.T) {
	t.Parallel()

	c, err := New("http://model:8081/base/", "")
	require.NoError(t, err)
	assert.Equal(t, "http://model:8081/base/api/predict", c.endpoint)
}

func TestPredict_Success(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "severe headache", body["symptoms"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"triage_category":"Orange","triage_code":3}`)
	})

	pred, err := c.Predict(context.Background(), "severe headache")
	require.NoError(t, err)
	assert.Equal(t, "Orange", pred.Category)
	require.NotNil(t, pred.Code)
	assert.Equal(t, 3, *pred.Code)
}

func TestPredict_SendsBearerKey(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "sk-model", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-model", r.Header.Get("Authorization"))
		_, _ = fmt.Fprint(w, `{"triage_category":"Green","triage_code":1}`)
	})

	_, err := c.Predict(context.Background(), "bruise")
	require.NoError(t, err)
}

func TestPredict_MissingFieldsDecodeToZero(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{"triage_category":"Red"}`)
	})

	pred, err := c.Predict(context.Background(), "stroke")
	require.NoError(t, err)
	assert.Equal(t, "Red", pred.Category)
	assert.Nil(t, pred.Code)
}

func TestPredict_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, ErrUnavailable},
		{"model loading", http.StatusServiceUnavailable, `{"error":"Model is still loading."}`, ErrUnavailable},
		{"bad request", http.StatusBadRequest, `{"error":"No symptoms provided"}`, ErrUnavailable},
		{"invalid json", http.StatusOK, `{not json`, triage.ErrMalformedPrediction},
		{"wrong type", http.StatusOK, `{"triage_category":"Red","triage_code":"4"}`, triage.ErrMalformedPrediction},
		{"fractional code", http.StatusOK, `{"triage_category":"Red","triage_code":3.5}`, triage.ErrMalformedPrediction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, "", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.body)
			})

			_, err := c.Predict(context.Background(), "cough")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "err = %v, want %v", err, tt.wantErr)
		})
	}
}

func TestPredict_TruncatesLongErrorBody(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = fmt.Fprint(w, strings.Repeat("x", 5000))
	})

	_, err := c.Predict(context.Background(), "cough")
	require.Error(t, err)
	assert.Less(t, len(err.Error()), 400)
	assert.Contains(t, err.Error(), "502")
}

// closedURL returns the address of a listener that has been closed, so
// connections to it are refused.
func closedURL(t *testing.T) string {
	t.Helper()
	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return "http://" + addr
}

func TestPredict_ConnectionRefused(t *testing.T) {
	t.Parallel()

	c, err := New(closedURL(t), "")
	require.NoError(t, err)

	_, err = c.Predict(context.Background(), "cough")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPredict_ContextCancelled(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{"triage_category":"Green","triage_code":1}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Predict(ctx, "cough")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// Dispatcher wired to a refused model service falls back to the rules.

func TestDispatcher_UnreachableServiceFallsBack(t *testing.T) {
	t.Parallel()

	c, err := New(closedURL(t), "")
	require.NoError(t, err)
	d := triage.NewDispatcher(c, "http", log.Nop(), triage.DispatcherHooks{})

	for _, text := range []string{"chest pain, dizziness", "runny nose", "mild headache"} {
		v, src := d.Dispatch(context.Background(), text)
		assert.Equal(t, triage.SourceRules, src, text)
		assert.Equal(t, triage.Classify(text), v, text)
	}
}

func TestDispatcher_ServiceVerdictMapped(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{"triage_category":"Orange","triage_code":3}`)
	})
	d := triage.NewDispatcher(c, "http", log.Nop(), triage.DispatcherHooks{})

	v, src := d.Dispatch(context.Background(), "runny nose")
	want, _ := triage.VerdictFor(triage.CategoryOrange)
	assert.Equal(t, triage.SourceModel, src)
	assert.Equal(t, want, v)
}

func TestDispatcher_MissingCodeFallsBack(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{"triage_category":"Orange"}`)
	})
	d := triage.NewDispatcher(c, "http", log.Nop(), triage.DispatcherHooks{})

	v, src := d.Dispatch(context.Background(), "runny nose")
	assert.Equal(t, triage.SourceRules, src)
	assert.Equal(t, triage.CategoryGreen, v.Category)
}
