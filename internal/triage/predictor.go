package triage

import (
	"context"
	"errors"
)

// Predictor is the interface for any prediction backend. Implementations
// return the backend's raw answer; mapping it to a Verdict is the
// Dispatcher's job.
type Predictor interface {
	Predict(ctx context.Context, symptoms string) (*Prediction, error)
}

// Prediction is the raw answer of a prediction backend. A nil Code or an
// empty Category means the backend omitted that field.
type Prediction struct {
	Category string `json:"triage_category"`
	Code     *int   `json:"triage_code"`
}

// ErrMalformedPrediction marks a backend answer that cannot be mapped to a
// verdict.
var ErrMalformedPrediction = errors.New("malformed prediction")
