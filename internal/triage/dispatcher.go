package triage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/go-core/log"
)

var tracer = otel.Tracer("github.com/linnemanlabs/medic/internal/triage")

// Fallback reasons reported to hooks and spans.
const (
	FallbackDisabled    = "disabled"
	FallbackUnavailable = "unavailable"
	FallbackMalformed   = "malformed"
)

// Predict outcomes reported to hooks.
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeMalformed = "malformed"
)

// DispatcherHooks are optional callbacks for instrumentation. Nil fields
// are skipped.
type DispatcherHooks struct {
	OnPredict  func(backend, outcome string, duration float64)
	OnFallback func(reason string)
}

// Dispatcher resolves symptoms to a verdict, asking the prediction backend
// first and falling back to Classify on any failure. It holds no per-request
// state and is safe for concurrent use.
type Dispatcher struct {
	predictor Predictor
	backend   string
	logger    log.Logger
	hooks     DispatcherHooks
}

// NewDispatcher creates a dispatcher. A nil predictor disables the backend
// and every call goes straight to the rules.
func NewDispatcher(predictor Predictor, backend string, logger log.Logger, hooks DispatcherHooks) *Dispatcher {
	if logger == nil {
		logger = log.Nop()
	}
	if predictor == nil {
		backend = "none"
	}
	return &Dispatcher{
		predictor: predictor,
		backend:   backend,
		logger:    logger,
		hooks:     hooks,
	}
}

// Dispatch returns a verdict for the symptoms and the path that produced it.
// It never fails: backend errors are logged and absorbed.
func (d *Dispatcher) Dispatch(ctx context.Context, symptoms string) (Verdict, Source) {
	ctx, span := tracer.Start(ctx, "triage.dispatch", trace.WithAttributes(
		attribute.String("medic.predictor.backend", d.backend),
	))
	defer span.End()

	verdict, source, reason := d.dispatch(ctx, symptoms)

	span.SetAttributes(
		attribute.String("medic.triage.category", string(verdict.Category)),
		attribute.Int("medic.triage.severity", verdict.Severity),
		attribute.String("medic.triage.source", string(source)),
	)
	if reason != "" {
		span.SetAttributes(attribute.String("medic.triage.fallback_reason", reason))
		if d.hooks.OnFallback != nil {
			d.hooks.OnFallback(reason)
		}
	}

	return verdict, source
}

func (d *Dispatcher) dispatch(ctx context.Context, symptoms string) (Verdict, Source, string) {
	if d.predictor == nil {
		return Classify(symptoms), SourceRules, FallbackDisabled
	}

	L := d.logger.With("backend", d.backend)

	start := time.Now()
	pred, err := d.predict(ctx, symptoms)
	var verdict Verdict
	if err == nil {
		verdict, err = toVerdict(pred)
	}
	dur := time.Since(start).Seconds()

	if err != nil {
		reason, outcome := FallbackUnavailable, OutcomeError
		if errors.Is(err, ErrMalformedPrediction) {
			reason, outcome = FallbackMalformed, OutcomeMalformed
		}
		if d.hooks.OnPredict != nil {
			d.hooks.OnPredict(d.backend, outcome, dur)
		}
		L.Warn(ctx, "prediction failed, falling back to rules",
			"error", err,
			"reason", reason,
			"duration", dur,
		)
		return Classify(symptoms), SourceRules, reason
	}

	if d.hooks.OnPredict != nil {
		d.hooks.OnPredict(d.backend, OutcomeSuccess, dur)
	}
	return verdict, SourceModel, ""
}

// predict calls the backend inside its own span. A panicking backend is
// reported as an error.
func (d *Dispatcher) predict(ctx context.Context, symptoms string) (pred *Prediction, err error) {
	ctx, span := tracer.Start(ctx, "predictor.call", trace.WithAttributes(
		attribute.String("medic.predictor.backend", d.backend),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			pred = nil
			err = fmt.Errorf("predictor panic: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	return d.predictor.Predict(ctx, symptoms)
}

// toVerdict maps a backend answer through the category table. Both fields
// are required and the code must match the category's severity.
func toVerdict(p *Prediction) (Verdict, error) {
	if p == nil {
		return Verdict{}, fmt.Errorf("%w: empty response", ErrMalformedPrediction)
	}
	if p.Category == "" {
		return Verdict{}, fmt.Errorf("%w: missing triage_category", ErrMalformedPrediction)
	}
	if p.Code == nil {
		return Verdict{}, fmt.Errorf("%w: missing triage_code", ErrMalformedPrediction)
	}
	v, ok := VerdictFor(Category(p.Category))
	if !ok {
		return Verdict{}, fmt.Errorf("%w: unknown triage_category %q", ErrMalformedPrediction, p.Category)
	}
	if v.Severity != *p.Code {
		return Verdict{}, fmt.Errorf("%w: triage_code %d does not match category %s", ErrMalformedPrediction, *p.Code, p.Category)
	}
	return v, nil
}
