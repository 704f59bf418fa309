package triage

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/go-core/log"
)

// Assessment is the outcome of one triage request. It is not stored.
type Assessment struct {
	ID       string
	Symptoms string
	Verdict  Verdict
	Source   Source
}

// Notifier receives high-severity assessments.
type Notifier interface {
	Send(ctx context.Context, a *Assessment) error
}

// ServiceHooks are optional callbacks for instrumentation.
type ServiceHooks struct {
	OnSubmit     func(result string)
	OnAssessment func(a *Assessment)
	OnNotify     func(outcome string)
}

// Service is the business boundary for triage requests.
type Service struct {
	dispatcher     *Dispatcher
	logger         log.Logger
	hooks          ServiceHooks
	notifier       Notifier
	notifySeverity int
}

// NewService creates a new triage service. notifier may be nil; when set it
// is called for every verdict with severity >= notifySeverity.
func NewService(dispatcher *Dispatcher, logger log.Logger, hooks ServiceHooks, notifier Notifier, notifySeverity int) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		dispatcher:     dispatcher,
		logger:         logger,
		hooks:          hooks,
		notifier:       notifier,
		notifySeverity: notifySeverity,
	}
}

// Assess validates the symptom text and returns its triage assessment.
// It fails only with ErrInvalidInput.
func (s *Service) Assess(ctx context.Context, symptoms string) (*Assessment, error) {
	symptoms = strings.TrimSpace(symptoms)
	if symptoms == "" {
		s.submit("invalid")
		return nil, ErrInvalidInput
	}
	s.submit("valid")

	id := ulid.Make().String()
	L := s.logger.With("triage_id", id)

	verdict, source := s.dispatcher.Dispatch(ctx, symptoms)
	a := &Assessment{
		ID:       id,
		Symptoms: symptoms,
		Verdict:  verdict,
		Source:   source,
	}

	if s.hooks.OnAssessment != nil {
		s.hooks.OnAssessment(a)
	}

	L.Info(ctx, "assessment complete",
		"category", verdict.Category,
		"severity", verdict.Severity,
		"source", source,
	)

	if s.notifier != nil && verdict.Severity >= s.notifySeverity {
		// detach from the request so the response is not held up by the webhook
		go s.notify(context.WithoutCancel(ctx), L, a)
	}

	return a, nil
}

func (s *Service) submit(result string) {
	if s.hooks.OnSubmit != nil {
		s.hooks.OnSubmit(result)
	}
}

func (s *Service) notify(ctx context.Context, L log.Logger, a *Assessment) {
	outcome := "success"
	if err := s.notifier.Send(ctx, a); err != nil {
		outcome = "error"
		L.Error(ctx, err, "failed to send triage notification")
	}
	if s.hooks.OnNotify != nil {
		s.hooks.OnNotify(outcome)
	}
}
