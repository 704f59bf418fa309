package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	AssessmentsTotal   *prometheus.CounterVec
	SeverityObserved   prometheus.Histogram
	PredictorCalls     *prometheus.CounterVec
	PredictorDuration  *prometheus.HistogramVec
	FallbacksTotal     *prometheus.CounterVec
	SubmitsTotal       *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AssessmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medic_assessments_total",
			Help: "Total assessments by category and verdict source.",
		}, []string{"category", "source"}),
		SeverityObserved: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "medic_assessment_severity",
			Help:    "Severity of assessment verdicts.",
			Buckets: prometheus.LinearBuckets(0, 1, 5), // 0 .. 4
		}),
		PredictorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medic_predictor_calls_total",
			Help: "Total prediction backend calls by backend and outcome.",
		}, []string{"backend", "outcome"}),
		PredictorDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medic_predictor_call_duration_seconds",
			Help:    "Duration of prediction backend calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms .. ~20s
		}, []string{"backend"}),
		FallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medic_fallbacks_total",
			Help: "Total rule-based fallbacks by reason.",
		}, []string{"reason"}),
		SubmitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medic_submits_total",
			Help: "Total triage submissions by result.",
		}, []string{"result"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medic_notifications_total",
			Help: "Total triage notifications by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.AssessmentsTotal,
		m.SeverityObserved,
		m.PredictorCalls,
		m.PredictorDuration,
		m.FallbacksTotal,
		m.SubmitsTotal,
		m.NotificationsTotal,
	)

	return m
}

// DispatcherHooks returns hooks that record predictor calls and fallbacks.
func (m *Metrics) DispatcherHooks() DispatcherHooks {
	return DispatcherHooks{
		OnPredict: func(backend, outcome string, duration float64) {
			m.PredictorCalls.WithLabelValues(backend, outcome).Inc()
			m.PredictorDuration.WithLabelValues(backend).Observe(duration)
		},
		OnFallback: func(reason string) {
			m.FallbacksTotal.WithLabelValues(reason).Inc()
		},
	}
}

// ServiceHooks returns hooks that record submissions, verdicts and
// notifications.
func (m *Metrics) ServiceHooks() ServiceHooks {
	return ServiceHooks{
		OnSubmit: func(result string) {
			m.SubmitsTotal.WithLabelValues(result).Inc()
		},
		OnAssessment: func(a *Assessment) {
			m.AssessmentsTotal.WithLabelValues(string(a.Verdict.Category), string(a.Source)).Inc()
			m.SeverityObserved.Observe(float64(a.Verdict.Severity))
		},
		OnNotify: func(outcome string) {
			m.NotificationsTotal.WithLabelValues(outcome).Inc()
		},
	}
}
