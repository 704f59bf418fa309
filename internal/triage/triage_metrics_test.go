package triage

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/linnemanlabs/go-core/log"
)

func TestMetrics_RecordsDispatchAndAssessment(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	p := &mockPredictor{err: errors.New("refused")}
	d := NewDispatcher(p, "http", log.Nop(), m.DispatcherHooks())
	svc := NewService(d, log.Nop(), m.ServiceHooks(), nil, 4)

	if _, err := svc.Assess(context.Background(), "chest pain"); err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if _, err := svc.Assess(context.Background(), "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Assess(blank) err = %v, want ErrInvalidInput", err)
	}

	checks := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"assessments Red/rules", m.AssessmentsTotal.WithLabelValues("Red", "rules"), 1},
		{"predictor http/error", m.PredictorCalls.WithLabelValues("http", OutcomeError), 1},
		{"fallbacks unavailable", m.FallbacksTotal.WithLabelValues(FallbackUnavailable), 1},
		{"submits valid", m.SubmitsTotal.WithLabelValues("valid"), 1},
		{"submits invalid", m.SubmitsTotal.WithLabelValues("invalid"), 1},
	}
	for _, c := range checks {
		if got := testutil.ToFloat64(c.c); got != c.want {
			t.Errorf("%s = %v, want %v", c.name, got, c.want)
		}
	}

	if n := testutil.CollectAndCount(m.SeverityObserved); n != 1 {
		t.Errorf("severity histogram series = %d, want 1", n)
	}
}

func TestNewMetrics_DoubleRegisterPanics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	NewMetrics(reg)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("second NewMetrics on same registry did not panic")
		}
	}()
	NewMetrics(reg)
}
