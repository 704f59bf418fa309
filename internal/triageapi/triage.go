package triageapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/medic/internal/triage"
)

const maxRequestBytes = 64 * 1024

type triageRequest struct {
	Symptoms string `json:"symptoms"`
}

func (a *API) handleTriage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid input"})
		return
	}
	if len(body) > maxRequestBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "Request body too large"})
		return
	}

	if details := a.validator.validate(body); len(details) > 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid input", Details: details})
		return
	}

	var req triageRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid input"})
		return
	}

	a.respond(w, r, req.Symptoms)
}

func (a *API) respond(w http.ResponseWriter, r *http.Request, symptoms string) {
	ctx := r.Context()
	span := trace.SpanFromContext(ctx)

	assessment, err := a.svc.Assess(ctx, symptoms)
	if errors.Is(err, triage.ErrInvalidInput) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Invalid input",
			Details: []FieldError{{Field: "symptoms", Message: "Symptoms are required"}},
		})
		return
	}
	if err != nil {
		a.logger.Error(ctx, err, "triage assessment failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	span.SetAttributes(
		attribute.String("medic.triage.id", assessment.ID),
		attribute.String("medic.triage.category", string(assessment.Verdict.Category)),
	)

	w.Header().Set("X-Triage-Id", assessment.ID)
	w.Header().Set("X-Triage-Source", string(assessment.Source))
	writeJSON(w, http.StatusOK, assessment.Verdict)
}
