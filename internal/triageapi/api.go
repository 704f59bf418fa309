// Package triageapi exposes the triage service over HTTP.
package triageapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"
	"github.com/linnemanlabs/medic/internal/triage"
)

// TriageService defines the business operations triageapi needs.
type TriageService interface {
	Assess(ctx context.Context, symptoms string) (*triage.Assessment, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger    log.Logger
	svc       TriageService
	validator *validator
}

// New creates a new API handler.
func New(logger log.Logger, svc TriageService) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("triage service is required"))
	}
	v, err := newValidator()
	if err != nil {
		panic(err)
	}
	return &API{
		logger:    logger,
		svc:       svc,
		validator: v,
	}
}

// RegisterRoutes attaches API endpoints to the router. /api/triage is kept
// for the web form, which predates the versioned routes.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Post("/api/triage", a.handleTriage)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/triage", a.handleTriage)
		r.Get("/categories", a.handleCategories)
	})
}

type errorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// nothing to do with errors here
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, triage.Categories())
}
