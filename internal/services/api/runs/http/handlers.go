// Package http provides http transport for runs
package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	"driftwatch/internal/modkit/httpkit"
	perr "driftwatch/internal/platform/errors"
	"driftwatch/internal/services/api/runs/domain"
	svc "driftwatch/internal/services/api/runs/service"
)

// Register mounts runs endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.RunInput](r, "/runs", h.trigger)
	httpkit.Get(r, "/models/{model_id}/report", h.report)
}

type handlers struct{ svc svc.Service }

// swagger:route POST /runs Runs runsTrigger
// @Summary Trigger a monitoring run for a deployment
// @Tags Runs
// @Accept json
// @Produce json
// @Param payload body domain.RunInput true "Deployment"
// @Success 200 {object} domain.RunResponse "ok"
// @Failure 404 {object} httpkit.Envelope "model not monitored"
// @Failure 422 {object} httpkit.Envelope "detection failed"
// @Failure 502 {object} httpkit.Envelope "publish or data source failed"
// @Router /runs [post]
func (h *handlers) trigger(r *stdhttp.Request, in domain.RunInput) (any, error) {
	return h.svc.Trigger(r.Context(), in)
}

// swagger:route GET /models/{model_id}/report Runs runsReport
// @Summary Latest computed drift report for a deployment
// @Tags Runs
// @Produce json
// @Param model_id path string true "Model ID"
// @Param environment query string false "Environment (default dev)"
// @Success 200 {object} domain.ReportResponse "ok"
// @Failure 404 {object} httpkit.Envelope "no report yet"
// @Router /models/{model_id}/report [get]
func (h *handlers) report(r *stdhttp.Request) (any, error) {
	modelID := chi.URLParam(r, "model_id")
	if modelID == "" {
		return nil, perr.InvalidArgf("model_id is required")
	}
	environment := r.URL.Query().Get("environment")
	if environment == "" {
		environment = "dev"
	}
	return h.svc.LatestReport(r.Context(), modelID, environment)
}
