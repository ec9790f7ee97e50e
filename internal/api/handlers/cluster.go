package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/sentrydesk/internal/api/dto"
	"github.com/pratik-mahalle/sentrydesk/internal/api/middleware"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/alert"
	"github.com/pratik-mahalle/sentrydesk/internal/pipeline"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/logger"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/utils"
	"github.com/pratik-mahalle/sentrydesk/internal/rbac"
)

// ClusterHandler exposes correlation clusters for hunting
type ClusterHandler struct {
	correlator *pipeline.Correlator
	alerts     alert.Service
	logger     *logger.Logger
}

// NewClusterHandler creates a new cluster handler
func NewClusterHandler(correlator *pipeline.Correlator, alerts alert.Service, log *logger.Logger) *ClusterHandler {
	return &ClusterHandler{correlator: correlator, alerts: alerts, logger: log}
}

// Sweep runs the correlation sweep for the actor's tenant on demand and
// returns the resulting clusters. Optional from/to query parameters
// (RFC 3339) override the configured window; the periodic sweeper does the
// same on a schedule with the default window.
func (h *ClusterHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	to := time.Now().UTC()
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.WriteError(w, errors.ValidationError("Invalid 'to' timestamp, want RFC 3339", nil))
			return
		}
		to = parsed.UTC()
	}

	var window time.Duration
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.WriteError(w, errors.ValidationError("Invalid 'from' timestamp, want RFC 3339", nil))
			return
		}
		from := parsed.UTC()
		if !from.Before(to) {
			utils.WriteError(w, errors.ValidationError("'from' must be earlier than 'to'", nil))
			return
		}
		window = to.Sub(from)
	}

	clusters, err := h.correlator.SweepWindow(r.Context(), actor.TenantID, to, window)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to run correlation sweep")
		return
	}

	dtos := make([]dto.ClusterDTO, len(clusters))
	for i, c := range clusters {
		dtos[i] = dto.ClusterDTO{
			CorrelationID:    c.CorrelationID,
			AlertIDs:         c.AlertIDs,
			SharedIndicators: c.SharedIndicators,
			Confidence:       c.Confidence,
			WindowStart:      c.WindowStart,
			WindowEnd:        c.WindowEnd,
		}
	}
	utils.WriteSuccess(w, http.StatusOK, dtos)
}

// Members returns the alerts stamped with a correlation id
func (h *ClusterHandler) Members(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	params := utils.ParsePaginationParams(r)

	filter := alert.Filter{CorrelationID: chi.URLParam(r, "id")}
	alerts, total, err := h.alerts.List(r.Context(), actor.TenantID, filter, params.PageSize, params.Offset)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to list cluster members")
		return
	}

	dtos := make([]dto.AlertDTO, 0, len(alerts))
	for _, a := range alerts {
		category := rbac.CategoryForClassification(a.Classification)
		if !rbac.CanAccess(actor.Role, category) {
			total--
			continue
		}
		dtos = append(dtos, toAlertDTO(a, category, nil))
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dtos, params.Page, params.PageSize, total))
}
