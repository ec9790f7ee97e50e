package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/sentrydesk/internal/api/dto"
	"github.com/pratik-mahalle/sentrydesk/internal/api/middleware"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/incident"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/logger"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/utils"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/validator"
)

// IncidentHandler handles incident browsing and working
type IncidentHandler struct {
	service   incident.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewIncidentHandler creates a new incident handler
func NewIncidentHandler(service incident.Service, log *logger.Logger, val *validator.Validator) *IncidentHandler {
	return &IncidentHandler{service: service, logger: log, validator: val}
}

// List returns the actor's visible incidents with pagination and filtering
func (h *IncidentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	params := utils.ParsePaginationParams(r)

	filter := incident.Filter{
		Severity: r.URL.Query().Get("severity"),
		Priority: r.URL.Query().Get("priority"),
		Category: r.URL.Query().Get("category"),
		Status:   r.URL.Query().Get("status"),
	}

	incidents, total, err := h.service.List(r.Context(), actor, actor.TenantID, filter, params.PageSize, params.Offset)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to list incidents")
		return
	}

	dtos := make([]dto.IncidentDTO, len(incidents))
	for i, in := range incidents {
		dtos[i] = toIncidentDTO(in)
	}
	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dtos, params.Page, params.PageSize, total))
}

// Get returns a single incident
func (h *IncidentHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	in, err := h.service.GetByID(r.Context(), actor, actor.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to get incident")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, toIncidentDTO(in))
}

// UpdateStatus moves an incident between open, in_progress and closed
func (h *IncidentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	var req dto.UpdateIncidentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	in, err := h.service.UpdateStatus(r.Context(), actor, actor.TenantID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to update incident status")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, toIncidentDTO(in))
}

// Reassign hands an incident to another user
func (h *IncidentHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	var req dto.ReassignIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	in, err := h.service.Reassign(r.Context(), actor, actor.TenantID, chi.URLParam(r, "id"), req.AssigneeID)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to reassign incident")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, toIncidentDTO(in))
}

func toIncidentDTO(in *incident.Incident) dto.IncidentDTO {
	return dto.IncidentDTO{
		ID:            in.ID,
		Title:         in.Title,
		Description:   in.Description,
		Severity:      in.Severity,
		Priority:      in.Priority,
		Category:      in.Category,
		SourceAlertID: in.SourceAlertID,
		AssignedTo:    in.AssignedTo,
		Status:        in.Status,
		CreatedAt:     in.CreatedAt,
		UpdatedAt:     in.UpdatedAt,
	}
}
