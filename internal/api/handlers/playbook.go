package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/sentrydesk/internal/api/dto"
	"github.com/pratik-mahalle/sentrydesk/internal/api/middleware"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/playbook"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/logger"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/utils"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/validator"
)

// PlaybookHandler handles playbook authoring and lookup
type PlaybookHandler struct {
	service   playbook.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewPlaybookHandler creates a new playbook handler
func NewPlaybookHandler(service playbook.Service, log *logger.Logger, val *validator.Validator) *PlaybookHandler {
	return &PlaybookHandler{service: service, logger: log, validator: val}
}

// List returns all playbooks in the actor's tenant
func (h *PlaybookHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	playbooks, err := h.service.List(r.Context(), actor.TenantID)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to list playbooks")
		return
	}

	dtos := make([]dto.PlaybookDTO, len(playbooks))
	for i, p := range playbooks {
		dtos[i] = toPlaybookDTO(p, nil)
	}
	utils.WriteSuccess(w, http.StatusOK, dtos)
}

// Get returns a playbook with its classification links
func (h *PlaybookHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	p, links, err := h.service.Get(r.Context(), actor.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to get playbook")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, toPlaybookDTO(p, links))
}

// Create creates a new draft playbook
func (h *PlaybookHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	var req dto.CreatePlaybookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	p := &playbook.Playbook{
		Name:     req.Name,
		Purpose:  req.Purpose,
		TenantID: actor.TenantID,
		Guidance: playbook.Guidance{
			EscalateToIncident:   req.Guidance.EscalateToIncident,
			ResolveBenign:        req.Guidance.ResolveBenign,
			ResolveFalsePositive: req.Guidance.ResolveFalsePositive,
		},
	}

	id, err := h.service.Create(r.Context(), actor, p, toLinks(req.Links))
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to create playbook")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"playbook_id": id,
		"name":        req.Name,
	}).Info("Playbook created")

	utils.WriteSuccessWithMessage(w, http.StatusCreated, "Playbook created", map[string]string{"id": id})
}

// Update edits a playbook's guidance and links
func (h *PlaybookHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	var req dto.UpdatePlaybookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	p := &playbook.Playbook{
		ID:       chi.URLParam(r, "id"),
		TenantID: actor.TenantID,
		Name:     req.Name,
		Purpose:  req.Purpose,
		Guidance: playbook.Guidance{
			EscalateToIncident:   req.Guidance.EscalateToIncident,
			ResolveBenign:        req.Guidance.ResolveBenign,
			ResolveFalsePositive: req.Guidance.ResolveFalsePositive,
		},
	}

	if err := h.service.Update(r.Context(), actor, p, toLinks(req.Links)); err != nil {
		utils.WriteServiceError(w, err, "Failed to update playbook")
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Playbook updated", nil)
}

// Activate transitions a playbook from draft to active
func (h *PlaybookHandler) Activate(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	if err := h.service.Activate(r.Context(), actor, actor.TenantID, chi.URLParam(r, "id")); err != nil {
		utils.WriteServiceError(w, err, "Failed to activate playbook")
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Playbook activated", nil)
}

// Retire transitions a playbook to retired
func (h *PlaybookHandler) Retire(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	if err := h.service.Retire(r.Context(), actor, actor.TenantID, chi.URLParam(r, "id")); err != nil {
		utils.WriteServiceError(w, err, "Failed to retire playbook")
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Playbook retired", nil)
}

// Delete removes a non-active playbook
func (h *PlaybookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	if err := h.service.Delete(r.Context(), actor, actor.TenantID, chi.URLParam(r, "id")); err != nil {
		utils.WriteServiceError(w, err, "Failed to delete playbook")
		return
	}
	utils.WriteSuccessWithMessage(w, http.StatusOK, "Playbook deleted", nil)
}

func toLinks(links []dto.ClassificationLinkDTO) []*playbook.ClassificationLink {
	out := make([]*playbook.ClassificationLink, len(links))
	for i, l := range links {
		out[i] = &playbook.ClassificationLink{
			Classification: l.Classification,
			IsPrimary:      l.IsPrimary,
		}
	}
	return out
}

func toPlaybookDTO(p *playbook.Playbook, links []*playbook.ClassificationLink) dto.PlaybookDTO {
	d := dto.PlaybookDTO{
		ID:      p.ID,
		Name:    p.Name,
		Version: p.Version,
		Status:  p.Status,
		Purpose: p.Purpose,
		Guidance: dto.PlaybookGuidanceDTO{
			EscalateToIncident:   p.Guidance.EscalateToIncident,
			ResolveBenign:        p.Guidance.ResolveBenign,
			ResolveFalsePositive: p.Guidance.ResolveFalsePositive,
		},
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	for _, l := range links {
		d.Links = append(d.Links, dto.ClassificationLinkDTO{
			Classification: l.Classification,
			IsPrimary:      l.IsPrimary,
		})
	}
	return d
}
