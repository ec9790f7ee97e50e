package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/sentrydesk/internal/api/dto"
	"github.com/pratik-mahalle/sentrydesk/internal/api/middleware"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/alert"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/intake"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/playbook"
	"github.com/pratik-mahalle/sentrydesk/internal/escalation"
	"github.com/pratik-mahalle/sentrydesk/internal/pipeline"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/logger"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/utils"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/validator"
	"github.com/pratik-mahalle/sentrydesk/internal/rbac"
)

// AlertHandler handles alert browsing, manual intake and triage actions
type AlertHandler struct {
	service   alert.Service
	playbooks playbook.Service
	ingestor  *pipeline.Ingestor
	machine   *escalation.Machine
	logger    *logger.Logger
	validator *validator.Validator
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(
	service alert.Service,
	playbooks playbook.Service,
	ingestor *pipeline.Ingestor,
	machine *escalation.Machine,
	log *logger.Logger,
	val *validator.Validator,
) *AlertHandler {
	return &AlertHandler{
		service:   service,
		playbooks: playbooks,
		ingestor:  ingestor,
		machine:   machine,
		logger:    log,
		validator: val,
	}
}

// List returns the actor's visible alerts with pagination and filtering
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)
	params := utils.ParsePaginationParams(r)

	filter := alert.Filter{
		SourceSystem:   r.URL.Query().Get("source"),
		AlertType:      r.URL.Query().Get("type"),
		Classification: r.URL.Query().Get("classification"),
		Severity:       r.URL.Query().Get("severity"),
		Status:         r.URL.Query().Get("status"),
	}

	alerts, total, err := h.service.List(r.Context(), actor.TenantID, filter, params.PageSize, params.Offset)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to list alerts")
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

// Get returns a single alert with its playbook guidance
func (h *AlertHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	a, err := h.service.GetByID(r.Context(), actor.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to get alert")
		return
	}

	category := rbac.CategoryForClassification(a.Classification)
	if !rbac.CanAccess(actor.Role, category) {
		utils.WriteError(w, errors.Permission("Alert is outside your assigned categories"))
		return
	}

	var guidance *dto.GuidanceDTO
	if pb, err := h.playbooks.Resolve(r.Context(), actor.TenantID, a.Classification); err == nil && pb != nil {
		guidance = &dto.GuidanceDTO{
			PlaybookID:           pb.ID,
			PlaybookName:         pb.Name,
			EscalateToIncident:   pb.Guidance.EscalateToIncident,
			ResolveBenign:        pb.Guidance.ResolveBenign,
			ResolveFalsePositive: pb.Guidance.ResolveFalsePositive,
		}
	}

	utils.WriteSuccess(w, http.StatusOK, toAlertDTO(a, category, guidance))
}

// GetSummary returns alert counts by status
func (h *AlertHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	summary, err := h.service.GetSummary(r.Context(), actor.TenantID)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to get alert summary")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, summary)
}

// History returns the transition trail of an alert
func (h *AlertHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	entries, err := h.machine.History(r.Context(), actor, actor.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to get alert history")
		return
	}

	dtos := make([]dto.TransitionDTO, len(entries))
	for i, e := range entries {
		dtos[i] = dto.TransitionDTO{
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			ActorID:    e.ActorID,
			Note:       e.Note,
			At:         e.CreatedAt,
		}
	}
	utils.WriteSuccess(w, http.StatusOK, dtos)
}

// Ingest accepts a manually submitted intake record
func (h *AlertHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	var req dto.IngestRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	rec, err := toIntakeRecord(actor.TenantID, &req)
	if err != nil {
		utils.WriteServiceError(w, err, "Invalid intake record")
		return
	}

	result, err := h.ingestor.Process(r.Context(), rec)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to ingest record")
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	utils.WriteSuccess(w, status, dto.IngestResultDTO{
		AlertID:   result.AlertID,
		Created:   result.Created,
		SeenCount: result.SeenCount,
	})
}

// Investigate moves an alert into the investigating state
func (h *AlertHandler) Investigate(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	a, err := h.machine.StartInvestigation(r.Context(), actor, actor.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to start investigation")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, toAlertDTO(a, rbac.CategoryForClassification(a.Classification), nil))
}

// Resolve closes an alert with a benign or false positive outcome
func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	var req dto.ResolveAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, errors.BadRequest("Invalid request body"))
		return
	}
	if validationErrs := h.validator.Validate(req); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return
	}

	a, err := h.machine.Resolve(r.Context(), actor, actor.TenantID, chi.URLParam(r, "id"), req.Outcome, req.Notes)
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to resolve alert")
		return
	}
	utils.WriteSuccess(w, http.StatusOK, toAlertDTO(a, rbac.CategoryForClassification(a.Classification), nil))
}

// Escalate promotes an alert into an incident
func (h *AlertHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetActor(r)

	var req dto.EscalateAlertRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.WriteError(w, errors.BadRequest("Invalid request body"))
			return
		}
	}

	in, err := h.machine.Escalate(r.Context(), actor, actor.TenantID, chi.URLParam(r, "id"), escalation.EscalateOptions{
		Title:       req.IncidentTitle,
		Description: req.IncidentDescription,
		Note:        req.Note,
	})
	if err != nil {
		utils.WriteServiceError(w, err, "Failed to escalate alert")
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, toIncidentDTO(in))
}

func toAlertDTO(a *alert.Alert, category string, guidance *dto.GuidanceDTO) dto.AlertDTO {
	return dto.AlertDTO{
		ID:               a.ID,
		SourceSystem:     a.SourceSystem,
		AlertType:        a.AlertType,
		Classification:   a.Classification,
		Category:         category,
		Severity:         a.Severity,
		Title:            a.Title,
		Description:      a.Description,
		Metadata:         a.Metadata,
		DeviceIdentifier: a.DeviceIdentifier,
		Indicators:       a.Indicators,
		SeenCount:        a.SeenCount,
		CorrelationID:    a.CorrelationID,
		Status:           a.Status,
		AssignedTo:       a.AssignedTo,
		Resolution:       a.Resolution,
		ResolutionNotes:  a.ResolutionNotes,
		IncidentID:       a.IncidentID,
		FirstSeenAt:      a.FirstSeenAt,
		LastSeenAt:       a.LastSeenAt,
		Guidance:         guidance,
	}
}

func toIntakeRecord(tenantID string, req *dto.IngestRecordRequest) (*intake.Record, error) {
	now := time.Now().UTC()
	detected := now
	if req.DetectedAt != nil {
		detected = req.DetectedAt.UTC()
	}

	rec := &intake.Record{
		TenantID:     tenantID,
		SourceSystem: req.SourceSystem,
		SourceID:     req.SourceID,
		ReceivedAt:   now,
		DetectedAt:   detected,
	}

	switch req.SourceSystem {
	case intake.SourceEmail:
		if req.Email == nil {
			return nil, errors.ValidationError("Missing email payload", nil)
		}
		rec.Email = &intake.EmailPayload{
			From:    req.Email.From,
			Subject: req.Email.Subject,
			Body:    req.Email.Body,
		}
	case intake.SourceEDR:
		if req.EDR == nil {
			return nil, errors.ValidationError("Missing edr payload", nil)
		}
		rec.EDR = &intake.EDRPayload{
			EventType: req.EDR.EventType,
			Severity:  req.EDR.Severity,
			Hostname:  req.EDR.Hostname,
			Serial:    req.EDR.Serial,
			Process:   req.EDR.Process,
			FileHash:  req.EDR.FileHash,
			Username:  req.EDR.Username,
			Detail:    req.EDR.Detail,
			Fields:    req.EDR.Fields,
		}
	case intake.SourceFirewall:
		if req.Firewall == nil {
			return nil, errors.ValidationError("Missing firewall payload", nil)
		}
		rec.Firewall = &intake.FirewallPayload{
			EventType: req.Firewall.EventType,
			Severity:  req.Firewall.Severity,
			DeviceIP:  req.Firewall.DeviceIP,
			SourceIP:  req.Firewall.SourceIP,
			DestIP:    req.Firewall.DestIP,
			Rule:      req.Firewall.Rule,
			Message:   req.Firewall.Message,
			Fields:    req.Firewall.Fields,
		}
	case intake.SourceSIEM:
		if req.SIEM == nil {
			return nil, errors.ValidationError("Missing siem payload", nil)
		}
		rec.SIEM = &intake.SIEMPayload{
			RuleName:  req.SIEM.RuleName,
			Severity:  req.SIEM.Severity,
			Entity:    req.SIEM.Entity,
			SourceIPs: req.SIEM.SourceIPs,
			Users:     req.SIEM.Users,
			Domains:   req.SIEM.Domains,
			Hashes:    req.SIEM.Hashes,
			Summary:   req.SIEM.Summary,
			Fields:    req.SIEM.Fields,
		}
	}

	return rec, nil
}
