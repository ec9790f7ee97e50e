package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/sentrydesk/internal/api/dto"
	"github.com/pratik-mahalle/sentrydesk/internal/api/handlers"
	"github.com/pratik-mahalle/sentrydesk/internal/api/middleware"
	"github.com/pratik-mahalle/sentrydesk/internal/assign"
	"github.com/pratik-mahalle/sentrydesk/internal/auth"
	"github.com/pratik-mahalle/sentrydesk/internal/classifier"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/alert"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/incident"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/playbook"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/user"
	"github.com/pratik-mahalle/sentrydesk/internal/escalation"
	"github.com/pratik-mahalle/sentrydesk/internal/pipeline"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/logger"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/validator"
	"github.com/pratik-mahalle/sentrydesk/internal/repository/postgres"
	"github.com/pratik-mahalle/sentrydesk/internal/testutil"
)

// TestTriageFlow walks an EDR event through the whole pipeline:
// ingest -> dedup merge -> investigate -> escalate -> incident visible.
func TestTriageFlow(t *testing.T) {
	db := testutil.NewTestDB(t)

	log := logger.New(logger.Config{Level: "error", Format: "json"})
	val := validator.New()

	alertRepo := postgres.NewAlertRepository(db)
	incidentRepo := postgres.NewIncidentRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	userRepo := postgres.NewUserRepository(db)
	playbookRepo := postgres.NewPlaybookRepository(db)

	alertService := alert.NewService(alertRepo)
	incidentService := incident.NewService(incidentRepo, userRepo)
	playbookService := playbook.NewService(playbookRepo)

	scheduler := assign.NewScheduler(userRepo, log)
	clf := classifier.New(classifier.Config{})
	ingestor := pipeline.NewIngestor(clf, alertRepo, scheduler, time.Hour, log)
	machine := escalation.NewMachine(alertRepo, incidentRepo, auditRepo, scheduler, 10, log)

	alertHandler := handlers.NewAlertHandler(alertService, playbookService, ingestor, machine, log, val)
	incidentHandler := handlers.NewIncidentHandler(incidentService, log, val)

	analyst := &user.User{
		Email:        "analyst@corp.test",
		PasswordHash: "$2a$10$notarealhash",
		Role:         user.RoleSecurityAnalyst,
		TenantID:     "tenant-1",
	}
	if err := userRepo.Create(context.Background(), analyst); err != nil {
		t.Fatalf("Failed to seed analyst: %v", err)
	}

	actor := auth.Actor{UserID: analyst.ID, Role: user.RoleSecurityAnalyst, TenantID: "tenant-1"}
	withActor := func(r *http.Request) *http.Request {
		return r.WithContext(context.WithValue(r.Context(), middleware.ActorKey, actor))
	}
	withAlertID := func(r *http.Request, id string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}

	ingestBody := func() []byte {
		body, _ := json.Marshal(dto.IngestRecordRequest{
			SourceSystem: "edr",
			SourceID:     "evt-9001",
			EDR: &dto.EDRPayloadDTO{
				EventType: "malware_detected",
				Hostname:  "WS-0231",
				Serial:    "5CG90312XY",
				Process:   "svchost.exe",
				FileHash:  "abc123def456",
				Username:  "jdoe",
			},
		})
		return body
	}

	var alertID string

	t.Run("Ingest Creates Alert", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/ingest", bytes.NewBuffer(ingestBody()))
		req.Header.Set("Content-Type", "application/json")
		req = withActor(req)

		rr := httptest.NewRecorder()
		alertHandler.Ingest(rr, req)

		if rr.Code != http.StatusCreated {
			t.Fatalf("Ingest failed with status %v, body: %s", rr.Code, rr.Body.String())
		}

		var response struct {
			Data dto.IngestResultDTO `json:"data"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if !response.Data.Created {
			t.Error("Expected a freshly created alert")
		}
		alertID = response.Data.AlertID
	})

	t.Run("Duplicate Ingest Merges", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/ingest", bytes.NewBuffer(ingestBody()))
		req.Header.Set("Content-Type", "application/json")
		req = withActor(req)

		rr := httptest.NewRecorder()
		alertHandler.Ingest(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Duplicate ingest returned status %v, body: %s", rr.Code, rr.Body.String())
		}

		var response struct {
			Data dto.IngestResultDTO `json:"data"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response.Data.Created {
			t.Error("Duplicate should have merged, not created")
		}
		if response.Data.AlertID != alertID {
			t.Errorf("Merged into %s, want %s", response.Data.AlertID, alertID)
		}
		if response.Data.SeenCount != 2 {
			t.Errorf("SeenCount = %d, want 2", response.Data.SeenCount)
		}
	})

	t.Run("List Shows One Alert", func(t *testing.T) {
		req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil))

		rr := httptest.NewRecorder()
		alertHandler.List(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("List failed with status %v", rr.Code)
		}

		var response struct {
			Data struct {
				Data       []dto.AlertDTO `json:"data"`
				TotalItems int64          `json:"total_items"`
			} `json:"data"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response.Data.TotalItems != 1 || len(response.Data.Data) != 1 {
			t.Fatalf("Expected exactly one alert, got %d", response.Data.TotalItems)
		}
		if response.Data.Data[0].AssignedTo != analyst.ID {
			t.Errorf("AssignedTo = %d, want the seeded analyst", response.Data.Data[0].AssignedTo)
		}
	})

	t.Run("Investigate", func(t *testing.T) {
		req := withAlertID(withActor(httptest.NewRequest(http.MethodPost, "/api/v1/alerts/"+alertID+"/investigate", nil)), alertID)

		rr := httptest.NewRecorder()
		alertHandler.Investigate(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Investigate failed with status %v, body: %s", rr.Code, rr.Body.String())
		}
	})

	var incidentID string

	t.Run("Escalate Creates Incident", func(t *testing.T) {
		body, _ := json.Marshal(dto.EscalateAlertRequest{Note: "confirmed malicious hash"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/"+alertID+"/escalate", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req = withAlertID(withActor(req), alertID)

		rr := httptest.NewRecorder()
		alertHandler.Escalate(rr, req)

		if rr.Code != http.StatusCreated {
			t.Fatalf("Escalate failed with status %v, body: %s", rr.Code, rr.Body.String())
		}

		var response struct {
			Data dto.IncidentDTO `json:"data"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response.Data.SourceAlertID != alertID {
			t.Errorf("SourceAlertID = %s, want %s", response.Data.SourceAlertID, alertID)
		}
		incidentID = response.Data.ID
	})

	t.Run("Escalated Alert Is Frozen", func(t *testing.T) {
		body, _ := json.Marshal(dto.ResolveAlertRequest{Outcome: "benign", Notes: "attempting to resolve anyway"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/"+alertID+"/resolve", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req = withAlertID(withActor(req), alertID)

		rr := httptest.NewRecorder()
		alertHandler.Resolve(rr, req)

		if rr.Code != http.StatusConflict {
			t.Errorf("Resolve after escalation returned %v, want %v", rr.Code, http.StatusConflict)
		}
	})

	t.Run("Incident Visible And Assigned", func(t *testing.T) {
		req := withAlertID(withActor(httptest.NewRequest(http.MethodGet, "/api/v1/incidents/"+incidentID, nil)), incidentID)

		rr := httptest.NewRecorder()
		incidentHandler.Get(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Get incident failed with status %v, body: %s", rr.Code, rr.Body.String())
		}

		var response struct {
			Data dto.IncidentDTO `json:"data"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response.Data.AssignedTo != analyst.ID {
			t.Errorf("Incident AssignedTo = %d, want the seeded analyst", response.Data.AssignedTo)
		}
		if response.Data.Status != incident.StatusOpen {
			t.Errorf("Incident status = %s, want open", response.Data.Status)
		}
	})

	t.Run("Audit Trail Recorded", func(t *testing.T) {
		req := withAlertID(withActor(httptest.NewRequest(http.MethodGet, "/api/v1/alerts/"+alertID+"/history", nil)), alertID)

		rr := httptest.NewRecorder()
		alertHandler.History(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("History failed with status %v", rr.Code)
		}

		var response struct {
			Data []dto.TransitionDTO `json:"data"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(response.Data) != 2 {
			t.Fatalf("Audit entries = %d, want investigate + escalate", len(response.Data))
		}
		if response.Data[1].ToStatus != alert.StatusEscalated {
			t.Errorf("Last transition = %s, want escalated", response.Data[1].ToStatus)
		}
	})
}
