package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pratik-mahalle/sentrydesk/internal/api/dto"
	"github.com/pratik-mahalle/sentrydesk/internal/api/middleware"
	"github.com/pratik-mahalle/sentrydesk/internal/auth"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/alert"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/user"
	"github.com/pratik-mahalle/sentrydesk/internal/pipeline"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/logger"
	"github.com/pratik-mahalle/sentrydesk/internal/testutil"
)

func clusterFixture(t *testing.T) (*ClusterHandler, *testutil.MockAlertRepository) {
	t.Helper()
	repo := testutil.NewMockAlertRepository()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	corr := pipeline.NewCorrelator(repo, time.Hour, log)
	return NewClusterHandler(corr, alert.NewService(repo), log), repo
}

func seedClusterAlert(t *testing.T, repo *testutil.MockAlertRepository, id string, seenAt time.Time, indicators ...string) {
	t.Helper()
	err := repo.Create(context.Background(), &alert.Alert{
		ID:           id,
		TenantID:     "tenant-1",
		SourceSystem: alert.SourceSIEM,
		AlertType:    "brute_force",
		Severity:     alert.SeverityHigh,
		Status:       alert.StatusNew,
		Indicators:   indicators,
		FirstSeenAt:  seenAt,
		LastSeenAt:   seenAt,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func sweepRequest(rawQuery string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/clusters/sweep?"+rawQuery, nil)
	actor := auth.Actor{UserID: 7, Role: user.RoleSecurityAnalyst, TenantID: "tenant-1"}
	return req.WithContext(context.WithValue(req.Context(), middleware.ActorKey, actor))
}

func decodeClusters(t *testing.T, rec *httptest.ResponseRecorder) []dto.ClusterDTO {
	t.Helper()
	var body struct {
		Success bool             `json:"success"`
		Data    []dto.ClusterDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body.Data
}

func TestClusterHandler_SweepTimeRange(t *testing.T) {
	h, repo := clusterFixture(t)
	now := time.Now().UTC()

	// Both alerts share an indicator but the older one sits outside the
	// configured one-hour window.
	seedClusterAlert(t, repo, "old", now.Add(-3*time.Hour), "ip:203.0.113.9")
	seedClusterAlert(t, repo, "recent", now.Add(-30*time.Minute), "ip:203.0.113.9")

	rec := httptest.NewRecorder()
	h.Sweep(rec, sweepRequest(""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := decodeClusters(t, rec); len(got) != 0 {
		t.Errorf("clusters = %d, want 0 with the default window", len(got))
	}

	from := now.Add(-4 * time.Hour).Format(time.RFC3339)
	to := now.Format(time.RFC3339)
	rec = httptest.NewRecorder()
	h.Sweep(rec, sweepRequest("from="+from+"&to="+to))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	clusters := decodeClusters(t, rec)
	if len(clusters) != 1 {
		t.Fatalf("clusters = %d, want 1 with an explicit 4h range", len(clusters))
	}
	if got := len(clusters[0].AlertIDs); got != 2 {
		t.Errorf("cluster members = %d, want 2", got)
	}
}

func TestClusterHandler_SweepRejectsBadRange(t *testing.T) {
	h, _ := clusterFixture(t)
	now := time.Now().UTC()

	tests := []struct {
		name  string
		query string
	}{
		{name: "garbage from", query: "from=yesterday"},
		{name: "garbage to", query: "to=later"},
		{
			name: "from after to",
			query: "from=" + now.Format(time.RFC3339) +
				"&to=" + now.Add(-time.Hour).Format(time.RFC3339),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Sweep(rec, sweepRequest(tt.query))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}
