package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/pratik-mahalle/sentrydesk/internal/domain/alert"
	"github.com/pratik-mahalle/sentrydesk/internal/testutil"
)

func seedAlert(t *testing.T, repo *testutil.MockAlertRepository, id string, seenAt time.Time, indicators ...string) {
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

func TestCorrelator_Sweep(t *testing.T) {
	repo := testutil.NewMockAlertRepository()
	corr := NewCorrelator(repo, 4*time.Hour, testLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	// a1 and a2 share an attacker ip; a3 chains to a2 through a user
	// indicator; a4 shares nothing.
	seedAlert(t, repo, "a1", now.Add(-30*time.Minute), "ip:203.0.113.9", "user:root")
	seedAlert(t, repo, "a2", now.Add(-20*time.Minute), "ip:203.0.113.9", "user:svc")
	seedAlert(t, repo, "a3", now.Add(-10*time.Minute), "user:svc", "domain:evil.test")
	seedAlert(t, repo, "a4", now.Add(-5*time.Minute), "ip:198.51.100.1")

	clusters, err := corr.Sweep(ctx, "tenant-1", now)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if len(clusters) != 1 {
		t.Fatalf("clusters = %d, want 1", len(clusters))
	}

	cl := clusters[0]
	wantMembers := []string{"a1", "a2", "a3"}
	if len(cl.AlertIDs) != len(wantMembers) {
		t.Fatalf("AlertIDs = %v, want %v", cl.AlertIDs, wantMembers)
	}
	for i, id := range wantMembers {
		if cl.AlertIDs[i] != id {
			t.Errorf("AlertIDs[%d] = %q, want %q", i, cl.AlertIDs[i], id)
		}
	}

	// Only indicators on two or more member alerts count as shared.
	wantShared := []string{"ip:203.0.113.9", "user:svc"}
	if len(cl.SharedIndicators) != len(wantShared) {
		t.Fatalf("SharedIndicators = %v, want %v", cl.SharedIndicators, wantShared)
	}
	for i, in := range wantShared {
		if cl.SharedIndicators[i] != in {
			t.Errorf("SharedIndicators[%d] = %q, want %q", i, cl.SharedIndicators[i], in)
		}
	}

	if cl.Confidence <= 0 || cl.Confidence > 1 {
		t.Errorf("Confidence = %f, want in (0, 1]", cl.Confidence)
	}
	if !cl.WindowStart.Equal(now.Add(-30 * time.Minute)) {
		t.Errorf("WindowStart = %v, want first member's first seen", cl.WindowStart)
	}
	if !cl.WindowEnd.Equal(now.Add(-10 * time.Minute)) {
		t.Errorf("WindowEnd = %v, want last member's last seen", cl.WindowEnd)
	}

	// Members were stamped, the singleton was not.
	for _, id := range wantMembers {
		if repo.Alerts[id].CorrelationID != cl.CorrelationID {
			t.Errorf("alert %s CorrelationID = %q, want %q", id, repo.Alerts[id].CorrelationID, cl.CorrelationID)
		}
	}
	if repo.Alerts["a4"].CorrelationID != "" {
		t.Error("singleton alert must not receive a correlation id")
	}
}

func TestCorrelator_ExcludesTerminalAndStale(t *testing.T) {
	repo := testutil.NewMockAlertRepository()
	corr := NewCorrelator(repo, time.Hour, testLogger())
	now := time.Now().UTC()

	seedAlert(t, repo, "open", now.Add(-10*time.Minute), "ip:203.0.113.9")
	seedAlert(t, repo, "stale", now.Add(-2*time.Hour), "ip:203.0.113.9")
	seedAlert(t, repo, "closed", now.Add(-5*time.Minute), "ip:203.0.113.9")
	repo.Alerts["closed"].Status = alert.StatusResolvedBenign

	clusters, err := corr.Sweep(context.Background(), "tenant-1", now)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(clusters) != 0 {
		t.Errorf("clusters = %d, want 0 (only one eligible alert)", len(clusters))
	}
}

func TestCorrelator_SweepWindowOverride(t *testing.T) {
	repo := testutil.NewMockAlertRepository()
	corr := NewCorrelator(repo, time.Hour, testLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	seedAlert(t, repo, "old", now.Add(-3*time.Hour), "ip:203.0.113.9")
	seedAlert(t, repo, "recent", now.Add(-30*time.Minute), "ip:203.0.113.9")

	// Default window misses the older alert, so nothing clusters.
	clusters, err := corr.Sweep(ctx, "tenant-1", now)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(clusters) != 0 {
		t.Fatalf("clusters = %d, want 0 with default window", len(clusters))
	}

	// Widening the window pulls the older alert back into scope.
	clusters, err = corr.SweepWindow(ctx, "tenant-1", now, 4*time.Hour)
	if err != nil {
		t.Fatalf("SweepWindow() error = %v", err)
	}
	if len(clusters) != 1 {
		t.Fatalf("clusters = %d, want 1 with 4h window", len(clusters))
	}
	if got := len(clusters[0].AlertIDs); got != 2 {
		t.Errorf("cluster members = %d, want 2", got)
	}

	// Zero falls back to the configured one-hour window, which again only
	// covers the recent alert.
	clusters, err = corr.SweepWindow(ctx, "tenant-1", now, 0)
	if err != nil {
		t.Fatalf("SweepWindow() error = %v", err)
	}
	if len(clusters) != 0 {
		t.Errorf("clusters = %d, want 0 when zero falls back to the configured window", len(clusters))
	}
}

func TestConfidence(t *testing.T) {
	window := 4 * time.Hour

	tests := []struct {
		name   string
		shared int
		span   time.Duration
		want   float64
	}{
		{name: "tight cluster with strong overlap", shared: 3, span: 0, want: 1.0},
		{name: "overlap capped at three indicators", shared: 9, span: 0, want: 1.0},
		{name: "one indicator instant", shared: 1, span: 0, want: 0.6},
		{name: "one indicator full window", shared: 1, span: window, want: 0.2},
		{name: "span beyond window floors proximity", shared: 3, span: 8 * time.Hour, want: 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := confidence(tt.shared, tt.span, window)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("confidence(%d, %v) = %f, want %f", tt.shared, tt.span, got, tt.want)
			}
		})
	}
}
