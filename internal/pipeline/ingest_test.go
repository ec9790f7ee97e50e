package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pratik-mahalle/sentrydesk/internal/assign"
	"github.com/pratik-mahalle/sentrydesk/internal/classifier"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/alert"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/intake"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/user"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/logger"
	"github.com/pratik-mahalle/sentrydesk/internal/testutil"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func edrRecord(receivedAt time.Time) *intake.Record {
	return &intake.Record{
		TenantID:     "tenant-1",
		SourceSystem: intake.SourceEDR,
		SourceID:     "evt-1",
		ReceivedAt:   receivedAt,
		EDR: &intake.EDRPayload{
			EventType: "malware_detected",
			Hostname:  "WS-0231",
			Serial:    "5CG90312XY",
			FileHash:  "abc123def456",
			Detail:    "Trojan quarantined",
		},
	}
}

func TestIngestor_CreateThenMerge(t *testing.T) {
	repo := testutil.NewMockAlertRepository()
	ing := NewIngestor(classifier.New(classifier.Config{}), repo, nil, time.Hour, testLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := ing.Process(ctx, edrRecord(now))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !first.Created {
		t.Error("first delivery should create an alert")
	}
	if first.SeenCount != 1 {
		t.Errorf("SeenCount = %d, want 1", first.SeenCount)
	}

	second, err := ing.Process(ctx, edrRecord(now.Add(time.Minute)))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if second.Created {
		t.Error("duplicate delivery should merge, not create")
	}
	if second.AlertID != first.AlertID {
		t.Errorf("merged into %s, want %s", second.AlertID, first.AlertID)
	}
	if second.SeenCount != 2 {
		t.Errorf("SeenCount = %d, want 2", second.SeenCount)
	}

	if len(repo.Alerts) != 1 {
		t.Fatalf("stored alerts = %d, want 1", len(repo.Alerts))
	}
	stored := repo.Alerts[first.AlertID]
	if !stored.LastSeenAt.Equal(now.Add(time.Minute)) {
		t.Errorf("LastSeenAt = %v, want advanced to second delivery", stored.LastSeenAt)
	}
}

func TestIngestor_WindowExpiryCreatesNew(t *testing.T) {
	repo := testutil.NewMockAlertRepository()
	ing := NewIngestor(classifier.New(classifier.Config{}), repo, nil, time.Hour, testLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := ing.Process(ctx, edrRecord(now.Add(-2*time.Hour)))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	second, err := ing.Process(ctx, edrRecord(now))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !second.Created {
		t.Error("delivery outside the dedup window should create a new alert")
	}
	if second.AlertID == first.AlertID {
		t.Error("stale alert must not absorb a delivery outside the window")
	}
}

func TestIngestor_TerminalAlertNotMerged(t *testing.T) {
	repo := testutil.NewMockAlertRepository()
	ing := NewIngestor(classifier.New(classifier.Config{}), repo, nil, time.Hour, testLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	first, _ := ing.Process(ctx, edrRecord(now))
	repo.Alerts[first.AlertID].Status = alert.StatusEscalated

	second, err := ing.Process(ctx, edrRecord(now.Add(time.Minute)))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !second.Created {
		t.Error("terminal alerts must not absorb new deliveries")
	}
}

func TestIngestor_MergesIndicatorsAndMetadata(t *testing.T) {
	repo := testutil.NewMockAlertRepository()
	ing := NewIngestor(classifier.New(classifier.Config{}), repo, nil, time.Hour, testLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	first, _ := ing.Process(ctx, edrRecord(now))

	rec := edrRecord(now.Add(time.Minute))
	rec.EDR.FileHash = "feedbeef0011"
	rec.EDR.Username = "jsmith"
	if _, err := ing.Process(ctx, rec); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	stored := repo.Alerts[first.AlertID]
	want := map[string]bool{
		"hash:abc123def456": true,
		"hash:feedbeef0011": true,
		"user:jsmith":       true,
	}
	if len(stored.Indicators) != len(want) {
		t.Fatalf("Indicators = %v, want %d entries", stored.Indicators, len(want))
	}
	for _, in := range stored.Indicators {
		if !want[in] {
			t.Errorf("unexpected indicator %q", in)
		}
	}
}

func TestIngestor_ConcurrentDuplicates(t *testing.T) {
	repo := testutil.NewMockAlertRepository()
	ing := NewIngestor(classifier.New(classifier.Config{}), repo, nil, time.Hour, testLogger())
	ctx := context.Background()
	now := time.Now().UTC()

	const workers = 16
	var wg sync.WaitGroup
	created := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := ing.Process(ctx, edrRecord(now))
			if err != nil {
				t.Errorf("Process() error = %v", err)
				return
			}
			created <- res.Created
		}()
	}
	wg.Wait()
	close(created)

	var createdCount int
	for c := range created {
		if c {
			createdCount++
		}
	}

	if createdCount != 1 {
		t.Errorf("created %d alerts, want exactly 1", createdCount)
	}
	if len(repo.Alerts) != 1 {
		t.Fatalf("stored alerts = %d, want 1", len(repo.Alerts))
	}
	for _, a := range repo.Alerts {
		if a.SeenCount != workers {
			t.Errorf("SeenCount = %d, want %d", a.SeenCount, workers)
		}
	}
}

func TestIngestor_AssignsNewAlert(t *testing.T) {
	repo := testutil.NewMockAlertRepository()
	users := testutil.NewMockUserRepository()
	ctx := context.Background()

	analyst := &user.User{Email: "ana@corp.test", Role: user.RoleSecurityAnalyst, TenantID: "tenant-1"}
	if err := users.Create(ctx, analyst); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	scheduler := assign.NewScheduler(users, testLogger())
	ing := NewIngestor(classifier.New(classifier.Config{}), repo, scheduler, time.Hour, testLogger())

	res, err := ing.Process(ctx, edrRecord(time.Now().UTC()))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	stored := repo.Alerts[res.AlertID]
	if stored.AssignedTo != analyst.ID {
		t.Errorf("AssignedTo = %d, want %d", stored.AssignedTo, analyst.ID)
	}
	if stored.Status != alert.StatusAssigned {
		t.Errorf("Status = %q, want %q", stored.Status, alert.StatusAssigned)
	}
}

func TestIngestor_NoAnalystLeavesAlertNew(t *testing.T) {
	repo := testutil.NewMockAlertRepository()
	users := testutil.NewMockUserRepository()
	scheduler := assign.NewScheduler(users, testLogger())
	ing := NewIngestor(classifier.New(classifier.Config{}), repo, scheduler, time.Hour, testLogger())

	res, err := ing.Process(context.Background(), edrRecord(time.Now().UTC()))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	stored := repo.Alerts[res.AlertID]
	if stored.AssignedTo != 0 {
		t.Errorf("AssignedTo = %d, want unassigned", stored.AssignedTo)
	}
	if stored.Status != alert.StatusNew {
		t.Errorf("Status = %q, want %q", stored.Status, alert.StatusNew)
	}
}
