package connector

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pratik-mahalle/sentrydesk/internal/classifier"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/intake"
	"github.com/pratik-mahalle/sentrydesk/internal/pipeline"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/logger"
	"github.com/pratik-mahalle/sentrydesk/internal/testutil"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

// fakeConnector counts polls and either delivers one fresh record per poll
// or fails every time.
type fakeConnector struct {
	name string
	fail bool

	mu    sync.Mutex
	polls int
}

func (f *fakeConnector) Name() string                                { return f.name }
func (f *fakeConnector) Initialize(settings map[string]string) error { return nil }
func (f *fakeConnector) TestConnection(ctx context.Context) error    { return nil }

func (f *fakeConnector) Poll(ctx context.Context, since time.Time) ([]*intake.Record, error) {
	f.mu.Lock()
	f.polls++
	n := f.polls
	f.mu.Unlock()

	if f.fail {
		return nil, errors.UpstreamError(f.name, fmt.Errorf("connection refused"))
	}
	return []*intake.Record{{
		TenantID:     "tenant-1",
		SourceSystem: intake.SourceEDR,
		SourceID:     fmt.Sprintf("%s-evt-%d", f.name, n),
		ReceivedAt:   time.Now().UTC(),
		EDR: &intake.EDRPayload{
			EventType: "malware_detected",
			Hostname:  fmt.Sprintf("WS-%04d", n),
			Serial:    fmt.Sprintf("SER%06d", n),
			FileHash:  fmt.Sprintf("hash-%d", n),
			Detail:    "Trojan quarantined",
		},
	}}, nil
}

func (f *fakeConnector) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func TestSupervisor_FailingSourceDoesNotBlockHealthyOne(t *testing.T) {
	repo := testutil.NewMockAlertRepository()
	ing := pipeline.NewIngestor(classifier.New(classifier.Config{}), repo, nil, time.Hour, testLogger())

	healthy := &fakeConnector{name: "edr-main"}
	broken := &fakeConnector{name: "edr-dead", fail: true}

	s := NewSupervisor(ing, 5*time.Millisecond, time.Second, testLogger())
	s.Register(healthy)
	s.Register(broken)

	s.Start(context.Background())
	time.Sleep(250 * time.Millisecond)
	s.Stop()

	healthyPolls := healthy.pollCount()
	brokenPolls := broken.pollCount()

	// The healthy loop keeps its base cadence regardless of the broken
	// source: plenty of polls, and every one of them landed an alert.
	if healthyPolls < 10 {
		t.Errorf("healthy connector polled %d times, want at least 10", healthyPolls)
	}
	if got := len(repo.Alerts); got < 10 {
		t.Errorf("ingested %d alerts from the healthy source, want at least 10", got)
	}

	// The failing loop doubles its delay after every error, so it gets far
	// fewer attempts in the same window (5, 10, 20, 40, 80, 160ms...).
	if brokenPolls >= healthyPolls/2 {
		t.Errorf("failing connector polled %d times vs healthy %d, want backoff to keep it well below", brokenPolls, healthyPolls)
	}
	if brokenPolls == 0 {
		t.Error("failing connector never polled; it should keep retrying with backoff")
	}
}

func TestSupervisor_StopCancelsLoops(t *testing.T) {
	repo := testutil.NewMockAlertRepository()
	ing := pipeline.NewIngestor(classifier.New(classifier.Config{}), repo, nil, time.Hour, testLogger())

	c := &fakeConnector{name: "edr-main"}
	s := NewSupervisor(ing, 5*time.Millisecond, time.Second, testLogger())
	s.Register(c)

	s.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	s.Stop()

	before := c.pollCount()
	time.Sleep(30 * time.Millisecond)
	if after := c.pollCount(); after != before {
		t.Errorf("connector polled after Stop: %d -> %d", before, after)
	}
}
