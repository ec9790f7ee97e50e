package connector

import (
	"context"
	"sync"
	"time"

	"github.com/pratik-mahalle/sentrydesk/internal/pipeline"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/logger"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/metrics"
)

const maxBackoff = 10 * time.Minute

// Supervisor runs one polling loop per configured connector and feeds
// fetched records into the ingest pipeline. Failed polls back off
// exponentially without blocking the other sources.
type Supervisor struct {
	ingestor *pipeline.Ingestor
	interval time.Duration
	timeout  time.Duration
	logger   *logger.Logger

	mu         sync.Mutex
	connectors []Connector
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewSupervisor creates a Supervisor. interval is the base poll cadence and
// timeout bounds each individual poll call.
func NewSupervisor(ingestor *pipeline.Ingestor, interval, timeout time.Duration, log *logger.Logger) *Supervisor {
	return &Supervisor{
		ingestor: ingestor,
		interval: interval,
		timeout:  timeout,
		logger:   log,
	}
}

// Register adds a configured connector. Must be called before Start.
func (s *Supervisor) Register(c Connector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectors = append(s.connectors, c)
}

// Start launches the polling loops.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, s.cancel = context.WithCancel(ctx)
	for _, c := range s.connectors {
		s.wg.Add(1)
		go s.run(ctx, c)
	}
}

// Stop cancels the polling loops and waits for them to drain.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Supervisor) run(ctx context.Context, c Connector) {
	defer s.wg.Done()

	// First poll picks up the trailing interval so a restart does not drop
	// events delivered while the process was down.
	since := time.Now().UTC().Add(-s.interval)
	delay := s.interval

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		polledAt := time.Now().UTC()
		n, err := s.poll(ctx, c, since)
		if err != nil {
			metrics.RecordConnectorPoll(c.Name(), "error")
			s.logger.WithFields(map[string]interface{}{
				"source":  c.Name(),
				"backoff": delay.String(),
			}).WithError(err).Warn("Connector poll failed")

			delay *= 2
			if delay > maxBackoff {
				delay = maxBackoff
			}
		} else {
			metrics.RecordConnectorPoll(c.Name(), "ok")
			if n > 0 {
				s.logger.WithFields(map[string]interface{}{
					"source":  c.Name(),
					"records": n,
				}).Debug("Connector poll delivered records")
			}
			since = polledAt
			delay = s.interval
		}

		timer.Reset(delay)
	}
}

// poll fetches one batch and pushes every record through ingest. A record
// that fails to ingest is logged and skipped; the rest of the batch still
// lands.
func (s *Supervisor) poll(ctx context.Context, c Connector, since time.Time) (int, error) {
	pollCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	records, err := c.Poll(pollCtx, since)
	if err != nil {
		return 0, err
	}

	for _, rec := range records {
		if _, err := s.ingestor.Process(ctx, rec); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"source":    rec.SourceSystem,
				"source_id": rec.SourceID,
			}).WithError(err).Error("Failed to ingest record")
		}
	}
	return len(records), nil
}
