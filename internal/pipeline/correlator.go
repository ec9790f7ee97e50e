package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/alert"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/logger"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/metrics"
)

// Cluster is a group of otherwise-unrelated alerts sharing threat
// indicators inside the correlation window. Clusters are advisory: they are
// surfaced for hunting and never gate ticket creation.
type Cluster struct {
	CorrelationID    string    `json:"correlation_id"`
	TenantID         string    `json:"tenant_id"`
	AlertIDs         []string  `json:"alert_ids"`
	SharedIndicators []string  `json:"shared_indicators"`
	Confidence       float64   `json:"confidence"`
	WindowStart      time.Time `json:"window_start"`
	WindowEnd        time.Time `json:"window_end"`
}

// Correlator groups open alerts by shared indicators.
type Correlator struct {
	alerts alert.Repository
	window time.Duration
	logger *logger.Logger
}

// NewCorrelator creates a Correlator with the given temporal window.
func NewCorrelator(alerts alert.Repository, window time.Duration, log *logger.Logger) *Correlator {
	return &Correlator{alerts: alerts, window: window, logger: log}
}

// Sweep groups the tenant's open alerts from the configured window ending
// at now into clusters, persists the shared correlation ids, and returns
// the clusters.
func (c *Correlator) Sweep(ctx context.Context, tenantID string, now time.Time) ([]*Cluster, error) {
	return c.SweepWindow(ctx, tenantID, now, c.window)
}

// SweepWindow is Sweep with an explicit window. A non-positive window falls
// back to the configured one.
func (c *Correlator) SweepWindow(ctx context.Context, tenantID string, now time.Time, window time.Duration) ([]*Cluster, error) {
	start := time.Now()

	if window <= 0 {
		window = c.window
	}
	open, err := c.alerts.ListOpenSince(ctx, tenantID, now.Add(-window))
	if err != nil {
		return nil, err
	}

	clusters := c.cluster(tenantID, open)

	for _, cl := range clusters {
		if err := c.alerts.SetCorrelation(ctx, tenantID, cl.CorrelationID, cl.AlertIDs); err != nil {
			return nil, err
		}
	}

	metrics.RecordCorrelationSweep(len(clusters), time.Since(start))
	c.logger.WithFields(map[string]interface{}{
		"tenant_id": tenantID,
		"alerts":    len(open),
		"clusters":  len(clusters),
	}).Debug("Correlation sweep complete")

	return clusters, nil
}

// cluster unions alerts that share at least one indicator, then scores each
// resulting group.
func (c *Correlator) cluster(tenantID string, alerts []*alert.Alert) []*Cluster {
	parent := make([]int, len(alerts))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	byIndicator := map[string][]int{}
	for i, a := range alerts {
		for _, in := range a.Indicators {
			byIndicator[in] = append(byIndicator[in], i)
		}
	}
	for _, members := range byIndicator {
		for i := 1; i < len(members); i++ {
			union(members[0], members[i])
		}
	}

	groups := map[int][]int{}
	for i := range alerts {
		root := find(i)
		groups[root] = append(groups[root], i)
	}

	var out []*Cluster
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}

		cl := &Cluster{
			CorrelationID: uuid.NewString(),
			TenantID:      tenantID,
		}

		counts := map[string]int{}
		for _, i := range members {
			a := alerts[i]
			cl.AlertIDs = append(cl.AlertIDs, a.ID)
			if cl.WindowStart.IsZero() || a.FirstSeenAt.Before(cl.WindowStart) {
				cl.WindowStart = a.FirstSeenAt
			}
			if a.LastSeenAt.After(cl.WindowEnd) {
				cl.WindowEnd = a.LastSeenAt
			}
			for _, in := range a.Indicators {
				counts[in]++
			}
		}
		for in, n := range counts {
			if n >= 2 {
				cl.SharedIndicators = append(cl.SharedIndicators, in)
			}
		}
		sort.Strings(cl.SharedIndicators)
		sort.Strings(cl.AlertIDs)

		cl.Confidence = confidence(len(cl.SharedIndicators), cl.WindowEnd.Sub(cl.WindowStart), c.window)
		out = append(out, cl)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

// confidence weights indicator overlap against temporal spread: more shared
// indicators and a tighter time span both raise the score. Range (0, 1].
func confidence(sharedIndicators int, span, window time.Duration) float64 {
	overlap := float64(sharedIndicators) / 3.0
	if overlap > 1 {
		overlap = 1
	}

	proximity := 1.0
	if window > 0 {
		proximity = 1 - span.Seconds()/window.Seconds()
		if proximity < 0 {
			proximity = 0
		}
	}

	score := 0.6*overlap + 0.4*proximity
	if score <= 0 {
		score = 0.05
	}
	return score
}
