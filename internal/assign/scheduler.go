// Package assign picks the analyst who receives a newly surfaced alert or a
// freshly escalated incident.
package assign

import (
	"context"
	"sort"
	"time"

	"github.com/pratik-mahalle/sentrydesk/internal/domain/user"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/logger"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/metrics"
	"github.com/pratik-mahalle/sentrydesk/internal/rbac"
)

// maxClaimAttempts bounds re-selection when concurrent decisions race on
// the same analyst.
const maxClaimAttempts = 3

// Scheduler balances work across the analysts eligible for a category.
type Scheduler struct {
	users  user.Repository
	logger *logger.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(users user.Repository, log *logger.Logger) *Scheduler {
	return &Scheduler{users: users, logger: log}
}

// rolesFor returns the analyst roles preferred for the given category.
func rolesFor(category string) []string {
	if rbac.IsSecurityCategory(category) {
		return []string{user.RoleSecurityAnalyst}
	}
	return []string{user.RoleITHelpdeskAnalyst}
}

// adminRoles join the rotation only when the tenant has no analyst for the
// category. Both admin roles can see every category.
var adminRoles = []string{user.RoleTenantAdmin, user.RoleSuperAdmin}

// Pick selects the analyst in the tenant with the fewest open items for the
// category, breaking ties by who was assigned least recently. openCounts
// maps analyst id to current open workload. When no analyst covers the
// category the tenant's admins take the pick; only a tenant with neither
// leaves the item unassigned (Pick returns 0).
func (s *Scheduler) Pick(ctx context.Context, tenantID, category string, openCounts map[int64]int) (int64, error) {
	roles := rolesFor(category)
	candidates, err := s.users.ListByRoles(ctx, tenantID, roles)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		// No analyst covers the category; fall back to the tenant's admins.
		roles = adminRoles
		candidates, err = s.users.ListByRoles(ctx, tenantID, roles)
		if err != nil {
			return 0, err
		}
	}
	if len(candidates) == 0 {
		metrics.RecordAssignment("unassigned")
		s.logger.WithFields(map[string]interface{}{
			"tenant_id": tenantID,
			"category":  category,
		}).Warn("No eligible assignee for category, leaving unassigned")
		return 0, nil
	}

	for attempt := 0; attempt < maxClaimAttempts; attempt++ {
		pick := choose(candidates, openCounts)

		ok, err := s.users.TouchAssignment(ctx, pick.ID, pick.LastAssignedAt, time.Now().UTC())
		if err != nil {
			return 0, err
		}
		if ok {
			metrics.RecordAssignment("assigned")
			return pick.ID, nil
		}

		// Lost the claim race. Reload the rotation state and retry.
		candidates, err = s.users.ListByRoles(ctx, tenantID, roles)
		if err != nil {
			return 0, err
		}
		if len(candidates) == 0 {
			break
		}
	}

	metrics.RecordAssignment("contended")
	s.logger.WithFields(map[string]interface{}{
		"tenant_id": tenantID,
		"category":  category,
	}).Warn("Assignment claim contention exhausted retries")
	return 0, nil
}

// choose orders candidates by open workload, then by least recent
// assignment, then by id for a stable result.
func choose(candidates []*user.User, openCounts map[int64]int) *user.User {
	sorted := append([]*user.User(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool {
		ci, cj := openCounts[sorted[i].ID], openCounts[sorted[j].ID]
		if ci != cj {
			return ci < cj
		}
		ti, tj := sorted[i].LastAssignedAt, sorted[j].LastAssignedAt
		switch {
		case ti == nil && tj != nil:
			return true
		case ti != nil && tj == nil:
			return false
		case ti != nil && tj != nil && !ti.Equal(*tj):
			return ti.Before(*tj)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted[0]
}
