package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pratik-mahalle/sentrydesk/internal/domain/alert"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/audit"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/incident"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/playbook"
	"github.com/pratik-mahalle/sentrydesk/internal/domain/user"
	"github.com/pratik-mahalle/sentrydesk/internal/pkg/errors"
)

// MockAlertRepository is an in-memory implementation of alert.Repository.
// All methods are safe for concurrent use.
type MockAlertRepository struct {
	mu          sync.Mutex
	Alerts      map[string]*alert.Alert
	CreateError error
	UpdateError error
}

func NewMockAlertRepository() *MockAlertRepository {
	return &MockAlertRepository{Alerts: make(map[string]*alert.Alert)}
}

func (m *MockAlertRepository) Create(ctx context.Context, a *alert.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	cp := *a
	m.Alerts[a.ID] = &cp
	return nil
}

func (m *MockAlertRepository) GetByID(ctx context.Context, tenantID, id string) (*alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Alerts[id]
	if !ok || a.TenantID != tenantID {
		return nil, errors.NotFound("Alert")
	}
	cp := *a
	return &cp, nil
}

func (m *MockAlertRepository) Update(ctx context.Context, a *alert.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.Alerts[a.ID]; !ok {
		return errors.NotFound("Alert")
	}
	cp := *a
	m.Alerts[a.ID] = &cp
	return nil
}

func (m *MockAlertRepository) FindOpenByFingerprint(ctx context.Context, tenantID, fingerprint string, since time.Time) (*alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.Alerts {
		if a.TenantID == tenantID && a.Fingerprint() == fingerprint &&
			!alert.IsTerminal(a.Status) && !a.LastSeenAt.Before(since) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockAlertRepository) ListWithPagination(ctx context.Context, tenantID string, filter alert.Filter, limit, offset int) ([]*alert.Alert, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*alert.Alert
	for _, a := range m.Alerts {
		if a.TenantID != tenantID {
			continue
		}
		if filter.SourceSystem != "" && a.SourceSystem != filter.SourceSystem {
			continue
		}
		if filter.AlertType != "" && a.AlertType != filter.AlertType {
			continue
		}
		if filter.Classification != "" && a.Classification != filter.Classification {
			continue
		}
		if filter.Severity != "" && a.Severity != filter.Severity {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.AssignedTo != 0 && a.AssignedTo != filter.AssignedTo {
			continue
		}
		if filter.CorrelationID != "" && a.CorrelationID != filter.CorrelationID {
			continue
		}
		cp := *a
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *MockAlertRepository) ListOpenSince(ctx context.Context, tenantID string, since time.Time) ([]*alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*alert.Alert
	for _, a := range m.Alerts {
		if a.TenantID == tenantID && !alert.IsTerminal(a.Status) && !a.LastSeenAt.Before(since) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockAlertRepository) CountOpenByAssignee(ctx context.Context, tenantID string) (map[int64]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[int64]int)
	for _, a := range m.Alerts {
		if a.TenantID == tenantID && !alert.IsTerminal(a.Status) && a.AssignedTo != 0 {
			counts[a.AssignedTo]++
		}
	}
	return counts, nil
}

func (m *MockAlertRepository) CountByStatus(ctx context.Context, tenantID string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[string]int)
	for _, a := range m.Alerts {
		if a.TenantID == tenantID {
			counts[a.Status]++
		}
	}
	return counts, nil
}

func (m *MockAlertRepository) SetCorrelation(ctx context.Context, tenantID, correlationID string, alertIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range alertIDs {
		if a, ok := m.Alerts[id]; ok && a.TenantID == tenantID {
			a.CorrelationID = correlationID
		}
	}
	return nil
}

func (m *MockAlertRepository) DistinctOpenTenants(ctx context.Context, since time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool)
	for _, a := range m.Alerts {
		if !alert.IsTerminal(a.Status) && !a.LastSeenAt.Before(since) {
			seen[a.TenantID] = true
		}
	}
	var out []string
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// MockIncidentRepository is an in-memory implementation of incident.Repository
type MockIncidentRepository struct {
	mu          sync.Mutex
	Incidents   map[string]*incident.Incident
	CreateError error
	UpdateError error
}

func NewMockIncidentRepository() *MockIncidentRepository {
	return &MockIncidentRepository{Incidents: make(map[string]*incident.Incident)}
}

func (m *MockIncidentRepository) Create(ctx context.Context, in *incident.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	cp := *in
	m.Incidents[in.ID] = &cp
	return nil
}

func (m *MockIncidentRepository) GetByID(ctx context.Context, tenantID, id string) (*incident.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.Incidents[id]
	if !ok || in.TenantID != tenantID {
		return nil, errors.NotFound("Incident")
	}
	cp := *in
	return &cp, nil
}

func (m *MockIncidentRepository) GetBySourceAlert(ctx context.Context, tenantID, alertID string) (*incident.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range m.Incidents {
		if in.TenantID == tenantID && in.SourceAlertID == alertID {
			cp := *in
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockIncidentRepository) Update(ctx context.Context, in *incident.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.Incidents[in.ID]; !ok {
		return errors.NotFound("Incident")
	}
	cp := *in
	m.Incidents[in.ID] = &cp
	return nil
}

func (m *MockIncidentRepository) Delete(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.Incidents[id]
	if !ok || in.TenantID != tenantID {
		return errors.NotFound("Incident")
	}
	delete(m.Incidents, id)
	return nil
}

func (m *MockIncidentRepository) ListWithPagination(ctx context.Context, tenantID string, filter incident.Filter, limit, offset int) ([]*incident.Incident, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*incident.Incident
	for _, in := range m.Incidents {
		if in.TenantID != tenantID {
			continue
		}
		if filter.Severity != "" && in.Severity != filter.Severity {
			continue
		}
		if filter.Priority != "" && in.Priority != filter.Priority {
			continue
		}
		if filter.Category != "" && in.Category != filter.Category {
			continue
		}
		if filter.Status != "" && in.Status != filter.Status {
			continue
		}
		if filter.AssignedTo != 0 && in.AssignedTo != filter.AssignedTo {
			continue
		}
		cp := *in
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *MockIncidentRepository) CountOpenByAssignee(ctx context.Context, tenantID string) (map[int64]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[int64]int)
	for _, in := range m.Incidents {
		if in.TenantID == tenantID && in.Status != incident.StatusClosed && in.AssignedTo != 0 {
			counts[in.AssignedTo]++
		}
	}
	return counts, nil
}

// MockUserRepository is an in-memory implementation of user.Repository
type MockUserRepository struct {
	mu     sync.Mutex
	Users  map[int64]*user.User
	NextID int64
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{Users: make(map[int64]*user.User), NextID: 1}
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.NextID
	m.NextID++
	cp := *u
	m.Users[u.ID] = &cp
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return nil, errors.NotFound("User")
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errors.NotFound("User")
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Users[u.ID]; !ok {
		return errors.NotFound("User")
	}
	cp := *u
	m.Users[u.ID] = &cp
	return nil
}

func (m *MockUserRepository) ListByRoles(ctx context.Context, tenantID string, roles []string) ([]*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}

	var out []*user.User
	for _, u := range m.Users {
		if u.TenantID == tenantID && roleSet[u.Role] {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockUserRepository) TouchAssignment(ctx context.Context, id int64, prev *time.Time, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.Users[id]
	if !ok {
		return false, errors.NotFound("User")
	}

	switch {
	case prev == nil && u.LastAssignedAt != nil:
		return false, nil
	case prev != nil && (u.LastAssignedAt == nil || !u.LastAssignedAt.Equal(*prev)):
		return false, nil
	}

	t := at
	u.LastAssignedAt = &t
	return true, nil
}

// MockPlaybookRepository is an in-memory implementation of playbook.Repository
type MockPlaybookRepository struct {
	mu        sync.Mutex
	Playbooks map[string]*playbook.Playbook
	Links     map[string][]*playbook.ClassificationLink
}

func NewMockPlaybookRepository() *MockPlaybookRepository {
	return &MockPlaybookRepository{
		Playbooks: make(map[string]*playbook.Playbook),
		Links:     make(map[string][]*playbook.ClassificationLink),
	}
}

func (m *MockPlaybookRepository) Create(ctx context.Context, p *playbook.Playbook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.Playbooks[p.ID] = &cp
	return nil
}

func (m *MockPlaybookRepository) GetByID(ctx context.Context, tenantID, id string) (*playbook.Playbook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Playbooks[id]
	if !ok || p.TenantID != tenantID {
		return nil, errors.NotFound("Playbook")
	}
	cp := *p
	return &cp, nil
}

func (m *MockPlaybookRepository) Update(ctx context.Context, p *playbook.Playbook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Playbooks[p.ID]; !ok {
		return errors.NotFound("Playbook")
	}
	cp := *p
	m.Playbooks[p.ID] = &cp
	return nil
}

func (m *MockPlaybookRepository) Delete(ctx context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Playbooks[id]
	if !ok || p.TenantID != tenantID {
		return errors.NotFound("Playbook")
	}
	delete(m.Playbooks, id)
	delete(m.Links, id)
	return nil
}

func (m *MockPlaybookRepository) List(ctx context.Context, tenantID string) ([]*playbook.Playbook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*playbook.Playbook
	for _, p := range m.Playbooks {
		if p.TenantID == tenantID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockPlaybookRepository) LinksForPlaybook(ctx context.Context, playbookID string) ([]*playbook.ClassificationLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*playbook.ClassificationLink
	for _, l := range m.Links[playbookID] {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockPlaybookRepository) ReplaceLinks(ctx context.Context, playbookID string, links []*playbook.ClassificationLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cp []*playbook.ClassificationLink
	for _, l := range links {
		c := *l
		c.PlaybookID = playbookID
		cp = append(cp, &c)
	}
	m.Links[playbookID] = cp
	return nil
}

func (m *MockPlaybookRepository) ActivePrimary(ctx context.Context, tenantID, classification string) (*playbook.Playbook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, links := range m.Links {
		p, ok := m.Playbooks[id]
		if !ok || p.TenantID != tenantID || p.Status != playbook.StatusActive {
			continue
		}
		for _, l := range links {
			if l.Classification == classification && l.IsPrimary {
				cp := *p
				return &cp, nil
			}
		}
	}
	return nil, nil
}

// MockAuditRepository is an in-memory implementation of audit.Repository
type MockAuditRepository struct {
	mu      sync.Mutex
	Entries []*audit.Entry
	nextID  int64
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Append(ctx context.Context, e *audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	e.ID = m.nextID
	cp := *e
	m.Entries = append(m.Entries, &cp)
	return nil
}

func (m *MockAuditRepository) ListByAlert(ctx context.Context, tenantID, alertID string) ([]*audit.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*audit.Entry
	for _, e := range m.Entries {
		if e.TenantID == tenantID && e.AlertID == alertID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}
