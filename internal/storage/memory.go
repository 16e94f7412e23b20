package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/roadside-dispatch/internal/models"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs tests and
// local runs without Postgres; the conditional updates hold the write
// lock across check and mutation, which gives the same atomicity the
// SQL predicates give the Postgres store.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[string]*models.User
	providers    map[string]*models.ProviderProfile
	providerIDs  []string // insertion order, keeps ListProviders stable
	requests     map[string]*models.ServiceRequest
	requestIDs   []string
	applications map[string]*models.ProviderApplication
	appIDs       []string
	payments     map[string]*models.Payment
	reviews      []*models.Review
	disputes     []*models.Dispute
	tokens       []*models.NotificationToken
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]*models.User),
		providers:    make(map[string]*models.ProviderProfile),
		requests:     make(map[string]*models.ServiceRequest),
		applications: make(map[string]*models.ProviderApplication),
		payments:     make(map[string]*models.Payment),
	}
}

func (m *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MemoryStore) UserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email != "" && u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) UserByPhone(ctx context.Context, phone string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Phone != "" && u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) CountUsers(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

func (m *MemoryStore) CreateProvider(ctx context.Context, p *models.ProviderProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Insert-if-absent, mirroring the SQL store's ON CONFLICT DO NOTHING.
	if _, ok := m.providers[p.UserID]; ok {
		return nil
	}
	m.providerIDs = append(m.providerIDs, p.UserID)
	m.providers[p.UserID] = cloneProfile(p)
	return nil
}

func (m *MemoryStore) ProviderByID(ctx context.Context, userID string) (*models.ProviderProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.providers[userID]; ok {
		return cloneProfile(p), nil
	}
	return nil, nil
}

func (m *MemoryStore) ListProviders(ctx context.Context) ([]*models.ProviderProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.ProviderProfile, 0, len(m.providerIDs))
	for _, id := range m.providerIDs {
		out = append(out, cloneProfile(m.providers[id]))
	}
	return out, nil
}

func (m *MemoryStore) CountProviders(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.providers), nil
}

func (m *MemoryStore) SetPresence(ctx context.Context, userID string, status models.PresenceStatus, loc *models.Coordinate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.providers[userID]
	if !ok {
		p = &models.ProviderProfile{UserID: userID, Rating: 5}
		m.providers[userID] = p
		m.providerIDs = append(m.providerIDs, userID)
	}
	p.Status = status
	if loc != nil {
		cp := *loc
		p.Location = &cp
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) ClaimProvider(ctx context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.providers[userID]
	if !ok || p.Status != models.PresenceOnline {
		return false, nil
	}
	p.Status = models.PresenceBusy
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *MemoryStore) IncrementJobsCompleted(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.providers[userID]; ok {
		p.JobsCompleted++
	}
	return nil
}

func (m *MemoryStore) CreateRequest(ctx context.Context, r *models.ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.requests[r.ID] = &cp
	m.requestIDs = append(m.requestIDs, r.ID)
	return nil
}

func (m *MemoryStore) RequestByID(ctx context.Context, id string) (*models.ServiceRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryStore) AssignRequest(ctx context.Context, id, providerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Status != models.RequestPending {
		return false, nil
	}
	r.ProviderID = providerID
	r.Status = models.RequestAssigned
	r.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *MemoryStore) UpdateRequestStatus(ctx context.Context, id string, from, to models.RequestStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *MemoryStore) ListRequests(ctx context.Context, f RequestFilter) ([]*models.ServiceRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.ServiceRequest, 0, len(m.requestIDs))
	for _, id := range m.requestIDs {
		r := m.requests[id]
		if f.MotoristID != "" && r.MotoristID != f.MotoristID {
			continue
		}
		if f.ProviderID != "" && r.ProviderID != f.ProviderID {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) CountActiveRequests(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.requests {
		switch r.Status {
		case models.RequestAssigned, models.RequestEnroute, models.RequestInProgress:
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CreateApplication(ctx context.Context, a *models.ProviderApplication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.applications[a.ID] = &cp
	m.appIDs = append(m.appIDs, a.ID)
	return nil
}

func (m *MemoryStore) ApplicationByID(ctx context.Context, id string) (*models.ProviderApplication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.applications[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryStore) ListApplications(ctx context.Context) ([]*models.ProviderApplication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.ProviderApplication, 0, len(m.appIDs))
	for i := len(m.appIDs) - 1; i >= 0; i-- {
		cp := *m.applications[m.appIDs[i]]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) SetApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.applications[id]
	if !ok {
		return false, nil
	}
	a.Status = status
	return true, nil
}

func (m *MemoryStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *MemoryStore) SetPaymentStatus(ctx context.Context, id string, status models.PaymentStatus, gatewayRef string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return false, nil
	}
	p.Status = status
	if gatewayRef != "" {
		p.GatewayReference = gatewayRef
	}
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *MemoryStore) SumPayments(ctx context.Context) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum float64
	for _, p := range m.payments {
		sum += p.Amount
	}
	return sum, nil
}

func (m *MemoryStore) CreateReview(ctx context.Context, r *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.reviews = append(m.reviews, &cp)
	return nil
}

func (m *MemoryStore) CreateDispute(ctx context.Context, d *models.Dispute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.disputes = append(m.disputes, &cp)
	return nil
}

func (m *MemoryStore) CreateNotificationToken(ctx context.Context, t *models.NotificationToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tokens = append(m.tokens, &cp)
	return nil
}

func (m *MemoryStore) NotificationTokensByUser(ctx context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, t := range m.tokens {
		if t.UserID == userID {
			out = append(out, t.Token)
		}
	}
	return out, nil
}

func cloneProfile(p *models.ProviderProfile) *models.ProviderProfile {
	cp := *p
	if p.Location != nil {
		loc := *p.Location
		cp.Location = &loc
	}
	cp.ServiceTypes = append([]string(nil), p.ServiceTypes...)
	return &cp
}

var _ Store = (*MemoryStore)(nil)
