package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/example/roadside-dispatch/internal/apperr"
	"github.com/example/roadside-dispatch/internal/models"
	"github.com/example/roadside-dispatch/internal/storage"
)

func seedRequest(t *testing.T, st *storage.MemoryStore, status models.RequestStatus) *models.ServiceRequest {
	t.Helper()
	req := &models.ServiceRequest{
		ID:          "r1",
		MotoristID:  "m1",
		ProviderID:  "p1",
		ServiceType: "tow",
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}
	if status == models.RequestPending {
		req.ProviderID = ""
	}
	if err := st.CreateRequest(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	return req
}

func TestHappyPathProgression(t *testing.T) {
	st := storage.NewMemoryStore()
	seedRequest(t, st, models.RequestAssigned)
	m := &Manager{Requests: st, Providers: st}
	provider := models.Identity{ID: "p1", Role: models.RoleProvider}

	for _, to := range []models.RequestStatus{models.RequestEnroute, models.RequestInProgress, models.RequestCompleted} {
		req, err := m.SetStatus(context.Background(), provider, "r1", to)
		if err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
		if req.Status != to {
			t.Fatalf("expected %s, got %s", to, req.Status)
		}
	}
}

func TestTerminalStatesRejectFurtherTransitions(t *testing.T) {
	for _, terminal := range []models.RequestStatus{models.RequestCompleted, models.RequestCancelled} {
		st := storage.NewMemoryStore()
		seedRequest(t, st, terminal)
		m := &Manager{Requests: st, Providers: st}
		_, err := m.SetStatus(context.Background(), models.Identity{ID: "a1", Role: models.RoleAdmin}, "r1", models.RequestEnroute)
		if apperr.KindOf(err) != apperr.KindInvalidTransition {
			t.Fatalf("from %s: expected invalid transition, got %v", terminal, err)
		}
	}
}

func TestIllegalSkipRejected(t *testing.T) {
	st := storage.NewMemoryStore()
	seedRequest(t, st, models.RequestAssigned)
	m := &Manager{Requests: st, Providers: st}
	_, err := m.SetStatus(context.Background(), models.Identity{ID: "p1", Role: models.RoleProvider}, "r1", models.RequestCompleted)
	if apperr.KindOf(err) != apperr.KindInvalidTransition {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestCancelReachableFromAnyNonTerminal(t *testing.T) {
	for _, from := range []models.RequestStatus{models.RequestPending, models.RequestAssigned, models.RequestEnroute, models.RequestInProgress} {
		st := storage.NewMemoryStore()
		seedRequest(t, st, from)
		m := &Manager{Requests: st, Providers: st}
		if _, err := m.SetStatus(context.Background(), models.Identity{ID: "m1", Role: models.RoleMotorist}, "r1", models.RequestCancelled); err != nil {
			t.Fatalf("cancel from %s: %v", from, err)
		}
	}
}

func TestSystemOnlyStatusesNotSettable(t *testing.T) {
	st := storage.NewMemoryStore()
	seedRequest(t, st, models.RequestPending)
	m := &Manager{Requests: st, Providers: st}
	for _, to := range []models.RequestStatus{models.RequestPending, models.RequestAssigned} {
		_, err := m.SetStatus(context.Background(), models.Identity{ID: "a1", Role: models.RoleAdmin}, "r1", to)
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Fatalf("setting %s: expected validation error, got %v", to, err)
		}
	}
}

func TestOwnershipChecks(t *testing.T) {
	st := storage.NewMemoryStore()
	seedRequest(t, st, models.RequestAssigned)
	m := &Manager{Requests: st, Providers: st}

	_, err := m.SetStatus(context.Background(), models.Identity{ID: "other-provider", Role: models.RoleProvider}, "r1", models.RequestEnroute)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for foreign provider, got %v", err)
	}
	_, err = m.SetStatus(context.Background(), models.Identity{ID: "other-motorist", Role: models.RoleMotorist}, "r1", models.RequestCancelled)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for foreign motorist, got %v", err)
	}
	if _, err := m.SetStatus(context.Background(), models.Identity{ID: "root", Role: models.RoleAdmin}, "r1", models.RequestEnroute); err != nil {
		t.Fatalf("admin should transition any request: %v", err)
	}
}

func TestNotFound(t *testing.T) {
	m := &Manager{Requests: storage.NewMemoryStore(), Providers: storage.NewMemoryStore()}
	_, err := m.SetStatus(context.Background(), models.Identity{ID: "a1", Role: models.RoleAdmin}, "missing", models.RequestCancelled)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCompletedBumpsJobsCounter(t *testing.T) {
	st := storage.NewMemoryStore()
	seedRequest(t, st, models.RequestInProgress)
	if err := st.CreateProvider(context.Background(), &models.ProviderProfile{UserID: "p1", Status: models.PresenceBusy}); err != nil {
		t.Fatal(err)
	}
	m := &Manager{Requests: st, Providers: st}
	if _, err := m.SetStatus(context.Background(), models.Identity{ID: "p1", Role: models.RoleProvider}, "r1", models.RequestCompleted); err != nil {
		t.Fatal(err)
	}
	prof, _ := st.ProviderByID(context.Background(), "p1")
	if prof.JobsCompleted != 1 {
		t.Fatalf("expected jobs_completed 1, got %d", prof.JobsCompleted)
	}
	// Completion never releases presence; the provider reports itself
	// online explicitly.
	if prof.Status != models.PresenceBusy {
		t.Fatalf("expected provider still busy, got %s", prof.Status)
	}
}

type stubRequests struct {
	storage.RequestStore
	req *models.ServiceRequest
}

func (s *stubRequests) RequestByID(ctx context.Context, id string) (*models.ServiceRequest, error) {
	cp := *s.req
	return &cp, nil
}

func (s *stubRequests) UpdateRequestStatus(ctx context.Context, id string, from, to models.RequestStatus) (bool, error) {
	return false, nil // simulate losing the race every time
}

func TestLostUpdateRaceIsConflict(t *testing.T) {
	req := &models.ServiceRequest{ID: "r1", MotoristID: "m1", ProviderID: "p1", Status: models.RequestAssigned}
	m := &Manager{Requests: &stubRequests{req: req}, Providers: storage.NewMemoryStore()}
	_, err := m.SetStatus(context.Background(), models.Identity{ID: "p1", Role: models.RoleProvider}, "r1", models.RequestEnroute)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}
