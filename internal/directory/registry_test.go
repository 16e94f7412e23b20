package directory

import (
	"context"
	"testing"

	"github.com/example/roadside-dispatch/internal/apperr"
	"github.com/example/roadside-dispatch/internal/models"
	"github.com/example/roadside-dispatch/internal/storage"
)

func TestSetPresenceUpsertsProfile(t *testing.T) {
	st := storage.NewMemoryStore()
	r := &Registry{Store: st}
	caller := models.Identity{ID: "p1", Role: models.RoleProvider}

	err := r.SetPresence(context.Background(), caller, models.PresenceOnline, &models.Coordinate{Lat: -26.2, Lng: 28.05})
	if err != nil {
		t.Fatal(err)
	}
	p, _ := st.ProviderByID(context.Background(), "p1")
	if p == nil || p.Status != models.PresenceOnline || p.Location == nil {
		t.Fatalf("profile not upserted: %+v", p)
	}

	// Status-only report keeps the previous coordinate.
	if err := r.SetPresence(context.Background(), caller, models.PresenceOffline, nil); err != nil {
		t.Fatal(err)
	}
	p, _ = st.ProviderByID(context.Background(), "p1")
	if p.Status != models.PresenceOffline || p.Location == nil {
		t.Fatalf("expected offline with retained location: %+v", p)
	}
}

func TestSetPresenceRejectsMotorist(t *testing.T) {
	r := &Registry{Store: storage.NewMemoryStore()}
	err := r.SetPresence(context.Background(), models.Identity{ID: "m1", Role: models.RoleMotorist}, models.PresenceOnline, nil)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSetPresenceRejectsBogusStatus(t *testing.T) {
	r := &Registry{Store: storage.NewMemoryStore()}
	err := r.SetPresence(context.Background(), models.Identity{ID: "p1", Role: models.RoleProvider}, "sleeping", nil)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApproveApplicationCreatesProfileOnce(t *testing.T) {
	st := storage.NewMemoryStore()
	r := &Registry{Store: st}
	provider := models.Identity{ID: "p1", Role: models.RoleProvider}
	admin := models.Identity{ID: "a1", Role: models.RoleAdmin}

	app, err := r.Apply(context.Background(), provider, ApplyInput{ServiceTypes: []string{"tow", "jump"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Decide(context.Background(), admin, app.ID, models.ApplicationApproved); err != nil {
		t.Fatal(err)
	}
	p, _ := st.ProviderByID(context.Background(), "p1")
	if p == nil || p.Status != models.PresenceOffline || len(p.ServiceTypes) != 2 {
		t.Fatalf("expected offline profile with service types, got %+v", p)
	}

	// A second approval must not reset an existing profile.
	if err := st.SetPresence(context.Background(), "p1", models.PresenceOnline, nil); err != nil {
		t.Fatal(err)
	}
	app2, _ := r.Apply(context.Background(), provider, ApplyInput{ServiceTypes: []string{"fuel"}})
	if err := r.Decide(context.Background(), admin, app2.ID, models.ApplicationApproved); err != nil {
		t.Fatal(err)
	}
	p, _ = st.ProviderByID(context.Background(), "p1")
	if p.Status != models.PresenceOnline {
		t.Fatalf("existing profile overwritten: %+v", p)
	}
}

func TestDecideRequiresAdmin(t *testing.T) {
	r := &Registry{Store: storage.NewMemoryStore()}
	err := r.Decide(context.Background(), models.Identity{ID: "p1", Role: models.RoleProvider}, "x", models.ApplicationApproved)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
