package payments

import (
	"context"
	"testing"

	"github.com/example/roadside-dispatch/internal/apperr"
	"github.com/example/roadside-dispatch/internal/models"
	"github.com/example/roadside-dispatch/internal/storage"
)

func seed(t *testing.T) (*Service, *storage.MemoryStore) {
	t.Helper()
	st := storage.NewMemoryStore()
	if err := st.CreateRequest(context.Background(), &models.ServiceRequest{
		ID: "r1", MotoristID: "m1", ProviderID: "p1", ServiceType: "tow", Status: models.RequestAssigned,
	}); err != nil {
		t.Fatal(err)
	}
	return &Service{Payments: st, Requests: st}, st
}

func TestCreateIntent(t *testing.T) {
	svc, _ := seed(t)
	p, err := svc.CreateIntent(context.Background(),
		models.Identity{ID: "m1", Role: models.RoleMotorist},
		IntentInput{RequestID: "r1", Amount: 450})
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != models.PaymentInitiated || p.ProviderID != "p1" || p.Currency != "ZAR" {
		t.Fatalf("unexpected payment %+v", p)
	}
}

func TestCreateIntentValidation(t *testing.T) {
	svc, _ := seed(t)
	motorist := models.Identity{ID: "m1", Role: models.RoleMotorist}

	_, err := svc.CreateIntent(context.Background(), motorist, IntentInput{RequestID: "r1", Amount: 0})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = svc.CreateIntent(context.Background(), motorist, IntentInput{RequestID: "missing", Amount: 10})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err = svc.CreateIntent(context.Background(), models.Identity{ID: "p1", Role: models.RoleProvider}, IntentInput{RequestID: "r1", Amount: 10})
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestWebhookUpdatesStatus(t *testing.T) {
	svc, st := seed(t)
	p, err := svc.CreateIntent(context.Background(),
		models.Identity{ID: "m1", Role: models.RoleMotorist},
		IntentInput{RequestID: "r1", Amount: 100})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.HandleWebhook(context.Background(), p.ID, "succeeded"); err != nil {
		t.Fatal(err)
	}
	sum, _ := st.SumPayments(context.Background())
	if sum != 100 {
		t.Fatalf("expected revenue 100, got %f", sum)
	}

	if err := svc.HandleWebhook(context.Background(), "missing", "succeeded"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := svc.HandleWebhook(context.Background(), p.ID, "exploded"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
