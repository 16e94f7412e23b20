package admin

import (
	"context"
	"testing"
	"time"

	"github.com/example/roadside-dispatch/internal/apperr"
	"github.com/example/roadside-dispatch/internal/models"
	"github.com/example/roadside-dispatch/internal/storage"
)

func TestOverviewCounts(t *testing.T) {
	st := storage.NewMemoryStore()
	ctx := context.Background()
	_ = st.CreateUser(ctx, &models.User{ID: "u1", Role: models.RoleMotorist})
	_ = st.CreateUser(ctx, &models.User{ID: "u2", Role: models.RoleProvider})
	_ = st.CreateProvider(ctx, &models.ProviderProfile{UserID: "u2", Status: models.PresenceBusy})
	_ = st.CreateRequest(ctx, &models.ServiceRequest{ID: "r1", MotoristID: "u1", Status: models.RequestAssigned, CreatedAt: time.Now()})
	_ = st.CreateRequest(ctx, &models.ServiceRequest{ID: "r2", MotoristID: "u1", Status: models.RequestCompleted, CreatedAt: time.Now()})
	_ = st.CreatePayment(ctx, &models.Payment{ID: "pay1", RequestID: "r2", MotoristID: "u1", Amount: 350})

	svc := &Service{Store: st}
	ov, err := svc.Overview(ctx, models.Identity{ID: "a1", Role: models.RoleAdmin})
	if err != nil {
		t.Fatal(err)
	}
	if ov.Users != 2 || ov.Providers != 1 || ov.ActiveJobs != 1 || ov.Revenue != 350 {
		t.Fatalf("unexpected overview %+v", ov)
	}
}

func TestOverviewAdminOnly(t *testing.T) {
	svc := &Service{Store: storage.NewMemoryStore()}
	_, err := svc.Overview(context.Background(), models.Identity{ID: "u1", Role: models.RoleMotorist})
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	_, err = svc.ListApplications(context.Background(), models.Identity{ID: "u1", Role: models.RoleProvider})
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
