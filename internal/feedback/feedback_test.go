package feedback

import (
	"context"
	"testing"

	"github.com/example/roadside-dispatch/internal/apperr"
	"github.com/example/roadside-dispatch/internal/models"
	"github.com/example/roadside-dispatch/internal/storage"
)

func TestReviewRatingBounds(t *testing.T) {
	svc := &Service{Store: storage.NewMemoryStore()}
	caller := models.Identity{ID: "m1", Role: models.RoleMotorist}

	for _, bad := range []int{0, 6, -1} {
		_, err := svc.SubmitReview(context.Background(), caller, ReviewInput{RequestID: "r1", ProviderID: "p1", Rating: bad})
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Fatalf("rating %d: expected validation error, got %v", bad, err)
		}
	}
	r, err := svc.SubmitReview(context.Background(), caller, ReviewInput{RequestID: "r1", ProviderID: "p1", Rating: 5})
	if err != nil {
		t.Fatal(err)
	}
	if r.MotoristID != "m1" {
		t.Fatalf("unexpected review %+v", r)
	}
}

func TestDisputeRequiresReason(t *testing.T) {
	svc := &Service{Store: storage.NewMemoryStore()}
	caller := models.Identity{ID: "p1", Role: models.RoleProvider}

	_, err := svc.RaiseDispute(context.Background(), caller, DisputeInput{RequestID: "r1"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	d, err := svc.RaiseDispute(context.Background(), caller, DisputeInput{RequestID: "r1", Reason: "no-show"})
	if err != nil {
		t.Fatal(err)
	}
	if d.Status != "open" || d.RaisedBy != models.RoleProvider {
		t.Fatalf("unexpected dispute %+v", d)
	}
}
