package auth

import (
	"testing"
	"time"

	"github.com/example/roadside-dispatch/internal/apperr"
	"github.com/example/roadside-dispatch/internal/models"
)

func TestIssueAndValidate(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	tok, err := svc.Issue(models.Identity{ID: "u1", Role: models.RoleProvider})
	if err != nil {
		t.Fatal(err)
	}
	id, err := svc.Validate(tok)
	if err != nil {
		t.Fatal(err)
	}
	if id.ID != "u1" || id.Role != models.RoleProvider {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	svc := NewTokenService("test-secret", -time.Minute)
	tok, err := svc.Issue(models.Identity{ID: "u1", Role: models.RoleMotorist})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Validate(tok); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestValidateWrongSecret(t *testing.T) {
	tok, err := NewTokenService("secret-a", time.Hour).Issue(models.Identity{ID: "u1", Role: models.RoleAdmin})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewTokenService("secret-b", time.Hour).Validate(tok); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	h, err := HashPassword("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(h, "hunter2") {
		t.Fatal("expected valid password to verify")
	}
	if CheckPassword(h, "hunter3") {
		t.Fatal("expected wrong password to fail")
	}
}
