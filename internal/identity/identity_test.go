package identity

import (
	"context"
	"testing"
	"time"

	"github.com/example/roadside-dispatch/internal/apperr"
	"github.com/example/roadside-dispatch/internal/auth"
	"github.com/example/roadside-dispatch/internal/models"
	"github.com/example/roadside-dispatch/internal/storage"
)

func newService() (*Service, *storage.MemoryStore) {
	st := storage.NewMemoryStore()
	return &Service{Users: st, Tokens: auth.NewTokenService("test-secret", time.Hour)}, st
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newService()
	res, err := svc.Register(context.Background(), RegisterInput{
		Name: "Thandi", Email: "thandi@example.com", Password: "pw", Role: models.RoleMotorist,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Token == "" || res.User.ID == "" {
		t.Fatalf("incomplete result %+v", res)
	}

	login, err := svc.Login(context.Background(), LoginInput{Email: "thandi@example.com", Password: "pw"})
	if err != nil {
		t.Fatal(err)
	}
	if login.User.ID != res.User.ID {
		t.Fatal("logged in as wrong user")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newService()
	in := RegisterInput{Name: "A", Email: "a@example.com"}
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(context.Background(), in)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newService()
	if _, err := svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@example.com", Password: "right"}); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Login(context.Background(), LoginInput{Email: "a@example.com", Password: "wrong"})
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestResolveInactiveUser(t *testing.T) {
	svc, st := newService()
	res, err := svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	// Deactivate directly in the store.
	u, _ := st.UserByID(context.Background(), res.User.ID)
	u.IsActive = false
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	_, err = svc.Resolve(context.Background(), models.Identity{ID: res.User.ID})
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
