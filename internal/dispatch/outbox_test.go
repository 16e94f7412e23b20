package dispatch

import (
	"context"
	"sync"
	"testing"

	"github.com/example/roadside-dispatch/internal/apperr"
	"github.com/example/roadside-dispatch/internal/models"
	"github.com/example/roadside-dispatch/internal/storage"
)

type fakePusher struct {
	mu    sync.Mutex
	sends [][]string
}

func (f *fakePusher) Send(tokens []string, title, body string, data map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, tokens)
	return nil
}

func (f *fakePusher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func registerToken(t *testing.T, st *storage.MemoryStore, userID, token string) {
	t.Helper()
	err := st.CreateNotificationToken(context.Background(), &models.NotificationToken{
		ID: token, UserID: userID, Token: token, Platform: "android",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestJobOfferFallsBackToPush(t *testing.T) {
	st := storage.NewMemoryStore()
	registerToken(t, st, "p1", "tok-1")
	push := &fakePusher{}
	o := NewOutbox(NewWSRegistry(), push, st, nil)

	// No websocket session registered, so the offer goes out via push.
	o.JobOffer("p1", "r1", models.Match{ProviderID: "p1", ETAMinutes: 5})
	o.Close()

	if push.count() != 1 {
		t.Fatalf("expected one push, got %d", push.count())
	}
}

func TestNotifySkipsUsersWithoutTokens(t *testing.T) {
	push := &fakePusher{}
	o := NewOutbox(nil, push, storage.NewMemoryStore(), nil)
	o.Notify("nobody", "t", "b", nil)
	o.Close()
	if push.count() != 0 {
		t.Fatalf("expected no push, got %d", push.count())
	}
}

func TestSendAuthorization(t *testing.T) {
	st := storage.NewMemoryStore()
	o := NewOutbox(nil, &fakePusher{}, st, nil)
	defer o.Close()
	svc := &Service{Tokens: st, Outbox: o}

	err := svc.Send(context.Background(), models.Identity{ID: "u1", Role: models.RoleMotorist}, SendInput{UserID: "u2"})
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := svc.Send(context.Background(), models.Identity{ID: "u1", Role: models.RoleMotorist}, SendInput{UserID: "u1"}); err != nil {
		t.Fatalf("self-send should be allowed: %v", err)
	}
	if err := svc.Send(context.Background(), models.Identity{ID: "a1", Role: models.RoleAdmin}, SendInput{UserID: "u2"}); err != nil {
		t.Fatalf("admin send should be allowed: %v", err)
	}
}

func TestRegisterTokenValidation(t *testing.T) {
	st := storage.NewMemoryStore()
	svc := &Service{Tokens: st}
	err := svc.RegisterToken(context.Background(), models.Identity{ID: "u1"}, "", "web")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.RegisterToken(context.Background(), models.Identity{ID: "u1"}, "tok", ""); err != nil {
		t.Fatal(err)
	}
	tokens, _ := st.NotificationTokensByUser(context.Background(), "u1")
	if len(tokens) != 1 || tokens[0] != "tok" {
		t.Fatalf("token not stored: %v", tokens)
	}
}
