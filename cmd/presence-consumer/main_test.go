package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/roadside-dispatch/internal/models"
)

// fakeMirror fails a configurable number of times before succeeding.
type fakeMirror struct {
	fail  int
	calls int
}

func (f *fakeMirror) Upsert(ctx context.Context, p *models.ProviderProfile) error {
	f.calls++
	if f.calls <= f.fail {
		return errors.New("mirror fail")
	}
	return nil
}

func TestUpsertWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeMirror{fail: 2}
	p := &models.ProviderProfile{UserID: "p1", Status: models.PresenceOnline, Location: &models.Coordinate{Lat: 1, Lng: 2}}
	start := time.Now()
	if err := upsertWithRetry(context.Background(), f, p, 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", f.calls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
}

func TestUpsertWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeMirror{fail: 5}
	p := &models.ProviderProfile{UserID: "p1", Status: models.PresenceOffline}
	if err := upsertWithRetry(context.Background(), f, p, 3, 5*time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
}
