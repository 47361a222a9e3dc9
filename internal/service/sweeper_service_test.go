package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"user-account-backend/internal/logging"
)

func TestSweepOnce(t *testing.T) {
	env := newTestEnv(t)
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	env.issuer = env.issuer.WithClock(func() time.Time { return base })
	env.signup(t, "sweep@example.com")

	sweeper := NewTokenSweeper(logging.Discard(), env.store, time.Minute)

	sweeper.now = func() time.Time { return base.Add(30 * time.Minute) }
	if n, err := sweeper.SweepOnce(context.Background()); err != nil || n != 0 {
		t.Fatalf("nothing should expire yet, got n=%d err=%v", n, err)
	}

	// Access token (1h) is gone; refresh token (24h) survives unlinked
	sweeper.now = func() time.Time { return base.Add(2 * time.Hour) }
	if n, err := sweeper.SweepOnce(context.Background()); err != nil || n != 1 {
		t.Fatalf("expected one purged row, got n=%d err=%v", n, err)
	}
	refresh := env.store.ListRefreshTokens()
	if len(refresh) != 1 || refresh[0].AccessTokenID != nil {
		t.Fatalf("refresh token should survive with a cleared link, got %+v", refresh)
	}

	sweeper.now = func() time.Time { return base.Add(48 * time.Hour) }
	if n, _ := sweeper.SweepOnce(context.Background()); n != 1 {
		t.Fatalf("expected the refresh token to be purged, got %d", n)
	}
}

func TestSweepOnceError(t *testing.T) {
	env := newTestEnv(t)
	boom := errors.New("db gone")
	env.store.InjectError("DeleteExpired", boom)

	sweeper := NewTokenSweeper(logging.Discard(), env.store, 0)
	if sweeper.interval != defaultSweepInterval {
		t.Fatalf("expected default interval, got %s", sweeper.interval)
	}
	if _, err := sweeper.SweepOnce(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
}

func TestSweeperStopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	sweeper := NewTokenSweeper(logging.Discard(), env.store, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
