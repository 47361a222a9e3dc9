package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"user-account-backend/internal/models"
	"user-account-backend/internal/repository"
)

func seedUser(t *testing.T, s *Store, email string) *models.User {
	t.Helper()
	u := &models.User{FullName: "Seed User", Email: email, PasswordHash: "digest", IsActive: true}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func TestCreateUserUniqueEmail(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := seedUser(t, s, "a@example.com")
	if u.ID == 0 || u.CreatedAt.IsZero() {
		t.Fatal("expected id and timestamps to be assigned")
	}

	err := s.CreateUser(ctx, &models.User{FullName: "Other", Email: "a@example.com", PasswordHash: "x"})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// Emails are compared exactly as given
	if err := s.CreateUser(ctx, &models.User{FullName: "Upper", Email: "A@example.com", PasswordHash: "x"}); err != nil {
		t.Fatalf("differently cased email should be accepted: %v", err)
	}

	n, _ := s.CountUsers(ctx)
	if n != 2 {
		t.Fatalf("expected 2 users, got %d", n)
	}
	exists, _ := s.ExistsByEmail(ctx, "a@example.com")
	if !exists {
		t.Fatal("expected email to exist")
	}
}

func TestFindUser(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := seedUser(t, s, "find@example.com")

	byID, err := s.FindUserByID(ctx, u.ID)
	if err != nil || byID.Email != u.Email {
		t.Fatalf("FindUserByID: %v %v", byID, err)
	}
	byEmail, err := s.FindUserByEmail(ctx, "find@example.com")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("FindUserByEmail: %v %v", byEmail, err)
	}
	if _, err := s.FindUserByID(ctx, 999); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.FindUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := seedUser(t, s, "a@example.com")
	seedUser(t, s, "b@example.com")

	a.FullName = "Renamed"
	if err := s.UpdateUser(ctx, a); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	got, _ := s.FindUserByID(ctx, a.ID)
	if got.FullName != "Renamed" {
		t.Fatalf("expected rename to persist, got %q", got.FullName)
	}

	a.Email = "b@example.com"
	if err := s.UpdateUser(ctx, a); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := s.UpdateUser(ctx, &models.User{ID: 42}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTokensRequireExpiry(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := seedUser(t, s, "t@example.com")

	if err := s.SaveAccessToken(ctx, &models.AccessToken{UserID: u.ID, Token: "a"}); !errors.Is(err, models.ErrMissingExpiry) {
		t.Fatalf("expected ErrMissingExpiry, got %v", err)
	}
	if err := s.SaveRefreshToken(ctx, &models.RefreshToken{UserID: u.ID, Token: "r"}); !errors.Is(err, models.ErrMissingExpiry) {
		t.Fatalf("expected ErrMissingExpiry, got %v", err)
	}
}

func TestRefreshTokenStoredAsDigest(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := seedUser(t, s, "d@example.com")

	rt := &models.RefreshToken{UserID: u.ID, Token: "raw-refresh-value", ExpiresAt: time.Now().Add(time.Hour)}
	if err := s.SaveRefreshToken(ctx, rt); err != nil {
		t.Fatalf("SaveRefreshToken: %v", err)
	}
	if rt.Token != "raw-refresh-value" {
		t.Fatal("caller's token value must not be rewritten")
	}
	for _, stored := range s.ListRefreshTokens() {
		if stored.Token == "raw-refresh-value" {
			t.Fatal("raw refresh token must not be stored")
		}
	}

	found, err := s.FindRefreshToken(ctx, "raw-refresh-value")
	if err != nil || found.ID != rt.ID {
		t.Fatalf("FindRefreshToken: %v %v", found, err)
	}

	if err := s.DeleteRefreshToken(ctx, "raw-refresh-value"); err != nil {
		t.Fatalf("DeleteRefreshToken: %v", err)
	}
	if err := s.DeleteRefreshToken(ctx, "raw-refresh-value"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if _, err := s.FindRefreshToken(ctx, "raw-refresh-value"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := seedUser(t, s, "c@example.com")
	other := seedUser(t, s, "other@example.com")
	exp := time.Now().Add(time.Hour)

	at := &models.AccessToken{UserID: u.ID, Token: "access-1", ExpiresAt: exp}
	_ = s.SaveAccessToken(ctx, at)
	_ = s.SaveRefreshToken(ctx, &models.RefreshToken{UserID: u.ID, AccessTokenID: &at.ID, Token: "r1", ExpiresAt: exp})
	_ = s.SaveAccessToken(ctx, &models.AccessToken{UserID: other.ID, Token: "access-2", ExpiresAt: exp})
	_ = s.CreateAuditLog(ctx, &models.AuditLog{UserID: &u.ID, Action: "user_login"})

	if err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if len(s.ListRefreshTokens()) != 0 {
		t.Fatal("refresh tokens should cascade")
	}
	if tokens := s.ListAccessTokens(); len(tokens) != 1 || tokens[0].UserID != other.ID {
		t.Fatalf("only the other user's access token should remain, got %+v", tokens)
	}
	if logs := s.ListAuditLogs(); logs[0].UserID != nil {
		t.Fatal("audit rows should keep history with a cleared user id")
	}
	if err := s.DeleteUser(ctx, u.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := seedUser(t, s, "e@example.com")
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	oldAccess := &models.AccessToken{UserID: u.ID, Token: "old", ExpiresAt: base.Add(-time.Minute)}
	_ = s.SaveAccessToken(ctx, oldAccess)
	_ = s.SaveAccessToken(ctx, &models.AccessToken{UserID: u.ID, Token: "fresh", ExpiresAt: base.Add(time.Hour)})
	_ = s.SaveRefreshToken(ctx, &models.RefreshToken{UserID: u.ID, Token: "r-old", ExpiresAt: base})
	_ = s.SaveRefreshToken(ctx, &models.RefreshToken{UserID: u.ID, AccessTokenID: &oldAccess.ID, Token: "r-live", ExpiresAt: base.Add(time.Hour)})

	n, err := s.DeleteExpired(ctx, base)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 purged rows, got %d", n)
	}
	live, err := s.FindRefreshToken(ctx, "r-live")
	if err != nil {
		t.Fatalf("live refresh token should survive: %v", err)
	}
	if live.AccessTokenID != nil {
		t.Fatal("link to a purged access token should be cleared")
	}
}

func TestTransactionRollback(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Users().CreateUser(ctx, &models.User{FullName: "Tx User", Email: "tx@example.com"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if n, _ := s.CountUsers(ctx); n != 0 {
		t.Fatalf("rolled back user should not persist, count=%d", n)
	}

	err = s.Transaction(ctx, func(tx repository.Store) error {
		return tx.Users().CreateUser(ctx, &models.User{FullName: "Tx User", Email: "tx@example.com"})
	})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if n, _ := s.CountUsers(ctx); n != 1 {
		t.Fatalf("committed user should persist, count=%d", n)
	}
}

func TestNestedTransaction(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.Transaction(ctx, func(tx repository.Store) error {
		_ = tx.Users().CreateUser(ctx, &models.User{FullName: "Outer", Email: "outer@example.com"})
		inner := tx.Transaction(ctx, func(tx2 repository.Store) error {
			_ = tx2.Users().CreateUser(ctx, &models.User{FullName: "Inner", Email: "inner@example.com"})
			return errors.New("inner failure")
		})
		if inner == nil {
			t.Fatal("expected inner error")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if exists, _ := s.ExistsByEmail(ctx, "inner@example.com"); exists {
		t.Fatal("inner rollback should discard its writes")
	}
	if exists, _ := s.ExistsByEmail(ctx, "outer@example.com"); !exists {
		t.Fatal("outer writes should commit")
	}
}

func TestInjectError(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("db down")
	s.InjectError("CountUsers", boom)

	if _, err := s.CountUsers(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if _, err := s.CountUsers(ctx); err != nil {
		t.Fatalf("fault should fire once, got %v", err)
	}
}

func TestConcurrentSignupsSameEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	success := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Transaction(ctx, func(tx repository.Store) error {
				return tx.Users().CreateUser(ctx, &models.User{FullName: "Racer", Email: "race@example.com"})
			})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if success != 1 {
		t.Fatalf("exactly one signup should win, got %d", success)
	}
}
