package service

import (
	"context"
	"log/slog"
	"time"

	"user-account-backend/internal/repository"
)

const defaultSweepInterval = time.Hour

// TokenSweeper periodically purges expired access and refresh tokens
type TokenSweeper struct {
	log      *slog.Logger
	tokens   repository.TokenRepository
	interval time.Duration
	now      func() time.Time
}

func NewTokenSweeper(log *slog.Logger, tokens repository.TokenRepository, interval time.Duration) *TokenSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &TokenSweeper{
		log:      log.With("component", "token-sweeper"),
		tokens:   tokens,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start runs the sweep loop until ctx is cancelled
func (w *TokenSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("token sweeper started", "interval", w.interval.String())

	for {
		select {
		case <-ctx.Done():
			w.log.Info("token sweeper stopped")
			return
		case <-ticker.C:
			_, _ = w.SweepOnce(ctx)
		}
	}
}

// SweepOnce deletes every token that has expired by now
func (w *TokenSweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := w.tokens.DeleteExpired(ctx, w.now())
	if err != nil {
		w.log.Error("sweeping expired tokens failed", "error", err)
		return 0, err
	}
	if n > 0 {
		w.log.Info("expired tokens purged", "count", n)
	}
	return n, nil
}
