package repository

import (
	"context"
	"time"

	"user-account-backend/internal/models"
)

// UserRepository persists user accounts
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uint) error
	CountUsers(ctx context.Context) (int64, error)
}

// TokenRepository persists issued access and refresh tokens.
// Refresh tokens are passed in and looked up by their raw value; only the
// digest is ever written.
type TokenRepository interface {
	SaveAccessToken(ctx context.Context, token *models.AccessToken) error
	AccessTokenExists(ctx context.Context, token string) (bool, error)
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, raw string) (*models.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, raw string) error
	DeleteAllTokensForUser(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuditRepository appends audit trail entries
type AuditRepository interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
}

// Store groups the repositories behind one transactional boundary.
// Every write made through the Store handed to fn commits or rolls back
// together.
type Store interface {
	Users() UserRepository
	Tokens() TokenRepository
	Audit() AuditRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
