package repository

import (
	"context"

	"gorm.io/gorm"
)

var _ Store = (*GormStore)(nil)

// GormStore is the relational Store backed by a GORM connection
type GormStore struct {
	db     *gorm.DB
	users  *GormUserRepository
	tokens *GormTokenRepository
	audit  *GormAuditRepository
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:     db,
		users:  NewUserRepo(db),
		tokens: NewTokenRepo(db),
		audit:  NewAuditRepo(db),
	}
}

func (s *GormStore) Users() UserRepository   { return s.users }
func (s *GormStore) Tokens() TokenRepository { return s.tokens }
func (s *GormStore) Audit() AuditRepository  { return s.audit }

// Transaction runs fn against a Store bound to a single database transaction.
// A returned error or a panic rolls back every write.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}

// Ping checks that the database answers
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
