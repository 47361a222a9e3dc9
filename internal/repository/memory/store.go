// Package memory is an in-process repository.Store used by tests and local
// runs without a database. It keeps the same contract as the GORM store:
// unique emails and tokens, cascading deletes, digest-only refresh tokens and
// all-or-nothing transactions.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"user-account-backend/internal/models"
	"user-account-backend/internal/repository"
	"user-account-backend/pkg/utils"
)

var _ repository.Store = (*Store)(nil)

type state struct {
	users   map[uint]models.User
	access  map[uint]models.AccessToken
	refresh map[uint]models.RefreshToken
	audit   []models.AuditLog

	nextUser, nextAccess, nextRefresh, nextAudit uint
}

func newState() *state {
	return &state{
		users:   make(map[uint]models.User),
		access:  make(map[uint]models.AccessToken),
		refresh: make(map[uint]models.RefreshToken),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:       make(map[uint]models.User, len(s.users)),
		access:      make(map[uint]models.AccessToken, len(s.access)),
		refresh:     make(map[uint]models.RefreshToken, len(s.refresh)),
		audit:       append([]models.AuditLog(nil), s.audit...),
		nextUser:    s.nextUser,
		nextAccess:  s.nextAccess,
		nextRefresh: s.nextRefresh,
		nextAudit:   s.nextAudit,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.access {
		c.access[k] = v
	}
	for k, v := range s.refresh {
		c.refresh[k] = v
	}
	return c
}

type db struct {
	// mu guards current and faults. It is held for the whole of a transaction.
	mu      sync.Mutex
	current *state
	faults  map[string]error
}

// fault pops the error injected for op, if any. Callers hold mu.
func (d *db) fault(op string) error {
	err, ok := d.faults[op]
	if !ok {
		return nil
	}
	delete(d.faults, op)
	return err
}

// Store is safe for concurrent use. Transactions are serialised.
type Store struct {
	db *db
	tx *state
}

func New() *Store {
	return &Store{db: &db{current: newState(), faults: make(map[string]error)}}
}

// InjectError makes the next call of the named method return err
func (s *Store) InjectError(op string, err error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.faults[op] = err
}

func (s *Store) Users() repository.UserRepository   { return s }
func (s *Store) Tokens() repository.TokenRepository { return s }
func (s *Store) Audit() repository.AuditRepository  { return s }

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Transaction runs fn on a private copy of the data and publishes it only
// when fn returns nil
func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		child := s.tx.clone()
		if err := fn(&Store{db: s.db, tx: child}); err != nil {
			return err
		}
		*s.tx = *child
		return nil
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	work := s.db.current.clone()
	if err := fn(&Store{db: s.db, tx: work}); err != nil {
		return err
	}
	s.db.current = work
	return nil
}

func (s *Store) do(ctx context.Context, op string, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		if err := s.db.fault(op); err != nil {
			return err
		}
		return fn(s.tx)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.fault(op); err != nil {
		return err
	}
	return fn(s.db.current)
}

func now() time.Time {
	return time.Now().UTC()
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.do(ctx, "CreateUser", func(st *state) error {
		for _, u := range st.users {
			if u.Email == user.Email {
				return repository.ErrDuplicate
			}
		}
		st.nextUser++
		user.ID = st.nextUser
		user.CreatedAt = now()
		user.UpdatedAt = user.CreatedAt
		st.users[user.ID] = *user
		return nil
	})
}

func (s *Store) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var found models.User
	err := s.do(ctx, "FindUserByID", func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		found = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var found models.User
	err := s.do(ctx, "FindUserByEmail", func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				found = u
				return nil
			}
		}
		return repository.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.do(ctx, "ExistsByEmail", func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	return s.do(ctx, "UpdateUser", func(st *state) error {
		existing, ok := st.users[user.ID]
		if !ok {
			return repository.ErrNotFound
		}
		for id, u := range st.users {
			if id != user.ID && u.Email == user.Email {
				return repository.ErrDuplicate
			}
		}
		existing.FullName = user.FullName
		existing.Email = user.Email
		existing.PasswordHash = user.PasswordHash
		existing.IsActive = user.IsActive
		existing.UpdatedAt = now()
		st.users[user.ID] = existing
		user.UpdatedAt = existing.UpdatedAt
		return nil
	})
}

func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return s.do(ctx, "DeleteUser", func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.users, id)
		for k, t := range st.refresh {
			if t.UserID == id {
				delete(st.refresh, k)
			}
		}
		for k, t := range st.access {
			if t.UserID == id {
				delete(st.access, k)
			}
		}
		for i := range st.audit {
			if st.audit[i].UserID != nil && *st.audit[i].UserID == id {
				st.audit[i].UserID = nil
			}
		}
		return nil
	})
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.do(ctx, "CountUsers", func(st *state) error {
		n = int64(len(st.users))
		return nil
	})
	return n, err
}

// Tokens

func (s *Store) SaveAccessToken(ctx context.Context, token *models.AccessToken) error {
	return s.do(ctx, "SaveAccessToken", func(st *state) error {
		if token.ExpiresAt.IsZero() {
			return models.ErrMissingExpiry
		}
		if _, ok := st.users[token.UserID]; !ok {
			return fmt.Errorf("access token references unknown user %d", token.UserID)
		}
		for _, t := range st.access {
			if t.Token == token.Token {
				return repository.ErrDuplicate
			}
		}
		st.nextAccess++
		token.ID = st.nextAccess
		token.CreatedAt = now()
		st.access[token.ID] = *token
		return nil
	})
}

func (s *Store) AccessTokenExists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := s.do(ctx, "AccessTokenExists", func(st *state) error {
		for _, t := range st.access {
			if t.Token == token {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

func (s *Store) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return s.do(ctx, "SaveRefreshToken", func(st *state) error {
		if token.ExpiresAt.IsZero() {
			return models.ErrMissingExpiry
		}
		if _, ok := st.users[token.UserID]; !ok {
			return fmt.Errorf("refresh token references unknown user %d", token.UserID)
		}
		row := *token
		row.Token = utils.HashRefreshToken(token.Token)
		for _, t := range st.refresh {
			if t.Token == row.Token {
				return repository.ErrDuplicate
			}
		}
		st.nextRefresh++
		row.ID = st.nextRefresh
		row.CreatedAt = now()
		st.refresh[row.ID] = row
		token.ID = row.ID
		token.CreatedAt = row.CreatedAt
		return nil
	})
}

func (s *Store) FindRefreshToken(ctx context.Context, raw string) (*models.RefreshToken, error) {
	digest := utils.HashRefreshToken(raw)
	var found models.RefreshToken
	err := s.do(ctx, "FindRefreshToken", func(st *state) error {
		for _, t := range st.refresh {
			if t.Token == digest {
				found = t
				return nil
			}
		}
		return repository.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (s *Store) DeleteRefreshToken(ctx context.Context, raw string) error {
	digest := utils.HashRefreshToken(raw)
	return s.do(ctx, "DeleteRefreshToken", func(st *state) error {
		for k, t := range st.refresh {
			if t.Token == digest {
				delete(st.refresh, k)
			}
		}
		return nil
	})
}

func (s *Store) DeleteAllTokensForUser(ctx context.Context, userID uint) error {
	return s.do(ctx, "DeleteAllTokensForUser", func(st *state) error {
		for k, t := range st.refresh {
			if t.UserID == userID {
				delete(st.refresh, k)
			}
		}
		for k, t := range st.access {
			if t.UserID == userID {
				delete(st.access, k)
			}
		}
		return nil
	})
}

func (s *Store) DeleteExpired(ctx context.Context, at time.Time) (int64, error) {
	var n int64
	err := s.do(ctx, "DeleteExpired", func(st *state) error {
		for k, t := range st.refresh {
			if !t.ExpiresAt.After(at) {
				delete(st.refresh, k)
				n++
			}
		}
		for k, t := range st.access {
			if t.ExpiresAt.After(at) {
				continue
			}
			delete(st.access, k)
			n++
			for rk, rt := range st.refresh {
				if rt.AccessTokenID != nil && *rt.AccessTokenID == k {
					rt.AccessTokenID = nil
					st.refresh[rk] = rt
				}
			}
		}
		return nil
	})
	return n, err
}

// Audit

func (s *Store) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return s.do(ctx, "CreateAuditLog", func(st *state) error {
		st.nextAudit++
		entry.ID = st.nextAudit
		entry.CreatedAt = now()
		st.audit = append(st.audit, *entry)
		return nil
	})
}

// Inspection helpers for tests. They read committed data only.

func (s *Store) ListUsers() []models.User {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]models.User, 0, len(s.db.current.users))
	for _, u := range s.db.current.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) ListAccessTokens() []models.AccessToken {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]models.AccessToken, 0, len(s.db.current.access))
	for _, t := range s.db.current.access {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) ListRefreshTokens() []models.RefreshToken {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]models.RefreshToken, 0, len(s.db.current.refresh))
	for _, t := range s.db.current.refresh {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) ListAuditLogs() []models.AuditLog {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return append([]models.AuditLog(nil), s.db.current.audit...)
}
