// Package memory is an in-process UserRepository used for local development and
// tests. A single mutex serializes every operation, which gives the same
// per-document atomicity the database backends provide.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/password-reset-api/internal/domain"
	"github.com/njprem/password-reset-api/internal/repository/ports"
)

type UserRepository struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	byEmail map[string]string
	byToken map[string]string
	now     func() time.Time
}

func NewUserRepo() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
		byToken: make(map[string]string),
		now:     time.Now,
	}
}

func (r *UserRepository) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	email = domain.NormalizeEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return nil, ports.ErrDuplicateEmail
	}
	now := r.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byID[user.ID] = user
	r.byEmail[email] = user.ID
	return user.Clone(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *UserRepository) FindByResetToken(ctx context.Context, token string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ports.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byToken[token]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[user.ID]
	if !ok {
		return ports.ErrNotFound
	}
	r.dropTokenLocked(stored)
	stored.PasswordHash = user.PasswordHash
	if user.HasPendingReset() {
		stored.SetReset(*user.ResetToken, *user.ResetTokenExpiry)
		r.byToken[*user.ResetToken] = stored.ID
	}
	stored.UpdatedAt = r.now().UTC()
	return nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[userID]
	if !ok {
		return ports.ErrNotFound
	}
	r.dropTokenLocked(stored)
	stored.SetReset(token, expiresAt)
	stored.UpdatedAt = r.now().UTC()
	r.byToken[token] = stored.ID
	return nil
}

func (r *UserRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.userByTokenLocked(token)
	if !ok || stored.ResetExpired(now) {
		return ports.ErrNotFound
	}
	r.dropTokenLocked(stored)
	stored.PasswordHash = passwordHash
	stored.UpdatedAt = r.now().UTC()
	return nil
}

func (r *UserRepository) ClearResetToken(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.userByTokenLocked(token)
	if !ok {
		return ports.ErrNotFound
	}
	r.dropTokenLocked(stored)
	stored.UpdatedAt = r.now().UTC()
	return nil
}

func (r *UserRepository) userByTokenLocked(token string) (*domain.User, bool) {
	if token == "" {
		return nil, false
	}
	id, ok := r.byToken[token]
	if !ok {
		return nil, false
	}
	return r.byID[id], true
}

func (r *UserRepository) dropTokenLocked(u *domain.User) {
	if u.ResetToken != nil {
		delete(r.byToken, *u.ResetToken)
	}
	u.ClearReset()
}
