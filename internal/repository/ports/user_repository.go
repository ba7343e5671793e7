package ports

import (
	"context"
	"errors"
	"time"

	"github.com/njprem/password-reset-api/internal/domain"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository persists users. Every implementation enforces email uniqueness in
// the storage layer and implements the reset token mutations as single conditional
// updates, so a token can be consumed at most once.
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByResetToken(ctx context.Context, token string) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) error

	// SetResetToken replaces any pending reset of the user.
	SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	// ConsumeResetToken sets passwordHash and clears the reset fields, but only while
	// the stored token still equals token and has not expired at now.
	ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) error
	// ClearResetToken clears the reset fields while the stored token equals token.
	ClearResetToken(ctx context.Context, token string) error
}
