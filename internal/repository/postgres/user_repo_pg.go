package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/password-reset-api/internal/domain"
	"github.com/njprem/password-reset-api/internal/repository/ports"
)

const uniqueViolation = "23505"

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	const query = `
        INSERT INTO users (id, email, password_hash)
        VALUES ($1, $2, $3)
        RETURNING id, email, password_hash, reset_token, reset_token_expiry, created_at, updated_at
    `
	row := r.db.QueryRowxContext(ctx, query, uuid.NewString(), domain.NormalizeEmail(email), passwordHash)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		if isUniqueViolation(err) {
			return nil, ports.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, email, password_hash, reset_token, reset_token_expiry, created_at, updated_at
        FROM users
        WHERE email = $1
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, domain.NormalizeEmail(email)); err != nil {
		return nil, translate("find user by email", err)
	}
	return &user, nil
}

func (r *UserRepository) FindByResetToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ports.ErrNotFound
	}
	const query = `
        SELECT id, email, password_hash, reset_token, reset_token_expiry, created_at, updated_at
        FROM users
        WHERE reset_token = $1
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, token); err != nil {
		return nil, translate("find user by reset token", err)
	}
	return &user, nil
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users
        SET password_hash = $2,
            reset_token = $3,
            reset_token_expiry = $4,
            updated_at = NOW()
        WHERE id = $1
    `
	res, err := r.db.ExecContext(ctx, query, user.ID, user.PasswordHash, user.ResetToken, user.ResetTokenExpiry)
	return expectOne("save user", res, err)
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	const query = `
        UPDATE users
        SET reset_token = $2,
            reset_token_expiry = $3,
            updated_at = NOW()
        WHERE id = $1
    `
	res, err := r.db.ExecContext(ctx, query, userID, token, expiresAt)
	return expectOne("set reset token", res, err)
}

func (r *UserRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) error {
	if token == "" {
		return ports.ErrNotFound
	}
	const query = `
        UPDATE users
        SET password_hash = $2,
            reset_token = NULL,
            reset_token_expiry = NULL,
            updated_at = NOW()
        WHERE reset_token = $1 AND reset_token_expiry >= $3
    `
	res, err := r.db.ExecContext(ctx, query, token, passwordHash, now)
	return expectOne("consume reset token", res, err)
}

func (r *UserRepository) ClearResetToken(ctx context.Context, token string) error {
	if token == "" {
		return ports.ErrNotFound
	}
	const query = `
        UPDATE users
        SET reset_token = NULL,
            reset_token_expiry = NULL,
            updated_at = NOW()
        WHERE reset_token = $1
    `
	res, err := r.db.ExecContext(ctx, query, token)
	return expectOne("clear reset token", res, err)
}

func expectOne(op string, res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func translate(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
