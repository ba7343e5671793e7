package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/njprem/password-reset-api/internal/domain"
	"github.com/njprem/password-reset-api/internal/repository/ports"
)

type UserRepository struct {
	users *mongo.Collection
	now   func() time.Time
}

func NewUserRepo(db *mongo.Database) *UserRepository {
	return &UserRepository{users: db.Collection(usersCollection), now: time.Now}
}

// Collection exposes the underlying collection for index bootstrapping.
func (r *UserRepository) Collection() *mongo.Collection {
	return r.users
}

func (r *UserRepository) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	now := r.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        domain.NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ports.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "find user by email", bson.D{{Key: "email", Value: domain.NormalizeEmail(email)}})
}

func (r *UserRepository) FindByResetToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ports.ErrNotFound
	}
	return r.findOne(ctx, "find user by reset token", tokenFilter(token))
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "password_hash", Value: user.PasswordHash},
		{Key: "reset_token", Value: user.ResetToken},
		{Key: "reset_token_expiry", Value: user.ResetTokenExpiry},
		{Key: "updated_at", Value: r.now().UTC()},
	}}}
	return r.updateOne(ctx, "save user", bson.D{{Key: "_id", Value: user.ID}}, update)
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "reset_token", Value: token},
		{Key: "reset_token_expiry", Value: expiresAt},
		{Key: "updated_at", Value: r.now().UTC()},
	}}}
	return r.updateOne(ctx, "set reset token", bson.D{{Key: "_id", Value: userID}}, update)
}

func (r *UserRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) error {
	if token == "" {
		return ports.ErrNotFound
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "password_hash", Value: passwordHash},
		{Key: "reset_token", Value: nil},
		{Key: "reset_token_expiry", Value: nil},
		{Key: "updated_at", Value: r.now().UTC()},
	}}}
	return r.updateOne(ctx, "consume reset token", unexpiredTokenFilter(token, now), update)
}

func (r *UserRepository) ClearResetToken(ctx context.Context, token string) error {
	if token == "" {
		return ports.ErrNotFound
	}
	return r.updateOne(ctx, "clear reset token", tokenFilter(token), clearResetUpdate(r.now().UTC()))
}

func (r *UserRepository) findOne(ctx context.Context, op string, filter bson.D) (*domain.User, error) {
	var user domain.User
	if err := r.users.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translate(op, err)
	}
	return &user, nil
}

func (r *UserRepository) updateOne(ctx context.Context, op string, filter, update bson.D) error {
	res, err := r.users.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate(op, err)
	}
	if res.MatchedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func tokenFilter(token string) bson.D {
	return bson.D{{Key: "reset_token", Value: token}}
}

// unexpiredTokenFilter matches the pending reset only while it is still valid at now.
func unexpiredTokenFilter(token string, now time.Time) bson.D {
	return bson.D{
		{Key: "reset_token", Value: token},
		{Key: "reset_token_expiry", Value: bson.D{{Key: "$gte", Value: now}}},
	}
}

func clearResetUpdate(now time.Time) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: "reset_token", Value: nil},
		{Key: "reset_token_expiry", Value: nil},
		{Key: "updated_at", Value: now},
	}}}
}

func translate(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ports.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
