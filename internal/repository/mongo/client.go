// Package mongo stores users as documents in MongoDB. Uniqueness of emails and of
// pending reset tokens is enforced by indexes created at startup.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	DefaultDatabase = "passwordResetDB"
	usersCollection = "users"
	connectTimeout  = 10 * time.Second
)

// Connect dials the deployment behind uri and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique indexes the user store relies on.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	if _, err := coll.Indexes().CreateMany(ctx, userIndexes()); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func userIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
		{
			// null tokens are left out so any number of users can have no pending reset
			Keys: bson.D{{Key: "reset_token", Value: 1}},
			Options: options.Index().
				SetName("reset_token_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "reset_token", Value: bson.D{{Key: "$type", Value: "string"}}}}),
		},
	}
}
