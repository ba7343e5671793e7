// Package repository selects and opens the user store named by a connection URL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/njprem/password-reset-api/internal/repository/memory"
	mongostore "github.com/njprem/password-reset-api/internal/repository/mongo"
	"github.com/njprem/password-reset-api/internal/repository/ports"
	"github.com/njprem/password-reset-api/internal/repository/postgres"
)

const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

var ErrUnsupportedStore = errors.New("unsupported storage url")

type Store struct {
	Backend string
	Users   ports.UserRepository
	closeFn func(context.Context) error
}

func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.closeFn == nil {
		return nil
	}
	return s.closeFn(ctx)
}

// BackendFor maps a connection URL scheme to a storage backend.
func BackendFor(rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", fmt.Errorf("%w: empty url", ErrUnsupportedStore)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedStore, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "mongodb", "mongodb+srv":
		return BackendMongo, nil
	case "postgres", "postgresql":
		return BackendPostgres, nil
	case "memory":
		return BackendMemory, nil
	default:
		return "", fmt.Errorf("%w: scheme %q", ErrUnsupportedStore, u.Scheme)
	}
}

// Open connects to the store and prepares its uniqueness constraints.
func Open(ctx context.Context, rawURL, database string) (*Store, error) {
	backend, err := BackendFor(rawURL)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendMongo:
		client, err := mongostore.Connect(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if database == "" {
			database = mongostore.DefaultDatabase
		}
		users := mongostore.NewUserRepo(client.Database(database))
		if err := mongostore.EnsureIndexes(ctx, users.Collection()); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &Store{Backend: backend, Users: users, closeFn: client.Disconnect}, nil

	case BackendPostgres:
		db, err := postgres.New(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}
		return &Store{
			Backend: backend,
			Users:   postgres.NewUserRepo(db),
			closeFn: func(context.Context) error { return db.Close() },
		}, nil

	default:
		return &Store{Backend: backend, Users: memory.NewUserRepo()}, nil
	}
}
