// Package mongo implements the user and task repositories on MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// defaultTimeout bounds every single repository call.
const defaultTimeout = 10 * time.Second

// Config selects the deployment and database.
type Config struct {
	URI         string
	Database    string
	MaxPoolSize uint64        // 0 keeps the driver default
	Timeout     time.Duration // 0 means defaultTimeout
}

// Connect dials the deployment, waits for the primary to answer and returns
// the client together with the configured database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName("task-api").
		SetServerSelectionTimeout(timeout).
		SetTimeout(timeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// EnsureIndexes creates the indexes both collections rely on: the unique
// email index and the owner indexes behind every task query.
func EnsureIndexes(ctx context.Context, users *UserRepository, tasks *TaskRepository) error {
	if err := users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	if err := tasks.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("tasks indexes: %w", err)
	}
	return nil
}
