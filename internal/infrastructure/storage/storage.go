// Package storage selects the session storage backend named in config.
package storage

import (
	"context"
	"fmt"

	"github.com/librarydesk/library-client/internal/core/ports"
	"github.com/librarydesk/library-client/internal/infrastructure/storage/file"
	"github.com/librarydesk/library-client/internal/infrastructure/storage/memory"
	mongostore "github.com/librarydesk/library-client/internal/infrastructure/storage/mongo"
	redisstore "github.com/librarydesk/library-client/internal/infrastructure/storage/redis"
	"github.com/librarydesk/library-client/internal/pkg/config"
)

// Backend is a SessionStorage with a connection lifecycle.
type Backend interface {
	ports.SessionStorage
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open builds the backend selected by cfg.Storage.Backend.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		return memory.New(), nil
	case config.StorageFile:
		return file.New(cfg.Storage.File)
	case config.StorageRedis:
		s, err := redisstore.Open(ctx, redisstore.Config{
			Addr:    cfg.Redis.Addr,
			DB:      cfg.Redis.DB,
			Profile: cfg.Storage.Profile,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis storage: %w", err)
		}
		return s, nil
	case config.StorageMongo:
		s, err := mongostore.Open(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Profile:  cfg.Storage.Profile,
		})
		if err != nil {
			return nil, fmt.Errorf("open mongo storage: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
