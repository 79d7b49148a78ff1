// Package redis stores sessions in Redis so several client processes, or
// machines, can share one login per profile.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/librarydesk/library-client/internal/core/ports"
)

const defaultTimeout = 5 * time.Second

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr    string
	DB      int
	Timeout time.Duration
	// Profile namespaces every key.
	Profile string
}

// Connect initialises a Redis client and validates connectivity with a ping.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// Storage is a SessionStorage on a Redis client.
// Key format: library:<profile>:<key>
type Storage struct {
	client  *redis.Client
	profile string
}

// Open connects and returns a Storage that owns the client.
func Open(ctx context.Context, cfg Config) (*Storage, error) {
	client, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(client, cfg.Profile), nil
}

// New wraps an existing client.
func New(client *redis.Client, profile string) *Storage {
	if profile == "" {
		profile = "default"
	}
	return &Storage{client: client, profile: profile}
}

func (s *Storage) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ports.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

// Set stores value without expiry; token expiry is enforced by the session
// manager, not by the store.
func (s *Storage) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Storage) Close(context.Context) error {
	return s.client.Close()
}

func (s *Storage) key(k string) string {
	return fmt.Sprintf("library:%s:%s", s.profile, k)
}
