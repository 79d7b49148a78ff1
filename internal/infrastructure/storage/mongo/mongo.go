// Package mongo stores sessions in a MongoDB collection, one document per
// profile key.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/librarydesk/library-client/internal/core/ports"
)

const (
	defaultTimeout    = 10 * time.Second
	sessionCollection = "client_sessions"
)

// Config captures the settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
	Profile  string
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

type sessionDoc struct {
	ID        string `bson:"_id"`
	Profile   string `bson:"profile"`
	Key       string `bson:"key"`
	Value     string `bson:"value"`
	UpdatedAt int64  `bson:"updated_at"`
}

// Storage is a SessionStorage on a MongoDB collection.
type Storage struct {
	db      *mongo.Database
	coll    *mongo.Collection
	profile string
	now     func() time.Time
}

// Open connects and returns a Storage that owns the client.
func Open(ctx context.Context, cfg Config) (*Storage, error) {
	_, db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(db, cfg.Profile), nil
}

// New wraps an existing database handle.
func New(db *mongo.Database, profile string) *Storage {
	if profile == "" {
		profile = "default"
	}
	return &Storage{
		db:      db,
		coll:    db.Collection(sessionCollection),
		profile: profile,
		now:     time.Now,
	}
}

func (s *Storage) Get(ctx context.Context, key string) (string, error) {
	var doc sessionDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": s.id(key)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ports.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("mongo find %s: %w", key, err)
	}
	return doc.Value, nil
}

func (s *Storage) Set(ctx context.Context, key, value string) error {
	doc := sessionDoc{
		ID:        s.id(key),
		Profile:   s.profile,
		Key:       key,
		Value:     value,
		UpdatedAt: s.now().Unix(),
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo upsert %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = s.id(k)
	}
	if _, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

func (s *Storage) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func (s *Storage) id(key string) string {
	return s.profile + ":" + key
}
