// Package redis provides a Redis-backed run store for multi-process
// deployments where runs must survive restarts or be visible across hosts.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/weftworks/weft/pkg/ports"
)

const defaultPrefix = "weft:run:"

// Store implements ports.RunStore on Redis. Records are stored as JSON
// values under prefix+runID, with a ZSET index at prefix+"index" scored by
// expiry time (or 0 for no expiry) so List can lazily drop expired runs.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the store.
type Option func(*Store)

// WithTTL sets an expiry on stored runs. Zero (the default) keeps them
// forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix overrides the key prefix, isolating multiple applications on a
// shared Redis.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New connects to Redis at addr and returns a store.
func New(addr string, opts ...Option) *Store {
	return NewFromClient(backend.NewClient(&backend.Options{Addr: addr}), opts...)
}

// NewFromClient wraps an existing Redis client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.RunStore = (*Store)(nil)

func (s *Store) key(runID string) string {
	return s.prefix + runID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the record, overwriting any previous version.
func (s *Store) Save(ctx context.Context, record *ports.RunRecord) error {
	if record.ID == "" {
		return fmt.Errorf("run record missing ID")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", record.ID, err)
	}

	score := float64(0)
	if s.ttl > 0 {
		score = float64(time.Now().Add(s.ttl).UnixMilli())
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(record.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: record.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis error saving run %s: %w", record.ID, err)
	}
	return nil
}

// Load retrieves a record by run ID.
func (s *Store) Load(ctx context.Context, runID string) (*ports.RunRecord, error) {
	data, err := s.client.Get(ctx, s.key(runID)).Bytes()
	if err != nil {
		if err == backend.Nil {
			return nil, fmt.Errorf("run %s: %w", runID, ports.ErrRunNotFound)
		}
		return nil, fmt.Errorf("redis error loading run %s: %w", runID, err)
	}

	var record ports.RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", runID, err)
	}
	return &record, nil
}

// Delete removes a record and its index entry. Deleting a missing run is
// not an error.
func (s *Store) Delete(ctx context.Context, runID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(runID))
	pipe.ZRem(ctx, s.indexKey(), runID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis error deleting run %s: %w", runID, err)
	}
	return nil
}

// List returns the IDs of all stored runs. Index entries whose expiry score
// has passed are pruned first, keeping the index consistent with key TTLs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if s.ttl > 0 {
		now := fmt.Sprintf("%d", time.Now().UnixMilli())
		if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "1", now).Err(); err != nil {
			return nil, fmt.Errorf("redis error pruning run index: %w", err)
		}
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error listing runs: %w", err)
	}
	return ids, nil
}
