// Package redisstore keeps session keys in Redis so several readers on one
// machine, or a devtools server, can share a signed-in user.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wilhg/persephone/pkg/session"
)

// Store implements session.Storage. All keys are namespaced as
// persephone:{namespace}:{key}.
type Store struct {
	rdb       *redis.Client
	namespace string
	ttl       time.Duration
}

// Option configures the store.
type Option func(*Store)

// WithTTL expires keys after d. Zero keeps them forever.
func WithTTL(d time.Duration) Option { return func(s *Store) { s.ttl = d } }

// New creates a store for the given namespace.
func New(opts *redis.Options, namespace string, options ...Option) (*Store, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}
	s := &Store{rdb: redis.NewClient(opts), namespace: namespace}
	for _, o := range options {
		o(s)
	}
	return s, nil
}

// NewFromURL parses a redis:// URL.
func NewFromURL(rawURL, namespace string, options ...Option) (*Store, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return New(opts, namespace, options...)
}

// Key returns the namespaced Redis key for key.
func (s *Store) Key(key string) string {
	return fmt.Sprintf("persephone:%s:%s", s.namespace, key)
}

func (s *Store) Ping(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }

func (s *Store) Close() error { return s.rdb.Close() }

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, s.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from Redis: %w", key, err)
	}
	return b, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.rdb.Set(ctx, s.Key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s to Redis: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.Key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from Redis: %w", key, err)
	}
	return nil
}
