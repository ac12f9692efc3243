package store

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis-backed store.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379").
	URL string

	// Prefix is prepended to every key. Defaults to "plugbot".
	Prefix string

	// TLS configuration for secure connections.
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment.
	ConnectTimeout time.Duration
}

// RedisStore implements Store on top of go-redis/v9.
//
// Each record is a hash at "<prefix>:instance:<id>", with the set
// "<prefix>:instances" as the index used by All. Plugin namespaces are
// hashes at "<prefix>:plugin:<id>:data".
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies connectivity with a ping.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Prefix == "" {
		opts.Prefix = "plugbot"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, prefix: opts.Prefix}, nil
}

func (s *RedisStore) recordKey(id string) string {
	return fmt.Sprintf("%s:instance:%s", s.prefix, id)
}

func (s *RedisStore) indexKey() string {
	return fmt.Sprintf("%s:instances", s.prefix)
}

func (s *RedisStore) namespaceKey(id string) string {
	return fmt.Sprintf("%s:plugin:%s:data", s.prefix, id)
}

// Get returns the record with the given ID.
func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	fields, err := s.client.HGetAll(ctx, s.recordKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	enabled, _ := strconv.ParseBool(fields["enabled"])
	return &Record{
		ID:          fields["id"],
		Type:        fields["type"],
		Enabled:     enabled,
		PrimaryUser: fields["primary_user"],
		RawConfig:   fields["config"],
	}, nil
}

// Put inserts or replaces a record.
func (s *RedisStore) Put(ctx context.Context, rec *Record) error {
	if rec == nil || rec.ID == "" {
		return ErrInvalidID
	}

	fields := map[string]any{
		"id":           rec.ID,
		"type":         rec.Type,
		"enabled":      strconv.FormatBool(rec.Enabled),
		"primary_user": rec.PrimaryUser,
		"config":       rec.RawConfig,
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.recordKey(rec.ID), fields)
	pipe.SAdd(ctx, s.indexKey(), rec.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write record %s: %w", rec.ID, err)
	}
	return nil
}

// Delete removes the record with the given ID.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	removed, err := s.client.SRem(ctx, s.indexKey(), id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	if err := s.client.Del(ctx, s.recordKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return nil
}

// All returns every persisted record.
func (s *RedisStore) All(ctx context.Context) ([]*Record, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	out := make([]*Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// Index entry without a hash; skip the stale reference.
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Namespace returns the private data bucket for the given instance ID.
func (s *RedisStore) Namespace(id string) Namespace {
	return &redisNamespace{client: s.client, key: s.namespaceKey(id)}
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

type redisNamespace struct {
	client *redis.Client
	key    string
}

func (n *redisNamespace) Get(ctx context.Context, key string) (string, error) {
	v, err := n.client.HGet(ctx, n.key, key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s/%s: %w", n.key, key, err)
	}
	return v, nil
}

func (n *redisNamespace) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := n.client.HSet(ctx, n.key, key, value).Err(); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", n.key, key, err)
	}
	return nil
}

func (n *redisNamespace) Delete(ctx context.Context, key string) error {
	removed, err := n.client.HDel(ctx, n.key, key).Result()
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", n.key, key, err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

func (n *redisNamespace) Keys(ctx context.Context) ([]string, error) {
	keys, err := n.client.HKeys(ctx, n.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys in %s: %w", n.key, err)
	}
	return keys, nil
}

func (n *redisNamespace) Clear(ctx context.Context) error {
	if err := n.client.Del(ctx, n.key).Err(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", n.key, err)
	}
	return nil
}
