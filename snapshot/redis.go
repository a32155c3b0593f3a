package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/krisalay/clientsync/types"
)

const dialTimeout = 5 * time.Second

// Decoder turns a stored JSON value back into the type the cache holds for a namespace.
type Decoder func(raw json.RawMessage) (any, error)

// JSONDecoder decodes into a T value.
func JSONDecoder[T any]() Decoder {
	return func(raw json.RawMessage) (any, error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// envelope is the stored form. StoredAt travels with the value so a reader in
// another process applies the TTL from the original write.
type envelope struct {
	StoredAt time.Time       `json:"storedAt"`
	Value    json.RawMessage `json:"value"`
}

type Option func(*RedisStore)

// WithDecoder registers the decoder for a namespace. Namespaces without one load as nil.
func WithDecoder(namespace string, d Decoder) Option {
	return func(s *RedisStore) { s.decoders[namespace] = d }
}

// WithTTL sets the Redis expiry of a namespace's keys.
func WithTTL(namespace string, ttl time.Duration) Option {
	return func(s *RedisStore) { s.ttls[namespace] = ttl }
}

func WithPrefix(prefix string) Option {
	return func(s *RedisStore) { s.prefix = prefix }
}

/*
RedisStore is a types.SnapshotStore keeping entries of persistent namespaces in Redis.

Keys are prefix + namespace + ":" + key. Each key expires with its namespace TTL,
so Redis never holds what the cache would already consider stale.
*/
type RedisStore struct {
	client redis.Cmdable
	logger *zap.Logger

	prefix   string
	decoders map[string]Decoder
	ttls     map[string]time.Duration
}

var _ types.SnapshotStore = (*RedisStore)(nil)

func NewRedisStore(client redis.Cmdable, logger *zap.Logger, opts ...Option) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RedisStore{
		client:   client,
		logger:   logger,
		prefix:   "clientsync:",
		decoders: make(map[string]Decoder),
		ttls:     make(map[string]time.Duration),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewClient connects and pings Redis.
func NewClient(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	if logger != nil {
		logger.Info("connected to redis", zap.String("address", addr))
	}
	return client, nil
}

func (s *RedisStore) redisKey(namespace, key string) string {
	return s.prefix + namespace + ":" + key
}

func (s *RedisStore) Load(ctx context.Context, namespace, key string) (*types.CacheEntry, error) {
	rk := s.redisKey(namespace, key)

	raw, err := s.client.Get(ctx, rk).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", rk, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.logger.Warn("dropping unreadable snapshot", zap.String("key", rk), zap.Error(err))
		return nil, nil
	}

	dec, ok := s.decoders[namespace]
	if !ok {
		return nil, nil
	}
	value, err := dec(env.Value)
	if err != nil {
		s.logger.Warn("dropping undecodable snapshot", zap.String("key", rk), zap.Error(err))
		return nil, nil
	}

	return &types.CacheEntry{
		Namespace: namespace,
		Key:       key,
		Value:     value,
		StoredAt:  env.StoredAt,
	}, nil
}

func (s *RedisStore) Put(ctx context.Context, ent *types.CacheEntry) error {
	rk := s.redisKey(ent.Namespace, ent.Key)

	value, err := json.Marshal(ent.Value)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", rk, err)
	}
	raw, err := json.Marshal(envelope{StoredAt: ent.StoredAt, Value: value})
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", rk, err)
	}

	if err := s.client.Set(ctx, rk, raw, s.ttls[ent.Namespace]).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", rk, err)
	}
	s.logger.Debug("snapshot stored", zap.String("key", rk))
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, namespace, key string) error {
	rk := s.redisKey(namespace, key)
	if err := s.client.Del(ctx, rk).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", rk, err)
	}
	return nil
}
