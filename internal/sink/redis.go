package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/livp123/firesense/internal/config"
	"github.com/livp123/firesense/internal/report"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key the sink writes.
const DefaultRedisPrefix = "firesense"

// kvStore is the subset of Redis the sink needs.
type kvStore interface {
	SetLatest(ctx context.Context, key string, value []byte, ttl time.Duration) error
	PushHistory(ctx context.Context, key string, value []byte, size int) error
	Close() error
}

// Redis keeps the latest report and a bounded history list.
// Redis 保存最新报告和有界的历史列表。
type Redis struct {
	store       kvStore
	prefix      string
	ttl         time.Duration
	historySize int
}

// NewRedis connects to cfg.Addr and checks the connection.
// NewRedis 连接 cfg.Addr 并检查连接。
func NewRedis(ctx context.Context, cfg config.RedisSinkConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return newRedisWithStore(&goRedisStore{client: client}, cfg), nil
}

func newRedisWithStore(store kvStore, cfg config.RedisSinkConfig) *Redis {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{
		store:       store,
		prefix:      prefix,
		ttl:         config.ParseDuration(cfg.TTL, 0),
		historySize: cfg.HistorySize,
	}
}

func (r *Redis) Name() string { return "redis" }

// LatestKey is where the most recent report is stored.
func (r *Redis) LatestKey() string { return r.prefix + ":latest" }

// HistoryKey is the list of recent reports, newest first.
func (r *Redis) HistoryKey() string { return r.prefix + ":history" }

func (r *Redis) Publish(ctx context.Context, rep *report.Report) error {
	value, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := r.store.SetLatest(ctx, r.LatestKey(), value, r.ttl); err != nil {
		return err
	}
	if r.historySize > 0 {
		return r.store.PushHistory(ctx, r.HistoryKey(), value, r.historySize)
	}
	return nil
}

func (r *Redis) Close() error { return r.store.Close() }

type goRedisStore struct {
	client *redis.Client
}

func (s *goRedisStore) SetLatest(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *goRedisStore) PushHistory(ctx context.Context, key string, value []byte, size int) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, value)
		p.LTrim(ctx, key, 0, int64(size-1))
		return nil
	})
	return err
}

func (s *goRedisStore) Close() error { return s.client.Close() }
