package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ChartFlux/internal/domain/models"
	domrepo "ChartFlux/internal/domain/repository"
)

// RedisDrawingStore keeps per-(symbol, timeframe) annotation blobs in
// Redis. Drawings are opaque JSON from the chart frontend; the store never
// inspects them.
type RedisDrawingStore struct {
	client *redis.Client
	prefix string
}

// RedisOption configures RedisDrawingStore.
type RedisOption func(*redisConfig)

type redisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// WithRedisAddr sets the Redis address.
func WithRedisAddr(addr string) RedisOption {
	return func(c *redisConfig) { c.Addr = addr }
}

// WithRedisAuth sets password and database number.
func WithRedisAuth(password string, db int) RedisOption {
	return func(c *redisConfig) {
		c.Password = password
		c.DB = db
	}
}

// WithRedisPrefix sets the key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *redisConfig) { c.Prefix = prefix }
}

// NewRedisDrawingStore connects and pings Redis.
func NewRedisDrawingStore(opts ...RedisOption) (*RedisDrawingStore, error) {
	cfg := &redisConfig{
		Addr:   "localhost:6379",
		Prefix: "chartflux",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisDrawingStore{client: client, prefix: cfg.Prefix}, nil
}

func (s *RedisDrawingStore) SaveDrawings(ctx context.Context, symbol string, tf models.TimeFrame, drawings string) error {
	if err := s.client.Set(ctx, s.key(symbol, tf), drawings, 0).Err(); err != nil {
		return fmt.Errorf("save drawings: %w", err)
	}
	return nil
}

func (s *RedisDrawingStore) LoadDrawings(ctx context.Context, symbol string, tf models.TimeFrame) (string, error) {
	v, err := s.client.Get(ctx, s.key(symbol, tf)).Result()
	if errors.Is(err, redis.Nil) {
		return "[]", nil
	}
	if err != nil {
		return "", fmt.Errorf("load drawings: %w", err)
	}
	return v, nil
}

func (s *RedisDrawingStore) Close() error {
	return s.client.Close()
}

func (s *RedisDrawingStore) key(symbol string, tf models.TimeFrame) string {
	return fmt.Sprintf("%s:drawings:%s:%s", s.prefix, symbol, tf)
}

var _ domrepo.DrawingStore = (*RedisDrawingStore)(nil)
