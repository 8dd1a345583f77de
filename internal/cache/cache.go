package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CountCache — кэш счётчиков комментариев по ключу ветки.
type CountCache interface {
	// Get возвращает счётчик и признак его наличия в кэше.
	Get(ctx context.Context, subjectKey string) (int, bool, error)
	// Set сохраняет счётчик с TTL.
	Set(ctx context.Context, subjectKey string, count int, ttl time.Duration) error
	// Invalidate удаляет счётчик (вызывается после каждой записи в ветку).
	Invalidate(ctx context.Context, subjectKey string) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "comments:count:".
func NewRedisCache(redisURL, prefix string) (CountCache, error) {
	if prefix == "" {
		prefix = "comments:count:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(subjectKey string) string { return c.prefix + subjectKey }

func (c *redisCache) Get(ctx context.Context, subjectKey string) (int, bool, error) {
	v, err := c.rdb.Get(ctx, c.key(subjectKey)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}

	if err != nil {
		return 0, false, err
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, err
	}

	return n, true, nil
}

func (c *redisCache) Set(ctx context.Context, subjectKey string, count int, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.key(subjectKey), strconv.Itoa(count), ttl).Err()
}

func (c *redisCache) Invalidate(ctx context.Context, subjectKey string) error {
	return c.rdb.Del(ctx, c.key(subjectKey)).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }
