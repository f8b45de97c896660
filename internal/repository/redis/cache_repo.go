package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/yourusername/practice-api/internal/domain/repository"
	apperrors "github.com/yourusername/practice-api/internal/pkg/errors"
)

// CacheRepo реализует repository.CacheRepository
type CacheRepo struct {
	client redis.UniversalClient
}

var _ repository.CacheRepository = (*CacheRepo)(nil)

// NewCacheRepo создает новый репозиторий кеша и возвращает ошибку при проблемах
func NewCacheRepo(client redis.UniversalClient) (*CacheRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for CacheRepo")
	}
	return &CacheRepo{client: client}, nil
}

// PushCapped кладёт значение в голову списка и держит в нём не больше capacity элементов
func (r *CacheRepo) PushCapped(ctx context.Context, key string, value interface{}, capacity int, expiration time.Duration) error {
	if capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", apperrors.ErrValidation)
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, value)
		pipe.LTrim(ctx, key, 0, int64(capacity-1))
		if expiration > 0 {
			pipe.Expire(ctx, key, expiration)
		}
		return nil
	})
	return err
}

// ListRange возвращает до limit самых новых элементов списка
func (r *CacheRepo) ListRange(ctx context.Context, key string, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	values, err := r.client.LRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, err
	}
	return values, nil
}

// IncrementWindow: INCR, затем TTL. Ключ без TTL (первый инкремент или сбой
// после INCR) получает EXPIRE = window, чтобы счётчик не зависал навсегда.
func (r *CacheRepo) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if window <= 0 {
		return 0, 0, fmt.Errorf("%w: window must be positive", apperrors.ErrValidation)
	}
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	if _, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	}); err != nil {
		return 0, 0, err
	}

	left := ttl.Val()
	if left < 0 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return incr.Val(), window, err
		}
		left = window
	}
	return incr.Val(), left, nil
}
