package similarity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yourusername/practice-api/internal/domain/repository"
	"github.com/yourusername/practice-api/internal/pkg/logger"
)

const cacheWindowKeyPrefix = "practice:recent:"

// CacheWindow - окно в Redis-списке (LPUSH + LTRIM + TTL), общее для всех инстансов
type CacheWindow struct {
	cache    repository.CacheRepository
	capacity int
	ttl      time.Duration
	log      *logger.Logger
}

// NewCacheWindow создает окно поверх CacheRepository
func NewCacheWindow(cache repository.CacheRepository, capacity int, ttl time.Duration, log *logger.Logger) *CacheWindow {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &CacheWindow{cache: cache, capacity: capacity, ttl: ttl, log: log}
}

func (w *CacheWindow) key(studentID uint, topicKey string) string {
	return cacheWindowKeyPrefix + windowKey(studentID, topicKey)
}

// Recent читает окно из Redis. Повреждённые элементы пропускаются.
func (w *CacheWindow) Recent(ctx context.Context, studentID uint, topicKey string) ([]Entry, error) {
	key := w.key(studentID, topicKey)
	raw, err := w.cache.ListRange(ctx, key, w.capacity)
	if err != nil {
		return nil, fmt.Errorf("read recent window %s: %w", key, err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			w.log.Warn("[CacheWindow] Пропущен повреждённый элемент окна", "key", key, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Remember кладёт запись в голову списка и продлевает TTL
func (w *CacheWindow) Remember(ctx context.Context, studentID uint, topicKey string, entry Entry) error {
	if entry.ShownAt.IsZero() {
		entry.ShownAt = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode window entry: %w", err)
	}
	return w.cache.PushCapped(ctx, w.key(studentID, topicKey), data, w.capacity, w.ttl)
}
