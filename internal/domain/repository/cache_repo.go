package repository

import (
	"context"
	"time"
)

// CacheRepository - общий для инстансов кеш: сессионное окно и счётчики лимитов
type CacheRepository interface {
	// PushCapped добавляет значение в начало списка, обрезает список до capacity
	// и продлевает TTL одной транзакцией
	PushCapped(ctx context.Context, key string, value interface{}, capacity int, expiration time.Duration) error
	// ListRange возвращает до limit элементов списка, начиная с самого нового
	ListRange(ctx context.Context, key string, limit int) ([]string, error)
	// IncrementWindow увеличивает счётчик фиксированного окна. Первый инкремент
	// ставит TTL = window. Возвращает новое значение и оставшееся время жизни ключа.
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}
