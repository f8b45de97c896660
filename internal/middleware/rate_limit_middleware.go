package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/practice-api/internal/domain/repository"
	"github.com/yourusername/practice-api/internal/handler/helper"
	"github.com/yourusername/practice-api/internal/pkg/logger"
)

// RateLimitConfig содержит настройки rate limiting
type RateLimitConfig struct {
	// MaxRequests - максимальное количество запросов за Window
	MaxRequests int
	// Window - временное окно для подсчёта запросов
	Window time.Duration
	// MaxPerIP - общий потолок для адреса по всем студентам; 0 - без потолка
	MaxPerIP int
	// KeyPrefix - префикс для ключей в Redis
	KeyPrefix string
}

// ipShareFactor: сколько студентов могут работать за одним адресом (класс за NAT)
const ipShareFactor = 4

// PracticeRateLimitConfig - лимит на выдачу вопросов одному студенту
func PracticeRateLimitConfig(perMinute int) RateLimitConfig {
	if perMinute <= 0 {
		perMinute = 30
	}
	return RateLimitConfig{
		MaxRequests: perMinute,
		MaxPerIP:    perMinute * ipShareFactor,
		Window:      time.Minute,
		KeyPrefix:   "rl:practice",
	}
}

// RateLimiter - счётчики запросов в общем кеше с фиксированным окном
type RateLimiter struct {
	cache repository.CacheRepository
	log   *logger.Logger
}

// NewRateLimiter создает новый RateLimiter
func NewRateLimiter(cache repository.CacheRepository, log *logger.Logger) *RateLimiter {
	return &RateLimiter{cache: cache, log: log}
}

// LimitByStudent ограничивает запросы одного студента к маршруту.
// Счётчики: (IP, студент, путь) с MaxRequests и (IP, путь) с MaxPerIP,
// так что смена X-Student-ID не даёт обойти лимит адреса.
func (rl *RateLimiter) LimitByStudent(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		client := helper.StudentKey(c)
		key := fmt.Sprintf("%s:%s:%s", cfg.KeyPrefix, client, path)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, ttl, err := rl.cache.IncrementWindow(ctx, key, cfg.Window)
		if err != nil {
			// кеш недоступен: пропускаем запрос (fail-open)
			rl.log.Warn("[RateLimiter] Кеш недоступен, запрос пропущен", "key", key, "error", err)
			c.Next()
			return
		}
		limit := cfg.MaxRequests

		// без студента ключ и так совпадает с адресом
		if cfg.MaxPerIP > 0 && helper.StudentID(c) != "" {
			ipKey := fmt.Sprintf("%s:%s:%s", cfg.KeyPrefix, helper.IPKey(c), path)
			ipCount, ipTTL, err := rl.cache.IncrementWindow(ctx, ipKey, cfg.Window)
			if err != nil {
				rl.log.Warn("[RateLimiter] Кеш недоступен, лимит адреса не проверен", "key", ipKey, "error", err)
			} else if int(ipCount)-cfg.MaxPerIP > int(count)-limit {
				// адрес ближе к своему потолку, чем студент: отвечаем по нему
				count, ttl, limit = ipCount, ipTTL, cfg.MaxPerIP
			}
		}

		remaining := limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		retryAfter := int(ttl.Seconds())
		if retryAfter <= 0 {
			retryAfter = int(cfg.Window.Seconds())
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", retryAfter))

		if int(count) > limit {
			rl.log.Info("[RateLimiter] Превышен лимит", "client", client, "path", path, "count", count, "limit", limit)

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Please try again later.",
				"error_type":  "rate_limited",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
