package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/practice-api/internal/pkg/errors"
)

func TestNewCacheRepo_NilClient(t *testing.T) {
	_, err := NewCacheRepo(nil)
	assert.Error(t, err)
}

func TestCacheRepo_ArgumentValidation(t *testing.T) {
	// до сети эти вызовы не доходят
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()
	repo, err := NewCacheRepo(client)
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = repo.IncrementWindow(ctx, "rl:test", 0)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	err = repo.PushCapped(ctx, "practice:recent:1:algebra", "x", 0, time.Minute)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	values, err := repo.ListRange(ctx, "practice:recent:1:algebra", 0)
	require.NoError(t, err)
	assert.Empty(t, values)
}
