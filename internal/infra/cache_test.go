package infra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRedisCache_NilClientIsNoop(t *testing.T) {
	ctx := context.Background()
	c := NewRedisCache(nil, time.Minute)

	var dest map[string]string
	assert.False(t, c.Get(ctx, "producto:1", &dest))
	assert.NotPanics(t, func() {
		c.Set(ctx, "producto:1", map[string]string{"a": "b"})
		c.Delete(ctx, "producto:1")
		c.DeletePrefix(ctx, "producto:")
	})

	var nilCache *RedisCache
	assert.False(t, nilCache.Get(ctx, "k", &dest))
}

func TestNewRedis_EmptyURLDisables(t *testing.T) {
	rdb, err := NewRedis("")
	assert.NoError(t, err)
	assert.Nil(t, rdb)
}
