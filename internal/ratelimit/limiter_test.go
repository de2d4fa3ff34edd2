package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_New(t *testing.T) {
	limiter := New()

	assert.NotNil(t, limiter)
	assert.Empty(t, limiter.Tiers())
}

func TestLimiter_Allow(t *testing.T) {
	limiter := New()
	limiter.SetTier("public", 1, 5)

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow("public"), "request %d should be allowed", i+1)
	}

	assert.False(t, limiter.Allow("public"), "request 6 should be blocked")
}

func TestLimiter_TiersAreIndependent(t *testing.T) {
	limiter := New()
	limiter.SetTier("public", 1, 2)
	limiter.SetTier("private", 1, 2)

	assert.True(t, limiter.Allow("public"))
	assert.True(t, limiter.Allow("public"))
	assert.False(t, limiter.Allow("public"))

	assert.True(t, limiter.Allow("private"), "private tier has its own tokens")
}

func TestLimiter_UnregisteredTierPassesThrough(t *testing.T) {
	limiter := New()

	for i := 0; i < 100; i++ {
		assert.True(t, limiter.Allow("unknown"))
	}
	assert.NoError(t, limiter.Wait(context.Background(), "unknown"))
}

func TestLimiter_Wait(t *testing.T) {
	limiter := New()
	limiter.SetTier("public", 50, 5)

	for i := 0; i < 5; i++ {
		err := limiter.Wait(context.Background(), "public")
		assert.NoError(t, err)
	}
}

func TestLimiter_Wait_ContextCancellation(t *testing.T) {
	limiter := New()
	limiter.SetTier("private", 1, 1)

	err := limiter.Wait(context.Background(), "private")
	assert.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = limiter.Wait(ctx, "private")
	assert.Error(t, err)
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := New()
	limiter.SetTier("public", 1, 100)

	var wg sync.WaitGroup
	results := make(chan bool, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- limiter.Allow("public")
		}()
	}

	wg.Wait()
	close(results)

	allowed := 0
	for ok := range results {
		if ok {
			allowed++
		}
	}

	assert.LessOrEqual(t, allowed, 101, "should not allow more than the burst")
}

func TestLimiter_Metrics(t *testing.T) {
	limiter := New()
	limiter.SetTier("public", 1, 1)

	limiter.Allow("public")
	limiter.Allow("public")

	snapshot := limiter.Metrics()
	assert.Equal(t, int64(2), snapshot.TotalRequests)
	assert.Equal(t, int64(1), snapshot.AllowedRequests)
	assert.Equal(t, int64(1), snapshot.DeniedRequests)
}

func TestLimiter_SetTierReplaces(t *testing.T) {
	limiter := New()
	limiter.SetTier("public", 1, 1)

	assert.True(t, limiter.Allow("public"))
	assert.False(t, limiter.Allow("public"))

	limiter.SetTier("public", 100, 100)
	assert.True(t, limiter.Allow("public"), "replacement tier starts with a fresh bucket")
}
