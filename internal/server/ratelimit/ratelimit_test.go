package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, config *Config) (*Limiter, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	limiter := NewLimiter(config)
	limiter.now = clock.Now
	t.Cleanup(limiter.Stop)
	return limiter, clock
}

func TestTokenBucket_Take(t *testing.T) {
	now := time.Now()
	bucket := newTokenBucket(10, 1.0, now)

	for i := 0; i < 10; i++ {
		allowed, tokens := bucket.take(now)
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, float64(9-i), tokens)
	}

	allowed, _ := bucket.take(now)
	assert.False(t, allowed)
}

func TestTokenBucket_Refill(t *testing.T) {
	now := time.Now()
	bucket := newTokenBucket(10, 1.0, now)
	for i := 0; i < 10; i++ {
		bucket.take(now)
	}

	later := now.Add(1100 * time.Millisecond)
	allowed, _ := bucket.take(later)
	assert.True(t, allowed, "one token refilled")

	allowed, _ = bucket.take(later)
	assert.False(t, allowed)

	allowed, tokens := bucket.take(later.Add(time.Hour))
	assert.True(t, allowed)
	assert.Equal(t, 9.0, tokens, "refill is capped at capacity")
}

func TestTokenBucket_Until(t *testing.T) {
	bucket := newTokenBucket(10, 2.0, time.Now())

	assert.Equal(t, time.Duration(0), bucket.until(5, 5))
	assert.Equal(t, 2500*time.Millisecond, bucket.until(5, 10))
	assert.Equal(t, time.Duration(0), (&tokenBucket{}).until(0, 1))
}

func TestLimiter_Allow(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/resume-status", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/resume-status", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, 6*time.Second, info.RetryAfter)
	assert.True(t, info.ResetTime.After(limiter.now()))
}

func TestLimiter_RefillsOverTime(t *testing.T) {
	limiter, clock := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  60,
		DefaultWindow: time.Minute,
	})

	for i := 0; i < 60; i++ {
		limiter.Allow("c", "/x", "GET")
	}
	allowed, _ := limiter.Allow("c", "/x", "GET")
	require.False(t, allowed)

	clock.Advance(time.Second)
	allowed, _ = limiter.Allow("c", "/x", "GET")
	assert.True(t, allowed)
}

func TestLimiter_Whitelist(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
	})

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/generate", "POST")
		require.True(t, allowed)
		assert.Equal(t, 0, info.Limit)
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		Blacklist:     map[string]bool{"192.168.1.1": true},
	})

	allowed, _ := limiter.Allow("192.168.1.1", "/health", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{Enabled: false})

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/generate", "POST")
		require.True(t, allowed)
		assert.Equal(t, 0, info.Limit)
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(5),
	})

	for i := 0; i < 5; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/generate", "POST")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 5, info.Limit)
	}
	allowed, _ := limiter.Allow("127.0.0.1", "/generate", "POST")
	assert.False(t, allowed, "burst exhausted")

	allowed, info := limiter.Allow("127.0.0.1", "/generate-pdf", "POST")
	assert.True(t, allowed)
	assert.Equal(t, 120, info.Limit)

	allowed, info = limiter.Allow("127.0.0.1", "/resume-status", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)

	allowed, _ = limiter.Allow("10.0.0.2", "/generate", "POST")
	assert.True(t, allowed, "other clients have their own bucket")
}

func TestLimiter_PrefixRoutesShareBucket(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/letters/", Method: "GET", Limit: 2, Window: time.Minute},
		},
	})

	allowed, _ := limiter.Allow("c", "/letters/a", "GET")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("c", "/letters/b", "GET")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("c", "/letters/c", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 1, limiter.bucketCount())
}

func TestLimiter_HealthAndPreflightUnlimited(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Hour,
	})

	for i := 0; i < 10; i++ {
		allowed, _ := limiter.Allow("c", "/health", "GET")
		require.True(t, allowed)
		allowed, _ = limiter.Allow("c", "/generate", "OPTIONS")
		require.True(t, allowed)
	}
	assert.Equal(t, 0, limiter.bucketCount())
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter, _ := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
	})

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("127.0.0.1", "/letters", "GET"); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, allowedCount)
}

func TestLimiter_CleanupRemovesIdleBuckets(t *testing.T) {
	limiter, clock := newTestLimiter(t, &Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
		IdleTimeout:   time.Minute,
	})

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/letters", "GET")
	}
	require.Equal(t, 10, limiter.bucketCount())

	clock.Advance(2 * time.Minute)
	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/letters", "GET")
	}

	limiter.cleanupBuckets()
	assert.Equal(t, 5, limiter.bucketCount())
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Minute})
	limiter.Stop()
	assert.NotPanics(t, limiter.Stop)
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter, _ := newTestLimiter(t, nil)

	allowed, info := limiter.Allow("127.0.0.1", "/letters", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/letters/", Method: "GET", Limit: 1},
		{Path: "/letters/archive/", Method: "GET", Limit: 2},
		{Path: "/generate", Method: "POST", Limit: 3},
	}

	tests := []struct {
		path, method string
		want         int
		found        bool
	}{
		{"/generate", "POST", 3, true},
		{"/generate", "GET", 0, false},
		{"/generate/extra", "POST", 0, false},
		{"/letters/123", "GET", 1, true},
		{"/letters/archive/1", "GET", 2, true},
		{"/health", "GET", 0, true},
		{"/anything", "OPTIONS", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if !tt.found {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Limit)
		})
	}
}

func TestLoadConfigFrom(t *testing.T) {
	env := map[string]string{
		"RATE_LIMIT_DEFAULT_LIMIT":     "50",
		"RATE_LIMIT_DEFAULT_WINDOW":    "30s",
		"RATE_LIMIT_WHITELIST":         "10.0.0.1, 10.0.0.2,",
		"RATE_LIMIT_GENERATE_PER_HOUR": "7",
		"RATE_LIMIT_CLEANUP_INTERVAL":  "bogus",
	}
	config := LoadConfigFrom(func(k string) string { return env[k] })

	assert.True(t, config.Enabled)
	assert.Equal(t, 50, config.DefaultLimit)
	assert.Equal(t, 30*time.Second, config.DefaultWindow)
	assert.Equal(t, 5*time.Minute, config.CleanupInterval)
	assert.Equal(t, map[string]bool{"10.0.0.1": true, "10.0.0.2": true}, config.Whitelist)
	assert.Empty(t, config.Blacklist)

	generate := MatchEndpoint("/generate", "POST", config.EndpointConfigs)
	require.NotNil(t, generate)
	assert.Equal(t, 7, generate.Limit)
}

func TestLoadConfigFrom_Disabled(t *testing.T) {
	config := LoadConfigFrom(func(k string) string {
		if k == "RATE_LIMIT_ENABLED" {
			return "false"
		}
		return ""
	})
	assert.False(t, config.Enabled)
}
