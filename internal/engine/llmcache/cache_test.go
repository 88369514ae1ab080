package llmcache

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learning-engine/internal/common/logger"
)

func TestNormalize_EquivalentPromptsCollapse(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{"case", "Explain Fractions", "explain fractions"},
		{"punctuation", "Explain fractions!", "Explain fractions"},
		{"quotes", `Explain "fractions"`, "Explain fractions"},
		{"whitespace", "Explain   fractions\n\tnow", "Explain fractions now"},
		{"combined", "  EXPLAIN, fractions?  Now! ", "explain fractions now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Normalize(tt.b), Normalize(tt.a))
		})
	}
}

func TestNormalize_LongPromptKeepsEdgesPlusHash(t *testing.T) {
	long := strings.Repeat("a", 600) + strings.Repeat("b", 600)

	normalized := Normalize(long)

	assert.Len(t, normalized, 500+8+500)
	assert.Equal(t, strings.Repeat("a", 500), normalized[:500])
	assert.Equal(t, strings.Repeat("b", 500), normalized[len(normalized)-500:])
}

func TestNormalize_LongMultibytePromptStaysValidUTF8(t *testing.T) {
	long := strings.Repeat("é", 600) + strings.Repeat("ü", 600)

	normalized := Normalize(long)

	assert.True(t, utf8.ValidString(normalized))
	runes := []rune(normalized)
	assert.Len(t, runes, 500+8+500)
	assert.Equal(t, strings.Repeat("é", 500), string(runes[:500]))
	assert.Equal(t, strings.Repeat("ü", 500), string(runes[len(runes)-500:]))
}

func TestNormalize_LongPromptsDifferingInMiddleStayDistinct(t *testing.T) {
	prefix := strings.Repeat("a", 500)
	suffix := strings.Repeat("b", 500)

	one := prefix + strings.Repeat("x", 200) + suffix
	two := prefix + strings.Repeat("y", 200) + suffix

	assert.NotEqual(t, Normalize(one), Normalize(two))
}

func TestKey_VariesByProviderAndModel(t *testing.T) {
	base := Key("openai", "gpt-4o-mini", "prompt", "system")

	assert.NotEqual(t, base, Key("gemini", "gpt-4o-mini", "prompt", "system"))
	assert.NotEqual(t, base, Key("openai", "gpt-4o", "prompt", "system"))
	assert.Equal(t, base, Key("openai", "gpt-4o-mini", "Prompt!", "system"))
}

func TestMemoryBackend_EvictsSingleOldestEntry(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(3)

	base := time.Now()
	clock := base
	backend.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		clock = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, backend.Set(ctx, fmt.Sprintf("key-%d", i), "value", time.Hour))
	}
	assert.Equal(t, 3, backend.Len())

	clock = base.Add(10 * time.Second)
	require.NoError(t, backend.Set(ctx, "key-3", "value", time.Hour))

	assert.Equal(t, 3, backend.Len())
	_, found, _ := backend.Get(ctx, "key-0")
	assert.False(t, found, "oldest entry must be evicted")
	for _, key := range []string{"key-1", "key-2", "key-3"} {
		_, found, _ := backend.Get(ctx, key)
		assert.True(t, found, key)
	}
}

func TestMemoryBackend_ExpiredEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(10)

	base := time.Now()
	clock := base
	backend.now = func() time.Time { return clock }

	require.NoError(t, backend.Set(ctx, "key", "value", time.Minute))

	clock = base.Add(30 * time.Second)
	_, found, _ := backend.Get(ctx, "key")
	assert.True(t, found)

	clock = base.Add(2 * time.Minute)
	_, found, _ = backend.Get(ctx, "key")
	assert.False(t, found)
}

func TestCache_RedisRoundTripAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	cache := New(NewRedisBackend(client), 10, time.Minute, logger.NewNoOpLogger())

	_, found := cache.Get(ctx, "explain fractions", "sys", "openai", "m1")
	assert.False(t, found)

	cache.Set(ctx, "explain fractions", "sys", "openai", "m1", `{"ok":true}`, false)

	// Near-identical prompt text hits the same entry.
	got, found := cache.Get(ctx, "Explain   Fractions!", "sys", "openai", "m1")
	assert.True(t, found)
	assert.Equal(t, `{"ok":true}`, got)

	mr.FastForward(2 * time.Minute)
	_, found = cache.Get(ctx, "explain fractions", "sys", "openai", "m1")
	assert.False(t, found)

	stats := cache.Snapshot()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.InDelta(t, 1.0/3.0, stats.HitRatio, 1e-9)
}

func TestCache_ErrorResponsesNeverCached(t *testing.T) {
	ctx := context.Background()
	cache := New(nil, 10, time.Minute, logger.NewNoOpLogger())

	cache.Set(ctx, "prompt", "sys", "openai", "m1", "INVALID_API_KEY: status 401", true)
	cache.Set(ctx, "prompt", "sys", "openai", "m1", "", false)

	_, found := cache.Get(ctx, "prompt", "sys", "openai", "m1")
	assert.False(t, found)
}

func TestCache_FallsBackToMemoryOnBackendErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	defer client.Close()

	ctx := context.Background()
	cache := New(NewRedisBackend(client), 10, time.Minute, logger.NewNoOpLogger())

	key := redisKeyPrefix + Key("openai", "m1", "prompt", "sys")

	// Write fails on the primary and lands in memory instead.
	mock.ExpectSet(key, "response", time.Minute).SetErr(fmt.Errorf("connection refused"))
	cache.Set(ctx, "prompt", "sys", "openai", "m1", "response", false)

	// Read fails on the primary and is served from memory.
	mock.ExpectGet(key).SetErr(fmt.Errorf("connection refused"))
	got, found := cache.Get(ctx, "prompt", "sys", "openai", "m1")

	assert.True(t, found)
	assert.Equal(t, "response", got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_ResetClearsEntriesAndCounters(t *testing.T) {
	ctx := context.Background()
	cache := New(nil, 10, time.Minute, logger.NewNoOpLogger())

	cache.Set(ctx, "prompt", "sys", "openai", "m1", "response", false)
	_, _ = cache.Get(ctx, "prompt", "sys", "openai", "m1")

	cache.Reset(ctx)

	_, found := cache.Get(ctx, "prompt", "sys", "openai", "m1")
	assert.False(t, found)
	assert.Equal(t, int64(1), cache.Snapshot().Misses)
	assert.Equal(t, int64(0), cache.Snapshot().Hits)
}
