package planner

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCachedPlanner_HitSkipsModel(t *testing.T) {
	_, rdb := setupRedis(t)
	c := &stubCompleter{reply: `{"metrics":["conversions"],"dimensions":["eventName"],"date_range":"last_90_days"}`}
	cached := NewCachedPlanner(NewModelPlanner(c), rdb, time.Hour, discardLogger())

	first, err := cached.Plan(context.Background(), "Conversions by event")
	require.NoError(t, err)

	second, err := cached.Plan(context.Background(), "  conversions BY event ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, c.prompts, 1)
}

func TestCachedPlanner_EntriesExpire(t *testing.T) {
	mr, rdb := setupRedis(t)
	c := &stubCompleter{reply: `{"metrics":["sessions"]}`}
	cached := NewCachedPlanner(NewModelPlanner(c), rdb, time.Minute, discardLogger())

	_, err := cached.Plan(context.Background(), "sessions")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL(cacheKey("sessions")))

	mr.FastForward(2 * time.Minute)
	_, err = cached.Plan(context.Background(), "sessions")
	require.NoError(t, err)
	assert.Len(t, c.prompts, 2)
}

func TestCachedPlanner_DoesNotStoreFailures(t *testing.T) {
	mr, rdb := setupRedis(t)
	cached := NewCachedPlanner(NewModelPlanner(&stubCompleter{reply: "nope"}), rdb, time.Hour, discardLogger())

	_, err := cached.Plan(context.Background(), "sessions")
	assert.ErrorIs(t, err, ErrMalformedPlan)
	assert.False(t, mr.Exists(cacheKey("sessions")))
}

func TestCachedPlanner_RedisDownIsAMiss(t *testing.T) {
	mr, rdb := setupRedis(t)
	mr.Close()

	c := &stubCompleter{reply: `{"metrics":["sessions"]}`}
	plan, err := NewCachedPlanner(NewModelPlanner(c), rdb, time.Hour, discardLogger()).Plan(context.Background(), "sessions")
	require.NoError(t, err)
	assert.Equal(t, []string{"sessions"}, plan.Metrics)
}

func TestCachedPlanner_CorruptEntryIsReplaced(t *testing.T) {
	mr, rdb := setupRedis(t)
	require.NoError(t, mr.Set(cacheKey("sessions"), "{not json"))

	c := &stubCompleter{reply: `{"metrics":["sessions"]}`}
	_, err := NewCachedPlanner(NewModelPlanner(c), rdb, time.Hour, discardLogger()).Plan(context.Background(), "sessions")
	require.NoError(t, err)

	stored, err := mr.Get(cacheKey("sessions"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"metrics":["sessions"],"dimensions":["date"],"date_range":"last_7_days"}`, stored)
}
