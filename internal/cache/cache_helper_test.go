package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestHelper(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCacheHelper(client, "test:"), mr
}

func TestCacheHelper_SetAndGet(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	type payload struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}

	if err := helper.Set(ctx, "id:1", payload{ID: 1, Name: "go developer"}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got payload
	if err := helper.Get(ctx, "id:1", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != 1 || got.Name != "go developer" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestCacheHelper_GetMiss(t *testing.T) {
	helper, _ := newTestHelper(t)

	var dest map[string]interface{}
	err := helper.Get(context.Background(), "missing", &dest)
	if !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("expected ErrCacheNotFound, got %v", err)
	}
}

func TestCacheHelper_NilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "test:")
	ctx := context.Background()

	if err := helper.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Errorf("Set with nil client should be a no-op, got %v", err)
	}
	if err := helper.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete with nil client should be a no-op, got %v", err)
	}

	var dest string
	if err := helper.Get(ctx, "k", &dest); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("expected ErrCacheNotAvailable, got %v", err)
	}
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	helper, mr := newTestHelper(t)
	ctx := context.Background()

	for _, key := range []string{"job:1:score", "job:1:rank", "job:2:score"} {
		if err := helper.Set(ctx, key, "cached", time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	if err := helper.InvalidatePattern(ctx, "job:1:*"); err != nil {
		t.Fatalf("InvalidatePattern failed: %v", err)
	}

	if mr.Exists("test:job:1:score") || mr.Exists("test:job:1:rank") {
		t.Error("pattern keys should have been removed")
	}
	if !mr.Exists("test:job:2:score") {
		t.Error("non-matching key should have survived")
	}
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return map[string]int{"score": 85}, nil
	}

	var first map[string]int
	if err := helper.CacheOrExecute(ctx, "match:1", &first, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute failed: %v", err)
	}
	if first["score"] != 85 {
		t.Errorf("unexpected result: %v", first)
	}
	if calls != 1 {
		t.Fatalf("expected one fetch call, got %d", calls)
	}

	// Async population may lag, wait for the key to land before re-reading
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if ok, _ := helper.Exists(ctx, "match:1"); ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	var second map[string]int
	if err := helper.CacheOrExecute(ctx, "match:1", &second, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected cached read on second call, fetch ran %d times", calls)
	}
}

func newTestManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCacheManager(client), mr
}

// Match scores are written under MatchScoreKey; every invalidation path
// must actually reach those keys or profile and job edits serve stale
// scores until the TTL runs out.
func TestMatchScoreInvalidation(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, cm *CacheManager, jobID, freelancerID uint) string {
		t.Helper()
		key := MatchScoreKey(jobID, freelancerID)
		if err := cm.Match.Set(ctx, key, map[string]int{"score": 80}, time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		return MatchCacheConfig.Prefix + key
	}

	t.Run("job update drops the job's scores", func(t *testing.T) {
		cm, mr := newTestManager(t)
		stored := seed(t, cm, 1, 2)
		other := seed(t, cm, 3, 2)

		InvalidateJobCache(ctx, cm, 1, 10)

		if mr.Exists(stored) {
			t.Error("match score survived job invalidation")
		}
		if !mr.Exists(other) {
			t.Error("other job's score should have survived")
		}
	})

	t.Run("profile update drops the freelancer's scores", func(t *testing.T) {
		cm, mr := newTestManager(t)
		stored := seed(t, cm, 1, 2)
		other := seed(t, cm, 1, 20)

		// Same pattern the user repository issues after Update
		SafeInvalidatePattern(ctx, cm.Match, "*:freelancer:2")

		if mr.Exists(stored) {
			t.Error("match score survived freelancer profile invalidation")
		}
		if !mr.Exists(other) {
			t.Error("freelancer 20's score should have survived")
		}
	})

	t.Run("InvalidateUser drops the user's scores", func(t *testing.T) {
		cm, mr := newTestManager(t)
		stored := seed(t, cm, 1, 2)

		if err := cm.User.Set(ctx, "id:2", map[string]int{"id": 2}, time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := cm.InvalidateUser(ctx, 2); err != nil {
			t.Fatalf("InvalidateUser failed: %v", err)
		}

		if mr.Exists(stored) {
			t.Error("match score survived InvalidateUser")
		}
	})

	t.Run("InvalidateJob drops the job's scores", func(t *testing.T) {
		cm, mr := newTestManager(t)
		stored := seed(t, cm, 7, 2)

		if err := cm.InvalidateJob(ctx, 7); err != nil {
			t.Fatalf("InvalidateJob failed: %v", err)
		}

		if mr.Exists(stored) {
			t.Error("match score survived InvalidateJob")
		}
	})
}

func TestCacheManager_HealthCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cm := NewCacheManager(client)
	if err := cm.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}

	nilCM := NewCacheManager(nil)
	if err := nilCM.HealthCheck(context.Background()); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("expected ErrCacheNotAvailable, got %v", err)
	}
}
