package progress

import (
	"context"
	"os"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/pot-code/course-reader/internal/infrastructure/driver"
	"github.com/stretchr/testify/assert"
)

// newTestRedis connect to GOAPP_TEST_REDIS_ADDR, the test is skipped when unset
func newTestRedis(t *testing.T, users ...string) *driver.RedisClient {
	t.Helper()
	addr := os.Getenv("GOAPP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GOAPP_TEST_REDIS_ADDR not set")
	}
	client := driver.NewRedisClientFrom(redis.NewClient(&redis.Options{Addr: addr}))
	ctx := context.Background()
	for _, uid := range users {
		key := driver.UserKey(uid)
		assert.NoError(t, client.Conn().Del(ctx, key).Err())
		assert.NoError(t, client.Conn().HSet(ctx, key, driver.AccountField, `{}`).Err())
	}
	t.Cleanup(func() {
		for _, uid := range users {
			client.Conn().Del(ctx, driver.UserKey(uid))
		}
		client.Close(ctx)
	})
	return client
}

func TestProgressRedis_SaveCourseProgress(t *testing.T) {
	client := newTestRedis(t, "redis-test-u1")
	repo := NewProgressRedis(client)
	ctx := context.Background()

	cp := VisitLesson(nil, "intro", true, testNow)
	cp.Revision = 1

	assert.Equal(t, ErrAccountNotInitialized, repo.SaveCourseProgress(ctx, "redis-test-nobody", "cpp-101", cp, 0))
	assert.NoError(t, repo.SaveCourseProgress(ctx, "redis-test-u1", "cpp-101", cp, 0))
	assert.Equal(t, ErrConflict, repo.SaveCourseProgress(ctx, "redis-test-u1", "cpp-101", cp, 0))

	stored, exists, err := repo.FindCourseProgress(ctx, "redis-test-u1", "cpp-101")
	assert.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, cp, stored)

	next := VisitLesson(stored, "variables", false, testNow)
	next.Revision = 2
	assert.Equal(t, ErrConflict, repo.SaveCourseProgress(ctx, "redis-test-u1", "cpp-101", next, 5))
	assert.NoError(t, repo.SaveCourseProgress(ctx, "redis-test-u1", "cpp-101", next, 1))

	all, exists, err := repo.FindUserProgress(ctx, "redis-test-u1")
	assert.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int64(2), all["cpp-101"].Revision)
}

func TestProgressRedis_ConcurrentWrites(t *testing.T) {
	client := newTestRedis(t, "redis-test-u2")
	uc := NewProgressUseCase(NewProgressRedis(client), 16)
	ctx := context.Background()
	lessons := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	errs := make(chan error, len(lessons))
	for _, slug := range lessons {
		go func(slug string) {
			_, err := uc.MarkLessonComplete(ctx, "redis-test-u2", "cpp-101", slug)
			errs <- err
		}(slug)
	}
	for range lessons {
		assert.NoError(t, <-errs)
	}

	cp, err := uc.GetCourseProgress(ctx, "redis-test-u2", "cpp-101")
	assert.NoError(t, err)
	assert.ElementsMatch(t, lessons, cp.CompletedLessons)
	assert.Equal(t, int64(len(lessons)), cp.Revision)
}
