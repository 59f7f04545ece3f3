package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedCourse struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func newTestCache(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func TestCacheHelper_SetGet(t *testing.T) {
	_, client := newTestCache(t)
	helper := NewCacheHelper(client, "course:")
	ctx := context.Background()

	want := cachedCourse{ID: 42, Title: "Intro to Go"}
	err := helper.Set(ctx, "id:42", want, time.Minute)
	require.NoError(t, err)

	var got cachedCourse
	err = helper.Get(ctx, "id:42", &got)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCacheHelper_GetMiss(t *testing.T) {
	_, client := newTestCache(t)
	helper := NewCacheHelper(client, "course:")

	var got cachedCourse
	err := helper.Get(context.Background(), "id:999", &got)
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestCacheHelper_Expiry(t *testing.T) {
	mr, client := newTestCache(t)
	helper := NewCacheHelper(client, "course:")
	ctx := context.Background()

	require.NoError(t, helper.SetString(ctx, "id:7", "cached", 2*time.Minute))

	got, err := helper.GetString(ctx, "id:7")
	require.NoError(t, err)
	assert.Equal(t, "cached", got)

	mr.FastForward(3 * time.Minute)

	_, err = helper.GetString(ctx, "id:7")
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestCacheHelper_Delete(t *testing.T) {
	_, client := newTestCache(t)
	helper := NewCacheHelper(client, "enrollment:")
	ctx := context.Background()

	require.NoError(t, helper.SetString(ctx, "student:1", "a", time.Minute))
	require.NoError(t, helper.SetString(ctx, "student:2", "b", time.Minute))

	require.NoError(t, helper.Delete(ctx, "student:1", "student:2"))

	exists, err := helper.Exists(ctx, "student:1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	_, client := newTestCache(t)
	helper := NewCacheHelper(client, "course:")
	ctx := context.Background()

	require.NoError(t, helper.SetString(ctx, "instructor:5:page:1", "a", time.Minute))
	require.NoError(t, helper.SetString(ctx, "instructor:5:page:2", "b", time.Minute))
	require.NoError(t, helper.SetString(ctx, "instructor:6:page:1", "c", time.Minute))

	require.NoError(t, helper.InvalidatePattern(ctx, "instructor:5:*"))

	exists, err := helper.Exists(ctx, "instructor:5:page:1")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = helper.Exists(ctx, "instructor:6:page:1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCacheHelper_NilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "course:")
	ctx := context.Background()

	assert.NoError(t, helper.Set(ctx, "id:1", cachedCourse{ID: 1}, time.Minute))
	assert.ErrorIs(t, helper.Get(ctx, "id:1", &cachedCourse{}), ErrCacheNotAvailable)
	assert.NoError(t, helper.Delete(ctx, "id:1"))
}

func TestInvalidateCourseCache(t *testing.T) {
	_, client := newTestCache(t)
	cm := NewCacheManager(client)
	ctx := context.Background()

	require.NoError(t, cm.Course.SetString(ctx, "id:3", "x", time.Minute))
	require.NoError(t, cm.Course.SetString(ctx, "list:approved:page:1", "y", time.Minute))
	require.NoError(t, cm.Course.SetString(ctx, "instructor:5:page:1", "z", time.Minute))
	require.NoError(t, cm.Stats.SetString(ctx, "course:3:summary", "s", time.Minute))

	InvalidateCourseCache(ctx, cm, 3, 5)

	for helper, key := range map[*CacheHelper]string{
		cm.Course: "id:3",
		cm.Stats:  "course:3:summary",
	} {
		exists, err := helper.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists, "key %q should be invalidated", key)
	}

	exists, err := cm.Course.Exists(ctx, "list:approved:page:1")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = cm.Course.Exists(ctx, "instructor:5:page:1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInvalidateEnrollmentCache(t *testing.T) {
	_, client := newTestCache(t)
	cm := NewCacheManager(client)
	ctx := context.Background()

	require.NoError(t, cm.Enrollment.SetString(ctx, "student:1:course:3", "x", time.Minute))
	require.NoError(t, cm.Enrollment.SetString(ctx, "student:2:course:3", "y", time.Minute))

	InvalidateEnrollmentCache(ctx, cm, 1, 3)

	exists, err := cm.Enrollment.Exists(ctx, "student:1:course:3")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = cm.Enrollment.Exists(ctx, "student:2:course:3")
	require.NoError(t, err)
	assert.True(t, exists)
}
