package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRevalidator(t *testing.T) (*Revalidator, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRevalidator(client, testLogger), mr
}

func seedPages(t *testing.T, mr *miniredis.Miniredis) {
	t.Helper()
	require.NoError(t, mr.Set("cache:page:/", "<html>home</html>"))
	require.NoError(t, mr.Set("cache:page:/products/headphones", "<html>hp</html>"))
	require.NoError(t, mr.Set("cache:page:/products/speaker", "<html>sp</html>"))
	require.NoError(t, mr.Set("cache:page:/categories/audio", "<html>audio</html>"))
	mr.SAdd("cache:tag:products", "cache:page:/products/headphones", "cache:page:/products/speaker")
	mr.SAdd("cache:tag:homepage", "cache:page:/")
}

func TestInvalidateTag(t *testing.T) {
	r, mr := newTestRevalidator(t)
	seedPages(t, mr)

	n, err := r.InvalidateTag(context.Background(), "products")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.False(t, mr.Exists("cache:page:/products/headphones"))
	assert.False(t, mr.Exists("cache:page:/products/speaker"))
	assert.False(t, mr.Exists("cache:tag:products"))
	// Other pages untouched.
	assert.True(t, mr.Exists("cache:page:/"))
	assert.True(t, mr.Exists("cache:page:/categories/audio"))
}

func TestInvalidateTag_UnknownTag(t *testing.T) {
	r, mr := newTestRevalidator(t)
	seedPages(t, mr)

	n, err := r.InvalidateTag(context.Background(), "nope")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, mr.Exists("cache:page:/"))
}

func TestInvalidatePath_Recursive(t *testing.T) {
	r, mr := newTestRevalidator(t)
	seedPages(t, mr)

	n, err := r.InvalidatePath(context.Background(), "/products")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.False(t, mr.Exists("cache:page:/products/headphones"))
	assert.False(t, mr.Exists("cache:page:/products/speaker"))
	assert.True(t, mr.Exists("cache:page:/"))
	assert.True(t, mr.Exists("cache:page:/categories/audio"))
}

func TestInvalidatePath_ExactPage(t *testing.T) {
	r, mr := newTestRevalidator(t)
	seedPages(t, mr)

	n, err := r.InvalidatePath(context.Background(), "/categories/audio")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, mr.Exists("cache:page:/categories/audio"))
}

func TestInvalidateAll(t *testing.T) {
	r, mr := newTestRevalidator(t)
	seedPages(t, mr)
	require.NoError(t, mr.Set("session:user-1", "keep-me"))

	n, err := r.InvalidateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	assert.False(t, mr.Exists("cache:page:/"))
	assert.False(t, mr.Exists("cache:tag:products"))
	// Keys outside the page cache namespace survive.
	assert.True(t, mr.Exists("session:user-1"))
}

func TestRevalidator_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	r := NewRevalidator(client, testLogger)
	mr.Close()

	_, err := r.InvalidateAll(context.Background())
	require.Error(t, err)

	_, err = r.InvalidateTag(context.Background(), "products")
	require.Error(t, err)
}
