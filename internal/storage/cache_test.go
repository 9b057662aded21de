package storage

import (
	"context"
	"testing"
	"time"

	"github.com/MosinFAM/blog-posts/internal/db"
	"github.com/MosinFAM/blog-posts/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCachedStorage(t *testing.T) (*CachedStorage, *miniredis.Miniredis) {
	srv := miniredis.RunT(t)
	client, err := db.ConnectRedis(context.Background(), srv.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	cached := NewCachedStorage(NewMemoryStorage(nil), client, time.Minute, nil)
	cached.redelay = 20 * time.Millisecond
	return cached, srv
}

// warm reads the post once so it sits in the cache.
func warm(t *testing.T, cached *CachedStorage, srv *miniredis.Miniredis, id string) {
	t.Helper()
	_, err := cached.GetPostByID(context.Background(), id)
	require.NoError(t, err)
	require.True(t, srv.Exists(postKey(id)))
}

func TestCachedStorage_ReadThrough(t *testing.T) {
	cached, srv := newCachedStorage(t)
	post := addPost(t, cached, "alice", now())

	warm(t, cached, srv, post.ID)
	assert.Equal(t, time.Minute, srv.TTL(postKey(post.ID)))

	// served from redis even once the backing store changed underneath
	require.NoError(t, cached.Storage.AddPostComment(context.Background(), post.ID, "c1"))
	fetched, err := cached.GetPostByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Empty(t, fetched.Comments)
}

func TestCachedStorage_MissingPost(t *testing.T) {
	cached, srv := newCachedStorage(t)

	_, err := cached.GetPostByID(context.Background(), "nonexistent-id")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, srv.Exists(postKey("nonexistent-id")))
}

func TestCachedStorage_CorruptEntryFallsBack(t *testing.T) {
	cached, srv := newCachedStorage(t)
	post := addPost(t, cached, "alice", now())
	require.NoError(t, srv.Set(postKey(post.ID), "{not json"))

	fetched, err := cached.GetPostByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, fetched.ID)
}

func TestCachedStorage_RedisDownFallsBack(t *testing.T) {
	cached, srv := newCachedStorage(t)
	post := addPost(t, cached, "alice", now())
	srv.Close()

	fetched, err := cached.GetPostByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, fetched.ID)
}

func TestCachedStorage_InvalidatesOnMutation(t *testing.T) {
	ctx := context.Background()
	mutations := map[string]func(s *CachedStorage, post *models.Post) error{
		"UpdatePost": func(s *CachedStorage, post *models.Post) error {
			_, err := s.UpdatePost(ctx, post.ID, "alice", "New title", "New content", now())
			return err
		},
		"DeletePost": func(s *CachedStorage, post *models.Post) error {
			return s.DeletePost(ctx, post.ID, "alice")
		},
		"AddPostComment": func(s *CachedStorage, post *models.Post) error {
			return s.AddPostComment(ctx, post.ID, "c1")
		},
		"RemovePostComment": func(s *CachedStorage, post *models.Post) error {
			return s.RemovePostComment(ctx, post.ID, "c0")
		},
		"AddLike": func(s *CachedStorage, post *models.Post) error {
			_, err := s.AddLike(ctx, post.ID, "bob")
			return err
		},
		"RemoveLike": func(s *CachedStorage, post *models.Post) error {
			_, err := s.RemoveLike(ctx, post.ID, "carol")
			return err
		},
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cached, srv := newCachedStorage(t)
			post := addPost(t, cached, "alice", now())
			require.NoError(t, cached.Storage.AddPostComment(ctx, post.ID, "c0"))
			_, err := cached.Storage.AddLike(ctx, post.ID, "carol")
			require.NoError(t, err)

			warm(t, cached, srv, post.ID)
			require.NoError(t, mutate(cached, post))
			assert.False(t, srv.Exists(postKey(post.ID)))

			want, wantErr := cached.Storage.GetPostByID(ctx, post.ID)
			got, err := cached.GetPostByID(ctx, post.ID)
			assert.Equal(t, wantErr, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestCachedStorage_SecondInvalidationClearsLateRefill(t *testing.T) {
	ctx := context.Background()
	cached, srv := newCachedStorage(t)
	cached.redelay = 200 * time.Millisecond
	post := addPost(t, cached, "alice", now())

	stale, err := cached.GetPostByID(ctx, post.ID)
	require.NoError(t, err)

	_, err = cached.AddLike(ctx, post.ID, "bob")
	require.NoError(t, err)

	// a reader that missed before the like writes its old copy back
	cached.store(ctx, stale)
	require.True(t, srv.Exists(postKey(post.ID)))

	assert.Eventually(t, func() bool {
		return !srv.Exists(postKey(post.ID))
	}, time.Second, 10*time.Millisecond)

	fetched, err := cached.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, fetched.Likes)
}
