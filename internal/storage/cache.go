package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MosinFAM/blog-posts/internal/models"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultCacheTTL = 5 * time.Minute

	// a read that missed before a write may refill the old post after the
	// first delete, the second one clears it
	DefaultInvalidateDelay = 500 * time.Millisecond
)

// CachedStorage serves GetPostByID from redis and drops the cached copy on
// every post mutation. Everything else goes straight to the wrapped storage.
type CachedStorage struct {
	Storage
	client  *redis.Client
	ttl     time.Duration
	redelay time.Duration
	log     *zap.Logger
}

func NewCachedStorage(next Storage, client *redis.Client, ttl time.Duration, log *zap.Logger) *CachedStorage {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedStorage{
		Storage: next,
		client:  client,
		ttl:     ttl,
		redelay: DefaultInvalidateDelay,
		log:     log.Named("cache"),
	}
}

func postKey(id string) string {
	return fmt.Sprintf("post:%s", id)
}

// GetPostByID reads through the cache. Cache failures fall back to the store.
func (s *CachedStorage) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	raw, err := s.client.Get(ctx, postKey(id)).Bytes()
	if err == nil {
		var post models.Post
		if err := json.Unmarshal(raw, &post); err == nil {
			return &post, nil
		}
		s.log.Warn("corrupt cached post", zap.String("post", id))
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn("cache read failed", zap.String("post", id), zap.Error(err))
	}

	post, err := s.Storage.GetPostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, post)
	return post, nil
}

func (s *CachedStorage) store(ctx context.Context, post *models.Post) {
	raw, err := json.Marshal(post)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, postKey(post.ID), raw, s.ttl).Err(); err != nil {
		s.log.Warn("cache write failed", zap.String("post", post.ID), zap.Error(err))
	}
}

// invalidate drops the cached post now and once more after redelay.
func (s *CachedStorage) invalidate(ctx context.Context, id string) {
	s.del(ctx, id)

	detached := context.WithoutCancel(ctx)
	time.AfterFunc(s.redelay, func() {
		ctx, cancel := context.WithTimeout(detached, time.Second)
		defer cancel()
		s.del(ctx, id)
	})
}

func (s *CachedStorage) del(ctx context.Context, id string) {
	if err := s.client.Del(ctx, postKey(id)).Err(); err != nil {
		s.log.Warn("cache invalidation failed", zap.String("post", id), zap.Error(err))
	}
}

func (s *CachedStorage) UpdatePost(ctx context.Context, id, authorID, title, content string, at time.Time) (*models.Post, error) {
	defer s.invalidate(ctx, id)
	return s.Storage.UpdatePost(ctx, id, authorID, title, content, at)
}

func (s *CachedStorage) DeletePost(ctx context.Context, id, authorID string) error {
	defer s.invalidate(ctx, id)
	return s.Storage.DeletePost(ctx, id, authorID)
}

func (s *CachedStorage) AddPostComment(ctx context.Context, postID, commentID string) error {
	defer s.invalidate(ctx, postID)
	return s.Storage.AddPostComment(ctx, postID, commentID)
}

func (s *CachedStorage) RemovePostComment(ctx context.Context, postID, commentID string) error {
	defer s.invalidate(ctx, postID)
	return s.Storage.RemovePostComment(ctx, postID, commentID)
}

func (s *CachedStorage) AddLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	defer s.invalidate(ctx, postID)
	return s.Storage.AddLike(ctx, postID, userID)
}

func (s *CachedStorage) RemoveLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	defer s.invalidate(ctx, postID)
	return s.Storage.RemoveLike(ctx, postID, userID)
}
