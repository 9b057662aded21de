package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MosinFAM/blog-posts/internal/metrics"
	"github.com/MosinFAM/blog-posts/internal/models"
	"github.com/MosinFAM/blog-posts/internal/notify"
	"github.com/MosinFAM/blog-posts/internal/storage"

	"github.com/stretchr/testify/require"
)

// steppingClock advances a millisecond per call so creation order is strict.
func steppingClock() func() time.Time {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ticks atomic.Int64
	return func() time.Time {
		return start.Add(time.Duration(ticks.Add(1)) * time.Millisecond)
	}
}

type fixture struct {
	store    *storage.MemoryStorage
	hub      *notify.Hub
	metrics  *metrics.Metrics
	comments *CommentService
	posts    *PostService
	alice    *models.User
	bob      *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemoryStorage(nil)
	hub := notify.NewHub(nil)
	m := metrics.New()

	f := &fixture{
		store:    store,
		hub:      hub,
		metrics:  m,
		comments: NewCommentService(store, hub, m, nil),
		posts:    NewPostService(store, m, nil),
		alice:    &models.User{ID: newID(), Username: "alice", PasswordHash: "x"},
		bob:      &models.User{ID: newID(), Username: "bob", PasswordHash: "x"},
	}
	clk := steppingClock()
	f.comments.now = clk
	f.posts.now = clk

	require.NoError(t, store.CreateUser(context.Background(), f.alice))
	require.NoError(t, store.CreateUser(context.Background(), f.bob))
	return f
}

func (f *fixture) post(t *testing.T) *models.Post {
	t.Helper()
	post, err := f.posts.Create(context.Background(), f.alice.ID, "Test Post", "Test Content")
	require.NoError(t, err)
	return post
}

func (f *fixture) comment(t *testing.T, postID string, parentID *string, author string) *models.Comment {
	t.Helper()
	comment, err := f.comments.Create(context.Background(), CreateCommentInput{
		Content:         fmt.Sprintf("comment by %s", author),
		PostID:          postID,
		ParentCommentID: parentID,
	}, author)
	require.NoError(t, err)
	return comment
}
