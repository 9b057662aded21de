package service

import (
	"context"
	"testing"

	"github.com/MosinFAM/blog-posts/internal/errs"
	"github.com/MosinFAM/blog-posts/internal/models"
	"github.com/MosinFAM/blog-posts/internal/storage"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreatePost(t *testing.T) {
	f := newFixture(t)

	post, err := f.posts.Create(context.Background(), f.alice.ID, "  Title  ", "Body")
	require.NoError(t, err)
	assert.Equal(t, "Title", post.Title)
	assert.Equal(t, f.alice.ID, post.AuthorID)
	assert.NotNil(t, post.Likes)
	assert.NotNil(t, post.Comments)

	_, err = f.posts.Create(context.Background(), f.alice.ID, " ", "Body")
	assert.True(t, errs.IsValidation(err))
	_, err = f.posts.Create(context.Background(), f.alice.ID, "Title", "")
	assert.True(t, errs.IsValidation(err))
}

func TestCreatePost_StoreFailure(t *testing.T) {
	store := new(storage.MockStorage)
	svc := NewPostService(store, nil, nil)
	store.On("CreatePost", mock.Anything, mock.AnythingOfType("*models.Post")).Return(errors.New("disk full"))

	post, err := svc.Create(context.Background(), "alice", "Title", "Body")
	assert.Nil(t, post)
	assert.Equal(t, errs.KindUnexpected, errs.KindOf(err))
	store.AssertExpectations(t)
}

func TestListPosts_NewestFirst(t *testing.T) {
	f := newFixture(t)
	first := f.post(t)
	second, err := f.posts.Create(context.Background(), f.bob.ID, "Second", "Body")
	require.NoError(t, err)

	top := f.comment(t, first.ID, nil, f.bob.ID)
	f.comment(t, first.ID, &top.ID, f.alice.ID)

	posts, err := f.posts.List(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, "bob", posts[0].Author.Username)
	assert.NotNil(t, posts[0].CommentList)
	assert.Empty(t, posts[0].CommentList)

	assert.Equal(t, first.ID, posts[1].ID)
	assert.Equal(t, "alice", posts[1].Author.Username)
	require.Len(t, posts[1].CommentList, 1)
	assert.Equal(t, top.ID, posts[1].CommentList[0].ID)
	assert.Equal(t, "bob", posts[1].CommentList[0].Author.Username)
}

func TestGetPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.post(t)
	top := f.comment(t, post.ID, nil, f.bob.ID)
	f.comment(t, post.ID, &top.ID, f.alice.ID)

	detail, err := f.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", detail.Author.Username)
	require.Len(t, detail.CommentList, 1)
	assert.Equal(t, top.ID, detail.CommentList[0].ID)
	assert.Equal(t, "bob", detail.CommentList[0].Author.Username)

	_, err = f.posts.Get(ctx, newID())
	assert.True(t, errs.IsNotFound(err))
	assert.Equal(t, "Post not found", err.Error())
}

func TestUpdatePost_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.post(t)

	_, err := f.posts.Update(ctx, post.ID, f.bob.ID, "Mine now", "Body")
	assert.True(t, errs.IsNotFound(err))

	updated, err := f.posts.Update(ctx, post.ID, f.alice.ID, "New title", "New body")
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, "New body", updated.Content)
	assert.True(t, updated.UpdatedAt.After(post.UpdatedAt))
}

func TestDeletePost_KeepsComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.post(t)
	comment := f.comment(t, post.ID, nil, f.bob.ID)

	assert.True(t, errs.IsNotFound(f.posts.Delete(ctx, post.ID, f.bob.ID)))
	require.NoError(t, f.posts.Delete(ctx, post.ID, f.alice.ID))

	_, err := f.store.GetPostByID(ctx, post.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.store.GetCommentByID(ctx, comment.ID)
	assert.NoError(t, err)
}

func TestLikeAndUnlike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.post(t)

	liked, err := f.posts.Like(ctx, post.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.bob.ID}, liked.Likes)

	_, err = f.posts.Like(ctx, post.ID, f.bob.ID)
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, "Post already liked", err.Error())

	unliked, err := f.posts.Unlike(ctx, post.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, unliked.Likes)

	_, err = f.posts.Unlike(ctx, post.ID, f.bob.ID)
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, "Post not liked", err.Error())

	_, err = f.posts.Like(ctx, newID(), f.bob.ID)
	assert.True(t, errs.IsNotFound(err))
	_, err = f.posts.Unlike(ctx, newID(), f.bob.ID)
	assert.True(t, errs.IsNotFound(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PostLikes.WithLabelValues("like")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PostLikes.WithLabelValues("unlike")))
}

func TestLike_DeletedConcurrently(t *testing.T) {
	store := new(storage.MockStorage)
	svc := NewPostService(store, nil, nil)
	store.On("GetPostByID", mock.Anything, "p1").Return(&models.Post{ID: "p1"}, nil)
	store.On("AddLike", mock.Anything, "p1", "bob").Return(nil, storage.ErrNotFound)

	_, err := svc.Like(context.Background(), "p1", "bob")
	assert.True(t, errs.IsNotFound(err))
	store.AssertExpectations(t)
}
