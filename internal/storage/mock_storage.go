package storage

import (
	"context"
	"time"

	"github.com/MosinFAM/blog-posts/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

var _ Storage = (*MockStorage)(nil)

func (m *MockStorage) post(args mock.Arguments) (*models.Post, error) {
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func (m *MockStorage) comment(args mock.Arguments) (*models.Comment, error) {
	comment, _ := args.Get(0).(*models.Comment)
	return comment, args.Error(1)
}

func (m *MockStorage) CreatePost(ctx context.Context, post *models.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *MockStorage) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	args := m.Called(ctx)
	posts, _ := args.Get(0).([]models.Post)
	return posts, args.Error(1)
}

func (m *MockStorage) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	return m.post(m.Called(ctx, id))
}

func (m *MockStorage) UpdatePost(ctx context.Context, id, authorID, title, content string, at time.Time) (*models.Post, error) {
	return m.post(m.Called(ctx, id, authorID, title, content, at))
}

func (m *MockStorage) DeletePost(ctx context.Context, id, authorID string) error {
	return m.Called(ctx, id, authorID).Error(0)
}

func (m *MockStorage) AddPostComment(ctx context.Context, postID, commentID string) error {
	return m.Called(ctx, postID, commentID).Error(0)
}

func (m *MockStorage) RemovePostComment(ctx context.Context, postID, commentID string) error {
	return m.Called(ctx, postID, commentID).Error(0)
}

func (m *MockStorage) AddLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	return m.post(m.Called(ctx, postID, userID))
}

func (m *MockStorage) RemoveLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	return m.post(m.Called(ctx, postID, userID))
}

func (m *MockStorage) CreateComment(ctx context.Context, comment *models.Comment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *MockStorage) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	return m.comment(m.Called(ctx, id))
}

func (m *MockStorage) GetOwnedComment(ctx context.Context, id, authorID string) (*models.Comment, error) {
	return m.comment(m.Called(ctx, id, authorID))
}

func (m *MockStorage) UpdateCommentContent(ctx context.Context, id, authorID, content string, at time.Time) (*models.Comment, error) {
	return m.comment(m.Called(ctx, id, authorID, content, at))
}

func (m *MockStorage) DeleteComment(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStorage) AddReply(ctx context.Context, parentID, replyID string) error {
	return m.Called(ctx, parentID, replyID).Error(0)
}

func (m *MockStorage) RemoveReply(ctx context.Context, parentID, replyID string) error {
	return m.Called(ctx, parentID, replyID).Error(0)
}

func (m *MockStorage) GetRepliesByParentID(ctx context.Context, parentID string) ([]models.Comment, error) {
	args := m.Called(ctx, parentID)
	comments, _ := args.Get(0).([]models.Comment)
	return comments, args.Error(1)
}

func (m *MockStorage) GetCommentsByPostID(ctx context.Context, postID string, limit, offset int) ([]models.Comment, error) {
	args := m.Called(ctx, postID, limit, offset)
	comments, _ := args.Get(0).([]models.Comment)
	return comments, args.Error(1)
}

func (m *MockStorage) CreateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockStorage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockStorage) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	args := m.Called(ctx, ids)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}
