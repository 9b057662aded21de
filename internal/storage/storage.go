package storage

import (
	"context"
	"time"

	"github.com/MosinFAM/blog-posts/internal/models"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when no record matches, including ownership-filtered lookups.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("duplicate")
)

// PostStore - posts and their comment/like id lists
type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetAllPosts(ctx context.Context) ([]models.Post, error)
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	// UpdatePost matches on id and author in a single call.
	UpdatePost(ctx context.Context, id, authorID, title, content string, at time.Time) (*models.Post, error)
	DeletePost(ctx context.Context, id, authorID string) error
	AddPostComment(ctx context.Context, postID, commentID string) error
	RemovePostComment(ctx context.Context, postID, commentID string) error
	AddLike(ctx context.Context, postID, userID string) (*models.Post, error)
	RemoveLike(ctx context.Context, postID, userID string) (*models.Post, error)
}

// CommentStore - comments and their reply id lists
type CommentStore interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id string) (*models.Comment, error)
	GetOwnedComment(ctx context.Context, id, authorID string) (*models.Comment, error)
	UpdateCommentContent(ctx context.Context, id, authorID, content string, at time.Time) (*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	AddReply(ctx context.Context, parentID, replyID string) error
	RemoveReply(ctx context.Context, parentID, replyID string) error
	// GetRepliesByParentID returns direct children ordered by creation time ascending.
	GetRepliesByParentID(ctx context.Context, parentID string) ([]models.Comment, error)
	// GetCommentsByPostID returns top-level comments ordered by creation time ascending.
	GetCommentsByPostID(ctx context.Context, postID string, limit, offset int) ([]models.Comment, error)
}

// UserStore - registered users
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// Storage - interface implemented by every backend (in-memory, PostgreSQL, MongoDB)
type Storage interface {
	PostStore
	CommentStore
	UserStore
}
