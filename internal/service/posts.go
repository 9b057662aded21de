package service

import (
	"context"
	"strings"
	"time"

	"github.com/MosinFAM/blog-posts/internal/errs"
	"github.com/MosinFAM/blog-posts/internal/metrics"
	"github.com/MosinFAM/blog-posts/internal/models"
	"github.com/MosinFAM/blog-posts/internal/storage"

	"github.com/ecodeclub/ekit/slice"
	"go.uber.org/zap"
)

type PostService struct {
	store   storage.Storage
	metrics *metrics.Metrics
	log     *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewPostService(store storage.Storage, m *metrics.Metrics, log *zap.Logger) *PostService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostService{
		store:   store,
		metrics: m,
		log:     log.Named("posts"),
		now:     clock,
		newID:   newID,
	}
}

// List returns every post with its author and top-level comments, newest
// first.
func (s *PostService) List(ctx context.Context) ([]models.PostDetail, error) {
	posts, err := s.store.GetAllPosts(ctx)
	if err != nil {
		s.log.Error("failed to list posts", zap.Error(err))
		return nil, errs.Unexpected(err)
	}

	byPost := make(map[string][]models.Comment, len(posts))
	ids := make([]string, 0, len(posts))
	for i := range posts {
		ids = append(ids, posts[i].AuthorID)
		top, err := s.topComments(ctx, &posts[i])
		if err != nil {
			return nil, err
		}
		byPost[posts[i].ID] = top
		for _, c := range top {
			ids = append(ids, c.AuthorID)
		}
	}

	byID, err := authors(ctx, s.store, ids)
	if err != nil {
		return nil, err
	}
	return slice.Map(posts, func(_ int, src models.Post) models.PostDetail {
		return models.PostDetail{
			PostWithAuthor: models.PostWithAuthor{Post: src, Author: byID[src.AuthorID]},
			CommentList: slice.Map(byPost[src.ID], func(_ int, c models.Comment) models.CommentWithAuthor {
				return models.CommentWithAuthor{Comment: c, Author: byID[c.AuthorID]}
			}),
		}
	}), nil
}

// topComments loads the comments listed on the post, oldest first.
func (s *PostService) topComments(ctx context.Context, post *models.Post) ([]models.Comment, error) {
	if len(post.Comments) == 0 {
		return []models.Comment{}, nil
	}
	comments, err := s.store.GetCommentsByPostID(ctx, post.ID, len(post.Comments), 0)
	if err != nil {
		return nil, errs.Unexpected(err)
	}
	return comments, nil
}

// Get returns the post with its author and its top-level comments.
func (s *PostService) Get(ctx context.Context, id string) (*models.PostDetail, error) {
	post, err := s.store.GetPostByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Post not found")
	}

	comments, err := s.topComments(ctx, post)
	if err != nil {
		return nil, err
	}
	detail := &models.PostDetail{}
	if detail.CommentList, err = commentsWithAuthors(ctx, s.store, comments); err != nil {
		return nil, err
	}

	byID, err := authors(ctx, s.store, []string{post.AuthorID})
	if err != nil {
		return nil, err
	}
	detail.PostWithAuthor = models.PostWithAuthor{Post: *post, Author: byID[post.AuthorID]}
	return detail, nil
}

func validatePost(title, content string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errs.Validation("Title is required")
	}
	if strings.TrimSpace(content) == "" {
		return "", errs.Validation("Content is required")
	}
	return title, nil
}

func (s *PostService) Create(ctx context.Context, authorID, title, content string) (*models.Post, error) {
	title, err := validatePost(title, content)
	if err != nil {
		return nil, err
	}

	at := s.now()
	post := &models.Post{
		ID:        s.newID(),
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		Likes:     []string{},
		Comments:  []string{},
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		s.log.Error("failed to create post", zap.Error(err))
		return nil, errs.Unexpected(err)
	}
	s.log.Info("post created", zap.String("post", post.ID))
	return post, nil
}

// Update changes title and content. Only the author may update a post.
func (s *PostService) Update(ctx context.Context, id, authorID, title, content string) (*models.Post, error) {
	title, err := validatePost(title, content)
	if err != nil {
		return nil, err
	}

	post, err := s.store.UpdatePost(ctx, id, authorID, title, content, s.now())
	if err != nil {
		return nil, lookupError(err, "Post not found")
	}
	return post, nil
}

// Delete removes the post. Its comments stay in place.
func (s *PostService) Delete(ctx context.Context, id, authorID string) error {
	if err := s.store.DeletePost(ctx, id, authorID); err != nil {
		return lookupError(err, "Post not found")
	}
	s.log.Info("post deleted", zap.String("post", id))
	return nil
}

func (s *PostService) Like(ctx context.Context, id, userID string) (*models.Post, error) {
	post, err := s.store.GetPostByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Post not found")
	}
	if post.LikedBy(userID) {
		return nil, errs.Validation("Post already liked")
	}

	post, err = s.store.AddLike(ctx, id, userID)
	if err != nil {
		return nil, lookupError(err, "Post not found")
	}
	s.countLike("like")
	return post, nil
}

func (s *PostService) Unlike(ctx context.Context, id, userID string) (*models.Post, error) {
	post, err := s.store.GetPostByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Post not found")
	}
	if !post.LikedBy(userID) {
		return nil, errs.Validation("Post not liked")
	}

	post, err = s.store.RemoveLike(ctx, id, userID)
	if err != nil {
		return nil, lookupError(err, "Post not found")
	}
	s.countLike("unlike")
	return post, nil
}

func (s *PostService) countLike(action string) {
	if s.metrics != nil {
		s.metrics.PostLikes.WithLabelValues(action).Inc()
	}
}
