package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MosinFAM/blog-posts/internal/models"

	"github.com/ecodeclub/ekit/slice"
	"go.uber.org/zap"
)

// MemoryStorage - in-memory storage
type MemoryStorage struct {
	posts    map[string]models.Post
	comments map[string]models.Comment
	users    map[string]models.User
	mu       sync.RWMutex
	log      *zap.Logger
}

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage(log *zap.Logger) *MemoryStorage {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemoryStorage{
		posts:    make(map[string]models.Post),
		comments: make(map[string]models.Comment),
		users:    make(map[string]models.User),
		log:      log.Named("memory"),
	}
}

func clonePost(p models.Post) models.Post {
	p.Likes = append([]string{}, p.Likes...)
	p.Comments = append([]string{}, p.Comments...)
	return p
}

func cloneComment(c models.Comment) models.Comment {
	c.Replies = append([]string{}, c.Replies...)
	if c.ParentID != nil {
		parent := *c.ParentID
		c.ParentID = &parent
	}
	return c
}

func without(ids []string, id string) []string {
	return slice.FilterDelete(ids, func(_ int, src string) bool {
		return src == id
	})
}

// sortByCreation orders oldest first; ids are time-ordered and break ties
func sortByCreation(comments []models.Comment) {
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})
}

// CreatePost stores a new post
func (s *MemoryStorage) CreatePost(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Info("adding post", zap.String("post", post.ID))
	s.posts[post.ID] = clonePost(*post)
	return nil
}

// GetAllPosts returns every post, newest first
func (s *MemoryStorage) GetAllPosts(_ context.Context) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.log.Debug("fetching all posts")
	result := make([]models.Post, 0, len(s.posts))
	for _, post := range s.posts {
		result = append(result, clonePost(post))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// GetPostByID returns a post by ID
func (s *MemoryStorage) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.log.Debug("fetching post", zap.String("post", id))
	post, exists := s.posts[id]
	if !exists {
		return nil, ErrNotFound
	}
	post = clonePost(post)
	return &post, nil
}

func (s *MemoryStorage) UpdatePost(_ context.Context, id, authorID, title, content string, at time.Time) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[id]
	if !exists || post.AuthorID != authorID {
		return nil, ErrNotFound
	}
	post.Title = title
	post.Content = content
	post.UpdatedAt = at
	s.posts[id] = post
	s.log.Info("updated post", zap.String("post", id))

	post = clonePost(post)
	return &post, nil
}

func (s *MemoryStorage) DeletePost(_ context.Context, id, authorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[id]
	if !exists || post.AuthorID != authorID {
		return ErrNotFound
	}
	delete(s.posts, id)
	s.log.Info("deleted post", zap.String("post", id))
	return nil
}

func (s *MemoryStorage) AddPostComment(_ context.Context, postID, commentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[postID]
	if !exists {
		return ErrNotFound
	}
	post.Comments = append(post.Comments, commentID)
	s.posts[postID] = post
	return nil
}

func (s *MemoryStorage) RemovePostComment(_ context.Context, postID, commentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[postID]
	if !exists {
		return ErrNotFound
	}
	post.Comments = without(post.Comments, commentID)
	s.posts[postID] = post
	return nil
}

// AddLike adds userID to the liker set; adding twice is a no-op
func (s *MemoryStorage) AddLike(_ context.Context, postID, userID string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[postID]
	if !exists {
		return nil, ErrNotFound
	}
	if !slice.Contains(post.Likes, userID) {
		post.Likes = append(post.Likes, userID)
		s.posts[postID] = post
	}
	post = clonePost(post)
	return &post, nil
}

func (s *MemoryStorage) RemoveLike(_ context.Context, postID, userID string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[postID]
	if !exists {
		return nil, ErrNotFound
	}
	post.Likes = without(post.Likes, userID)
	s.posts[postID] = post
	post = clonePost(post)
	return &post, nil
}

// CreateComment stores a comment. Linking it into a post or parent is up to the caller.
func (s *MemoryStorage) CreateComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Info("adding comment", zap.String("comment", comment.ID), zap.String("post", comment.PostID))
	s.comments[comment.ID] = cloneComment(*comment)
	return nil
}

func (s *MemoryStorage) GetCommentByID(_ context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, exists := s.comments[id]
	if !exists {
		return nil, ErrNotFound
	}
	comment = cloneComment(comment)
	return &comment, nil
}

func (s *MemoryStorage) GetOwnedComment(_ context.Context, id, authorID string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, exists := s.comments[id]
	if !exists || comment.AuthorID != authorID {
		return nil, ErrNotFound
	}
	comment = cloneComment(comment)
	return &comment, nil
}

func (s *MemoryStorage) UpdateCommentContent(_ context.Context, id, authorID, content string, at time.Time) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, exists := s.comments[id]
	if !exists || comment.AuthorID != authorID {
		return nil, ErrNotFound
	}
	comment.Content = content
	comment.UpdatedAt = at
	s.comments[id] = comment
	s.log.Info("updated comment", zap.String("comment", id))

	comment = cloneComment(comment)
	return &comment, nil
}

func (s *MemoryStorage) DeleteComment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.comments[id]; !exists {
		return ErrNotFound
	}
	delete(s.comments, id)
	s.log.Info("deleted comment", zap.String("comment", id))
	return nil
}

func (s *MemoryStorage) AddReply(_ context.Context, parentID, replyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, exists := s.comments[parentID]
	if !exists {
		return ErrNotFound
	}
	parent.Replies = append(parent.Replies, replyID)
	s.comments[parentID] = parent
	return nil
}

func (s *MemoryStorage) RemoveReply(_ context.Context, parentID, replyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, exists := s.comments[parentID]
	if !exists {
		return ErrNotFound
	}
	parent.Replies = without(parent.Replies, replyID)
	s.comments[parentID] = parent
	return nil
}

func (s *MemoryStorage) GetRepliesByParentID(_ context.Context, parentID string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Comment{}
	for _, comment := range s.comments {
		if comment.ParentID != nil && *comment.ParentID == parentID {
			result = append(result, cloneComment(comment))
		}
	}
	sortByCreation(result)
	return result, nil
}

// GetCommentsByPostID returns a page of top-level comments of a post
func (s *MemoryStorage) GetCommentsByPostID(_ context.Context, postID string, limit, offset int) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.log.Debug("fetching comments", zap.String("post", postID))
	var all []models.Comment
	for _, comment := range s.comments {
		if comment.PostID == postID && comment.ParentID == nil {
			all = append(all, cloneComment(comment))
		}
	}
	sortByCreation(all)

	// pagination
	start := offset
	end := offset + limit
	if start > len(all) {
		return []models.Comment{}, nil
	}
	if end > len(all) {
		end = len(all)
	}
	return append([]models.Comment{}, all[start:end]...), nil
}

func (s *MemoryStorage) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return ErrDuplicate
		}
	}
	s.users[user.ID] = *user
	s.log.Info("registered user", zap.String("user", user.ID))
	return nil
}

func (s *MemoryStorage) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStorage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) GetUsersByIDs(_ context.Context, ids []string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if user, exists := s.users[id]; exists {
			result = append(result, user)
		}
	}
	return result, nil
}
