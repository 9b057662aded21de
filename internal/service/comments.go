package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MosinFAM/blog-posts/internal/errs"
	"github.com/MosinFAM/blog-posts/internal/metrics"
	"github.com/MosinFAM/blog-posts/internal/models"
	"github.com/MosinFAM/blog-posts/internal/notify"
	"github.com/MosinFAM/blog-posts/internal/storage"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	MaxCommentLength = 2000 // characters
)

type CreateCommentInput struct {
	Content         string
	PostID          string
	ParentCommentID *string
}

// CommentService manages comment trees: creation with linkage to the post or
// the parent comment, edits by the author and cascading deletes.
type CommentService struct {
	store    storage.Storage
	notifier notify.Notifier
	metrics  *metrics.Metrics
	log      *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewCommentService builds the service. notifier and m may be nil.
func NewCommentService(store storage.Storage, notifier notify.Notifier, m *metrics.Metrics, log *zap.Logger) *CommentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommentService{
		store:    store,
		notifier: notifier,
		metrics:  m,
		log:      log.Named("comments"),
		now:      clock,
		newID:    newID,
	}
}

func validateContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", errs.Validation("Comment content is required")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return "", errs.Validation("Comment is too long")
	}
	return content, nil
}

func (s *CommentService) Create(ctx context.Context, in CreateCommentInput, authorID string) (*models.Comment, error) {
	content, err := validateContent(in.Content)
	if err != nil {
		return nil, err
	}
	if in.PostID == "" {
		return nil, errs.Validation("Post id is required")
	}
	if _, err := s.store.GetPostByID(ctx, in.PostID); err != nil {
		return nil, lookupError(err, "Post not found")
	}

	var parentID *string
	if in.ParentCommentID != nil && *in.ParentCommentID != "" {
		id := *in.ParentCommentID
		parentID = &id
	}

	at := s.now()
	comment := &models.Comment{
		ID:        s.newID(),
		Content:   content,
		AuthorID:  authorID,
		PostID:    in.PostID,
		ParentID:  parentID,
		Replies:   []string{},
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		s.log.Error("failed to create comment", zap.String("post", in.PostID), zap.Error(err))
		return nil, errs.Unexpected(err)
	}

	if err := s.link(ctx, comment); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CommentsCreated.Inc()
	}
	if s.notifier != nil {
		if err := s.notifier.Publish(ctx, comment); err != nil {
			s.log.Warn("failed to publish comment", zap.String("comment", comment.ID), zap.Error(err))
		}
	}
	s.log.Info("comment created", zap.String("comment", comment.ID), zap.String("post", comment.PostID))
	return comment, nil
}

// link attaches a new comment to its parent's replies or to the post's
// top-level list. A parent that does not exist leaves the comment unlinked.
func (s *CommentService) link(ctx context.Context, comment *models.Comment) error {
	if comment.IsTopLevel() {
		if err := s.store.AddPostComment(ctx, comment.PostID, comment.ID); err != nil {
			return lookupError(err, "Post not found")
		}
		return nil
	}

	err := s.store.AddReply(ctx, *comment.ParentID, comment.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.log.Warn("parent comment missing, reply left unlinked",
			zap.String("comment", comment.ID), zap.String("parent", *comment.ParentID))
	case err != nil:
		return errs.Unexpected(err)
	}
	return nil
}

func (s *CommentService) Update(ctx context.Context, commentID, authorID, content string) (*models.Comment, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}

	comment, err := s.store.UpdateCommentContent(ctx, commentID, authorID, content, s.now())
	if err != nil {
		return nil, lookupError(err, "Comment not found")
	}
	return comment, nil
}

// Delete removes the comment and all of its descendants and reports how many
// comments were removed. Only the author may delete a comment; anyone else
// gets the same NotFound as for a missing comment.
func (s *CommentService) Delete(ctx context.Context, commentID, authorID string) (removed int, err error) {
	ctx, span := tracer.Start(ctx, "CommentService.Delete",
		trace.WithAttributes(attribute.String("comment.id", commentID)))
	defer func() {
		span.SetAttributes(attribute.Int("comments.removed", removed))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	comment, err := s.store.GetOwnedComment(ctx, commentID, authorID)
	if err != nil {
		return 0, lookupError(err, "Comment not found")
	}

	if comment.IsTopLevel() {
		err = s.store.RemovePostComment(ctx, comment.PostID, comment.ID)
	} else {
		err = s.store.RemoveReply(ctx, *comment.ParentID, comment.ID)
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, errs.Unexpected(err)
	}

	removed, err = s.deleteSubtree(ctx, comment.ID)
	if s.metrics != nil {
		s.metrics.CommentsDeleted.Add(float64(removed))
	}
	if err != nil {
		s.log.Error("comment cascade aborted",
			zap.String("comment", commentID), zap.Int("removed", removed), zap.Error(err))
		return removed, errs.Unexpected(err)
	}

	s.log.Info("comment deleted", zap.String("comment", commentID), zap.Int("removed", removed))
	return removed, nil
}

// deleteSubtree walks the tree below rootID depth-first and deletes every
// node after all of its children. Children are found by parent id.
func (s *CommentService) deleteSubtree(ctx context.Context, rootID string) (int, error) {
	type frame struct {
		id       string
		expanded bool
	}

	stack := []frame{{id: rootID}}
	visited := map[string]struct{}{rootID: {}}
	removed := 0

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		top := len(stack) - 1
		if stack[top].expanded {
			id := stack[top].id
			stack = stack[:top]

			err := s.store.DeleteComment(ctx, id)
			switch {
			case err == nil:
				removed++
			case !errors.Is(err, storage.ErrNotFound):
				return removed, err
			}
			continue
		}

		stack[top].expanded = true
		children, err := s.store.GetRepliesByParentID(ctx, stack[top].id)
		if err != nil {
			return removed, err
		}
		// reversed, so the oldest child is removed first
		for i := len(children) - 1; i >= 0; i-- {
			id := children[i].ID
			if _, seen := visited[id]; seen {
				continue
			}
			visited[id] = struct{}{}
			stack = append(stack, frame{id: id})
		}
	}
	return removed, nil
}

// ListReplies returns the direct replies of a comment, oldest first.
func (s *CommentService) ListReplies(ctx context.Context, commentID string) ([]models.CommentWithAuthor, error) {
	replies, err := s.store.GetRepliesByParentID(ctx, commentID)
	if err != nil {
		return nil, errs.Unexpected(err)
	}
	return commentsWithAuthors(ctx, s.store, replies)
}

// ListPostComments pages through a post's top-level comments, oldest first.
func (s *CommentService) ListPostComments(ctx context.Context, postID string, limit, offset int) ([]models.CommentWithAuthor, error) {
	if _, err := s.store.GetPostByID(ctx, postID); err != nil {
		return nil, lookupError(err, "Post not found")
	}

	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	comments, err := s.store.GetCommentsByPostID(ctx, postID, limit, offset)
	if err != nil {
		return nil, errs.Unexpected(err)
	}
	return commentsWithAuthors(ctx, s.store, comments)
}

// Watch streams the comments created on a post from now on. The channel is
// closed once ctx is done.
func (s *CommentService) Watch(ctx context.Context, postID string) (<-chan *models.Comment, error) {
	if s.notifier == nil {
		return nil, errs.Unexpected(errors.New("comment notifications are not configured"))
	}
	if _, err := s.store.GetPostByID(ctx, postID); err != nil {
		return nil, lookupError(err, "Post not found")
	}

	ch, err := s.notifier.Subscribe(ctx, postID)
	if err != nil {
		s.log.Error("failed to subscribe", zap.String("post", postID), zap.Error(err))
		return nil, errs.Unexpected(err)
	}
	return ch, nil
}
