package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/MosinFAM/blog-posts/internal/models"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose"
	"go.uber.org/zap"
)

const (
	postColumns    = "id, title, content, author_id, likes, comments, created_at, updated_at"
	commentColumns = "id, content, author_id, post_id, parent_id, replies, created_at, updated_at"
	userColumns    = "id, username, password_hash, created_at"

	uniqueViolation = "23505"
)

// PostgresStorage - PostgreSQL storage
type PostgresStorage struct {
	DB         *sql.DB
	DataSource string
	log        *zap.Logger
}

// NewPostgresStorage creates a PostgreSQL storage over an open connection pool
func NewPostgresStorage(db *sql.DB, dataSource string, log *zap.Logger) *PostgresStorage {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostgresStorage{DB: db, DataSource: dataSource, log: log.Named("postgres")}
}

// InitDB applies the goose migrations found in dir
func (s *PostgresStorage) InitDB(dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "set goose dialect")
	}
	if err := goose.Up(s.DB, dir); err != nil {
		return errors.Wrap(err, "apply migrations")
	}
	s.log.Info("migrations applied", zap.String("dir", dir))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.Title, &post.Content, &post.AuthorID,
		pq.Array(&post.Likes), pq.Array(&post.Comments), &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if post.Likes == nil {
		post.Likes = []string{}
	}
	if post.Comments == nil {
		post.Comments = []string{}
	}
	return &post, nil
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var comment models.Comment
	err := row.Scan(&comment.ID, &comment.Content, &comment.AuthorID, &comment.PostID,
		&comment.ParentID, pq.Array(&comment.Replies), &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if comment.Replies == nil {
		comment.Replies = []string{}
	}
	return &comment, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

// notFound maps sql.ErrNoRows to ErrNotFound and wraps everything else
func notFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return errors.Wrap(err, op)
}

func expectRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, op)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) CreatePost(ctx context.Context, post *models.Post) error {
	s.log.Info("adding post", zap.String("post", post.ID))
	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO posts ("+postColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		post.ID, post.Title, post.Content, post.AuthorID,
		pq.Array(nonNil(post.Likes)), pq.Array(nonNil(post.Comments)), post.CreatedAt, post.UpdatedAt)
	if err != nil {
		s.log.Error("insert post", zap.Error(err))
		return errors.Wrap(err, "insert post")
	}
	return nil
}

// GetAllPosts returns every post, newest first
func (s *PostgresStorage) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	s.log.Debug("fetching all posts")
	rows, err := s.DB.QueryContext(ctx, "SELECT "+postColumns+" FROM posts ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, errors.Wrap(err, "select posts")
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan post")
		}
		posts = append(posts, *post)
	}
	return posts, errors.Wrap(rows.Err(), "iterate posts")
}

func (s *PostgresStorage) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	s.log.Debug("fetching post", zap.String("post", id))
	row := s.DB.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts WHERE id = $1", id)
	post, err := scanPost(row)
	if err != nil {
		return nil, notFound(err, "select post")
	}
	return post, nil
}

func (s *PostgresStorage) UpdatePost(ctx context.Context, id, authorID, title, content string, at time.Time) (*models.Post, error) {
	row := s.DB.QueryRowContext(ctx,
		"UPDATE posts SET title = $3, content = $4, updated_at = $5 WHERE id = $1 AND author_id = $2 RETURNING "+postColumns,
		id, authorID, title, content, at)
	post, err := scanPost(row)
	if err != nil {
		return nil, notFound(err, "update post")
	}
	s.log.Info("updated post", zap.String("post", id))
	return post, nil
}

func (s *PostgresStorage) DeletePost(ctx context.Context, id, authorID string) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM posts WHERE id = $1 AND author_id = $2", id, authorID)
	if err != nil {
		return errors.Wrap(err, "delete post")
	}
	if err := expectRow(res, "delete post"); err != nil {
		return err
	}
	s.log.Info("deleted post", zap.String("post", id))
	return nil
}

func (s *PostgresStorage) AddPostComment(ctx context.Context, postID, commentID string) error {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE posts SET comments = array_append(comments, $2) WHERE id = $1", postID, commentID)
	if err != nil {
		return errors.Wrap(err, "push post comment")
	}
	return expectRow(res, "push post comment")
}

func (s *PostgresStorage) RemovePostComment(ctx context.Context, postID, commentID string) error {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE posts SET comments = array_remove(comments, $2) WHERE id = $1", postID, commentID)
	if err != nil {
		return errors.Wrap(err, "pull post comment")
	}
	return expectRow(res, "pull post comment")
}

// AddLike appends userID unless it is already in the liker set
func (s *PostgresStorage) AddLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	_, err := s.DB.ExecContext(ctx,
		"UPDATE posts SET likes = array_append(likes, $2::text) WHERE id = $1 AND NOT ($2::text = ANY(likes))",
		postID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "add like")
	}
	return s.GetPostByID(ctx, postID)
}

func (s *PostgresStorage) RemoveLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	row := s.DB.QueryRowContext(ctx,
		"UPDATE posts SET likes = array_remove(likes, $2) WHERE id = $1 RETURNING "+postColumns, postID, userID)
	post, err := scanPost(row)
	if err != nil {
		return nil, notFound(err, "remove like")
	}
	return post, nil
}

func (s *PostgresStorage) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.log.Info("adding comment", zap.String("comment", comment.ID), zap.String("post", comment.PostID))
	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO comments ("+commentColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		comment.ID, comment.Content, comment.AuthorID, comment.PostID, comment.ParentID,
		pq.Array(nonNil(comment.Replies)), comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		s.log.Error("insert comment", zap.Error(err))
		return errors.Wrap(err, "insert comment")
	}
	return nil
}

func (s *PostgresStorage) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	row := s.DB.QueryRowContext(ctx, "SELECT "+commentColumns+" FROM comments WHERE id = $1", id)
	comment, err := scanComment(row)
	if err != nil {
		return nil, notFound(err, "select comment")
	}
	return comment, nil
}

func (s *PostgresStorage) GetOwnedComment(ctx context.Context, id, authorID string) (*models.Comment, error) {
	row := s.DB.QueryRowContext(ctx,
		"SELECT "+commentColumns+" FROM comments WHERE id = $1 AND author_id = $2", id, authorID)
	comment, err := scanComment(row)
	if err != nil {
		return nil, notFound(err, "select comment")
	}
	return comment, nil
}

func (s *PostgresStorage) UpdateCommentContent(ctx context.Context, id, authorID, content string, at time.Time) (*models.Comment, error) {
	row := s.DB.QueryRowContext(ctx,
		"UPDATE comments SET content = $3, updated_at = $4 WHERE id = $1 AND author_id = $2 RETURNING "+commentColumns,
		id, authorID, content, at)
	comment, err := scanComment(row)
	if err != nil {
		return nil, notFound(err, "update comment")
	}
	s.log.Info("updated comment", zap.String("comment", id))
	return comment, nil
}

func (s *PostgresStorage) DeleteComment(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "delete comment")
	}
	if err := expectRow(res, "delete comment"); err != nil {
		return err
	}
	s.log.Info("deleted comment", zap.String("comment", id))
	return nil
}

func (s *PostgresStorage) AddReply(ctx context.Context, parentID, replyID string) error {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE comments SET replies = array_append(replies, $2) WHERE id = $1", parentID, replyID)
	if err != nil {
		return errors.Wrap(err, "push reply")
	}
	return expectRow(res, "push reply")
}

func (s *PostgresStorage) RemoveReply(ctx context.Context, parentID, replyID string) error {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE comments SET replies = array_remove(replies, $2) WHERE id = $1", parentID, replyID)
	if err != nil {
		return errors.Wrap(err, "pull reply")
	}
	return expectRow(res, "pull reply")
}

func (s *PostgresStorage) queryComments(ctx context.Context, op, query string, args ...any) ([]models.Comment, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, errors.Wrap(err, op)
		}
		comments = append(comments, *comment)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, op)
	}
	return comments, nil
}

func (s *PostgresStorage) GetRepliesByParentID(ctx context.Context, parentID string) ([]models.Comment, error) {
	return s.queryComments(ctx, "select replies",
		"SELECT "+commentColumns+" FROM comments WHERE parent_id = $1 ORDER BY created_at ASC, id ASC", parentID)
}

func (s *PostgresStorage) GetCommentsByPostID(ctx context.Context, postID string, limit, offset int) ([]models.Comment, error) {
	s.log.Debug("fetching comments", zap.String("post", postID))
	return s.queryComments(ctx, "select comments",
		"SELECT "+commentColumns+" FROM comments WHERE post_id = $1 AND parent_id IS NULL ORDER BY created_at ASC, id ASC LIMIT $2 OFFSET $3",
		postID, limit, offset)
}

func (s *PostgresStorage) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES ($1, $2, $3, $4)",
		user.ID, user.Username, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return errors.Wrap(err, "insert user")
	}
	s.log.Info("registered user", zap.String("user", user.ID))
	return nil
}

func (s *PostgresStorage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := scanUser(s.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		return nil, notFound(err, "select user")
	}
	return user, nil
}

func (s *PostgresStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := scanUser(s.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", username))
	if err != nil {
		return nil, notFound(err, "select user")
	}
	return user, nil
}

func (s *PostgresStorage) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, errors.Wrap(err, "select users")
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		users = append(users, *user)
	}
	return users, errors.Wrap(rows.Err(), "iterate users")
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
