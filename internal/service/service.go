// Package service implements the blog's use cases on top of storage.
package service

import (
	"context"
	"time"

	"github.com/MosinFAM/blog-posts/internal/errs"
	"github.com/MosinFAM/blog-posts/internal/models"
	"github.com/MosinFAM/blog-posts/internal/storage"

	"github.com/ecodeclub/ekit/slice"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/MosinFAM/blog-posts/internal/service")

// clock truncates to milliseconds, the resolution every backend keeps.
func clock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// newID returns a time-ordered uuid, so ids sort like creation times.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// lookupError maps a storage miss to a NotFound with msg.
func lookupError(err error, msg string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return errs.NotFound(msg)
	}
	return errs.Unexpected(err)
}

// authors resolves display identities for ids. Unknown ids get an Author
// with an empty username.
func authors(ctx context.Context, users storage.UserStore, ids []string) (map[string]models.Author, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}

	found, err := users.GetUsersByIDs(ctx, unique)
	if err != nil {
		return nil, errs.Unexpected(err)
	}
	result := make(map[string]models.Author, len(unique))
	for _, id := range unique {
		result[id] = models.Author{ID: id}
	}
	for i := range found {
		result[found[i].ID] = found[i].AsAuthor()
	}
	return result, nil
}

func commentsWithAuthors(ctx context.Context, users storage.UserStore, comments []models.Comment) ([]models.CommentWithAuthor, error) {
	byID, err := authors(ctx, users, slice.Map(comments, func(_ int, src models.Comment) string {
		return src.AuthorID
	}))
	if err != nil {
		return nil, err
	}
	return slice.Map(comments, func(_ int, src models.Comment) models.CommentWithAuthor {
		return models.CommentWithAuthor{Comment: src, Author: byID[src.AuthorID]}
	}), nil
}
