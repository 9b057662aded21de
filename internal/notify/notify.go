// Package notify fans newly created comments out to live subscribers of a post.
package notify

import (
	"context"

	"github.com/MosinFAM/blog-posts/internal/models"
)

const channelName = "comments_channel"

// Notifier publishes new comments and lets callers follow a post's comments.
// Subscribe's channel is closed once ctx is done.
type Notifier interface {
	Publish(ctx context.Context, comment *models.Comment) error
	Subscribe(ctx context.Context, postID string) (<-chan *models.Comment, error)
}
