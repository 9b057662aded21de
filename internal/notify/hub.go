package notify

import (
	"context"
	"sync"

	"github.com/MosinFAM/blog-posts/internal/models"

	"go.uber.org/zap"
)

const subscriberBuffer = 16

// Hub is an in-process Notifier
type Hub struct {
	mu            sync.Mutex
	subscriptions map[string][]chan *models.Comment
	log           *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		subscriptions: make(map[string][]chan *models.Comment),
		log:           log.Named("hub"),
	}
}

// Publish never blocks: a subscriber whose buffer is full misses the comment
func (h *Hub) Publish(_ context.Context, comment *models.Comment) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subscriptions[comment.PostID] {
		c := *comment
		select {
		case ch <- &c:
		default:
			h.log.Warn("subscriber too slow, dropping comment", zap.String("post", comment.PostID))
		}
	}
	return nil
}

func (h *Hub) Subscribe(ctx context.Context, postID string) (<-chan *models.Comment, error) {
	ch := make(chan *models.Comment, subscriberBuffer)

	h.mu.Lock()
	h.subscriptions[postID] = append(h.subscriptions[postID], ch)
	h.mu.Unlock()
	h.log.Debug("subscribed", zap.String("post", postID))

	// unsubscribe once the caller goes away
	go func() {
		<-ctx.Done()
		h.mu.Lock()
		defer h.mu.Unlock()

		subs := h.subscriptions[postID]
		for i, sub := range subs {
			if sub == ch {
				h.subscriptions[postID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(h.subscriptions[postID]) == 0 {
			delete(h.subscriptions, postID)
		}
		close(ch)
	}()

	return ch, nil
}

// Subscribers returns the number of live subscriptions for a post
func (h *Hub) Subscribers(postID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscriptions[postID])
}
