package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/MosinFAM/blog-posts/internal/models"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const pingInterval = 90 * time.Second

// CommentLookup loads a published comment on the listening side.
type CommentLookup interface {
	GetCommentByID(ctx context.Context, id string) (*models.Comment, error)
}

// ref is the NOTIFY payload. Comments themselves can exceed the 8000 byte
// payload limit, so only ids travel through the channel.
type ref struct {
	ID     string `json:"id"`
	PostID string `json:"postId"`
}

func encodeRef(comment *models.Comment) (string, error) {
	payload, err := json.Marshal(ref{ID: comment.ID, PostID: comment.PostID})
	if err != nil {
		return "", errors.Wrap(err, "encode comment ref")
	}
	return string(payload), nil
}

// PGNotifier delivers comments through PostgreSQL LISTEN/NOTIFY so every
// server instance sharing the database sees them.
type PGNotifier struct {
	db         *sql.DB
	dataSource string
	comments   CommentLookup
	log        *zap.Logger
}

func NewPGNotifier(db *sql.DB, dataSource string, comments CommentLookup, log *zap.Logger) *PGNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &PGNotifier{db: db, dataSource: dataSource, comments: comments, log: log.Named("pg-notify")}
}

func (n *PGNotifier) Publish(ctx context.Context, comment *models.Comment) error {
	payload, err := encodeRef(comment)
	if err != nil {
		return err
	}
	if _, err := n.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", channelName, payload); err != nil {
		return errors.Wrap(err, "notify")
	}
	return nil
}

func (n *PGNotifier) Subscribe(ctx context.Context, postID string) (<-chan *models.Comment, error) {
	listener := pq.NewListener(n.dataSource, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			n.log.Warn("listener event", zap.Error(err))
		}
	})
	if err := listener.Listen(channelName); err != nil {
		_ = listener.Close()
		return nil, errors.Wrapf(err, "listen on %s", channelName)
	}

	ch := make(chan *models.Comment, subscriberBuffer)
	go func() {
		defer close(ch)
		defer listener.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(pingInterval):
				if err := listener.Ping(); err != nil {
					n.log.Error("listener ping", zap.Error(err))
					return
				}
			case notification := <-listener.Notify:
				// nil after a reconnect
				if notification == nil {
					continue
				}
				var r ref
				if err := json.Unmarshal([]byte(notification.Extra), &r); err != nil {
					n.log.Warn("bad notification payload", zap.Error(err))
					continue
				}
				if r.PostID != postID {
					continue
				}
				comment, err := n.comments.GetCommentByID(ctx, r.ID)
				if err != nil {
					// deleted before we got to it
					n.log.Debug("skipping comment", zap.String("comment", r.ID), zap.Error(err))
					continue
				}
				select {
				case ch <- comment:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
