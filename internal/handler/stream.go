package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamComments upgrades to a websocket and writes every new comment of the
// post as JSON until either side goes away.
func (h *Handler) streamComments(c *gin.Context) {
	postID := c.Param("id")
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	comments, err := h.comments.Watch(ctx, postID)
	if err != nil {
		h.fail(c, err)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.String("post", postID), zap.Error(err))
		return
	}
	defer ws.Close()
	h.log.Debug("stream opened", zap.String("post", postID))

	// the client only ever closes, reads detect that
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case comment, ok := <-comments:
			if !ok {
				return
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(comment); err != nil {
				h.log.Debug("stream closed", zap.String("post", postID), zap.Error(err))
				return
			}
		}
	}
}
