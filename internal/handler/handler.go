// Package handler exposes the blog over HTTP.
package handler

import (
	"net/http"

	"github.com/MosinFAM/blog-posts/internal/auth"
	"github.com/MosinFAM/blog-posts/internal/errs"
	"github.com/MosinFAM/blog-posts/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	comments *service.CommentService
	posts    *service.PostService
	users    *service.UserService
	log      *zap.Logger
}

func New(comments *service.CommentService, posts *service.PostService, users *service.UserService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	registerValidators()
	return &Handler{comments: comments, posts: posts, users: users, log: log.Named("http")}
}

// Routes mounts every blog endpoint on r. Mutations go through the auth
// middleware.
func (h *Handler) Routes(r gin.IRouter, tokens *auth.TokenManager) {
	requireAuth := auth.Middleware(tokens)

	a := r.Group("/auth")
	a.POST("/register", h.register)
	a.POST("/login", h.login)
	a.GET("/me", requireAuth, h.me)

	p := r.Group("/posts")
	p.GET("", h.listPosts)
	p.GET("/:id", h.getPost)
	p.GET("/:id/comments", h.listPostComments)
	p.GET("/:id/comments/stream", h.streamComments)
	p.POST("", requireAuth, h.createPost)
	p.PUT("/:id", requireAuth, h.updatePost)
	p.DELETE("/:id", requireAuth, h.deletePost)
	p.POST("/:id/like", requireAuth, h.likePost)
	p.POST("/:id/unlike", requireAuth, h.unlikePost)

	cm := r.Group("/comments")
	cm.GET("/:id/replies", h.listReplies)
	cm.POST("", requireAuth, h.createComment)
	cm.PUT("/:id", requireAuth, h.updateComment)
	cm.DELETE("/:id", requireAuth, h.deleteComment)
}

// fail writes err as {"error": msg} with the status of its kind.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		status = http.StatusNotFound
	case errs.KindValidation:
		status = http.StatusBadRequest
	default:
		h.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func caller(c *gin.Context) string {
	id, _ := auth.CurrentUser(c)
	return id.UserID
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if !h.bind(c, c.ShouldBindJSON, &req) {
		return
	}
	session, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if !h.bind(c, c.ShouldBindJSON, &req) {
		return
	}
	session, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) me(c *gin.Context) {
	author, err := h.users.Me(c.Request.Context(), caller(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, author)
}

func (h *Handler) listPosts(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) getPost(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) createPost(c *gin.Context) {
	var req postRequest
	if !h.bind(c, c.ShouldBindJSON, &req) {
		return
	}
	post, err := h.posts.Create(c.Request.Context(), caller(c), req.Title, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *Handler) updatePost(c *gin.Context) {
	var req postRequest
	if !h.bind(c, c.ShouldBindJSON, &req) {
		return
	}
	post, err := h.posts.Update(c.Request.Context(), c.Param("id"), caller(c), req.Title, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) deletePost(c *gin.Context) {
	if err := h.posts.Delete(c.Request.Context(), c.Param("id"), caller(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func (h *Handler) likePost(c *gin.Context) {
	post, err := h.posts.Like(c.Request.Context(), c.Param("id"), caller(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) unlikePost(c *gin.Context) {
	post, err := h.posts.Unlike(c.Request.Context(), c.Param("id"), caller(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) listPostComments(c *gin.Context) {
	var q pageQuery
	if !h.bind(c, c.ShouldBindQuery, &q) {
		return
	}
	comments, err := h.comments.ListPostComments(c.Request.Context(), c.Param("id"), q.Limit, q.Offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *Handler) createComment(c *gin.Context) {
	var req createCommentRequest
	if !h.bind(c, c.ShouldBindJSON, &req) {
		return
	}
	comment, err := h.comments.Create(c.Request.Context(), service.CreateCommentInput{
		Content:         req.Content,
		PostID:          req.PostID,
		ParentCommentID: req.ParentCommentID,
	}, caller(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *Handler) updateComment(c *gin.Context) {
	var req updateCommentRequest
	if !h.bind(c, c.ShouldBindJSON, &req) {
		return
	}
	comment, err := h.comments.Update(c.Request.Context(), c.Param("id"), caller(c), req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *Handler) deleteComment(c *gin.Context) {
	if _, err := h.comments.Delete(c.Request.Context(), c.Param("id"), caller(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

func (h *Handler) listReplies(c *gin.Context) {
	replies, err := h.comments.ListReplies(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, replies)
}
