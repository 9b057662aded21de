package handler

import (
	"net/http"

	"github.com/MosinFAM/blog-posts/internal/auth"
	"github.com/MosinFAM/blog-posts/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const serviceName = "blog-posts"

type RouterConfig struct {
	Tokens         *auth.TokenManager
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	Log            *zap.Logger
}

// NewRouter assembles the gin engine with tracing, metrics, access logs and
// CORS around the blog routes.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(Recovery(log), otelgin.Middleware(serviceName), RequestLogger(log))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
		r.GET("/metrics", cfg.Metrics.Handler())
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	h.Routes(r, cfg.Tokens)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
	})
	return c.Handler(r)
}
