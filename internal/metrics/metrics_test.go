package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.CommentsCreated.Inc()
	m.CommentsDeleted.Add(3)
	m.PostLikes.WithLabelValues("like").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommentsCreated))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CommentsDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PostLikes.WithLabelValues("like")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/posts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts/42", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.Contains(body, `blog_http_request_duration_seconds_count{method="GET",route="/posts/:id",status="200"} 1`))
}
