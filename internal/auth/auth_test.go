package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenManager("s3cret", time.Hour)

	raw, err := tokens.Issue(Identity{UserID: "u1", Username: "alice"})
	require.NoError(t, err)

	id, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u1", Username: "alice"}, id)
}

func TestParse_Rejects(t *testing.T) {
	tokens := NewTokenManager("s3cret", time.Hour)
	raw, err := tokens.Issue(Identity{UserID: "u1", Username: "alice"})
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenManager("s3cret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, err = expired.Issue(Identity{UserID: "u1"})
	require.NoError(t, err)
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := NewTokenManager("s3cret", time.Hour)

	r := gin.New()
	r.GET("/me", Middleware(tokens), func(c *gin.Context) {
		id, ok := CurrentUser(c)
		require.True(t, ok)
		c.String(http.StatusOK, id.Username)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	raw, err := tokens.Issue(Identity{UserID: "u1", Username: "alice"})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())
}
