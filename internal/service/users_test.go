package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MosinFAM/blog-posts/internal/auth"
	"github.com/MosinFAM/blog-posts/internal/errs"
	"github.com/MosinFAM/blog-posts/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService() (*UserService, *auth.TokenManager) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewUserService(storage.NewMemoryStorage(nil), tokens, nil), tokens
}

func TestRegister(t *testing.T) {
	svc, tokens := newUserService()
	ctx := context.Background()

	session, err := svc.Register(ctx, " alice ", "password")
	require.NoError(t, err)
	assert.Equal(t, "alice", session.User.Username)

	id, err := tokens.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, id.UserID)
	assert.Equal(t, "alice", id.Username)

	_, err = svc.Register(ctx, "alice", "another-password")
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, "Username already taken", err.Error())
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		password string
	}{
		{name: "short username", username: "al", password: "password"},
		{name: "long username", username: strings.Repeat("a", 33), password: "password"},
		{name: "short password", username: "alice", password: "12345"},
		{name: "long password", username: "alice", password: strings.Repeat("p", 73)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.password)
			assert.True(t, errs.IsValidation(err))
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()
	registered, err := svc.Register(ctx, "alice", "password")
	require.NoError(t, err)

	session, err := svc.Login(ctx, "alice", "password")
	require.NoError(t, err)
	assert.Equal(t, registered.User, session.User)
	assert.NotEmpty(t, session.Token)

	_, err = svc.Login(ctx, "alice", "wrong-password")
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, "Invalid credentials", err.Error())

	_, err = svc.Login(ctx, "nobody", "password")
	assert.Equal(t, "Invalid credentials", err.Error())
}

func TestMe(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()
	session, err := svc.Register(ctx, "alice", "password")
	require.NoError(t, err)

	me, err := svc.Me(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, session.User, *me)

	_, err = svc.Me(ctx, "ghost")
	assert.True(t, errs.IsNotFound(err))
}
