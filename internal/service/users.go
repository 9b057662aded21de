package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MosinFAM/blog-posts/internal/auth"
	"github.com/MosinFAM/blog-posts/internal/errs"
	"github.com/MosinFAM/blog-posts/internal/models"
	"github.com/MosinFAM/blog-posts/internal/storage"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	minUsername = 3
	maxUsername = 32
	minPassword = 6
	maxPassword = 72 // bcrypt ignores anything longer
)

// Session is what register and login hand back to the client.
type Session struct {
	User  models.Author `json:"user"`
	Token string        `json:"token"`
}

type UserService struct {
	store  storage.UserStore
	tokens *auth.TokenManager
	log    *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewUserService(store storage.UserStore, tokens *auth.TokenManager, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{
		store:  store,
		tokens: tokens,
		log:    log.Named("users"),
		now:    clock,
		newID:  newID,
	}
}

func (s *UserService) Register(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < minUsername || n > maxUsername {
		return nil, errs.Validation("Username must be between 3 and 32 characters")
	}
	if len(password) < minPassword {
		return nil, errs.Validation("Password must be at least 6 characters")
	}
	if len(password) > maxPassword {
		return nil, errs.Validation("Password must be at most 72 bytes")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, errs.Unexpected(err)
	}
	user := &models.User{
		ID:           s.newID(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, errs.Validation("Username already taken")
		}
		s.log.Error("failed to register user", zap.Error(err))
		return nil, errs.Unexpected(err)
	}

	s.log.Info("user registered", zap.String("user", user.ID))
	return s.session(user)
}

func (s *UserService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errs.Validation("Invalid credentials")
		}
		return nil, errs.Unexpected(err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, errs.Validation("Invalid credentials")
	}
	return s.session(user)
}

// Me returns the display identity of the authenticated caller.
func (s *UserService) Me(ctx context.Context, userID string) (*models.Author, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "User not found")
	}
	author := user.AsAuthor()
	return &author, nil
}

func (s *UserService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(auth.Identity{UserID: user.ID, Username: user.Username})
	if err != nil {
		return nil, errs.Unexpected(err)
	}
	return &Session{User: user.AsAuthor(), Token: token}, nil
}
