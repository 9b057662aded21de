package models

import (
	"time"

	"github.com/ecodeclub/ekit/slice"
)

type Post struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	AuthorID  string    `json:"authorId" bson:"author"`
	Likes     []string  `json:"likes" bson:"likes"`
	Comments  []string  `json:"comments" bson:"comments"` // top-level comment ids only
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// LikedBy reports whether userID is in the post's liker set.
func (p *Post) LikedBy(userID string) bool {
	return slice.Contains(p.Likes, userID)
}

// PostWithAuthor is a post resolved with its author's display identity.
type PostWithAuthor struct {
	Post
	Author Author `json:"author"`
}

// PostDetail is a post with its top-level comments populated.
type PostDetail struct {
	PostWithAuthor
	CommentList []CommentWithAuthor `json:"commentList"`
}
