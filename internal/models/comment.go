package models

import "time"

// Comment is a comment attached to a post, optionally a reply to another comment.
type Comment struct {
	ID        string    `json:"id" bson:"_id"`
	Content   string    `json:"content" bson:"content"`
	AuthorID  string    `json:"authorId" bson:"author"`
	PostID    string    `json:"postId" bson:"post"`                   // root post, same for the whole subtree
	ParentID  *string   `json:"parentCommentId" bson:"parent_comment"` // nil for top-level comments
	Replies   []string  `json:"replies" bson:"replies"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// IsTopLevel reports whether the comment hangs directly off its post.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}

// CommentWithAuthor is a comment resolved with its author's display identity.
type CommentWithAuthor struct {
	Comment
	Author Author `json:"author"`
}
