package models

import "time"

type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
}

// Author is the public identity shown next to posts and comments.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// AsAuthor strips everything but the display identity.
func (u *User) AsAuthor() Author {
	return Author{ID: u.ID, Username: u.Username}
}
