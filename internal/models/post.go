package models

import (
	"time"

	"github.com/google/uuid"
)

// Like records a single user's like on a post.
type Like struct {
	User uuid.UUID `json:"user" db:"user_id"`
}

type Post struct {
	ID       uuid.UUID `json:"_id" db:"id"`
	User     uuid.UUID `json:"user" db:"user_id"` // Author, never changes after creation
	Text     string    `json:"text" db:"text"`
	Name     string    `json:"name" db:"name"`     // Author name at creation time
	Avatar   string    `json:"avatar" db:"avatar"` // Author avatar at creation time
	Likes    []Like    `json:"likes"`              // Most recent first
	Comments []Comment `json:"comments"`           // Most recent first
	Date     time.Time `json:"date" db:"created_at"`
}

// NewPost builds a post authored by user with empty like and comment lists.
func NewPost(author *User, text string) *Post {
	return &Post{
		ID:       uuid.New(),
		User:     author.ID,
		Text:     text,
		Name:     author.Name,
		Avatar:   author.Avatar,
		Likes:    []Like{},
		Comments: []Comment{},
		Date:     time.Now().UTC(),
	}
}

// LikedBy reports whether userID is in the post's like set.
func (p *Post) LikedBy(userID uuid.UUID) bool {
	for _, like := range p.Likes {
		if like.User == userID {
			return true
		}
	}
	return false
}

// Normalize replaces nil slices so the post always encodes lists as [].
func (p *Post) Normalize() {
	if p.Likes == nil {
		p.Likes = []Like{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
}
