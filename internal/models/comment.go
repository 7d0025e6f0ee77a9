package models

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID     uuid.UUID `json:"_id" db:"id"`
	User   uuid.UUID `json:"user" db:"user_id"`
	Text   string    `json:"text" db:"text"`
	Name   string    `json:"name" db:"name"`
	Avatar string    `json:"avatar" db:"avatar"`
	Date   time.Time `json:"date" db:"created_at"`
}

func NewComment(author *User, text string) *Comment {
	return &Comment{
		ID:     uuid.New(),
		User:   author.ID,
		Text:   text,
		Name:   author.Name,
		Avatar: author.Avatar,
		Date:   time.Now().UTC(),
	}
}
