// internal/database/database.go
package database

import (
	"context"

	"dev-connector/internal/models"

	"github.com/google/uuid"
)

// PostStore persists posts together with their likes and comments.
//
// Like and comment mutations are single atomic updates: concurrent callers
// never lose each other's writes and a user never appears twice in a like list.
type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	ListPosts(ctx context.Context) ([]*models.Post, error) // newest first
	GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
	DeletePostsByUser(ctx context.Context, userID uuid.UUID) error

	AddLike(ctx context.Context, postID, userID uuid.UUID) ([]models.Like, error)
	RemoveLike(ctx context.Context, postID, userID uuid.UUID) ([]models.Like, error)

	AddComment(ctx context.Context, postID uuid.UUID, comment *models.Comment) ([]models.Comment, error)
	RemoveComment(ctx context.Context, postID, commentID, userID uuid.UUID) ([]models.Comment, error)
}

// UserStore persists accounts. Emails are unique.
type UserStore interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// ProfileStore persists developer profiles, at most one per user.
type ProfileStore interface {
	UpsertProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	GetProfileByUser(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	ListProfiles(ctx context.Context) ([]*models.Profile, error)
	DeleteProfileByUser(ctx context.Context, userID uuid.UUID) error
}

// DBAdapter defines the common interface for database operations.
// It is implemented by MongoDB, PostgresDB and MemoryDB.
type DBAdapter interface {
	PostStore
	UserStore
	ProfileStore

	Close(ctx context.Context) error
}

var (
	_ DBAdapter = (*MongoDB)(nil)
	_ DBAdapter = (*PostgresDB)(nil)
	_ DBAdapter = (*MemoryDB)(nil)
)
