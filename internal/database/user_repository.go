// internal/database/user_repository.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dev-connector/internal/models"
	"dev-connector/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserDocument represents the MongoDB schema for a user
type UserDocument struct {
	ID             string    `bson:"_id"`
	Name           string    `bson:"name"`
	Email          string    `bson:"email"`
	HashedPassword string    `bson:"password"`
	Avatar         string    `bson:"avatar"`
	Date           time.Time `bson:"date"`
}

func documentToUser(doc *UserDocument) (*models.User, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in database: %w", err)
	}
	return &models.User{
		ID:             id,
		Name:           doc.Name,
		Email:          doc.Email,
		HashedPassword: doc.HashedPassword,
		Avatar:         doc.Avatar,
		Date:           doc.Date,
	}, nil
}

// SaveUser inserts a new user. A second account with the same email is rejected
// by the unique index.
func (m *MongoDB) SaveUser(ctx context.Context, user *models.User) error {
	doc := UserDocument{
		ID:             user.ID.String(),
		Name:           user.Name,
		Email:          models.NormalizeEmail(user.Email),
		HashedPassword: user.HashedPassword,
		Avatar:         user.Avatar,
		Date:           user.Date,
	}

	_, err := m.Users.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return utils.NewAppError(utils.ErrUserAlreadyExists, "User already exists", err)
	}
	if err != nil {
		return utils.NewDatabaseError("Failed to save user", err)
	}
	return nil
}

// GetUser retrieves a user from MongoDB by their ID
func (m *MongoDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id.String()}, id.String())
}

// GetUserByEmail retrieves a user from MongoDB by their email address
func (m *MongoDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	return m.findUser(ctx, bson.M{"email": email}, email)
}

func (m *MongoDB) findUser(ctx context.Context, filter bson.M, key string) (*models.User, error) {
	var doc UserDocument
	err := m.Users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewUserNotFoundError(key)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to load user", err)
	}
	return documentToUser(&doc)
}

// DeleteUser removes the account with the given ID.
func (m *MongoDB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	result, err := m.Users.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return utils.NewDatabaseError("Failed to delete user", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewUserNotFoundError(id.String())
	}
	return nil
}
