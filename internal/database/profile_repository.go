// internal/database/profile_repository.go
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
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ProfileDocument represents the MongoDB schema for a profile
type ProfileDocument struct {
	ID             string        `bson:"_id"`
	User           string        `bson:"user"`
	Company        string        `bson:"company,omitempty"`
	Website        string        `bson:"website,omitempty"`
	Location       string        `bson:"location,omitempty"`
	Status         string        `bson:"status"`
	Skills         []string      `bson:"skills"`
	Bio            string        `bson:"bio,omitempty"`
	GithubUsername string        `bson:"githubusername,omitempty"`
	Social         models.Social `bson:"social"`
	Date           time.Time     `bson:"date"`
}

func documentToProfile(doc *ProfileDocument) (*models.Profile, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid profile ID in database: %w", err)
	}
	userID, err := uuid.Parse(doc.User)
	if err != nil {
		return nil, fmt.Errorf("invalid profile user ID in database: %w", err)
	}
	skills := doc.Skills
	if skills == nil {
		skills = []string{}
	}
	return &models.Profile{
		ID:             id,
		User:           userID,
		Company:        doc.Company,
		Website:        doc.Website,
		Location:       doc.Location,
		Status:         doc.Status,
		Skills:         skills,
		Bio:            doc.Bio,
		GithubUsername: doc.GithubUsername,
		Social:         doc.Social,
		Date:           doc.Date,
	}, nil
}

// UpsertProfile creates the user's profile or replaces its fields, keeping the
// original profile ID.
func (m *MongoDB) UpsertProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	filter := bson.M{"user": profile.User.String()}
	update := bson.M{
		"$set": bson.M{
			"company":        profile.Company,
			"website":        profile.Website,
			"location":       profile.Location,
			"status":         profile.Status,
			"skills":         profile.Skills,
			"bio":            profile.Bio,
			"githubusername": profile.GithubUsername,
			"social":         profile.Social,
			"date":           profile.Date,
		},
		"$setOnInsert": bson.M{"_id": profile.ID.String()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc ProfileDocument
	if err := m.Profiles.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, utils.NewDatabaseError("Failed to save profile", err)
	}
	return documentToProfile(&doc)
}

func (m *MongoDB) GetProfileByUser(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var doc ProfileDocument
	err := m.Profiles.FindOne(ctx, bson.M{"user": userID.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewAppError(utils.ErrProfileNotFound, "Profile not found", nil)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to load profile", err)
	}
	return documentToProfile(&doc)
}

func (m *MongoDB) ListProfiles(ctx context.Context) ([]*models.Profile, error) {
	cursor, err := m.Profiles.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to query profiles", err)
	}
	defer cursor.Close(ctx)

	profiles := make([]*models.Profile, 0)
	for cursor.Next(ctx) {
		var doc ProfileDocument
		if err := cursor.Decode(&doc); err != nil {
			m.logger.Warn("Skipping undecodable profile document", zap.Error(err))
			continue
		}
		profile, err := documentToProfile(&doc)
		if err != nil {
			m.logger.Warn("Skipping malformed profile document", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		profiles = append(profiles, profile)
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewDatabaseError("Failed to iterate profiles", err)
	}
	return profiles, nil
}

// DeleteProfileByUser removes the user's profile. A missing profile is not an error.
func (m *MongoDB) DeleteProfileByUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := m.Profiles.DeleteOne(ctx, bson.M{"user": userID.String()}); err != nil {
		return utils.NewDatabaseError("Failed to delete profile", err)
	}
	return nil
}
