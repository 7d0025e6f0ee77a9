// internal/database/mongodb.go
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type MongoDB struct {
	Client   *mongo.Client
	Users    *mongo.Collection
	Posts    *mongo.Collection
	Profiles *mongo.Collection

	logger *zap.Logger
}

func NewMongoDB(ctx context.Context, uri, dbName string, logger *zap.Logger) (*MongoDB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	return newMongoDB(ctx, client, dbName, logger)
}

// newMongoDB verifies client and prepares the collections. The client is
// disconnected when that fails.
func newMongoDB(ctx context.Context, client *mongo.Client, dbName string, logger *zap.Logger) (*MongoDB, error) {
	m := &MongoDB{Client: client, logger: logger}
	if err := m.setup(ctx, dbName); err != nil {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if derr := client.Disconnect(disconnectCtx); derr != nil {
			logger.Warn("Failed to disconnect from MongoDB", zap.Error(derr))
		}
		return nil, err
	}
	return m, nil
}

func (m *MongoDB) setup(ctx context.Context, dbName string) error {
	// Ping the database to verify connection
	if err := m.Client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	m.logger.Info("Connected to MongoDB", zap.String("database", dbName))

	db := m.Client.Database(dbName)
	m.Users = db.Collection("users")
	m.Posts = db.Collection("posts")
	m.Profiles = db.Collection("profiles")
	return m.EnsureIndexes(ctx)
}

// EnsureIndexes creates the unique and sort indexes the repositories rely on.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	if _, err := m.Users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	}); err != nil {
		return fmt.Errorf("ensure users index: %w", err)
	}

	if _, err := m.Profiles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_profile_user"),
	}); err != nil {
		return fmt.Errorf("ensure profiles index: %w", err)
	}

	if _, err := m.Posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: -1}}, Options: options.Index().SetName("date_desc")},
		{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetName("author")},
	}); err != nil {
		return fmt.Errorf("ensure posts indexes: %w", err)
	}
	return nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	m.logger.Info("Closing MongoDB connection")
	return m.Client.Disconnect(ctx)
}
