// internal/database/post_repository.go
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

// PostDocument represents the MongoDB schema for a post.
type PostDocument struct {
	ID       string            `bson:"_id"`
	User     string            `bson:"user"`
	Text     string            `bson:"text"`
	Name     string            `bson:"name"`
	Avatar   string            `bson:"avatar"`
	Likes    []LikeDocument    `bson:"likes"`
	Comments []CommentDocument `bson:"comments"`
	Date     time.Time         `bson:"date"`
}

type LikeDocument struct {
	User string `bson:"user"`
}

type CommentDocument struct {
	ID     string    `bson:"_id"`
	User   string    `bson:"user"`
	Text   string    `bson:"text"`
	Name   string    `bson:"name"`
	Avatar string    `bson:"avatar"`
	Date   time.Time `bson:"date"`
}

// postToDocument converts a Post model to a MongoDB document.
func postToDocument(post *models.Post) *PostDocument {
	doc := &PostDocument{
		ID:       post.ID.String(),
		User:     post.User.String(),
		Text:     post.Text,
		Name:     post.Name,
		Avatar:   post.Avatar,
		Likes:    make([]LikeDocument, len(post.Likes)),
		Comments: make([]CommentDocument, len(post.Comments)),
		Date:     post.Date,
	}
	for i, like := range post.Likes {
		doc.Likes[i] = LikeDocument{User: like.User.String()}
	}
	for i := range post.Comments {
		doc.Comments[i] = *commentToDocument(&post.Comments[i])
	}
	return doc
}

func commentToDocument(c *models.Comment) *CommentDocument {
	return &CommentDocument{
		ID:     c.ID.String(),
		User:   c.User.String(),
		Text:   c.Text,
		Name:   c.Name,
		Avatar: c.Avatar,
		Date:   c.Date,
	}
}

// documentToPost converts a MongoDB document to a Post model.
func documentToPost(doc *PostDocument) (*models.Post, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID %q: %w", doc.ID, err)
	}
	userID, err := uuid.Parse(doc.User)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID %q: %w", doc.User, err)
	}

	likes, err := documentsToLikes(doc.Likes)
	if err != nil {
		return nil, err
	}
	comments, err := documentsToComments(doc.Comments)
	if err != nil {
		return nil, err
	}

	return &models.Post{
		ID:       id,
		User:     userID,
		Text:     doc.Text,
		Name:     doc.Name,
		Avatar:   doc.Avatar,
		Likes:    likes,
		Comments: comments,
		Date:     doc.Date,
	}, nil
}

func documentsToLikes(docs []LikeDocument) ([]models.Like, error) {
	likes := make([]models.Like, 0, len(docs))
	for _, d := range docs {
		userID, err := uuid.Parse(d.User)
		if err != nil {
			return nil, fmt.Errorf("invalid like user ID %q: %w", d.User, err)
		}
		likes = append(likes, models.Like{User: userID})
	}
	return likes, nil
}

func documentsToComments(docs []CommentDocument) ([]models.Comment, error) {
	comments := make([]models.Comment, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid comment ID %q: %w", d.ID, err)
		}
		userID, err := uuid.Parse(d.User)
		if err != nil {
			return nil, fmt.Errorf("invalid comment user ID %q: %w", d.User, err)
		}
		comments = append(comments, models.Comment{
			ID:     id,
			User:   userID,
			Text:   d.Text,
			Name:   d.Name,
			Avatar: d.Avatar,
			Date:   d.Date,
		})
	}
	return comments, nil
}

// CreatePost inserts a new post document.
func (m *MongoDB) CreatePost(ctx context.Context, post *models.Post) error {
	if _, err := m.Posts.InsertOne(ctx, postToDocument(post)); err != nil {
		return utils.NewDatabaseError("Failed to save post", err)
	}
	return nil
}

// ListPosts returns every post, most recent first.
func (m *MongoDB) ListPosts(ctx context.Context) ([]*models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := m.Posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to query posts", err)
	}
	defer cursor.Close(ctx)

	posts := make([]*models.Post, 0)
	for cursor.Next(ctx) {
		var doc PostDocument
		if err := cursor.Decode(&doc); err != nil {
			m.logger.Warn("Skipping undecodable post document", zap.Error(err))
			continue
		}
		post, err := documentToPost(&doc)
		if err != nil {
			m.logger.Warn("Skipping malformed post document", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		posts = append(posts, post)
	}

	if err := cursor.Err(); err != nil {
		return nil, utils.NewDatabaseError("Failed to iterate posts", err)
	}
	return posts, nil
}

// GetPost retrieves a post by its ID.
func (m *MongoDB) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var doc PostDocument
	err := m.Posts.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewPostNotFoundError()
	}
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to load post", err)
	}
	return documentToPost(&doc)
}

// DeletePost removes a post by its ID.
func (m *MongoDB) DeletePost(ctx context.Context, id uuid.UUID) error {
	result, err := m.Posts.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return utils.NewDatabaseError("Failed to delete post", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewPostNotFoundError()
	}
	return nil
}

// DeletePostsByUser removes every post authored by userID.
func (m *MongoDB) DeletePostsByUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := m.Posts.DeleteMany(ctx, bson.M{"user": userID.String()}); err != nil {
		return utils.NewDatabaseError("Failed to delete user posts", err)
	}
	return nil
}

// AddLike prepends userID to the post's likes in a single conditional update.
// The filter only matches while the user is absent from the list, so two
// concurrent likes by the same user cannot both succeed.
func (m *MongoDB) AddLike(ctx context.Context, postID, userID uuid.UUID) ([]models.Like, error) {
	filter := bson.M{
		"_id":        postID.String(),
		"likes.user": bson.M{"$ne": userID.String()},
	}
	update := bson.M{
		"$push": bson.M{
			"likes": bson.M{
				"$each":     bson.A{LikeDocument{User: userID.String()}},
				"$position": 0,
			},
		},
	}

	doc, err := m.findOneAndUpdatePost(ctx, filter, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, m.missingPostOr(ctx, postID, utils.NewAppError(utils.ErrAlreadyLiked, "Post already liked", nil))
	}
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to like post", err)
	}
	return documentsToLikes(doc.Likes)
}

// RemoveLike pulls userID's like from the post in a single conditional update.
func (m *MongoDB) RemoveLike(ctx context.Context, postID, userID uuid.UUID) ([]models.Like, error) {
	filter := bson.M{
		"_id":        postID.String(),
		"likes.user": userID.String(),
	}
	update := bson.M{"$pull": bson.M{"likes": bson.M{"user": userID.String()}}}

	doc, err := m.findOneAndUpdatePost(ctx, filter, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, m.missingPostOr(ctx, postID, utils.NewAppError(utils.ErrNotLiked, "Post has not yet been liked", nil))
	}
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to unlike post", err)
	}
	return documentsToLikes(doc.Likes)
}

// AddComment prepends comment to the post's comments.
func (m *MongoDB) AddComment(ctx context.Context, postID uuid.UUID, comment *models.Comment) ([]models.Comment, error) {
	update := bson.M{
		"$push": bson.M{
			"comments": bson.M{
				"$each":     bson.A{commentToDocument(comment)},
				"$position": 0,
			},
		},
	}

	doc, err := m.findOneAndUpdatePost(ctx, bson.M{"_id": postID.String()}, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewPostNotFoundError()
	}
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to add comment", err)
	}
	return documentsToComments(doc.Comments)
}

// RemoveComment pulls a comment written by userID. When nothing matches, the
// post is re-read to tell a missing post, a missing comment and a comment
// owned by someone else apart.
func (m *MongoDB) RemoveComment(ctx context.Context, postID, commentID, userID uuid.UUID) ([]models.Comment, error) {
	filter := bson.M{
		"_id": postID.String(),
		"comments": bson.M{"$elemMatch": bson.M{
			"_id":  commentID.String(),
			"user": userID.String(),
		}},
	}
	update := bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID.String()}}}

	doc, err := m.findOneAndUpdatePost(ctx, filter, update)
	if err == nil {
		return documentsToComments(doc.Comments)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewDatabaseError("Failed to remove comment", err)
	}

	post, err := m.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return nil, commentRemovalError(post, commentID)
}

func (m *MongoDB) findOneAndUpdatePost(ctx context.Context, filter, update bson.M) (*PostDocument, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc PostDocument
	if err := m.Posts.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// missingPostOr returns NotFound when the post does not exist and otherwise
// the supplied error, which explains why the conditional update matched nothing.
func (m *MongoDB) missingPostOr(ctx context.Context, postID uuid.UUID, otherwise *utils.AppError) error {
	count, err := m.Posts.CountDocuments(ctx, bson.M{"_id": postID.String()}, options.Count().SetLimit(1))
	if err != nil {
		return utils.NewDatabaseError("Failed to load post", err)
	}
	if count == 0 {
		return utils.NewPostNotFoundError()
	}
	return otherwise
}

// commentRemovalError explains why commentID could not be removed from post
// by its caller: either it is not there or someone else wrote it.
func commentRemovalError(post *models.Post, commentID uuid.UUID) error {
	for _, c := range post.Comments {
		if c.ID == commentID {
			return utils.NewForbiddenError()
		}
	}
	return utils.NewAppError(utils.ErrCommentNotFound, "Comment does not exist", nil)
}
