// internal/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dev-connector/internal/models"
	"dev-connector/internal/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Postgres error codes the repositories translate.
const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

// PostgresDB represents a PostgreSQL database connection
type PostgresDB struct {
	DB     *sqlx.DB
	logger *zap.Logger
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(ctx context.Context, connectionString string, logger *zap.Logger) (*PostgresDB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return newPostgresDB(ctx, db, logger)
}

// newPostgresDB configures the pool and creates the tables. db is closed when
// that fails.
func newPostgresDB(ctx context.Context, db *sqlx.DB, logger *zap.Logger) (*PostgresDB, error) {
	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	p := &PostgresDB{DB: db, logger: logger}
	if err := p.setup(ctx); err != nil {
		if cerr := db.Close(); cerr != nil {
			logger.Warn("Failed to close PostgreSQL connection", zap.Error(cerr))
		}
		return nil, err
	}
	return p, nil
}

func (p *PostgresDB) setup(ctx context.Context) error {
	if err := p.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	p.logger.Info("Connected to PostgreSQL")
	return p.InitializeTables(ctx)
}

// Close closes the database connection
func (p *PostgresDB) Close(ctx context.Context) error {
	p.logger.Info("Closing PostgreSQL connection")
	return p.DB.Close()
}

// InitializeTables creates all necessary tables if they don't exist
func (p *PostgresDB) InitializeTables(ctx context.Context) error {
	statements := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY,
				name VARCHAR(100) NOT NULL,
				email VARCHAR(255) UNIQUE NOT NULL,
				password_hash VARCHAR(100) NOT NULL,
				avatar VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			)`},
		{"profiles", `
			CREATE TABLE IF NOT EXISTS profiles (
				id UUID PRIMARY KEY,
				user_id UUID UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				company TEXT NOT NULL DEFAULT '',
				website TEXT NOT NULL DEFAULT '',
				location TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				skills TEXT[] NOT NULL DEFAULT '{}',
				bio TEXT NOT NULL DEFAULT '',
				github_username TEXT NOT NULL DEFAULT '',
				youtube TEXT NOT NULL DEFAULT '',
				twitter TEXT NOT NULL DEFAULT '',
				facebook TEXT NOT NULL DEFAULT '',
				linkedin TEXT NOT NULL DEFAULT '',
				instagram TEXT NOT NULL DEFAULT '',
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			)`},
		{"posts", `
			CREATE TABLE IF NOT EXISTS posts (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL,
				text TEXT NOT NULL,
				name VARCHAR(100) NOT NULL DEFAULT '',
				avatar VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			)`},
		{"posts_created_at index", `CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts (created_at DESC)`},
		{"post_likes", `
			CREATE TABLE IF NOT EXISTS post_likes (
				post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				user_id UUID NOT NULL,
				seq BIGSERIAL,
				PRIMARY KEY (post_id, user_id)
			)`},
		{"post_comments", `
			CREATE TABLE IF NOT EXISTS post_comments (
				id UUID PRIMARY KEY,
				post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				user_id UUID NOT NULL,
				text TEXT NOT NULL,
				name VARCHAR(100) NOT NULL DEFAULT '',
				avatar VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				seq BIGSERIAL
			)`},
	}

	for _, stmt := range statements {
		if _, err := p.DB.ExecContext(ctx, stmt.sql); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.name, err)
		}
	}
	return nil
}

func pqErrorCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// --- posts ---

type postRow struct {
	ID     uuid.UUID `db:"id"`
	User   uuid.UUID `db:"user_id"`
	Text   string    `db:"text"`
	Name   string    `db:"name"`
	Avatar string    `db:"avatar"`
	Date   time.Time `db:"created_at"`
}

type likeRow struct {
	PostID uuid.UUID `db:"post_id"`
	User   uuid.UUID `db:"user_id"`
}

type commentRow struct {
	PostID uuid.UUID `db:"post_id"`
	models.Comment
}

func (r *postRow) toModel() *models.Post {
	return &models.Post{
		ID:       r.ID,
		User:     r.User,
		Text:     r.Text,
		Name:     r.Name,
		Avatar:   r.Avatar,
		Likes:    []models.Like{},
		Comments: []models.Comment{},
		Date:     r.Date,
	}
}

func (p *PostgresDB) CreatePost(ctx context.Context, post *models.Post) error {
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO posts (id, user_id, text, name, avatar, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		post.ID, post.User, post.Text, post.Name, post.Avatar, post.Date,
	)
	if err != nil {
		return utils.NewDatabaseError("Failed to save post", err)
	}
	return nil
}

func (p *PostgresDB) ListPosts(ctx context.Context) ([]*models.Post, error) {
	var rows []postRow
	if err := p.DB.SelectContext(ctx, &rows, `
		SELECT id, user_id, text, name, avatar, created_at
		FROM posts ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, utils.NewDatabaseError("Failed to query posts", err)
	}

	posts := make([]*models.Post, 0, len(rows))
	ids := make([]string, 0, len(rows))
	byID := make(map[uuid.UUID]*models.Post, len(rows))
	for i := range rows {
		post := rows[i].toModel()
		posts = append(posts, post)
		ids = append(ids, post.ID.String())
		byID[post.ID] = post
	}
	if len(posts) == 0 {
		return posts, nil
	}

	if err := p.attachLikesAndComments(ctx, ids, byID); err != nil {
		return nil, err
	}
	return posts, nil
}

func (p *PostgresDB) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var row postRow
	err := p.DB.GetContext(ctx, &row, `
		SELECT id, user_id, text, name, avatar, created_at FROM posts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.NewPostNotFoundError()
	}
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to load post", err)
	}

	post := row.toModel()
	if err := p.attachLikesAndComments(ctx, []string{id.String()}, map[uuid.UUID]*models.Post{id: post}); err != nil {
		return nil, err
	}
	return post, nil
}

func (p *PostgresDB) attachLikesAndComments(ctx context.Context, ids []string, byID map[uuid.UUID]*models.Post) error {
	var likes []likeRow
	if err := p.DB.SelectContext(ctx, &likes, `
		SELECT post_id, user_id FROM post_likes
		WHERE post_id = ANY($1::uuid[]) ORDER BY seq DESC`, pq.StringArray(ids)); err != nil {
		return utils.NewDatabaseError("Failed to load likes", err)
	}
	for _, l := range likes {
		if post, ok := byID[l.PostID]; ok {
			post.Likes = append(post.Likes, models.Like{User: l.User})
		}
	}

	var comments []commentRow
	if err := p.DB.SelectContext(ctx, &comments, `
		SELECT post_id, id, user_id, text, name, avatar, created_at FROM post_comments
		WHERE post_id = ANY($1::uuid[]) ORDER BY seq DESC`, pq.StringArray(ids)); err != nil {
		return utils.NewDatabaseError("Failed to load comments", err)
	}
	for _, c := range comments {
		if post, ok := byID[c.PostID]; ok {
			post.Comments = append(post.Comments, c.Comment)
		}
	}
	return nil
}

func (p *PostgresDB) DeletePost(ctx context.Context, id uuid.UUID) error {
	result, err := p.DB.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return utils.NewDatabaseError("Failed to delete post", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return utils.NewPostNotFoundError()
	}
	return nil
}

func (p *PostgresDB) DeletePostsByUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := p.DB.ExecContext(ctx, `DELETE FROM posts WHERE user_id = $1`, userID); err != nil {
		return utils.NewDatabaseError("Failed to delete user posts", err)
	}
	return nil
}

// AddLike relies on the (post_id, user_id) primary key: a second like by the
// same user inserts nothing, a like on a missing post violates the foreign key.
func (p *PostgresDB) AddLike(ctx context.Context, postID, userID uuid.UUID) ([]models.Like, error) {
	result, err := p.DB.ExecContext(ctx, `
		INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING`, postID, userID)
	if pqErrorCode(err) == pqForeignKeyViolation {
		return nil, utils.NewPostNotFoundError()
	}
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to like post", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, utils.NewAppError(utils.ErrAlreadyLiked, "Post already liked", nil)
	}
	return p.likesFor(ctx, postID)
}

func (p *PostgresDB) RemoveLike(ctx context.Context, postID, userID uuid.UUID) ([]models.Like, error) {
	result, err := p.DB.ExecContext(ctx, `
		DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to unlike post", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		if err := p.requirePost(ctx, postID); err != nil {
			return nil, err
		}
		return nil, utils.NewAppError(utils.ErrNotLiked, "Post has not yet been liked", nil)
	}
	return p.likesFor(ctx, postID)
}

func (p *PostgresDB) likesFor(ctx context.Context, postID uuid.UUID) ([]models.Like, error) {
	var rows []likeRow
	if err := p.DB.SelectContext(ctx, &rows, `
		SELECT post_id, user_id FROM post_likes WHERE post_id = $1 ORDER BY seq DESC`, postID); err != nil {
		return nil, utils.NewDatabaseError("Failed to load likes", err)
	}
	likes := make([]models.Like, len(rows))
	for i, r := range rows {
		likes[i] = models.Like{User: r.User}
	}
	return likes, nil
}

func (p *PostgresDB) AddComment(ctx context.Context, postID uuid.UUID, comment *models.Comment) ([]models.Comment, error) {
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO post_comments (id, post_id, user_id, text, name, avatar, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		comment.ID, postID, comment.User, comment.Text, comment.Name, comment.Avatar, comment.Date,
	)
	if pqErrorCode(err) == pqForeignKeyViolation {
		return nil, utils.NewPostNotFoundError()
	}
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to add comment", err)
	}
	return p.commentsFor(ctx, postID)
}

func (p *PostgresDB) RemoveComment(ctx context.Context, postID, commentID, userID uuid.UUID) ([]models.Comment, error) {
	result, err := p.DB.ExecContext(ctx, `
		DELETE FROM post_comments WHERE id = $1 AND post_id = $2 AND user_id = $3`,
		commentID, postID, userID)
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to remove comment", err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		return p.commentsFor(ctx, postID)
	}

	post, err := p.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return nil, commentRemovalError(post, commentID)
}

func (p *PostgresDB) commentsFor(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	var rows []commentRow
	if err := p.DB.SelectContext(ctx, &rows, `
		SELECT post_id, id, user_id, text, name, avatar, created_at FROM post_comments
		WHERE post_id = $1 ORDER BY seq DESC`, postID); err != nil {
		return nil, utils.NewDatabaseError("Failed to load comments", err)
	}
	comments := make([]models.Comment, len(rows))
	for i, r := range rows {
		comments[i] = r.Comment
	}
	return comments, nil
}

func (p *PostgresDB) requirePost(ctx context.Context, postID uuid.UUID) error {
	var exists bool
	if err := p.DB.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID); err != nil {
		return utils.NewDatabaseError("Failed to load post", err)
	}
	if !exists {
		return utils.NewPostNotFoundError()
	}
	return nil
}

// --- users ---

func (p *PostgresDB) SaveUser(ctx context.Context, user *models.User) error {
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, avatar, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Name, models.NormalizeEmail(user.Email), user.HashedPassword, user.Avatar, user.Date,
	)
	if pqErrorCode(err) == pqUniqueViolation {
		return utils.NewAppError(utils.ErrUserAlreadyExists, "User already exists", err)
	}
	if err != nil {
		return utils.NewDatabaseError("Failed to save user", err)
	}
	return nil
}

func (p *PostgresDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return p.getUser(ctx, `SELECT id, name, email, password_hash, avatar, created_at FROM users WHERE id = $1`, id, id.String())
}

func (p *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	return p.getUser(ctx, `SELECT id, name, email, password_hash, avatar, created_at FROM users WHERE email = $1`, email, email)
}

func (p *PostgresDB) getUser(ctx context.Context, query string, arg any, key string) (*models.User, error) {
	var user models.User
	err := p.DB.GetContext(ctx, &user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.NewUserNotFoundError(key)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to load user", err)
	}
	return &user, nil
}

func (p *PostgresDB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	result, err := p.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return utils.NewDatabaseError("Failed to delete user", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return utils.NewUserNotFoundError(id.String())
	}
	return nil
}

// --- profiles ---

type profileRow struct {
	ID             uuid.UUID      `db:"id"`
	User           uuid.UUID      `db:"user_id"`
	Company        string         `db:"company"`
	Website        string         `db:"website"`
	Location       string         `db:"location"`
	Status         string         `db:"status"`
	Skills         pq.StringArray `db:"skills"`
	Bio            string         `db:"bio"`
	GithubUsername string         `db:"github_username"`
	YouTube        string         `db:"youtube"`
	Twitter        string         `db:"twitter"`
	Facebook       string         `db:"facebook"`
	LinkedIn       string         `db:"linkedin"`
	Instagram      string         `db:"instagram"`
	Date           time.Time      `db:"updated_at"`
}

const profileColumns = `id, user_id, company, website, location, status, skills, bio, github_username,
	youtube, twitter, facebook, linkedin, instagram, updated_at`

func (r *profileRow) toModel() *models.Profile {
	skills := []string(r.Skills)
	if skills == nil {
		skills = []string{}
	}
	return &models.Profile{
		ID:             r.ID,
		User:           r.User,
		Company:        r.Company,
		Website:        r.Website,
		Location:       r.Location,
		Status:         r.Status,
		Skills:         skills,
		Bio:            r.Bio,
		GithubUsername: r.GithubUsername,
		Social: models.Social{
			YouTube:   r.YouTube,
			Twitter:   r.Twitter,
			Facebook:  r.Facebook,
			LinkedIn:  r.LinkedIn,
			Instagram: r.Instagram,
		},
		Date: r.Date,
	}
}

func (p *PostgresDB) UpsertProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	var row profileRow
	err := p.DB.GetContext(ctx, &row, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id) DO UPDATE SET
			company = EXCLUDED.company,
			website = EXCLUDED.website,
			location = EXCLUDED.location,
			status = EXCLUDED.status,
			skills = EXCLUDED.skills,
			bio = EXCLUDED.bio,
			github_username = EXCLUDED.github_username,
			youtube = EXCLUDED.youtube,
			twitter = EXCLUDED.twitter,
			facebook = EXCLUDED.facebook,
			linkedin = EXCLUDED.linkedin,
			instagram = EXCLUDED.instagram,
			updated_at = EXCLUDED.updated_at
		RETURNING `+profileColumns,
		profile.ID, profile.User, profile.Company, profile.Website, profile.Location, profile.Status,
		pq.StringArray(profile.Skills), profile.Bio, profile.GithubUsername,
		profile.Social.YouTube, profile.Social.Twitter, profile.Social.Facebook,
		profile.Social.LinkedIn, profile.Social.Instagram, profile.Date,
	)
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to save profile", err)
	}
	return row.toModel(), nil
}

func (p *PostgresDB) GetProfileByUser(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var row profileRow
	err := p.DB.GetContext(ctx, &row, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.NewAppError(utils.ErrProfileNotFound, "Profile not found", nil)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to load profile", err)
	}
	return row.toModel(), nil
}

func (p *PostgresDB) ListProfiles(ctx context.Context) ([]*models.Profile, error) {
	var rows []profileRow
	if err := p.DB.SelectContext(ctx, &rows, `SELECT `+profileColumns+` FROM profiles ORDER BY updated_at DESC`); err != nil {
		return nil, utils.NewDatabaseError("Failed to query profiles", err)
	}
	profiles := make([]*models.Profile, len(rows))
	for i := range rows {
		profiles[i] = rows[i].toModel()
	}
	return profiles, nil
}

func (p *PostgresDB) DeleteProfileByUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := p.DB.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID); err != nil {
		return utils.NewDatabaseError("Failed to delete profile", err)
	}
	return nil
}
