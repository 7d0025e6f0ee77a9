// internal/database/memory.go
package database

import (
	"context"
	"sort"
	"sync"

	"dev-connector/internal/models"
	"dev-connector/internal/utils"

	"github.com/google/uuid"
)

// MemoryDB keeps everything in process memory. It backs DB_TYPE=memory and the
// test suites; one mutex makes every operation atomic.
type MemoryDB struct {
	mu       sync.RWMutex
	posts    map[uuid.UUID]*models.Post
	users    map[uuid.UUID]*models.User
	emails   map[string]uuid.UUID
	profiles map[uuid.UUID]*models.Profile // keyed by user ID
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		posts:    make(map[uuid.UUID]*models.Post),
		users:    make(map[uuid.UUID]*models.User),
		emails:   make(map[string]uuid.UUID),
		profiles: make(map[uuid.UUID]*models.Profile),
	}
}

func (db *MemoryDB) Close(ctx context.Context) error { return nil }

// clonePost copies a post so callers never share slices with the store.
func clonePost(p *models.Post) *models.Post {
	cp := *p
	cp.Likes = append([]models.Like{}, p.Likes...)
	cp.Comments = append([]models.Comment{}, p.Comments...)
	return &cp
}

func (db *MemoryDB) CreatePost(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return utils.NewDatabaseError("Store call abandoned", err)
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.posts[post.ID] = clonePost(post)
	return nil
}

func (db *MemoryDB) ListPosts(ctx context.Context) ([]*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.NewDatabaseError("Store call abandoned", err)
	}
	db.mu.RLock()
	defer db.mu.RUnlock()

	posts := make([]*models.Post, 0, len(db.posts))
	for _, p := range db.posts {
		posts = append(posts, clonePost(p))
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Date.Equal(posts[j].Date) {
			return posts[i].ID.String() > posts[j].ID.String()
		}
		return posts[i].Date.After(posts[j].Date)
	})
	return posts, nil
}

func (db *MemoryDB) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.NewDatabaseError("Store call abandoned", err)
	}
	db.mu.RLock()
	defer db.mu.RUnlock()

	p, ok := db.posts[id]
	if !ok {
		return nil, utils.NewPostNotFoundError()
	}
	return clonePost(p), nil
}

func (db *MemoryDB) DeletePost(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return utils.NewDatabaseError("Store call abandoned", err)
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.posts[id]; !ok {
		return utils.NewPostNotFoundError()
	}
	delete(db.posts, id)
	return nil
}

func (db *MemoryDB) DeletePostsByUser(ctx context.Context, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return utils.NewDatabaseError("Store call abandoned", err)
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	for id, p := range db.posts {
		if p.User == userID {
			delete(db.posts, id)
		}
	}
	return nil
}

func (db *MemoryDB) AddLike(ctx context.Context, postID, userID uuid.UUID) ([]models.Like, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.NewDatabaseError("Store call abandoned", err)
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.posts[postID]
	if !ok {
		return nil, utils.NewPostNotFoundError()
	}
	if p.LikedBy(userID) {
		return nil, utils.NewAppError(utils.ErrAlreadyLiked, "Post already liked", nil)
	}
	p.Likes = append([]models.Like{{User: userID}}, p.Likes...)
	return append([]models.Like{}, p.Likes...), nil
}

func (db *MemoryDB) RemoveLike(ctx context.Context, postID, userID uuid.UUID) ([]models.Like, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.NewDatabaseError("Store call abandoned", err)
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.posts[postID]
	if !ok {
		return nil, utils.NewPostNotFoundError()
	}
	if !p.LikedBy(userID) {
		return nil, utils.NewAppError(utils.ErrNotLiked, "Post has not yet been liked", nil)
	}
	kept := make([]models.Like, 0, len(p.Likes)-1)
	for _, like := range p.Likes {
		if like.User != userID {
			kept = append(kept, like)
		}
	}
	p.Likes = kept
	return append([]models.Like{}, kept...), nil
}

func (db *MemoryDB) AddComment(ctx context.Context, postID uuid.UUID, comment *models.Comment) ([]models.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.NewDatabaseError("Store call abandoned", err)
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.posts[postID]
	if !ok {
		return nil, utils.NewPostNotFoundError()
	}
	p.Comments = append([]models.Comment{*comment}, p.Comments...)
	return append([]models.Comment{}, p.Comments...), nil
}

func (db *MemoryDB) RemoveComment(ctx context.Context, postID, commentID, userID uuid.UUID) ([]models.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.NewDatabaseError("Store call abandoned", err)
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.posts[postID]
	if !ok {
		return nil, utils.NewPostNotFoundError()
	}
	for i, c := range p.Comments {
		if c.ID != commentID {
			continue
		}
		if c.User != userID {
			return nil, utils.NewForbiddenError()
		}
		p.Comments = append(p.Comments[:i:i], p.Comments[i+1:]...)
		return append([]models.Comment{}, p.Comments...), nil
	}
	return nil, utils.NewAppError(utils.ErrCommentNotFound, "Comment does not exist", nil)
}

func (db *MemoryDB) SaveUser(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return utils.NewDatabaseError("Store call abandoned", err)
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	email := models.NormalizeEmail(user.Email)
	if _, taken := db.emails[email]; taken {
		return utils.NewAppError(utils.ErrUserAlreadyExists, "User already exists", nil)
	}
	cp := *user
	cp.Email = email
	db.users[user.ID] = &cp
	db.emails[email] = user.ID
	return nil
}

func (db *MemoryDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.NewDatabaseError("Store call abandoned", err)
	}
	db.mu.RLock()
	defer db.mu.RUnlock()

	u, ok := db.users[id]
	if !ok {
		return nil, utils.NewUserNotFoundError(id.String())
	}
	cp := *u
	return &cp, nil
}

func (db *MemoryDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.NewDatabaseError("Store call abandoned", err)
	}
	db.mu.RLock()
	defer db.mu.RUnlock()

	email = models.NormalizeEmail(email)
	id, ok := db.emails[email]
	if !ok {
		return nil, utils.NewUserNotFoundError(email)
	}
	cp := *db.users[id]
	return &cp, nil
}

func (db *MemoryDB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return utils.NewDatabaseError("Store call abandoned", err)
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[id]
	if !ok {
		return utils.NewUserNotFoundError(id.String())
	}
	delete(db.emails, u.Email)
	delete(db.users, id)
	return nil
}

func cloneProfile(p *models.Profile) *models.Profile {
	cp := *p
	cp.Skills = append([]string{}, p.Skills...)
	return &cp
}

func (db *MemoryDB) UpsertProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.NewDatabaseError("Store call abandoned", err)
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	stored := cloneProfile(profile)
	if existing, ok := db.profiles[profile.User]; ok {
		stored.ID = existing.ID
	}
	db.profiles[profile.User] = stored
	return cloneProfile(stored), nil
}

func (db *MemoryDB) GetProfileByUser(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.NewDatabaseError("Store call abandoned", err)
	}
	db.mu.RLock()
	defer db.mu.RUnlock()

	p, ok := db.profiles[userID]
	if !ok {
		return nil, utils.NewAppError(utils.ErrProfileNotFound, "Profile not found", nil)
	}
	return cloneProfile(p), nil
}

func (db *MemoryDB) ListProfiles(ctx context.Context) ([]*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.NewDatabaseError("Store call abandoned", err)
	}
	db.mu.RLock()
	defer db.mu.RUnlock()

	profiles := make([]*models.Profile, 0, len(db.profiles))
	for _, p := range db.profiles {
		profiles = append(profiles, cloneProfile(p))
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Date.After(profiles[j].Date) })
	return profiles, nil
}

func (db *MemoryDB) DeleteProfileByUser(ctx context.Context, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return utils.NewDatabaseError("Store call abandoned", err)
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.profiles, userID)
	return nil
}
