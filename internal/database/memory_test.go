package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"dev-connector/internal/models"
	"dev-connector/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(name, email string) *models.User {
	return &models.User{
		ID:             uuid.New(),
		Name:           name,
		Email:          email,
		HashedPassword: "hash",
		Avatar:         models.GravatarURL(email),
		Date:           time.Now().UTC(),
	}
}

// runStoreContract exercises behaviour every DBAdapter must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) DBAdapter) {
	ctx := context.Background()

	t.Run("ListPostsNewestFirst", func(t *testing.T) {
		db := newStore(t)
		author := newTestUser("Ada", "ada-"+uuid.NewString()+"@example.com")
		base := time.Now().UTC().Truncate(time.Millisecond)

		var ids []uuid.UUID
		for i := 0; i < 3; i++ {
			post := models.NewPost(author, "post")
			post.Date = base.Add(time.Duration(i) * time.Second)
			require.NoError(t, db.CreatePost(ctx, post))
			ids = append(ids, post.ID)
		}

		posts, err := db.ListPosts(ctx)
		require.NoError(t, err)

		var got []uuid.UUID
		for _, p := range posts {
			for _, id := range ids {
				if p.ID == id {
					got = append(got, p.ID)
				}
			}
		}
		assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]}, got)
	})

	t.Run("GetPostRoundTrip", func(t *testing.T) {
		db := newStore(t)
		author := newTestUser("Ada", "ada-"+uuid.NewString()+"@example.com")
		post := models.NewPost(author, "hello")
		require.NoError(t, db.CreatePost(ctx, post))

		got, err := db.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, post.ID, got.ID)
		assert.Equal(t, "hello", got.Text)
		assert.Equal(t, author.ID, got.User)
		assert.Empty(t, got.Likes)
		assert.NotNil(t, got.Likes)
		assert.NotNil(t, got.Comments)

		_, err = db.GetPost(ctx, uuid.New())
		assert.True(t, utils.IsNotFound(err))
	})

	t.Run("DeletePost", func(t *testing.T) {
		db := newStore(t)
		author := newTestUser("Ada", "ada-"+uuid.NewString()+"@example.com")
		post := models.NewPost(author, "bye")
		require.NoError(t, db.CreatePost(ctx, post))

		require.NoError(t, db.DeletePost(ctx, post.ID))
		_, err := db.GetPost(ctx, post.ID)
		assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))

		err = db.DeletePost(ctx, post.ID)
		assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))
	})

	t.Run("LikeAndUnlike", func(t *testing.T) {
		db := newStore(t)
		author := newTestUser("Ada", "ada-"+uuid.NewString()+"@example.com")
		post := models.NewPost(author, "like me")
		require.NoError(t, db.CreatePost(ctx, post))

		first, second := uuid.New(), uuid.New()
		likes, err := db.AddLike(ctx, post.ID, first)
		require.NoError(t, err)
		assert.Equal(t, []models.Like{{User: first}}, likes)

		likes, err = db.AddLike(ctx, post.ID, second)
		require.NoError(t, err)
		assert.Equal(t, []models.Like{{User: second}, {User: first}}, likes)

		_, err = db.AddLike(ctx, post.ID, first)
		assert.True(t, utils.IsErrorCode(err, utils.ErrAlreadyLiked))

		likes, err = db.RemoveLike(ctx, post.ID, first)
		require.NoError(t, err)
		assert.Equal(t, []models.Like{{User: second}}, likes)

		_, err = db.RemoveLike(ctx, post.ID, first)
		assert.True(t, utils.IsErrorCode(err, utils.ErrNotLiked))

		_, err = db.AddLike(ctx, uuid.New(), first)
		assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))
		_, err = db.RemoveLike(ctx, uuid.New(), first)
		assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))
	})

	t.Run("ConcurrentLikesAreNotLost", func(t *testing.T) {
		db := newStore(t)
		author := newTestUser("Ada", "ada-"+uuid.NewString()+"@example.com")
		post := models.NewPost(author, "popular")
		require.NoError(t, db.CreatePost(ctx, post))

		const likers = 25
		var wg sync.WaitGroup
		for i := 0; i < likers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := db.AddLike(ctx, post.ID, uuid.New())
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := db.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Len(t, got.Likes, likers)
	})

	t.Run("ConcurrentDuplicateLikeSucceedsOnce", func(t *testing.T) {
		db := newStore(t)
		author := newTestUser("Ada", "ada-"+uuid.NewString()+"@example.com")
		post := models.NewPost(author, "once")
		require.NoError(t, db.CreatePost(ctx, post))

		liker := uuid.New()
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := db.AddLike(ctx, post.ID, liker); err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
		got, err := db.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Len(t, got.Likes, 1)
	})

	t.Run("Comments", func(t *testing.T) {
		db := newStore(t)
		author := newTestUser("Ada", "ada-"+uuid.NewString()+"@example.com")
		other := newTestUser("Grace", "grace-"+uuid.NewString()+"@example.com")
		post := models.NewPost(author, "discuss")
		require.NoError(t, db.CreatePost(ctx, post))

		older := models.NewComment(other, "first")
		older.Date = older.Date.Add(-time.Minute)
		_, err := db.AddComment(ctx, post.ID, older)
		require.NoError(t, err)

		newer := models.NewComment(author, "second")
		comments, err := db.AddComment(ctx, post.ID, newer)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, newer.ID, comments[0].ID)

		_, err = db.RemoveComment(ctx, post.ID, older.ID, author.ID)
		assert.True(t, utils.IsErrorCode(err, utils.ErrForbidden))

		_, err = db.RemoveComment(ctx, post.ID, uuid.New(), author.ID)
		assert.True(t, utils.IsErrorCode(err, utils.ErrCommentNotFound))

		comments, err = db.RemoveComment(ctx, post.ID, older.ID, other.ID)
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, newer.ID, comments[0].ID)

		_, err = db.AddComment(ctx, uuid.New(), models.NewComment(author, "lost"))
		assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))
	})

	t.Run("Users", func(t *testing.T) {
		db := newStore(t)
		email := "Mixed-" + uuid.NewString() + "@Example.com"
		user := newTestUser("Ada", email)
		require.NoError(t, db.SaveUser(ctx, user))

		got, err := db.GetUserByEmail(ctx, models.NormalizeEmail(email))
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "hash", got.HashedPassword)

		err = db.SaveUser(ctx, newTestUser("Imposter", email))
		assert.True(t, utils.IsErrorCode(err, utils.ErrUserAlreadyExists))

		require.NoError(t, db.DeleteUser(ctx, user.ID))
		_, err = db.GetUser(ctx, user.ID)
		assert.True(t, utils.IsErrorCode(err, utils.ErrUserNotFound))
	})

	t.Run("ProfileUpsertKeepsIdentity", func(t *testing.T) {
		db := newStore(t)
		user := newTestUser("Ada", "ada-"+uuid.NewString()+"@example.com")
		require.NoError(t, db.SaveUser(ctx, user))

		_, err := db.GetProfileByUser(ctx, user.ID)
		assert.True(t, utils.IsErrorCode(err, utils.ErrProfileNotFound))

		first, err := db.UpsertProfile(ctx, &models.Profile{
			ID:     uuid.New(),
			User:   user.ID,
			Status: "Developer",
			Skills: []string{"Go"},
			Date:   time.Now().UTC(),
		})
		require.NoError(t, err)

		second, err := db.UpsertProfile(ctx, &models.Profile{
			ID:     uuid.New(),
			User:   user.ID,
			Status: "Senior Developer",
			Skills: []string{"Go", "SQL"},
			Social: models.Social{Twitter: "https://twitter.com/ada"},
			Date:   time.Now().UTC(),
		})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Senior Developer", second.Status)

		got, err := db.GetProfileByUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Go", "SQL"}, got.Skills)
		assert.Equal(t, "https://twitter.com/ada", got.Social.Twitter)

		require.NoError(t, db.DeleteProfileByUser(ctx, user.ID))
		require.NoError(t, db.DeleteProfileByUser(ctx, user.ID))
		_, err = db.GetProfileByUser(ctx, user.ID)
		assert.True(t, utils.IsErrorCode(err, utils.ErrProfileNotFound))
	})
}

func TestMemoryDB(t *testing.T) {
	runStoreContract(t, func(t *testing.T) DBAdapter {
		return NewMemoryDB()
	})
}

func TestMemoryDBReturnsCopies(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryDB()
	author := newTestUser("Ada", "ada@example.com")
	post := models.NewPost(author, "original")
	require.NoError(t, db.CreatePost(ctx, post))

	got, err := db.GetPost(ctx, post.ID)
	require.NoError(t, err)
	got.Text = "mutated"
	got.Likes = append(got.Likes, models.Like{User: uuid.New()})

	again, err := db.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Text)
	assert.Empty(t, again.Likes)
}

func TestDeletePostsByUser(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryDB()
	ada := newTestUser("Ada", "ada@example.com")
	grace := newTestUser("Grace", "grace@example.com")

	require.NoError(t, db.CreatePost(ctx, models.NewPost(ada, "a")))
	require.NoError(t, db.CreatePost(ctx, models.NewPost(ada, "b")))
	kept := models.NewPost(grace, "c")
	require.NoError(t, db.CreatePost(ctx, kept))

	require.NoError(t, db.DeletePostsByUser(ctx, ada.ID))

	posts, err := db.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, kept.ID, posts[0].ID)
}

func TestMemoryDBRejectsFinishedContext(t *testing.T) {
	db := NewMemoryDB()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	user := newTestUser("Ada", "ada@example.com")
	err := db.SaveUser(ctx, user)
	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, utils.ErrDatabase, appErr.Code)

	_, err = db.GetUser(context.Background(), user.ID)
	assert.True(t, utils.IsNotFound(err))
}
