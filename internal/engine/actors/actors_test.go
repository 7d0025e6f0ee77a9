package actors

import (
	"context"
	"sync"
	"testing"
	"time"

	"dev-connector/internal/database"
	"dev-connector/internal/events"
	"dev-connector/internal/models"
	"dev-connector/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testTimeout = 5 * time.Second

type fakeTokens struct{}

func (fakeTokens) GenerateToken(userID uuid.UUID) (string, error) {
	return "token-" + userID.String(), nil
}

type testEnv struct {
	system *actor.ActorSystem
	store  *database.MemoryDB
	bus    *events.LocalBus
	seen   *[]events.Event
	deps   Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := database.NewMemoryDB()
	bus := events.NewLocalBus(zap.NewNop())

	var (
		mu   sync.Mutex
		seen []events.Event
	)
	bus.Subscribe(func(e events.Event) {
		mu.Lock()
		seen = append(seen, e)
		mu.Unlock()
	})

	return &testEnv{
		system: actor.NewActorSystem(),
		store:  store,
		bus:    bus,
		seen:   &seen,
		deps: Deps{
			Store:   store,
			Bus:     bus,
			Metrics: utils.NewMetricsCollector(),
			Tokens:  fakeTokens{},
			Timeout: testTimeout,
			Logger:  zap.NewNop(),
		},
	}
}

func (e *testEnv) spawn(producer func(Deps) actor.Actor) *actor.PID {
	return e.system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return producer(e.deps)
	}))
}

func (e *testEnv) request(t *testing.T, pid *actor.PID, msg interface{}) interface{} {
	t.Helper()
	result, err := e.system.Root.RequestFuture(pid, msg, testTimeout).Result()
	require.NoError(t, err)
	return result
}

func (e *testEnv) addUser(t *testing.T, name string) *models.User {
	t.Helper()
	email := name + "-" + uuid.NewString() + "@example.com"
	user := &models.User{
		ID:     uuid.New(),
		Name:   name,
		Email:  email,
		Avatar: models.GravatarURL(email),
		Date:   time.Now().UTC(),
	}
	require.NoError(t, e.store.SaveUser(context.Background(), user))
	return user
}

func requireAppError(t *testing.T, result interface{}, code string) {
	t.Helper()
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok, "expected *utils.AppError, got %T", result)
	assert.Equal(t, code, appErr.Code)
}

func TestPostActorCreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	pid := env.spawn(NewPostActor)
	author := env.addUser(t, "ada")

	result := env.request(t, pid, &CreatePostMsg{UserID: author.ID, Text: "hello"})
	post, ok := result.(*models.Post)
	require.True(t, ok, "got %T", result)

	assert.Equal(t, "hello", post.Text)
	assert.Equal(t, author.ID, post.User)
	assert.Equal(t, author.Name, post.Name)
	assert.Equal(t, author.Avatar, post.Avatar)
	assert.NotNil(t, post.Likes)
	assert.Empty(t, post.Likes)
	assert.NotEqual(t, uuid.Nil, post.ID)
	assert.False(t, post.Date.IsZero())

	got := env.request(t, pid, &GetPostMsg{PostID: post.ID})
	assert.Equal(t, post.ID, got.(*models.Post).ID)

	requireAppError(t, env.request(t, pid, &GetPostMsg{PostID: uuid.New()}), utils.ErrPostNotFound)

	require.Len(t, *env.seen, 1)
	assert.Equal(t, events.PostCreated, (*env.seen)[0].Type)
}

func TestPostActorListNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	pid := env.spawn(NewPostActor)
	author := env.addUser(t, "ada")

	var ids []uuid.UUID
	for _, text := range []string{"one", "two", "three"} {
		post := env.request(t, pid, &CreatePostMsg{UserID: author.ID, Text: text}).(*models.Post)
		ids = append(ids, post.ID)
		time.Sleep(2 * time.Millisecond)
	}

	posts := env.request(t, pid, &ListPostsMsg{}).([]*models.Post)
	require.Len(t, posts, 3)
	assert.Equal(t, ids[2], posts[0].ID)
	assert.Equal(t, ids[1], posts[1].ID)
	assert.Equal(t, ids[0], posts[2].ID)
}

func TestPostActorDeleteRequiresOwner(t *testing.T) {
	env := newTestEnv(t)
	pid := env.spawn(NewPostActor)
	author := env.addUser(t, "ada")
	stranger := env.addUser(t, "eve")

	post := env.request(t, pid, &CreatePostMsg{UserID: author.ID, Text: "mine"}).(*models.Post)

	requireAppError(t, env.request(t, pid, &DeletePostMsg{PostID: post.ID, UserID: stranger.ID}), utils.ErrForbidden)

	// The record is untouched after a forbidden delete
	stillThere := env.request(t, pid, &GetPostMsg{PostID: post.ID})
	assert.Equal(t, post.ID, stillThere.(*models.Post).ID)

	deleted := env.request(t, pid, &DeletePostMsg{PostID: post.ID, UserID: author.ID})
	assert.Equal(t, &PostDeleted{PostID: post.ID}, deleted)

	requireAppError(t, env.request(t, pid, &DeletePostMsg{PostID: post.ID, UserID: author.ID}), utils.ErrPostNotFound)
}

func TestPostActorLikes(t *testing.T) {
	env := newTestEnv(t)
	pid := env.spawn(NewPostActor)
	author := env.addUser(t, "ada")
	fan := env.addUser(t, "grace")

	post := env.request(t, pid, &CreatePostMsg{UserID: author.ID, Text: "like me"}).(*models.Post)

	likes := env.request(t, pid, &LikePostMsg{PostID: post.ID, UserID: fan.ID})
	assert.Equal(t, []models.Like{{User: fan.ID}}, likes)

	likes = env.request(t, pid, &LikePostMsg{PostID: post.ID, UserID: author.ID})
	assert.Equal(t, []models.Like{{User: author.ID}, {User: fan.ID}}, likes)

	requireAppError(t, env.request(t, pid, &LikePostMsg{PostID: post.ID, UserID: fan.ID}), utils.ErrAlreadyLiked)

	likes = env.request(t, pid, &UnlikePostMsg{PostID: post.ID, UserID: fan.ID})
	assert.Equal(t, []models.Like{{User: author.ID}}, likes)

	requireAppError(t, env.request(t, pid, &UnlikePostMsg{PostID: post.ID, UserID: fan.ID}), utils.ErrNotLiked)
	requireAppError(t, env.request(t, pid, &LikePostMsg{PostID: uuid.New(), UserID: fan.ID}), utils.ErrPostNotFound)
}

func TestPostActorComments(t *testing.T) {
	env := newTestEnv(t)
	pid := env.spawn(NewPostActor)
	author := env.addUser(t, "ada")
	other := env.addUser(t, "grace")

	post := env.request(t, pid, &CreatePostMsg{UserID: author.ID, Text: "discuss"}).(*models.Post)

	comments := env.request(t, pid, &AddCommentMsg{PostID: post.ID, UserID: other.ID, Text: "nice"}).([]models.Comment)
	require.Len(t, comments, 1)
	assert.Equal(t, other.Name, comments[0].Name)
	commentID := comments[0].ID

	requireAppError(t, env.request(t, pid, &RemoveCommentMsg{PostID: post.ID, CommentID: commentID, UserID: author.ID}), utils.ErrForbidden)
	requireAppError(t, env.request(t, pid, &RemoveCommentMsg{PostID: post.ID, CommentID: uuid.New(), UserID: other.ID}), utils.ErrCommentNotFound)

	comments = env.request(t, pid, &RemoveCommentMsg{PostID: post.ID, CommentID: commentID, UserID: other.ID}).([]models.Comment)
	assert.Empty(t, comments)
}

func TestPostActorPoolConcurrentLikes(t *testing.T) {
	env := newTestEnv(t)
	pid := env.system.Root.Spawn(router.NewRoundRobinPool(4, actor.WithProducer(func() actor.Actor {
		return NewPostActor(env.deps)
	})))
	author := env.addUser(t, "ada")
	post := env.request(t, pid, &CreatePostMsg{UserID: author.ID, Text: "popular"}).(*models.Post)

	const likers = 20
	var wg sync.WaitGroup
	for i := 0; i < likers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := env.system.Root.RequestFuture(pid, &LikePostMsg{PostID: post.ID, UserID: uuid.New()}, testTimeout).Result()
			assert.NoError(t, err)
			_, isErr := result.(*utils.AppError)
			assert.False(t, isErr)
		}()
	}
	wg.Wait()

	got := env.request(t, pid, &GetPostMsg{PostID: post.ID}).(*models.Post)
	assert.Len(t, got.Likes, likers)
}

func TestUserActorRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	pid := env.spawn(func(d Deps) actor.Actor {
		a := NewUserActor(d).(*UserActor)
		a.bcryptCost = bcrypt.MinCost
		return a
	})

	result := env.request(t, pid, &RegisterUserMsg{Name: "Ada", Email: "Ada@Example.com", Password: "secret1"})
	registered, ok := result.(*AuthResult)
	require.True(t, ok, "got %T", result)
	assert.Equal(t, "token-"+registered.User.ID.String(), registered.Token)
	assert.Equal(t, "ada@example.com", registered.User.Email)
	assert.Equal(t, models.GravatarURL("ada@example.com"), registered.User.Avatar)
	assert.NotEqual(t, "secret1", registered.User.HashedPassword)

	requireAppError(t,
		env.request(t, pid, &RegisterUserMsg{Name: "Ada", Email: "ada@example.com", Password: "secret1"}),
		utils.ErrUserAlreadyExists)

	loggedIn := env.request(t, pid, &LoginMsg{Email: "ada@example.com", Password: "secret1"})
	assert.Equal(t, registered.User.ID, loggedIn.(*AuthResult).User.ID)

	requireAppError(t, env.request(t, pid, &LoginMsg{Email: "ada@example.com", Password: "wrong"}), utils.ErrInvalidCredentials)
	requireAppError(t, env.request(t, pid, &LoginMsg{Email: "nobody@example.com", Password: "secret1"}), utils.ErrInvalidCredentials)

	user := env.request(t, pid, &GetUserMsg{UserID: registered.User.ID})
	assert.Equal(t, "Ada", user.(*models.User).Name)
}

func TestUserActorDeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	users := env.spawn(NewUserActor)
	posts := env.spawn(NewPostActor)
	profiles := env.spawn(NewProfileActor)
	ada := env.addUser(t, "ada")

	env.request(t, posts, &CreatePostMsg{UserID: ada.ID, Text: "bye"})
	env.request(t, profiles, &UpsertProfileMsg{UserID: ada.ID, Profile: models.Profile{Status: "Developer", Skills: []string{"Go"}}})

	result := env.request(t, users, &DeleteAccountMsg{UserID: ada.ID})
	assert.Equal(t, &AccountDeleted{UserID: ada.ID}, result)

	assert.Empty(t, env.request(t, posts, &ListPostsMsg{}))
	requireAppError(t, env.request(t, profiles, &GetProfileMsg{UserID: ada.ID}), utils.ErrProfileNotFound)
	requireAppError(t, env.request(t, users, &GetUserMsg{UserID: ada.ID}), utils.ErrUserNotFound)
}

func TestProfileActor(t *testing.T) {
	env := newTestEnv(t)
	pid := env.spawn(NewProfileActor)
	ada := env.addUser(t, "ada")

	requireAppError(t, env.request(t, pid, &GetProfileMsg{UserID: ada.ID}), utils.ErrProfileNotFound)

	first := env.request(t, pid, &UpsertProfileMsg{
		UserID:  ada.ID,
		Profile: models.Profile{Status: "Developer", Skills: []string{"Go", "SQL"}},
	}).(*models.PopulatedProfile)
	assert.Equal(t, ada.Name, first.User.Name)
	assert.Equal(t, ada.ID, first.Profile.User)

	second := env.request(t, pid, &UpsertProfileMsg{
		UserID:  ada.ID,
		Profile: models.Profile{Status: "Lead", Skills: []string{"Go"}},
	}).(*models.PopulatedProfile)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Lead", second.Status)

	got := env.request(t, pid, &GetProfileMsg{UserID: ada.ID}).(*models.PopulatedProfile)
	assert.Equal(t, []string{"Go"}, got.Skills)
	assert.Equal(t, ada.Avatar, got.User.Avatar)

	all := env.request(t, pid, &ListProfilesMsg{}).([]*models.PopulatedProfile)
	require.Len(t, all, 1)
	assert.Equal(t, ada.Name, all[0].User.Name)
}

func TestStoreContextTakesTheEarlierDeadline(t *testing.T) {
	caller := time.Now().Add(50 * time.Millisecond)
	ctx, cancel := storeContext(caller, time.Minute)
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.Equal(t, caller, deadline)

	ctx, cancel = storeContext(time.Now().Add(time.Hour), 100*time.Millisecond)
	defer cancel()
	deadline, _ = ctx.Deadline()
	assert.WithinDuration(t, time.Now().Add(100*time.Millisecond), deadline, 50*time.Millisecond)

	ctx, cancel = storeContext(time.Time{}, 100*time.Millisecond)
	defer cancel()
	_, ok = ctx.Deadline()
	assert.True(t, ok)
}

func TestPostActorHonorsAnExpiredCallerDeadline(t *testing.T) {
	env := newTestEnv(t)
	ada := env.addUser(t, "Ada")
	pid := env.spawn(NewPostActor)

	msg := &CreatePostMsg{UserID: ada.ID, Text: "late"}
	msg.SetDeadline(time.Now().Add(-time.Second))
	env.request(t, pid, msg)

	posts, err := env.store.ListPosts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}
