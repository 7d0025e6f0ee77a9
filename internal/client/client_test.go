package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dev-connector/internal/api"
	"dev-connector/internal/database"
	"dev-connector/internal/engine"
	"dev-connector/internal/engine/actors"
	"dev-connector/internal/events"
	"dev-connector/internal/handlers"
	"dev-connector/internal/middleware"
	"dev-connector/internal/utils"
	"dev-connector/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestAPI starts the full HTTP stack on an in-memory store.
func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zap.NewNop()
	metrics := utils.NewMetricsCollector()
	auth := middleware.NewAuthenticator("client-test-secret", time.Hour)
	hub := websocket.NewHub(logger)

	system := actor.NewActorSystem()
	eng := engine.NewEngine(system, actors.Deps{
		Store:   database.NewMemoryDB(),
		Bus:     events.NewLocalBus(logger),
		Metrics: metrics,
		Tokens:  auth,
		Timeout: 5 * time.Second,
		Logger:  logger,
	}, 2)

	ts := httptest.NewServer(handlers.NewServer(system, eng, auth, metrics, hub, logger).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newTestActions(t *testing.T) (*Actions, *APIClient) {
	t.Helper()
	ts := newTestAPI(t)
	apiClient := NewAPIClient(ts.URL, ts.Client())
	return NewActions(NewStore(), apiClient).WithAlertTimeout(time.Minute), apiClient
}

func uniqueEmail() string {
	return "dev-" + uuid.NewString() + "@example.com"
}

func TestAPIClientPostFlow(t *testing.T) {
	ts := newTestAPI(t)
	ctx := context.Background()

	ada := NewAPIClient(ts.URL, ts.Client())
	token, err := ada.Register(ctx, "Ada", uniqueEmail(), "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	ada.SetToken(token)

	post, err := ada.CreatePost(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", post.Text)
	assert.Equal(t, "Ada", post.Name)
	assert.Empty(t, post.Likes)

	fetched, err := ada.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, fetched.ID)

	likes, err := ada.LikePost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, post.User, likes[0].User)

	_, err = ada.LikePost(ctx, post.ID)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Post already liked", apiErr.Msg)

	likes, err = ada.UnlikePost(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, likes)

	comments, err := ada.AddComment(ctx, post.ID, "first")
	require.NoError(t, err)
	require.Len(t, comments, 1)

	comments, err = ada.RemoveComment(ctx, post.ID, comments[0].ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	posts, err := ada.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	require.NoError(t, ada.DeletePost(ctx, post.ID))
	_, err = ada.GetPost(ctx, post.ID)
	apiErr, ok = AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Post not found", apiErr.Msg)
}

func TestAPIClientWithoutToken(t *testing.T) {
	ts := newTestAPI(t)

	_, err := NewAPIClient(ts.URL, ts.Client()).ListPosts(context.Background())
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "No token, authorization denied", apiErr.Msg)
}

func TestAPIClientPlainTextError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.WriteServerError(w)
	}))
	t.Cleanup(ts.Close)

	_, err := NewAPIClient(ts.URL, nil).ListPosts(context.Background())
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Server Error", apiErr.Msg)
}

func TestAPIClientProfiles(t *testing.T) {
	ts := newTestAPI(t)
	ctx := context.Background()

	c := NewAPIClient(ts.URL, ts.Client())
	token, err := c.Register(ctx, "Grace", uniqueEmail(), "secret1")
	require.NoError(t, err)
	c.SetToken(token)

	_, err = c.CurrentProfile(ctx)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "There is no profile for this user", apiErr.Msg)

	profile, err := c.UpsertProfile(ctx, api.ProfileRequest{Status: "Developer", Skills: "Go, SQL"})
	require.NoError(t, err)
	assert.Equal(t, "Grace", profile.User.Name)
	assert.Equal(t, []string{"Go", "SQL"}, profile.Skills)

	profiles, err := c.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)

	require.NoError(t, c.DeleteAccount(ctx))
	profiles, err = c.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestRegisterFormOnChange(t *testing.T) {
	actions, _ := newTestActions(t)
	form := NewRegisterForm(actions)

	require.NoError(t, form.OnChange("name", "Ada"))
	require.NoError(t, form.OnChange("email", "ada@example.com"))
	require.NoError(t, form.OnChange("name", "Ada L"))
	assert.Error(t, form.OnChange("nickname", "al"))

	assert.Equal(t, RegisterFields{Name: "Ada L", Email: "ada@example.com"}, form.Fields())
}

func TestRegisterFormPasswordMismatch(t *testing.T) {
	actions, _ := newTestActions(t)
	form := NewRegisterForm(actions)

	require.NoError(t, form.OnChange("name", "Ada"))
	require.NoError(t, form.OnChange("email", uniqueEmail()))
	require.NoError(t, form.OnChange("password", "secret1"))
	require.NoError(t, form.OnChange("password2", "secret2"))

	err := form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	state := actions.Store().State()
	require.Len(t, state.Alerts, 1)
	assert.Equal(t, "Passwords do not match", state.Alerts[0].Msg)
	assert.Equal(t, AlertDanger, state.Alerts[0].AlertType)
	assert.False(t, state.Auth.IsAuthenticated)
	assert.True(t, state.Auth.Loading, "no auth action dispatched")
}

func TestRegisterFormSuccess(t *testing.T) {
	actions, apiClient := newTestActions(t)
	form := NewRegisterForm(actions)

	for field, value := range map[string]string{
		"name":      "Ada",
		"email":     uniqueEmail(),
		"password":  "secret1",
		"password2": "secret1",
	} {
		require.NoError(t, form.OnChange(field, value))
	}

	require.NoError(t, form.Submit(context.Background()))

	state := actions.Store().State()
	assert.True(t, state.Auth.IsAuthenticated)
	assert.NotEmpty(t, state.Auth.Token)
	assert.Equal(t, state.Auth.Token, apiClient.Token())
	require.NotNil(t, state.Auth.User)
	assert.Equal(t, "Ada", state.Auth.User.Name)
	assert.Empty(t, state.Alerts)
}

func TestRegisterFormServerErrors(t *testing.T) {
	actions, apiClient := newTestActions(t)
	form := NewRegisterForm(actions)

	require.NoError(t, form.OnChange("name", "Ada"))
	require.NoError(t, form.OnChange("email", "not-an-email"))
	require.NoError(t, form.OnChange("password", "secret1"))
	require.NoError(t, form.OnChange("password2", "secret1"))

	err := form.Submit(context.Background())
	require.Error(t, err)

	state := actions.Store().State()
	assert.False(t, state.Auth.IsAuthenticated)
	assert.Empty(t, apiClient.Token())
	require.Len(t, state.Alerts, 1)
	assert.Equal(t, "Please include a valid email", state.Alerts[0].Msg)
	assert.Equal(t, AlertDanger, state.Alerts[0].AlertType)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	actions, _ := newTestActions(t)
	ctx := context.Background()
	email := uniqueEmail()

	require.NoError(t, actions.Register(ctx, "Ada", email, "secret1"))
	require.Error(t, actions.Register(ctx, "Ada", email, "secret1"))

	state := actions.Store().State()
	require.Len(t, state.Alerts, 1)
	assert.Equal(t, "User already exists", state.Alerts[0].Msg)
}

func TestLoginAndLogout(t *testing.T) {
	actions, apiClient := newTestActions(t)
	ctx := context.Background()
	email := uniqueEmail()

	require.NoError(t, actions.Register(ctx, "Ada", email, "secret1"))
	actions.Logout()
	assert.Empty(t, apiClient.Token())
	assert.False(t, actions.Store().State().Auth.IsAuthenticated)

	require.Error(t, actions.Login(ctx, email, "wrong-password"))
	assert.Equal(t, "Invalid Credentials", actions.Store().State().Alerts[0].Msg)

	require.NoError(t, actions.Login(ctx, email, "secret1"))
	state := actions.Store().State()
	assert.True(t, state.Auth.IsAuthenticated)
	assert.Equal(t, "Ada", state.Auth.User.Name)
}

func TestDashboard(t *testing.T) {
	actions, apiClient := newTestActions(t)
	ctx := context.Background()
	dashboard := NewDashboard(actions)

	assert.Equal(t, DashboardView{Spinner: true}, dashboard.Render(actions.Store().State()))

	require.NoError(t, actions.Register(ctx, "Ada", uniqueEmail(), "secret1"))
	require.NoError(t, dashboard.Load(ctx))

	view := dashboard.Render(actions.Store().State())
	assert.False(t, view.Spinner)
	assert.Equal(t, "Dashboard", view.Title)
	assert.Equal(t, "Welcome Ada", view.Welcome)
	assert.False(t, view.ShowActions)
	assert.Equal(t, "/create-profile", view.CreateProfileLink)
	assert.NotEmpty(t, view.CreateProfileText)

	_, err := apiClient.UpsertProfile(ctx, api.ProfileRequest{Status: "Developer", Skills: "Go"})
	require.NoError(t, err)
	require.NoError(t, dashboard.Load(ctx))

	view = dashboard.Render(actions.Store().State())
	assert.True(t, view.ShowActions)
	assert.Empty(t, view.CreateProfileLink)
}

func TestDashboardWithoutUser(t *testing.T) {
	dashboard := NewDashboard(nil)
	state := Reduce(InitialState(), Action{Type: ActionProfileError, Payload: ProfileError{Msg: "x"}})

	view := dashboard.Render(state)
	assert.Equal(t, "Welcome", view.Welcome)
	assert.False(t, view.ShowActions)
}
