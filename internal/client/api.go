package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"dev-connector/internal/api"
	"dev-connector/internal/middleware"
	"dev-connector/internal/models"

	"github.com/google/uuid"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status int
	Msg    string
	Errors []api.FieldError
}

func (e *APIError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("api: %d %s", e.Status, e.Msg)
	}
	if len(e.Errors) > 0 {
		msgs := make([]string, len(e.Errors))
		for i, fe := range e.Errors {
			msgs[i] = fe.Msg
		}
		return fmt.Sprintf("api: %d %s", e.Status, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("api: %d", e.Status)
}

// Messages returns every message the server sent, field errors first.
func (e *APIError) Messages() []string {
	msgs := make([]string, 0, len(e.Errors)+1)
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Msg)
	}
	if e.Msg != "" {
		msgs = append(msgs, e.Msg)
	}
	return msgs
}

// AsAPIError unwraps err to an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// APIClient is a typed client for the DevConnector HTTP API. The token set
// with SetToken is sent on every request.
type APIClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *APIClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Register creates an account and returns its token.
func (c *APIClient) Register(ctx context.Context, name, email, password string) (string, error) {
	var resp api.TokenResponse
	err := c.do(ctx, http.MethodPost, "/api/users", api.RegisterUserRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}, &resp)
	return resp.Token, err
}

func (c *APIClient) Login(ctx context.Context, email, password string) (string, error) {
	var resp api.TokenResponse
	err := c.do(ctx, http.MethodPost, "/api/auth", api.LoginRequest{Email: email, Password: password}, &resp)
	return resp.Token, err
}

// LoadUser returns the user the current token belongs to.
func (c *APIClient) LoadUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/auth", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *APIClient) CurrentProfile(ctx context.Context) (*models.PopulatedProfile, error) {
	var profile models.PopulatedProfile
	if err := c.do(ctx, http.MethodGet, "/api/profile/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *APIClient) UpsertProfile(ctx context.Context, req api.ProfileRequest) (*models.PopulatedProfile, error) {
	var profile models.PopulatedProfile
	if err := c.do(ctx, http.MethodPost, "/api/profile", req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *APIClient) ListProfiles(ctx context.Context) ([]*models.PopulatedProfile, error) {
	var profiles []*models.PopulatedProfile
	err := c.do(ctx, http.MethodGet, "/api/profile", nil, &profiles)
	return profiles, err
}

// DeleteAccount removes the caller's posts, profile and user.
func (c *APIClient) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/profile", nil, nil)
}

func (c *APIClient) CreatePost(ctx context.Context, text string) (*models.Post, error) {
	var post models.Post
	if err := c.do(ctx, http.MethodPost, "/api/post", api.CreatePostRequest{Text: text}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *APIClient) ListPosts(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := c.do(ctx, http.MethodGet, "/api/post", nil, &posts)
	return posts, err
}

func (c *APIClient) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := c.do(ctx, http.MethodGet, "/api/post/"+id.String(), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *APIClient) DeletePost(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/post/"+id.String(), nil, nil)
}

// LikePost likes a post and returns its like list, most recent first.
func (c *APIClient) LikePost(ctx context.Context, id uuid.UUID) ([]models.Like, error) {
	var likes []models.Like
	err := c.do(ctx, http.MethodPut, "/api/post/like/"+id.String(), nil, &likes)
	return likes, err
}

func (c *APIClient) UnlikePost(ctx context.Context, id uuid.UUID) ([]models.Like, error) {
	var likes []models.Like
	err := c.do(ctx, http.MethodPut, "/api/post/unlike/"+id.String(), nil, &likes)
	return likes, err
}

func (c *APIClient) AddComment(ctx context.Context, postID uuid.UUID, text string) ([]models.Comment, error) {
	var comments []models.Comment
	err := c.do(ctx, http.MethodPost, "/api/post/comment/"+postID.String(), api.CreatePostRequest{Text: text}, &comments)
	return comments, err
}

func (c *APIClient) RemoveComment(ctx context.Context, postID, commentID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	path := "/api/post/comment/" + postID.String() + "/" + commentID.String()
	err := c.do(ctx, http.MethodDelete, path, nil, &comments)
	return comments, err
}

// do sends body as JSON and decodes a 2xx answer into out when out is non-nil.
func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set(middleware.TokenHeader, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	apiErr := &APIError{Status: resp.StatusCode}

	var body struct {
		Msg    string           `json:"msg"`
		Errors []api.FieldError `json:"errors"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Msg = body.Msg
		apiErr.Errors = body.Errors
	} else {
		apiErr.Msg = strings.TrimSpace(string(raw))
	}
	if apiErr.Msg == "" && len(apiErr.Errors) == 0 {
		apiErr.Msg = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
