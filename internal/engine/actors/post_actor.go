package actors

import (
	stdctx "context"
	"time"

	"dev-connector/internal/database"
	"dev-connector/internal/events"
	"dev-connector/internal/models"
	"dev-connector/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message types for Post operations
type (
	CreatePostMsg struct {
		Request
		UserID uuid.UUID
		Text   string
	}

	ListPostsMsg struct {
		Request
	}

	GetPostMsg struct {
		Request
		PostID uuid.UUID
	}

	DeletePostMsg struct {
		Request
		PostID uuid.UUID
		UserID uuid.UUID
	}

	LikePostMsg struct {
		Request
		PostID uuid.UUID
		UserID uuid.UUID
	}

	UnlikePostMsg struct {
		Request
		PostID uuid.UUID
		UserID uuid.UUID
	}

	AddCommentMsg struct {
		Request
		PostID uuid.UUID
		UserID uuid.UUID
		Text   string
	}

	RemoveCommentMsg struct {
		Request
		PostID    uuid.UUID
		CommentID uuid.UUID
		UserID    uuid.UUID
	}
)

// PostDeleted is the reply to a successful DeletePostMsg.
type PostDeleted struct {
	PostID uuid.UUID
}

// PostActor handles post-related operations. It holds no state of its own,
// so any number of instances can serve requests side by side.
type PostActor struct {
	store   database.DBAdapter
	bus     events.Bus
	metrics *utils.MetricsCollector
	timeout time.Duration
	logger  *zap.Logger
}

// NewPostActor creates a new PostActor instance
func NewPostActor(deps Deps) actor.Actor {
	return &PostActor{
		store:   deps.Store,
		bus:     deps.Bus,
		metrics: deps.Metrics,
		timeout: deps.Timeout,
		logger:  deps.Logger.Named("post_actor"),
	}
}

// Receive handles incoming messages
func (a *PostActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		a.logger.Debug("PostActor started")
	case *CreatePostMsg:
		a.handleCreatePost(context, msg)
	case *ListPostsMsg:
		a.handleListPosts(context, msg)
	case *GetPostMsg:
		a.handleGetPost(context, msg)
	case *DeletePostMsg:
		a.handleDeletePost(context, msg)
	case *LikePostMsg:
		a.handleLikePost(context, msg)
	case *UnlikePostMsg:
		a.handleUnlikePost(context, msg)
	case *AddCommentMsg:
		a.handleAddComment(context, msg)
	case *RemoveCommentMsg:
		a.handleRemoveComment(context, msg)
	}
}

func (a *PostActor) handleCreatePost(context actor.Context, msg *CreatePostMsg) {
	startTime := time.Now()
	ctx, cancel := storeContext(msg.Deadline, a.timeout)
	defer cancel()

	author, err := a.store.GetUser(ctx, msg.UserID)
	if err != nil {
		a.fail(context, "create_post", err)
		return
	}

	post := models.NewPost(author, msg.Text)
	if err := a.store.CreatePost(ctx, post); err != nil {
		a.fail(context, "create_post", err)
		return
	}

	a.publish(ctx, events.PostCreated, post.ID, msg.UserID, post)
	a.metrics.AddOperationLatency("create_post", time.Since(startTime))
	context.Respond(post)
}

func (a *PostActor) handleListPosts(context actor.Context, msg *ListPostsMsg) {
	startTime := time.Now()
	ctx, cancel := storeContext(msg.Deadline, a.timeout)
	defer cancel()

	posts, err := a.store.ListPosts(ctx)
	if err != nil {
		a.fail(context, "list_posts", err)
		return
	}
	for _, p := range posts {
		p.Normalize()
	}

	a.metrics.AddOperationLatency("list_posts", time.Since(startTime))
	context.Respond(posts)
}

func (a *PostActor) handleGetPost(context actor.Context, msg *GetPostMsg) {
	ctx, cancel := storeContext(msg.Deadline, a.timeout)
	defer cancel()

	post, err := a.store.GetPost(ctx, msg.PostID)
	if err != nil {
		a.fail(context, "get_post", err)
		return
	}
	post.Normalize()
	context.Respond(post)
}

func (a *PostActor) handleDeletePost(context actor.Context, msg *DeletePostMsg) {
	startTime := time.Now()
	ctx, cancel := storeContext(msg.Deadline, a.timeout)
	defer cancel()

	post, err := a.store.GetPost(ctx, msg.PostID)
	if err != nil {
		a.fail(context, "delete_post", err)
		return
	}

	// Only the author may delete a post
	if post.User != msg.UserID {
		a.fail(context, "delete_post", utils.NewForbiddenError())
		return
	}

	if err := a.store.DeletePost(ctx, msg.PostID); err != nil {
		a.fail(context, "delete_post", err)
		return
	}

	a.publish(ctx, events.PostDeleted, msg.PostID, msg.UserID, nil)
	a.metrics.AddOperationLatency("delete_post", time.Since(startTime))
	context.Respond(&PostDeleted{PostID: msg.PostID})
}

func (a *PostActor) handleLikePost(context actor.Context, msg *LikePostMsg) {
	startTime := time.Now()
	ctx, cancel := storeContext(msg.Deadline, a.timeout)
	defer cancel()

	likes, err := a.store.AddLike(ctx, msg.PostID, msg.UserID)
	if err != nil {
		a.fail(context, "like_post", err)
		return
	}

	a.publish(ctx, events.PostLiked, msg.PostID, msg.UserID, likes)
	a.metrics.AddOperationLatency("like_post", time.Since(startTime))
	context.Respond(likes)
}

func (a *PostActor) handleUnlikePost(context actor.Context, msg *UnlikePostMsg) {
	startTime := time.Now()
	ctx, cancel := storeContext(msg.Deadline, a.timeout)
	defer cancel()

	likes, err := a.store.RemoveLike(ctx, msg.PostID, msg.UserID)
	if err != nil {
		a.fail(context, "unlike_post", err)
		return
	}

	a.publish(ctx, events.PostUnliked, msg.PostID, msg.UserID, likes)
	a.metrics.AddOperationLatency("unlike_post", time.Since(startTime))
	context.Respond(likes)
}

func (a *PostActor) handleAddComment(context actor.Context, msg *AddCommentMsg) {
	startTime := time.Now()
	ctx, cancel := storeContext(msg.Deadline, a.timeout)
	defer cancel()

	author, err := a.store.GetUser(ctx, msg.UserID)
	if err != nil {
		a.fail(context, "add_comment", err)
		return
	}

	comments, err := a.store.AddComment(ctx, msg.PostID, models.NewComment(author, msg.Text))
	if err != nil {
		a.fail(context, "add_comment", err)
		return
	}

	a.publish(ctx, events.PostCommented, msg.PostID, msg.UserID, comments)
	a.metrics.AddOperationLatency("add_comment", time.Since(startTime))
	context.Respond(comments)
}

func (a *PostActor) handleRemoveComment(context actor.Context, msg *RemoveCommentMsg) {
	startTime := time.Now()
	ctx, cancel := storeContext(msg.Deadline, a.timeout)
	defer cancel()

	comments, err := a.store.RemoveComment(ctx, msg.PostID, msg.CommentID, msg.UserID)
	if err != nil {
		a.fail(context, "remove_comment", err)
		return
	}

	a.publish(ctx, events.PostUncommented, msg.PostID, msg.UserID, comments)
	a.metrics.AddOperationLatency("remove_comment", time.Since(startTime))
	context.Respond(comments)
}

// publish reports a mutation to the live feed. A failed publish is logged;
// the mutation itself has already succeeded.
func (a *PostActor) publish(ctx stdctx.Context, t events.Type, postID, userID uuid.UUID, data any) {
	if a.bus == nil {
		return
	}
	evt, err := events.New(t, postID, userID, data)
	if err == nil {
		err = a.bus.Publish(ctx, evt)
	}
	if err != nil {
		a.logger.Warn("Failed to publish post event",
			zap.String("type", string(t)),
			zap.String("post_id", postID.String()),
			zap.Error(err))
		return
	}
	a.metrics.IncrementPostEvents(string(t))
}

func (a *PostActor) fail(context actor.Context, operation string, err error) {
	context.Respond(respondError(a.logger, a.metrics, operation, err))
}
