// Package events carries post mutations from the actor engine to live feed subscribers.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Type string

const (
	PostCreated     Type = "post.created"
	PostDeleted     Type = "post.deleted"
	PostLiked       Type = "post.liked"
	PostUnliked     Type = "post.unliked"
	PostCommented   Type = "post.commented"
	PostUncommented Type = "post.uncommented"
)

// Event describes one successful post mutation. Data holds the value the
// client needs to update its view: the post, its likes or its comments.
type Event struct {
	Type   Type            `json:"type"`
	PostID uuid.UUID       `json:"postId"`
	UserID uuid.UUID       `json:"user"`
	Data   json.RawMessage `json:"data,omitempty"`
	Time   time.Time       `json:"time"`
}

// New builds an event, encoding data as its payload.
func New(t Type, postID, userID uuid.UUID, data any) (Event, error) {
	evt := Event{Type: t, PostID: postID, UserID: userID, Time: time.Now().UTC()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, err
		}
		evt.Data = raw
	}
	return evt, nil
}

type Handler func(Event)

// Bus fans post events out to every subscribed handler.
type Bus interface {
	Publish(ctx context.Context, evt Event) error
	Subscribe(h Handler)
	Close() error
}

// handlerSet is the subscriber list shared by both bus implementations.
type handlerSet struct {
	mu       sync.RWMutex
	handlers []Handler
}

func (s *handlerSet) add(h Handler) {
	s.mu.Lock()
	s.handlers = append(s.handlers, h)
	s.mu.Unlock()
}

func (s *handlerSet) dispatch(evt Event) {
	s.mu.RLock()
	handlers := s.handlers
	s.mu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}
}

// LocalBus delivers events in process, synchronously, to its subscribers.
type LocalBus struct {
	subscribers handlerSet
	logger      *zap.Logger
}

func NewLocalBus(logger *zap.Logger) *LocalBus {
	return &LocalBus{logger: logger}
}

func (b *LocalBus) Publish(ctx context.Context, evt Event) error {
	b.logger.Debug("Publishing post event",
		zap.String("type", string(evt.Type)),
		zap.String("post_id", evt.PostID.String()))
	b.subscribers.dispatch(evt)
	return nil
}

func (b *LocalBus) Subscribe(h Handler) {
	b.subscribers.add(h)
}

func (b *LocalBus) Close() error { return nil }
