package simulator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"dev-connector/internal/client"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errNoPosts = errors.New("no posts yet")

// SimulateActivities posts right away and starts commenting and liking once
// WarmupPosts posts exist.
func (s *Simulator) SimulateActivities(ctx context.Context) {
	postsAvailable := make(chan struct{})
	var closeOnce sync.Once
	signal := func() { closeOnce.Do(func() { close(postsAvailable) }) }
	if s.config.WarmupPosts <= 0 {
		signal()
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runActivity(ctx, "post", s.config.PostFrequency, func(user *SimulatedUser) error {
			if err := s.createPost(ctx, user); err != nil {
				return err
			}
			s.stats.mu.RLock()
			total := s.stats.TotalPosts
			s.stats.mu.RUnlock()
			if total >= s.config.WarmupPosts {
				signal()
			}
			return nil
		})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-postsAvailable:
			s.logger.Info("Starting comments after posts available")
			s.runActivity(ctx, "comment", s.config.CommentFrequency, func(user *SimulatedUser) error {
				return s.comment(ctx, user)
			})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-postsAvailable:
			s.logger.Info("Starting likes after posts available")
			s.runActivity(ctx, "like", s.config.LikeFrequency, func(user *SimulatedUser) error {
				return s.toggleLike(ctx, user)
			})
		}
	}()

	wg.Wait()
}

// runActivity offers every connected user to a worker pool once per tick.
// Each worker acts with probability frequency/hour scaled to the tick.
func (s *Simulator) runActivity(ctx context.Context, name string, frequency float64, act func(*SimulatedUser) error) {
	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	chance := frequency / 3600.0 * s.config.TickInterval.Seconds()
	jobs := make(chan *SimulatedUser, max(s.config.NumUsers, 1))

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for user := range jobs {
				if s.randFloat() >= chance {
					continue
				}
				if err := act(user); err != nil && ctx.Err() == nil && !errors.Is(err, errNoPosts) {
					s.logger.Debug("Activity failed",
						zap.String("activity", name),
						zap.Int("worker", workerID),
						zap.String("user", user.Name),
						zap.Error(err))
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		case <-ticker.C:
			s.mu.RLock()
			for _, user := range s.users {
				if user.IsConnected {
					select {
					case jobs <- user:
					default: // Don't block if channel is full
					}
				}
			}
			s.mu.RUnlock()
		}
	}
}

func (s *Simulator) createPost(ctx context.Context, user *SimulatedUser) error {
	var postID uuid.UUID
	err := s.track(ctx, func() error {
		created, err := user.Client.CreatePost(ctx, fmt.Sprintf("%s on %s at %s",
			user.Name, getRandomTopic(s.randIntn), time.Now().Format(time.RFC3339)))
		if err != nil {
			return err
		}
		postID = created.ID
		return nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.posts = append([]uuid.UUID{postID}, s.posts...)
	s.mu.Unlock()

	s.stats.mu.Lock()
	s.stats.TotalPosts++
	s.stats.mu.Unlock()
	return nil
}

func (s *Simulator) comment(ctx context.Context, user *SimulatedUser) error {
	postID, err := s.pickPost()
	if err != nil {
		return err
	}

	return s.track(ctx, func() error {
		_, err := user.Client.AddComment(ctx, postID, fmt.Sprintf("Comment from %s at %s",
			user.Name, time.Now().Format(time.RFC3339)))
		if err != nil {
			return err
		}
		s.stats.mu.Lock()
		s.stats.TotalComments++
		s.stats.mu.Unlock()
		return nil
	})
}

// toggleLike likes a post, or takes the like back when the user already
// liked it.
func (s *Simulator) toggleLike(ctx context.Context, user *SimulatedUser) error {
	postID, err := s.pickPost()
	if err != nil {
		return err
	}

	alreadyLiked := false
	err = s.track(ctx, func() error {
		_, err := user.Client.LikePost(ctx, postID)
		if isBadRequest(err) {
			alreadyLiked = true
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	if !alreadyLiked {
		s.stats.mu.Lock()
		s.stats.TotalLikes++
		s.stats.mu.Unlock()
		return nil
	}

	// Another worker may have taken the like back already
	notLiked := false
	err = s.track(ctx, func() error {
		_, err := user.Client.UnlikePost(ctx, postID)
		if isBadRequest(err) {
			notLiked = true
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	if !notLiked {
		s.stats.mu.Lock()
		s.stats.TotalUnlikes++
		s.stats.mu.Unlock()
	}
	return nil
}

// pickPost chooses a known post, favoring recent ones along a Zipf curve.
func (s *Simulator) pickPost() (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.posts) == 0 {
		return uuid.Nil, errNoPosts
	}
	return s.posts[s.zipfIndex(len(s.posts))], nil
}

func (s *Simulator) zipfIndex(n int) int {
	if n <= 1 {
		return 0
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	zipf := rand.NewZipf(s.rng, s.config.ZipfS, 1, uint64(n-1))
	return int(zipf.Uint64())
}

func (s *Simulator) randFloat() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

func (s *Simulator) randIntn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func isBadRequest(err error) bool {
	apiErr, ok := client.AsAPIError(err)
	return ok && apiErr.Status == http.StatusBadRequest
}

func getRandomTopic(intn func(int) int) string {
	topics := []string{
		"go", "rust", "kubernetes", "postgres", "mongodb",
		"react", "redis", "testing", "observability", "security",
		"compilers", "distributed systems", "career", "open source", "devops",
	}
	return topics[intn(len(topics))]
}
