package simulator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"dev-connector/internal/client"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type SimConfig struct {
	NumUsers       int
	SimulationTime time.Duration

	// Frequencies are per user per hour.
	PostFrequency    float64
	CommentFrequency float64
	LikeFrequency    float64

	DisconnectRate float64
	ReconnectRate  float64
	ZipfS          float64

	// WarmupPosts is how many posts must exist before comments and likes start.
	WarmupPosts     int
	Workers         int
	TickInterval    time.Duration
	MetricsInterval time.Duration
	EngineURL       string
	HTTPClient      *http.Client
}

// DefaultSimConfig returns a small, slow simulation against a local server.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		NumUsers:         10,
		SimulationTime:   10 * time.Minute,
		PostFrequency:    100.0,
		CommentFrequency: 60.0,
		LikeFrequency:    100.0,
		DisconnectRate:   0.01,
		ReconnectRate:    0.05,
		ZipfS:            1.07,
		WarmupPosts:      10,
		Workers:          5,
		TickInterval:     500 * time.Millisecond,
		MetricsInterval:  10 * time.Second,
		EngineURL:        "http://localhost:5000",
	}
}

type SimulationStats struct {
	mu              sync.RWMutex
	StartTime       time.Time
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	AverageLatency  time.Duration
	ActiveUsers     int
	TotalPosts      int
	TotalComments   int
	TotalLikes      int
	TotalUnlikes    int
}

// SimulatedUser is one registered account with its own API session.
type SimulatedUser struct {
	Name        string
	Email       string
	Password    string
	ID          uuid.UUID
	Client      *client.APIClient
	IsConnected bool
	LastActive  time.Time
}

type Simulator struct {
	config SimConfig
	logger *zap.Logger
	stats  *SimulationStats

	mu    sync.RWMutex
	users []*SimulatedUser
	posts []uuid.UUID // Newest first

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewSimulator(config SimConfig, logger *zap.Logger) *Simulator {
	defaults := DefaultSimConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.TickInterval <= 0 {
		config.TickInterval = defaults.TickInterval
	}
	if config.MetricsInterval <= 0 {
		config.MetricsInterval = defaults.MetricsInterval
	}
	if config.ZipfS <= 1 {
		config.ZipfS = defaults.ZipfS
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Simulator{
		config: config,
		logger: logger,
		stats:  &SimulationStats{StartTime: time.Now()},
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run registers the users, then drives activity until ctx is done.
func (s *Simulator) Run(ctx context.Context) error {
	s.logger.Info("Starting simulation",
		zap.String("engine_url", s.config.EngineURL),
		zap.Int("users", s.config.NumUsers))

	if err := s.createInitialUsers(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.SimulateActivities(gctx)
		return nil
	})
	g.Go(func() error {
		s.simulateConnectivity(gctx)
		return nil
	})
	g.Go(func() error {
		s.collectMetrics(gctx)
		return nil
	})
	return g.Wait()
}

func (s *Simulator) createInitialUsers(ctx context.Context) error {
	s.logger.Info("Creating users", zap.Int("count", s.config.NumUsers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)

	runID := uuid.NewString()[:8]
	for i := 0; i < s.config.NumUsers; i++ {
		user := &SimulatedUser{
			Name:        fmt.Sprintf("user_%d", i),
			Email:       fmt.Sprintf("user_%d_%s@sim.devconnector.test", i, runID),
			Password:    "testpass123",
			Client:      client.NewAPIClient(s.config.EngineURL, s.config.HTTPClient),
			IsConnected: true,
		}

		g.Go(func() error {
			var err error
			for retries := 0; retries < 3; retries++ {
				if err = s.registerUser(gctx, user); err == nil {
					s.mu.Lock()
					s.users = append(s.users, user)
					s.mu.Unlock()
					return nil
				}
				if gctx.Err() != nil {
					return gctx.Err()
				}

				backoff := time.Duration(math.Pow(2, float64(retries))) * 100 * time.Millisecond
				s.logger.Warn("Retrying registration",
					zap.String("user", user.Name),
					zap.Int("attempt", retries+1),
					zap.Duration("backoff", backoff),
					zap.Error(err))
				time.Sleep(backoff)
			}
			s.logger.Error("Failed to register user", zap.String("user", user.Name), zap.Error(err))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.stats.mu.Lock()
	s.stats.ActiveUsers = len(s.users)
	s.stats.mu.Unlock()

	s.logger.Info("Users created", zap.Int("count", len(s.users)))
	if len(s.users) == 0 {
		return fmt.Errorf("no users could be registered")
	}
	return nil
}

func (s *Simulator) registerUser(ctx context.Context, user *SimulatedUser) error {
	err := s.track(ctx, func() error {
		token, err := user.Client.Register(ctx, user.Name, user.Email, user.Password)
		if err != nil {
			return err
		}
		user.Client.SetToken(token)
		return nil
	})
	if err != nil {
		return err
	}

	return s.track(ctx, func() error {
		me, err := user.Client.LoadUser(ctx)
		if err != nil {
			return err
		}
		user.ID = me.ID
		user.LastActive = time.Now()
		return nil
	})
}

// simulateConnectivity takes users offline and back. A returning user logs
// in again for a fresh token.
func (s *Simulator) simulateConnectivity(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			var reconnecting []*SimulatedUser
			for _, user := range s.users {
				if user.IsConnected {
					if s.randFloat() < s.config.DisconnectRate {
						user.IsConnected = false
						user.Client.SetToken("")
					}
				} else if s.randFloat() < s.config.ReconnectRate {
					reconnecting = append(reconnecting, user)
				}
			}
			s.mu.Unlock()

			for _, user := range reconnecting {
				err := s.track(ctx, func() error {
					token, err := user.Client.Login(ctx, user.Email, user.Password)
					if err != nil {
						return err
					}
					user.Client.SetToken(token)
					return nil
				})
				if err != nil {
					continue
				}
				s.mu.Lock()
				user.IsConnected = true
				user.LastActive = time.Now()
				s.mu.Unlock()
			}
			active := s.connectedCount()
			s.stats.mu.Lock()
			s.stats.ActiveUsers = active
			s.stats.mu.Unlock()
		}
	}
}

func (s *Simulator) connectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, user := range s.users {
		if user.IsConnected {
			n++
		}
	}
	return n
}

// track times fn as one request. Requests cut short by ctx are not counted.
func (s *Simulator) track(ctx context.Context, fn func() error) error {
	start := time.Now()
	err := fn()
	if ctx.Err() != nil {
		return err
	}
	s.recordRequestMetrics(start, err)
	return err
}

func (s *Simulator) recordRequestMetrics(start time.Time, err error) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()

	latency := time.Since(start)
	s.stats.TotalRequests++

	if err != nil {
		s.stats.FailedRequests++
	} else {
		s.stats.SuccessRequests++
	}

	totalLatency := s.stats.AverageLatency * time.Duration(s.stats.TotalRequests-1)
	s.stats.AverageLatency = (totalLatency + latency) / time.Duration(s.stats.TotalRequests)
}

func (s *Simulator) collectMetrics(ctx context.Context) {
	ticker := time.NewTicker(s.config.MetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := s.GetMetrics()
			s.logger.Info("Simulation metrics",
				zap.Duration("elapsed", time.Since(s.stats.StartTime)),
				zap.Float64("requests_per_second", m.RequestsPerSecond),
				zap.Float64("success_rate", m.SuccessRate),
				zap.Duration("average_latency", m.AverageLatency),
				zap.Int("active_users", m.ActiveUsers),
				zap.Int("total_users", m.TotalUsers),
				zap.Int("posts", m.TotalPosts),
				zap.Int("comments", m.TotalComments),
				zap.Int("likes", m.TotalLikes),
				zap.Int("unlikes", m.TotalUnlikes),
				zap.Int("errors", m.ErrorCount))
		}
	}
}

// SimulationMetrics holds the metrics of the simulation
type SimulationMetrics struct {
	TotalUsers        int
	ActiveUsers       int
	TotalPosts        int
	TotalComments     int
	TotalLikes        int
	TotalUnlikes      int
	TotalRequests     int64
	AverageLatency    time.Duration
	ErrorCount        int
	SuccessRate       float64
	RequestsPerSecond float64
}

// GetMetrics returns the current simulation metrics
func (s *Simulator) GetMetrics() SimulationMetrics {
	s.mu.RLock()
	totalUsers := len(s.users)
	s.mu.RUnlock()

	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	elapsed := time.Since(s.stats.StartTime)
	successRate := 0.0
	if s.stats.TotalRequests > 0 {
		successRate = float64(s.stats.SuccessRequests) / float64(s.stats.TotalRequests) * 100
	}

	return SimulationMetrics{
		TotalUsers:        totalUsers,
		ActiveUsers:       s.stats.ActiveUsers,
		TotalPosts:        s.stats.TotalPosts,
		TotalComments:     s.stats.TotalComments,
		TotalLikes:        s.stats.TotalLikes,
		TotalUnlikes:      s.stats.TotalUnlikes,
		TotalRequests:     s.stats.TotalRequests,
		AverageLatency:    s.stats.AverageLatency,
		ErrorCount:        int(s.stats.FailedRequests),
		SuccessRate:       successRate,
		RequestsPerSecond: float64(s.stats.TotalRequests) / elapsed.Seconds(),
	}
}
