package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dev-connector/internal/config"
	"dev-connector/simulator"

	"go.uber.org/zap"
)

func main() {
	cfg := simulator.DefaultSimConfig()

	flag.StringVar(&cfg.EngineURL, "url", cfg.EngineURL, "base URL of the API")
	flag.IntVar(&cfg.NumUsers, "users", cfg.NumUsers, "number of simulated users")
	flag.DurationVar(&cfg.SimulationTime, "duration", cfg.SimulationTime, "how long to run")
	flag.Float64Var(&cfg.PostFrequency, "posts", cfg.PostFrequency, "posts per user per hour")
	flag.Float64Var(&cfg.CommentFrequency, "comments", cfg.CommentFrequency, "comments per user per hour")
	flag.Float64Var(&cfg.LikeFrequency, "likes", cfg.LikeFrequency, "likes per user per hour")
	flag.Float64Var(&cfg.ZipfS, "zipf", cfg.ZipfS, "Zipf exponent for post popularity (> 1)")
	debug := flag.Bool("debug", false, "log every failed activity")
	flag.Parse()

	logger, err := config.NewLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting simulation with configuration",
		zap.String("engine_url", cfg.EngineURL),
		zap.Int("users", cfg.NumUsers),
		zap.Duration("duration", cfg.SimulationTime),
		zap.Float64("post_frequency", cfg.PostFrequency),
		zap.Float64("comment_frequency", cfg.CommentFrequency),
		zap.Float64("like_frequency", cfg.LikeFrequency),
		zap.Float64("disconnect_rate", cfg.DisconnectRate),
		zap.Float64("reconnect_rate", cfg.ReconnectRate),
		zap.Float64("zipf_s", cfg.ZipfS))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.SimulationTime)
	defer cancel()

	sim := simulator.NewSimulator(cfg, logger)
	if err := sim.Run(ctx); err != nil {
		logger.Fatal("Simulation failed", zap.Error(err))
	}

	m := sim.GetMetrics()
	logger.Info("Simulation completed",
		zap.Int("total_users", m.TotalUsers),
		zap.Int("active_users", m.ActiveUsers),
		zap.Int("posts", m.TotalPosts),
		zap.Int("comments", m.TotalComments),
		zap.Int("likes", m.TotalLikes),
		zap.Int("unlikes", m.TotalUnlikes),
		zap.Duration("average_latency", m.AverageLatency),
		zap.Float64("requests_per_second", m.RequestsPerSecond),
		zap.Int("errors", m.ErrorCount))
}
