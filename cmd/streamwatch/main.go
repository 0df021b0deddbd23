package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	"github.com/botdash/realtime/internal/api"
	"github.com/botdash/realtime/internal/auth"
	"github.com/botdash/realtime/internal/changefeed"
	"github.com/botdash/realtime/internal/config"
	"github.com/botdash/realtime/internal/connection"
	"github.com/botdash/realtime/internal/database"
	"github.com/botdash/realtime/internal/session"
	"github.com/botdash/realtime/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/streamwatch.local.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))
	slog.SetDefault(logger)

	logger.Info("starting streamwatch",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	token := os.Getenv("BOTDASH_TOKEN")
	if token == "" {
		logger.Error("BOTDASH_TOKEN not set")
		os.Exit(1)
	}
	tokens := auth.NewStaticTokenSource(token)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	resync := api.NewClient(
		cfg.API.BaseURL,
		tokens,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
	)

	opts := []session.Option{session.WithResyncer(resync)}

	var feed *changefeed.PostgresFeed
	if cfg.ChangeFeed.Enabled {
		logger.Info("connecting to change-feed database",
			"host", cfg.ChangeFeed.Postgres.Host,
			"port", cfg.ChangeFeed.Postgres.Port,
			"database", cfg.ChangeFeed.Postgres.Name,
		)

		pool, err := database.Connect(ctx, cfg.ChangeFeed.Postgres)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		feed = changefeed.NewPostgresFeed(pool, cfg.ChangeFeed.Channel, logger)
		if err := feed.Start(ctx); err != nil {
			logger.Error("failed to start change feed", "error", err)
			os.Exit(1)
		}
		opts = append(opts, session.WithFeed(feed))
	}

	sess := session.New(*cfg, tokens, logger, opts...)
	if err := sess.Start(ctx); err != nil {
		logger.Error("failed to start session", "error", err)
		os.Exit(1)
	}

	for _, topic := range flag.Args() {
		if err := sess.Subscribe(topic); err != nil {
			logger.Error("bad topic", "topic", topic, "error", err)
			os.Exit(1)
		}
		logger.Info("subscribed", "topic", topic)
	}

	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: healthHandler(cfg.Health.Path, sess, feed),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		for n := range sess.Notifications() {
			logger.Info("notification",
				"urgency", n.Urgency,
				"title", n.Title,
				"body", n.Body,
			)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		healthServer.Shutdown(shutdownCtx)

		if feed != nil {
			feed.Stop(shutdownCtx)
		}
		return sess.Teardown(shutdownCtx)
	})

	logger.Info("streamwatch running",
		"health_url", fmt.Sprintf("http://localhost:%d%s", cfg.Health.Port, cfg.Health.Path),
	)

	if err := g.Wait(); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("streamwatch stopped")
}

// healthHandler reports connection state and routing statistics.
func healthHandler(path string, sess *session.Session, feed *changefeed.PostgresFeed) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		state := sess.State()
		stats := sess.RouterStats()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		health.Components["connection"] = string(state)
		if state != connection.StateOpen {
			health.Status = "degraded"
		}

		health.Components["router"] = map[string]int64{
			"received":      stats.Received,
			"routed":        stats.Routed,
			"parse_errors":  stats.ParseErrors,
			"unknown_types": stats.UnknownTypes,
		}

		if feed != nil {
			received, dropped := feed.Stats()
			health.Components["change_feed"] = map[string]int64{
				"received": received,
				"dropped":  dropped,
			}
		}
		health.Components["adapters"] = sess.AdapterCount()

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
