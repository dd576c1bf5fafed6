package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chirper/internal/cache"
	"chirper/internal/config"
	"chirper/internal/database"
	"chirper/internal/handler"
	"chirper/internal/id"
	"chirper/internal/metrics"
	"chirper/internal/outbox"
	"chirper/internal/queue"
	appredis "chirper/internal/redis"
	"chirper/internal/repository"
	"chirper/internal/service"
	"chirper/internal/worker"
)

// Run assembles the whole service and blocks until shutdown: the HTTP API,
// the outbox poller and the timeline materializer all run in one process.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cluster, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer cluster.Close()

	redisClient, err := appredis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()); err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	idgen := id.NewGenerator()

	users := repository.NewUserRepository(cluster)
	posts := repository.NewPostRepository(cluster)
	follows := repository.NewFollowRepository(cluster)
	outboxRepo := repository.NewOutboxRepository(cluster)

	timelineCache := cache.NewTimelineCache(redisClient.Client, cfg.Timeline.MaxSize)
	publisher := queue.NewPublisher(redisClient.Client, cfg.Stream.Topic, cfg.Stream.Partitions)
	consumer := queue.NewConsumer(redisClient.Client)

	postService := service.NewPostService(cluster, posts, outboxRepo, idgen, reg, cfg.Timeline)
	followService := service.NewFollowService(cluster, follows, users, outboxRepo, idgen, reg, cfg.Timeline)
	timelineService := service.NewTimelineService(timelineCache, posts, follows, reg, cfg.Timeline)
	adminService := service.NewAdminService(users, posts, follows, outboxRepo, timelineCache, publisher, reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poller := outbox.NewPoller(outboxRepo, publisher, reg, cfg.Outbox)
	poller.Start(ctx)
	defer poller.Stop()

	materializerHandler := worker.NewHandler(timelineCache, follows, posts, reg,
		cfg.Timeline.CelebrityFollowerThreshold, cfg.Timeline.MaxSize)
	manager := worker.NewManager(consumer, materializerHandler, cfg.Stream, cfg.Worker)
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start materializer: %w", err)
	}
	defer manager.Stop()

	router := NewRouter(RouterConfig{
		PostHandler:     handler.NewPostHandler(postService),
		FollowHandler:   handler.NewFollowHandler(followService),
		TimelineHandler: handler.NewTimelineHandler(timelineService),
		AdminHandler:    handler.NewAdminHandler(adminService),
		Users:           users,
	})

	server := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("[Server] Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Println("[Server] Stopped")
	return nil
}
