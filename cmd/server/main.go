package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"interview-service/internal/api/routes"
	"interview-service/internal/config"
	"interview-service/internal/database"
	"interview-service/internal/gateway"
	"interview-service/internal/repository"
	"interview-service/internal/services"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting interview server")

	redisClient, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	interviewRepo := repository.NewInterviewRepository(db)
	presenceRepo := repository.NewPresenceRepository(redisClient.GetClient())

	// Optional collaborators
	var events *services.KafkaPublisher
	if cfg.Kafka.Enabled() {
		events, err = services.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			slog.Error("Failed to connect to Kafka", "error", err)
			os.Exit(1)
		}
		defer events.Close()
	}

	var archiver services.Archiver
	if cfg.Minio.Enabled() {
		archiveService, err := services.NewArchiveService(
			cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
		if err != nil {
			slog.Error("Failed to connect to MinIO", "error", err)
			os.Exit(1)
		}
		archiver = archiveService
	}

	// Services
	tokenService := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpirationTime)
	userService := services.NewUserService(userRepo, tokenService)
	friendService := services.NewFriendService(friendRepo, userRepo, presenceRepo)
	interviewService := services.NewInterviewService(interviewRepo, userRepo, archiver, eventSink(events), nil)
	limiter := services.NewRateLimiter(redisClient.GetClient())

	// Gateway hub
	hub := gateway.NewHub(gateway.Config{
		PersistInterval: cfg.Gateway.PersistInterval,
		ThrottleTTL:     cfg.Gateway.ThrottleTTL,
		AllowSpectators: cfg.Gateway.AllowSpectators,
		SendBuffer:      cfg.Gateway.SendBuffer,
	}, gateway.Deps{
		Tokens:     tokenService,
		Users:      userService,
		Interviews: interviewService,
		Friends:    friendService,
		Presence:   presenceRepo,
		Events:     eventSink(events),
	})
	go hub.Run()

	// Status sweeper
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	sweeper := services.NewStatusSweeper(interviewRepo, 5*time.Minute, 30*time.Minute)
	go sweeper.Run(sweeperCtx)

	// Router
	router := routes.NewRouter(hub, routes.Services{
		Users:      userService,
		Friends:    friendService,
		Interviews: interviewService,
		Tokens:     tokenService,
		Limiter:    limiter,
	})
	router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stopSweeper()
	hub.Stop()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}

// eventSink converts a possibly-nil *KafkaPublisher to the interface
// without producing a non-nil interface wrapping a nil pointer.
func eventSink(p *services.KafkaPublisher) services.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}
