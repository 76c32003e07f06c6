package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/zybooks/basket-backend/config"
	"github.com/zybooks/basket-backend/internal/database"
	"github.com/zybooks/basket-backend/internal/server"
	"github.com/zybooks/basket-backend/internal/service"
	"github.com/zybooks/basket-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.IsDevelopment)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx := context.Background()

	db, err := database.New(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to open local store", zap.Error(err))
	}

	mongo, err := database.NewMongo(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to community store", zap.Error(err))
	}
	defer func() { _ = mongo.Disconnect(ctx) }()

	redisClient, err := database.NewRedisClient(cfg, zlog)
	if err != nil {
		zlog.Warn("redis unavailable, continuing without rate limiting", zap.Error(err))
		redisClient = nil
	}

	var images *service.ImageService
	if cfg.S3Bucket != "" {
		s3Cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			zlog.Warn("S3 unavailable, meal photo upload disabled", zap.Error(err))
		} else {
			images = service.NewImageService(s3Cfg)
		}
	}

	basket := service.NewBasketService(db, zlog)
	community := service.NewCommunityService(mongo, zlog)
	auth := service.NewAuthService(mongo, cfg.JWTSecret, zlog)

	if err := basket.SeedSampleMeals(ctx); err != nil {
		zlog.Warn("failed to seed sample meals", zap.Error(err))
	}

	srv := server.New(cfg, basket, community, auth, images, redisClient, zlog)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			zlog.Fatal("server error", zap.Error(err))
		}
	case sig := <-quit:
		zlog.Info("received signal", zap.String("signal", sig.String()))
	}

	zlog.Info("shutting down server")
	if err := srv.Shutdown(context.Background()); err != nil {
		zlog.Fatal("server shutdown error", zap.Error(err))
	}
	zlog.Info("server stopped")
}
