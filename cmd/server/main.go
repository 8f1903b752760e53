// Package main is the entry point for the transfer API server.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Joaovitor12j/simplified-platform/internal/config"
	"github.com/Joaovitor12j/simplified-platform/internal/handlers"
	"github.com/Joaovitor12j/simplified-platform/internal/middleware"
	"github.com/Joaovitor12j/simplified-platform/internal/repositories"
	"github.com/Joaovitor12j/simplified-platform/internal/repositories/cache"
	"github.com/Joaovitor12j/simplified-platform/internal/services/authorization"
	"github.com/Joaovitor12j/simplified-platform/internal/services/notification"
	"github.com/Joaovitor12j/simplified-platform/internal/services/transfer"
	"github.com/Joaovitor12j/simplified-platform/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnv()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	db, err := storage.Open(storage.Config{
		Host:            config.GetEnv("DB_HOST", "localhost"),
		Port:            config.GetEnv("DB_PORT", "5432"),
		User:            config.GetEnv("DB_USER", "postgres"),
		Password:        config.GetEnv("DB_PASSWORD", "postgres"),
		Name:            config.GetEnv("DB_NAME", "simplified_platform"),
		SSLMode:         config.GetEnv("DB_SSLMODE", "disable"),
		MaxIdleConns:    config.GetIntEnv("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    config.GetIntEnv("DB_MAX_OPEN_CONNS", 100),
		ConnMaxLifetime: config.GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime: config.GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
	})
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}

	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Host:     config.GetEnv("REDIS_HOST", "localhost"),
		Port:     config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	})
	cacheService := cache.NewCacheService(redisClient, 24*time.Hour)
	locker := cache.NewLocker(redisClient)

	wallets := repositories.NewWalletRepository(db)
	users := repositories.NewUserRepository(db)
	transactions := repositories.NewTransactionRepository(db)
	txm := storage.NewTxManager(db)

	authorizer := authorization.NewClient(
		config.GetEnv("AUTHORIZATION_URL", "https://util.devi.tools/api/v2/authorize"), logger)
	dispatcher := notification.NewDispatcher(
		config.GetEnv("NOTIFICATION_URL", "https://util.devi.tools/api/v1/notify"), logger)

	transferService := transfer.NewService(wallets, transactions, users, authorizer, dispatcher, txm, logger)
	transferHandler := handlers.NewTransferHandler(transferService, logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	idempotency := middleware.Idempotency(cacheService, middleware.NewRedisLocker(locker), logger)
	handlers.SetupRoutes(app, transferHandler, idempotency)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			logger.Errorf("server shutdown failed: %v", err)
		}
		dispatcher.Close()
		if err := cacheService.Close(); err != nil {
			logger.Errorf("failed to close redis connection: %v", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Errorf("failed to close database connection: %v", err)
			}
		}
	}()

	port := config.GetEnv("PORT", "8080")
	if err := app.Listen(":" + port); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}
