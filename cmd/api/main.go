package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VishvaThirumalai/f-mart-backend/internal/auth"
	c "github.com/VishvaThirumalai/f-mart-backend/internal/cache"
	"github.com/VishvaThirumalai/f-mart-backend/internal/config"
	h "github.com/VishvaThirumalai/f-mart-backend/internal/http"
	"github.com/VishvaThirumalai/f-mart-backend/internal/publisher"
	"github.com/VishvaThirumalai/f-mart-backend/internal/repository"
	s "github.com/VishvaThirumalai/f-mart-backend/internal/service"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// Cart store
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Client().Disconnect(ctx)
	cartRepo := repository.NewMongoCartRepository(mongoDB)
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	// Order and user store
	pgCred := &repository.Credentials{
		Host:              cfg.PGHost,
		Port:              cfg.PGPort,
		User:              cfg.PGUser,
		Password:          cfg.PGPassword,
		DBName:            cfg.PGName,
		MigrationsDirPath: cfg.MigrationsDirPath,
	}
	db, err := repository.OpenPostgres(pgCred)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer db.Close()
	if err := repository.RunMigrations(db, pgCred); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	orderRepo := repository.NewPostgresOrderRepository(db)
	userRepo := repository.NewPostgresUserRepository(db)
	log.Println("Connected to postgres")

	// Cart cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed: ", err)
	}
	log.Println("Redis ping succeeded")

	cartCache := c.NewRedisCache(redisClient)
	cartService := s.NewCartService(cartRepo, cartCache)
	orderService := s.NewOrderService(orderRepo)
	checkoutService := s.NewCheckoutService(orderRepo, cartService)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)
	authService := auth.NewAuthService(userRepo, tokens)

	// Outbox poller feeds the fulfillment process
	pollerCtx, stopPoller := context.WithCancel(ctx)
	poller := publisher.NewOutboxPoller(orderRepo, cfg.KafkaBrokers...)
	go poller.Run(pollerCtx)

	router := h.NewRouter(
		tokens,
		h.NewAuthHandler(authService),
		h.NewCartHandler(cartService),
		h.NewOrdersHandler(orderService, checkoutService),
		cfg.RequestTimeout,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("API server starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopPoller()
	poller.Close()

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
