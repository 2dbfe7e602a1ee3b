// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/library-lending/internal/config"
	"github.com/Shivanand-hulikatti/library-lending/internal/database"
	"github.com/Shivanand-hulikatti/library-lending/internal/events"
	"github.com/Shivanand-hulikatti/library-lending/internal/handler"
	"github.com/Shivanand-hulikatti/library-lending/internal/identity"
	"github.com/Shivanand-hulikatti/library-lending/internal/logger"
	"github.com/Shivanand-hulikatti/library-lending/internal/model"
	"github.com/Shivanand-hulikatti/library-lending/internal/repository"
	"github.com/Shivanand-hulikatti/library-lending/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	appLogger := logger.New(cfg.Environment)
	defer appLogger.Sync()

	appLogger.Info("Starting library lending service",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
		zap.String("store", cfg.Store),
		zap.Int("max_renewals", cfg.Policy.MaxRenewals),
		zap.Int("max_active_reservations", cfg.Policy.MaxActiveReservations),
	)

	// ── 1. Storage and identity ─────────────────────────────────────────────
	var (
		store     repository.Store
		blacklist identity.Blacklist
	)
	switch cfg.Store {
	case config.StoreMemory:
		mem := repository.NewMemoryStore()
		for id, copies := range cfg.SeedBooks {
			mem.PutBook(model.Book{ID: id, TotalCopies: copies, AvailableCopies: copies})
		}
		store = mem
		blacklist = identity.NewStaticBlacklist()
		appLogger.Warn("Using in-memory store, data is lost on restart",
			zap.Int("seeded_books", len(cfg.SeedBooks)),
		)

	default:
		pool, err := database.NewPool(ctx, cfg.DB, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			appLogger.Fatal("Failed to migrate database", zap.Error(err))
		}
		appLogger.Info("Connected to PostgreSQL", zap.String("host", cfg.DB.Host))

		store = repository.NewPostgresStore(pool)
		blacklist = repository.NewUserRepository(pool)

		if cfg.RedisAddr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			defer rdb.Close()
			if err := rdb.Ping(ctx).Err(); err != nil {
				appLogger.Warn("Redis unreachable, blacklist cache will fall through", zap.Error(err))
			}
			blacklist = identity.NewCachedBlacklist(blacklist, rdb, cfg.RedisTTL, appLogger)
			appLogger.Info("Blacklist cache enabled",
				zap.String("addr", cfg.RedisAddr),
				zap.Duration("ttl", cfg.RedisTTL),
			)
		}
	}

	// ── 2. Events ───────────────────────────────────────────────────────────
	var publisher events.Publisher = events.NewLogPublisher(appLogger)
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.Kafka, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to create Kafka publisher", zap.Error(err))
		}
		publisher = kp
		appLogger.Info("Kafka publisher ready",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}
	defer publisher.Close()

	// ── 3. Wire up layers ───────────────────────────────────────────────────
	svc := service.NewReservationService(store, blacklist, cfg.Policy, service.WithPublisher(publisher))
	auth := handler.NewAuthenticator(cfg.JWTSecret, appLogger)
	router := handler.NewRouter(handler.NewReservationHandler(svc, appLogger), auth, appLogger)

	// ── 4. Start server with graceful shutdown ──────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Graceful shutdown failed", zap.Error(err))
		return
	}
	appLogger.Info("Server stopped")
}
