package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/fpellegrini/ritmo-engine/internal/adapters/coach"
	adapterHTTP "github.com/fpellegrini/ritmo-engine/internal/adapters/handler/http"
	"github.com/fpellegrini/ritmo-engine/internal/adapters/kvstore"
	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
	"github.com/fpellegrini/ritmo-engine/internal/core/services"
	"github.com/fpellegrini/ritmo-engine/internal/core/workers"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	startTime := time.Now()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	serverPort := getEnv("PORT", "8080")
	engine := getEnv("STORAGE_ENGINE", kvstore.EngineMemory)

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		log.Fatalf("Critical: invalid REDIS_DB: %v", err)
	}

	cfg := kvstore.Config{
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		PostgresDSN: fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			getEnv("DB_USER", "ritmo_user"),
			getEnv("DB_PASSWORD", ""),
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_NAME", "ritmo_db")),
	}

	ctx := context.Background()

	store, err := kvstore.NewByEngine(ctx, engine, cfg)
	if err != nil {
		log.Fatalf("Critical: failed to initialize %q storage: %v", engine, err)
	}

	habitService := services.NewHabitService(store)
	syncService := services.NewSyncService(habitService)

	var tipGenerator services.TipGenerator
	if baseURL := os.Getenv("COACH_BASE_URL"); baseURL != "" {
		client, err := coach.NewClient(coach.Config{
			BaseURL: baseURL,
			APIKey:  os.Getenv("COACH_API_KEY"),
		})
		if err != nil {
			log.Fatalf("Critical: invalid coach configuration: %v", err)
		}
		tipGenerator = client
	} else {
		log.Println("COACH_BASE_URL not set, daily tips will use templated fallbacks")
	}
	coachService := services.NewCoachService(habitService, tipGenerator)

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()

	recalcWorker := workers.NewRecalcWorker(habitService)
	recalcWorker.Start(workerCtx)
	recalcWorker.Enqueue("startup")

	// Completion flags go stale when the calendar date rolls over, so the
	// counters are rebuilt in the background once an hour.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				recalcWorker.Enqueue("rollover")
			}
		}
	}()

	syncService.Subscribe(func(event domain.SyncEvent) {
		log.Printf("[SYNC] %s (%d%%)", event.Stage, event.Percent)
	})

	// The rate limiter only runs when the server is backed by Redis: the
	// same client that stores habits also tracks request counts.
	var rateLimitRedis *redis.Client
	if engine == kvstore.EngineRedis {
		rateLimitRedis, err = kvstore.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, redisDB)
		if err != nil {
			log.Printf("Rate limiting disabled, Redis unavailable: %v", err)
		}
	}

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		HabitHandler:       adapterHTTP.NewHabitHandler(habitService),
		AchievementHandler: adapterHTTP.NewAchievementHandler(habitService),
		SyncHandler:        adapterHTTP.NewSyncHandler(syncService),
		CoachHandler:       adapterHTTP.NewCoachHandler(coachService),
		Store:              store,
		Redis:              rateLimitRedis,
		StartTime:          startTime,
	})

	srv := &http.Server{
		Addr:         ":" + serverPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Ritmo Engine running on http://localhost:%s", serverPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Critical server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stop signal received. Shutting down...")

	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Forced shutdown error:", err)
	}

	log.Println("Server stopped gracefully.")
}
