package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"
	"golang.org/x/time/rate"

	"github.com/neexbeast/kira-trips/internal/activity"
	"github.com/neexbeast/kira-trips/internal/api"
	"github.com/neexbeast/kira-trips/internal/cache"
	"github.com/neexbeast/kira-trips/internal/itinerary"
	"github.com/neexbeast/kira-trips/internal/places"
	"github.com/neexbeast/kira-trips/internal/search"
	"github.com/neexbeast/kira-trips/internal/storage"
	"github.com/neexbeast/kira-trips/internal/transit"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("loading .env failed", "err", err)
	}

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	databaseURL := mustEnv("DATABASE_URL")
	redisURL := mustEnv("REDIS_URL")
	bearerToken := mustEnv("BEARER_TOKEN")
	otpURL := getEnv("OTP_URL", transit.DefaultOTPURL)
	searchURL := getEnv("OPENSEARCH_URL", "http://localhost:9200")
	indexes := splitList(getEnv("POI_INDEXES", strings.Join(search.DefaultIndexes, ",")))
	nominatimURL := getEnv("NOMINATIM_URL", places.DefaultNominatimURL)
	nominatimAgent := getEnv("NOMINATIM_USER_AGENT", "kira-trips/1.0")
	nominatimRPS := cast.ToFloat64(getEnv("NOMINATIM_RPS", "1"))
	defaultStart := getEnv("DEFAULT_START", "Fischen")
	defaultCity := getEnv("DEFAULT_CITY", "Oberstdorf")
	port := getEnv("PORT", "8080")

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Europe/Berlin"))
	if err != nil {
		return fmt.Errorf("loading timezone: %w", err)
	}

	ctx := context.Background()

	// Connect to PostgreSQL.
	pool, err := storage.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := storage.RunMigrations(ctx, pool, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied")

	// Connect to Redis.
	redisClient, err := cache.Connect(ctx, redisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	// External services.
	otp, err := transit.NewClient(otpURL)
	if err != nil {
		return err
	}
	nominatim, err := places.NewNominatimClientWithURL(nominatimURL, nominatimAgent, rate.Limit(nominatimRPS))
	if err != nil {
		return err
	}
	searchClient, err := search.NewClient(searchURL, indexes, log)
	if err != nil {
		return err
	}

	// Place names resolve against transit stops first, then the geocoder.
	resolver := places.NewCached(
		places.NewChain(log, places.NewStopResolver(otp), nominatim),
		cache.NewCache(redisClient),
		log,
	)

	router := transit.NewRouter(otp, resolver, log, transit.WithLocation(loc))
	retriever := activity.NewRetriever(searchClient, resolver, log)
	composer := itinerary.NewComposer(retriever, router, resolver, log,
		itinerary.WithLocation(loc),
		itinerary.WithDefaultCity(defaultCity),
	)

	handlers := api.NewHandlers(router, retriever, composer, storage.NewRepository(pool),
		api.Defaults{Start: defaultStart, City: defaultCity}, log)

	checks := map[string]api.Pinger{
		"postgres":   pool,
		"redis":      &redisPingerAdapter{client: redisClient},
		"otp":        otp,
		"opensearch": searchClient,
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      api.NewRouter(handlers, bearerToken, checks, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", port, "otp", otpURL, "indexes", indexes)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable not set", "key", key)
		os.Exit(1)
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// redisPingerAdapter adapts redis.Client to api.Pinger.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
