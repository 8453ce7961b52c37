package main

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/tripsearch/internal/api"
	"github.com/neexbeast/tripsearch/internal/itinerary"
	"github.com/neexbeast/tripsearch/internal/location"
	"github.com/neexbeast/tripsearch/internal/provider"
	"github.com/neexbeast/tripsearch/internal/search"
	"github.com/neexbeast/tripsearch/internal/session"
	"github.com/neexbeast/tripsearch/internal/storage"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	apiKey := mustEnv("AMADEUS_API_KEY")
	apiSecret := mustEnv("AMADEUS_API_SECRET")
	amadeusURL := getEnv("AMADEUS_BASE_URL", provider.DefaultAmadeusBaseURL)
	port := getEnv("PORT", "8080")
	redisURL := os.Getenv("REDIS_URL")
	databaseURL := os.Getenv("DATABASE_URL")
	defaultOrigin := getEnv("DEFAULT_ORIGIN", "LON")
	bookingURL := getEnv("BOOKING_BASE_URL", search.DefaultBookingBaseURL)
	sessionTTL := getDuration(log, "SESSION_TTL", time.Hour)
	providerTimeout := getDuration(log, "PROVIDER_TIMEOUT", 10*time.Second)
	locationTTL := getDuration(log, "LOCATION_CACHE_TTL", 6*time.Hour)
	rateLimit := getInt(log, "RATE_LIMIT_PER_MINUTE", 60)
	dbMaxConns := getInt(log, "DB_MAX_CONNS", 4)

	ctx := context.Background()

	cityCodes := maps.Clone(location.DefaultCityCodes)
	curated := maps.Clone(itinerary.DefaultCatalog)
	pingers := map[string]api.Pinger{}

	// Optional reference catalog in PostgreSQL.
	if databaseURL != "" {
		pool, err := storage.Connect(ctx, databaseURL, storage.PoolConfig{
			MaxConns:        int32(dbMaxConns),
			MaxConnIdleTime: 5 * time.Minute,
		})
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		applied, err := storage.RunMigrations(ctx, pool, storage.Migrations())
		if err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		log.Info("migrations applied", "count", applied)

		catalog := storage.NewCatalog(pool)
		codes, err := catalog.CityCodes(ctx)
		if err != nil {
			return fmt.Errorf("loading city codes: %w", err)
		}
		activities, err := catalog.CuratedActivities(ctx)
		if err != nil {
			return fmt.Errorf("loading curated activities: %w", err)
		}
		maps.Copy(cityCodes, codes)
		maps.Copy(curated, activities)
		log.Info("reference catalog loaded", "city_codes", len(codes), "curated_cities", len(activities))

		pingers["db"] = pool
	}

	// Search responses live in Redis when configured, in process memory otherwise.
	var store search.Store = session.NewMemoryStore()
	if redisURL != "" {
		redisClient, err := session.Connect(ctx, redisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		store = session.NewRedisStore(redisClient, sessionTTL)
		pingers["redis"] = &redisPingerAdapter{client: redisClient}
		log.Info("using redis session store", "ttl", sessionTTL.String())
	} else {
		log.Info("using in-memory session store")
	}

	// Wire dependencies.
	amadeus := provider.NewAmadeusClient(amadeusURL, apiKey, apiSecret)
	gateway := provider.NewGateway(amadeus, providerTimeout, log)
	resolver := location.NewResolver(amadeus, cityCodes, locationTTL, providerTimeout, log)
	builder := itinerary.NewBuilder(curated)
	svc := search.NewService(resolver, gateway, store, builder, defaultOrigin, log)

	handlers := api.NewHandlers(svc, session.NewItineraryStore(), bookingURL, log)
	router := api.NewRouter(handlers, api.RouterConfig{RateLimit: rateLimit, Pingers: pingers}, log)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
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
		log.Info("server starting", "port", port, "amadeus", amadeusURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

func getDuration(log *slog.Logger, key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback.String())
		return fallback
	}
	return d
}

func getInt(log *slog.Logger, key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Warn("invalid integer, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

// redisPingerAdapter adapts redis.Client to api.Pinger.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
