package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"Embeds/internal/api/middleware"
	"Embeds/internal/api/routes"
	"Embeds/internal/core/embeds"
	"Embeds/internal/core/metadata"
	"Embeds/internal/db"
	"Embeds/internal/db/migrations"
	"Embeds/internal/metrics"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := embeds.ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid embed configuration:", err)
	}

	settings := db.SettingsFromEnv()
	conn, err := db.Open(ctx, settings)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer conn.Close()

	log.Printf("Connected to %s database", settings.Driver)

	fetcher := metadata.NewFetcher(
		metadata.WithTimeout(cfg.FetchTimeout),
		metadata.WithUserAgent(cfg.UserAgent),
	)

	embedRepo, err := embeds.NewRepository(embeds.RepositoryConfig{
		DB:                   conn,
		Provider:             fetcher,
		Driver:               settings.Driver,
		Table:                cfg.Table,
		DisableNegativeCache: !cfg.CacheFailures,
	})
	if err != nil {
		log.Fatal("Failed to create embed repository:", err)
	}

	// The table is created on first write anyway; eager provisioning just
	// moves that to startup and records it in goose's version table.
	if envBool("EMBED_EAGER_MIGRATE") {
		version, err := migrations.Up(ctx, conn, embedRepo)
		if err != nil {
			log.Fatal("Failed to run migrations:", err)
		}
		log.Printf("Embed cache table %q at version %d", embedRepo.Table(), version)
	}

	var repo embeds.Repository = embedRepo
	if cfg.MemoryCacheSize > 0 {
		repo = embeds.NewCachedRepository(embedRepo, cfg.MemoryCacheSize, cfg.MemoryCacheTTL)
		slog.Info("[EMBED] memory cache enabled",
			"size", cfg.MemoryCacheSize,
			"ttl", cfg.MemoryCacheTTL,
		)
	}

	metrics.Init()

	r := chi.NewRouter()

	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)

	// Rate limiting: EMBED_RATE_LIMIT requests per minute per IP (default 100)
	rateLimiter := middleware.NewRateLimiter(envInt("EMBED_RATE_LIMIT", 100), 1*time.Minute)
	r.Use(rateLimiter.Middleware)

	r.Mount("/embed", routes.EmbedRoutes(repo, envList("EMBED_CORS_ORIGINS")))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	port := os.Getenv("EMBED_PORT")
	if port == "" {
		port = "8081"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.FetchTimeout + 30*time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Embed cache starting on port %s (table %s)", port, embedRepo.Table())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("[HTTP] invalid integer setting, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
