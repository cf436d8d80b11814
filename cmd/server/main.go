// Command vm-server starts the village-mart REST API.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/and161185/village-mart/internal/cache"
	"github.com/and161185/village-mart/internal/config"
	"github.com/and161185/village-mart/internal/limiter"
	"github.com/and161185/village-mart/internal/migrate"
	"github.com/and161185/village-mart/internal/repository/postgres"
	httpserver "github.com/and161185/village-mart/internal/server/http"
	"github.com/and161185/village-mart/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and serves HTTP until SIGINT/SIGTERM.
func main() {
	cfgPath := flag.String("config", "", "path to a YAML config file (optional)")
	addr := flag.String("addr", "", "listen address, overrides PORT")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		// logger is not configured yet
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}
	listen := cfg.Addr()
	if *addr != "" {
		listen = *addr
	}

	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", listen),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Migrate {
		if err := migrate.Up(ctx, cfg.DatabaseURL, logger); err != nil {
			logger.Fatal("migrate up", zap.Error(err))
		}
	}

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close()

	// Redis backs the catalog cache and the login limiter when configured.
	var (
		catalogCache cache.Catalog
		lim          limiter.Limiter = limiter.Noop{}
		rdb          *redis.Client
	)
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("connect redis", zap.Error(err))
		}
		catalogCache = cache.NewRedisCatalog(rdb, cfg.CatalogCacheTTL)
		lim = limiter.NewRedis(rdb, cfg.LoginWindow, cfg.LoginMaxFails, cfg.LoginBlockFor)
	} else {
		logger.Info("redis not configured, catalog cache and login limiter disabled")
	}

	// Repositories
	userRepo := postgres.NewUserRepo(db)

	// Migrations may have changed the seeded products.
	catalog := service.NewCatalogService(postgres.NewProductRepo(db), catalogCache, logger)
	if err := catalog.Invalidate(ctx); err != nil {
		logger.Warn("invalidate catalog cache", zap.Error(err))
	}

	// Services
	svc := httpserver.Services{
		Auth:     service.NewAuthService(userRepo, []byte(cfg.JWTSecret), cfg.TokenTTL, lim),
		Profiles: service.NewProfileService(userRepo),
		Bookings: service.NewBookingService(postgres.NewBookingRepo(db)),
		Catalog:  catalog,
		Contacts: service.NewContactService(postgres.NewContactRepo(db)),
	}

	app := httpserver.New(svc, []byte(cfg.JWTSecret), logger, httpserver.Options{
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Health: func(r *http.Request) error {
			if err := db.Ping(r.Context()); err != nil {
				return err
			}
			if rdb != nil {
				return rdb.Ping(r.Context()).Err()
			}
			return nil
		},
	})

	srv := &http.Server{
		Addr:              listen,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown", zap.Error(err))
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
