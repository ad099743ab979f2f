package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moviemaster/internal/config"
	"github.com/kailas-cloud/moviemaster/internal/db/driver"
	logpkg "github.com/kailas-cloud/moviemaster/internal/logger"
	"github.com/kailas-cloud/moviemaster/internal/metrics"
	recentrepo "github.com/kailas-cloud/moviemaster/internal/repository/recent"
	"github.com/kailas-cloud/moviemaster/internal/repository/respcache"
	userrepo "github.com/kailas-cloud/moviemaster/internal/repository/user"
	chiTransport "github.com/kailas-cloud/moviemaster/internal/transport/chi"
	"github.com/kailas-cloud/moviemaster/internal/transport/tmdb"
	authuc "github.com/kailas-cloud/moviemaster/internal/usecase/auth"
	cataloguc "github.com/kailas-cloud/moviemaster/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/moviemaster/internal/usecase/health"
	recentuc "github.com/kailas-cloud/moviemaster/internal/usecase/recent"
	recommenduc "github.com/kailas-cloud/moviemaster/internal/usecase/recommend"
	"github.com/kailas-cloud/moviemaster/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting moviemaster API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := driver.Open(driver.Config{
		Driver:   cfg.Database.Driver,
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
		Path:     cfg.Database.Path,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	users, err := userrepo.Open(ctx, cfg.Users.SQLitePath)
	if err != nil {
		logger.Fatal("Failed to open users database", zap.Error(err))
	}
	defer func() { _ = users.Close() }()

	// Register upstream metrics explicitly (no init())
	metrics.RegisterUpstreamMetrics()

	// Upstream chain: TMDB client (rate limit, retry, breaker) -> response cache
	client := tmdb.NewClient(&tmdb.Config{
		APIKey:        cfg.TMDB.APIKey,
		BaseURL:       cfg.TMDB.BaseURL,
		Timeout:       time.Duration(cfg.TMDB.TimeoutSec) * time.Second,
		RatePerSecond: cfg.TMDB.RatePerSecond,
		Burst:         cfg.TMDB.Burst,
		RetryMax:      cfg.TMDB.RetryMax,
		RetryBackoff:  time.Duration(cfg.TMDB.RetryBackoffMs) * time.Millisecond,
		Breaker: tmdb.BreakerConfig{
			MaxRequests:  cfg.TMDB.Breaker.MaxRequests,
			Interval:     time.Duration(cfg.TMDB.Breaker.IntervalSec) * time.Second,
			Timeout:      time.Duration(cfg.TMDB.Breaker.TimeoutSec) * time.Second,
			MinRequests:  cfg.TMDB.Breaker.MinRequests,
			FailureRatio: cfg.TMDB.Breaker.FailureRatio,
		},
		Logger: logger,
	})
	// A shared cache fill may span every attempt the client makes.
	upstream := respcache.New(client, respcache.Config{
		Size:         cfg.Cache.Size,
		TTL:          time.Duration(cfg.Cache.TTLSec) * time.Second,
		GenresTTL:    time.Duration(cfg.Cache.GenresTTLSec) * time.Second,
		FetchTimeout: time.Duration(cfg.TMDB.TimeoutSec*(cfg.TMDB.RetryMax+1)) * time.Second,
	}, metrics.ResponseCacheTotal, logger)

	// Use case services
	recentSvc := recentuc.New(recentrepo.New(store, cfg.Storage.KeyPrefix, logger),
		recentuc.WithMaxOwners(cfg.Recommend.MaxOwners))
	feed := recommenduc.NewFeed(recentSvc, upstream, recommenduc.FeedConfig{
		Options: recommenduc.Options{
			MaxConcurrency: cfg.Recommend.MaxConcurrency,
			CallTimeout:    time.Duration(cfg.Recommend.CallTimeoutMs) * time.Millisecond,
		},
		Prefetch:  cfg.Recommend.Prefetch,
		MaxOwners: cfg.Recommend.MaxOwners,
	}, logger, metrics.AggregationRecorder{})
	defer feed.Close()
	recentSvc.Subscribe(feed.OnChange)

	catalogSvc := cataloguc.New(upstream)
	authSvc, err := authuc.New(users, authuc.Config{
		Secret:   cfg.Auth.JWTSecret,
		TokenTTL: time.Duration(cfg.Auth.TokenTTLSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create auth service", zap.Error(err))
	}
	healthSvc := healthuc.New(store, users, upstream)

	server := chiTransport.NewServer(catalogSvc, recentSvc, feed, authSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Mount(r, chiTransport.RouteOptions{
		RateLimitRequests:  cfg.RateLimit.Requests,
		RateLimitWindow:    time.Duration(cfg.RateLimit.WindowSec) * time.Second,
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.CodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
