package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/blob"
	blobFS "github.com/kailas-cloud/reposcout/internal/blob/fs"
	blobValkey "github.com/kailas-cloud/reposcout/internal/blob/valkey"
	"github.com/kailas-cloud/reposcout/internal/config"
	logpkg "github.com/kailas-cloud/reposcout/internal/logger"
	"github.com/kailas-cloud/reposcout/internal/metrics"
	"github.com/kailas-cloud/reposcout/internal/repository/artifact"
	chiTransport "github.com/kailas-cloud/reposcout/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/reposcout/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/reposcout/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/reposcout/internal/usecase/health"
	queryuc "github.com/kailas-cloud/reposcout/internal/usecase/query"
	"github.com/kailas-cloud/reposcout/internal/version"
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

	logger.Info("Starting reposcout API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.Strings("storage_addrs", cfg.Storage.Addrs),
	)

	// Create artifact storage based on driver
	var store blob.Store
	switch cfg.Storage.Driver {
	case "valkey", "redis":
		store, err = blobValkey.NewStore(blobValkey.Config{
			Addrs:    cfg.Storage.Addrs,
			Password: cfg.Storage.Password,
		})
	case "fs":
		store, err = blobFS.NewStore(cfg.Storage.Root)
	default:
		logger.Fatal("Unknown storage driver", zap.String("driver", cfg.Storage.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create artifact store", zap.Error(err))
	}
	defer store.Close()

	// Wait for storage to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Storage.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Artifact storage not ready", zap.Error(err))
	}
	logger.Info("Connected to artifact storage")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSynthesisMetrics()
	metrics.RegisterQueryMetrics()

	// Build the embedder chain at the composition root
	base := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	queryEmbedder := embeddinguc.NewInstrumentedEmbedder(
		embeddinguc.NewRetryingEmbedder(
			base,
			cfg.Embedding.MaxRetries,
			time.Duration(cfg.Embedding.RetryBaseMs)*time.Millisecond,
			"openai", cfg.Embedding.Model, logger,
		),
		"openai", cfg.Embedding.Model, logger,
	)
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	synth := openaiTransport.NewSynthesizer(&openaiTransport.SynthesizerConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		Logger:      logger,
	})

	// Artifact pair: repository -> load instrumentation -> process-lifetime cache
	repo := artifact.NewRepository(store, artifact.Location{
		Bucket:      cfg.Storage.Bucket,
		IndexKey:    cfg.Storage.IndexKey,
		MetadataKey: cfg.Storage.MetadataKey,
	})
	pairs := artifact.NewCache(&instrumentedLoader{inner: repo, logger: logger})

	// Warm the cache. A missing artifact is not fatal: queries answer 503
	// until a build is published and a later request retries the load.
	warmCtx, cancelWarm := context.WithTimeout(ctx, 30*time.Second)
	if _, err := pairs.GetOrLoad(warmCtx); err != nil {
		logger.Warn("Index not loaded at startup", zap.Error(err))
	}
	cancelWarm()

	// Create use case services
	querySvc := queryuc.New(pairs, queryEmbedder, synth, queryuc.Config{
		DefaultK: cfg.Search.DefaultK,
		MaxK:     cfg.Search.MaxK,
	}, logger)
	healthSvc := healthuc.New(store, base)

	// Create chi server
	server := chiTransport.NewServer(querySvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiMiddleware.Timeout(time.Duration(cfg.HTTP.RequestTimeoutSec) * time.Second))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

// instrumentedLoader wraps artifact loading with metrics and logging.
type instrumentedLoader struct {
	inner  artifact.Loader
	logger *zap.Logger
}

func (l *instrumentedLoader) Load(ctx context.Context) (*artifact.Pair, error) {
	pair, err := l.inner.Load(ctx)
	if err != nil {
		metrics.IndexLoadsTotal.WithLabelValues("error").Inc()
		l.logger.Error("Index load failed", zap.Error(err))
		return nil, err
	}

	metrics.IndexLoadsTotal.WithLabelValues("ok").Inc()
	l.logger.Info("Index loaded",
		zap.String("build_id", pair.Manifest.BuildID.String()),
		zap.String("org", pair.Manifest.Org),
		zap.String("model", pair.Manifest.Model),
		zap.Int("dimensions", pair.Manifest.Dimensions),
		zap.Int("vectors", pair.Index.Count()),
		zap.Time("built_at", pair.Manifest.BuiltAt),
	)
	return pair, nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error": "internal error",
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

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.NewContext(r.Context(), reqLogger)

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
