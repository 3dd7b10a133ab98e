// Package container builds and owns every singleton component, wired
// once at process startup and threaded through the HTTP layer by
// explicit injection (spec §9: "no process-wide mutable state beyond
// the container itself and its owned sub-components"), grounded on
// original_source/src/api/dependencies.py's lru_cache-memoized
// singleton set and unified-rag-service/main.go's main()-time wiring.
package container

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"legal-rag-service/internal/apierrors"
	"legal-rag-service/internal/cache"
	"legal-rag-service/internal/chunker"
	"legal-rag-service/internal/config"
	"legal-rag-service/internal/embedding"
	"legal-rag-service/internal/incremental"
	"legal-rag-service/internal/indexer"
	"legal-rag-service/internal/llm"
	"legal-rag-service/internal/observability"
	"legal-rag-service/internal/ratelimit"
	"legal-rag-service/internal/session"
	"legal-rag-service/internal/vectorstore"
	"legal-rag-service/internal/workflow"
)

// Container holds every component singleton. Built once in cmd/server's
// main and passed by reference to handlers; nothing here is a
// package-scope global.
type Container struct {
	Settings config.Settings
	Logger   *zap.Logger

	VectorStore *vectorstore.Store
	Embedder    *embedding.Client
	LLM         *llm.Client
	Chunker     *chunker.Chunker
	Workflow    *workflow.Workflow
	Cache       *cache.QueryCache
	Sessions    *session.Manager
	Indexer     *indexer.Indexer
	Incremental *incremental.Updater
	RateLimiter *ratelimit.Limiter
	BlobStore   *indexer.BlobStore

	APIMonitor         *observability.APIMonitor
	PerformanceMetrics *observability.PerformanceMetrics
	VectorDBMonitor    *observability.VectorDBMonitor
	QueryLog           *observability.QueryLogger
	ErrorLog           *observability.ErrorLogger

	shutdownTracing func(context.Context) error
}

// Build constructs every component from settings, failing fast on an
// unsupported vector_db_type, on the vector store connection (the one
// dependency every request path needs), on an invalid cache size, and on
// a query or error log file that cannot be opened; optional components
// (Redis session backend, MinIO blob store) degrade gracefully per their
// own package's init-time fallback rules.
func Build(ctx context.Context, settings config.Settings, logger *zap.Logger, shutdownTracing func(context.Context) error) (*Container, error) {
	if settings.VectorDBType != "postgres" {
		return nil, apierrors.Configuration(fmt.Sprintf("unsupported vector_db_type %q: only postgres is implemented", settings.VectorDBType))
	}

	dimension := embedding.DimensionForModel(settings.EmbeddingModel)

	store, err := vectorstore.New(ctx, settings.DatabaseURL, dimension, logger)
	if err != nil {
		return nil, err
	}

	embedder := embedding.New(settings.EmbeddingBaseURL, settings.OpenAIAPIKey, settings.EmbeddingModel, dimension)
	llmClient := llm.New(settings.LLMBaseURL, settings.OpenAIAPIKey, settings.LLMModel)
	ch := chunker.New(chunker.DefaultConfig())
	wf := workflow.New(embedder, store, settings.ContextMaxChars)

	queryCache, err := cache.New(settings.CacheMaxSize, settings.CacheTTL)
	if err != nil {
		return nil, apierrors.Configuration("failed to build query cache: " + err.Error())
	}

	sessionTimeout := settings.SessionTimeoutMinutesDuration()
	sessions := session.New(ctx, settings.RedisURL, settings.SessionMaxSessions, sessionTimeout, logger)

	ix := indexer.New(ch, embedder, store, logger)
	incUpdater := incremental.New(ix, store, settings.DataDir+"/index_state.json", logger)

	limiter := ratelimit.New(settings.RateLimitDefault, map[string]int{
		"/api/v1/ask":                    settings.RateLimitAsk,
		"/api/v1/ask/stream":             settings.RateLimitAsk,
		"/api/v1/search":                 settings.RateLimitSearch,
		"/api/v1/generate":               settings.RateLimitGenerate,
		"/api/v1/admin":                  settings.RateLimitAdmin,
	})

	var blobStore *indexer.BlobStore
	if settings.MinIOEndpoint != "" {
		mc, err := minio.New(settings.MinIOEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(settings.MinIOAccessKey, settings.MinIOSecretKey, ""),
			Secure: false,
		})
		if err != nil {
			logger.Warn("minio client init failed, raw-document retention disabled", zap.Error(err))
		} else {
			blobStore = indexer.NewBlobStore(mc, settings.MinIOBucket)
			if err := blobStore.EnsureBucket(ctx); err != nil {
				logger.Warn("minio bucket check failed, raw-document retention disabled", zap.Error(err))
				blobStore = nil
			}
		}
	}

	apiMonitor := observability.NewAPIMonitor(prometheus.DefaultRegisterer)
	perfMetrics := observability.NewPerformanceMetrics()
	vdbMonitor := observability.NewVectorDBMonitor()

	queryLog, err := observability.NewQueryLogger(settings.DataDir + "/query_log.jsonl")
	if err != nil {
		return nil, apierrors.Internal("failed to open query log", err)
	}
	errorLog, err := observability.NewErrorLogger(settings.DataDir + "/error_log.jsonl")
	if err != nil {
		return nil, apierrors.Internal("failed to open error log", err)
	}

	return &Container{
		Settings:           settings,
		Logger:             logger,
		VectorStore:        store,
		Embedder:           embedder,
		LLM:                llmClient,
		Chunker:            ch,
		Workflow:           wf,
		Cache:              queryCache,
		Sessions:           sessions,
		Indexer:            ix,
		Incremental:        incUpdater,
		RateLimiter:        limiter,
		BlobStore:          blobStore,
		APIMonitor:         apiMonitor,
		PerformanceMetrics: perfMetrics,
		VectorDBMonitor:    vdbMonitor,
		QueryLog:           queryLog,
		ErrorLog:           errorLog,
		shutdownTracing:    shutdownTracing,
	}, nil
}

// Close releases every resource the container owns, in the reverse
// order of acquisition.
func (c *Container) Close(ctx context.Context) {
	if err := c.ErrorLog.Close(); err != nil {
		c.Logger.Warn("failed to close error log", zap.Error(err))
	}
	if err := c.QueryLog.Close(); err != nil {
		c.Logger.Warn("failed to close query log", zap.Error(err))
	}
	c.VectorStore.Close()
	if c.shutdownTracing != nil {
		if err := c.shutdownTracing(ctx); err != nil {
			c.Logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}
	_ = c.Logger.Sync()
}
