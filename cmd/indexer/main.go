// cmd/indexer is a standalone batch/incremental indexing CLI, grounded
// on original_source/scripts/index_documents.py's command-line entry
// point. It builds only the components the pipeline needs (chunker,
// embedder, vector store) rather than the full HTTP container, and logs
// with logrus in the source script's structured-line style rather than
// zap's JSON (spec §9: CLI tooling in this codebase favors human-readable
// line output over the service's JSON logs).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"legal-rag-service/internal/chunker"
	"legal-rag-service/internal/config"
	"legal-rag-service/internal/embedding"
	"legal-rag-service/internal/incremental"
	"legal-rag-service/internal/indexer"
	"legal-rag-service/internal/vectorstore"
)

func main() {
	var (
		directory   = flag.String("directory", "", "directory to index (required)")
		pattern     = flag.String("pattern", "*.json", "glob pattern for document files")
		incMode     = flag.Bool("incremental", false, "only index new or changed documents")
		force       = flag.Bool("force", false, "with -incremental, reindex every matched file")
		noChunk     = flag.Bool("no-chunk", false, "store each document as a single chunk instead of chunking (no effect with -incremental)")
		statusOnly  = flag.Bool("status", false, "print index status and exit")
	)
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if *directory == "" && !*statusOnly {
		log.Error("-directory is required unless -status is set")
		os.Exit(1)
	}

	settings := config.Load()
	zapLogger, err := config.NewLogger(settings.LogLevel)
	if err != nil {
		log.WithError(err).Error("failed to build internal logger")
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, log, zapLogger, settings, runOpts{
		directory:  *directory,
		pattern:    *pattern,
		incremental: *incMode,
		force:      *force,
		chunk:      !*noChunk,
		statusOnly: *statusOnly,
	}))
}

type runOpts struct {
	directory   string
	pattern     string
	incremental bool
	force       bool
	chunk       bool
	statusOnly  bool
}

func run(ctx context.Context, log *logrus.Logger, zapLogger *zap.Logger, settings config.Settings, opts runOpts) int {
	if settings.VectorDBType != "postgres" {
		log.Errorf("unsupported vector_db_type %q: only postgres is implemented", settings.VectorDBType)
		return 1
	}

	dimension := embedding.DimensionForModel(settings.EmbeddingModel)
	store, err := vectorstore.New(ctx, settings.DatabaseURL, dimension, zapLogger)
	if err != nil {
		log.WithError(err).Error("failed to connect to vector store")
		return 1
	}
	defer store.Close()

	if opts.statusOnly {
		count, err := store.Count(ctx)
		if err != nil {
			log.WithError(err).Error("failed to read vector store status")
			return 1
		}
		fmt.Printf("vector store document count: %d\n", count)
		return 0
	}

	embedder := embedding.New(settings.EmbeddingBaseURL, settings.OpenAIAPIKey, settings.EmbeddingModel, dimension)
	ch := chunker.New(chunker.DefaultConfig())
	ix := indexer.New(ch, embedder, store, zapLogger)

	select {
	case <-ctx.Done():
		log.Warn("interrupted before indexing started")
		return 130
	default:
	}

	if opts.incremental {
		updater := incremental.New(ix, store, settings.DataDir+"/index_state.json", zapLogger)
		result, err := updater.UpdateIncremental(ctx, opts.directory, opts.pattern, opts.force)
		if err != nil {
			log.WithError(err).Error("incremental indexing failed")
			return 1
		}
		log.WithFields(logrus.Fields{
			"total": result.Total, "new": result.New, "updated": result.Updated,
			"skipped": result.Skipped, "failed": result.Failed,
		}).Info("incremental indexing complete")
		if code := exitCodeForCtx(ctx); code != 0 {
			return code
		}
		if result.Failed > 0 {
			return 1
		}
		return 0
	}

	result, err := ix.IndexDirectory(ctx, opts.directory, opts.pattern, opts.chunk, true)
	if err != nil {
		log.WithError(err).Error("directory indexing failed")
		return 1
	}
	log.WithFields(logrus.Fields{
		"total": result.Total, "success": result.Success, "failed": result.Failed,
	}).Info("directory indexing complete")
	for _, d := range result.Details {
		if !d.Result.Success {
			log.WithField("file", d.File).Warnf("indexing failed: %s", d.Result.Error)
		}
	}
	if code := exitCodeForCtx(ctx); code != 0 {
		return code
	}
	if result.Failed > 0 {
		return 1
	}
	return 0
}

func exitCodeForCtx(ctx context.Context) int {
	if ctx.Err() != nil {
		return 130
	}
	return 0
}
