// Package indexer orchestrates the validate → chunk → embed → store
// pipeline (spec §4.1), grounded on
// original_source/src/rag/indexer.py's DocumentIndexer and
// document-chunker/main.go's chunk-then-store handler idiom.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"legal-rag-service/internal/apierrors"
	"legal-rag-service/internal/chunker"
	"legal-rag-service/internal/embedding"
	"legal-rag-service/internal/model"
	"legal-rag-service/internal/vectorstore"
)

// FileResult is the outcome of indexing one document (spec §4.1).
type FileResult struct {
	Success     bool   `json:"success"`
	DocumentID  string `json:"document_id,omitempty"`
	ChunksCount int    `json:"chunks_count,omitempty"`
	Error       string `json:"error,omitempty"`
}

// DirectoryResult is the outcome of indexing every matching file in a
// directory (spec §4.1, ported from index_directory).
type DirectoryResult struct {
	Total   int          `json:"total"`
	Success int          `json:"success"`
	Failed  int          `json:"failed"`
	Details []FileDetail `json:"details"`
}

type FileDetail struct {
	File   string     `json:"file"`
	Result FileResult `json:"result"`
}

// Indexer wires the chunker, embedding client, and vector store into
// one pipeline.
type Indexer struct {
	chunker   *chunker.Chunker
	embedder  *embedding.Client
	store     *vectorstore.Store
	logger    *zap.Logger
}

func New(c *chunker.Chunker, embedder *embedding.Client, store *vectorstore.Store, logger *zap.Logger) *Indexer {
	return &Indexer{chunker: c, embedder: embedder, store: store, logger: logger}
}

// IndexDocument chunks, embeds, and stores one validated document
// (spec §4.1). withChunking=false stores the document as a single chunk.
func (ix *Indexer) IndexDocument(ctx context.Context, doc model.Document, withChunking bool) FileResult {
	if issues := model.Validate(doc); len(issues) > 0 {
		var msgs []string
		for _, is := range issues {
			msgs = append(msgs, is.Error())
		}
		return FileResult{Success: false, DocumentID: doc.ID, Error: strings.Join(msgs, "; ")}
	}

	var chunks []model.Chunk
	if withChunking {
		chunks = ix.chunker.Chunk(doc)
	} else {
		chunks = []model.Chunk{{
			Text:       doc.Content.Joined(),
			ParentID:   doc.ID,
			ChunkIndex: 0,
			ParentKind: doc.Kind,
			Metadata:   map[string]interface{}{"document_id": doc.ID, "document_type": string(doc.Kind)},
		}}
	}
	if len(chunks) == 0 {
		return FileResult{Success: false, DocumentID: doc.ID, Error: "chunker produced no chunks"}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return FileResult{Success: false, DocumentID: doc.ID, Error: apierrors.Embedding("batch embedding failed", err).Error()}
	}

	ids := make([]string, len(chunks))
	metas := make([]map[string]interface{}, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID()
		meta := map[string]interface{}{}
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		for k, v := range c.Metadata {
			meta[k] = v
		}
		meta["title"] = fmt.Sprintf("%s (청크 %d)", doc.Title, c.ChunkIndex+1)
		metas[i] = meta
	}

	if err := ix.store.Add(ctx, ids, embeddings, texts, metas); err != nil {
		return FileResult{Success: false, DocumentID: doc.ID, Error: err.Error()}
	}

	return FileResult{Success: true, DocumentID: doc.ID, ChunksCount: len(chunks)}
}

// ParseFile loads and decodes one JSON document file into the in-memory
// model (spec §6).
func ParseFile(path string) (model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, err
	}
	return ParseJSON(data)
}

// ParseJSON decodes a wire-format document (spec §6). Document.Content
// already knows how to unmarshal either a bare string or a bare array.
func ParseJSON(data []byte) (model.Document, error) {
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.Document{}, err
	}
	return doc, nil
}

// DocumentIDOrStem extracts the document id, falling back to the file's
// base name without extension when absent (spec §4.10, ported from
// update_incremental's `data.get("id", file_path.stem)`).
func DocumentIDOrStem(doc model.Document, path string) string {
	if doc.ID != "" {
		return doc.ID
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IndexFile reads, validates, and indexes one document file.
func (ix *Indexer) IndexFile(ctx context.Context, path string, withChunking bool) FileResult {
	doc, err := ParseFile(path)
	if err != nil {
		return FileResult{Success: false, Error: err.Error()}
	}
	return ix.IndexDocument(ctx, doc, withChunking)
}

// IndexDirectory walks a directory for files matching pattern (a
// filepath.Match glob against the base name) and indexes each one (spec
// §4.1, ported from index_directory's recursive rglob).
func (ix *Indexer) IndexDirectory(ctx context.Context, directory, pattern string, withChunking, recursive bool) (DirectoryResult, error) {
	if pattern == "" {
		pattern = "*.json"
	}
	var result DirectoryResult

	walk := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != directory {
				return filepath.SkipDir
			}
			return nil
		}
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err != nil {
			return err
		}
		if !matched {
			return nil
		}
		rel, _ := filepath.Rel(directory, path)
		result.Total++
		fr := ix.IndexFile(ctx, path, withChunking)
		if fr.Success {
			result.Success++
		} else {
			result.Failed++
		}
		result.Details = append(result.Details, FileDetail{File: rel, Result: fr})
		return nil
	}

	if err := filepath.WalkDir(directory, walk); err != nil {
		return result, err
	}
	ix.logger.Info("directory indexing complete",
		zap.Int("total", result.Total), zap.Int("success", result.Success), zap.Int("failed", result.Failed))
	return result, nil
}

// Status reports the current index size (spec §4.1's get_index_status).
func (ix *Indexer) Status(ctx context.Context) (int, error) {
	return ix.store.Count(ctx)
}
