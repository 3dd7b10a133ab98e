// Package vectorstore implements the persistent nearest-neighbor adapter
// from spec §4.2 on top of PostgreSQL + pgvector, grounded on
// unified-rag-service/main.go's initializeStorage (HNSW index,
// vector_cosine_ops) and document-chunker/main.go's storeChunk.
package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"legal-rag-service/internal/apierrors"
)

// Where is the filter language from spec §4.2: a single {key: value}
// equality, or a conjunction {"$and": [...]}. No disjunctions in the core.
type Where map[string]interface{}

// SearchResult is one hit from Search, in the store's parallel-arrays
// shape already translated into a record (spec §4.6 stage 2).
type SearchResult struct {
	ID       string
	Text     string
	Metadata map[string]interface{}
	Distance float64
}

const collectionName = "legal_documents"

// Store is the Postgres+pgvector backed implementation of the vector
// store contract.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	dim    int
}

func New(ctx context.Context, databaseURL string, dimension int, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, apierrors.VectorStore("failed to connect to vector store", err)
	}
	s := &Store{pool: pool, logger: logger, dim: dimension}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := fmt.Sprintf(`
		CREATE EXTENSION IF NOT EXISTS vector;

		CREATE TABLE IF NOT EXISTS legal_documents (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			embedding vector(%d),
			created_at TIMESTAMPTZ DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_legal_documents_document_id ON legal_documents(document_id);
		CREATE INDEX IF NOT EXISTS idx_legal_documents_metadata ON legal_documents USING gin(metadata);
		CREATE INDEX IF NOT EXISTS idx_legal_documents_embedding_hnsw
			ON legal_documents USING hnsw (embedding vector_cosine_ops) WITH (m = 16, ef_construction = 64);
	`, s.dim)
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return apierrors.VectorStore("failed to initialize schema", err)
	}
	return nil
}

// Add is idempotent on ids (spec §4.2): an existing id's row is replaced.
func (s *Store) Add(ctx context.Context, ids []string, embeddings [][]float32, texts []string, metadatas []map[string]interface{}) error {
	if len(ids) == 0 {
		return nil
	}
	batch := &pgxBatch{}
	for i := range ids {
		documentID := parentID(ids[i])
		batch.queue(
			`INSERT INTO legal_documents (id, document_id, content, metadata, embedding)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET content = $3, metadata = $4, embedding = $5`,
			ids[i], documentID, texts[i], metadatas[i], pgvector.NewVector(embeddings[i]),
		)
	}
	if err := s.exec(ctx, batch); err != nil {
		return apierrors.VectorStore("failed to add documents", err)
	}
	return nil
}

// Search returns the k nearest entries matching where (spec §4.2).
func (s *Store) Search(ctx context.Context, queryVec []float32, k int, where Where) ([]SearchResult, error) {
	clause, args, err := buildWhere(where, 2)
	if err != nil {
		return nil, apierrors.Search("invalid filter", err)
	}
	args = append([]interface{}{pgvector.NewVector(queryVec)}, args...)
	args = append(args, k)

	query := fmt.Sprintf(`
		SELECT id, content, metadata, embedding <=> $1 AS distance
		FROM legal_documents
		%s
		ORDER BY embedding <=> $1
		LIMIT $%d
	`, clause, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apierrors.VectorStore("search query failed", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var meta map[string]interface{}
		if err := rows.Scan(&r.ID, &r.Text, &meta, &r.Distance); err != nil {
			return nil, apierrors.VectorStore("failed to scan search row", err)
		}
		r.Metadata = meta
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes rows by explicit ids, by a where clause, or both.
func (s *Store) Delete(ctx context.Context, ids []string, where Where) error {
	var conds []string
	var args []interface{}
	if len(ids) > 0 {
		args = append(args, ids)
		conds = append(conds, fmt.Sprintf("id = ANY($%d)", len(args)))
	}
	if len(where) > 0 {
		clause, whereArgs, err := buildWhere(where, len(args)+1)
		if err != nil {
			return apierrors.VectorStore("invalid filter", err)
		}
		if clause != "" {
			conds = append(conds, strings.TrimPrefix(clause, "WHERE "))
			args = append(args, whereArgs...)
		}
	}
	if len(conds) == 0 {
		return apierrors.VectorStore("delete requires ids or where", nil)
	}
	query := "DELETE FROM legal_documents WHERE " + strings.Join(conds, " AND ")
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return apierrors.VectorStore("delete failed", err)
	}
	return nil
}

// Update patches embedding/text/metadata for an existing id; a VectorStore
// error if no row has that id.
func (s *Store) Update(ctx context.Context, id string, embedding []float32, text *string, metadata map[string]interface{}) error {
	sets := []string{}
	args := []interface{}{}
	if embedding != nil {
		args = append(args, pgvector.NewVector(embedding))
		sets = append(sets, fmt.Sprintf("embedding = $%d", len(args)))
	}
	if text != nil {
		args = append(args, *text)
		sets = append(sets, fmt.Sprintf("content = $%d", len(args)))
	}
	if metadata != nil {
		args = append(args, metadata)
		sets = append(sets, fmt.Sprintf("metadata = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE legal_documents SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return apierrors.VectorStore("update failed", err)
	}
	if tag.RowsAffected() == 0 {
		return apierrors.VectorStore("document not found for update", nil)
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM legal_documents").Scan(&n); err != nil {
		return 0, apierrors.VectorStore("count failed", err)
	}
	return n, nil
}

func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "TRUNCATE legal_documents"); err != nil {
		return apierrors.VectorStore("reset failed", err)
	}
	return nil
}

func (s *Store) CollectionName() string { return collectionName }

func (s *Store) Close() { s.pool.Close() }

// buildWhere compiles the Where filter language into a parameterized SQL
// fragment over the JSONB metadata column, starting parameter numbering
// at startIdx. Sentinel "string" values must already be dropped by the
// caller (spec §4.2/§9) — buildWhere treats every remaining value as a
// real constraint.
func buildWhere(where Where, startIdx int) (string, []interface{}, error) {
	if len(where) == 0 {
		return "", nil, nil
	}
	if and, ok := where["$and"]; ok {
		conds, ok := and.([]map[string]interface{})
		if !ok {
			return "", nil, fmt.Errorf("$and must be a list of conditions")
		}
		var parts []string
		var args []interface{}
		idx := startIdx
		for _, cond := range conds {
			for k, v := range cond {
				parts = append(parts, fmt.Sprintf("metadata->>'%s' = $%d", k, idx))
				args = append(args, fmt.Sprintf("%v", v))
				idx++
			}
		}
		return "WHERE " + strings.Join(parts, " AND "), args, nil
	}

	var parts []string
	var args []interface{}
	idx := startIdx
	// Deterministic ordering for stable query text / tests.
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("metadata->>'%s' = $%d", k, idx))
		args = append(args, fmt.Sprintf("%v", where[k]))
		idx++
	}
	return "WHERE " + strings.Join(parts, " AND "), args, nil
}

func parentID(chunkID string) string {
	if i := strings.LastIndex(chunkID, "_chunk_"); i >= 0 {
		return chunkID[:i]
	}
	return chunkID
}

// pgxBatch is a tiny wrapper so Add can queue multiple statements without
// pulling in the full pgx.Batch type at the package boundary; kept this
// thin because the only caller is Add.
type pgxBatch struct {
	statements []string
	args       [][]interface{}
}

func (b *pgxBatch) queue(sql string, args ...interface{}) {
	b.statements = append(b.statements, sql)
	b.args = append(b.args, args)
}

func (s *Store) exec(ctx context.Context, b *pgxBatch) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	for i, stmt := range b.statements {
		if _, err := tx.Exec(ctx, stmt, b.args[i]...); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
