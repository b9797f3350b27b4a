package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type PgVectorStore struct {
	db   *pgxpool.Pool
	dims int
}

var _ ChunkStore = (*PgVectorStore)(nil)

func NewPgVectorStore(db *pgxpool.Pool, dims int) *PgVectorStore {
	return &PgVectorStore{db: db, dims: dims}
}

const insertChunk = `INSERT INTO document_chunks (id, document_id, owner_id, chunk_index, content, embedding, token_count)
	 VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (s *PgVectorStore) Put(ctx context.Context, c Chunk) error {
	return s.PutBatch(ctx, []Chunk{c})
}

func (s *PgVectorStore) PutBatch(ctx context.Context, chunks []Chunk) error {
	for _, c := range chunks {
		if err := checkDims(c.Embedding, s.dims); err != nil {
			return fmt.Errorf("chunk %d: %w", c.ChunkIndex, err)
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range chunks {
		id := c.ID
		if id == uuid.Nil {
			id = uuid.New()
		}

		_, err := tx.Exec(ctx, insertChunk,
			id, c.DocumentID, c.OwnerID, c.ChunkIndex, c.Content, pgvector.NewVector(c.Embedding), c.TokenCount,
		)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.ChunkIndex, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PgVectorStore) Search(ctx context.Context, scope Scope, query []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if err := checkDims(query, s.dims); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	where, args := scopeFilter(scope)
	args = append([]any{pgvector.NewVector(query), k}, args...)

	rows, err := s.db.Query(ctx,
		`SELECT id, document_id, chunk_index, content, embedding <=> $1 AS distance
		 FROM document_chunks
		 WHERE `+where+`
		 ORDER BY distance, chunk_index, seq
		 LIMIT $2`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity search %s: %w", scope, err)
	}
	defer rows.Close()

	results := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.ChunkIndex, &r.Content, &r.Distance); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

// scopeFilter returns a WHERE clause whose placeholders start at $3.
func scopeFilter(scope Scope) (string, []any) {
	if scope.IsDocument() {
		return "document_id = $3", []any{scope.DocumentID}
	}
	if scope.ExcludeDocumentID == uuid.Nil {
		return "owner_id = $3", []any{scope.OwnerID}
	}
	return "owner_id = $3 AND document_id <> $4", []any{scope.OwnerID, scope.ExcludeDocumentID}
}

func (s *PgVectorStore) DeleteDocument(ctx context.Context, docID uuid.UUID) error {
	if _, err := s.db.Exec(ctx, "DELETE FROM document_chunks WHERE document_id = $1", docID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

func (s *PgVectorStore) CountDocument(ctx context.Context, docID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, "SELECT count(*) FROM document_chunks WHERE document_id = $1", docID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}
