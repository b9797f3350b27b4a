package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/studybrain/internal/models"
)

// Repository persists document rows. Get scopes by owner: a document that
// exists but belongs to someone else is reported as models.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Document, error)
	// ListNarrated returns every document of the owner that has a stored
	// narration, newest first.
	ListNarrated(ctx context.Context, ownerID uuid.UUID) ([]models.Document, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	SetSummary(ctx context.Context, id uuid.UUID, summary string) error
	SetAudioURL(ctx context.Context, id uuid.UUID, audioURL string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type PgRepository struct {
	db *pgxpool.Pool
}

var _ Repository = (*PgRepository)(nil)

func NewPgRepository(db *pgxpool.Pool) *PgRepository {
	return &PgRepository{db: db}
}

const documentColumns = `id, owner_id, filename, file_type, file_path, category, content, summary, audio_url, status, created_at`

func (r *PgRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Status == "" {
		doc.Status = models.DocStatusPending
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO documents (id, owner_id, filename, file_type, file_path, category, content, summary, audio_url, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at`,
		doc.ID, doc.OwnerID, doc.Filename, doc.FileType, doc.FilePath, doc.Category,
		doc.Content, doc.Summary, doc.AudioURL, doc.Status,
	).Scan(&doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *PgRepository) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Document, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	return scanDocument(row)
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	row := r.db.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	return scanDocument(row)
}

func (r *PgRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+documentColumns+`
		 FROM documents WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return collectDocuments(rows)
}

func (r *PgRepository) ListNarrated(ctx context.Context, ownerID uuid.UUID) ([]models.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+documentColumns+`
		 FROM documents WHERE owner_id = $1 AND audio_url <> '' ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list narrated documents: %w", err)
	}
	return collectDocuments(rows)
}

func collectDocuments(rows pgx.Rows) ([]models.Document, error) {
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (r *PgRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.exec(ctx, "UPDATE documents SET status = $1 WHERE id = $2", status, id)
}

func (r *PgRepository) SetSummary(ctx context.Context, id uuid.UUID, summary string) error {
	return r.exec(ctx, "UPDATE documents SET summary = $1 WHERE id = $2", summary, id)
}

func (r *PgRepository) SetAudioURL(ctx context.Context, id uuid.UUID, audioURL string) error {
	return r.exec(ctx, "UPDATE documents SET audio_url = $1 WHERE id = $2", audioURL, id)
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, "DELETE FROM documents WHERE id = $1", id)
}

func (r *PgRepository) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document: %w", models.ErrNotFound)
	}
	return nil
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.OwnerID, &d.Filename, &d.FileType, &d.FilePath, &d.Category,
		&d.Content, &d.Summary, &d.AudioURL, &d.Status, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &d, nil
}
