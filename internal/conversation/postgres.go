package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/studybrain/internal/models"
)

type PgLog struct {
	db *pgxpool.Pool
}

var _ Log = (*PgLog)(nil)

func NewPgLog(db *pgxpool.Pool) *PgLog {
	return &PgLog{db: db}
}

func (l *PgLog) Append(ctx context.Context, msg *models.Message) error {
	if err := msg.Role.Validate(); err != nil {
		return err
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	err := l.db.QueryRow(ctx,
		`INSERT INTO conversation_messages (id, document_id, track, speaker, content, is_final)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		msg.ID, msg.DocumentID, string(msg.Role.Track), string(msg.Role.Speaker), msg.Content, msg.Final,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("append %s message: %w", msg.Role, err)
	}
	return nil
}

const selectMessage = `SELECT id, document_id, track, speaker, content, is_final, created_at FROM conversation_messages`

func (l *PgLog) History(ctx context.Context, docID uuid.UUID, track models.Track, limit int) ([]models.Message, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = l.db.Query(ctx,
			`SELECT id, document_id, track, speaker, content, is_final, created_at FROM (
			   SELECT id, document_id, track, speaker, content, is_final, created_at, seq
			   FROM conversation_messages
			   WHERE document_id = $1 AND track = $2
			   ORDER BY seq DESC LIMIT $3
			 ) recent ORDER BY seq`,
			docID, string(track), limit)
	} else {
		rows, err = l.db.Query(ctx,
			selectMessage+` WHERE document_id = $1 AND track = $2 ORDER BY seq`,
			docID, string(track))
	}
	if err != nil {
		return nil, fmt.Errorf("query %s history: %w", track, err)
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s history: %w", track, err)
	}
	return msgs, nil
}

func (l *PgLog) Count(ctx context.Context, docID uuid.UUID, track models.Track) (int, error) {
	var n int
	err := l.db.QueryRow(ctx,
		"SELECT count(*) FROM conversation_messages WHERE document_id = $1 AND track = $2",
		docID, string(track),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s messages: %w", track, err)
	}
	return n, nil
}

func (l *PgLog) LastAssistant(ctx context.Context, docID uuid.UUID, track models.Track) (*models.Message, error) {
	row := l.db.QueryRow(ctx,
		selectMessage+` WHERE document_id = $1 AND track = $2 AND speaker = $3 ORDER BY seq DESC LIMIT 1`,
		docID, string(track), string(models.SpeakerAssistant),
	)
	m, err := scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("last %s reply: %w", track, models.ErrNotFound)
	}
	return m, err
}

func (l *PgLog) ClearTrack(ctx context.Context, docID uuid.UUID, track models.Track) error {
	_, err := l.db.Exec(ctx, "DELETE FROM conversation_messages WHERE document_id = $1 AND track = $2", docID, string(track))
	if err != nil {
		return fmt.Errorf("clear %s track: %w", track, err)
	}
	return nil
}

func (l *PgLog) DeleteDocument(ctx context.Context, docID uuid.UUID) error {
	_, err := l.db.Exec(ctx, "DELETE FROM conversation_messages WHERE document_id = $1", docID)
	if err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	var track, speaker string
	err := row.Scan(&m.ID, &m.DocumentID, &track, &speaker, &m.Content, &m.Final, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan message: %w", err)
	}
	m.Role = models.Role{Track: models.Track(track), Speaker: models.Speaker(speaker)}
	return &m, nil
}
