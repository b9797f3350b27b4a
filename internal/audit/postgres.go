package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikhilbhutani/studybrain/internal/models"
)

type PgRecorder struct {
	db *pgxpool.Pool
}

var _ Recorder = (*PgRecorder)(nil)

func NewPgRecorder(db *pgxpool.Pool) *PgRecorder {
	return &PgRecorder{db: db}
}

func (r *PgRecorder) Record(ctx context.Context, u models.LLMUsage) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO llm_usage_logs (id, user_id, operation, provider, model, input_tokens, output_tokens,
		   total_tokens, cost_usd, latency_ms, failed, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		u.ID, u.UserID, u.Operation, u.Provider, u.Model, u.InputTokens, u.OutputTokens,
		u.TotalTokens, u.CostUSD, u.LatencyMs, u.Failed, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert usage log: %w", err)
	}
	return nil
}

func (r *PgRecorder) Summary(ctx context.Context, userID uuid.UUID, since time.Time) ([]UsageSummary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT provider, model, operation, COUNT(*), COALESCE(SUM(total_tokens), 0),
		        COALESCE(SUM(cost_usd), 0), COALESCE(AVG(latency_ms), 0)
		 FROM llm_usage_logs
		 WHERE user_id = $1 AND created_at >= $2
		 GROUP BY provider, model, operation
		 ORDER BY SUM(cost_usd) DESC`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("query usage summary: %w", err)
	}
	defer rows.Close()

	var out []UsageSummary
	for rows.Next() {
		var s UsageSummary
		if err := rows.Scan(&s.Provider, &s.Model, &s.Operation, &s.Calls, &s.TotalTokens,
			&s.TotalCostUSD, &s.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan usage summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
