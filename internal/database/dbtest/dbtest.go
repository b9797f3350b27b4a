// Package dbtest connects integration tests to the Postgres database named by
// TEST_DATABASE_URL. Tests using it are skipped when the variable is unset.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/studybrain/internal/config"
	"github.com/nikhilbhutani/studybrain/internal/database"
	"github.com/nikhilbhutani/studybrain/migrations"
)

// Dimensions is the vector width fixed by the schema.
const Dimensions = 768

// Pool returns a migrated pool closed at the end of the test.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, config.DatabaseConfig{URL: url, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.RunMigrations(ctx, pool, migrations.FS))
	return pool
}

// InsertDocument writes a bare ready document row for ownerID and removes it,
// with everything cascading from it, when the test ends.
func InsertDocument(t *testing.T, pool *pgxpool.Pool, ownerID uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO documents (id, owner_id, filename, file_type, content, status)
		 VALUES ($1, $2, $3, 'txt', 'content', 'ready')`,
		id, ownerID, id.String()+".txt")
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DELETE FROM documents WHERE id = $1", id)
	})
	return id
}

// Axis returns the unit vector along dimension i.
func Axis(i int) []float32 {
	v := make([]float32, Dimensions)
	v[i] = 1
	return v
}
